package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/piyushgoswami015/CorthyxAI/internal/adapters/driving/cli"
)

func main() {
	// A local .env is convenient for API keys; ignore if absent.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
