// Package config loads application configuration from a TOML file with
// environment variable overrides for secrets.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Known provider and index backend names.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"

	IndexQdrant = "qdrant"
	IndexSQLite = "sqlite"
	IndexMemory = "memory"
)

// Config is the application configuration.
type Config struct {
	// Tenant is the default tenant ID used when no --tenant flag is given.
	Tenant string `toml:"tenant"`

	Embedding Embedding `toml:"embedding"`
	LLM       LLM       `toml:"llm"`
	Index     Index     `toml:"index"`
	Ingest    Ingest    `toml:"ingest"`
	Query     Query     `toml:"query"`
	Prompts   Prompts   `toml:"prompts"`
}

// Embedding configures the embedding provider.
type Embedding struct {
	// Provider selects the backend: "openai" or "ollama".
	Provider string `toml:"provider"`
	// APIKey is normally supplied via OPENAI_API_KEY instead.
	APIKey     string `toml:"api_key"`
	BaseURL    string `toml:"base_url"`
	Model      string `toml:"model"`
	Dimensions int    `toml:"dimensions"`
}

// LLM configures the generation provider.
type LLM struct {
	// Provider selects the backend: "openai" or "ollama".
	Provider string `toml:"provider"`
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
	Model    string `toml:"model"`
}

// Index configures the vector index backend.
type Index struct {
	// Backend selects the index: "qdrant", "sqlite" or "memory".
	Backend string `toml:"backend"`
	// URL is the Qdrant base URL.
	URL string `toml:"url"`
	// APIKey authenticates against a hosted Qdrant.
	APIKey string `toml:"api_key"`
	// Collection is the Qdrant collection name.
	Collection string `toml:"collection"`
	// DataDir holds the SQLite database.
	DataDir string `toml:"data_dir"`
}

// Ingest configures document splitting.
type Ingest struct {
	ChunkSize int `toml:"chunk_size"`
	Overlap   int `toml:"overlap"`
	// WebRequestsPerSecond throttles the web loader.
	WebRequestsPerSecond float64 `toml:"web_requests_per_second"`
}

// Query configures retrieval.
type Query struct {
	TopK int `toml:"top_k"`
	// SearchTimeoutSeconds bounds the vector search.
	SearchTimeoutSeconds int `toml:"search_timeout_seconds"`
}

// Prompts configures the prompt store.
type Prompts struct {
	Dir string `toml:"dir"`
}

// DefaultPath returns the default config file location,
// ~/.corthyx/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".corthyx", "config.toml"), nil
}

// Load reads the config file at path and applies environment
// overrides. A missing file is not an error; defaults and environment
// variables alone are enough to run.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Tenant: "default",
		Embedding: Embedding{
			Provider: ProviderOpenAI,
		},
		LLM: LLM{
			Provider: ProviderOpenAI,
		},
		Index: Index{
			Backend:    IndexQdrant,
			Collection: "corthyx",
		},
	}

	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// No config file yet, run on defaults and environment.
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overlays environment variables. Secrets belong in the
// environment rather than the config file.
func (c *Config) applyEnv() {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		if c.Embedding.APIKey == "" {
			c.Embedding.APIKey = v
		}
		if c.LLM.APIKey == "" {
			c.LLM.APIKey = v
		}
	}
	if v := os.Getenv("QDRANT_URL"); v != "" {
		c.Index.URL = v
	}
	if v := os.Getenv("QDRANT_API_KEY"); v != "" {
		c.Index.APIKey = v
	}
	if v := os.Getenv("QDRANT_COLLECTION"); v != "" {
		c.Index.Collection = v
	}
	if v := os.Getenv("OLLAMA_BASE_URL"); v != "" {
		if c.Embedding.Provider == ProviderOllama && c.Embedding.BaseURL == "" {
			c.Embedding.BaseURL = v
		}
		if c.LLM.Provider == ProviderOllama && c.LLM.BaseURL == "" {
			c.LLM.BaseURL = v
		}
	}
	if v := os.Getenv("CORTHYX_TENANT"); v != "" {
		c.Tenant = v
	}
}
