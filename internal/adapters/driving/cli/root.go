// Package cli is the command-line driving adapter. It wires the
// configured providers into the core services and exposes them as
// cobra commands.
package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/piyushgoswami015/CorthyxAI/internal/adapters/driven/config/file"
	embollama "github.com/piyushgoswami015/CorthyxAI/internal/adapters/driven/embedding/ollama"
	embopenai "github.com/piyushgoswami015/CorthyxAI/internal/adapters/driven/embedding/openai"
	"github.com/piyushgoswami015/CorthyxAI/internal/adapters/driven/index/memory"
	"github.com/piyushgoswami015/CorthyxAI/internal/adapters/driven/index/qdrant"
	"github.com/piyushgoswami015/CorthyxAI/internal/adapters/driven/index/sqlite"
	llmollama "github.com/piyushgoswami015/CorthyxAI/internal/adapters/driven/llm/ollama"
	llmopenai "github.com/piyushgoswami015/CorthyxAI/internal/adapters/driven/llm/openai"
	"github.com/piyushgoswami015/CorthyxAI/internal/chunker"
	"github.com/piyushgoswami015/CorthyxAI/internal/config"
	"github.com/piyushgoswami015/CorthyxAI/internal/core/ports/driven"
	"github.com/piyushgoswami015/CorthyxAI/internal/core/ports/driving"
	"github.com/piyushgoswami015/CorthyxAI/internal/core/services"
	"github.com/piyushgoswami015/CorthyxAI/internal/loaders/pdf"
	"github.com/piyushgoswami015/CorthyxAI/internal/loaders/web"
	"github.com/piyushgoswami015/CorthyxAI/internal/loaders/youtube"
	"github.com/piyushgoswami015/CorthyxAI/internal/logger"
)

var version = "dev"

// Flags shared across commands.
var (
	flagVerbose bool
	flagConfig  string
	flagTenant  string
)

// Services wired at startup. Tests substitute fakes here.
var (
	ingestService driving.IngestService
	queryService  driving.QueryService
	cfg           *config.Config
	closers       []io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "corthyx",
	Short: "Ask questions about your own documents",
	Long: `Corthyx ingests PDFs, web pages and YouTube transcripts into a
per-tenant vector index and answers questions grounded strictly in
that content.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(flagVerbose)
		logger.SetOutput(cmd.ErrOrStderr())
		return nil
	},
}

// Execute runs the CLI.
func Execute() error {
	defer closeServices()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file path (default ~/.corthyx/config.toml)")
	rootCmd.PersistentFlags().StringVarP(&flagTenant, "tenant", "t", "", "tenant ID (default from config)")
}

// tenantID resolves the effective tenant for a command.
func tenantID() string {
	if flagTenant != "" {
		return flagTenant
	}
	if cfg != nil && cfg.Tenant != "" {
		return cfg.Tenant
	}
	return "default"
}

// initServices builds the service graph from configuration. Commands
// that touch the index or providers call this in their RunE; cheap
// commands like version skip it.
func initServices() error {
	if ingestService != nil && queryService != nil {
		return nil
	}

	c, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	cfg = c

	embedder, err := buildEmbedder(c)
	if err != nil {
		return err
	}
	closers = append(closers, embedder)

	llm, err := buildLLM(c)
	if err != nil {
		return err
	}
	closers = append(closers, llm)

	index, err := buildIndex(c, embedder.Dimensions())
	if err != nil {
		return err
	}
	closers = append(closers, index)

	var splitOpts []chunker.Option
	if c.Ingest.ChunkSize > 0 {
		splitOpts = append(splitOpts, chunker.WithChunkSize(c.Ingest.ChunkSize))
	}
	if c.Ingest.Overlap > 0 {
		splitOpts = append(splitOpts, chunker.WithOverlap(c.Ingest.Overlap))
	}
	splitter := chunker.New(splitOpts...)

	ingestService = services.NewIngestService(splitter, embedder, index,
		pdf.New(),
		web.New(web.Config{RequestsPerSecond: c.Ingest.WebRequestsPerSecond}),
		youtube.New(youtube.Config{}),
	)

	var queryOpts []services.QueryOption
	if c.Query.TopK > 0 {
		queryOpts = append(queryOpts, services.WithTopK(c.Query.TopK))
	}
	if c.Query.SearchTimeoutSeconds > 0 {
		queryOpts = append(queryOpts, services.WithSearchTimeout(time.Duration(c.Query.SearchTimeoutSeconds)*time.Second))
	}
	qs := services.NewQueryService(services.NewKeywordFilter(), embedder, index, llm, queryOpts...)

	if store, err := file.NewPromptStore(c.Prompts.Dir); err == nil {
		qs.SetPromptStore(store)
	}
	queryService = qs

	return nil
}

func buildEmbedder(c *config.Config) (driven.EmbeddingService, error) {
	switch c.Embedding.Provider {
	case config.ProviderOllama:
		return embollama.NewEmbeddingService(embollama.Config{
			BaseURL:    c.Embedding.BaseURL,
			Model:      c.Embedding.Model,
			Dimensions: c.Embedding.Dimensions,
		}), nil
	case config.ProviderOpenAI, "":
		return embopenai.NewEmbeddingService(embopenai.Config{
			APIKey:     c.Embedding.APIKey,
			BaseURL:    c.Embedding.BaseURL,
			Model:      c.Embedding.Model,
			Dimensions: c.Embedding.Dimensions,
		})
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", c.Embedding.Provider)
	}
}

func buildLLM(c *config.Config) (driven.LLMService, error) {
	switch c.LLM.Provider {
	case config.ProviderOllama:
		return llmollama.NewLLMService(llmollama.Config{
			BaseURL: c.LLM.BaseURL,
			Model:   c.LLM.Model,
		}), nil
	case config.ProviderOpenAI, "":
		return llmopenai.NewLLMService(llmopenai.Config{
			APIKey:  c.LLM.APIKey,
			BaseURL: c.LLM.BaseURL,
			Model:   c.LLM.Model,
		})
	default:
		return nil, fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
}

func buildIndex(c *config.Config, dimensions int) (driven.TenantIndex, error) {
	switch c.Index.Backend {
	case config.IndexSQLite:
		return sqlite.New(c.Index.DataDir)
	case config.IndexMemory:
		return memory.New(), nil
	case config.IndexQdrant, "":
		return qdrant.New(qdrant.Config{
			URL:        c.Index.URL,
			APIKey:     c.Index.APIKey,
			Collection: c.Index.Collection,
			Dimensions: dimensions,
		}), nil
	default:
		return nil, fmt.Errorf("unknown index backend %q", c.Index.Backend)
	}
}

func closeServices() {
	for _, c := range closers {
		c.Close() //nolint:errcheck // shutdown path
	}
	closers = nil
}
