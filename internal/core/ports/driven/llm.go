package driven

import "context"

// LLMService provides text generation for answer synthesis.
//
// Implementations may include:
//   - OpenAI (GPT-4o, GPT-4o-mini)
//   - Ollama (local models)
//   - Any OpenAI-compatible inference server
type LLMService interface {
	// Generate produces a complete text completion from a prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// GenerateStream produces a completion incrementally. The returned
	// channel yields zero or more content deltas followed by exactly one
	// terminal delta (Done or Err), then closes. Cancelling the context
	// stops the stream promptly; the terminal delta carries the
	// cancellation error.
	GenerateStream(ctx context.Context, prompt string, opts GenerateOptions) (<-chan StreamDelta, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight
	// test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// StopWords are sequences that stop generation when encountered.
	StopWords []string
}

// StreamDelta is one increment of a streamed generation.
type StreamDelta struct {
	// Content is the text fragment produced so far. Empty on terminal deltas.
	Content string

	// Done marks successful end of generation.
	Done bool

	// Err carries a mid-stream failure. Terminal.
	Err error
}
