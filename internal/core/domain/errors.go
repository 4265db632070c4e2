package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrIngestion indicates a source could not be fetched, parsed or
	// indexed. Ingestion is never retried internally; the caller decides.
	ErrIngestion = errors.New("ingestion failed")

	// ErrUnsupportedType indicates an input failed a source type check,
	// e.g. a non-PDF file handed to the PDF loader.
	ErrUnsupportedType = errors.New("unsupported source type")

	// ErrNoTranscript indicates a video has no transcript in the
	// requested language. Surfaced as an ingestion failure, never as a
	// partial or empty result.
	ErrNoTranscript = errors.New("no transcript available")

	// ErrRetrievalTimeout indicates the vector search exceeded its bound.
	// Terminal for the query; no automatic retry keeps latency predictable.
	ErrRetrievalTimeout = errors.New("retrieval timed out")

	// ErrEmbeddingService indicates the embedding service failed.
	ErrEmbeddingService = errors.New("embedding service error")

	// ErrGenerationService indicates the generation service failed.
	ErrGenerationService = errors.New("generation service error")

	// ErrIndexUnavailable indicates the vector index backend is unreachable.
	ErrIndexUnavailable = errors.New("vector index unavailable")
)
