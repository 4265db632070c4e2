// Package domain defines the core business entities for Corthyx.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: Normalised text produced by an ingestion loader
//   - Chunk: An indexed unit of text with embedding and provenance
//   - SourceMetadata: Provenance attached to every chunk
//   - RetrievalFilter: Tenant-scoped predicate for vector search
//   - StreamEvent: One message of a streamed answer
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
