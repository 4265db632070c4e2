package domain

// RetrievalFilter restricts a vector search to one tenant's data and,
// optionally, to a single source type. It is constructed fresh per
// query and never persisted.
type RetrievalFilter struct {
	// TenantID is always required. An index backend must never return
	// chunks belonging to a different tenant.
	TenantID string

	// SourceType, when non-empty, restricts results to one source kind.
	SourceType SourceType
}

// Matches reports whether a chunk's metadata satisfies the filter.
// Backends that filter natively (e.g. Qdrant payload filters) do not
// need this; it is the reference semantics used by local backends.
func (f RetrievalFilter) Matches(m SourceMetadata) bool {
	if m.TenantID != f.TenantID {
		return false
	}
	if f.SourceType != "" && m.SourceType != f.SourceType {
		return false
	}
	return true
}

// ScoredChunk is a retrieved chunk with its similarity score.
type ScoredChunk struct {
	// Chunk is the matched chunk.
	Chunk Chunk

	// Score is the similarity score. Results are ordered by
	// descending score; ties are broken arbitrarily.
	Score float64
}

// StreamEvent is one message of a streamed answer. The sequence is
// forward-only and single-consumer: zero or more content fragments,
// then exactly one terminal event (Done or Err).
type StreamEvent struct {
	// Content is a text fragment. Empty on terminal events.
	Content string `json:"content,omitempty"`

	// Done marks successful end of stream.
	Done bool `json:"done,omitempty"`

	// Err carries a mid-stream generation failure. Terminal.
	Err error `json:"-"`
}
