package domain

import "time"

// SourceType identifies the kind of source a chunk was ingested from.
// The set is closed: each value has exactly one ingestion loader.
type SourceType string

const (
	// SourcePDF is an uploaded PDF file.
	SourcePDF SourceType = "pdf"

	// SourceWebsite is a fetched web page.
	SourceWebsite SourceType = "website"

	// SourceYouTube is a video transcript.
	SourceYouTube SourceType = "youtube"
)

// Valid reports whether the source type is one of the known kinds.
func (t SourceType) Valid() bool {
	switch t {
	case SourcePDF, SourceWebsite, SourceYouTube:
		return true
	}
	return false
}

// Document is the normalised text a loader produced from one raw input.
// It is transient: the ingestion pipeline consumes it immediately and
// only the resulting chunks are persisted.
type Document struct {
	// Content is the full normalised text before chunking.
	Content string

	// Title is the human-readable title, when the loader found one.
	Title string

	// Metadata contains loader-specific attributes
	// (page count, link count, video author, ...).
	Metadata map[string]any
}

// SourceMetadata is the provenance attached to every chunk.
// TenantID is the sole tenant-isolation key.
type SourceMetadata struct {
	// TenantID identifies the owning tenant. Required.
	TenantID string

	// SourceType is the kind of source this chunk came from.
	SourceType SourceType

	// SourceID uniquely identifies one ingestion event, so that
	// re-ingesting the same logical source stays distinguishable.
	SourceID string

	// SourceDescription is the human-readable provenance string that is
	// prepended literally to chunk content. Two different sources must
	// never produce identical descriptions or source disambiguation in
	// the synthesizer degrades.
	SourceDescription string

	// IngestedAt is when the ingestion happened.
	IngestedAt time.Time

	// Filename is set for PDF sources.
	Filename string

	// URL is set for website and youtube sources.
	URL string

	// Title is the page title, set for website sources.
	Title string

	// LinksCount is the number of links extracted, set for website sources.
	LinksCount int

	// VideoTitle is set for youtube sources.
	VideoTitle string

	// Author is the channel name, set for youtube sources.
	Author string
}

// Chunk is the unit stored in the tenant index. Chunks are immutable
// once written: there is no per-chunk update or delete, only bulk
// deletion by tenant.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// Content is the chunk text, starting with the "[SOURCE: ...]" header.
	Content string

	// Position is the ordinal position within the source document.
	Position int

	// Embedding is the vector representation, computed once at ingestion.
	Embedding []float32

	// Metadata is the provenance shared by all chunks of one ingestion.
	Metadata SourceMetadata
}

// IngestResult reports the outcome of one ingestion call.
type IngestResult struct {
	// Success is true when every chunk was embedded and indexed.
	Success bool `json:"success"`

	// ChunkCount is the number of chunks written to the index.
	ChunkCount int `json:"chunks"`

	// Pages is the number of pages loaded. PDF only.
	Pages int `json:"pages,omitempty"`

	// LinksExtracted is the number of links found. Website only.
	LinksExtracted int `json:"linksExtracted,omitempty"`
}

// PurgeResult reports the outcome of a tenant deletion.
type PurgeResult struct {
	// Success is true when the purge completed.
	Success bool `json:"success"`

	// DeletedCount is the number of index entries removed.
	// Zero is a valid outcome for a tenant with no data.
	DeletedCount int `json:"deleted"`
}
