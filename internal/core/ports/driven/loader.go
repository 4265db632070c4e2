package driven

import (
	"context"

	"github.com/piyushgoswami015/CorthyxAI/internal/core/domain"
)

// Loader produces a normalised Document from a raw input handle.
// Each source type (pdf, website, youtube) has exactly one loader;
// the set is closed and selection happens by source type, never by
// runtime content sniffing.
//
// Loaders fetch and parse only. Chunking, tagging, embedding and
// indexing are the ingestion service's job.
type Loader interface {
	// Type returns the source type this loader handles.
	Type() domain.SourceType

	// Load fetches and parses the resource behind the locator
	// (a file path for pdf, a URL for website and youtube).
	// Fetch or parse failures are returned as-is for the service to
	// wrap; loaders perform no retries.
	Load(ctx context.Context, locator string) (*domain.Document, error)
}

// Well-known Document.Metadata keys populated by loaders.
const (
	// MetaPages is the page count of a PDF (int).
	MetaPages = "pages"

	// MetaTitle is the page or video title (string).
	MetaTitle = "title"

	// MetaAuthor is the video channel name (string).
	MetaAuthor = "author"

	// MetaLinksCount is the number of links extracted from a page (int).
	MetaLinksCount = "links_count"
)
