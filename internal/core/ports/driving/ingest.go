package driving

import (
	"context"

	"github.com/piyushgoswami015/CorthyxAI/internal/core/domain"
)

// IngestService turns raw inputs into tenant-tagged indexed chunks.
// One call per source; concurrent ingestions for the same tenant are
// independent and additive.
type IngestService interface {
	// Ingest fetches, chunks, tags, embeds and indexes one source.
	// The locator is a file path for pdf and a URL for website/youtube.
	// Failures wrap domain.ErrIngestion; no partial success is reported.
	Ingest(ctx context.Context, sourceType domain.SourceType, locator, tenantID string) (*domain.IngestResult, error)

	// Purge removes every index entry belonging to the tenant.
	// Idempotent: purging a tenant with no data succeeds with zero
	// deletions.
	Purge(ctx context.Context, tenantID string) (*domain.PurgeResult, error)
}
