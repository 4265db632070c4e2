package driven

import (
	"context"

	"github.com/piyushgoswami015/CorthyxAI/internal/core/domain"
)

// TenantIndex is a persistent, tenant-partitioned vector store.
// Entries are chunks (content + embedding + metadata), queryable by
// nearest neighbour with a structured filter and bulk-deletable by
// tenant. There is no per-chunk update or single-chunk delete.
//
// Implementations must tolerate a backing collection that does not yet
// exist: the first-ever ingestion may be the one that establishes the
// schema, so connection and collection setup happen lazily on first use
// and the handle is reused safely across concurrent callers.
type TenantIndex interface {
	// Add appends chunks. Safe to call concurrently from multiple
	// ingestions; each write carries its own tenant ID and no
	// cross-chunk coordination is required.
	Add(ctx context.Context, chunks []domain.Chunk) error

	// Search returns up to k chunks matching the filter, ordered by
	// descending similarity to the query vector. An empty result is a
	// valid outcome, not an error.
	Search(ctx context.Context, vector []float32, k int, filter domain.RetrievalFilter) ([]domain.ScoredChunk, error)

	// DeleteByTenant removes all entries for the tenant and returns how
	// many were removed. Idempotent: a tenant with zero entries yields
	// (0, nil).
	DeleteByTenant(ctx context.Context, tenantID string) (int, error)

	// Ping validates the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
