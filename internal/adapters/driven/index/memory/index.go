// Package memory provides an in-memory TenantIndex used in tests and
// as a reference for the filter semantics.
package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/piyushgoswami015/CorthyxAI/internal/core/domain"
	"github.com/piyushgoswami015/CorthyxAI/internal/core/ports/driven"
)

// Ensure TenantIndex implements the interface.
var _ driven.TenantIndex = (*TenantIndex)(nil)

// TenantIndex is a mutex-guarded in-memory vector index.
type TenantIndex struct {
	mu     sync.RWMutex
	chunks []domain.Chunk
}

// New creates a new in-memory tenant index.
func New() *TenantIndex {
	return &TenantIndex{}
}

// Add appends chunks.
func (x *TenantIndex) Add(ctx context.Context, chunks []domain.Chunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	x.chunks = append(x.chunks, chunks...)
	return nil
}

// Search returns up to k chunks matching the filter, by descending
// cosine similarity to the query vector.
func (x *TenantIndex) Search(
	ctx context.Context, vector []float32, k int, filter domain.RetrievalFilter,
) ([]domain.ScoredChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	var hits []domain.ScoredChunk
	for _, c := range x.chunks {
		if !filter.Matches(c.Metadata) {
			continue
		}
		hits = append(hits, domain.ScoredChunk{
			Chunk: c,
			Score: cosineSimilarity(vector, c.Embedding),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// DeleteByTenant removes all entries for the tenant.
func (x *TenantIndex) DeleteByTenant(ctx context.Context, tenantID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	kept := x.chunks[:0]
	deleted := 0
	for _, c := range x.chunks {
		if c.Metadata.TenantID == tenantID {
			deleted++
			continue
		}
		kept = append(kept, c)
	}
	x.chunks = kept
	return deleted, nil
}

// Ping always succeeds.
func (x *TenantIndex) Ping(context.Context) error {
	return nil
}

// Close releases nothing.
func (x *TenantIndex) Close() error {
	return nil
}

// Len returns the number of stored chunks. Test helper.
func (x *TenantIndex) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.chunks)
}

// cosineSimilarity computes the cosine of the angle between two
// vectors. Mismatched or zero vectors score zero.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
