// Package qdrant provides a TenantIndex backed by a Qdrant server via
// its REST API. The collection is created lazily on first use, so the
// first-ever ingestion can establish the schema.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/piyushgoswami015/CorthyxAI/internal/core/domain"
	"github.com/piyushgoswami015/CorthyxAI/internal/core/ports/driven"
	"github.com/piyushgoswami015/CorthyxAI/internal/logger"
)

// Ensure TenantIndex implements the interface.
var _ driven.TenantIndex = (*TenantIndex)(nil)

// Default configuration values.
const (
	DefaultURL        = "http://localhost:6333"
	DefaultCollection = "rag_collection"
	DefaultTimeout    = 60 * time.Second
)

// Config holds configuration for the Qdrant index.
type Config struct {
	// URL is the Qdrant base URL (default: http://localhost:6333).
	URL string

	// APIKey authenticates requests when the server requires it.
	APIKey string

	// Collection is the collection name (default: rag_collection).
	Collection string

	// Dimensions is the embedding vector size, used when the
	// collection has to be created. Must match the embedding model.
	Dimensions int

	// Timeout is the per-request timeout (default: 60s).
	Timeout time.Duration
}

// TenantIndex is a minimal REST client to Qdrant. It assumes cosine
// distance and creates the collection if missing.
type TenantIndex struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	collection string
	dimensions int

	initOnce sync.Once
	initErr  error
}

// New creates a new Qdrant tenant index. No connection is made here;
// the collection is checked and created on first use and the handle is
// reused safely across concurrent callers.
func New(cfg Config) *TenantIndex {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &TenantIndex{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:    cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		dimensions: cfg.Dimensions,
	}
}

// point is the Qdrant point format for upserts.
type point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

// filterClause is one exact-match condition of a Qdrant filter.
type filterClause struct {
	Key   string `json:"key"`
	Match struct {
		Value string `json:"value"`
	} `json:"match"`
}

// Add upserts chunks as points. Writes wait for commit so a completed
// ingestion is immediately searchable.
func (x *TenantIndex) Add(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if err := x.ensureCollection(ctx); err != nil {
		return err
	}

	points := make([]point, len(chunks))
	for i, c := range chunks {
		points[i] = point{
			ID:      c.ID,
			Vector:  c.Embedding,
			Payload: payloadFor(c),
		}
	}

	endpoint := fmt.Sprintf("%s/collections/%s/points?wait=true", x.baseURL, x.collection)
	return x.do(ctx, http.MethodPut, endpoint, map[string]any{"points": points}, nil)
}

// searchResponse is the Qdrant search response format.
type searchResponse struct {
	Result []struct {
		Score   float64        `json:"score"`
		Payload map[string]any `json:"payload"`
	} `json:"result"`
}

// Search runs a filtered nearest-neighbour query.
func (x *TenantIndex) Search(
	ctx context.Context, vector []float32, k int, filter domain.RetrievalFilter,
) ([]domain.ScoredChunk, error) {
	if err := x.ensureCollection(ctx); err != nil {
		return nil, err
	}

	req := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
		"filter":       qdrantFilter(filter),
	}

	var resp searchResponse
	endpoint := fmt.Sprintf("%s/collections/%s/points/search", x.baseURL, x.collection)
	if err := x.do(ctx, http.MethodPost, endpoint, req, &resp); err != nil {
		return nil, err
	}

	hits := make([]domain.ScoredChunk, 0, len(resp.Result))
	for _, r := range resp.Result {
		hits = append(hits, domain.ScoredChunk{
			Chunk: chunkFrom(r.Payload),
			Score: r.Score,
		})
	}
	return hits, nil
}

// countResponse is the Qdrant count response format.
type countResponse struct {
	Result struct {
		Count int `json:"count"`
	} `json:"result"`
}

// DeleteByTenant counts, then deletes, every point belonging to the
// tenant. Idempotent: a tenant with no points yields (0, nil).
func (x *TenantIndex) DeleteByTenant(ctx context.Context, tenantID string) (int, error) {
	if err := x.ensureCollection(ctx); err != nil {
		return 0, err
	}

	filter := qdrantFilter(domain.RetrievalFilter{TenantID: tenantID})

	var count countResponse
	countEndpoint := fmt.Sprintf("%s/collections/%s/points/count", x.baseURL, x.collection)
	if err := x.do(ctx, http.MethodPost, countEndpoint, map[string]any{"filter": filter, "exact": true}, &count); err != nil {
		return 0, err
	}
	if count.Result.Count == 0 {
		return 0, nil
	}

	deleteEndpoint := fmt.Sprintf("%s/collections/%s/points/delete?wait=true", x.baseURL, x.collection)
	if err := x.do(ctx, http.MethodPost, deleteEndpoint, map[string]any{"filter": filter}, nil); err != nil {
		return 0, err
	}

	return count.Result.Count, nil
}

// Ping checks the server is reachable.
func (x *TenantIndex) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, x.baseURL+"/collections", http.NoBody)
	if err != nil {
		return fmt.Errorf("create ping request: %w", err)
	}
	x.setHeaders(req)

	resp, err := x.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrIndexUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: qdrant returned status %d", domain.ErrIndexUnavailable, resp.StatusCode)
	}
	return nil
}

// Close releases resources.
func (x *TenantIndex) Close() error {
	return nil
}

// ensureCollection attaches to the collection, creating it with cosine
// distance if it does not exist yet. Runs once per process.
func (x *TenantIndex) ensureCollection(ctx context.Context) error {
	x.initOnce.Do(func() {
		endpoint := fmt.Sprintf("%s/collections/%s", x.baseURL, x.collection)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
		if err != nil {
			x.initErr = fmt.Errorf("create request: %w", err)
			return
		}
		x.setHeaders(req)

		resp, err := x.client.Do(req)
		if err != nil {
			x.initErr = fmt.Errorf("%w: %v", domain.ErrIndexUnavailable, err)
			return
		}
		io.Copy(io.Discard, resp.Body) //nolint:errcheck // drain for reuse
		resp.Body.Close()

		if resp.StatusCode == http.StatusOK {
			return
		}

		logger.Info("Creating collection %s (%d dimensions)", x.collection, x.dimensions)
		body := map[string]any{
			"vectors": map[string]any{
				"size":     x.dimensions,
				"distance": "Cosine",
			},
		}
		x.initErr = x.do(ctx, http.MethodPut, endpoint, body, nil)
	})
	return x.initErr
}

// do sends one JSON request and decodes the response into out when
// given. Transport failures surface as index-unavailable errors.
func (x *TenantIndex) do(ctx context.Context, method, endpoint string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	x.setHeaders(req)

	resp, err := x.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", domain.ErrIndexUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("qdrant %s %s: status %d: %s", method, endpoint, resp.StatusCode, string(raw))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (x *TenantIndex) setHeaders(req *http.Request) {
	if x.apiKey != "" {
		req.Header.Set("api-key", x.apiKey)
	}
}

// qdrantFilter translates a RetrievalFilter into Qdrant must clauses.
func qdrantFilter(filter domain.RetrievalFilter) map[string]any {
	must := []filterClause{matchClause("tenant_id", filter.TenantID)}
	if filter.SourceType != "" {
		must = append(must, matchClause("source_type", string(filter.SourceType)))
	}
	return map[string]any{"must": must}
}

func matchClause(key, value string) filterClause {
	c := filterClause{Key: key}
	c.Match.Value = value
	return c
}

// payloadFor flattens a chunk into the stored payload.
func payloadFor(c domain.Chunk) map[string]any {
	m := c.Metadata
	payload := map[string]any{
		"content":            c.Content,
		"position":           c.Position,
		"tenant_id":          m.TenantID,
		"source_type":        string(m.SourceType),
		"source_id":          m.SourceID,
		"source_description": m.SourceDescription,
		"ingested_at":        m.IngestedAt.Format(time.RFC3339),
	}
	if m.Filename != "" {
		payload["filename"] = m.Filename
	}
	if m.URL != "" {
		payload["url"] = m.URL
	}
	if m.Title != "" {
		payload["title"] = m.Title
	}
	if m.LinksCount > 0 {
		payload["links_count"] = m.LinksCount
	}
	if m.VideoTitle != "" {
		payload["video_title"] = m.VideoTitle
	}
	if m.Author != "" {
		payload["author"] = m.Author
	}
	return payload
}

// chunkFrom rebuilds a chunk from a stored payload.
func chunkFrom(payload map[string]any) domain.Chunk {
	c := domain.Chunk{
		Content: asString(payload, "content"),
		Metadata: domain.SourceMetadata{
			TenantID:          asString(payload, "tenant_id"),
			SourceType:        domain.SourceType(asString(payload, "source_type")),
			SourceID:          asString(payload, "source_id"),
			SourceDescription: asString(payload, "source_description"),
			Filename:          asString(payload, "filename"),
			URL:               asString(payload, "url"),
			Title:             asString(payload, "title"),
			VideoTitle:        asString(payload, "video_title"),
			Author:            asString(payload, "author"),
			LinksCount:        asInt(payload, "links_count"),
		},
	}
	c.Position = asInt(payload, "position")
	if ts := asString(payload, "ingested_at"); ts != "" {
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			c.Metadata.IngestedAt = parsed
		}
	}
	return c
}

func asString(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func asInt(m map[string]any, key string) int {
	if v, ok := m[key].(float64); ok {
		return int(v)
	}
	return 0
}
