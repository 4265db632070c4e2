package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piyushgoswami015/CorthyxAI/internal/adapters/driven/index/memory"
	"github.com/piyushgoswami015/CorthyxAI/internal/chunker"
	"github.com/piyushgoswami015/CorthyxAI/internal/core/domain"
	"github.com/piyushgoswami015/CorthyxAI/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbedder implements driven.EmbeddingService for testing.
// It returns a fixed-size vector per text and records call counts.
type mockEmbedder struct {
	embedCalls int
	batchCalls int
	embedErr   error
	short      bool // return one vector fewer than requested
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	m.embedCalls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return []float32{1, 0, 0}, nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.batchCalls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	n := len(texts)
	if m.short && n > 0 {
		n--
	}
	vectors := make([][]float32, n)
	for i := range vectors {
		vectors[i] = []float32{1, 0, float32(i)}
	}
	return vectors, nil
}

func (m *mockEmbedder) Dimensions() int              { return 3 }
func (m *mockEmbedder) ModelName() string            { return "mock-embed" }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                 { return nil }

// mockLoader implements driven.Loader for testing.
type mockLoader struct {
	sourceType domain.SourceType
	doc        *domain.Document
	loadErr    error
}

func (m *mockLoader) Type() domain.SourceType { return m.sourceType }

func (m *mockLoader) Load(_ context.Context, _ string) (*domain.Document, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.doc, nil
}

func newTestIngestService(idx driven.TenantIndex, loaders ...driven.Loader) (*IngestService, *mockEmbedder) {
	embedder := &mockEmbedder{}
	splitter := chunker.New(chunker.WithChunkSize(50), chunker.WithOverlap(10))
	return NewIngestService(splitter, embedder, idx, loaders...), embedder
}

func TestIngestService_Ingest_PDF(t *testing.T) {
	idx := memory.New()
	svc, embedder := newTestIngestService(idx, &mockLoader{
		sourceType: domain.SourcePDF,
		doc: &domain.Document{
			Content:  "Some extracted PDF text that is long enough to produce chunks.",
			Metadata: map[string]any{driven.MetaPages: 3},
		},
	})

	result, err := svc.Ingest(context.Background(), domain.SourcePDF, "report.pdf", "tenant-a")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 3, result.Pages)
	assert.Positive(t, result.ChunkCount)
	assert.Equal(t, result.ChunkCount, idx.Len())
	assert.Equal(t, 1, embedder.batchCalls)
}

func TestIngestService_Ingest_WebsiteLinksCount(t *testing.T) {
	idx := memory.New()
	svc, _ := newTestIngestService(idx, &mockLoader{
		sourceType: domain.SourceWebsite,
		doc: &domain.Document{
			Content:  "Page text.",
			Title:    "Example",
			Metadata: map[string]any{driven.MetaLinksCount: 7, driven.MetaTitle: "Example"},
		},
	})

	result, err := svc.Ingest(context.Background(), domain.SourceWebsite, "https://example.com", "tenant-a")
	require.NoError(t, err)
	assert.Equal(t, 7, result.LinksExtracted)
}

func TestIngestService_Ingest_ValidatesInput(t *testing.T) {
	svc, _ := newTestIngestService(memory.New())

	_, err := svc.Ingest(context.Background(), domain.SourcePDF, "report.pdf", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Ingest(context.Background(), domain.SourcePDF, "", "tenant-a")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIngestService_Ingest_UnsupportedType(t *testing.T) {
	svc, _ := newTestIngestService(memory.New())

	_, err := svc.Ingest(context.Background(), domain.SourceType("epub"), "book.epub", "tenant-a")
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestIngestService_Ingest_LoaderFailure(t *testing.T) {
	svc, _ := newTestIngestService(memory.New(), &mockLoader{
		sourceType: domain.SourceYouTube,
		loadErr:    domain.ErrNoTranscript,
	})

	_, err := svc.Ingest(context.Background(), domain.SourceYouTube, "https://youtu.be/abc12345678", "tenant-a")
	assert.ErrorIs(t, err, domain.ErrIngestion)
	assert.ErrorIs(t, err, domain.ErrNoTranscript)
}

func TestIngestService_Ingest_EmbeddingFailure(t *testing.T) {
	idx := memory.New()
	svc, embedder := newTestIngestService(idx, &mockLoader{
		sourceType: domain.SourcePDF,
		doc:        &domain.Document{Content: "text"},
	})
	embedder.embedErr = errors.New("provider down")

	_, err := svc.Ingest(context.Background(), domain.SourcePDF, "report.pdf", "tenant-a")
	assert.ErrorIs(t, err, domain.ErrIngestion)
	assert.Zero(t, idx.Len(), "no chunks may be indexed on embedding failure")
}

func TestIngestService_Ingest_EmbeddingCountMismatch(t *testing.T) {
	idx := memory.New()
	svc, embedder := newTestIngestService(idx, &mockLoader{
		sourceType: domain.SourcePDF,
		doc:        &domain.Document{Content: "some text to chunk"},
	})
	embedder.short = true

	_, err := svc.Ingest(context.Background(), domain.SourcePDF, "report.pdf", "tenant-a")
	assert.ErrorIs(t, err, domain.ErrIngestion)
	assert.Zero(t, idx.Len())
}

func TestIngestService_TenantIsolation(t *testing.T) {
	idx := memory.New()
	svc, _ := newTestIngestService(idx, &mockLoader{
		sourceType: domain.SourcePDF,
		doc:        &domain.Document{Content: "shared corpus text"},
	})

	_, err := svc.Ingest(context.Background(), domain.SourcePDF, "a.pdf", "tenant-a")
	require.NoError(t, err)
	_, err = svc.Ingest(context.Background(), domain.SourcePDF, "b.pdf", "tenant-b")
	require.NoError(t, err)

	hits, err := idx.Search(context.Background(), []float32{1, 0, 0}, 100,
		domain.RetrievalFilter{TenantID: "tenant-a"})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	for _, h := range hits {
		assert.Equal(t, "tenant-a", h.Chunk.Metadata.TenantID)
	}
}

func TestIngestService_Purge(t *testing.T) {
	idx := memory.New()
	svc, _ := newTestIngestService(idx, &mockLoader{
		sourceType: domain.SourcePDF,
		doc:        &domain.Document{Content: "text for tenant a"},
	})

	_, err := svc.Ingest(context.Background(), domain.SourcePDF, "a.pdf", "tenant-a")
	require.NoError(t, err)
	before := idx.Len()
	require.Positive(t, before)

	result, err := svc.Purge(context.Background(), "tenant-a")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, before, result.DeletedCount)
	assert.Zero(t, idx.Len())

	// Idempotent: purging again succeeds with zero deletions.
	result, err = svc.Purge(context.Background(), "tenant-a")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Zero(t, result.DeletedCount)
}

func TestIngestService_Purge_RequiresTenant(t *testing.T) {
	svc, _ := newTestIngestService(memory.New())

	_, err := svc.Purge(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIngestService_SourceIDFormat(t *testing.T) {
	idx := memory.New()
	svc, _ := newTestIngestService(idx, &mockLoader{
		sourceType: domain.SourceYouTube,
		doc: &domain.Document{
			Content:  "transcript text",
			Metadata: map[string]any{driven.MetaTitle: "Talk", driven.MetaAuthor: "Speaker"},
		},
	})

	_, err := svc.Ingest(context.Background(), domain.SourceYouTube, "https://youtu.be/abc12345678", "tenant-a")
	require.NoError(t, err)

	hits, err := idx.Search(context.Background(), []float32{1, 0, 0}, 1,
		domain.RetrievalFilter{TenantID: "tenant-a"})
	require.NoError(t, err)
	require.NotEmpty(t, hits)

	meta := hits[0].Chunk.Metadata
	assert.Regexp(t, `^yt-\d+$`, meta.SourceID)
	assert.Equal(t, fmt.Sprintf("YouTube video: %q by Speaker", "Talk"), meta.SourceDescription)
	assert.False(t, meta.IngestedAt.IsZero())
}
