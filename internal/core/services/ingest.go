package services

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/piyushgoswami015/CorthyxAI/internal/chunker"
	"github.com/piyushgoswami015/CorthyxAI/internal/core/domain"
	"github.com/piyushgoswami015/CorthyxAI/internal/core/ports/driven"
	"github.com/piyushgoswami015/CorthyxAI/internal/core/ports/driving"
	"github.com/piyushgoswami015/CorthyxAI/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService runs the ingestion pipeline: loader -> splitter ->
// tagger -> embedder -> tenant index. Each call is self-contained, so
// concurrent ingestions (same tenant or different) never coordinate.
type IngestService struct {
	loaders  map[domain.SourceType]driven.Loader
	splitter *chunker.Splitter
	embedder driven.EmbeddingService
	index    driven.TenantIndex
}

// NewIngestService creates an ingestion service with one loader per
// source type. Loaders with duplicate types overwrite earlier ones.
func NewIngestService(
	splitter *chunker.Splitter,
	embedder driven.EmbeddingService,
	index driven.TenantIndex,
	loaders ...driven.Loader,
) *IngestService {
	m := make(map[domain.SourceType]driven.Loader, len(loaders))
	for _, l := range loaders {
		m[l.Type()] = l
	}
	return &IngestService{
		loaders:  m,
		splitter: splitter,
		embedder: embedder,
		index:    index,
	}
}

// Ingest fetches, chunks, tags, embeds and indexes one source for the
// tenant. Any failure along the pipeline reports as a whole-ingestion
// failure; a partial write is never presented as success.
func (s *IngestService) Ingest(
	ctx context.Context, sourceType domain.SourceType, locator, tenantID string,
) (*domain.IngestResult, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenant ID is required", domain.ErrInvalidInput)
	}
	if locator == "" {
		return nil, fmt.Errorf("%w: locator is required", domain.ErrInvalidInput)
	}

	loader, ok := s.loaders[sourceType]
	if !ok {
		return nil, fmt.Errorf("%w: no loader for %q", domain.ErrUnsupportedType, sourceType)
	}

	logger.Section("Ingestion")
	logger.Info("Ingesting %s: %s for tenant %s", sourceType, locator, tenantID)

	doc, err := loader.Load(ctx, locator)
	if err != nil {
		return nil, fmt.Errorf("%w: load %s source: %w", domain.ErrIngestion, sourceType, err)
	}

	meta := sourceMetadataFor(sourceType, locator, doc)
	logger.Debug("Source: %s", meta.SourceDescription)

	pieces := s.splitter.Split(doc.Content)
	chunks := TagChunks(pieces, tenantID, meta)
	logger.Info("Split into %d chunks", len(chunks))

	if len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for i := range chunks {
			texts[i] = chunks[i].Content
		}

		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("%w: embed chunks: %w", domain.ErrIngestion, err)
		}
		if len(vectors) != len(chunks) {
			return nil, fmt.Errorf("%w: embedding count mismatch: %d chunks, %d vectors",
				domain.ErrIngestion, len(chunks), len(vectors))
		}
		for i := range chunks {
			chunks[i].Embedding = vectors[i]
		}

		if err := s.index.Add(ctx, chunks); err != nil {
			return nil, fmt.Errorf("%w: index chunks: %w", domain.ErrIngestion, err)
		}
	}

	result := &domain.IngestResult{
		Success:    true,
		ChunkCount: len(chunks),
	}
	switch sourceType {
	case domain.SourcePDF:
		result.Pages = metaInt(doc.Metadata, driven.MetaPages)
	case domain.SourceWebsite:
		result.LinksExtracted = metaInt(doc.Metadata, driven.MetaLinksCount)
	}

	return result, nil
}

// Purge removes every index entry for the tenant. It is the only
// mutation path that removes entries, and it is idempotent.
func (s *IngestService) Purge(ctx context.Context, tenantID string) (*domain.PurgeResult, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenant ID is required", domain.ErrInvalidInput)
	}

	logger.Section("Tenant Deletion")
	logger.Info("Purging all data for tenant %s", tenantID)

	deleted, err := s.index.DeleteByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("purge tenant %s: %w", tenantID, err)
	}

	logger.Info("Deleted %d index entries", deleted)
	return &domain.PurgeResult{Success: true, DeletedCount: deleted}, nil
}

// sourceMetadataFor builds the provenance record for one ingestion
// event. Source IDs carry a millisecond timestamp so re-ingestions of
// the same logical source stay distinguishable, and the description is
// specific enough that two different sources never collide.
func sourceMetadataFor(sourceType domain.SourceType, locator string, doc *domain.Document) domain.SourceMetadata {
	now := time.Now()
	meta := domain.SourceMetadata{
		SourceType: sourceType,
		IngestedAt: now,
	}

	switch sourceType {
	case domain.SourcePDF:
		filename := filepath.Base(locator)
		meta.SourceID = fmt.Sprintf("pdf-%d", now.UnixMilli())
		meta.Filename = filename
		meta.SourceDescription = fmt.Sprintf("PDF file: %q", filename)

	case domain.SourceWebsite:
		title := doc.Title
		if title == "" {
			title = locator
		}
		meta.SourceID = fmt.Sprintf("web-%d", now.UnixMilli())
		meta.URL = locator
		meta.Title = title
		meta.LinksCount = metaInt(doc.Metadata, driven.MetaLinksCount)
		meta.SourceDescription = fmt.Sprintf("Website: %q (%s)", title, locator)

	case domain.SourceYouTube:
		videoTitle := metaString(doc.Metadata, driven.MetaTitle)
		if videoTitle == "" {
			videoTitle = "Unknown Video"
		}
		author := metaString(doc.Metadata, driven.MetaAuthor)
		if author == "" {
			author = "Unknown Author"
		}
		meta.SourceID = fmt.Sprintf("yt-%d", now.UnixMilli())
		meta.URL = locator
		meta.VideoTitle = videoTitle
		meta.Author = author
		meta.SourceDescription = fmt.Sprintf("YouTube video: %q by %s", videoTitle, author)
	}

	return meta
}

func metaInt(m map[string]any, key string) int {
	if m == nil {
		return 0
	}
	if v, ok := m[key].(int); ok {
		return v
	}
	return 0
}

func metaString(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
