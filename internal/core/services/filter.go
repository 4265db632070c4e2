package services

import (
	"strings"

	"github.com/piyushgoswami015/CorthyxAI/internal/core/domain"
	"github.com/piyushgoswami015/CorthyxAI/internal/logger"
)

// FilterStrategy derives a retrieval filter from raw question text.
// The tenant ID is always carried; the strategy decides whether to
// restrict the search to one source type. Implementations must be
// deterministic for the same question text.
//
// Keeping this behind an interface lets the keyword heuristic be
// swapped for a classifier without touching the query service.
type FilterStrategy interface {
	Infer(question, tenantID string) domain.RetrievalFilter
}

// Ensure KeywordFilter implements the interface.
var _ FilterStrategy = (*KeywordFilter)(nil)

// KeywordFilter detects source-type hints by scanning the lowercased
// question for fixed keywords. It is a heuristic, not classification:
// a question merely mentioning the word "document" matches the pdf
// hint, and that false positive is accepted behaviour.
type KeywordFilter struct{}

// NewKeywordFilter creates the keyword-based filter strategy.
func NewKeywordFilter() *KeywordFilter {
	return &KeywordFilter{}
}

// Infer builds the retrieval filter for a question. Only one source
// type hint is ever applied; the priority order youtube > website > pdf
// is fixed, so "compare the video and the pdf" filters to youtube.
func (f *KeywordFilter) Infer(question, tenantID string) domain.RetrievalFilter {
	filter := domain.RetrievalFilter{TenantID: tenantID}

	q := strings.ToLower(question)
	switch {
	case strings.Contains(q, "youtube") || strings.Contains(q, "video"):
		filter.SourceType = domain.SourceYouTube
		logger.Debug("Filtering for YouTube sources only")
	case strings.Contains(q, "website") || strings.Contains(q, "web page"):
		filter.SourceType = domain.SourceWebsite
		logger.Debug("Filtering for website sources only")
	case strings.Contains(q, "pdf") || strings.Contains(q, "document"):
		filter.SourceType = domain.SourcePDF
		logger.Debug("Filtering for PDF sources only")
	}

	return filter
}
