package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/piyushgoswami015/CorthyxAI/internal/core/domain"
	"github.com/piyushgoswami015/CorthyxAI/internal/core/ports/driven"
	"github.com/piyushgoswami015/CorthyxAI/internal/core/ports/driving"
	"github.com/piyushgoswami015/CorthyxAI/internal/logger"
)

// Ensure QueryService implements the interfaces.
var (
	_ driving.QueryService    = (*QueryService)(nil)
	_ driven.PromptStoreAware = (*QueryService)(nil)
)

// DefaultTopK is the retrieval candidate count. Fifteen gives enough
// headroom for multi-source coverage and citation diversity.
const DefaultTopK = 15

// DefaultSearchTimeout bounds the vector search. A timeout is terminal
// for the query; re-issuing it performs a fresh attempt.
const DefaultSearchTimeout = 30 * time.Second

// NoRelevantInformation is the fixed answer for a tenant whose index
// holds nothing relevant. The generation service is never asked to
// produce an answer from an empty context.
const NoRelevantInformation = "I couldn't find any relevant information in your documents."

// QueryService answers questions from the tenant's indexed content:
// filter inference, embedding, filtered vector retrieval and grounded
// answer synthesis, in blocking or streaming form.
type QueryService struct {
	filter        FilterStrategy
	embedder      driven.EmbeddingService
	index         driven.TenantIndex
	llm           driven.LLMService
	prompts       driven.PromptStore
	topK          int
	searchTimeout time.Duration
}

// QueryOption configures the query service.
type QueryOption func(*QueryService)

// WithTopK sets the retrieval candidate count.
func WithTopK(k int) QueryOption {
	return func(s *QueryService) {
		if k > 0 {
			s.topK = k
		}
	}
}

// WithSearchTimeout sets the hard bound on the vector search call.
func WithSearchTimeout(d time.Duration) QueryOption {
	return func(s *QueryService) {
		if d > 0 {
			s.searchTimeout = d
		}
	}
}

// NewQueryService creates a query service. The filter strategy decides
// source-type restriction; pass NewKeywordFilter() for the default
// keyword heuristic.
func NewQueryService(
	filter FilterStrategy,
	embedder driven.EmbeddingService,
	index driven.TenantIndex,
	llm driven.LLMService,
	opts ...QueryOption,
) *QueryService {
	s := &QueryService{
		filter:        filter,
		embedder:      embedder,
		index:         index,
		llm:           llm,
		topK:          DefaultTopK,
		searchTimeout: DefaultSearchTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetPromptStore sets the prompt store for loading a customised
// synthesis prompt. Without it the embedded default is used.
func (s *QueryService) SetPromptStore(store driven.PromptStore) {
	s.prompts = store
}

// Query retrieves relevant chunks and returns one complete answer.
func (s *QueryService) Query(ctx context.Context, question, tenantID string) (string, error) {
	chunks, err := s.retrieve(ctx, question, tenantID)
	if err != nil {
		return "", err
	}

	if len(chunks) == 0 {
		logger.Info("No relevant chunks, returning fixed answer")
		return NoRelevantInformation, nil
	}

	prompt := s.buildPrompt(question, chunks)
	answer, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{})
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrGenerationService, err)
	}

	return answer, nil
}

// QueryStream is the incremental variant of Query. Retrieval failures
// return an error before any event is produced; once the channel
// exists, every outcome arrives as a terminal event.
func (s *QueryService) QueryStream(ctx context.Context, question, tenantID string) (<-chan domain.StreamEvent, error) {
	chunks, err := s.retrieve(ctx, question, tenantID)
	if err != nil {
		return nil, err
	}

	out := make(chan domain.StreamEvent)

	if len(chunks) == 0 {
		logger.Info("No relevant chunks, streaming fixed answer")
		go func() {
			defer close(out)
			if !send(ctx, out, domain.StreamEvent{Content: NoRelevantInformation}) {
				return
			}
			send(ctx, out, domain.StreamEvent{Done: true})
		}()
		return out, nil
	}

	prompt := s.buildPrompt(question, chunks)
	deltas, err := s.llm.GenerateStream(ctx, prompt, driven.GenerateOptions{})
	if err != nil {
		close(out)
		return nil, fmt.Errorf("%w: %w", domain.ErrGenerationService, err)
	}

	go func() {
		defer close(out)
		for delta := range deltas {
			switch {
			case delta.Err != nil:
				send(ctx, out, domain.StreamEvent{Err: fmt.Errorf("%w: %w", domain.ErrGenerationService, delta.Err)})
				return
			case delta.Done:
				send(ctx, out, domain.StreamEvent{Done: true})
				return
			default:
				if !send(ctx, out, domain.StreamEvent{Content: delta.Content}) {
					return
				}
			}
		}
		// Producer closed without a terminal delta.
		send(ctx, out, domain.StreamEvent{Done: true})
	}()

	return out, nil
}

// retrieve embeds the question and runs the filtered nearest-neighbour
// search under the hard timeout. An empty result is a valid terminal
// state, not an error.
func (s *QueryService) retrieve(ctx context.Context, question, tenantID string) ([]domain.ScoredChunk, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenant ID is required", domain.ErrInvalidInput)
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}

	logger.Section("Query Execution")
	logger.Debug("Question: %q tenant: %s", question, tenantID)

	filter := s.filter.Infer(question, tenantID)

	vector, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingService, err)
	}
	logger.Debug("Question embedding: %d dimensions", len(vector))

	sctx, cancel := context.WithTimeout(ctx, s.searchTimeout)
	defer cancel()

	hits, err := s.index.Search(sctx, vector, s.topK, filter)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w: search exceeded %s", domain.ErrRetrievalTimeout, s.searchTimeout)
		}
		return nil, fmt.Errorf("search index: %w", err)
	}

	logger.Info("Retrieved %d chunks", len(hits))
	s.logSourceDistribution(hits)

	return hits, nil
}

// logSourceDistribution reports how many retrieved chunks each source
// contributed, the main diagnostic for disambiguation problems.
func (s *QueryService) logSourceDistribution(hits []domain.ScoredChunk) {
	if !logger.IsVerbose() || len(hits) == 0 {
		return
	}

	counts := make(map[string]int)
	order := make([]string, 0, len(hits))
	for _, h := range hits {
		desc := h.Chunk.Metadata.SourceDescription
		if desc == "" {
			desc = string(h.Chunk.Metadata.SourceType)
		}
		if _, seen := counts[desc]; !seen {
			order = append(order, desc)
		}
		counts[desc]++
	}

	logger.Debug("Source distribution:")
	for _, desc := range order {
		logger.Debug("  - %s: %d chunks", desc, counts[desc])
	}
}

// buildPrompt composes the grounded synthesis prompt: the template's
// {context} slot takes the retrieved chunk contents in retrieval order,
// {question} the literal user question.
func (s *QueryService) buildPrompt(question string, chunks []domain.ScoredChunk) string {
	template := defaultAnswerPrompt
	if s.prompts != nil {
		if t, err := s.prompts.Load(driven.PromptAnswer); err == nil && t != "" {
			template = t
		}
	}

	contents := make([]string, len(chunks))
	for i, c := range chunks {
		contents[i] = c.Chunk.Content
	}
	contextBlock := strings.Join(contents, "\n\n")

	prompt := strings.ReplaceAll(template, "{context}", contextBlock)
	prompt = strings.ReplaceAll(prompt, "{question}", question)
	return prompt
}

// send delivers an event unless the caller has gone away. Returns false
// when the context ended first, telling the producer to stop promptly.
func send(ctx context.Context, out chan<- domain.StreamEvent, ev domain.StreamEvent) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// defaultAnswerPrompt is the embedded synthesis prompt. It relies on
// the [SOURCE: ...] header the tagger puts into every chunk.
const defaultAnswerPrompt = `You are a helpful and conversational AI assistant. Answer questions based on the provided context.

CRITICAL RULES:
1. Each context chunk starts with [SOURCE: ...] - This tells you WHERE the information comes from
2. If the question asks about a SPECIFIC source (e.g., "the YouTube video", "the website"), use ONLY chunks from that source
3. NEVER mix information from different sources - treat each source as completely separate
4. When answering, cite which source you're using naturally (e.g., "According to the YouTube video...", "The website mentions...")
5. Pay special attention to the source description in [SOURCE: ...] to differentiate between similar content from different sources
6. If you have information from MULTIPLE sources, mention ALL of them in your answer

CONTEXTUAL NUANCE & REFERENCES:
- Be alert for "references to context" that might modify meaning (e.g., "Section A says X, but later it is clarified that Y")
- If one part of the context modifies, updates, or contradicts another part, prioritize the modifying/later information as the "current truth"
- Explicitly explain this distinction to the user: "The document initially states X, but later clarifies that Y..."

HANDLING MISSING INFORMATION:
- If you cannot find specific information, be helpful and suggest what you DO know
- Instead of just saying "I don't have that information", explain what information IS available
- For example, rather than "I don't have that information in the website", say "I don't see specific pricing information on the website, but I can see it mentions [related info]. The website does include these links: [list relevant links]"

<context>
{context}
</context>

Question: {question}

Remember: Be conversational, helpful, and cite your sources naturally. Each [SOURCE: ...] header indicates a DIFFERENT source.`
