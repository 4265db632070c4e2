package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piyushgoswami015/CorthyxAI/internal/adapters/driven/index/memory"
	"github.com/piyushgoswami015/CorthyxAI/internal/core/domain"
	"github.com/piyushgoswami015/CorthyxAI/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockLLM implements driven.LLMService for testing.
type mockLLM struct {
	answer        string
	generateErr   error
	streamErr     error
	deltas        []driven.StreamDelta
	generateCalls int
	streamCalls   int
	lastPrompt    string
}

func (m *mockLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	m.generateCalls++
	m.lastPrompt = prompt
	if m.generateErr != nil {
		return "", m.generateErr
	}
	return m.answer, nil
}

func (m *mockLLM) GenerateStream(
	_ context.Context, prompt string, _ driven.GenerateOptions,
) (<-chan driven.StreamDelta, error) {
	m.streamCalls++
	m.lastPrompt = prompt
	if m.streamErr != nil {
		return nil, m.streamErr
	}
	out := make(chan driven.StreamDelta, len(m.deltas))
	for _, d := range m.deltas {
		out <- d
	}
	close(out)
	return out, nil
}

func (m *mockLLM) ModelName() string            { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

// slowIndex implements driven.TenantIndex and blocks in Search until
// the context ends, simulating an unresponsive backend.
type slowIndex struct{}

func (s *slowIndex) Add(_ context.Context, _ []domain.Chunk) error { return nil }

func (s *slowIndex) Search(
	ctx context.Context, _ []float32, _ int, _ domain.RetrievalFilter,
) ([]domain.ScoredChunk, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (s *slowIndex) DeleteByTenant(_ context.Context, _ string) (int, error) { return 0, nil }
func (s *slowIndex) Ping(_ context.Context) error                            { return nil }
func (s *slowIndex) Close() error                                            { return nil }

// fakePromptStore implements driven.PromptStore with fixed content.
type fakePromptStore struct {
	prompt string
}

func (f *fakePromptStore) Load(_ string) (string, error) { return f.prompt, nil }
func (f *fakePromptStore) Reload()                       {}

// seedIndex adds pre-embedded chunks for a tenant.
func seedIndex(t *testing.T, idx driven.TenantIndex, tenantID string, contents ...string) {
	t.Helper()
	meta := domain.SourceMetadata{
		TenantID:          tenantID,
		SourceType:        domain.SourcePDF,
		SourceID:          "pdf-1",
		SourceDescription: `PDF file: "seed.pdf"`,
		IngestedAt:        time.Now(),
	}
	chunks := make([]domain.Chunk, len(contents))
	for i, c := range contents {
		chunks[i] = domain.Chunk{
			ID:        "chunk-" + tenantID + "-" + c,
			Content:   c,
			Position:  i,
			Embedding: []float32{1, 0, 0},
			Metadata:  meta,
		}
	}
	require.NoError(t, idx.Add(context.Background(), chunks))
}

func TestQueryService_Query_ValidatesInput(t *testing.T) {
	svc := NewQueryService(NewKeywordFilter(), &mockEmbedder{}, memory.New(), &mockLLM{})

	_, err := svc.Query(context.Background(), "question", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Query(context.Background(), "   ", "tenant-a")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestQueryService_Query_NoResults(t *testing.T) {
	llm := &mockLLM{answer: "should never be used"}
	svc := NewQueryService(NewKeywordFilter(), &mockEmbedder{}, memory.New(), llm)

	answer, err := svc.Query(context.Background(), "who is the CEO?", "tenant-a")
	require.NoError(t, err)

	assert.Equal(t, NoRelevantInformation, answer)
	assert.Zero(t, llm.generateCalls, "generation must not run on an empty context")
}

func TestQueryService_Query_GroundedAnswer(t *testing.T) {
	idx := memory.New()
	seedIndex(t, idx, "tenant-a", "The CEO is Jane Smith.")

	llm := &mockLLM{answer: "Jane Smith is the CEO."}
	svc := NewQueryService(NewKeywordFilter(), &mockEmbedder{}, idx, llm)

	answer, err := svc.Query(context.Background(), "who is the CEO?", "tenant-a")
	require.NoError(t, err)

	assert.Equal(t, "Jane Smith is the CEO.", answer)
	assert.Contains(t, llm.lastPrompt, "The CEO is Jane Smith.")
	assert.Contains(t, llm.lastPrompt, "who is the CEO?")
	assert.NotContains(t, llm.lastPrompt, "{context}")
	assert.NotContains(t, llm.lastPrompt, "{question}")
}

func TestQueryService_Query_TenantIsolation(t *testing.T) {
	idx := memory.New()
	seedIndex(t, idx, "tenant-b", "Secret belonging to tenant b.")

	llm := &mockLLM{answer: "leak"}
	svc := NewQueryService(NewKeywordFilter(), &mockEmbedder{}, idx, llm)

	answer, err := svc.Query(context.Background(), "what is the secret?", "tenant-a")
	require.NoError(t, err)
	assert.Equal(t, NoRelevantInformation, answer)
	assert.Zero(t, llm.generateCalls)
}

func TestQueryService_Query_SearchTimeout(t *testing.T) {
	svc := NewQueryService(NewKeywordFilter(), &mockEmbedder{}, &slowIndex{}, &mockLLM{},
		WithSearchTimeout(20*time.Millisecond))

	_, err := svc.Query(context.Background(), "anything", "tenant-a")
	assert.ErrorIs(t, err, domain.ErrRetrievalTimeout)
}

func TestQueryService_Query_CallerCancellation(t *testing.T) {
	svc := NewQueryService(NewKeywordFilter(), &mockEmbedder{}, &slowIndex{}, &mockLLM{},
		WithSearchTimeout(time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := svc.Query(ctx, "anything", "tenant-a")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrRetrievalTimeout,
		"caller cancellation is not a retrieval timeout")
}

func TestQueryService_Query_SourceFilterApplied(t *testing.T) {
	idx := memory.New()
	seedIndex(t, idx, "tenant-a", "PDF content about budget.")

	llm := &mockLLM{answer: "irrelevant"}
	svc := NewQueryService(NewKeywordFilter(), &mockEmbedder{}, idx, llm)

	// The only indexed chunk is a pdf; asking about the video must
	// filter it out and hit the fixed no-results answer.
	answer, err := svc.Query(context.Background(), "what does the video say?", "tenant-a")
	require.NoError(t, err)
	assert.Equal(t, NoRelevantInformation, answer)
}

func TestQueryService_Query_PromptStoreOverride(t *testing.T) {
	idx := memory.New()
	seedIndex(t, idx, "tenant-a", "chunk text")

	llm := &mockLLM{answer: "ok"}
	svc := NewQueryService(NewKeywordFilter(), &mockEmbedder{}, idx, llm)
	svc.SetPromptStore(&fakePromptStore{prompt: "CTX={context} Q={question}"})

	_, err := svc.Query(context.Background(), "hello?", "tenant-a")
	require.NoError(t, err)
	assert.Equal(t, "CTX=chunk text Q=hello?", llm.lastPrompt)
}

func TestQueryService_QueryStream_EventShape(t *testing.T) {
	idx := memory.New()
	seedIndex(t, idx, "tenant-a", "streaming source text")

	llm := &mockLLM{deltas: []driven.StreamDelta{
		{Content: "Hello"},
		{Content: " world"},
		{Done: true},
	}}
	svc := NewQueryService(NewKeywordFilter(), &mockEmbedder{}, idx, llm)

	events, err := svc.QueryStream(context.Background(), "say hello", "tenant-a")
	require.NoError(t, err)

	var fragments []string
	var done bool
	for ev := range events {
		require.NoError(t, ev.Err)
		if ev.Done {
			assert.False(t, done, "exactly one terminal event expected")
			done = true
			continue
		}
		assert.False(t, done, "no fragments after the terminal event")
		fragments = append(fragments, ev.Content)
	}

	assert.True(t, done)
	assert.Equal(t, "Hello world", strings.Join(fragments, ""))
}

func TestQueryService_QueryStream_NoResults(t *testing.T) {
	llm := &mockLLM{}
	svc := NewQueryService(NewKeywordFilter(), &mockEmbedder{}, memory.New(), llm)

	events, err := svc.QueryStream(context.Background(), "anything at all", "tenant-a")
	require.NoError(t, err)

	var fragments []string
	var done bool
	for ev := range events {
		require.NoError(t, ev.Err)
		if ev.Done {
			done = true
			continue
		}
		fragments = append(fragments, ev.Content)
	}

	assert.True(t, done)
	assert.Equal(t, NoRelevantInformation, strings.Join(fragments, ""))
	assert.Zero(t, llm.streamCalls)
}

func TestQueryService_QueryStream_GenerationError(t *testing.T) {
	idx := memory.New()
	seedIndex(t, idx, "tenant-a", "text")

	llm := &mockLLM{deltas: []driven.StreamDelta{
		{Content: "partial"},
		{Err: domain.ErrGenerationService, Done: true},
	}}
	svc := NewQueryService(NewKeywordFilter(), &mockEmbedder{}, idx, llm)

	events, err := svc.QueryStream(context.Background(), "question", "tenant-a")
	require.NoError(t, err)

	var lastErr error
	for ev := range events {
		if ev.Err != nil {
			lastErr = ev.Err
		}
	}
	assert.ErrorIs(t, lastErr, domain.ErrGenerationService)
}

func TestQueryService_QueryStream_RetrievalFailureBeforeChannel(t *testing.T) {
	svc := NewQueryService(NewKeywordFilter(), &mockEmbedder{}, &slowIndex{}, &mockLLM{},
		WithSearchTimeout(20*time.Millisecond))

	events, err := svc.QueryStream(context.Background(), "anything", "tenant-a")
	assert.ErrorIs(t, err, domain.ErrRetrievalTimeout)
	assert.Nil(t, events)
}

func TestQueryService_TopKBound(t *testing.T) {
	idx := memory.New()
	contents := make([]string, 30)
	for i := range contents {
		contents[i] = strings.Repeat("x", i+1)
	}
	seedIndex(t, idx, "tenant-a", contents...)

	llm := &mockLLM{answer: "ok"}
	svc := NewQueryService(NewKeywordFilter(), &mockEmbedder{}, idx, llm, WithTopK(5))
	svc.SetPromptStore(&fakePromptStore{prompt: "{context}"})

	_, err := svc.Query(context.Background(), "how many?", "tenant-a")
	require.NoError(t, err)

	// Chunks are joined by blank lines, so five chunks give five parts.
	assert.Len(t, strings.Split(llm.lastPrompt, "\n\n"), 5)
}
