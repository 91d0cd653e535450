package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockLLM returns a fixed response or error and records every prompt.
type mockLLM struct {
	mu       sync.Mutex
	response string
	err      error
	generate func(ctx context.Context, prompt string) (string, error)
	prompts  []string
	opts     []driven.GenerateOptions
}

func (m *mockLLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.opts = append(m.opts, opts)
	m.mu.Unlock()

	if m.generate != nil {
		return m.generate(ctx, prompt)
	}
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockLLM) ModelName() string           { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

func (m *mockLLM) lastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

func (m *mockLLM) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// mockEmbedder returns canned vectors and can fail a number of calls first.
type mockEmbedder struct {
	mu         sync.Mutex
	dims       int
	model      string
	failFirst  int
	err        error
	vector     func(text string) []float32
	batchCalls int
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.batchCalls++
	call := m.batchCalls
	m.mu.Unlock()

	if call <= m.failFirst {
		return nil, errors.New("temporary failure")
	}
	if m.err != nil {
		return nil, m.err
	}

	out := make([][]float32, len(texts))
	for i, t := range texts {
		if m.vector != nil {
			out[i] = m.vector(t)
			continue
		}
		v := make([]float32, m.dims)
		v[0] = 1
		out[i] = v
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int { return m.dims }

func (m *mockEmbedder) ModelName() string {
	if m.model == "" {
		return "mock-embed"
	}
	return m.model
}

func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                 { return nil }

func (m *mockEmbedder) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.batchCalls
}

// mockIndexStore keeps the snapshot in memory.
type mockIndexStore struct {
	snapshot *domain.IndexSnapshot
	meta     *domain.BuildMetadata
	loadErr     error
	saveErr     error
	metaSaveErr error
	saves       int
	metaSave    int
}

func (m *mockIndexStore) Save(_ context.Context, snapshot *domain.IndexSnapshot) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.snapshot = snapshot
	return nil
}

func (m *mockIndexStore) Load(_ context.Context) (*domain.IndexSnapshot, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.snapshot == nil {
		return nil, domain.ErrIndexNotFound
	}
	return m.snapshot, nil
}

func (m *mockIndexStore) SaveMetadata(_ context.Context, meta *domain.BuildMetadata) error {
	if m.metaSaveErr != nil {
		return m.metaSaveErr
	}
	m.metaSave++
	m.meta = meta
	return nil
}

func (m *mockIndexStore) LoadMetadata(_ context.Context) (*domain.BuildMetadata, error) {
	if m.meta == nil {
		return nil, domain.ErrNotFound
	}
	return m.meta, nil
}

func (m *mockIndexStore) Path() string { return "mock/index.gob" }

// upperFilter upper-cases text so tests can see it ran.
type upperFilter struct{}

func (upperFilter) Name() string { return "upper" }

func (upperFilter) Filter(_ context.Context, text string) (string, error) {
	return strings.ToUpper(text), nil
}

// mockPrompts serves templates from a map.
type mockPrompts struct {
	prompts map[string]string
}

func newMockPrompts() *mockPrompts {
	return &mockPrompts{prompts: map[string]string{
		driven.PromptAnswer:       "CONTEXT:\n{{context}}\nHISTORY:\n{{history}}\nQ: {{question}}\n{{format}}",
		driven.PromptAnswerFormat: "Reply in JSON.",
	}}
}

func (m *mockPrompts) Load(name string) (string, error) {
	p, ok := m.prompts[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return p, nil
}

func (m *mockPrompts) Reload() {}

// mockRetriever returns fixed documents.
type mockRetriever struct {
	docs []string
	err  error
	topK int
}

func (m *mockRetriever) Retrieve(_ context.Context, _ string, topK int) ([]string, error) {
	m.topK = topK
	if m.err != nil {
		return nil, m.err
	}
	return m.docs, nil
}

func (m *mockRetriever) Search(_ context.Context, _ string, _ int) ([]domain.ScoredChunk, error) {
	return nil, m.err
}

// failingConversationStore fails selected operations.
type failingConversationStore struct {
	historyErr error
	appendErr  error
	appends    int
}

func (f *failingConversationStore) Append(_ context.Context, _ domain.Exchange) error {
	f.appends++
	return f.appendErr
}

func (f *failingConversationStore) History(_ context.Context, _ string) ([]domain.Exchange, error) {
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return []domain.Exchange{}, nil
}

func (f *failingConversationStore) Sessions(_ context.Context) ([]domain.SessionSummary, error) {
	return []domain.SessionSummary{}, nil
}

func (f *failingConversationStore) Prune(_ context.Context, _ time.Time) (int, error) {
	return 0, nil
}

func (f *failingConversationStore) Close() error { return nil }
