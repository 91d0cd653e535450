package mcp

import (
	"context"
	"time"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// mockAnswerService is a mock implementation of driving.AnswerService.
type mockAnswerService struct {
	resp *domain.AnswerResponse
	err  error
	last domain.AnswerRequest
}

func (m *mockAnswerService) Answer(_ context.Context, req domain.AnswerRequest) (*domain.AnswerResponse, error) {
	m.last = req
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

// mockRetriever is a mock implementation of driving.Retriever.
type mockRetriever struct {
	results []domain.ScoredChunk
	err     error
	topK    int
}

func (m *mockRetriever) Retrieve(ctx context.Context, query string, topK int) ([]string, error) {
	scored, err := m.Search(ctx, query, topK)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(scored))
	for i, s := range scored {
		out[i] = s.Chunk.Text
	}
	return out, nil
}

func (m *mockRetriever) Search(_ context.Context, _ string, topK int) ([]domain.ScoredChunk, error) {
	m.topK = topK
	return m.results, m.err
}

// mockHistoryService is a mock implementation of driving.HistoryService.
type mockHistoryService struct {
	exchanges []domain.Exchange
	err       error
}

func (m *mockHistoryService) History(_ context.Context, _ string) ([]domain.Exchange, error) {
	return m.exchanges, m.err
}

func (m *mockHistoryService) Sessions(_ context.Context) ([]domain.SessionSummary, error) {
	return nil, m.err
}

func (m *mockHistoryService) Prune(_ context.Context, _ time.Duration) (int, error) {
	return 0, m.err
}

// mockIndexInspector is a mock implementation of driving.IndexInspector.
type mockIndexInspector struct {
	meta *domain.BuildMetadata
	err  error
}

func (m *mockIndexInspector) Metadata(_ context.Context) (*domain.BuildMetadata, error) {
	return m.meta, m.err
}

func (m *mockIndexInspector) Location() string { return "vector_store/index.gob" }

func validPorts() *Ports {
	return &Ports{
		Answer:    &mockAnswerService{resp: &domain.AnswerResponse{Answer: "Dhaka", SessionID: "abc12345"}},
		Retriever: &mockRetriever{},
	}
}
