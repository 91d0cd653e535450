package httpapi

import (
	"context"
	"time"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

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

type mockIndexInspector struct {
	meta *domain.BuildMetadata
	err  error
}

func (m *mockIndexInspector) Metadata(_ context.Context) (*domain.BuildMetadata, error) {
	return m.meta, m.err
}

func (m *mockIndexInspector) Location() string { return "vector_store/index.gob" }
