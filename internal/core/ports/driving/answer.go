package driving

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// AnswerService answers a user query from the knowledge base.
type AnswerService interface {
	// Answer runs the retrieval-augmented pipeline for one request.
	// The exchange is persisted only when an answer was produced.
	Answer(ctx context.Context, req domain.AnswerRequest) (*domain.AnswerResponse, error)
}
