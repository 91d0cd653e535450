package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// HistoryService exposes the conversation log.
type HistoryService interface {
	// History returns every exchange of a session, oldest first.
	History(ctx context.Context, sessionID string) ([]domain.Exchange, error)

	// Sessions lists known sessions, most recently active first.
	Sessions(ctx context.Context) ([]domain.SessionSummary, error)

	// Prune deletes exchanges older than the given age.
	Prune(ctx context.Context, olderThan time.Duration) (int, error)
}
