package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
)

// Ensure HistoryService implements the interface.
var _ driving.HistoryService = (*HistoryService)(nil)

// HistoryService reads and prunes the conversation log.
type HistoryService struct {
	store driven.ConversationStore
	now   func() time.Time
}

// NewHistoryService creates a history service over store.
func NewHistoryService(store driven.ConversationStore) *HistoryService {
	return &HistoryService{store: store, now: time.Now}
}

// History returns every exchange of a session, oldest first.
func (s *HistoryService) History(ctx context.Context, sessionID string) ([]domain.Exchange, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", domain.ErrInvalidInput)
	}
	return s.store.History(ctx, sessionID)
}

// Sessions lists known sessions, most recently active first.
func (s *HistoryService) Sessions(ctx context.Context) ([]domain.SessionSummary, error) {
	return s.store.Sessions(ctx)
}

// Prune deletes exchanges older than olderThan and reports how many went.
func (s *HistoryService) Prune(ctx context.Context, olderThan time.Duration) (int, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("%w: prune age must be positive, got %s", domain.ErrInvalidInput, olderThan)
	}
	return s.store.Prune(ctx, s.now().Add(-olderThan))
}
