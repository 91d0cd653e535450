package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// ConversationStore is the durable log of exchanges, keyed by session id.
// It is the only writer of exchange records.
//
// Appends to the same session are serialized and none is lost. Appends to
// different sessions must not block each other.
type ConversationStore interface {
	// Append records an exchange at the end of its session.
	Append(ctx context.Context, exchange domain.Exchange) error

	// History returns every exchange of a session, oldest first.
	// An unknown session returns an empty slice and no error.
	History(ctx context.Context, sessionID string) ([]domain.Exchange, error)

	// Sessions lists all known sessions, most recently active first.
	Sessions(ctx context.Context) ([]domain.SessionSummary, error)

	// Prune deletes exchanges recorded before the given time and
	// returns how many were removed.
	Prune(ctx context.Context, before time.Time) (int, error)

	// Close releases resources.
	Close() error
}

// HistoryCache is the bounded short-term view of recent exchanges.
// It never affects what the ConversationStore keeps.
type HistoryCache interface {
	// Recent returns the cached exchanges of a session, oldest first.
	// ok is false when the session is not cached.
	Recent(sessionID string) (exchanges []domain.Exchange, ok bool)

	// Seed fills the cached view of an uncached session, keeping only the newest entries.
	Seed(sessionID string, exchanges []domain.Exchange)

	// Add appends an exchange to a cached session, evicting the oldest when
	// the session is full. An uncached session is left uncached and Add
	// returns false, so the next read seeds it from the durable store.
	Add(sessionID string, exchange domain.Exchange) bool

	// Capacity returns the number of exchanges kept per session.
	Capacity() int
}
