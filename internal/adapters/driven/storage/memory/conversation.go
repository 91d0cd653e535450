package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// Ensure ConversationStore implements the interface.
var _ driven.ConversationStore = (*ConversationStore)(nil)

// ConversationStore is an in-memory conversation log.
// The outer lock only guards the session map. Each session has its own lock,
// so appends to different sessions do not wait on each other.
type ConversationStore struct {
	mu       sync.RWMutex
	sessions map[string]*session
	seq      atomic.Uint64
	now      func() time.Time
}

type session struct {
	mu        sync.Mutex
	exchanges []domain.Exchange
	lastSeq   uint64
}

// NewConversationStore creates an empty in-memory conversation store.
func NewConversationStore() *ConversationStore {
	return &ConversationStore{
		sessions: make(map[string]*session),
		now:      time.Now,
	}
}

func (s *ConversationStore) session(id string, create bool) *session {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok || !create {
		return sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok = s.sessions[id]; !ok {
		sess = &session{}
		s.sessions[id] = sess
	}
	return sess
}

// Append records an exchange at the end of its session.
func (s *ConversationStore) Append(ctx context.Context, exchange domain.Exchange) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if exchange.SessionID == "" {
		return fmt.Errorf("%w: session id is required", domain.ErrInvalidInput)
	}
	if exchange.UserID == "" {
		exchange.UserID = domain.DefaultUserID
	}
	if exchange.Timestamp.IsZero() {
		exchange.Timestamp = s.now()
	}

	sess := s.session(exchange.SessionID, true)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.exchanges = append(sess.exchanges, exchange)
	sess.lastSeq = s.seq.Add(1)
	return nil
}

// History returns a copy of the session's exchanges, oldest first.
func (s *ConversationStore) History(ctx context.Context, sessionID string) ([]domain.Exchange, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sess := s.session(sessionID, false)
	if sess == nil {
		return []domain.Exchange{}, nil
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	out := make([]domain.Exchange, len(sess.exchanges))
	copy(out, sess.exchanges)
	return out, nil
}

// Sessions lists sessions, most recently active first.
func (s *ConversationStore) Sessions(ctx context.Context) ([]domain.SessionSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	ids := make([]string, 0, len(s.sessions))
	all := make([]*session, 0, len(s.sessions))
	for id, sess := range s.sessions {
		ids = append(ids, id)
		all = append(all, sess)
	}
	s.mu.RUnlock()

	type entry struct {
		summary domain.SessionSummary
		seq     uint64
	}
	entries := make([]entry, 0, len(ids))
	for i, sess := range all {
		sess.mu.Lock()
		if n := len(sess.exchanges); n > 0 {
			entries = append(entries, entry{
				summary: domain.SessionSummary{
					SessionID:     ids[i],
					ExchangeCount: n,
					FirstAt:       sess.exchanges[0].Timestamp,
					LastAt:        sess.exchanges[n-1].Timestamp,
				},
				seq: sess.lastSeq,
			})
		}
		sess.mu.Unlock()
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].seq > entries[j].seq })

	out := make([]domain.SessionSummary, len(entries))
	for i := range entries {
		out[i] = entries[i].summary
	}
	return out, nil
}

// Prune deletes exchanges recorded before the given time. Emptied sessions
// stay in the map so that a concurrent Append never writes to a detached one.
func (s *ConversationStore) Prune(ctx context.Context, before time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	removed := 0
	for _, sess := range s.sessions {
		sess.mu.Lock()
		kept := sess.exchanges[:0]
		for _, ex := range sess.exchanges {
			if ex.Timestamp.Before(before) {
				removed++
				continue
			}
			kept = append(kept, ex)
		}
		sess.exchanges = kept
		sess.mu.Unlock()
	}
	return removed, nil
}

// Close releases resources.
func (s *ConversationStore) Close() error {
	return nil
}
