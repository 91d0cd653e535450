// Package ring provides the short-term history cache: a bounded LRU of
// sessions, each holding a fixed-capacity ring of recent exchanges.
package ring

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// Ensure Cache implements the interface.
var _ driven.HistoryCache = (*Cache)(nil)

// DefaultMaxSessions bounds the number of cached sessions.
const DefaultMaxSessions = 1024

// Cache keeps the most recent exchanges per session.
type Cache struct {
	capacity int
	sessions *lru.Cache[string, *buffer]
	mu       sync.Mutex // serializes get-or-create on the LRU
}

// New creates a cache holding up to capacity exchanges for each of at most
// maxSessions sessions. A zero capacity caches nothing.
func New(capacity, maxSessions int) (*Cache, error) {
	if capacity < 0 {
		return nil, fmt.Errorf("%w: capacity must not be negative", domain.ErrInvalidInput)
	}
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	sessions, err := lru.New[string, *buffer](maxSessions)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	return &Cache{capacity: capacity, sessions: sessions}, nil
}

// Capacity returns the number of exchanges kept per session.
func (c *Cache) Capacity() int {
	return c.capacity
}

// Len returns the number of cached sessions.
func (c *Cache) Len() int {
	return c.sessions.Len()
}

// Recent returns the cached exchanges of a session, oldest first.
func (c *Cache) Recent(sessionID string) ([]domain.Exchange, bool) {
	if c.capacity == 0 {
		return []domain.Exchange{}, true
	}
	buf, ok := c.sessions.Get(sessionID)
	if !ok {
		return nil, false
	}
	return buf.snapshot(), true
}

// Seed fills the cached view of a session with the newest exchanges.
// A session that is already cached keeps its ring.
func (c *Cache) Seed(sessionID string, exchanges []domain.Exchange) {
	if c.capacity == 0 {
		return
	}
	buf := newBuffer(c.capacity)
	for _, ex := range exchanges {
		buf.push(ex)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.sessions.Peek(sessionID); ok {
		return
	}
	c.sessions.Add(sessionID, buf)
}

// Add appends an exchange to a cached session and reports whether it was
// cached. A missing ring is not created: one holding only the newest
// exchange would read as a hit and hide the older history.
func (c *Cache) Add(sessionID string, exchange domain.Exchange) bool {
	if c.capacity == 0 {
		return true
	}

	c.mu.Lock()
	buf, ok := c.sessions.Get(sessionID)
	c.mu.Unlock()
	if !ok {
		return false
	}
	buf.push(exchange)
	return true
}

// buffer is a fixed-capacity ring. When full, push overwrites the oldest entry.
type buffer struct {
	mu    sync.Mutex
	items []domain.Exchange
	start int
	size  int
}

func newBuffer(capacity int) *buffer {
	return &buffer{items: make([]domain.Exchange, capacity)}
}

func (b *buffer) push(ex domain.Exchange) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(b.items)
	if b.size < n {
		b.items[(b.start+b.size)%n] = ex
		b.size++
		return
	}
	b.items[b.start] = ex
	b.start = (b.start + 1) % n
}

func (b *buffer) snapshot() []domain.Exchange {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]domain.Exchange, b.size)
	for i := 0; i < b.size; i++ {
		out[i] = b.items[(b.start+i)%len(b.items)]
	}
	return out
}
