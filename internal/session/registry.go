// Package session keeps one cart per shopper session in memory.
package session

import (
	"sync"
	"time"

	"github.com/fjod/storefront/internal/cart"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultTTL             = 30 * time.Minute
	DefaultCleanupInterval = time.Minute
)

// Session owns one cart. All access to the cart goes through Do or the
// checkout view, which serialize on the session mutex.
type Session struct {
	ID string

	mu   sync.Mutex
	cart *cart.Store
}

// Do runs fn with exclusive access to the cart.
func (s *Session) Do(fn func(c *cart.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.cart)
}

// CheckoutCart is a view of the session cart that locks per call, so a checkout
// can read its snapshot and later clear the cart without holding the lock
// across network calls.
func (s *Session) CheckoutCart() *LockedCart {
	return &LockedCart{s: s}
}

type LockedCart struct {
	s *Session
}

func (c *LockedCart) Lines() cart.Lines {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	return c.s.cart.Lines()
}

func (c *LockedCart) Clear() {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	c.s.cart.Clear()
}

type entry struct {
	session  *Session
	lastSeen time.Time
}

// Registry maps session ids to sessions and evicts the ones idle longer than
// the TTL.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	ttl      time.Duration
	now      func() time.Time
	logger   *zap.Logger

	stopCleanup chan struct{}
	wg          sync.WaitGroup
}

type Option func(*Registry)

func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// NewRegistry starts the background eviction loop. Close stops it.
func NewRegistry(ttl, cleanupInterval time.Duration, logger *zap.Logger, opts ...Option) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}
	r := &Registry{
		sessions:    make(map[string]*entry),
		ttl:         ttl,
		now:         time.Now,
		logger:      logger,
		stopCleanup: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}

	r.wg.Add(1)
	go r.cleanupLoop(cleanupInterval)

	return r
}

func (r *Registry) cleanupLoop(interval time.Duration) {
	defer r.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := r.EvictIdle(); n > 0 {
				r.logger.Debug("evicted idle sessions", zap.Int("count", n))
			}
		case <-r.stopCleanup:
			return
		}
	}
}

// Get returns the session for id, creating it when id is empty or unknown.
// The returned session's id is the one to hand back to the client.
func (r *Registry) Get(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if e, ok := r.sessions[id]; ok && id != "" {
		e.lastSeen = now
		return e.session
	}

	if id == "" {
		id = uuid.NewString()
	}
	s := &Session{ID: id, cart: cart.NewStore()}
	r.sessions[id] = &entry{session: s, lastSeen: now}
	return s
}

// EvictIdle drops every session not seen within the TTL and returns how many
// were dropped.
func (r *Registry) EvictIdle() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.ttl)
	evicted := 0
	for id, e := range r.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(r.sessions, id)
			evicted++
		}
	}
	return evicted
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Close stops the eviction loop and waits for it to finish.
func (r *Registry) Close() error {
	close(r.stopCleanup)
	r.wg.Wait()
	return nil
}
