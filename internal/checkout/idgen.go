package checkout

import (
	"fmt"
	"sync"
	"time"
)

// IDGenerator derives order ids from a millisecond clock. Ids never repeat within
// a process even when the clock stalls or steps back. A retried checkout gets a
// new id; the order service is not asked to deduplicate.
type IDGenerator struct {
	mu   sync.Mutex
	now  func() time.Time
	last int64
}

func NewIDGenerator(now func() time.Time) *IDGenerator {
	if now == nil {
		now = time.Now
	}
	return &IDGenerator{now: now}
}

func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return fmt.Sprintf("ORD-%d", ms)
}
