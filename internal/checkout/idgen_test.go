package checkout

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDGenerator_UsesMillisecondClock(t *testing.T) {
	g := NewIDGenerator(func() time.Time { return time.UnixMilli(1700000000123) })
	assert.Equal(t, "ORD-1700000000123", g.Next())
}

func TestIDGenerator_StalledClock(t *testing.T) {
	g := NewIDGenerator(fixedClock())

	first := g.Next()
	second := g.Next()
	third := g.Next()

	assert.Equal(t, "ORD-1772366400000", first)
	assert.Equal(t, "ORD-1772366400001", second)
	assert.Equal(t, "ORD-1772366400002", third)
}

func TestIDGenerator_ClockStepsBack(t *testing.T) {
	now := time.UnixMilli(5000)
	g := NewIDGenerator(func() time.Time { return now })

	assert.Equal(t, "ORD-5000", g.Next())
	now = time.UnixMilli(4000)
	assert.Equal(t, "ORD-5001", g.Next())
	now = time.UnixMilli(9000)
	assert.Equal(t, "ORD-9000", g.Next())
}

func TestIDGenerator_ConcurrentUnique(t *testing.T) {
	g := NewIDGenerator(fixedClock())

	const n = 200
	ids := make(chan string, n)
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- g.Next()
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]struct{}, n)
	for id := range ids {
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, n)
}

func TestNewIDGenerator_DefaultsToWallClock(t *testing.T) {
	g := NewIDGenerator(nil)
	assert.Regexp(t, `^ORD-\d{13}$`, g.Next())
}
