package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestAcquireRejectsSecondHolder(t *testing.T) {
	table := NewTable(DefaultTTL)

	assert.True(t, table.Acquire("seat-1", 10))
	assert.False(t, table.Acquire("seat-1", 20))
	assert.False(t, table.Acquire("seat-1", 10), "re-acquire by the same holder is refused too")
	assert.True(t, table.Acquire("seat-2", 20), "different seat is independent")
}

func TestConcurrentAcquireExactlyOneWins(t *testing.T) {
	table := NewTable(DefaultTTL)

	const goroutines = 64
	var wins int64
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(holder int64) {
			defer wg.Done()
			<-start
			if table.Acquire("seat-1", holder) {
				atomic.AddInt64(&wins, 1)
			}
		}(int64(i + 1))
	}

	close(start)
	wg.Wait()

	assert.Equal(t, int64(1), wins)
}

func TestLockExpiresAfterTTL(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	table := NewTable(180*time.Second, WithClock(clock.Now))

	assert.True(t, table.Acquire("seat-1", 10))
	assert.True(t, table.IsLocked("seat-1"))

	clock.Advance(179 * time.Second)
	assert.True(t, table.IsLocked("seat-1"))

	clock.Advance(1 * time.Second)
	assert.False(t, table.IsLocked("seat-1"), "lock must not be reported past its expiry")

	assert.True(t, table.Acquire("seat-1", 20), "seat is re-lockable after expiry")
}

func TestAcquireTakesOverExpiredEntry(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	table := NewTable(90*time.Second, WithClock(clock.Now))

	assert.True(t, table.Acquire("seat-1", 10))
	clock.Advance(91 * time.Second)

	assert.True(t, table.Acquire("seat-1", 20))
	assert.True(t, table.IsLocked("seat-1"))
}

func TestReleaseMakesSeatLockable(t *testing.T) {
	table := NewTable(DefaultTTL)

	assert.True(t, table.Acquire("seat-1", 10))
	table.Release("seat-1")
	assert.False(t, table.IsLocked("seat-1"))
	assert.True(t, table.Acquire("seat-1", 20))
}

func TestSweepPurgesExpiredWithoutTouchingLive(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	table := NewTable(60*time.Second, WithClock(clock.Now))

	table.Acquire("seat-old", 10)
	clock.Advance(61 * time.Second)
	table.Acquire("seat-new", 20)

	assert.Equal(t, 2, table.Len())
	table.sweep()
	assert.Equal(t, 1, table.Len(), "only the expired entry is purged")
	assert.True(t, table.IsLocked("seat-new"))
	assert.False(t, table.IsLocked("seat-old"))
}

func TestSweepDoesNotRemoveReacquiredLock(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	table := NewTable(60*time.Second, WithClock(clock.Now))

	table.Acquire("seat-1", 10)
	clock.Advance(61 * time.Second)

	// Newer lock taken after the first expired; the sweep must keep it.
	assert.True(t, table.Acquire("seat-1", 20))
	table.sweep()
	assert.True(t, table.IsLocked("seat-1"))
}

func TestStartStopLifecycle(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	table := NewTable(time.Second, WithClock(clock.Now), WithSweepInterval(5*time.Millisecond))

	table.Acquire("seat-1", 10)
	clock.Advance(2 * time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	table.Start(ctx)

	assert.Eventually(t, func() bool { return table.Len() == 0 }, time.Second, 10*time.Millisecond)

	table.Stop()
	table.Stop() // idempotent
}
