// Package lock implements the in-process seat lock table: a short-term,
// TTL-bound reservation gate that keeps two users from checking out the same
// seat at once. Locks live only in process memory; durable booking state in
// the database remains the final authority, so losing locks on restart is an
// accepted trade-off.
package lock

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultTTL is the checkout window granted per acquired lock.
const DefaultTTL = 180 * time.Second

// DefaultSweepInterval is how often the background sweep purges expired
// entries that were never touched again.
const DefaultSweepInterval = 30 * time.Second

type entry struct {
	holderID  int64
	expiresAt time.Time
}

// Table is a concurrent map of seat id -> lock entry. Construct one per
// process and inject it; it is deliberately not a package-level singleton so
// tests can build isolated instances with their own clock.
type Table struct {
	mu    sync.Mutex
	locks map[string]entry

	ttl        time.Duration
	sweepEvery time.Duration
	now        func() time.Time

	done chan struct{}
	once sync.Once
}

// Option configures a Table.
type Option func(*Table)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(t *Table) { t.now = now }
}

// WithSweepInterval overrides the background purge cadence.
func WithSweepInterval(d time.Duration) Option {
	return func(t *Table) { t.sweepEvery = d }
}

// NewTable creates a lock table. ttl <= 0 falls back to DefaultTTL.
func NewTable(ttl time.Duration, opts ...Option) *Table {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	t := &Table{
		locks:      make(map[string]entry),
		ttl:        ttl,
		sweepEvery: DefaultSweepInterval,
		now:        time.Now,
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Acquire records a lock for seatID held by holderID. It returns false when
// a live lock already exists, regardless of holder; lock state does not
// track ownership for override purposes. The check and the set happen under
// one critical section, so two concurrent acquires for the same seat can
// never both succeed.
func (t *Table) Acquire(seatID string, holderID int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if e, ok := t.locks[seatID]; ok {
		if now.Before(e.expiresAt) {
			return false
		}
		// Expired entry; fall through and take it over.
	}

	t.locks[seatID] = entry{holderID: holderID, expiresAt: now.Add(t.ttl)}
	return true
}

// IsLocked reports whether seatID has a live lock. An expired entry is
// removed on the way out so the table never reports a lock past its TTL.
func (t *Table) IsLocked(seatID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.locks[seatID]
	if !ok {
		return false
	}
	if !t.now().Before(e.expiresAt) {
		delete(t.locks, seatID)
		return false
	}
	return true
}

// Holder returns the id holding a live lock on seatID. ok is false when the
// seat is unlocked or the entry has expired.
func (t *Table) Holder(seatID string) (holderID int64, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, found := t.locks[seatID]
	if !found {
		return 0, false
	}
	if !t.now().Before(e.expiresAt) {
		delete(t.locks, seatID)
		return 0, false
	}
	return e.holderID, true
}

// Release drops the lock for seatID if present. Used when a checkout
// completes (confirm) or aborts (cancel) before the TTL elapses.
func (t *Table) Release(seatID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.locks, seatID)
}

// TTLSeconds exposes the configured checkout window for API responses.
func (t *Table) TTLSeconds() int {
	return int(t.ttl / time.Second)
}

// Len returns the number of entries currently stored, expired or not.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.locks)
}

// Start launches the background sweep that purges expired entries so the
// table cannot grow unbounded on keys that are never queried again.
func (t *Table) Start(ctx context.Context) {
	slog.Info("Starting seat lock sweep", "interval", t.sweepEvery.String(), "ttl", t.ttl.String())

	go func() {
		ticker := time.NewTicker(t.sweepEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				t.sweep()
			case <-t.done:
				slog.Info("Seat lock sweep stopped")
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop terminates the background sweep. Safe to call more than once.
func (t *Table) Stop() {
	t.once.Do(func() { close(t.done) })
}

// sweep removes expired entries. Expiry is compared under the same mutex
// that guards Acquire, so a sweep observing a key can only delete the entry
// it compared against; a lock re-acquired after expiry carries a later
// expiresAt and survives.
func (t *Table) sweep() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	removed := 0
	for seatID, e := range t.locks {
		if !now.Before(e.expiresAt) {
			delete(t.locks, seatID)
			removed++
		}
	}
	if removed > 0 {
		slog.Debug("Purged expired seat locks", "count", removed, "remaining", len(t.locks))
	}
}
