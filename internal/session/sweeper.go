package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper periodically evicts sessions idle past the configured timeout.
//
// The sweep interval is fixed at one minute regardless of the timeout; the
// constructor accepts an override as a tunable (and for tests) rather than
// scaling the interval with the timeout.
type Sweeper struct {
	store    *Store
	timeout  time.Duration
	interval time.Duration
	onEvict  func(count int)
}

// NewSweeper creates a Sweeper. A non-positive interval falls back to one
// minute. A non-positive timeout disables sweeping entirely.
func NewSweeper(store *Store, idleTimeout, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		store:    store,
		timeout:  idleTimeout,
		interval: interval,
	}
}

// OnEvict registers a callback invoked with the eviction count after each
// sweep that removed at least one session. Must be set before Start.
func (s *Sweeper) OnEvict(fn func(count int)) { s.onEvict = fn }

// Start runs the sweep schedule until ctx is cancelled. With idle eviction
// disabled it only waits for cancellation.
func (s *Sweeper) Start(ctx context.Context) error {
	if s.timeout <= 0 {
		slog.Info("session sweeper disabled", "idleTimeout", s.timeout)
		<-ctx.Done()
		return ctx.Err()
	}

	c := cron.New()
	c.Schedule(cron.Every(s.interval), cron.FuncJob(s.sweep))
	c.Start()
	slog.Info("session sweeper started", "interval", s.interval, "idleTimeout", s.timeout)

	<-ctx.Done()
	<-c.Stop().Done()
	slog.Info("session sweeper stopped")
	return ctx.Err()
}

func (s *Sweeper) sweep() {
	removed := s.store.SweepIdle(time.Now(), s.timeout)
	if removed == 0 {
		return
	}
	slog.Info("evicted idle sessions", "count", removed, "remaining", s.store.Len())
	if s.onEvict != nil {
		s.onEvict(removed)
	}
}
