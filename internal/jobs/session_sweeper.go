package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultSweepInterval is how often idle browser sessions are looked for
const DefaultSweepInterval = 5 * time.Minute

// Sweeper is the part of the session manager the sweeper drives
type Sweeper interface {
	Sweep(idle time.Duration) int
}

// SessionSweeper evicts browser sessions that have been idle too long
type SessionSweeper struct {
	sessions Sweeper
	idle     time.Duration
	interval time.Duration
	ticker   *time.Ticker
	done     chan bool
	stopOnce sync.Once
}

func NewSessionSweeper(sessions Sweeper, idle, interval time.Duration) *SessionSweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &SessionSweeper{
		sessions: sessions,
		idle:     idle,
		interval: interval,
		done:     make(chan bool),
	}
}

// Start begins the sweep background job
func (s *SessionSweeper) Start(ctx context.Context) {
	slog.Info("starting session sweeper", "interval", s.interval, "idle_ttl", s.idle)

	s.ticker = time.NewTicker(s.interval)

	go func() {
		for {
			select {
			case <-s.ticker.C:
				s.sweep()
			case <-ctx.Done():
				slog.Info("session sweeper stopped")
				return
			case <-s.done:
				slog.Info("session sweeper stopped")
				return
			}
		}
	}()
}

// Stop stops the background job. Calling it again is a no-op.
func (s *SessionSweeper) Stop() {
	s.stopOnce.Do(func() {
		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.done)
	})
}

func (s *SessionSweeper) sweep() {
	if n := s.sessions.Sweep(s.idle); n > 0 {
		slog.Info("evicted idle browser sessions", "count", n)
	}
}
