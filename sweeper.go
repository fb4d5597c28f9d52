package securexchat

import (
	"context"
	"time"
)

// Default sweeper settings.
const (
	DefaultSweepInterval = time.Minute
	DefaultRetention     = 5 * time.Minute
)

// Expirer deletes disappearing messages created before cutoff.
// MemoryMessageLog and the relay stores implement it.
type Expirer interface {
	DeleteExpired(ctx context.Context, cutoff time.Time) (int, error)
}

// Sweeper periodically removes disappearing messages older than the
// retention window.
type Sweeper struct {
	store     Expirer
	interval  time.Duration
	retention time.Duration
	logger    Logger
	now       func() time.Time
}

// SweeperOption configures a Sweeper.
type SweeperOption func(*Sweeper)

// SweepInterval sets how often Run sweeps.
func SweepInterval(d time.Duration) SweeperOption {
	return func(s *Sweeper) {
		if d > 0 {
			s.interval = d
		}
	}
}

// SweepRetention sets how long disappearing messages are kept.
func SweepRetention(d time.Duration) SweeperOption {
	return func(s *Sweeper) {
		if d > 0 {
			s.retention = d
		}
	}
}

// SweepLogger sets the logger for sweep results and failures.
func SweepLogger(l Logger) SweeperOption {
	return func(s *Sweeper) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSweeper returns a sweeper over store.
func NewSweeper(store Expirer, opts ...SweeperOption) *Sweeper {
	s := &Sweeper{
		store:     store,
		interval:  DefaultSweepInterval,
		retention: DefaultRetention,
		logger:    nopLogger{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SweepOnce deletes expired messages and returns how many were removed.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.retention)
	n, err := s.store.DeleteExpired(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Debugf("sweeper: deleted %d expired messages", n)
	}
	return n, nil
}

// Run sweeps immediately and then every interval until ctx is done. A failed
// sweep is logged and retried on the next tick. Run returns ctx.Err().
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
			s.logger.Warnf("sweeper: %v", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
