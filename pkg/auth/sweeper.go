package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/subdeck/subdeck/pkg/observability"
)

// DefaultSweepInterval is how often expired sessions are swept
const DefaultSweepInterval = 60 * time.Minute

// Sweeper periodically removes expired sessions from a Store. It runs on
// its own schedule, independent of any request, and has a cancellable
// lifetime so shutdown and tests can stop it cleanly.
type Sweeper struct {
	cron    *cron.Cron
	store   *Store
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewSweeper schedules a sweep of store every interval. metrics may be nil.
func NewSweeper(store *Store, interval time.Duration, logger *observability.Logger, metrics *observability.Metrics) (*Sweeper, error) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}

	s := &Sweeper{
		cron:    cron.New(),
		store:   store,
		logger:  logger,
		metrics: metrics,
	}

	if _, err := s.cron.AddFunc(fmt.Sprintf("@every %s", interval), s.sweep); err != nil {
		return nil, fmt.Errorf("scheduling session sweep: %w", err)
	}

	return s, nil
}

// Start begins the sweep schedule
func (s *Sweeper) Start() {
	s.cron.Start()
	s.logger.Info("session sweeper started")
}

// Stop halts the schedule and waits for a running sweep to finish, or for
// ctx to be done, whichever comes first.
func (s *Sweeper) Stop(ctx context.Context) error {
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
		s.logger.Info("session sweeper stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Sweeper) sweep() {
	removed := s.store.Sweep(time.Now())
	if s.metrics != nil {
		s.metrics.SessionsSweptTotal.Add(float64(removed))
		s.metrics.SessionsActive.Set(float64(s.store.Len()))
	}
	if removed > 0 {
		s.logger.WithField("removed", removed).Info("expired sessions swept")
	} else {
		s.logger.Debug("session sweep found nothing to remove")
	}
}
