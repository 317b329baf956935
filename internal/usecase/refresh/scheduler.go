package refresh

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/streamscout/internal/domain"
	"github.com/kailas-cloud/streamscout/internal/logger"
)

// Scheduler drives the refresh service on a fixed interval and on
// demand. A cache miss on the read path nudges it through Kick instead
// of refreshing inline, so readers stay fast and cycles stay serialized.
type Scheduler struct {
	svc      *Service
	interval time.Duration
	kick     chan struct{}
}

// NewScheduler creates a scheduler for the given cycle interval.
func NewScheduler(svc *Service, interval time.Duration) *Scheduler {
	return &Scheduler{
		svc:      svc,
		interval: interval,
		kick:     make(chan struct{}, 1),
	}
}

// Kick requests an out-of-band refresh. Non-blocking; a kick while one
// is already pending is absorbed.
func (s *Scheduler) Kick() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is canceled. The first cycle runs immediately
// and publishes without notifying; every later cycle notifies.
func (s *Scheduler) Run(ctx context.Context) {
	log := logger.FromContext(ctx)

	if err := s.svc.RunCycle(logger.With(ctx, zap.String("trigger", "startup")), false); err != nil {
		log.Error("initial refresh failed", zap.Error(err))
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("refresh scheduler stopped")
			return
		case <-ticker.C:
			s.runOnce(ctx, log, "tick")
		case <-s.kick:
			s.runOnce(ctx, log, "kick")
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, log *zap.Logger, trigger string) {
	// every log line inside the cycle carries what started it
	err := s.svc.RunCycle(logger.With(ctx, zap.String("trigger", trigger)), true)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrRefreshInFlight):
		log.Debug("refresh skipped, cycle in flight", zap.String("trigger", trigger))
	default:
		log.Error("refresh cycle failed", zap.String("trigger", trigger), zap.Error(err))
	}
}
