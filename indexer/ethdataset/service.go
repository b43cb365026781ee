package ethdataset

import (
	"context"
	"sync"

	"github.com/observerlabs/aavewatch/indexer/scheduler"
)

// Service keeps the daily series current: one build at startup to close
// any gap accumulated while the process was down, then one per day at the
// configured UTC slot, retried hourly after failures.
type Service struct {
	b      *Builder
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	lastErr error
}

// NewService initializes the dataset service around a builder.
func NewService(ctx context.Context, b *Builder) *Service {
	ctx, cancel := context.WithCancel(ctx)
	return &Service{b: b, ctx: ctx, cancel: cancel}
}

// Start runs the startup check and schedules the daily builds. The
// startup build can take a while on a stale dataset, so it runs in a
// goroutine.
func (s *Service) Start() {
	go s.run()
}

func (s *Service) run() {
	log.Info("Checking ETH price dataset for updates")
	if err := s.b.BuildOnce(s.ctx); err != nil {
		if s.ctx.Err() != nil {
			return
		}
		log.WithError(err).Error("Startup dataset update failed")
		log.Warn("Will retry at next scheduled time")
		s.setErr(err)
	} else {
		log.Info("Startup dataset check completed")
		s.setErr(nil)
	}
	scheduler.RunDaily(s.ctx, s.b.cfg.DailyDatasetHourUTC, s.b.cfg.DailyDatasetMinute,
		s.b.cfg.DatasetRetryInterval, s.update)
}

func (s *Service) update() error {
	log.Info("Starting daily dataset update")
	if err := s.b.BuildOnce(s.ctx); err != nil {
		if s.ctx.Err() != nil {
			return nil
		}
		s.setErr(err)
		return err
	}
	log.Info("Daily dataset update completed")
	s.setErr(nil)
	return nil
}

// Stop cancels the build loop. An in-flight build exits at its next day
// boundary or retry sleep.
func (s *Service) Stop() error {
	s.cancel()
	return nil
}

// Status returns the error of the most recent build, nil when healthy.
func (s *Service) Status() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Service) setErr(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}
