package scanner

import (
	"context"
	"sync"
	"time"

	"github.com/observerlabs/aavewatch/indexer/scheduler"
)

// Config holds the dependencies and knobs for the scan service.
type Config struct {
	Scanner         *Scanner
	Interval        time.Duration
	SkipInitialScan bool
}

// Service drives scan passes continuously: one immediately at startup
// unless configured away, then one per interval. Passes are independent
// and resume from the CSV, so a failed pass only delays progress until
// the next tick.
type Service struct {
	cfg    *Config
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	lastErr error
	passNum int
}

// NewService initializes the scan service from its config.
func NewService(ctx context.Context, cfg *Config) *Service {
	ctx, cancel := context.WithCancel(ctx)
	return &Service{cfg: cfg, ctx: ctx, cancel: cancel}
}

// Start runs the initial pass and schedules the periodic ones. The
// registry starts services sequentially, so the pass itself runs in a
// goroutine.
func (s *Service) Start() {
	go s.run()
}

func (s *Service) run() {
	if s.cfg.SkipInitialScan {
		log.Info("Skipping initial scan on startup")
	} else {
		log.Info("Starting initial blockchain scan")
		if err := s.cfg.Scanner.ScanOnce(s.ctx, 0); err != nil {
			if s.ctx.Err() != nil {
				return
			}
			log.WithError(err).Error("Initial scan failed")
			log.Warn("Scanner will retry in next periodic cycle")
			s.setErr(err)
		} else {
			log.Info("Initial scan completed")
			s.setErr(nil)
		}
	}
	scheduler.RunEvery(s.ctx, s.cfg.Interval, s.scanPass)
}

func (s *Service) scanPass() {
	s.mu.Lock()
	s.passNum++
	n := s.passNum
	s.mu.Unlock()

	log.Infof("Periodic scan #%d started", n)
	if err := s.cfg.Scanner.ScanOnce(s.ctx, 0); err != nil {
		if s.ctx.Err() != nil {
			return
		}
		log.WithError(err).Errorf("Error in periodic scan #%d", n)
		log.Warn("Scanner will retry after sleep interval")
		s.setErr(err)
		return
	}
	log.Infof("Periodic scan #%d completed successfully", n)
	s.setErr(nil)
}

// Stop cancels the scan loop. An in-flight pass exits at its next batch
// boundary or retry sleep.
func (s *Service) Stop() error {
	s.cancel()
	return nil
}

// Status returns the error of the most recent pass, nil when healthy.
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
