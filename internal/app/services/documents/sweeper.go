package documents

import (
	"context"
	"time"

	"github.com/veltasoft/worksuite/pkg/logger"
)

// Retention sweep defaults.
const (
	DefaultRetention     = 30 * 24 * time.Hour
	DefaultSweepInterval = time.Hour
)

// Sweeper permanently deletes documents that have sat in the trash past
// the retention window.
type Sweeper struct {
	service   *Service
	retention time.Duration
	interval  time.Duration
	log       *logger.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewSweeper constructs a retention sweeper. Non-positive retention or
// interval fall back to the defaults.
func NewSweeper(service *Service, retention, interval time.Duration, log *logger.Logger) *Sweeper {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if log == nil {
		log = logger.NewDefault("trash-sweeper")
	}
	return &Sweeper{service: service, retention: retention, interval: interval, log: log}
}

// Name implements system.Service.
func (s *Sweeper) Name() string { return "trash-sweeper" }

// Start begins the sweep loop.
func (s *Sweeper) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.loop(runCtx)
	return nil
}

// Stop halts the sweep loop.
func (s *Sweeper) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.done != nil {
		select {
		case <-s.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (s *Sweeper) loop(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	cutoff := time.Now().UTC().Add(-s.retention)
	purged, err := s.service.PurgeTrashedBefore(sweepCtx, cutoff)
	if err != nil {
		s.log.WithError(err).Warn("trash sweep failed")
		return
	}
	if purged > 0 {
		s.log.WithField("purged", purged).Info("purged expired trash")
	}
}
