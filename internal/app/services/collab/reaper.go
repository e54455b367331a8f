package collab

import (
	"context"
	"time"

	"github.com/veltasoft/worksuite/pkg/logger"
)

// Idle session reaping defaults.
const (
	DefaultIdleAfter    = 10 * time.Minute
	DefaultReapInterval = time.Minute
)

// Reaper closes editing sessions that have had no participants or ops for
// a while, releasing their revision history.
type Reaper struct {
	service   *Service
	idleAfter time.Duration
	interval  time.Duration
	log       *logger.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewReaper constructs an idle session reaper.
func NewReaper(service *Service, idleAfter, interval time.Duration, log *logger.Logger) *Reaper {
	if idleAfter <= 0 {
		idleAfter = DefaultIdleAfter
	}
	if interval <= 0 {
		interval = DefaultReapInterval
	}
	if log == nil {
		log = logger.NewDefault("collab-reaper")
	}
	return &Reaper{service: service, idleAfter: idleAfter, interval: interval, log: log}
}

// Name implements system.Service.
func (r *Reaper) Name() string { return "collab-reaper" }

// Start begins the reap loop.
func (r *Reaper) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})
	go r.loop(runCtx)
	return nil
}

// Stop halts the reap loop.
func (r *Reaper) Stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}
	if r.done != nil {
		select {
		case <-r.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (r *Reaper) loop(ctx context.Context) {
	defer close(r.done)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if reaped := r.service.ReapIdle(r.idleAfter); reaped > 0 {
				r.log.WithField("sessions", reaped).Info("reaped idle sessions")
			}
		}
	}
}
