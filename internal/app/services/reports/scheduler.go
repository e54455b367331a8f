package reports

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/veltasoft/worksuite/internal/app/domain/report"
	"github.com/veltasoft/worksuite/internal/app/storage"
	"github.com/veltasoft/worksuite/pkg/logger"
)

// DefaultRefreshInterval is how often the scheduler reloads definitions.
const DefaultRefreshInterval = time.Minute

// Scheduler runs enabled report definitions on their cron schedules. It
// reloads definitions periodically so edits take effect without a restart.
type Scheduler struct {
	service *Service
	store   storage.ReportStore
	refresh time.Duration
	log     *logger.Logger

	mu        sync.Mutex
	cron      *cron.Cron
	scheduled map[string]string

	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler constructs a scheduler over the report service.
func NewScheduler(service *Service, store storage.ReportStore, refresh time.Duration, log *logger.Logger) *Scheduler {
	if refresh <= 0 {
		refresh = DefaultRefreshInterval
	}
	if log == nil {
		log = logger.NewDefault("report-scheduler")
	}
	return &Scheduler{
		service:   service,
		store:     store,
		refresh:   refresh,
		log:       log,
		scheduled: map[string]string{},
	}
}

// Name implements system.Service.
func (s *Scheduler) Name() string { return "report-scheduler" }

// Start loads the scheduled definitions and begins running them.
func (s *Scheduler) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	s.mu.Lock()
	s.cron = cron.New()
	s.cron.Start()
	s.mu.Unlock()

	if err := s.reload(ctx); err != nil {
		s.log.WithError(err).Warn("initial report schedule load failed")
	}

	go s.loop(runCtx)
	return nil
}

// Stop halts the cron runner and the refresh loop.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Lock()
	var stopped <-chan struct{}
	if s.cron != nil {
		stopped = s.cron.Stop().Done()
	}
	s.mu.Unlock()

	if s.done != nil {
		select {
		case <-s.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if stopped != nil {
		select {
		case <-stopped:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.refresh)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.reload(ctx); err != nil {
				s.log.WithError(err).Warn("report schedule reload failed")
			}
		}
	}
}

// reload rebuilds the cron entries when the scheduled set changed.
func (s *Scheduler) reload(ctx context.Context) error {
	defs, err := s.store.ListScheduledReports(ctx)
	if err != nil {
		return err
	}

	next := make(map[string]string, len(defs))
	for _, def := range defs {
		next[def.ID] = def.Schedule
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !schedulesEqual(s.scheduled, next) {
		s.cron.Stop()
		s.cron = cron.New()
		for _, def := range defs {
			s.addLocked(def)
		}
		s.cron.Start()
		s.scheduled = next
		s.log.WithField("reports", len(defs)).Info("report schedule refreshed")
	}
	return nil
}

func (s *Scheduler) addLocked(def report.Definition) {
	reportID := def.ID
	_, err := s.cron.AddFunc(def.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := s.service.Run(ctx, reportID); err != nil {
			s.log.WithError(err).WithField("report_id", reportID).Error("scheduled report run failed")
		}
	})
	if err != nil {
		s.log.WithError(err).WithField("report_id", reportID).Warn("skipping report with invalid schedule")
	}
}

func schedulesEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for id, schedule := range a {
		if b[id] != schedule {
			return false
		}
	}
	return true
}
