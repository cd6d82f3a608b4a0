package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"

	"github.com/i474232898/renewable-site-aggregation/internal/yield"
)

// Refresher recomputes and stores a run.
type Refresher interface {
	Refresh(ctx context.Context) (yield.Run, error)
}

// Scheduler periodically recomputes every site's series.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   Refresher
	interval  time.Duration
	timeout   time.Duration
	logger    *logrus.Logger
}

// New creates a new Scheduler. Each refresh is bounded by timeout.
func New(service Refresher, interval, timeout time.Duration, logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		service:   service,
		interval:  interval,
		timeout:   timeout,
		logger:    logger,
	}
}

// Start schedules the refresh job and starts the underlying scheduler. The
// first refresh runs immediately.
func (s *Scheduler) Start() error {
	interval := s.interval
	if interval <= 0 {
		interval = time.Hour
	}

	// A slow refresh must not overlap the next tick.
	s.scheduler.SingletonModeAll()

	_, err := s.scheduler.Every(interval).Do(s.run)
	if err != nil {
		return err
	}

	s.logger.WithField("interval", interval.String()).Info("scheduler started")
	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) run() {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	s.logger.Debug("scheduler: running refresh job")
	if _, err := s.service.Refresh(ctx); err != nil {
		s.logger.WithError(err).Warn("scheduler: refresh failed")
	}
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
