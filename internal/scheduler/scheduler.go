package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/herdbook/internal/config"
	"github.com/mamadbah2/herdbook/internal/service/sweep"
)

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron       *cron.Cron
	dispatcher *sweep.Dispatcher
	cfg        config.SweepConfig
	logger     *zap.Logger
}

// NewScheduler creates a new scheduler instance running in the configured
// timezone.
func NewScheduler(cfg config.SweepConfig, dispatcher *sweep.Dispatcher, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(location)),
		dispatcher: dispatcher,
		cfg:        cfg,
		logger:     logger,
	}, nil
}

// Start registers the daily sweep and starts the cron loop. The sweep is safe
// under at-least-once invocation, so overlapping or repeated fires are fine.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler", zap.String("schedule", s.cfg.CronSchedule))

	_, err := s.cron.AddFunc(s.cfg.CronSchedule, s.runSweep)
	if err != nil {
		s.logger.Error("failed to schedule daily sweep", zap.Error(err))
	}

	s.cron.Start()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) runSweep() {
	s.logger.Info("running daily sweep")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	result, err := s.dispatcher.Run(ctx)
	if err != nil {
		s.logger.Error("daily sweep failed", zap.Error(err))
		return
	}

	s.logger.Info("daily sweep finished",
		zap.Int("notifications_sent", result.NotificationsSent),
		zap.Int("failures", result.Failures))
}
