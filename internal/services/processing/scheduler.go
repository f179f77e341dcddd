package processing

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/trammate/internal/common"
)

// RebuildFunc performs one full knowledge base reindex
type RebuildFunc func(ctx context.Context) error

// Scheduler handles periodic index rebuilds
type Scheduler struct {
	config  *common.ProcessingConfig
	rebuild RebuildFunc
	cron    *cron.Cron
	logger  arbor.ILogger
}

// NewScheduler creates a new rebuild scheduler
func NewScheduler(config *common.ProcessingConfig, rebuild RebuildFunc, logger arbor.ILogger) *Scheduler {
	return &Scheduler{
		config:  config,
		rebuild: rebuild,
		cron:    cron.New(cron.WithSeconds()),
		logger:  logger,
	}
}

// Start begins the scheduled rebuilds
func (s *Scheduler) Start() error {
	schedule := s.config.Schedule
	if schedule == "" {
		// Default: every 6 hours
		schedule = "0 0 */6 * * *"
	}

	_, err := s.cron.AddFunc(schedule, func() {
		s.runRebuild()
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info().
		Str("schedule", schedule).
		Msg("Index rebuild scheduler started")

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info().Msg("Index rebuild scheduler stopped")
}

// RunNow triggers an immediate rebuild
func (s *Scheduler) RunNow() {
	s.logger.Info().Msg("Triggering immediate index rebuild")
	go s.runRebuild()
}

func (s *Scheduler) runRebuild() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	start := time.Now()
	s.logger.Info().Msg("Starting scheduled index rebuild")

	if err := s.rebuild(ctx); err != nil {
		s.logger.Error().
			Err(err).
			Msg("Scheduled index rebuild failed")
		return
	}

	s.logger.Info().
		Str("duration", time.Since(start).String()).
		Msg("Scheduled index rebuild completed")
}
