package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Sweeper is the job run by the scheduler
type Sweeper interface {
	CleanupDeletedPhotos(ctx context.Context, trigger Trigger) (*CleanupResult, error)
}

// Scheduler runs the deleted photo sweep on a cron schedule
type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	timeout time.Duration
}

// NewScheduler creates a scheduler for spec evaluated in location
func NewScheduler(sweeper Sweeper, spec string, location *time.Location, timeout time.Duration) (*Scheduler, error) {
	if location == nil {
		location = time.UTC
	}
	s := &Scheduler{
		cron:    cron.New(cron.WithLocation(location)),
		sweeper: sweeper,
		timeout: timeout,
	}
	if _, err := s.cron.AddFunc(spec, s.RunOnce); err != nil {
		return nil, fmt.Errorf("failed to schedule cleanup %q: %w", spec, err)
	}
	return s, nil
}

// Start begins running scheduled jobs in the background
func (s *Scheduler) Start() {
	s.cron.Start()
	for _, entry := range s.cron.Entries() {
		log.Info().Time("next_run", entry.Next).Msg("Cleanup scheduled")
	}
}

// Stop stops the scheduler and waits for a running sweep until ctx is done
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		log.Warn().Msg("Scheduler stopped before running sweep finished")
	}
}

// RunOnce runs a single scheduled sweep; the result is only logged
func (s *Scheduler) RunOnce() {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	result, err := s.sweeper.CleanupDeletedPhotos(ctx, Trigger{Source: SourceScheduled})
	if err != nil {
		log.Error().Err(err).Msg("Scheduled cleanup failed")
		return
	}
	log.Info().
		Int("deleted", result.DeletedCount).
		Int("errors", result.ErrorCount).
		Msg("Scheduled cleanup finished")
}
