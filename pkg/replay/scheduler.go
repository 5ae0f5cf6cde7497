package replay

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"strategos-hq/riskengine/pkg/config"
)

// Scheduler runs verification sweeps on a cron schedule.
type Scheduler struct {
	verifier *Verifier
	schedule string
	cron     *cron.Cron
	mu       sync.Mutex
	logger   *slog.Logger
	running  bool
}

// NewScheduler creates a scheduler for verifier. schedule uses
// config.ScheduleParser syntax; an empty schedule disables the scheduler.
func NewScheduler(verifier *Verifier, schedule string) *Scheduler {
	return &Scheduler{
		verifier: verifier,
		schedule: schedule,
		cron:     cron.New(cron.WithParser(config.ScheduleParser)),
		logger:   slog.Default().With("component", "replay.scheduler"),
	}
}

// Start registers the sweep and starts the cron loop. The scheduler stops
// when ctx is cancelled.
//
// Common schedules:
//   - "0 */15 * * * *" - every 15 minutes
//   - "@hourly"        - every hour
//   - "0 3 * * *"      - daily at 3 AM
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		s.logger.Info("verification schedule not configured, skipping scheduler")
		return nil
	}
	if s.running {
		return nil
	}

	if _, err := config.ScheduleParser.Parse(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	if _, err := s.cron.AddFunc(s.schedule, func() {
		s.runSweep(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule verification: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("replay verification scheduler started",
		"schedule", s.schedule,
		"window", s.verifier.config.Window,
		"batch_size", s.verifier.config.BatchSize,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

func (s *Scheduler) runSweep(ctx context.Context) {
	report, err := s.verifier.Sweep(ctx)
	if err != nil {
		s.logger.Error("scheduled verification failed", "error", err)
		return
	}
	s.logger.Info("scheduled verification completed",
		"checked", report.Checked,
		"mismatched", report.Mismatched,
		"failed", report.Failed,
	)
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		<-s.cron.Stop().Done()
		s.running = false
		s.logger.Info("replay verification scheduler stopped")
	}
}

// IsRunning reports whether the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled sweep, or nil when none is scheduled.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
