package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"FeedScanner/internal/domain"
	"FeedScanner/internal/ports"
)

// CycleRunner executes one ingestion cycle.
type CycleRunner interface {
	RunCycle(ctx context.Context) domain.CycleReport
}

// Scheduler wires the cron-like driver with the ingestion use case and
// guarantees that at most one cycle is in flight.
type Scheduler struct {
	driver ports.Scheduler
	runner CycleRunner
	logger *slog.Logger

	running sync.Mutex
}

// NewScheduler returns a helper to start/stop recurring cycles.
func NewScheduler(driver ports.Scheduler, runner CycleRunner, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{driver: driver, runner: runner, logger: logger}
}

// Start registers the cycle with the provided scheduler driver.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.runner == nil {
		return nil
	}

	job := func(trigger time.Time) {
		if _, err := s.RunNow(ctx); errors.Is(err, domain.ErrCycleInProgress) {
			s.logger.Info("previous cycle still running, skipping trigger", "trigger", trigger)
		}
	}

	return s.driver.Start(ctx, job)
}

// RunNow executes a cycle immediately unless one is already running.
func (s *Scheduler) RunNow(ctx context.Context) (domain.CycleReport, error) {
	if s.runner == nil {
		return domain.CycleReport{}, nil
	}
	if !s.running.TryLock() {
		return domain.CycleReport{}, domain.ErrCycleInProgress
	}
	defer s.running.Unlock()

	return s.runner.RunCycle(ctx), nil
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
