package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"FeedScanner/internal/ports"
)

// CronScheduler triggers a job on a standard 5-field cron expression and
// once shortly after start.
type CronScheduler struct {
	spec         string
	location     *time.Location
	startupDelay time.Duration
	logger       *slog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	timer   *time.Timer
	stopped bool
	jobs    sync.WaitGroup
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler configured via cron expression string.
// A negative startupDelay disables the initial run.
func NewCronScheduler(spec string, location *time.Location, startupDelay time.Duration, logger *slog.Logger) *CronScheduler {
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &CronScheduler{
		spec:         spec,
		location:     location,
		startupDelay: startupDelay,
		logger:       logger,
	}
}

// Start registers job and begins ticking. Calling Start twice is a no-op.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron != nil {
		return nil
	}

	cronLog := cronLogger{logger: c.logger}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	runner := cron.New(
		cron.WithParser(parser),
		cron.WithLocation(c.location),
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	run := func() {
		if !c.begin() {
			return
		}
		defer c.jobs.Done()
		job(time.Now().In(c.location))
	}

	if _, err := runner.AddFunc(c.spec, run); err != nil {
		return fmt.Errorf("parse cron expression %q: %w", c.spec, err)
	}
	c.stopped = false
	runner.Start()
	c.cron = runner

	if c.startupDelay >= 0 {
		c.timer = time.AfterFunc(c.startupDelay, run)
	}

	c.logger.Info("scheduler started", "cron", c.spec, "timezone", c.location.String(), "startup_delay", c.startupDelay)

	go func() {
		<-ctx.Done()
		_ = c.Stop(context.Background())
	}()

	return nil
}

// Stop halts scheduling and waits for running jobs, including the startup
// run, until ctx is done. Every call waits, not only the first.
func (c *CronScheduler) Stop(ctx context.Context) error {
	c.mu.Lock()
	runner, timer := c.cron, c.timer
	c.cron, c.timer = nil, nil
	c.stopped = true
	c.mu.Unlock()

	if timer != nil {
		timer.Stop()
	}
	if runner != nil {
		runner.Stop()
	}

	done := make(chan struct{})
	go func() {
		c.jobs.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.Join(errors.New("scheduler stop: running job did not finish"), ctx.Err())
	}
}

// begin registers a job run unless the scheduler has been stopped.
func (c *CronScheduler) begin() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return false
	}
	c.jobs.Add(1)
	return true
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
