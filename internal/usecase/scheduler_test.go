package usecase_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FeedScanner/internal/domain"
	"FeedScanner/internal/usecase"
)

type blockingRunner struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func (r *blockingRunner) RunCycle(context.Context) domain.CycleReport {
	r.calls.Add(1)
	r.started <- struct{}{}
	<-r.release
	return domain.CycleReport{ItemsAdded: 1}
}

type manualDriver struct {
	job     func(time.Time)
	stopped bool
}

func (d *manualDriver) Start(_ context.Context, job func(time.Time)) error {
	d.job = job
	return nil
}

func (d *manualDriver) Stop(context.Context) error {
	d.stopped = true
	return nil
}

func TestSchedulerRunNowRejectsOverlap(t *testing.T) {
	runner := &blockingRunner{started: make(chan struct{}, 1), release: make(chan struct{})}
	scheduler := usecase.NewScheduler(nil, runner, nil)

	done := make(chan domain.CycleReport)
	go func() {
		report, _ := scheduler.RunNow(context.Background())
		done <- report
	}()
	<-runner.started

	_, err := scheduler.RunNow(context.Background())
	assert.ErrorIs(t, err, domain.ErrCycleInProgress)

	close(runner.release)
	report := <-done
	assert.Equal(t, 1, report.ItemsAdded)

	runner.release = make(chan struct{})
	close(runner.release)
	_, err = scheduler.RunNow(context.Background())
	<-runner.started
	require.NoError(t, err)
	assert.Equal(t, int32(2), runner.calls.Load())
}

func TestSchedulerSkipsOverlappingTriggers(t *testing.T) {
	runner := &blockingRunner{started: make(chan struct{}, 4), release: make(chan struct{})}
	driver := &manualDriver{}
	scheduler := usecase.NewScheduler(driver, runner, nil)

	require.NoError(t, scheduler.Start(context.Background()))
	require.NotNil(t, driver.job)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		driver.job(time.Now())
	}()
	<-runner.started

	driver.job(time.Now())
	driver.job(time.Now())

	close(runner.release)
	wg.Wait()
	assert.Equal(t, int32(1), runner.calls.Load())

	require.NoError(t, scheduler.Stop(context.Background()))
	assert.True(t, driver.stopped)
}
