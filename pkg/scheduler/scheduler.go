// Package scheduler runs named background jobs on cron specs. A job never
// overlaps with its own previous run and a panicking job does not stop the
// scheduler.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"inventory-service/pkg/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is one unit of background work.
type Job func(ctx context.Context) error

// Runner owns the cron instance and the context handed to jobs.
type Runner struct {
	cron   *cron.Cron
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a stopped runner.
func New(log *zap.Logger) *Runner {
	cl := logger.NewCronLogger(log)
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		cron: cron.New(
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
			cron.WithLogger(cl),
		),
		log:    log.Named("scheduler"),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add registers job under name on spec ("@daily", "@every 6h", or five-field cron).
func (r *Runner) Add(name, spec string, job Job) error {
	_, err := r.cron.AddFunc(spec, func() { r.run(name, job) })
	if err != nil {
		return fmt.Errorf("schedule %s on %q: %w", name, spec, err)
	}
	r.log.Info("Job scheduled", zap.String("job", name), zap.String("spec", spec))
	return nil
}

// RunNow executes job once in the background, outside the cron schedule.
func (r *Runner) RunNow(name string, job Job) {
	go r.run(name, job)
}

func (r *Runner) run(name string, job Job) {
	log := r.log.With(zap.String("job", name))
	start := time.Now()
	if err := job(logger.WithLogger(r.ctx, log)); err != nil {
		log.Error("Job failed", zap.Duration("took", time.Since(start)), zap.Error(err))
		return
	}
	log.Debug("Job finished", zap.Duration("took", time.Since(start)))
}

// Start begins firing scheduled jobs.
func (r *Runner) Start() {
	r.cron.Start()
}

// Stop halts the schedule and waits for running jobs until ctx expires,
// after which the jobs' context is cancelled.
func (r *Runner) Stop(ctx context.Context) error {
	done := r.cron.Stop()
	defer r.cancel()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}
