package notification

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"rncflow/internal/bootstrap/logging"
	"rncflow/internal/errs"
	"rncflow/internal/infrastructure/metrics"
	"rncflow/internal/ports"
)

// SweepLockKey serializes sweeps across every process sharing the lock
// backend.
const SweepLockKey = "notifications:sweep"

type SchedulerOptions struct {
	Interval time.Duration
	Timeout  time.Duration
	LockTTL  time.Duration
}

// Scheduler runs Engine.Sweep on a fixed interval, one sweep at a time
// across processes.
type Scheduler struct {
	engine *Engine
	locker ports.Locker
	opts   SchedulerOptions
}

func NewScheduler(engine *Engine, locker ports.Locker, opts SchedulerOptions) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = opts.Interval
	}
	return &Scheduler{engine: engine, locker: locker, opts: opts}
}

// Run sweeps immediately, then on every tick until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if s.engine == nil || s.locker == nil {
		return errors.New("engine and locker are required")
	}
	logCtx := logging.WithComponent(ctx, "usecase.notification.scheduler")
	logging.Info(logCtx, "deadline scheduler started", slog.Duration("interval", s.opts.Interval))

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		s.RunOnce(logCtx)
		select {
		case <-ctx.Done():
			logging.Info(logCtx, "deadline scheduler stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// RunOnce performs one locked sweep. It reports whether a sweep ran.
func (s *Scheduler) RunOnce(ctx context.Context) bool {
	release, ok, err := s.locker.TryLock(ctx, SweepLockKey, s.opts.LockTTL)
	if err != nil {
		metrics.SweepsTotal.WithLabelValues("failed").Inc()
		logging.Error(ctx, "acquire sweep lock failed", slog.Any("err", errs.Loggable(err)))
		return false
	}
	if !ok {
		metrics.SweepsTotal.WithLabelValues("skipped_locked").Inc()
		logging.Debug(ctx, "sweep skipped, lock held elsewhere")
		return false
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			logging.Warn(ctx, "release sweep lock failed", slog.Any("err", errs.Loggable(err)))
		}
	}()

	sweepCtx := ctx
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		sweepCtx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}
	if _, err := s.engine.Sweep(sweepCtx); err != nil {
		metrics.SweepsTotal.WithLabelValues("failed").Inc()
		logging.Error(ctx, "deadline sweep failed", slog.Any("err", errs.Loggable(err)))
		return true
	}
	metrics.SweepsTotal.WithLabelValues("completed").Inc()
	return true
}
