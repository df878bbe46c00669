// Package worker drives scheduled reports on a fixed interval.
package worker

import (
	"context"
	"log/slog"
	"time"

	"civic/pkg/requestcontext"
)

// Runner generates every report that is due at the context's time.
type Runner interface {
	RunDue(ctx context.Context) (int, error)
}

type Worker struct {
	runner   Runner
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

func New(runner Runner, interval time.Duration, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{runner: runner, interval: interval, logger: logger, now: time.Now}
}

// Run checks for due reports immediately and then on every tick until ctx is
// cancelled. Failed ticks are logged and retried on the next one.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.tick(ctx)
	for {
		select {
		case <-ticker.C:
			w.tick(ctx)
		case <-ctx.Done():
			return nil
		}
	}
}

func (w *Worker) tick(ctx context.Context) {
	n, err := w.runner.RunDue(requestcontext.WithTime(ctx, w.now()))
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		w.logger.ErrorContext(ctx, "scheduled reports failed", "generated", n, "error", err)
		return
	}
	if n > 0 {
		w.logger.InfoContext(ctx, "scheduled reports generated", "count", n)
	}
}
