package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/robfig/cron/v3"
)

// cronLogger adapts slog to the cron.Logger interface.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append([]any{"error", err.Error()}, keysAndValues...)...)
}

// schedule starts a run on every tick of the cron spec until ctx is cancelled.
// A tick that fires while the previous run is still going is skipped.
func (r *runner) schedule(ctx context.Context) error {
	logger := cronLogger{logger: r.obs.logger}

	c := cron.New(cron.WithLogger(logger), cron.WithChain(cron.SkipIfStillRunning(logger)))

	var runs atomic.Uint64

	_, err := c.AddFunc(r.options.schedule, func() {
		n := runs.Add(1)
		if _, err := r.run(ctx, n); err != nil {
			r.obs.logger.ErrorContext(ctx, "scheduled run failed", "run", n, "error", err.Error())
		}
	})
	if err != nil {
		return fmt.Errorf("schedule %q: %w", r.options.schedule, err)
	}

	r.obs.logger.InfoContext(ctx, "schedule started", "schedule", r.options.schedule)

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()

	r.obs.logger.InfoContext(ctx, "schedule stopped", "runs", runs.Load())

	return nil
}
