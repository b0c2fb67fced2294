package main

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/AntonStoeckl/synthetic-persons-go/example/shell/config"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/engine"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/sink"
)

const progressInterval = time.Second

type runner struct {
	options   *options
	target    sink.Target
	conn      *connection
	obs       observers
	providers *config.ObservabilityProviders
	out       io.Writer

	// mu serializes output of overlapping scheduled runs.
	mu sync.Mutex
}

// run performs the n-th generation run with a fresh engine and sink.
func (r *runner) run(ctx context.Context, n uint64) (engine.Summary, error) {
	cfg, err := r.options.generationConfig(n)
	if err != nil {
		return engine.Summary{}, err
	}

	target := targetForRun(r.target, n, r.options.schedule != "")

	writer, err := writerFor(r.conn, r.options, target, cfg, r.obs)
	if err != nil {
		return engine.Summary{}, err
	}

	e, err := engine.New(cfg,
		engine.WithContextualLogger(r.obs.contextualLogger),
		engine.WithMetrics(r.obs.metricsCollector))
	if err != nil {
		return engine.Summary{}, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.printProgress(n, e.Progress())
	}()

	summary, runErr := e.Run(ctx, writer)
	<-done

	r.printSummary(n, target, summary)

	if r.providers != nil {
		if err = r.providers.Report(ctx, r.obs.logger); err != nil {
			r.obs.logger.WarnContext(ctx, "metrics report failed", "error", err.Error())
		}
	}

	return summary, runErr
}

func (r *runner) printProgress(n uint64, progress <-chan engine.Progress) {
	var last time.Time

	for p := range progress {
		if time.Since(last) < progressInterval && p.Status == engine.StateRunning {
			continue
		}
		last = time.Now()

		r.mu.Lock()
		_, _ = fmt.Fprintf(r.out, "run %d: %s batches=%d records=%d rate=%.0f/s elapsed=%s remaining=%s\n",
			n, p.Status, p.BatchesCompleted, p.RecordsCompleted, p.CurrentRate,
			p.Elapsed.Round(time.Millisecond), p.EstimatedRemaining.Round(time.Second))
		r.mu.Unlock()
	}
}

func (r *runner) printSummary(n uint64, target sink.Target, s engine.Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w := r.out
	_, _ = fmt.Fprintf(w, "run %d finished: %s in %s\n", n, s.State, s.Duration.Round(time.Millisecond))
	_, _ = fmt.Fprintf(w, "  target            %s\n", describe(target))
	_, _ = fmt.Fprintf(w, "  records generated %d\n", s.RecordsGenerated)
	_, _ = fmt.Fprintf(w, "  records written   %d\n", s.RecordsWritten)
	_, _ = fmt.Fprintf(w, "  batches written   %d (failed %d, skipped %d)\n", s.BatchesWritten, s.BatchesFailed, s.BatchesSkipped)
	_, _ = fmt.Fprintf(w, "  peak resident     %d records\n", s.PeakResidentRecords)

	for _, kind := range slices.Sorted(maps.Keys(s.Defects)) {
		_, _ = fmt.Fprintf(w, "  defects %-9s %d\n", kind, s.Defects[kind])
	}

	if s.FirstError != nil {
		_, _ = fmt.Fprintf(w, "  first error       %v\n", s.FirstError)
	}
}

func describe(target sink.Target) string {
	switch target.Kind {
	case sink.TargetFile:
		return fmt.Sprintf("file %s (%s)", target.Path, target.Format)
	case sink.TargetDatabase:
		return fmt.Sprintf("database schema %s, prefix %q, %s, %s", target.Schema, target.TablePrefix, target.TableBehavior, target.InsertMode)
	default:
		return fmt.Sprintf("nats subject %s", target.Subject)
	}
}
