// Package engine drives a generation run: it plans the batches, assembles them on a worker pool,
// bounds the generated-but-unwritten batches and delivers them to a sink in batch order.
//
// Delivery follows the plan's sequence numbers, so the sink sees the same batches in the same order
// regardless of the number of workers.
//
// Usage:
//
//	cfg, err := persons.NewGenerationConfig(persons.WithRecordCount(100_000), persons.WithSeed(42))
//	e, err := engine.New(cfg, engine.WithLogger(logger))
//	go func() {
//		for p := range e.Progress() {
//			fmt.Println(p.RecordsCompleted)
//		}
//	}()
//	summary, err := e.Run(ctx, writer)
package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AntonStoeckl/synthetic-persons-go/persons"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/assembler"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/refdata"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/sink"
)

const defaultProgressBuffer = 64

const (
	logMsgRunStarted    = "generation run started"
	logMsgRunFinished   = "generation run finished"
	logMsgRunFailed     = "generation run failed"
	logMsgDraining      = "draining in-flight batches"
	logMsgDrainTimeout  = "drain timeout exceeded, cancelling in-flight writes"
	logMsgBatchSkipped  = "batch skipped after sink failure"
	logMsgAbortFailed   = "aborting sink output failed"
	logMsgCloseFailed   = "closing sink after run failure failed"
	logAttrError        = "error"
	logAttrErrorKind    = "error_kind"
	logAttrCause        = "cause"
	logAttrRecordCount  = "record_count"
	logAttrWorkers      = "workers"
	logAttrBatchSize    = "batch_size"
	logAttrBatch        = "batch_sequence"
	logAttrSeed         = "seed"
	logAttrProfile      = "profile"
	logAttrStream       = "stream"
	logAttrWritten      = "records_written"
	logAttrSkipped      = "batches_skipped"
	logAttrPeakResident = "peak_resident_records"
	logAttrDurationMS   = "duration_ms"
	logAttrCancelled    = "cancelled"
)

const (
	labelDefectKind = "kind"
	labelStatus     = "status"
)

var (
	// ErrAlreadyStarted is returned when Run is called a second time on the same Engine.
	ErrAlreadyStarted = errors.New("engine can only run once")

	// ErrNegativeProgressBuffer is returned when the progress buffer size is negative.
	ErrNegativeProgressBuffer = errors.New("progress buffer size must not be negative")
)

// Engine runs one generation run. Build a new Engine for every run.
type Engine struct {
	cfg              persons.GenerationConfig
	assembler        *assembler.Assembler
	ref              *refdata.Context
	progressBuffer   int
	progress         chan Progress
	state            atomic.Int32
	started          atomic.Bool
	logger           persons.Logger
	contextualLogger persons.ContextualLogger
	metricsCollector persons.MetricsCollector
}

// Option defines a functional option for configuring an Engine.
type Option func(*Engine) error

// New validates cfg and prepares the assembler. Nothing is generated before Run.
func New(cfg persons.GenerationConfig, options ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{cfg: cfg, progressBuffer: defaultProgressBuffer}

	for _, option := range options {
		if err := option(e); err != nil {
			return nil, persons.NewOpError("build engine", persons.KindConfig, err)
		}
	}

	var assemblerOptions []assembler.Option
	if e.ref != nil {
		assemblerOptions = append(assemblerOptions, assembler.WithReferenceData(e.ref))
	}
	if cfg.Quality.DuplicateRate > 0 {
		assemblerOptions = append(assemblerOptions, assembler.WithSourceCache(newWindow(cfg.DuplicateWindow)))
	}

	a, err := assembler.New(cfg, assemblerOptions...)
	if err != nil {
		return nil, err
	}

	e.assembler = a
	e.progress = make(chan Progress, e.progressBuffer)

	return e, nil
}

// WithLogger sets the logger for the Engine.
// Info level: run start, drain and finish. Warn level: skipped batches. Error level: run failures.
func WithLogger(logger persons.Logger) Option {
	return func(e *Engine) error {
		e.logger = logger
		return nil
	}
}

// WithContextualLogger sets a context-aware logger. It takes precedence over WithLogger.
func WithContextualLogger(logger persons.ContextualLogger) Option {
	return func(e *Engine) error {
		e.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for generation metrics.
func WithMetrics(collector persons.MetricsCollector) Option {
	return func(e *Engine) error {
		e.metricsCollector = collector
		return nil
	}
}

// WithReferenceData replaces the embedded default reference data.
func WithReferenceData(ref *refdata.Context) Option {
	return func(e *Engine) error {
		if ref == nil {
			return assembler.ErrNilReferenceData
		}

		e.ref = ref

		return nil
	}
}

// WithProgressBuffer sets the capacity of the progress channel. Events are dropped while it is full.
func WithProgressBuffer(size int) Option {
	return func(e *Engine) error {
		if size < 0 {
			return ErrNegativeProgressBuffer
		}

		e.progressBuffer = size

		return nil
	}
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Progress returns the channel progress events are sent on. It is closed when Run returns.
func (e *Engine) Progress() <-chan Progress {
	return e.progress
}

// Run generates all planned records and writes them to s.
//
// Cancelling ctx or reaching the run deadline stops issuing new batches. Batches already handed to
// the pipeline are still written, bounded by the drain timeout, and Run returns a KindCancelled error
// together with the summary. A fatal sink or generation failure stops the run the same way and discards
// the remaining batches. Batches written before the failure are kept: the sink is closed, and only a
// sink that has not received a single record is aborted.
func (e *Engine) Run(ctx context.Context, s sink.Sink) (Summary, error) {
	if !e.started.CompareAndSwap(false, true) {
		return Summary{}, persons.NewOpError("run", persons.KindConfig, ErrAlreadyStarted)
	}
	defer close(e.progress)

	if s == nil {
		return Summary{}, persons.NewOpError("run", persons.KindConfig, sink.ErrNilSink)
	}

	r := &run{
		e:       e,
		sink:    s,
		plan:    NewPlan(e.cfg),
		sem:     make(chan struct{}, e.cfg.MaxInFlightBatches),
		summary: Summary{Defects: make(map[persons.DefectKind]uint64)},
	}

	return r.execute(ctx)
}

func (e *Engine) setState(s State) {
	e.state.Store(int32(s))
}

type generated struct {
	sequence uint64
	batch    persons.Batch
	resident int
	err      error
}

// run holds the state of one Run. Summary fields are only touched by the collecting goroutine.
type run struct {
	e       *Engine
	sink    sink.Sink
	plan    Plan
	start   time.Time
	sem     chan struct{}
	summary Summary
	failure error
	cause   error

	resident  atomic.Int64
	peak      atomic.Int64
	inFlight  atomic.Int64
	exhausted atomic.Bool

	batchesDone uint64
	recordsDone uint64
}

func (r *run) execute(ctx context.Context) (Summary, error) {
	e := r.e
	e.setState(StatePlanning)
	r.start = time.Now()

	e.logInfo(ctx, logMsgRunStarted,
		logAttrRecordCount, r.plan.Total(),
		logAttrWorkers, e.cfg.Workers,
		logAttrBatchSize, e.cfg.BatchSize,
		logAttrSeed, e.cfg.Seed,
		logAttrProfile, e.cfg.Quality.Name,
		logAttrStream, e.cfg.Stream)

	writeCtx, cancelWrites := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelWrites()

	if err := r.sink.Open(writeCtx); err != nil {
		r.fail(ctx, sinkError("open sink", 0, err))
		return r.finish(ctx)
	}

	runCtx, cancelRun := ctx, context.CancelFunc(func() {})
	if e.cfg.RunDeadline > 0 {
		runCtx, cancelRun = context.WithTimeout(ctx, e.cfg.RunDeadline)
	}
	defer cancelRun()

	stopCtx, stop := context.WithCancelCause(runCtx)
	defer stop(nil)

	e.setState(StateRunning)

	work := make(chan BatchRange)
	results := make(chan generated, e.cfg.MaxInFlightBatches)

	go r.dispatch(stopCtx, work)

	var workers sync.WaitGroup
	for id := range e.cfg.Workers {
		workers.Add(1)
		go func() {
			defer workers.Done()
			r.work(ctx, id, work, results)
		}()
	}
	go func() {
		workers.Wait()
		close(results)
	}()

	done := make(chan struct{})
	var watcher sync.WaitGroup
	watcher.Add(1)
	go func() {
		defer watcher.Done()
		r.watchDrain(ctx, stopCtx, done, cancelWrites)
	}()

	r.collect(ctx, writeCtx, results, stop)
	close(done)
	watcher.Wait()

	if r.failure == nil && !r.exhausted.Load() {
		r.summary.Cancelled = true
		r.cause = context.Cause(stopCtx)
	}

	return r.finish(ctx)
}

// dispatch issues the planned batches in sequence order. A batch is only issued after it got an
// in-flight permit, so permits are held by the lowest undelivered sequence numbers.
func (r *run) dispatch(ctx context.Context, work chan<- BatchRange) {
	defer close(work)

	ticks := time.Now()

	for sequence := uint64(0); ; sequence++ {
		next, ok := r.plan.Batch(sequence)
		if !ok {
			r.exhausted.Store(true)
			return
		}

		if r.e.cfg.Stream && !waitUntil(ctx, r.plan.Due(ticks, sequence)) {
			return
		}

		select {
		case r.sem <- struct{}{}:
		case <-ctx.Done():
			return
		}

		if ctx.Err() != nil {
			<-r.sem
			return
		}

		inFlight := r.inFlight.Add(1)
		persons.RecordValueMetric(ctx, r.e.metricsCollector, persons.MetricInFlightBatches, float64(inFlight), nil)

		work <- next
	}
}

func waitUntil(ctx context.Context, due time.Time) bool {
	d := time.Until(due)
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (r *run) work(ctx context.Context, workerID int, work <-chan BatchRange, results chan<- generated) {
	for next := range work {
		results <- r.assemble(ctx, workerID, next)
	}
}

func (r *run) assemble(ctx context.Context, workerID int, br BatchRange) generated {
	start := time.Now()
	batch := persons.Batch{Sequence: br.Sequence, WorkerID: workerID, Records: make([]persons.Person, 0, br.Count)}

	for i := range br.Count {
		p, err := r.e.assembler.Assemble(br.FirstIndex + uint64(i))
		if err != nil {
			persons.RecordDurationMetric(ctx, r.e.metricsCollector, persons.MetricBatchGenerationDuration, time.Since(start),
				map[string]string{labelStatus: persons.StatusError})

			return generated{sequence: br.Sequence, err: err}
		}

		batch.Records = append(batch.Records, p)
	}

	batch.GeneratedAt = time.Now()
	r.hold(batch.Len())

	persons.RecordDurationMetric(ctx, r.e.metricsCollector, persons.MetricBatchGenerationDuration, time.Since(start),
		map[string]string{labelStatus: persons.StatusSuccess})
	r.countGenerated(ctx, batch)

	return generated{sequence: br.Sequence, batch: batch, resident: batch.Len()}
}

func (r *run) countGenerated(ctx context.Context, batch persons.Batch) {
	if r.e.metricsCollector == nil {
		return
	}

	for i := range batch.Records {
		persons.IncrementCounterMetric(ctx, r.e.metricsCollector, persons.MetricRecordsGenerated, nil)

		for _, d := range batch.Records[i].Defects {
			persons.IncrementCounterMetric(ctx, r.e.metricsCollector, persons.MetricDefectsInjected,
				map[string]string{labelDefectKind: string(d.Kind)})
		}
	}
}

func (r *run) hold(records int) {
	resident := r.resident.Add(int64(records))

	for {
		peak := r.peak.Load()
		if resident <= peak || r.peak.CompareAndSwap(peak, resident) {
			return
		}
	}
}

func (r *run) release(ctx context.Context, g generated) {
	r.resident.Add(-int64(g.resident))
	<-r.sem

	inFlight := r.inFlight.Add(-1)
	persons.RecordValueMetric(ctx, r.e.metricsCollector, persons.MetricInFlightBatches, float64(inFlight), nil)
}

// collect receives generated batches in any order and delivers them in sequence order.
func (r *run) collect(ctx, writeCtx context.Context, results <-chan generated, stop context.CancelCauseFunc) {
	pending := make(map[uint64]generated)
	var next uint64

	for g := range results {
		if g.err != nil {
			r.fail(ctx, g.err)
			stop(g.err)
		} else {
			r.summary.RecordsGenerated += uint64(g.batch.Len())
			r.summary.countDefects(g.batch)
		}

		if r.failure != nil {
			r.release(ctx, g)
			for sequence, p := range pending {
				r.release(ctx, p)
				delete(pending, sequence)
			}

			continue
		}

		pending[g.sequence] = g

		for {
			ready, ok := pending[next]
			if !ok {
				break
			}

			delete(pending, next)
			next++

			if r.failure == nil {
				if err := r.deliver(ctx, writeCtx, ready.batch); err != nil {
					r.fail(ctx, err)
					stop(err)
				}
			}

			r.release(ctx, ready)
		}
	}

	for _, p := range pending {
		r.release(ctx, p)
	}
}

func (r *run) deliver(ctx, writeCtx context.Context, batch persons.Batch) error {
	err := r.sink.Write(writeCtx, batch)
	if err == nil {
		r.summary.RecordsWritten += uint64(batch.Len())
		r.summary.BatchesWritten++
		r.completed(batch.Len())

		return nil
	}

	var partial *sink.PartialWriteError
	if errors.As(err, &partial) {
		r.summary.RecordsWritten += uint64(partial.Written)
	}

	err = sinkError("write batch", batch.Sequence, err)
	if r.summary.FirstError == nil {
		r.summary.FirstError = err
	}

	if r.e.cfg.SkipFailedBatches && writeCtx.Err() == nil {
		r.summary.BatchesSkipped++
		persons.IncrementCounterMetric(ctx, r.e.metricsCollector, persons.MetricSinkBatchesSkipped, nil)
		r.e.logWarn(ctx, logMsgBatchSkipped,
			logAttrBatch, batch.Sequence,
			logAttrRecordCount, batch.Len(),
			logAttrError, err.Error())
		r.completed(batch.Len())

		return nil
	}

	r.summary.BatchesFailed++
	persons.IncrementCounterMetric(ctx, r.e.metricsCollector, persons.MetricSinkBatchesFailed, nil)

	return err
}

func (r *run) fail(ctx context.Context, err error) {
	if r.failure != nil {
		return
	}

	r.failure = err
	r.summary.Failed = true
	if r.summary.FirstError == nil {
		r.summary.FirstError = err
	}

	r.e.setState(StateFailed)
	r.e.logError(ctx, logMsgRunFailed, err)
}

func (r *run) watchDrain(ctx, stopCtx context.Context, done <-chan struct{}, cancelWrites context.CancelFunc) {
	select {
	case <-done:
		return
	case <-stopCtx.Done():
	}

	r.e.state.CompareAndSwap(int32(StateRunning), int32(StateDraining))
	r.e.logInfo(ctx, logMsgDraining, logAttrCause, context.Cause(stopCtx).Error())

	if r.e.cfg.DrainTimeout == 0 {
		return
	}

	timer := time.NewTimer(r.e.cfg.DrainTimeout)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
		r.e.logWarn(ctx, logMsgDrainTimeout)
		cancelWrites()
	}
}

func (r *run) completed(records int) {
	r.batchesDone++
	r.recordsDone += uint64(records)
	r.emit()
}

func (r *run) emit() {
	elapsed := time.Since(r.start)
	p := Progress{
		BatchesCompleted: r.batchesDone,
		RecordsCompleted: r.recordsDone,
		Elapsed:          elapsed,
		Status:           r.e.State(),
	}

	if secs := elapsed.Seconds(); secs > 0 {
		p.CurrentRate = float64(r.recordsDone) / secs
	}

	if total := r.plan.Total(); total > r.recordsDone && p.CurrentRate > 0 {
		p.EstimatedRemaining = time.Duration(float64(total-r.recordsDone) / p.CurrentRate * float64(time.Second))
	}

	select {
	case r.e.progress <- p:
	default:
	}
}

func (r *run) finish(ctx context.Context) (Summary, error) {
	closeCtx := context.WithoutCancel(ctx)

	// a failed run keeps what it has written, only output without any written record is discarded
	switch {
	case r.failure != nil && r.summary.RecordsWritten == 0:
		if err := sink.Abort(closeCtx, r.sink); err != nil {
			r.e.logError(ctx, logMsgAbortFailed, err)
		}
	case r.failure != nil:
		if err := r.sink.Close(closeCtx); err != nil {
			r.e.logError(ctx, logMsgCloseFailed, err)
		}
	default:
		if err := r.sink.Close(closeCtx); err != nil {
			r.fail(ctx, sinkError("close sink", 0, err))
		}
	}

	r.summary.PeakResidentRecords = r.peak.Load()
	r.summary.Duration = time.Since(r.start)
	r.summary.State = StateCompleted
	r.e.setState(StateCompleted)
	r.emit()

	r.e.logInfo(ctx, logMsgRunFinished,
		logAttrWritten, r.summary.RecordsWritten,
		logAttrSkipped, r.summary.BatchesSkipped,
		logAttrPeakResident, r.summary.PeakResidentRecords,
		logAttrCancelled, r.summary.Cancelled,
		logAttrDurationMS, r.summary.Duration.Milliseconds())

	switch {
	case r.failure != nil:
		return r.summary, r.failure
	case r.summary.Cancelled:
		return r.summary, persons.NewOpError("run", persons.KindCancelled, r.cause)
	default:
		return r.summary, nil
	}
}

// sinkError classifies errors of sinks that are not wrapped in a sink.Writer.
func sinkError(op string, sequence uint64, err error) error {
	if persons.KindOf(err) != "" {
		return err
	}

	classified := sink.Classify(op, err)

	var opErr *persons.OpError
	if errors.As(classified, &opErr) {
		opErr.Batch = sequence
	}

	return classified
}

func (e *Engine) logInfo(ctx context.Context, msg string, args ...any) {
	if e.contextualLogger != nil {
		e.contextualLogger.InfoContext(ctx, msg, args...)
		return
	}

	if e.logger != nil {
		e.logger.Info(msg, args...)
	}
}

func (e *Engine) logWarn(ctx context.Context, msg string, args ...any) {
	if e.contextualLogger != nil {
		e.contextualLogger.WarnContext(ctx, msg, args...)
		return
	}

	if e.logger != nil {
		e.logger.Warn(msg, args...)
	}
}

func (e *Engine) logError(ctx context.Context, msg string, err error, args ...any) {
	allArgs := append([]any{logAttrError, err.Error(), logAttrErrorKind, string(persons.KindOf(err))}, args...)

	if e.contextualLogger != nil {
		e.contextualLogger.ErrorContext(ctx, msg, allArgs...)
		return
	}

	if e.logger != nil {
		e.logger.Error(msg, allArgs...)
	}
}
