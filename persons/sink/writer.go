package sink

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/AntonStoeckl/synthetic-persons-go/persons"
)

const defaultPerAttemptTimeout = 30 * time.Second

const spanNameWrite = "sink.write"

const (
	logMsgOpenFailed    = "sink open failed"
	logMsgWriteFailed   = "sink write failed"
	logMsgChunkWritten  = "chunk written"
	logMsgCloseFailed   = "sink close failed"
	logMsgAborted       = "sink output aborted"
	logMsgPanic         = "sink panicked during write"
	logAttrError        = "error"
	logAttrSink         = "sink"
	logAttrBatch        = "batch_sequence"
	logAttrRecordCount  = "record_count"
	logAttrFirstIndex   = "first_index"
	logAttrDurationMS   = "duration_ms"
	logAttrErrorType    = "error_type"
	spanAttrSink        = "sink.name"
	spanAttrBatch       = "batch.sequence"
	spanAttrRecordCount = "batch.record_count"
	spanAttrErrorType   = "error.type"
	spanAttrDurationMS  = "duration_ms"
)

// ErrSinkPanicked is returned when the wrapped sink panics during a write.
var ErrSinkPanicked = errors.New("sink panicked")

// PartialWriteError reports that a batch was written in chunks and a later chunk failed.
// Written records stay persisted.
type PartialWriteError struct {
	Written int
	Err     error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("partial write after %d records: %v", e.Written, e.Err)
}

func (e *PartialWriteError) Unwrap() error {
	return e.Err
}

// Writer wraps a Sink with per-attempt timeouts, retries of transient failures,
// re-chunking of batches and observability. It is itself a Sink.
type Writer struct {
	sink              Sink
	name              string
	perAttemptTimeout time.Duration
	writeBatchSize    int
	retryOptions      []RetryOption
	logger            persons.Logger
	contextualLogger  persons.ContextualLogger
	metricsCollector  persons.MetricsCollector
	tracingCollector  persons.TracingCollector
}

// Option defines a functional option for configuring a Writer.
type Option func(*Writer) error

// NewWriter wraps s. Without options, attempts time out after 30 seconds, transient failures are
// retried with the default backoff and batches are written as generated.
func NewWriter(s Sink, options ...Option) (*Writer, error) {
	if s == nil {
		return nil, persons.NewOpError("build sink writer", persons.KindConfig, ErrNilSink)
	}

	w := &Writer{
		sink:              s,
		name:              fmt.Sprintf("%T", s),
		perAttemptTimeout: defaultPerAttemptTimeout,
	}

	for _, option := range options {
		if err := option(w); err != nil {
			return nil, persons.NewOpError("build sink writer", persons.KindConfig, err)
		}
	}

	return w, nil
}

// WithName sets the sink name used in logs, metric labels and spans.
func WithName(name string) Option {
	return func(w *Writer) error {
		if name == "" {
			return ErrEmptySinkName
		}

		w.name = name

		return nil
	}
}

// WithPerAttemptTimeout bounds every single write attempt.
func WithPerAttemptTimeout(d time.Duration) Option {
	return func(w *Writer) error {
		if d <= 0 {
			return ErrNonPositiveTimeout
		}

		w.perAttemptTimeout = d

		return nil
	}
}

// WithWriteBatchSize splits generated batches into chunks of at most size records.
// Each chunk is written and retried on its own. 0 writes batches unsplit.
func WithWriteBatchSize(size int) Option {
	return func(w *Writer) error {
		if size < 0 {
			return ErrInvalidWriteBatchSize
		}

		w.writeBatchSize = size

		return nil
	}
}

// WithRetryOptions tunes the retry schedule.
func WithRetryOptions(options ...RetryOption) Option {
	return func(w *Writer) error {
		w.retryOptions = append(w.retryOptions, options...)
		return nil
	}
}

// WithLogger sets the logger for the Writer.
// Debug level: chunk timings. Error level: failed writes after all retries.
func WithLogger(logger persons.Logger) Option {
	return func(w *Writer) error {
		w.logger = logger
		return nil
	}
}

// WithContextualLogger sets a context-aware logger. It takes precedence over WithLogger.
func WithContextualLogger(logger persons.ContextualLogger) Option {
	return func(w *Writer) error {
		w.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector. Retries are reported with it as well.
func WithMetrics(collector persons.MetricsCollector) Option {
	return func(w *Writer) error {
		w.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector. Every write attempt gets its own span.
func WithTracing(collector persons.TracingCollector) Option {
	return func(w *Writer) error {
		w.tracingCollector = collector
		return nil
	}
}

// Name returns the sink name.
func (w *Writer) Name() string {
	return w.name
}

// Open opens the wrapped sink, retrying transient failures.
func (w *Writer) Open(ctx context.Context) error {
	err := RetryWithExponentialBackoff(ctx, func(ctx context.Context) error {
		return Classify("open sink", w.sink.Open(ctx))
	}, w.retryOptionsWithMetrics()...)
	if err != nil {
		w.logError(ctx, logMsgOpenFailed, err)
		return Classify("open sink", err)
	}

	return nil
}

// Write writes the batch chunk by chunk. Every chunk is retried on transient failures.
// A failure after at least one persisted chunk is reported as *PartialWriteError.
func (w *Writer) Write(ctx context.Context, batch persons.Batch) error {
	written := 0

	for _, chunk := range w.chunks(batch) {
		if err := w.writeChunk(ctx, chunk); err != nil {
			w.logError(ctx, logMsgWriteFailed, err,
				logAttrBatch, batch.Sequence,
				logAttrFirstIndex, chunk.FirstIndex(),
				logAttrRecordCount, chunk.Len())

			kind := persons.KindOf(err)
			if kind == "" {
				kind = persons.KindSinkFatal
			}

			opErr := &persons.OpError{Op: "write batch", Kind: kind, Index: persons.NoIndex, Batch: batch.Sequence, Err: err}
			if written > 0 {
				return &PartialWriteError{Written: written, Err: opErr}
			}

			return opErr
		}

		written += chunk.Len()
	}

	return nil
}

// Close closes the wrapped sink.
func (w *Writer) Close(ctx context.Context) error {
	if err := w.sink.Close(ctx); err != nil {
		w.logError(ctx, logMsgCloseFailed, err)
		return Classify("close sink", err)
	}

	return nil
}

// Abort discards the output of the wrapped sink if it supports it and closes it otherwise.
func (w *Writer) Abort(ctx context.Context) error {
	err := Abort(ctx, w.sink)
	w.logInfo(ctx, logMsgAborted, logAttrSink, w.name)

	return Classify("abort sink", err)
}

func (w *Writer) chunks(batch persons.Batch) []persons.Batch {
	if w.writeBatchSize == 0 || batch.Len() <= w.writeBatchSize {
		return []persons.Batch{batch}
	}

	chunks := make([]persons.Batch, 0, (batch.Len()+w.writeBatchSize-1)/w.writeBatchSize)
	for start := 0; start < batch.Len(); start += w.writeBatchSize {
		end := min(start+w.writeBatchSize, batch.Len())
		chunk := batch
		chunk.Records = batch.Records[start:end]
		chunks = append(chunks, chunk)
	}

	return chunks
}

func (w *Writer) writeChunk(ctx context.Context, chunk persons.Batch) error {
	return RetryWithExponentialBackoff(ctx, func(ctx context.Context) error {
		return w.attempt(ctx, chunk)
	}, w.retryOptionsWithMetrics()...)
}

func (w *Writer) attempt(ctx context.Context, chunk persons.Batch) (err error) {
	attemptCtx, cancel := context.WithTimeout(ctx, w.perAttemptTimeout)
	defer cancel()

	spanCtx, span := w.startSpan(attemptCtx, chunk)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			w.logError(ctx, logMsgPanic, fmt.Errorf("%v", r), logAttrBatch, chunk.Sequence)
			err = persons.NewOpError("write batch", persons.KindSinkFatal, errors.Join(ErrSinkPanicked, fmt.Errorf("%v", r)))
		}

		duration := time.Since(start)
		w.finish(ctx, span, chunk, duration, err)
	}()

	return Classify("write batch", w.sink.Write(spanCtx, chunk))
}

func (w *Writer) retryOptionsWithMetrics() []RetryOption {
	if w.metricsCollector == nil {
		return w.retryOptions
	}

	return append([]RetryOption{WithRetryMetrics(w.metricsCollector, w.name)}, w.retryOptions...)
}

func (w *Writer) startSpan(ctx context.Context, chunk persons.Batch) (context.Context, persons.SpanContext) {
	if w.tracingCollector == nil {
		return ctx, nil
	}

	return w.tracingCollector.StartSpan(ctx, spanNameWrite, map[string]string{
		spanAttrSink:        w.name,
		spanAttrBatch:       strconv.FormatUint(chunk.Sequence, 10),
		spanAttrRecordCount: strconv.Itoa(chunk.Len()),
	})
}

func (w *Writer) finish(ctx context.Context, span persons.SpanContext, chunk persons.Batch, duration time.Duration, err error) {
	status := persons.StatusSuccess
	attrs := map[string]string{spanAttrDurationMS: strconv.FormatFloat(toMilliseconds(duration), 'f', 3, 64)}

	if err != nil {
		status = persons.StatusError
		attrs[spanAttrErrorType] = ErrorType(err)
	}

	if w.tracingCollector != nil && span != nil {
		w.tracingCollector.FinishSpan(span, status, attrs)
	}

	persons.RecordDurationMetric(ctx, w.metricsCollector, persons.MetricSinkWriteDuration, duration, map[string]string{
		labelSink:   w.name,
		labelStatus: status,
	})

	if err == nil {
		w.logDebug(ctx, logMsgChunkWritten,
			logAttrSink, w.name,
			logAttrBatch, chunk.Sequence,
			logAttrRecordCount, chunk.Len(),
			logAttrDurationMS, toMilliseconds(duration))
	}
}

func (w *Writer) logDebug(ctx context.Context, msg string, args ...any) {
	if w.contextualLogger != nil {
		w.contextualLogger.DebugContext(ctx, msg, args...)
		return
	}

	if w.logger != nil {
		w.logger.Debug(msg, args...)
	}
}

func (w *Writer) logInfo(ctx context.Context, msg string, args ...any) {
	if w.contextualLogger != nil {
		w.contextualLogger.InfoContext(ctx, msg, args...)
		return
	}

	if w.logger != nil {
		w.logger.Info(msg, args...)
	}
}

func (w *Writer) logError(ctx context.Context, msg string, err error, args ...any) {
	allArgs := append([]any{logAttrError, err.Error(), logAttrErrorType, ErrorType(err), logAttrSink, w.name}, args...)

	if w.contextualLogger != nil {
		w.contextualLogger.ErrorContext(ctx, msg, allArgs...)
		return
	}

	if w.logger != nil {
		w.logger.Error(msg, allArgs...)
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

var _ Sink = (*Writer)(nil)
var _ Aborter = (*Writer)(nil)
