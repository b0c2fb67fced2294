package persons

import (
	"context"
	"time"
)

// Logger interface for operational logging, warnings and error reporting.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// ContextualLogger interface for context-aware logging with automatic trace correlation.
// It follows the same dependency-free pattern as MetricsCollector, so any backend
// (OpenTelemetry, plain slog) can be plugged in by implementing it.
type ContextualLogger interface {
	DebugContext(ctx context.Context, msg string, args ...any)
	InfoContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}

// MetricsCollector interface for collecting generation and delivery metrics.
type MetricsCollector interface {
	RecordDuration(metric string, duration time.Duration, labels map[string]string)
	IncrementCounter(metric string, labels map[string]string)
	RecordValue(metric string, value float64, labels map[string]string)
}

// ContextualMetricsCollector extends MetricsCollector with context-aware methods.
// This interface is optional: components use the context-aware methods when available and
// fall back to the base MetricsCollector otherwise.
type ContextualMetricsCollector interface {
	MetricsCollector
	RecordDurationContext(ctx context.Context, metric string, duration time.Duration, labels map[string]string)
	IncrementCounterContext(ctx context.Context, metric string, labels map[string]string)
	RecordValueContext(ctx context.Context, metric string, value float64, labels map[string]string)
}

// SpanContext represents an active tracing span that can be finished and updated with attributes.
type SpanContext interface {
	SetStatus(status string)
	AddAttribute(key, value string)
}

// TracingCollector interface for collecting distributed tracing information from sink writes.
type TracingCollector interface {
	StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, SpanContext)
	FinishSpan(spanCtx SpanContext, status string, attrs map[string]string)
}

// Metric names shared by the engine and the sinks.
const (
	MetricBatchGenerationDuration = "persons_batch_generation_duration_seconds"
	MetricRecordsGenerated        = "persons_records_generated_total"
	MetricDefectsInjected         = "persons_defects_injected_total"
	MetricInFlightBatches         = "persons_inflight_batches"
	MetricSinkWriteDuration       = "persons_sink_write_duration_seconds"
	MetricSinkRetries             = "persons_sink_retries_total"
	MetricSinkRetryDelay          = "persons_sink_retry_delay_seconds"
	MetricSinkMaxRetriesReached   = "persons_sink_max_retries_reached_total"
	MetricSinkBatchesFailed       = "persons_sink_batches_failed_total"
	MetricSinkBatchesSkipped      = "persons_sink_batches_skipped_total"
	MetricSinkRowsInserted        = "persons_sink_rows_inserted"
	MetricSinkDuplicatesSkipped   = "persons_sink_duplicates_skipped"
	MetricSinkRecordsPublished    = "persons_sink_records_published_total"
)

// Status values used for span and metric labels.
const (
	StatusSuccess   = "success"
	StatusError     = "error"
	StatusCancelled = "cancelled"
	StatusSkipped   = "skipped"
)

// RecordDurationMetric records a duration, using the context-aware method when available.
func RecordDurationMetric(ctx context.Context, collector MetricsCollector, metric string, d time.Duration, labels map[string]string) {
	if collector == nil {
		return
	}

	if contextual, ok := collector.(ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(ctx, metric, d, labels)
		return
	}

	collector.RecordDuration(metric, d, labels)
}

// IncrementCounterMetric increments a counter, using the context-aware method when available.
func IncrementCounterMetric(ctx context.Context, collector MetricsCollector, metric string, labels map[string]string) {
	if collector == nil {
		return
	}

	if contextual, ok := collector.(ContextualMetricsCollector); ok {
		contextual.IncrementCounterContext(ctx, metric, labels)
		return
	}

	collector.IncrementCounter(metric, labels)
}

// RecordValueMetric records a gauge value, using the context-aware method when available.
func RecordValueMetric(ctx context.Context, collector MetricsCollector, metric string, value float64, labels map[string]string) {
	if collector == nil {
		return
	}

	if contextual, ok := collector.(ContextualMetricsCollector); ok {
		contextual.RecordValueContext(ctx, metric, value, labels)
		return
	}

	collector.RecordValue(metric, value, labels)
}
