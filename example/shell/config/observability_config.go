package config

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const shutdownTimeout = 5 * time.Second

// ObservabilityProviders holds the in-process OpenTelemetry providers of a generate run.
type ObservabilityProviders struct {
	TracerProvider *trace.TracerProvider
	MeterProvider  *metric.MeterProvider
	Resource       *resource.Resource

	reader *metric.ManualReader
}

// NewObservabilityProviders creates tracer and meter providers and installs them globally.
// Metrics are read on demand by Report.
func NewObservabilityProviders(ctx context.Context, serviceName, serviceVersion string) (*ObservabilityProviders, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(serviceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	reader := metric.NewManualReader()

	tracerProvider := trace.NewTracerProvider(trace.WithResource(res))
	meterProvider := metric.NewMeterProvider(metric.WithReader(reader), metric.WithResource(res))

	otel.SetTracerProvider(tracerProvider)
	otel.SetMeterProvider(meterProvider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return &ObservabilityProviders{
		TracerProvider: tracerProvider,
		MeterProvider:  meterProvider,
		Resource:       res,
		reader:         reader,
	}, nil
}

// Report collects the current metrics and logs one line per data point.
func (p *ObservabilityProviders) Report(ctx context.Context, logger *slog.Logger) error {
	var rm metricdata.ResourceMetrics
	if err := p.reader.Collect(ctx, &rm); err != nil {
		return err
	}

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			reportMetric(ctx, logger, m)
		}
	}

	return nil
}

func reportMetric(ctx context.Context, logger *slog.Logger, m metricdata.Metrics) {
	switch data := m.Data.(type) {
	case metricdata.Sum[int64]:
		for _, dp := range data.DataPoints {
			logger.InfoContext(ctx, "metric", append(labels(dp.Attributes), "name", m.Name, "value", dp.Value)...)
		}
	case metricdata.Gauge[float64]:
		for _, dp := range data.DataPoints {
			logger.InfoContext(ctx, "metric", append(labels(dp.Attributes), "name", m.Name, "value", dp.Value)...)
		}
	case metricdata.Histogram[float64]:
		for _, dp := range data.DataPoints {
			logger.InfoContext(ctx, "metric", append(labels(dp.Attributes),
				"name", m.Name, "count", dp.Count, "sum", dp.Sum)...)
		}
	}
}

func labels(set attribute.Set) []any {
	args := make([]any, 0, set.Len()*2)
	for _, kv := range set.ToSlice() {
		args = append(args, string(kv.Key), kv.Value.Emit())
	}

	return args
}

// Shutdown flushes and stops both providers.
func (p *ObservabilityProviders) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	return errors.Join(p.TracerProvider.Shutdown(ctx), p.MeterProvider.Shutdown(ctx))
}
