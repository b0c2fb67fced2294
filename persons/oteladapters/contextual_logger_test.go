package oteladapters_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/embedded"

	"github.com/AntonStoeckl/synthetic-persons-go/persons/oteladapters"
)

type otelLoggerFake struct {
	embedded.Logger
	records []log.Record
}

func (f *otelLoggerFake) Emit(_ context.Context, record log.Record) {
	f.records = append(f.records, record)
}

func (f *otelLoggerFake) Enabled(context.Context, log.EnabledParameters) bool {
	return true
}

func Test_SlogBridgeLogger_When_LoggingAllLevels(t *testing.T) {
	// arrange
	var buf bytes.Buffer
	logger := oteladapters.NewSlogBridgeLoggerWithHandler(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := context.Background()

	// act
	logger.DebugContext(ctx, "chunk written", "batch_sequence", 3)
	logger.InfoContext(ctx, "run finished", "records", 1000)
	logger.WarnContext(ctx, "batch skipped", "batch_sequence", 4)
	logger.ErrorContext(ctx, "run failed", "error", "boom")

	// assert
	output := buf.String()
	assert.Contains(t, output, `"level":"DEBUG","msg":"chunk written","batch_sequence":3`)
	assert.Contains(t, output, `"level":"INFO","msg":"run finished","records":1000`)
	assert.Contains(t, output, `"level":"WARN","msg":"batch skipped"`)
	assert.Contains(t, output, `"level":"ERROR","msg":"run failed","error":"boom"`)
}

func Test_SlogBridgeLogger_When_UsingTheGlobalProvider(t *testing.T) {
	// arrange
	logger := oteladapters.NewSlogBridgeLogger("synthetic-persons")

	// act & assert
	assert.NotPanics(t, func() {
		logger.InfoContext(context.Background(), "run started", "workers", 4)
	})
}

func Test_OTelLogger_When_EmittingRecords(t *testing.T) {
	// arrange
	fake := &otelLoggerFake{}
	logger := oteladapters.NewOTelLogger(fake)

	// act
	logger.WarnContext(context.Background(), "batch skipped",
		"batch_sequence", uint64(7),
		"error", errors.New("deadlock"),
		"rate", 12.5,
		"dangling")

	// assert
	require.Len(t, fake.records, 1)
	record := fake.records[0]
	assert.Equal(t, log.SeverityWarn, record.Severity())
	assert.Equal(t, "WARN", record.SeverityText())
	assert.Equal(t, "batch skipped", record.Body().AsString())

	attrs := map[string]log.Value{}
	record.WalkAttributes(func(kv log.KeyValue) bool {
		attrs[kv.Key] = kv.Value
		return true
	})

	assert.Len(t, attrs, 3)
	assert.Equal(t, int64(7), attrs["batch_sequence"].AsInt64())
	assert.Equal(t, "deadlock", attrs["error"].AsString())
	assert.InDelta(t, 12.5, attrs["rate"].AsFloat64(), 0.0001)
}
