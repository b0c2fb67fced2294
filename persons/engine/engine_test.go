package engine_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/synthetic-persons-go/persons"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/engine"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/sink"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/sink/filesink"
	"github.com/AntonStoeckl/synthetic-persons-go/testutil/helper"
)

func config(t *testing.T, options ...persons.ConfigOption) persons.GenerationConfig {
	t.Helper()

	cfg, err := persons.NewGenerationConfig(options...)
	require.NoError(t, err, "error in arranging test data")

	return cfg
}

func newEngine(t *testing.T, cfg persons.GenerationConfig, options ...engine.Option) *engine.Engine {
	t.Helper()

	e, err := engine.New(cfg, options...)
	require.NoError(t, err, "error in arranging test data")

	return e
}

func errWriteRejected() error {
	return persons.NewOpError("insert persons", persons.KindSinkFatal, errors.New("unique violation"))
}

func Test_Engine_Run_When_WorkerCountsDiffer(t *testing.T) {
	// arrange
	runWith := func(workers int) []persons.Person {
		cfg := config(t,
			persons.WithRecordCount(400),
			persons.WithBatchSize(17),
			persons.WithSeed(7),
			persons.WithWorkers(workers),
			persons.WithQualityProfileName(persons.ProfileExtreme),
		)
		spy := helper.NewSinkSpy()

		_, err := newEngine(t, cfg).Run(context.Background(), spy)
		require.NoError(t, err)

		return spy.Records()
	}

	// act
	single := runWith(1)
	parallel := runWith(8)

	// assert
	require.Len(t, single, 400)
	assert.Equal(t, single, parallel)
	for i, p := range parallel {
		assert.Equal(t, uint64(i), p.Index)
	}
}

func Test_Engine_Run_When_TheSinkIsSlowerThanTheWorkers(t *testing.T) {
	// arrange
	cfg := config(t,
		persons.WithRecordCount(300),
		persons.WithBatchSize(10),
		persons.WithWorkers(8),
		persons.WithMaxInFlightBatches(2),
	)
	metrics := helper.NewMetricsCollectorSpy()
	spy := helper.NewSinkSpy().Delaying(2 * time.Millisecond)

	// act
	summary, err := newEngine(t, cfg, engine.WithMetrics(metrics)).Run(context.Background(), spy)

	// assert
	require.NoError(t, err)
	assert.Equal(t, uint64(300), summary.RecordsWritten)
	assert.Positive(t, summary.PeakResidentRecords)
	assert.LessOrEqual(t, summary.PeakResidentRecords, int64(2*10))
	assert.LessOrEqual(t, metrics.MaxValue(persons.MetricInFlightBatches), float64(2))
}

func Test_Engine_Run_When_ProfileIsExtreme(t *testing.T) {
	// arrange
	cfg := config(t,
		persons.WithRecordCount(5),
		persons.WithSeed(1),
		persons.WithQualityProfileName(persons.ProfileExtreme),
	)
	spy := helper.NewSinkSpy()

	// act
	summary, err := newEngine(t, cfg).Run(context.Background(), spy)

	// assert
	require.NoError(t, err)
	assert.Len(t, spy.Records(), 5)
	assert.Positive(t, summary.Defects[persons.DefectMissing]+summary.Defects[persons.DefectPartial])
	assert.Positive(t, summary.Defects[persons.DefectFormat])
}

func Test_Engine_Run_When_DuplicatesAreInjected(t *testing.T) {
	// arrange
	cfg := config(t,
		persons.WithRecordCount(2000),
		persons.WithBatchSize(100),
		persons.WithQualityProfileName(persons.ProfileExtreme),
	)
	spy := helper.NewSinkSpy()

	// act
	summary, err := newEngine(t, cfg).Run(context.Background(), spy)

	// assert
	require.NoError(t, err)
	assert.Positive(t, summary.Duplicates)

	ids := make(map[string]struct{})
	for _, p := range spy.Records() {
		ids[p.ID.String()] = struct{}{}
	}
	assert.Len(t, ids, 2000)
}

func Test_Engine_Run_When_MetricsAreCollected(t *testing.T) {
	// arrange
	cfg := config(t, persons.WithRecordCount(120), persons.WithBatchSize(40))
	metrics := helper.NewMetricsCollectorSpy()

	// act
	summary, err := newEngine(t, cfg, engine.WithMetrics(metrics)).Run(context.Background(), helper.NewSinkSpy())

	// assert
	require.NoError(t, err)
	assert.Equal(t, 120, metrics.CounterCount(persons.MetricRecordsGenerated, nil))

	var defects uint64
	for _, n := range summary.Defects {
		defects += n
	}
	assert.Equal(t, int(defects), metrics.CounterCount(persons.MetricDefectsInjected, nil))
	assert.True(t, metrics.HasDurationRecord(persons.MetricBatchGenerationDuration, map[string]string{"status": persons.StatusSuccess}))
}

func Test_Engine_Run_When_ABatchFailsAndSkippingIsEnabled(t *testing.T) {
	// arrange
	cfg := config(t,
		persons.WithRecordCount(100),
		persons.WithBatchSize(10),
		persons.WithSkipFailedBatches(),
	)
	logger := helper.NewLoggerSpy()
	metrics := helper.NewMetricsCollectorSpy()
	spy := helper.NewSinkSpy().FailingWith(func(batch persons.Batch, _ int) error {
		if batch.Sequence == 3 {
			return errWriteRejected()
		}
		return nil
	})

	// act
	summary, err := newEngine(t, cfg, engine.WithLogger(logger), engine.WithMetrics(metrics)).Run(context.Background(), spy)

	// assert
	require.NoError(t, err)
	assert.Equal(t, uint64(1), summary.BatchesSkipped)
	assert.Equal(t, uint64(9), summary.BatchesWritten)
	assert.Equal(t, uint64(90), summary.RecordsWritten)
	assert.Equal(t, uint64(100), summary.RecordsGenerated)
	assert.Zero(t, summary.BatchesFailed)
	assert.False(t, summary.Failed)
	assert.True(t, persons.IsKind(summary.FirstError, persons.KindSinkFatal))
	assert.True(t, spy.Closed())
	assert.True(t, logger.HasRecord("warn", "batch skipped after sink failure"))
	assert.Equal(t, 1, metrics.CounterCount(persons.MetricSinkBatchesSkipped, nil))
}

func Test_Engine_Run_When_ABatchFailsFatally(t *testing.T) {
	// arrange
	cfg := config(t,
		persons.WithRecordCount(100),
		persons.WithBatchSize(10),
		persons.WithWorkers(4),
	)
	spy := helper.NewSinkSpy().FailingWith(func(batch persons.Batch, _ int) error {
		if batch.Sequence == 2 {
			return errors.New("disk full")
		}
		return nil
	})
	e := newEngine(t, cfg)

	// act
	summary, err := e.Run(context.Background(), spy)

	// assert
	require.Error(t, err)
	assert.True(t, persons.IsKind(err, persons.KindSinkFatal))

	var opErr *persons.OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, uint64(2), opErr.Batch)

	assert.True(t, summary.Failed)
	assert.Equal(t, uint64(2), summary.BatchesWritten)
	assert.Equal(t, uint64(20), summary.RecordsWritten)
	assert.Equal(t, uint64(1), summary.BatchesFailed)
	assert.Equal(t, engine.StateCompleted, summary.State)
	assert.Equal(t, engine.StateCompleted, e.State())
	assert.True(t, spy.Closed())
	assert.False(t, spy.Aborted())
}

func Test_Engine_Run_When_TheFirstBatchFailsFatally_ItAbortsTheSinkOutput(t *testing.T) {
	// arrange
	cfg := config(t,
		persons.WithRecordCount(50),
		persons.WithBatchSize(10),
	)
	spy := helper.NewSinkSpy().FailingWith(func(batch persons.Batch, _ int) error {
		if batch.Sequence == 0 {
			return errWriteRejected()
		}
		return nil
	})

	// act
	summary, err := newEngine(t, cfg).Run(context.Background(), spy)

	// assert
	require.Error(t, err)
	assert.Zero(t, summary.RecordsWritten)
	assert.True(t, spy.Aborted())
	assert.False(t, spy.Closed())
}

// failingAt wraps a sink and rejects the batch with the given sequence.
type failingAt struct {
	sink.Sink
	sequence uint64
}

func (f failingAt) Write(ctx context.Context, batch persons.Batch) error {
	if batch.Sequence == f.sequence {
		return errWriteRejected()
	}

	return f.Sink.Write(ctx, batch)
}

func Test_Engine_Run_When_AFileTargetFailsFatally_TheWrittenBatchesArePublished(t *testing.T) {
	// arrange
	path := filepath.Join(t.TempDir(), "out.jsonl")
	cfg := config(t,
		persons.WithRecordCount(100),
		persons.WithBatchSize(10),
		persons.WithWorkers(3),
	)
	fileSink, err := filesink.New(path, sink.FormatJSONL)
	require.NoError(t, err, "error in arranging test data")
	writer, err := sink.NewWriter(failingAt{Sink: fileSink, sequence: 5})
	require.NoError(t, err, "error in arranging test data")

	// act
	summary, err := newEngine(t, cfg).Run(context.Background(), writer)

	// assert
	require.Error(t, err)
	assert.True(t, persons.IsKind(err, persons.KindSinkFatal))
	assert.Equal(t, uint64(5), summary.BatchesWritten)
	assert.Equal(t, uint64(50), summary.RecordsWritten)

	content, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, 50, strings.Count(string(content), "\n"))

	leftovers, globErr := filepath.Glob(filepath.Join(filepath.Dir(path), ".*.tmp"))
	require.NoError(t, globErr)
	assert.Empty(t, leftovers)
}

func Test_Engine_Run_When_TheSinkCannotBeOpened(t *testing.T) {
	// arrange
	cfg := config(t, persons.WithRecordCount(10))
	spy := helper.NewSinkSpy().FailingOpen(errors.New("permission denied"))

	// act
	summary, err := newEngine(t, cfg).Run(context.Background(), spy)

	// assert
	assert.True(t, persons.IsKind(err, persons.KindSinkFatal))
	assert.Zero(t, summary.RecordsGenerated)
	assert.Zero(t, spy.WriteCalls())
}

func Test_Engine_Run_When_AStreamIsCancelled(t *testing.T) {
	// arrange
	cfg := config(t,
		persons.WithStream(100),
		persons.WithBatchSize(5),
		persons.WithQualityProfileName(persons.ProfileClean),
	)
	e := newEngine(t, cfg)
	spy := helper.NewSinkSpy()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		for p := range e.Progress() {
			if p.BatchesCompleted >= 3 {
				cancel()
			}
		}
	}()

	// act
	summary, err := e.Run(ctx, spy)

	// assert
	assert.True(t, persons.IsKind(err, persons.KindCancelled))
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, summary.Cancelled)
	assert.False(t, summary.Failed)
	assert.GreaterOrEqual(t, summary.BatchesWritten, uint64(3))
	assert.Equal(t, summary.BatchesWritten*5, summary.RecordsWritten)
	assert.Len(t, spy.Records(), int(summary.RecordsWritten))
	assert.True(t, spy.Closed())
}

func Test_Engine_Run_When_AStreamHasALimit(t *testing.T) {
	// arrange
	cfg := config(t,
		persons.WithStream(200),
		persons.WithStreamLimit(50),
		persons.WithBatchSize(10),
	)
	spy := helper.NewSinkSpy()

	// act
	start := time.Now()
	summary, err := newEngine(t, cfg).Run(context.Background(), spy)

	// assert
	require.NoError(t, err)
	assert.Equal(t, uint64(5), summary.BatchesWritten)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	for i, b := range spy.Batches() {
		assert.Equal(t, uint64(i), b.Sequence)
	}
}

func Test_Engine_Run_When_TheRunDeadlineIsReached(t *testing.T) {
	// arrange
	cfg := config(t,
		persons.WithStream(20),
		persons.WithBatchSize(2),
		persons.WithRunDeadline(120*time.Millisecond),
	)

	// act
	summary, err := newEngine(t, cfg).Run(context.Background(), helper.NewSinkSpy())

	// assert
	assert.True(t, persons.IsKind(err, persons.KindCancelled))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, summary.Cancelled)
	assert.Positive(t, summary.BatchesWritten)
}

func Test_Engine_Run_When_DrainingTakesLongerThanTheDrainTimeout(t *testing.T) {
	// arrange
	cfg := config(t,
		persons.WithRecordCount(100),
		persons.WithBatchSize(10),
		persons.WithDrainTimeout(50*time.Millisecond),
	)
	spy := helper.NewSinkSpy().Delaying(5 * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// act
	start := time.Now()
	summary, err := newEngine(t, cfg).Run(ctx, spy)

	// assert
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, summary.Failed)
	assert.Zero(t, summary.RecordsWritten)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func Test_Engine_Run_When_ProgressIsConsumed(t *testing.T) {
	// arrange
	cfg := config(t, persons.WithRecordCount(100), persons.WithBatchSize(10))
	e := newEngine(t, cfg, engine.WithProgressBuffer(100))
	assert.Equal(t, engine.StatePlanning, e.State())

	// act
	_, err := e.Run(context.Background(), helper.NewSinkSpy())

	// assert
	require.NoError(t, err)

	var events []engine.Progress
	for p := range e.Progress() {
		events = append(events, p)
	}

	require.Len(t, events, 11)
	for i := 1; i < len(events); i++ {
		assert.GreaterOrEqual(t, events[i].RecordsCompleted, events[i-1].RecordsCompleted)
	}

	last := events[len(events)-1]
	assert.Equal(t, uint64(100), last.RecordsCompleted)
	assert.Equal(t, uint64(10), last.BatchesCompleted)
	assert.Equal(t, engine.StateCompleted, last.Status)
	assert.Zero(t, last.EstimatedRemaining)
	assert.Equal(t, engine.StateCompleted, e.State())
}

func Test_Engine_Run_When_CalledTwice(t *testing.T) {
	// arrange
	e := newEngine(t, config(t, persons.WithRecordCount(1)))
	_, err := e.Run(context.Background(), helper.NewSinkSpy())
	require.NoError(t, err)

	// act
	_, err = e.Run(context.Background(), helper.NewSinkSpy())

	// assert
	assert.ErrorIs(t, err, engine.ErrAlreadyStarted)
	assert.True(t, persons.IsKind(err, persons.KindConfig))
}

func Test_Engine_Run_When_NothingIsPlanned(t *testing.T) {
	// arrange
	spy := helper.NewSinkSpy()

	// act
	summary, err := newEngine(t, config(t, persons.WithRecordCount(0))).Run(context.Background(), spy)

	// assert
	require.NoError(t, err)
	assert.Zero(t, summary.RecordsWritten)
	assert.True(t, spy.Opened())
	assert.True(t, spy.Closed())
}

func Test_New_When_OptionsAreInvalid(t *testing.T) {
	// act
	_, bufferErr := engine.New(config(t), engine.WithProgressBuffer(-1))
	_, refErr := engine.New(config(t), engine.WithReferenceData(nil))

	// assert
	assert.ErrorIs(t, bufferErr, engine.ErrNegativeProgressBuffer)
	assert.True(t, persons.IsKind(bufferErr, persons.KindConfig))
	assert.True(t, persons.IsKind(refErr, persons.KindConfig))
}
