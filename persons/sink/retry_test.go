package sink_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/synthetic-persons-go/persons"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/sink"
	"github.com/AntonStoeckl/synthetic-persons-go/testutil/helper"
)

func transientErr() error {
	return persons.NewOpError("write", persons.KindSinkTransient, errors.New("connection reset"))
}

func fatalErr() error {
	return persons.NewOpError("write", persons.KindSinkFatal, errors.New("constraint violation"))
}

func Test_RetryWithExponentialBackoff_When_FirstAttemptSucceeds(t *testing.T) {
	// arrange
	calls := 0
	fn := func(context.Context) error {
		calls++
		return nil
	}

	// act
	err := sink.RetryWithExponentialBackoff(context.Background(), fn)

	// assert
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func Test_RetryWithExponentialBackoff_When_TransientFailuresRecover(t *testing.T) {
	// arrange
	metrics := helper.NewMetricsCollectorSpy()
	calls := 0
	fn := func(context.Context) error {
		calls++
		if calls < 3 {
			return transientErr()
		}
		return nil
	}

	// act
	err := sink.RetryWithExponentialBackoff(context.Background(), fn,
		sink.WithBaseDelay(time.Millisecond),
		sink.WithRetryMetrics(metrics, "spy"),
	)

	// assert
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, metrics.CounterCount(persons.MetricSinkRetries, map[string]string{"sink": "spy"}))
	assert.True(t, metrics.HasDurationRecord(persons.MetricSinkRetryDelay, map[string]string{"attempt_number": "2"}))
	assert.Zero(t, metrics.CounterCount(persons.MetricSinkMaxRetriesReached, nil))
}

func Test_RetryWithExponentialBackoff_When_FailureIsFatal(t *testing.T) {
	// arrange
	calls := 0
	fn := func(context.Context) error {
		calls++
		return fatalErr()
	}

	// act
	err := sink.RetryWithExponentialBackoff(context.Background(), fn, sink.WithBaseDelay(time.Millisecond))

	// assert
	assert.True(t, persons.IsKind(err, persons.KindSinkFatal))
	assert.Equal(t, 1, calls)
}

func Test_RetryWithExponentialBackoff_When_AttemptsAreExhausted(t *testing.T) {
	// arrange
	metrics := helper.NewMetricsCollectorSpy()
	calls := 0
	fn := func(context.Context) error {
		calls++
		return transientErr()
	}

	// act
	err := sink.RetryWithExponentialBackoff(context.Background(), fn,
		sink.WithMaxAttempts(3),
		sink.WithBaseDelay(time.Millisecond),
		sink.WithJitterFactor(0),
		sink.WithRetryMetrics(metrics, "spy"),
	)

	// assert
	assert.ErrorIs(t, err, persons.ErrSinkTransient)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 1, metrics.CounterCount(persons.MetricSinkMaxRetriesReached, map[string]string{"final_error_type": sink.ErrorTypeTransient}))
}

func Test_RetryWithExponentialBackoff_When_ContextIsCancelledDuringBackoff(t *testing.T) {
	// arrange
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	fn := func(context.Context) error {
		calls++
		cancel()
		return transientErr()
	}

	// act
	start := time.Now()
	err := sink.RetryWithExponentialBackoff(ctx, fn, sink.WithBaseDelay(time.Hour))

	// assert
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, persons.ErrSinkTransient)
	assert.Equal(t, 1, calls)
	assert.Less(t, time.Since(start), time.Second)
}

func Test_RetryWithExponentialBackoff_When_OptionsAreInvalid(t *testing.T) {
	testCases := []struct {
		name    string
		option  sink.RetryOption
		wantErr error
	}{
		{name: "zero max attempts", option: sink.WithMaxAttempts(0), wantErr: sink.ErrInvalidMaxAttempts},
		{name: "negative base delay", option: sink.WithBaseDelay(-time.Millisecond), wantErr: sink.ErrNegativeBaseDelay},
		{name: "jitter above one", option: sink.WithJitterFactor(1.5), wantErr: sink.ErrInvalidJitterFactor},
		{name: "nil metrics collector", option: sink.WithRetryMetrics(nil, "spy"), wantErr: sink.ErrNilMetricsCollector},
		{name: "empty sink name", option: sink.WithRetryMetrics(helper.NewMetricsCollectorSpy(), ""), wantErr: sink.ErrEmptySinkName},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			calls := 0
			fn := func(context.Context) error {
				calls++
				return nil
			}

			// act
			err := sink.RetryWithExponentialBackoff(context.Background(), fn, tc.option)

			// assert
			require.ErrorIs(t, err, tc.wantErr)
			assert.Zero(t, calls)
		})
	}
}
