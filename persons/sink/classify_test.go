package sink_test

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/synthetic-persons-go/persons"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/sink"
)

func Test_IsTransient_When_ErrorsComeFromTheDriversOrTheNetwork(t *testing.T) {
	testCases := []struct {
		name      string
		err       error
		transient bool
	}{
		{name: "pgx deadlock", err: &pgconn.PgError{Code: "40P01"}, transient: true},
		{name: "pgx serialization failure", err: &pgconn.PgError{Code: "40001"}, transient: true},
		{name: "pgx lock not available", err: &pgconn.PgError{Code: "55P03"}, transient: true},
		{name: "pgx admin shutdown", err: &pgconn.PgError{Code: "57P01"}, transient: true},
		{name: "pgx connection failure", err: &pgconn.PgError{Code: "08006"}, transient: true},
		{name: "pgx unique violation", err: &pgconn.PgError{Code: "23505"}, transient: false},
		{name: "pgx undefined table", err: &pgconn.PgError{Code: "42P01"}, transient: false},
		{name: "pq serialization failure", err: &pq.Error{Code: "40001"}, transient: true},
		{name: "pq undefined column", err: &pq.Error{Code: "42703"}, transient: false},
		{name: "wrapped connection reset", err: fmt.Errorf("insert: %w", syscall.ECONNRESET), transient: true},
		{name: "connection refused", err: syscall.ECONNREFUSED, transient: true},
		{name: "deadline exceeded", err: context.DeadlineExceeded, transient: true},
		{name: "cancelled", err: context.Canceled, transient: false},
		{name: "unknown error", err: errors.New("boom"), transient: false},
		{name: "nil", err: nil, transient: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			transient := sink.IsTransient(tc.err)

			// assert
			assert.Equal(t, tc.transient, transient)
		})
	}
}

func Test_Classify_When_ErrorIsUnclassified(t *testing.T) {
	// act
	transient := sink.Classify("write batch", &pgconn.PgError{Code: "40P01"})
	fatal := sink.Classify("write batch", &pgconn.PgError{Code: "23505"})

	// assert
	assert.True(t, persons.IsKind(transient, persons.KindSinkTransient))
	assert.ErrorIs(t, transient, persons.ErrSinkTransient)
	assert.True(t, persons.IsKind(fatal, persons.KindSinkFatal))

	var pgErr *pgconn.PgError
	assert.ErrorAs(t, fatal, &pgErr)
}

func Test_Classify_When_ErrorAlreadyCarriesASinkKind(t *testing.T) {
	// arrange
	original := persons.NewOpError("insert persons", persons.KindSinkFatal, syscall.ECONNRESET)

	// act
	classified := sink.Classify("write batch", original)

	// assert
	assert.Same(t, original, classified)
	assert.NoError(t, sink.Classify("write batch", nil))
}

func Test_ErrorType_When_ErrorsDiffer(t *testing.T) {
	assert.Equal(t, sink.ErrorTypeNone, sink.ErrorType(nil))
	assert.Equal(t, sink.ErrorTypeTimeout, sink.ErrorType(fmt.Errorf("attempt: %w", context.DeadlineExceeded)))
	assert.Equal(t, sink.ErrorTypeContextCancelled, sink.ErrorType(context.Canceled))
	assert.Equal(t, sink.ErrorTypeTransient, sink.ErrorType(&pq.Error{Code: "57P03"}))
	assert.Equal(t, sink.ErrorTypeFatal, sink.ErrorType(&pq.Error{Code: "23502"}))
}
