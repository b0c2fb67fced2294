// Package sink defines the contract between the execution engine and the output targets
// persons are delivered to, and the Writer that adds retries, timeouts, re-chunking and
// observability around any Sink.
//
// A Sink persists whole batches: a batch is either written completely or not at all.
// Implementations live in the filesink, postgressink and natssink packages.
//
// Usage:
//
//	target, err := sink.ParseTarget("file:/tmp/persons.jsonl,jsonl")
//	fileSink, err := filesink.New(target.Path, target.Format)
//	writer, err := sink.NewWriter(fileSink,
//		sink.WithPerAttemptTimeout(5*time.Second),
//		sink.WithMetrics(metricsCollector),
//	)
package sink

import (
	"context"
	"errors"

	"github.com/AntonStoeckl/synthetic-persons-go/persons"
)

var (
	// ErrNilSink is returned when a Writer is built around a nil Sink.
	ErrNilSink = errors.New("sink must not be nil")

	// ErrNotOpen is returned when a batch is written before Open succeeded or after Close.
	ErrNotOpen = errors.New("sink is not open")

	// ErrInvalidWriteBatchSize is returned when the write batch size is negative.
	ErrInvalidWriteBatchSize = errors.New("write batch size must not be negative")

	// ErrNonPositiveTimeout is returned when the per-attempt timeout is not positive.
	ErrNonPositiveTimeout = errors.New("per-attempt timeout must be positive")
)

// Sink persists batches of persons. Write is all-or-nothing per batch and must return
// errors instead of panicking.
type Sink interface {
	Open(ctx context.Context) error
	Write(ctx context.Context, batch persons.Batch) error
	Close(ctx context.Context) error
}

// Aborter is implemented by sinks that can discard everything written so far,
// like file sinks that only publish their output on Close.
type Aborter interface {
	Abort(ctx context.Context) error
}

// Abort discards the output of s if it supports it and closes it otherwise.
func Abort(ctx context.Context, s Sink) error {
	if a, ok := s.(Aborter); ok {
		return a.Abort(ctx)
	}

	return s.Close(ctx)
}
