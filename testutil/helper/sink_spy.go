package helper

import (
	"context"
	"sync"
	"time"

	"github.com/AntonStoeckl/synthetic-persons-go/persons"
)

// WriteFunc decides the outcome of the n-th write call (1-based) for a batch.
type WriteFunc func(batch persons.Batch, call int) error

// SinkSpy is an in-memory sink that records every successful write.
type SinkSpy struct {
	mu         sync.Mutex
	batches    []persons.Batch
	calls      int
	opened     bool
	closed     bool
	aborted    bool
	writeFunc  WriteFunc
	writeDelay time.Duration
	openErr    error
}

// NewSinkSpy creates a SinkSpy that accepts every batch.
func NewSinkSpy() *SinkSpy {
	return &SinkSpy{}
}

// FailingWith makes the spy consult fn before recording a batch.
func (s *SinkSpy) FailingWith(fn WriteFunc) *SinkSpy {
	s.writeFunc = fn
	return s
}

// Delaying makes every write block for d or until the context is done.
func (s *SinkSpy) Delaying(d time.Duration) *SinkSpy {
	s.writeDelay = d
	return s
}

// FailingOpen makes Open return err.
func (s *SinkSpy) FailingOpen(err error) *SinkSpy {
	s.openErr = err
	return s
}

func (s *SinkSpy) Open(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.openErr != nil {
		return s.openErr
	}
	s.opened = true

	return nil
}

func (s *SinkSpy) Write(ctx context.Context, batch persons.Batch) error {
	s.mu.Lock()
	s.calls++
	call := s.calls
	s.mu.Unlock()

	if s.writeDelay > 0 {
		timer := time.NewTimer(s.writeDelay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}

	if s.writeFunc != nil {
		if err := s.writeFunc(batch, call); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]persons.Person, len(batch.Records))
	copy(records, batch.Records)
	batch.Records = records
	s.batches = append(s.batches, batch)

	return nil
}

func (s *SinkSpy) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true

	return nil
}

func (s *SinkSpy) Abort(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.aborted = true

	return nil
}

// Batches returns the written batches in write order.
func (s *SinkSpy) Batches() []persons.Batch {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]persons.Batch(nil), s.batches...)
}

// Records returns all written records in write order.
func (s *SinkSpy) Records() []persons.Person {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []persons.Person
	for _, b := range s.batches {
		records = append(records, b.Records...)
	}

	return records
}

// WriteCalls returns the number of Write calls, failed ones included.
func (s *SinkSpy) WriteCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.calls
}

// Opened reports whether Open succeeded.
func (s *SinkSpy) Opened() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.opened
}

// Closed reports whether Close was called.
func (s *SinkSpy) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closed
}

// Aborted reports whether Abort was called.
func (s *SinkSpy) Aborted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.aborted
}
