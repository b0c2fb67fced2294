package persons

import (
	"errors"
	"fmt"
)

// Sentinel errors for broad classification of pipeline failures.
var (
	// ErrInvalidConfig is returned when a GenerationConfig fails validation.
	ErrInvalidConfig = errors.New("invalid generation config")

	// ErrGeneration is returned when a generator invariant is violated.
	ErrGeneration = errors.New("record generation failed")

	// ErrSinkTransient is returned for retryable sink failures like connection resets or deadlocks.
	ErrSinkTransient = errors.New("transient sink failure")

	// ErrSinkFatal is returned for non-retryable sink failures like constraint or schema mismatches.
	ErrSinkFatal = errors.New("fatal sink failure")

	// ErrCancellationRequested signals a cooperative stop. It causes a graceful drain, not a failure.
	ErrCancellationRequested = errors.New("cancellation requested")
)

// ErrorKind is a coarse-grained categorization for pipeline errors.
type ErrorKind string

const (
	KindConfig        ErrorKind = "config"
	KindGeneration    ErrorKind = "generation"
	KindSinkTransient ErrorKind = "sink_transient"
	KindSinkFatal     ErrorKind = "sink_fatal"
	KindCancelled     ErrorKind = "cancelled"
)

// NoIndex marks an OpError that is not tied to a single record.
const NoIndex = ^uint64(0)

// OpError wraps an underlying error with operation context, a kind and,
// for generation failures, the global index needed to reproduce it.
type OpError struct {
	Op    string
	Kind  ErrorKind
	Index uint64
	Batch uint64
	Err   error
}

// NewOpError builds an OpError that is not tied to a record index.
func NewOpError(op string, kind ErrorKind, err error) *OpError {
	return &OpError{Op: op, Kind: kind, Index: NoIndex, Err: errors.Join(sentinelFor(kind), err)}
}

// NewGenerationError builds a generation OpError for the record at index.
func NewGenerationError(op string, index uint64, err error) *OpError {
	return &OpError{Op: op, Kind: KindGeneration, Index: index, Err: errors.Join(ErrGeneration, err)}
}

func (e *OpError) Error() string {
	if e == nil {
		return "<nil>"
	}

	base := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Index != NoIndex {
		base += fmt.Sprintf(" (index=%d)", e.Index)
	}
	if e.Err != nil {
		base += fmt.Sprintf(": %v", e.Err)
	}

	return base
}

func (e *OpError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.Err
}

// IsKind classifies err without depending on the package that produced it.
// Errors that are not OpErrors are classified by the sentinel they wrap.
func IsKind(err error, kind ErrorKind) bool {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Kind == kind
	}

	if s := sentinelFor(kind); s != nil {
		return errors.Is(err, s)
	}

	return false
}

// KindOf returns the kind of err, or the empty kind if it cannot be classified.
func KindOf(err error) ErrorKind {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Kind
	}

	for _, kind := range []ErrorKind{KindConfig, KindGeneration, KindSinkTransient, KindSinkFatal, KindCancelled} {
		if errors.Is(err, sentinelFor(kind)) {
			return kind
		}
	}

	return ""
}

func sentinelFor(kind ErrorKind) error {
	switch kind {
	case KindConfig:
		return ErrInvalidConfig
	case KindGeneration:
		return ErrGeneration
	case KindSinkTransient:
		return ErrSinkTransient
	case KindSinkFatal:
		return ErrSinkFatal
	case KindCancelled:
		return ErrCancellationRequested
	default:
		return nil
	}
}
