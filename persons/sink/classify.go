package sink

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/AntonStoeckl/synthetic-persons-go/persons"
)

// PostgreSQL SQLSTATE codes that are worth retrying.
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
	codeAdminShutdown        = "57P01"
	codeCrashShutdown        = "57P02"
	codeCannotConnectNow     = "57P03"
	classConnectionException = "08"
)

// Error type labels used in metrics and spans.
const (
	ErrorTypeTransient        = "transient"
	ErrorTypeFatal            = "fatal"
	ErrorTypeTimeout          = "timeout"
	ErrorTypeContextCancelled = "context_canceled"
	ErrorTypeNone             = "none"
)

// Classify wraps err into a sink OpError of kind KindSinkTransient or KindSinkFatal.
// Errors that already carry a sink kind keep it.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}

	switch persons.KindOf(err) {
	case persons.KindSinkTransient, persons.KindSinkFatal, persons.KindCancelled:
		return err
	}

	if IsTransient(err) {
		return persons.NewOpError(op, persons.KindSinkTransient, err)
	}

	return persons.NewOpError(op, persons.KindSinkFatal, err)
}

// IsTransient reports whether a failed write may succeed when retried: connection resets
// and refusals, deadlocks, serialization failures, lock timeouts, server shutdowns,
// connection exceptions and timeouts.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if persons.IsKind(err, persons.KindSinkTransient) {
		return true
	}
	if persons.IsKind(err, persons.KindSinkFatal) || errors.Is(err, context.Canceled) {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return isTransientCode(pgErr.Code)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return isTransientCode(string(pqErr.Code))
	}

	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.EPIPE) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError
	return errors.As(err, &opErr)
}

func isTransientCode(code string) bool {
	switch code {
	case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable,
		codeAdminShutdown, codeCrashShutdown, codeCannotConnectNow:
		return true
	}

	return strings.HasPrefix(code, classConnectionException)
}

// ErrorType returns a low-cardinality label for err.
func ErrorType(err error) string {
	switch {
	case err == nil:
		return ErrorTypeNone
	case errors.Is(err, context.Canceled):
		return ErrorTypeContextCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorTypeTimeout
	case IsTransient(err):
		return ErrorTypeTransient
	default:
		return ErrorTypeFatal
	}
}
