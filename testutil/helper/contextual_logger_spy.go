package helper

import (
	"context"
	"sync"
)

// LogRecord is a captured log call.
type LogRecord struct {
	Level   string
	Message string
	Args    []any
}

// LoggerSpy captures log calls. It implements both persons.Logger and persons.ContextualLogger.
type LoggerSpy struct {
	records         []LogRecord
	contextualCalls int
	mu              sync.Mutex
}

// NewLoggerSpy creates a new LoggerSpy.
func NewLoggerSpy() *LoggerSpy {
	return &LoggerSpy{}
}

func (s *LoggerSpy) Debug(msg string, args ...any) { s.record("debug", msg, args, false) }
func (s *LoggerSpy) Info(msg string, args ...any)  { s.record("info", msg, args, false) }
func (s *LoggerSpy) Warn(msg string, args ...any)  { s.record("warn", msg, args, false) }
func (s *LoggerSpy) Error(msg string, args ...any) { s.record("error", msg, args, false) }

func (s *LoggerSpy) DebugContext(_ context.Context, msg string, args ...any) {
	s.record("debug", msg, args, true)
}

func (s *LoggerSpy) InfoContext(_ context.Context, msg string, args ...any) {
	s.record("info", msg, args, true)
}

func (s *LoggerSpy) WarnContext(_ context.Context, msg string, args ...any) {
	s.record("warn", msg, args, true)
}

func (s *LoggerSpy) ErrorContext(_ context.Context, msg string, args ...any) {
	s.record("error", msg, args, true)
}

func (s *LoggerSpy) record(level, msg string, args []any, contextual bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, LogRecord{Level: level, Message: msg, Args: append([]any(nil), args...)})
	if contextual {
		s.contextualCalls++
	}
}

// Records returns a copy of all captured log records.
func (s *LoggerSpy) Records() []LogRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]LogRecord(nil), s.records...)
}

// HasRecord checks for a record with the given level and message.
func (s *LoggerSpy) HasRecord(level, msg string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.records {
		if r.Level == level && r.Message == msg {
			return true
		}
	}

	return false
}

// ContextualCallCount returns how many records came in through the context-aware methods.
func (s *LoggerSpy) ContextualCallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.contextualCalls
}
