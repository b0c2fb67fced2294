// Package natssink publishes persons to a NATS JetStream subject, one JSON message per record.
//
// Every message carries the person id as its JetStream message id, so a batch that is retried
// after a partial publish is de-duplicated by the server within the stream's duplicate window.
package natssink

import (
	"context"
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/nats-io/nats.go"

	"github.com/AntonStoeckl/synthetic-persons-go/persons"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/sink"
)

const (
	logMsgStreamCreated  = "nats stream created"
	logMsgBatchPublished = "batch published"
	logAttrStream        = "stream"
	logAttrSubject       = "subject"
	logAttrBatch         = "batch_sequence"
	logAttrRecordCount   = "record_count"
	labelSubject         = "subject"
)

var (
	// ErrNilJetStream is returned when New is called without a JetStream context.
	ErrNilJetStream = errors.New("jetstream context must not be nil")

	// ErrEmptySubject is returned when New is called with an empty subject.
	ErrEmptySubject = errors.New("subject must not be empty")

	// ErrEmptyStreamName is returned by WithStream for an empty name.
	ErrEmptyStreamName = errors.New("stream name must not be empty")
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// JetStream is the part of nats.JetStreamContext the sink uses.
type JetStream interface {
	Publish(subj string, data []byte, opts ...nats.PubOpt) (*nats.PubAck, error)
	StreamInfo(stream string, opts ...nats.JSOpt) (*nats.StreamInfo, error)
	AddStream(cfg *nats.StreamConfig, opts ...nats.JSOpt) (*nats.StreamInfo, error)
}

// Sink publishes records to a subject.
type Sink struct {
	js               JetStream
	subject          string
	stream           string
	logger           persons.Logger
	contextualLogger persons.ContextualLogger
	metricsCollector persons.MetricsCollector
}

// Option defines a functional option for configuring a Sink.
type Option func(*Sink) error

// New creates a Sink publishing to subject.
func New(js JetStream, subject string, options ...Option) (*Sink, error) {
	if js == nil {
		return nil, persons.NewOpError("build nats sink", persons.KindConfig, ErrNilJetStream)
	}

	if subject == "" {
		return nil, persons.NewOpError("build nats sink", persons.KindConfig, ErrEmptySubject)
	}

	s := &Sink{js: js, subject: subject}

	for _, option := range options {
		if err := option(s); err != nil {
			return nil, persons.NewOpError("build nats sink", persons.KindConfig, err)
		}
	}

	return s, nil
}

// WithStream makes Open create a file-backed stream bound to the subject if it does not exist.
func WithStream(name string) Option {
	return func(s *Sink) error {
		if name == "" {
			return ErrEmptyStreamName
		}

		s.stream = name

		return nil
	}
}

// WithLogger sets the logger for the Sink.
func WithLogger(logger persons.Logger) Option {
	return func(s *Sink) error {
		s.logger = logger
		return nil
	}
}

// WithContextualLogger sets a context-aware logger. It takes precedence over WithLogger.
func WithContextualLogger(logger persons.ContextualLogger) Option {
	return func(s *Sink) error {
		s.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector. Every published record increments a counter.
func WithMetrics(collector persons.MetricsCollector) Option {
	return func(s *Sink) error {
		s.metricsCollector = collector
		return nil
	}
}

// Open ensures the configured stream exists.
func (s *Sink) Open(ctx context.Context) error {
	if s.stream == "" {
		return nil
	}

	_, err := s.js.StreamInfo(s.stream, nats.Context(ctx))
	if err == nil {
		return nil
	}

	if !errors.Is(err, nats.ErrStreamNotFound) {
		return classify("open nats sink", err)
	}

	_, err = s.js.AddStream(&nats.StreamConfig{
		Name:     s.stream,
		Subjects: []string{s.subject},
		Storage:  nats.FileStorage,
	}, nats.Context(ctx))
	if err != nil {
		return classify("create nats stream", err)
	}

	s.logInfo(ctx, logMsgStreamCreated, logAttrStream, s.stream, logAttrSubject, s.subject)

	return nil
}

// Write publishes every record of the batch and waits for each acknowledgement.
func (s *Sink) Write(ctx context.Context, batch persons.Batch) error {
	for i := range batch.Records {
		p := &batch.Records[i]

		payload, err := json.Marshal(p)
		if err != nil {
			return persons.NewOpError("encode record", persons.KindSinkFatal, err)
		}

		if _, err = s.js.Publish(s.subject, payload, nats.MsgId(p.ID.String()), nats.Context(ctx)); err != nil {
			return classify("publish record", fmt.Errorf("record %s: %w", p.ID, err))
		}

		persons.IncrementCounterMetric(ctx, s.metricsCollector, persons.MetricSinkRecordsPublished,
			map[string]string{labelSubject: s.subject})
	}

	s.logDebug(ctx, logMsgBatchPublished, logAttrSubject, s.subject, logAttrBatch, batch.Sequence, logAttrRecordCount, batch.Len())

	return nil
}

// Close is a no-op: the connection belongs to the caller.
func (s *Sink) Close(context.Context) error {
	return nil
}

// classify treats timeouts and missing responders as transient. Everything else follows sink.Classify.
func classify(op string, err error) error {
	switch {
	case errors.Is(err, nats.ErrTimeout),
		errors.Is(err, nats.ErrNoResponders),
		errors.Is(err, nats.ErrNoStreamResponse),
		errors.Is(err, nats.ErrConnectionReconnecting):
		return persons.NewOpError(op, persons.KindSinkTransient, err)
	}

	return sink.Classify(op, err)
}

func (s *Sink) logDebug(ctx context.Context, msg string, args ...any) {
	if s.contextualLogger != nil {
		s.contextualLogger.DebugContext(ctx, msg, args...)
		return
	}

	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *Sink) logInfo(ctx context.Context, msg string, args ...any) {
	if s.contextualLogger != nil {
		s.contextualLogger.InfoContext(ctx, msg, args...)
		return
	}

	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

var _ sink.Sink = (*Sink)(nil)
var _ JetStream = (nats.JetStreamContext)(nil)
