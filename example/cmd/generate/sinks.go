package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/AntonStoeckl/synthetic-persons-go/example/shell/config"
	"github.com/AntonStoeckl/synthetic-persons-go/persons"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/sink"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/sink/filesink"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/sink/natssink"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/sink/postgressink"
)

// observers carries the observability adapters shared by engine and sinks. Nil fields are disabled.
type observers struct {
	logger           *slog.Logger
	contextualLogger persons.ContextualLogger
	metricsCollector persons.MetricsCollector
	tracingCollector persons.TracingCollector
}

// connection is a database pool or broker connection shared by all runs of a command.
type connection struct {
	sinkFor func(target sink.Target, cfg persons.GenerationConfig) (sink.Sink, error)
	close   func()
}

// connect opens what the target needs. File targets need nothing.
func connect(ctx context.Context, o *options, target sink.Target, obs observers) (*connection, error) {
	switch target.Kind {
	case sink.TargetFile:
		return &connection{
			sinkFor: func(t sink.Target, cfg persons.GenerationConfig) (sink.Sink, error) {
				return filesink.New(t.Path, t.Format,
					filesink.WithSlots(filesink.SlotsFor(cfg)),
					filesink.WithLogger(obs.logger))
			},
			close: func() {},
		}, nil

	case sink.TargetDatabase:
		return connectDatabase(ctx, o, target, obs)

	case sink.TargetNATS:
		return connectNATS(o, target, obs)

	default:
		return nil, fmt.Errorf("unsupported target kind %q", target.Kind)
	}
}

func connectDatabase(ctx context.Context, o *options, target sink.Target, obs observers) (*connection, error) {
	sinkOptions := []postgressink.Option{
		postgressink.WithTarget(target),
		postgressink.WithContextualLogger(obs.contextualLogger),
		postgressink.WithMetrics(obs.metricsCollector),
	}
	if o.destructiveDDL {
		sinkOptions = append(sinkOptions, postgressink.WithDestructiveDDL())
	}

	switch o.dbDriver {
	case driverSQL:
		db, err := config.PostgresSQLDB(ctx, target.DSN, o.maxInFlight)
		if err != nil {
			return nil, err
		}

		return &connection{
			sinkFor: func(sink.Target, persons.GenerationConfig) (sink.Sink, error) {
				return postgressink.NewFromSQLDB(db, sinkOptions...)
			},
			close: func() { _ = db.Close() },
		}, nil

	case driverSQLX:
		db, err := config.PostgresSQLX(ctx, target.DSN, o.maxInFlight)
		if err != nil {
			return nil, err
		}

		return &connection{
			sinkFor: func(sink.Target, persons.GenerationConfig) (sink.Sink, error) {
				return postgressink.NewFromSQLX(db, sinkOptions...)
			},
			close: func() { _ = db.Close() },
		}, nil

	default:
		pool, err := config.PostgresPGXPool(ctx, target.DSN, o.maxInFlight)
		if err != nil {
			return nil, err
		}

		return &connection{
			sinkFor: func(sink.Target, persons.GenerationConfig) (sink.Sink, error) {
				return postgressink.NewFromPGXPool(pool, sinkOptions...)
			},
			close: pool.Close,
		}, nil
	}
}

func connectNATS(o *options, target sink.Target, obs observers) (*connection, error) {
	nc, err := nats.Connect(target.URL,
		nats.Timeout(10*time.Second),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second))
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream context: %w", err)
	}

	sinkOptions := []natssink.Option{
		natssink.WithContextualLogger(obs.contextualLogger),
		natssink.WithMetrics(obs.metricsCollector),
	}
	if o.natsStream != "" {
		sinkOptions = append(sinkOptions, natssink.WithStream(o.natsStream))
	}

	return &connection{
		sinkFor: func(t sink.Target, _ persons.GenerationConfig) (sink.Sink, error) {
			return natssink.New(js, t.Subject, sinkOptions...)
		},
		close: func() { _ = nc.Drain() },
	}, nil
}

// writerFor wraps the target's sink with retries, re-chunking and observability.
func writerFor(conn *connection, o *options, target sink.Target, cfg persons.GenerationConfig, obs observers) (*sink.Writer, error) {
	s, err := conn.sinkFor(target, cfg)
	if err != nil {
		return nil, err
	}

	return sink.NewWriter(s,
		sink.WithName(string(target.Kind)),
		sink.WithWriteBatchSize(o.writeBatchSize),
		sink.WithContextualLogger(obs.contextualLogger),
		sink.WithMetrics(obs.metricsCollector),
		sink.WithTracing(obs.tracingCollector))
}

// targetForRun gives every scheduled run of a file target its own file: persons.jsonl -> persons-0003.jsonl.
func targetForRun(target sink.Target, run uint64, scheduled bool) sink.Target {
	if !scheduled || target.Kind != sink.TargetFile {
		return target
	}

	ext := filepath.Ext(target.Path)
	target.Path = fmt.Sprintf("%s-%04d%s", strings.TrimSuffix(target.Path, ext), run, ext)

	return target
}
