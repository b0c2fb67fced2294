package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/synthetic-persons-go/persons"
)

const (
	driverPGX  = "pgx"
	driverSQL  = "sql"
	driverSQLX = "sqlx"
)

type options struct {
	count          uint64
	stream         bool
	rate           float64
	streamLimit    uint64
	workers        int
	batchSize      int
	seed           uint64
	profile        string
	target         string
	maxInFlight    int
	skipFailed     bool
	schedule       string
	observability  bool
	writeBatchSize int
	runDeadline    time.Duration
	dbDriver       string
	destructiveDDL bool
	natsStream     string
	logLevel       string
}

func (o *options) register(cmd *cobra.Command) {
	flags := cmd.Flags()

	flags.Uint64Var(&o.count, "count", 1000, "number of persons of a bulk run")
	flags.BoolVar(&o.stream, "stream", false, "stream batches at --rate instead of generating a fixed count")
	flags.Float64Var(&o.rate, "rate", 1, "batches per second in stream mode")
	flags.Uint64Var(&o.streamLimit, "stream-limit", 0, "stop a stream after this many persons, 0 streams until interrupted")
	flags.IntVar(&o.workers, "workers", 4, "generation workers")
	flags.IntVar(&o.batchSize, "batch-size", 1000, "persons per generated batch")
	flags.Uint64Var(&o.seed, "seed", 1, "run seed, equal seeds give identical datasets")
	flags.StringVar(&o.profile, "profile", persons.ProfileStandard,
		"data quality profile: "+strings.Join(persons.ProfileNames(), ", "))
	flags.StringVar(&o.target, "target", "file:persons.jsonl,jsonl",
		"file:<path>,<csv|jsonl> | database:<dsn>,<schema>,<prefix>,<table-behavior>,<insert-mode> | nats:<url>,<subject>")
	flags.IntVar(&o.maxInFlight, "max-in-flight", 8, "generated batches that may wait for the sink")
	flags.BoolVar(&o.skipFailed, "skip-failed", false, "skip batches whose writes keep failing instead of stopping the run")
	flags.StringVar(&o.schedule, "schedule", "", `cron spec for recurring runs, e.g. "*/15 * * * *" or "@every 1h"`)
	flags.BoolVar(&o.observability, "observability-enabled", false, "collect OpenTelemetry metrics and traces and log the metrics after each run")
	flags.IntVar(&o.writeBatchSize, "write-batch-size", 0, "persons per sink write, 0 writes generated batches as they are")
	flags.DurationVar(&o.runDeadline, "run-deadline", 0, "stop starting new batches after this duration, 0 disables it")
	flags.StringVar(&o.dbDriver, "db-driver", driverPGX, "database driver for database targets: pgx, sql or sqlx")
	flags.BoolVar(&o.destructiveDDL, "destructive-ddl", false, "allow the drop_and_create table behavior")
	flags.StringVar(&o.natsStream, "nats-stream", "", "create this JetStream stream for the subject if it does not exist")
	flags.StringVar(&o.logLevel, "log-level", "info", "debug, info, warn or error")
}

// generationConfig builds the config of the n-th run. Scheduled runs shift the seed by n.
func (o *options) generationConfig(run uint64) (persons.GenerationConfig, error) {
	configOptions := []persons.ConfigOption{
		persons.WithRecordCount(o.count),
		persons.WithWorkers(o.workers),
		persons.WithBatchSize(o.batchSize),
		persons.WithSeed(o.seed + run),
		persons.WithQualityProfileName(o.profile),
		persons.WithMaxInFlightBatches(o.maxInFlight),
		persons.WithRunDeadline(o.runDeadline),
	}

	if o.stream {
		configOptions = append(configOptions, persons.WithStream(o.rate), persons.WithStreamLimit(o.streamLimit))
	}

	if o.skipFailed {
		configOptions = append(configOptions, persons.WithSkipFailedBatches())
	}

	return persons.NewGenerationConfig(configOptions...)
}

func (o *options) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(o.logLevel)); err != nil {
		return 0, fmt.Errorf("log level %q: %w", o.logLevel, err)
	}

	return level, nil
}

func (o *options) validateDriver() error {
	switch o.dbDriver {
	case driverPGX, driverSQL, driverSQLX:
		return nil
	default:
		return fmt.Errorf("unknown database driver %q", o.dbDriver)
	}
}
