// Package postgressink writes batches of persons into PostgreSQL tables, one transaction per batch.
//
// The sink accepts pgxpool.Pool, sql.DB (lib/pq) and sqlx.DB connections and owns none of them:
// Close leaves the pool open for the caller.
//
// Usage:
//
//	pgxSink, err := postgressink.NewFromPGXPool(pool,
//		postgressink.WithSchema("synthetic"),
//		postgressink.WithTableBehavior(sink.TableCreateIfNotExists),
//		postgressink.WithInsertMode(sink.InsertSkipDuplicates),
//	)
package postgressink

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // driver import
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/AntonStoeckl/synthetic-persons-go/persons"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/sink"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/sink/postgressink/internal/adapters"
)

const (
	dialectPostgres = "postgres"
	defaultSchema   = "public"
)

const (
	logMsgTablesReady       = "postgres tables ready"
	logMsgTablesDropped     = "postgres tables dropped and recreated"
	logMsgBatchInserted     = "batch inserted"
	logMsgDuplicatesSkipped = "duplicate persons skipped"
	logMsgRollbackFailed    = "transaction rollback failed"
	logAttrSchema           = "schema"
	logAttrTablePrefix      = "table_prefix"
	logAttrBatch            = "batch_sequence"
	logAttrPersons          = "persons"
	logAttrSkipped          = "skipped"
	logAttrDurationMS       = "duration_ms"
	logAttrError            = "error"
	labelTable              = "table"
)

const (
	opOpen  = "open postgres sink"
	opBuild = "build postgres sink"
)

const (
	informationSchema       = "information_schema"
	informationSchemaTables = "tables"
	columnTableSchema       = "table_schema"
	columnTableName         = "table_name"
	columnPersonID          = "person_id"
	columnSSN               = "ssn"
)

var (
	// ErrNilDatabaseConnection is returned when a nil connection is passed to a constructor.
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")

	// ErrEmptySchema is returned when an empty schema name is configured.
	ErrEmptySchema = errors.New("schema must not be empty")

	// ErrInvalidTableBehavior is returned for unknown table behaviors.
	ErrInvalidTableBehavior = errors.New("invalid table behavior")

	// ErrInvalidInsertMode is returned for unknown insert modes.
	ErrInvalidInsertMode = errors.New("invalid insert mode")

	// ErrDestructiveDDLNotAllowed is returned when drop_and_create is configured without WithDestructiveDDL.
	ErrDestructiveDDLNotAllowed = errors.New("drop_and_create requires the destructive DDL opt-in")

	// ErrTablesMissing is returned by Open in append_only mode when target tables do not exist.
	ErrTablesMissing = errors.New("target tables do not exist")

	// ErrBuildingQuery is returned when goqu fails to build a statement.
	ErrBuildingQuery = errors.New("building query failed")
)

// Sink inserts batches into the persons table family.
type Sink struct {
	db               adapters.DBAdapter
	tables           tableNames
	tableBehavior    string
	insertMode       string
	destructiveDDL   bool
	logger           persons.Logger
	contextualLogger persons.ContextualLogger
	metricsCollector persons.MetricsCollector
}

// Option defines a functional option for configuring a Sink.
type Option func(*Sink) error

// NewFromPGXPool creates a Sink writing through a pgx connection pool.
func NewFromPGXPool(db *pgxpool.Pool, options ...Option) (*Sink, error) {
	if db == nil {
		return nil, persons.NewOpError(opBuild, persons.KindConfig, ErrNilDatabaseConnection)
	}

	return newSink(adapters.NewPGXAdapter(db), options...)
}

// NewFromSQLDB creates a Sink writing through a database/sql connection pool.
func NewFromSQLDB(db *sql.DB, options ...Option) (*Sink, error) {
	if db == nil {
		return nil, persons.NewOpError(opBuild, persons.KindConfig, ErrNilDatabaseConnection)
	}

	return newSink(adapters.NewSQLAdapter(db), options...)
}

// NewFromSQLX creates a Sink writing through a sqlx connection pool.
func NewFromSQLX(db *sqlx.DB, options ...Option) (*Sink, error) {
	if db == nil {
		return nil, persons.NewOpError(opBuild, persons.KindConfig, ErrNilDatabaseConnection)
	}

	return newSink(adapters.NewSQLXAdapter(db), options...)
}

func newSink(db adapters.DBAdapter, options ...Option) (*Sink, error) {
	s := &Sink{
		db:            db,
		tables:        tableNames{schema: defaultSchema},
		tableBehavior: sink.TableCreateIfNotExists,
		insertMode:    sink.InsertAppend,
	}

	for _, option := range options {
		if err := option(s); err != nil {
			return nil, persons.NewOpError(opBuild, persons.KindConfig, err)
		}
	}

	if s.tableBehavior == sink.TableDropAndCreate && !s.destructiveDDL {
		return nil, persons.NewOpError(opBuild, persons.KindConfig, ErrDestructiveDDLNotAllowed)
	}

	return s, nil
}

// WithTarget applies schema, table prefix, table behavior and insert mode of a parsed database target.
func WithTarget(target sink.Target) Option {
	return func(s *Sink) error {
		for _, option := range []Option{
			WithSchema(target.Schema),
			WithTablePrefix(target.TablePrefix),
			WithTableBehavior(target.TableBehavior),
			WithInsertMode(target.InsertMode),
		} {
			if err := option(s); err != nil {
				return err
			}
		}

		return nil
	}
}

// WithSchema sets the schema the tables live in. Default: public.
func WithSchema(schema string) Option {
	return func(s *Sink) error {
		if schema == "" {
			return ErrEmptySchema
		}

		s.tables.schema = schema

		return nil
	}
}

// WithTablePrefix prefixes every table name, e.g. "test_" gives test_persons.
func WithTablePrefix(prefix string) Option {
	return func(s *Sink) error {
		s.tables.prefix = prefix
		return nil
	}
}

// WithTableBehavior sets what Open does with the tables. Default: create_if_not_exists.
func WithTableBehavior(behavior string) Option {
	return func(s *Sink) error {
		switch behavior {
		case sink.TableCreateIfNotExists, sink.TableAppendOnly, sink.TableDropAndCreate:
		default:
			return fmt.Errorf("%w: %q", ErrInvalidTableBehavior, behavior)
		}

		s.tableBehavior = behavior

		return nil
	}
}

// WithInsertMode sets how rows are inserted. Default: append.
func WithInsertMode(mode string) Option {
	return func(s *Sink) error {
		switch mode {
		case sink.InsertAppend, sink.InsertSkipDuplicates:
		default:
			return fmt.Errorf("%w: %q", ErrInvalidInsertMode, mode)
		}

		s.insertMode = mode

		return nil
	}
}

// WithDestructiveDDL allows the drop_and_create table behavior.
func WithDestructiveDDL() Option {
	return func(s *Sink) error {
		s.destructiveDDL = true
		return nil
	}
}

// WithLogger sets the logger for the Sink.
// Info level: schema setup. Debug level: per-batch insert timings and skipped duplicates.
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

// WithMetrics sets the metrics collector for inserted rows and skipped duplicates.
func WithMetrics(collector persons.MetricsCollector) Option {
	return func(s *Sink) error {
		s.metricsCollector = collector
		return nil
	}
}

// Open prepares the tables according to the table behavior.
func (s *Sink) Open(ctx context.Context) error {
	switch s.tableBehavior {
	case sink.TableAppendOnly:
		return s.requireTables(ctx)

	case sink.TableDropAndCreate:
		if err := s.execInTx(ctx, s.tables.dropStatements()+"\n"+s.tables.createStatements()); err != nil {
			return sink.Classify(opOpen, err)
		}

		s.logInfo(ctx, logMsgTablesDropped, logAttrSchema, s.tables.schema, logAttrTablePrefix, s.tables.prefix)

	default:
		if err := s.execInTx(ctx, s.tables.createStatements()); err != nil {
			return sink.Classify(opOpen, err)
		}

		s.logInfo(ctx, logMsgTablesReady, logAttrSchema, s.tables.schema, logAttrTablePrefix, s.tables.prefix)
	}

	return nil
}

// Write inserts the batch in one transaction. Any failure rolls the whole batch back.
func (s *Sink) Write(ctx context.Context, batch persons.Batch) (err error) {
	start := time.Now()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return sink.Classify("begin transaction", err)
	}

	defer func() {
		if err == nil {
			return
		}

		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			s.logDebug(ctx, logMsgRollbackFailed, logAttrBatch, batch.Sequence, logAttrError, rbErr.Error())
		}
	}()

	records := batch.Records
	if s.insertMode == sink.InsertSkipDuplicates {
		if records, err = s.withoutDuplicates(ctx, tx, batch); err != nil {
			return err
		}
	}

	var families []familyRows
	if families, err = rowsFor(records); err != nil {
		return persons.NewOpError("encode profiles", persons.KindSinkFatal, err)
	}

	for _, rows := range families {
		if err = s.insert(ctx, tx, rows); err != nil {
			return err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return sink.Classify("commit transaction", err)
	}

	s.logDebug(ctx, logMsgBatchInserted,
		logAttrBatch, batch.Sequence,
		logAttrPersons, len(records),
		logAttrDurationMS, float64(time.Since(start).Microseconds())/1000)

	return nil
}

// Close is a no-op: the connection pool belongs to the caller.
func (s *Sink) Close(context.Context) error {
	return nil
}

func (s *Sink) insert(ctx context.Context, tx adapters.DBTx, rows familyRows) error {
	query, _, err := goqu.Dialect(dialectPostgres).
		Insert(goqu.S(s.tables.schema).Table(s.tables.name(rows.family))).
		Rows(rows.values()...).
		ToSQL()
	if err != nil {
		return persons.NewOpError("insert "+rows.family, persons.KindSinkFatal, errors.Join(ErrBuildingQuery, err))
	}

	if _, err = tx.Exec(ctx, query); err != nil {
		return sink.Classify("insert "+rows.family, err)
	}

	persons.RecordValueMetric(ctx, s.metricsCollector, persons.MetricSinkRowsInserted, float64(len(rows.records)),
		map[string]string{labelTable: rows.family})

	return nil
}

// withoutDuplicates drops persons whose ssn, or person_id when the ssn is missing, is already
// stored or appeared earlier in the same batch.
func (s *Sink) withoutDuplicates(ctx context.Context, tx adapters.DBTx, batch persons.Batch) ([]persons.Person, error) {
	if len(batch.Records) == 0 {
		return nil, nil
	}

	ssns := make([]any, 0, len(batch.Records))
	ids := make([]any, 0, len(batch.Records))

	for i := range batch.Records {
		if ssn := batch.Records[i].SSN; ssn != nil && *ssn != "" {
			ssns = append(ssns, *ssn)
			continue
		}

		ids = append(ids, batch.Records[i].ID.String())
	}

	conditions := make([]exp.Expression, 0, 2)
	if len(ssns) > 0 {
		conditions = append(conditions, goqu.C(columnSSN).In(ssns...))
	}
	if len(ids) > 0 {
		conditions = append(conditions, goqu.C(columnPersonID).In(ids...))
	}

	query, _, err := goqu.Dialect(dialectPostgres).
		From(goqu.S(s.tables.schema).Table(s.tables.name(tablePersons))).
		Select(
			goqu.Cast(goqu.C(columnPersonID), "TEXT").As(columnPersonID),
			goqu.COALESCE(goqu.C(columnSSN), "").As(columnSSN),
		).
		Where(goqu.Or(conditions...)).
		ToSQL()
	if err != nil {
		return nil, persons.NewOpError("select duplicates", persons.KindSinkFatal, errors.Join(ErrBuildingQuery, err))
	}

	seenSSN, seenID, err := s.existingKeys(ctx, tx, query)
	if err != nil {
		return nil, err
	}

	kept := make([]persons.Person, 0, len(batch.Records))
	for _, p := range batch.Records {
		if ssn := p.SSN; ssn != nil && *ssn != "" {
			if _, dup := seenSSN[*ssn]; dup {
				continue
			}
			seenSSN[*ssn] = struct{}{}
		} else {
			if _, dup := seenID[p.ID.String()]; dup {
				continue
			}
			seenID[p.ID.String()] = struct{}{}
		}

		kept = append(kept, p)
	}

	if skipped := len(batch.Records) - len(kept); skipped > 0 {
		persons.RecordValueMetric(ctx, s.metricsCollector, persons.MetricSinkDuplicatesSkipped, float64(skipped),
			map[string]string{labelTable: tablePersons})
		s.logDebug(ctx, logMsgDuplicatesSkipped, logAttrBatch, batch.Sequence, logAttrSkipped, skipped)
	}

	return kept, nil
}

func (s *Sink) existingKeys(ctx context.Context, tx adapters.DBTx, query string) (map[string]struct{}, map[string]struct{}, error) {
	rows, err := tx.Query(ctx, query)
	if err != nil {
		return nil, nil, sink.Classify("select duplicates", err)
	}
	defer rows.Close()

	ssns := make(map[string]struct{})
	ids := make(map[string]struct{})

	for rows.Next() {
		var id, ssn string
		if err = rows.Scan(&id, &ssn); err != nil {
			return nil, nil, sink.Classify("scan duplicates", err)
		}

		ids[id] = struct{}{}
		if ssn != "" {
			ssns[ssn] = struct{}{}
		}
	}

	if err = rows.Err(); err != nil {
		return nil, nil, sink.Classify("scan duplicates", err)
	}

	return ssns, ids, nil
}

func (s *Sink) requireTables(ctx context.Context) error {
	names := make([]any, 0, len(tableFamilies))
	for _, family := range tableFamilies {
		names = append(names, s.tables.name(family))
	}

	query, _, err := goqu.Dialect(dialectPostgres).
		From(goqu.S(informationSchema).Table(informationSchemaTables)).
		Select(goqu.COUNT("*")).
		Where(
			goqu.C(columnTableSchema).Eq(s.tables.schema),
			goqu.C(columnTableName).In(names...),
		).
		ToSQL()
	if err != nil {
		return persons.NewOpError(opOpen, persons.KindSinkFatal, errors.Join(ErrBuildingQuery, err))
	}

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return sink.Classify(opOpen, err)
	}
	defer rows.Close()

	var found int
	if rows.Next() {
		if err = rows.Scan(&found); err != nil {
			return sink.Classify(opOpen, err)
		}
	}

	if err = rows.Err(); err != nil {
		return sink.Classify(opOpen, err)
	}

	if found < len(tableFamilies) {
		return persons.NewOpError(opOpen, persons.KindSinkFatal, errors.Join(
			ErrTablesMissing,
			fmt.Errorf("found %d of %d tables in schema %q", found, len(tableFamilies), s.tables.schema),
		))
	}

	s.logInfo(ctx, logMsgTablesReady, logAttrSchema, s.tables.schema, logAttrTablePrefix, s.tables.prefix)

	return nil
}

func (s *Sink) execInTx(ctx context.Context, statements string) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
		}
	}()

	if _, err = tx.Exec(ctx, statements); err != nil {
		return err
	}

	return tx.Commit(ctx)
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
