package postgreswrapper

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/synthetic-persons-go/example/shell/config"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/sink/postgressink"
)

// EnvAdapterType selects the database adapter of integration tests: pgxpool (default), sqldb or sqlx.
const EnvAdapterType = "ADAPTER_TYPE"

const (
	typePGXPool = "pgxpool"
	typeSQLDB   = "sqldb"
	typeSQLX    = "sqlx"
)

const testWriters = 4

// Wrapper abstracts over the database handles a postgres sink can be built from.
type Wrapper interface {
	NewSink(options ...postgressink.Option) (*postgressink.Sink, error)
	QueryInt(query string) (int, error)
	Exec(query string) error
	Close()
}

// PGXPoolWrapper wraps pgxpool-based testing.
type PGXPoolWrapper struct {
	pool *pgxpool.Pool
}

func (w *PGXPoolWrapper) NewSink(options ...postgressink.Option) (*postgressink.Sink, error) {
	return postgressink.NewFromPGXPool(w.pool, options...)
}

func (w *PGXPoolWrapper) QueryInt(query string) (int, error) {
	var n int
	err := w.pool.QueryRow(context.Background(), query).Scan(&n)

	return n, err
}

func (w *PGXPoolWrapper) Exec(query string) error {
	_, err := w.pool.Exec(context.Background(), query)
	return err
}

func (w *PGXPoolWrapper) Close() {
	w.pool.Close()
}

// SQLDBWrapper wraps sql.DB-based testing.
type SQLDBWrapper struct {
	db *sql.DB
}

func (w *SQLDBWrapper) NewSink(options ...postgressink.Option) (*postgressink.Sink, error) {
	return postgressink.NewFromSQLDB(w.db, options...)
}

func (w *SQLDBWrapper) QueryInt(query string) (int, error) {
	var n int
	err := w.db.QueryRow(query).Scan(&n)

	return n, err
}

func (w *SQLDBWrapper) Exec(query string) error {
	_, err := w.db.Exec(query)
	return err
}

func (w *SQLDBWrapper) Close() {
	_ = w.db.Close() // ignore error
}

// SQLXWrapper wraps sqlx.DB-based testing.
type SQLXWrapper struct {
	db *sqlx.DB
}

func (w *SQLXWrapper) NewSink(options ...postgressink.Option) (*postgressink.Sink, error) {
	return postgressink.NewFromSQLX(w.db, options...)
}

func (w *SQLXWrapper) QueryInt(query string) (int, error) {
	var n int
	err := w.db.Get(&n, query)

	return n, err
}

func (w *SQLXWrapper) Exec(query string) error {
	_, err := w.db.Exec(query)
	return err
}

func (w *SQLXWrapper) Close() {
	_ = w.db.Close() // ignore error
}

// CreateWrapperWithTestConfig connects with the adapter named by ADAPTER_TYPE.
// The test is skipped unless PERSONS_POSTGRES_DSN points to a database.
func CreateWrapperWithTestConfig(t testing.TB) Wrapper {
	t.Helper()

	dsn := os.Getenv(config.EnvPostgresDSN)
	if dsn == "" {
		t.Skipf("%s is not set", config.EnvPostgresDSN)
	}

	ctx := context.Background()
	adapterType := strings.ToLower(os.Getenv(EnvAdapterType))

	switch adapterType {
	case typePGXPool, "":
		pool, err := config.PostgresPGXPool(ctx, dsn, testWriters)
		require.NoError(t, err, "error connecting to DB pool in test setup")

		return &PGXPoolWrapper{pool: pool}

	case typeSQLDB:
		db, err := config.PostgresSQLDB(ctx, dsn, testWriters)
		require.NoError(t, err, "error connecting to DB in test setup")

		return &SQLDBWrapper{db: db}

	case typeSQLX:
		db, err := config.PostgresSQLX(ctx, dsn, testWriters)
		require.NoError(t, err, "error connecting to DB in test setup")

		return &SQLXWrapper{db: db}

	default:
		panic(fmt.Sprintf("unsupported wrapper type from env: %s", adapterType))
	}
}

// UniqueSchema returns a fresh schema name and drops the schema when the test ends.
func UniqueSchema(t testing.TB, wrapper Wrapper) string {
	t.Helper()

	schema := "persons_test_" + strings.ReplaceAll(uuid.NewString()[:8], "-", "")

	t.Cleanup(func() {
		err := wrapper.Exec("DROP SCHEMA IF EXISTS " + pgx.Identifier{schema}.Sanitize() + " CASCADE")
		require.NoError(t, err, "error dropping the test schema")
	})

	return schema
}

// CountRows counts the rows of a table in schema.
func CountRows(t testing.TB, wrapper Wrapper, schema, table string) int {
	t.Helper()

	n, err := wrapper.QueryInt("SELECT COUNT(*) FROM " + pgx.Identifier{schema, table}.Sanitize())
	require.NoError(t, err, "error counting rows of %s.%s", schema, table)

	return n
}
