// Package config provides connection and observability helpers for the generate command.
//
// It builds PostgreSQL connection pools for the three drivers the PostgreSQL sink accepts
// (pgxpool.Pool, sql.DB, sqlx.DB) and in-process OpenTelemetry providers whose metrics are
// reported through slog when a run finishes.
package config
