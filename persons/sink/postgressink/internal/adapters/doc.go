// Package adapters provide database adapter implementations for the PostgreSQL sink.
//
// The sink accepts pgxpool.Pool, sql.DB and sqlx.DB connections. Every adapter offers plain
// query execution and transactions through the DBAdapter interface, so the sink never depends
// on a concrete driver.
package adapters
