// Package pg manages the PostgreSQL connection pool, embedded schema
// migrations, and error classification helpers shared by the storage layers.
package pg
