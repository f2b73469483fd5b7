// Package postgres provides PostgreSQL-backed implementations of the
// persistence interfaces defined in internal/store and internal/job. It
// handles query execution, error mapping to the store sentinel taxonomy,
// and data mapping between domain entities and database records.
package postgres
