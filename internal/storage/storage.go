// Package storage defines the Storage interface collaborator: an
// opaque trace/database handle exposing async reads that produce
// futures, kept behind an interface so the query/runtime core never
// speaks SQL dialect directly.
package storage

import (
	"context"

	"github.com/ROCm/roc-optiq-sub003/internal/job"
)

// DatabaseTypeHint identifies the on-disk schema family a trace file
// was produced by.
type DatabaseTypeHint int

const (
	Autodetect DatabaseTypeHint = iota
	RocpdSqlite
	RocprofSqlite
	RocprofMultinode
	Compute
)

// DB is an opaque handle to an opened trace database. Concrete
// implementations wrap a *sql.DB (or a set of them, for multinode
// descriptors) but the core only ever holds this interface.
type DB interface {
	// SchemaVersion returns the stored schema version, used by the
	// query factory's version-gated dispatch.
	SchemaVersion(ctx context.Context) (int, error)
	// Close releases underlying connections.
	Close() error
}

// Table is the result of an executed query: enumerable columns and
// rows.
type Table struct {
	Columns []string
	Rows    [][]any
}

// Row returns row i, or nil if out of range.
func (t *Table) Row(i int) []any {
	if i < 0 || i >= len(t.Rows) {
		return nil
	}
	return t.Rows[i]
}

// Storage is the abstract collaborator between the query/runtime core
// and a trace database. Every _async operation returns a *job.Future
// that completes exactly once; the core registers it as a dependent
// future on its own controller future so cancellation propagates.
type Storage interface {
	// Open opens path, using typeHint to skip autodetection when known.
	Open(ctx context.Context, path string, typeHint DatabaseTypeHint) (DB, error)
	// IdentifyType sniffs path's magic and schema table names.
	IdentifyType(ctx context.Context, path string) (DatabaseTypeHint, error)

	// ReadMetadataAsync populates agents, queues, streams, processes,
	// threads, counters, and the track inventory. The returned future
	// resolves Success/UnknownError/Cancelled.
	ReadMetadataAsync(ctx context.Context, db DB) *job.Future

	// ExecuteQueryAsync runs sql (already dialect-rendered by the query
	// builder/factory), sends the resulting Table on the returned
	// channel and resolves the future with its row count, or an error
	// Result on failure.
	ExecuteQueryAsync(ctx context.Context, db DB, sql string, args []any, description string) (*job.Future, <-chan *Table)

	// ExportTableCSVAsync runs sql and streams the result to path as
	// CSV.
	ExportTableCSVAsync(ctx context.Context, db DB, sql string, args []any, path string) *job.Future

	// TrimSaveAsync produces a new storage file containing only rows
	// whose [start,end] intersects [startTS,endTS], preserving schema.
	TrimSaveAsync(ctx context.Context, db DB, startTS, endTS uint64, outPath string) *job.Future
}
