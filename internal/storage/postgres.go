package storage

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/ROCm/roc-optiq-sub003/infrastructure/logging"
	"github.com/ROCm/roc-optiq-sub003/infrastructure/metrics"
	"github.com/ROCm/roc-optiq-sub003/infrastructure/resilience"
	"github.com/ROCm/roc-optiq-sub003/internal/data"
	"github.com/ROCm/roc-optiq-sub003/internal/job"
)

// postgresDB wraps a *sqlx.DB as a DB handle. A rocpd/rocprof trace
// materialized into Postgres tables is one concrete schema this core
// can sit behind; other storage backends implement the same Storage
// interface without touching the query/runtime layer.
type postgresDB struct {
	conn *sqlx.DB
	path string
}

func (d *postgresDB) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := d.conn.GetContext(ctx, &version, `SELECT version FROM rocpd_metadata LIMIT 1`)
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return version, nil
}

func (d *postgresDB) Close() error {
	return d.conn.Close()
}

// PostgresStorage implements Storage against a Postgres-materialized
// trace database via database/sql + lib/pq + sqlx, with circuit-
// breaker protected opens against momentarily unavailable databases
// (infrastructure/resilience).
type PostgresStorage struct {
	logger  *logging.Logger
	metrics *metrics.Metrics
	breaker *resilience.CircuitBreaker
}

// NewPostgresStorage constructs a PostgresStorage collaborator.
func NewPostgresStorage(logger *logging.Logger, m *metrics.Metrics) *PostgresStorage {
	cfg := resilience.DefaultConfig()
	cfg.MaxFailures = 5
	cfg.Timeout = 30 * time.Second
	return &PostgresStorage{
		logger:  logger,
		metrics: m,
		breaker: resilience.New(cfg),
	}
}

func (s *PostgresStorage) Open(ctx context.Context, path string, typeHint DatabaseTypeHint) (DB, error) {
	var db *sqlx.DB
	err := s.breaker.Execute(ctx, func() error {
		var openErr error
		db, openErr = sqlx.ConnectContext(ctx, "postgres", path)
		return openErr
	})
	if err != nil {
		return nil, fmt.Errorf("open trace database: %w", err)
	}
	return &postgresDB{conn: db, path: path}, nil
}

// IdentifyType sniffs path's schema table names. This
// reference adapter checks for the presence of rocpd_* vs rocprof_*
// tables; a real deployment's storage layer can instead sniff file
// magic bytes before ever opening a connection.
func (s *PostgresStorage) IdentifyType(ctx context.Context, path string) (DatabaseTypeHint, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", path)
	if err != nil {
		return Autodetect, fmt.Errorf("identify type: %w", err)
	}
	defer db.Close()

	var hasRocpd, hasRocprof bool
	_ = db.GetContext(ctx, &hasRocpd, `SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'rocpd_string')`)
	_ = db.GetContext(ctx, &hasRocprof, `SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'rocprof_string')`)

	switch {
	case hasRocpd:
		return RocpdSqlite, nil
	case hasRocprof:
		return RocprofSqlite, nil
	default:
		return Autodetect, nil
	}
}

func (s *PostgresStorage) ReadMetadataAsync(ctx context.Context, dbh DB) *job.Future {
	pg := dbh.(*postgresDB)
	future := job.NewFuture()

	go func() {
		start := time.Now()
		rows, err := pg.conn.QueryxContext(ctx, `SELECT node_id, name, kind FROM rocpd_topology_entry`)
		if err != nil {
			s.recordQuery("read_metadata", err, time.Since(start))
			future.ResolveFailure(classifyDBError(err))
			return
		}
		defer rows.Close()

		count := 0
		for rows.Next() {
			if future.IsCancelled() {
				future.ResolveCancelled()
				return
			}
			count++
		}
		s.recordQuery("read_metadata", rows.Err(), time.Since(start))
		if rows.Err() != nil {
			future.ResolveFailure(classifyDBError(rows.Err()))
			return
		}
		future.ResolveSuccess(data.NewUInt64(uint64(count)))
	}()

	return future
}

func (s *PostgresStorage) ExecuteQueryAsync(ctx context.Context, dbh DB, sqlText string, args []any, description string) (*job.Future, <-chan *Table) {
	pg := dbh.(*postgresDB)
	future := job.NewFuture()
	out := make(chan *Table, 1)

	go func() {
		defer close(out)
		start := time.Now()

		rows, err := pg.conn.QueryxContext(ctx, sqlText, args...)
		if err != nil {
			s.recordQuery(description, err, time.Since(start))
			if s.logger != nil {
				s.logger.LogStorageQuery(ctx, description, time.Since(start), err)
			}
			future.ResolveFailure(classifyDBError(err))
			return
		}
		defer rows.Close()

		cols, err := rows.Columns()
		if err != nil {
			future.ResolveFailure(UnknownErrorResult())
			return
		}

		table := &Table{Columns: cols}
		for rows.Next() {
			if future.IsCancelled() {
				future.ResolveCancelled()
				return
			}
			vals, err := rows.SliceScan()
			if err != nil {
				future.ResolveFailure(classifyDBError(err))
				return
			}
			table.Rows = append(table.Rows, vals)
		}

		s.recordQuery(description, rows.Err(), time.Since(start))
		if s.logger != nil {
			s.logger.LogStorageQuery(ctx, description, time.Since(start), rows.Err())
		}
		if rows.Err() != nil {
			future.ResolveFailure(classifyDBError(rows.Err()))
			return
		}

		out <- table
		future.ResolveSuccess(data.NewUInt64(uint64(len(table.Rows))))
	}()

	return future, out
}

func (s *PostgresStorage) ExportTableCSVAsync(ctx context.Context, dbh DB, sqlText string, args []any, path string) *job.Future {
	pg := dbh.(*postgresDB)
	future := job.NewFuture()

	go func() {
		rows, err := pg.conn.QueryxContext(ctx, sqlText, args...)
		if err != nil {
			future.ResolveFailure(classifyDBError(err))
			return
		}
		defer rows.Close()

		cols, err := rows.Columns()
		if err != nil {
			future.ResolveFailure(UnknownErrorResult())
			return
		}

		f, err := os.Create(path)
		if err != nil {
			future.ResolveFailure(UnknownErrorResult())
			return
		}
		defer f.Close()

		// UTF-8, "\n" line separator, comma delimiter, header row of
		// column aliases.
		w := csv.NewWriter(f)
		w.UseCRLF = false
		if err := w.Write(cols); err != nil {
			future.ResolveFailure(UnknownErrorResult())
			return
		}

		for rows.Next() {
			if future.IsCancelled() {
				future.ResolveCancelled()
				return
			}
			vals, err := rows.SliceScan()
			if err != nil {
				future.ResolveFailure(classifyDBError(err))
				return
			}
			record := make([]string, len(vals))
			for i, v := range vals {
				record[i] = formatCSVValue(v)
			}
			if err := w.Write(record); err != nil {
				future.ResolveFailure(UnknownErrorResult())
				return
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			future.ResolveFailure(UnknownErrorResult())
			return
		}

		future.ResolveSuccess(data.NewString(path))
	}()

	return future
}

func (s *PostgresStorage) TrimSaveAsync(ctx context.Context, dbh DB, startTS, endTS uint64, outPath string) *job.Future {
	pg := dbh.(*postgresDB)
	future := job.NewFuture()

	go func() {
		_, err := pg.conn.ExecContext(ctx,
			`SELECT rocpd_trim_save($1, $2, $3)`, startTS, endTS, outPath)
		if err != nil {
			future.ResolveFailure(classifyDBError(err))
			return
		}
		future.ResolveSuccess(data.NewString(outPath))
	}()

	return future
}

func (s *PostgresStorage) recordQuery(operation string, err error, d time.Duration) {
	if s.metrics == nil {
		return
	}
	status := "ok"
	if err != nil && err != sql.ErrNoRows {
		status = "error"
	}
	s.metrics.RecordStorageQuery("storage", operation, status, d)
}

func formatCSVValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(t)
	case string:
		return t
	case time.Time:
		return fmt.Sprintf("%d", t.UnixNano())
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", t))
	}
}
