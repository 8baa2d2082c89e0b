// Package table implements the Table engine: query-signature caching,
// paginated row fetch, CSV export, and summary-mode aggregation.
package table

import (
	"context"
	"fmt"

	"github.com/ROCm/roc-optiq-sub003/internal/data"
	"github.com/ROCm/roc-optiq-sub003/internal/job"
	"github.com/ROCm/roc-optiq-sub003/internal/querybuilder"
	"github.com/ROCm/roc-optiq-sub003/internal/result"
	"github.com/ROCm/roc-optiq-sub003/internal/storage"
)

// Arguments is the unpacked form of the generic ABI Arguments handle a
// caller passes to Setup: every field the pending-query signature
// needs, already typed.
type Arguments struct {
	Signature
}

// Table is the Table handle kind: enumerable columns, rows transcribed
// as Array-of-String Datas, and the cached signature that lets a
// repeat Setup call skip re-resolving column layout.
type Table struct {
	data.BaseHandle

	db      storage.DB
	storage storage.Storage
	factory *querybuilder.Factory
	version int
	op      querybuilder.Operation

	signature  Signature
	hasCache   bool
	columns    []string
	numRows    int
	pendingSQL string
	pendingArg []any
}

// New constructs a Table bound to a storage connection and query
// family. version is the schema version read once at trace open.
func New(db storage.DB, st storage.Storage, factory *querybuilder.Factory, version int, op querybuilder.Operation) *Table {
	return &Table{
		BaseHandle: data.NewBaseHandle(data.KindTable),
		db:         db,
		storage:    st,
		factory:    factory,
		version:    version,
		op:         op,
	}
}

func (t *Table) GetUInt64(prop data.Property, index int) (uint64, error) {
	switch prop {
	case data.TableColumnCount:
		return uint64(len(t.columns)), nil
	case data.TableRowCount:
		return uint64(t.numRows), nil
	}
	return t.BaseHandle.GetUInt64(prop, index)
}

func (t *Table) GetString(prop data.Property, index int) (string, error) {
	if prop == data.TableColumnName {
		if err := data.CheckIndex(prop, index, len(t.columns)); err != nil {
			return "", err
		}
		return t.columns[index], nil
	}
	return t.BaseHandle.GetString(prop, index)
}

// Setup unpacks args into this table's signature. If the signature
// equals the cached one, it clears rows only and resolves Success,
// preserving column layout; otherwise it resets and issues a count
// query to learn num_rows and columns.
func (t *Table) Setup(ctx context.Context, args Arguments, future *job.Future) {
	if t.hasCache && t.signature.Equal(args.Signature) {
		t.numRows = 0
		future.ResolveSuccess(data.NewUInt64(0))
		return
	}

	t.Reset()
	t.signature = args.Signature
	t.hasCache = true

	sql, bind := t.buildQuery(args.Signature)
	countSQL := fmt.Sprintf("SELECT COUNT(*) AS rowCount FROM (%s) AS counted", sql)

	execFuture, resultCh := t.storage.ExecuteQueryAsync(ctx, t.db, countSQL, bind, "table.setup.count")
	go func() {
		execFuture.Wait(0)
		if future.IsCancelled() {
			t.Reset()
			future.ResolveCancelled()
			return
		}
		tbl := <-resultCh
		if tbl == nil || len(tbl.Rows) == 0 {
			future.ResolveFailure(result.UnknownError)
			return
		}
		n, _ := tbl.Row(0)[0].(int64)
		t.numRows = int(n)
		t.columns = countColumns(args.Signature)
		t.pendingSQL, t.pendingArg = sql, bind
		future.ResolveSuccess(data.NewUInt64(uint64(t.numRows)))
	}()
}

// SetupStreamPivot is the pivot-by-stream variant of Setup: the query
// groups by (node, stream) instead of by event, producing one row per
// stream rather than one row per event, for the per-queue summary view.
func (t *Table) SetupStreamPivot(ctx context.Context, args Arguments, future *job.Future) {
	args.Signature.Pivot = true
	t.Setup(ctx, args, future)
}

func (t *Table) buildQuery(sig Signature) (string, []any) {
	if sig.Pivot {
		return t.factory.StreamRegrouping(t.version, t.op)
	}
	if sig.Summary {
		return t.summaryQuery(sig)
	}
	sql, args := t.factory.TableColumns(t.version, t.op)
	return sql, args
}

// summaryQuery replaces row-level SELECT with an aggregation: for
// sample queries, (avg, min, max) over counter_value grouped by
// counter_id; for event queries, (count, avg, min, max, total)
// duration grouped by name.
func (t *Table) summaryQuery(sig Signature) (string, []any) {
	switch t.op {
	case querybuilder.OpPmcPerDispatch, querybuilder.OpPmcSample:
		b := querybuilder.New("rocpd_counter_sample e").
			Select("e.counter_id", "counterId").
			Select("AVG(e.value)", "avgValue").
			Select("MIN(e.value)", "minValue").
			Select("MAX(e.value)", "maxValue").
			GroupBy("e.counter_id")
		return b.Build()
	default:
		b := querybuilder.New(t.op.Table() + " e").
			Select("e.name_id", "nameId").
			Select("COUNT(*)", "count").
			Select("AVG(e.end_ts - e.start_ts)", "avgDuration").
			Select("MIN(e.end_ts - e.start_ts)", "minDuration").
			Select("MAX(e.end_ts - e.start_ts)", "maxDuration").
			Select("SUM(e.end_ts - e.start_ts)", "totalDuration").
			GroupBy("e.name_id")
		return b.Build()
	}
}

func countColumns(sig Signature) []string {
	if sig.Pivot {
		return []string{"nodeId", "streamId"}
	}
	if sig.Summary {
		return []string{"nameId", "count", "avgDuration", "minDuration", "maxDuration", "totalDuration"}
	}
	return []string{"eventId", "startTs", "endTs", "nameId", "categoryId", "nodeId", "serviceTrackId"}
}

// Fetch issues a page query bounded by the current signature,
// transcribes rows as Arrays of String-typed Datas, and returns them
// in query order.
func (t *Table) Fetch(ctx context.Context, index, count int, future *job.Future) ([][]data.Data, error) {
	if t.pendingSQL == "" {
		return nil, fmt.Errorf("table not set up")
	}

	pagedSQL := fmt.Sprintf("%s LIMIT %d OFFSET %d", t.pendingSQL, count, index)
	execFuture, resultCh := t.storage.ExecuteQueryAsync(ctx, t.db, pagedSQL, t.pendingArg, "table.fetch.page")
	execFuture.Wait(0)

	if future.IsCancelled() {
		future.ResolveCancelled()
		return nil, nil
	}

	tbl := <-resultCh
	if tbl == nil {
		future.ResolveFailure(result.UnknownError)
		return nil, nil
	}

	rows := make([][]data.Data, 0, len(tbl.Rows))
	for _, raw := range tbl.Rows {
		if future.IsCancelled() {
			future.ResolveCancelled()
			return nil, nil
		}
		row := make([]data.Data, len(raw))
		for i, v := range raw {
			row[i] = data.NewString(fmt.Sprintf("%v", v))
		}
		rows = append(rows, row)
	}

	future.ResolveSuccess(data.NewUInt64(uint64(len(rows))))
	return rows, nil
}

// ExportCSV composes the full-range table query for the current
// signature and invokes the storage layer's CSV exporter.
func (t *Table) ExportCSV(ctx context.Context, path string, future *job.Future) {
	if t.pendingSQL == "" {
		future.ResolveFailure(result.InvalidArgument)
		return
	}
	exportFuture := t.storage.ExportTableCSVAsync(ctx, t.db, t.pendingSQL, t.pendingArg, path)
	go func() {
		exportFuture.Wait(0)
		if exportFuture.State() != job.StateSuccess {
			future.ResolveFailure(result.UnknownError)
			return
		}
		future.ResolveSuccess(exportFuture.Value())
	}()
}

// Reset discards column layout and cached signature. Called on
// cancellation mid-Setup so a subsequent Setup doesn't see a half-
// filled signature.
func (t *Table) Reset() {
	t.columns = nil
	t.numRows = 0
	t.pendingSQL = ""
	t.pendingArg = nil
	t.hasCache = false
}
