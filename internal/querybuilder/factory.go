package querybuilder

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/ROCm/roc-optiq-sub003/infrastructure/cache"
	"github.com/ROCm/roc-optiq-sub003/infrastructure/metrics"
)

// rowLog is a dedicated, low-overhead logger for this package's query
// dispatch hot path: one line per built statement, at debug level, so
// it costs nothing when disabled but can be turned on to see exactly
// what SQL a fetch turned into without touching the main structured
// logger used everywhere else in this engine.
var rowLog = zerolog.New(os.Stderr).Level(zerolog.Disabled).With().Str("component", "querybuilder").Logger()

// SetRowTraceEnabled turns the per-statement hot-path trace on or off.
// Off by default; a caller diagnosing a slow fetch turns it on for the
// duration of one request.
func SetRowTraceEnabled(enabled bool) {
	if enabled {
		rowLog = rowLog.Level(zerolog.DebugLevel)
	} else {
		rowLog = rowLog.Level(zerolog.Disabled)
	}
}

func logBuilt(family string, version int, sql string) {
	rowLog.Debug().Str("family", family).Int("version", version).Str("sql", sql).Msg("built query")
}

// Operation identifies one of the event operation kinds the query
// builder dispatches queries for.
type Operation int

const (
	OpRegion Operation = iota
	OpRegionSample
	OpDispatch
	OpMemAlloc
	OpMemCopy
	OpPmcPerDispatch
	OpPmcSample
)

// Table returns the backing relational table name for op, exported so
// callers composing ad hoc queries outside the factory's own methods
// (e.g. the table engine's summary-mode aggregation) can still target
// the right table.
func (op Operation) Table() string {
	return op.table()
}

func (op Operation) table() string {
	switch op {
	case OpRegion:
		return "rocpd_region"
	case OpRegionSample:
		return "rocpd_region_sample"
	case OpDispatch:
		return "rocpd_kernel_dispatch"
	case OpMemAlloc:
		return "rocpd_memory_alloc"
	case OpMemCopy:
		return "rocpd_memory_copy"
	case OpPmcPerDispatch:
		return "rocpd_counter_dispatch"
	case OpPmcSample:
		return "rocpd_counter_sample"
	default:
		return "rocpd_region"
	}
}

// versionThreshold is the stored schema version at or above which the
// relational rocpd_track/rocpd_timestamp join form is used; below it,
// the same columns are read inline.
const versionThreshold = 4

// Factory emits SELECT statements for each query family, gated on the
// database's stored schema version. Both branches bind to the same
// column aliases so downstream code is uniform.
type Factory struct {
	metrics *metrics.Metrics
	plans   *cache.SchemaCache
}

func NewFactory(m *metrics.Metrics) *Factory {
	return &Factory{
		metrics: m,
		plans:   cache.NewSchemaCache(cache.DefaultConfig()),
	}
}

// OnSchemaVersionChange drops every cached query plan. Call it when a
// controller reopens its database against a different schema version
// (e.g. swapping in a multinode descriptor), since a plan keyed by the
// wrong version would emit SQL for the wrong column layout.
func (f *Factory) OnSchemaVersionChange() {
	f.plans.OnSchemaVersionChange()
}

func (f *Factory) recordFallback(family string, version int) {
	if f.metrics != nil && version < versionThreshold {
		f.metrics.RecordVersionFallback("querybuilder", family)
	}
}

// TrackEnumeration emits the "unique (node, primary-id, secondary-id,
// category, operation) tuples" family.
func (f *Factory) TrackEnumeration(version int, op Operation) (string, []any) {
	planKey := fmt.Sprintf("track_enumeration:%d:%d", op, version)
	if cached, ok := f.plans.GetPlan(planKey); ok {
		rowLog.Debug().Str("family", "track_enumeration").Int("version", version).Msg("plan cache hit")
		return cached.(string), nil
	}

	f.recordFallback("track_enumeration", version)
	b := New(op.table() + " e")
	if version >= versionThreshold {
		b.Join("INNER JOIN", "rocpd_track t", "t.id = e.track_id").
			Select("t.node_id", AliasNodeID).
			Select("t.primary_id", AliasProcessID).
			Select("t.secondary_id", AliasThreadID).
			Select("t.category", "category").
			GroupBy("t.node_id").GroupBy("t.primary_id").GroupBy("t.secondary_id").GroupBy("t.category")
	} else {
		b.Select("e.node_id", AliasNodeID).
			Select("e.primary_id", AliasProcessID).
			Select("e.secondary_id", AliasThreadID).
			Select("e.category", "category").
			GroupBy("e.node_id").GroupBy("e.primary_id").GroupBy("e.secondary_id").GroupBy("e.category")
	}
	sql, _ := b.Build()
	f.plans.SetPlan(planKey, sql, time.Hour)
	logBuilt("track_enumeration", version, sql)
	return sql, nil
}

// StreamRegrouping emits the same events pivoted by (node, stream).
func (f *Factory) StreamRegrouping(version int, op Operation) (string, []any) {
	f.recordFallback("stream_regrouping", version)
	b := New(op.table() + " e")
	if version >= versionThreshold {
		b.Join("INNER JOIN", "rocpd_track t", "t.id = e.track_id").
			Select("t.node_id", AliasNodeID).
			Select("t.stream_id", AliasStreamID).
			GroupBy("t.node_id").GroupBy("t.stream_id")
	} else {
		b.Select("e.node_id", AliasNodeID).
			Select("e.stream_id", AliasStreamID).
			GroupBy("e.node_id").GroupBy("e.stream_id")
	}
	return b.Build()
}

// LevelSource emits ordered (start, end, id, addressing) rows for
// nesting-depth assignment, sorted start ascending, end
// descending so enclosing events come first.
func (f *Factory) LevelSource(version int, op Operation, trackID uint64) (string, []any) {
	f.recordFallback("level_source", version)
	b := New(op.table() + " e").
		Select("e.start_ts", AliasStartTs).
		Select("e.end_ts", AliasEndTs).
		Select("e.id", AliasEventID).
		Where("e.track_id = ?", trackID).
		OrderBy(AliasStartTs, false).
		OrderBy(AliasEndTs, true)
	return b.Build()
}

// Slice emits a time-ranged selection with attached level, bounded to
// the given track id set.
func (f *Factory) Slice(version int, op Operation, trackIDs []uint64, t0, t1 uint64) (string, []any) {
	f.recordFallback("slice", version)
	b := New(op.table() + " e").
		Select("e.id", AliasEventID).
		Select("e.start_ts", AliasStartTs).
		Select("e.end_ts", AliasEndTs).
		Select("e.name_id", AliasEventNameID).
		Select("e.category_id", AliasCategoryID).
		Select("e.level", AliasEventLevel).
		Where("e.end_ts >= ?", t0).
		Where("e.start_ts <= ?", t1)
	if len(trackIDs) > 0 {
		placeholders := make([]any, len(trackIDs))
		inClause := ""
		for i, id := range trackIDs {
			placeholders[i] = id
			if i > 0 {
				inClause += ", "
			}
			inClause += "?"
		}
		b.Where(fmt.Sprintf("e.track_id IN (%s)", inClause), placeholders...)
	}
	b.OrderBy(AliasStartTs, false)
	sql, args := b.Build()
	logBuilt("slice", version, sql)
	return sql, args
}

// TableColumns emits the user-visible columns plus service columns for
// routing, used by the table engine.
func (f *Factory) TableColumns(version int, op Operation) (string, []any) {
	f.recordFallback("table", version)
	b := New(op.table() + " e").
		Select("e.id", AliasEventID).
		Select("e.start_ts", AliasStartTs).
		Select("e.end_ts", AliasEndTs).
		Select("e.name_id", AliasEventNameID).
		Select("e.category_id", AliasCategoryID).
		Select("e.node_id", AliasNodeID).
		Select("e.track_id", "serviceTrackId")
	return b.Build()
}

// DataFlow emits bidirectional correlation rows via stack-id matches.
func (f *Factory) DataFlow(version int, op Operation, eventID uint64) (string, []any) {
	f.recordFallback("data_flow", version)
	b := New(op.table() + " e").
		Select("e.id", AliasEventID).
		Select("e.stack_id", "stackId").
		Where("e.stack_id = (SELECT stack_id FROM "+op.table()+" WHERE id = ?)", eventID).
		Where("e.id != ?", eventID)
	return b.Build()
}

// EssentialInfo emits a minimal addressing row for a single event by id.
func (f *Factory) EssentialInfo(version int, op Operation, eventID uint64) (string, []any) {
	f.recordFallback("essential_info", version)
	b := New(op.table()).
		Select("id", AliasEventID).
		Select("track_id", "trackId").
		Select("node_id", AliasNodeID).
		Where("id = ?", eventID).
		Limit(1)
	return b.Build()
}
