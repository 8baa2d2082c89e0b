package trace

import (
	"context"
	"sync"

	"github.com/ROCm/roc-optiq-sub003/internal/memmgr"
	"github.com/ROCm/roc-optiq-sub003/internal/result"
	"github.com/ROCm/roc-optiq-sub003/internal/storage"
	"github.com/ROCm/roc-optiq-sub003/internal/summary"
	"github.com/ROCm/roc-optiq-sub003/internal/table"
	"github.com/ROCm/roc-optiq-sub003/internal/topology"
)

// Trace is the root handle for one opened file: it owns a Timeline,
// every Track, the EventTable/SampleTable/SearchResultsTable, a
// Summary tree, a TopologyRoot, and a MemoryManager. Lifetime equals
// controller lifetime.
type Trace struct {
	mu sync.RWMutex

	dbs     []storage.DB // more than one entry for a multinode descriptor
	storage storage.Storage

	timeline *Timeline
	tracks   map[uint64]*Track

	eventTable         *table.Table
	sampleTable        *table.Table
	searchResultsTable *table.Table

	summary  *summary.Node
	topology *topology.Root
	mem      *memmgr.Manager

	schemaVersion int
	loaded        bool
}

// New constructs an empty Trace bound to the given storage collaborator
// and memory manager; Load populates it.
func New(st storage.Storage, mem *memmgr.Manager) *Trace {
	return &Trace{
		storage:  st,
		mem:      mem,
		timeline: NewTimeline(),
		tracks:   make(map[uint64]*Track),
		topology: topology.NewRoot(),
	}
}

func (t *Trace) Timeline() *Timeline         { return t.timeline }
func (t *Trace) Topology() *topology.Root    { return t.topology }
func (t *Trace) MemoryManager() *memmgr.Manager { return t.mem }

func (t *Trace) Track(id uint64) *Track {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.tracks[id]
}

func (t *Trace) AddTrack(tr *Track) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tracks[tr.ID()] = tr
}

func (t *Trace) SchemaVersion() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.schemaVersion
}

// CheckNodeSchemaHomogeneity verifies every node database in a
// multinode descriptor reports the same schema version: a multi-node
// trace whose nodes disagree is NotSupported. It's run once at bind
// time and again by the controller's periodic schema-drift check.
func (t *Trace) CheckNodeSchemaHomogeneity(ctx context.Context, dbs []storage.DB) (int, result.Result) {
	if len(dbs) == 0 {
		return 0, result.NotLoaded
	}

	first, err := dbs[0].SchemaVersion(ctx)
	if err != nil {
		return 0, result.UnknownError
	}

	for _, db := range dbs[1:] {
		v, err := db.SchemaVersion(ctx)
		if err != nil {
			return 0, result.UnknownError
		}
		if v != first {
			return 0, result.NotSupported
		}
	}

	return first, result.Success
}

// Bind attaches dbs as this trace's node databases after verifying
// schema homogeneity, recording the shared schema version for the
// query builder's version-gated dispatch.
func (t *Trace) Bind(ctx context.Context, dbs []storage.DB) result.Result {
	version, r := t.CheckNodeSchemaHomogeneity(ctx, dbs)
	if r != result.Success {
		return r
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.dbs = dbs
	t.schemaVersion = version
	return result.Success
}

func (t *Trace) DBs() []storage.DB {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]storage.DB, len(t.dbs))
	copy(out, t.dbs)
	return out
}

// SetEventTable, SetSampleTable, SetSearchResultsTable bind the
// backing table.Table the controller constructed for this trace during
// load.
func (t *Trace) SetEventTable(tbl *table.Table)         { t.mu.Lock(); t.eventTable = tbl; t.mu.Unlock() }
func (t *Trace) SetSampleTable(tbl *table.Table)        { t.mu.Lock(); t.sampleTable = tbl; t.mu.Unlock() }
func (t *Trace) SetSearchResultsTable(tbl *table.Table) { t.mu.Lock(); t.searchResultsTable = tbl; t.mu.Unlock() }

func (t *Trace) EventTable() *table.Table {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.eventTable
}

func (t *Trace) SampleTable() *table.Table {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sampleTable
}

func (t *Trace) SearchResultsTable() *table.Table {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.searchResultsTable
}

// Reset discards all partially-loaded state (tracks, timeline graphs,
// table signatures) without closing the underlying database
// connections, so a subsequent load attempt starts clean. Called when
// a load is cancelled mid-flight. It does not run
// CheckNodeSchemaHomogeneity.
func (t *Trace) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.timeline = NewTimeline()
	t.tracks = make(map[uint64]*Track)
	t.topology = topology.NewRoot()
	t.summary = nil
	if t.eventTable != nil {
		t.eventTable.Reset()
	}
	if t.sampleTable != nil {
		t.sampleTable.Reset()
	}
	if t.searchResultsTable != nil {
		t.searchResultsTable.Reset()
	}
	t.loaded = false
}

func (t *Trace) SetSummary(s *summary.Node) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.summary = s
}

func (t *Trace) Summary() *summary.Node {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.summary
}

func (t *Trace) MarkLoaded() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.loaded = true
}

func (t *Trace) Loaded() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.loaded
}
