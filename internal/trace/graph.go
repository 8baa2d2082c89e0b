package trace

import (
	"context"
	"sort"
	"sync"

	"github.com/ROCm/roc-optiq-sub003/internal/data"
	"github.com/ROCm/roc-optiq-sub003/internal/event"
	"github.com/ROCm/roc-optiq-sub003/internal/job"
	"github.com/ROCm/roc-optiq-sub003/internal/level"
	"github.com/ROCm/roc-optiq-sub003/internal/querybuilder"
	"github.com/ROCm/roc-optiq-sub003/internal/result"
	"github.com/ROCm/roc-optiq-sub003/internal/storage"
)

// RenderHint tells a consumer how to draw a Graph's events: as a flame
// graph (nested event rectangles) or a line (sample series).
type RenderHint int

const (
	RenderFlame RenderHint = iota
	RenderLine
)

// AggregateOp selects pointwise min or max when a counter track's
// samples are collapsed by the LOD engine.
type AggregateOp int

const (
	AggregateMin AggregateOp = iota
	AggregateMax
)

// segment is one cached [start,end) window of already-fetched real
// events for this graph's track, keyed by the window bounds.
type segment struct {
	start, end uint64
	events     []*event.Event
}

func (s segment) covers(t0, t1 uint64) bool {
	return s.start <= t0 && s.end >= t1
}

// Graph is bound to a single Track with a render hint; it owns its own
// cached real-event segments so repeated fetches over overlapping
// windows don't always re-query storage.
type Graph struct {
	data.BaseHandle

	track   *Track
	hint    RenderHint
	aggOp   AggregateOp
	factory *querybuilder.Factory
	st      storage.Storage
	db      storage.DB
	version int
	op      querybuilder.Operation

	mu          sync.Mutex
	segments    []segment
	levels      map[uint64]int // event id -> nesting level, whole track, lazily loaded
	levelsTried bool
}

// NewGraph constructs a Graph over track, fetched through st/db using
// factory-built queries for op.
func NewGraph(track *Track, hint RenderHint, st storage.Storage, db storage.DB, factory *querybuilder.Factory, version int, op querybuilder.Operation) *Graph {
	return &Graph{
		BaseHandle: data.NewBaseHandle(data.KindGraph),
		track:      track,
		hint:       hint,
		factory:    factory,
		st:         st,
		db:         db,
		version:    version,
		op:         op,
	}
}

func (g *Graph) GetUInt64(prop data.Property, index int) (uint64, error) {
	if prop == data.GraphRenderHint {
		return uint64(g.hint), nil
	}
	return g.BaseHandle.GetUInt64(prop, index)
}

func (g *Graph) GetObject(prop data.Property, index int) (data.Handle, error) {
	if prop == data.GraphTrack {
		return g.track, nil
	}
	return g.BaseHandle.GetObject(prop, index)
}

// cachedSegment returns the real events covering [t0,t1] from the
// segment cache, or nil if no cached segment spans the window.
func (g *Graph) cachedSegment(t0, t1 uint64) []*event.Event {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, s := range g.segments {
		if s.covers(t0, t1) {
			return sliceWindow(s.events, t0, t1)
		}
	}
	return nil
}

func (g *Graph) cacheSegment(t0, t1 uint64, events []*event.Event) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.segments = append(g.segments, segment{start: t0, end: t1, events: events})
}

func sliceWindow(events []*event.Event, t0, t1 uint64) []*event.Event {
	out := make([]*event.Event, 0, len(events))
	for _, e := range events {
		if e.End() >= t0 && e.Start() <= t1 {
			out = append(out, e)
		}
	}
	return out
}

// fetchReal returns the real events in [t0,t1], issuing a slice query
// through the factory if no cached segment already spans the window.
func (g *Graph) fetchReal(ctx context.Context, t0, t1 uint64, future *job.Future) ([]*event.Event, error) {
	if cached := g.cachedSegment(t0, t1); cached != nil {
		return cached, nil
	}

	sql, args := g.factory.Slice(g.version, g.op, []uint64{g.track.ID()}, t0, t1)
	execFuture, resultCh := g.st.ExecuteQueryAsync(ctx, g.db, sql, args, "graph.fetch.slice")

	dependentID := execFuture.ID
	future.AddDependentFuture(dependentID, execFuture)
	defer future.RemoveDependentFuture(dependentID)

	execFuture.Wait(0)
	if future.IsCancelled() {
		return nil, nil
	}

	tbl := <-resultCh
	if tbl == nil {
		return nil, result.ToError(result.UnknownError, "graph fetch: slice query failed")
	}

	events := make([]*event.Event, 0, len(tbl.Rows))
	for _, row := range tbl.Rows {
		e := rowToEvent(row)
		if e != nil {
			events = append(events, e)
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Start() < events[j].Start() })

	if g.hint == RenderFlame {
		g.applyLevels(ctx, events)
	}

	g.cacheSegment(t0, t1, events)
	return events, nil
}

// ensureLevels loads and caches the whole track's nesting-depth
// assignment via the factory's LevelSource query, computed once per
// Graph rather than per fetched window: a window-scoped Assign would
// give an event whose true containing ancestor starts outside [t0,t1]
// the wrong depth, since Assign only sees what's in front of it. A
// LevelSource failure is non-fatal -- the caller falls back to a
// windowed Assign over just the fetched events.
func (g *Graph) ensureLevels(ctx context.Context) {
	g.mu.Lock()
	tried := g.levelsTried
	g.mu.Unlock()
	if tried {
		return
	}

	sql, args := g.factory.LevelSource(g.version, g.op, g.track.ID())
	execFuture, resultCh := g.st.ExecuteQueryAsync(ctx, g.db, sql, args, "graph.levels.source")
	execFuture.Wait(0)
	tbl := <-resultCh

	g.mu.Lock()
	defer g.mu.Unlock()
	g.levelsTried = true
	if tbl == nil {
		return
	}

	intervals := make([]level.Interval, 0, len(tbl.Rows))
	for _, row := range tbl.Rows {
		if len(row) < 3 {
			continue
		}
		intervals = append(intervals, level.Interval{
			Start: uint64OfAny(row[0]),
			End:   uint64OfAny(row[1]),
			ID:    uint64OfAny(row[2]),
		})
	}
	g.levels = level.AssignByID(intervals)
}

// applyLevels sets each event's nesting level from the whole-track
// LevelSource assignment, falling back to a windowed Assign over just
// events if LevelSource never produced a usable result.
func (g *Graph) applyLevels(ctx context.Context, events []*event.Event) {
	g.ensureLevels(ctx)

	g.mu.Lock()
	levels := g.levels
	g.mu.Unlock()

	if len(levels) == 0 {
		assignLevelsWindowed(events)
		return
	}
	for _, e := range events {
		if lvl, ok := levels[e.ID()]; ok {
			e.SetLevel(lvl)
		}
	}
}

// assignLevelsWindowed fills in each event's nesting depth from just
// the fetched window, the fallback path when LevelSource can't
// produce a whole-track assignment.
func assignLevelsWindowed(events []*event.Event) {
	intervals := make([]level.Interval, len(events))
	byID := make(map[uint64]*event.Event, len(events))
	for i, e := range events {
		intervals[i] = level.Interval{ID: e.ID(), Start: e.Start(), End: e.End()}
		byID[e.ID()] = e
	}
	for _, a := range level.Assign(intervals) {
		if e := byID[a.ID]; e != nil {
			e.SetLevel(a.Level)
		}
	}
}

func uint64OfAny(v any) uint64 {
	switch n := v.(type) {
	case int64:
		return uint64(n)
	case uint64:
		return n
	default:
		return 0
	}
}

func rowToEvent(row []any) *event.Event {
	get := func(i int) uint64 {
		if i >= len(row) || row[i] == nil {
			return 0
		}
		switch v := row[i].(type) {
		case int64:
			return uint64(v)
		case uint64:
			return v
		default:
			return 0
		}
	}
	// Column order matches querybuilder.Factory.Slice's Select calls:
	// eventId, startTs, endTs, eventNameId, categoryId, eventLevel.
	if len(row) < 5 {
		return nil
	}
	return event.New(get(0), get(1), get(2), get(3), get(4), 0)
}

// Fetch implements the graph-fetch algorithm: choose an
// LOD tier from pixelResolution, return real events when the window
// already fits one event per pixel, otherwise synthesize aggregated
// events by merging adjacent real events whose gap and resulting
// duration fall under this tier's thresholds.
func (g *Graph) Fetch(ctx context.Context, t0, t1 uint64, pixelResolution int, future *job.Future) ([]*event.Event, error) {
	real, err := g.fetchReal(ctx, t0, t1, future)
	if err != nil {
		future.ResolveFailure(result.FromError(err))
		return nil, err
	}
	if future.IsCancelled() {
		future.ResolveCancelled()
		return nil, nil
	}

	if g.hint == RenderLine {
		lod := lodCounterSamples(real, t0, t1, pixelResolution, g.aggOp)
		future.ResolveSuccess(data.NewUInt64(uint64(len(lod))))
		return lod, nil
	}

	lod := lodMergeEvents(real, t0, t1, pixelResolution)
	future.ResolveSuccess(data.NewUInt64(uint64(len(lod))))
	return lod, nil
}

// FetchTrack is the track-fetch variant: same window lookup, no pixel
// budgeting, always real events.
func (g *Graph) FetchTrack(ctx context.Context, t0, t1 uint64, future *job.Future) ([]*event.Event, error) {
	real, err := g.fetchReal(ctx, t0, t1, future)
	if err != nil {
		future.ResolveFailure(result.FromError(err))
		return nil, err
	}
	if future.IsCancelled() {
		future.ResolveCancelled()
		return nil, nil
	}
	future.ResolveSuccess(data.NewUInt64(uint64(len(real))))
	return real, nil
}

// lodMergeEvents implements the event-track half of the LOD algorithm.
// span/k <= pixelResolution picks the bucket width k = ceil(span /
// pixelResolution); adjacent events merge when the gap between them is
// under the bucket width (G_k) and the resulting merged duration is
// under twice the bucket width (D_k). Both thresholds grow with k, as
// required: a coarser tier (bigger bucket) merges more aggressively.
func lodMergeEvents(events []*event.Event, t0, t1 uint64, pixelResolution int) []*event.Event {
	if pixelResolution <= 0 || len(events) == 0 {
		return events
	}
	span := t1 - t0
	bucketWidth := (span + uint64(pixelResolution) - 1) / uint64(pixelResolution)
	if bucketWidth == 0 {
		// k = 0 only for an empty window: return real events unmodified.
		return events
	}

	gK := bucketWidth
	dK := bucketWidth * 2

	var out []*event.Event
	var curStart, curEnd uint64
	var curCount int
	var curFirst *event.Event
	haveCurrent := false

	flush := func() {
		if !haveCurrent {
			return
		}
		if curCount == 1 {
			// A group of one real event merges with nothing; hand it
			// back unchanged instead of a nameless synthetic stand-in.
			out = append(out, curFirst)
		} else {
			out = append(out, event.NewSynthetic(curStart, curStart, curEnd, curCount))
		}
		haveCurrent = false
	}

	for _, e := range events {
		if !haveCurrent {
			curStart, curEnd, curCount, curFirst, haveCurrent = e.Start(), e.End(), 1, e, true
			continue
		}
		gap := int64(e.Start()) - int64(curEnd)
		mergedDuration := e.End() - curStart
		if gap >= 0 && uint64(gap) < gK && mergedDuration < dK {
			curEnd = e.End()
			curCount++
			continue
		}
		flush()
		curStart, curEnd, curCount, curFirst, haveCurrent = e.Start(), e.End(), 1, e, true
	}
	flush()

	return out
}

// lodCounterSamples implements the sample-track half: pointwise min
// (or max) aggregation over each merged window instead of duration
// merging.
func lodCounterSamples(events []*event.Event, t0, t1 uint64, pixelResolution int, op AggregateOp) []*event.Event {
	if pixelResolution <= 0 || len(events) == 0 {
		return events
	}
	span := t1 - t0
	bucketWidth := span / uint64(pixelResolution)
	if bucketWidth == 0 {
		return events
	}

	buckets := make(map[uint64]*event.Event)
	var order []uint64
	for _, e := range events {
		bucket := (e.Start() - t0) / bucketWidth
		existing, ok := buckets[bucket]
		if !ok {
			buckets[bucket] = e
			order = append(order, bucket)
			continue
		}
		if op == AggregateMin && e.End() < existing.End() {
			buckets[bucket] = e
		} else if op == AggregateMax && e.End() > existing.End() {
			buckets[bucket] = e
		}
	}

	out := make([]*event.Event, 0, len(order))
	for _, b := range order {
		out = append(out, buckets[b])
	}
	return out
}
