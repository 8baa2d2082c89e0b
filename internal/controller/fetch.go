package controller

import (
	"context"

	"github.com/ROCm/roc-optiq-sub003/internal/data"
	"github.com/ROCm/roc-optiq-sub003/internal/event"
	"github.com/ROCm/roc-optiq-sub003/internal/flow"
	"github.com/ROCm/roc-optiq-sub003/internal/job"
	"github.com/ROCm/roc-optiq-sub003/internal/querybuilder"
	"github.com/ROCm/roc-optiq-sub003/internal/result"
	"github.com/ROCm/roc-optiq-sub003/internal/summary"
	"github.com/ROCm/roc-optiq-sub003/internal/table"
	"github.com/ROCm/roc-optiq-sub003/internal/trace"
)

// TrackFetchAsync returns the real (unaggregated) events for track id
// within [t0,t1]. future resolves with the event count fetched.
func (c *Controller) TrackFetchAsync(ctx context.Context, trackID, t0, t1 uint64, future *job.Future) ([]*event.Event, error) {
	if err := c.fetchLimiter.Wait(ctx); err != nil {
		future.ResolveFailure(result.FromError(err))
		return nil, err
	}
	g := c.graphForTrack(trackID)
	if g == nil {
		future.ResolveFailure(result.InvalidArgument)
		return nil, result.ToError(result.InvalidArgument, "unknown track id")
	}
	return g.FetchTrack(ctx, t0, t1, future)
}

// GraphFetchAsync returns the LOD-collapsed events for track id within
// [t0,t1] at pixelResolution. future resolves with the event count
// returned.
func (c *Controller) GraphFetchAsync(ctx context.Context, trackID, t0, t1 uint64, pixelResolution int, future *job.Future) ([]*event.Event, error) {
	if err := c.fetchLimiter.Wait(ctx); err != nil {
		future.ResolveFailure(result.FromError(err))
		return nil, err
	}
	g := c.graphForTrack(trackID)
	if g == nil {
		future.ResolveFailure(result.InvalidArgument)
		return nil, result.ToError(result.InvalidArgument, "unknown track id")
	}
	return g.Fetch(ctx, t0, t1, pixelResolution, future)
}

func (c *Controller) graphForTrack(trackID uint64) *trace.Graph {
	tl := c.trace.Timeline()
	for i := 0; i < tl.GraphCount(); i++ {
		g := tl.GraphAt(i)
		if g == nil {
			continue
		}
		track, err := g.GetObject(data.GraphTrack, 0)
		if err != nil || track == nil {
			continue
		}
		if idGetter, ok := track.(interface{ ID() uint64 }); ok && idGetter.ID() == trackID {
			return g
		}
	}
	return nil
}

// TableFetchAsync wires Table.Setup plus the paginated Table.Fetch:
// setup applies args, then index/count rows are read back.
func (c *Controller) TableFetchAsync(ctx context.Context, tbl *table.Table, args table.Arguments, index, count int, setupFuture, fetchFuture *job.Future) ([][]data.Data, error) {
	tbl.Setup(ctx, args, setupFuture)
	if r := setupFuture.Wait(0); r != result.Success {
		fetchFuture.ResolveFailure(r)
		return nil, result.ToError(r, "table setup failed")
	}
	return tbl.Fetch(ctx, index, count, fetchFuture)
}

// TablePivotFetchAsync is the pivot-by-stream variant of
// TableFetchAsync: setup groups rows by (node, stream) via
// Table.SetupStreamPivot instead of one row per event, then the same
// paginated Fetch reads the grouped rows back.
func (c *Controller) TablePivotFetchAsync(ctx context.Context, tbl *table.Table, args table.Arguments, index, count int, setupFuture, fetchFuture *job.Future) ([][]data.Data, error) {
	tbl.SetupStreamPivot(ctx, args, setupFuture)
	if r := setupFuture.Wait(0); r != result.Success {
		fetchFuture.ResolveFailure(r)
		return nil, result.ToError(r, "table pivot setup failed")
	}
	return tbl.Fetch(ctx, index, count, fetchFuture)
}

// TableExportCSV exports tbl's current signature to path.
func (c *Controller) TableExportCSV(ctx context.Context, tbl *table.Table, path string, future *job.Future) {
	tbl.ExportCSV(ctx, path, future)
}

// SummaryFetchAsync returns the loaded summary tree's root. The tree
// is built once during LoadAsync; there is nothing further to fetch
// asynchronously, so future resolves immediately.
func (c *Controller) SummaryFetchAsync(future *job.Future) *summary.Node {
	root := c.trace.Summary()
	if root == nil {
		future.ResolveFailure(result.NotLoaded)
		return nil
	}
	future.ResolveSuccess(data.NewUInt64(1))
	return root
}

// GetIndexedPropertyAsync reads a single UInt64 property off an
// already-held handle at index, resolving future with the read
// outcome. It exists as a uniform async wrapper so a caller driving a
// queue of property reads can pipeline them behind one future each,
// matching how every other fetch on this facade is issued.
func (c *Controller) GetIndexedPropertyAsync(h data.Handle, prop data.Property, index int, future *job.Future) (uint64, error) {
	v, err := h.GetUInt64(prop, index)
	if err != nil {
		future.ResolveFailure(result.FromError(err))
		return 0, err
	}
	future.ResolveSuccess(data.NewUInt64(v))
	return v, nil
}

// SaveTrimmedTrace produces a new storage file containing only rows
// whose span intersects [startTS,endTS], preserving schema.
func (c *Controller) SaveTrimmedTrace(ctx context.Context, startTS, endTS uint64, outPath string, future *job.Future) {
	dbs := c.trace.DBs()
	if len(dbs) == 0 {
		future.ResolveFailure(result.NotLoaded)
		return
	}
	trimFuture := c.storage.TrimSaveAsync(ctx, dbs[0], startTS, endTS, outPath)
	go func() {
		r := trimFuture.Wait(0)
		if r != result.Success {
			future.ResolveFailure(r)
			return
		}
		future.ResolveSuccess(trimFuture.Value())
	}()
}

// CallStackFetchAsync returns the call stack captured for eventID,
// read via the query factory's EssentialInfo/DataFlow addressing
// queries and adapted into flow.Frame entries. This engine's schema
// doesn't carry per-frame symbol depth directly, so every correlated
// row is treated as one frame at increasing depth in result order.
func (c *Controller) CallStackFetchAsync(ctx context.Context, op querybuilder.Operation, eventID uint64, future *job.Future) (*flow.CallStack, error) {
	dbs := c.trace.DBs()
	if len(dbs) == 0 {
		future.ResolveFailure(result.NotLoaded)
		return nil, result.ToError(result.NotLoaded, "no bound database")
	}
	version := c.trace.SchemaVersion()

	essSQL, essArgs := c.factory.EssentialInfo(version, op, eventID)
	essFuture, essCh := c.storage.ExecuteQueryAsync(ctx, dbs[0], essSQL, essArgs, "controller.callstack.exists")
	essFuture.Wait(0)
	if future.IsCancelled() {
		future.ResolveCancelled()
		return nil, nil
	}
	essTbl := <-essCh
	if essTbl == nil || len(essTbl.Rows) == 0 {
		future.ResolveFailure(result.InvalidArgument)
		return nil, result.ToError(result.InvalidArgument, "call stack: unknown event id")
	}

	sql, args := c.factory.DataFlow(version, op, eventID)
	execFuture, resultCh := c.storage.ExecuteQueryAsync(ctx, dbs[0], sql, args, "controller.callstack.fetch")
	execFuture.Wait(0)
	if future.IsCancelled() {
		future.ResolveCancelled()
		return nil, nil
	}

	tbl := <-resultCh
	if tbl == nil {
		future.ResolveFailure(result.UnknownError)
		return nil, result.ToError(result.UnknownError, "call stack query failed")
	}

	frames := make([]flow.Frame, 0, len(tbl.Rows))
	for i, row := range tbl.Rows {
		frames = append(frames, flow.Frame{
			FunctionNameID: uint64(int64Of(row, 0)),
			Depth:          i,
		})
	}

	future.ResolveSuccess(data.NewUInt64(uint64(len(frames))))
	return flow.NewCallStack(eventID, frames), nil
}

// FlowControlFetchAsync returns the producer/consumer correlation set
// for eventID: every other row sharing its stack id is a related
// event, direction inferred from event id ordering (the earlier id is
// the producer).
func (c *Controller) FlowControlFetchAsync(ctx context.Context, op querybuilder.Operation, eventID uint64, future *job.Future) (*flow.FlowControl, error) {
	dbs := c.trace.DBs()
	if len(dbs) == 0 {
		future.ResolveFailure(result.NotLoaded)
		return nil, result.ToError(result.NotLoaded, "no bound database")
	}
	version := c.trace.SchemaVersion()

	sql, args := c.factory.DataFlow(version, op, eventID)
	execFuture, resultCh := c.storage.ExecuteQueryAsync(ctx, dbs[0], sql, args, "controller.flowcontrol.fetch")
	execFuture.Wait(0)
	if future.IsCancelled() {
		future.ResolveCancelled()
		return nil, nil
	}

	tbl := <-resultCh
	if tbl == nil {
		future.ResolveFailure(result.UnknownError)
		return nil, result.ToError(result.UnknownError, "flow control query failed")
	}

	correlations := make([]flow.Correlation, 0, len(tbl.Rows))
	for _, row := range tbl.Rows {
		relatedID := uint64(int64Of(row, 0))
		dir := flow.DirectionConsumer
		if relatedID < eventID {
			dir = flow.DirectionProducer
		}
		correlations = append(correlations, flow.Correlation{
			Direction:      dir,
			RelatedEventID: relatedID,
		})
	}

	future.ResolveSuccess(data.NewUInt64(uint64(len(correlations))))
	return flow.NewFlowControl(eventID, correlations), nil
}
