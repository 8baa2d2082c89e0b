// Package controller implements the facade that binds the job pool,
// query builder, storage collaborator, trace root, and memory manager
// into the single entry point an external binding (CLI, RPC server,
// embedder) talks to. Every operation is named after its ABI
// counterpart -- Alloc, LoadAsync, TrackFetchAsync, and so on -- but
// returns native Go values instead of opaque integer handles, since
// the rest of this engine already favors returning concrete types
// (table.Table.Fetch, trace.Graph.Fetch) over wrapper objects.
package controller

import (
	"context"
	"fmt"

	"github.com/ROCm/roc-optiq-sub003/infrastructure/logging"
	"github.com/ROCm/roc-optiq-sub003/infrastructure/ratelimit"
	"github.com/ROCm/roc-optiq-sub003/internal/data"
	"github.com/ROCm/roc-optiq-sub003/internal/job"
	"github.com/ROCm/roc-optiq-sub003/internal/memmgr"
	"github.com/ROCm/roc-optiq-sub003/internal/querybuilder"
	"github.com/ROCm/roc-optiq-sub003/internal/result"
	"github.com/ROCm/roc-optiq-sub003/internal/scheduler"
	"github.com/ROCm/roc-optiq-sub003/internal/storage"
	"github.com/ROCm/roc-optiq-sub003/internal/table"
	"github.com/ROCm/roc-optiq-sub003/internal/trace"
)

// schemaCheckCron is how often a live Controller reverifies that every
// node database it holds still reports the same schema version. A
// multinode trace can outlive a rolling upgrade of one node's
// collector; catching that drift early is cheaper than a confusing
// mid-fetch failure.
const schemaCheckCron = "*/5 * * * *"

// DefaultPeakFlops is the assumed device peak throughput (FLOP/s) used
// to seed Roofline handles when the caller hasn't supplied a more
// precise figure via Config.PeakFlops. It's a conservative MI-class
// FP32 figure, not tied to any specific part.
const DefaultPeakFlops = 2.3e13

// Config bundles the dependencies Alloc needs to build a Controller.
// Pool and Manager are shared across every trace a process opens;
// Storage is the database collaborator.
type Config struct {
	Storage   storage.Storage
	Pool      *job.Pool
	Manager   *memmgr.Manager
	Factory   *querybuilder.Factory
	PeakFlops float64
}

// trackSpec is one (operation, track-type) pair this engine builds a
// Track and Graph for during load. Samples ops (the PMC families) get
// TrackSamples/RenderLine; everything else gets TrackEvents/RenderFlame.
type trackSpec struct {
	op       querybuilder.Operation
	category string
	typ      trace.TrackType
	hint     trace.RenderHint
}

var trackSpecs = []trackSpec{
	{querybuilder.OpRegion, "region", trace.TrackEvents, trace.RenderFlame},
	{querybuilder.OpDispatch, "dispatch", trace.TrackEvents, trace.RenderFlame},
	{querybuilder.OpMemAlloc, "memory_alloc", trace.TrackEvents, trace.RenderFlame},
	{querybuilder.OpMemCopy, "memory_copy", trace.TrackEvents, trace.RenderFlame},
	{querybuilder.OpPmcPerDispatch, "pmc_per_dispatch", trace.TrackSamples, trace.RenderLine},
}

// Controller is one opened trace plus the collaborators it was opened
// against. Alloc constructs it closed (LoadAsync still pending);
// Close releases its database connections and stops its memory
// manager's LRU thread.
type Controller struct {
	path      string
	storage   storage.Storage
	pool      *job.Pool
	mem       *memmgr.Manager
	factory   *querybuilder.Factory
	peakFlops float64

	trace        *trace.Trace
	log          *logging.Logger
	fetchLimiter *ratelimit.RateLimiter
	maintenance  *scheduler.Scheduler
}

// Alloc opens path via cfg.Storage, autodetecting its schema, and
// returns a Controller bound but not yet loaded. Call LoadAsync next.
func Alloc(ctx context.Context, path string, cfg Config) (*Controller, error) {
	if cfg.Storage == nil || cfg.Pool == nil || cfg.Manager == nil || cfg.Factory == nil {
		return nil, result.ToError(result.InvalidArgument, "controller.Alloc: incomplete Config")
	}

	peak := cfg.PeakFlops
	if peak <= 0 {
		peak = DefaultPeakFlops
	}

	db, err := cfg.Storage.Open(ctx, path, storage.Autodetect)
	if err != nil {
		return nil, result.ToError(result.UnknownError, fmt.Sprintf("controller.Alloc: open %q: %v", path, err))
	}

	tr := trace.New(cfg.Storage, cfg.Manager)
	if r := tr.Bind(ctx, []storage.DB{db}); r != result.Success {
		db.Close()
		return nil, result.ToError(r, fmt.Sprintf("controller.Alloc: bind %q", path))
	}
	// A shared Factory may carry query plans cached against a
	// previously opened trace at a different schema version; drop them
	// so this trace's queries are built fresh against its own version.
	cfg.Factory.OnSchemaVersionChange()

	c := newBoundController(path, cfg, peak, tr)
	return c, nil
}

// newBoundController assembles a Controller around an already-Bind'd
// Trace. Shared by Alloc (single node database) and AllocMultinode
// (one Trace spanning several node databases).
func newBoundController(path string, cfg Config, peakFlops float64, tr *trace.Trace) *Controller {
	c := &Controller{
		path:      path,
		storage:   cfg.Storage,
		pool:      cfg.Pool,
		mem:       cfg.Manager,
		factory:   cfg.Factory,
		peakFlops: peakFlops,
		trace:     tr,
		log:       logging.Default(),
		// Bounds how fast a single caller (a UI panning/zooming a
		// timeline) can issue per-track fetches against this trace,
		// independent of the job pool's own fixed worker concurrency:
		// that caps how many fetches run at once, not how fast new
		// ones are accepted onto its queue.
		fetchLimiter: ratelimit.New(ratelimit.DefaultConfig()),
		maintenance:  scheduler.New(),
	}
	c.maintenance.Every(schemaCheckCron, c.checkSchemaDrift)
	c.maintenance.Start()
	c.mem.LRU().Start()
	return c
}

// checkSchemaDrift re-runs the homogeneity check this trace's node
// databases passed at bind time, logging if one of them now disagrees
// with the rest (e.g. a node was quietly replaced by an older rebuild
// of the collector). It never mutates the trace: a live session keeps
// the schema version it loaded with until the caller explicitly
// reopens it.
func (c *Controller) checkSchemaDrift(ctx context.Context) {
	dbs := c.trace.DBs()
	if len(dbs) == 0 {
		return
	}
	version, r := c.trace.CheckNodeSchemaHomogeneity(ctx, dbs)
	if r != result.Success {
		c.log.Warn(ctx, "node schema drift detected", map[string]interface{}{
			"path":   c.path,
			"result": r.String(),
		})
		return
	}
	if version != c.trace.SchemaVersion() {
		c.log.Warn(ctx, "node schema version changed since load", map[string]interface{}{
			"path":        c.path,
			"loadVersion": c.trace.SchemaVersion(),
			"nowVersion":  version,
		})
	}
}

// FutureAlloc hands back a fresh pending Future, for callers (an RPC
// server, a CLI command) that need one before they know which
// operation they'll issue it against.
func (c *Controller) FutureAlloc() *job.Future {
	return job.NewFuture()
}

// Trace exposes the bound Trace root, e.g. for a caller walking the
// Timeline/Topology/Summary handles directly after a load completes.
func (c *Controller) Trace() *trace.Trace { return c.trace }

// LoadAsync issues the full load pipeline as a single pool job:
// read metadata, enumerate tracks per operation family, bind a
// Graph to each track plus the trace-wide event, sample and
// search-results Tables, and build the summary tree.
// The pool's own future is registered as a dependent of the caller's
// future so Cancel on the latter reaches the running job, and its
// outcome is forwarded back onto future once the job completes.
func (c *Controller) LoadAsync(ctx context.Context, future *job.Future) result.Result {
	issued := c.pool.Issue(ctx, func(ctx context.Context, pf *job.Future) {
		dbs := c.trace.DBs()
		if len(dbs) == 0 {
			pf.ResolveFailure(result.NotLoaded)
			return
		}
		db := dbs[0]
		version := c.trace.SchemaVersion()

		metaFuture := c.storage.ReadMetadataAsync(ctx, db)
		metaFuture.Wait(0)
		if pf.IsCancelled() {
			c.trace.Reset()
			pf.ResolveCancelled()
			return
		}
		if metaFuture.State() != job.StateSuccess {
			pf.ResolveFailure(result.UnknownError)
			return
		}

		nextTrackID := uint64(1)
		for _, spec := range trackSpecs {
			if pf.IsCancelled() {
				c.trace.Reset()
				pf.ResolveCancelled()
				return
			}
			n, err := c.buildTracksForOp(ctx, db, version, spec, &nextTrackID)
			if err != nil {
				pf.ResolveFailure(result.FromError(err))
				return
			}
			c.log.Info(ctx, "enumerated tracks", map[string]interface{}{
				"operation": spec.category,
				"count":     n,
			})
		}

		c.trace.SetEventTable(table.New(db, c.storage, c.factory, version, querybuilder.OpRegion))
		c.trace.SetSampleTable(table.New(db, c.storage, c.factory, version, querybuilder.OpPmcSample))
		c.trace.SetSearchResultsTable(table.New(db, c.storage, c.factory, version, querybuilder.OpDispatch))

		summaryFuture := job.NewFuture()
		if err := c.buildSummaryAsync(ctx, db, version, summaryFuture); err != nil {
			pf.ResolveFailure(result.FromError(err))
			return
		}
		if r := summaryFuture.Wait(0); r != result.Success {
			pf.ResolveFailure(r)
			return
		}

		c.trace.MarkLoaded()
		pf.ResolveSuccess(data.NewUInt64(1))
	})

	future.AddDependentFuture(issued.ID, issued)
	go func() {
		r := issued.Wait(0)
		future.RemoveDependentFuture(issued.ID)
		switch r {
		case result.Success:
			future.ResolveSuccess(issued.Value())
		case result.Cancelled:
			future.ResolveCancelled()
		default:
			future.ResolveFailure(r)
		}
	}()
	return result.Pending
}

// buildTracksForOp enumerates the distinct (node, primary, secondary,
// category) tuples for spec.op, constructing one Track and Graph per
// tuple and registering both on the Trace/Timeline.
func (c *Controller) buildTracksForOp(ctx context.Context, db storage.DB, version int, spec trackSpec, nextID *uint64) (int, error) {
	sql, args := c.factory.TrackEnumeration(version, spec.op)
	execFuture, resultCh := c.storage.ExecuteQueryAsync(ctx, db, sql, args, "controller.load.track_enumeration")
	execFuture.Wait(0)

	tbl := <-resultCh
	if tbl == nil {
		return 0, result.ToError(result.UnknownError, "track enumeration query failed")
	}

	count := 0
	for _, row := range tbl.Rows {
		nodeID := int64Of(row, 0)
		primaryID := int64Of(row, 1)
		secondaryID := int64Of(row, 2)

		id := *nextID
		*nextID++

		dmHandle := fmt.Sprintf("node%d:%d:%d:%s", nodeID, primaryID, secondaryID, spec.category)
		tr := trace.NewTrack(id, spec.typ, spec.category, spec.category, "", dmHandle)

		g := trace.NewGraph(tr, spec.hint, c.storage, db, c.factory, version, spec.op)
		c.trace.AddTrack(tr)
		c.trace.Timeline().AddGraph(g)
		count++
	}
	return count, nil
}

func int64Of(row []any, i int) int64 {
	if i >= len(row) || row[i] == nil {
		return 0
	}
	switch v := row[i].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return 0
	}
}

// Close stops the memory manager's eviction thread and closes every
// node database this controller opened. It does not shut down the
// shared job pool, since other controllers (other opened traces) may
// still be issuing jobs against it.
func (c *Controller) Close() error {
	c.maintenance.Stop()
	c.mem.LRU().Stop()
	var firstErr error
	for _, db := range c.trace.DBs() {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
