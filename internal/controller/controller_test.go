package controller

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ROCm/roc-optiq-sub003/internal/data"
	"github.com/ROCm/roc-optiq-sub003/internal/job"
	"github.com/ROCm/roc-optiq-sub003/internal/memmgr"
	"github.com/ROCm/roc-optiq-sub003/internal/querybuilder"
	"github.com/ROCm/roc-optiq-sub003/internal/result"
	"github.com/ROCm/roc-optiq-sub003/internal/storage"
	"github.com/ROCm/roc-optiq-sub003/internal/table"
)

type fakeDB struct{}

func (fakeDB) SchemaVersion(ctx context.Context) (int, error) { return 5, nil }
func (fakeDB) Close() error                                   { return nil }

// fakeStorage answers every ExecuteQueryAsync call by sniffing the SQL
// text for the table it targets, so one fake can serve the whole load
// pipeline's distinct queries (track enumeration, per-op slice,
// kernel-name aggregation, essential-info lookup) without a real
// database.
type fakeStorage struct{}

func (fakeStorage) Open(ctx context.Context, path string, hint storage.DatabaseTypeHint) (storage.DB, error) {
	return fakeDB{}, nil
}
func (fakeStorage) IdentifyType(ctx context.Context, path string) (storage.DatabaseTypeHint, error) {
	return storage.RocpdSqlite, nil
}
func (fakeStorage) ReadMetadataAsync(ctx context.Context, db storage.DB) *job.Future {
	f := job.NewFuture()
	f.ResolveSuccess(data.NewUInt64(0))
	return f
}

func (fakeStorage) ExecuteQueryAsync(ctx context.Context, db storage.DB, sql string, args []any, description string) (*job.Future, <-chan *storage.Table) {
	future := job.NewFuture()
	out := make(chan *storage.Table, 1)

	go func() {
		defer close(out)
		switch {
		case strings.Contains(sql, "GROUP BY e.name_id"):
			out <- &storage.Table{Rows: [][]any{
				{int64(1), int64(10), float64(5), float64(1), float64(9), float64(50)},
				{int64(2), int64(4), float64(20), float64(15), float64(25), float64(80)},
			}}
		case strings.Contains(sql, "GROUP BY"):
			// Track enumeration / stream regrouping: one distinct tuple.
			out <- &storage.Table{Rows: [][]any{{int64(0), int64(1), int64(1), "dispatch"}}}
		case strings.Contains(sql, "AS trackId"):
			// Essential-info lookup: (eventId, trackId, nodeId).
			out <- &storage.Table{Rows: [][]any{{int64(1), int64(1), int64(0)}}}
		default:
			out <- &storage.Table{Rows: nil}
		}
		future.ResolveSuccess(data.NewUInt64(1))
	}()

	return future, out
}

func (fakeStorage) ExportTableCSVAsync(ctx context.Context, db storage.DB, sql string, args []any, path string) *job.Future {
	f := job.NewFuture()
	f.ResolveSuccess(data.NewUInt64(0))
	return f
}

func (fakeStorage) TrimSaveAsync(ctx context.Context, db storage.DB, startTS, endTS uint64, outPath string) *job.Future {
	f := job.NewFuture()
	f.ResolveSuccess(data.NewUInt64(0))
	return f
}

func newTestController(t *testing.T) *Controller {
	t.Helper()
	pool := job.NewPool(job.Config{Name: "controller-test", Size: 2})
	require.NoError(t, pool.Start())
	t.Cleanup(pool.Stop)

	mem := memmgr.NewManager(0, 0)
	cfg := Config{
		Storage: fakeStorage{},
		Pool:    pool,
		Manager: mem,
		Factory: querybuilder.NewFactory(nil),
	}
	c, err := Alloc(context.Background(), "trace.db", cfg)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestLoadAsyncBuildsTracksAndSummary(t *testing.T) {
	c := newTestController(t)

	future := c.FutureAlloc()
	r := c.LoadAsync(context.Background(), future)
	assert.Equal(t, result.Pending, r)

	require.Equal(t, result.Success, future.Wait(2*time.Second))
	assert.True(t, c.Trace().Loaded())
	assert.Greater(t, c.Trace().Timeline().GraphCount(), 0)
	assert.NotNil(t, c.Trace().EventTable())
	require.NotNil(t, c.Trace().Summary())
	assert.Len(t, c.Trace().Summary().Metrics.TopKernels, 2)
}

func TestWorkloadFetchAsyncExposesKernelsAndRoofline(t *testing.T) {
	c := newTestController(t)

	loadFuture := c.FutureAlloc()
	c.LoadAsync(context.Background(), loadFuture)
	require.Equal(t, result.Success, loadFuture.Wait(2*time.Second))

	future := c.FutureAlloc()
	w, err := c.WorkloadFetchAsync(future)
	require.NoError(t, err)
	require.Equal(t, result.Success, future.Wait(time.Second))

	count, err := w.GetUInt64(data.WorkloadKernelCount, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)

	kernel, err := w.GetObject(data.WorkloadKernelAt, 0)
	require.NoError(t, err)
	roofline, err := kernel.GetObject(data.KernelRooflineHandle, 0)
	require.NoError(t, err)
	peak, err := roofline.GetDouble(data.RooflinePeakFlops, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultPeakFlops, peak)
}

func TestWorkloadFetchAsyncFailsBeforeLoad(t *testing.T) {
	c := newTestController(t)

	future := c.FutureAlloc()
	_, err := c.WorkloadFetchAsync(future)
	require.Error(t, err)
	assert.Equal(t, result.NotLoaded, future.Wait(0))
}

func TestRooflinePlotFetchAsyncBindsKernelRoofline(t *testing.T) {
	c := newTestController(t)

	loadFuture := c.FutureAlloc()
	c.LoadAsync(context.Background(), loadFuture)
	require.Equal(t, result.Success, loadFuture.Wait(2*time.Second))

	future := c.FutureAlloc()
	p, err := c.RooflinePlotFetchAsync(0, future)
	require.NoError(t, err)
	require.Equal(t, result.Success, future.Wait(time.Second))

	hint, err := p.GetUInt64(data.PlotRenderHint, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(PlotScatter), hint)

	bound, err := p.GetObject(data.PlotBoundHandle, 0)
	require.NoError(t, err)
	_, err = bound.GetDouble(data.RooflinePeakFlops, 0)
	require.NoError(t, err)
}

func TestRooflinePlotFetchAsyncRejectsBadIndex(t *testing.T) {
	c := newTestController(t)

	loadFuture := c.FutureAlloc()
	c.LoadAsync(context.Background(), loadFuture)
	require.Equal(t, result.Success, loadFuture.Wait(2*time.Second))

	future := c.FutureAlloc()
	_, err := c.RooflinePlotFetchAsync(99, future)
	require.Error(t, err)
}

func TestWorkloadPlotFetchAsyncBindsWorkload(t *testing.T) {
	c := newTestController(t)

	loadFuture := c.FutureAlloc()
	c.LoadAsync(context.Background(), loadFuture)
	require.Equal(t, result.Success, loadFuture.Wait(2*time.Second))

	future := c.FutureAlloc()
	p, err := c.WorkloadPlotFetchAsync(future)
	require.NoError(t, err)
	require.Equal(t, result.Success, future.Wait(time.Second))

	hint, err := p.GetUInt64(data.PlotRenderHint, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(PlotBar), hint)

	bound, err := p.GetObject(data.PlotBoundHandle, 0)
	require.NoError(t, err)
	count, err := bound.GetUInt64(data.WorkloadKernelCount, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
}

func TestTablePivotFetchAsyncGroupsByStream(t *testing.T) {
	c := newTestController(t)

	loadFuture := c.FutureAlloc()
	c.LoadAsync(context.Background(), loadFuture)
	require.Equal(t, result.Success, loadFuture.Wait(2*time.Second))

	tbl := c.Trace().EventTable()
	require.NotNil(t, tbl)

	setupFuture := c.FutureAlloc()
	fetchFuture := c.FutureAlloc()
	rows, err := c.TablePivotFetchAsync(context.Background(), tbl, table.Arguments{}, 0, 10, setupFuture, fetchFuture)
	require.NoError(t, err)
	require.Equal(t, result.Success, setupFuture.Wait(time.Second))
	require.Equal(t, result.Success, fetchFuture.Wait(time.Second))
	assert.NotNil(t, rows)

	colCount, err := tbl.GetUInt64(data.TableColumnCount, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, colCount)
}

func TestGraphFetchAsyncRoutesToBoundTrack(t *testing.T) {
	c := newTestController(t)

	loadFuture := c.FutureAlloc()
	c.LoadAsync(context.Background(), loadFuture)
	require.Equal(t, result.Success, loadFuture.Wait(2*time.Second))

	var trackID uint64
	tl := c.Trace().Timeline()
	for i := 0; i < tl.GraphCount(); i++ {
		g := tl.GraphAt(i)
		track, err := g.GetObject(data.GraphTrack, 0)
		require.NoError(t, err)
		id, err := track.GetUInt64(data.TrackID, 0)
		require.NoError(t, err)
		trackID = id
		break
	}
	require.NotZero(t, trackID)

	future := c.FutureAlloc()
	events, err := c.GraphFetchAsync(context.Background(), trackID, 0, 1_000_000, 1000, future)
	require.NoError(t, err)
	require.Equal(t, result.Success, future.Wait(time.Second))
	assert.NotNil(t, events)
}

func TestCallStackFetchAsyncResolvesOnEmptyCorrelation(t *testing.T) {
	c := newTestController(t)

	loadFuture := c.FutureAlloc()
	c.LoadAsync(context.Background(), loadFuture)
	require.Equal(t, result.Success, loadFuture.Wait(2*time.Second))

	future := c.FutureAlloc()
	stack, err := c.CallStackFetchAsync(context.Background(), querybuilder.OpDispatch, 1, future)
	require.NoError(t, err)
	require.Equal(t, result.Success, future.Wait(time.Second))
	assert.Equal(t, uint64(1), stack.EventID())
}
