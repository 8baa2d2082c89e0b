package controller

import (
	"context"
	"fmt"

	"github.com/ROCm/roc-optiq-sub003/internal/data"
	"github.com/ROCm/roc-optiq-sub003/internal/job"
	"github.com/ROCm/roc-optiq-sub003/internal/querybuilder"
	"github.com/ROCm/roc-optiq-sub003/internal/result"
	"github.com/ROCm/roc-optiq-sub003/internal/storage"
	"github.com/ROCm/roc-optiq-sub003/internal/summary"
)

// buildSummaryAsync issues the dispatch-family aggregation query (one
// row per kernel name id: count, avg/min/max/total exec time),
// converts it into summary.KernelStat rows, and binds the resulting
// single-node tree onto the trace. The query runs against db only
// (LoadAsync passes the first bound node database); the other node
// databases of a multinode descriptor are not summarized, so the leaf
// and the root coincide.
func (c *Controller) buildSummaryAsync(ctx context.Context, db storage.DB, version int, future *job.Future) error {
	b := querybuilder.New(querybuilder.OpDispatch.Table() + " e").
		Select("e.name_id", "nameId").
		Select("COUNT(*)", "count").
		Select("AVG(e.end_ts - e.start_ts)", "avgDuration").
		Select("MIN(e.end_ts - e.start_ts)", "minDuration").
		Select("MAX(e.end_ts - e.start_ts)", "maxDuration").
		Select("SUM(e.end_ts - e.start_ts)", "totalDuration").
		GroupBy("e.name_id")
	sql, args := b.Build()

	execFuture, resultCh := c.storage.ExecuteQueryAsync(ctx, db, sql, args, "controller.load.summary")
	go func() {
		execFuture.Wait(0)
		if future.IsCancelled() {
			future.ResolveCancelled()
			return
		}
		tbl := <-resultCh
		if tbl == nil {
			future.ResolveFailure(result.UnknownError)
			return
		}

		node := summary.NewNode("trace")
		var execTotal float64
		for _, row := range tbl.Rows {
			stat := summary.KernelStat{
				Name:        fmt.Sprintf("kernel_%d", int64Of(row, 0)),
				Invocations: uint64(int64Of(row, 1)),
				ExecTime:    float64Of(row, 5),
				MinExecTime: float64Of(row, 3),
				MaxExecTime: float64Of(row, 4),
			}
			execTotal += stat.ExecTime
			node.Metrics.TopKernels = append(node.Metrics.TopKernels, stat)
		}
		node.Metrics.KernelExecTimeTotal = execTotal
		summary.AggregateSubMetrics(node, 0)

		c.trace.SetSummary(node)
		future.ResolveSuccess(data.NewUInt64(uint64(len(tbl.Rows))))
	}()
	return nil
}

func float64Of(row []any, i int) float64 {
	if i >= len(row) || row[i] == nil {
		return 0
	}
	switch v := row[i].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	default:
		return 0
	}
}
