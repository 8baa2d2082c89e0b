package controller

import (
	"context"
	"fmt"
	"os"

	"github.com/tidwall/gjson"

	"github.com/ROCm/roc-optiq-sub003/internal/result"
	"github.com/ROCm/roc-optiq-sub003/internal/storage"
	"github.com/ROCm/roc-optiq-sub003/internal/trace"
)

// AllocMultinode opens a multinode descriptor file -- a small JSON
// document listing one DSN per node database, e.g.
//
//	{"nodes": [{"dsn": "host1:5432/trace"}, {"dsn": "host2:5432/trace"}]}
//
// -- and binds every listed node under a single Controller, the way a
// distributed-run profile ships one rocpd database per participating
// rank. descriptorPath itself is never treated as a trace database; it
// only addresses the real ones.
func AllocMultinode(ctx context.Context, descriptorPath string, cfg Config) (*Controller, error) {
	if cfg.Storage == nil || cfg.Pool == nil || cfg.Manager == nil || cfg.Factory == nil {
		return nil, result.ToError(result.InvalidArgument, "controller.AllocMultinode: incomplete Config")
	}

	raw, err := os.ReadFile(descriptorPath)
	if err != nil {
		return nil, fmt.Errorf("controller.AllocMultinode: read descriptor %q: %w", descriptorPath, err)
	}
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("controller.AllocMultinode: %q is not valid JSON", descriptorPath)
	}

	nodes := gjson.GetBytes(raw, "nodes").Array()
	if len(nodes) == 0 {
		return nil, fmt.Errorf("controller.AllocMultinode: %q lists no nodes", descriptorPath)
	}

	peak := cfg.PeakFlops
	if peak <= 0 {
		peak = DefaultPeakFlops
	}

	dbs := make([]storage.DB, 0, len(nodes))
	for i, node := range nodes {
		dsn := node.Get("dsn").String()
		if dsn == "" {
			closeAll(dbs)
			return nil, fmt.Errorf("controller.AllocMultinode: node %d in %q has no dsn", i, descriptorPath)
		}
		db, err := cfg.Storage.Open(ctx, dsn, storage.Autodetect)
		if err != nil {
			closeAll(dbs)
			return nil, fmt.Errorf("controller.AllocMultinode: open node %d (%q): %w", i, dsn, err)
		}
		dbs = append(dbs, db)
	}

	tr := trace.New(cfg.Storage, cfg.Manager)
	if r := tr.Bind(ctx, dbs); r != result.Success {
		closeAll(dbs)
		return nil, result.ToError(r, fmt.Sprintf("controller.AllocMultinode: bind %q", descriptorPath))
	}
	cfg.Factory.OnSchemaVersionChange()

	c := newBoundController(descriptorPath, cfg, peak, tr)
	return c, nil
}

func closeAll(dbs []storage.DB) {
	for _, db := range dbs {
		db.Close()
	}
}
