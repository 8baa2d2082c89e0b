// Command rocprofvisctl opens a trace database and drives the
// controller facade from the command line: load it, list its tracks,
// fetch a LOD-collapsed window, dump the kernel/roofline workload
// summary, print table rows, or save a trimmed copy of the trace.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ROCm/roc-optiq-sub003/infrastructure/config"
	"github.com/ROCm/roc-optiq-sub003/infrastructure/logging"
	"github.com/ROCm/roc-optiq-sub003/infrastructure/metrics"
	inframeruntime "github.com/ROCm/roc-optiq-sub003/infrastructure/runtime"
	"github.com/ROCm/roc-optiq-sub003/internal/controller"
	"github.com/ROCm/roc-optiq-sub003/internal/data"
	"github.com/ROCm/roc-optiq-sub003/internal/job"
	"github.com/ROCm/roc-optiq-sub003/internal/memmgr"
	"github.com/ROCm/roc-optiq-sub003/internal/querybuilder"
	"github.com/ROCm/roc-optiq-sub003/internal/result"
	"github.com/ROCm/roc-optiq-sub003/internal/storage"
	"github.com/ROCm/roc-optiq-sub003/internal/table"
	"github.com/ROCm/roc-optiq-sub003/pkg/version"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	root := flag.NewFlagSet("rocprofvisctl", flag.ContinueOnError)
	root.SetOutput(io.Discard)
	dsnFlag := root.String("dsn", config.GetEnv("ROCPROFVIS_DSN", ""), "trace database DSN (env ROCPROFVIS_DSN)")
	profileFlag := root.String("profile", "", "named preset from config/presets.yaml supplying dsn/workers/mem-budget/peak-flops")
	workersFlag := root.Int("workers", 0, "job pool size (default hardware_concurrency)")
	memBudgetFlag := root.String("mem-budget", config.GetEnv("ROCPROFVIS_MEM_BUDGET", "0"), "resident memory budget: e.g. 512MiB, \"auto\" (half of system RAM), or 0 (unbounded)")
	peakFlopsFlag := root.Float64("peak-flops", 0, "device peak FLOP/s used for roofline placement (default an MI-class FP32 figure)")
	showVersion := root.Bool("version", false, "print build information and exit")
	if err := root.Parse(args); err != nil {
		return usageError(err)
	}

	remaining := root.Args()
	if *showVersion {
		fmt.Println(version.FullVersion())
		return nil
	}
	if len(remaining) == 0 {
		return usageError(errors.New("no command specified"))
	}

	if remaining[0] == "help" || remaining[0] == "-h" || remaining[0] == "--help" {
		printRootUsage()
		return nil
	}

	if remaining[0] == "presets" {
		return handlePresets()
	}

	if *profileFlag != "" {
		preset := config.LoadPresetSetOrEmpty().Get(*profileFlag)
		if preset == nil {
			return usageError(fmt.Errorf("unknown preset %q", *profileFlag))
		}
		if *dsnFlag == "" {
			*dsnFlag = preset.DSN
		}
		if *memBudgetFlag == "0" && preset.MemBudget != "" {
			*memBudgetFlag = preset.MemBudget
		}
		if *workersFlag == 0 {
			*workersFlag = preset.Workers
		}
		if *peakFlopsFlag == 0 {
			*peakFlopsFlag = preset.PeakFlops
		}
	}

	if *dsnFlag == "" {
		return usageError(errors.New("a trace DSN is required (--dsn, --profile, or env ROCPROFVIS_DSN)"))
	}

	log := logging.Default()
	m := metrics.New("rocprofvisctl")

	var budgetBytes int64
	if trimmed := strings.TrimSpace(*memBudgetFlag); trimmed != "" && trimmed != "0" {
		if strings.EqualFold(trimmed, "auto") {
			budgetBytes = inframeruntime.AutoMemBudgetBytes()
		} else {
			parsed, err := config.ParseByteSize(trimmed)
			if err != nil {
				return fmt.Errorf("mem-budget: %w", err)
			}
			budgetBytes = parsed
		}
	}

	pool := job.NewPool(job.Config{Name: "rocprofvisctl", Size: *workersFlag, Metrics: m})
	if err := pool.Start(); err != nil {
		return fmt.Errorf("start job pool: %w", err)
	}
	defer pool.Stop()

	mem := memmgr.NewManager(budgetBytes, 0)
	st := storage.NewPostgresStorage(log, m)

	cfg := controller.Config{
		Storage:   st,
		Pool:      pool,
		Manager:   mem,
		Factory:   querybuilder.NewFactory(m),
		PeakFlops: *peakFlopsFlag,
	}

	var c *controller.Controller
	var err error
	if strings.HasSuffix(*dsnFlag, ".json") {
		c, err = controller.AllocMultinode(ctx, *dsnFlag, cfg)
	} else {
		c, err = controller.Alloc(ctx, *dsnFlag, cfg)
	}
	if err != nil {
		return fmt.Errorf("open trace: %w", err)
	}
	defer c.Close()

	switch remaining[0] {
	case "load":
		return handleLoad(ctx, c)
	case "tracks":
		return handleTracks(ctx, c, remaining[1:])
	case "fetch":
		return handleFetch(ctx, c, remaining[1:])
	case "workload":
		return handleWorkload(ctx, c, remaining[1:])
	case "summary":
		return handleSummary(ctx, c)
	case "table":
		return handleTable(ctx, c, remaining[1:])
	case "trim":
		return handleTrim(ctx, c, remaining[1:])
	default:
		return usageError(fmt.Errorf("unknown command %q", remaining[0]))
	}
}

func usageError(err error) error {
	printRootUsage()
	return err
}

func printRootUsage() {
	fmt.Println(`rocprofvisctl: inspect and query profiling trace databases

Usage:
  rocprofvisctl [global flags] <command> [flags]

Global Flags:
  --dsn          Trace database DSN, or a *.json multinode descriptor (env ROCPROFVIS_DSN)
  --profile      Named preset from config/presets.yaml (dsn/workers/mem-budget/peak-flops)
  --workers      Job pool size (default hardware_concurrency)
  --mem-budget   Resident memory budget, e.g. 512MiB, "auto" (half system RAM), or 0 (default unbounded)
  --peak-flops   Device peak FLOP/s for roofline placement
  --version      Print build information and exit

Commands:
  presets                       List named presets from config/presets.yaml
  load                          Load the trace and print a track summary
  tracks                        List bound timeline tracks
  fetch --track N --t0 --t1     Fetch a LOD-collapsed window for a track
  workload                      Dump the kernel/roofline workload table
  summary                       Dump the aggregated summary tree
  table --op <name> [--limit N] Fetch table rows for an operation family
  trim --t0 --t1 --out path     Save a trimmed copy of the trace`)
}

func handlePresets() error {
	set := config.LoadPresetSetOrEmpty()
	names := set.Names()
	rows := make([]map[string]any, 0, len(names))
	for _, name := range names {
		p := set.Get(name)
		rows = append(rows, map[string]any{
			"name":        name,
			"dsn":         p.DSN,
			"description": p.Description,
		})
	}
	return printJSON(rows)
}

func loadTrace(ctx context.Context, c *controller.Controller) error {
	future := c.FutureAlloc()
	c.LoadAsync(ctx, future)
	if r := future.Wait(60 * time.Second); r != result.Success {
		return fmt.Errorf("load: %s", r)
	}
	return nil
}

func handleLoad(ctx context.Context, c *controller.Controller) error {
	if err := loadTrace(ctx, c); err != nil {
		return err
	}
	tl := c.Trace().Timeline()
	fmt.Printf("Loaded %q: %d tracks, schema v%d\n", "trace", tl.GraphCount(), c.Trace().SchemaVersion())
	return printJSON(map[string]any{
		"trackCount": tl.GraphCount(),
		"loaded":     c.Trace().Loaded(),
	})
}

func handleTracks(ctx context.Context, c *controller.Controller, args []string) error {
	if err := loadTrace(ctx, c); err != nil {
		return err
	}
	tl := c.Trace().Timeline()
	rows := make([]map[string]any, 0, tl.GraphCount())
	for i := 0; i < tl.GraphCount(); i++ {
		g := tl.GraphAt(i)
		track, err := g.GetObject(data.GraphTrack, 0)
		if err != nil || track == nil {
			continue
		}
		id, _ := track.GetUInt64(data.TrackID, 0)
		name, _ := track.GetString(data.TrackName, 0)
		rows = append(rows, map[string]any{"id": id, "name": name})
	}
	return printJSON(rows)
}

func handleFetch(ctx context.Context, c *controller.Controller, args []string) error {
	fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var trackID, t0, t1 uint64
	var resolution int
	fs.Uint64Var(&trackID, "track", 0, "track id (required)")
	fs.Uint64Var(&t0, "t0", 0, "window start timestamp")
	fs.Uint64Var(&t1, "t1", 0, "window end timestamp")
	fs.IntVar(&resolution, "resolution", 1000, "pixel resolution for LOD collapse")
	if err := fs.Parse(args); err != nil {
		return usageError(err)
	}
	if trackID == 0 || t1 <= t0 {
		return usageError(errors.New("fetch requires --track and --t1 > --t0"))
	}
	if err := loadTrace(ctx, c); err != nil {
		return err
	}
	future := c.FutureAlloc()
	events, err := c.GraphFetchAsync(ctx, trackID, t0, t1, resolution, future)
	if err != nil {
		return err
	}
	future.Wait(30 * time.Second)
	return printJSON(events)
}

func handleWorkload(ctx context.Context, c *controller.Controller, args []string) error {
	if err := loadTrace(ctx, c); err != nil {
		return err
	}
	future := c.FutureAlloc()
	w, err := c.WorkloadFetchAsync(future)
	if err != nil {
		return err
	}
	future.Wait(5 * time.Second)

	count, _ := w.GetUInt64(data.WorkloadKernelCount, 0)
	rows := make([]map[string]any, 0, count)
	for i := 0; i < int(count); i++ {
		kh, err := w.GetObject(data.WorkloadKernelAt, i)
		if err != nil {
			continue
		}
		name, _ := kh.GetString(data.KernelName, 0)
		invocations, _ := kh.GetUInt64(data.KernelInvocationCount, 0)
		execTime, _ := kh.GetDouble(data.KernelTotalExecTime, 0)
		roofline, err := kh.GetObject(data.KernelRooflineHandle, 0)
		row := map[string]any{
			"name":        name,
			"invocations": invocations,
			"execTime":    execTime,
		}
		if err == nil {
			intensity, _ := roofline.GetDouble(data.RooflineArithmeticIntensity, 0)
			achieved, _ := roofline.GetDouble(data.RooflineAchievedFlops, 0)
			row["arithmeticIntensity"] = intensity
			row["achievedFlops"] = achieved
		}
		rows = append(rows, row)
	}
	return printJSON(rows)
}

func handleSummary(ctx context.Context, c *controller.Controller) error {
	if err := loadTrace(ctx, c); err != nil {
		return err
	}
	future := c.FutureAlloc()
	node := c.SummaryFetchAsync(future)
	future.Wait(5 * time.Second)
	if node == nil {
		return errors.New("summary: trace has no summary tree")
	}
	return printJSON(node)
}

func handleTable(ctx context.Context, c *controller.Controller, args []string) error {
	fs := flag.NewFlagSet("table", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var opName string
	var limit int
	fs.StringVar(&opName, "op", "region", "operation family (region, dispatch, pmc_sample)")
	fs.IntVar(&limit, "limit", 100, "maximum rows to fetch")
	if err := fs.Parse(args); err != nil {
		return usageError(err)
	}
	if err := loadTrace(ctx, c); err != nil {
		return err
	}

	var tbl *table.Table
	switch opName {
	case "region":
		tbl = c.Trace().EventTable()
	case "dispatch":
		tbl = c.Trace().SearchResultsTable()
	case "pmc_sample":
		tbl = c.Trace().SampleTable()
	default:
		return usageError(fmt.Errorf("unknown table operation %q", opName))
	}
	if tbl == nil {
		return errors.New("table: trace has no bound table for that operation")
	}

	setupFuture := c.FutureAlloc()
	future := c.FutureAlloc()
	rows, err := c.TableFetchAsync(ctx, tbl, table.Arguments{}, 0, limit, setupFuture, future)
	if err != nil {
		return err
	}
	future.Wait(30 * time.Second)
	return printJSON(rows)
}

func handleTrim(ctx context.Context, c *controller.Controller, args []string) error {
	fs := flag.NewFlagSet("trim", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var t0, t1 uint64
	var outPath string
	fs.Uint64Var(&t0, "t0", 0, "window start timestamp")
	fs.Uint64Var(&t1, "t1", 0, "window end timestamp")
	fs.StringVar(&outPath, "out", "", "output trace path (required)")
	if err := fs.Parse(args); err != nil {
		return usageError(err)
	}
	if outPath == "" || t1 <= t0 {
		return usageError(errors.New("trim requires --out and --t1 > --t0"))
	}

	future := c.FutureAlloc()
	c.SaveTrimmedTrace(ctx, t0, t1, outPath, future)
	if r := future.Wait(5 * time.Minute); r != result.Success {
		return fmt.Errorf("trim: %s", r)
	}
	fmt.Printf("Saved trimmed trace to %s\n", outPath)
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
