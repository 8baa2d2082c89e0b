package controller

import (
	"github.com/ROCm/roc-optiq-sub003/internal/data"
	"github.com/ROCm/roc-optiq-sub003/internal/job"
	"github.com/ROCm/roc-optiq-sub003/internal/result"
	"github.com/ROCm/roc-optiq-sub003/internal/summary"
)

// Roofline is a single kernel's arithmetic-intensity/achieved-flops
// point against the device's peak throughput. It's computed once, at
// BuildWorkload time, from the kernel's measured exec time: without a
// raw FLOP/byte-transferred counter stream in this engine's sample
// schema, achieved throughput is approximated as invocation count over
// total exec time, which is enough to place a kernel on a roofline
// plot without claiming hardware-counter precision.
type Roofline struct {
	data.BaseHandle

	arithmeticIntensity float64
	achievedFlops       float64
	peakFlops           float64
}

func newRoofline(stat summary.KernelStat, peakFlops float64) *Roofline {
	var achieved float64
	if stat.ExecTime > 0 {
		achieved = float64(stat.Invocations) / stat.ExecTime
	}
	var intensity float64
	if peakFlops > 0 {
		intensity = achieved / peakFlops
	}
	return &Roofline{
		BaseHandle:          data.NewBaseHandle(data.KindRoofline),
		arithmeticIntensity: intensity,
		achievedFlops:       achieved,
		peakFlops:           peakFlops,
	}
}

func (r *Roofline) GetDouble(prop data.Property, index int) (float64, error) {
	switch prop {
	case data.RooflineArithmeticIntensity:
		return r.arithmeticIntensity, nil
	case data.RooflineAchievedFlops:
		return r.achievedFlops, nil
	case data.RooflinePeakFlops:
		return r.peakFlops, nil
	}
	return r.BaseHandle.GetDouble(prop, index)
}

// Kernel is one row of a workload's top-kernel table, carrying its own
// Roofline handle.
type Kernel struct {
	data.BaseHandle

	name        string
	invocations uint64
	totalExec   float64
	roofline    *Roofline
}

func newKernel(stat summary.KernelStat, peakFlops float64) *Kernel {
	return &Kernel{
		BaseHandle:  data.NewBaseHandle(data.KindKernel),
		name:        stat.Name,
		invocations: stat.Invocations,
		totalExec:   stat.ExecTime,
		roofline:    newRoofline(stat, peakFlops),
	}
}

func (k *Kernel) GetUInt64(prop data.Property, index int) (uint64, error) {
	if prop == data.KernelInvocationCount {
		return k.invocations, nil
	}
	return k.BaseHandle.GetUInt64(prop, index)
}

func (k *Kernel) GetDouble(prop data.Property, index int) (float64, error) {
	if prop == data.KernelTotalExecTime {
		return k.totalExec, nil
	}
	return k.BaseHandle.GetDouble(prop, index)
}

func (k *Kernel) GetString(prop data.Property, index int) (string, error) {
	if prop == data.KernelName {
		return k.name, nil
	}
	return k.BaseHandle.GetString(prop, index)
}

func (k *Kernel) GetObject(prop data.Property, index int) (data.Handle, error) {
	if prop == data.KernelRooflineHandle {
		return k.roofline, nil
	}
	return k.BaseHandle.GetObject(prop, index)
}

// Workload is the top-level compute-metrics handle: a named run
// (the trace's summary root) exposing its top kernels for roofline and
// table rendering.
type Workload struct {
	data.BaseHandle

	name    string
	kernels []*Kernel
}

// BuildWorkload converts node's top-kernel table (populated by
// LoadAsync's summary pass) into a Workload handle. peakFlops comes
// from the Controller's Config.PeakFlops, so every Kernel's Roofline
// is placed against the same device ceiling.
func BuildWorkload(node *summary.Node, peakFlops float64) *Workload {
	w := &Workload{
		BaseHandle: data.NewBaseHandle(data.KindWorkload),
		name:       node.Name,
	}
	for _, stat := range node.Metrics.TopKernels {
		w.kernels = append(w.kernels, newKernel(stat, peakFlops))
	}
	return w
}

func (w *Workload) GetUInt64(prop data.Property, index int) (uint64, error) {
	if prop == data.WorkloadKernelCount {
		return uint64(len(w.kernels)), nil
	}
	return w.BaseHandle.GetUInt64(prop, index)
}

func (w *Workload) GetString(prop data.Property, index int) (string, error) {
	if prop == data.WorkloadName {
		return w.name, nil
	}
	return w.BaseHandle.GetString(prop, index)
}

func (w *Workload) GetObject(prop data.Property, index int) (data.Handle, error) {
	if prop == data.WorkloadKernelAt {
		if err := data.CheckIndex(prop, index, len(w.kernels)); err != nil {
			return nil, err
		}
		return w.kernels[index], nil
	}
	return w.BaseHandle.GetObject(prop, index)
}

// PlotKind selects how a Plot's bound handle is meant to be drawn:
// scatter for a single Roofline point, bar for a Workload's
// top-kernels summary.
type PlotKind int

const (
	PlotScatter PlotKind = iota
	PlotBar
)

// Plot is a lightweight handle binding a render hint to the Summary or
// Roofline handle it draws: a consumer reads PlotBoundHandle to find
// what to draw and PlotRenderHint to learn how. It adds no fetch path
// of its own -- bound is already-built data.
type Plot struct {
	data.BaseHandle

	bound data.Handle
	hint  PlotKind
}

func NewPlot(bound data.Handle, hint PlotKind) *Plot {
	return &Plot{
		BaseHandle: data.NewBaseHandle(data.KindPlot),
		bound:      bound,
		hint:       hint,
	}
}

func (p *Plot) GetUInt64(prop data.Property, index int) (uint64, error) {
	if prop == data.PlotRenderHint {
		return uint64(p.hint), nil
	}
	return p.BaseHandle.GetUInt64(prop, index)
}

func (p *Plot) GetObject(prop data.Property, index int) (data.Handle, error) {
	if prop == data.PlotBoundHandle {
		return p.bound, nil
	}
	return p.BaseHandle.GetObject(prop, index)
}

// WorkloadFetchAsync builds the Workload handle for the loaded trace's
// summary root.
func (c *Controller) WorkloadFetchAsync(future *job.Future) (*Workload, error) {
	node := c.trace.Summary()
	if node == nil {
		future.ResolveFailure(result.NotLoaded)
		return nil, result.ToError(result.NotLoaded, "trace not loaded")
	}
	w := BuildWorkload(node, c.peakFlops)
	future.ResolveSuccess(data.NewUInt64(uint64(len(w.kernels))))
	return w, nil
}

// RooflinePlotFetchAsync builds a Plot bound to kernelIndex's Roofline
// handle, hinted for scatter rendering -- one point on a roofline
// plot.
func (c *Controller) RooflinePlotFetchAsync(kernelIndex int, future *job.Future) (*Plot, error) {
	node := c.trace.Summary()
	if node == nil {
		future.ResolveFailure(result.NotLoaded)
		return nil, result.ToError(result.NotLoaded, "trace not loaded")
	}
	w := BuildWorkload(node, c.peakFlops)
	if err := data.CheckIndex(data.WorkloadKernelAt, kernelIndex, len(w.kernels)); err != nil {
		future.ResolveFailure(result.InvalidArgument)
		return nil, err
	}
	p := NewPlot(w.kernels[kernelIndex].roofline, PlotScatter)
	future.ResolveSuccess(data.NewUInt64(uint64(PlotScatter)))
	return p, nil
}

// WorkloadPlotFetchAsync builds a Plot bound to the whole Workload
// summary, hinted for bar rendering -- the top-kernels bar chart.
func (c *Controller) WorkloadPlotFetchAsync(future *job.Future) (*Plot, error) {
	node := c.trace.Summary()
	if node == nil {
		future.ResolveFailure(result.NotLoaded)
		return nil, result.ToError(result.NotLoaded, "trace not loaded")
	}
	w := BuildWorkload(node, c.peakFlops)
	p := NewPlot(w, PlotBar)
	future.ResolveSuccess(data.NewUInt64(uint64(PlotBar)))
	return p, nil
}
