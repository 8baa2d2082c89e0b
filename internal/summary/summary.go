// Package summary implements the hierarchical SummaryMetrics tree and
// its bottom-up aggregation.
package summary

import (
	"sort"

	"github.com/ROCm/roc-optiq-sub003/internal/data"
)

// defaultTopK is how many top kernels survive AggregateSubMetrics
// before the remainder collapses into a synthetic "Others" row.
const defaultTopK = 5

const othersName = "Others"

// KernelStat is one row of a top-kernel table: invocation count, total
// exec time, and the min/max single-invocation exec time seen.
type KernelStat struct {
	Name        string
	Invocations uint64
	ExecTime    float64
	MinExecTime float64
	MaxExecTime float64
	ExecTimePct float64 // recomputed against the node's exec_total after merge
}

// Metrics is one node's GPU/CPU metric bundle. GfxUtil/MemUtil use a
// pointer so "not applicable to this node" (a CPU-only process, say)
// is distinguishable from "measured as zero".
type Metrics struct {
	GfxUtil           *float64
	MemUtil           *float64
	KernelExecTimeTotal float64
	TopKernels        []KernelStat
}

// Node is one level of the trace -> node -> process -> processor
// hierarchy. Leaves carry measured Metrics; interior nodes are filled
// in by AggregateSubMetrics.
type Node struct {
	data.BaseHandle

	Name     string
	Metrics  Metrics
	Children []*Node
}

func NewNode(name string) *Node {
	return &Node{
		BaseHandle: data.NewBaseHandle(data.KindSummaryMetrics),
		Name:       name,
	}
}

func (n *Node) GetUInt64(prop data.Property, index int) (uint64, error) {
	switch prop {
	case data.SummaryTopKernelCount:
		return uint64(len(n.Metrics.TopKernels)), nil
	case data.SummaryChildCount:
		return uint64(len(n.Children)), nil
	}
	return n.BaseHandle.GetUInt64(prop, index)
}

func (n *Node) GetDouble(prop data.Property, index int) (float64, error) {
	switch prop {
	case data.SummaryGfxUtil:
		if n.Metrics.GfxUtil == nil {
			return 0, nil
		}
		return *n.Metrics.GfxUtil, nil
	case data.SummaryMemUtil:
		if n.Metrics.MemUtil == nil {
			return 0, nil
		}
		return *n.Metrics.MemUtil, nil
	case data.SummaryKernelExecTimeTotal:
		return n.Metrics.KernelExecTimeTotal, nil
	}
	return n.BaseHandle.GetDouble(prop, index)
}

// AggregateSubMetrics recursively merges n's children into n.Metrics:
// utilization averaged across non-null children, kernel exec time
// summed, per-name top-kernel tables merged by name (sum invocations,
// sum exec-time, min over mins, max over maxes). After merge, the
// top-K kernels are selected by exec-time-sum, their ExecTimePct
// recomputed against the total, and a synthetic "Others" row is
// appended for the residual when more than topK kernels were present.
func AggregateSubMetrics(n *Node, topK int) {
	if topK <= 0 {
		topK = defaultTopK
	}
	for _, child := range n.Children {
		AggregateSubMetrics(child, topK)
	}
	if len(n.Children) == 0 {
		finalizeTopK(n, topK)
		return
	}

	n.Metrics = mergeChildren(n.Children)
	finalizeTopK(n, topK)
}

func mergeChildren(children []*Node) Metrics {
	var gfxSum, memSum float64
	var gfxCount, memCount int
	var execTotal float64
	byName := make(map[string]*KernelStat)
	var order []string

	for _, c := range children {
		if c.Metrics.GfxUtil != nil {
			gfxSum += *c.Metrics.GfxUtil
			gfxCount++
		}
		if c.Metrics.MemUtil != nil {
			memSum += *c.Metrics.MemUtil
			memCount++
		}
		execTotal += c.Metrics.KernelExecTimeTotal

		for _, k := range c.Metrics.TopKernels {
			existing, ok := byName[k.Name]
			if !ok {
				cp := k
				byName[k.Name] = &cp
				order = append(order, k.Name)
				continue
			}
			existing.Invocations += k.Invocations
			existing.ExecTime += k.ExecTime
			if k.MinExecTime < existing.MinExecTime {
				existing.MinExecTime = k.MinExecTime
			}
			if k.MaxExecTime > existing.MaxExecTime {
				existing.MaxExecTime = k.MaxExecTime
			}
		}
	}

	merged := Metrics{KernelExecTimeTotal: execTotal}
	if gfxCount > 0 {
		avg := gfxSum / float64(gfxCount)
		merged.GfxUtil = &avg
	}
	if memCount > 0 {
		avg := memSum / float64(memCount)
		merged.MemUtil = &avg
	}
	for _, name := range order {
		merged.TopKernels = append(merged.TopKernels, *byName[name])
	}
	return merged
}

// finalizeTopK sorts n's kernel table by ExecTime descending, keeps the
// top topK, recomputes ExecTimePct against the node's total, and folds
// every remaining kernel into a single synthetic "Others" row.
func finalizeTopK(n *Node, topK int) {
	kernels := n.Metrics.TopKernels
	if len(kernels) == 0 {
		return
	}

	sort.SliceStable(kernels, func(i, j int) bool {
		return kernels[i].ExecTime > kernels[j].ExecTime
	})

	var total float64
	for _, k := range kernels {
		total += k.ExecTime
	}

	if len(kernels) <= topK {
		for i := range kernels {
			kernels[i].ExecTimePct = pct(kernels[i].ExecTime, total)
		}
		n.Metrics.TopKernels = kernels
		return
	}

	kept := make([]KernelStat, topK)
	copy(kept, kernels[:topK])

	others := KernelStat{Name: othersName}
	for _, k := range kernels[topK:] {
		others.Invocations += k.Invocations
		others.ExecTime += k.ExecTime
		if others.MinExecTime == 0 || k.MinExecTime < others.MinExecTime {
			others.MinExecTime = k.MinExecTime
		}
		if k.MaxExecTime > others.MaxExecTime {
			others.MaxExecTime = k.MaxExecTime
		}
	}
	kept = append(kept, others)

	for i := range kept {
		kept[i].ExecTimePct = pct(kept[i].ExecTime, total)
	}
	n.Metrics.TopKernels = kept
}

func pct(part, total float64) float64 {
	if total == 0 {
		return 0
	}
	return part / total
}
