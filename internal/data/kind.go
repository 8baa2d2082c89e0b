// Package data implements the tagged-value primitive and polymorphic
// handle system that forms the ABI between the query & runtime engine
// and any UI, scripting, or RPC binding.
package data

// Kind is the type tag of a Handle. Every handle has exactly one kind
// for its entire life.
type Kind int

const (
	KindControllerSystem Kind = iota
	KindControllerCompute
	KindTimeline
	KindTrack
	KindGraph
	KindEvent
	KindEventChildren
	KindSample
	KindSampleLOD
	KindTable
	KindArray
	KindArguments
	KindFuture
	KindSummaryMetrics
	KindSummary
	KindPlot
	KindWorkload
	KindKernel
	KindRoofline
	KindTopologyRoot
	KindNode
	KindProcess
	KindProcessor
	KindThread
	KindQueue
	KindStream
	KindCounter
	KindFlowControl
	KindCallStack

	kindCount
)

func (k Kind) String() string {
	switch k {
	case KindControllerSystem:
		return "ControllerSystem"
	case KindControllerCompute:
		return "ControllerCompute"
	case KindTimeline:
		return "Timeline"
	case KindTrack:
		return "Track"
	case KindGraph:
		return "Graph"
	case KindEvent:
		return "Event"
	case KindEventChildren:
		return "Event.Children"
	case KindSample:
		return "Sample"
	case KindSampleLOD:
		return "SampleLOD"
	case KindTable:
		return "Table"
	case KindArray:
		return "Array"
	case KindArguments:
		return "Arguments"
	case KindFuture:
		return "Future"
	case KindSummaryMetrics:
		return "SummaryMetrics"
	case KindSummary:
		return "Summary"
	case KindPlot:
		return "Plot"
	case KindWorkload:
		return "Workload"
	case KindKernel:
		return "Kernel"
	case KindRoofline:
		return "Roofline"
	case KindTopologyRoot:
		return "TopologyRoot"
	case KindNode:
		return "Node"
	case KindProcess:
		return "Process"
	case KindProcessor:
		return "Processor"
	case KindThread:
		return "Thread"
	case KindQueue:
		return "Queue"
	case KindStream:
		return "Stream"
	case KindCounter:
		return "Counter"
	case KindFlowControl:
		return "FlowControl"
	case KindCallStack:
		return "CallStack"
	default:
		return "Unknown"
	}
}
