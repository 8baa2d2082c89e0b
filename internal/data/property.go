package data

// Property is a bit-partitioned enumeration key: the
// property space is divided into contiguous blocks, one per Kind, so
// validating that a property belongs to a handle's kind is a single
// range check rather than a lookup table walk. External bindings can
// therefore validate kind before issuing a call.
type Property int

// propertyBlockSize is the number of property slots reserved per Kind.
// 64 is comfortably larger than any single handle kind's property
// surface in this engine.
const propertyBlockSize = 64

func blockBase(k Kind) Property {
	return Property(int(k) * propertyBlockSize)
}

// PropertyRange returns the inclusive [first, last] range of property
// values that belong to kind k.
func PropertyRange(k Kind) (first, last Property) {
	base := blockBase(k)
	return base, base + propertyBlockSize - 1
}

// KindOf returns the Kind that owns prop, derived purely from its
// numeric block -- this is the "compile-time-ish" range check the
// design notes describe.
func KindOf(prop Property) Kind {
	if prop < 0 {
		return kindCount
	}
	k := Kind(int(prop) / propertyBlockSize)
	if k < 0 || k >= kindCount {
		return kindCount // sentinel, never a valid Kind
	}
	return k
}

// Track properties.
const (
	TrackID Property = iota + Property(int(KindTrack)*propertyBlockSize)
	TrackType
	TrackCategory
	TrackName
	TrackSubName
	TrackMinTimestamp
	TrackMaxTimestamp
	TrackMinValue
	TrackMaxValue
	TrackExtMetadataCount
	TrackExtMetadataKey
	TrackExtMetadataValue
)

// Event properties.
const (
	EventID Property = iota + Property(int(KindEvent)*propertyBlockSize)
	EventStartTimestamp
	EventEndTimestamp
	EventNameID
	EventCategoryID
	EventCombinedTopNameID
	EventLevel
	EventChildrenCount
	EventChildrenHandle
)

// Sample properties.
const (
	SampleID Property = iota + Property(int(KindSample)*propertyBlockSize)
	SampleTimestamp
	SampleValue
)

// SampleLOD properties.
const (
	SampleLODSampleID Property = iota + Property(int(KindSampleLOD)*propertyBlockSize)
	SampleLODTimestamp
	SampleLODValue
	SampleLODChildCount
)

// Graph properties.
const (
	GraphTrack Property = iota + Property(int(KindGraph)*propertyBlockSize)
	GraphRenderHint
)

// Timeline properties.
const (
	TimelineGraphCount Property = iota + Property(int(KindTimeline)*propertyBlockSize)
	TimelineGraphAt
)

// Table properties.
const (
	TableColumnCount Property = iota + Property(int(KindTable)*propertyBlockSize)
	TableColumnName
	TableColumnType
	TableRowCount
)

// SummaryMetrics properties.
const (
	SummaryGfxUtil Property = iota + Property(int(KindSummaryMetrics)*propertyBlockSize)
	SummaryMemUtil
	SummaryKernelExecTimeTotal
	SummaryTopKernelCount
	SummaryChildCount
)

// Roofline properties.
const (
	RooflineArithmeticIntensity Property = iota + Property(int(KindRoofline)*propertyBlockSize)
	RooflineAchievedFlops
	RooflinePeakFlops
)

// Workload properties.
const (
	WorkloadName Property = iota + Property(int(KindWorkload)*propertyBlockSize)
	WorkloadKernelCount
	WorkloadKernelAt
)

// Kernel properties.
const (
	KernelName Property = iota + Property(int(KindKernel)*propertyBlockSize)
	KernelInvocationCount
	KernelTotalExecTime
	KernelRooflineHandle
)

// Plot properties.
const (
	PlotBoundHandle Property = iota + Property(int(KindPlot)*propertyBlockSize)
	PlotRenderHint
)

// CallStack properties (indexed by frame).
const (
	CallStackFrameCount Property = iota + Property(int(KindCallStack)*propertyBlockSize)
	CallStackFunctionNameID
	CallStackDepth
)

// FlowControl properties (indexed by correlation entry).
const (
	FlowControlCount Property = iota + Property(int(KindFlowControl)*propertyBlockSize)
	FlowControlDirection
	FlowControlRelatedEventID
)

// Topology node properties, shared across Node/Process/Processor/
// Thread/Queue/Stream/Counter -- these live in the TopologyRoot block
// since they're addressed generically via GetParent(kind).
const (
	TopologyNodeID Property = iota + Property(int(KindTopologyRoot)*propertyBlockSize)
	TopologyNodeName
	TopologyNodeParent
)

// System notification properties for controller-wide settings. No
// handle routes either of them to the memory manager's budget scale
// factor; that factor changes only through memmgr's SetScaleFactor.
const (
	SystemNotifySelected Property = iota + Property(int(KindControllerSystem)*propertyBlockSize)
	SystemMemoryBudgetScale
)
