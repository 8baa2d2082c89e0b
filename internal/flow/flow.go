// Package flow implements the CallStack and FlowControl handle kinds.
// They're kept as two distinct kinds rather than collapsed into one
// generic "correlation" handle: a call stack is an ordered list of
// frames belonging to a single event, while flow control is a
// bidirectional cross-event correlation (producer/consumer, enqueue/
// dequeue) -- their property surfaces don't overlap and merging them
// would force every consumer to branch on which fields are meaningful.
package flow

import "github.com/ROCm/roc-optiq-sub003/internal/data"

// Frame is one entry in a call stack: a function name id and the
// depth at which it appears (0 = innermost).
type Frame struct {
	FunctionNameID uint64
	Depth          int
}

// CallStack is the ordered list of frames captured for a single event
// (e.g. a kernel dispatch's host-side call stack).
type CallStack struct {
	data.BaseHandle

	eventID uint64
	frames  []Frame
}

func NewCallStack(eventID uint64, frames []Frame) *CallStack {
	owned := make([]Frame, len(frames))
	copy(owned, frames)
	return &CallStack{
		BaseHandle: data.NewBaseHandle(data.KindCallStack),
		eventID:    eventID,
		frames:     owned,
	}
}

func (c *CallStack) EventID() uint64 { return c.eventID }
func (c *CallStack) Frames() []Frame {
	out := make([]Frame, len(c.frames))
	copy(out, c.frames)
	return out
}

func (c *CallStack) GetUInt64(prop data.Property, index int) (uint64, error) {
	switch prop {
	case data.CallStackFrameCount:
		return uint64(len(c.frames)), nil
	case data.CallStackFunctionNameID:
		if err := data.CheckIndex(prop, index, len(c.frames)); err != nil {
			return 0, err
		}
		return c.frames[index].FunctionNameID, nil
	case data.CallStackDepth:
		if err := data.CheckIndex(prop, index, len(c.frames)); err != nil {
			return 0, err
		}
		return uint64(c.frames[index].Depth), nil
	}
	return c.BaseHandle.GetUInt64(prop, index)
}

// Direction distinguishes the two ends of a correlated event pair.
type Direction int

const (
	DirectionProducer Direction = iota
	DirectionConsumer
)

func (d Direction) String() string {
	if d == DirectionConsumer {
		return "Consumer"
	}
	return "Producer"
}

// Correlation is one entry in a FlowControl handle: the role of the
// event on the other end (Producer when its id precedes this event's),
// and that event's id -- stack-id matched producer/consumer pairs such as an enqueue
// and its dispatch, or a memcpy and its completion.
type Correlation struct {
	Direction      Direction
	RelatedEventID uint64
}

// FlowControl is the set of correlation entries for a single event.
type FlowControl struct {
	data.BaseHandle

	eventID      uint64
	correlations []Correlation
}

func NewFlowControl(eventID uint64, correlations []Correlation) *FlowControl {
	owned := make([]Correlation, len(correlations))
	copy(owned, correlations)
	return &FlowControl{
		BaseHandle:   data.NewBaseHandle(data.KindFlowControl),
		eventID:      eventID,
		correlations: owned,
	}
}

func (f *FlowControl) EventID() uint64 { return f.eventID }

func (f *FlowControl) GetUInt64(prop data.Property, index int) (uint64, error) {
	switch prop {
	case data.FlowControlCount:
		return uint64(len(f.correlations)), nil
	case data.FlowControlDirection:
		if err := data.CheckIndex(prop, index, len(f.correlations)); err != nil {
			return 0, err
		}
		return uint64(f.correlations[index].Direction), nil
	case data.FlowControlRelatedEventID:
		if err := data.CheckIndex(prop, index, len(f.correlations)); err != nil {
			return 0, err
		}
		return f.correlations[index].RelatedEventID, nil
	}
	return f.BaseHandle.GetUInt64(prop, index)
}
