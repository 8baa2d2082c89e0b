// Package event implements the Event, Sample, SampleLOD, and fixed-
// count bucket Histogram handle kinds.
package event

import (
	"sync"
	"sync/atomic"

	"github.com/ROCm/roc-optiq-sub003/internal/data"
)

// Event is a single region/dispatch/copy/alloc occurrence on a track:
// an id, a [start, end] span, naming ids, an assigned nesting level,
// a retain counter consulted by the memory manager's LRU, and a
// children array that's created only if the event fans out.
type Event struct {
	data.BaseHandle

	id                uint64
	start             uint64
	end               uint64
	nameID            uint64
	categoryID        uint64
	combinedTopNameID uint64
	level             int32 // assigned by a graph fetch, not by the trace load

	retain int64 // atomic; bumped by the memory manager's LRU lookup

	childrenMu sync.Mutex
	children   []*Event // lazily created

	synthetic   bool
	mergedCount int
}

// New constructs an Event. level starts at -1, meaning "not yet
// assigned" -- the level assignment run by a graph fetch fills it in;
// the trace load does not.
func New(id, start, end, nameID, categoryID, combinedTopNameID uint64) *Event {
	return &Event{
		BaseHandle:        data.NewBaseHandle(data.KindEvent),
		id:                id,
		start:             start,
		end:               end,
		nameID:            nameID,
		categoryID:        categoryID,
		combinedTopNameID: combinedTopNameID,
		level:             -1,
	}
}

// NewSynthetic constructs a graph-LOD aggregate event standing in for
// mergedCount real events: an empty name (nameID/categoryID 0) and a
// merged-count carried for tooltipping.
func NewSynthetic(id, start, end uint64, mergedCount int) *Event {
	e := New(id, start, end, 0, 0, 0)
	e.synthetic = true
	e.mergedCount = mergedCount
	return e
}

func (e *Event) IsSynthetic() bool { return e.synthetic }
func (e *Event) MergedCount() int  { return e.mergedCount }

func (e *Event) ID() uint64    { return e.id }
func (e *Event) Start() uint64 { return e.start }
func (e *Event) End() uint64   { return e.end }

// SetLevel assigns the nesting level computed by the level package.
// A flame graph's fetch (trace.Graph) sets levels for the events it
// returns; the trace load does not.
func (e *Event) SetLevel(level int) {
	atomic.StoreInt32(&e.level, int32(level))
}

func (e *Event) Level() int {
	return int(atomic.LoadInt32(&e.level))
}

// Retain bumps the LRU retain counter, called whenever the memory
// manager's LRU notices this event handed out to a consumer.
func (e *Event) Retain() int64 {
	return atomic.AddInt64(&e.retain, 1)
}

// Release decrements the retain counter; it never goes below zero.
func (e *Event) Release() int64 {
	for {
		cur := atomic.LoadInt64(&e.retain)
		if cur == 0 {
			return 0
		}
		if atomic.CompareAndSwapInt64(&e.retain, cur, cur-1) {
			return cur - 1
		}
	}
}

// AddChild appends to the lazily-created children array, used for
// fan-out events (e.g. a kernel dispatch event that owns PMC samples).
func (e *Event) AddChild(child *Event) {
	e.childrenMu.Lock()
	defer e.childrenMu.Unlock()
	e.children = append(e.children, child)
}

func (e *Event) Children() []*Event {
	e.childrenMu.Lock()
	defer e.childrenMu.Unlock()
	out := make([]*Event, len(e.children))
	copy(out, e.children)
	return out
}

func (e *Event) GetUInt64(prop data.Property, index int) (uint64, error) {
	switch prop {
	case data.EventID:
		return e.id, nil
	case data.EventStartTimestamp:
		return e.start, nil
	case data.EventEndTimestamp:
		return e.end, nil
	case data.EventNameID:
		return e.nameID, nil
	case data.EventCategoryID:
		return e.categoryID, nil
	case data.EventCombinedTopNameID:
		return e.combinedTopNameID, nil
	case data.EventLevel:
		return uint64(e.Level()), nil
	case data.EventChildrenCount:
		e.childrenMu.Lock()
		defer e.childrenMu.Unlock()
		return uint64(len(e.children)), nil
	}
	return e.BaseHandle.GetUInt64(prop, index)
}

func (e *Event) GetObject(prop data.Property, index int) (data.Handle, error) {
	if prop == data.EventChildrenHandle {
		children := e.Children()
		if err := data.CheckIndex(prop, index, len(children)); err != nil {
			return nil, err
		}
		return children[index], nil
	}
	return e.BaseHandle.GetObject(prop, index)
}
