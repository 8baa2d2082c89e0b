// Package topology implements the static tree of a workload's nodes,
// processes, processors, threads, queues, streams, and counters, built
// through the Root's Add* methods. The controller's load pipeline does
// not call them, so a loaded trace's topology root has no entries.
package topology

import (
	"sync"

	"github.com/ROCm/roc-optiq-sub003/internal/data"
)

// Entry is one topology node: a Node, Process, Processor, Thread,
// Queue, Stream, or Counter. Parent/child edges are ids into the
// owning Root's arena, not pointers.
type Entry struct {
	data.BaseHandle

	id       uint64
	name     string
	parentID uint64
	hasParent bool
	children []uint64
}

func newEntry(kind data.Kind, id uint64, name string, parentID uint64, hasParent bool) *Entry {
	return &Entry{
		BaseHandle: data.NewBaseHandle(kind),
		id:         id,
		name:       name,
		parentID:   parentID,
		hasParent:  hasParent,
	}
}

func (e *Entry) ID() uint64   { return e.id }
func (e *Entry) Name() string { return e.name }

func (e *Entry) GetUInt64(prop data.Property, index int) (uint64, error) {
	if prop == data.TopologyNodeID {
		return e.id, nil
	}
	if prop == data.TopologyNodeParent {
		if !e.hasParent {
			return 0, nil
		}
		return e.parentID, nil
	}
	return e.BaseHandle.GetUInt64(prop, index)
}

func (e *Entry) GetString(prop data.Property, index int) (string, error) {
	if prop == data.TopologyNodeName {
		return e.name, nil
	}
	return e.BaseHandle.GetString(prop, index)
}

// Root is the tree root: a TopologyRoot whose children are Nodes, each
// holding Process and Processor children; Process owns Threads and
// Queues; Processor owns Streams and Counters.
type Root struct {
	mu       sync.RWMutex
	entries  map[uint64]*Entry
	children map[uint64][]uint64 // parent id -> child ids
	nextID   uint64
}

// NewRoot constructs an empty topology tree.
func NewRoot() *Root {
	return &Root{
		entries:  make(map[uint64]*Entry),
		children: make(map[uint64][]uint64),
	}
}

// AddNode, AddProcess, AddProcessor, AddThread, AddQueue, AddStream,
// AddCounter insert an entry of the given kind under parentID (0 means
// "attach directly under the root"). The storage metadata load pass
// does not call them.
func (r *Root) addEntry(kind data.Kind, id uint64, name string, parentID uint64, hasParent bool) *Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := newEntry(kind, id, name, parentID, hasParent)
	r.entries[id] = e
	if hasParent {
		r.children[parentID] = append(r.children[parentID], id)
	}
	return e
}

func (r *Root) AddNode(id uint64, name string) *Entry {
	return r.addEntry(data.KindNode, id, name, 0, false)
}
func (r *Root) AddProcess(id uint64, name string, nodeID uint64) *Entry {
	return r.addEntry(data.KindProcess, id, name, nodeID, true)
}
func (r *Root) AddProcessor(id uint64, name string, nodeID uint64) *Entry {
	return r.addEntry(data.KindProcessor, id, name, nodeID, true)
}
func (r *Root) AddThread(id uint64, name string, processID uint64) *Entry {
	return r.addEntry(data.KindThread, id, name, processID, true)
}
func (r *Root) AddQueue(id uint64, name string, processID uint64) *Entry {
	return r.addEntry(data.KindQueue, id, name, processID, true)
}
func (r *Root) AddStream(id uint64, name string, processorID uint64) *Entry {
	return r.addEntry(data.KindStream, id, name, processorID, true)
}
func (r *Root) AddCounter(id uint64, name string, processorID uint64) *Entry {
	return r.addEntry(data.KindCounter, id, name, processorID, true)
}

// Get returns the entry with the given id, or nil if absent.
func (r *Root) Get(id uint64) *Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[id]
}

// Children returns the ids of every child of parentID.
func (r *Root) Children(parentID uint64) []uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]uint64, len(r.children[parentID]))
	copy(out, r.children[parentID])
	return out
}

// GetParent walks up from id until it finds an ancestor of kind, or
// returns nil if none exists.
func (r *Root) GetParent(id uint64, kind data.Kind) *Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cur, ok := r.entries[id]
	if !ok {
		return nil
	}
	for cur.hasParent {
		parent, ok := r.entries[cur.parentID]
		if !ok {
			return nil
		}
		if parent.Kind() == kind {
			return parent
		}
		cur = parent
	}
	return nil
}
