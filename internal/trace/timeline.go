package trace

import (
	"sync"

	"github.com/ROCm/roc-optiq-sub003/internal/data"
)

// Timeline owns an ordered list of Graphs, each bound to a Track.
type Timeline struct {
	data.BaseHandle

	mu     sync.RWMutex
	graphs []*Graph
}

func NewTimeline() *Timeline {
	return &Timeline{
		BaseHandle: data.NewBaseHandle(data.KindTimeline),
	}
}

// AddGraph appends a graph to the ordered list, e.g. one per track
// discovered during the metadata load pass.
func (tl *Timeline) AddGraph(g *Graph) {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	tl.graphs = append(tl.graphs, g)
}

func (tl *Timeline) GraphAt(index int) *Graph {
	tl.mu.RLock()
	defer tl.mu.RUnlock()
	if index < 0 || index >= len(tl.graphs) {
		return nil
	}
	return tl.graphs[index]
}

func (tl *Timeline) GraphCount() int {
	tl.mu.RLock()
	defer tl.mu.RUnlock()
	return len(tl.graphs)
}

func (tl *Timeline) GetUInt64(prop data.Property, index int) (uint64, error) {
	if prop == data.TimelineGraphCount {
		return uint64(tl.GraphCount()), nil
	}
	return tl.BaseHandle.GetUInt64(prop, index)
}

func (tl *Timeline) GetObject(prop data.Property, index int) (data.Handle, error) {
	if prop == data.TimelineGraphAt {
		g := tl.GraphAt(index)
		if g == nil {
			if err := data.CheckIndex(prop, index, tl.GraphCount()); err != nil {
				return nil, err
			}
		}
		return g, nil
	}
	return tl.BaseHandle.GetObject(prop, index)
}
