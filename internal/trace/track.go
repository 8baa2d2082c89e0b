// Package trace implements the Trace root, Track/Timeline/Graph LOD
// engine, and the multinode schema-homogeneity check.
package trace

import (
	"sync"

	"github.com/ROCm/roc-optiq-sub003/internal/data"
	"github.com/ROCm/roc-optiq-sub003/internal/event"
)

// TrackType distinguishes event tracks (regions, dispatches, ...) from
// sample tracks (counters, PMCs).
type TrackType int

const (
	TrackEvents TrackType = iota
	TrackSamples
)

// ExtMetadata is one (category, name, value) triple attached to a
// track.
type ExtMetadata struct {
	Category string
	Name     string
	Value    string
}

// Track is a single named timeline of events or samples: an id, a
// type, category, main/sub names, observed [min,max] timestamp and
// value ranges, extended metadata pairs, and dm_handle -- a storage-
// layer-opaque key used to route queries back to this track's rows.
// Track lifetime equals trace lifetime.
type Track struct {
	data.BaseHandle

	mu sync.RWMutex

	id       uint64
	typ      TrackType
	category string
	name     string
	subName  string

	minTS, maxTS uint64
	hasValue     bool
	minV, maxV   float64

	extMetadata []ExtMetadata
	dmHandle    string

	histogram *event.Histogram
}

// NewTrack constructs a Track. dmHandle is the storage layer's opaque
// key for this track (e.g. a relational (node_id, primary_id,
// secondary_id, category) tuple rendered as a string).
func NewTrack(id uint64, typ TrackType, category, name, subName, dmHandle string) *Track {
	return &Track{
		BaseHandle: data.NewBaseHandle(data.KindTrack),
		id:         id,
		typ:        typ,
		category:   category,
		name:       name,
		subName:    subName,
		dmHandle:   dmHandle,
	}
}

func (t *Track) ID() uint64       { return t.id }
func (t *Track) Type() TrackType  { return t.typ }
func (t *Track) DMHandle() string { return t.dmHandle }
func (t *Track) Category() string { return t.category }

// SetTimeRange records the track's observed [min,max] timestamp range,
// populated during the metadata load pass.
func (t *Track) SetTimeRange(min, max uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.minTS, t.maxTS = min, max
}

func (t *Track) TimeRange() (min, max uint64) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.minTS, t.maxTS
}

// SetValueRange records the track's observed [min,max] value range,
// meaningful only for sample tracks.
func (t *Track) SetValueRange(min, max float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hasValue = true
	t.minV, t.maxV = min, max
}

func (t *Track) AddExtMetadata(m ExtMetadata) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.extMetadata = append(t.extMetadata, m)
}

// SetHistogram attaches a fixed-count bucket histogram, used for
// overview rendering before any event data is fetched. The load
// pipeline does not call it, so a loaded track's histogram is nil.
func (t *Track) SetHistogram(h *event.Histogram) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.histogram = h
}

func (t *Track) Histogram() *event.Histogram {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.histogram
}

func (t *Track) GetUInt64(prop data.Property, index int) (uint64, error) {
	switch prop {
	case data.TrackID:
		return t.id, nil
	case data.TrackType:
		return uint64(t.typ), nil
	case data.TrackMinTimestamp:
		min, _ := t.TimeRange()
		return min, nil
	case data.TrackMaxTimestamp:
		_, max := t.TimeRange()
		return max, nil
	case data.TrackExtMetadataCount:
		t.mu.RLock()
		defer t.mu.RUnlock()
		return uint64(len(t.extMetadata)), nil
	}
	return t.BaseHandle.GetUInt64(prop, index)
}

func (t *Track) GetDouble(prop data.Property, index int) (float64, error) {
	switch prop {
	case data.TrackMinValue:
		t.mu.RLock()
		defer t.mu.RUnlock()
		return t.minV, nil
	case data.TrackMaxValue:
		t.mu.RLock()
		defer t.mu.RUnlock()
		return t.maxV, nil
	}
	return t.BaseHandle.GetDouble(prop, index)
}

func (t *Track) GetString(prop data.Property, index int) (string, error) {
	switch prop {
	case data.TrackName:
		return t.name, nil
	case data.TrackSubName:
		return t.subName, nil
	case data.TrackCategory:
		return t.category, nil
	case data.TrackExtMetadataKey, data.TrackExtMetadataValue:
		t.mu.RLock()
		defer t.mu.RUnlock()
		if err := data.CheckIndex(prop, index, len(t.extMetadata)); err != nil {
			return "", err
		}
		m := t.extMetadata[index]
		if prop == data.TrackExtMetadataKey {
			return m.Category + "." + m.Name, nil
		}
		return m.Value, nil
	}
	return t.BaseHandle.GetString(prop, index)
}
