package event

import "github.com/ROCm/roc-optiq-sub003/internal/data"

// Sample is one counter/PMC reading: an id, timestamp, and typed value.
type Sample struct {
	data.BaseHandle

	id    uint64
	ts    uint64
	value float64
}

func NewSample(id, ts uint64, value float64) *Sample {
	return &Sample{
		BaseHandle: data.NewBaseHandle(data.KindSample),
		id:         id,
		ts:         ts,
		value:      value,
	}
}

func (s *Sample) ID() uint64        { return s.id }
func (s *Sample) Timestamp() uint64 { return s.ts }
func (s *Sample) Value() float64    { return s.value }

func (s *Sample) GetUInt64(prop data.Property, index int) (uint64, error) {
	switch prop {
	case data.SampleID:
		return s.id, nil
	case data.SampleTimestamp:
		return s.ts, nil
	}
	return s.BaseHandle.GetUInt64(prop, index)
}

func (s *Sample) GetDouble(prop data.Property, index int) (float64, error) {
	if prop == data.SampleValue {
		return s.value, nil
	}
	return s.BaseHandle.GetDouble(prop, index)
}

// SampleLOD is a single representative sample standing in for a run of
// samples collapsed by the graph LOD engine -- it owns the list of
// samples it summarizes so a consumer can drill back in.
type SampleLOD struct {
	data.BaseHandle

	representative *Sample
	children       []*Sample
}

func NewSampleLOD(representative *Sample, children []*Sample) *SampleLOD {
	owned := make([]*Sample, len(children))
	copy(owned, children)
	return &SampleLOD{
		BaseHandle:     data.NewBaseHandle(data.KindSampleLOD),
		representative: representative,
		children:       owned,
	}
}

func (s *SampleLOD) Children() []*Sample {
	out := make([]*Sample, len(s.children))
	copy(out, s.children)
	return out
}

func (s *SampleLOD) GetUInt64(prop data.Property, index int) (uint64, error) {
	switch prop {
	case data.SampleLODSampleID:
		return s.representative.ID(), nil
	case data.SampleLODTimestamp:
		return s.representative.Timestamp(), nil
	case data.SampleLODChildCount:
		return uint64(len(s.children)), nil
	}
	return s.BaseHandle.GetUInt64(prop, index)
}

func (s *SampleLOD) GetDouble(prop data.Property, index int) (float64, error) {
	if prop == data.SampleLODValue {
		return s.representative.Value(), nil
	}
	return s.BaseHandle.GetDouble(prop, index)
}
