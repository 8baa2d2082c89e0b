package event

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ROCm/roc-optiq-sub003/internal/data"
)

func TestEventLevelStartsUnassigned(t *testing.T) {
	e := New(1, 0, 100, 5, 6, 7)
	assert.Equal(t, -1, e.Level())
	e.SetLevel(3)
	assert.Equal(t, 3, e.Level())
}

func TestEventRetainReleaseNeverNegative(t *testing.T) {
	e := New(1, 0, 100, 5, 6, 7)
	assert.EqualValues(t, 0, e.Release())
	e.Retain()
	e.Retain()
	assert.EqualValues(t, 1, e.Release())
	assert.EqualValues(t, 0, e.Release())
	assert.EqualValues(t, 0, e.Release())
}

func TestEventChildrenLazyAndIndexed(t *testing.T) {
	parent := New(1, 0, 100, 5, 6, 7)
	count, err := parent.GetUInt64(data.EventChildrenCount, 0)
	assert.NoError(t, err)
	assert.EqualValues(t, 0, count)

	child := New(2, 10, 20, 5, 6, 7)
	parent.AddChild(child)

	count, err = parent.GetUInt64(data.EventChildrenCount, 0)
	assert.NoError(t, err)
	assert.EqualValues(t, 1, count)

	got, err := parent.GetObject(data.EventChildrenHandle, 0)
	assert.NoError(t, err)
	assert.Equal(t, child, got)

	_, err = parent.GetObject(data.EventChildrenHandle, 1)
	assert.Error(t, err)
}

func TestEventUnhandledPropertyForOtherKind(t *testing.T) {
	e := New(1, 0, 100, 5, 6, 7)
	_, err := e.GetUInt64(data.TrackID, 0)
	assert.Error(t, err)
}

func TestSampleLODSummarizesChildren(t *testing.T) {
	children := []*Sample{
		NewSample(1, 10, 1.5),
		NewSample(2, 20, 2.5),
		NewSample(3, 30, 3.5),
	}
	lod := NewSampleLOD(children[0], children)

	count, err := lod.GetUInt64(data.SampleLODChildCount, 0)
	assert.NoError(t, err)
	assert.EqualValues(t, 3, count)

	val, err := lod.GetDouble(data.SampleLODValue, 0)
	assert.NoError(t, err)
	assert.Equal(t, 1.5, val)
}

func TestHistogramBucketsDurations(t *testing.T) {
	h := NewHistogram(4, 0, 100)
	h.AddBatch([]float64{0, 24, 26, 49, 51, 99, 100})

	buckets := h.Buckets()
	var total uint64
	for _, b := range buckets {
		total += b
	}
	assert.EqualValues(t, 7, total)
	assert.Len(t, buckets, 4)
}

func TestHistogramClampsOutOfRange(t *testing.T) {
	h := NewHistogram(2, 0, 10)
	h.Add(-5)
	h.Add(500)
	buckets := h.Buckets()
	assert.EqualValues(t, 1, buckets[0])
	assert.EqualValues(t, 1, buckets[1])
}

func TestHistogramReset(t *testing.T) {
	h := NewHistogram(2, 0, 10)
	h.Add(1)
	h.Reset()
	for _, b := range h.Buckets() {
		assert.EqualValues(t, 0, b)
	}
}
