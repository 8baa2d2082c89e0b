package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ROCm/roc-optiq-sub003/infrastructure/errors"
)

func TestDataTagConversions(t *testing.T) {
	d := NewUInt64(42)
	v, err := d.AsUInt64()
	require.NoError(t, err)
	assert.Equal(t, uint64(42), v)

	_, err = d.AsDouble()
	assert.Equal(t, errors.ErrCodeInvalidType, errors.CodeOf(err))
}

func TestCheckKindUnhandledVsInvalidEnum(t *testing.T) {
	// TrackMinTimestamp belongs to Track, not Graph.
	err := CheckKind(KindGraph, TrackMinTimestamp)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeUnhandledProperty, errors.CodeOf(err))

	err = CheckKind(KindTrack, TrackMinTimestamp)
	assert.NoError(t, err)

	// A property past the last kind's block addresses no block at all.
	err = CheckKind(KindTrack, Property(int(kindCount)*propertyBlockSize))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidEnum, errors.CodeOf(err))
}

func TestCheckIndexOutOfRange(t *testing.T) {
	err := CheckIndex(EventChildrenHandle, 5, 3)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeOutOfRange, errors.CodeOf(err))

	assert.NoError(t, CheckIndex(EventChildrenHandle, 2, 3))
}

type trackNameHandle struct {
	BaseHandle
	name string
}

func (h trackNameHandle) GetString(prop Property, index int) (string, error) {
	if err := h.checkOwned(prop); err != nil {
		return "", err
	}
	if prop == TrackName {
		return h.name, nil
	}
	return h.BaseHandle.GetString(prop, index)
}

func TestGetStringIntoTwoCallProbe(t *testing.T) {
	h := trackNameHandle{BaseHandle: NewBaseHandle(KindTrack), name: "gpu0"}

	n, err := GetStringInto(h, TrackName, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	buf := make([]byte, n+1)
	n2, err := GetStringInto(h, TrackName, 0, buf)
	require.NoError(t, err)
	assert.Equal(t, 4, n2)
	assert.Equal(t, "gpu0\x00", string(buf))
}

func TestBaseHandleReadOnlySetters(t *testing.T) {
	h := NewBaseHandle(KindEvent)
	err := h.SetUInt64(EventLevel, 0, 3)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeReadOnly, errors.CodeOf(err))
}

func TestPropertyRangeIsContiguousPerKind(t *testing.T) {
	first, last := PropertyRange(KindTrack)
	assert.Equal(t, KindTrack, KindOf(first))
	assert.Equal(t, KindTrack, KindOf(last))
	assert.True(t, first <= TrackName && TrackName <= last)
}
