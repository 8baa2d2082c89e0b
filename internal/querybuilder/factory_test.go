package querybuilder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSimpleSelect(t *testing.T) {
	sql, args := New("rocpd_region e").
		Select("e.id", AliasEventID).
		Where("e.track_id = ?", uint64(42)).
		OrderBy(AliasStartTs, false).
		Limit(100).
		Build()

	assert.Contains(t, sql, "SELECT e.id AS eventId FROM rocpd_region e")
	assert.Contains(t, sql, "WHERE e.track_id = $1")
	assert.Contains(t, sql, "ORDER BY startTs ASC")
	assert.Contains(t, sql, "LIMIT 100")
	require.Len(t, args, 1)
	assert.Equal(t, uint64(42), args[0])
}

func TestVersionGatedTrackEnumerationUsesConsistentAliases(t *testing.T) {
	f := NewFactory(nil)

	modernSQL, modernArgs := f.TrackEnumeration(5, OpRegion)
	legacySQL, legacyArgs := f.TrackEnumeration(2, OpRegion)

	assert.Contains(t, modernSQL, "AS nodeId")
	assert.Contains(t, legacySQL, "AS nodeId")
	assert.Contains(t, modernSQL, "rocpd_track")
	assert.NotContains(t, legacySQL, "rocpd_track")
	assert.Empty(t, modernArgs)
	assert.Empty(t, legacyArgs)
}

func TestLevelSourceOrdersStartAscEndDesc(t *testing.T) {
	f := NewFactory(nil)
	sql, args := f.LevelSource(5, OpRegion, 7)

	assert.Contains(t, sql, "ORDER BY startTs ASC, endTs DESC")
	require.Len(t, args, 1)
	assert.Equal(t, uint64(7), args[0])
}

func TestSliceBindsMultipleTrackIDs(t *testing.T) {
	f := NewFactory(nil)
	sql, args := f.Slice(5, OpRegion, []uint64{1, 2, 3}, 0, 1000)

	assert.Contains(t, sql, "e.track_id IN ($3, $4, $5)")
	require.Len(t, args, 5)
}
