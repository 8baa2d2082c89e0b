package memmgr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolAllocateFreeReuseSlot(t *testing.T) {
	p := newPool(64)
	slot1, ok := p.allocate()
	require.True(t, ok)
	assert.Equal(t, 1, p.occupancy())

	p.free(slot1)
	assert.Equal(t, 0, p.occupancy())
	assert.True(t, p.empty())

	slot2, ok := p.allocate()
	require.True(t, ok)
	assert.Equal(t, slot1, slot2)
}

func TestPoolFillsAllBitsThenReportsFull(t *testing.T) {
	p := newPool(8)
	for i := 0; i < poolBits; i++ {
		_, ok := p.allocate()
		require.True(t, ok, "slot %d", i)
	}
	_, ok := p.allocate()
	assert.False(t, ok)
}

func TestPoolDoubleFreeIsNoOp(t *testing.T) {
	p := newPool(8)
	slot, _ := p.allocate()
	p.free(slot)
	p.free(slot)
	assert.Equal(t, 0, p.occupancy())
}

func TestManagerAllocateGrowsNewPoolWhenFull(t *testing.T) {
	m := NewManager(1<<30, 2.0)
	var tokens []Token
	for i := 0; i < poolBits+10; i++ {
		tok, err := m.Allocate("Event", 64)
		require.NoError(t, err)
		tokens = append(tokens, tok)
	}
	assert.Equal(t, int64(64*(poolBits+10)), m.ResidentBytes())

	for _, tok := range tokens {
		m.Free(tok)
	}
	assert.Equal(t, int64(0), m.ResidentBytes())
}

func TestManagerDistinctKindsDoNotSharePools(t *testing.T) {
	m := NewManager(1<<30, 2.0)
	_, err := m.Allocate("Event", 64)
	require.NoError(t, err)
	_, err = m.Allocate("Sample", 64)
	require.NoError(t, err)

	assert.Len(t, m.pools, 2)
}

func TestLRUEvictsOldestNonInUseEntries(t *testing.T) {
	m := NewManager(100, 2.0) // budget*scale = 200
	l := m.LRU()

	l.Register("owner1", "seg1", 0x1, 0, 100)
	l.Register("owner1", "seg2", 0x2, 0, 100)
	l.Register("owner1", "seg3", 0x3, 0, 100)

	_, err := m.Allocate("Event", 100)
	require.NoError(t, err)
	_, err = m.Allocate("Event", 100)
	require.NoError(t, err)
	_, err = m.Allocate("Event", 100)
	require.NoError(t, err)

	l.sweep()

	l.mu.Lock()
	_, stillHas1 := l.byPtr[0x1]
	_, stillHas3 := l.byPtr[0x3]
	l.mu.Unlock()

	assert.False(t, stillHas1, "oldest entry should have been evicted")
	assert.True(t, stillHas3, "newest entry should survive")
}

func TestLRUSkipsInUseAndCancelledEntries(t *testing.T) {
	m := NewManager(10, 1.0)
	l := m.LRU()

	l.Register("owner1", "seg1", 0x1, 0, 100)
	l.MarkInUse(0x1)
	l.Register("owner1", "seg2", 0x2, 0, 100)
	l.Cancel(0x2)

	l.sweep()

	l.mu.Lock()
	_, has1 := l.byPtr[0x1]
	_, has2 := l.byPtr[0x2]
	l.mu.Unlock()

	assert.True(t, has1)
	assert.True(t, has2)
}

func TestLRUEvictionThreadWakesOnRegisterWithoutWaitingForTicker(t *testing.T) {
	m := NewManager(100, 2.0) // budget*scale = 200
	l := m.LRU()
	l.Start()
	defer l.Stop()

	l.Register("owner1", "seg1", 0x1, 0, 100)
	l.Register("owner1", "seg2", 0x2, 0, 100)
	l.Register("owner1", "seg3", 0x3, 0, 100)

	_, err := m.Allocate("Event", 100)
	require.NoError(t, err)
	_, err = m.Allocate("Event", 100)
	require.NoError(t, err)
	_, err = m.Allocate("Event", 100)
	require.NoError(t, err)

	// Register's wake should trigger a sweep well before the periodic
	// 5-second tick; a flaky wait here means the wake channel isn't
	// actually driving the eviction thread.
	require.Eventually(t, func() bool {
		l.mu.Lock()
		_, stillHas1 := l.byPtr[0x1]
		l.mu.Unlock()
		return !stillHas1
	}, time.Second, 10*time.Millisecond, "registration should wake the eviction thread")
}

func TestLRURegisterTouchExistingMovesToBack(t *testing.T) {
	m := NewManager(1<<30, 2.0)
	l := m.LRU()

	l.Register("owner1", "seg1", 0x1, 0, 10)
	l.Register("owner1", "seg2", 0x2, 0, 10)
	l.Register("owner1", "seg1", 0x1, 0, 10) // re-touch

	l.mu.Lock()
	front := l.order.Front().Value.(*member)
	l.mu.Unlock()

	assert.Equal(t, uintptr(0x2), front.arrayPtr)
}
