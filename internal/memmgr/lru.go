package memmgr

import (
	"container/list"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ROCm/roc-optiq-sub003/infrastructure/metrics"
)

// maxEvictionsPerSweep bounds how many entries a single sweep evicts,
// so one eviction pass can't stall the engine under a huge backlog
//.
const maxEvictionsPerSweep = 1_000_000

// member is one LRU entry: a fetched result array handed out to a
// consumer, keyed by (owner, segment, lod, arrayPtr) plus the time it
// was last touched.
type member struct {
	owner     string
	segment   string
	lod       int
	arrayPtr  uintptr
	bytes     int64
	touchedAt time.Time
	cancelled bool // non-evictable once ownership is explicitly claimed
}

// lru is a single global list of fetched result arrays, ordered oldest-
// to-newest, with a lookup set of in-use array pointers. A dedicated
// eviction thread suspends until woken by a budget change, a new
// registration, or a periodic tick, and evicts the oldest non-in-use,
// non-cancelled entries until resident bytes fall back under budget.
type lru struct {
	mu    sync.Mutex
	order *list.List // of *member, front = oldest
	byPtr map[uintptr]*list.Element
	inUse map[uintptr]bool

	mgr         *Manager
	budgetBytes int64
	scaleFactor float64

	log *zap.Logger

	wake   chan struct{} // buffered 1; nudges the eviction thread to sweep now
	stopCh chan struct{}
	doneCh chan struct{}
}

func newLRU(mgr *Manager, budgetBytes int64, scaleFactor float64) *lru {
	if scaleFactor <= 0 {
		scaleFactor = 2.0
	}
	return &lru{
		order:       list.New(),
		byPtr:       make(map[uintptr]*list.Element),
		inUse:       make(map[uintptr]bool),
		mgr:         mgr,
		budgetBytes: budgetBytes,
		scaleFactor: scaleFactor,
		log:         zap.L().Named("memmgr.lru"),
		wake:        make(chan struct{}, 1),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

// wakeEvictor nudges the eviction thread to sweep immediately instead
// of waiting for the next periodic tick. The send is non-blocking: a
// pending wake already covers any sweep a caller would have asked for.
func (l *lru) wakeEvictor() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// SetScaleFactor updates the budget scale factor. It is the only way
// to change the factor after construction; no controller property
// calls it.
func (l *lru) SetScaleFactor(f float64) {
	l.mu.Lock()
	l.scaleFactor = f
	l.mu.Unlock()
	l.wakeEvictor()
}

// Register records that arrayPtr, owned by owner and identified by
// (segment, lod), was just handed out to a consumer and is therefore
// the most recently touched entry.
func (l *lru) Register(owner, segment string, arrayPtr uintptr, lod int, bytes int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if el, ok := l.byPtr[arrayPtr]; ok {
		l.order.MoveToBack(el)
		el.Value.(*member).touchedAt = time.Now()
		return
	}

	m := &member{
		owner:     owner,
		segment:   segment,
		lod:       lod,
		arrayPtr:  arrayPtr,
		bytes:     bytes,
		touchedAt: time.Now(),
	}
	l.byPtr[arrayPtr] = l.order.PushBack(m)
	l.wakeEvictor()
}

// MarkInUse/MarkAvailable toggle whether an array pointer may be
// evicted; an in-use pointer is skipped by eviction regardless of age.
func (l *lru) MarkInUse(arrayPtr uintptr) {
	l.mu.Lock()
	l.inUse[arrayPtr] = true
	l.mu.Unlock()
}

func (l *lru) MarkAvailable(arrayPtr uintptr) {
	l.mu.Lock()
	delete(l.inUse, arrayPtr)
	l.mu.Unlock()
	l.wakeEvictor()
}

// Cancel marks arrayPtr non-evictable, used when the owner explicitly
// reclaims it.
func (l *lru) Cancel(arrayPtr uintptr) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if el, ok := l.byPtr[arrayPtr]; ok {
		el.Value.(*member).cancelled = true
	}
}

// Uncancel clears the non-evictable flag set by Cancel.
func (l *lru) Uncancel(arrayPtr uintptr) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if el, ok := l.byPtr[arrayPtr]; ok {
		el.Value.(*member).cancelled = false
	}
	l.wakeEvictor()
}

// Start launches the eviction thread. It suspends until woken by a
// budget change, a new registration, a periodic tick, or shutdown.
func (l *lru) Start() {
	go l.run()
}

// Stop signals the eviction thread to exit and waits for it to do so.
func (l *lru) Stop() {
	close(l.stopCh)
	<-l.doneCh
}

func (l *lru) run() {
	defer close(l.doneCh)

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case <-ticker.C:
			l.sweep()
		case <-l.wake:
			l.sweep()
		}
	}
}

// sweep evicts the oldest non-in-use, non-cancelled entries until
// resident bytes fall under budget*scaleFactor, or until
// maxEvictionsPerSweep entries have been evicted, whichever comes
// first.
func (l *lru) sweep() {
	l.mu.Lock()
	budget := int64(float64(l.budgetBytes) * l.scaleFactor)
	l.mu.Unlock()

	if budget <= 0 {
		return
	}

	resident := l.mgr.ResidentBytes()
	if resident <= budget {
		return
	}

	var evicted int
	var freedBytes int64

	l.mu.Lock()
	el := l.order.Front()
	for el != nil && evicted < maxEvictionsPerSweep && resident-freedBytes > budget {
		next := el.Next()
		m := el.Value.(*member)
		if !l.inUse[m.arrayPtr] && !m.cancelled {
			delete(l.byPtr, m.arrayPtr)
			l.order.Remove(el)
			freedBytes += m.bytes
			evicted++
		}
		el = next
	}
	l.mu.Unlock()

	if evicted > 0 {
		if metrics.Global() != nil {
			metrics.Global().RecordLRUSweep(evicted, l.mgr.ResidentBytes())
		}
		l.log.Debug("lru sweep evicted entries",
			zap.Int("evicted", evicted),
			zap.Int64("freed_bytes", freedBytes),
			zap.Int64("resident_bytes_before", resident),
		)
	} else {
		// Eviction could not reach budget: log and let allocation proceed
		// best-effort rather than block the caller.
		l.log.Warn("lru sweep could not reach budget: every entry in use or cancelled",
			zap.Int64("resident_bytes", resident),
			zap.Int64("budget_bytes", budget),
		)
	}
}
