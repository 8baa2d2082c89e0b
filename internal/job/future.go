// Package job implements the bounded worker pool, cancellable jobs, and
// result futures of the async job system, including the
// dependent-future registry that propagates cancellation into
// in-flight storage-layer queries.
package job

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ROCm/roc-optiq-sub003/internal/data"
	"github.com/ROCm/roc-optiq-sub003/internal/result"
)

// State is a job's lifecycle state.
type State int

const (
	StatePending State = iota
	StateSuccess
	StateCancelled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "Pending"
	case StateSuccess:
		return "Success"
	case StateCancelled:
		return "Cancelled"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// DependentFuture is the minimal surface a storage-layer future exposes
// to a controller future for cancellation propagation.
type DependentFuture interface {
	Cancel()
}

// Future owns an optional job pointer, a result Data, a cancellation
// flag, and the set of dependent storage-layer futures registered
// against it.
type Future struct {
	ID string

	mu          sync.Mutex
	cond        *sync.Cond
	state       State
	value       data.Data
	failure     result.Result
	cancelled   bool
	dependents  map[string]DependentFuture
	progressFn  func(done, total int)
}

// NewFuture allocates a Future in the Pending state.
func NewFuture() *Future {
	f := &Future{
		ID:         uuid.New().String(),
		state:      StatePending,
		dependents: make(map[string]DependentFuture),
	}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// AddDependentFuture registers a storage-layer future so that a Cancel
// on this Future reaches it too.
func (f *Future) AddDependentFuture(id string, dep DependentFuture) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancelled {
		dep.Cancel()
		return
	}
	f.dependents[id] = dep
}

// RemoveDependentFuture unregisters a dependent once it has completed,
// so a later Cancel does not attempt to act on a finished future.
func (f *Future) RemoveDependentFuture(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.dependents, id)
}

// IsCancelled reports whether Cancel has been called. Jobs poll this at
// each cooperative cancellation checkpoint.
func (f *Future) IsCancelled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancelled
}

// Cancel marks the future cancelled and forwards cancellation to every
// registered dependent future. It does not by itself resolve the
// future's state -- the owning job observes IsCancelled and resolves
// via resolveCancelled.
func (f *Future) Cancel() {
	f.mu.Lock()
	f.cancelled = true
	deps := make([]DependentFuture, 0, len(f.dependents))
	for _, d := range f.dependents {
		deps = append(deps, d)
	}
	f.mu.Unlock()

	for _, d := range deps {
		d.Cancel()
	}
}

// SetProgressCallback registers an optional progress callback invoked
// by long-running jobs.
func (f *Future) SetProgressCallback(fn func(done, total int)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.progressFn = fn
}

// ReportProgress invokes the progress callback, if any.
func (f *Future) ReportProgress(done, total int) {
	f.mu.Lock()
	fn := f.progressFn
	f.mu.Unlock()
	if fn != nil {
		fn(done, total)
	}
}

func (f *Future) resolve(state State, value data.Data, failure result.Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StatePending {
		return
	}
	f.state = state
	f.value = value
	f.failure = failure
	f.cond.Broadcast()
}

// ResolveSuccess resolves the future with a success value.
func (f *Future) ResolveSuccess(value data.Data) {
	f.resolve(StateSuccess, value, result.Success)
}

// ResolveFailure resolves the future with a failure Result (never
// Success or Pending).
func (f *Future) ResolveFailure(r result.Result) {
	if r == result.Success || r == result.Pending {
		r = result.UnknownError
	}
	f.resolve(StateFailed, data.Data{}, r)
}

// ResolveCancelled resolves the future as cancelled.
func (f *Future) ResolveCancelled() {
	f.resolve(StateCancelled, data.Data{}, result.Cancelled)
}

// Wait blocks until the future resolves or timeout elapses, returning
// the corresponding Result. A zero or
// negative timeout waits indefinitely.
func (f *Future) Wait(timeout time.Duration) result.Result {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StatePending {
		return f.currentResultLocked()
	}
	if timeout <= 0 {
		for f.state == StatePending {
			f.cond.Wait()
		}
		return f.currentResultLocked()
	}

	deadline := time.Now().Add(timeout)
	timer := time.AfterFunc(timeout, func() {
		f.mu.Lock()
		f.cond.Broadcast()
		f.mu.Unlock()
	})
	defer timer.Stop()

	for f.state == StatePending {
		if time.Now().After(deadline) {
			return result.Timeout
		}
		f.cond.Wait()
	}
	return f.currentResultLocked()
}

func (f *Future) currentResultLocked() result.Result {
	switch f.state {
	case StateSuccess:
		return result.Success
	case StateCancelled:
		return result.Cancelled
	case StateFailed:
		return f.failure
	default:
		return result.Pending
	}
}

// Value returns the resolved value. Only meaningful after Wait returns
// Success.
func (f *Future) Value() data.Data {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}

// State returns the future's current lifecycle state.
func (f *Future) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}
