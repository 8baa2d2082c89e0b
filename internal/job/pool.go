package job

import (
	"container/list"
	"context"
	"fmt"
	goruntime "runtime"
	"sync"

	"golang.org/x/time/rate"

	"github.com/ROCm/roc-optiq-sub003/infrastructure/logging"
	"github.com/ROCm/roc-optiq-sub003/infrastructure/metrics"
)

// Fn is the body of a job. It receives the Future it was issued
// against so it can poll cancellation and register dependent futures.
type Fn func(ctx context.Context, future *Future)

// job pairs a Fn with the Future it resolves.
type job struct {
	fn     Fn
	future *Future
	elem   *list.Element // position in the FIFO queue, for O(1) removal on cancel
}

// Pool is the fixed-size worker thread pool serving a single FIFO job
// queue. Workers loop: wait until the queue is non-empty or
// the pool is stopping; pop a job; execute it.
type Pool struct {
	name    string
	metrics *metrics.Metrics

	size    int
	limiter *rate.Limiter

	mu      sync.Mutex
	cond    *sync.Cond
	queue   *list.List
	byJobID map[string]*job // future ID -> queued job, for Cancel-while-queued

	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// Config configures a Pool. Size defaults to hardware_concurrency()
// (runtime.NumCPU()) when zero. AdmissionRPS/Burst bound how fast Issue
// hands new jobs to the queue (via golang.org/x/time/rate), protecting
// the storage collaborator from a caller that fires many table-fetch
// jobs at once.
type Config struct {
	Name         string
	Size         int
	AdmissionRPS float64
	AdmissionBurst int
	Metrics      *metrics.Metrics
}

// NewPool constructs a Pool. Call Start to spin up workers.
func NewPool(cfg Config) *Pool {
	size := cfg.Size
	if size <= 0 {
		size = goruntime.NumCPU()
		if size < 1 {
			size = 1
		}
	}

	var limiter *rate.Limiter
	if cfg.AdmissionRPS > 0 {
		burst := cfg.AdmissionBurst
		if burst <= 0 {
			burst = size * 4
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.AdmissionRPS), burst)
	}

	p := &Pool{
		name:    cfg.Name,
		metrics: cfg.Metrics,
		size:    size,
		limiter: limiter,
		queue:   list.New(),
		byJobID: make(map[string]*job),
		stopCh:  make(chan struct{}),
	}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Start launches the worker goroutines.
func (p *Pool) Start() error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("job pool %s already running", p.name)
	}
	p.running = true
	p.mu.Unlock()

	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.workerLoop(i)
	}
	return nil
}

// Stop drains the queue, cancelling every job still waiting, then joins
// all workers.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false

	for e := p.queue.Front(); e != nil; e = e.Next() {
		j := e.Value.(*job)
		j.future.ResolveCancelled()
	}
	p.queue.Init()
	p.byJobID = make(map[string]*job)
	p.mu.Unlock()

	close(p.stopCh)
	p.cond.Broadcast()
	p.wg.Wait()
}

// Issue constructs a job from fn, enqueues it, and wakes one worker.
// Returns the Future the caller waits on.
func (p *Pool) Issue(ctx context.Context, fn Fn) *Future {
	future := NewFuture()

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			future.ResolveCancelled()
			return future
		}
	}

	j := &job{fn: fn, future: future}

	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		future.ResolveFailure(resultUnknown())
		return future
	}
	j.elem = p.queue.PushBack(j)
	p.byJobID[future.ID] = j
	pending := p.queue.Len()
	p.mu.Unlock()

	if p.metrics != nil {
		p.metrics.JobsPending.Set(float64(pending))
	}

	p.cond.Signal()
	return future
}

// CancelQueued removes a not-yet-started job from the queue and
// resolves its future as Cancelled, without invoking the job function
//.
func (p *Pool) CancelQueued(futureID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	j, ok := p.byJobID[futureID]
	if !ok {
		return false
	}
	p.queue.Remove(j.elem)
	delete(p.byJobID, futureID)
	j.future.ResolveCancelled()
	return true
}

func (p *Pool) workerLoop(_ int) {
	defer p.wg.Done()

	for {
		p.mu.Lock()
		for p.queue.Len() == 0 && p.running {
			p.cond.Wait()
		}
		if !p.running && p.queue.Len() == 0 {
			p.mu.Unlock()
			return
		}
		front := p.queue.Front()
		if front == nil {
			p.mu.Unlock()
			continue
		}
		j := p.queue.Remove(front).(*job)
		delete(p.byJobID, j.future.ID)
		pending := p.queue.Len()
		p.mu.Unlock()

		if p.metrics != nil {
			p.metrics.JobsPending.Set(float64(pending))
			p.metrics.JobsActive.Inc()
		}

		p.runJob(j)

		if p.metrics != nil {
			p.metrics.JobsActive.Dec()
		}
	}
}

func (p *Pool) runJob(j *job) {
	ctx := context.Background()

	// Cancellation checkpoint before execution starts.
	if j.future.IsCancelled() {
		j.future.ResolveCancelled()
		return
	}

	defer func() {
		if r := recover(); r != nil {
			j.future.ResolveFailure(resultUnknown())
			logging.Default().Error(ctx, "job panicked", fmt.Errorf("%v", r), nil)
		}
	}()

	j.fn(ctx, j.future)

	// A well-behaved job resolves its own future; if it returns
	// without doing so (e.g. early return on cancellation), resolve
	// on its behalf so callers never hang on Wait.
	if j.future.State() == StatePending {
		if j.future.IsCancelled() {
			j.future.ResolveCancelled()
		} else {
			j.future.ResolveSuccess(j.future.Value())
		}
	}
}
