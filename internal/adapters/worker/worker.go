package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/cardcognition/pkg/logger"
	"github.com/okian/cardcognition/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	poolShutdownTimeout     = 30 * time.Second
)

// Job is one unit of work. It must honour ctx.
type Job func(ctx context.Context)

type task struct {
	ctx  context.Context
	job  Job
	done func()
}

// Worker runs jobs until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker after its current job.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker over a shared job channel.
type InMemoryWorker struct {
	jobs   <-chan task
	name   string
	active *atomic.Int64

	// Shutdown control
	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// newInMemoryWorker creates a worker reading from jobs.
func newInMemoryWorker(jobs <-chan task, active *atomic.Int64, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		jobs:     jobs,
		name:     "worker",
		active:   active,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case t := <-w.jobs:
			w.process(t)
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process runs a single job. A panicking job is logged and counted; the
// worker keeps running.
func (w *InMemoryWorker) process(t task) {
	start := time.Now()
	metrics.UpdateWorkerActiveCount(int(w.active.Add(1)))
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordErrorByComponent("worker", "panic")
			w.logger.Error(t.ctx, "job panicked", logger.Any("panic", r))
		}
		metrics.UpdateWorkerActiveCount(int(w.active.Add(-1)))
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000.0)
		t.done()
	}()

	t.job(t.ctx)
}

// Pool manages a fixed set of workers sharing one unbuffered job channel,
// so a job is either picked up by a running worker or never accepted.
type Pool struct {
	workers []*InMemoryWorker
	jobs    chan task
	active  atomic.Int64

	shutdown     chan struct{}
	shutdownOnce sync.Once

	logger logger.Logger
}

// NewPool creates a new worker pool. workerCount < 1 selects a default
// derived from the number of CPUs.
func NewPool(workerCount int, opts ...PoolOption) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	p := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		jobs:     make(chan task),
		shutdown: make(chan struct{}),
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}

	for i := 0; i < workerCount; i++ {
		p.workers[i] = newInMemoryWorker(p.jobs, &p.active,
			WithName("worker-"+strconv.Itoa(i)),
			WithLogger(p.logger),
		)
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Submit hands job to a worker, blocking until one accepts it. done is
// called once the job has finished.
func (p *Pool) Submit(ctx context.Context, job Job, done func()) error {
	select {
	case <-p.shutdown:
		return ErrPoolClosed
	default:
	}
	select {
	case p.jobs <- task{ctx: ctx, job: job, done: done}:
		return nil
	case <-p.shutdown:
		return ErrPoolClosed
	case <-ctx.Done():
		return fmt.Errorf("submit: %w", ctx.Err())
	}
}

// Run executes fn(ctx, i) for i in [0, n) on the pool and waits for all
// accepted jobs. fn must write its result by index; output order therefore
// never depends on scheduling. The first submission error stops further
// submissions and is returned after accepted jobs finish.
func (p *Pool) Run(ctx context.Context, n int, fn func(ctx context.Context, i int)) error {
	var wg sync.WaitGroup
	var err error
	for i := 0; i < n; i++ {
		wg.Add(1)
		idx := i
		if err = p.Submit(ctx, func(ctx context.Context) { fn(ctx, idx) }, wg.Done); err != nil {
			wg.Done()
			break
		}
	}
	wg.Wait()
	return err
}

// Shutdown gracefully shuts down the entire worker pool.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.shutdownOnce.Do(func() { close(p.shutdown) })

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		if err := w.Shutdown(shutdownCtx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	return nil
}
