// Package pool provides three interchangeable job-dispatch strategies,
// each trading off differently between isolation and goroutine reuse. A
// server connection handler spawns onto whichever Pool it was built
// with; none of them return a result, so a job that needs one hands it
// back through its own channel.
package pool

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/jptalukdar/kvs/internal/logger"
)

// Pool dispatches fire-and-forget jobs for execution.
type Pool interface {
	Spawn(job func())
}

// runJob executes job, recovering and logging a panic rather than
// letting it take down the process — a panicking job should cost that
// one job, not every other job in flight.
func runJob(job func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("pool: job panicked: %v", r)
		}
	}()
	job()
}

// Naive spawns a fresh goroutine per job. No reuse, no bound on
// concurrency — the simplest strategy and the right default for
// short-lived servers or tests.
type Naive struct{}

// NewNaive returns a Naive pool. The worker count argument is accepted
// only to satisfy the common pool constructor shape; Naive ignores it.
func NewNaive(_ uint) (*Naive, error) {
	return &Naive{}, nil
}

// Spawn runs job on a new goroutine.
func (p *Naive) Spawn(job func()) {
	go runJob(job)
}

// SharedQueue runs a fixed number of long-lived workers pulling off one
// unbounded FIFO queue. Spawn never blocks: it appends to an in-memory
// slice rather than a fixed-capacity channel, so a burst of jobs queues up
// instead of stalling the caller when every worker is busy. A worker
// whose job panics is replaced by a freshly spawned worker reading from
// the same queue, so the pool's effective worker count recovers after the
// job that caused the panic is done failing.
type SharedQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool
}

// NewSharedQueue starts workers goroutines (at least one) consuming from
// a shared, unbounded job queue.
func NewSharedQueue(workers uint) (*SharedQueue, error) {
	if workers == 0 {
		workers = 1
	}
	p := &SharedQueue{}
	p.cond = sync.NewCond(&p.mu)
	for i := uint(0); i < workers; i++ {
		go p.runWorker()
	}
	return p, nil
}

// Spawn appends job to the queue and wakes one idle worker. It never
// blocks on worker availability.
func (p *SharedQueue) Spawn(job func()) {
	p.mu.Lock()
	p.queue = append(p.queue, job)
	p.mu.Unlock()
	p.cond.Signal()
}

// Close marks the queue closed and wakes every blocked worker so they
// can observe closure and exit once the queue drains. Jobs already
// queued still run.
func (p *SharedQueue) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.cond.Broadcast()
}

// next blocks until a job is available or the queue is closed and
// drained, in which case ok is false.
func (p *SharedQueue) next() (job func(), ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.queue) == 0 && !p.closed {
		p.cond.Wait()
	}
	if len(p.queue) == 0 {
		return nil, false
	}
	job, p.queue = p.queue[0], p.queue[1:]
	return job, true
}

func (p *SharedQueue) runWorker() {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("pool: worker panicked, respawning: %v", r)
			go p.runWorker()
		}
	}()
	for {
		job, ok := p.next()
		if !ok {
			return
		}
		job()
	}
}

// Bounded caps how many jobs run concurrently without pinning a
// dedicated goroutine per worker, the way a work-stealing pool bounds
// parallelism without a fixed thread-per-worker model.
type Bounded struct {
	sem *semaphore.Weighted
}

// NewBounded returns a pool that runs at most workers jobs (at least
// one) at a time.
func NewBounded(workers uint) (*Bounded, error) {
	if workers == 0 {
		workers = 1
	}
	return &Bounded{sem: semaphore.NewWeighted(int64(workers))}, nil
}

// Spawn returns immediately; job runs on a new goroutine once that
// goroutine acquires a free slot.
func (p *Bounded) Spawn(job func()) {
	go func() {
		if err := p.sem.Acquire(context.Background(), 1); err != nil {
			return
		}
		defer p.sem.Release(1)
		runJob(job)
	}()
}
