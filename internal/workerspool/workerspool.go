// Package workerspool implements the fixed-size worker pool used by the parallel executor.
package workerspool

import (
	"runtime"
	"sync"
)

// Pool runs tasks on goroutines, keeping at most maxParallelism of them running at once.
type Pool struct {
	maxParallelism int

	mu         sync.Mutex
	cond       sync.Cond // Signaled whenever numRunning decreases.
	numRunning int
}

// New returns a pool limited to maxParallelism concurrent tasks. Values <= 0 default to
// runtime.NumCPU().
func New(maxParallelism int) *Pool {
	if maxParallelism <= 0 {
		maxParallelism = runtime.NumCPU()
	}
	p := &Pool{maxParallelism: maxParallelism}
	p.cond = sync.Cond{L: &p.mu}
	return p
}

// MaxParallelism returns the pool's concurrency limit.
func (p *Pool) MaxParallelism() int { return p.maxParallelism }

// WaitToStart blocks until a worker is available, then runs task on it and returns.
// It returns as soon as the task is started, not when it finishes.
func (p *Pool) WaitToStart(task func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for p.numRunning >= p.maxParallelism {
		p.cond.Wait()
	}
	p.numRunning++
	go func() {
		task()
		p.mu.Lock()
		p.numRunning--
		p.cond.Signal()
		p.mu.Unlock()
	}()
}
