package exec

import (
	"sync"

	"github.com/ljh9248/onert/internal/workerspool"
	"github.com/ljh9248/onert/ir"
)

// ParallelExecutor uses the same dependency model as the dataflow executor, but dispatches
// ready operations to a fixed-size worker pool: operations with no data dependency between
// them may run concurrently.
//
// Every operation still starts only after all of its producers completed (the completion
// bookkeeping below establishes the happens-before edge), so tensor contents need no
// locking -- an operand read by concurrent consumers was written by a producer that is
// already done.
type ParallelExecutor struct {
	*executorBase
	pool *workerspool.Pool
}

// Compile-time check.
var _ Executor = (*ParallelExecutor)(nil)

// NewParallelExecutor returns an executor dispatching to at most workers concurrent
// worker goroutines (<= 0 defaults to the number of CPUs).
func NewParallelExecutor(p Params, workers int) (*ParallelExecutor, error) {
	base, err := newExecutorBase(p)
	if err != nil {
		return nil, err
	}
	return &ParallelExecutor{executorBase: base, pool: workerspool.New(workers)}, nil
}

// Run implements Executor.
func (e *ParallelExecutor) Run(inputs, outputs [][]byte) error {
	return e.run(inputs, outputs, e.execute)
}

func (e *ParallelExecutor) execute() error {
	tracker := newDepTracker(e.graph, e.codeMap)

	// Ready operations flow through readyCh; each operation is enqueued exactly once, so
	// the buffer never fills and workers never block on send.
	readyCh := make(chan ir.OperationIndex, len(e.codeMap))

	var (
		mu            sync.Mutex // Protects tracker, completed, stopped and collectErrors.
		completed     int
		stopped       bool
		collectErrors []error
		wg            sync.WaitGroup
	)
	expected := len(e.codeMap)
	if expected == 0 {
		return nil
	}

	// stopLocked closes readyCh once; mu must be held.
	stopLocked := func() {
		if !stopped {
			stopped = true
			close(readyCh)
		}
	}

	mu.Lock()
	for _, opIdx := range tracker.initialReady() {
		readyCh <- opIdx
	}
	mu.Unlock()

	for opIdx := range readyCh {
		opIdx := opIdx
		wg.Add(1)
		e.pool.WaitToStart(func() {
			defer wg.Done()

			// Operations promoted before a failure may still sit in the buffer; abandon
			// them instead of running them.
			mu.Lock()
			if stopped {
				mu.Unlock()
				return
			}
			tracker.states[opIdx] = jobRunning
			mu.Unlock()

			err := e.runEntry(e.codeMap[opIdx])

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				collectErrors = append(collectErrors, err)
				stopLocked()
				return
			}
			if stopped {
				return
			}
			promoted := tracker.complete(opIdx)
			completed++
			if completed == expected {
				stopLocked()
				return
			}
			for _, depIdx := range promoted {
				readyCh <- depIdx
			}
		})
	}
	wg.Wait()

	if len(collectErrors) > 0 {
		return collectErrors[0]
	}
	return nil
}
