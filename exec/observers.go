package exec

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ljh9248/onert/ir"
)

// ExecutionObserver is invoked around each operation's execution: tracing, profiling and
// tests plug in here. Under the parallel executor, callbacks may arrive concurrently from
// several workers, so implementations must be safe for concurrent use.
type ExecutionObserver interface {
	// JobBegin is called right before an operation's function sequence runs.
	JobBegin(executorID uuid.UUID, entry *CodeEntry)

	// JobEnd is called right after, with the error the function sequence returned, if any.
	JobEnd(executorID uuid.UUID, entry *CodeEntry, err error)
}

// TimingObserver records the wall-clock duration of every operation.
type TimingObserver struct {
	mu        sync.Mutex
	started   map[ir.OperationIndex]time.Time
	durations map[ir.OperationIndex]time.Duration
}

// Compile-time check.
var _ ExecutionObserver = (*TimingObserver)(nil)

// NewTimingObserver returns an empty TimingObserver.
func NewTimingObserver() *TimingObserver {
	return &TimingObserver{
		started:   make(map[ir.OperationIndex]time.Time),
		durations: make(map[ir.OperationIndex]time.Duration),
	}
}

// JobBegin implements ExecutionObserver.
func (t *TimingObserver) JobBegin(_ uuid.UUID, entry *CodeEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.started[entry.OpIdx] = time.Now()
}

// JobEnd implements ExecutionObserver.
func (t *TimingObserver) JobEnd(_ uuid.UUID, entry *CodeEntry, _ error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if began, found := t.started[entry.OpIdx]; found {
		t.durations[entry.OpIdx] = time.Since(began)
	}
}

// Duration returns the recorded duration of the operation's last execution.
func (t *TimingObserver) Duration(opIdx ir.OperationIndex) (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	duration, found := t.durations[opIdx]
	return duration, found
}
