package exec

import (
	"slices"

	"github.com/gomlx/exceptions"

	"github.com/ljh9248/onert/ir"
)

// jobState tracks one operation through a run: Pending (producers outstanding), Ready
// (all producers done, waiting for a thread), Running, Done.
type jobState int8

const (
	jobPending jobState = iota
	jobReady
	jobRunning
	jobDone
)

// depTracker is the run-time dependency state shared by the Dataflow and Parallel
// executors: per-operation remaining-producer counts and the reverse (dependents) edges.
//
// It is rebuilt cheaply at the start of every run; the executors own any locking.
type depTracker struct {
	remainingDeps map[ir.OperationIndex]int
	dependents    map[ir.OperationIndex][]ir.OperationIndex
	states        map[ir.OperationIndex]jobState
}

// newDepTracker derives the dependency state from the graph's def/use links, restricted to
// the operations present in the code map.
func newDepTracker(graph *ir.Graph, codeMap CodeMap) *depTracker {
	t := &depTracker{
		remainingDeps: make(map[ir.OperationIndex]int, len(codeMap)),
		dependents:    make(map[ir.OperationIndex][]ir.OperationIndex, len(codeMap)),
		states:        make(map[ir.OperationIndex]jobState, len(codeMap)),
	}
	for _, opIdx := range graph.OperationIndexes() {
		if _, found := codeMap[opIdx]; !found {
			continue
		}
		op := graph.Operation(opIdx)
		deps := 0
		for _, inIdx := range op.DistinctInputs() {
			def := graph.Operand(inIdx).Def()
			if !def.Valid() {
				continue // Graph input or constant: always available.
			}
			deps++
			t.dependents[def] = append(t.dependents[def], opIdx)
		}
		t.remainingDeps[opIdx] = deps
		t.states[opIdx] = jobPending
	}
	return t
}

// initialReady returns the operations with no producers, in ascending index order, and
// marks them ready.
func (t *depTracker) initialReady() []ir.OperationIndex {
	var ready []ir.OperationIndex
	for opIdx, deps := range t.remainingDeps {
		if deps == 0 {
			ready = append(ready, opIdx)
			t.states[opIdx] = jobReady
		}
	}
	slices.Sort(ready)
	return ready
}

// complete marks opIdx done and returns the dependents it promoted to ready.
func (t *depTracker) complete(opIdx ir.OperationIndex) []ir.OperationIndex {
	t.states[opIdx] = jobDone
	var promoted []ir.OperationIndex
	for _, depIdx := range t.dependents[opIdx] {
		t.remainingDeps[depIdx]--
		if t.remainingDeps[depIdx] == 0 {
			t.states[depIdx] = jobReady
			promoted = append(promoted, depIdx)
		}
	}
	slices.Sort(promoted)
	return promoted
}

// DataflowExecutor recomputes operation readiness at run time and executes ready
// operations one at a time on a single thread. The final result is identical to the
// linear executor's; the run-time dependency model is what the parallel executor builds
// on, and it gives observers precise per-operation scheduling boundaries.
type DataflowExecutor struct {
	*executorBase
}

// Compile-time check.
var _ Executor = (*DataflowExecutor)(nil)

// NewDataflowExecutor returns a single-threaded dataflow executor over the code map.
func NewDataflowExecutor(p Params) (*DataflowExecutor, error) {
	base, err := newExecutorBase(p)
	if err != nil {
		return nil, err
	}
	return &DataflowExecutor{executorBase: base}, nil
}

// Run implements Executor.
func (e *DataflowExecutor) Run(inputs, outputs [][]byte) error {
	return e.run(inputs, outputs, e.execute)
}

func (e *DataflowExecutor) execute() error {
	tracker := newDepTracker(e.graph, e.codeMap)
	queue := tracker.initialReady()
	executed := 0
	for len(queue) > 0 {
		opIdx := queue[0]
		queue = queue[1:]
		tracker.states[opIdx] = jobRunning
		if err := e.runEntry(e.codeMap[opIdx]); err != nil {
			return err
		}
		executed++
		queue = append(queue, tracker.complete(opIdx)...)
	}
	if executed != len(e.codeMap) {
		exceptions.Panicf("dataflow executor ran %d of %d operations: dependency state is inconsistent",
			executed, len(e.codeMap))
	}
	return nil
}
