package exec

import (
	"github.com/ljh9248/onert/ir"
)

// LinearExecutor executes operations strictly in the topological order fixed at compile
// time, on a single thread. Deallocation steps for dynamic buffers are already embedded in
// the function sequences, so there is no run-time scheduling state at all.
type LinearExecutor struct {
	*executorBase
	order []ir.OperationIndex
}

// Compile-time check.
var _ Executor = (*LinearExecutor)(nil)

// NewLinearExecutor returns an executor running the code map in the given order. The order
// must be a topological order of the graph's operations.
func NewLinearExecutor(p Params, order []ir.OperationIndex) (*LinearExecutor, error) {
	base, err := newExecutorBase(p)
	if err != nil {
		return nil, err
	}
	return &LinearExecutor{executorBase: base, order: order}, nil
}

// Run implements Executor.
func (e *LinearExecutor) Run(inputs, outputs [][]byte) error {
	return e.run(inputs, outputs, e.execute)
}

func (e *LinearExecutor) execute() error {
	for _, opIdx := range e.order {
		if err := e.runEntry(e.codeMap[opIdx]); err != nil {
			return err
		}
	}
	return nil
}
