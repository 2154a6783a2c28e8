package backends

import "github.com/ljh9248/onert/ir"

// Function is one step of an operation's compiled code: typically the kernel itself, plus
// whatever the compiler composes around it (backend sync, buffer deallocation).
type Function interface {
	// Prepare is called once before the first run, after all tensors exist.
	Prepare() error

	// Run executes the step. An error aborts the operation and the whole graph run.
	Run() error
}

// FunctionSequence is the ordered list of steps that executes one operation. It is built
// once at compile time; composition is appending (or prepending) steps.
type FunctionSequence struct {
	functions []Function
}

// NewFunctionSequence returns a sequence over the given steps.
func NewFunctionSequence(functions ...Function) *FunctionSequence {
	return &FunctionSequence{functions: functions}
}

// Append adds a step to run after the current ones.
func (s *FunctionSequence) Append(fn Function) { s.functions = append(s.functions, fn) }

// Prepend adds a step to run before the current ones.
func (s *FunctionSequence) Prepend(fn Function) {
	s.functions = append([]Function{fn}, s.functions...)
}

// Prepare prepares every step in order, stopping at the first error.
func (s *FunctionSequence) Prepare() error {
	for _, fn := range s.functions {
		if err := fn.Prepare(); err != nil {
			return err
		}
	}
	return nil
}

// Run executes every step in order, stopping at the first error.
func (s *FunctionSequence) Run() error {
	for _, fn := range s.functions {
		if err := fn.Run(); err != nil {
			return err
		}
	}
	return nil
}

// FunctionMap is the result of one context's kernel generation: one function sequence per
// operation of its partial graph.
type FunctionMap map[ir.OperationIndex]*FunctionSequence

// funcFunction adapts a plain closure into a Function with a no-op Prepare.
type funcFunction func() error

func (f funcFunction) Prepare() error { return nil }
func (f funcFunction) Run() error     { return f() }

// FunctionOf wraps run as a Function with a no-op Prepare. Kernels that resolve their
// tensors at generation time are usually written as closures through this.
func FunctionOf(run func() error) Function { return funcFunction(run) }
