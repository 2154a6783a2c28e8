package compiler

import (
	"github.com/ljh9248/onert/backends"
	"github.com/ljh9248/onert/exec"
)

// ExecutionBuilder accumulates per-operation code entries as kernel generation walks the
// backend contexts, and releases the finished code map to exactly one executor.
type ExecutionBuilder struct {
	codeMap exec.CodeMap
}

// NewExecutionBuilder returns an empty builder.
func NewExecutionBuilder() *ExecutionBuilder {
	return &ExecutionBuilder{codeMap: make(exec.CodeMap)}
}

// Append records one operation's compiled code.
func (b *ExecutionBuilder) Append(entry *exec.CodeEntry) {
	b.codeMap[entry.OpIdx] = entry
}

// ReleaseCodeMap transfers ownership of the code map to the caller; the builder is empty
// afterwards.
func (b *ExecutionBuilder) ReleaseCodeMap() exec.CodeMap {
	codeMap := b.codeMap
	b.codeMap = make(exec.CodeMap)
	return codeMap
}

// syncFunction is appended to an operation's function sequence in profiling mode: it waits
// for the backend to actually finish, so asynchronous backends report true completion
// times to observers.
type syncFunction struct {
	config backends.Config
}

// Prepare implements backends.Function.
func (s syncFunction) Prepare() error { return nil }

// Run implements backends.Function.
func (s syncFunction) Run() error {
	s.config.Sync()
	return nil
}

// deallocFunction is appended to an operation's function sequence by the linear schedule:
// it frees the dynamically shaped buffers whose last consumer was this operation.
// Statically shaped buffers are pre-sized once and reused across runs, so they are left
// alone.
type deallocFunction struct {
	tensors []backends.Tensor
}

// Prepare implements backends.Function.
func (d deallocFunction) Prepare() error { return nil }

// Run implements backends.Function.
func (d deallocFunction) Run() error {
	for _, tensor := range d.tensors {
		if !tensor.IsDynamic() {
			continue
		}
		tensor.DeallocBuffer()
	}
	return nil
}
