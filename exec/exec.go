// Package exec implements the executors that run a compiled graph: Linear (fixed
// compile-time order, single thread), Dataflow (run-time readiness tracking, single
// thread) and Parallel (readiness tracking over a worker pool).
//
// All three consume the same CodeMap -- one compiled function sequence per operation --
// and the same cross-backend tensor registries; they only differ in how they decide
// execution order and how much concurrency they exploit.
package exec

import (
	"github.com/google/uuid"

	"github.com/ljh9248/onert/backends"
	"github.com/ljh9248/onert/backends/builtin"
	"github.com/ljh9248/onert/ir"
)

// CodeEntry is one operation's compiled code plus the metadata observers and error
// messages need.
type CodeEntry struct {
	OpIdx     ir.OperationIndex
	Operation *ir.Operation
	Backend   backends.Backend
	FnSeq     *backends.FunctionSequence
}

// CodeMap maps every operation of the whole graph to its compiled code. It is assembled by
// the compiler's execution builder and immutable once handed to an executor.
type CodeMap map[ir.OperationIndex]*CodeEntry

// Executor runs a compiled graph. Implementations are created by the compiler; one
// executor may be Run many times, reusing the same compiled schedule.
//
// Run is not reentrant: one executor runs one graph invocation at a time.
type Executor interface {
	// ID identifies the executor, e.g. in observer callbacks.
	ID() uuid.UUID

	// Graph returns the whole graph the executor was compiled from.
	Graph() *ir.Graph

	// Prepare readies every compiled function sequence. It is called implicitly by the
	// first Run.
	Prepare() error

	// Run executes the whole graph once. inputs and outputs are flat little-endian
	// buffers, one per graph input/output, sized to the respective operand shapes.
	// The output buffers are caller-owned and filled before Run returns.
	//
	// A kernel failure aborts the invocation and propagates out; already-executed
	// operations are not rolled back. The caller may Run again with the same schedule.
	Run(inputs, outputs [][]byte) error

	// AddObserver registers an observer invoked around each operation's execution.
	// Observers must be registered before the first Run.
	AddObserver(observer ExecutionObserver)
}

// Params carries the compiled pieces shared by every executor variant.
type Params struct {
	// Graph is the whole (not partial) graph.
	Graph *ir.Graph

	// Contexts of every backend, kept alive for as long as the executor lives.
	Contexts []backends.Context

	// Registries is the aggregate view over the contexts' tensor registries.
	Registries backends.TensorRegistries

	// CodeMap holds the compiled code of every operation.
	CodeMap CodeMap

	// InputTensors and OutputTensors are the user-facing IO tensors, one per graph
	// input/output, in graph IO order.
	InputTensors  []*builtin.IOTensor
	OutputTensors []*builtin.IOTensor
}
