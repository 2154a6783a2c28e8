package backends

import "github.com/ljh9248/onert/ir"

// ContextData is the partition data handed to Backend.NewContext: the backend's partial
// graph plus everything the context needs to generate tensors and kernels for it.
type ContextData struct {
	// Graph is the backend's partial graph. It keeps the whole graph's operand and
	// operation indexes.
	Graph *ir.Graph

	// ExternalOperands are the operands of Graph that are defined or consumed outside this
	// backend. The context must not allocate storage for them: at kernel-generation time
	// they resolve to migrant tensors owned by another backend's registry.
	ExternalOperands ir.Set[ir.OperandIndex]

	// OperandLayouts is the memory layout assigned to each operand of Graph.
	OperandLayouts map[ir.OperandIndex]ir.Layout

	// OpOrder is the backend's local execution order: the whole graph's topological order
	// restricted to the operations of Graph. Kernel generation must follow it.
	OpOrder []ir.OperationIndex

	// LinearExecutor is set when compiling for the linear schedule. Backends may use it to
	// skip run-time readiness bookkeeping in generated kernels.
	LinearExecutor bool
}

// Context is a backend's runtime state for one compiled graph. It is created once per
// backend per compilation and lives as long as the executor built from it.
type Context interface {
	// Backend that created this context.
	Backend() Backend

	// Data returns the partition data the context was created with.
	Data() *ContextData

	// GenTensors allocates tensor objects for the operands the context owns (all operands
	// of its partial graph except the external ones) and registers them in Registry.
	GenTensors() error

	// GenKernels produces one function sequence per operation of the partial graph.
	// It runs after GenTensors has completed on every backend and after migrant tensors
	// have been resolved, so kernels may capture tensor objects directly.
	GenKernels() (FunctionMap, error)

	// Registry returns the context's tensor registry.
	Registry() *TensorRegistry
}

// WholeRegistriesReceiver is implemented by contexts that need visibility over every
// backend's tensors -- the builtin backend's transfer kernels read one backend's tensor
// and write another's. The compiler hands the aggregate view to such contexts before
// kernel generation.
type WholeRegistriesReceiver interface {
	SetWholeRegistries(registries TensorRegistries)
}
