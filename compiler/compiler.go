package compiler

import (
	"slices"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/ljh9248/onert/backends"
	"github.com/ljh9248/onert/backends/builtin"
	"github.com/ljh9248/onert/exec"
	"github.com/ljh9248/onert/ir"
)

// Scheduler strategy names accepted in Options.Scheduler.
const (
	SchedulerLinear   = "linear"
	SchedulerDataflow = "dataflow"
	SchedulerParallel = "parallel"
)

// Options configures one compilation. The zero value compiles for the linear schedule.
type Options struct {
	// Scheduler picks the executor variant; defaults to SchedulerLinear.
	Scheduler string

	// Profiling appends a backend-sync step after every operation, so observers measure
	// true completion times on asynchronous backends.
	Profiling bool

	// Workers bounds the parallel executor's worker pool; <= 0 means number of CPUs.
	// Ignored by the other schedulers.
	Workers int
}

// schedulerBuilder constructs one executor variant after the common construction steps.
type schedulerBuilder func(c *Compiler, lg *LoweredGraph) (exec.Executor, error)

// Compiler compiles lowered graphs into executors over an explicit backend registry.
// It holds no per-graph state and may be reused.
type Compiler struct {
	registry   *backends.Registry
	options    Options
	schedulers map[string]schedulerBuilder
}

// New returns a Compiler over the given registry. The registry must include the builtin
// backend: it owns the user-facing IO tensors and the cross-backend transfer kernels.
func New(registry *backends.Registry, options Options) (*Compiler, error) {
	if registry.Builtin() == nil {
		return nil, errors.Errorf("compiler.New: registry has no %q backend", backends.BuiltinID)
	}
	if options.Scheduler == "" {
		options.Scheduler = SchedulerLinear
	}
	return &Compiler{
		registry: registry,
		options:  options,
		schedulers: map[string]schedulerBuilder{
			SchedulerLinear: createLinearExecutor,
			SchedulerDataflow: func(c *Compiler, lg *LoweredGraph) (exec.Executor, error) {
				return createDataflowExecutor(c, lg, false)
			},
			SchedulerParallel: func(c *Compiler, lg *LoweredGraph) (exec.Executor, error) {
				return createDataflowExecutor(c, lg, true)
			},
		},
	}, nil
}

// Compile builds an executor for the lowered graph. Construction faults surface here,
// before anything runs: nothing partially built is ever handed back.
func (c *Compiler) Compile(lg *LoweredGraph) (exec.Executor, error) {
	builder, found := c.schedulers[c.options.Scheduler]
	if !found {
		return nil, errors.Errorf("Compile: no scheduler strategy %q", c.options.Scheduler)
	}
	return builder(c, lg)
}

// artifacts holds the construction state shared by every scheduler: ordered contexts
// (builtin last), aggregate registries, IO tensors and the whole-graph order.
type artifacts struct {
	contexts  []backends.Context // Kernel-generation order: builtin strictly last.
	contextOf map[backends.Backend]backends.Context

	registries backends.TensorRegistries
	order      []ir.OperationIndex

	inputTensors  []*builtin.IOTensor
	outputTensors []*builtin.IOTensor
}

// buildArtifacts runs the scheduler-independent part of the pipeline: verify, partition,
// create contexts, create IO tensors, generate tensors, resolve migrants, and hand the
// aggregate registries to contexts that asked for them.
func (c *Compiler) buildArtifacts(lg *LoweredGraph, linearExecutor bool) (*artifacts, error) {
	whole := lg.Graph()
	if err := whole.Verify(); err != nil {
		return nil, errors.WithMessage(err, "Compile")
	}

	dataMap, err := createContextData(lg, c.registry, linearExecutor)
	if err != nil {
		return nil, err
	}

	// Create the contexts, ordering the builtin backend strictly last: its transfer
	// kernels need every other backend's tensors to already exist when they are generated.
	a := &artifacts{contextOf: make(map[backends.Backend]backends.Context)}
	ordered := slices.Clone(c.registry.All())
	slices.SortStableFunc(ordered, func(x, y backends.Backend) int {
		switch {
		case x.Config().ID() == backends.BuiltinID:
			return 1
		case y.Config().ID() == backends.BuiltinID:
			return -1
		}
		return 0
	})
	for _, backend := range ordered {
		context, err := backend.NewContext(*dataMap[backend])
		if err != nil {
			return nil, errors.WithMessagef(err, "creating context for backend %q", backend.Config().ID())
		}
		a.contexts = append(a.contexts, context)
		a.contextOf[backend] = context
	}
	a.registries = backends.NewTensorRegistries(a.contexts...)

	if err := c.initIOTensors(a, whole); err != nil {
		return nil, err
	}

	// Tensor generation has no cross-backend dependencies, so contexts run concurrently.
	var group errgroup.Group
	for _, context := range a.contexts {
		group.Go(func() error {
			if err := context.GenTensors(); err != nil {
				return errors.WithMessagef(err, "generating tensors for backend %q",
					context.Backend().Config().ID())
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	if err := resolveMigrants(lg, a.contextOf, a.registries); err != nil {
		return nil, err
	}
	for _, context := range a.contexts {
		if receiver, ok := context.(backends.WholeRegistriesReceiver); ok {
			receiver.SetWholeRegistries(a.registries)
		}
	}

	a.order = whole.TopologicalSort()
	klog.V(1).Infof("compiled graph: %d operations over %d backends, scheduler %q",
		whole.NumOperations(), len(a.contexts), c.options.Scheduler)
	return a, nil
}

// initIOTensors creates the user-facing IO tensors for the whole graph's inputs and
// outputs and registers them as the operands' owning tensors, in the builtin backend's
// registry. Backends see these operands as external and never allocate them.
func (c *Compiler) initIOTensors(a *artifacts, whole *ir.Graph) error {
	builtinContext := a.contextOf[c.registry.Builtin()]
	byIndex := make(map[ir.OperandIndex]*builtin.IOTensor)
	for _, idx := range whole.IOIndexes() {
		operand := whole.Operand(idx)
		if operand == nil {
			return errors.Errorf("graph IO references missing operand %s", idx)
		}
		if operand.Shape().IsDynamic() {
			return errors.Errorf("graph IO operand %s has dynamic shape %s; IO shapes must be static",
				idx, operand.Shape())
		}
		tensor := builtin.NewIOTensor(operand.Shape())
		builtinContext.Registry().SetNativeTensor(idx, tensor)
		byIndex[idx] = tensor
	}
	for _, idx := range whole.Inputs() {
		a.inputTensors = append(a.inputTensors, byIndex[idx])
	}
	for _, idx := range whole.Outputs() {
		a.outputTensors = append(a.outputTensors, byIndex[idx])
	}
	return nil
}

// generateKernels walks the contexts in order (builtin last), generating each operation's
// function sequence and composing the extra steps: backend sync in profiling mode, then
// the deallocation step from the lifetime plan (linear schedule only, nil otherwise).
func (c *Compiler) generateKernels(lg *LoweredGraph, a *artifacts, plan deallocPlan) (exec.CodeMap, error) {
	builder := NewExecutionBuilder()
	for _, context := range a.contexts {
		codes, err := context.GenKernels()
		if err != nil {
			return nil, errors.WithMessagef(err, "generating kernels for backend %q",
				context.Backend().Config().ID())
		}
		opIndexes := make([]ir.OperationIndex, 0, len(codes))
		for opIdx := range codes {
			opIndexes = append(opIndexes, opIdx)
		}
		slices.Sort(opIndexes)
		for _, opIdx := range opIndexes {
			fnSeq := codes[opIdx]
			if c.options.Profiling {
				fnSeq.Append(syncFunction{config: context.Backend().Config()})
			}
			if tensors := plan[opIdx]; len(tensors) > 0 {
				fnSeq.Append(deallocFunction{tensors: tensors})
			}
			builder.Append(&exec.CodeEntry{
				OpIdx:     opIdx,
				Operation: lg.Graph().Operation(opIdx),
				Backend:   context.Backend(),
				FnSeq:     fnSeq,
			})
		}
	}
	codeMap := builder.ReleaseCodeMap()
	if len(codeMap) != lg.Graph().NumOperations() {
		return nil, errors.Errorf("kernel generation produced code for %d of %d operations",
			len(codeMap), lg.Graph().NumOperations())
	}
	return codeMap, nil
}

func (c *Compiler) executorParams(lg *LoweredGraph, a *artifacts, codeMap exec.CodeMap) exec.Params {
	return exec.Params{
		Graph:         lg.Graph(),
		Contexts:      a.contexts,
		Registries:    a.registries,
		CodeMap:       codeMap,
		InputTensors:  a.inputTensors,
		OutputTensors: a.outputTensors,
	}
}

func createLinearExecutor(c *Compiler, lg *LoweredGraph) (exec.Executor, error) {
	a, err := c.buildArtifacts(lg, true)
	if err != nil {
		return nil, err
	}
	plan := planDeallocations(lg.Graph(), a.order, a.registries)
	codeMap, err := c.generateKernels(lg, a, plan)
	if err != nil {
		return nil, err
	}
	return exec.NewLinearExecutor(c.executorParams(lg, a, codeMap), a.order)
}

func createDataflowExecutor(c *Compiler, lg *LoweredGraph, parallel bool) (exec.Executor, error) {
	a, err := c.buildArtifacts(lg, false)
	if err != nil {
		return nil, err
	}
	codeMap, err := c.generateKernels(lg, a, nil)
	if err != nil {
		return nil, err
	}
	if parallel {
		return exec.NewParallelExecutor(c.executorParams(lg, a, codeMap), c.options.Workers)
	}
	return exec.NewDataflowExecutor(c.executorParams(lg, a, codeMap))
}
