package simplecpu

import (
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"

	"github.com/ljh9248/onert/backends"
	"github.com/ljh9248/onert/backends/basic"
	"github.com/ljh9248/onert/ir"
)

// Context is the simplecpu backend's runtime state for one compiled graph.
type Context struct {
	backend  *Backend
	data     backends.ContextData
	registry *backends.TensorRegistry
}

// Compile-time check.
var _ backends.Context = (*Context)(nil)

// Backend implements backends.Context.
func (c *Context) Backend() backends.Backend { return c.backend }

// Data implements backends.Context.
func (c *Context) Data() *backends.ContextData { return &c.data }

// Registry implements backends.Context.
func (c *Context) Registry() *backends.TensorRegistry { return c.registry }

// GenTensors allocates a dense tensor for every operand this context owns. Constant
// payloads are copied in once, here; they are reused across runs.
func (c *Context) GenTensors() error {
	for _, idx := range c.data.Graph.OperandIndexes() {
		if c.data.ExternalOperands.Has(idx) {
			continue
		}
		operand := c.data.Graph.Operand(idx)
		tensor := basic.NewTensor(operand.Shape(), c.data.OperandLayouts[idx])
		if data := operand.Data(); data != nil {
			if err := tensor.Write(data); err != nil {
				return errors.WithMessagef(err, "constant %s", idx)
			}
		}
		c.registry.SetNativeTensor(idx, tensor)
	}
	return nil
}

// GenKernels produces one function sequence per operation, in the local execution order.
// Kernels capture their tensor objects here, so by run time there is nothing to look up.
func (c *Context) GenKernels() (backends.FunctionMap, error) {
	codes := make(backends.FunctionMap, len(c.data.OpOrder))
	for _, opIdx := range c.data.OpOrder {
		op := c.data.Graph.Operation(opIdx)
		builder := kernelBuilders[op.Type()]
		if builder == nil {
			return nil, errors.Errorf("simplecpu: operation type %s not implemented", op.Type())
		}
		fn, err := builder(c, op)
		if err != nil {
			return nil, errors.WithMessagef(err, "generating kernel for %s %s", op.Type(), opIdx)
		}
		codes[opIdx] = backends.NewFunctionSequence(fn)
	}
	return codes, nil
}

// portableTensor resolves an operand to the tensor this context uses for it, native or
// migrant. Kernel generation runs after migrant resolution, so a miss is a compiler bug.
func (c *Context) portableTensor(idx ir.OperandIndex) backends.PortableTensor {
	tensor := c.registry.Tensor(idx)
	if tensor == nil {
		exceptions.Panicf("simplecpu kernel generation: no tensor for operand %s", idx)
	}
	portable, ok := tensor.(backends.PortableTensor)
	if !ok {
		exceptions.Panicf("simplecpu kernel generation: tensor for operand %s is not portable", idx)
	}
	return portable
}
