package builtin

import (
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"

	"github.com/ljh9248/onert/backends"
	"github.com/ljh9248/onert/backends/basic"
	"github.com/ljh9248/onert/ir"
)

// Context is the builtin backend's runtime state for one compiled graph.
type Context struct {
	backend  *Backend
	data     backends.ContextData
	registry *backends.TensorRegistry

	whole    backends.TensorRegistries
	wholeSet bool
}

// Compile-time checks.
var (
	_ backends.Context                 = (*Context)(nil)
	_ backends.WholeRegistriesReceiver = (*Context)(nil)
)

// Backend implements backends.Context.
func (c *Context) Backend() backends.Backend { return c.backend }

// Data implements backends.Context.
func (c *Context) Data() *backends.ContextData { return &c.data }

// Registry implements backends.Context.
func (c *Context) Registry() *backends.TensorRegistry { return c.registry }

// SetWholeRegistries gives the context visibility over every backend's tensors. The
// compiler calls it before GenKernels.
func (c *Context) SetWholeRegistries(registries backends.TensorRegistries) {
	c.whole = registries
	c.wholeSet = true
}

// GenTensors allocates tensors for the operands this context owns: typically the outputs
// of Permute operations lowered to the builtin backend.
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

// GenKernels produces the transfer kernels. Every operation lowered to builtin must be a
// Permute.
func (c *Context) GenKernels() (backends.FunctionMap, error) {
	if !c.wholeSet {
		return nil, errors.Errorf("builtin GenKernels called before SetWholeRegistries")
	}
	codes := make(backends.FunctionMap, len(c.data.OpOrder))
	for _, opIdx := range c.data.OpOrder {
		op := c.data.Graph.Operation(opIdx)
		if op.Type() != ir.OpPermute {
			return nil, errors.Errorf("builtin backend got %s operation %s; it only handles Permute",
				op.Type(), opIdx)
		}
		srcIdx, dstIdx := op.Inputs()[0], op.Outputs()[0]
		fn := newPermuteFunction(
			c.portableTensor(srcIdx), c.portableTensor(dstIdx),
			c.data.OperandLayouts[srcIdx], c.data.OperandLayouts[dstIdx])
		codes[opIdx] = backends.NewFunctionSequence(fn)
	}
	return codes, nil
}

// portableTensor resolves idx through the context's own registry first (native tensors
// and resolved migrants), then through the whole-registries view.
func (c *Context) portableTensor(idx ir.OperandIndex) backends.PortableTensor {
	tensor := c.registry.Tensor(idx)
	if tensor == nil {
		tensor = c.whole.Tensor(idx)
	}
	if tensor == nil {
		exceptions.Panicf("builtin kernel generation: no tensor for operand %s", idx)
	}
	portable, ok := tensor.(backends.PortableTensor)
	if !ok {
		exceptions.Panicf("builtin kernel generation: tensor for operand %s is not portable", idx)
	}
	return portable
}
