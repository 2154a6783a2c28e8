package simplecpu

import (
	"github.com/pkg/errors"

	"github.com/ljh9248/onert/backends"
	"github.com/ljh9248/onert/ir"
)

// kernelBuilder produces the Function executing one operation, with its tensors already
// resolved and captured.
type kernelBuilder func(c *Context, op *ir.Operation) (backends.Function, error)

var kernelBuilders map[ir.OpType]kernelBuilder

func init() {
	kernelBuilders = map[ir.OpType]kernelBuilder{
		ir.OpAdd:    binaryKernel(func(a, b float32) float32 { return a + b }),
		ir.OpMul:    binaryKernel(func(a, b float32) float32 { return a * b }),
		ir.OpReLU:   unaryKernel(func(a float32) float32 { return max(a, 0) }),
		ir.OpMatMul: matMulKernel,
	}
}

// readValues returns the float32 view of a tensor's contents. A nil buffer at run time
// means the producer never ran or the buffer was deallocated too early.
func readValues(t backends.PortableTensor) ([]float32, error) {
	flat := t.Flat()
	if flat == nil {
		return nil, errors.Errorf("input tensor (shape %s) has no buffer", t.Shape())
	}
	return ir.Float32sFromFlat(t.Shape().DType, flat), nil
}

// writeValues stores values into t, resizing/re-allocating its buffer for shape first.
func writeValues(t backends.PortableTensor, shape ir.Shape, values []float32) error {
	if t.Flat() == nil || !t.Shape().Equal(shape) {
		if err := t.Resize(shape); err != nil {
			return err
		}
	}
	copy(t.Flat(), ir.FlatFromFloat32s(t.Shape().DType, values))
	return nil
}

func binaryKernel(apply func(a, b float32) float32) kernelBuilder {
	return func(c *Context, op *ir.Operation) (backends.Function, error) {
		if len(op.Inputs()) != 2 || len(op.Outputs()) != 1 {
			return nil, errors.Errorf("binary operation needs 2 inputs and 1 output, got %d/%d",
				len(op.Inputs()), len(op.Outputs()))
		}
		lhs := c.portableTensor(op.Inputs()[0])
		rhs := c.portableTensor(op.Inputs()[1])
		out := c.portableTensor(op.Outputs()[0])
		return backends.FunctionOf(func() error {
			a, err := readValues(lhs)
			if err != nil {
				return err
			}
			b, err := readValues(rhs)
			if err != nil {
				return err
			}
			if len(a) != len(b) {
				return errors.Errorf("binary operation over mismatched sizes %d and %d", len(a), len(b))
			}
			result := make([]float32, len(a))
			for ii := range a {
				result[ii] = apply(a[ii], b[ii])
			}
			outShape := ir.MakeShape(out.Shape().DType, lhs.Shape().Dims...)
			return writeValues(out, outShape, result)
		}), nil
	}
}

func unaryKernel(apply func(a float32) float32) kernelBuilder {
	return func(c *Context, op *ir.Operation) (backends.Function, error) {
		if len(op.Inputs()) != 1 || len(op.Outputs()) != 1 {
			return nil, errors.Errorf("unary operation needs 1 input and 1 output, got %d/%d",
				len(op.Inputs()), len(op.Outputs()))
		}
		in := c.portableTensor(op.Inputs()[0])
		out := c.portableTensor(op.Outputs()[0])
		return backends.FunctionOf(func() error {
			a, err := readValues(in)
			if err != nil {
				return err
			}
			result := make([]float32, len(a))
			for ii := range a {
				result[ii] = apply(a[ii])
			}
			outShape := ir.MakeShape(out.Shape().DType, in.Shape().Dims...)
			return writeValues(out, outShape, result)
		}), nil
	}
}

func matMulKernel(c *Context, op *ir.Operation) (backends.Function, error) {
	if len(op.Inputs()) != 2 || len(op.Outputs()) != 1 {
		return nil, errors.Errorf("MatMul needs 2 inputs and 1 output, got %d/%d",
			len(op.Inputs()), len(op.Outputs()))
	}
	lhs := c.portableTensor(op.Inputs()[0])
	rhs := c.portableTensor(op.Inputs()[1])
	out := c.portableTensor(op.Outputs()[0])
	return backends.FunctionOf(func() error {
		a, err := readValues(lhs)
		if err != nil {
			return err
		}
		b, err := readValues(rhs)
		if err != nil {
			return err
		}
		lhsShape, rhsShape := lhs.Shape(), rhs.Shape()
		if len(lhsShape.Dims) != 2 || len(rhsShape.Dims) != 2 || lhsShape.Dims[1] != rhsShape.Dims[0] {
			return errors.Errorf("MatMul over incompatible shapes %s and %s", lhsShape, rhsShape)
		}
		m, k, n := lhsShape.Dims[0], lhsShape.Dims[1], rhsShape.Dims[1]
		result := make([]float32, m*n)
		for i := range m {
			for j := range n {
				var sum float32
				for l := range k {
					sum += a[i*k+l] * b[l*n+j]
				}
				result[i*n+j] = sum
			}
		}
		return writeValues(out, ir.MakeShape(out.Shape().DType, m, n), result)
	}), nil
}
