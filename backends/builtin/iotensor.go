package builtin

import (
	"github.com/pkg/errors"

	"github.com/ljh9248/onert/backends"
	"github.com/ljh9248/onert/ir"
)

// IOTensor is the user-facing tensor for a whole-graph input or output. The executor binds
// a caller-provided flat buffer to it for the duration of one run; the buffer is owned by
// the caller and never deallocated by the runtime.
type IOTensor struct {
	shape ir.Shape
	flat  []byte
}

// Compile-time check.
var _ backends.PortableTensor = (*IOTensor)(nil)

// NewIOTensor returns an unbound IO tensor of the given shape.
func NewIOTensor(shape ir.Shape) *IOTensor {
	return &IOTensor{shape: shape}
}

// SetBacking binds the caller's buffer for the next run.
func (t *IOTensor) SetBacking(flat []byte) error {
	if want := t.shape.Memory(); len(flat) != want {
		return errors.Errorf("IO tensor of shape %s needs %d bytes, got %d", t.shape, want, len(flat))
	}
	t.flat = flat
	return nil
}

// ClearBacking unbinds the caller's buffer after a run.
func (t *IOTensor) ClearBacking() { t.flat = nil }

// Shape implements backends.Tensor.
func (t *IOTensor) Shape() ir.Shape { return t.shape }

// IsDynamic implements backends.Tensor. IO tensors are always statically shaped.
func (t *IOTensor) IsDynamic() bool { return false }

// DeallocBuffer implements backends.Tensor. The backing buffer belongs to the caller, so
// this is a no-op.
func (t *IOTensor) DeallocBuffer() {}

// Flat implements backends.PortableTensor. Returns nil when no buffer is bound.
func (t *IOTensor) Flat() []byte { return t.flat }

// Resize implements backends.PortableTensor. IO tensors keep their declared shape.
func (t *IOTensor) Resize(shape ir.Shape) error {
	if !t.shape.Equal(shape) {
		return errors.Errorf("IO tensor of shape %s cannot take shape %s", t.shape, shape)
	}
	return nil
}
