// Package basic provides a dense, portable tensor implementation shared by the backends
// that keep their data in plain host memory (simplecpu, builtin).
package basic

import (
	"github.com/pkg/errors"

	"github.com/ljh9248/onert/backends"
	"github.com/ljh9248/onert/ir"
)

// Tensor is a dense host-memory tensor. Static tensors allocate their buffer at creation
// and keep it for the life of the executor; dynamic ones allocate on Resize and may be
// deallocated eagerly between operations.
type Tensor struct {
	shape   ir.Shape
	layout  ir.Layout
	dynamic bool
	flat    []byte
}

// Compile-time check.
var _ backends.PortableTensor = (*Tensor)(nil)

// NewTensor creates a tensor for the given compile-time shape. If the shape is dynamic the
// buffer allocation is deferred until the producing kernel resizes it.
func NewTensor(shape ir.Shape, layout ir.Layout) *Tensor {
	t := &Tensor{shape: shape, layout: layout, dynamic: shape.IsDynamic()}
	if !t.dynamic {
		t.flat = make([]byte, shape.Memory())
	}
	return t
}

// Shape returns the tensor's current shape.
func (t *Tensor) Shape() ir.Shape { return t.shape }

// Layout returns the tensor's memory layout.
func (t *Tensor) Layout() ir.Layout { return t.layout }

// IsDynamic reports whether the buffer size is only known at run time.
func (t *Tensor) IsDynamic() bool { return t.dynamic }

// Flat returns the tensor's contents, or nil if the buffer isn't allocated.
func (t *Tensor) Flat() []byte { return t.flat }

// DeallocBuffer releases the buffer. The next Resize or Write re-allocates it.
func (t *Tensor) DeallocBuffer() { t.flat = nil }

// Resize re-allocates the buffer for the given concrete shape. A static tensor may only be
// "resized" to its own shape (which re-allocates after a DeallocBuffer).
func (t *Tensor) Resize(shape ir.Shape) error {
	if shape.IsDynamic() {
		return errors.Errorf("Resize: shape %s is not concrete", shape)
	}
	if !t.dynamic && !t.shape.Equal(shape) {
		return errors.Errorf("Resize: static tensor of shape %s cannot take shape %s", t.shape, shape)
	}
	t.shape = shape
	t.flat = make([]byte, shape.Memory())
	return nil
}

// Write copies flat into the tensor's buffer, allocating it first if needed. The length
// must match the current shape's memory size.
func (t *Tensor) Write(flat []byte) error {
	if t.flat == nil {
		if t.shape.IsDynamic() {
			return errors.Errorf("Write: dynamic tensor has no concrete shape yet, Resize first")
		}
		t.flat = make([]byte, t.shape.Memory())
	}
	if len(flat) != len(t.flat) {
		return errors.Errorf("Write: got %d bytes for tensor of shape %s (%d bytes)",
			len(flat), t.shape, len(t.flat))
	}
	copy(t.flat, flat)
	return nil
}
