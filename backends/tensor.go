package backends

import "github.com/ljh9248/onert/ir"

// Tensor is a backend's runtime storage for one operand.
type Tensor interface {
	// Shape returns the tensor's current shape. For dynamic tensors it may differ from the
	// operand's compile-time shape once a kernel has resized it.
	Shape() ir.Shape

	// IsDynamic reports whether the tensor's buffer size is only known at run time.
	// Only dynamic tensors are eligible for eager deallocation between operations;
	// static buffers are sized once and reused across runs.
	IsDynamic() bool

	// DeallocBuffer releases the tensor's buffer. The tensor stays valid and may be
	// re-allocated on the next write.
	DeallocBuffer()
}

// PortableTensor is a Tensor whose contents can be read and written in a backend-agnostic
// flat byte form. Only portable tensors can cross backend boundaries: a consumer backend
// registers a producer's portable tensor as a migrant entry in its own registry.
//
// A backend-private tensor format (e.g. tiled accelerator memory) simply doesn't implement
// this interface; the compiler reports it if such a tensor is consumed across backends.
type PortableTensor interface {
	Tensor

	// Flat returns the tensor's contents as flat little-endian bytes. It returns nil for a
	// dynamic tensor that has not been written yet.
	Flat() []byte

	// Resize re-allocates the tensor's buffer for the given shape. On static tensors it is
	// an error to resize to a different shape.
	Resize(shape ir.Shape) error
}
