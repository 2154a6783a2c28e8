package backends

import (
	"github.com/gomlx/exceptions"

	"github.com/ljh9248/onert/ir"
)

// TensorRegistry maps operand indexes to the tensor objects one backend context uses for
// them. Native entries are owned by the context; migrant entries borrow a portable tensor
// owned by some other backend's registry.
type TensorRegistry struct {
	native   map[ir.OperandIndex]Tensor
	migrants map[ir.OperandIndex]PortableTensor
}

// NewTensorRegistry returns an empty registry.
func NewTensorRegistry() *TensorRegistry {
	return &TensorRegistry{
		native:   make(map[ir.OperandIndex]Tensor),
		migrants: make(map[ir.OperandIndex]PortableTensor),
	}
}

// Tensor returns the tensor the context uses for idx -- native if it owns one, otherwise
// migrant -- or nil if the operand is unknown to this registry.
func (tr *TensorRegistry) Tensor(idx ir.OperandIndex) Tensor {
	if tensor, found := tr.native[idx]; found {
		return tensor
	}
	if tensor, found := tr.migrants[idx]; found {
		return tensor
	}
	return nil
}

// NativeTensor returns the tensor owned by this registry for idx, or nil.
func (tr *TensorRegistry) NativeTensor(idx ir.OperandIndex) Tensor { return tr.native[idx] }

// SetNativeTensor registers a tensor owned by this context. Each operand has exactly one
// owning registry system-wide; registering twice is a bug.
func (tr *TensorRegistry) SetNativeTensor(idx ir.OperandIndex, tensor Tensor) {
	if _, found := tr.native[idx]; found {
		exceptions.Panicf("SetNativeTensor: operand %s already has a native tensor", idx)
	}
	tr.native[idx] = tensor
}

// SetMigrantTensor registers a borrowed reference to a portable tensor owned elsewhere.
func (tr *TensorRegistry) SetMigrantTensor(idx ir.OperandIndex, tensor PortableTensor) {
	if _, found := tr.native[idx]; found {
		exceptions.Panicf("SetMigrantTensor: operand %s already has a native tensor here", idx)
	}
	tr.migrants[idx] = tensor
}

// TensorRegistries is a read-through union over every backend context's registry. It
// resolves an operand index to its owning tensor, regardless of which backend created it.
type TensorRegistries struct {
	contexts []Context
}

// NewTensorRegistries builds the aggregate view over the given contexts.
func NewTensorRegistries(contexts ...Context) TensorRegistries {
	return TensorRegistries{contexts: contexts}
}

// Tensor returns the owning (native) tensor for idx, searching every context's registry,
// or nil if no backend generated one. Migrant entries are skipped: they are borrowed
// references, never owners.
func (t TensorRegistries) Tensor(idx ir.OperandIndex) Tensor {
	for _, context := range t.contexts {
		if tensor := context.Registry().NativeTensor(idx); tensor != nil {
			return tensor
		}
	}
	return nil
}
