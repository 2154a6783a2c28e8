package ir

import (
	"fmt"
	"slices"
)

// OpType is the kind of an Operation. The compiler is agnostic to kernel semantics; the
// type only matters to the backend that generates the kernel.
type OpType int8

const (
	OpInvalid OpType = iota
	OpAdd
	OpMul
	OpReLU
	OpMatMul

	// OpPermute converts an operand between backends or layouts. It is the only operation
	// type handled by the builtin backend.
	OpPermute
)

// String implements fmt.Stringer.
func (t OpType) String() string {
	switch t {
	case OpAdd:
		return "Add"
	case OpMul:
		return "Mul"
	case OpReLU:
		return "ReLU"
	case OpMatMul:
		return "MatMul"
	case OpPermute:
		return "Permute"
	}
	return fmt.Sprintf("OpType(%d)", int8(t))
}

// Operation is a node of the graph: it consumes input operands and produces output
// operands. Optional inputs are marked with InvalidOperand.
type Operation struct {
	opType  OpType
	inputs  []OperandIndex
	outputs []OperandIndex
}

// NewOperation returns an operation of the given type over the given operand indexes.
func NewOperation(opType OpType, inputs, outputs []OperandIndex) *Operation {
	return &Operation{opType: opType, inputs: inputs, outputs: outputs}
}

// Type of the operation.
func (op *Operation) Type() OpType { return op.opType }

// Inputs returns the input operand indexes, in argument order, possibly with duplicates
// and InvalidOperand entries. The returned slice is owned by the operation.
func (op *Operation) Inputs() []OperandIndex { return op.inputs }

// Outputs returns the output operand indexes. The returned slice is owned by the operation.
func (op *Operation) Outputs() []OperandIndex { return op.outputs }

// IOOperands returns the operation's inputs followed by its outputs, de-duplicated and
// with InvalidOperand entries removed. This is the walk order used whenever the compiler
// visits "every operand an operation touches".
func (op *Operation) IOOperands() []OperandIndex {
	operands := make([]OperandIndex, 0, len(op.inputs)+len(op.outputs))
	for _, idx := range op.inputs {
		if idx.Valid() && !slices.Contains(operands, idx) {
			operands = append(operands, idx)
		}
	}
	for _, idx := range op.outputs {
		if idx.Valid() && !slices.Contains(operands, idx) {
			operands = append(operands, idx)
		}
	}
	return operands
}

// DistinctInputs returns the de-duplicated, defined input operand indexes.
func (op *Operation) DistinctInputs() []OperandIndex {
	operands := make([]OperandIndex, 0, len(op.inputs))
	for _, idx := range op.inputs {
		if idx.Valid() && !slices.Contains(operands, idx) {
			operands = append(operands, idx)
		}
	}
	return operands
}

// Clone returns a deep copy of the operation.
func (op *Operation) Clone() *Operation {
	return &Operation{
		opType:  op.opType,
		inputs:  slices.Clone(op.inputs),
		outputs: slices.Clone(op.outputs),
	}
}

// String implements fmt.Stringer.
func (op *Operation) String() string {
	return fmt.Sprintf("%s(%v -> %v)", op.opType, op.inputs, op.outputs)
}
