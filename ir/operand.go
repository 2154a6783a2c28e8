package ir

import "slices"

// Operand is a tensor slot in a Graph: its shape, the operation that defines it (if any),
// the operations that consume it, and -- for constants -- the payload data.
//
// Def and use links are owned by the Graph: they are wired when operations are added and
// must not be mutated directly.
type Operand struct {
	shape Shape

	def  OperationIndex
	uses []OperationIndex

	constant bool
	data     []byte

	variable bool
}

// NewOperand returns an operand with the given shape, no def and no uses.
func NewOperand(shape Shape) *Operand {
	return &Operand{shape: shape, def: InvalidOperation}
}

// Shape of the operand.
func (o *Operand) Shape() Shape { return o.shape }

// Def returns the operation producing this operand, or InvalidOperation if it has none
// (graph inputs and constants).
func (o *Operand) Def() OperationIndex { return o.def }

// Uses returns the operations consuming this operand. The returned slice is owned by the
// operand and must not be modified.
func (o *Operand) Uses() []OperationIndex { return o.uses }

// IsConstant reports whether the operand carries constant data.
//
// Note that the flag survives ReleaseData: a partial graph that took over the payload of a
// constant still leaves the whole-graph operand marked constant.
func (o *Operand) IsConstant() bool { return o.constant }

// SetData marks the operand constant and stores its payload.
func (o *Operand) SetData(flat []byte) {
	o.constant = true
	o.data = flat
}

// Data returns the constant payload, or nil.
func (o *Operand) Data() []byte { return o.data }

// ReleaseData drops the reference to the constant payload, after it has been moved into a
// partial graph's copy of the operand.
func (o *Operand) ReleaseData() { o.data = nil }

// IsVariable reports whether the operand is a variable tensor (e.g. model state updated
// across runs). Variables are never eligible for buffer deallocation.
func (o *Operand) IsVariable() bool { return o.variable }

// SetVariable marks the operand as a variable tensor.
func (o *Operand) SetVariable(variable bool) { o.variable = variable }

// ClearDefUse drops the def and use links. Used when copying an operand into a partial
// graph, where the links are re-wired by the partial graph's own operations.
func (o *Operand) ClearDefUse() {
	o.def = InvalidOperation
	o.uses = nil
}

// Clone returns a copy of the operand. The constant payload (if any) is shared with the
// original -- callers moving an operand between graphs should ReleaseData on the original.
func (o *Operand) Clone() *Operand {
	return &Operand{
		shape:    o.shape.Clone(),
		def:      o.def,
		uses:     slices.Clone(o.uses),
		constant: o.constant,
		data:     o.data,
		variable: o.variable,
	}
}

func (o *Operand) setDef(idx OperationIndex) { o.def = idx }

func (o *Operand) insertUse(idx OperationIndex) {
	if !slices.Contains(o.uses, idx) {
		o.uses = append(o.uses, idx)
	}
}
