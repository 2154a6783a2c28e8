package ir

import (
	"slices"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
)

// Graph owns a set of operands and operations, addressed by stable indexes.
//
// The same type serves both the whole graph and the per-backend partial graphs derived
// from it: partial graphs keep the whole graph's indexes (see SetOperandAt and
// SetOperationAt), so an OperandIndex means the same tensor slot everywhere.
type Graph struct {
	operands   map[OperandIndex]*Operand
	operations map[OperationIndex]*Operation

	inputs  []OperandIndex
	outputs []OperandIndex

	nextOperand   OperandIndex
	nextOperation OperationIndex
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		operands:   make(map[OperandIndex]*Operand),
		operations: make(map[OperationIndex]*Operation),
	}
}

// AddOperand creates a new operand with the given shape and returns its index.
func (g *Graph) AddOperand(shape Shape) OperandIndex {
	idx := g.nextOperand
	g.nextOperand++
	g.operands[idx] = NewOperand(shape)
	return idx
}

// SetOperandAt inserts an operand under a fixed index, used when building a partial graph
// that must keep the whole graph's indexes.
func (g *Graph) SetOperandAt(idx OperandIndex, operand *Operand) error {
	if _, found := g.operands[idx]; found {
		return errors.Errorf("SetOperandAt: operand %s already exists", idx)
	}
	g.operands[idx] = operand
	if idx >= g.nextOperand {
		g.nextOperand = idx + 1
	}
	return nil
}

// Operand returns the operand at idx, or nil if the graph doesn't hold it.
func (g *Graph) Operand(idx OperandIndex) *Operand { return g.operands[idx] }

// HasOperand reports whether the graph holds an operand at idx.
func (g *Graph) HasOperand(idx OperandIndex) bool {
	_, found := g.operands[idx]
	return found
}

// Operation returns the operation at idx, or nil if the graph doesn't hold it.
func (g *Graph) Operation(idx OperationIndex) *Operation { return g.operations[idx] }

// HasOperation reports whether the graph holds an operation at idx.
func (g *Graph) HasOperation(idx OperationIndex) bool {
	_, found := g.operations[idx]
	return found
}

// NumOperands returns the number of operands in the graph.
func (g *Graph) NumOperands() int { return len(g.operands) }

// NumOperations returns the number of operations in the graph.
func (g *Graph) NumOperations() int { return len(g.operations) }

// OperandIndexes returns the graph's operand indexes in ascending order.
// Iteration over the graph is always done in index order, so results are deterministic.
func (g *Graph) OperandIndexes() []OperandIndex {
	indexes := make([]OperandIndex, 0, len(g.operands))
	for idx := range g.operands {
		indexes = append(indexes, idx)
	}
	slices.Sort(indexes)
	return indexes
}

// OperationIndexes returns the graph's operation indexes in ascending order.
func (g *Graph) OperationIndexes() []OperationIndex {
	indexes := make([]OperationIndex, 0, len(g.operations))
	for idx := range g.operations {
		indexes = append(indexes, idx)
	}
	slices.Sort(indexes)
	return indexes
}

// AddOperation inserts the operation, wiring the def/use links of the operands it touches,
// and returns its index. All referenced operands must already exist and outputs must not
// have a producer yet.
func (g *Graph) AddOperation(op *Operation) (OperationIndex, error) {
	idx := g.nextOperation
	if err := g.SetOperationAt(idx, op); err != nil {
		return InvalidOperation, err
	}
	return idx, nil
}

// SetOperationAt inserts the operation under a fixed index, wiring def/use links. It is
// used both by AddOperation and by the partitioner, which keeps whole-graph indexes in
// partial graphs.
func (g *Graph) SetOperationAt(idx OperationIndex, op *Operation) error {
	if _, found := g.operations[idx]; found {
		return errors.Errorf("SetOperationAt: operation %s already exists", idx)
	}
	for _, operandIdx := range op.IOOperands() {
		if !g.HasOperand(operandIdx) {
			return errors.Errorf("SetOperationAt: operation %s (%s) references missing operand %s",
				idx, op.Type(), operandIdx)
		}
	}
	for _, outIdx := range op.Outputs() {
		if !outIdx.Valid() {
			continue
		}
		if def := g.operands[outIdx].Def(); def.Valid() {
			return errors.Errorf("SetOperationAt: operand %s already has producer %s", outIdx, def)
		}
	}
	g.operations[idx] = op
	for _, inIdx := range op.DistinctInputs() {
		g.operands[inIdx].insertUse(idx)
	}
	for _, outIdx := range op.Outputs() {
		if outIdx.Valid() {
			g.operands[outIdx].setDef(idx)
		}
	}
	if idx >= g.nextOperation {
		g.nextOperation = idx + 1
	}
	return nil
}

// Inputs returns the graph-level input operand indexes.
func (g *Graph) Inputs() []OperandIndex { return g.inputs }

// Outputs returns the graph-level output operand indexes.
func (g *Graph) Outputs() []OperandIndex { return g.outputs }

// AddInput appends idx to the graph-level inputs.
func (g *Graph) AddInput(idx OperandIndex) { g.inputs = append(g.inputs, idx) }

// AddOutput appends idx to the graph-level outputs.
func (g *Graph) AddOutput(idx OperandIndex) { g.outputs = append(g.outputs, idx) }

// IOIndexes returns the graph inputs followed by the graph outputs, de-duplicated and with
// InvalidOperand entries removed.
func (g *Graph) IOIndexes() []OperandIndex {
	indexes := make([]OperandIndex, 0, len(g.inputs)+len(g.outputs))
	for _, idx := range slices.Concat(g.inputs, g.outputs) {
		if idx.Valid() && !slices.Contains(indexes, idx) {
			indexes = append(indexes, idx)
		}
	}
	return indexes
}

// TopologicalSort returns the graph's operations in an order where every producer comes
// before its consumers. Among operations that are ready at the same time, the lowest index
// goes first, so the order is deterministic.
//
// It panics if the graph has a dependency cycle: graphs are DAGs by construction, so a
// cycle means corrupted def/use links.
func (g *Graph) TopologicalSort() []OperationIndex {
	remainingDeps := make(map[OperationIndex]int, len(g.operations))
	var ready []OperationIndex
	for _, opIdx := range g.OperationIndexes() {
		op := g.operations[opIdx]
		deps := 0
		for _, inIdx := range op.DistinctInputs() {
			if g.operands[inIdx].Def().Valid() {
				deps++
			}
		}
		remainingDeps[opIdx] = deps
		if deps == 0 {
			ready = append(ready, opIdx)
		}
	}

	order := make([]OperationIndex, 0, len(g.operations))
	for len(ready) > 0 {
		// Pop the smallest ready index.
		minPos := 0
		for pos := 1; pos < len(ready); pos++ {
			if ready[pos] < ready[minPos] {
				minPos = pos
			}
		}
		opIdx := ready[minPos]
		ready = slices.Delete(ready, minPos, minPos+1)
		order = append(order, opIdx)

		for _, outIdx := range g.operations[opIdx].Outputs() {
			if !outIdx.Valid() {
				continue
			}
			for _, useIdx := range g.operands[outIdx].Uses() {
				remainingDeps[useIdx]--
				if remainingDeps[useIdx] == 0 {
					ready = append(ready, useIdx)
				}
			}
		}
	}
	if len(order) != len(g.operations) {
		exceptions.Panicf("TopologicalSort: graph has a dependency cycle (%d of %d operations sorted)",
			len(order), len(g.operations))
	}
	return order
}

// Verify checks the structural consistency of the graph: def/use links must agree with the
// operations' input/output lists, and graph-level IO must reference existing operands.
func (g *Graph) Verify() error {
	for _, idx := range g.IOIndexes() {
		if !g.HasOperand(idx) {
			return errors.Errorf("graph IO references missing operand %s", idx)
		}
	}
	for _, opIdx := range g.OperationIndexes() {
		op := g.operations[opIdx]
		for _, inIdx := range op.DistinctInputs() {
			if !slices.Contains(g.operands[inIdx].Uses(), opIdx) {
				return errors.Errorf("operand %s is an input of %s but doesn't list it as a use", inIdx, opIdx)
			}
		}
		for _, outIdx := range op.Outputs() {
			if outIdx.Valid() && g.operands[outIdx].Def() != opIdx {
				return errors.Errorf("operand %s is an output of %s but its def is %s",
					outIdx, opIdx, g.operands[outIdx].Def())
			}
		}
	}
	return nil
}
