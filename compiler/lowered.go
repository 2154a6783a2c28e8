// Package compiler turns a lowered graph into a ready-to-run executor: it partitions the
// graph across backends, resolves cross-backend (migrant) tensor references, plans buffer
// deallocation for the linear schedule, and assembles the code map the executors consume.
package compiler

import (
	"github.com/pkg/errors"

	"github.com/ljh9248/onert/backends"
	"github.com/ljh9248/onert/ir"
)

// PermuteFactor is one backend/layout assignment of an operand.
type PermuteFactor struct {
	Backend backends.Backend
	Layout  ir.Layout
}

// OperationLowerInfo is the backend/layout assignment of one operation.
type OperationLowerInfo struct {
	Backend backends.Backend
	Layout  ir.Layout
}

// LoweredGraph is a whole graph annotated with backend/layout assignments, the input of
// Compile. The assignment itself (the "lowering" decision) is computed elsewhere; Lower
// offers a simple derivation for callers that just pick a backend per operation.
type LoweredGraph struct {
	graph      *ir.Graph
	operands   map[ir.OperandIndex]*PermuteFactor
	operations map[ir.OperationIndex]*OperationLowerInfo
}

// NewLoweredGraph wraps graph with empty lowering info.
func NewLoweredGraph(graph *ir.Graph) *LoweredGraph {
	return &LoweredGraph{
		graph:      graph,
		operands:   make(map[ir.OperandIndex]*PermuteFactor),
		operations: make(map[ir.OperationIndex]*OperationLowerInfo),
	}
}

// Graph returns the underlying whole graph.
func (lg *LoweredGraph) Graph() *ir.Graph { return lg.graph }

// SetOperationLowerInfo assigns an operation to a backend.
func (lg *LoweredGraph) SetOperationLowerInfo(opIdx ir.OperationIndex, info OperationLowerInfo) error {
	if !lg.graph.HasOperation(opIdx) {
		return errors.Errorf("SetOperationLowerInfo: no operation %s in graph", opIdx)
	}
	if info.Backend == nil {
		return errors.Errorf("SetOperationLowerInfo: nil backend for operation %s", opIdx)
	}
	lg.operations[opIdx] = &info
	return nil
}

// OperationLowerInfo returns the operation's assignment, or nil if it has none.
func (lg *LoweredGraph) OperationLowerInfo(opIdx ir.OperationIndex) *OperationLowerInfo {
	return lg.operations[opIdx]
}

// SetOperandDefFactor records the producing backend/layout of an operand. Each operand has
// exactly one producing factor; setting it twice is an error.
func (lg *LoweredGraph) SetOperandDefFactor(idx ir.OperandIndex, factor PermuteFactor) error {
	if !lg.graph.HasOperand(idx) {
		return errors.Errorf("SetOperandDefFactor: no operand %s in graph", idx)
	}
	if _, found := lg.operands[idx]; found {
		return errors.Errorf("SetOperandDefFactor: operand %s already has a def factor", idx)
	}
	lg.operands[idx] = &factor
	return nil
}

// OperandDefFactor returns the operand's producing factor, or nil if it has none (a dead
// operand no operation produces or consumes).
func (lg *LoweredGraph) OperandDefFactor(idx ir.OperandIndex) *PermuteFactor {
	return lg.operands[idx]
}

// Lower builds a LoweredGraph by asking assign for each operation's backend and deriving
// operand def factors from it: an operand produced by an operation belongs to that
// operation's backend; a graph input or constant belongs to the backend of its first
// consumer (in index order). Operands nothing touches get no factor and are dropped by the
// partitioner.
func Lower(graph *ir.Graph, layout ir.Layout,
	assign func(opIdx ir.OperationIndex, op *ir.Operation) backends.Backend) (*LoweredGraph, error) {
	if err := graph.Verify(); err != nil {
		return nil, errors.WithMessage(err, "Lower")
	}
	lg := NewLoweredGraph(graph)
	for _, opIdx := range graph.OperationIndexes() {
		op := graph.Operation(opIdx)
		backend := assign(opIdx, op)
		if backend == nil {
			return nil, errors.Errorf("Lower: no backend assigned to operation %s (%s)", opIdx, op.Type())
		}
		if err := lg.SetOperationLowerInfo(opIdx, OperationLowerInfo{Backend: backend, Layout: layout}); err != nil {
			return nil, err
		}
	}
	for _, idx := range graph.OperandIndexes() {
		operand := graph.Operand(idx)
		var producer ir.OperationIndex
		switch {
		case operand.Def().Valid():
			producer = operand.Def()
		case len(operand.Uses()) > 0:
			uses := operand.Uses()
			producer = uses[0]
			for _, useIdx := range uses[1:] {
				producer = min(producer, useIdx)
			}
		default:
			continue // Dead operand.
		}
		info := lg.OperationLowerInfo(producer)
		if err := lg.SetOperandDefFactor(idx, PermuteFactor{Backend: info.Backend, Layout: info.Layout}); err != nil {
			return nil, err
		}
	}
	return lg, nil
}
