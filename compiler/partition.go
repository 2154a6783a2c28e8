package compiler

import (
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/ljh9248/onert/backends"
	"github.com/ljh9248/onert/ir"
)

// createContextData splits the lowered graph into one partition per registered backend:
// every operation lands in exactly the partial graph of its assigned backend, and every
// operand an operation touches exists there -- owned if this backend produces it,
// otherwise as an external stub.
func createContextData(lg *LoweredGraph, registry *backends.Registry,
	linearExecutor bool) (map[backends.Backend]*backends.ContextData, error) {
	whole := lg.Graph()

	dataMap := make(map[backends.Backend]*backends.ContextData, len(registry.All()))
	for _, backend := range registry.All() {
		dataMap[backend] = &backends.ContextData{
			Graph:            ir.NewGraph(),
			ExternalOperands: ir.MakeSet[ir.OperandIndex](),
			OperandLayouts:   make(map[ir.OperandIndex]ir.Layout),
			LinearExecutor:   linearExecutor,
		}
	}

	// Separate operands into partial graphs: each operand moves (data included) into the
	// partial graph of its producing backend. Operands with no producing factor are dead
	// and skipped.
	for _, idx := range whole.OperandIndexes() {
		factor := lg.OperandDefFactor(idx)
		if factor == nil {
			continue
		}
		data, found := dataMap[factor.Backend]
		if !found {
			return nil, errors.Errorf("operand %s is lowered to backend %q, which is not registered",
				idx, factor.Backend.Config().ID())
		}
		operand := whole.Operand(idx)
		moved := operand.Clone()
		moved.ClearDefUse()
		operand.ReleaseData() // The partial graph's copy now holds the constant payload.
		if err := data.Graph.SetOperandAt(idx, moved); err != nil {
			return nil, err
		}
		data.OperandLayouts[idx] = factor.Layout
	}

	// Separate operations into partial graphs, stubbing in the operands a backend touches
	// but doesn't own.
	for _, opIdx := range whole.OperationIndexes() {
		info := lg.OperationLowerInfo(opIdx)
		if info == nil {
			return nil, errors.Errorf("operation %s has no backend assignment", opIdx)
		}
		data, found := dataMap[info.Backend]
		if !found {
			return nil, errors.Errorf("operation %s is lowered to backend %q, which is not registered",
				opIdx, info.Backend.Config().ID())
		}
		op := whole.Operation(opIdx)
		for _, idx := range op.IOOperands() {
			if data.Graph.HasOperand(idx) {
				continue
			}
			stub := whole.Operand(idx).Clone()
			stub.ClearDefUse()
			if err := data.Graph.SetOperandAt(idx, stub); err != nil {
				return nil, err
			}
			factor := lg.OperandDefFactor(idx)
			if factor == nil {
				return nil, errors.Errorf("operation %s consumes operand %s, which has no producing factor",
					opIdx, idx)
			}
			data.OperandLayouts[idx] = factor.Layout
			data.ExternalOperands.Insert(idx)
		}
		if err := data.Graph.SetOperationAt(opIdx, op.Clone()); err != nil {
			return nil, err
		}
	}

	// Mark partial-graph IO and whole-graph IO. Whole-graph inputs/outputs are external
	// everywhere: their owning tensors are the builtin backend's IO tensors.
	wholeIO := ir.SetWith(whole.IOIndexes()...)
	wholeInputs := ir.SetWith(whole.Inputs()...)
	wholeOutputs := ir.SetWith(whole.Outputs()...)
	order := whole.TopologicalSort()
	for _, backend := range registry.All() {
		data := dataMap[backend]
		for _, idx := range data.Graph.OperandIndexes() {
			operand := data.Graph.Operand(idx)
			if wholeIO.Has(idx) {
				data.ExternalOperands.Insert(idx)
			}
			// Inputs are either "graph input" or "no local producer and non-constant".
			if wholeInputs.Has(idx) || (!operand.Def().Valid() && !operand.IsConstant()) {
				data.Graph.AddInput(idx)
			}
			// Outputs are either "graph output" or "no local uses".
			if wholeOutputs.Has(idx) || len(operand.Uses()) == 0 {
				data.Graph.AddOutput(idx)
			}
		}
		// The local order is the whole graph's topological order restricted to the
		// operations this backend owns, so cross-backend ordering stays consistent.
		for _, opIdx := range order {
			if data.Graph.HasOperation(opIdx) {
				data.OpOrder = append(data.OpOrder, opIdx)
			}
		}
		klog.V(1).Infof("partition %q: %d operations, %d operands (%d external)",
			backend.Config().ID(), data.Graph.NumOperations(), data.Graph.NumOperands(),
			len(data.ExternalOperands))
	}
	return dataMap, nil
}
