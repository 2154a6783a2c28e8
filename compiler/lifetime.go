package compiler

import (
	"github.com/dustin/go-humanize"
	"github.com/gomlx/exceptions"
	"k8s.io/klog/v2"

	"github.com/ljh9248/onert/backends"
	"github.com/ljh9248/onert/ir"
)

// deallocPlan maps each operation to the tensors whose last use it is: the linear executor
// frees those (when dynamically shaped) right after the operation runs, bounding peak
// memory instead of holding every buffer until the graph finishes.
type deallocPlan map[ir.OperationIndex][]backends.Tensor

// planDeallocations simulates the linear execution once and records, per operation, the
// operands whose use count drops to zero there.
//
// Constants get a +1 bias so the simulation never frees them mid-schedule (their buffers
// are reused lazily across runs); the bias is removed before the final consistency check.
// Whole-graph inputs/outputs and variable tensors are never freed.
func planDeallocations(graph *ir.Graph, order []ir.OperationIndex,
	registries backends.TensorRegistries) deallocPlan {
	usesMap := make(map[ir.OperandIndex]int, graph.NumOperands())
	var constants []ir.OperandIndex
	modelIO := ir.SetWith(graph.IOIndexes()...)

	for _, idx := range graph.OperandIndexes() {
		usesMap[idx] = len(graph.Operand(idx).Uses())
		if graph.Operand(idx).IsConstant() {
			constants = append(constants, idx)
		}
	}
	for _, idx := range constants {
		usesMap[idx]++
	}

	plan := make(deallocPlan)
	freed, freedBytes := 0, 0
	for _, opIdx := range order {
		op := graph.Operation(opIdx)
		for _, idx := range op.DistinctInputs() {
			count, found := usesMap[idx]
			if !found || count <= 0 {
				exceptions.Panicf("lifetime simulation: use count of operand %s underflowed at operation %s",
					idx, opIdx)
			}
			usesMap[idx] = count - 1
			if usesMap[idx] != 0 {
				continue
			}
			operand := graph.Operand(idx)
			if operand.IsVariable() || modelIO.Has(idx) {
				continue
			}
			tensor := registries.Tensor(idx)
			if tensor == nil {
				exceptions.Panicf("lifetime simulation: no tensor for operand %s", idx)
			}
			plan[opIdx] = append(plan[opIdx], tensor)
			freed++
			freedBytes += operand.Shape().Memory()
		}
	}

	// Remove the constant bias and validate: every counted operand must be fully consumed.
	for _, idx := range constants {
		usesMap[idx]--
	}
	for idx, count := range usesMap {
		if count != 0 {
			exceptions.Panicf("lifetime simulation: operand %s ends with use count %d, graph and "+
				"use sets are inconsistent", idx, count)
		}
	}
	klog.V(1).Infof("lifetime plan: %d tensors (%s) eligible for eager deallocation",
		freed, humanize.Bytes(uint64(freedBytes)))
	return plan
}
