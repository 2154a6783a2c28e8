package compiler

import (
	"testing"

	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ljh9248/onert/backends"
	"github.com/ljh9248/onert/backends/simplecpu"
	"github.com/ljh9248/onert/ir"
)

// lifetimeFixture builds out = Add(ReLU(ReLU(in)), c) on a single context that owns every
// operand, so the plan's tensor identities can be checked against one registry.
func lifetimeFixture(t *testing.T) (*ir.Graph, backends.TensorRegistries, []ir.OperationIndex) {
	g := ir.NewGraph()
	shape := ir.MakeShape(ir.Float32, 4)
	in := g.AddOperand(shape)
	a := g.AddOperand(shape)
	b := g.AddOperand(shape)
	c := g.AddOperand(shape)
	out := g.AddOperand(shape)
	g.Operand(c).SetData(make([]byte, shape.Memory()))
	g.AddInput(in)
	g.AddOutput(out)

	var ops []ir.OperationIndex
	for _, step := range []struct {
		opType ir.OpType
		in     []ir.OperandIndex
		out    []ir.OperandIndex
	}{
		{ir.OpReLU, []ir.OperandIndex{in}, []ir.OperandIndex{a}},
		{ir.OpReLU, []ir.OperandIndex{a}, []ir.OperandIndex{b}},
		{ir.OpAdd, []ir.OperandIndex{b, c}, []ir.OperandIndex{out}},
	} {
		opIdx, err := g.AddOperation(ir.NewOperation(step.opType, step.in, step.out))
		require.NoError(t, err)
		ops = append(ops, opIdx)
	}

	context := must.M1(simplecpu.New().NewContext(backends.ContextData{
		Graph:            g,
		ExternalOperands: ir.MakeSet[ir.OperandIndex](),
		OperandLayouts:   make(map[ir.OperandIndex]ir.Layout),
		OpOrder:          g.TopologicalSort(),
		LinearExecutor:   true,
	}))
	must.M(context.GenTensors())
	return g, backends.NewTensorRegistries(context), ops
}

func TestPlanDeallocationsFreesAfterLastUse(t *testing.T) {
	g, registries, ops := lifetimeFixture(t)
	plan := planDeallocations(g, g.TopologicalSort(), registries)

	// in is a graph input: never freed, so the first operation releases nothing.
	assert.Empty(t, plan[ops[0]])

	// a's only consumer is the second operation; b's is the third. Identity matters: the
	// plan must point at the operands' actual owning tensors.
	require.Len(t, plan[ops[1]], 1)
	assert.Same(t, registries.Tensor(1), plan[ops[1]][0])
	require.Len(t, plan[ops[2]], 1)
	assert.Same(t, registries.Tensor(2), plan[ops[2]][0])
}

func TestPlanDeallocationsSparesConstants(t *testing.T) {
	g, registries, ops := lifetimeFixture(t)
	plan := planDeallocations(g, g.TopologicalSort(), registries)

	// c feeds the last operation, but constants stay allocated across runs.
	for _, tensors := range plan {
		for _, tensor := range tensors {
			assert.NotSame(t, registries.Tensor(3), tensor)
		}
	}
	require.Len(t, plan[ops[2]], 1)
}

func TestPlanDeallocationsSparesVariables(t *testing.T) {
	g, registries, ops := lifetimeFixture(t)
	g.Operand(1).SetVariable(true)
	plan := planDeallocations(g, g.TopologicalSort(), registries)
	assert.Empty(t, plan[ops[1]])
}
