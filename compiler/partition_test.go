package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ljh9248/onert/backends"
	"github.com/ljh9248/onert/backends/builtin"
	"github.com/ljh9248/onert/backends/simplecpu"
	"github.com/ljh9248/onert/ir"
)

func TestPartitionSingleBackend(t *testing.T) {
	registry := newTestRegistry(t)
	lg := squarePlusBias(t, registry)
	whole := lg.Graph()
	biasIdx := whole.OperandIndexes()[1]
	require.True(t, whole.Operand(biasIdx).IsConstant())

	dataMap, err := createContextData(lg, registry, true)
	require.NoError(t, err)

	cpuData := dataMap[registry.Get(simplecpu.BackendID)]
	builtinData := dataMap[registry.Builtin()]

	// All operations land on cpu, none on builtin; the union covers the whole graph.
	assert.Equal(t, whole.NumOperations(), cpuData.Graph.NumOperations())
	assert.Zero(t, builtinData.Graph.NumOperations())
	for _, opIdx := range whole.OperationIndexes() {
		assert.True(t, cpuData.Graph.HasOperation(opIdx))
	}

	// Whole-graph IO operands are external in every partition that holds them: the builtin
	// IO tensors own them.
	for _, idx := range whole.IOIndexes() {
		require.True(t, cpuData.Graph.HasOperand(idx))
		assert.True(t, cpuData.ExternalOperands.Has(idx), "IO operand %s not external", idx)
	}
	assert.Equal(t, whole.Inputs(), cpuData.Graph.Inputs())
	assert.Equal(t, whole.Outputs(), cpuData.Graph.Outputs())

	// The constant payload moved into the partition; the whole graph no longer holds it.
	assert.Nil(t, whole.Operand(biasIdx).Data())
	moved := cpuData.Graph.Operand(biasIdx)
	require.NotNil(t, moved)
	assert.True(t, moved.IsConstant())
	assert.NotNil(t, moved.Data())
	assert.False(t, cpuData.ExternalOperands.Has(biasIdx))

	// The partition's execution order is the whole graph's topological order.
	assert.Equal(t, whole.TopologicalSort(), cpuData.OpOrder)
}

func TestPartitionCrossBackend(t *testing.T) {
	registry := newTestRegistry(t)
	lg := crossBackendPermute(t, registry)
	whole := lg.Graph()

	dataMap, err := createContextData(lg, registry, false)
	require.NoError(t, err)
	cpuData := dataMap[registry.Get(simplecpu.BackendID)]
	builtinData := dataMap[registry.Builtin()]

	// Every operation lands in exactly one partition.
	for _, opIdx := range whole.OperationIndexes() {
		onCPU := cpuData.Graph.HasOperation(opIdx)
		onBuiltin := builtinData.Graph.HasOperation(opIdx)
		assert.NotEqual(t, onCPU, onBuiltin, "operation %s must be in exactly one partition", opIdx)
	}
	assert.Equal(t, 2, builtinData.Graph.NumOperations())
	assert.Equal(t, 1, cpuData.Graph.NumOperations())

	in, mid, activated, out := whole.Inputs()[0], ir.OperandIndex(1), ir.OperandIndex(2), whole.Outputs()[0]

	// mid is produced by builtin and consumed by cpu: owned on one side, a stub marked
	// external on the other. Same for activated, the other way around.
	assert.False(t, builtinData.ExternalOperands.Has(mid))
	assert.True(t, cpuData.ExternalOperands.Has(mid))
	assert.True(t, builtinData.ExternalOperands.Has(activated))
	assert.False(t, cpuData.ExternalOperands.Has(activated))

	// The cpu partition's local IO reflects what crosses its boundary.
	assert.Equal(t, []ir.OperandIndex{mid}, cpuData.Graph.Inputs())
	assert.Equal(t, []ir.OperandIndex{activated}, cpuData.Graph.Outputs())

	// Operand layouts follow the producing side.
	assert.Equal(t, ir.NHWC, builtinData.OperandLayouts[in])
	assert.Equal(t, ir.NCHW, builtinData.OperandLayouts[mid])
	assert.Equal(t, ir.NCHW, cpuData.OperandLayouts[activated])
	assert.Equal(t, ir.NHWC, builtinData.OperandLayouts[out])

	// Both partial graphs stay structurally consistent on their own.
	require.NoError(t, cpuData.Graph.Verify())
	require.NoError(t, builtinData.Graph.Verify())
}

func TestPartitionRejectsUnassignedOperation(t *testing.T) {
	registry := newTestRegistry(t)
	g := ir.NewGraph()
	in := g.AddOperand(ir.MakeShape(ir.Float32, 2))
	out := g.AddOperand(ir.MakeShape(ir.Float32, 2))
	g.AddInput(in)
	g.AddOutput(out)
	_, err := g.AddOperation(ir.NewOperation(ir.OpReLU, []ir.OperandIndex{in}, []ir.OperandIndex{out}))
	require.NoError(t, err)

	lg := NewLoweredGraph(g)
	cpu := registry.Get(simplecpu.BackendID)
	// Operand factors are set but the operation itself has no backend.
	require.NoError(t, lg.SetOperandDefFactor(in, PermuteFactor{Backend: cpu, Layout: ir.UnknownLayout}))
	require.NoError(t, lg.SetOperandDefFactor(out, PermuteFactor{Backend: cpu, Layout: ir.UnknownLayout}))
	_, err = createContextData(lg, registry, true)
	require.ErrorContains(t, err, "no backend assignment")
}

func TestPartitionRejectsUnregisteredBackend(t *testing.T) {
	registry := newTestRegistry(t)
	lg := squarePlusBias(t, registry)

	// Lower against a backend the compile-time registry doesn't know.
	stranger, err := backends.NewRegistry(builtin.New())
	require.NoError(t, err)
	_, err = createContextData(lg, stranger, true)
	require.ErrorContains(t, err, "not registered")
}
