package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ljh9248/onert/backends"
	"github.com/ljh9248/onert/backends/simplecpu"
	"github.com/ljh9248/onert/ir"
)

func TestMigrantResolutionSharesOwnerTensor(t *testing.T) {
	registry := newTestRegistry(t)
	compiler, err := New(registry, Options{})
	require.NoError(t, err)
	a, err := compiler.buildArtifacts(crossBackendPermute(t, registry), false)
	require.NoError(t, err)

	var builtinCtx, cpuCtx backends.Context
	for _, context := range a.contexts {
		switch context.Backend().Config().ID() {
		case backends.BuiltinID:
			builtinCtx = context
		case simplecpu.BackendID:
			cpuCtx = context
		}
	}
	require.NotNil(t, builtinCtx)
	require.NotNil(t, cpuCtx)

	// mid (%1) is owned by builtin. The cpu side holds no owned tensor for it, yet both
	// its registry and the aggregate view resolve to the very same object.
	mid := ir.OperandIndex(1)
	owner := builtinCtx.Registry().NativeTensor(mid)
	require.NotNil(t, owner)
	assert.Nil(t, cpuCtx.Registry().NativeTensor(mid))
	assert.Same(t, owner, cpuCtx.Registry().Tensor(mid))
	assert.Same(t, owner, a.registries.Tensor(mid))

	// And the mirror image for activated (%2), owned by cpu, borrowed by builtin.
	activated := ir.OperandIndex(2)
	owner = cpuCtx.Registry().NativeTensor(activated)
	require.NotNil(t, owner)
	assert.Nil(t, builtinCtx.Registry().NativeTensor(activated))
	assert.Same(t, owner, builtinCtx.Registry().Tensor(activated))
}

func TestBuiltinContextOrderedLast(t *testing.T) {
	// Register builtin first on purpose: the ordering must still put it last.
	registry := newTestRegistry(t)
	compiler, err := New(registry, Options{})
	require.NoError(t, err)
	a, err := compiler.buildArtifacts(squarePlusBias(t, registry), true)
	require.NoError(t, err)

	require.NotEmpty(t, a.contexts)
	assert.Equal(t, backends.BuiltinID, a.contexts[len(a.contexts)-1].Backend().Config().ID())
	for _, context := range a.contexts[:len(a.contexts)-1] {
		assert.NotEqual(t, backends.BuiltinID, context.Backend().Config().ID())
	}
}
