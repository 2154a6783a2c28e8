package basic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ljh9248/onert/ir"
)

func TestStaticTensorLifecycle(t *testing.T) {
	tensor := NewTensor(ir.MakeShape(ir.Float32, 2, 2), ir.UnknownLayout)
	require.False(t, tensor.IsDynamic())
	require.Len(t, tensor.Flat(), 16)

	data := ir.FlatFromFloat32s(ir.Float32, []float32{1, 2, 3, 4})
	require.NoError(t, tensor.Write(data))
	assert.Equal(t, data, tensor.Flat())

	// A static tensor keeps its shape: only a same-shape Resize is allowed.
	require.Error(t, tensor.Resize(ir.MakeShape(ir.Float32, 4, 4)))
	require.NoError(t, tensor.Resize(ir.MakeShape(ir.Float32, 2, 2)))

	require.Error(t, tensor.Write(data[:8]))
}

func TestDynamicTensorLifecycle(t *testing.T) {
	tensor := NewTensor(ir.MakeShape(ir.Float32, -1, 2), ir.UnknownLayout)
	require.True(t, tensor.IsDynamic())
	require.Nil(t, tensor.Flat())

	// No buffer until the producing kernel settles the shape.
	require.Error(t, tensor.Write(make([]byte, 8)))
	require.Error(t, tensor.Resize(ir.MakeShape(ir.Float32, -1, 2)))

	require.NoError(t, tensor.Resize(ir.MakeShape(ir.Float32, 3, 2)))
	require.Len(t, tensor.Flat(), 24)
	assert.Equal(t, []int{3, 2}, tensor.Shape().Dims)

	tensor.DeallocBuffer()
	assert.Nil(t, tensor.Flat())
	require.NoError(t, tensor.Resize(ir.MakeShape(ir.Float32, 1, 2)))
	require.Len(t, tensor.Flat(), 8)
}
