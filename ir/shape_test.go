package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapeBasics(t *testing.T) {
	s := MakeShape(Float32, 2, 3)
	assert.Equal(t, 6, s.NumElements())
	assert.Equal(t, 24, s.Memory())
	assert.False(t, s.IsDynamic())
	assert.True(t, s.Equal(MakeShape(Float32, 2, 3)))
	assert.False(t, s.Equal(MakeShape(Float32, 3, 2)))
	assert.False(t, s.Equal(MakeShape(Int32, 2, 3)))

	dyn := MakeShape(Float32, -1, 3)
	assert.True(t, dyn.IsDynamic())

	clone := s.Clone()
	clone.Dims[0] = 7
	assert.Equal(t, 2, s.Dims[0])
}

func TestFlatConversionRoundTrip(t *testing.T) {
	// Integer-valued floats survive every dtype, including Int32.
	values := []float32{0, 1, -2, 1024}
	for _, dtype := range []DType{Float32, Float16, Int32} {
		flat := FlatFromFloat32s(dtype, values)
		require.Len(t, flat, len(values)*dtype.Size())
		assert.Equal(t, values, Float32sFromFlat(dtype, flat), "dtype=%s", dtype)
	}
}

func TestFlatFloat16Precision(t *testing.T) {
	// 1/3 is not representable in half precision; the round trip keeps ~3 decimal digits.
	flat := FlatFromFloat32s(Float16, []float32{1.0 / 3.0})
	got := Float32sFromFlat(Float16, flat)
	require.Len(t, got, 1)
	assert.InDelta(t, 1.0/3.0, got[0], 1e-3)
}
