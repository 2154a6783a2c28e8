package builtin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ljh9248/onert/backends/basic"
	"github.com/ljh9248/onert/ir"
)

func TestPermuteRelayoutNHWCToNCHW(t *testing.T) {
	// 1x2x2x3: value encodes position as h*100 + w*10 + c.
	src := basic.NewTensor(ir.MakeShape(ir.Float32, 1, 2, 2, 3), ir.NHWC)
	var values []float32
	for h := range 2 {
		for w := range 2 {
			for c := range 3 {
				values = append(values, float32(h*100+w*10+c))
			}
		}
	}
	require.NoError(t, src.Write(ir.FlatFromFloat32s(ir.Float32, values)))

	dst := basic.NewTensor(ir.MakeShape(ir.Float32, 1, 3, 2, 2), ir.NCHW)
	fn := newPermuteFunction(src, dst, ir.NHWC, ir.NCHW)
	require.NoError(t, fn.Prepare())
	require.NoError(t, fn.Run())

	got := ir.Float32sFromFlat(ir.Float32, dst.Flat())
	var want []float32
	for c := range 3 {
		for h := range 2 {
			for w := range 2 {
				want = append(want, float32(h*100+w*10+c))
			}
		}
	}
	assert.Equal(t, want, got)

	// Round trip back to NHWC restores the original order.
	back := basic.NewTensor(ir.MakeShape(ir.Float32, 1, 2, 2, 3), ir.NHWC)
	require.NoError(t, newPermuteFunction(dst, back, ir.NCHW, ir.NHWC).Run())
	assert.Equal(t, values, ir.Float32sFromFlat(ir.Float32, back.Flat()))
}

func TestPermutePlainCopy(t *testing.T) {
	// Same layout on both sides: a straight copy regardless of rank.
	src := basic.NewTensor(ir.MakeShape(ir.Float32, 3), ir.UnknownLayout)
	require.NoError(t, src.Write(ir.FlatFromFloat32s(ir.Float32, []float32{1, 2, 3})))
	dst := basic.NewTensor(ir.MakeShape(ir.Float32, 3), ir.UnknownLayout)
	require.NoError(t, newPermuteFunction(src, dst, ir.UnknownLayout, ir.UnknownLayout).Run())
	assert.Equal(t, src.Flat(), dst.Flat())
}

func TestPermuteUnallocatedSource(t *testing.T) {
	src := basic.NewTensor(ir.MakeShape(ir.Float32, 3), ir.UnknownLayout)
	src.DeallocBuffer()
	dst := basic.NewTensor(ir.MakeShape(ir.Float32, 3), ir.UnknownLayout)
	require.Error(t, newPermuteFunction(src, dst, ir.UnknownLayout, ir.UnknownLayout).Run())
}

func TestPermuteResizesDynamicDestination(t *testing.T) {
	src := basic.NewTensor(ir.MakeShape(ir.Float32, 1, 2, 2, 3), ir.NHWC)
	require.NoError(t, src.Write(make([]byte, src.Shape().Memory())))
	dst := basic.NewTensor(ir.MakeShape(ir.Float32, -1, 3, 2, 2), ir.NCHW)
	require.NoError(t, newPermuteFunction(src, dst, ir.NHWC, ir.NCHW).Run())
	assert.Equal(t, []int{1, 3, 2, 2}, dst.Shape().Dims)
	assert.Len(t, dst.Flat(), src.Shape().Memory())
}

func TestIOTensorBacking(t *testing.T) {
	io := NewIOTensor(ir.MakeShape(ir.Float32, 4))
	require.Nil(t, io.Flat())

	require.Error(t, io.SetBacking(make([]byte, 8)))
	buf := make([]byte, 16)
	require.NoError(t, io.SetBacking(buf))
	// The tensor aliases the caller's buffer, it never copies.
	io.Flat()[0] = 0xab
	assert.Equal(t, byte(0xab), buf[0])

	require.Error(t, io.Resize(ir.MakeShape(ir.Float32, 8)))
	require.NoError(t, io.Resize(ir.MakeShape(ir.Float32, 4)))

	io.ClearBacking()
	assert.Nil(t, io.Flat())
}
