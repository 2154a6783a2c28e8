package builtin

import (
	"github.com/pkg/errors"

	"github.com/ljh9248/onert/backends"
	"github.com/ljh9248/onert/ir"
)

// permuteFunction copies a tensor across a backend boundary, converting the memory layout
// when the two sides disagree. It is the one kernel whose input and output tensor objects
// may belong to different backends.
type permuteFunction struct {
	src, dst             backends.PortableTensor
	srcLayout, dstLayout ir.Layout
}

func newPermuteFunction(src, dst backends.PortableTensor, srcLayout, dstLayout ir.Layout) backends.Function {
	return &permuteFunction{src: src, dst: dst, srcLayout: srcLayout, dstLayout: dstLayout}
}

// Prepare implements backends.Function.
func (p *permuteFunction) Prepare() error { return nil }

// Run implements backends.Function.
func (p *permuteFunction) Run() error {
	flat := p.src.Flat()
	if flat == nil {
		return errors.Errorf("permute: source tensor (shape %s) has no buffer", p.src.Shape())
	}
	srcShape := p.src.Shape()
	dstShape := srcShape
	relayout := p.srcLayout != p.dstLayout && p.srcLayout != ir.UnknownLayout &&
		p.dstLayout != ir.UnknownLayout && len(srcShape.Dims) == 4
	if relayout {
		dstShape = permutedShape(srcShape, p.srcLayout, p.dstLayout)
	}
	if p.dst.Flat() == nil || !p.dst.Shape().Equal(dstShape) {
		if err := p.dst.Resize(dstShape); err != nil {
			return errors.WithMessage(err, "permute")
		}
	}
	if !relayout {
		copy(p.dst.Flat(), flat)
		return nil
	}
	relayoutCopy(p.dst.Flat(), flat, srcShape, p.srcLayout)
	return nil
}

// permutedShape reorders a rank-4 shape's dimensions from one layout to the other.
func permutedShape(shape ir.Shape, from, to ir.Layout) ir.Shape {
	d := shape.Dims
	if from == ir.NHWC && to == ir.NCHW {
		return ir.MakeShape(shape.DType, d[0], d[3], d[1], d[2])
	}
	return ir.MakeShape(shape.DType, d[0], d[2], d[3], d[1]) // NCHW -> NHWC
}

// relayoutCopy copies src (rank-4, laid out as srcLayout) into dst in the opposite layout.
func relayoutCopy(dst, src []byte, srcShape ir.Shape, srcLayout ir.Layout) {
	elem := srcShape.DType.Size()
	var n, h, w, c int
	if srcLayout == ir.NHWC {
		n, h, w, c = srcShape.Dims[0], srcShape.Dims[1], srcShape.Dims[2], srcShape.Dims[3]
	} else {
		n, c, h, w = srcShape.Dims[0], srcShape.Dims[1], srcShape.Dims[2], srcShape.Dims[3]
	}
	for in := 0; in < n; in++ {
		for ih := 0; ih < h; ih++ {
			for iw := 0; iw < w; iw++ {
				for ic := 0; ic < c; ic++ {
					nhwc := ((in*h+ih)*w+iw)*c + ic
					nchw := ((in*c+ic)*h+ih)*w + iw
					srcIdx, dstIdx := nhwc, nchw
					if srcLayout == ir.NCHW {
						srcIdx, dstIdx = nchw, nhwc
					}
					copy(dst[dstIdx*elem:(dstIdx+1)*elem], src[srcIdx*elem:(srcIdx+1)*elem])
				}
			}
		}
	}
}
