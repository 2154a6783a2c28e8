package ir

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/x448/float16"
)

// DType is the data type of an operand's elements.
type DType int8

const (
	InvalidDType DType = iota
	Bool
	Int8
	Int32
	Float16
	Float32
)

// Size returns the number of bytes of one element of the given DType.
func (dt DType) Size() int {
	switch dt {
	case Bool, Int8:
		return 1
	case Int32:
		return 4
	case Float16:
		return 2
	case Float32:
		return 4
	}
	exceptions.Panicf("DType(%d).Size(): unknown dtype", dt)
	return 0
}

// String implements fmt.Stringer.
func (dt DType) String() string {
	switch dt {
	case Bool:
		return "Bool"
	case Int8:
		return "Int8"
	case Int32:
		return "Int32"
	case Float16:
		return "Float16"
	case Float32:
		return "Float32"
	}
	return fmt.Sprintf("DType(%d)", int8(dt))
}

// Layout is the memory layout of a tensor. Backends may assign different layouts to the
// same operand; the builtin backend converts between them.
type Layout int8

const (
	UnknownLayout Layout = iota
	NHWC
	NCHW
)

// String implements fmt.Stringer.
func (l Layout) String() string {
	switch l {
	case NHWC:
		return "NHWC"
	case NCHW:
		return "NCHW"
	}
	return "Unknown"
}

// Shape of an operand: a DType and the dimensions. A dimension set to -1 is only known at
// run time, which makes the shape (and the tensor backing it) dynamic.
type Shape struct {
	DType DType
	Dims  []int
}

// MakeShape returns a Shape with the given dtype and dimensions. Scalars have no dimensions.
func MakeShape(dtype DType, dims ...int) Shape {
	return Shape{DType: dtype, Dims: dims}
}

// IsDynamic reports whether any dimension is unknown until run time.
func (s Shape) IsDynamic() bool {
	for _, dim := range s.Dims {
		if dim < 0 {
			return true
		}
	}
	return false
}

// NumElements returns the flat number of elements, or 0 if the shape is dynamic.
func (s Shape) NumElements() int {
	if s.IsDynamic() {
		return 0
	}
	num := 1
	for _, dim := range s.Dims {
		num *= dim
	}
	return num
}

// Memory returns the number of bytes needed to store the shape's elements.
func (s Shape) Memory() int { return s.NumElements() * s.DType.Size() }

// Equal reports whether the two shapes have the same dtype and dimensions.
func (s Shape) Equal(other Shape) bool {
	if s.DType != other.DType || len(s.Dims) != len(other.Dims) {
		return false
	}
	for ii, dim := range s.Dims {
		if dim != other.Dims[ii] {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the shape.
func (s Shape) Clone() Shape {
	s2 := Shape{DType: s.DType, Dims: make([]int, len(s.Dims))}
	copy(s2.Dims, s.Dims)
	return s2
}

// String implements fmt.Stringer.
func (s Shape) String() string {
	if len(s.Dims) == 0 {
		return fmt.Sprintf("(%s)[]", s.DType)
	}
	parts := make([]string, len(s.Dims))
	for ii, dim := range s.Dims {
		if dim < 0 {
			parts[ii] = "?"
		} else {
			parts[ii] = fmt.Sprintf("%d", dim)
		}
	}
	return fmt.Sprintf("(%s)[%s]", s.DType, strings.Join(parts, " "))
}

// FlatFromFloat32s encodes values into a flat little-endian buffer of the given dtype.
// It is how constant payloads and test inputs are built.
func FlatFromFloat32s(dtype DType, values []float32) []byte {
	flat := make([]byte, len(values)*dtype.Size())
	for ii, v := range values {
		switch dtype {
		case Float32:
			binary.LittleEndian.PutUint32(flat[ii*4:], math.Float32bits(v))
		case Float16:
			binary.LittleEndian.PutUint16(flat[ii*2:], float16.Fromfloat32(v).Bits())
		case Int32:
			binary.LittleEndian.PutUint32(flat[ii*4:], uint32(int32(v)))
		case Int8:
			flat[ii] = byte(int8(v))
		case Bool:
			if v != 0 {
				flat[ii] = 1
			}
		default:
			exceptions.Panicf("FlatFromFloat32s: unsupported dtype %s", dtype)
		}
	}
	return flat
}

// Float32sFromFlat decodes a flat little-endian buffer of the given dtype into float32
// values, the uniform view the reference kernels operate on.
func Float32sFromFlat(dtype DType, flat []byte) []float32 {
	size := dtype.Size()
	values := make([]float32, len(flat)/size)
	for ii := range values {
		switch dtype {
		case Float32:
			values[ii] = math.Float32frombits(binary.LittleEndian.Uint32(flat[ii*4:]))
		case Float16:
			values[ii] = float16.Frombits(binary.LittleEndian.Uint16(flat[ii*2:])).Float32()
		case Int32:
			values[ii] = float32(int32(binary.LittleEndian.Uint32(flat[ii*4:])))
		case Int8:
			values[ii] = float32(int8(flat[ii]))
		case Bool:
			if flat[ii] != 0 {
				values[ii] = 1
			}
		default:
			exceptions.Panicf("Float32sFromFlat: unsupported dtype %s", dtype)
		}
	}
	return values
}
