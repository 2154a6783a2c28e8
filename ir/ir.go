// Package ir holds the computation-graph data model consumed by the compiler: operands
// (tensor slots), operations (nodes), and the Graph container that owns both.
//
// A Graph here is already "lowered" friendly: operands and operations are addressed by
// stable indexes, so a partial graph (a per-backend subset built by the compiler) can keep
// the same indexes as the whole graph it was carved from.
//
// Errors returned by this package are for invalid caller input (e.g. adding an operation
// that references a missing operand). Structural inconsistencies that can only come from
// bugs panic with a stack trace, following github.com/gomlx/exceptions.
package ir

import "fmt"

// OperandIndex identifies an Operand inside a Graph.
// The same index refers to the same logical tensor slot in the whole graph and in every
// partial graph derived from it.
type OperandIndex int32

// OperationIndex identifies an Operation inside a Graph.
type OperationIndex int32

const (
	// InvalidOperand marks an optional operand slot that is not used.
	InvalidOperand = OperandIndex(-1)

	// InvalidOperation marks the absence of an operation -- e.g. the def of a graph input.
	InvalidOperation = OperationIndex(-1)
)

// Valid reports whether the index refers to an actual operand.
func (idx OperandIndex) Valid() bool { return idx >= 0 }

// Valid reports whether the index refers to an actual operation.
func (idx OperationIndex) Valid() bool { return idx >= 0 }

// String implements fmt.Stringer.
func (idx OperandIndex) String() string { return fmt.Sprintf("%%%d", int32(idx)) }

// String implements fmt.Stringer.
func (idx OperationIndex) String() string { return fmt.Sprintf("@%d", int32(idx)) }

// Set implements a set for the key type T.
type Set[T comparable] map[T]struct{}

// MakeSet returns an empty Set of the given type. Size is optional, and if given
// will reserve the expected size.
func MakeSet[T comparable](size ...int) Set[T] {
	if len(size) == 0 {
		return make(Set[T])
	}
	return make(Set[T], size[0])
}

// SetWith creates a Set[T] with the given elements inserted.
func SetWith[T comparable](elements ...T) Set[T] {
	s := MakeSet[T](len(elements))
	s.Insert(elements...)
	return s
}

// Has returns true if Set s has the given key.
func (s Set[T]) Has(key T) bool {
	_, found := s[key]
	return found
}

// Insert keys into set.
func (s Set[T]) Insert(keys ...T) {
	for _, key := range keys {
		s[key] = struct{}{}
	}
}
