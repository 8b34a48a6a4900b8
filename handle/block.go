package handle

import "reflect"

// RawBlock is the element-type-agnostic capability of a chain block. It is the
// only view of a block that an erased allocation retains, and exists so that
// heterogeneous containers can query a block's element type without knowing it
// at compile time.
type RawBlock interface {
	// ElementType reports the runtime identity of the element type this block stores.
	ElementType() reflect.Type
	// Capacity reports the number of elements this block's storage can hold.
	Capacity() int
}

// Block is a node in a singly linked chain of fixed-capacity element blocks.
// An Allocation never owns the blocks it points into; the chain's producer
// governs their lifetime and must keep the chain alive for as long as any
// allocation derived from it is in use.
//
// Implementations must be comparable values (pointers are the usual shape) so
// that allocations over them can be compared for identity, and must return a
// Storage slice whose length always equals Capacity.
type Block[T any] interface {
	RawBlock
	// Storage returns the contiguous backing view of exactly Capacity() elements.
	Storage() []T
	// Next returns the following node in the chain, or nil when this node is terminal.
	Next() Block[T]
}

// nilBlock is the zero-capacity sentinel for a single element type. It lets an
// empty allocation carry its element type through erasure without referencing
// a live block.
type nilBlock[T any] struct{}

func (nilBlock[T]) ElementType() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func (nilBlock[T]) Capacity() int { return 0 }

func (nilBlock[T]) Storage() []T { return nil }

func (nilBlock[T]) Next() Block[T] { return nil }

// NilBlock returns the sentinel empty block for element type T. The sentinel
// satisfies the full Block contract with a capacity of zero, and every call
// returns an identical value, so allocations anchored on it compare equal.
func NilBlock[T any]() Block[T] {
	return nilBlock[T]{}
}
