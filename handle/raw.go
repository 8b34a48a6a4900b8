package handle

import (
	"reflect"

	cerrors "github.com/cockroachdb/errors"

	"github.com/memchain/memchain"
)

// Raw is the type-erased form of an Allocation. It carries the same block,
// offset, and length, but is keyed by element type only at runtime, which lets
// heterogeneous containers (pools, caches of handles) hold allocations of
// differing element types without a generic parameter.
//
// A Raw produced by Erase always references a block, even when the allocation
// was empty: the NilBlock sentinel stands in so that the element type survives
// erasure and recovery stays a strict round trip.
type Raw struct {
	block  RawBlock
	offset int
	length int
}

// Block returns the erased allocation's start block through its type-agnostic
// capability, or nil if the Raw was never produced by Erase.
func (r Raw) Block() RawBlock {
	return r.block
}

// Offset returns the element offset into the start block at which the erased
// allocation begins.
func (r Raw) Offset() int {
	return r.offset
}

// Len returns the total number of elements in the erased allocation.
func (r Raw) Len() int {
	return r.length
}

// IsEmpty returns true when the erased allocation contains no elements.
func (r Raw) IsEmpty() bool {
	return r.length == 0
}

// ElementType reports the runtime identity of the erased allocation's element
// type by asking its block, or nil when no block is referenced.
func (r Raw) ElementType() reflect.Type {
	if r.block == nil {
		return nil
	}
	return r.block.ElementType()
}

// Erase converts the allocation to its type-erased form. An allocation with no
// block reference is anchored to the NilBlock sentinel for T, so the element
// type is preserved even for empty allocations.
func (a Allocation[T]) Erase() Raw {
	block := RawBlock(a.block)
	if a.block == nil {
		block = NilBlock[T]()
	}
	return Raw{
		block:  block,
		offset: a.Offset(),
		length: a.length,
	}
}

// As recovers a typed allocation from its erased form. Recovery is checked:
// the referenced block must store T elements, and the check applies to empty
// allocations as well, so an empty allocation of one type can never be
// silently coerced into another. A mismatch fails with
// memchain.ErrTypeMismatch.
func As[T any](r Raw) (Allocation[T], error) {
	if r.block == nil {
		return Allocation[T]{}, cerrors.Wrapf(memchain.ErrTypeMismatch,
			"erased allocation references no block and carries no element type")
	}

	block, ok := r.block.(Block[T])
	if !ok {
		return Allocation[T]{}, cerrors.Wrapf(memchain.ErrTypeMismatch,
			"allocation stores %s elements, requested %s",
			r.block.ElementType(), reflect.TypeOf((*T)(nil)).Elem())
	}

	return NewAllocation[T](block, r.offset, r.length), nil
}
