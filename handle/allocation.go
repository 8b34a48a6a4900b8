// Package handle provides lightweight, non-owning views over chains of
// fixed-capacity element blocks. An Allocation names a logically contiguous
// range of elements that may physically span several linked blocks, and can be
// sliced, iterated, copied out, and passed through a type-erasure boundary
// without copying the underlying storage.
package handle

import (
	"reflect"

	cerrors "github.com/cockroachdb/errors"
	"github.com/pkg/errors"

	"github.com/memchain/memchain"
)

const multiBlockBit uint32 = 1 << 31

// Allocation is a typed view over a range of elements within a block chain.
// It behaves like a single contiguous buffer even when the range crosses block
// boundaries, and costs one link traversal per boundary crossed, nothing more.
//
// An Allocation is an immutable value: slicing produces new values, and copying
// an Allocation is always safe, including across goroutines. It holds no
// ownership over the blocks it points into; the chain's producer must keep the
// chain alive while any derived Allocation is in use.
type Allocation[T any] struct {
	block Block[T]
	// offsetAndFlag packs the start offset into the low 31 bits and the
	// multi-block flag into the high bit. The flag is always consistent with
	// whether offset+length exceeds the start block's capacity.
	offsetAndFlag uint32
	length        int
}

var _ memchain.Validatable = Allocation[int]{}

// NewAllocation creates an allocation over length elements of the provided
// block chain, beginning offset elements into block's storage. The range may
// extend past block into its successors.
//
// Offset and length must be non-negative, offset may not exceed block's
// capacity, and block must be non-nil for any non-empty allocation; violations
// panic, since they can only be produced by a misbehaving chain producer.
func NewAllocation[T any](block Block[T], offset, length int) Allocation[T] {
	if offset < 0 {
		panic("attempted to create an allocation with a negative offset")
	}
	if length < 0 {
		panic("attempted to create an allocation with a negative length")
	}
	if block == nil {
		if length != 0 {
			panic("attempted to create a non-empty allocation without a block")
		}
		return Allocation[T]{offsetAndFlag: uint32(offset)}
	}

	if offset > block.Capacity() {
		panic("attempted to create an allocation with an offset beyond its start block's capacity")
	}

	offsetAndFlag := uint32(offset)
	if offset+length > block.Capacity() {
		offsetAndFlag |= multiBlockBit
	}

	alloc := Allocation[T]{
		block:         block,
		offsetAndFlag: offsetAndFlag,
		length:        length,
	}
	memchain.DebugValidate(alloc)
	return alloc
}

// StartBlock returns the block the allocation begins in. It is nil for an
// allocation that was never anchored to a chain, and may be the NilBlock
// sentinel for an empty allocation of a known element type.
func (a Allocation[T]) StartBlock() Block[T] {
	return a.block
}

// Offset returns the element offset into the start block's storage at which
// the allocation begins.
func (a Allocation[T]) Offset() int {
	return int(a.offsetAndFlag &^ multiBlockBit)
}

// Len returns the total number of elements in the allocation.
func (a Allocation[T]) Len() int {
	return a.length
}

// IsEmpty returns true when the allocation contains no elements.
func (a Allocation[T]) IsEmpty() bool {
	return a.length == 0
}

// IsMultiBlock returns true when the allocation crosses at least one block
// boundary.
func (a Allocation[T]) IsMultiBlock() bool {
	return a.offsetAndFlag&multiBlockBit != 0
}

// ElementType reports the runtime identity of T.
func (a Allocation[T]) ElementType() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Equal returns true when other names the same range: identical start block,
// offset, and length.
func (a Allocation[T]) Equal(other Allocation[T]) bool {
	return a.block == other.block &&
		a.offsetAndFlag == other.offsetAndFlag &&
		a.length == other.length
}

// Slice returns the subrange of the allocation beginning start elements in and
// extending to its end. Start values outside [0, Len()] fail with
// memchain.ErrOutOfRange.
func (a Allocation[T]) Slice(start int) (Allocation[T], error) {
	if start < 0 || start > a.length {
		return Allocation[T]{}, cerrors.Wrapf(memchain.ErrOutOfRange,
			"slice start %d of a %d-element allocation", start, a.length)
	}
	return a.SliceRange(start, a.length-start)
}

// SliceRange returns the subrange of length elements beginning start elements
// into the allocation. Ranges extending outside [0, Len()] fail with
// memchain.ErrOutOfRange. A zero-length subrange is valid and stays anchored
// to the block containing its position.
func (a Allocation[T]) SliceRange(start, length int) (Allocation[T], error) {
	if start < 0 || length < 0 || start > a.length || start+length > a.length {
		return Allocation[T]{}, cerrors.Wrapf(memchain.ErrOutOfRange,
			"slice [%d, %d) of a %d-element allocation", start, start+length, a.length)
	}

	if a.block == nil {
		// Unanchored allocations are always empty, so the checks above have
		// already pinned start and length to 0.
		return Allocation[T]{}, nil
	}

	offset := a.Offset() + start
	if offset < a.block.Capacity() || (length == 0 && offset == a.block.Capacity() && a.block.Next() == nil) {
		// The subrange still begins inside the start block (or marks the very
		// end of a terminal block): no traversal needed.
		return NewAllocation[T](a.block, offset, length), nil
	}

	// The new start position lies in a later block; advance to it.
	block := a.block
	for offset >= block.Capacity() {
		next := block.Next()
		if next == nil {
			if offset == block.Capacity() && length == 0 {
				return NewAllocation[T](block, offset, length), nil
			}
			return Allocation[T]{}, cerrors.Wrapf(memchain.ErrOutOfRange,
				"slice start %d lies beyond the end of the block chain", start)
		}
		offset -= block.Capacity()
		block = next
	}
	return NewAllocation[T](block, offset, length), nil
}

// CopyTo copies every element of the allocation into dst in order. It fails
// with memchain.ErrDestinationTooSmall when dst cannot hold Len() elements,
// in which case dst is left untouched.
func (a Allocation[T]) CopyTo(dst []T) error {
	if len(dst) < a.length {
		return cerrors.Wrapf(memchain.ErrDestinationTooSmall,
			"destination holds %d elements, allocation holds %d", len(dst), a.length)
	}

	if !a.IsMultiBlock() {
		if a.length > 0 {
			offset := a.Offset()
			copy(dst, a.block.Storage()[offset:offset+a.length])
		}
		return nil
	}

	spans := a.Spans()
	for spans.Next() {
		dst = dst[copy(dst, spans.Span()):]
	}
	return nil
}

// TryCopyTo is the total variant of CopyTo: it returns false instead of
// failing when dst is too small, and true with every element copied otherwise.
func (a Allocation[T]) TryCopyTo(dst []T) bool {
	if len(dst) < a.length {
		return false
	}
	return a.CopyTo(dst) == nil
}

// ToSlice returns a freshly allocated contiguous copy of the allocation's
// elements. This is the only operation in the package that copies storage
// without being handed a destination.
func (a Allocation[T]) ToSlice() []T {
	out := make([]T, a.length)
	_ = a.CopyTo(out)
	return out
}

// Validate performs internal consistency checks on the allocation. When the
// chain producer and this package are functioning correctly, it should not be
// possible for this method to return an error, but it may assist in diagnosing
// a chain whose nodes were resized or relinked while allocations were live.
func (a Allocation[T]) Validate() error {
	if a.block == nil {
		if a.length != 0 {
			return errors.Errorf("allocation has no block but a length of %d", a.length)
		}
		return nil
	}

	capacity := a.block.Capacity()
	if a.Offset() > capacity {
		return errors.Errorf("allocation offset %d lies beyond the start block's capacity %d", a.Offset(), capacity)
	}

	spans := a.Offset()+a.length > capacity
	if spans != a.IsMultiBlock() {
		return errors.Errorf("allocation multi-block flag is %t, but offset %d and length %d against a start capacity of %d require %t",
			a.IsMultiBlock(), a.Offset(), a.length, capacity, spans)
	}

	remaining := a.Offset() + a.length
	block := a.block
	for remaining > 0 {
		if block == nil {
			return errors.Errorf("allocation extends %d elements beyond the end of its chain", remaining)
		}
		if len(block.Storage()) != block.Capacity() {
			return errors.Errorf("a chain block's storage holds %d elements, but its capacity claims %d", len(block.Storage()), block.Capacity())
		}
		remaining -= block.Capacity()
		block = block.Next()
	}
	return nil
}
