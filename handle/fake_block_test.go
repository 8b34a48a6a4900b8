package handle_test

import (
	"reflect"

	"github.com/memchain/memchain/handle"
)

// fakeBlock is a minimal chain node for exercising allocations without an
// arena. Capacity is stored separately from the storage slice so that tests
// can construct nodes that violate the chain contract.
type fakeBlock[T any] struct {
	storage  []T
	capacity int
	next     *fakeBlock[T]
}

func (b *fakeBlock[T]) ElementType() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func (b *fakeBlock[T]) Capacity() int {
	return b.capacity
}

func (b *fakeBlock[T]) Storage() []T {
	return b.storage
}

func (b *fakeBlock[T]) Next() handle.Block[T] {
	if b.next == nil {
		return nil
	}
	return b.next
}

// chainOf links one block per provided element slice and returns the nodes in
// chain order.
func chainOf[T any](blocks ...[]T) []*fakeBlock[T] {
	nodes := make([]*fakeBlock[T], len(blocks))
	for i, elements := range blocks {
		nodes[i] = &fakeBlock[T]{storage: elements, capacity: len(elements)}
		if i > 0 {
			nodes[i-1].next = nodes[i]
		}
	}
	return nodes
}

// twoBlockChain builds the canonical two-block fixture: capacities of 4
// holding [0,1,2,3] and [4,5,6,7].
func twoBlockChain() []*fakeBlock[int] {
	return chainOf([]int{0, 1, 2, 3}, []int{4, 5, 6, 7})
}
