package handle_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/memchain/memchain/handle"
)

func TestSingleBlockSequence(t *testing.T) {
	blocks := twoBlockChain()
	alloc := handle.NewAllocation[int](blocks[0], 1, 3)

	seq := alloc.Sequence()
	require.False(t, seq.IsEmpty())
	require.Equal(t, 3, seq.Len())
	require.Equal(t, []int{1, 2, 3}, seq.First())

	start := seq.Start()
	end := seq.End()
	require.Same(t, blocks[0], start.Segment())
	require.Same(t, blocks[0], end.Segment())
	require.Equal(t, 1, start.Index())
	require.Equal(t, 4, end.Index())
}

func TestMultiBlockSequence(t *testing.T) {
	blocks := chainOf([]int{0, 1, 2}, []int{3, 4}, []int{5, 6, 7, 8})
	alloc := handle.NewAllocation[int](blocks[0], 1, 7)

	seq := alloc.Sequence()
	require.Equal(t, 7, seq.Len())
	require.Equal(t, []int{1, 2}, seq.First())
	require.Same(t, blocks[0], seq.Start().Segment())
	require.Same(t, blocks[2], seq.End().Segment())
	require.Equal(t, 3, seq.End().Index())
}

func TestSequenceEndingOnBlockBoundary(t *testing.T) {
	blocks := twoBlockChain()
	alloc := handle.NewAllocation[int](blocks[0], 2, 6)

	seq := alloc.Sequence()
	require.Equal(t, 6, seq.Len())
	require.Same(t, blocks[1], seq.End().Segment())
	require.Equal(t, 4, seq.End().Index())
}

func TestEmptyAllocationSequence(t *testing.T) {
	empty := handle.NewAllocation[int](handle.NilBlock[int](), 0, 0)
	seq := empty.Sequence()
	require.True(t, seq.IsEmpty())
	require.Equal(t, 0, seq.Len())
	require.Nil(t, seq.First())
}

func TestSequenceRoundTrip(t *testing.T) {
	blocks := chainOf([]int{0, 1, 2}, []int{3, 4}, []int{5, 6, 7, 8})

	allocations := []handle.Allocation[int]{
		handle.NewAllocation[int](blocks[0], 0, 2),
		handle.NewAllocation[int](blocks[0], 1, 7),
		handle.NewAllocation[int](blocks[1], 0, 6),
		handle.NewAllocation[int](blocks[2], 2, 2),
	}

	for _, alloc := range allocations {
		recovered, ok := handle.FromSequence(alloc.Sequence())
		require.True(t, ok)
		require.True(t, alloc.Equal(recovered))
	}
}

func TestEmptySequenceRoundTrip(t *testing.T) {
	recovered, ok := handle.FromSequence(handle.Sequence[int]{})
	require.True(t, ok)
	require.True(t, recovered.IsEmpty())
}

func TestForeignSequenceIsNotRecoverable(t *testing.T) {
	foreign := handle.NewSequence[int](
		handle.NewPosition("not a block", 0),
		handle.NewPosition("also not a block", 3),
	)

	require.False(t, foreign.IsEmpty())
	require.Equal(t, 0, foreign.Len())
	require.Nil(t, foreign.First())

	_, ok := handle.FromSequence(foreign)
	require.False(t, ok)
}

func TestBackwardSequenceIsNotRecoverable(t *testing.T) {
	blocks := twoBlockChain()

	// Real blocks, but the end position precedes the start position.
	backward := handle.NewSequence[int](
		handle.NewPosition(blocks[0], 3),
		handle.NewPosition(blocks[0], 1),
	)
	require.Equal(t, 0, backward.Len())
	_, ok := handle.FromSequence(backward)
	require.False(t, ok)

	reversed := handle.NewSequence[int](
		handle.NewPosition(blocks[1], 0),
		handle.NewPosition(blocks[0], 2),
	)
	require.Equal(t, 0, reversed.Len())
	_, ok = handle.FromSequence(reversed)
	require.False(t, ok)
}

func TestDisjointChainSequenceIsNotRecoverable(t *testing.T) {
	first := twoBlockChain()
	second := twoBlockChain()

	// Both positions resolve to int blocks, but the end block is not
	// reachable from the start block.
	disjoint := handle.NewSequence[int](
		handle.NewPosition(first[0], 1),
		handle.NewPosition(second[1], 2),
	)
	require.Equal(t, 0, disjoint.Len())
	_, ok := handle.FromSequence(disjoint)
	require.False(t, ok)
}

func TestSequenceWithIndicesOutsideCapacityIsNotRecoverable(t *testing.T) {
	blocks := twoBlockChain()

	tooFar := handle.NewSequence[int](
		handle.NewPosition(blocks[0], 1),
		handle.NewPosition(blocks[1], 5),
	)
	require.Equal(t, 0, tooFar.Len())
	_, ok := handle.FromSequence(tooFar)
	require.False(t, ok)

	negative := handle.NewSequence[int](
		handle.NewPosition(blocks[0], -1),
		handle.NewPosition(blocks[1], 2),
	)
	require.Equal(t, 0, negative.Len())
	_, ok = handle.FromSequence(negative)
	require.False(t, ok)
}

func TestHalfForeignSequenceIsNotRecoverable(t *testing.T) {
	blocks := twoBlockChain()
	mixed := handle.NewSequence[int](
		handle.NewPosition(blocks[0], 0),
		handle.NewPosition("not a block", 2),
	)

	_, ok := handle.FromSequence(mixed)
	require.False(t, ok)
}
