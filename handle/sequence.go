package handle

// Position marks a location within a Sequence as a (segment, index) pair. The
// segment is an opaque reference: for sequences produced from a block chain it
// is the Block containing the position, but sequences built by other producers
// may store anything, which is what lets FromSequence detect foreign sequences
// instead of misreading them.
type Position struct {
	segment any
	index   int
}

// NewPosition creates a position from an opaque segment reference and an
// element index within it.
func NewPosition(segment any, index int) Position {
	return Position{segment: segment, index: index}
}

// Segment returns the opaque segment reference backing the position.
func (p Position) Segment() any {
	return p.segment
}

// Index returns the element index within the position's segment.
func (p Position) Index() int {
	return p.index
}

// Sequence is an immutable, possibly multi-segment read view over elements of
// type T. It is the interop boundary between allocations and generic
// streaming infrastructure: both directions of the conversion are lossless for
// sequences that originated from a block chain, and the reverse direction
// fails cleanly for sequences that did not.
//
// The zero value is the canonical empty sequence.
type Sequence[T any] struct {
	start Position
	end   Position
}

// NewSequence creates a sequence spanning the elements between two positions.
// The positions are trusted as given; a sequence whose positions do not
// resolve to blocks of T simply reports no elements.
func NewSequence[T any](start, end Position) Sequence[T] {
	return Sequence[T]{start: start, end: end}
}

// Start returns the position of the sequence's first element.
func (s Sequence[T]) Start() Position {
	return s.start
}

// End returns the position one past the sequence's last element.
func (s Sequence[T]) End() Position {
	return s.end
}

// IsEmpty returns true for the canonical empty sequence.
func (s Sequence[T]) IsEmpty() bool {
	return s.start.segment == nil && s.end.segment == nil
}

// Len returns the total number of elements between the sequence's start and
// end positions, or 0 when the positions do not resolve to a block chain or do
// not describe a forward range within one.
func (s Sequence[T]) Len() int {
	startBlock, ok := s.start.segment.(Block[T])
	if !ok {
		return 0
	}
	endBlock, ok := s.end.segment.(Block[T])
	if !ok {
		return 0
	}

	length, _ := chainLength[T](startBlock, s.start.index, endBlock, s.end.index)
	return length
}

// chainLength computes the number of elements between two block positions,
// reporting false when the positions do not describe a forward range: an index
// outside its block's capacity, an end before the start, or an end block that
// is not reachable from the start block.
func chainLength[T any](startBlock Block[T], startIndex int, endBlock Block[T], endIndex int) (int, bool) {
	if startIndex < 0 || startIndex > startBlock.Capacity() {
		return 0, false
	}
	if endIndex < 0 || endIndex > endBlock.Capacity() {
		return 0, false
	}

	if startBlock == endBlock {
		if endIndex < startIndex {
			return 0, false
		}
		return endIndex - startIndex, true
	}

	total := startBlock.Capacity() - startIndex
	for block := startBlock.Next(); block != nil; block = block.Next() {
		if block == endBlock {
			return total + endIndex, true
		}
		total += block.Capacity()
	}
	return 0, false
}

// First returns the contiguous run of elements beginning at the sequence's
// start position, without crossing a segment boundary. It returns nil for the
// empty sequence and for foreign sequences.
func (s Sequence[T]) First() []T {
	startBlock, ok := s.start.segment.(Block[T])
	if !ok {
		return nil
	}
	view := startBlock.Storage()[s.start.index:]
	if endBlock, ok := s.end.segment.(Block[T]); ok && endBlock == startBlock {
		view = startBlock.Storage()[s.start.index:s.end.index]
	}
	return view
}

// Sequence converts the allocation into its segmented read view. An empty
// allocation converts to the canonical empty sequence; otherwise the view's
// start and end positions are cursors into the allocation's first and last
// blocks.
func (a Allocation[T]) Sequence() Sequence[T] {
	if a.length == 0 {
		return Sequence[T]{}
	}

	offset := a.Offset()
	if !a.IsMultiBlock() {
		return Sequence[T]{
			start: Position{segment: a.block, index: offset},
			end:   Position{segment: a.block, index: offset + a.length},
		}
	}

	// Walk to the block holding the final element; every block between the
	// first and the last is consumed in full.
	remaining := a.length - (a.block.Capacity() - offset)
	end := a.block.Next()
	for remaining > end.Capacity() {
		remaining -= end.Capacity()
		end = end.Next()
	}

	return Sequence[T]{
		start: Position{segment: a.block, index: offset},
		end:   Position{segment: end, index: remaining},
	}
}

// FromSequence recovers the allocation a sequence was produced from. It
// returns true for the canonical empty sequence (yielding an empty allocation)
// and for sequences whose positions resolve to blocks of T with the end
// position reachable forward from the start; it returns false for sequences
// that did not originate from a block chain, including malformed ones whose
// positions resolve to real blocks but describe no forward range.
func FromSequence[T any](s Sequence[T]) (Allocation[T], bool) {
	if s.IsEmpty() {
		return Allocation[T]{}, true
	}

	startBlock, ok := s.start.segment.(Block[T])
	if !ok {
		return Allocation[T]{}, false
	}
	endBlock, ok := s.end.segment.(Block[T])
	if !ok {
		return Allocation[T]{}, false
	}

	length, ok := chainLength[T](startBlock, s.start.index, endBlock, s.end.index)
	if !ok {
		return Allocation[T]{}, false
	}
	return NewAllocation[T](startBlock, s.start.index, length), true
}
