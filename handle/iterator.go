package handle

// The four traversal shapes over an allocation are deliberately independent
// structs rather than one polymorphic iterator: element visits are hot paths,
// and none of them should pay for dynamic dispatch the others need. Each is
// single-pass state constructed fresh from the allocation's (block, offset,
// length) triple, so obtaining a new iterator always restarts from the
// beginning, and an exhausted iterator is simply discarded.
//
// Iterators must not be shared between goroutines; the allocation they came
// from can be, freely.

// Window is a storable reference to the part of an allocation that lies within
// a single block. Unlike the raw slice a SpanIterator yields, a Window retains
// the block it points into, so it can be held and re-resolved later.
type Window[T any] struct {
	block  Block[T]
	offset int
	length int
}

// Block returns the block the window points into.
func (w Window[T]) Block() Block[T] {
	return w.block
}

// Offset returns the element offset of the window within its block's storage.
func (w Window[T]) Offset() int {
	return w.offset
}

// Len returns the number of elements in the window.
func (w Window[T]) Len() int {
	return w.length
}

// View resolves the window to its contiguous storage view.
func (w Window[T]) View() []T {
	return w.block.Storage()[w.offset : w.offset+w.length]
}

// SpanIterator walks an allocation one contiguous storage view at a time,
// yielding a single span per block the allocation touches. The first span is
// trimmed by the allocation's start offset and the last by its remaining
// length, so the yielded spans concatenate to exactly the allocation's
// elements.
type SpanIterator[T any] struct {
	block     Block[T]
	offset    int
	remaining int
	span      []T
}

// Spans returns a new span-wise iterator over the allocation.
func (a Allocation[T]) Spans() SpanIterator[T] {
	return SpanIterator[T]{
		block:     a.block,
		offset:    a.Offset(),
		remaining: a.length,
	}
}

// Next advances to the next span, returning false when the allocation is
// exhausted.
func (it *SpanIterator[T]) Next() bool {
	for it.remaining > 0 {
		view := it.block.Storage()[it.offset:]
		it.offset = 0
		if len(view) == 0 {
			it.block = it.block.Next()
			continue
		}
		if len(view) > it.remaining {
			view = view[:it.remaining]
		}
		it.remaining -= len(view)
		it.span = view
		it.block = it.block.Next()
		return true
	}
	it.span = nil
	return false
}

// Span returns the view advanced to by the last successful call to Next.
func (it *SpanIterator[T]) Span() []T {
	return it.span
}

// WindowIterator walks an allocation with the same per-block strides as
// SpanIterator, but yields storable Window references instead of raw views.
type WindowIterator[T any] struct {
	block     Block[T]
	offset    int
	remaining int
	window    Window[T]
}

// Windows returns a new window-wise iterator over the allocation.
func (a Allocation[T]) Windows() WindowIterator[T] {
	return WindowIterator[T]{
		block:     a.block,
		offset:    a.Offset(),
		remaining: a.length,
	}
}

// Next advances to the next window, returning false when the allocation is
// exhausted.
func (it *WindowIterator[T]) Next() bool {
	for it.remaining > 0 {
		length := it.block.Capacity() - it.offset
		if length == 0 {
			it.offset = 0
			it.block = it.block.Next()
			continue
		}
		if length > it.remaining {
			length = it.remaining
		}
		it.window = Window[T]{block: it.block, offset: it.offset, length: length}
		it.remaining -= length
		it.offset = 0
		it.block = it.block.Next()
		return true
	}
	it.window = Window[T]{}
	return false
}

// Window returns the window advanced to by the last successful call to Next.
func (it *WindowIterator[T]) Window() Window[T] {
	return it.window
}

// ValueIterator walks an allocation one element at a time, yielding each
// element by value in storage order.
type ValueIterator[T any] struct {
	block     Block[T]
	view      []T
	remaining int
	value     T
}

// Values returns a new element-wise iterator over the allocation, yielding
// copies of each element.
func (a Allocation[T]) Values() ValueIterator[T] {
	it := ValueIterator[T]{remaining: a.length}
	if a.length > 0 {
		it.block = a.block
		it.view = a.block.Storage()[a.Offset():]
	}
	return it
}

// Next advances to the next element, returning false when the allocation is
// exhausted.
func (it *ValueIterator[T]) Next() bool {
	if it.remaining <= 0 {
		return false
	}
	for len(it.view) == 0 {
		it.block = it.block.Next()
		it.view = it.block.Storage()
	}
	it.value = it.view[0]
	it.view = it.view[1:]
	it.remaining--
	return true
}

// Value returns a copy of the element advanced to by the last successful call
// to Next.
func (it *ValueIterator[T]) Value() T {
	return it.value
}

// RefIterator walks an allocation in the same order as ValueIterator, but
// yields an in-place pointer to each element, so callers can mutate the
// underlying storage directly. Serializing those mutations against other
// readers and writers of the same blocks is the caller's responsibility.
type RefIterator[T any] struct {
	block     Block[T]
	view      []T
	remaining int
	ref       *T
}

// Refs returns a new element-wise iterator over the allocation, yielding
// in-place references to each element.
func (a Allocation[T]) Refs() RefIterator[T] {
	it := RefIterator[T]{remaining: a.length}
	if a.length > 0 {
		it.block = a.block
		it.view = a.block.Storage()[a.Offset():]
	}
	return it
}

// Next advances to the next element, returning false when the allocation is
// exhausted.
func (it *RefIterator[T]) Next() bool {
	if it.remaining <= 0 {
		return false
	}
	for len(it.view) == 0 {
		it.block = it.block.Next()
		it.view = it.block.Storage()
	}
	it.ref = &it.view[0]
	it.view = it.view[1:]
	it.remaining--
	return true
}

// Ref returns an in-place reference to the element advanced to by the last
// successful call to Next.
func (it *RefIterator[T]) Ref() *T {
	return it.ref
}
