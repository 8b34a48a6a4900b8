// Package arena provides a chain arena: a producer of linked fixed-capacity
// blocks that carves handle.Allocation values out of the chain. Allocations
// are not freed individually; the arena is reset as a unit, at which point its
// blocks are recycled for later chains and every outstanding allocation
// becomes invalid.
package arena

import (
	"context"
	"reflect"
	"sync"

	"github.com/dolthub/swiss"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/pkg/errors"
	"golang.org/x/exp/slog"

	"github.com/memchain/memchain"
	"github.com/memchain/memchain/handle"
)

// chainBlock is the arena's node type. Its storage slice is created at full
// capacity and never resized, which keeps the Capacity == len(Storage)
// invariant trivially true for every allocation carved from it.
type chainBlock[T any] struct {
	storage []T
	next    *chainBlock[T]
}

var _ handle.Block[int] = &chainBlock[int]{}

func (b *chainBlock[T]) ElementType() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func (b *chainBlock[T]) Capacity() int {
	return len(b.storage)
}

func (b *chainBlock[T]) Storage() []T {
	return b.storage
}

func (b *chainBlock[T]) Next() handle.Block[T] {
	if b.next == nil {
		return nil
	}
	return b.next
}

// Arena carves allocations of T out of a chain of fixed-capacity blocks.
// Blocks are a uniform power-of-two capacity, except that a request larger
// than the block capacity is backed by a dedicated block rounded up to the
// next power of two. Spent chains are recycled through a free map bucketed by
// those capacity classes.
//
// Arena methods are safe for concurrent use. The allocations an arena hands
// out remain valid until the next Reset.
type Arena[T any] struct {
	mutex  sync.Mutex
	logger *slog.Logger

	blockCapacity int

	head     *chainBlock[T]
	tail     *chainBlock[T]
	tailUsed int

	freeBlocks *swiss.Map[int, []*chainBlock[T]]
	stats      memchain.DetailedStatistics
}

var _ memchain.Validatable = &Arena[int]{}

// New creates an arena that chains blocks of blockCapacity elements.
// The capacity must be a positive power of two so that recycled blocks bucket
// exactly by capacity class.
func New[T any](blockCapacity int, logger *slog.Logger) (*Arena[T], error) {
	if blockCapacity <= 0 {
		return nil, errors.Errorf("block capacity must be positive, but %d was requested", blockCapacity)
	}
	if err := memchain.CheckPow2(uint(blockCapacity), "blockCapacity"); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	a := &Arena[T]{
		logger:        logger,
		blockCapacity: blockCapacity,
		freeBlocks:    swiss.NewMap[int, []*chainBlock[T]](8),
	}
	a.stats.Clear()
	return a, nil
}

// Allocate carves an allocation of count elements from the chain, extending it
// with recycled or fresh blocks as needed. A count of zero yields an empty
// allocation anchored on the NilBlock sentinel; a negative count is an error.
func (a *Arena[T]) Allocate(count int) (handle.Allocation[T], error) {
	if count < 0 {
		return handle.Allocation[T]{}, errors.Errorf("allocation size must be non-negative, but %d was requested", count)
	}
	if count == 0 {
		return handle.NewAllocation[T](handle.NilBlock[T](), 0, 0), nil
	}

	a.mutex.Lock()
	defer a.mutex.Unlock()

	if a.tail == nil || a.tailUsed >= a.tail.Capacity() {
		a.appendBlock(a.nextBlockCapacity(count))
	}
	startBlock := a.tail
	startOffset := a.tailUsed

	remaining := count
	take := startBlock.Capacity() - startOffset
	if take > remaining {
		take = remaining
	}
	a.tailUsed = startOffset + take
	remaining -= take

	for remaining > 0 {
		block := a.appendBlock(a.nextBlockCapacity(remaining))
		take = block.Capacity()
		if take > remaining {
			take = remaining
		}
		a.tailUsed = take
		remaining -= take
	}

	a.stats.AddAllocation(count)

	alloc := handle.NewAllocation[T](startBlock, startOffset, count)
	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "carved allocation from chain",
		slog.Int("elements", count),
		slog.Int("startOffset", startOffset),
		slog.Bool("multiBlock", alloc.IsMultiBlock()))
	return alloc, nil
}

// nextBlockCapacity selects the capacity class for the next chain block: the
// arena's uniform capacity, or the next power of two up from an oversized
// remainder.
func (a *Arena[T]) nextBlockCapacity(count int) int {
	if count <= a.blockCapacity {
		return a.blockCapacity
	}
	return memchain.NextPow2(count)
}

func (a *Arena[T]) appendBlock(capacity int) *chainBlock[T] {
	memchain.DebugCheckPow2(uint(capacity), "capacity")

	block := a.acquireBlock(capacity)
	if a.tail != nil {
		a.tail.next = block
	}
	if a.head == nil {
		a.head = block
	}
	a.tail = block
	a.tailUsed = 0

	a.stats.BlockCount++
	a.stats.BlockElements += capacity
	return block
}

func (a *Arena[T]) acquireBlock(capacity int) *chainBlock[T] {
	free, ok := a.freeBlocks.Get(capacity)
	if ok && len(free) > 0 {
		block := free[len(free)-1]
		a.freeBlocks.Put(capacity, free[:len(free)-1])
		a.stats.FreeBlockCount--
		return block
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "allocating new chain block",
		slog.Int("capacity", capacity))
	return &chainBlock[T]{storage: make([]T, capacity)}
}

// Reset invalidates every allocation carved since the previous Reset and
// returns the chain's blocks to the arena's free map. Block storage is zeroed
// on the way out so recycled blocks do not pin the old elements' references.
func (a *Arena[T]) Reset() {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	var zero T
	recycled := 0
	block := a.head
	for block != nil {
		next := block.next
		block.next = nil
		for i := range block.storage {
			block.storage[i] = zero
		}

		capacity := block.Capacity()
		free, _ := a.freeBlocks.Get(capacity)
		a.freeBlocks.Put(capacity, append(free, block))
		a.stats.FreeBlockCount++
		recycled++
		block = next
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "recycled chain",
		slog.Int("blocks", recycled),
		slog.Int("allocations", a.stats.AllocationCount))

	a.head = nil
	a.tail = nil
	a.tailUsed = 0
	a.stats.BlockCount = 0
	a.stats.BlockElements = 0
	a.stats.AllocationCount = 0
	a.stats.AllocatedElements = 0
}

// AddStatistics sums this arena's counters into the statistics currently
// present in the provided memchain.Statistics object.
func (a *Arena[T]) AddStatistics(stats *memchain.Statistics) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	stats.AddStatistics(&a.stats.Statistics)
}

// AddDetailedStatistics sums this arena's counters into the statistics
// currently present in the provided memchain.DetailedStatistics object.
func (a *Arena[T]) AddDetailedStatistics(stats *memchain.DetailedStatistics) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	stats.AddDetailedStatistics(&a.stats)
}

// Validate performs internal consistency checks on the arena's chain and
// counters. When the arena is functioning correctly, it should not be possible
// for this method to return an error.
func (a *Arena[T]) Validate() error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	blockCount := 0
	blockElements := 0
	for block := a.head; block != nil; block = block.next {
		if block.Capacity() == 0 {
			return errors.New("a live chain block has no capacity")
		}
		if err := memchain.CheckPow2(uint(block.Capacity()), "block capacity"); err != nil {
			return err
		}
		blockCount++
		blockElements += block.Capacity()
	}

	if blockCount != a.stats.BlockCount {
		return errors.Errorf("the chain holds %d blocks, but the statistics claim %d", blockCount, a.stats.BlockCount)
	}
	if blockElements != a.stats.BlockElements {
		return errors.Errorf("the chain holds %d elements, but the statistics claim %d", blockElements, a.stats.BlockElements)
	}
	if a.tail != nil && a.tailUsed > a.tail.Capacity() {
		return errors.Errorf("the tail block has %d elements carved from it, but a capacity of only %d", a.tailUsed, a.tail.Capacity())
	}
	if a.tail == nil && a.tailUsed != 0 {
		return errors.Errorf("the chain is empty, but %d elements are carved from its tail", a.tailUsed)
	}

	freeCount := 0
	a.freeBlocks.Iter(func(capacity int, blocks []*chainBlock[T]) bool {
		freeCount += len(blocks)
		return false
	})
	if freeCount != a.stats.FreeBlockCount {
		return errors.Errorf("the free map holds %d blocks, but the statistics claim %d", freeCount, a.stats.FreeBlockCount)
	}

	return nil
}

// PrintDetailedMap populates a json writer with a diagnostic description of
// the arena: its counters and the capacity and occupancy of each live block.
func (a *Arena[T]) PrintDetailedMap(writer *jwriter.Writer) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	obj := writer.Object()
	defer obj.End()

	var elementType T
	obj.Name("ElementType").String(reflect.TypeOf(&elementType).Elem().String())
	obj.Name("BlockCapacity").Int(a.blockCapacity)
	obj.Name("BlockCount").Int(a.stats.BlockCount)
	obj.Name("BlockElements").Int(a.stats.BlockElements)
	obj.Name("FreeBlockCount").Int(a.stats.FreeBlockCount)
	obj.Name("AllocationCount").Int(a.stats.AllocationCount)
	obj.Name("AllocatedElements").Int(a.stats.AllocatedElements)

	blocks := obj.Name("Blocks").Array()
	defer blocks.End()

	for block := a.head; block != nil; block = block.next {
		blockObj := blocks.Object()
		blockObj.Name("Capacity").Int(block.Capacity())
		used := block.Capacity()
		if block == a.tail {
			used = a.tailUsed
		}
		blockObj.Name("Used").Int(used)
		blockObj.End()
	}
}
