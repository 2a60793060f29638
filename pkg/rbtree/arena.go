package rbtree

import (
	"math"
	"slices"
	"sync"

	"github.com/Sumatoshi-tech/intrusive/pkg/safeconv"
)

// growCapacityNumerator and growCapacityDenominator define the 3/2 growth factor for storage.
const (
	growCapacityNumerator   = 3
	growCapacityDenominator = 2
)

// Handle addresses a slot in an Arena. Handles stay valid until the slot is freed.
type Handle uint32

// Nil is the absent handle. Slot 0 of every arena is reserved for it.
const Nil Handle = 0

// Poison values written into the links of removed nodes. They lie beyond the largest
// slot an arena can hand out, so using a removed node's links panics with an index
// out of range instead of silently corrupting another tree.
const (
	PoisonParent Handle = math.MaxUint32 - 2
	PoisonLeft   Handle = math.MaxUint32 - 1
	PoisonRight  Handle = math.MaxUint32
)

// maxSlots is the hard capacity of an arena; it keeps the poison values unreachable.
const maxSlots = math.MaxUint32 - 3

// hibernatedColumns is the number of LZ4 blocks produced by Hibernate:
// parent, left, right, color and the free list.
const hibernatedColumns = 5

type links struct {
	parent, left, right Handle
	color               Color
	freed               bool
}

var poisoned = links{parent: PoisonParent, left: PoisonLeft, right: PoisonRight, color: Red}

// Arena owns the slots that back one or more trees. Every slot holds a caller record of
// type T next to the tree links, so the record can be recovered from a Handle without
// unsafe pointer arithmetic. Trees never allocate: the caller calls Alloc and Free.
type Arena[T any] struct {
	values               []T
	links                []links
	free                 []Handle
	hibernatedData       [hibernatedColumns][]byte
	HibernationThreshold int
	hibernatedLinksLen   int
	hibernatedFreeLen    int
}

// NewArena creates a new empty arena.
func NewArena[T any]() *Arena[T] {
	return &Arena[T]{
		values:               []T{},
		links:                []links{},
		free:                 []Handle{},
		hibernatedData:       [hibernatedColumns][]byte{},
		HibernationThreshold: 0,
		hibernatedLinksLen:   0,
		hibernatedFreeLen:    0,
	}
}

// Size returns the number of slots ever allocated, including the reserved slot 0.
func (arena *Arena[T]) Size() int {
	return len(arena.values)
}

// Used returns the number of live slots, including the reserved slot 0.
func (arena *Arena[T]) Used() int {
	arena.mustBeAwake()

	return len(arena.links) - len(arena.free)
}

// Hibernated reports whether the links are currently compressed.
func (arena *Arena[T]) Hibernated() bool {
	return arena.links == nil
}

// Clone copies an existing arena. The records are copied shallowly.
func (arena *Arena[T]) Clone() *Arena[T] {
	if arena.links == nil {
		panic("cannot clone a hibernated arena")
	}

	clone := &Arena[T]{
		HibernationThreshold: arena.HibernationThreshold,
		values:               slices.Clone(arena.values),
		links:                slices.Clone(arena.links),
		free:                 slices.Clone(arena.free),
	}

	return clone
}

// Alloc stores value in a fresh slot and returns its handle. The slot starts out
// detached: its links are poisoned until a tree inserts it.
func (arena *Arena[T]) Alloc(value T) Handle {
	arena.mustBeAwake()

	if last := len(arena.free) - 1; last >= 0 {
		nodeIdx := arena.free[last]
		arena.free = arena.free[:last]
		arena.values[nodeIdx] = value
		arena.links[nodeIdx] = poisoned

		return nodeIdx
	}

	slotLen := len(arena.links)
	if slotLen == 0 {
		// Zero is reserved.
		var zero T

		arena.values = append(arena.values, zero)
		arena.links = append(arena.links, links{parent: Nil, left: Nil, right: Nil, color: Black})
		slotLen = 1
	}

	if slotLen >= maxSlots {
		panic("the arena has reached the maximum number of slots")
	}

	arena.values = append(arena.values, value)
	arena.links = append(arena.links, poisoned)

	return safeconv.Must[Handle](slotLen)
}

// Free recycles the slot. The caller must have removed it from every tree first.
func (arena *Arena[T]) Free(nodeIdx Handle) {
	arena.mustBeAwake()

	if nodeIdx == Nil {
		panic("node #0 is special and cannot be deallocated")
	}

	doAssert(!arena.links[nodeIdx].freed)

	var zero T

	arena.values[nodeIdx] = zero
	arena.links[nodeIdx] = poisoned
	arena.links[nodeIdx].freed = true
	arena.free = append(arena.free, nodeIdx)
}

// Entry returns the record stored in the slot.
func (arena *Arena[T]) Entry(nodeIdx Handle) *T {
	arena.mustBeAwake()

	if nodeIdx == Nil {
		panic("node #0 is special and has no entry")
	}

	doAssert(!arena.links[nodeIdx].freed)

	return &arena.values[nodeIdx]
}

// Detached reports whether the slot is not linked into any tree, that is, whether
// its links carry the poison values written by Alloc, Free and the removal paths.
func (arena *Arena[T]) Detached(nodeIdx Handle) bool {
	arena.mustBeAwake()

	return arena.links[nodeIdx].parent == PoisonParent
}

// Hibernate compresses the links with LZ4. The records stay resident.
func (arena *Arena[T]) Hibernate() {
	if arena.hibernatedLinksLen > 0 {
		panic("cannot hibernate an already hibernated Arena")
	}

	if len(arena.links) < arena.HibernationThreshold {
		return
	}

	arena.hibernatedLinksLen = len(arena.links)
	if arena.hibernatedLinksLen == 0 {
		arena.links = nil

		return
	}

	buffers := [hibernatedColumns - 1][]uint32{}

	for idx := range buffers {
		buffers[idx] = make([]uint32, len(arena.links))
	}

	// We deinterleave to achieve a better compression ratio.
	for idx, nd := range arena.links {
		buffers[0][idx] = uint32(nd.parent)
		buffers[1][idx] = uint32(nd.left)
		buffers[2][idx] = uint32(nd.right)

		if nd.color == Black {
			buffers[3][idx] = 1
		}
	}

	freeList := arena.free
	arena.links = nil
	arena.free = nil

	wg := &sync.WaitGroup{}
	wg.Add(len(buffers) + 1)

	for idx, buffer := range buffers {
		go func(bufIdx int, buf []uint32) {
			arena.hibernatedData[bufIdx] = CompressUInt32Slice(buf)
			buffers[bufIdx] = nil

			wg.Done()
		}(idx, buffer)
	}

	// Compress the free list.
	go func() {
		if len(freeList) > 0 {
			arena.hibernatedFreeLen = len(freeList)

			freeBuffer := make([]uint32, len(freeList))
			for idx, nodeIdx := range freeList {
				freeBuffer[idx] = uint32(nodeIdx)
			}

			arena.hibernatedData[len(buffers)] = CompressUInt32Slice(freeBuffer)
		}

		wg.Done()
	}()

	wg.Wait()
}

// Boot performs the opposite of Hibernate() - decompresses and restores the links.
func (arena *Arena[T]) Boot() {
	if arena.links == nil && arena.hibernatedLinksLen == 0 {
		arena.links = []links{}
		arena.free = []Handle{}

		return
	}

	if arena.hibernatedLinksLen == 0 {
		// Not hibernated.
		return
	}

	buffers := [hibernatedColumns - 1][]uint32{}
	freeBuffer := make([]uint32, arena.hibernatedFreeLen)

	wg := &sync.WaitGroup{}
	wg.Add(len(buffers) + 1)

	for idx := range buffers {
		go func(bufIdx int) {
			buffers[bufIdx] = make([]uint32, arena.hibernatedLinksLen)
			DecompressUInt32Slice(arena.hibernatedData[bufIdx], buffers[bufIdx])
			arena.hibernatedData[bufIdx] = nil

			wg.Done()
		}(idx)
	}

	go func() {
		if len(freeBuffer) > 0 {
			DecompressUInt32Slice(arena.hibernatedData[len(buffers)], freeBuffer)
			arena.hibernatedData[len(buffers)] = nil
		}

		wg.Done()
	}()

	wg.Wait()

	capSize := (arena.hibernatedLinksLen * growCapacityNumerator) / growCapacityDenominator
	arena.links = make([]links, arena.hibernatedLinksLen, capSize)

	for idx := range arena.links {
		nd := &arena.links[idx]
		nd.parent = Handle(buffers[0][idx])
		nd.left = Handle(buffers[1][idx])
		nd.right = Handle(buffers[2][idx])
		nd.color = Color(buffers[3][idx] > 0)
	}

	arena.free = make([]Handle, len(freeBuffer))

	for idx, nodeIdx := range freeBuffer {
		arena.free[idx] = Handle(nodeIdx)
		arena.links[nodeIdx].freed = true
	}

	arena.hibernatedLinksLen = 0
	arena.hibernatedFreeLen = 0
}

func (arena *Arena[T]) mustBeAwake() {
	if arena.links == nil {
		panic("hibernated arenas cannot be used")
	}
}
