// Package list provides an intrusive doubly linked list of caller-owned nodes.
//
// Nodes carry their own links, so a node is in at most one list at a time. The
// list never allocates nodes. Ranges move between lists with Cut and the Splice
// methods; relinking is O(1), retagging the moved nodes is O(range).
package list

import "iter"

// Node is a list link carrying the caller's record.
type Node[T any] struct {
	Value      T
	prev, next *Node[T]
	owner      *List[T]
	gen        uint64
}

// Detached reports whether the node is in no list.
func (node *Node[T]) Detached() bool {
	return node.owner == nil || node.owner.gen != node.gen
}

// Prev returns the node before node, or nil. A nil node yields nil.
func (node *Node[T]) Prev() *Node[T] {
	if node == nil {
		return nil
	}

	return node.prev
}

// Next returns the node after node, or nil. A nil node yields nil.
func (node *Node[T]) Next() *Node[T] {
	if node == nil {
		return nil
	}

	return node.next
}

// List is an intrusive doubly linked list. The zero value is an empty list.
type List[T any] struct {
	head, tail *Node[T]
	size       int
	gen        uint64
}

// Init empties the list in O(1). The nodes it held become detached.
func (list *List[T]) Init() {
	list.head = nil
	list.tail = nil
	list.size = 0
	list.gen++
}

// Front returns the first node or nil.
func (list *List[T]) Front() *Node[T] {
	return list.head
}

// Back returns the last node or nil.
func (list *List[T]) Back() *Node[T] {
	return list.tail
}

// Len returns the number of nodes.
func (list *List[T]) Len() int {
	return list.size
}

// Empty reports whether the list has no nodes.
func (list *List[T]) Empty() bool {
	return list.size == 0
}

// Contains reports whether node is linked into this list.
func (list *List[T]) Contains(node *Node[T]) bool {
	return node != nil && node.owner == list && node.gen == list.gen
}

// IndexOf returns the position of node. It is O(1) for the first and the last
// node and a forward scan otherwise. node must be in the list.
func (list *List[T]) IndexOf(node *Node[T]) int {
	list.mustContain(node)

	if node == list.tail {
		return list.size - 1
	}

	idx := 0

	for cur := list.head; cur != node; cur = cur.next {
		idx++
	}

	return idx
}

// At returns the node at index, walking from the nearer end.
// It panics unless 0 <= index < Len.
func (list *List[T]) At(index int) *Node[T] {
	if index < 0 || index >= list.size {
		panic("list: index out of range")
	}

	if index < list.size/2 {
		node := list.head
		for range index {
			node = node.next
		}

		return node
	}

	node := list.tail
	for range list.size - 1 - index {
		node = node.prev
	}

	return node
}

// InsertBefore links node in front of position. A nil position means the end of
// the list, so the node is appended.
func (list *List[T]) InsertBefore(node, position *Node[T]) {
	left, right := list.tail, (*Node[T])(nil)

	if position != nil {
		list.mustContain(position)
		left, right = position.prev, position
	}

	list.insert(node, left, right)
}

// InsertAfter links node behind position. A nil position means the start of the
// list, so the node is prepended.
func (list *List[T]) InsertAfter(node, position *Node[T]) {
	left, right := (*Node[T])(nil), list.head

	if position != nil {
		list.mustContain(position)
		left, right = position, position.next
	}

	list.insert(node, left, right)
}

func (list *List[T]) insert(node, left, right *Node[T]) {
	if !node.Detached() {
		panic("list: node is already linked")
	}

	list.adopt(node, node)
	list.paste(left, node, node, right, 1)
}

// PushFront links node at the start.
func (list *List[T]) PushFront(node *Node[T]) {
	list.InsertAfter(node, nil)
}

// PushBack links node at the end.
func (list *List[T]) PushBack(node *Node[T]) {
	list.InsertBefore(node, nil)
}

// SpliceBefore moves every node of src in front of position, keeping their order.
// A nil position appends. src is left empty.
func (list *List[T]) SpliceBefore(src *List[T], position *Node[T]) {
	if position == nil {
		list.SpliceBack(src)

		return
	}

	list.mustContain(position)
	list.splice(src, position.prev, position)
}

// SpliceAfter moves every node of src behind position, keeping their order.
// A nil position prepends. src is left empty.
func (list *List[T]) SpliceAfter(src *List[T], position *Node[T]) {
	if position == nil {
		list.SpliceFront(src)

		return
	}

	list.mustContain(position)
	list.splice(src, position, position.next)
}

// SpliceFront moves every node of src to the start of the list.
func (list *List[T]) SpliceFront(src *List[T]) {
	list.splice(src, nil, list.head)
}

// SpliceBack moves every node of src to the end of the list.
func (list *List[T]) SpliceBack(src *List[T]) {
	list.splice(src, list.tail, nil)
}

func (list *List[T]) splice(src *List[T], left, right *Node[T]) {
	if src == list {
		panic("list: cannot splice a list into itself")
	}

	from, to, size := src.head, src.tail, src.size
	if from == nil {
		return
	}

	src.cut(from, to, size)
	list.adopt(from, to)
	list.paste(left, from, to, right, size)
}

// Cut unlinks the range from..to, inclusive, and returns it as a new list.
// from must not come after to.
func (list *List[T]) Cut(from, to *Node[T]) *List[T] {
	list.mustContain(from)
	list.mustContain(to)

	out := &List[T]{}
	size := 1

	for node := from; node != to; node = node.next {
		if node == nil {
			panic("list: range end precedes its start")
		}

		size++
	}

	list.cut(from, to, size)
	out.adopt(from, to)
	out.paste(nil, from, to, nil, size)

	return out
}

// Remove unlinks node. A nil node is a no-op; a node from elsewhere panics.
func (list *List[T]) Remove(node *Node[T]) {
	if node == nil {
		return
	}

	list.mustContain(node)
	list.cut(node, node, 1)
	node.owner = nil
}

// RemoveFront unlinks and returns the first node, or nil if the list is empty.
func (list *List[T]) RemoveFront() *Node[T] {
	node := list.head
	list.Remove(node)

	return node
}

// RemoveBack unlinks and returns the last node, or nil if the list is empty.
func (list *List[T]) RemoveBack() *Node[T] {
	node := list.tail
	list.Remove(node)

	return node
}

// RemoveAll empties the list in O(1).
func (list *List[T]) RemoveAll() {
	list.Init()
}

// adopt tags the linked range from..to as belonging to the list.
func (list *List[T]) adopt(from, to *Node[T]) {
	for node := from; ; node = node.next {
		node.owner = list
		node.gen = list.gen

		if node == to {
			return
		}
	}
}

// cut unlinks from..to and clears the outer links of the range. Inner links stay.
func (list *List[T]) cut(from, to *Node[T], size int) {
	if list.head == from {
		list.head = to.next
	} else {
		from.prev.next = to.next
	}

	if list.tail == to {
		list.tail = from.prev
	} else {
		to.next.prev = from.prev
	}

	from.prev = nil
	to.next = nil
	list.size -= size
}

// paste links from..to between left and right; nil ends mean the list boundary.
func (list *List[T]) paste(left, from, to, right *Node[T], size int) {
	if left == nil {
		list.head = from
	} else {
		left.next = from
	}

	from.prev = left

	if right == nil {
		list.tail = to
	} else {
		right.prev = to
	}

	to.next = right
	list.size += size
}

// Sort orders the list with a stable bottom-up merge sort. It uses no extra memory.
func (list *List[T]) Sort(compare func(a, b *T) int) {
	if compare == nil {
		panic("list: nil comparison function")
	}

	if list.size < 2 {
		return
	}

	head := list.head

	for width := 1; ; width <<= 1 {
		var tail *Node[T]

		merges := 0
		left := head
		head = nil

		for left != nil {
			merges++

			right := left
			leftSize := 0

			for right != nil && leftSize < width {
				leftSize++
				right = right.next
			}

			rightSize := width

			for leftSize > 0 || (rightSize > 0 && right != nil) {
				var next *Node[T]

				switch {
				case leftSize == 0:
					next, right = right, right.next
					rightSize--
				case rightSize == 0 || right == nil:
					next, left = left, left.next
					leftSize--
				case compare(&left.Value, &right.Value) <= 0:
					next, left = left, left.next
					leftSize--
				default:
					next, right = right, right.next
					rightSize--
				}

				if tail == nil {
					head = next
				} else {
					tail.next = next
				}

				next.prev = tail
				tail = next
			}

			left = right
		}

		tail.next = nil

		if merges <= 1 {
			list.head = head
			list.tail = tail

			return
		}
	}
}

// All yields the nodes from front to back. The yielded node may be removed or moved.
func (list *List[T]) All() iter.Seq[*Node[T]] {
	return list.From(list.head)
}

// Backward yields the nodes from back to front. The yielded node may be removed or moved.
func (list *List[T]) Backward() iter.Seq[*Node[T]] {
	return list.BackwardFrom(list.tail)
}

// From yields start and the nodes after it. A nil start yields nothing;
// any other start must be in the list.
func (list *List[T]) From(start *Node[T]) iter.Seq[*Node[T]] {
	if start != nil {
		list.mustContain(start)
	}

	return func(yield func(*Node[T]) bool) {
		for node := start; node != nil; {
			next := node.next

			if !yield(node) {
				return
			}

			node = next
		}
	}
}

// BackwardFrom yields start and the nodes before it. A nil start yields nothing;
// any other start must be in the list.
func (list *List[T]) BackwardFrom(start *Node[T]) iter.Seq[*Node[T]] {
	if start != nil {
		list.mustContain(start)
	}

	return func(yield func(*Node[T]) bool) {
		for node := start; node != nil; {
			prev := node.prev

			if !yield(node) {
				return
			}

			node = prev
		}
	}
}

func (list *List[T]) mustContain(node *Node[T]) {
	if !list.Contains(node) {
		panic("list: node is not in this list")
	}
}
