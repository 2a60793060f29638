// Package queue provides an intrusive FIFO queue of caller-owned nodes.
package queue

import "iter"

// Node is a queue link carrying the caller's record.
type Node[T any] struct {
	Value T
	next  *Node[T]
	owner *Queue[T]
	gen   uint64
}

// Detached reports whether the node is in no queue.
func (node *Node[T]) Detached() bool {
	return node.owner == nil || node.owner.gen != node.gen
}

// Queue is an intrusive FIFO. The zero value is an empty queue.
type Queue[T any] struct {
	head, tail *Node[T]
	size       int
	gen        uint64
}

// Init empties the queue in O(1). The nodes it held become detached.
func (queue *Queue[T]) Init() {
	queue.head = nil
	queue.tail = nil
	queue.size = 0
	queue.gen++
}

// Peek returns the head node or nil.
func (queue *Queue[T]) Peek() *Node[T] {
	return queue.head
}

// Len returns the number of nodes.
func (queue *Queue[T]) Len() int {
	return queue.size
}

// Empty reports whether the queue has no nodes.
func (queue *Queue[T]) Empty() bool {
	return queue.head == nil
}

// Push appends a detached node at the tail.
func (queue *Queue[T]) Push(node *Node[T]) {
	if !node.Detached() {
		panic("queue: node is already linked")
	}

	node.next = nil
	node.owner = queue
	node.gen = queue.gen

	if queue.tail == nil {
		queue.head = node
	} else {
		queue.tail.next = node
	}

	queue.tail = node
	queue.size++
}

// Pop removes and returns the head node, or nil if the queue is empty.
func (queue *Queue[T]) Pop() *Node[T] {
	node := queue.head
	if node == nil {
		return nil
	}

	queue.head = node.next
	if queue.head == nil {
		queue.tail = nil
	}

	queue.size--
	node.next = nil
	node.owner = nil

	return node
}

// RemoveAll empties the queue in O(1).
func (queue *Queue[T]) RemoveAll() {
	queue.Init()
}

// All yields the nodes from head to tail. The yielded node may be popped.
func (queue *Queue[T]) All() iter.Seq[*Node[T]] {
	return func(yield func(*Node[T]) bool) {
		for node := queue.head; node != nil; {
			next := node.next

			if !yield(node) {
				return
			}

			node = next
		}
	}
}
