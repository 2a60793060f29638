// Package stack provides an intrusive LIFO stack of caller-owned nodes.
//
// The stack never allocates: callers embed or allocate Node values themselves and
// push pointers to them. A popped node is detached and may be pushed again.
package stack

import "iter"

// Node is a stack link carrying the caller's record.
type Node[T any] struct {
	Value T
	next  *Node[T]
	owner *Stack[T]
	gen   uint64
}

// Detached reports whether the node is on no stack.
func (node *Node[T]) Detached() bool {
	return node.owner == nil || node.owner.gen != node.gen
}

// Stack is an intrusive LIFO. The zero value is an empty stack.
type Stack[T any] struct {
	top  *Node[T]
	size int
	// gen is bumped by Init so that every node linked before is detached at once.
	gen uint64
}

// Init empties the stack in O(1). The nodes it held become detached.
func (stack *Stack[T]) Init() {
	stack.top = nil
	stack.size = 0
	stack.gen++
}

// Peek returns the top node or nil.
func (stack *Stack[T]) Peek() *Node[T] {
	return stack.top
}

// Len returns the number of nodes.
func (stack *Stack[T]) Len() int {
	return stack.size
}

// Empty reports whether the stack has no nodes.
func (stack *Stack[T]) Empty() bool {
	return stack.top == nil
}

// Push puts a detached node on top.
func (stack *Stack[T]) Push(node *Node[T]) {
	if !node.Detached() {
		panic("stack: node is already linked")
	}

	node.next = stack.top
	node.owner = stack
	node.gen = stack.gen
	stack.top = node
	stack.size++
}

// Pop removes and returns the top node, or nil if the stack is empty.
func (stack *Stack[T]) Pop() *Node[T] {
	node := stack.top
	if node == nil {
		return nil
	}

	stack.top = node.next
	stack.size--
	node.next = nil
	node.owner = nil

	return node
}

// RemoveAll empties the stack in O(1).
func (stack *Stack[T]) RemoveAll() {
	if stack.top != nil {
		stack.top.next = nil
		stack.top.owner = nil
	}

	stack.Init()
}

// All yields the nodes from top to bottom. The yielded node may be popped.
func (stack *Stack[T]) All() iter.Seq[*Node[T]] {
	return func(yield func(*Node[T]) bool) {
		for node := stack.top; node != nil; {
			next := node.next

			if !yield(node) {
				return
			}

			node = next
		}
	}
}
