package rbtree

// First returns the smallest node, or Nil if the tree is empty.
func (tree *Tree[K, T]) First() Handle {
	if tree.root == Nil {
		return Nil
	}

	return leftmost(tree.root, tree.storage())
}

// Last returns the largest node, or Nil if the tree is empty.
func (tree *Tree[K, T]) Last() Handle {
	if tree.root == Nil {
		return Nil
	}

	return rightmost(tree.root, tree.storage())
}

// Next returns the in-order successor of a live node. Nil maps to Nil.
func (tree *Tree[K, T]) Next(nodeIdx Handle) Handle {
	if nodeIdx == Nil {
		return Nil
	}

	return doNext(nodeIdx, tree.storage())
}

// Prev returns the in-order predecessor of a live node. Nil maps to Nil.
func (tree *Tree[K, T]) Prev(nodeIdx Handle) Handle {
	if nodeIdx == Nil {
		return Nil
	}

	return doPrev(nodeIdx, tree.storage())
}

// IndexOf returns the rank of a live node. It is O(1) for the first and the last
// node and a linear scan from the first node otherwise.
func (tree *Tree[K, T]) IndexOf(nodeIdx Handle) int {
	doAssert(nodeIdx != Nil)

	if nodeIdx == tree.Last() {
		return tree.size - 1
	}

	alloc := tree.storage()
	index := 0

	for cursor := tree.First(); cursor != Nil; cursor = doNext(cursor, alloc) {
		if cursor == nodeIdx {
			return index
		}

		index++
	}

	panic("rbtree: node is not in the tree")
}

// At returns the node of the given rank, scanning from the closer end.
//
// REQUIRES: 0 <= index < Len().
func (tree *Tree[K, T]) At(index int) Handle {
	doAssert(index >= 0 && index < tree.size)

	alloc := tree.storage()

	if index < tree.size/2 {
		cursor := tree.First()
		for range index {
			cursor = doNext(cursor, alloc)
		}

		return cursor
	}

	cursor := tree.Last()
	for range tree.size - 1 - index {
		cursor = doPrev(cursor, alloc)
	}

	return cursor
}

func leftmost(nodeIdx Handle, alloc []links) Handle {
	for alloc[nodeIdx].left != Nil {
		nodeIdx = alloc[nodeIdx].left
	}

	return nodeIdx
}

func rightmost(nodeIdx Handle, alloc []links) Handle {
	for alloc[nodeIdx].right != Nil {
		nodeIdx = alloc[nodeIdx].right
	}

	return nodeIdx
}

// Return the minimum node that's larger than N. Return Nil if no such
// node is found.
func doNext(nodeIdx Handle, alloc []links) Handle {
	if alloc[nodeIdx].right != Nil {
		return leftmost(alloc[nodeIdx].right, alloc)
	}

	for {
		parent := alloc[nodeIdx].parent
		if parent == Nil || alloc[parent].left == nodeIdx {
			return parent
		}

		nodeIdx = parent
	}
}

// Return the maximum node that's smaller than N. Return Nil if no
// such node is found.
func doPrev(nodeIdx Handle, alloc []links) Handle {
	if alloc[nodeIdx].left != Nil {
		return maxPredecessor(nodeIdx, alloc)
	}

	for {
		parent := alloc[nodeIdx].parent
		if parent == Nil || alloc[parent].right == nodeIdx {
			return parent
		}

		nodeIdx = parent
	}
}

// Return the predecessor of "n" within its left subtree.
func maxPredecessor(nodeIdx Handle, alloc []links) Handle {
	doAssert(alloc[nodeIdx].left != Nil)

	return rightmost(alloc[nodeIdx].left, alloc)
}
