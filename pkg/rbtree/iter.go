package rbtree

import "iter"

// The iterators below walk the tree in order. The plain variants read the successor
// after the loop body runs, so the body must not unlink the yielded node. The Safe
// variants read it before yielding: the body may remove the yielded node or insert
// it into another tree, but must not touch the node that comes next.
//
// "After" variants resume behind a cursor, "From" variants restart at the cursor.
// A Nil cursor yields nothing.

// Ascend yields every node from the smallest to the largest.
func (tree *Tree[K, T]) Ascend() iter.Seq[Handle] {
	return tree.walk(tree.First, tree.Next)
}

// Descend yields every node from the largest to the smallest.
func (tree *Tree[K, T]) Descend() iter.Seq[Handle] {
	return tree.walk(tree.Last, tree.Prev)
}

// AscendSafe is Ascend tolerating removal of the yielded node.
func (tree *Tree[K, T]) AscendSafe() iter.Seq[Handle] {
	return tree.walkSafe(tree.First, tree.Next)
}

// DescendSafe is Descend tolerating removal of the yielded node.
func (tree *Tree[K, T]) DescendSafe() iter.Seq[Handle] {
	return tree.walkSafe(tree.Last, tree.Prev)
}

// AscendAfter yields the nodes larger than the cursor.
func (tree *Tree[K, T]) AscendAfter(cursor Handle) iter.Seq[Handle] {
	return tree.walk(func() Handle { return tree.Next(cursor) }, tree.Next)
}

// DescendAfter yields the nodes smaller than the cursor.
func (tree *Tree[K, T]) DescendAfter(cursor Handle) iter.Seq[Handle] {
	return tree.walk(func() Handle { return tree.Prev(cursor) }, tree.Prev)
}

// AscendAfterSafe is AscendAfter tolerating removal of the yielded node.
func (tree *Tree[K, T]) AscendAfterSafe(cursor Handle) iter.Seq[Handle] {
	return tree.walkSafe(func() Handle { return tree.Next(cursor) }, tree.Next)
}

// DescendAfterSafe is DescendAfter tolerating removal of the yielded node.
func (tree *Tree[K, T]) DescendAfterSafe(cursor Handle) iter.Seq[Handle] {
	return tree.walkSafe(func() Handle { return tree.Prev(cursor) }, tree.Prev)
}

// AscendFrom yields the cursor and the nodes larger than it.
func (tree *Tree[K, T]) AscendFrom(cursor Handle) iter.Seq[Handle] {
	return tree.walk(func() Handle { return cursor }, tree.Next)
}

// DescendFrom yields the cursor and the nodes smaller than it.
func (tree *Tree[K, T]) DescendFrom(cursor Handle) iter.Seq[Handle] {
	return tree.walk(func() Handle { return cursor }, tree.Prev)
}

// AscendFromSafe is AscendFrom tolerating removal of the yielded node.
func (tree *Tree[K, T]) AscendFromSafe(cursor Handle) iter.Seq[Handle] {
	return tree.walkSafe(func() Handle { return cursor }, tree.Next)
}

// DescendFromSafe is DescendFrom tolerating removal of the yielded node.
func (tree *Tree[K, T]) DescendFromSafe(cursor Handle) iter.Seq[Handle] {
	return tree.walkSafe(func() Handle { return cursor }, tree.Prev)
}

func (tree *Tree[K, T]) walk(start func() Handle, step func(Handle) Handle) iter.Seq[Handle] {
	return func(yield func(Handle) bool) {
		for cursor := start(); cursor != Nil; cursor = step(cursor) {
			if !yield(cursor) {
				return
			}
		}
	}
}

func (tree *Tree[K, T]) walkSafe(start func() Handle, step func(Handle) Handle) iter.Seq[Handle] {
	return func(yield func(Handle) bool) {
		cursor := start()

		for cursor != Nil {
			next := step(cursor)

			if !yield(cursor) {
				return
			}

			cursor = next
		}
	}
}
