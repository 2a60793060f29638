package rbtree

import (
	"errors"
	"fmt"
)

// Invariant violations reported by Verify.
var (
	ErrRootNotBlack = errors.New("root is not black")
	ErrRedRed       = errors.New("red node has a red parent")
	ErrBlackHeight  = errors.New("black height mismatch")
	ErrOrder        = errors.New("in-order keys are not strictly increasing")
	ErrSize         = errors.New("size does not match the reachable nodes")
	ErrBrokenLink   = errors.New("child does not point back at its parent")
)

// Verify walks the whole tree and checks the red-black invariants, the parent links
// and the size. keyOf extracts the key of a record for the ordering check; pass nil
// to skip it. The first violation found is returned.
func (tree *Tree[K, T]) Verify(keyOf func(entry *T) K) error {
	alloc := tree.storage()

	if tree.root == Nil {
		if tree.size != 0 {
			return fmt.Errorf("%w: empty tree with size %d", ErrSize, tree.size)
		}

		return nil
	}

	if alloc[tree.root].parent != Nil {
		return fmt.Errorf("%w: root #%d has parent #%d", ErrBrokenLink, tree.root, alloc[tree.root].parent)
	}

	if alloc[tree.root].color != Black {
		return fmt.Errorf("%w: root #%d", ErrRootNotBlack, tree.root)
	}

	count := 0

	_, err := tree.verifySubtree(tree.root, &count)
	if err != nil {
		return err
	}

	if count != tree.size {
		return fmt.Errorf("%w: %d reachable, size %d", ErrSize, count, tree.size)
	}

	if keyOf == nil {
		return nil
	}

	values := tree.arena.values
	prev := Nil

	for cursor := range tree.Ascend() {
		if prev != Nil && tree.compare(keyOf(&values[prev]), &values[cursor]) >= 0 {
			return fmt.Errorf("%w: #%d is not before #%d", ErrOrder, prev, cursor)
		}

		prev = cursor
	}

	return nil
}

// verifySubtree returns the black height of the subtree, counting the external
// positions as one.
func (tree *Tree[K, T]) verifySubtree(nodeIdx Handle, count *int) (int, error) {
	if nodeIdx == Nil {
		return 1, nil
	}

	alloc := tree.storage()
	nd := alloc[nodeIdx]

	*count++
	if *count > tree.arena.Size() {
		return 0, fmt.Errorf("%w: cycle through #%d", ErrBrokenLink, nodeIdx)
	}

	for _, child := range [2]Handle{nd.left, nd.right} {
		if child == Nil {
			continue
		}

		if int(child) >= len(alloc) || alloc[child].parent != nodeIdx {
			return 0, fmt.Errorf("%w: #%d under #%d", ErrBrokenLink, child, nodeIdx)
		}

		if nd.color == Red && alloc[child].color == Red {
			return 0, fmt.Errorf("%w: #%d under #%d", ErrRedRed, child, nodeIdx)
		}
	}

	leftHeight, err := tree.verifySubtree(nd.left, count)
	if err != nil {
		return 0, err
	}

	rightHeight, err := tree.verifySubtree(nd.right, count)
	if err != nil {
		return 0, err
	}

	if leftHeight != rightHeight {
		return 0, fmt.Errorf("%w: #%d has %d on the left and %d on the right",
			ErrBlackHeight, nodeIdx, leftHeight, rightHeight)
	}

	if nd.color == Black {
		leftHeight++
	}

	return leftHeight, nil
}
