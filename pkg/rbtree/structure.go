package rbtree

// transplant puts newIdx where oldIdx hangs from its parent (or the root).
// Neither node's children are touched.
func (tree *Tree[K, T]) transplant(oldIdx, newIdx Handle) {
	alloc := tree.storage()
	parent := alloc[oldIdx].parent

	switch {
	case parent == Nil:
		tree.root = newIdx
	case alloc[parent].left == oldIdx:
		alloc[parent].left = newIdx
	default:
		alloc[parent].right = newIdx
	}

	if newIdx != Nil {
		alloc[newIdx].parent = parent
	}
}

// rotateLeft lifts the right child of pivot into its place.
//
//	  X              Y
//	A   Y    =>    X   C
//	  B C        A B
//
//nolint:dupword // ASCII art diagrams contain intentional repeated letters.
func (tree *Tree[K, T]) rotateLeft(pivot Handle) {
	alloc := tree.storage()
	child := alloc[pivot].right
	doAssert(child != Nil)

	tree.transplant(pivot, child)

	inner := alloc[child].left
	alloc[pivot].right = inner

	if inner != Nil {
		alloc[inner].parent = pivot
	}

	alloc[child].left = pivot
	alloc[pivot].parent = child
}

// rotateRight lifts the left child of pivot into its place.
//
//	    Y            X
//	  X   C  =>    A   Y
//	A B              B C
//
//nolint:dupword // ASCII art diagrams contain intentional repeated letters.
func (tree *Tree[K, T]) rotateRight(pivot Handle) {
	alloc := tree.storage()
	child := alloc[pivot].left
	doAssert(child != Nil)

	tree.transplant(pivot, child)

	inner := alloc[child].right
	alloc[pivot].left = inner

	if inner != Nil {
		alloc[inner].parent = pivot
	}

	alloc[child].right = pivot
	alloc[pivot].parent = child
}

// replace installs newIdx in the exact position and color of oldIdx, then poisons oldIdx.
func (tree *Tree[K, T]) replace(oldIdx, newIdx Handle) {
	doAssert(oldIdx != newIdx)

	alloc := tree.storage()
	freed := alloc[newIdx].freed
	doAssert(!freed)

	alloc[newIdx] = alloc[oldIdx]
	tree.transplant(oldIdx, newIdx)

	if left := alloc[newIdx].left; left != Nil {
		alloc[left].parent = newIdx
	}

	if right := alloc[newIdx].right; right != Nil {
		alloc[right].parent = newIdx
	}

	tree.poison(oldIdx)
}

// swapPlaces exchanges the positions of high and low, where high is a strict ancestor
// of low. The records stay in their slots, only the links and colors move.
func (tree *Tree[K, T]) swapPlaces(high, low Handle) {
	alloc := tree.storage()
	doAssert(high != low)

	// Not transplant: low keeps its parent link until the records swap.
	highParent := alloc[high].parent

	switch {
	case highParent == Nil:
		tree.root = low
	case alloc[highParent].left == high:
		alloc[highParent].left = low
	default:
		alloc[highParent].right = low
	}

	if left := alloc[low].left; left != Nil {
		alloc[left].parent = high
	}

	if right := alloc[low].right; right != Nil {
		alloc[right].parent = high
	}

	switch {
	case alloc[high].left == low:
		if right := alloc[high].right; right != Nil {
			alloc[right].parent = low
		}

		// Both point at themselves until the records swap below.
		alloc[high].left = high
		alloc[low].parent = low
	case alloc[high].right == low:
		if left := alloc[high].left; left != Nil {
			alloc[left].parent = low
		}

		alloc[high].right = high
		alloc[low].parent = low
	default:
		if left := alloc[high].left; left != Nil {
			alloc[left].parent = low
		}

		if right := alloc[high].right; right != Nil {
			alloc[right].parent = low
		}

		lowParent := alloc[low].parent
		if alloc[lowParent].left == low {
			alloc[lowParent].left = high
		} else {
			alloc[lowParent].right = high
		}
	}

	alloc[high], alloc[low] = alloc[low], alloc[high]
}
