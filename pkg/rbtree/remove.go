package rbtree

// Remove unlinks a live node and poisons its links. Nil is a no-op.
func (tree *Tree[K, T]) Remove(nodeIdx Handle) {
	if nodeIdx == Nil {
		return
	}

	if tree.arena.Detached(nodeIdx) {
		panic("rbtree: cannot remove a detached node")
	}

	alloc := tree.storage()

	if alloc[nodeIdx].left != Nil && alloc[nodeIdx].right != Nil {
		tree.swapPlaces(nodeIdx, maxPredecessor(nodeIdx, alloc))
	}

	doAssert(alloc[nodeIdx].left == Nil || alloc[nodeIdx].right == Nil)

	child := alloc[nodeIdx].left
	if child == Nil {
		child = alloc[nodeIdx].right
	}

	if alloc[nodeIdx].color == Black {
		alloc[nodeIdx].color = getColor(child, alloc)
		tree.repairAfterRemove(nodeIdx)
	}

	tree.transplant(nodeIdx, child)

	if alloc[nodeIdx].parent == Nil && child != Nil {
		alloc[child].color = Black
	}

	tree.poison(nodeIdx)
	tree.size--
}

// repairAfterRemove restores the black height around nodeIdx, which is about to
// lose one black unit. It runs while nodeIdx is still linked.
func (tree *Tree[K, T]) repairAfterRemove(nodeIdx Handle) {
	alloc := tree.storage()

	for {
		// Case 1: the root absorbs the deficiency.
		parent := alloc[nodeIdx].parent
		if parent == Nil {
			return
		}

		// Case 2: a red sibling is rotated above the parent.
		if getColor(sibling(nodeIdx, alloc), alloc) == Red {
			alloc[parent].color = Red
			alloc[sibling(nodeIdx, alloc)].color = Black

			if nodeIdx == alloc[parent].left {
				tree.rotateLeft(parent)
			} else {
				tree.rotateRight(parent)
			}
		}

		sib := sibling(nodeIdx, alloc)
		blackNephews := getColor(alloc[sib].left, alloc) == Black && getColor(alloc[sib].right, alloc) == Black

		// Case 3: everything around is black, push the deficiency up.
		if alloc[parent].color == Black && getColor(sib, alloc) == Black && blackNephews {
			alloc[sib].color = Red
			nodeIdx = parent

			continue
		}

		// Case 4: a red parent swaps colors with the sibling.
		if alloc[parent].color == Red && getColor(sib, alloc) == Black && blackNephews {
			alloc[sib].color = Red
			alloc[parent].color = Black

			return
		}

		tree.repairFarNephew(nodeIdx)

		return
	}
}

// repairFarNephew handles the cases where one of the sibling's children is red.
func (tree *Tree[K, T]) repairFarNephew(nodeIdx Handle) {
	alloc := tree.storage()
	parent := alloc[nodeIdx].parent
	sib := sibling(nodeIdx, alloc)

	// Case 5: only the near nephew is red, rotate it into the far position.
	if nodeIdx == alloc[parent].left &&
		getColor(sib, alloc) == Black &&
		getColor(alloc[sib].left, alloc) == Red &&
		getColor(alloc[sib].right, alloc) == Black {
		alloc[sib].color = Red
		alloc[alloc[sib].left].color = Black
		tree.rotateRight(sib)
	} else if nodeIdx == alloc[parent].right &&
		getColor(sib, alloc) == Black &&
		getColor(alloc[sib].right, alloc) == Red &&
		getColor(alloc[sib].left, alloc) == Black {
		alloc[sib].color = Red
		alloc[alloc[sib].right].color = Black
		tree.rotateLeft(sib)
	}

	// Case 6: the far nephew is red.
	sib = sibling(nodeIdx, alloc)
	alloc[sib].color = alloc[parent].color
	alloc[parent].color = Black

	if nodeIdx == alloc[parent].left {
		doAssert(getColor(alloc[sib].right, alloc) == Red)
		alloc[alloc[sib].right].color = Black
		tree.rotateLeft(parent)
	} else {
		doAssert(getColor(alloc[sib].left, alloc) == Red)
		alloc[alloc[sib].left].color = Black
		tree.rotateRight(parent)
	}
}
