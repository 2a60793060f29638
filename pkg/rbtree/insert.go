package rbtree

// Insert links the detached node under key. If a live node already matches key, the new
// node takes its place and color, the old node is poisoned, and the collision
// callback runs with (old, new, aux). The size does not change in that case.
// nodeIdx must not already be linked into a tree; relinking the root panics.
func (tree *Tree[K, T]) Insert(key K, nodeIdx Handle) {
	doAssert(nodeIdx != Nil)
	doAssert(nodeIdx != tree.root)

	alloc := tree.storage()
	values := tree.arena.values
	doAssert(!alloc[nodeIdx].freed)

	parent := Nil
	cursor := tree.root
	comp := 0

	for cursor != Nil {
		comp = tree.compare(key, &values[cursor])

		switch {
		case comp == 0:
			tree.replace(cursor, nodeIdx)

			if tree.collide != nil {
				tree.collide(cursor, nodeIdx, tree.aux)
			}

			return
		case comp < 0:
			parent = cursor
			cursor = alloc[cursor].left
		default:
			parent = cursor
			cursor = alloc[cursor].right
		}
	}

	alloc[nodeIdx] = links{parent: parent, left: Nil, right: Nil, color: Red}

	switch {
	case parent == Nil:
		tree.root = nodeIdx
	case comp < 0:
		alloc[parent].left = nodeIdx
	default:
		alloc[parent].right = nodeIdx
	}

	tree.size++
	tree.repairAfterInsert(nodeIdx)
}

func (tree *Tree[K, T]) repairAfterInsert(nodeIdx Handle) {
	alloc := tree.storage()

	for {
		parent := alloc[nodeIdx].parent

		// Case 1: N is at the root.
		if parent == Nil {
			alloc[nodeIdx].color = Black

			return
		}

		// Case 2: The parent is black, so the tree already
		// satisfies the RB properties.
		if alloc[parent].color == Black {
			return
		}

		// A red parent is never the root.
		grandparent := alloc[parent].parent
		doAssert(grandparent != Nil)

		uncle := sibling(parent, alloc)

		// Case 3: parent and uncle are both red.
		// Then paint both black and make grandparent red.
		if getColor(uncle, alloc) == Red {
			alloc[parent].color = Black
			alloc[uncle].color = Black
			alloc[grandparent].color = Red
			nodeIdx = grandparent

			continue
		}

		// Case 4: N is an inner grandchild, rotate it outside.
		if nodeIdx == alloc[parent].right && parent == alloc[grandparent].left {
			tree.rotateLeft(parent)
			nodeIdx = parent
			parent = alloc[nodeIdx].parent
		} else if nodeIdx == alloc[parent].left && parent == alloc[grandparent].right {
			tree.rotateRight(parent)
			nodeIdx = parent
			parent = alloc[nodeIdx].parent
		}

		// Case 5: N is an outer grandchild.
		alloc[parent].color = Black
		alloc[grandparent].color = Red

		if nodeIdx == alloc[parent].left {
			tree.rotateRight(grandparent)
		} else {
			tree.rotateLeft(grandparent)
		}

		return
	}
}
