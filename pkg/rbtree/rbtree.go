// Package rbtree provides an intrusive red-black tree over caller-owned arena slots.
//
// The tree stores no records of its own: every node is a slot of an Arena allocated by
// the caller, and the record lives in the same slot. The tree only rewires the slot links.
// Keys are never stored either; the comparator extracts them from the record.
//
// The balancing algorithms follow
// http://en.literateprograms.org/Red-black_tree_(C).
//
// A Tree is not safe for concurrent use. Guard each tree (and its arena) with one
// exclusive lock, as Sharded does.
package rbtree

// Color is the color of a tree node.
type Color bool

const (
	// Red nodes never have a red parent.
	Red Color = false
	// Black nodes count towards the black height.
	Black Color = true
)

func (color Color) String() string {
	if color == Black {
		return "black"
	}

	return "red"
}

// CompareFunc orders key against the record of a live node. It returns a negative
// number when key sorts before the record, zero when they are equal and a positive
// number otherwise.
type CompareFunc[K, T any] func(key K, entry *T) int

// CollideFunc is invoked after an insert whose key matched a live node. The new node
// has already taken the place of the old one, and the old one is detached.
type CollideFunc func(old, new Handle, aux any)

// Tree is a red-black tree with intrusive nodes.
type Tree[K, T any] struct {
	arena   *Arena[T]
	compare CompareFunc[K, T]
	collide CollideFunc
	aux     any
	root    Handle
	size    int
}

// New creates an empty tree over the arena. collide and aux may be nil.
func New[K, T any](arena *Arena[T], compare CompareFunc[K, T], collide CollideFunc, aux any) *Tree[K, T] {
	tree := &Tree[K, T]{}
	tree.Init(arena, compare, collide, aux)

	return tree
}

// Init resets the tree to empty and binds it to the arena and the callbacks.
// Nodes that were in the tree are left untouched.
func (tree *Tree[K, T]) Init(arena *Arena[T], compare CompareFunc[K, T], collide CollideFunc, aux any) {
	if arena == nil {
		panic("rbtree: nil arena")
	}

	if compare == nil {
		panic("rbtree: nil comparator")
	}

	tree.arena = arena
	tree.compare = compare
	tree.collide = collide
	tree.aux = aux
	tree.root = Nil
	tree.size = 0
}

// Arena returns the bound arena.
func (tree *Tree[K, T]) Arena() *Arena[T] {
	return tree.arena
}

// Aux returns the auxiliary value passed to the collision callback.
func (tree *Tree[K, T]) Aux() any {
	return tree.aux
}

// Root returns the root node or Nil.
func (tree *Tree[K, T]) Root() Handle {
	return tree.root
}

// Len returns the number of nodes in the tree.
func (tree *Tree[K, T]) Len() int {
	return tree.size
}

// Empty reports whether the tree has no nodes.
func (tree *Tree[K, T]) Empty() bool {
	return tree.root == Nil
}

// Parent returns the parent of a live node, or Nil for the root.
func (tree *Tree[K, T]) Parent(nodeIdx Handle) Handle {
	return tree.storage()[nodeIdx].parent
}

// Left returns the left child of a live node.
func (tree *Tree[K, T]) Left(nodeIdx Handle) Handle {
	return tree.storage()[nodeIdx].left
}

// Right returns the right child of a live node.
func (tree *Tree[K, T]) Right(nodeIdx Handle) Handle {
	return tree.storage()[nodeIdx].right
}

// Color returns the color of a node. Nil is black.
func (tree *Tree[K, T]) Color(nodeIdx Handle) Color {
	return getColor(nodeIdx, tree.storage())
}

// Lookup returns the node whose record matches key, or Nil.
func (tree *Tree[K, T]) Lookup(key K) Handle {
	alloc := tree.storage()
	values := tree.arena.values
	nodeIdx := tree.root

	for nodeIdx != Nil {
		comp := tree.compare(key, &values[nodeIdx])

		switch {
		case comp == 0:
			return nodeIdx
		case comp < 0:
			nodeIdx = alloc[nodeIdx].left
		default:
			nodeIdx = alloc[nodeIdx].right
		}
	}

	return Nil
}

// ContainsKey reports whether a node matches key.
func (tree *Tree[K, T]) ContainsKey(key K) bool {
	return tree.Lookup(key) != Nil
}

// RemoveKey removes the node matching key and returns it. Returns Nil
// and does nothing if no node matches.
func (tree *Tree[K, T]) RemoveKey(key K) Handle {
	nodeIdx := tree.Lookup(key)
	tree.Remove(nodeIdx)

	return nodeIdx
}

// RemoveFirst removes the smallest node and returns it, or Nil if the tree is empty.
func (tree *Tree[K, T]) RemoveFirst() Handle {
	nodeIdx := tree.First()
	tree.Remove(nodeIdx)

	return nodeIdx
}

// RemoveLast removes the largest node and returns it, or Nil if the tree is empty.
func (tree *Tree[K, T]) RemoveLast() Handle {
	nodeIdx := tree.Last()
	tree.Remove(nodeIdx)

	return nodeIdx
}

// RemoveAll empties the tree in O(1). Only the former root is poisoned; the
// other nodes keep stale links and must be treated as detached by the caller
// (reinserting them is fine, Alloc and Free do not care either).
func (tree *Tree[K, T]) RemoveAll() {
	if tree.root != Nil {
		tree.poison(tree.root)
	}

	tree.root = Nil
	tree.size = 0
}

func (tree *Tree[K, T]) storage() []links {
	tree.arena.mustBeAwake()

	return tree.arena.links
}

func (tree *Tree[K, T]) poison(nodeIdx Handle) {
	alloc := tree.storage()
	alloc[nodeIdx].parent = PoisonParent
	alloc[nodeIdx].left = PoisonLeft
	alloc[nodeIdx].right = PoisonRight
}

func doAssert(condition bool) {
	if !condition {
		panic("rbtree internal assertion failed")
	}
}

// Internal node attribute accessors.
func getColor(nodeIdx Handle, alloc []links) Color {
	if nodeIdx == Nil {
		return Black
	}

	return alloc[nodeIdx].color
}

func sibling(nodeIdx Handle, alloc []links) Handle {
	parent := alloc[nodeIdx].parent
	doAssert(parent != Nil)

	if alloc[parent].left == nodeIdx {
		return alloc[parent].right
	}

	return alloc[parent].left
}
