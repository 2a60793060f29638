// Package shape builds small integer red-black trees and renders their structure
// as text, YAML or JSON.
package shape

import (
	"cmp"
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/intrusive/pkg/rbtree"
)

// ErrKeyNotFound is returned by Remove for a key that is not in the tree.
var ErrKeyNotFound = errors.New("key not found")

// Tree is an integer-keyed tree whose records are the keys themselves.
type Tree struct {
	arena *rbtree.Arena[int]
	tree  *rbtree.Tree[int, int]
}

func compareKey(key int, entry *int) int {
	return cmp.Compare(key, *entry)
}

func keyOf(entry *int) int {
	return *entry
}

// freeReplaced recycles the slot a duplicate key displaced.
func freeReplaced(old, _ rbtree.Handle, aux any) {
	aux.(*rbtree.Arena[int]).Free(old) //nolint:forcetypeassert // aux is always the tree's arena.
}

// Build inserts keys in order. Duplicates replace the earlier node.
func Build(keys []int) *Tree {
	arena := rbtree.NewArena[int]()
	result := &Tree{arena: arena, tree: rbtree.New(arena, compareKey, freeReplaced, arena)}

	for _, key := range keys {
		result.tree.Insert(key, arena.Alloc(key))
	}

	return result
}

// Len returns the number of keys.
func (t *Tree) Len() int {
	return t.tree.Len()
}

// Keys returns the keys in ascending order.
func (t *Tree) Keys() []int {
	keys := make([]int, 0, t.tree.Len())

	for handle := range t.tree.Ascend() {
		keys = append(keys, *t.arena.Entry(handle))
	}

	return keys
}

// Remove deletes key from the tree.
func (t *Tree) Remove(key int) error {
	handle := t.tree.RemoveKey(key)
	if handle == rbtree.Nil {
		return fmt.Errorf("%w: %d", ErrKeyNotFound, key)
	}

	t.arena.Free(handle)

	return nil
}

// Verify checks the red-black invariants.
func (t *Tree) Verify() error {
	return t.tree.Verify(keyOf)
}

// Node is one tree node in a Snapshot.
type Node struct {
	Key   int    `json:"key"             yaml:"key"`
	Color string `json:"color"           yaml:"color"`
	Left  *Node  `json:"left,omitempty"  yaml:"left,omitempty"`
	Right *Node  `json:"right,omitempty" yaml:"right,omitempty"`
}

// Snapshot is a detached copy of the tree structure.
type Snapshot struct {
	Size        int   `json:"size"           yaml:"size"`
	BlackHeight int   `json:"black_height"   yaml:"black_height"`
	Root        *Node `json:"root,omitempty" yaml:"root,omitempty"`
}

// Capture copies the current structure of t.
func (t *Tree) Capture() Snapshot {
	snap := Snapshot{Size: t.tree.Len(), Root: t.capture(t.tree.Root())}

	for handle := t.tree.Root(); handle != rbtree.Nil; handle = t.tree.Left(handle) {
		if t.tree.Color(handle) == rbtree.Black {
			snap.BlackHeight++
		}
	}

	return snap
}

func (t *Tree) capture(handle rbtree.Handle) *Node {
	if handle == rbtree.Nil {
		return nil
	}

	return &Node{
		Key:   *t.arena.Entry(handle),
		Color: t.tree.Color(handle).String(),
		Left:  t.capture(t.tree.Left(handle)),
		Right: t.capture(t.tree.Right(handle)),
	}
}
