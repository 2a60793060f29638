// Package hashtable provides an intrusive chained hash table over a caller-owned
// bucket slice and caller-owned nodes.
//
// Equal keys never coexist: inserting a key that is already present swaps the new
// node into the chain in place of the old one and reports both to the collision
// callback, mirroring the red-black tree in package rbtree.
package hashtable

import (
	"iter"

	"github.com/Sumatoshi-tech/intrusive/pkg/safeconv"
)

// HashFunc hashes a key.
type HashFunc[K any] func(key K) uint64

// EqualFunc reports whether key matches the record of a linked node.
type EqualFunc[K, T any] func(key K, entry *T) bool

// CollideFunc is invoked after an insert replaced old with new.
type CollideFunc[T any] func(old, new *Node[T], aux any)

// membership is shared between a table and its nodes. Init and RemoveAll retire it,
// which detaches every node linked before in O(1).
type membership struct {
	retired bool
}

// Node is a bucket chain link carrying the caller's record.
type Node[T any] struct {
	Value T
	next  *Node[T]
	owner *membership
}

// Detached reports whether the node is in no table.
func (node *Node[T]) Detached() bool {
	return node.owner == nil || node.owner.retired
}

func (node *Node[T]) detach() {
	node.next = nil
	node.owner = nil
}

// Table is an intrusive hash table. It is not safe for concurrent use.
type Table[K, T any] struct {
	buckets []*Node[T]
	hash    HashFunc[K]
	equal   EqualFunc[K, T]
	collide CollideFunc[T]
	aux     any
	member  *membership
	size    int
}

// New creates a table over buckets, clearing them first. collide and aux may be nil.
func New[K, T any](
	buckets []*Node[T], hash HashFunc[K], equal EqualFunc[K, T], collide CollideFunc[T], aux any,
) *Table[K, T] {
	table := &Table[K, T]{}
	table.Init(buckets, hash, equal, collide, aux)

	return table
}

// Init resets the table and clears every bucket in O(len(buckets)).
func (table *Table[K, T]) Init(
	buckets []*Node[T], hash HashFunc[K], equal EqualFunc[K, T], collide CollideFunc[T], aux any,
) {
	clear(buckets)
	table.FastInit(buckets, hash, equal, collide, aux)
}

// FastInit resets the table without clearing the buckets, which must already be nil.
func (table *Table[K, T]) FastInit(
	buckets []*Node[T], hash HashFunc[K], equal EqualFunc[K, T], collide CollideFunc[T], aux any,
) {
	switch {
	case len(buckets) == 0:
		panic("hashtable: no buckets")
	case hash == nil:
		panic("hashtable: nil hash function")
	case equal == nil:
		panic("hashtable: nil equality function")
	}

	for _, node := range buckets {
		if node != nil {
			panic("hashtable: buckets are not empty")
		}
	}

	if table.member != nil {
		table.member.retired = true
	}

	table.buckets = buckets
	table.hash = hash
	table.equal = equal
	table.collide = collide
	table.aux = aux
	table.member = &membership{}
	table.size = 0
}

// Buckets returns the bucket slice.
func (table *Table[K, T]) Buckets() []*Node[T] {
	return table.buckets
}

// NumBuckets returns the number of buckets.
func (table *Table[K, T]) NumBuckets() int {
	return len(table.buckets)
}

// Len returns the number of linked nodes.
func (table *Table[K, T]) Len() int {
	return table.size
}

// Empty reports whether the table has no nodes.
func (table *Table[K, T]) Empty() bool {
	return table.size == 0
}

// ContainsKey reports whether a node matches key.
func (table *Table[K, T]) ContainsKey(key K) bool {
	return table.Lookup(key) != nil
}

// Lookup returns the node matching key, or nil.
func (table *Table[K, T]) Lookup(key K) *Node[T] {
	for node := table.buckets[table.bucket(key)]; node != nil; node = node.next {
		if table.equal(key, &node.Value) {
			return node
		}
	}

	return nil
}

// Insert links a detached node under key. A node already matching key is unlinked and
// handed to the collision callback together with node; the size does not change.
func (table *Table[K, T]) Insert(key K, node *Node[T]) {
	if !node.Detached() {
		panic("hashtable: node is already linked")
	}

	idx := table.bucket(key)
	slot := &table.buckets[idx]

	for cursor := *slot; cursor != nil; cursor = cursor.next {
		if !table.equal(key, &cursor.Value) {
			slot = &cursor.next

			continue
		}

		node.next = cursor.next
		node.owner = table.member
		*slot = node

		cursor.detach()

		if table.collide != nil {
			table.collide(cursor, node, table.aux)
		}

		return
	}

	node.next = table.buckets[idx]
	node.owner = table.member
	table.buckets[idx] = node
	table.size++
}

// RemoveKey unlinks and returns the node matching key, or nil.
func (table *Table[K, T]) RemoveKey(key K) *Node[T] {
	for slot := &table.buckets[table.bucket(key)]; *slot != nil; slot = &(*slot).next {
		node := *slot
		if !table.equal(key, &node.Value) {
			continue
		}

		*slot = node.next
		node.detach()
		table.size--

		return node
	}

	return nil
}

// RemoveAll empties the table, clearing every bucket when it held nodes.
func (table *Table[K, T]) RemoveAll() {
	if table.size == 0 {
		return
	}

	clear(table.buckets)
	table.member.retired = true
	table.member = &membership{}
	table.size = 0
}

// All yields every node, bucket by bucket. The yielded node may be removed.
func (table *Table[K, T]) All() iter.Seq[*Node[T]] {
	return func(yield func(*Node[T]) bool) {
		for idx := range table.buckets {
			if !walk(table.buckets[idx], yield) {
				return
			}
		}
	}
}

// Possible yields the nodes sharing the bucket of key, matching or not.
// The yielded node may be removed.
func (table *Table[K, T]) Possible(key K) iter.Seq[*Node[T]] {
	return func(yield func(*Node[T]) bool) {
		walk(table.buckets[table.bucket(key)], yield)
	}
}

func (table *Table[K, T]) bucket(key K) int {
	return safeconv.Must[int](table.hash(key) % uint64(len(table.buckets)))
}

func walk[T any](node *Node[T], yield func(*Node[T]) bool) bool {
	for node != nil {
		next := node.next

		if !yield(node) {
			return false
		}

		node = next
	}

	return true
}

// HashString is the djb2 string hash.
func HashString(s string) uint64 {
	var hash uint64 = 5381

	for idx := range len(s) {
		hash = (hash << 5) + hash + uint64(s[idx])
	}

	return hash
}
