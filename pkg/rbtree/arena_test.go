package rbtree_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/intrusive/pkg/rbtree"
)

func TestArena_AllocReservesZero(t *testing.T) {
	t.Parallel()

	arena := rbtree.NewArena[event]()
	assert.Equal(t, 0, arena.Size())

	nodeIdx := arena.Alloc(event{ID: 1})
	assert.Equal(t, rbtree.Handle(1), nodeIdx)
	assert.Equal(t, 2, arena.Size())
	assert.Equal(t, 2, arena.Used())
	assert.True(t, arena.Detached(nodeIdx))
	assert.False(t, arena.Detached(rbtree.Nil))
}

func TestArena_FreeZero(t *testing.T) {
	t.Parallel()

	arena := rbtree.NewArena[event]()
	arena.Alloc(event{})

	assert.PanicsWithValue(t, "node #0 is special and cannot be deallocated", func() { arena.Free(rbtree.Nil) })
	assert.PanicsWithValue(t, "node #0 is special and has no entry", func() { arena.Entry(rbtree.Nil) })
}

func TestArena_FreeRecycles(t *testing.T) {
	t.Parallel()

	arena := rbtree.NewArena[event]()
	first := arena.Alloc(event{ID: 1})
	second := arena.Alloc(event{ID: 2})

	arena.Free(first)
	arena.Free(second)
	assert.Equal(t, 3, arena.Size())
	assert.Equal(t, 1, arena.Used())

	assert.PanicsWithValue(t, "rbtree internal assertion failed", func() { arena.Free(first) })
	assert.PanicsWithValue(t, "rbtree internal assertion failed", func() { arena.Entry(first) })

	// LIFO reuse.
	assert.Equal(t, second, arena.Alloc(event{ID: 3}))
	assert.Equal(t, first, arena.Alloc(event{ID: 4}))
	assert.Equal(t, 4, arena.Entry(first).ID)
	assert.True(t, arena.Detached(first))
	assert.Equal(t, 3, arena.Used())
}

func TestArena_Clone(t *testing.T) {
	t.Parallel()

	arena := rbtree.NewArena[event]()
	tree := rbtree.New(arena, compareEvent, nil, nil)

	for id := range 10 {
		tree.Insert(id, arena.Alloc(event{ID: id}))
	}

	clone := arena.Clone()
	cloneTree := rbtree.New(clone, compareEvent, nil, nil)

	// The clone owns independent slots: reusing a handle there leaves the original intact.
	nodeIdx := tree.Lookup(5)
	clone.Entry(nodeIdx).Name = "clone"
	cloneTree.Insert(5, nodeIdx)

	assert.Empty(t, arena.Entry(nodeIdx).Name)
	assert.Equal(t, 1, cloneTree.Len())
	assert.Equal(t, 10, tree.Len())
	require.NoError(t, tree.Verify(func(entry *event) int { return entry.ID }))
}

func TestArena_HibernateBoot(t *testing.T) {
	t.Parallel()

	arena := rbtree.NewArena[event]()
	tree := rbtree.New(arena, compareEvent, nil, nil)
	rng := rand.New(rand.NewSource(7))

	for _, id := range rng.Perm(500) {
		tree.Insert(id, arena.Alloc(event{ID: id}))
	}

	var lastFreed rbtree.Handle

	for id := 0; id < 500; id += 3 {
		lastFreed = tree.RemoveKey(id)
		arena.Free(lastFreed)
	}

	before := collectIDs(tree, tree.Ascend())
	used := arena.Used()

	arena.Hibernate()
	assert.True(t, arena.Hibernated())
	assert.Equal(t, 501, arena.Size())
	assert.PanicsWithValue(t, "hibernated arenas cannot be used", func() { arena.Used() })
	assert.PanicsWithValue(t, "hibernated arenas cannot be used", func() { tree.Lookup(1) })
	assert.PanicsWithValue(t, "hibernated arenas cannot be used", func() { arena.Alloc(event{}) })
	assert.PanicsWithValue(t, "cannot hibernate an already hibernated Arena", func() { arena.Hibernate() })
	assert.PanicsWithValue(t, "cannot clone a hibernated arena", func() { arena.Clone() })

	arena.Boot()
	assert.False(t, arena.Hibernated())
	assert.Equal(t, used, arena.Used())
	assert.Equal(t, before, collectIDs(tree, tree.Ascend()))
	require.NoError(t, tree.Verify(func(entry *event) int { return entry.ID }))

	// The free list survives the round trip.
	assert.PanicsWithValue(t, "rbtree internal assertion failed", func() { arena.Entry(lastFreed) })
	assert.Equal(t, lastFreed, arena.Alloc(event{ID: 1000}))
}

func TestArena_HibernateThreshold(t *testing.T) {
	t.Parallel()

	arena := rbtree.NewArena[event]()
	arena.HibernationThreshold = 10
	arena.Alloc(event{})

	arena.Hibernate()
	assert.False(t, arena.Hibernated())
	assert.Equal(t, 2, arena.Used())
}

func TestArena_HibernateEmpty(t *testing.T) {
	t.Parallel()

	arena := rbtree.NewArena[event]()
	arena.Hibernate()
	assert.True(t, arena.Hibernated())

	arena.Boot()
	assert.False(t, arena.Hibernated())
	assert.Equal(t, rbtree.Handle(1), arena.Alloc(event{}))
}

func TestArena_BootAwakeIsNoop(t *testing.T) {
	t.Parallel()

	arena := rbtree.NewArena[event]()
	arena.Alloc(event{ID: 1})
	arena.Boot()

	assert.Equal(t, 1, arena.Entry(1).ID)
}
