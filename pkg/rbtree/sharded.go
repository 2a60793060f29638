package rbtree

import (
	"hash/fnv"
	"sync"

	"github.com/Sumatoshi-tech/intrusive/pkg/safeconv"
)

// minHibernationThreshold is the minimal reasonable default if division results in 0.
const minHibernationThreshold = 1000

type shard[K, T any] struct {
	mu    sync.Mutex
	arena *Arena[T]
	tree  *Tree[K, T]
}

// Sharded spreads keys over independent trees, each with its own arena and lock,
// so that goroutines working on different shards do not contend.
type Sharded[K, T any] struct {
	shardOf func(key K) uint32
	shards  []*shard[K, T]
}

// NewSharded creates shardCount trees. shardOf maps a key to a shard; its result is
// reduced modulo the number of shards.
func NewSharded[K, T any](
	shardCount, hibernationThreshold int, compare CompareFunc[K, T], shardOf func(key K) uint32,
) *Sharded[K, T] {
	if shardCount <= 0 {
		shardCount = 1
	}

	shards := make([]*shard[K, T], shardCount)

	for idx := range shardCount {
		arena := NewArena[T]()

		if hibernationThreshold > 0 {
			arena.HibernationThreshold = hibernationThreshold / shardCount
			if arena.HibernationThreshold == 0 {
				arena.HibernationThreshold = minHibernationThreshold
			}
		}

		shards[idx] = &shard[K, T]{arena: arena, tree: New(arena, compare, nil, nil)}
	}

	return &Sharded[K, T]{shardOf: shardOf, shards: shards}
}

// FNVShard hashes a string key with FNV-1a.
func FNVShard(key string) uint32 {
	hasher := fnv.New32a()
	hasher.Write([]byte(key))

	return hasher.Sum32()
}

// ShardCount returns the number of shards.
func (sharded *Sharded[K, T]) ShardCount() int {
	return len(sharded.shards)
}

// ShardIndex returns the shard that owns key.
func (sharded *Sharded[K, T]) ShardIndex(key K) int {
	return safeconv.Must[int](sharded.shardOf(key) % safeconv.Must[uint32](len(sharded.shards)))
}

// With runs fn with exclusive access to the arena and tree that own key.
// fn must not retain either after it returns.
func (sharded *Sharded[K, T]) With(key K, fn func(arena *Arena[T], tree *Tree[K, T])) {
	sh := sharded.shards[sharded.ShardIndex(key)]

	sh.mu.Lock()
	defer sh.mu.Unlock()

	fn(sh.arena, sh.tree)
}

// Len returns the total number of nodes over all shards.
func (sharded *Sharded[K, T]) Len() int {
	total := 0

	for _, sh := range sharded.shards {
		sh.mu.Lock()
		total += sh.tree.Len()
		sh.mu.Unlock()
	}

	return total
}

// Hibernate hibernates all shards in parallel.
func (sharded *Sharded[K, T]) Hibernate() {
	sharded.parallel(func(arena *Arena[T]) {
		// Force hibernation even if below threshold by temporarily setting threshold to 0.
		originalThreshold := arena.HibernationThreshold
		arena.HibernationThreshold = 0
		arena.Hibernate()
		arena.HibernationThreshold = originalThreshold
	})
}

// Boot boots all shards in parallel.
func (sharded *Sharded[K, T]) Boot() {
	sharded.parallel(func(arena *Arena[T]) {
		arena.Boot()
	})
}

func (sharded *Sharded[K, T]) parallel(fn func(arena *Arena[T])) {
	wg := sync.WaitGroup{}
	wg.Add(len(sharded.shards))

	for _, sh := range sharded.shards {
		go func(sh *shard[K, T]) {
			defer wg.Done()

			sh.mu.Lock()
			defer sh.mu.Unlock()

			fn(sh.arena)
		}(sh)
	}

	wg.Wait()
}
