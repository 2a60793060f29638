package stress //nolint:testpackage // exercises the unexported worker.

import (
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/intrusive/pkg/rbtree"
)

func testWorker() *worker {
	opts := Options{Seed: 1, Permutations: 1, Keys: 16, VerifyEvery: 1, HashBuckets: 5}

	return newWorker(opts, slog.New(slog.DiscardHandler))
}

func TestWorker_PermutationLeavesContainersEmpty(t *testing.T) {
	t.Parallel()

	wrk := testWorker()

	for perm := range 5 {
		require.NoError(t, wrk.guarded(perm))
	}

	assert.True(t, wrk.tree.Empty())
	assert.True(t, wrk.table.Empty())
	assert.True(t, wrk.lifo.Empty())
	assert.True(t, wrk.fifo.Empty())
	assert.True(t, wrk.seq.Empty())
	assert.Equal(t, 1, wrk.arena.Used())
}

func TestWorker_CheckList(t *testing.T) {
	t.Parallel()

	wrk := testWorker()
	insertOrder := []int{5, 2, 9, 0, 14, 7, 1, 3, 15, 4, 12, 6, 8, 11, 10, 13}

	for idx, key := range insertOrder {
		require.NoError(t, wrk.insert(idx, key))
	}

	require.NoError(t, wrk.checkList(insertOrder))
	assert.Equal(t, 16, wrk.seq.Len())
	assert.Equal(t, &wrk.listNodes[0], wrk.seq.Front())
	assert.Equal(t, &wrk.listNodes[15], wrk.seq.Back())

	// Moving the smallest key to the back breaks the sorted order.
	wrk.seq.Remove(&wrk.listNodes[0])
	wrk.seq.PushBack(&wrk.listNodes[0])

	err := wrk.checkListSorted("sort")

	var viol *Violation
	require.ErrorAs(t, err, &viol)
	assert.Equal(t, ContainerList, viol.Container)
	assert.Equal(t, "sort", viol.Check)

	// The list no longer replays the insertion order either.
	err = wrk.checkList([]int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15})
	require.ErrorAs(t, err, &viol)
	assert.Equal(t, "order", viol.Check)
}

func TestWorker_PanicBecomesViolation(t *testing.T) {
	t.Parallel()

	wrk := testWorker()
	broken := wrk.arena
	broken.Hibernate()

	err := wrk.guarded(7)
	require.ErrorIs(t, err, ErrViolation)

	var viol *Violation
	require.ErrorAs(t, err, &viol)
	assert.Equal(t, "panic", viol.Check)
	assert.Equal(t, 7, viol.Permutation)
	assert.Contains(t, viol.Detail, "hibernated arenas cannot be used")

	// The worker starts over on a fresh arena.
	assert.NotSame(t, broken, wrk.arena)
	require.NoError(t, wrk.guarded(8))
}

func TestCheckName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want string
	}{
		{rbtree.ErrRootNotBlack, "root_color"},
		{rbtree.ErrRedRed, "red_red"},
		{rbtree.ErrBlackHeight, "black_height"},
		{rbtree.ErrOrder, "order"},
		{rbtree.ErrSize, "size"},
		{rbtree.ErrBrokenLink, "links"},
		{errors.New("other"), "verify"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, checkName(fmt.Errorf("node 3: %w", tt.err)))
		})
	}
}
