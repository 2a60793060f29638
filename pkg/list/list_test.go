package list_test

import (
	"cmp"
	"iter"
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/intrusive/pkg/list"
)

type item struct {
	key, seq int
}

func compareItem(a, b *item) int {
	return cmp.Compare(a.key, b.key)
}

func keys(seq iter.Seq[*list.Node[item]]) []int {
	result := []int{}

	for node := range seq {
		result = append(result, node.Value.key)
	}

	return result
}

func newList(ks ...int) (*list.List[item], []list.Node[item]) {
	lst := &list.List[item]{}
	nodes := make([]list.Node[item], len(ks))

	for idx, key := range ks {
		nodes[idx].Value = item{key: key, seq: idx}
		lst.PushBack(&nodes[idx])
	}

	return lst, nodes
}

// requireLinks walks both directions and checks they agree with Len.
func requireLinks(t *testing.T, lst *list.List[item]) {
	t.Helper()

	forward := keys(lst.All())
	backward := keys(lst.Backward())
	slices.Reverse(backward)

	require.Len(t, forward, lst.Len())
	require.Equal(t, forward, backward)
	require.Equal(t, lst.Len() == 0, lst.Empty())

	if lst.Empty() {
		require.Nil(t, lst.Front())
		require.Nil(t, lst.Back())
	}
}

func TestList_Empty(t *testing.T) {
	t.Parallel()

	var lst list.List[item]

	assert.True(t, lst.Empty())
	assert.Equal(t, 0, lst.Len())
	assert.Nil(t, lst.Front())
	assert.Nil(t, lst.Back())
	assert.Nil(t, lst.RemoveFront())
	assert.Nil(t, lst.RemoveBack())
	assert.Empty(t, keys(lst.All()))
	assert.Nil(t, (*list.Node[item])(nil).Next())
	assert.Nil(t, (*list.Node[item])(nil).Prev())
	assert.NotPanics(t, func() { lst.Remove(nil) })
}

func TestList_PushAndNavigate(t *testing.T) {
	t.Parallel()

	lst := &list.List[item]{}
	nodes := []list.Node[item]{{Value: item{key: 1}}, {Value: item{key: 2}}, {Value: item{key: 3}}}

	lst.PushBack(&nodes[1])
	lst.PushFront(&nodes[0])
	lst.PushBack(&nodes[2])

	requireLinks(t, lst)
	assert.Equal(t, []int{1, 2, 3}, keys(lst.All()))
	assert.Equal(t, &nodes[0], lst.Front())
	assert.Equal(t, &nodes[2], lst.Back())
	assert.Equal(t, &nodes[1], nodes[0].Next())
	assert.Equal(t, &nodes[1], nodes[2].Prev())
	assert.Nil(t, nodes[0].Prev())
	assert.Nil(t, nodes[2].Next())
	assert.True(t, lst.Contains(&nodes[1]))
}

func TestList_InsertBeforeAfter(t *testing.T) {
	t.Parallel()

	lst, nodes := newList(10, 30)
	extra := []list.Node[item]{{Value: item{key: 20}}, {Value: item{key: 40}}, {Value: item{key: 5}}, {Value: item{key: 0}}}

	lst.InsertBefore(&extra[0], &nodes[1])
	lst.InsertAfter(&extra[1], &nodes[1])
	lst.InsertAfter(&extra[2], nil)
	lst.InsertBefore(&extra[3], lst.Front())

	requireLinks(t, lst)
	assert.Equal(t, []int{0, 5, 10, 20, 30, 40}, keys(lst.All()))

	appended := &list.Node[item]{Value: item{key: 50}}
	lst.InsertBefore(appended, nil)
	assert.Equal(t, appended, lst.Back())
}

func TestList_InsertPanics(t *testing.T) {
	t.Parallel()

	lst, nodes := newList(1, 2)
	other, foreign := newList(9)

	assert.PanicsWithValue(t, "list: node is already linked", func() { lst.PushBack(&nodes[0]) })
	assert.PanicsWithValue(t, "list: node is already linked", func() { other.PushBack(&nodes[0]) })

	free := &list.Node[item]{}
	assert.PanicsWithValue(t, "list: node is not in this list", func() { lst.InsertBefore(free, &foreign[0]) })
	assert.True(t, free.Detached(), "a rejected insert leaves the node free")
	assert.PanicsWithValue(t, "list: node is not in this list", func() { lst.Remove(&foreign[0]) })
	assert.PanicsWithValue(t, "list: node is not in this list", func() { lst.IndexOf(free) })
}

func TestList_Remove(t *testing.T) {
	t.Parallel()

	lst, nodes := newList(1, 2, 3, 4, 5)

	lst.Remove(&nodes[2])
	assert.True(t, nodes[2].Detached())
	assert.Nil(t, nodes[2].Next())
	assert.Nil(t, nodes[2].Prev())

	assert.Equal(t, &nodes[0], lst.RemoveFront())
	assert.Equal(t, &nodes[4], lst.RemoveBack())
	assert.True(t, nodes[0].Detached())
	assert.True(t, nodes[4].Detached())

	requireLinks(t, lst)
	assert.Equal(t, []int{2, 4}, keys(lst.All()))

	lst.PushFront(&nodes[2])
	assert.Equal(t, []int{3, 2, 4}, keys(lst.All()))
}

func TestList_RemoveAll(t *testing.T) {
	t.Parallel()

	lst, nodes := newList(1, 2, 3)

	lst.RemoveAll()
	requireLinks(t, lst)

	for idx := range nodes {
		assert.True(t, nodes[idx].Detached())
		assert.False(t, lst.Contains(&nodes[idx]))
	}

	lst.PushBack(&nodes[2])
	lst.PushBack(&nodes[0])
	assert.Equal(t, []int{3, 1}, keys(lst.All()))
	assert.True(t, nodes[1].Detached(), "a node left behind by RemoveAll stays free")
}

func TestList_IndexOfAt(t *testing.T) {
	t.Parallel()

	lst, nodes := newList(0, 1, 2, 3, 4, 5, 6)

	for idx := range nodes {
		assert.Equal(t, idx, lst.IndexOf(&nodes[idx]))
		assert.Equal(t, &nodes[idx], lst.At(idx))
	}

	assert.PanicsWithValue(t, "list: index out of range", func() { lst.At(7) })
	assert.PanicsWithValue(t, "list: index out of range", func() { lst.At(-1) })
}

func TestList_Splice(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		splice func(dst, src *list.List[item], dstNodes []list.Node[item])
		want   []int
	}{
		{"front", func(dst, src *list.List[item], _ []list.Node[item]) { dst.SpliceFront(src) }, []int{7, 8, 1, 2, 3}},
		{"back", func(dst, src *list.List[item], _ []list.Node[item]) { dst.SpliceBack(src) }, []int{1, 2, 3, 7, 8}},
		{"before", func(dst, src *list.List[item], n []list.Node[item]) { dst.SpliceBefore(src, &n[1]) }, []int{1, 7, 8, 2, 3}},
		{"after", func(dst, src *list.List[item], n []list.Node[item]) { dst.SpliceAfter(src, &n[2]) }, []int{1, 2, 3, 7, 8}},
		{"before nil", func(dst, src *list.List[item], _ []list.Node[item]) { dst.SpliceBefore(src, nil) }, []int{1, 2, 3, 7, 8}},
		{"after nil", func(dst, src *list.List[item], _ []list.Node[item]) { dst.SpliceAfter(src, nil) }, []int{7, 8, 1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dst, dstNodes := newList(1, 2, 3)
			src, srcNodes := newList(7, 8)

			tt.splice(dst, src, dstNodes)

			requireLinks(t, dst)
			requireLinks(t, src)
			assert.Equal(t, tt.want, keys(dst.All()))
			assert.True(t, src.Empty())

			for idx := range srcNodes {
				assert.True(t, dst.Contains(&srcNodes[idx]))
				assert.False(t, src.Contains(&srcNodes[idx]))
			}
		})
	}
}

func TestList_SpliceEmptyAndSelf(t *testing.T) {
	t.Parallel()

	dst, _ := newList(1, 2)

	dst.SpliceBack(&list.List[item]{})
	assert.Equal(t, []int{1, 2}, keys(dst.All()))

	assert.PanicsWithValue(t, "list: cannot splice a list into itself", func() { dst.SpliceFront(dst) })
}

func TestList_CutAndPaste(t *testing.T) {
	t.Parallel()

	lst, nodes := newList(0, 1, 2, 3, 4, 5)

	middle := lst.Cut(&nodes[1], &nodes[3])
	requireLinks(t, lst)
	requireLinks(t, middle)
	assert.Equal(t, []int{0, 4, 5}, keys(lst.All()))
	assert.Equal(t, []int{1, 2, 3}, keys(middle.All()))
	assert.True(t, middle.Contains(&nodes[2]))
	assert.False(t, lst.Contains(&nodes[2]))

	lst.SpliceAfter(middle, &nodes[5])
	assert.Equal(t, []int{0, 4, 5, 1, 2, 3}, keys(lst.All()))

	whole := lst.Cut(lst.Front(), lst.Back())
	assert.True(t, lst.Empty())
	assert.Equal(t, 6, whole.Len())

	assert.PanicsWithValue(t, "list: range end precedes its start", func() { whole.Cut(&nodes[3], &nodes[0]) })
}

func TestList_Sort(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(11))

	for _, size := range []int{0, 1, 2, 3, 7, 64, 257} {
		ks := make([]int, size)
		for idx := range ks {
			ks[idx] = rng.Intn(size/2 + 1)
		}

		lst, _ := newList(ks...)
		lst.Sort(compareItem)
		requireLinks(t, lst)

		want := slices.Clone(ks)
		slices.Sort(want)
		assert.Equal(t, want, keys(lst.All()), "size %d", size)

		// Equal keys keep their insertion order.
		prev := item{key: -1}
		for node := range lst.All() {
			if node.Value.key == prev.key {
				assert.Less(t, prev.seq, node.Value.seq)
			}

			prev = node.Value
		}
	}

	assert.PanicsWithValue(t, "list: nil comparison function", func() { (&list.List[item]{}).Sort(nil) })
}

func TestList_IteratorsSafe(t *testing.T) {
	t.Parallel()

	lst, nodes := newList(1, 2, 3, 4, 5)
	other := &list.List[item]{}

	for node := range lst.All() {
		if node.Value.key%2 == 0 {
			lst.Remove(node)
			other.PushBack(node)
		}
	}

	assert.Equal(t, []int{1, 3, 5}, keys(lst.All()))
	assert.Equal(t, []int{2, 4}, keys(other.All()))

	assert.Equal(t, []int{3, 5}, keys(lst.From(&nodes[2])))
	assert.Equal(t, []int{3, 1}, keys(lst.BackwardFrom(&nodes[2])))
	assert.Empty(t, keys(lst.From(nil)))
	assert.PanicsWithValue(t, "list: node is not in this list", func() { lst.From(&nodes[1]) })

	for node := range lst.Backward() {
		lst.Remove(node)
	}

	assert.True(t, lst.Empty())

	seen := []int{}

	for node := range other.All() {
		seen = append(seen, node.Value.key)

		break
	}

	assert.Equal(t, []int{2}, seen)
}
