package stress

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Sumatoshi-tech/intrusive/pkg/hashtable"
	"github.com/Sumatoshi-tech/intrusive/pkg/list"
	"github.com/Sumatoshi-tech/intrusive/pkg/queue"
	"github.com/Sumatoshi-tech/intrusive/pkg/rbtree"
	"github.com/Sumatoshi-tech/intrusive/pkg/stack"
)

// maxRankCheckedKeys bounds the quadratic At/IndexOf cross-check.
const maxRankCheckedKeys = 512

// record is the host structure threaded through every container.
type record struct {
	key int
}

func compareRecord(key int, entry *record) int {
	return cmp.Compare(key, entry.key)
}

func keyOfRecord(entry *record) int {
	return entry.key
}

func hashInt(key int) uint64 {
	return uint64(key) //nolint:gosec // keys are non-negative.
}

// worker owns one set of containers and reuses them across permutations.
type worker struct {
	opts   Options
	logger *slog.Logger

	arena *rbtree.Arena[record]
	tree  *rbtree.Tree[int, record]
	table *hashtable.Table[int, rbtree.Handle]
	lifo  stack.Stack[rbtree.Handle]
	fifo  queue.Queue[rbtree.Handle]
	seq   list.List[rbtree.Handle]

	tableNodes []hashtable.Node[rbtree.Handle]
	stackNodes []stack.Node[rbtree.Handle]
	queueNodes []queue.Node[rbtree.Handle]
	listNodes  []list.Node[rbtree.Handle]

	tally       tally
	sinceVerify int
}

func newWorker(opts Options, logger *slog.Logger) *worker {
	arena := rbtree.NewArena[record]()

	wrk := &worker{
		opts:       opts,
		logger:     logger,
		arena:      arena,
		tree:       rbtree.New(arena, compareRecord, nil, nil),
		tableNodes: make([]hashtable.Node[rbtree.Handle], opts.Keys),
		stackNodes: make([]stack.Node[rbtree.Handle], opts.Keys),
		queueNodes: make([]queue.Node[rbtree.Handle], opts.Keys),
		listNodes:  make([]list.Node[rbtree.Handle], opts.Keys),
		tally:      tally{ops: map[Op]int64{}},
	}

	wrk.table = hashtable.New(make([]*hashtable.Node[rbtree.Handle], opts.HashBuckets), hashInt,
		func(key int, handle *rbtree.Handle) bool { return wrk.arena.Entry(*handle).key == key }, nil, nil)

	return wrk
}

func (wrk *worker) loop(ctx context.Context, jobs <-chan int, state *runState, cancel context.CancelFunc) {
	for perm := range jobs {
		if ctx.Err() != nil {
			continue // Drain remaining items so the feeder does not block.
		}

		start := time.Now()

		err := wrk.guarded(perm)
		if err != nil {
			state.setError(err)
			cancel()

			continue
		}

		wrk.report(ctx, time.Since(start))
		state.merge(&wrk.tally)

		wrk.logger.DebugContext(ctx, "permutation passed", "permutation", perm)
	}
}

// guarded turns a container panic into a violation so the run reports it.
func (wrk *worker) guarded(perm int) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = wrk.fail(perm, violation(ContainerRBTree, "panic", "%v", recovered))
		}
	}()

	return wrk.permutation(perm)
}

func (wrk *worker) report(ctx context.Context, elapsed time.Duration) {
	for op, count := range wrk.tally.ops {
		wrk.opts.Metrics.RecordOps(ctx, op.Container, op.Name, count)
	}

	wrk.opts.Metrics.RecordDuration(ctx, ContainerRBTree, "permutation", elapsed)
}

// permutation inserts 0..Keys-1 in one shuffled order and removes them in another,
// checking every container after each step.
func (wrk *worker) permutation(perm int) error {
	rng := newRand(wrk.opts.Seed, perm)
	insertOrder := rng.Perm(wrk.opts.Keys)
	removeOrder := rng.Perm(wrk.opts.Keys)

	wrk.tally.reset()
	wrk.sinceVerify = 0

	for idx, key := range insertOrder {
		err := wrk.insert(idx, key)
		if err != nil {
			return wrk.fail(perm, err)
		}
	}

	err := wrk.checkFull()
	if err != nil {
		return wrk.fail(perm, err)
	}

	err = wrk.checkOrder(insertOrder)
	if err != nil {
		return wrk.fail(perm, err)
	}

	err = wrk.checkList(insertOrder)
	if err != nil {
		return wrk.fail(perm, err)
	}

	for idx, key := range removeOrder {
		err = wrk.remove(len(removeOrder)-idx-1, key)
		if err != nil {
			return wrk.fail(perm, err)
		}
	}

	return wrk.checkEmpty(perm)
}

func (wrk *worker) insert(idx, key int) error {
	handle := wrk.arena.Alloc(record{key: key})
	if !wrk.arena.Detached(handle) {
		return violation(ContainerRBTree, "alloc", "fresh slot %d is linked", handle)
	}

	wrk.tree.Insert(key, handle)
	wrk.tally.add(ContainerRBTree, "insert")

	wrk.tableNodes[key].Value = handle
	wrk.table.Insert(key, &wrk.tableNodes[key])
	wrk.tally.add(ContainerHashtable, "insert")

	wrk.stackNodes[idx].Value = handle
	wrk.lifo.Push(&wrk.stackNodes[idx])
	wrk.tally.add(ContainerStack, "push")

	wrk.queueNodes[idx].Value = handle
	wrk.fifo.Push(&wrk.queueNodes[idx])
	wrk.tally.add(ContainerQueue, "push")

	wrk.listNodes[key].Value = handle
	wrk.seq.PushBack(&wrk.listNodes[key])
	wrk.tally.add(ContainerList, "push_back")

	return wrk.step(idx + 1)
}

func (wrk *worker) remove(remaining, key int) error {
	handle := wrk.tree.Lookup(key)
	wrk.tally.add(ContainerRBTree, "lookup")

	if handle == rbtree.Nil {
		return violation(ContainerRBTree, "lookup", "key %d missing", key)
	}

	wrk.tree.Remove(handle)
	wrk.tally.add(ContainerRBTree, "remove")

	if !wrk.arena.Detached(handle) {
		return violation(ContainerRBTree, "poison", "removed key %d is still linked", key)
	}

	if wrk.tree.ContainsKey(key) {
		return violation(ContainerRBTree, "lookup", "removed key %d still found", key)
	}

	node := wrk.table.RemoveKey(key)
	wrk.tally.add(ContainerHashtable, "remove")

	if node != &wrk.tableNodes[key] || !node.Detached() {
		return violation(ContainerHashtable, "remove", "key %d returned the wrong node", key)
	}

	wrk.seq.Remove(&wrk.listNodes[key])
	wrk.tally.add(ContainerList, "remove")

	if !wrk.listNodes[key].Detached() {
		return violation(ContainerList, "remove", "removed key %d is still linked", key)
	}

	wrk.arena.Free(handle)

	return wrk.step(remaining)
}

// step checks sizes after every operation and the full tree every VerifyEvery operations.
func (wrk *worker) step(size int) error {
	if wrk.tree.Len() != size {
		return violation(ContainerRBTree, "size", "have %d nodes, want %d", wrk.tree.Len(), size)
	}

	if wrk.table.Len() != size {
		return violation(ContainerHashtable, "size", "have %d nodes, want %d", wrk.table.Len(), size)
	}

	if wrk.seq.Len() != size {
		return violation(ContainerList, "size", "have %d nodes, want %d", wrk.seq.Len(), size)
	}

	wrk.sinceVerify++
	if wrk.sinceVerify < wrk.opts.VerifyEvery {
		return nil
	}

	wrk.sinceVerify = 0
	wrk.tally.verifications++

	err := wrk.tree.Verify(keyOfRecord)
	if err != nil {
		return violation(ContainerRBTree, checkName(err), "%v", err)
	}

	return nil
}

// checkFull walks the fully populated tree both ways and by rank.
func (wrk *worker) checkFull() error {
	wrk.tally.verifications++

	err := wrk.tree.Verify(keyOfRecord)
	if err != nil {
		return violation(ContainerRBTree, checkName(err), "%v", err)
	}

	rankChecked := wrk.opts.Keys <= maxRankCheckedKeys
	want := 0

	for handle := range wrk.tree.Ascend() {
		if wrk.arena.Entry(handle).key != want {
			return violation(ContainerRBTree, "ascend", "position %d holds key %d", want, wrk.arena.Entry(handle).key)
		}

		if rankChecked && (wrk.tree.At(want) != handle || wrk.tree.IndexOf(handle) != want) {
			return violation(ContainerRBTree, "rank", "rank of key %d is inconsistent", want)
		}

		want++
	}

	for handle := range wrk.tree.Descend() {
		want--

		if wrk.arena.Entry(handle).key != want {
			return violation(ContainerRBTree, "descend", "position %d holds key %d", want, wrk.arena.Entry(handle).key)
		}
	}

	for key := range wrk.opts.Keys {
		if wrk.table.Lookup(key) != &wrk.tableNodes[key] {
			return violation(ContainerHashtable, "lookup", "key %d missing", key)
		}
	}

	return nil
}

// checkOrder drains the stack and queue, which must replay the insertion order
// backwards and forwards.
func (wrk *worker) checkOrder(insertOrder []int) error {
	for idx := range insertOrder {
		want := insertOrder[len(insertOrder)-idx-1]

		node := wrk.lifo.Pop()
		wrk.tally.add(ContainerStack, "pop")

		if node == nil || wrk.arena.Entry(node.Value).key != want {
			return violation(ContainerStack, "order", "pop %d did not return key %d", idx, want)
		}
	}

	for idx, want := range insertOrder {
		node := wrk.fifo.Pop()
		wrk.tally.add(ContainerQueue, "pop")

		if node == nil || wrk.arena.Entry(node.Value).key != want {
			return violation(ContainerQueue, "order", "pop %d did not return key %d", idx, want)
		}
	}

	if !wrk.lifo.Empty() || wrk.lifo.Pop() != nil {
		return violation(ContainerStack, "size", "not empty after draining")
	}

	if !wrk.fifo.Empty() || wrk.fifo.Pop() != nil {
		return violation(ContainerQueue, "size", "not empty after draining")
	}

	return nil
}

// checkList checks the insertion order, sorts the list by key, then cuts the lower
// half out and splices it back in front, which must leave the order unchanged.
func (wrk *worker) checkList(insertOrder []int) error {
	idx := 0

	for node := range wrk.seq.All() {
		if key := wrk.arena.Entry(node.Value).key; key != insertOrder[idx] {
			return violation(ContainerList, "order", "position %d holds key %d, want %d", idx, key, insertOrder[idx])
		}

		idx++
	}

	wrk.seq.Sort(func(a, b *rbtree.Handle) int {
		return cmp.Compare(wrk.arena.Entry(*a).key, wrk.arena.Entry(*b).key)
	})
	wrk.tally.add(ContainerList, "sort")

	err := wrk.checkListSorted("sort")
	if err != nil {
		return err
	}

	half := wrk.seq.Len() / 2
	if half == 0 {
		return nil
	}

	lower := wrk.seq.Cut(wrk.seq.Front(), wrk.seq.At(half-1))
	wrk.tally.add(ContainerList, "cut")

	if lower.Len() != half || wrk.seq.Len() != wrk.opts.Keys-half {
		return violation(ContainerList, "cut", "cut %d of %d nodes, want %d", lower.Len(), wrk.opts.Keys, half)
	}

	wrk.seq.SpliceFront(lower)
	wrk.tally.add(ContainerList, "splice")

	return wrk.checkListSorted("splice")
}

// checkListSorted expects keys 0..Keys-1 in order, walked both ways and by rank.
func (wrk *worker) checkListSorted(check string) error {
	if wrk.seq.Len() != wrk.opts.Keys {
		return violation(ContainerList, check, "have %d nodes, want %d", wrk.seq.Len(), wrk.opts.Keys)
	}

	rankChecked := wrk.opts.Keys <= maxRankCheckedKeys
	want := 0

	for node := range wrk.seq.All() {
		if node != &wrk.listNodes[want] {
			return violation(ContainerList, check, "position %d holds key %d", want, wrk.arena.Entry(node.Value).key)
		}

		if rankChecked && (wrk.seq.At(want) != node || wrk.seq.IndexOf(node) != want) {
			return violation(ContainerList, "rank", "rank of key %d is inconsistent", want)
		}

		want++
	}

	for node := range wrk.seq.Backward() {
		want--

		if node != &wrk.listNodes[want] {
			return violation(ContainerList, check, "backward position %d holds key %d", want, wrk.arena.Entry(node.Value).key)
		}
	}

	return nil
}

func (wrk *worker) checkEmpty(perm int) error {
	if !wrk.tree.Empty() || wrk.tree.Root() != rbtree.Nil {
		return wrk.fail(perm, violation(ContainerRBTree, "size", "not empty after removing every key"))
	}

	if !wrk.table.Empty() {
		return wrk.fail(perm, violation(ContainerHashtable, "size", "not empty after removing every key"))
	}

	if !wrk.seq.Empty() || wrk.seq.Front() != nil {
		return wrk.fail(perm, violation(ContainerList, "size", "not empty after removing every key"))
	}

	if wrk.arena.Used() != 1 {
		return wrk.fail(perm, violation(ContainerRBTree, "arena", "%d slots leaked", wrk.arena.Used()-1))
	}

	return nil
}

// fail tags err with the permutation and starts the worker over on a fresh arena.
func (wrk *worker) fail(perm int, err error) error {
	var viol *Violation
	if errors.As(err, &viol) {
		viol.Permutation = perm
		wrk.opts.Metrics.RecordViolation(context.Background(), viol.Container, viol.Check)
	}

	wrk.table.RemoveAll()
	wrk.lifo.RemoveAll()
	wrk.fifo.RemoveAll()
	wrk.seq.RemoveAll()

	wrk.arena = rbtree.NewArena[record]()
	wrk.tree.Init(wrk.arena, compareRecord, nil, nil)

	return err
}

// Violation describes one failed check.
type Violation struct {
	Container   string
	Check       string
	Permutation int
	Detail      string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("%s: %s check failed in permutation %d: %s", v.Container, v.Check, v.Permutation, v.Detail)
}

// Unwrap makes every Violation match ErrViolation.
func (v *Violation) Unwrap() error {
	return ErrViolation
}

func violation(container, check, format string, args ...any) error {
	return &Violation{Container: container, Check: check, Detail: fmt.Sprintf(format, args...)}
}

// checkName maps a Verify failure onto a short metric label.
func checkName(err error) string {
	switch {
	case errors.Is(err, rbtree.ErrRootNotBlack):
		return "root_color"
	case errors.Is(err, rbtree.ErrRedRed):
		return "red_red"
	case errors.Is(err, rbtree.ErrBlackHeight):
		return "black_height"
	case errors.Is(err, rbtree.ErrOrder):
		return "order"
	case errors.Is(err, rbtree.ErrSize):
		return "size"
	case errors.Is(err, rbtree.ErrBrokenLink):
		return "links"
	default:
		return "verify"
	}
}
