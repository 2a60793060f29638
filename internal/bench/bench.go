// Package bench times the red-black tree operations over a range of tree sizes.
package bench

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Sumatoshi-tech/intrusive/pkg/observability"
	"github.com/Sumatoshi-tech/intrusive/pkg/rbtree"
)

// Benchmarked operations in report order.
const (
	OpInsert    = "insert"
	OpLookup    = "lookup"
	OpAscend    = "ascend"
	OpRemove    = "remove"
	OpHibernate = "hibernate"
	OpBoot      = "boot"
)

// Ops lists the benchmarked operations in report order.
func Ops() []string {
	return []string{OpInsert, OpLookup, OpAscend, OpRemove, OpHibernate, OpBoot}
}

// nodeBytes estimates the arena footprint of one benchmark node:
// an 8-byte record, three 4-byte links with color and free flags, and slack for slice growth.
const nodeBytes = 40

const containerName = "rbtree"

// ErrInvalidOptions indicates Options that cannot drive a benchmark.
var ErrInvalidOptions = errors.New("invalid bench options")

// Options configures a benchmark run.
type Options struct {
	// Sizes lists the node counts to time.
	Sizes []int

	// Rounds is the number of repetitions per size; the fastest round is kept.
	Rounds int

	// Seed fixes the key permutations.
	Seed int64

	// ArenaLimit skips sizes whose estimated arena exceeds it. Zero means no limit.
	ArenaLimit uint64

	// Logger receives progress reports. Nil discards them.
	Logger *slog.Logger

	// Metrics receives per-operation durations. Nil is allowed.
	Metrics *observability.ContainerMetrics
}

// Measurement is the fastest observed round of one operation at one size.
type Measurement struct {
	Size     int
	Op       string
	Duration time.Duration
}

// PerOp returns the mean time per node.
func (m Measurement) PerOp() time.Duration {
	if m.Size == 0 {
		return 0
	}

	return m.Duration / time.Duration(m.Size)
}

// OpsPerSecond returns the throughput of the measurement.
func (m Measurement) OpsPerSecond() float64 {
	if m.Duration <= 0 {
		return 0
	}

	return float64(m.Size) / m.Duration.Seconds()
}

// Report holds every measurement of a run plus the sizes that were skipped.
type Report struct {
	Measurements []Measurement
	Skipped      []int
}

// Lookup returns the measurement for size and op.
func (r Report) Lookup(size int, op string) (Measurement, bool) {
	for _, m := range r.Measurements {
		if m.Size == size && m.Op == op {
			return m, true
		}
	}

	return Measurement{}, false
}

// Sizes returns the measured sizes in run order.
func (r Report) Sizes() []int {
	var sizes []int

	for _, m := range r.Measurements {
		if len(sizes) == 0 || sizes[len(sizes)-1] != m.Size {
			sizes = append(sizes, m.Size)
		}
	}

	return sizes
}

type entry struct {
	key int
}

func compareEntry(key int, e *entry) int {
	return cmp.Compare(key, e.key)
}

// Run times every operation for every size. A canceled ctx stops between rounds.
func Run(ctx context.Context, opts Options) (Report, error) {
	if len(opts.Sizes) == 0 || opts.Rounds <= 0 {
		return Report{}, fmt.Errorf("%w: need sizes and a positive round count", ErrInvalidOptions)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var report Report

	for _, size := range opts.Sizes {
		if size <= 0 {
			return report, fmt.Errorf("%w: size %d", ErrInvalidOptions, size)
		}

		estimate := uint64(size) * nodeBytes //nolint:gosec // size is positive.
		if opts.ArenaLimit > 0 && estimate > opts.ArenaLimit {
			logger.WarnContext(ctx, "skipping size over arena limit",
				"size", size, "estimate", humanize.IBytes(estimate), "limit", humanize.IBytes(opts.ArenaLimit))

			report.Skipped = append(report.Skipped, size)

			continue
		}

		best := map[string]time.Duration{}

		for round := range opts.Rounds {
			if ctx.Err() != nil {
				return report, fmt.Errorf("bench stopped at size %d: %w", size, ctx.Err())
			}

			timings, err := runRound(size, opts.Seed+int64(round))
			if err != nil {
				return report, fmt.Errorf("size %d round %d: %w", size, round, err)
			}

			for op, elapsed := range timings {
				if current, ok := best[op]; !ok || elapsed < current {
					best[op] = elapsed
				}
			}
		}

		for _, op := range Ops() {
			m := Measurement{Size: size, Op: op, Duration: best[op]}
			report.Measurements = append(report.Measurements, m)
			opts.Metrics.RecordDuration(ctx, containerName, op, m.Duration)
			opts.Metrics.RecordOps(ctx, containerName, op, int64(size)*int64(opts.Rounds))
		}

		logger.InfoContext(ctx, "size measured", "size", humanize.Comma(int64(size)),
			"insert_per_op", best[OpInsert]/time.Duration(size))
	}

	return report, nil
}

// runRound builds one tree of size nodes and times each phase on it.
func runRound(size int, seed int64) (map[string]time.Duration, error) {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible benchmark input.
	insertOrder := rng.Perm(size)
	lookupOrder := rng.Perm(size)
	removeOrder := rng.Perm(size)

	arena := rbtree.NewArena[entry]()
	tree := rbtree.New(arena, compareEntry, nil, nil)
	handles := make([]rbtree.Handle, size)

	for idx, key := range insertOrder {
		handles[idx] = arena.Alloc(entry{key: key})
	}

	timings := map[string]time.Duration{}

	start := time.Now()

	for idx, key := range insertOrder {
		tree.Insert(key, handles[idx])
	}

	timings[OpInsert] = time.Since(start)

	start = time.Now()

	for _, key := range lookupOrder {
		if tree.Lookup(key) == rbtree.Nil {
			return nil, fmt.Errorf("key %d not found", key)
		}
	}

	timings[OpLookup] = time.Since(start)

	start = time.Now()
	visited := 0

	for range tree.Ascend() {
		visited++
	}

	timings[OpAscend] = time.Since(start)

	if visited != size {
		return nil, fmt.Errorf("ascend visited %d of %d nodes", visited, size)
	}

	start = time.Now()
	arena.Hibernate()
	timings[OpHibernate] = time.Since(start)

	start = time.Now()
	arena.Boot()
	timings[OpBoot] = time.Since(start)

	start = time.Now()

	for _, key := range removeOrder {
		tree.RemoveKey(key)
	}

	timings[OpRemove] = time.Since(start)

	if !tree.Empty() {
		return nil, fmt.Errorf("%d nodes left after removal", tree.Len())
	}

	return timings, nil
}
