// Package stress runs randomized insert/remove permutations against the intrusive
// containers and checks their invariants after every step.
package stress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/intrusive/pkg/observability"
)

const tracerName = "intrusive/stress"

// Container names used in reports and metric attributes.
const (
	ContainerRBTree    = "rbtree"
	ContainerHashtable = "hashtable"
	ContainerStack     = "stack"
	ContainerQueue     = "queue"
	ContainerList      = "list"
)

// ErrViolation is wrapped by every invariant failure Run reports.
var ErrViolation = errors.New("invariant violation")

// ErrInvalidOptions indicates Options that cannot drive a run.
var ErrInvalidOptions = errors.New("invalid stress options")

// Options configures a stress run.
type Options struct {
	// Seed makes runs reproducible; permutation i uses Seed+i.
	Seed int64

	// Permutations is the number of insert/remove rounds.
	Permutations int

	// Keys is the number of distinct keys per round (0..Keys-1).
	Keys int

	// Workers is the number of goroutines. Zero means runtime.NumCPU().
	Workers int

	// VerifyEvery runs the full tree check after every N operations.
	VerifyEvery int

	// HashBuckets is the bucket count of the cross-checked hash table.
	HashBuckets int

	// Logger receives progress and failure reports. Nil discards them.
	Logger *slog.Logger

	// Metrics receives operation and violation counts. Nil is allowed.
	Metrics *observability.ContainerMetrics
}

// Op identifies one operation kind on one container.
type Op struct {
	Container string
	Name      string
}

// Result summarizes a run, complete or not.
type Result struct {
	// Completed is the number of permutations that ran to the end.
	Completed int

	// Requested is Options.Permutations.
	Requested int

	// Workers is the number of goroutines used.
	Workers int

	// Ops counts operations per container.
	Ops map[Op]int64

	// Verifications counts full tree checks.
	Verifications int64

	// Elapsed is the wall time of the run.
	Elapsed time.Duration
}

// Run executes the permutations on a pool of workers. The first violation cancels
// the remaining work and is returned wrapped around ErrViolation.
// A canceled ctx stops the run early; the partial Result is returned with ctx.Err().
func Run(ctx context.Context, opts Options) (Result, error) {
	err := opts.validate()
	if err != nil {
		return Result{}, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	numWorkers := opts.Workers
	if numWorkers == 0 {
		numWorkers = runtime.NumCPU()
	}

	numWorkers = max(1, min(numWorkers, opts.Permutations))

	ctx, span := otel.Tracer(tracerName).Start(ctx, "stress.run", trace.WithAttributes(
		attribute.Int("stress.permutations", opts.Permutations),
		attribute.Int("stress.keys", opts.Keys),
		attribute.Int("stress.workers", numWorkers),
	))
	defer span.End()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	start := time.Now()
	state := &runState{ops: map[Op]int64{}}
	jobs := make(chan int, numWorkers)

	var wg sync.WaitGroup

	wg.Add(numWorkers)

	for range numWorkers {
		go func() {
			defer wg.Done()

			newWorker(opts, logger).loop(runCtx, jobs, state, cancel)
		}()
	}

feed:
	for perm := range opts.Permutations {
		select {
		case jobs <- perm:
		case <-runCtx.Done():
			break feed
		}
	}

	close(jobs)
	wg.Wait()

	result := Result{
		Completed:     state.completed,
		Requested:     opts.Permutations,
		Workers:       numWorkers,
		Ops:           state.ops,
		Verifications: state.verifications,
		Elapsed:       time.Since(start),
	}

	span.SetAttributes(attribute.Int("stress.completed", result.Completed))

	if state.firstErr != nil {
		span.RecordError(state.firstErr)
		logger.ErrorContext(ctx, "stress run failed", "error", state.firstErr, "completed", result.Completed)

		return result, state.firstErr
	}

	ctxErr := ctx.Err()
	if ctxErr != nil {
		logger.WarnContext(ctx, "stress run stopped", "reason", ctxErr, "completed", result.Completed)

		return result, fmt.Errorf("stress run stopped after %d of %d permutations: %w",
			result.Completed, result.Requested, ctxErr)
	}

	logger.InfoContext(ctx, "stress run passed",
		"permutations", result.Completed, "keys", opts.Keys, "elapsed", result.Elapsed)

	return result, nil
}

func (opts Options) validate() error {
	switch {
	case opts.Permutations <= 0:
		return fmt.Errorf("%w: permutations must be positive", ErrInvalidOptions)
	case opts.Keys <= 0:
		return fmt.Errorf("%w: keys must be positive", ErrInvalidOptions)
	case opts.Workers < 0:
		return fmt.Errorf("%w: workers must be non-negative", ErrInvalidOptions)
	case opts.VerifyEvery <= 0:
		return fmt.Errorf("%w: verify_every must be positive", ErrInvalidOptions)
	case opts.HashBuckets <= 0:
		return fmt.Errorf("%w: hash_buckets must be positive", ErrInvalidOptions)
	}

	return nil
}

// runState holds shared mutable state for the workers.
type runState struct {
	mu            sync.Mutex
	firstErr      error
	completed     int
	verifications int64
	ops           map[Op]int64
}

// setError records the first error encountered by any worker.
func (rs *runState) setError(err error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.firstErr == nil {
		rs.firstErr = err
	}
}

func (rs *runState) merge(tally *tally) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	rs.completed++
	rs.verifications += tally.verifications

	for op, count := range tally.ops {
		rs.ops[op] += count
	}
}

// tally counts one permutation's work before it is merged.
type tally struct {
	ops           map[Op]int64
	verifications int64
}

func (t *tally) add(container, name string) {
	t.ops[Op{Container: container, Name: name}]++
}

func (t *tally) reset() {
	clear(t.ops)
	t.verifications = 0
}

func newRand(seed int64, perm int) *rand.Rand {
	return rand.New(rand.NewSource(seed + int64(perm))) //nolint:gosec // reproducible test data.
}
