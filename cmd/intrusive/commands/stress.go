package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/metric"

	"github.com/Sumatoshi-tech/intrusive/internal/config"
	"github.com/Sumatoshi-tech/intrusive/internal/stress"
	"github.com/Sumatoshi-tech/intrusive/pkg/observability"
)

const metricsReadHeaderTimeout = 5 * time.Second

// StressCommand holds the flags of the stress command.
type StressCommand struct {
	global *GlobalOptions

	seed         int64
	permutations int
	keys         int
	workers      int
	verifyEvery  int
	hashBuckets  int
	timeout      string
	metricsAddr  string
}

// NewStressCommand creates the stress command.
func NewStressCommand(global *GlobalOptions) *cobra.Command {
	sc := &StressCommand{global: global}

	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Run randomized insert/remove permutations and verify every container",
		Long: `Run randomized insert/remove permutations and verify every container.

Each permutation inserts the keys 0..keys-1 in a shuffled order into a red-black
tree, a chained hash table, a stack, a queue and a doubly linked list, checks the
tree invariants after every operation, then removes the keys in a second shuffled
order.

Examples:
  intrusive stress
  intrusive stress --keys 200 --permutations 50000 --workers 8
  intrusive stress --timeout 30s --metrics-addr :9464`,
		Args: cobra.NoArgs,
		RunE: sc.run,
	}

	flags := cmd.Flags()
	flags.Int64Var(&sc.seed, "seed", config.DefaultStressSeed, "base random seed")
	flags.IntVar(&sc.permutations, "permutations", config.DefaultStressPermutations, "number of permutations")
	flags.IntVar(&sc.keys, "keys", config.DefaultStressKeys, "distinct keys per permutation")
	flags.IntVar(&sc.workers, "workers", config.DefaultStressWorkers, "worker goroutines (0 = NumCPU)")
	flags.IntVar(&sc.verifyEvery, "verify-every", config.DefaultStressVerifyEvery, "full tree check period in operations")
	flags.IntVar(&sc.hashBuckets, "hash-buckets", config.DefaultStressHashBuckets, "hash table bucket count")
	flags.StringVar(&sc.timeout, "timeout", config.DefaultStressTimeout, "stop after this duration (0 = no limit)")
	flags.StringVar(&sc.metricsAddr, "metrics-addr", config.DefaultMetricsAddr, "serve Prometheus /metrics on this address")

	return cmd
}

func (sc *StressCommand) override(cmd *cobra.Command) func(cfg *config.Config) {
	return func(cfg *config.Config) {
		flags := cmd.Flags()

		if flags.Changed("seed") {
			cfg.Stress.Seed = sc.seed
		}

		if flags.Changed("permutations") {
			cfg.Stress.Permutations = sc.permutations
		}

		if flags.Changed("keys") {
			cfg.Stress.Keys = sc.keys
		}

		if flags.Changed("workers") {
			cfg.Stress.Workers = sc.workers
		}

		if flags.Changed("verify-every") {
			cfg.Stress.VerifyEvery = sc.verifyEvery
		}

		if flags.Changed("hash-buckets") {
			cfg.Stress.HashBuckets = sc.hashBuckets
		}

		if flags.Changed("timeout") {
			cfg.Stress.Timeout = sc.timeout
		}

		if flags.Changed("metrics-addr") {
			cfg.Observability.MetricsAddr = sc.metricsAddr
		}
	}
}

func (sc *StressCommand) run(cmd *cobra.Command, _ []string) error {
	sess, err := sc.global.startSession(cmd, sc.override(cmd))
	if err != nil {
		return err
	}

	defer sess.close(context.Background())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	meter := sess.providers.Meter

	if addr := sess.cfg.Observability.MetricsAddr; addr != "" {
		promMeter, shutdown, serveErr := serveMetrics(ctx, addr, sess)
		if serveErr != nil {
			return serveErr
		}

		defer shutdown()

		meter = promMeter
	}

	metrics, err := observability.NewContainerMetrics(meter)
	if err != nil {
		return err
	}

	if timeout := sess.cfg.StressTimeout(); timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	result, runErr := stress.Run(ctx, stress.Options{
		Seed:         sess.cfg.Stress.Seed,
		Permutations: sess.cfg.Stress.Permutations,
		Keys:         sess.cfg.Stress.Keys,
		Workers:      sess.cfg.Stress.Workers,
		VerifyEvery:  sess.cfg.Stress.VerifyEvery,
		HashBuckets:  sess.cfg.Stress.HashBuckets,
		Logger:       sess.providers.Logger,
		Metrics:      metrics,
	})

	if !sc.global.Quiet {
		writeStressSummary(cmd.OutOrStdout(), result, runErr)
	}

	// A timeout is a time budget, not a failure.
	if errors.Is(runErr, context.DeadlineExceeded) {
		return nil
	}

	return runErr
}

// serveMetrics starts the Prometheus scrape endpoint and returns the meter feeding it.
func serveMetrics(ctx context.Context, addr string, sess *session) (metric.Meter, func(), error) {
	handler, mp, err := observability.PrometheusHandler()
	if err != nil {
		return nil, nil, err
	}

	listener, err := (&net.ListenConfig{}).Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)

	server := &http.Server{Handler: mux, ReadHeaderTimeout: metricsReadHeaderTimeout}

	go func() {
		serveErr := server.Serve(listener)
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			sess.providers.Logger.Error("metrics server failed", "error", serveErr)
		}
	}()

	sess.providers.Logger.InfoContext(ctx, "serving metrics", "addr", listener.Addr().String())

	shutdown := func() {
		shutdownErr := errors.Join(server.Shutdown(context.Background()), mp.Shutdown(context.Background()))
		if shutdownErr != nil {
			sess.providers.Logger.Warn("metrics server shutdown failed", "error", shutdownErr)
		}
	}

	return mp.Meter(observability.PrometheusMeter), shutdown, nil
}

func writeStressSummary(w io.Writer, result stress.Result, runErr error) {
	var viol *stress.Violation

	failed := ""
	if errors.As(runErr, &viol) {
		failed = viol.Container
	}

	complete := result.Completed == result.Requested

	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Container", "Operations", "Status"})

	for _, container := range []string{
		stress.ContainerRBTree, stress.ContainerHashtable, stress.ContainerStack, stress.ContainerQueue,
		stress.ContainerList,
	} {
		status := statusLabel(complete && failed == "", statusStopped)
		if container == failed {
			status = statusLabel(false, statusFail)
		}

		tbl.AppendRow(table.Row{container, humanize.Comma(containerOps(result, container)), status})
	}

	tbl.AppendFooter(table.Row{
		"permutations",
		humanize.Comma(int64(result.Completed)) + " / " + humanize.Comma(int64(result.Requested)),
		humanize.Comma(result.Verifications) + " checks",
	})
	tbl.Render()

	fmt.Fprintf(w, "%d workers, %s elapsed\n", result.Workers, result.Elapsed.Round(time.Millisecond))

	if viol != nil {
		fmt.Fprintf(w, "%s\n", statusLabel(false, viol.Error()))
	}
}

func containerOps(result stress.Result, container string) int64 {
	var total int64

	for op, count := range result.Ops {
		if op.Container == container {
			total += count
		}
	}

	return total
}
