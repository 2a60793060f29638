package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/intrusive/internal/bench"
	"github.com/Sumatoshi-tech/intrusive/internal/config"
	"github.com/Sumatoshi-tech/intrusive/pkg/observability"
)

const opsPerSecondDigits = 3

// BenchCommand holds the flags of the bench command.
type BenchCommand struct {
	global *GlobalOptions

	sizes      []int
	rounds     int
	chart      string
	arenaLimit string
	seed       int64
}

// NewBenchCommand creates the bench command.
func NewBenchCommand(global *GlobalOptions) *cobra.Command {
	bc := &BenchCommand{global: global}

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Time red-black tree operations over a range of sizes",
		Long: `Time insert, lookup, in-order iteration, hibernation and removal on trees
of each configured size. The fastest of --rounds repetitions is reported.

Examples:
  intrusive bench
  intrusive bench --sizes 1000,1000000 --rounds 5 --chart bench.html`,
		Args: cobra.NoArgs,
		RunE: bc.run,
	}

	flags := cmd.Flags()
	flags.IntSliceVar(&bc.sizes, "sizes", config.DefaultBenchSizes(), "tree sizes to time")
	flags.IntVar(&bc.rounds, "rounds", config.DefaultBenchRounds, "repetitions per size")
	flags.StringVar(&bc.chart, "chart", config.DefaultBenchChart, "write an HTML line chart to this file")
	flags.StringVar(&bc.arenaLimit, "arena-limit", config.DefaultBenchArenaLimit, "skip sizes whose arena would exceed this (e.g. 512MiB)")
	flags.Int64Var(&bc.seed, "seed", config.DefaultStressSeed, "random seed for key orders")

	return cmd
}

func (bc *BenchCommand) override(cmd *cobra.Command) func(cfg *config.Config) {
	return func(cfg *config.Config) {
		flags := cmd.Flags()

		if flags.Changed("sizes") {
			cfg.Bench.Sizes = bc.sizes
		}

		if flags.Changed("rounds") {
			cfg.Bench.Rounds = bc.rounds
		}

		if flags.Changed("chart") {
			cfg.Bench.Chart = bc.chart
		}

		if flags.Changed("arena-limit") {
			cfg.Bench.ArenaLimit = bc.arenaLimit
		}
	}
}

func (bc *BenchCommand) run(cmd *cobra.Command, _ []string) error {
	sess, err := bc.global.startSession(cmd, bc.override(cmd))
	if err != nil {
		return err
	}

	defer sess.close(context.Background())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	metrics, err := observability.NewContainerMetrics(sess.providers.Meter)
	if err != nil {
		return err
	}

	report, err := bench.Run(ctx, bench.Options{
		Sizes:      sess.cfg.Bench.Sizes,
		Rounds:     sess.cfg.Bench.Rounds,
		Seed:       bc.seed,
		ArenaLimit: sess.cfg.BenchArenaLimit(),
		Logger:     sess.providers.Logger,
		Metrics:    metrics,
	})
	if err != nil {
		return err
	}

	if !bc.global.Quiet {
		writeBenchTable(cmd.OutOrStdout(), report)
	}

	if sess.cfg.Bench.Chart != "" {
		err = writeChartFile(sess.cfg.Bench.Chart, report)
		if err != nil {
			return err
		}

		sess.providers.Logger.InfoContext(ctx, "chart written", "path", sess.cfg.Bench.Chart)
	}

	return nil
}

func writeBenchTable(w io.Writer, report bench.Report) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Nodes", "Operation", "Total", "Per node", "Throughput"})
	tbl.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})

	for _, m := range report.Measurements {
		tbl.AppendRow(table.Row{
			humanize.Comma(int64(m.Size)),
			m.Op,
			m.Duration.String(),
			m.PerOp().String(),
			humanize.SIWithDigits(m.OpsPerSecond(), opsPerSecondDigits, "ops/s"),
		})
	}

	tbl.Render()

	for _, size := range report.Skipped {
		fmt.Fprintf(w, "skipped %s nodes: over the arena limit\n", humanize.Comma(int64(size)))
	}
}

func writeChartFile(path string, report bench.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}

	writeErr := bench.WriteChart(f, report)
	closeErr := f.Close()

	if writeErr != nil {
		return writeErr
	}

	if closeErr != nil {
		return fmt.Errorf("close chart file: %w", closeErr)
	}

	return nil
}
