// Package main provides the entry point for the intrusive CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/intrusive/cmd/intrusive/commands"
	"github.com/Sumatoshi-tech/intrusive/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	global := &commands.GlobalOptions{}

	rootCmd := &cobra.Command{
		Use:   "intrusive",
		Short: "Intrusive containers - red-black tree stress, bench and shape tools",
		Long: `intrusive exercises the intrusive container library.

Commands:
  stress    Randomized invariant run over the tree, hash table, stack, queue and list
  bench     Time tree operations over a range of sizes
  shape     Print the structure of a tree built from the given keys
  validate  Check a JSON tree snapshot against the red-black rules`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	global.Bind(rootCmd.PersistentFlags())

	rootCmd.AddCommand(commands.NewStressCommand(global))
	rootCmd.AddCommand(commands.NewBenchCommand(global))
	rootCmd.AddCommand(commands.NewShapeCommand(global))
	rootCmd.AddCommand(commands.NewValidateCommand(global))
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
