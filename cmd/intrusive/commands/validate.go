package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/intrusive/internal/shape"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(global *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file.json|->",
		Short: "Validate a JSON tree snapshot",
		Long: `Validate a JSON snapshot, as written by "shape --format json", against the
snapshot schema and the red-black rules, then print the tree.

Examples:
  intrusive shape 3 1 2 --format json > tree.json
  intrusive validate tree.json
  intrusive validate - < tree.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := global.startSession(cmd, nil)
			if err != nil {
				return err
			}

			defer sess.close(cmd.Context())

			data, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			snap, err := shape.Validate(data)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, shape.Render(snap))
			fmt.Fprintf(out, "%s %d nodes, black height %d\n",
				color.New(color.FgGreen, color.Bold).Sprint("VALID"), snap.Size, snap.BlackHeight)

			return nil
		},
	}
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}

		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	return data, nil
}
