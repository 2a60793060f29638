package commands

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/intrusive/internal/shape"
)

// ErrBadKey indicates a positional argument that is not an integer.
var ErrBadKey = errors.New("keys must be integers")

// NewShapeCommand creates the shape command.
func NewShapeCommand(global *GlobalOptions) *cobra.Command {
	var (
		removeKeys []int
		format     string
	)

	cmd := &cobra.Command{
		Use:   "shape <key>...",
		Short: "Print the red-black tree built from the given keys",
		Long: `Insert the keys in the order given and print the resulting red-black tree.
With --remove, the listed keys are removed afterwards and the change is shown
as a line diff of the two renderings.

Examples:
  intrusive shape 1 2 3 4 5 6 7
  intrusive shape 1 2 3 4 5 6 7 --remove 2
  intrusive shape 5 3 8 --format yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := global.startSession(cmd, nil)
			if err != nil {
				return err
			}

			defer sess.close(cmd.Context())

			keys, err := parseKeys(args)
			if err != nil {
				return err
			}

			tree := shape.Build(keys)
			sess.providers.Logger.DebugContext(cmd.Context(), "tree built", "keys", len(keys), "size", tree.Len())

			if len(removeKeys) == 0 {
				return shape.Encode(cmd.OutOrStdout(), tree.Capture(), format)
			}

			before := shape.Render(tree.Capture())

			for _, key := range removeKeys {
				err = tree.Remove(key)
				if err != nil {
					return err
				}
			}

			err = tree.Verify()
			if err != nil {
				return fmt.Errorf("tree invalid after removal: %w", err)
			}

			if format != shape.FormatText {
				return shape.Encode(cmd.OutOrStdout(), tree.Capture(), format)
			}

			fmt.Fprint(cmd.OutOrStdout(), shape.Diff(before, shape.Render(tree.Capture())))

			return nil
		},
	}

	cmd.Flags().IntSliceVar(&removeKeys, "remove", nil, "keys to remove after building")
	cmd.Flags().StringVar(&format, "format", shape.FormatText, "output format: text, yaml or json")

	return cmd
}

func parseKeys(args []string) ([]int, error) {
	keys := make([]int, len(args))

	for idx, arg := range args {
		key, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrBadKey, arg)
		}

		keys[idx] = key
	}

	return keys, nil
}
