package shape

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/list"
	"github.com/sergi/go-diff/diffmatchpatch"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/intrusive/pkg/rbtree"
)

// Output formats accepted by Encode.
const (
	FormatText = "text"
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// ErrUnknownFormat indicates an unsupported output format.
var ErrUnknownFormat = errors.New("unknown format")

const emptyTree = "(empty)"

var (
	redNode   = color.New(color.FgRed, color.Bold)
	blackNode = color.New(color.FgHiWhite, color.Bold)
	nilNode   = color.New(color.Faint)
)

// Render draws the snapshot as an indented tree, left child first.
// A lone child is shown next to a nil placeholder so sides stay unambiguous.
func Render(snap Snapshot) string {
	if snap.Root == nil {
		return emptyTree
	}

	writer := list.NewWriter()
	writer.SetStyle(list.StyleConnectedRounded)
	appendNode(writer, "", snap.Root)

	return writer.Render()
}

func appendNode(writer list.Writer, side string, node *Node) {
	writer.AppendItem(side + label(node))

	if node == nil || (node.Left == nil && node.Right == nil) {
		return
	}

	writer.Indent()
	appendNode(writer, "L ", node.Left)
	appendNode(writer, "R ", node.Right)
	writer.UnIndent()
}

func label(node *Node) string {
	if node == nil {
		return nilNode.Sprint("nil")
	}

	text := strconv.Itoa(node.Key) + " " + node.Color
	if node.Color == rbtree.Red.String() {
		return redNode.Sprint(text)
	}

	return blackNode.Sprint(text)
}

// Diff compares two renderings line by line. Kept lines are prefixed with two
// spaces, removed lines with "- " and added lines with "+ ".
func Diff(before, after string) string {
	dmp := diffmatchpatch.New()
	beforeChars, afterChars, lines := dmp.DiffLinesToChars(before+"\n", after+"\n")
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(beforeChars, afterChars, false), lines)

	var out strings.Builder

	for _, diff := range diffs {
		prefix := "  "

		switch diff.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		case diffmatchpatch.DiffEqual:
		}

		for line := range strings.SplitSeq(strings.TrimSuffix(diff.Text, "\n"), "\n") {
			out.WriteString(prefix + line + "\n")
		}
	}

	return out.String()
}

// Encode writes the snapshot to w in the given format.
func Encode(w io.Writer, snap Snapshot, format string) error {
	switch format {
	case FormatText, "":
		_, err := fmt.Fprintln(w, Render(snap))
		if err != nil {
			return fmt.Errorf("write tree: %w", err)
		}

		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		err := enc.Encode(snap)
		if err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}

		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		err := enc.Encode(snap)
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}

		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
