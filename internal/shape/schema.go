package shape

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/Sumatoshi-tech/intrusive/pkg/rbtree"
)

// ErrInvalidSnapshot indicates a snapshot that fails the schema or the red-black rules.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

const snapshotSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["size", "black_height"],
  "additionalProperties": false,
  "properties": {
    "size": {"type": "integer", "minimum": 0},
    "black_height": {"type": "integer", "minimum": 0},
    "root": {"$ref": "#/definitions/node"}
  },
  "definitions": {
    "node": {
      "type": "object",
      "required": ["key", "color"],
      "additionalProperties": false,
      "properties": {
        "key": {"type": "integer"},
        "color": {"enum": ["red", "black"]},
        "left": {"$ref": "#/definitions/node"},
        "right": {"$ref": "#/definitions/node"}
      }
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(snapshotSchema)

// Validate parses a JSON snapshot, checks it against the snapshot schema and then
// checks that it describes a valid red-black tree.
func Validate(data []byte) (Snapshot, error) {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}

	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))

		for _, resultErr := range result.Errors() {
			problems = append(problems, resultErr.String())
		}

		return Snapshot{}, fmt.Errorf("%w: %s", ErrInvalidSnapshot, strings.Join(problems, "; "))
	}

	var snap Snapshot

	err = json.Unmarshal(data, &snap)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}

	err = snap.Check()
	if err != nil {
		return Snapshot{}, err
	}

	return snap, nil
}

// Check verifies ordering, coloring, black height and size of the snapshot.
func (snap Snapshot) Check() error {
	if snap.Root != nil && snap.Root.Color != rbtree.Black.String() {
		return fmt.Errorf("%w: root %d is red", ErrInvalidSnapshot, snap.Root.Key)
	}

	walk := snapshotWalk{}

	blackHeight, err := walk.node(snap.Root, nil, nil)
	if err != nil {
		return err
	}

	if walk.count != snap.Size {
		return fmt.Errorf("%w: size is %d but the tree has %d nodes", ErrInvalidSnapshot, snap.Size, walk.count)
	}

	if blackHeight != snap.BlackHeight {
		return fmt.Errorf("%w: black height is %d but the tree has %d", ErrInvalidSnapshot, snap.BlackHeight, blackHeight)
	}

	return nil
}

type snapshotWalk struct {
	count int
}

// node returns the black height below and including n. low and high bound the keys
// allowed in the subtree, exclusive.
func (walk *snapshotWalk) node(n *Node, low, high *int) (int, error) {
	if n == nil {
		return 0, nil
	}

	walk.count++

	if (low != nil && n.Key <= *low) || (high != nil && n.Key >= *high) {
		return 0, fmt.Errorf("%w: key %d is out of order", ErrInvalidSnapshot, n.Key)
	}

	red := n.Color == rbtree.Red.String()
	if red && (isRed(n.Left) || isRed(n.Right)) {
		return 0, fmt.Errorf("%w: red node %d has a red child", ErrInvalidSnapshot, n.Key)
	}

	left, err := walk.node(n.Left, low, &n.Key)
	if err != nil {
		return 0, err
	}

	right, err := walk.node(n.Right, &n.Key, high)
	if err != nil {
		return 0, err
	}

	if left != right {
		return 0, fmt.Errorf("%w: node %d has black heights %d and %d", ErrInvalidSnapshot, n.Key, left, right)
	}

	if red {
		return left, nil
	}

	return left + 1, nil
}

func isRed(n *Node) bool {
	return n != nil && n.Color == rbtree.Red.String()
}
