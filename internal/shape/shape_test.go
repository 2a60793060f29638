package shape_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/intrusive/internal/shape"
)

func TestBuild_AscendingKeys(t *testing.T) {
	t.Parallel()

	tree := shape.Build([]int{1, 2, 3, 4, 5, 6, 7})
	require.NoError(t, tree.Verify())

	snap := tree.Capture()
	assert.Equal(t, 7, snap.Size)
	assert.Equal(t, 2, snap.BlackHeight)

	root := snap.Root
	require.NotNil(t, root)
	assert.Equal(t, 2, root.Key)
	assert.Equal(t, "black", root.Color)
	assert.Equal(t, 1, root.Left.Key)
	assert.Equal(t, 4, root.Right.Key)
	assert.Equal(t, "red", root.Right.Color)
	assert.Equal(t, 6, root.Right.Right.Key)
	assert.Equal(t, "red", root.Right.Right.Right.Color)
}

func TestBuild_DuplicatesReplace(t *testing.T) {
	t.Parallel()

	tree := shape.Build([]int{5, 3, 5, 8, 3})

	assert.Equal(t, 3, tree.Len())
	assert.Equal(t, []int{3, 5, 8}, tree.Keys())
	require.NoError(t, tree.Verify())
}

func TestTree_Remove(t *testing.T) {
	t.Parallel()

	tree := shape.Build([]int{1, 2, 3, 4, 5, 6, 7})

	require.NoError(t, tree.Remove(2))
	require.NoError(t, tree.Verify())
	assert.Equal(t, []int{1, 3, 4, 5, 6, 7}, tree.Keys())
	assert.Equal(t, 4, tree.Capture().Root.Key)

	require.ErrorIs(t, tree.Remove(2), shape.ErrKeyNotFound)
}

func TestRender(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "(empty)", shape.Render(shape.Build(nil).Capture()))

	out := shape.Render(shape.Build([]int{2, 1, 3}).Capture())
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "2 black")
	assert.Contains(t, lines[1], "L 1 red")
	assert.Contains(t, lines[2], "R 3 red")
}

func TestRender_LoneChildShowsNil(t *testing.T) {
	t.Parallel()

	out := shape.Render(shape.Build([]int{1, 2}).Capture())

	assert.Contains(t, out, "1 black")
	assert.Contains(t, out, "L nil")
	assert.Contains(t, out, "R 2 red")
}

func TestDiff(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "  a\n- b\n+ c\n", shape.Diff("a\nb", "a\nc"))
	assert.Equal(t, "  same\n", shape.Diff("same", "same"))
}

func TestEncode(t *testing.T) {
	t.Parallel()

	snap := shape.Build([]int{2, 1, 3}).Capture()

	var jsonBuf bytes.Buffer

	require.NoError(t, shape.Encode(&jsonBuf, snap, shape.FormatJSON))

	var fromJSON shape.Snapshot

	require.NoError(t, json.Unmarshal(jsonBuf.Bytes(), &fromJSON))
	assert.Equal(t, snap, fromJSON)
	assert.Contains(t, jsonBuf.String(), `"black_height": 1`)

	var yamlBuf bytes.Buffer

	require.NoError(t, shape.Encode(&yamlBuf, snap, shape.FormatYAML))
	assert.Contains(t, yamlBuf.String(), "black_height: 1")

	var fromYAML shape.Snapshot

	require.NoError(t, yaml.Unmarshal(yamlBuf.Bytes(), &fromYAML))
	assert.Equal(t, snap, fromYAML)

	var textBuf bytes.Buffer

	require.NoError(t, shape.Encode(&textBuf, snap, shape.FormatText))
	assert.Contains(t, textBuf.String(), "2 black")

	require.ErrorIs(t, shape.Encode(&textBuf, snap, "xml"), shape.ErrUnknownFormat)
}
