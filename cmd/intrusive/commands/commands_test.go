package commands_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/intrusive/cmd/intrusive/commands"
	"github.com/Sumatoshi-tech/intrusive/internal/config"
	"github.com/Sumatoshi-tech/intrusive/internal/shape"
)

func testGlobal(t *testing.T) *commands.GlobalOptions {
	t.Helper()

	cfgPath := filepath.Join(t.TempDir(), ".intrusive.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("observability:\n  log_level: warn\n"), 0o600))

	return &commands.GlobalOptions{ConfigPath: cfgPath}
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	err := cmd.Execute()

	return stdout.String(), err
}

func TestGlobalOptions_Bind(t *testing.T) {
	t.Parallel()

	var global commands.GlobalOptions

	flags := pflag.NewFlagSet("root", pflag.ContinueOnError)
	global.Bind(flags)

	require.NoError(t, flags.Parse([]string{"--config", "x.yaml", "-v", "-q", "--no-color"}))
	assert.Equal(t, commands.GlobalOptions{ConfigPath: "x.yaml", Verbose: true, Quiet: true, NoColor: true}, global)
}

func TestStressCommand_Passes(t *testing.T) {
	t.Parallel()

	out, err := execute(t, commands.NewStressCommand(testGlobal(t)),
		"--permutations", "5", "--keys", "8", "--workers", "2")
	require.NoError(t, err)

	assert.Contains(t, out, "rbtree")
	assert.Contains(t, out, "hashtable")
	assert.Contains(t, out, "PASS")
	assert.Contains(t, out, "5 / 5")
	assert.NotContains(t, out, "FAIL")
}

func TestStressCommand_InvalidFlag(t *testing.T) {
	t.Parallel()

	_, err := execute(t, commands.NewStressCommand(testGlobal(t)), "--keys", "0")
	require.ErrorIs(t, err, config.ErrInvalidKeys)
}

func TestStressCommand_TimeoutIsNotFailure(t *testing.T) {
	t.Parallel()

	out, err := execute(t, commands.NewStressCommand(testGlobal(t)),
		"--permutations", "1000000", "--keys", "64", "--timeout", "1ns")
	require.NoError(t, err)
	assert.Contains(t, out, "STOPPED")
}

func TestStressCommand_ServesMetrics(t *testing.T) {
	t.Parallel()

	out, err := execute(t, commands.NewStressCommand(testGlobal(t)),
		"--permutations", "3", "--keys", "4", "--metrics-addr", "127.0.0.1:0")
	require.NoError(t, err)
	assert.Contains(t, out, "PASS")
}

func TestStressCommand_Quiet(t *testing.T) {
	t.Parallel()

	global := testGlobal(t)
	global.Quiet = true

	out, err := execute(t, commands.NewStressCommand(global), "--permutations", "2", "--keys", "4")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestBenchCommand_TableAndChart(t *testing.T) {
	t.Parallel()

	chartPath := filepath.Join(t.TempDir(), "bench.html")

	out, err := execute(t, commands.NewBenchCommand(testGlobal(t)),
		"--sizes", "10,20", "--rounds", "1", "--chart", chartPath)
	require.NoError(t, err)

	assert.Contains(t, out, "insert")
	assert.Contains(t, out, "hibernate")
	assert.Contains(t, out, "ops/s")

	html, err := os.ReadFile(chartPath)
	require.NoError(t, err)
	assert.Contains(t, string(html), "echarts")
}

func TestBenchCommand_ArenaLimitSkips(t *testing.T) {
	t.Parallel()

	out, err := execute(t, commands.NewBenchCommand(testGlobal(t)),
		"--sizes", "10,5000000", "--rounds", "1", "--arena-limit", "1MiB")
	require.NoError(t, err)
	assert.Contains(t, out, "skipped 5,000,000 nodes")
}

func TestBenchCommand_InvalidArenaLimit(t *testing.T) {
	t.Parallel()

	_, err := execute(t, commands.NewBenchCommand(testGlobal(t)), "--arena-limit", "plenty")
	require.ErrorIs(t, err, config.ErrInvalidArenaLimit)
}

func TestShapeCommand_Text(t *testing.T) {
	t.Parallel()

	out, err := execute(t, commands.NewShapeCommand(testGlobal(t)), "1", "2", "3", "4", "5", "6", "7")
	require.NoError(t, err)

	assert.Contains(t, out, "2 black")
	assert.Contains(t, out, "R 4 red")
}

func TestShapeCommand_RemoveShowsDiff(t *testing.T) {
	t.Parallel()

	out, err := execute(t, commands.NewShapeCommand(testGlobal(t)), "1", "2", "3", "4", "5", "6", "7", "--remove", "2")
	require.NoError(t, err)

	assert.Contains(t, out, "- ")
	assert.Contains(t, out, "+ ")
	assert.Contains(t, out, "4 black")
}

func TestShapeCommand_JSON(t *testing.T) {
	t.Parallel()

	out, err := execute(t, commands.NewShapeCommand(testGlobal(t)), "5", "3", "8", "--format", "json")
	require.NoError(t, err)

	var snap shape.Snapshot

	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Equal(t, 3, snap.Size)
	assert.Equal(t, 5, snap.Root.Key)
}

func TestShapeCommand_Errors(t *testing.T) {
	t.Parallel()

	_, err := execute(t, commands.NewShapeCommand(testGlobal(t)), "1", "two")
	require.ErrorIs(t, err, commands.ErrBadKey)

	_, err = execute(t, commands.NewShapeCommand(testGlobal(t)), "1", "2", "--remove", "9")
	require.ErrorIs(t, err, shape.ErrKeyNotFound)

	_, err = execute(t, commands.NewShapeCommand(testGlobal(t)), "1", "--format", "xml")
	require.ErrorIs(t, err, shape.ErrUnknownFormat)

	_, err = execute(t, commands.NewShapeCommand(testGlobal(t)))
	require.Error(t, err)
}

func TestValidateCommand_File(t *testing.T) {
	t.Parallel()

	snapshot, err := execute(t, commands.NewShapeCommand(testGlobal(t)), "3", "1", "2", "--format", "json")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "tree.json")
	require.NoError(t, os.WriteFile(path, []byte(snapshot), 0o600))

	out, err := execute(t, commands.NewValidateCommand(testGlobal(t)), path)
	require.NoError(t, err)
	assert.Contains(t, out, "VALID")
	assert.Contains(t, out, "3 nodes, black height 1")
}

func TestValidateCommand_Stdin(t *testing.T) {
	t.Parallel()

	cmd := commands.NewValidateCommand(testGlobal(t))
	cmd.SetIn(bytes.NewBufferString(`{"size": 1, "black_height": 0, "root": {"key": 1, "color": "red"}}`))

	_, err := execute(t, cmd, "-")
	require.ErrorIs(t, err, shape.ErrInvalidSnapshot)

	_, err = execute(t, commands.NewValidateCommand(testGlobal(t)), filepath.Join(t.TempDir(), "missing.json"))
	require.ErrorContains(t, err, "read snapshot")
}
