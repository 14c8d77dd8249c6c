package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samuelfneumann/genesisgym/experiment/savers"
)

func execute(t *testing.T, args ...string) error {
	t.Helper()
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	return cmd.Execute()
}

func TestRender(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, execute(t, "render", "--out", dir, "--steps", "2",
		"--mode", "all_arrays", "--log-level", "error"))

	for _, kind := range []string{"rgb", "depth", "seg", "normal"} {
		assert.FileExists(t, filepath.Join(dir, "chase_"+kind+".png"))
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "env.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("episode_cutoff: 30\n"),
		0o644))

	require.NoError(t, execute(t, "run", "--config", cfg, "-n", "100",
		"--policy", "random", "--save", dir, "--log-level", "error"))

	lengths, err := savers.LoadLengths(filepath.Join(dir, "lengths.bin"))
	require.NoError(t, err)
	require.NotEmpty(t, lengths)
	for _, l := range lengths {
		assert.LessOrEqual(t, l, 30)
	}

	returns, err := savers.LoadData(filepath.Join(dir, "returns.bin"))
	require.NoError(t, err)
	assert.Len(t, returns, len(lengths))
}

func TestBadFlags(t *testing.T) {
	assert.Error(t, execute(t, "run", "--policy", "greedy", "-n", "1",
		"--log-level", "error"))
	assert.Error(t, execute(t, "render", "--mode", "video",
		"--log-level", "error"))
	assert.Error(t, execute(t, "render", "--log-level", "loud"))
	assert.Error(t, execute(t, "run", "--config", "missing.yaml"))
}
