package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"project-sweeper/internal/config"
	"project-sweeper/internal/exitcodes"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestExitCodeFor(t *testing.T) {
	assert.Equal(t, exitcodes.RuntimeError, exitCodeFor(withCode(exitcodes.RuntimeError, errors.New("boom"))))
	assert.Equal(t, exitcodes.InvalidConfig, exitCodeFor(errors.New("unknown flag")))
	assert.NoError(t, withCode(exitcodes.RuntimeError, nil))

	wrapped := withCode(exitcodes.InvalidConfig, config.ErrInvalidRoot)
	assert.ErrorIs(t, wrapped, config.ErrInvalidRoot)
}

// TestSweepAndHistory runs a real sweep through the CLI and reads it back with the history command
func TestSweepAndHistory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "node_modules", "a.js"), "a")
	writeFile(t, filepath.Join(root, "src", "yarn.lock"), "lock")
	writeFile(t, filepath.Join(root, "keep.txt"), "keep")
	dbPath := filepath.Join(t.TempDir(), "sweeps.db")
	metricsPath := filepath.Join(t.TempDir(), "sweeper.prom")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{
		"--root", root,
		"--no-wait", "--no-color",
		"--db", dbPath,
		"--metrics-file", metricsPath,
		"--dir", "node_modules", "--dir", "dist",
		"--file", "yarn.lock",
	})
	require.NoError(t, rootCmd.Execute())

	assert.NoDirExists(t, filepath.Join(root, "node_modules"))
	assert.NoFileExists(t, filepath.Join(root, "src", "yarn.lock"))
	assert.FileExists(t, filepath.Join(root, "keep.txt"))
	assert.FileExists(t, metricsPath)

	text := out.String()
	assert.Contains(t, text, "[directory removed] "+filepath.Join(root, "node_modules"))
	assert.Contains(t, text, "[not found] "+filepath.Join(root, "dist"))
	assert.Contains(t, text, "[file removed] "+filepath.Join(root, "src", "yarn.lock"))
	assert.Contains(t, text, "Cleanup complete")

	out.Reset()
	rootCmd.SetArgs([]string{"history", "--db", dbPath, "--action", "NOT_FOUND"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), filepath.Join(root, "dist"))
	assert.NotContains(t, out.String(), "node_modules")
}

func TestLoadConfigRejectsBadTargets(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "sweeper.yaml")
	writeFile(t, cfgPath, "root: "+t.TempDir()+"\ntarget_directories:\n  - ../outside\n")

	_, err := config.Load(cfgPath)
	assert.ErrorIs(t, err, config.ErrTraversalTarget)
}
