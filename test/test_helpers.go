// Package test provides shared testing utilities for workon.
//
// It holds config fixtures and a recording launcher.Runner so command tests
// never spawn real terminal emulators.
package test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niedzwiedz/workon/internal/launcher"
)

// Context returns a context cancelled when the test completes.
func Context(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}

// Workdir creates an existing directory a task can point at.
func Workdir(t *testing.T, name string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.MkdirAll(dir, 0o750), "failed to create workdir")
	return dir
}

// WriteConfig writes content to a config file named name in a fresh temp
// directory and returns its path.
func WriteConfig(t *testing.T, name string, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600), "failed to write config")
	return path
}

// AssertFileExists checks if a file exists
func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	_, err := os.Stat(path)
	assert.NoError(t, err, "file should exist: %s", path)
}

// AssertFileNotExists checks if a file does not exist
func AssertFileNotExists(t *testing.T, path string) {
	t.Helper()
	_, err := os.Stat(path)
	assert.Error(t, err, "file should not exist: %s", path)
}

// AssertFileMode checks a file's permission bits.
func AssertFileMode(t *testing.T, path string, want os.FileMode) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err, "failed to stat %s", path)
	assert.Equal(t, want, info.Mode().Perm(), "unexpected mode for %s", path)
}

// Runner is a launcher.Runner that records invocations instead of starting
// processes. Every process exits with ExitCode unless the invocation's
// executable has an entry in StartErrors.
type Runner struct {
	ExitCode    int
	StartErrors map[string]error

	mu      sync.Mutex
	started []launcher.Invocation
}

// Start records inv and returns a process that exits immediately.
func (r *Runner) Start(_ context.Context, inv launcher.Invocation) (launcher.Process, error) {
	if err := r.StartErrors[inv.Executable]; err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, inv)
	return exitedProcess(r.ExitCode), nil
}

// Invocations returns the recorded invocations in start order.
func (r *Runner) Invocations() []launcher.Invocation {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]launcher.Invocation, len(r.started))
	copy(out, r.started)
	return out
}

type exitedProcess int

func (p exitedProcess) Wait() (int, error) {
	return int(p), nil
}

var _ launcher.Runner = (*Runner)(nil)
