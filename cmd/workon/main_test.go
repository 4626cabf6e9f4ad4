package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niedzwiedz/workon/internal/config"
	"github.com/niedzwiedz/workon/internal/launcher"
	"github.com/niedzwiedz/workon/internal/terminal"
	"github.com/niedzwiedz/workon/test"
)

type harness struct {
	app    *app
	runner *test.Runner
	env    map[string]string
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		runner: &test.Runner{},
		env:    map[string]string{},
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	}
	h.app = &app{
		stdout: h.stdout,
		stderr: h.stderr,
		getenv: func(key string) string { return h.env[key] },
		runner: h.runner,
		now: func() time.Time {
			return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
		},
		interactive: func() bool { return false },
		colorOutput: func() bool { return false },
		pickProject: func(context.Context, []string) (string, error) {
			return "", errors.New("unexpected pick")
		},
	}
	return h
}

func (h *harness) execute(t *testing.T, args ...string) error {
	t.Helper()
	cmd := newRootCommand(h.app)
	cmd.SetOut(h.stdout)
	cmd.SetErr(h.stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(test.Context(t))
	require.NoError(t, h.app.closeLogger())
	return err
}

func demoConfig(t *testing.T, extra string) string {
	t.Helper()
	workdir := test.Workdir(t, "demo")
	return test.WriteConfig(t, "workon.yaml", fmt.Sprintf(`projects:
  - project_name: demo
    terminals:
      - workdir: %[1]s
        command: [echo, hi]
  - project_name: stack
    terminals:
      - workdir: %[1]s
        command: nvim .
      - workdir: %[1]s
        command: [lazygit]
    programs:
      - workdir: %[1]s
        command: [make, run]
%[2]s`, workdir, extra))
}

func TestRootCommandVersionFlag(t *testing.T) {
	originalVersion := Version
	defer func() {
		Version = originalVersion
	}()
	Version = "v0.1.0-test"

	h := newHarness(t)
	require.NoError(t, h.execute(t, "--version"))
	assert.Equal(t, "v0.1.0-test", strings.TrimSpace(h.stdout.String()))
}

func TestRootCommandHelpListsSubcommands(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.execute(t, "--help"))

	for _, name := range []string{"list", "init", "doctor", "pick", "terminals", "--strict", "--terminal"} {
		assert.Contains(t, h.stdout.String(), name)
	}
}

func TestLaunchDemoProject(t *testing.T) {
	h := newHarness(t)
	path := demoConfig(t, "")

	require.NoError(t, h.execute(t, "--config", path, "demo"))

	invocations := h.runner.Invocations()
	require.Len(t, invocations, 1)
	assert.Equal(t, "alacritty", invocations[0].Executable)
	workdir := invocations[0].Workdir
	assert.Equal(t, []string{"--working-directory", workdir, "-e", "echo", "hi"}, invocations[0].Args)

	out := h.stdout.String()
	assert.Contains(t, out, "terminals[0] dispatched")
	assert.Contains(t, out, "DONE")
	assert.Contains(t, out, "1 dispatched, 0 aborted, 0 non-zero")
	assert.Contains(t, h.stderr.String(), "starting up")
}

func TestLaunchDispatchesTerminalsAndPrograms(t *testing.T) {
	h := newHarness(t)
	path := demoConfig(t, "")

	require.NoError(t, h.execute(t, "--config", path, "stack"))

	invocations := h.runner.Invocations()
	require.Len(t, invocations, 3)
	commands := make([]string, 0, len(invocations))
	for _, inv := range invocations {
		commands = append(commands, strings.Join(inv.Args[3:], " "))
	}
	assert.ElementsMatch(t, []string{"nvim .", "lazygit", "make run"}, commands)
	assert.Contains(t, h.stdout.String(), "programs[0]")
}

func TestNoProjectNameListsProjectsAndFails(t *testing.T) {
	h := newHarness(t)
	path := demoConfig(t, "")

	err := h.execute(t, "--config", path)
	require.ErrorIs(t, err, ErrNoProjectName)

	stderr := h.stderr.String()
	assert.Contains(t, stderr, "try one of the following")
	assert.Contains(t, stderr, "workon demo\n")
	assert.Contains(t, stderr, "workon stack\n")
	assert.Empty(t, h.runner.Invocations())
}

func TestUnknownProjectDispatchesNothing(t *testing.T) {
	h := newHarness(t)
	path := demoConfig(t, "")

	err := h.execute(t, "--config", path, "nope")
	require.ErrorIs(t, err, config.ErrUnknownProject)
	assert.Empty(t, h.runner.Invocations())
}

func TestInvalidConfigDispatchesNothing(t *testing.T) {
	h := newHarness(t)
	path := test.WriteConfig(t, "workon.yaml", `projects:
  - project_name: demo
    terminals:
      - workdir: /definitely/not/here
        command: [ls]
`)

	err := h.execute(t, "--config", path, "demo")
	require.ErrorIs(t, err, config.ErrInvalidConfig)

	var invalid *config.InvalidConfigError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, config.ReasonWorkdirMissing, invalid.Reason)
	assert.Empty(t, h.runner.Invocations())
}

func TestFirstRunCreatesDefaultConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "nested", "workon.yaml")
	h.env[config.EnvConfigPath] = path

	err := h.execute(t)
	require.ErrorIs(t, err, ErrNoProjectName)
	test.AssertFileExists(t, path)
	test.AssertFileMode(t, path, 0o600)
	assert.Contains(t, h.stderr.String(), "workon example project")
}

func TestNonZeroExitIsSuccessUnlessStrict(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		h := newHarness(t)
		h.runner.ExitCode = 3
		require.NoError(t, h.execute(t, "--config", demoConfig(t, ""), "demo"))
		assert.Contains(t, h.stdout.String(), "exit 3")
	})

	t.Run("flag", func(t *testing.T) {
		h := newHarness(t)
		h.runner.ExitCode = 3
		err := h.execute(t, "--config", demoConfig(t, ""), "--strict", "demo")
		var exitErr *launcher.ExitCodeError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 3, exitErr.Code)
	})

	t.Run("settings", func(t *testing.T) {
		h := newHarness(t)
		h.runner.ExitCode = 3
		path := demoConfig(t, "settings:\n  strict_exit: true\n")
		require.Error(t, h.execute(t, "--config", path, "demo"))
	})

	t.Run("env", func(t *testing.T) {
		h := newHarness(t)
		h.runner.ExitCode = 3
		h.env[config.EnvStrict] = "true"
		require.Error(t, h.execute(t, "--config", demoConfig(t, ""), "demo"))
	})

	t.Run("flag overrides settings", func(t *testing.T) {
		h := newHarness(t)
		h.runner.ExitCode = 3
		path := demoConfig(t, "settings:\n  strict_exit: true\n")
		require.NoError(t, h.execute(t, "--config", path, "--strict=false", "demo"))
	})
}

func TestAbortedTaskIsReportedNotFatal(t *testing.T) {
	h := newHarness(t)
	h.runner.StartErrors = map[string]error{"alacritty": errors.New("executable file not found in $PATH")}

	require.NoError(t, h.execute(t, "--config", demoConfig(t, ""), "demo"))
	assert.Contains(t, h.stdout.String(), "aborted")
	assert.Contains(t, h.stdout.String(), "executable file not found")
	assert.Contains(t, h.stdout.String(), "1 dispatched, 1 aborted, 0 non-zero")
}

func TestTerminalSelection(t *testing.T) {
	t.Run("flag", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.execute(t, "--config", demoConfig(t, ""), "--terminal", "kitty", "demo"))
		invocations := h.runner.Invocations()
		require.Len(t, invocations, 1)
		assert.Equal(t, "kitty", invocations[0].Executable)
		assert.Equal(t, "--directory", invocations[0].Args[0])
	})

	t.Run("custom descriptor", func(t *testing.T) {
		h := newHarness(t)
		path := demoConfig(t, `settings:
  terminal_descriptor:
    executable: wezterm
    working_dir_flag: --cwd
    command_flag: --
`)
		require.NoError(t, h.execute(t, "--config", path, "demo"))
		invocations := h.runner.Invocations()
		require.Len(t, invocations, 1)
		assert.Equal(t, "wezterm", invocations[0].Executable)
		assert.Equal(t, []string{"--cwd", invocations[0].Workdir, "--", "echo", "hi"}, invocations[0].Args)
	})

	t.Run("unknown", func(t *testing.T) {
		h := newHarness(t)
		err := h.execute(t, "--config", demoConfig(t, ""), "--terminal", "xterm-9000", "demo")
		require.ErrorIs(t, err, terminal.ErrUnknownTerminal)
		assert.Empty(t, h.runner.Invocations())
	})
}

func TestNegativeTimeoutIsRejected(t *testing.T) {
	h := newHarness(t)
	err := h.execute(t, "--config", demoConfig(t, ""), "--timeout", "-1s", "demo")
	require.Error(t, err)
	assert.Empty(t, h.runner.Invocations())
}

func TestLogFileReceivesJSONRecords(t *testing.T) {
	h := newHarness(t)
	logPath := filepath.Join(t.TempDir(), "logs", "workon.log")

	require.NoError(t, h.execute(t, "--config", demoConfig(t, ""), "--log-file", logPath, "demo"))

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"starting up"`)
	assert.Contains(t, string(data), `"run_id":"20260304-050607-`)
	assert.NotContains(t, h.stderr.String(), "starting up")
}
