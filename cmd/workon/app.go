package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"

	"github.com/niedzwiedz/workon/internal/config"
	"github.com/niedzwiedz/workon/internal/launcher"
	"github.com/niedzwiedz/workon/internal/logging"
	"github.com/niedzwiedz/workon/internal/tui/theme"
)

type rootFlags struct {
	configPath string
	logLevel   string
	logFile    string
	terminal   string
	strict     bool
	timeout    time.Duration
	changed    func(name string) bool
}

// app carries the process boundary so commands can run against fakes.
type app struct {
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string
	runner launcher.Runner
	now    func() time.Time

	interactive func() bool
	colorOutput func() bool
	pickProject func(ctx context.Context, names []string) (string, error)

	flags         rootFlags
	logger        *log.Logger
	runtimeLogger *logging.RuntimeLogger
}

func newApp() *app {
	return &app{
		stdout: os.Stdout,
		stderr: os.Stderr,
		getenv: os.Getenv,
		runner: launcher.ExecRunner{},
		now:    time.Now,
		interactive: func() bool {
			return isTerminal(os.Stdin) && isTerminal(os.Stdout)
		},
		colorOutput: func() bool {
			return isTerminal(os.Stdout)
		},
		pickProject: pickWithForm,
	}
}

func isTerminal(file *os.File) bool {
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (a *app) setupLogger(ctx context.Context) error {
	if a.colorOutput != nil && !a.colorOutput() {
		theme.DisableColor()
	}

	level, err := logging.ParseLevel(a.flags.logLevel)
	if err != nil {
		return err
	}

	options := []logging.Option{
		logging.WithRunID(logging.NewRunID(a.now())),
		logging.WithLevel(level),
		logging.WithWriter(a.stderr),
	}
	if a.flags.logFile != "" {
		options = append(options, logging.WithFile(a.flags.logFile))
	}

	runtimeLogger, err := logging.New(ctx, options...)
	if err != nil {
		return err
	}
	a.runtimeLogger = runtimeLogger
	a.logger = runtimeLogger.Logger
	return nil
}

func (a *app) closeLogger() error {
	if a.runtimeLogger == nil {
		return nil
	}
	err := a.runtimeLogger.Close()
	a.runtimeLogger = nil
	return err
}

func (a *app) configPath() (string, error) {
	path, err := config.ResolvePath(a.flags.configPath, a.getenv)
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}
	return path, nil
}

// loadConfig reads the config, creating the default one on first run, and
// validates it.
func (a *app) loadConfig(ctx context.Context) (*config.WorkonConfig, error) {
	path, err := a.configPath()
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadOrInitialize(ctx, path, config.Default)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a.log().Debug("config loaded", "path", path, "projects", len(cfg.Projects))
	return cfg, nil
}

// resolveRuntime applies CLI flags over the file and environment settings.
func (a *app) resolveRuntime(cfg *config.WorkonConfig) (config.Runtime, error) {
	runtime, err := cfg.ResolveRuntime(a.getenv)
	if err != nil {
		return config.Runtime{}, fmt.Errorf("resolve settings: %w", err)
	}

	changed := a.flags.changed
	if changed == nil {
		changed = func(string) bool { return false }
	}
	if changed("terminal") {
		runtime.Terminal = a.flags.terminal
		runtime.Descriptor = nil
	}
	if changed("strict") {
		runtime.StrictExit = a.flags.strict
	}
	if changed("timeout") {
		if a.flags.timeout < 0 {
			return config.Runtime{}, errors.New("--timeout must be >= 0")
		}
		runtime.LaunchTimeout = a.flags.timeout
	}
	return runtime, nil
}

func (a *app) printProjectHints(cfg *config.WorkonConfig) {
	fmt.Fprintln(a.stderr, "you haven't provided a project name, try one of the following:")
	for _, name := range cfg.ProjectNames() {
		fmt.Fprintf(a.stderr, "workon %s\n", name)
	}
}

func (a *app) log() *log.Logger {
	if a.logger == nil {
		a.logger = log.New(io.Discard)
	}
	return a.logger
}
