package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/niedzwiedz/workon/internal/telemetry"
)

// Version is set at build time.
var Version = "dev"

// ErrNoProjectName is returned when workon runs without a project argument.
var ErrNoProjectName = errors.New("no project name specified")

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	telemetry.ServiceVersion = Version

	a := newApp()
	defer func() {
		if closeErr := a.closeLogger(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "failed to close logger: %v\n", closeErr)
		}
	}()

	cmd := newRootCommand(a)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "workon [project_name]",
		Short: "Open every terminal a project needs",
		Long: "workon starts each task of a configured project in its own terminal\n" +
			"window and waits until all of them are closed.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			if len(args) == 0 {
				a.printProjectHints(cfg)
				return ErrNoProjectName
			}
			return a.launch(cmd, cfg, args[0])
		},
	}

	root.SetVersionTemplate("{{printf \"%s\\n\" .Version}}")

	flags := root.PersistentFlags()
	flags.StringVar(&a.flags.configPath, "config", "", "config file path (default: user config dir/workon/workon.yaml)")
	flags.StringVar(&a.flags.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	flags.StringVar(&a.flags.logFile, "log-file", "", "write JSON log records to this file instead of stderr")
	flags.StringVar(&a.flags.terminal, "terminal", "", "terminal emulator from the catalog (see workon terminals)")
	flags.BoolVar(&a.flags.strict, "strict", false, "exit non-zero when a task aborts or exits non-zero")
	flags.DurationVar(&a.flags.timeout, "timeout", 0, "stop waiting for tasks after this long (0 waits forever)")

	root.AddCommand(
		newListCommand(a),
		newInitCommand(a),
		newDoctorCommand(a),
		newPickCommand(a),
		newTerminalsCommand(a),
	)

	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		a.flags.changed = func(name string) bool {
			flag := cmd.Flags().Lookup(name)
			return flag != nil && flag.Changed
		}
		if err := a.setupLogger(cmd.Context()); err != nil {
			return fmt.Errorf("initialize logging: %w", err)
		}
		a.logger.With("command", cmd.Name()).Debug("command invocation")
		return nil
	}

	return root
}
