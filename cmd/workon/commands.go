package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/niedzwiedz/workon/internal/config"
	"github.com/niedzwiedz/workon/internal/terminal"
	"github.com/niedzwiedz/workon/internal/tui/theme"
)

var (
	// ErrDoctorFailed is returned when at least one doctor check fails.
	ErrDoctorFailed = errors.New("doctor found problems")
	// ErrNotInteractive is returned by pick when stdin or stdout is not a terminal.
	ErrNotInteractive = errors.New("pick needs an interactive terminal, run workon <project_name> instead")
)

func newListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, project := range cfg.Projects {
				fmt.Fprintf(out, "%s %s\n",
					theme.HeaderStyle.Render(project.Name),
					theme.MutedStyle.Render(fmt.Sprintf("(%d terminals, %d programs)", len(project.Terminals), len(project.Programs))))
			}
			return nil
		},
	}
}

func newInitCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the default config file if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := a.configPath()
			if err != nil {
				return err
			}

			created, err := config.Initialize(cmd.Context(), path, config.Default)
			if err != nil {
				return fmt.Errorf("initialize config: %w", err)
			}

			out := cmd.OutOrStdout()
			if created {
				a.log().Info("config created", "path", path)
				fmt.Fprintf(out, "%s created %s\n", theme.SuccessStyle.Render(theme.IconDone), path)
				return nil
			}
			fmt.Fprintf(out, "%s config already exists at %s\n", theme.InfoStyle.Render(theme.IconDone), path)
			return nil
		},
	}
}

func newTerminalsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "terminals",
		Short: "List built-in terminal emulators",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			for _, descriptor := range terminal.Catalog() {
				name := descriptor.Name
				if name == terminal.DefaultName {
					name += " (default)"
				}
				fmt.Fprintf(out, "%s %s\n",
					theme.HeaderStyle.Render(fmt.Sprintf("%-26s", name)),
					theme.MutedStyle.Render(descriptor.Executable+" "+descriptor.WorkingDirFlag+" <workdir> "+descriptor.CommandFlag+" <command...>"))
			}
			a.log().Debug("listed terminals", "count", len(terminal.Names()))
			return nil
		},
	}
}

func newPickCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pick",
		Short: "Choose a project interactively and launch it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.interactive == nil || !a.interactive() {
				return ErrNotInteractive
			}

			cfg, err := a.loadConfig(cmd.Context())
			if err != nil {
				return err
			}

			name, err := a.pickProject(cmd.Context(), cfg.ProjectNames())
			if err != nil {
				return err
			}
			return a.launch(cmd, cfg, name)
		},
	}
}

func pickWithForm(ctx context.Context, names []string) (string, error) {
	var selected string
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Pick a project").
			Options(huh.NewOptions(names...)...).
			Value(&selected),
	))
	if err := form.RunWithContext(ctx); err != nil {
		return "", fmt.Errorf("pick project: %w", err)
	}
	return selected, nil
}

type doctorCheck struct {
	name   string
	detail string
	ok     bool
}

func newDoctorCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor [project_name]",
		Short: "Check the config and the terminal emulator",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			checks := a.runDoctor(args)

			out := cmd.OutOrStdout()
			failed := false
			for _, check := range checks {
				icon := theme.SuccessStyle.Render(theme.IconDone)
				if !check.ok {
					icon = theme.ErrorStyle.Render(theme.IconFailed)
					failed = true
				}
				fmt.Fprintf(out, "%s %s %s\n", icon, check.name, theme.MutedStyle.Render(check.detail))
			}
			if failed {
				return ErrDoctorFailed
			}
			return nil
		},
	}
}

// runDoctor never creates the config file; a missing file is a failed check.
func (a *app) runDoctor(args []string) []doctorCheck {
	var checks []doctorCheck

	path, err := a.configPath()
	if err != nil {
		return append(checks, doctorCheck{name: "config path", detail: err.Error()})
	}

	cfg, err := config.Load(path)
	if err != nil {
		return append(checks, doctorCheck{name: "config readable", detail: err.Error()})
	}
	checks = append(checks, doctorCheck{name: "config readable", detail: path, ok: true})

	if err := cfg.Validate(); err != nil {
		checks = append(checks, doctorCheck{name: "config valid", detail: err.Error()})
	} else {
		checks = append(checks, doctorCheck{name: "config valid", detail: fmt.Sprintf("%d project(s)", len(cfg.Projects)), ok: true})
	}

	if len(args) == 1 {
		project, err := cfg.Project(args[0])
		if err != nil {
			checks = append(checks, doctorCheck{name: "project", detail: err.Error()})
		} else {
			checks = append(checks, doctorCheck{
				name:   "project",
				detail: fmt.Sprintf("%s (%d task(s))", project.Name, project.TaskCount()),
				ok:     true,
			})
		}
	}

	runtime, err := a.resolveRuntime(cfg)
	if err != nil {
		return append(checks, doctorCheck{name: "settings", detail: err.Error()})
	}
	descriptor, err := terminal.Resolve(runtime)
	if err != nil {
		return append(checks, doctorCheck{name: "terminal", detail: err.Error()})
	}

	if path, ok := terminal.Available(descriptor); ok {
		checks = append(checks, doctorCheck{name: "terminal", detail: fmt.Sprintf("%s at %s", descriptor.Name, path), ok: true})
	} else {
		checks = append(checks, doctorCheck{name: "terminal", detail: fmt.Sprintf("%s: %s not found on PATH", descriptor.Name, descriptor.Executable)})
	}

	a.log().Debug("doctor finished", "checks", len(checks))
	return checks
}
