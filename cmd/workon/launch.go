package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/niedzwiedz/workon/internal/config"
	"github.com/niedzwiedz/workon/internal/events"
	"github.com/niedzwiedz/workon/internal/launcher"
	"github.com/niedzwiedz/workon/internal/telemetry"
	"github.com/niedzwiedz/workon/internal/terminal"
	"github.com/niedzwiedz/workon/internal/tui/theme"
)

// launch starts every task of the named project and blocks until all of
// them are joined.
func (a *app) launch(cmd *cobra.Command, cfg *config.WorkonConfig, name string) error {
	ctx := cmd.Context()

	project, err := cfg.Project(name)
	if err != nil {
		return err
	}

	runtime, err := a.resolveRuntime(cfg)
	if err != nil {
		return err
	}
	descriptor, err := terminal.Resolve(runtime)
	if err != nil {
		return fmt.Errorf("resolve terminal: %w", err)
	}

	logger := a.log().With("project", project.Name, "terminal", descriptor.Name)

	shutdown, err := telemetry.Init(ctx, telemetry.ResolveEndpoint(runtime.OTelEndpoint, a.getenv))
	if err != nil {
		logger.Warn("tracing disabled", "err", err)
		shutdown = func() {}
	}
	defer shutdown()

	bus := events.New(events.WithLogger(logger))
	progress := &progressPrinter{out: a.stdout}
	bus.SubscribeAll(progress.handle)

	supervisor, err := launcher.New(launcher.Options{
		Runner:  a.runner,
		Logger:  logger,
		Bus:     bus,
		Timeout: runtime.LaunchTimeout,
	})
	if err != nil {
		bus.Close()
		return fmt.Errorf("create launcher: %w", err)
	}

	report, err := supervisor.Startup(ctx, *project, descriptor)
	bus.Close()
	if err != nil {
		return fmt.Errorf("launch %s: %w", project.Name, err)
	}

	renderReport(a.stdout, report)

	if runtime.StrictExit {
		if err := report.StrictErr(); err != nil {
			return fmt.Errorf("project %s: %w", project.Name, err)
		}
	}
	return nil
}

// progressPrinter renders launcher events as they arrive. The bus delivers
// to a single handler goroutine, so writes never interleave.
type progressPrinter struct {
	out io.Writer
}

func (p *progressPrinter) handle(event events.Event) {
	switch event.Type {
	case events.EventTypeProjectStarted:
		count, _ := event.Payload.(int)
		fmt.Fprintf(p.out, "%s %s\n",
			theme.HeaderStyle.Render(event.EntityID),
			theme.MutedStyle.Render(fmt.Sprintf("starting %d task(s)", count)))
	case events.EventTypeTaskDispatched:
		p.taskLine(theme.InfoStyle, theme.IconDispatched, event, "dispatched")
	case events.EventTypeTaskRunning:
		p.taskLine(theme.InfoStyle, theme.IconRunning, event, "running")
	case events.EventTypeTaskExited:
		result, _ := event.Payload.(launcher.TaskResult)
		if result.ExitCode != 0 {
			p.taskLine(theme.WarningStyle, theme.IconAlert, event, fmt.Sprintf("exited with code %d", result.ExitCode))
			return
		}
		p.taskLine(theme.SuccessStyle, theme.IconDone, event, "exited")
	case events.EventTypeTaskAborted:
		p.taskLine(theme.ErrorStyle, theme.IconFailed, event, "aborted")
	}
}

func (p *progressPrinter) taskLine(style lipgloss.Style, icon string, event events.Event, status string) {
	result, ok := event.Payload.(launcher.TaskResult)
	if !ok {
		return
	}
	fmt.Fprintf(p.out, "  %s %s %s\n",
		style.Render(icon),
		result.Invocation.Label(),
		theme.MutedStyle.Render(status))
}

func renderReport(w io.Writer, report launcher.Report) {
	labelWidth := 0
	for _, result := range report.Results {
		labelWidth = max(labelWidth, len(result.Invocation.Label()))
	}

	lines := []string{theme.HeaderStyle.Render(report.Project)}
	for _, result := range report.Results {
		lines = append(lines, reportLine(result, labelWidth))
	}
	lines = append(lines, theme.MutedStyle.Render(fmt.Sprintf(
		"%d dispatched, %d aborted, %d non-zero",
		report.Dispatched(),
		len(report.Aborted()),
		len(report.NonZero()),
	)))

	fmt.Fprintln(w, theme.ReportBorder.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
}

func reportLine(result launcher.TaskResult, labelWidth int) string {
	label := fmt.Sprintf("%-*s", labelWidth, result.Invocation.Label())
	duration := theme.MutedStyle.Render(result.Duration().Round(time.Millisecond).String())

	switch {
	case result.Status == launcher.StatusAborted:
		return strings.Join([]string{
			theme.ErrorStyle.Render(theme.IconFailed),
			label,
			theme.ErrorStyle.Render("aborted"),
			fmt.Sprint(result.Err),
		}, " ")
	case result.ExitCode != 0:
		return strings.Join([]string{
			theme.WarningStyle.Render(theme.IconAlert),
			label,
			theme.WarningStyle.Render(fmt.Sprintf("exit %d", result.ExitCode)),
			theme.MutedStyle.Render(result.Invocation.CommandLine()),
			duration,
		}, " ")
	default:
		return strings.Join([]string{
			theme.SuccessStyle.Render(theme.IconDone),
			label,
			theme.SuccessStyle.Render("DONE"),
			theme.MutedStyle.Render(result.Invocation.CommandLine()),
			duration,
		}, " ")
	}
}
