// Package launcher starts every task of a project in its own terminal
// emulator window and waits for all of them.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/niedzwiedz/workon/internal/config"
	"github.com/niedzwiedz/workon/internal/events"
	"github.com/niedzwiedz/workon/internal/terminal"
)

const tracerName = "workon/launcher"

// Options configures a Supervisor.
type Options struct {
	Runner Runner
	Logger *log.Logger
	Bus    events.Bus
	// Timeout bounds the whole launch. Zero waits forever.
	Timeout time.Duration
}

// Supervisor dispatches one goroutine per task and joins them all.
type Supervisor struct {
	runner  Runner
	logger  *log.Logger
	bus     events.Bus
	timeout time.Duration
	now     func() time.Time
}

// New creates a supervisor with default dependencies where omitted.
func New(opts Options) (*Supervisor, error) {
	if opts.Timeout < 0 {
		return nil, errors.New("timeout must be >= 0")
	}

	runner := opts.Runner
	if runner == nil {
		runner = ExecRunner{}
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &Supervisor{
		runner:  runner,
		logger:  logger,
		bus:     opts.Bus,
		timeout: opts.Timeout,
		now:     time.Now,
	}, nil
}

// BuildInvocations resolves every task of the project against the
// descriptor: terminals first, then programs, each in list order.
func BuildInvocations(project config.Project, descriptor terminal.Descriptor) []Invocation {
	invocations := make([]Invocation, 0, project.TaskCount())
	appendTasks := func(kind Kind, tasks []config.Task) {
		for position, task := range tasks {
			invocations = append(invocations, Invocation{
				Kind:       kind,
				Position:   position,
				Workdir:    task.Workdir,
				Executable: descriptor.Executable,
				Args:       descriptor.Argv(task.Workdir, task.Command),
			})
		}
	}
	appendTasks(KindTerminal, project.Terminals)
	appendTasks(KindProgram, project.Programs)
	return invocations
}

// Startup dispatches every task of project and blocks until all of them have
// finished. A task that fails to start, fails to be waited on, or panics is
// recorded as aborted in the report without affecting its siblings, and
// non-zero exit codes are recorded but never returned as an error. The error
// result is reserved for problems detected before anything is dispatched.
func (s *Supervisor) Startup(ctx context.Context, project config.Project, descriptor terminal.Descriptor) (Report, error) {
	if s == nil {
		return Report{}, errors.New("launcher is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := descriptor.Validate(); err != nil {
		return Report{}, fmt.Errorf("invalid terminal descriptor: %w", err)
	}

	invocations := BuildInvocations(project, descriptor)
	report := Report{
		Project: project.Name,
		Results: make([]TaskResult, len(invocations)),
	}
	for i, inv := range invocations {
		report.Results[i] = TaskResult{Invocation: inv, Status: StatusPending}
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	ctx, span := otel.Tracer(tracerName).Start(
		ctx,
		"workon.startup",
		trace.WithAttributes(
			attribute.String("project", project.Name),
			attribute.String("terminal", descriptor.Name),
			attribute.Int("task_count", len(invocations)),
		),
	)
	defer span.End()

	s.publish(events.Event{
		Type:       events.EventTypeProjectStarted,
		EntityType: "project",
		EntityID:   project.Name,
		Severity:   events.SeverityInfo,
		Payload:    len(invocations),
	})

	var group errgroup.Group
	for i, inv := range invocations {
		s.logger.Info("starting up", "project", project.Name, "task", inv.Label())
		s.logger.Info("executing", "command", inv.CommandLine(), "workdir", inv.Workdir)

		report.Results[i].Status = StatusDispatched
		s.publishTask(events.EventTypeTaskDispatched, events.SeverityInfo, project.Name, report.Results[i])

		i, inv := i, inv
		group.Go(func() error {
			report.Results[i] = s.run(ctx, project.Name, inv)
			return nil
		})
	}
	_ = group.Wait()

	for _, result := range report.Results {
		switch result.Status {
		case StatusExited:
			s.logger.Info("DONE", "task", result.Invocation.Label(), "exit_code", result.ExitCode)
		default:
			s.logger.Error("task aborted", "task", result.Invocation.Label(), "err", result.Err)
		}
	}

	aborted := len(report.Aborted())
	span.SetAttributes(
		attribute.Int("aborted", aborted),
		attribute.Int("non_zero", len(report.NonZero())),
	)
	if aborted > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d task(s) aborted", aborted))
	} else {
		span.SetStatus(codes.Ok, "all tasks joined")
	}

	s.publish(events.Event{
		Type:       events.EventTypeProjectJoined,
		EntityType: "project",
		EntityID:   project.Name,
		Severity:   joinSeverity(report),
		Payload:    report,
	})

	return report, nil
}

func (s *Supervisor) run(ctx context.Context, project string, inv Invocation) (result TaskResult) {
	result = TaskResult{Invocation: inv, Status: StatusDispatched, ExitCode: -1}

	ctx, span := otel.Tracer(tracerName).Start(
		ctx,
		"workon.task",
		trace.WithAttributes(
			attribute.String("project", project),
			attribute.String("kind", string(inv.Kind)),
			attribute.Int("position", inv.Position),
			attribute.String("workdir", inv.Workdir),
			attribute.String("executable", inv.Executable),
			attribute.String("args_redacted", strings.Join(redactArgs(inv.Args), " ")),
		),
	)

	defer func() {
		if recovered := recover(); recovered != nil {
			result.Status = StatusAborted
			result.ExitCode = -1
			result.Err = &LaunchError{Invocation: inv, Stage: "execute", Err: fmt.Errorf("panic: %v", recovered)}
		}
		if result.FinishedAt.IsZero() {
			result.FinishedAt = s.now()
		}

		span.SetAttributes(
			attribute.String("status", string(result.Status)),
			attribute.Int("exit_code", result.ExitCode),
		)
		if result.Status == StatusAborted {
			span.RecordError(result.Err)
			span.SetStatus(codes.Error, result.Err.Error())
			s.publishTask(events.EventTypeTaskAborted, events.SeverityError, project, result)
		} else {
			span.SetStatus(codes.Ok, "task exited")
			severity := events.SeverityInfo
			if result.ExitCode != 0 {
				severity = events.SeverityWarn
			}
			s.publishTask(events.EventTypeTaskExited, severity, project, result)
		}
		span.End()
	}()

	fail := func(stage string, err error) TaskResult {
		result.Status = StatusAborted
		result.ExitCode = -1
		result.Err = &LaunchError{Invocation: inv, Stage: stage, Err: err}
		return result
	}

	result.StartedAt = s.now()
	process, err := s.runner.Start(ctx, inv)
	if err != nil {
		return fail("start", err)
	}
	if process == nil {
		return fail("start", errors.New("runner returned no process"))
	}

	if err := result.advance(StatusRunning); err != nil {
		return fail("start", err)
	}
	s.publishTask(events.EventTypeTaskRunning, events.SeverityInfo, project, result)

	code, err := process.Wait()
	result.FinishedAt = s.now()
	if err != nil {
		return fail("wait", err)
	}
	if err := result.advance(StatusExited); err != nil {
		return fail("wait", err)
	}
	result.ExitCode = code
	return result
}

func (s *Supervisor) publishTask(eventType string, severity string, project string, result TaskResult) {
	s.publish(events.Event{
		Type:       eventType,
		EntityType: "task",
		EntityID:   project + "/" + result.Invocation.Label(),
		Severity:   severity,
		Payload:    result,
	})
}

func (s *Supervisor) publish(event events.Event) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(event)
}

func joinSeverity(report Report) string {
	switch {
	case len(report.Aborted()) > 0:
		return events.SeverityError
	case len(report.NonZero()) > 0:
		return events.SeverityWarn
	default:
		return events.SeverityInfo
	}
}
