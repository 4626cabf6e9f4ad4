package launcher

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind tells terminal tasks and program tasks apart.
type Kind string

const (
	// KindTerminal marks a task from a project's terminals list.
	KindTerminal Kind = "terminal"
	// KindProgram marks a task from a project's programs list.
	KindProgram Kind = "program"
)

// Status is a task's position in Pending → Dispatched → Running → Exited|Aborted.
type Status string

const (
	StatusPending    Status = "pending"
	StatusDispatched Status = "dispatched"
	StatusRunning    Status = "running"
	StatusExited     Status = "exited"
	StatusAborted    Status = "aborted"
)

// Invocation is the fully resolved process for one task.
type Invocation struct {
	Kind       Kind
	Position   int
	Workdir    string
	Executable string
	Args       []string
}

// Label names the task by its place in the config, e.g. terminals[0].
func (i Invocation) Label() string {
	list := "terminals"
	if i.Kind == KindProgram {
		list = "programs"
	}
	return fmt.Sprintf("%s[%d]", list, i.Position)
}

// CommandLine renders executable and arguments separated by spaces.
func (i Invocation) CommandLine() string {
	return formatCommand(i.Executable, i.Args)
}

// TaskResult is the outcome of one dispatched task.
type TaskResult struct {
	Invocation Invocation
	Status     Status
	ExitCode   int
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration is how long the task ran, or zero if it never started.
func (r TaskResult) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Report lists every task of a launch in dispatch order.
type Report struct {
	Project string
	Results []TaskResult
}

// Dispatched counts tasks that left the pending state.
func (r Report) Dispatched() int {
	count := 0
	for _, result := range r.Results {
		if result.Status != StatusPending {
			count++
		}
	}
	return count
}

// Exited returns tasks whose process ran to completion, whatever the code.
func (r Report) Exited() []TaskResult {
	return r.filter(func(result TaskResult) bool {
		return result.Status == StatusExited
	})
}

// Aborted returns tasks whose execution failed.
func (r Report) Aborted() []TaskResult {
	return r.filter(func(result TaskResult) bool {
		return result.Status == StatusAborted
	})
}

// NonZero returns exited tasks with a non-zero exit code.
func (r Report) NonZero() []TaskResult {
	return r.filter(func(result TaskResult) bool {
		return result.Status == StatusExited && result.ExitCode != 0
	})
}

// Err joins the launch errors of aborted tasks. Exit codes are not included.
func (r Report) Err() error {
	var errs []error
	for _, result := range r.Aborted() {
		errs = append(errs, result.Err)
	}
	return errors.Join(errs...)
}

// StrictErr is Err plus an ExitCodeError for every non-zero exit.
func (r Report) StrictErr() error {
	var errs []error
	for _, result := range r.Results {
		switch {
		case result.Status == StatusAborted:
			errs = append(errs, result.Err)
		case result.Status == StatusExited && result.ExitCode != 0:
			errs = append(errs, &ExitCodeError{Invocation: result.Invocation, Code: result.ExitCode})
		}
	}
	return errors.Join(errs...)
}

func (r Report) filter(keep func(TaskResult) bool) []TaskResult {
	out := make([]TaskResult, 0, len(r.Results))
	for _, result := range r.Results {
		if keep(result) {
			out = append(out, result)
		}
	}
	return out
}

// LaunchError reports a task whose execution failed: the process could not be
// started or waited on, or the task goroutine panicked.
type LaunchError struct {
	Invocation Invocation
	Stage      string
	Err        error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch %s (%s): %s: %v", e.Invocation.Label(), e.Invocation.Executable, e.Stage, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// ExitCodeError reports a task that exited non-zero.
type ExitCodeError struct {
	Invocation Invocation
	Code       int
}

func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("%s (%s) exited with code %d", e.Invocation.Label(), e.Invocation.Executable, e.Code)
}

func formatCommand(name string, args []string) string {
	parts := append([]string{strings.TrimSpace(name)}, args...)
	sanitized := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		sanitized = append(sanitized, part)
	}
	return strings.Join(sanitized, " ")
}
