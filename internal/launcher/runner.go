package launcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// Runner starts the process for one invocation.
type Runner interface {
	Start(ctx context.Context, inv Invocation) (Process, error)
}

// Process is a started invocation. Wait blocks until it exits and returns the
// exit code; an error means the process could not be waited on, not that it
// exited non-zero.
type Process interface {
	Wait() (int, error)
}

// ExecRunner starts invocations with os/exec. Children inherit the caller's
// stdio so terminal emulators attach to the current session.
type ExecRunner struct{}

// Start launches the executable found on PATH.
func (ExecRunner) Start(ctx context.Context, inv Invocation) (Process, error) {
	cmd := exec.CommandContext(ctx, inv.Executable, inv.Args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", inv.Executable, err)
	}
	return &execProcess{cmd: cmd}, nil
}

type execProcess struct {
	cmd *exec.Cmd
}

func (p *execProcess) Wait() (int, error) {
	err := p.cmd.Wait()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	if p.cmd.ProcessState != nil {
		return p.cmd.ProcessState.ExitCode(), nil
	}
	return -1, fmt.Errorf("wait %s: %w", p.cmd.Path, err)
}

var _ Runner = ExecRunner{}
