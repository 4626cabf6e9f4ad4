package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Reasons reported by InvalidConfigError.
const (
	ReasonWorkdirMissing   = "project directory no longer exists"
	ReasonCommandMissing   = "startup command needs to be specified"
	ReasonEmptySegment     = "malformed command, a segment cannot be empty"
	ReasonProjectNameEmpty = "project name cannot be empty"
	ReasonNoTerminals      = "project must contain at least one application"
	ReasonNoProjects       = "no projects in config"
)

// ErrInvalidConfig is wrapped by every InvalidConfigError.
var ErrInvalidConfig = errors.New("config is invalid")

// InvalidConfigError describes the first structural or filesystem problem
// found while validating a config.
type InvalidConfigError struct {
	Reason   string
	Project  string
	Location string
}

func (e *InvalidConfigError) Error() string {
	var context []string
	if e.Project != "" {
		context = append(context, fmt.Sprintf("project %q", e.Project))
	}
	if e.Location != "" {
		context = append(context, e.Location)
	}
	if len(context) == 0 {
		return fmt.Sprintf("config is invalid, reason: %s", e.Reason)
	}
	return fmt.Sprintf("config is invalid, reason: %s (%s)", e.Reason, strings.Join(context, ", "))
}

func (e *InvalidConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// Validate checks every project and task. It stops at the first problem and
// touches the filesystem only to stat working directories.
func (c *WorkonConfig) Validate() error {
	if c == nil {
		return &InvalidConfigError{Reason: ReasonNoProjects}
	}
	for i := range c.Projects {
		if err := c.Projects[i].Validate(); err != nil {
			return err
		}
	}
	if len(c.Projects) == 0 {
		return &InvalidConfigError{Reason: ReasonNoProjects}
	}
	return nil
}

// Validate checks the project name and all of its tasks. Only terminal tasks
// count toward the "at least one application" rule; a project made only of
// programs is rejected.
func (p *Project) Validate() error {
	if p.Name == "" {
		return &InvalidConfigError{Reason: ReasonProjectNameEmpty}
	}
	for i, task := range p.Terminals {
		if err := task.validate(p.Name, fmt.Sprintf("terminals[%d]", i)); err != nil {
			return err
		}
	}
	for i, task := range p.Programs {
		if err := task.validate(p.Name, fmt.Sprintf("programs[%d]", i)); err != nil {
			return err
		}
	}
	if len(p.Terminals) == 0 {
		return &InvalidConfigError{Reason: ReasonNoTerminals, Project: p.Name}
	}
	return nil
}

// Validate checks a single task outside of any project.
func (t Task) Validate() error {
	return t.validate("", "")
}

func (t Task) validate(project string, location string) error {
	invalid := func(reason string) error {
		return &InvalidConfigError{Reason: reason, Project: project, Location: location}
	}

	if _, err := os.Stat(t.Workdir); err != nil {
		return invalid(ReasonWorkdirMissing)
	}
	if len(t.Command) == 0 {
		return invalid(ReasonCommandMissing)
	}
	for _, segment := range t.Command {
		if segment == "" {
			return invalid(ReasonEmptySegment)
		}
	}
	return nil
}
