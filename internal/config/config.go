package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

const (
	// DefaultFileName is the config file name inside the config directory.
	DefaultFileName = "workon.yaml"
	// AppDirName is the per-user config directory name.
	AppDirName = "workon"

	defaultProjectName = "example project"
)

var (
	// ErrUnknownProject indicates the requested project is not present in the config.
	ErrUnknownProject = errors.New("specified project name is not present in the config")
)

// WorkonConfig is the full config document: the known projects plus optional
// runtime settings.
type WorkonConfig struct {
	Projects []Project `yaml:"projects" toml:"projects"`
	Settings *Settings `yaml:"settings,omitempty" toml:"settings,omitempty"`
}

// Project is one named workspace.
type Project struct {
	Name      string `yaml:"project_name" toml:"project_name"`
	Terminals []Task `yaml:"terminals" toml:"terminals"`
	Programs  []Task `yaml:"programs,omitempty" toml:"programs,omitempty"`
}

// Task is a working directory plus the command started in it. Terminal tasks
// and program tasks share this shape.
type Task struct {
	Workdir string  `yaml:"workdir" toml:"workdir"`
	Command Command `yaml:"command" toml:"command"`
}

// Default returns the skeleton written on first run: one project with a
// single terminal listing the user's home directory.
func Default() *WorkonConfig {
	return &WorkonConfig{
		Projects: []Project{
			{
				Name:      defaultProjectName,
				Terminals: []Task{defaultTask()},
			},
		},
	}
}

func defaultTask() Task {
	workdir, err := os.UserHomeDir()
	if err != nil || strings.TrimSpace(workdir) == "" {
		workdir = "/"
	}
	return Task{
		Workdir: workdir,
		Command: Command{"ls", "-la"},
	}
}

// Project returns the first project whose name matches exactly.
func (c *WorkonConfig) Project(name string) (*Project, error) {
	if c == nil {
		return nil, errors.New("config must not be nil")
	}
	for i := range c.Projects {
		if c.Projects[i].Name == name {
			return &c.Projects[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownProject, name)
}

// ProjectNames returns project names in config order.
func (c *WorkonConfig) ProjectNames() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.Projects))
	for _, project := range c.Projects {
		names = append(names, project.Name)
	}
	return names
}

// TaskCount is the number of terminal and program tasks combined.
func (p Project) TaskCount() int {
	return len(p.Terminals) + len(p.Programs)
}
