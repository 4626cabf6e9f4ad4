// Package terminal describes how to start a terminal emulator with a working
// directory and a command to run.
package terminal

import (
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"github.com/niedzwiedz/workon/internal/config"
)

// DefaultName is the catalog entry used when nothing else is selected.
const DefaultName = "alacritty"

// ErrUnknownTerminal indicates a terminal name missing from the catalog.
var ErrUnknownTerminal = errors.New("unknown terminal")

// Descriptor is the capability record for one terminal emulator. A task is
// launched as: Executable WorkingDirFlag <workdir> CommandFlag <command...>.
type Descriptor struct {
	Name           string
	Executable     string
	WorkingDirFlag string
	CommandFlag    string
}

var catalog = map[string]Descriptor{
	"alacritty":      {Name: "alacritty", Executable: "alacritty", WorkingDirFlag: "--working-directory", CommandFlag: "-e"},
	"kitty":          {Name: "kitty", Executable: "kitty", WorkingDirFlag: "--directory", CommandFlag: "--"},
	"gnome-terminal": {Name: "gnome-terminal", Executable: "gnome-terminal", WorkingDirFlag: "--working-directory", CommandFlag: "--"},
	"konsole":        {Name: "konsole", Executable: "konsole", WorkingDirFlag: "--workdir", CommandFlag: "-e"},
	"foot":           {Name: "foot", Executable: "foot", WorkingDirFlag: "--working-directory", CommandFlag: "--"},
}

// Default returns the alacritty descriptor.
func Default() Descriptor {
	return catalog[DefaultName]
}

// Lookup returns the catalog descriptor registered under name.
func Lookup(name string) (Descriptor, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	descriptor, ok := catalog[key]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w %q (known: %s)", ErrUnknownTerminal, name, strings.Join(Names(), ", "))
	}
	return descriptor, nil
}

// Names lists catalog entries in sorted order.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Catalog returns every built-in descriptor sorted by name.
func Catalog() []Descriptor {
	names := Names()
	descriptors := make([]Descriptor, 0, len(names))
	for _, name := range names {
		descriptors = append(descriptors, catalog[name])
	}
	return descriptors
}

// Resolve picks the descriptor for a run: a custom descriptor from settings
// wins over a catalog name, and an empty selection yields Default.
func Resolve(runtime config.Runtime) (Descriptor, error) {
	if custom := runtime.Descriptor; custom != nil {
		descriptor := Descriptor{
			Name:           "custom",
			Executable:     strings.TrimSpace(custom.Executable),
			WorkingDirFlag: strings.TrimSpace(custom.WorkingDirFlag),
			CommandFlag:    strings.TrimSpace(custom.CommandFlag),
		}
		if err := descriptor.Validate(); err != nil {
			return Descriptor{}, fmt.Errorf("settings.terminal_descriptor: %w", err)
		}
		return descriptor, nil
	}
	if strings.TrimSpace(runtime.Terminal) == "" {
		return Default(), nil
	}
	return Lookup(runtime.Terminal)
}

// Validate reports a descriptor that cannot build an invocation.
func (d Descriptor) Validate() error {
	switch {
	case strings.TrimSpace(d.Executable) == "":
		return errors.New("terminal executable must not be empty")
	case strings.TrimSpace(d.WorkingDirFlag) == "":
		return errors.New("terminal working directory flag must not be empty")
	case strings.TrimSpace(d.CommandFlag) == "":
		return errors.New("terminal command flag must not be empty")
	}
	return nil
}

// Argv returns the arguments passed to Executable for one task.
func (d Descriptor) Argv(workdir string, command []string) []string {
	args := make([]string, 0, 3+len(command))
	args = append(args, d.WorkingDirFlag, workdir, d.CommandFlag)
	return append(args, command...)
}

// Available reports whether the executable can be found on PATH.
func Available(d Descriptor) (string, bool) {
	return available(d, exec.LookPath)
}

func available(d Descriptor, lookPath func(file string) (string, error)) (string, bool) {
	if lookPath == nil || strings.TrimSpace(d.Executable) == "" {
		return "", false
	}
	path, err := lookPath(d.Executable)
	if err != nil {
		return "", false
	}
	return path, true
}
