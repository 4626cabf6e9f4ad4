package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Environment variables overlaying file settings.
const (
	EnvTerminal = "WORKON_TERMINAL"
	EnvStrict   = "WORKON_STRICT"
	EnvTimeout  = "WORKON_TIMEOUT"
)

// Settings is the optional settings block of a config file. Absent keys keep
// the built-in defaults.
type Settings struct {
	Terminal           *string             `yaml:"terminal,omitempty" toml:"terminal,omitempty"`
	TerminalDescriptor *DescriptorSettings `yaml:"terminal_descriptor,omitempty" toml:"terminal_descriptor,omitempty"`
	StrictExit         *bool               `yaml:"strict_exit,omitempty" toml:"strict_exit,omitempty"`
	LaunchTimeout      *string             `yaml:"launch_timeout,omitempty" toml:"launch_timeout,omitempty"`
	OTelEndpoint       *string             `yaml:"otel_endpoint,omitempty" toml:"otel_endpoint,omitempty"`
}

// DescriptorSettings declares a terminal emulator not in the built-in catalog.
type DescriptorSettings struct {
	Executable     string `yaml:"executable" toml:"executable"`
	WorkingDirFlag string `yaml:"working_dir_flag" toml:"working_dir_flag"`
	CommandFlag    string `yaml:"command_flag" toml:"command_flag"`
}

// Runtime is the resolved set of knobs for one run.
type Runtime struct {
	Terminal      string
	Descriptor    *DescriptorSettings
	StrictExit    bool
	LaunchTimeout time.Duration
	OTelEndpoint  string
}

// ResolveRuntime layers file settings and then environment variables over
// the defaults. CLI flags are applied by the caller on the result.
func (c *WorkonConfig) ResolveRuntime(getenv func(string) string) (Runtime, error) {
	runtime := Runtime{}
	if c != nil && c.Settings != nil {
		if err := applyFileSettings(&runtime, *c.Settings); err != nil {
			return Runtime{}, err
		}
	}
	if getenv != nil {
		if err := applyEnvSettings(&runtime, getenv); err != nil {
			return Runtime{}, err
		}
	}
	return runtime, nil
}

func applyFileSettings(runtime *Runtime, settings Settings) error {
	if settings.Terminal != nil {
		runtime.Terminal = normalizeKey(*settings.Terminal)
	}
	if settings.TerminalDescriptor != nil {
		descriptor := *settings.TerminalDescriptor
		runtime.Descriptor = &descriptor
	}
	if settings.StrictExit != nil {
		runtime.StrictExit = *settings.StrictExit
	}
	if settings.LaunchTimeout != nil {
		timeout, err := parseTimeout(*settings.LaunchTimeout, "settings.launch_timeout")
		if err != nil {
			return err
		}
		runtime.LaunchTimeout = timeout
	}
	if settings.OTelEndpoint != nil {
		runtime.OTelEndpoint = strings.TrimSpace(*settings.OTelEndpoint)
	}
	return nil
}

func applyEnvSettings(runtime *Runtime, getenv func(string) string) error {
	if value := strings.TrimSpace(getenv(EnvTerminal)); value != "" {
		runtime.Terminal = normalizeKey(value)
		runtime.Descriptor = nil
	}
	if value := strings.TrimSpace(getenv(EnvStrict)); value != "" {
		strict, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvStrict, err)
		}
		runtime.StrictExit = strict
	}
	if value := strings.TrimSpace(getenv(EnvTimeout)); value != "" {
		timeout, err := parseTimeout(value, EnvTimeout)
		if err != nil {
			return err
		}
		runtime.LaunchTimeout = timeout
	}
	return nil
}

func parseTimeout(value string, key string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if parsed < 0 {
		return 0, fmt.Errorf("parse %s: must be >= 0", key)
	}
	return parsed, nil
}

func normalizeKey(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
