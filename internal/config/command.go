package config

import (
	"fmt"
	"strings"

	"github.com/google/shlex"
	"gopkg.in/yaml.v3"
)

// Command is an ordered list of command-line segments. In config files it may
// be written either as a list or as one shell-style string.
type Command []string

// String renders the command joined by spaces.
func (c Command) String() string {
	return strings.Join(c, " ")
}

// UnmarshalYAML accepts a sequence of strings or a single string.
func (c *Command) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var text string
		if err := value.Decode(&text); err != nil {
			return fmt.Errorf("decode command: %w", err)
		}
		parts, err := splitCommand(text)
		if err != nil {
			return err
		}
		*c = parts
		return nil
	case yaml.SequenceNode:
		var parts []string
		if err := value.Decode(&parts); err != nil {
			return fmt.Errorf("decode command: %w", err)
		}
		*c = parts
		return nil
	default:
		return fmt.Errorf("decode command at line %d: expected string or list of strings", value.Line)
	}
}

// UnmarshalTOML accepts an array of strings or a single string.
func (c *Command) UnmarshalTOML(data any) error {
	switch value := data.(type) {
	case string:
		parts, err := splitCommand(value)
		if err != nil {
			return err
		}
		*c = parts
		return nil
	case []any:
		parts := make([]string, 0, len(value))
		for i, item := range value {
			text, ok := item.(string)
			if !ok {
				return fmt.Errorf("decode command: segment %d must be string", i)
			}
			parts = append(parts, text)
		}
		*c = parts
		return nil
	default:
		return fmt.Errorf("decode command: expected string or array of strings, got %T", data)
	}
}

func splitCommand(text string) (Command, error) {
	parts, err := shlex.Split(text)
	if err != nil {
		return nil, fmt.Errorf("parse command %q: %w", text, err)
	}
	return parts, nil
}
