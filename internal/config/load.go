package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"
)

const (
	// EnvConfigPath overrides the config file location.
	EnvConfigPath = "WORKON_CONFIG"

	lockRetryDelay = 50 * time.Millisecond
)

var (
	// ErrDecode wraps malformed config documents.
	ErrDecode = errors.New("decode config")
	// ErrEncode wraps failures serializing a config document.
	ErrEncode = errors.New("encode config")
)

// Format is a config document encoding.
type Format string

const (
	// FormatYAML is the default encoding.
	FormatYAML Format = "yaml"
	// FormatTOML is selected for paths ending in .toml.
	FormatTOML Format = "toml"
)

// FormatForPath picks the encoding from the file extension.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// DefaultPath returns <user config dir>/workon/workon.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config directory: %w", err)
	}
	return filepath.Join(dir, AppDirName, DefaultFileName), nil
}

// ResolvePath applies explicit path > WORKON_CONFIG > DefaultPath.
func ResolvePath(explicit string, getenv func(string) string) (string, error) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return explicit, nil
	}
	if getenv != nil {
		if fromEnv := strings.TrimSpace(getenv(EnvConfigPath)); fromEnv != "" {
			return fromEnv, nil
		}
	}
	return DefaultPath()
}

// LoadOrInitialize reads the config at path, first writing the document
// produced by defaults when the file does not exist yet. Creation happens
// under an advisory lock on <path>.lock.
func LoadOrInitialize(ctx context.Context, path string, defaults func() *WorkonConfig) (*WorkonConfig, error) {
	if _, err := Initialize(ctx, path, defaults); err != nil {
		return nil, err
	}
	return Load(path)
}

// Initialize writes the defaults to path unless a file already exists there.
// It reports whether a new file was created.
func Initialize(ctx context.Context, path string, defaults func() *WorkonConfig) (bool, error) {
	if defaults == nil {
		defaults = Default
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return false, errors.New("config path must not be empty")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return false, fmt.Errorf("create config directory: %w", err)
	}

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return false, fmt.Errorf("lock config %q: %w", path, err)
	}
	if !locked {
		return false, fmt.Errorf("lock config %q: lock not acquired", path)
	}
	defer func() {
		_ = lock.Unlock()
	}()

	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("stat config file %q: %w", path, err)
	}

	if err := Write(path, defaults()); err != nil {
		return false, err
	}
	return true, nil
}

// Load reads and decodes the config file. It does not validate.
func Load(path string) (*WorkonConfig, error) {
	// #nosec G304 -- path is chosen by the user via flag, env, or the OS config dir.
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer file.Close()

	cfg, err := Decode(file, FormatForPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Write encodes cfg to a new file at path. An existing file is not replaced.
func Write(path string, cfg *WorkonConfig) error {
	var buf bytes.Buffer
	if err := Encode(&buf, cfg, FormatForPath(path)); err != nil {
		return err
	}

	// #nosec G304 -- path is chosen by the user via flag, env, or the OS config dir.
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	if _, err := file.Write(buf.Bytes()); err != nil {
		_ = file.Close()
		return fmt.Errorf("write config file: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close config file: %w", err)
	}
	return nil
}

// Decode parses one config document. An empty document decodes to a config
// with no projects.
func Decode(r io.Reader, format Format) (*WorkonConfig, error) {
	cfg := &WorkonConfig{}
	switch format {
	case FormatTOML:
		if _, err := toml.NewDecoder(r).Decode(cfg); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDecode, err)
		}
	default:
		if err := yaml.NewDecoder(r).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %w", ErrDecode, err)
		}
	}
	return cfg, nil
}

// Encode serializes cfg in the given format.
func Encode(w io.Writer, cfg *WorkonConfig, format Format) error {
	if cfg == nil {
		return fmt.Errorf("%w: config must not be nil", ErrEncode)
	}
	switch format {
	case FormatTOML:
		if err := toml.NewEncoder(w).Encode(cfg); err != nil {
			return fmt.Errorf("%w: %w", ErrEncode, err)
		}
	default:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(cfg); err != nil {
			return fmt.Errorf("%w: %w", ErrEncode, err)
		}
		if err := encoder.Close(); err != nil {
			return fmt.Errorf("%w: %w", ErrEncode, err)
		}
	}
	return nil
}
