package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Option configures RuntimeLogger creation.
type Option func(*newOptions)

type newOptions struct {
	runID  string
	writer io.Writer
	file   string
	level  log.Level
	json   bool
}

// WithRunID configures the run_id field used in emitted log records.
func WithRunID(runID string) Option {
	return func(opts *newOptions) {
		opts.runID = strings.TrimSpace(runID)
	}
}

// WithWriter sends records to w instead of stderr.
func WithWriter(w io.Writer) Option {
	return func(opts *newOptions) {
		if w != nil {
			opts.writer = w
		}
	}
}

// WithFile appends JSON records to path instead of writing to the console.
func WithFile(path string) Option {
	return func(opts *newOptions) {
		opts.file = strings.TrimSpace(path)
	}
}

// WithLevel sets the minimum level.
func WithLevel(level log.Level) Option {
	return func(opts *newOptions) {
		opts.level = level
	}
}

// WithJSON switches console records to the JSON formatter.
func WithJSON(enabled bool) Option {
	return func(opts *newOptions) {
		opts.json = enabled
	}
}

// RuntimeLogger owns the logger for one workon invocation and the file it
// writes to, if any.
type RuntimeLogger struct {
	Logger     *log.Logger
	file       *os.File
	path       string
	baseLogger *log.Logger
	runID      string
}

// New builds a logger writing text records to stderr unless options redirect
// it. With WithFile the records are JSON and nothing is written to the console.
func New(ctx context.Context, options ...Option) (*RuntimeLogger, error) {
	resolved := resolveOptions(options)

	writer := resolved.writer
	var file *os.File
	if resolved.file != "" {
		if err := os.MkdirAll(filepath.Dir(resolved.file), 0o750); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		// #nosec G304 -- log path is provided by the user on the command line.
		opened, err := os.OpenFile(resolved.file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		file = opened
		writer = opened
		resolved.json = true
	}

	logger := log.NewWithOptions(writer, log.Options{
		Level:           resolved.level,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
	})
	if resolved.json {
		logger.SetFormatter(log.JSONFormatter)
	}

	runtimeLogger := &RuntimeLogger{
		file:       file,
		path:       resolved.file,
		baseLogger: logger,
		runID:      resolved.runID,
	}
	runtimeLogger.rebuildLogger()
	if file != nil {
		runtimeLogger.Logger.With("log_file", resolved.file).Debug("logger initialized")
	}

	_ = ctx
	return runtimeLogger, nil
}

// WithRunID updates the run_id field for subsequent log records.
func (r *RuntimeLogger) WithRunID(runID string) *RuntimeLogger {
	if r == nil {
		return nil
	}
	r.runID = strings.TrimSpace(runID)
	r.rebuildLogger()
	return r
}

// SetLevel changes the minimum level for subsequent records.
func (r *RuntimeLogger) SetLevel(level log.Level) {
	if r == nil || r.baseLogger == nil {
		return
	}
	r.baseLogger.SetLevel(level)
	r.rebuildLogger()
}

// Close closes the log file, if one was opened.
func (r *RuntimeLogger) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	return r.file.Close()
}

// Path returns the log file path, or "" when logging to the console.
func (r *RuntimeLogger) Path() string {
	if r == nil {
		return ""
	}
	return r.path
}

// ParseLevel maps debug/info/warn/error to a log level.
func ParseLevel(value string) (log.Level, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return log.InfoLevel, nil
	}
	level, err := log.ParseLevel(value)
	if err != nil {
		return log.InfoLevel, fmt.Errorf("parse log level %q: %w", value, err)
	}
	return level, nil
}

// NewRunID returns a short identifier for correlating one invocation's records.
func NewRunID(now time.Time) string {
	return fmt.Sprintf("%s-%d", now.UTC().Format("20060102-150405"), os.Getpid())
}

func (r *RuntimeLogger) rebuildLogger() {
	if r == nil || r.baseLogger == nil {
		return
	}
	if r.runID == "" {
		r.Logger = r.baseLogger
		return
	}
	r.Logger = r.baseLogger.With("run_id", r.runID)
}

func resolveOptions(options []Option) newOptions {
	resolved := newOptions{
		writer: os.Stderr,
		level:  log.InfoLevel,
	}
	for _, option := range options {
		if option == nil {
			continue
		}
		option(&resolved)
	}
	return resolved
}
