package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/dshills/xifront/internal/input/keymap"
	"github.com/dshills/xifront/internal/logging"
	"github.com/dshills/xifront/internal/renderer"
)

// Config holds every xifront setting.
type Config struct {
	Backend  BackendConfig     `toml:"backend" yaml:"backend"`
	Document string            `toml:"document" yaml:"document"`
	Queue    QueueConfig       `toml:"queue" yaml:"queue"`
	Logging  LoggingConfig     `toml:"logging" yaml:"logging"`
	UI       UIConfig          `toml:"ui" yaml:"ui"`
	Keymap   map[string]string `toml:"keymap" yaml:"keymap"`
	Script   ScriptConfig      `toml:"script" yaml:"script"`

	// Path is the file the config was loaded from, if any.
	Path string `toml:"-" yaml:"-"`
}

// BackendConfig describes the backend process.
type BackendConfig struct {
	Command string   `toml:"command" yaml:"command"`
	Args    []string `toml:"args" yaml:"args"`
	// ShutdownTimeoutMS is how long the backend gets to exit after SIGTERM
	// before it is killed.
	ShutdownTimeoutMS int `toml:"shutdown_timeout_ms" yaml:"shutdown_timeout_ms"`
}

// QueueConfig sizes the dispatcher intake.
type QueueConfig struct {
	Capacity int `toml:"capacity" yaml:"capacity"`
}

// LoggingConfig controls the log file.
type LoggingConfig struct {
	Level string `toml:"level" yaml:"level"`
	// File receives the log. Empty means standard error.
	File string `toml:"file" yaml:"file"`
	// Traffic logs every line exchanged with the backend at debug level.
	Traffic bool `toml:"traffic" yaml:"traffic"`
}

// UIConfig controls presentation.
type UIConfig struct {
	// Split is the share of the width given to the code pane.
	Split float64     `toml:"split" yaml:"split"`
	Theme ThemeConfig `toml:"theme" yaml:"theme"`
}

// ThemeConfig overrides theme colours. Empty fields keep the built-in
// colour.
type ThemeConfig struct {
	Foreground string `toml:"foreground" yaml:"foreground"`
	Background string `toml:"background" yaml:"background"`
	Selection  string `toml:"selection" yaml:"selection"`
	AST        string `toml:"ast" yaml:"ast"`
	Divider    string `toml:"divider" yaml:"divider"`
	Status     string `toml:"status" yaml:"status"`
}

// ScriptConfig names an optional Lua init script.
type ScriptConfig struct {
	Path      string `toml:"path" yaml:"path"`
	TimeoutMS int    `toml:"timeout_ms" yaml:"timeout_ms"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			Command:           "xi-core",
			ShutdownTimeoutMS: 2000,
		},
		Document: "example.json",
		Queue:    QueueConfig{Capacity: 64},
		Logging: LoggingConfig{
			Level: "info",
			File:  "xifront.log",
		},
		UI:     UIConfig{Split: renderer.DefaultSplit},
		Keymap: map[string]string{},
		Script: ScriptConfig{TimeoutMS: 1000},
	}
}

// ShutdownTimeout returns Backend.ShutdownTimeoutMS as a duration.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Backend.ShutdownTimeoutMS) * time.Millisecond
}

// ScriptTimeout returns Script.TimeoutMS as a duration.
func (c *Config) ScriptTimeout() time.Duration {
	return time.Duration(c.Script.TimeoutMS) * time.Millisecond
}

// Theme merges the configured colours over the built-in theme.
func (c *Config) Theme() renderer.Theme {
	t := renderer.DefaultTheme()
	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&t.Foreground, c.UI.Theme.Foreground)
	override(&t.Background, c.UI.Theme.Background)
	override(&t.Selection, c.UI.Theme.Selection)
	override(&t.AST, c.UI.Theme.AST)
	override(&t.Divider, c.UI.Theme.Divider)
	override(&t.Status, c.UI.Theme.Status)
	return t
}

// BuildKeymap returns the default bindings with the configured overrides
// applied.
func (c *Config) BuildKeymap() (*keymap.Keymap, error) {
	m := keymap.Default()
	if err := m.Apply(c.Keymap); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks every setting and reports all failures.
func (c *Config) Validate() error {
	var errs []error
	src := c.Path

	if c.Backend.Command == "" {
		errs = append(errs, invalid("backend.command", src, "must not be empty"))
	}
	if c.Backend.ShutdownTimeoutMS < 0 {
		errs = append(errs, invalid("backend.shutdown_timeout_ms", src, "must not be negative, got %d", c.Backend.ShutdownTimeoutMS))
	}
	if c.Document == "" {
		errs = append(errs, invalid("document", src, "must not be empty"))
	}
	if c.Queue.Capacity < 1 {
		errs = append(errs, invalid("queue.capacity", src, "must be at least 1, got %d", c.Queue.Capacity))
	}
	if !logging.ValidLevel(c.Logging.Level) {
		errs = append(errs, invalid("logging.level", src, "unknown level %q", c.Logging.Level))
	}
	if c.UI.Split <= 0 || c.UI.Split > 1 {
		errs = append(errs, invalid("ui.split", src, "must be in (0, 1], got %v", c.UI.Split))
	}
	if _, err := c.Theme().Resolve(); err != nil {
		errs = append(errs, &ValidationError{Field: "ui.theme", Source: src, Err: fmt.Errorf("%w: %v", ErrInvalidValue, err)})
	}
	if _, err := c.BuildKeymap(); err != nil {
		errs = append(errs, &ValidationError{Field: "keymap", Source: src, Err: fmt.Errorf("%w: %v", ErrInvalidValue, err)})
	}
	if c.Script.TimeoutMS < 0 {
		errs = append(errs, invalid("script.timeout_ms", src, "must not be negative, got %d", c.Script.TimeoutMS))
	}

	return errors.Join(errs...)
}
