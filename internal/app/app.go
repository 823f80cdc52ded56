// Package app wires configuration, the backend session and the terminal
// together and runs the interactive loop.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/dshills/xifront/internal/client"
	"github.com/dshills/xifront/internal/config"
	"github.com/dshills/xifront/internal/input/keymap"
	"github.com/dshills/xifront/internal/logging"
	"github.com/dshills/xifront/internal/plugin/lua"
	"github.com/dshills/xifront/internal/process"
	"github.com/dshills/xifront/internal/renderer"
	"github.com/dshills/xifront/internal/renderer/backend"
	"github.com/dshills/xifront/internal/transport"
)

// Options configures the application.
type Options struct {
	// ConfigPath is the configuration file. Empty means defaults and
	// environment only.
	ConfigPath string

	// Override adjusts the loaded configuration, for command line flags.
	// It runs after every load, including reloads.
	Override func(cfg *config.Config)

	// Backend is the terminal. Required.
	Backend backend.Backend

	// Transport, when set, is used instead of starting the backend process.
	Transport transport.Transport

	// LogOutput, when set, receives the log instead of the configured file.
	LogOutput io.Writer
}

// Application is the xifront front end.
type Application struct {
	opts   Options
	loader *config.Loader

	mu     sync.Mutex
	config *config.Config

	logger  *logging.Logger
	logFile *os.File

	keymap atomic.Pointer[keymap.Keymap]

	code   *renderer.TextView
	ast    *renderer.TextView
	layout *renderer.Layout
	term   backend.Backend

	supervisor *process.Supervisor
	client     *client.Client
	watcher    *config.Watcher

	redraws      chan struct{}
	running      atomic.Bool
	disconnected atomic.Bool
}

// New loads the configuration and builds everything that does not need
// the terminal or the backend process.
func New(opts Options) (*Application, error) {
	if opts.Backend == nil {
		return nil, &InitError{Stage: "terminal", Err: ErrNoBackend}
	}

	app := &Application{
		opts:       opts,
		loader:     config.NewLoader(),
		term:       opts.Backend,
		supervisor: process.NewSupervisor(),
		redraws:    make(chan struct{}, 1),
	}

	cfg, err := app.loadConfig()
	if err != nil {
		return nil, &InitError{Stage: "config", Err: err}
	}
	app.config = cfg

	if err := app.openLog(cfg); err != nil {
		return nil, &InitError{Stage: "logging", Err: err}
	}

	km, err := app.buildKeymap(context.Background(), cfg)
	if err != nil {
		app.closeLog()
		return nil, &InitError{Stage: "keymap", Err: err}
	}
	app.keymap.Store(km)

	palette, err := cfg.Theme().Resolve()
	if err != nil {
		app.closeLog()
		return nil, &InitError{Stage: "theme", Err: err}
	}

	app.code = renderer.NewTextView(renderer.WithChangeHandler(app.requestRedraw))
	app.ast = renderer.NewTextView(renderer.WithChangeHandler(app.requestRedraw))
	app.layout = renderer.NewLayout(app.code, app.ast, palette)
	app.layout.SetSplit(cfg.UI.Split)

	return app, nil
}

func (app *Application) loadConfig() (*config.Config, error) {
	cfg, err := app.loader.Load(app.opts.ConfigPath, app.opts.ConfigPath != "")
	if err != nil {
		return nil, err
	}
	if app.opts.Override != nil {
		app.opts.Override(cfg)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (app *Application) openLog(cfg *config.Config) error {
	out := app.opts.LogOutput
	if out == nil {
		out = os.Stderr
		if cfg.Logging.File != "" {
			f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			app.logFile = f
			out = f
		}
	}
	app.logger = logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.Logging.Level),
		Output: out,
		Prefix: "xifront",
	})
	return nil
}

func (app *Application) closeLog() {
	if app.logFile != nil {
		_ = app.logFile.Close()
		app.logFile = nil
	}
}

// buildKeymap layers config overrides and then the init script over the
// default bindings.
func (app *Application) buildKeymap(ctx context.Context, cfg *config.Config) (*keymap.Keymap, error) {
	km, err := cfg.BuildKeymap()
	if err != nil {
		return nil, err
	}
	if cfg.Script.Path == "" {
		return km, nil
	}

	host := lua.NewHost(
		lua.WithLogger(app.logger),
		lua.WithDocument(cfg.Document),
		lua.WithStateOptions(lua.WithTimeout(cfg.ScriptTimeout())),
	)
	defer host.Close()

	if err := host.RunFile(ctx, cfg.Script.Path); err != nil {
		return nil, err
	}
	if err := host.Apply(km); err != nil {
		return nil, err
	}
	return km, nil
}

// Config returns the active configuration.
func (app *Application) Config() *config.Config {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.config
}

// Keymap returns the active key bindings.
func (app *Application) Keymap() *keymap.Keymap {
	return app.keymap.Load()
}

// Logger returns the application logger.
func (app *Application) Logger() *logging.Logger {
	return app.logger
}

// CodeView returns the document pane.
func (app *Application) CodeView() *renderer.TextView {
	return app.code
}

// ASTView returns the syntax tree pane.
func (app *Application) ASTView() *renderer.TextView {
	return app.ast
}

// IsRunning reports whether Run is in progress.
func (app *Application) IsRunning() bool {
	return app.running.Load()
}
