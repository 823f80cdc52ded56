package app

import (
	"context"
	"slices"

	"github.com/dshills/xifront/internal/config"
	"github.com/dshills/xifront/internal/logging"
)

func (app *Application) startWatcher(cfg *config.Config) {
	if cfg.Path == "" {
		return
	}

	w, err := config.NewWatcher(cfg.Path, func(string) {
		if err := app.Reload(); err != nil {
			app.logger.Warn("config reload: %v", err)
		}
	}, config.WithErrorHandler(func(err error) {
		app.logger.Warn("config watcher: %v", err)
	}))
	if err != nil {
		app.logger.Warn("watch %s: %v", cfg.Path, err)
		return
	}
	app.watcher = w
	app.logger.Debug("watching %s", w.Path())
}

// Reload re-reads the configuration and swaps in the new key bindings,
// theme, split and log level. Nothing changes if any part fails.
// The running session keeps its backend, document, queue and log
// destination; changes to those take effect on the next start.
func (app *Application) Reload() error {
	cfg, err := app.loadConfig()
	if err != nil {
		return err
	}
	old := app.Config()
	pending := keepSession(cfg, old)

	km, err := app.buildKeymap(context.Background(), cfg)
	if err != nil {
		return err
	}

	palette, err := cfg.Theme().Resolve()
	if err != nil {
		return err
	}

	app.mu.Lock()
	app.config = cfg
	app.mu.Unlock()

	if pending {
		app.logger.Info("backend, document, queue and log file changes apply after restart")
	}

	app.keymap.Store(km)
	app.logger.SetLevel(logging.ParseLevel(cfg.Logging.Level))
	app.layout.SetSplit(cfg.UI.Split)
	app.layout.SetPalette(palette)
	app.logger.Info("configuration reloaded: %d bindings", km.Len())
	app.requestRedraw()
	return nil
}

// keepSession copies the settings fixed at session start from old into
// cfg and reports whether cfg asked to change any of them.
func keepSession(cfg, old *config.Config) bool {
	changed := cfg.Backend.Command != old.Backend.Command ||
		!slices.Equal(cfg.Backend.Args, old.Backend.Args) ||
		cfg.Backend.ShutdownTimeoutMS != old.Backend.ShutdownTimeoutMS ||
		cfg.Document != old.Document ||
		cfg.Queue != old.Queue ||
		cfg.Logging.File != old.Logging.File ||
		cfg.Logging.Traffic != old.Logging.Traffic

	cfg.Backend = old.Backend
	cfg.Document = old.Document
	cfg.Queue = old.Queue
	cfg.Logging.File = old.Logging.File
	cfg.Logging.Traffic = old.Logging.Traffic
	return changed
}
