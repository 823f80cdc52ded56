package app

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/dshills/xifront/internal/client"
	"github.com/dshills/xifront/internal/dispatch"
	"github.com/dshills/xifront/internal/input/keymap"
	"github.com/dshills/xifront/internal/renderer/backend"
	"github.com/dshills/xifront/internal/transport"
)

// Run starts the backend session and handles terminal events until the
// user quits, ctx is cancelled or the terminal goes away. A user quit is
// reported as ErrQuit.
func (app *Application) Run(ctx context.Context) error {
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	if err := app.term.Init(); err != nil {
		return &InitError{Stage: "terminal", Err: err}
	}
	defer app.term.Shutdown()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer app.shutdown()

	t, err := app.connect()
	if err != nil {
		return &InitError{Stage: "backend", Err: err}
	}

	cfg := app.Config()
	app.client = client.New(t, app.code, app.ast,
		client.WithDocument(cfg.Document),
		client.WithLogger(app.logger),
		client.WithDispatchOptions(
			dispatch.WithCapacity(cfg.Queue.Capacity),
			dispatch.WithTrafficLog(cfg.Logging.Traffic),
		),
	)
	if err := app.client.Start(ctx); err != nil {
		return &InitError{Stage: "session", Err: err}
	}

	app.startWatcher(cfg)
	app.redraw()

	return app.loop(ctx)
}

// connect returns the injected transport or starts the backend process.
func (app *Application) connect() (transport.Transport, error) {
	if app.opts.Transport != nil {
		return app.opts.Transport, nil
	}

	cfg := app.Config()
	cmd := exec.Command(cfg.Backend.Command, cfg.Backend.Args...)
	proc, err := app.supervisor.Start(filepath.Base(cfg.Backend.Command), cmd)
	if err != nil {
		return nil, err
	}
	app.logger.Info("started %s (pid %d, id %s)", proc.Name, proc.PID(), proc.ID)
	return transport.NewStdio(proc.Stdin, proc.Stdout, proc.Stderr), nil
}

func (app *Application) loop(ctx context.Context) error {
	events := make(chan backend.Event, 16)
	go func() {
		defer close(events)
		for {
			ev := app.term.PollEvent()
			if ev.Type == backend.EventClosed {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	disconnected := app.client.Disconnected()
	for {
		select {
		case <-ctx.Done():
			return nil

		case <-app.redraws:
			app.redraw()

		case <-disconnected:
			disconnected = nil
			app.disconnected.Store(true)
			app.logger.Warn("backend disconnected")
			app.redraw()

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := app.handleEvent(ctx, ev); err != nil {
				return err
			}
		}
	}
}

func (app *Application) handleEvent(ctx context.Context, ev backend.Event) error {
	switch ev.Type {
	case backend.EventKey:
		return app.handleKey(ctx, ev)
	case backend.EventResize, backend.EventInterrupt:
		app.redraw()
	}
	return nil
}

func (app *Application) handleKey(ctx context.Context, ev backend.Event) error {
	action, ok := app.keymap.Load().Lookup(ev)
	if !ok {
		app.logger.Debug("unbound key %s", keymap.FromEvent(ev))
		return nil
	}

	var err error
	switch action.Kind {
	case keymap.ActionQuit:
		return ErrQuit
	case keymap.ActionInsert:
		err = app.client.Type(ctx, action.Text)
	default:
		err = app.client.Command(ctx, action.Op)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		app.logger.Warn("send %s: %v", action, err)
	}
	return nil
}

// requestRedraw asks the event loop to repaint. Requests made while a
// repaint is pending are merged.
func (app *Application) requestRedraw() {
	select {
	case app.redraws <- struct{}{}:
	default:
	}
}

func (app *Application) redraw() {
	app.layout.SetStatus(app.status())
	app.layout.Draw(app.term)
}

func (app *Application) status() string {
	line, col := app.code.CaretLocation()
	s := fmt.Sprintf("%s  %d:%d", app.Config().Document, line+1, col+1)
	if start, length, ok := app.code.Selection(); ok {
		s += fmt.Sprintf("  sel %d+%d", start, length)
	}
	if app.disconnected.Load() {
		s += "  [backend disconnected]"
	}
	return s
}

// shutdown stops everything Run started: the watcher, the session and the
// backend process.
func (app *Application) shutdown() {
	if app.watcher != nil {
		if err := app.watcher.Close(); err != nil {
			app.logger.Warn("close config watcher: %v", err)
		}
		app.watcher = nil
	}

	if app.client != nil {
		if err := app.client.Close(); err != nil {
			app.logger.Warn("close session: %v", err)
		}
		app.logMetrics()
	}

	app.supervisor.Shutdown(app.Config().ShutdownTimeout())
	app.logger.Info("shutdown complete")
	app.closeLog()
}

func (app *Application) logMetrics() {
	s := app.client.Metrics().Snapshot()
	app.logger.Info("session metrics: sent=%d received=%d updates=%d ast=%d replies=%d unknown=%d malformed=%d violations=%d write_errors=%d diagnostics=%d avg=%v max=%v uptime=%v",
		s.Outbound, s.Inbound, s.Updates, s.AstDumps, s.Replies, s.Unknown,
		s.Malformed, s.ProtocolViolations, s.WriteErrors, s.Diagnostics,
		s.AvgHandle, s.MaxHandle, s.Uptime)
}
