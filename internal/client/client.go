// Package client runs a session with the backend: it connects a transport
// to a dispatcher, opens the document and accepts editing commands.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/xifront/internal/dispatch"
	"github.com/dshills/xifront/internal/logging"
	"github.com/dshills/xifront/internal/rpc"
	"github.com/dshills/xifront/internal/transport"
)

// DefaultDocument is opened when no document is configured.
const DefaultDocument = "example.json"

// Errors returned by the client.
var (
	// ErrNotStarted is returned by commands sent before Start.
	ErrNotStarted = errors.New("client not started")

	// ErrAlreadyStarted is returned by a second call to Start.
	ErrAlreadyStarted = errors.New("client already started")

	// ErrClosed is returned by commands sent after Close.
	ErrClosed = errors.New("client closed")
)

// Client is a session with the backend.
type Client struct {
	transport  transport.Transport
	dispatcher *dispatch.Dispatcher
	logger     *logging.Logger
	document   string

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group

	started      atomic.Bool
	closed       atomic.Bool
	disconnected chan struct{}

	closeOnce sync.Once
	closeErr  error
}

type options struct {
	document string
	logger   *logging.Logger
	dispatch []dispatch.Option
}

// Option configures a Client.
type Option func(*options)

// WithDocument sets the path opened at startup.
func WithDocument(path string) Option {
	return func(o *options) {
		if path != "" {
			o.document = path
		}
	}
}

// WithLogger sets the logger for the client and its dispatcher.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithDispatchOptions passes options through to the dispatcher.
func WithDispatchOptions(opts ...dispatch.Option) Option {
	return func(o *options) {
		o.dispatch = append(o.dispatch, opts...)
	}
}

// New creates a client that talks over t and pushes document state to doc
// and syntax tree dumps to ast.
func New(t transport.Transport, doc dispatch.DocumentSink, ast dispatch.TextSink, opts ...Option) *Client {
	o := options{
		document: DefaultDocument,
		logger:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	dopts := append([]dispatch.Option{dispatch.WithLogger(o.logger)}, o.dispatch...)

	return &Client{
		transport:    t,
		dispatcher:   dispatch.New(t, doc, ast, dopts...),
		logger:       o.logger.WithComponent("client"),
		document:     o.document,
		disconnected: make(chan struct{}),
	}
}

// Start launches the dispatcher and the stream readers, then queues the
// startup sequence: a new tab followed by opening the document. Commands
// sent after Start returns are ordered after the startup sequence.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.closed.Load() {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.started.Load() {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}

	// The group only joins: a failing reader must not stop the dispatcher.
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.group = new(errgroup.Group)

	c.group.Go(func() error {
		return c.dispatcher.Run(c.ctx)
	})
	c.group.Go(func() error {
		defer close(c.disconnected)
		err := c.readStream("replies", c.transport.Replies(), func(line string) dispatch.Event {
			return dispatch.Inbound{Line: line}
		})
		c.logger.Info("backend reply stream ended")
		return err
	})
	c.group.Go(func() error {
		return c.readStream("diagnostics", c.transport.Diagnostics(), func(line string) dispatch.Event {
			return dispatch.Diagnostic{Text: line}
		})
	})
	c.started.Store(true)
	c.mu.Unlock()

	for _, req := range []rpc.Request{rpc.NewTab(), rpc.Open(c.document)} {
		if err := c.dispatcher.Enqueue(ctx, dispatch.Outbound{Request: req}); err != nil {
			return fmt.Errorf("startup %s: %w", req.Method, err)
		}
	}
	c.logger.Info("session started, document %s", c.document)
	return nil
}

func (c *Client) readStream(name string, r io.Reader, wrap func(string) dispatch.Event) error {
	err := transport.ReadLines(r, func(line string) error {
		return c.dispatcher.Enqueue(c.ctx, wrap(line))
	})
	switch {
	case err == nil,
		transport.IsClosed(err),
		errors.Is(err, context.Canceled),
		errors.Is(err, dispatch.ErrStopped):
		return nil
	default:
		c.logger.Error("read %s: %v", name, err)
		return fmt.Errorf("read %s: %w", name, err)
	}
}

// Type inserts chars at the caret. Empty input sends nothing.
func (c *Client) Type(ctx context.Context, chars string) error {
	if chars == "" {
		return nil
	}
	return c.Send(ctx, rpc.Insert(chars))
}

// Command sends a parameterless edit command such as rpc.OpMoveLeft.
func (c *Client) Command(ctx context.Context, op string) error {
	return c.Send(ctx, rpc.Simple(op))
}

// Send queues req for the backend, blocking while the intake is full.
func (c *Client) Send(ctx context.Context, req rpc.Request) error {
	if !c.started.Load() {
		return ErrNotStarted
	}
	if c.closed.Load() {
		return ErrClosed
	}
	err := c.dispatcher.Enqueue(ctx, dispatch.Outbound{Request: req})
	if errors.Is(err, dispatch.ErrStopped) {
		return ErrClosed
	}
	return err
}

// Disconnected is closed when the backend's reply stream ends.
func (c *Client) Disconnected() <-chan struct{} {
	return c.disconnected
}

// Done is closed when the dispatcher has stopped.
func (c *Client) Done() <-chan struct{} {
	return c.dispatcher.Stopped()
}

// Metrics returns the dispatcher's counters.
func (c *Client) Metrics() *dispatch.Metrics {
	return c.dispatcher.Metrics()
}

// Pending returns the number of queued events.
func (c *Client) Pending() int {
	return c.dispatcher.Pending()
}

// Close stops the dispatcher, closes the transport and waits for every
// goroutine started by Start. Queued events are discarded. It is safe to
// call more than once.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		c.closed.Store(true)
		if !c.started.Load() {
			c.closeErr = c.transport.Close()
			return
		}

		c.cancel()
		terr := c.transport.Close()
		if transport.IsClosed(terr) {
			terr = nil
		}
		werr := c.group.Wait()
		c.closeErr = errors.Join(terr, werr)
		c.logger.Info("session closed")
	})
	return c.closeErr
}
