package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/xifront/internal/logging"
	"github.com/dshills/xifront/internal/reconcile"
	"github.com/dshills/xifront/internal/rpc"
)

// DefaultCapacity is the number of events the intake holds before
// producers block.
const DefaultCapacity = 64

// Errors returned by the dispatcher.
var (
	// ErrStopped is returned by Enqueue once Run has returned.
	ErrStopped = errors.New("dispatcher stopped")

	// ErrAlreadyRunning is returned by a second call to Run.
	ErrAlreadyRunning = errors.New("dispatcher already running")
)

// Dispatcher is the single consumer of the event intake.
type Dispatcher struct {
	intake chan Event

	writer LineWriter
	doc    DocumentSink
	ast    TextSink

	// Owned by the Run goroutine.
	encoder *rpc.Encoder

	capacity   int
	traffic    bool
	logger     *logging.Logger
	backendLog *logging.Logger
	metrics    *Metrics

	running  atomic.Bool
	stopped  chan struct{}
	stopOnce sync.Once
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithCapacity sets the intake capacity. Values below 1 are ignored.
func WithCapacity(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.capacity = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithTrafficLog logs every line sent and received at debug level.
func WithTrafficLog(enabled bool) Option {
	return func(d *Dispatcher) {
		d.traffic = enabled
	}
}

// WithMetrics records counters into m.
func WithMetrics(m *Metrics) Option {
	return func(d *Dispatcher) {
		if m != nil {
			d.metrics = m
		}
	}
}

// New creates a dispatcher that writes commands to w and pushes document
// state to doc and syntax tree dumps to ast.
func New(w LineWriter, doc DocumentSink, ast TextSink, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		writer:   w,
		doc:      doc,
		ast:      ast,
		encoder:  rpc.NewEncoder(),
		capacity: DefaultCapacity,
		logger:   logging.Nop(),
		metrics:  NewMetrics(),
		stopped:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.intake = make(chan Event, d.capacity)
	d.backendLog = d.logger.WithComponent("backend")
	d.logger = d.logger.WithComponent("dispatch")
	return d
}

// Enqueue adds ev to the intake, blocking while it is full. It reports
// ErrStopped for an event that entered the intake after the loop stopped.
func (d *Dispatcher) Enqueue(ctx context.Context, ev Event) error {
	select {
	case <-d.stopped:
		return ErrStopped
	default:
	}

	select {
	case d.intake <- ev:
		select {
		case <-d.stopped:
			return ErrStopped
		default:
			return nil
		}
	case <-ctx.Done():
		return ctx.Err()
	case <-d.stopped:
		return ErrStopped
	}
}

// Pending returns the number of queued events.
func (d *Dispatcher) Pending() int {
	return len(d.intake)
}

// Capacity returns the intake capacity.
func (d *Dispatcher) Capacity() int {
	return d.capacity
}

// Metrics returns the dispatcher's counters.
func (d *Dispatcher) Metrics() *Metrics {
	return d.metrics
}

// Stopped is closed when Run returns.
func (d *Dispatcher) Stopped() <-chan struct{} {
	return d.stopped
}

// Run consumes events until ctx is cancelled. Events still queued at that
// point are discarded. Failures while handling one event are logged and do
// not stop the loop.
func (d *Dispatcher) Run(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer d.stopOnce.Do(func() { close(d.stopped) })

	for {
		select {
		case <-ctx.Done():
			if n := len(d.intake); n > 0 {
				d.logger.Debug("stopping with %d queued events", n)
			}
			return nil
		case ev := <-d.intake:
			start := time.Now()
			if err := d.dispatch(ev); err != nil {
				d.report(ev, err)
			}
			d.metrics.recordHandle(time.Since(start))
		}
	}
}

func (d *Dispatcher) report(ev Event, err error) {
	switch {
	case errors.Is(err, rpc.ErrTabMismatch):
		d.logger.Error("protocol violation, notification dropped: %v", err)
	case errors.Is(err, rpc.ErrMalformedPayload):
		d.logger.Warn("dropping inbound line: %v", err)
	default:
		d.logger.Error("%s event: %v", ev.Kind(), err)
	}
}

// dispatch handles one event.
func (d *Dispatcher) dispatch(ev Event) error {
	switch e := ev.(type) {
	case Diagnostic:
		d.metrics.diagnostics.Add(1)
		d.backendLog.Warn("%s", e.Text)
		return nil
	case Inbound:
		d.metrics.inbound.Add(1)
		return d.handleInbound(e.Line)
	case Outbound:
		return d.handleOutbound(e.Request)
	default:
		return fmt.Errorf("unsupported event %T", ev)
	}
}

func (d *Dispatcher) handleInbound(line string) error {
	if d.traffic {
		d.logger.Debug("<- %s", line)
	}

	msg, err := rpc.Decode([]byte(line))
	if err != nil {
		d.metrics.malformed.Add(1)
		return err
	}

	switch m := msg.(type) {
	case rpc.Update:
		if err := m.CheckTab(); err != nil {
			d.metrics.violations.Add(1)
			return err
		}
		d.apply(reconcile.Reconcile(m.Ops))
		d.metrics.updates.Add(1)
	case rpc.AstDump:
		d.ast.SetText(m.AST)
		d.metrics.astDumps.Add(1)
	case rpc.Reply:
		d.metrics.replies.Add(1)
		if m.Error != "" {
			d.logger.Warn("command %d failed: %s", m.ID, m.Error)
		} else {
			d.logger.Debug("command %d acknowledged", m.ID)
		}
	case rpc.Unknown:
		d.metrics.unknown.Add(1)
		d.logger.Debug("ignoring %q notification", m.Method)
	}
	return nil
}

func (d *Dispatcher) apply(state reconcile.DocumentState) {
	d.doc.SetText(state.Text)
	d.doc.SetCaretPosition(state.CursorPosition)
	if state.Selection != nil {
		d.doc.SetSelection(state.Selection.Start, state.Selection.Length)
	}
}

func (d *Dispatcher) handleOutbound(req rpc.Request) error {
	cmd, line, err := d.encoder.EncodeNext(req)
	if err != nil {
		return fmt.Errorf("encode %s: %w", req.Method, err)
	}
	if d.traffic {
		d.logger.Debug("-> %s", line)
	}

	if err := d.writer.WriteLine(line); err != nil {
		d.metrics.writeErrors.Add(1)
		return fmt.Errorf("write command %d (%s): %w", cmd.ID, cmd.Method, err)
	}
	d.encoder.Commit()
	d.metrics.outbound.Add(1)
	return nil
}
