package process

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Supervisor errors.
var (
	// ErrNotFound is returned for an unknown process id.
	ErrNotFound = errors.New("process not found")

	// ErrShutdown is returned when starting a process after Shutdown.
	ErrShutdown = errors.New("supervisor is shutting down")
)

// Supervisor tracks child processes until they exit. It is safe for
// concurrent use.
type Supervisor struct {
	mu        sync.RWMutex
	processes map[string]*Process
	closed    atomic.Bool

	onExit func(p *Process)
}

// SupervisorOption configures a Supervisor.
type SupervisorOption func(*Supervisor)

// WithExitCallback is called, from a supervisor goroutine, whenever a
// tracked process exits.
func WithExitCallback(fn func(p *Process)) SupervisorOption {
	return func(s *Supervisor) {
		s.onExit = fn
	}
}

// NewSupervisor creates a supervisor.
func NewSupervisor(opts ...SupervisorOption) *Supervisor {
	s := &Supervisor{processes: make(map[string]*Process)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start pipes cmd's standard streams, starts it and tracks it under a new
// random id.
func (s *Supervisor) Start(name string, cmd *exec.Cmd) (*Process, error) {
	return s.StartWithID(uuid.NewString(), name, cmd)
}

// StartWithID is Start with a caller-chosen id.
func (s *Supervisor) StartWithID(id, name string, cmd *exec.Cmd) (*Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return nil, ErrShutdown
	}
	if _, exists := s.processes[id]; exists {
		return nil, fmt.Errorf("process id already in use: %s", id)
	}

	proc := newProcess(id, name, cmd)

	var opened []interface{ Close() error }
	cleanup := func() {
		for _, c := range opened {
			_ = c.Close()
		}
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdin pipe: %w", err)
	}
	opened = append(opened, stdin)
	proc.Stdin = stdin

	// Stdout and stderr use pipes owned here rather than by exec.Cmd, so
	// reaping the process does not close them while data is unread.
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("create stdout pipe: %w", err)
	}
	opened = append(opened, stdoutR, stdoutW)
	cmd.Stdout = stdoutW
	proc.Stdout = stdoutR

	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("create stderr pipe: %w", err)
	}
	opened = append(opened, stderrR, stderrW)
	cmd.Stderr = stderrW
	proc.Stderr = stderrR

	if err := proc.start(); err != nil {
		cleanup()
		return nil, err
	}
	// The child holds its own copies of the write ends.
	_ = stdoutW.Close()
	_ = stderrW.Close()

	s.processes[id] = proc
	go s.monitor(proc)

	return proc, nil
}

func (s *Supervisor) monitor(proc *Process) {
	<-proc.Done()

	if s.onExit != nil {
		func() {
			defer func() { _ = recover() }()
			s.onExit(proc)
		}()
	}

	s.mu.Lock()
	delete(s.processes, proc.ID)
	s.mu.Unlock()
}

// Get returns the process with the given id, or nil.
func (s *Supervisor) Get(id string) *Process {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.processes[id]
}

// Count returns the number of tracked processes.
func (s *Supervisor) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.processes)
}

// Terminate sends SIGTERM to the process with the given id.
func (s *Supervisor) Terminate(id string) error {
	proc := s.Get(id)
	if proc == nil {
		return ErrNotFound
	}
	if !proc.IsRunning() {
		return nil
	}
	return proc.Terminate()
}

// Shutdown refuses new processes, sends SIGTERM to every tracked process,
// and kills whatever is still running after timeout. It returns once all of
// them have exited.
func (s *Supervisor) Shutdown(timeout time.Duration) {
	if s.closed.Swap(true) {
		return
	}

	s.mu.RLock()
	procs := make([]*Process, 0, len(s.processes))
	for _, p := range s.processes {
		procs = append(procs, p)
	}
	s.mu.RUnlock()

	for _, p := range procs {
		if p.IsRunning() {
			_ = p.Terminate()
		}
	}

	done := make(chan struct{})
	go func() {
		for _, p := range procs {
			<-p.Done()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		for _, p := range procs {
			if p.IsRunning() {
				_ = p.Kill()
			}
		}
		<-done
	}
}

// IsShuttingDown reports whether Shutdown has been called.
func (s *Supervisor) IsShuttingDown() bool {
	return s.closed.Load()
}
