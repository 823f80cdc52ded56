package transport

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
)

// Stdio is a Transport over a child process's standard streams.
type Stdio struct {
	stdin  io.WriteCloser
	w      *bufio.Writer
	stdout io.ReadCloser
	stderr io.ReadCloser

	closed atomic.Bool
}

// NewStdio wraps the pipes of a started process.
func NewStdio(stdin io.WriteCloser, stdout, stderr io.ReadCloser) *Stdio {
	return &Stdio{
		stdin:  stdin,
		w:      bufio.NewWriter(stdin),
		stdout: stdout,
		stderr: stderr,
	}
}

// WriteLine implements Transport.
func (s *Stdio) WriteLine(line []byte) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := checkLine(line); err != nil {
		return err
	}

	if _, err := s.w.Write(line); err != nil {
		return fmt.Errorf("write line: %w", err)
	}
	if err := s.w.WriteByte('\n'); err != nil {
		return fmt.Errorf("write newline: %w", err)
	}
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

// Replies implements Transport.
func (s *Stdio) Replies() io.Reader {
	return s.stdout
}

// Diagnostics implements Transport.
func (s *Stdio) Diagnostics() io.Reader {
	return s.stderr
}

// Close closes stdin, which tells the backend to exit, and then the read
// pipes so blocked readers return.
func (s *Stdio) Close() error {
	if s.closed.Swap(true) {
		return nil
	}

	var errs []error
	if err := s.stdin.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close stdin: %w", err))
	}
	if s.stdout != nil {
		if err := s.stdout.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close stdout: %w", err))
		}
	}
	if s.stderr != nil {
		if err := s.stderr.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close stderr: %w", err))
		}
	}
	return errors.Join(errs...)
}
