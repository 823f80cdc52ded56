package transport

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"
)

// Pipe is an in-memory Transport whose far end is driven by the caller. It
// stands in for a backend process in tests.
type Pipe struct {
	commands chan string

	replyR *io.PipeReader
	replyW *io.PipeWriter
	diagR  *io.PipeReader
	diagW  *io.PipeWriter

	closed atomic.Bool
}

// NewPipe creates a Pipe. Up to buffer written lines are held until read
// with Commands; further writes block.
func NewPipe(buffer int) *Pipe {
	p := &Pipe{commands: make(chan string, buffer)}
	p.replyR, p.replyW = io.Pipe()
	p.diagR, p.diagW = io.Pipe()
	return p
}

// WriteLine implements Transport.
func (p *Pipe) WriteLine(line []byte) error {
	if p.closed.Load() {
		return ErrClosed
	}
	if err := checkLine(line); err != nil {
		return err
	}
	p.commands <- string(line)
	return nil
}

// Replies implements Transport.
func (p *Pipe) Replies() io.Reader {
	return p.replyR
}

// Diagnostics implements Transport.
func (p *Pipe) Diagnostics() io.Reader {
	return p.diagR
}

// Close implements Transport.
func (p *Pipe) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	p.replyR.Close()
	p.diagR.Close()
	return nil
}

// Commands returns the lines written by the client, in order.
func (p *Pipe) Commands() <-chan string {
	return p.commands
}

// NextCommand waits up to timeout for the next written line.
func (p *Pipe) NextCommand(timeout time.Duration) (string, error) {
	select {
	case line := <-p.commands:
		return line, nil
	case <-time.After(timeout):
		return "", fmt.Errorf("no command within %v", timeout)
	}
}

// Reply sends a line on the reply stream. It blocks until the line is read.
func (p *Pipe) Reply(line string) error {
	_, err := io.WriteString(p.replyW, line+"\n")
	return err
}

// Diagnose sends a line on the diagnostic stream.
func (p *Pipe) Diagnose(line string) error {
	_, err := io.WriteString(p.diagW, line+"\n")
	return err
}

// Hangup ends both read streams as if the backend had exited.
func (p *Pipe) Hangup() {
	p.replyW.Close()
	p.diagW.Close()
}
