// Package transport moves newline-framed text between the client and the
// backend process.
//
// A Transport has one write side, used only by the dispatcher, and two read
// sides: replies (JSON lines) and diagnostics (free text). ReadLines turns a
// read side into a push-based stream of lines.
package transport

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
)

// MaxLineSize bounds a single line read from the backend.
const MaxLineSize = 1024 * 1024

// Errors returned by transports.
var (
	// ErrClosed indicates the transport has been closed.
	ErrClosed = errors.New("transport closed")

	// ErrEmbeddedNewline indicates a line that would break framing.
	ErrEmbeddedNewline = errors.New("line contains a newline")
)

// Transport is a line-framed connection to the backend.
type Transport interface {
	// WriteLine writes line followed by a newline and flushes it.
	// It must only be called from a single goroutine.
	WriteLine(line []byte) error

	// Replies returns the stream of JSON lines from the backend.
	Replies() io.Reader

	// Diagnostics returns the backend's diagnostic stream.
	Diagnostics() io.Reader

	// Close closes the write side and releases the read sides.
	Close() error
}

// ReadLines calls emit with every line read from r, as soon as each one is
// terminated. A line longer than MaxLineSize is cut to MaxLineSize bytes
// and the rest of it, up to the newline, is discarded. ReadLines returns nil
// at end of stream, emit's error if emit fails, or the read error otherwise.
func ReadLines(r io.Reader, emit func(line string) error) error {
	br := bufio.NewReaderSize(r, 64*1024)
	var line []byte

	for {
		chunk, err := br.ReadSlice('\n')
		if room := MaxLineSize - len(line); room > 0 {
			line = append(line, chunk[:min(len(chunk), room)]...)
		}

		switch {
		case err == nil:
			if err := emit(trimEOL(line)); err != nil {
				return err
			}
			line = line[:0]
		case errors.Is(err, bufio.ErrBufferFull):
		case errors.Is(err, io.EOF):
			if len(line) > 0 {
				return emit(trimEOL(line))
			}
			return nil
		default:
			return err
		}
	}
}

func trimEOL(line []byte) string {
	line = bytes.TrimSuffix(line, []byte{'\n'})
	line = bytes.TrimSuffix(line, []byte{'\r'})
	return string(line)
}

// IsClosed reports whether err comes from reading a stream that was closed
// locally rather than ended by the backend.
func IsClosed(err error) bool {
	return errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, os.ErrClosed) ||
		errors.Is(err, fs.ErrClosed) ||
		errors.Is(err, ErrClosed)
}

func checkLine(line []byte) error {
	for _, c := range line {
		if c == '\n' {
			return ErrEmbeddedNewline
		}
	}
	return nil
}
