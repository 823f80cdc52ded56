package transport

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

// nopReadCloser adapts a reader for NewStdio.
type nopReadCloser struct {
	io.Reader
	closed bool
}

func (r *nopReadCloser) Close() error {
	r.closed = true
	return nil
}

func TestReadLines(t *testing.T) {
	var got []string
	err := ReadLines(strings.NewReader("one\ntwo\r\n\nthree"), func(line string) error {
		got = append(got, line)
		return nil
	})
	if err != nil {
		t.Fatalf("ReadLines() error = %v", err)
	}

	want := []string{"one", "two", "", "three"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("lines = %q, want %q", got, want)
	}
}

func TestReadLines_EmitErrorStops(t *testing.T) {
	stop := errors.New("stop")
	calls := 0
	err := ReadLines(strings.NewReader("a\nb\nc\n"), func(string) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) {
		t.Errorf("ReadLines() error = %v, want stop", err)
	}
	if calls != 1 {
		t.Errorf("emit called %d times, want 1", calls)
	}
}

func TestReadLines_LongLineIsCut(t *testing.T) {
	input := strings.Repeat("x", 2*MaxLineSize+10) + "\nnext\n"

	var got []string
	err := ReadLines(strings.NewReader(input), func(line string) error {
		got = append(got, line)
		return nil
	})
	if err != nil {
		t.Fatalf("ReadLines() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("read %d lines, want 2", len(got))
	}
	if len(got[0]) != MaxLineSize || strings.Trim(got[0], "x") != "" {
		t.Errorf("long line length = %d, want %d", len(got[0]), MaxLineSize)
	}
	if got[1] != "next" {
		t.Errorf("line after long line = %q, want next", got[1])
	}
}

func TestReadLines_LongFinalLine(t *testing.T) {
	var got []string
	err := ReadLines(strings.NewReader(strings.Repeat("y", MaxLineSize+1)), func(line string) error {
		got = append(got, line)
		return nil
	})
	if err != nil {
		t.Fatalf("ReadLines() error = %v", err)
	}
	if len(got) != 1 || len(got[0]) != MaxLineSize {
		t.Errorf("got %d lines, want one line of %d bytes", len(got), MaxLineSize)
	}
}

func TestReadLines_PushesBeforeEOF(t *testing.T) {
	r, w := io.Pipe()
	lines := make(chan string, 1)
	go ReadLines(r, func(line string) error {
		lines <- line
		return nil
	})

	go io.WriteString(w, "first\n")

	select {
	case got := <-lines:
		if got != "first" {
			t.Errorf("line = %q, want first", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("line was not delivered before end of stream")
	}
	w.Close()
}

func TestStdio_WriteLine(t *testing.T) {
	r, w := io.Pipe()
	s := NewStdio(w, &nopReadCloser{Reader: strings.NewReader("")}, &nopReadCloser{Reader: strings.NewReader("")})

	done := make(chan string, 1)
	go func() {
		line, _ := bufio.NewReader(r).ReadString('\n')
		done <- line
	}()

	if err := s.WriteLine([]byte(`{"id":0}`)); err != nil {
		t.Fatalf("WriteLine() error = %v", err)
	}

	select {
	case got := <-done:
		if got != "{\"id\":0}\n" {
			t.Errorf("wrote %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("line was not flushed")
	}
}

func TestStdio_RejectsNewline(t *testing.T) {
	_, w := io.Pipe()
	s := NewStdio(w, nil, nil)

	if err := s.WriteLine([]byte("a\nb")); !errors.Is(err, ErrEmbeddedNewline) {
		t.Errorf("WriteLine() error = %v, want ErrEmbeddedNewline", err)
	}
}

func TestStdio_Close(t *testing.T) {
	_, w := io.Pipe()
	stdout := &nopReadCloser{Reader: strings.NewReader("")}
	stderr := &nopReadCloser{Reader: strings.NewReader("")}
	s := NewStdio(w, stdout, stderr)

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !stdout.closed || !stderr.closed {
		t.Error("read pipes not closed")
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := s.WriteLine([]byte("x")); !errors.Is(err, ErrClosed) {
		t.Errorf("WriteLine() after Close = %v, want ErrClosed", err)
	}
}

func TestPipe_RoundTrip(t *testing.T) {
	p := NewPipe(4)
	defer p.Close()

	if err := p.WriteLine([]byte("cmd")); err != nil {
		t.Fatalf("WriteLine() error = %v", err)
	}
	got, err := p.NextCommand(time.Second)
	if err != nil || got != "cmd" {
		t.Errorf("NextCommand() = %q, %v", got, err)
	}

	lines := make(chan string, 2)
	go ReadLines(p.Replies(), func(line string) error {
		lines <- line
		return nil
	})
	if err := p.Reply(`{"method":"x"}`); err != nil {
		t.Fatalf("Reply() error = %v", err)
	}
	if got := <-lines; got != `{"method":"x"}` {
		t.Errorf("reply line = %q", got)
	}
}

func TestPipe_HangupEndsStreams(t *testing.T) {
	p := NewPipe(1)
	p.Hangup()

	err := ReadLines(p.Replies(), func(string) error { return nil })
	if err != nil {
		t.Errorf("ReadLines() after hangup = %v, want nil", err)
	}
}

func TestPipe_CloseReleasesReaders(t *testing.T) {
	p := NewPipe(1)

	done := make(chan error, 1)
	go func() {
		done <- ReadLines(p.Diagnostics(), func(string) error { return nil })
	}()

	p.Close()
	select {
	case err := <-done:
		if !IsClosed(err) {
			t.Errorf("ReadLines() = %v, want a closed error", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("reader still blocked after Close")
	}
}
