package process

import (
	"bufio"
	"errors"
	"io"
	"os/exec"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestSupervisor_StartTracksWithUUID(t *testing.T) {
	s := NewSupervisor()
	defer s.Shutdown(time.Second)

	proc, err := s.Start("backend", exec.Command("sleep", "10"))
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if _, err := uuid.Parse(proc.ID); err != nil {
		t.Errorf("ID %q is not a uuid: %v", proc.ID, err)
	}
	if s.Get(proc.ID) != proc {
		t.Error("Get() did not return the started process")
	}
	if s.Count() != 1 {
		t.Errorf("Count() = %d, want 1", s.Count())
	}
	if !proc.IsRunning() || proc.PID() <= 0 {
		t.Errorf("state = %v pid = %d", proc.State(), proc.PID())
	}
}

func TestSupervisor_PipesStreams(t *testing.T) {
	s := NewSupervisor()
	defer s.Shutdown(time.Second)

	proc, err := s.Start("echo", exec.Command("sh", "-c", "read line; echo \"out:$line\"; echo err:1 >&2; read rest || true"))
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if _, err := io.WriteString(proc.Stdin, "ping\n"); err != nil {
		t.Fatalf("write stdin: %v", err)
	}

	out, err := bufio.NewReader(proc.Stdout).ReadString('\n')
	if err != nil || out != "out:ping\n" {
		t.Errorf("stdout = %q, %v", out, err)
	}
	errLine, err := bufio.NewReader(proc.Stderr).ReadString('\n')
	if err != nil || errLine != "err:1\n" {
		t.Errorf("stderr = %q, %v", errLine, err)
	}

	_ = proc.Stdin.Close()
	<-proc.Done()
	if proc.State() != StateExited || proc.ExitCode() != 0 {
		t.Errorf("state = %v code = %d", proc.State(), proc.ExitCode())
	}
}

func TestSupervisor_OutputReadableAfterExit(t *testing.T) {
	s := NewSupervisor()
	defer s.Shutdown(time.Second)

	script := `i=0; while [ $i -lt 500 ]; do echo "line $i"; i=$((i+1)); done; echo last >&2`
	proc, err := s.Start("chatty", exec.Command("sh", "-c", script))
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer proc.Stdout.Close()
	defer proc.Stderr.Close()

	select {
	case <-proc.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("process did not exit")
	}

	out, err := io.ReadAll(proc.Stdout)
	if err != nil {
		t.Fatalf("read stdout after exit: %v", err)
	}
	if n := strings.Count(string(out), "\n"); n != 500 {
		t.Errorf("read %d stdout lines after exit, want 500", n)
	}
	errOut, err := io.ReadAll(proc.Stderr)
	if err != nil || string(errOut) != "last\n" {
		t.Errorf("stderr after exit = %q, %v", errOut, err)
	}
}

func TestSupervisor_ExitCallbackAndCleanup(t *testing.T) {
	var exited atomic.Value
	s := NewSupervisor(WithExitCallback(func(p *Process) {
		exited.Store(p.ID)
	}))
	defer s.Shutdown(time.Second)

	proc, err := s.Start("false", exec.Command("sh", "-c", "exit 3"))
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	<-proc.Done()

	deadline := time.Now().Add(2 * time.Second)
	for s.Count() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if s.Count() != 0 {
		t.Errorf("Count() = %d after exit, want 0", s.Count())
	}
	if exited.Load() != proc.ID {
		t.Errorf("callback got %v, want %s", exited.Load(), proc.ID)
	}
	if proc.ExitCode() != 3 {
		t.Errorf("ExitCode() = %d, want 3", proc.ExitCode())
	}
}

func TestSupervisor_ShutdownTerminates(t *testing.T) {
	s := NewSupervisor()

	proc, err := s.Start("sleeper", exec.Command("sleep", "30"))
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	s.Shutdown(2 * time.Second)

	select {
	case <-proc.Done():
	default:
		t.Fatal("process still running after Shutdown")
	}
	if proc.State() != StateKilled {
		t.Errorf("state = %v, want killed", proc.State())
	}
	if !s.IsShuttingDown() {
		t.Error("IsShuttingDown() = false")
	}
	if _, err := s.Start("late", exec.Command("true")); !errors.Is(err, ErrShutdown) {
		t.Errorf("Start() after Shutdown = %v, want ErrShutdown", err)
	}
}

func TestSupervisor_ShutdownKillsStubbornProcess(t *testing.T) {
	s := NewSupervisor()

	proc, err := s.Start("stubborn", exec.Command("sh", "-c", "trap '' TERM; exec sleep 30"))
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	start := time.Now()
	s.Shutdown(100 * time.Millisecond)

	if time.Since(start) > 5*time.Second {
		t.Errorf("Shutdown took %v", time.Since(start))
	}
	if proc.IsRunning() {
		t.Error("process survived Shutdown")
	}
}

func TestSupervisor_TerminateUnknown(t *testing.T) {
	s := NewSupervisor()
	defer s.Shutdown(time.Second)

	if err := s.Terminate("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Terminate() = %v, want ErrNotFound", err)
	}
}

func TestSupervisor_StartFailure(t *testing.T) {
	s := NewSupervisor()
	defer s.Shutdown(time.Second)

	if _, err := s.Start("missing", exec.Command("/definitely/not/a/binary")); err == nil {
		t.Fatal("expected error for missing binary")
	}
	if s.Count() != 0 {
		t.Errorf("Count() = %d after failed start", s.Count())
	}
}

func TestState_String(t *testing.T) {
	tests := map[State]string{
		StateCreated: "created",
		StateRunning: "running",
		StateExited:  "exited",
		StateKilled:  "killed",
		State(42):    "unknown(42)",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", int(s), got, want)
		}
	}
}
