package lua

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	glua "github.com/yuin/gopher-lua"

	"github.com/dshills/xifront/internal/input/keymap"
	"github.com/dshills/xifront/internal/logging"
)

func TestHost_BindAndUnbind(t *testing.T) {
	h := NewHost()
	defer h.Close()

	err := h.RunString(context.Background(), "init", `
		xifront.bind("<C-d>", "delete_forward")
		xifront.bind("Ctrl+T", "insert:\\t")
		xifront.unbind("Ctrl+W")
	`)
	if err != nil {
		t.Fatalf("RunString: %v", err)
	}

	got := h.Bindings()
	want := []keymap.Binding{
		{Key: "<C-d>", Action: "delete_forward"},
		{Key: "Ctrl+T", Action: `insert:\t`},
		{Key: "Ctrl+W"},
	}
	if len(got) != len(want) {
		t.Fatalf("Bindings() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("binding %d = %v, want %v", i, got[i], want[i])
		}
	}

	m := keymap.Default()
	if err := h.Apply(m); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if a, ok := m.Get(keymap.MustParseKey("Ctrl+D")); !ok || a != keymap.Command("delete_forward") {
		t.Errorf("Ctrl+D = %v, %v", a, ok)
	}
	if a, ok := m.Get(keymap.MustParseKey("Ctrl+T")); !ok || a != keymap.Insert("\t") {
		t.Errorf("Ctrl+T = %v, %v", a, ok)
	}
	if _, ok := m.Get(keymap.MustParseKey("Ctrl+W")); ok {
		t.Error("Ctrl+W still bound")
	}
}

func TestHost_BindRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"bad key", `xifront.bind("<Bogus>", "move_up")`},
		{"bad action", `xifront.bind("Ctrl+A", "Not An Op")`},
		{"missing action", `xifront.bind("Ctrl+A")`},
		{"bad unbind", `xifront.unbind("")`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHost()
			defer h.Close()

			err := h.RunString(context.Background(), "init", tt.src)
			var se *ScriptError
			if !errors.As(err, &se) {
				t.Fatalf("err = %v, want ScriptError", err)
			}
			if n := len(h.Bindings()); n != 0 {
				t.Errorf("recorded %d bindings", n)
			}
		})
	}
}

func TestHost_Document(t *testing.T) {
	h := NewHost(WithDocument("notes.json"))
	defer h.Close()

	err := h.RunString(context.Background(), "init", `
		if xifront.document == "notes.json" then
			xifront.bind("Ctrl+N", "move_down")
		end
	`)
	if err != nil {
		t.Fatalf("RunString: %v", err)
	}
	if len(h.Bindings()) != 1 {
		t.Errorf("document field not visible to script")
	}
}

func TestHost_Sandbox(t *testing.T) {
	h := NewHost()
	defer h.Close()

	src := `
		assert(dofile == nil, "dofile")
		assert(loadfile == nil, "loadfile")
		assert(require == nil, "require")
		assert(os == nil, "os")
		assert(io == nil, "io")
		assert(string.upper("x") == "X", "string")
	`
	if err := h.RunString(context.Background(), "sandbox", src); err != nil {
		t.Fatalf("sandbox check failed: %v", err)
	}
}

func TestHost_Timeout(t *testing.T) {
	h := NewHost(WithStateOptions(WithTimeout(50 * time.Millisecond)))
	defer h.Close()

	start := time.Now()
	err := h.RunString(context.Background(), "spin", `while true do end`)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want DeadlineExceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("timeout took %v", elapsed)
	}
}

func TestHost_SyntaxError(t *testing.T) {
	h := NewHost()
	defer h.Close()

	err := h.RunString(context.Background(), "broken", `xifront.bind(`)
	var se *ScriptError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want ScriptError", err)
	}
	if se.Name != "broken" {
		t.Errorf("Name = %q", se.Name)
	}
}

func TestHost_LogAndPrint(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.Config{Level: logging.LevelDebug, Output: &buf})
	h := NewHost(WithLogger(logger))
	defer h.Close()

	err := h.RunString(context.Background(), "init", `
		xifront.log("hello")
		print("value", 42)
	`)
	if err != nil {
		t.Fatalf("RunString: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "hello") {
		t.Errorf("log output missing: %q", out)
	}
	if !strings.Contains(out, "value\t42") {
		t.Errorf("print output missing: %q", out)
	}
	if !strings.Contains(out, "component=lua") {
		t.Errorf("component field missing: %q", out)
	}
}

func TestHost_RunFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "init.lua")
	if err := os.WriteFile(path, []byte(`xifront.bind("F5", "move_up")`), 0o644); err != nil {
		t.Fatal(err)
	}

	h := NewHost()
	defer h.Close()

	if err := h.RunFile(context.Background(), path); err != nil {
		t.Fatalf("RunFile: %v", err)
	}
	if len(h.Bindings()) != 1 {
		t.Errorf("Bindings() = %v", h.Bindings())
	}

	err := h.RunFile(context.Background(), filepath.Join(dir, "missing.lua"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("missing file err = %v", err)
	}
}

func TestState_GlobalsAndClose(t *testing.T) {
	s := NewState()

	if err := s.Run(context.Background(), "set", strings.NewReader(`answer = 6 * 7`)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if v := s.GetGlobal("answer"); v != glua.LNumber(42) {
		t.Errorf("answer = %v", v)
	}

	s.SetGlobalFunc("twice", func(L *glua.LState) int {
		L.Push(L.CheckNumber(1) * 2)
		return 1
	})
	if err := s.Run(context.Background(), "call", strings.NewReader(`doubled = twice(4)`)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if v := s.GetGlobal("doubled"); v != glua.LNumber(8) {
		t.Errorf("doubled = %v", v)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if err := s.Run(context.Background(), "late", strings.NewReader(`x = 1`)); !errors.Is(err, ErrStateClosed) {
		t.Errorf("Run after Close = %v, want ErrStateClosed", err)
	}
	if v := s.GetGlobal("answer"); v != glua.LNil {
		t.Errorf("GetGlobal after Close = %v", v)
	}
}

func TestState_CanceledContext(t *testing.T) {
	s := NewState(WithTimeout(0))
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	err := s.Run(ctx, "spin", strings.NewReader(`while true do end`))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want Canceled", err)
	}
}
