package config

import (
	"errors"
	"io/fs"
	"strings"
	"testing"
	"time"

	"github.com/dshills/xifront/internal/input/keymap"
	"github.com/dshills/xifront/internal/rpc"
)

// MemFS is an in-memory file system for testing.
type MemFS struct {
	files map[string][]byte
}

func NewMemFS() *MemFS {
	return &MemFS{files: make(map[string][]byte)}
}

func (m *MemFS) AddFile(path string, content string) {
	m.files[path] = []byte(content)
}

func (m *MemFS) ReadFile(path string) ([]byte, error) {
	data, ok := m.files[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return data, nil
}

func (m *MemFS) Stat(path string) (fs.FileInfo, error) {
	if _, ok := m.files[path]; ok {
		return &memFileInfo{name: path}, nil
	}
	return nil, fs.ErrNotExist
}

type memFileInfo struct {
	name string
}

func (f *memFileInfo) Name() string       { return f.name }
func (f *memFileInfo) Size() int64        { return 0 }
func (f *memFileInfo) Mode() fs.FileMode  { return 0644 }
func (f *memFileInfo) ModTime() time.Time { return time.Now() }
func (f *memFileInfo) IsDir() bool        { return false }
func (f *memFileInfo) Sys() any           { return nil }

func envMap(vars map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	}
}

func TestDefault_Valid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.Queue.Capacity != 64 {
		t.Errorf("Queue.Capacity = %d, want 64", cfg.Queue.Capacity)
	}
	if cfg.Document != "example.json" {
		t.Errorf("Document = %q, want example.json", cfg.Document)
	}
	if cfg.ShutdownTimeout() != 2*time.Second {
		t.Errorf("ShutdownTimeout() = %v", cfg.ShutdownTimeout())
	}
}

func TestLoader_TOML(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/xifront.toml", `
document = "notes.json"

[backend]
command = "/opt/xi/xi-core"
args = ["--verbose"]

[queue]
capacity = 16

[logging]
level = "debug"
traffic = true

[ui]
split = 0.5

[ui.theme]
selection = "#333333"

[keymap]
"Ctrl+S" = "quit"
"F2" = "page_down"
`)

	cfg, err := NewLoaderWithFS(memfs, nil).Load("/xifront.toml", true)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Path != "/xifront.toml" {
		t.Errorf("Path = %q", cfg.Path)
	}
	if cfg.Document != "notes.json" {
		t.Errorf("Document = %q", cfg.Document)
	}
	if cfg.Backend.Command != "/opt/xi/xi-core" || len(cfg.Backend.Args) != 1 || cfg.Backend.Args[0] != "--verbose" {
		t.Errorf("Backend = %+v", cfg.Backend)
	}
	if cfg.Backend.ShutdownTimeoutMS != 2000 {
		t.Errorf("ShutdownTimeoutMS = %d, want default 2000", cfg.Backend.ShutdownTimeoutMS)
	}
	if cfg.Queue.Capacity != 16 || cfg.Logging.Level != "debug" || !cfg.Logging.Traffic {
		t.Errorf("queue/logging = %+v %+v", cfg.Queue, cfg.Logging)
	}
	if cfg.Logging.File != "xifront.log" {
		t.Errorf("Logging.File = %q, want default", cfg.Logging.File)
	}
	if cfg.UI.Split != 0.5 || cfg.Theme().Selection != "#333333" {
		t.Errorf("UI = %+v", cfg.UI)
	}

	m, err := cfg.BuildKeymap()
	if err != nil {
		t.Fatalf("BuildKeymap() error = %v", err)
	}
	if a, _ := m.Get(keymap.MustParseKey("Ctrl+S")); a != keymap.Quit() {
		t.Errorf("Ctrl+S = %+v", a)
	}
	if a, _ := m.Get(keymap.MustParseKey("Left")); a != keymap.Command(rpc.OpMoveLeft) {
		t.Errorf("default binding lost: Left = %+v", a)
	}
}

func TestLoader_YAML(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/xifront.yaml", `
backend:
  command: xi
  shutdown_timeout_ms: 500
logging:
  level: warn
  file: ""
keymap:
  Ctrl+W: ""
script:
  path: init.lua
`)

	cfg, err := NewLoaderWithFS(memfs, nil).Load("/xifront.yaml", true)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Backend.Command != "xi" || cfg.ShutdownTimeout() != 500*time.Millisecond {
		t.Errorf("Backend = %+v", cfg.Backend)
	}
	if cfg.Logging.Level != "warn" || cfg.Logging.File != "" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if cfg.Script.Path != "init.lua" || cfg.ScriptTimeout() != time.Second {
		t.Errorf("Script = %+v", cfg.Script)
	}

	m, err := cfg.BuildKeymap()
	if err != nil {
		t.Fatalf("BuildKeymap() error = %v", err)
	}
	if _, ok := m.Get(keymap.MustParseKey("Ctrl+W")); ok {
		t.Error("Ctrl+W should be unbound")
	}
}

func TestLoader_EmptyYAML(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/empty.yml", "")

	cfg, err := NewLoaderWithFS(memfs, nil).Load("/empty.yml", true)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Backend.Command != "xi-core" {
		t.Errorf("Backend.Command = %q, want default", cfg.Backend.Command)
	}
}

func TestLoader_MissingFile(t *testing.T) {
	l := NewLoaderWithFS(NewMemFS(), nil)

	cfg, err := l.Load("/nope.toml", false)
	if err != nil {
		t.Fatalf("optional Load() error = %v", err)
	}
	if cfg.Path != "" {
		t.Errorf("Path = %q, want empty", cfg.Path)
	}

	if _, err := l.Load("/nope.toml", true); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("required Load() error = %v, want ErrFileNotFound", err)
	}
}

func TestLoader_Errors(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		content string
		check   func(error) bool
	}{
		{
			name:    "bad toml",
			path:    "/bad.toml",
			content: "[backend\ncommand = 1",
			check: func(err error) bool {
				var perr *ParseError
				return errors.As(err, &perr) && perr.Path == "/bad.toml"
			},
		},
		{
			name:    "unknown toml key",
			path:    "/unknown.toml",
			content: "colour = \"red\"",
			check: func(err error) bool {
				var perr *ParseError
				return errors.As(err, &perr)
			},
		},
		{
			name:    "unknown yaml key",
			path:    "/unknown.yaml",
			content: "colour: red\n",
			check: func(err error) bool {
				var perr *ParseError
				return errors.As(err, &perr)
			},
		},
		{
			name:    "unsupported format",
			path:    "/config.json",
			content: "{}",
			check:   func(err error) bool { return errors.Is(err, ErrUnsupportedFormat) },
		},
		{
			name:    "invalid capacity",
			path:    "/cap.toml",
			content: "[queue]\ncapacity = 0",
			check: func(err error) bool {
				var verr *ValidationError
				return errors.As(err, &verr) && verr.Field == "queue.capacity" && verr.Source == "/cap.toml"
			},
		},
		{
			name:    "invalid keymap",
			path:    "/keys.toml",
			content: "[keymap]\n\"Hyper+x\" = \"quit\"",
			check:   func(err error) bool { return errors.Is(err, ErrInvalidValue) && strings.Contains(err.Error(), "keymap") },
		},
		{
			name:    "invalid theme",
			path:    "/theme.toml",
			content: "[ui.theme]\ndivider = \"purple\"",
			check:   func(err error) bool { return errors.Is(err, ErrInvalidValue) && strings.Contains(err.Error(), "ui.theme") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			memfs := NewMemFS()
			memfs.AddFile(tt.path, tt.content)
			_, err := NewLoaderWithFS(memfs, nil).Load(tt.path, true)
			if err == nil {
				t.Fatal("expected error")
			}
			if !tt.check(err) {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidate_ReportsEverything(t *testing.T) {
	cfg := Default()
	cfg.Backend.Command = ""
	cfg.Queue.Capacity = -1
	cfg.Logging.Level = "loud"
	cfg.UI.Split = 2

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, field := range []string{"backend.command", "queue.capacity", "logging.level", "ui.split"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error does not mention %s: %v", field, err)
		}
	}
}

func TestLoader_Environment(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/xifront.toml", "[logging]\nlevel = \"debug\"")

	env := envMap(map[string]string{
		"XIFRONT_BACKEND":        "custom-core",
		"XIFRONT_BACKEND_ARGS":   "-a  -b",
		"XIFRONT_DOCUMENT":       "other.json",
		"XIFRONT_QUEUE_CAPACITY": "8",
		"XIFRONT_LOG_LEVEL":      "ERROR",
		"XIFRONT_LOG_TRAFFIC":    "true",
		"XIFRONT_SCRIPT":         "/etc/xifront/init.lua",
	})

	cfg, err := NewLoaderWithFS(memfs, env).Load("/xifront.toml", true)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Backend.Command != "custom-core" || strings.Join(cfg.Backend.Args, ",") != "-a,-b" {
		t.Errorf("Backend = %+v", cfg.Backend)
	}
	if cfg.Document != "other.json" || cfg.Queue.Capacity != 8 {
		t.Errorf("Document = %q Capacity = %d", cfg.Document, cfg.Queue.Capacity)
	}
	if cfg.Logging.Level != "error" || !cfg.Logging.Traffic {
		t.Errorf("Logging = %+v, environment should override file", cfg.Logging)
	}
	if cfg.Script.Path != "/etc/xifront/init.lua" {
		t.Errorf("Script.Path = %q", cfg.Script.Path)
	}
}

func TestLoader_EnvironmentErrors(t *testing.T) {
	env := envMap(map[string]string{
		"XIFRONT_QUEUE_CAPACITY": "lots",
		"XIFRONT_LOG_TRAFFIC":    "maybe",
	})

	_, err := NewLoaderWithFS(NewMemFS(), env).Load("", false)
	if !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("Load() error = %v, want ErrInvalidValue", err)
	}
	for _, name := range []string{"XIFRONT_QUEUE_CAPACITY", "XIFRONT_LOG_TRAFFIC"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error does not name %s: %v", name, err)
		}
	}
}
