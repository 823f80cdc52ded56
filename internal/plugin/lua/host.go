package lua

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/xifront/internal/input/keymap"
	"github.com/dshills/xifront/internal/logging"
)

// ModuleName is the global table scripts use.
const ModuleName = "xifront"

// Host runs init scripts and collects what they ask for.
type Host struct {
	state  *State
	logger *logging.Logger

	mu       sync.Mutex
	bindings []keymap.Binding
}

// HostOption configures a Host.
type HostOption func(*hostOptions)

type hostOptions struct {
	logger   *logging.Logger
	document string
	state    []StateOption
}

// WithLogger receives xifront.log and print output.
func WithLogger(l *logging.Logger) HostOption {
	return func(o *hostOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithDocument exposes the document path as xifront.document.
func WithDocument(path string) HostOption {
	return func(o *hostOptions) {
		o.document = path
	}
}

// WithStateOptions configures the underlying State.
func WithStateOptions(opts ...StateOption) HostOption {
	return func(o *hostOptions) {
		o.state = append(o.state, opts...)
	}
}

// NewHost creates a host with a fresh sandboxed state.
func NewHost(opts ...HostOption) *Host {
	o := hostOptions{logger: logging.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	h := &Host{
		state:  NewState(o.state...),
		logger: o.logger.WithComponent("lua"),
	}
	h.state.RegisterModule(ModuleName, map[string]lua.LGFunction{
		"bind":   h.luaBind,
		"unbind": h.luaUnbind,
		"log":    h.luaLog,
	}, map[string]lua.LValue{
		"document": lua.LString(o.document),
	})
	h.state.SetGlobalFunc("print", h.luaPrint)
	return h
}

// RunFile runs the script at path.
func (h *Host) RunFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return &ScriptError{Name: path, Err: err}
	}
	defer f.Close()

	h.logger.Info("running %s", path)
	return h.state.Run(ctx, path, f)
}

// RunString runs src as a chunk called name.
func (h *Host) RunString(ctx context.Context, name, src string) error {
	return h.state.Run(ctx, name, strings.NewReader(src))
}

// Bindings returns the requested bindings in call order. An empty Action
// is an unbind.
func (h *Host) Bindings() []keymap.Binding {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]keymap.Binding(nil), h.bindings...)
}

// Apply replays the collected bindings onto m.
func (h *Host) Apply(m *keymap.Keymap) error {
	for _, b := range h.Bindings() {
		var err error
		if b.Action == "" {
			err = m.Unbind(b.Key)
		} else {
			err = m.Bind(b.Key, b.Action)
		}
		if err != nil {
			return fmt.Errorf("apply %s: %w", b.Key, err)
		}
	}
	return nil
}

// Close releases the Lua state.
func (h *Host) Close() error {
	return h.state.Close()
}

func (h *Host) record(b keymap.Binding) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.bindings = append(h.bindings, b)
}

// xifront.bind(key, action)
func (h *Host) luaBind(L *lua.LState) int {
	spec := L.CheckString(1)
	action := L.CheckString(2)

	if _, err := keymap.ParseKey(spec); err != nil {
		L.ArgError(1, err.Error())
		return 0
	}
	if _, err := keymap.ParseAction(action); err != nil {
		L.ArgError(2, err.Error())
		return 0
	}
	h.record(keymap.Binding{Key: spec, Action: action})
	return 0
}

// xifront.unbind(key)
func (h *Host) luaUnbind(L *lua.LState) int {
	spec := L.CheckString(1)
	if _, err := keymap.ParseKey(spec); err != nil {
		L.ArgError(1, err.Error())
		return 0
	}
	h.record(keymap.Binding{Key: spec})
	return 0
}

// xifront.log(msg)
func (h *Host) luaLog(L *lua.LState) int {
	h.logger.Info("%s", L.CheckString(1))
	return 0
}

func (h *Host) luaPrint(L *lua.LState) int {
	parts := make([]string, L.GetTop())
	for i := range parts {
		parts[i] = L.ToStringMeta(L.Get(i + 1)).String()
	}
	h.logger.Info("%s", strings.Join(parts, "\t"))
	return 0
}
