package keymap

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/dshills/xifront/internal/renderer/backend"
	"github.com/dshills/xifront/internal/rpc"
)

// Keymap maps keys to actions. It is not safe for concurrent mutation;
// build it, then share it read-only.
type Keymap struct {
	bindings map[Key]Action
}

// Binding is a key and its action in string form.
type Binding struct {
	Key    string
	Action string
}

// New returns an empty keymap.
func New() *Keymap {
	return &Keymap{bindings: make(map[Key]Action)}
}

// Default returns the standard bindings.
func Default() *Keymap {
	m := New()
	for spec, action := range map[string]Action{
		"Ctrl+W":      Command(rpc.OpExtendSelection),
		"Up":          Command(rpc.OpMoveUp),
		"Down":        Command(rpc.OpMoveDown),
		"Left":        Command(rpc.OpMoveLeft),
		"Right":       Command(rpc.OpMoveRight),
		"Shift+Up":    Command(rpc.OpMoveUpAndModifySelection),
		"Shift+Down":  Command(rpc.OpMoveDownAndModifySelection),
		"Shift+Left":  Command(rpc.OpMoveLeftAndModifySelection),
		"Shift+Right": Command(rpc.OpMoveRightAndModifySelection),
		"Home":        Command(rpc.OpMoveToLeftEndOfLine),
		"End":         Command(rpc.OpMoveToRightEndOfLine),
		"PageUp":      Command(rpc.OpPageUp),
		"PageDown":    Command(rpc.OpPageDown),
		"Backspace":   Command(rpc.OpDeleteBackward),
		"Delete":      Command(rpc.OpDeleteForward),
		"Enter":       Command(rpc.OpInsertNewline),
		"Tab":         Insert("\t"),
		"Ctrl+Q":      Quit(),
	} {
		m.BindKey(MustParseKey(spec), action)
	}
	return m
}

// BindKey binds k to a, replacing any existing binding.
func (m *Keymap) BindKey(k Key, a Action) {
	m.bindings[normalize(k)] = a
}

// Bind parses spec and action and binds them.
func (m *Keymap) Bind(spec, action string) error {
	k, err := ParseKey(spec)
	if err != nil {
		return err
	}
	a, err := ParseAction(action)
	if err != nil {
		return fmt.Errorf("bind %s: %w", spec, err)
	}
	m.BindKey(k, a)
	return nil
}

// Unbind removes the binding for spec. Removing a binding that does not
// exist is not an error.
func (m *Keymap) Unbind(spec string) error {
	k, err := ParseKey(spec)
	if err != nil {
		return err
	}
	delete(m.bindings, k)
	return nil
}

// Apply binds every entry of overrides, keyed by key spec. An empty action
// removes the binding. All entries are attempted; the errors are joined.
func (m *Keymap) Apply(overrides map[string]string) error {
	var errs []error
	for _, spec := range slices.Sorted(maps.Keys(overrides)) {
		action := overrides[spec]
		var err error
		if action == "" {
			err = m.Unbind(spec)
		} else {
			err = m.Bind(spec, action)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("key %q: %w", spec, err))
		}
	}
	return errors.Join(errs...)
}

// Get returns the action bound to k.
func (m *Keymap) Get(k Key) (Action, bool) {
	a, ok := m.bindings[normalize(k)]
	return a, ok
}

// Lookup returns the action for a key event. Unbound printable characters
// typed without Ctrl or Alt insert themselves.
func (m *Keymap) Lookup(ev backend.Event) (Action, bool) {
	if ev.Type != backend.EventKey {
		return Action{}, false
	}
	k := FromEvent(ev)
	if a, ok := m.bindings[k]; ok {
		return a, true
	}
	if k.Code == backend.KeyRune && k.Mod&(backend.ModCtrl|backend.ModAlt) == 0 && k.Rune >= ' ' && k.Rune != 0x7f {
		return Insert(string(k.Rune)), true
	}
	return Action{}, false
}

// Len returns the number of bindings.
func (m *Keymap) Len() int {
	return len(m.bindings)
}

// Clone returns an independent copy.
func (m *Keymap) Clone() *Keymap {
	return &Keymap{bindings: maps.Clone(m.bindings)}
}

// Bindings lists every binding sorted by key.
func (m *Keymap) Bindings() []Binding {
	out := make([]Binding, 0, len(m.bindings))
	for k, a := range m.bindings {
		out = append(out, Binding{Key: k.String(), Action: a.String()})
	}
	slices.SortFunc(out, func(a, b Binding) int {
		switch {
		case a.Key < b.Key:
			return -1
		case a.Key > b.Key:
			return 1
		default:
			return 0
		}
	})
	return out
}
