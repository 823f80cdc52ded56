package keymap

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/dshills/xifront/internal/renderer/backend"
)

// Parse errors.
var (
	ErrEmptySpec   = errors.New("empty key specification")
	ErrInvalidSpec = errors.New("invalid key specification")
)

// Key is a normalized key chord.
type Key struct {
	Code backend.Key
	Rune rune
	Mod  backend.ModMask
}

var keyNames = map[string]backend.Key{
	"enter":     backend.KeyEnter,
	"return":    backend.KeyEnter,
	"cr":        backend.KeyEnter,
	"esc":       backend.KeyEscape,
	"escape":    backend.KeyEscape,
	"tab":       backend.KeyTab,
	"backspace": backend.KeyBackspace,
	"bs":        backend.KeyBackspace,
	"delete":    backend.KeyDelete,
	"del":       backend.KeyDelete,
	"insert":    backend.KeyInsert,
	"ins":       backend.KeyInsert,
	"home":      backend.KeyHome,
	"end":       backend.KeyEnd,
	"pageup":    backend.KeyPageUp,
	"pgup":      backend.KeyPageUp,
	"pagedown":  backend.KeyPageDown,
	"pgdn":      backend.KeyPageDown,
	"up":        backend.KeyUp,
	"down":      backend.KeyDown,
	"left":      backend.KeyLeft,
	"right":     backend.KeyRight,
	"f1":        backend.KeyF1,
	"f2":        backend.KeyF2,
	"f3":        backend.KeyF3,
	"f4":        backend.KeyF4,
	"f5":        backend.KeyF5,
	"f6":        backend.KeyF6,
	"f7":        backend.KeyF7,
	"f8":        backend.KeyF8,
	"f9":        backend.KeyF9,
	"f10":       backend.KeyF10,
	"f11":       backend.KeyF11,
	"f12":       backend.KeyF12,
}

var canonicalNames = map[backend.Key]string{
	backend.KeyEnter:     "Enter",
	backend.KeyEscape:    "Escape",
	backend.KeyTab:       "Tab",
	backend.KeyBackspace: "Backspace",
	backend.KeyDelete:    "Delete",
	backend.KeyInsert:    "Insert",
	backend.KeyHome:      "Home",
	backend.KeyEnd:       "End",
	backend.KeyPageUp:    "PageUp",
	backend.KeyPageDown:  "PageDown",
	backend.KeyUp:        "Up",
	backend.KeyDown:      "Down",
	backend.KeyLeft:      "Left",
	backend.KeyRight:     "Right",
	backend.KeyF1:        "F1",
	backend.KeyF2:        "F2",
	backend.KeyF3:        "F3",
	backend.KeyF4:        "F4",
	backend.KeyF5:        "F5",
	backend.KeyF6:        "F6",
	backend.KeyF7:        "F7",
	backend.KeyF8:        "F8",
	backend.KeyF9:        "F9",
	backend.KeyF10:       "F10",
	backend.KeyF11:       "F11",
	backend.KeyF12:       "F12",
}

// RuneKey returns the key for a character with modifiers.
func RuneKey(r rune, mod backend.ModMask) Key {
	return normalize(Key{Code: backend.KeyRune, Rune: r, Mod: mod})
}

// SpecialKey returns the key for a named key with modifiers.
func SpecialKey(code backend.Key, mod backend.ModMask) Key {
	return normalize(Key{Code: code, Mod: mod})
}

// FromEvent returns the key of a key event.
func FromEvent(ev backend.Event) Key {
	if ev.Key == backend.KeyRune {
		return RuneKey(ev.Rune, ev.Mod)
	}
	return SpecialKey(ev.Key, ev.Mod)
}

// normalize makes keys from the terminal and from specs compare equal.
// Letters in chords are lower case, Meta counts as Alt, and Shift is
// dropped from plain characters since it is already in the rune.
func normalize(k Key) Key {
	if k.Mod.Has(backend.ModMeta) {
		k.Mod = k.Mod&^backend.ModMeta | backend.ModAlt
	}
	if k.Code != backend.KeyRune {
		k.Rune = 0
		return k
	}
	if k.Mod.Has(backend.ModCtrl) || k.Mod.Has(backend.ModAlt) {
		k.Rune = unicode.ToLower(k.Rune)
	} else {
		k.Mod &^= backend.ModShift
	}
	return k
}

// ParseKey parses a key specification.
func ParseKey(spec string) (Key, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Key{}, ErrEmptySpec
	}

	if strings.HasPrefix(spec, "<") && strings.HasSuffix(spec, ">") && len(spec) > 2 {
		return parseVimStyle(spec[1 : len(spec)-1])
	}
	if len(spec) > 1 && strings.Contains(spec, "+") {
		return parseModifierStyle(spec)
	}
	return parseKeyWithModifiers(spec, backend.ModNone)
}

// MustParseKey is ParseKey for specs known to be valid.
func MustParseKey(spec string) Key {
	k, err := ParseKey(spec)
	if err != nil {
		panic("invalid key specification: " + spec + ": " + err.Error())
	}
	return k
}

func parseVimStyle(inner string) (Key, error) {
	parts := strings.Split(inner, "-")
	if len(parts) > 1 && parts[len(parts)-1] == "" {
		parts = append(parts[:len(parts)-2], "-")
	}

	var mods backend.ModMask
	for _, p := range parts[:len(parts)-1] {
		switch strings.ToLower(strings.TrimSpace(p)) {
		case "c":
			mods |= backend.ModCtrl
		case "a", "m":
			mods |= backend.ModAlt
		case "s":
			mods |= backend.ModShift
		default:
			return Key{}, fmt.Errorf("%w: unknown modifier %q", ErrInvalidSpec, p)
		}
	}
	return parseKeyWithModifiers(parts[len(parts)-1], mods)
}

func parseModifierStyle(spec string) (Key, error) {
	parts := strings.Split(spec, "+")
	if parts[len(parts)-1] == "" {
		// "Ctrl++" binds the plus key.
		parts = append(parts[:len(parts)-2], "+")
	}

	var mods backend.ModMask
	for _, p := range parts[:len(parts)-1] {
		switch strings.ToLower(strings.TrimSpace(p)) {
		case "ctrl", "control", "c":
			mods |= backend.ModCtrl
		case "alt", "option", "meta", "a", "m":
			mods |= backend.ModAlt
		case "shift", "s":
			mods |= backend.ModShift
		default:
			return Key{}, fmt.Errorf("%w: unknown modifier %q", ErrInvalidSpec, p)
		}
	}
	return parseKeyWithModifiers(parts[len(parts)-1], mods)
}

func parseKeyWithModifiers(keyPart string, mods backend.ModMask) (Key, error) {
	keyPart = strings.TrimSpace(keyPart)
	if keyPart == "" {
		if mods != backend.ModNone {
			return Key{}, ErrInvalidSpec
		}
		return Key{}, ErrEmptySpec
	}

	lower := strings.ToLower(keyPart)
	if code, ok := keyNames[lower]; ok {
		return SpecialKey(code, mods), nil
	}
	if lower == "space" {
		return RuneKey(' ', mods), nil
	}

	runes := []rune(keyPart)
	if len(runes) == 1 {
		return RuneKey(runes[0], mods), nil
	}
	return Key{}, fmt.Errorf("%w: unknown key %q", ErrInvalidSpec, keyPart)
}

// String returns the canonical readable form, for example "Ctrl+W".
func (k Key) String() string {
	var sb strings.Builder
	if k.Mod.Has(backend.ModCtrl) {
		sb.WriteString("Ctrl+")
	}
	if k.Mod.Has(backend.ModAlt) {
		sb.WriteString("Alt+")
	}
	if k.Mod.Has(backend.ModShift) {
		sb.WriteString("Shift+")
	}

	switch {
	case k.Code == backend.KeyRune && k.Rune == ' ':
		sb.WriteString("Space")
	case k.Code == backend.KeyRune && (k.Mod.Has(backend.ModCtrl) || k.Mod.Has(backend.ModAlt)):
		sb.WriteRune(unicode.ToUpper(k.Rune))
	case k.Code == backend.KeyRune:
		sb.WriteRune(k.Rune)
	default:
		name, ok := canonicalNames[k.Code]
		if !ok {
			name = fmt.Sprintf("Key(%d)", k.Code)
		}
		sb.WriteString(name)
	}
	return sb.String()
}
