package renderer

import (
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/dshills/xifront/internal/renderer/backend"
)

// Theme names the colours of the UI as hex strings ("#rrggbb" or "#rgb").
// An empty string keeps the terminal default. An empty Selection is
// derived by blending Foreground into Background.
type Theme struct {
	Foreground string
	Background string
	Selection  string
	AST        string
	Divider    string
	Status     string
}

// DefaultTheme returns the built-in theme.
func DefaultTheme() Theme {
	return Theme{
		Selection: "#264f78",
		AST:       "#8a8a8a",
		Divider:   "#444444",
		Status:    "#303030",
	}
}

// Palette is a resolved Theme.
type Palette struct {
	Text      backend.Style
	Selection backend.Style
	AST       backend.Style
	Divider   backend.Style
	Status    backend.Style
}

// ParseColor parses a hex colour. The empty string is the terminal default.
func ParseColor(hex string) (backend.Color, error) {
	hex = strings.TrimSpace(hex)
	if hex == "" {
		return backend.ColorDefault, nil
	}
	if !strings.HasPrefix(hex, "#") {
		hex = "#" + hex
	}
	if len(hex) != 4 && len(hex) != 7 {
		return backend.ColorDefault, fmt.Errorf("invalid colour %q: want #rgb or #rrggbb", hex)
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return backend.ColorDefault, fmt.Errorf("invalid colour %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return backend.RGB(r, g, b), nil
}

// Resolve parses every colour of t.
func (t Theme) Resolve() (Palette, error) {
	var p Palette
	fields := []struct {
		name string
		hex  string
		dst  *backend.Color
	}{
		{"foreground", t.Foreground, &p.Text.Foreground},
		{"background", t.Background, &p.Text.Background},
		{"selection", t.Selection, &p.Selection.Background},
		{"ast", t.AST, &p.AST.Foreground},
		{"divider", t.Divider, &p.Divider.Foreground},
		{"status", t.Status, &p.Status.Background},
	}
	for _, f := range fields {
		c, err := ParseColor(f.hex)
		if err != nil {
			return Palette{}, fmt.Errorf("theme %s: %w", f.name, err)
		}
		*f.dst = c
	}

	p.Selection.Foreground = p.Text.Foreground
	switch {
	case !p.Selection.Background.IsDefault():
	case !p.Text.Foreground.IsDefault() && !p.Text.Background.IsDefault():
		p.Selection.Background = blend(p.Text.Background, p.Text.Foreground, 0.3)
	default:
		p.Selection.Attributes = backend.AttrReverse
	}

	p.AST.Background = p.Text.Background
	p.Divider.Background = p.Text.Background
	p.Status.Foreground = p.Text.Foreground
	if p.Status.Background.IsDefault() {
		p.Status.Attributes = backend.AttrReverse
	}
	return p, nil
}

// DefaultPalette resolves DefaultTheme.
func DefaultPalette() Palette {
	p, _ := DefaultTheme().Resolve()
	return p
}

func blend(from, to backend.Color, t float64) backend.Color {
	a := colorful.Color{R: float64(from.R) / 255, G: float64(from.G) / 255, B: float64(from.B) / 255}
	b := colorful.Color{R: float64(to.R) / 255, G: float64(to.G) / 255, B: float64(to.B) / 255}
	r, g, bl := a.BlendLab(b, t).Clamped().RGB255()
	return backend.RGB(r, g, bl)
}
