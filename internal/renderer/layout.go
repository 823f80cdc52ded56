package renderer

import (
	"sync"

	"github.com/rivo/uniseg"

	"github.com/dshills/xifront/internal/renderer/backend"
)

// DefaultSplit is the share of the width given to the code pane.
const DefaultSplit = 0.6

// minPaneWidth is the narrowest AST pane worth showing.
const minPaneWidth = 10

// Layout arranges the code pane, the AST pane and a status line.
type Layout struct {
	Code *TextView
	AST  *TextView

	mu      sync.Mutex
	split   float64
	palette Palette
	status  string
}

// NewLayout creates a layout. ast may be nil for a single pane.
func NewLayout(code, ast *TextView, palette Palette) *Layout {
	l := &Layout{
		Code:  code,
		AST:   ast,
		split: DefaultSplit,
	}
	l.SetPalette(palette)
	return l
}

// SetPalette applies palette to the layout and its views.
func (l *Layout) SetPalette(p Palette) {
	l.mu.Lock()
	l.palette = p
	l.mu.Unlock()

	l.Code.SetStyles(p.Text, p.Selection)
	if l.AST != nil {
		l.AST.SetStyles(p.AST, p.AST)
	}
}

// SetSplit sets the code pane's share of the width, clamped to [0.1, 1].
func (l *Layout) SetSplit(split float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.split = min(max(split, 0.1), 1)
}

// SetStatus sets the status line text.
func (l *Layout) SetStatus(status string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.status = status
}

// Panes computes the code and AST rectangles and the divider column for a
// screen of the given size. The AST rectangle is empty when there is no
// room for it.
func (l *Layout) Panes(width, height int) (code, ast backend.Rect, divider int) {
	l.mu.Lock()
	split := l.split
	l.mu.Unlock()

	body := max(height-1, 0)
	codeW := int(float64(width) * split)
	if l.AST == nil || width-codeW-1 < minPaneWidth {
		return backend.Rect{Width: width, Height: body}, backend.Rect{}, -1
	}
	code = backend.Rect{Width: codeW, Height: body}
	ast = backend.Rect{X: codeW + 1, Width: width - codeW - 1, Height: body}
	return code, ast, codeW
}

// Draw renders everything and flushes it to b.
func (l *Layout) Draw(b backend.Backend) {
	width, height := b.Size()
	if width <= 0 || height <= 0 {
		return
	}

	l.mu.Lock()
	p, status := l.palette, l.status
	l.mu.Unlock()

	b.HideCursor()

	code, ast, divider := l.Panes(width, height)
	l.Code.Draw(b, code, true)
	if divider >= 0 {
		b.Fill(backend.Rect{X: divider, Width: 1, Height: code.Height}, backend.Cell{Rune: '│', Style: p.Divider})
		l.AST.Draw(b, ast, false)
	}

	drawStatus(b, backend.Rect{Y: height - 1, Width: width, Height: 1}, status, p.Status)
	b.Show()
}

func drawStatus(b backend.Backend, area backend.Rect, text string, style backend.Style) {
	b.Fill(area, backend.Cell{Rune: ' ', Style: style})

	x, state := 1, -1
	for text != "" {
		var cluster string
		var width int
		cluster, text, width, state = uniseg.FirstGraphemeClusterInString(text, state)
		if x+width > area.Width {
			return
		}
		r := []rune(cluster)[0]
		b.SetCell(area.X+x, area.Y, backend.Cell{Rune: r, Style: style})
		x += max(width, 1)
	}
}
