package renderer

import (
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/rivo/uniseg"

	"github.com/dshills/xifront/internal/renderer/backend"
)

const tabWidth = 4

// TextView is a scrolling, read-only text pane. It implements the
// dispatcher's DocumentSink and TextSink. Offsets are in runes.
type TextView struct {
	mu sync.Mutex

	text   string
	lines  []string
	starts []int // rune offset of each line

	caret    int
	selStart int
	selLen   int
	hasSel   bool

	top       int
	textStyle backend.Style
	selStyle  backend.Style

	onChange func()
}

// ViewOption configures a TextView.
type ViewOption func(*TextView)

// WithTextStyle sets the style of unselected text.
func WithTextStyle(s backend.Style) ViewOption {
	return func(v *TextView) {
		v.textStyle = s
	}
}

// WithSelectionStyle sets the style of selected text.
func WithSelectionStyle(s backend.Style) ViewOption {
	return func(v *TextView) {
		v.selStyle = s
	}
}

// WithChangeHandler sets a function called after every state change. It
// runs on the goroutine that made the change, without the view locked.
func WithChangeHandler(fn func()) ViewOption {
	return func(v *TextView) {
		v.onChange = fn
	}
}

// NewTextView creates an empty view.
func NewTextView(opts ...ViewOption) *TextView {
	v := &TextView{
		lines:    []string{""},
		starts:   []int{0},
		selStyle: backend.Style{Attributes: backend.AttrReverse},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// SetText replaces the text and clears the selection. The caret is clamped
// to the new text.
func (v *TextView) SetText(text string) {
	v.mu.Lock()
	v.text = text
	v.lines = strings.Split(text, "\n")
	v.starts = make([]int, len(v.lines))
	off := 0
	for i, line := range v.lines {
		v.starts[i] = off
		off += utf8.RuneCountInString(line) + 1
	}
	v.hasSel = false
	v.caret = v.clamp(v.caret)
	v.mu.Unlock()
	v.changed()
}

// SetCaretPosition moves the caret to a rune offset, clamped to the text.
func (v *TextView) SetCaretPosition(offset int) {
	v.mu.Lock()
	v.caret = v.clamp(offset)
	v.mu.Unlock()
	v.changed()
}

// SetSelection highlights length runes starting at start.
func (v *TextView) SetSelection(start, length int) {
	v.mu.Lock()
	v.selStart, v.selLen = start, length
	v.hasSel = length > 0
	v.mu.Unlock()
	v.changed()
}

// SetStyles changes the text and selection styles.
func (v *TextView) SetStyles(text, selection backend.Style) {
	v.mu.Lock()
	v.textStyle, v.selStyle = text, selection
	v.mu.Unlock()
	v.changed()
}

// Text returns the current text.
func (v *TextView) Text() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.text
}

// Caret returns the caret's rune offset.
func (v *TextView) Caret() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.caret
}

// Selection returns the selected range, if any.
func (v *TextView) Selection() (start, length int, ok bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.selStart, v.selLen, v.hasSel
}

// CaretLocation returns the caret's zero-based line and rune column.
func (v *TextView) CaretLocation() (line, col int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	line = v.lineOf(v.caret)
	return line, v.caret - v.starts[line]
}

// LineCount returns the number of lines.
func (v *TextView) LineCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.lines)
}

// Top returns the first visible line.
func (v *TextView) Top() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.top
}

func (v *TextView) changed() {
	if v.onChange != nil {
		v.onChange()
	}
}

func (v *TextView) clamp(offset int) int {
	end := v.starts[len(v.starts)-1] + utf8.RuneCountInString(v.lines[len(v.lines)-1])
	return min(max(offset, 0), end)
}

// lineOf returns the line containing a rune offset.
func (v *TextView) lineOf(offset int) int {
	i := sort.Search(len(v.starts), func(i int) bool { return v.starts[i] > offset })
	return max(i-1, 0)
}

// follow scrolls so that line is one of height visible lines.
func (v *TextView) follow(line, height int) {
	switch {
	case line < v.top:
		v.top = line
	case line >= v.top+height:
		v.top = line - height + 1
	}
	v.top = max(min(v.top, len(v.lines)-1), 0)
}

func (v *TextView) selected(offset int) bool {
	return v.hasSel && offset >= v.selStart && offset < v.selStart+v.selLen
}

// Draw renders the view into area. When showCaret is set and the caret is
// visible the terminal cursor is placed on it.
func (v *TextView) Draw(b backend.Backend, area backend.Rect, showCaret bool) {
	if area.Width <= 0 || area.Height <= 0 {
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	caretLine := v.lineOf(v.caret)
	v.follow(caretLine, area.Height)

	blank := backend.Cell{Rune: ' ', Style: v.textStyle}
	for row := 0; row < area.Height; row++ {
		y := area.Y + row
		b.Fill(backend.Rect{X: area.X, Y: y, Width: area.Width, Height: 1}, blank)

		line := v.top + row
		if line >= len(v.lines) {
			continue
		}
		x := v.drawLine(b, area, y, line)
		if showCaret && line == caretLine && x >= 0 {
			b.ShowCursor(area.X+x, y)
		}
	}
}

// drawLine draws one line and returns the caret's column within area, or
// -1 if the caret is not on this line or is clipped.
func (v *TextView) drawLine(b backend.Backend, area backend.Rect, y, line int) int {
	caretX := -1
	x, off := 0, v.starts[line]
	rest, state := v.lines[line], -1

	for rest != "" {
		if off == v.caret {
			caretX = x
		}

		var cluster string
		var width int
		cluster, rest, width, state = uniseg.FirstGraphemeClusterInString(rest, state)

		r, _ := utf8.DecodeRuneInString(cluster)
		switch {
		case cluster == "\t":
			r, width = ' ', tabWidth-x%tabWidth
		case r < ' ' || r == utf8.RuneError:
			r, width = '?', 1
		case width < 1:
			width = 1
		}
		if x+width > area.Width {
			return caretX
		}

		style := v.textStyle
		if v.selected(off) {
			style = v.selStyle
		}
		b.SetCell(area.X+x, y, backend.Cell{Rune: r, Style: style})
		if cluster == "\t" {
			b.Fill(backend.Rect{X: area.X + x + 1, Y: y, Width: width - 1, Height: 1}, backend.Cell{Rune: ' ', Style: style})
		}

		x += width
		off += utf8.RuneCountInString(cluster)
	}

	if off == v.caret && x < area.Width {
		caretX = x
	}
	return caretX
}
