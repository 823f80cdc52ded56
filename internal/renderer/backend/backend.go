// Package backend abstracts the display surface the views draw on.
package backend

// Color is a 24-bit colour. The zero value is the terminal default.
type Color struct {
	R, G, B uint8
	Valid   bool
}

// ColorDefault leaves the terminal's own colour in place.
var ColorDefault = Color{}

// RGB returns a true colour.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b, Valid: true}
}

// IsDefault reports whether c is the terminal default.
func (c Color) IsDefault() bool {
	return !c.Valid
}

// Attr is a set of text attributes.
type Attr uint8

const (
	AttrNone Attr = 0
	AttrBold Attr = 1 << iota
	AttrDim
	AttrUnderline
	AttrReverse
)

// Has reports whether a includes attr.
func (a Attr) Has(attr Attr) bool {
	return a&attr != 0
}

// Style describes how a cell is drawn.
type Style struct {
	Foreground Color
	Background Color
	Attributes Attr
}

// DefaultStyle uses the terminal's colours and no attributes.
func DefaultStyle() Style {
	return Style{}
}

// Cell is one screen position.
type Cell struct {
	Rune  rune
	Style Style
}

// EmptyCell is a blank cell in the default style.
func EmptyCell() Cell {
	return Cell{Rune: ' '}
}

// Rect is a screen rectangle. X and Y are inclusive, X+Width and Y+Height
// are not.
type Rect struct {
	X, Y          int
	Width, Height int
}

// Contains reports whether (x, y) lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// EventType identifies the type of an Event.
type EventType int

const (
	EventNone EventType = iota
	EventKey
	EventResize
	// EventInterrupt is posted by other goroutines to wake the event loop.
	EventInterrupt
	// EventClosed is returned by PollEvent once the backend is shut down.
	EventClosed
)

// Event is an input event.
type Event struct {
	Type EventType

	Key  Key
	Rune rune
	Mod  ModMask

	Width, Height int
}

// Key identifies a keyboard key. Control chords on letters are reported as
// KeyRune with ModCtrl set.
type Key int

const (
	KeyNone Key = iota
	KeyRune
	KeyEscape
	KeyEnter
	KeyTab
	KeyBackspace
	KeyDelete
	KeyInsert
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
)

// ModMask represents modifier key state.
type ModMask int

const (
	ModNone  ModMask = 0
	ModShift ModMask = 1 << iota
	ModCtrl
	ModAlt
	ModMeta
)

// Has returns true if the mask contains the given modifier.
func (m ModMask) Has(mod ModMask) bool {
	return m&mod != 0
}

// Backend is a display surface with an input event queue.
type Backend interface {
	// Init prepares the backend. It must be called before anything else.
	Init() error

	// Shutdown restores the terminal. PollEvent returns EventClosed
	// afterwards.
	Shutdown()

	// Size returns the current dimensions in cells.
	Size() (width, height int)

	// SetCell sets one cell. Positions outside the screen are ignored.
	SetCell(x, y int, cell Cell)

	// Fill sets every cell of rect.
	Fill(rect Rect, cell Cell)

	// Clear blanks the whole screen.
	Clear()

	// Show flushes pending changes to the display.
	Show()

	// ShowCursor places the cursor.
	ShowCursor(x, y int)

	// HideCursor hides the cursor.
	HideCursor()

	// PollEvent blocks until the next event.
	PollEvent() Event

	// PostEvent queues a synthetic event. It is safe to call from any
	// goroutine.
	PostEvent(event Event)
}
