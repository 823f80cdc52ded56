// Package renderer draws the editor's panes.
//
// A TextView holds one pane's document state: text, caret and selection.
// The dispatcher pushes state into the views through the DocumentSink and
// TextSink contracts; the UI goroutine draws them with a Layout:
//
//	┌──────────────────────┬──────────────────┐
//	│ code (TextView)      │ ast (TextView)   │
//	│                      │                  │
//	├──────────────────────┴──────────────────┤
//	│ status line                             │
//	└─────────────────────────────────────────┘
//
// Views never draw from the dispatcher goroutine. They report changes
// through a callback, which the application turns into a redraw request
// on its own event loop.
package renderer
