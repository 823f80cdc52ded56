// Package reconcile folds the line ops of an update notification into flat
// document state: one text buffer, a cursor offset and an optional selection.
//
// Reconcile keeps nothing between calls. Every update is rebuilt from its own
// ops, so the same ops always yield the same state.
//
// Offsets are counted in Unicode code points.
package reconcile

import (
	"strings"
	"unicode/utf8"

	"github.com/dshills/xifront/internal/rpc"
)

// Selection is a highlighted range of the document.
type Selection struct {
	Start  int
	Length int
}

// End returns the offset one past the selection.
func (s Selection) End() int {
	return s.Start + s.Length
}

// DocumentState is what a view needs to show one update.
type DocumentState struct {
	Text           string
	CursorPosition int
	Selection      *Selection
}

// HasSelection reports whether any styled run was seen.
func (d DocumentState) HasSelection() bool {
	return d.Selection != nil
}

// Reconcile walks ops in order and builds the resulting DocumentState.
//
// A cursor marker sets the cursor to the running offset plus the marker's
// local offset; a later marker replaces an earlier one. The first styled run
// fixes the selection start and every further run only adds its length, so a
// selection split across op boundaries comes back as one range. Styles that
// are not exactly [start, length, styleID] are ignored.
func Reconcile(ops []rpc.LineOp) DocumentState {
	var (
		b     strings.Builder
		state DocumentState
		pos   int
	)

	for _, op := range ops {
		if len(op.Cursor) > 0 {
			state.CursorPosition = pos + op.Cursor[0]
		}

		if len(op.Styles) == 3 {
			start, length := op.Styles[0], op.Styles[1]
			if state.Selection == nil {
				state.Selection = &Selection{Start: pos + start, Length: length}
			} else {
				state.Selection.Length += length
			}
		}

		b.WriteString(op.Text)
		pos += utf8.RuneCountInString(op.Text)
	}

	state.Text = b.String()
	return state
}
