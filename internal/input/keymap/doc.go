// Package keymap maps terminal key events to editor actions.
//
// Keys are written in readable or Vim notation:
//
//	"Ctrl+W"     - Ctrl+W
//	"<C-w>"      - the same key
//	"Shift+Left" - Shift and the left arrow
//	"Enter"      - a named key
//	"F2"         - a function key
//
// Actions are backend edit commands ("move_left", "delete_backward"),
// literal insertions ("insert:\t") or the built-in "quit".
//
// A printable key without Ctrl or Alt that has no binding inserts its
// character.
package keymap
