package rpc

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/sjson"
)

// TabID is the only tab this client ever opens.
const TabID = "0"

// Top-level backend methods.
const (
	MethodNewTab = "new_tab"
	MethodEdit   = "edit"
)

// Edit operations carried inside an "edit" request.
const (
	OpOpen                        = "open"
	OpInsert                      = "insert"
	OpMoveUp                      = "move_up"
	OpMoveDown                    = "move_down"
	OpMoveLeft                    = "move_left"
	OpMoveRight                   = "move_right"
	OpMoveUpAndModifySelection    = "move_up_and_modify_selection"
	OpMoveDownAndModifySelection  = "move_down_and_modify_selection"
	OpMoveLeftAndModifySelection  = "move_left_and_modify_selection"
	OpMoveRightAndModifySelection = "move_right_and_modify_selection"
	OpMoveToLeftEndOfLine         = "move_to_left_end_of_line"
	OpMoveToRightEndOfLine        = "move_to_right_end_of_line"
	OpDeleteBackward              = "delete_backward"
	OpDeleteForward               = "delete_forward"
	OpInsertNewline               = "insert_newline"
	OpExtendSelection             = "extend_selection"
	OpPageUp                      = "page_up"
	OpPageDown                    = "page_down"
)

// Request is an outbound call before it has been given an id.
type Request struct {
	Method string
	Params any
}

// Command is a Request bound to its command id.
type Command struct {
	ID     int64  `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params"`
}

// EditParams is the envelope of every "edit" request.
type EditParams struct {
	Method string `json:"method"`
	Tab    string `json:"tab"`
	Params any    `json:"params"`
}

// OpenParams names the document to open.
type OpenParams struct {
	Filename string `json:"filename"`
}

// InsertParams carries typed characters.
type InsertParams struct {
	Chars string `json:"chars"`
}

// noParams is what the backend expects for parameterless calls.
var noParams = []any{}

// NewTab requests a new tab from the backend.
func NewTab() Request {
	return Request{Method: MethodNewTab, Params: noParams}
}

// Edit wraps op and params in the edit envelope addressed to TabID.
func Edit(op string, params any) Request {
	if params == nil {
		params = noParams
	}
	return Request{
		Method: MethodEdit,
		Params: EditParams{Method: op, Tab: TabID, Params: params},
	}
}

// Open asks the backend to load filename into the tab.
func Open(filename string) Request {
	return Edit(OpOpen, OpenParams{Filename: filename})
}

// Insert inserts chars at the cursor.
func Insert(chars string) Request {
	return Edit(OpInsert, InsertParams{Chars: chars})
}

// Simple builds an edit op that takes no parameters, such as OpMoveUp.
func Simple(op string) Request {
	return Edit(op, nil)
}

// Encoder numbers and serializes commands.
type Encoder struct {
	next int64
}

// NewEncoder returns an Encoder whose first command id is 0.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Next returns the id the next successful Encode will use.
func (e *Encoder) Next() int64 {
	return e.next
}

// Encode assigns req the next id and renders it as one line without a
// trailing newline. An id is consumed only when encoding succeeds.
func (e *Encoder) Encode(req Request) (Command, []byte, error) {
	cmd, line, err := e.EncodeNext(req)
	if err != nil {
		return Command{}, nil, err
	}
	e.Commit()
	return cmd, line, nil
}

// Commit consumes the id used by the last EncodeNext.
func (e *Encoder) Commit() {
	e.next++
}

// EncodeNext renders req with the next id without consuming it. Callers
// that deliver the line call Commit afterwards, so a line that never
// reaches the backend leaves no gap.
func (e *Encoder) EncodeNext(req Request) (Command, []byte, error) {
	if req.Method == "" {
		return Command{}, nil, ErrEmptyMethod
	}

	params := req.Params
	if params == nil {
		params = noParams
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return Command{}, nil, fmt.Errorf("marshal params for %s: %w", req.Method, err)
	}

	cmd := Command{ID: e.next, Method: req.Method, Params: params}

	line := []byte(`{}`)
	if line, err = sjson.SetBytes(line, "id", cmd.ID); err != nil {
		return Command{}, nil, fmt.Errorf("set id: %w", err)
	}
	if line, err = sjson.SetBytes(line, "method", cmd.Method); err != nil {
		return Command{}, nil, fmt.Errorf("set method: %w", err)
	}
	if line, err = sjson.SetRawBytes(line, "params", raw); err != nil {
		return Command{}, nil, fmt.Errorf("set params: %w", err)
	}
	return cmd, line, nil
}
