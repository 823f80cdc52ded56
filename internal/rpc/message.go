package rpc

import (
	"github.com/tidwall/gjson"
)

// Notification methods understood by this client.
const (
	MethodUpdate = "update"
	MethodAST    = "ast"
)

// Message is one decoded line from the backend. The concrete type is one of
// Update, AstDump, Reply or Unknown.
type Message interface {
	message()
}

// Update carries the line ops of a document refresh.
type Update struct {
	Tab string
	Ops []LineOp
}

// AstDump carries a textual syntax tree for the secondary pane.
type AstDump struct {
	AST string
}

// Reply is the backend's response to one of our commands.
type Reply struct {
	ID     int64
	Result string // raw JSON, empty when absent
	Error  string // raw JSON, empty when absent
}

// Unknown is a notification this client does not handle.
type Unknown struct {
	Method string
}

func (Update) message() {}
func (AstDump) message() {}
func (Reply) message() {}
func (Unknown) message() {}

// LineOp is one element of an update's op list.
type LineOp struct {
	Text   string
	Cursor []int // first element is the cursor offset within Text
	Styles []int // [start, length, styleID] when well formed
}

// Decode parses one inbound line.
//
// Lines with a "method" are notifications; lines with an "id" and no
// method are replies. Anything else is malformed.
func Decode(line []byte) (Message, error) {
	if !gjson.ValidBytes(line) {
		return nil, malformed(line, "invalid json")
	}
	root := gjson.ParseBytes(line)
	if !root.IsObject() {
		return nil, malformed(line, "not an object")
	}

	method := root.Get("method")
	if !method.Exists() {
		id := root.Get("id")
		if id.Type != gjson.Number {
			return nil, malformed(line, "missing method")
		}
		return Reply{
			ID:     id.Int(),
			Result: root.Get("result").Raw,
			Error:  root.Get("error").Raw,
		}, nil
	}
	if method.Type != gjson.String {
		return nil, malformed(line, "method is not a string")
	}

	switch method.Str {
	case MethodUpdate:
		return decodeUpdate(line, root.Get("params"))
	case MethodAST:
		ast := root.Get("params.ast")
		if ast.Type != gjson.String {
			return nil, malformed(line, "ast: missing params.ast")
		}
		return AstDump{AST: ast.Str}, nil
	default:
		return Unknown{Method: method.Str}, nil
	}
}

func decodeUpdate(line []byte, params gjson.Result) (Message, error) {
	tab := params.Get("tab")
	if tab.Type != gjson.String {
		return nil, malformed(line, "update: missing params.tab")
	}
	ops := params.Get("update.ops")
	if !ops.IsArray() {
		return nil, malformed(line, "update: missing params.update.ops")
	}

	u := Update{Tab: tab.Str}
	for _, op := range ops.Array() {
		if !op.IsObject() {
			return nil, malformed(line, "update: op is not an object")
		}
		// Older backends group text under a per-op "lines" array.
		if lines := op.Get("lines"); lines.IsArray() {
			for _, l := range lines.Array() {
				u.Ops = append(u.Ops, decodeLineOp(l))
			}
			continue
		}
		u.Ops = append(u.Ops, decodeLineOp(op))
	}
	return u, nil
}

func decodeLineOp(v gjson.Result) LineOp {
	op := LineOp{Text: v.Get("text").String()}
	if c := v.Get("cursor"); c.IsArray() {
		op.Cursor = ints(c)
	}
	if s := v.Get("styles"); s.IsArray() {
		op.Styles = ints(s)
	}
	return op
}

func ints(v gjson.Result) []int {
	arr := v.Array()
	out := make([]int, 0, len(arr))
	for _, n := range arr {
		out = append(out, int(n.Int()))
	}
	return out
}

// CheckTab returns a *ProtocolError when u is addressed to another tab.
func (u Update) CheckTab() error {
	if u.Tab != TabID {
		return &ProtocolError{Tab: u.Tab}
	}
	return nil
}
