package rpc

import (
	"errors"
	"reflect"
	"testing"
)

func TestDecode_Update(t *testing.T) {
	line := `{"method":"update","params":{"tab":"0","update":{"ops":[` +
		`{"op":"ins","text":"ab","cursor":[1]},` +
		`{"op":"ins","text":"cd","styles":[0,1,5]},` +
		`{"op":"skip"}]}}}`

	msg, err := Decode([]byte(line))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	u, ok := msg.(Update)
	if !ok {
		t.Fatalf("Decode() = %T, want Update", msg)
	}
	if u.Tab != "0" {
		t.Errorf("Tab = %q, want 0", u.Tab)
	}

	want := []LineOp{
		{Text: "ab", Cursor: []int{1}},
		{Text: "cd", Styles: []int{0, 1, 5}},
		{},
	}
	if !reflect.DeepEqual(u.Ops, want) {
		t.Errorf("Ops = %+v, want %+v", u.Ops, want)
	}
	if err := u.CheckTab(); err != nil {
		t.Errorf("CheckTab() = %v", err)
	}
}

func TestDecode_UpdateNestedLines(t *testing.T) {
	line := `{"method":"update","params":{"tab":"0","update":{"ops":[` +
		`{"op":"ins","n":2,"lines":[{"text":"one\n","cursor":[3]},{"text":"two"}]},` +
		`{"op":"ins","n":1,"lines":[{"text":"!","styles":[0,1,0]}]}]}}}`

	msg, err := Decode([]byte(line))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	u := msg.(Update)

	want := []LineOp{
		{Text: "one\n", Cursor: []int{3}},
		{Text: "two"},
		{Text: "!", Styles: []int{0, 1, 0}},
	}
	if !reflect.DeepEqual(u.Ops, want) {
		t.Errorf("Ops = %+v, want %+v", u.Ops, want)
	}
}

func TestDecode_Ast(t *testing.T) {
	msg, err := Decode([]byte(`{"method":"ast","params":{"ast":"(object\n  (pair))"}}`))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	a, ok := msg.(AstDump)
	if !ok {
		t.Fatalf("Decode() = %T, want AstDump", msg)
	}
	if a.AST != "(object\n  (pair))" {
		t.Errorf("AST = %q", a.AST)
	}
}

func TestDecode_UnknownMethod(t *testing.T) {
	msg, err := Decode([]byte(`{"method":"scroll_to","params":{"line":4}}`))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if u, ok := msg.(Unknown); !ok || u.Method != "scroll_to" {
		t.Errorf("Decode() = %#v, want Unknown{scroll_to}", msg)
	}
}

func TestDecode_Reply(t *testing.T) {
	msg, err := Decode([]byte(`{"id":0,"result":"0"}`))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	r, ok := msg.(Reply)
	if !ok {
		t.Fatalf("Decode() = %T, want Reply", msg)
	}
	if r.ID != 0 || r.Result != `"0"` || r.Error != "" {
		t.Errorf("Reply = %+v", r)
	}
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"not json", `{"method":`},
		{"array", `[1,2]`},
		{"no method no id", `{"params":{}}`},
		{"method not string", `{"method":7}`},
		{"update without tab", `{"method":"update","params":{"update":{"ops":[]}}}`},
		{"update without ops", `{"method":"update","params":{"tab":"0","update":{}}}`},
		{"op not object", `{"method":"update","params":{"tab":"0","update":{"ops":[3]}}}`},
		{"ast without text", `{"method":"ast","params":{}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Decode([]byte(tt.line))
			if err == nil {
				t.Fatalf("Decode() = %#v, want error", msg)
			}
			if !errors.Is(err, ErrMalformedPayload) {
				t.Errorf("error = %v, want ErrMalformedPayload", err)
			}
			var pe *PayloadError
			if !errors.As(err, &pe) || pe.Line != tt.line {
				t.Errorf("error does not carry the line: %v", err)
			}
		})
	}
}

func TestUpdate_CheckTab(t *testing.T) {
	err := Update{Tab: "1"}.CheckTab()
	if !errors.Is(err, ErrTabMismatch) {
		t.Fatalf("CheckTab() = %v, want ErrTabMismatch", err)
	}
	var pe *ProtocolError
	if !errors.As(err, &pe) || pe.Tab != "1" {
		t.Errorf("error = %#v", err)
	}
}
