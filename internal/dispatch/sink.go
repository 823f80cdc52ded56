package dispatch

// DocumentSink receives reconciled document state. Each call replaces what
// was shown before. Calls come only from the dispatcher goroutine.
type DocumentSink interface {
	SetText(text string)
	SetCaretPosition(offset int)
	SetSelection(start, length int)
}

// TextSink receives unstructured text, such as a syntax tree dump.
type TextSink interface {
	SetText(text string)
}

// LineWriter is the write side of the transport.
type LineWriter interface {
	WriteLine(line []byte) error
}
