package dispatch

import "github.com/dshills/xifront/internal/rpc"

// Kind identifies the producer of an Event.
type Kind int

const (
	// KindDiagnostic is a line from the backend's diagnostic stream.
	KindDiagnostic Kind = iota
	// KindInbound is a line from the backend's reply stream.
	KindInbound
	// KindOutbound is a request to send to the backend.
	KindOutbound
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindDiagnostic:
		return "diagnostic"
	case KindInbound:
		return "inbound"
	case KindOutbound:
		return "outbound"
	default:
		return "unknown"
	}
}

// Event is one unit of work for the dispatcher: Diagnostic, Inbound or
// Outbound.
type Event interface {
	Kind() Kind
}

// Diagnostic carries one line of backend diagnostic output.
type Diagnostic struct {
	Text string
}

// Inbound carries one raw line from the backend.
type Inbound struct {
	Line string
}

// Outbound carries a request that has not been numbered yet.
type Outbound struct {
	Request rpc.Request
}

// Kind implements Event.
func (Diagnostic) Kind() Kind { return KindDiagnostic }

// Kind implements Event.
func (Inbound) Kind() Kind { return KindInbound }

// Kind implements Event.
func (Outbound) Kind() Kind { return KindOutbound }
