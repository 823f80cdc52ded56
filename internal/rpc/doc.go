// Package rpc implements the line-delimited JSON-RPC dialect spoken by the
// xi-core editing backend.
//
// Outbound traffic is built from Requests. An Encoder assigns each request
// the next command id and serializes it to a single line:
//
//	enc := rpc.NewEncoder()
//	cmd, line, err := enc.Encode(rpc.Insert("x"))
//	// line == {"id":0,"method":"edit","params":{"method":"insert","tab":"0","params":{"chars":"x"}}}
//
// Inbound traffic is decoded into a closed set of message variants
// (Update, AstDump, Reply, Unknown) so callers switch on Go types instead of
// re-inspecting raw JSON:
//
//	msg, err := rpc.Decode(line)
//	switch m := msg.(type) {
//	case rpc.Update:
//	    // m.Ops
//	case rpc.AstDump:
//	    // m.AST
//	}
//
// The Encoder is not safe for concurrent use. It is meant to be owned by the
// single goroutine that writes to the backend.
package rpc
