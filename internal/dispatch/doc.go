// Package dispatch implements the client's event loop.
//
// Three kinds of producer feed one bounded FIFO intake: the diagnostic
// stream reader, the reply stream reader and the input handler. A single
// consumer goroutine (Run) drains the intake in arrival order and is the
// only code that writes to the backend or pushes state to the views, so
// neither needs a lock.
//
//	d := dispatch.New(tr, codeView, astView)
//	go d.Run(ctx)
//	d.Enqueue(ctx, dispatch.Outbound{Request: rpc.NewTab()})
//
// When the intake is full, Enqueue blocks. Nothing is dropped.
package dispatch
