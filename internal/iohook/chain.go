// Package iohook implements the ordered handler chain that every intercepted
// call is routed through, and the process-wide context owning it.
package iohook

import (
	"context"
	"fmt"
	"sync"

	"github.com/stealthrocket/iohook/internal/irp"
)

// Handler is implemented by the components that service requests.
//
// A handler may complete the request and return, forward it unchanged or
// after mutation by calling chain.InvokeNext, or fail it by returning an
// error.
type Handler interface {
	HandleIRP(ctx context.Context, chain *Chain, r *irp.Request) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, chain *Chain, r *irp.Request) error

func (f HandlerFunc) HandleIRP(ctx context.Context, chain *Chain, r *irp.Request) error {
	return f(ctx, chain, r)
}

// Chain is an ordered list of handlers. The zero value is an empty chain
// ready to use.
//
// Handlers are prepended, except for the terminal handler which always stays
// last. A change replaces the list with a copy so invocations in progress
// keep walking the list they started with.
type Chain struct {
	mutex    sync.Mutex
	handlers []Handler
}

// Push inserts handler at the front of the chain. The error return is
// reserved for allocation failures, which the Go runtime does not report, so
// it is always nil.
func (c *Chain) Push(handler Handler) error {
	if handler == nil {
		panic("BUG: pushing nil handler on the chain")
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()

	handlers := make([]Handler, 0, len(c.handlers)+1)
	handlers = append(handlers, handler)
	handlers = append(handlers, c.handlers...)
	c.handlers = handlers
	return nil
}

// terminate places handler at the end of the chain, behind every handler
// pushed so far.
func (c *Chain) terminate(handler Handler) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	handlers := make([]Handler, 0, len(c.handlers)+1)
	handlers = append(handlers, c.handlers...)
	handlers = append(handlers, handler)
	c.handlers = handlers
}

// Len returns the number of handlers on the chain.
func (c *Chain) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.handlers)
}

// InvokeNext calls the handler at r.NextHandler after advancing the index.
// If the handler fails, r is marked exhausted.
func (c *Chain) InvokeNext(ctx context.Context, r *irp.Request) error {
	c.mutex.Lock()
	handlers := c.handlers
	c.mutex.Unlock()

	i := r.NextHandler
	if i < 0 || i >= len(handlers) {
		panic(fmt.Sprintf("BUG: %s request handler index out of range: %d/%d", r.Op, i, len(handlers)))
	}
	r.NextHandler++

	err := handlers[i].HandleIRP(ctx, c, r)
	if err != nil {
		r.NextHandler = irp.Exhausted
	}
	return err
}
