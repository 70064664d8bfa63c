// Package iohooktest provides an in-memory backend to exercise handler
// chains without a real platform behind them.
package iohooktest

import (
	"context"
	"sync"

	"github.com/stealthrocket/iohook/internal/irp"
	"github.com/stealthrocket/iohook/internal/win32"
)

// Backend records every request it receives. Open and Socket requests are
// given fresh handles; other requests succeed without side effects unless a
// function is registered for their operation in Funcs.
type Backend struct {
	Funcs map[irp.Op]func(*irp.Request) error

	mutex  sync.Mutex
	calls  []irp.Op
	names  []string
	handle win32.Handle
}

// Calls returns the operations received so far.
func (b *Backend) Calls() []irp.Op {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return append([]irp.Op(nil), b.calls...)
}

// Opened returns the names of the files opened so far.
func (b *Backend) Opened() []string {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return append([]string(nil), b.names...)
}

func (b *Backend) serve(r *irp.Request) error {
	b.mutex.Lock()
	b.calls = append(b.calls, r.Op)
	switch r.Op {
	case irp.Open:
		b.names = append(b.names, r.OpenName)
	}
	fn := b.Funcs[r.Op]
	b.mutex.Unlock()

	if fn != nil {
		return fn(r)
	}
	switch r.Op {
	case irp.Open, irp.Socket:
		r.Handle = b.nextHandle()
	case irp.Accept:
		r.Accepted = b.nextHandle()
	case irp.Write, irp.SendTo:
		r.Write.Pos = len(r.Write.Bytes)
	}
	return nil
}

func (b *Backend) nextHandle() win32.Handle {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.handle += 4
	return 0x100 + b.handle
}

func (b *Backend) Open(ctx context.Context, r *irp.Request) error        { return b.serve(r) }
func (b *Backend) Close(ctx context.Context, r *irp.Request) error       { return b.serve(r) }
func (b *Backend) Read(ctx context.Context, r *irp.Request) error        { return b.serve(r) }
func (b *Backend) Write(ctx context.Context, r *irp.Request) error       { return b.serve(r) }
func (b *Backend) Ioctl(ctx context.Context, r *irp.Request) error       { return b.serve(r) }
func (b *Backend) Flush(ctx context.Context, r *irp.Request) error       { return b.serve(r) }
func (b *Backend) Seek(ctx context.Context, r *irp.Request) error        { return b.serve(r) }
func (b *Backend) Socket(ctx context.Context, r *irp.Request) error      { return b.serve(r) }
func (b *Backend) CloseSocket(ctx context.Context, r *irp.Request) error { return b.serve(r) }
func (b *Backend) Bind(ctx context.Context, r *irp.Request) error        { return b.serve(r) }
func (b *Backend) Connect(ctx context.Context, r *irp.Request) error     { return b.serve(r) }
func (b *Backend) Listen(ctx context.Context, r *irp.Request) error      { return b.serve(r) }
func (b *Backend) Accept(ctx context.Context, r *irp.Request) error      { return b.serve(r) }
func (b *Backend) RecvFrom(ctx context.Context, r *irp.Request) error    { return b.serve(r) }
func (b *Backend) SendTo(ctx context.Context, r *irp.Request) error      { return b.serve(r) }
func (b *Backend) IoctlSocket(ctx context.Context, r *irp.Request) error { return b.serve(r) }
func (b *Backend) GetSockName(ctx context.Context, r *irp.Request) error { return b.serve(r) }
func (b *Backend) GetPeerName(ctx context.Context, r *irp.Request) error { return b.serve(r) }
func (b *Backend) GetSockOpt(ctx context.Context, r *irp.Request) error  { return b.serve(r) }
func (b *Backend) SetSockOpt(ctx context.Context, r *irp.Request) error  { return b.serve(r) }
