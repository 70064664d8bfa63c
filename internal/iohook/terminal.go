package iohook

import (
	"context"
	"fmt"

	"github.com/stealthrocket/iohook/internal/irp"
)

// Backend performs the genuine operation for each request kind. It sits at
// the end of every chain, behind Terminal.
type Backend interface {
	Open(ctx context.Context, r *irp.Request) error
	Close(ctx context.Context, r *irp.Request) error
	Read(ctx context.Context, r *irp.Request) error
	Write(ctx context.Context, r *irp.Request) error
	Ioctl(ctx context.Context, r *irp.Request) error
	Flush(ctx context.Context, r *irp.Request) error
	Seek(ctx context.Context, r *irp.Request) error

	Socket(ctx context.Context, r *irp.Request) error
	CloseSocket(ctx context.Context, r *irp.Request) error
	Bind(ctx context.Context, r *irp.Request) error
	Connect(ctx context.Context, r *irp.Request) error
	Listen(ctx context.Context, r *irp.Request) error
	Accept(ctx context.Context, r *irp.Request) error
	RecvFrom(ctx context.Context, r *irp.Request) error
	SendTo(ctx context.Context, r *irp.Request) error
	IoctlSocket(ctx context.Context, r *irp.Request) error
	GetSockName(ctx context.Context, r *irp.Request) error
	GetPeerName(ctx context.Context, r *irp.Request) error
	GetSockOpt(ctx context.Context, r *irp.Request) error
	SetSockOpt(ctx context.Context, r *irp.Request) error
}

// Terminal is the last handler of a chain. It never forwards.
type Terminal struct {
	Backend Backend
}

func (t Terminal) HandleIRP(ctx context.Context, _ *Chain, r *irp.Request) error {
	b := t.Backend
	switch r.Op {
	case irp.Open:
		return b.Open(ctx, r)
	case irp.Close:
		return b.Close(ctx, r)
	case irp.Read:
		return b.Read(ctx, r)
	case irp.Write:
		return b.Write(ctx, r)
	case irp.Ioctl:
		return b.Ioctl(ctx, r)
	case irp.Flush:
		return b.Flush(ctx, r)
	case irp.Seek:
		return b.Seek(ctx, r)
	case irp.Socket:
		return b.Socket(ctx, r)
	case irp.CloseSocket:
		return b.CloseSocket(ctx, r)
	case irp.Bind:
		return b.Bind(ctx, r)
	case irp.Connect:
		return b.Connect(ctx, r)
	case irp.Listen:
		return b.Listen(ctx, r)
	case irp.Accept:
		return b.Accept(ctx, r)
	case irp.RecvFrom:
		return b.RecvFrom(ctx, r)
	case irp.SendTo:
		return b.SendTo(ctx, r)
	case irp.IoctlSocket:
		return b.IoctlSocket(ctx, r)
	case irp.GetSockName:
		return b.GetSockName(ctx, r)
	case irp.GetPeerName:
		return b.GetPeerName(ctx, r)
	case irp.GetSockOpt:
		return b.GetSockOpt(ctx, r)
	case irp.SetSockOpt:
		return b.SetSockOpt(ctx, r)
	default:
		panic(fmt.Sprintf("BUG: no real I/O function for %s", r.Op))
	}
}
