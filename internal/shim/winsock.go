package shim

import (
	"context"

	"github.com/stealthrocket/iohook/internal/iohook"
	"github.com/stealthrocket/iohook/internal/irp"
	"github.com/stealthrocket/iohook/internal/win32"
)

// Winsock implements the socket entry points.
type Winsock struct {
	hook        *iohook.Hook
	platform    win32.Platform
	passthrough Passthrough
}

func NewWinsock(hook *iohook.Hook, platform win32.Platform, passthrough Passthrough) *Winsock {
	return &Winsock{hook: hook, platform: platform, passthrough: passthrough}
}

func (w *Winsock) invalid() int32 {
	w.platform.SetLastError(win32.WSAEINVAL)
	return win32.SocketError
}

// result translates the outcome of a request into the SOCKET_ERROR
// convention.
func (w *Winsock) result(err error) int32 {
	if err != nil {
		win32.Propagate(w.platform, err)
		return win32.SocketError
	}
	w.platform.SetLastError(win32.ERROR_SUCCESS)
	return 0
}

func (w *Winsock) Socket(ctx context.Context, af, typ, proto int32) win32.Socket {
	r := &irp.Request{
		Op:           irp.Socket,
		Handle:       win32.Handle(win32.InvalidSocket),
		SockFamily:   af,
		SockType:     typ,
		SockProtocol: proto,
	}
	if err := w.hook.InvokeNext(ctx, r); err != nil {
		win32.Propagate(w.platform, err)
		return win32.InvalidSocket
	}
	w.platform.SetLastError(win32.ERROR_SUCCESS)
	return win32.Socket(r.Handle)
}

func (w *Winsock) CloseSocket(ctx context.Context, s win32.Socket) int32 {
	if s == win32.InvalidSocket {
		return w.invalid()
	}
	r := &irp.Request{Op: irp.CloseSocket, Handle: win32.Handle(s)}
	return w.result(w.hook.InvokeNext(ctx, r))
}

func (w *Winsock) Bind(ctx context.Context, s win32.Socket, name []byte) int32 {
	return w.address(ctx, irp.Bind, s, name)
}

func (w *Winsock) Connect(ctx context.Context, s win32.Socket, name []byte) int32 {
	return w.address(ctx, irp.Connect, s, name)
}

func (w *Winsock) address(ctx context.Context, op irp.Op, s win32.Socket, name []byte) int32 {
	if !s.Valid() || name == nil {
		return w.invalid()
	}
	r := &irp.Request{Op: op, Handle: win32.Handle(s), AddrOut: name}
	return w.result(w.hook.InvokeNext(ctx, r))
}

func (w *Winsock) Listen(ctx context.Context, s win32.Socket, backlog int32) int32 {
	if !s.Valid() || backlog < 0 {
		return w.invalid()
	}
	r := &irp.Request{Op: irp.Listen, Handle: win32.Handle(s), ListenBacklog: backlog}
	return w.result(w.hook.InvokeNext(ctx, r))
}

func (w *Winsock) Accept(ctx context.Context, s win32.Socket, addr []byte, addrLen *int32) win32.Socket {
	if !s.Valid() || addr == nil || addrLen == nil {
		w.invalid()
		return win32.InvalidSocket
	}
	r := &irp.Request{
		Op:        irp.Accept,
		Handle:    win32.Handle(s),
		AddrIn:    addr,
		AddrInLen: addrLen,
		Accepted:  win32.Handle(win32.InvalidSocket),
	}
	if err := w.hook.InvokeNext(ctx, r); err != nil {
		win32.Propagate(w.platform, err)
		return win32.InvalidSocket
	}
	w.platform.SetLastError(win32.ERROR_SUCCESS)
	return win32.Socket(r.Accepted)
}

func (w *Winsock) IoctlSocket(ctx context.Context, s win32.Socket, cmd int32, arg *uint32) int32 {
	if !s.Valid() {
		return w.invalid()
	}
	r := &irp.Request{Op: irp.IoctlSocket, Handle: win32.Handle(s), SockIoctl: cmd, SockIoctlParam: arg}
	return w.result(w.hook.InvokeNext(ctx, r))
}

func (w *Winsock) GetSockName(ctx context.Context, s win32.Socket, name []byte, nameLen *int32) int32 {
	return w.name(ctx, irp.GetSockName, s, name, nameLen)
}

func (w *Winsock) GetPeerName(ctx context.Context, s win32.Socket, name []byte, nameLen *int32) int32 {
	return w.name(ctx, irp.GetPeerName, s, name, nameLen)
}

func (w *Winsock) name(ctx context.Context, op irp.Op, s win32.Socket, name []byte, nameLen *int32) int32 {
	if !s.Valid() || name == nil || nameLen == nil || *nameLen < 0 {
		return w.invalid()
	}
	r := &irp.Request{Op: op, Handle: win32.Handle(s), AddrIn: name, AddrInLen: nameLen}
	return w.result(w.hook.InvokeNext(ctx, r))
}

// GetSockOpt reports in valLen the number of bytes the chain produced.
func (w *Winsock) GetSockOpt(ctx context.Context, s win32.Socket, level, name int32, val []byte, valLen *int32) int32 {
	if !s.Valid() || val == nil || valLen == nil {
		return w.invalid()
	}
	r := &irp.Request{
		Op:           irp.GetSockOpt,
		Handle:       win32.Handle(s),
		Read:         irp.MakeBuffer(val),
		SockOptLevel: level,
		SockOptName:  name,
	}
	if err := w.hook.InvokeNext(ctx, r); err != nil {
		return w.result(err)
	}
	*valLen = int32(r.Read.Pos)
	return w.result(nil)
}

func (w *Winsock) SetSockOpt(ctx context.Context, s win32.Socket, level, name int32, val []byte) int32 {
	if !s.Valid() || val == nil {
		return w.invalid()
	}
	r := &irp.Request{
		Op:           irp.SetSockOpt,
		Handle:       win32.Handle(s),
		Write:        irp.MakeConstBuffer(val),
		SockOptLevel: level,
		SockOptName:  name,
	}
	return w.result(w.hook.InvokeNext(ctx, r))
}

// RecvFrom returns the number of bytes received.
func (w *Winsock) RecvFrom(ctx context.Context, s win32.Socket, buf []byte, flags int32, from []byte, fromLen *int32) int32 {
	if !s.Valid() || buf == nil {
		return w.invalid()
	}
	if from != nil && fromLen == nil {
		return w.invalid()
	}
	if fromLen != nil && *fromLen < 0 {
		return w.invalid()
	}
	r := &irp.Request{
		Op:        irp.RecvFrom,
		Handle:    win32.Handle(s),
		Read:      irp.MakeBuffer(buf),
		SockFlags: uint32(flags),
		AddrIn:    from,
		AddrInLen: fromLen,
	}
	if err := w.hook.InvokeNext(ctx, r); err != nil {
		return w.result(err)
	}
	w.platform.SetLastError(win32.ERROR_SUCCESS)
	return int32(r.Read.Pos)
}

// SendTo returns the number of bytes sent. A negative toLen is rejected; the
// length of to is the address length otherwise.
func (w *Winsock) SendTo(ctx context.Context, s win32.Socket, buf []byte, flags int32, to []byte, toLen int32) int32 {
	if !s.Valid() || buf == nil || toLen < 0 {
		return w.invalid()
	}
	if to != nil && int(toLen) < len(to) {
		to = to[:toLen]
	}
	r := &irp.Request{
		Op:        irp.SendTo,
		Handle:    win32.Handle(s),
		Write:     irp.MakeConstBuffer(buf),
		SockFlags: uint32(flags),
		AddrOut:   to,
	}
	if err := w.hook.InvokeNext(ctx, r); err != nil {
		return w.result(err)
	}
	w.platform.SetLastError(win32.ERROR_SUCCESS)
	return int32(r.Write.Pos)
}

// WSARecvFrom forwards single-buffer receives through the chain. Receives
// into several buffers go straight to the genuine implementation.
func (w *Winsock) WSARecvFrom(ctx context.Context, s win32.Socket, bufs [][]byte, n, flags *uint32, from []byte, fromLen *int32, ov *win32.Overlapped, completion uintptr) int32 {
	if len(bufs) > 1 {
		return w.passthrough.WSARecvFrom(s, bufs, n, flags, from, fromLen, ov, completion)
	}
	switch {
	case !s.Valid(), len(bufs) == 0, flags == nil:
		return w.invalid()
	case from != nil && fromLen == nil:
		return w.invalid()
	case n == nil && ov == nil:
		return w.invalid()
	}
	r := &irp.Request{
		Op:         irp.RecvFrom,
		Handle:     win32.Handle(s),
		Overlapped: ov,
		Completion: completion,
		Read:       irp.MakeBuffer(bufs[0]),
		SockFlags:  *flags,
		AddrIn:     from,
		AddrInLen:  fromLen,
	}
	if err := w.hook.InvokeNext(ctx, r); err != nil {
		return w.result(err)
	}
	*flags = r.SockFlags
	if !overlappedResult(w.platform, n, ov, uint32(r.Read.Pos)) {
		return win32.SocketError
	}
	return 0
}

// WSASendTo forwards single-buffer sends through the chain. Any other
// buffer count goes straight to the genuine implementation.
func (w *Winsock) WSASendTo(ctx context.Context, s win32.Socket, bufs [][]byte, n *uint32, flags uint32, to []byte, ov *win32.Overlapped, completion uintptr) int32 {
	if len(bufs) != 1 {
		return w.passthrough.WSASendTo(s, bufs, n, flags, to, ov, completion)
	}
	switch {
	case !s.Valid():
		return w.invalid()
	case n == nil && ov == nil:
		return w.invalid()
	}
	r := &irp.Request{
		Op:         irp.SendTo,
		Handle:     win32.Handle(s),
		Overlapped: ov,
		Completion: completion,
		Write:      irp.MakeConstBuffer(bufs[0]),
		SockFlags:  flags,
		AddrOut:    to,
	}
	if err := w.hook.InvokeNext(ctx, r); err != nil {
		return w.result(err)
	}
	if !overlappedResult(w.platform, n, ov, uint32(r.Write.Pos)) {
		return win32.SocketError
	}
	return 0
}
