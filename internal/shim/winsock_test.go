package shim_test

import (
	"context"
	"testing"

	"github.com/stealthrocket/iohook/internal/assert"
	"github.com/stealthrocket/iohook/internal/iohook"
	"github.com/stealthrocket/iohook/internal/iohook/iohooktest"
	"github.com/stealthrocket/iohook/internal/irp"
	"github.com/stealthrocket/iohook/internal/shim"
	"github.com/stealthrocket/iohook/internal/uart"
	"github.com/stealthrocket/iohook/internal/win32"
	"github.com/stealthrocket/iohook/internal/win32/win32test"
)

type passthrough struct {
	recvs int
	sends int
}

func (p *passthrough) WSARecvFrom(s win32.Socket, bufs [][]byte, n, flags *uint32, from []byte, fromLen *int32, ov *win32.Overlapped, completion uintptr) int32 {
	p.recvs++
	total := 0
	for _, b := range bufs {
		total += copy(b, "xy")
	}
	*n = uint32(total)
	return 0
}

func (p *passthrough) WSASendTo(s win32.Socket, bufs [][]byte, n *uint32, flags uint32, to []byte, ov *win32.Overlapped, completion uintptr) int32 {
	p.sends++
	return 0
}

func setupWinsock(t *testing.T) (*shim.Winsock, *iohooktest.Backend, *win32test.Platform, *passthrough, *iohook.Hook) {
	t.Helper()
	backend := &iohooktest.Backend{Funcs: map[irp.Op]func(*irp.Request) error{}}
	hook := iohook.New()
	hook.Init(backend)
	platform := new(win32test.Platform)
	pass := new(passthrough)
	return shim.NewWinsock(hook, platform, pass), backend, platform, pass, hook
}

func TestSocketLifecycle(t *testing.T) {
	ctx := context.Background()
	w, backend, platform, _, _ := setupWinsock(t)

	s := w.Socket(ctx, 2, 1, 6)
	assert.True(t, s.Valid())
	assert.Equal(t, platform.LastError(), win32.ERROR_SUCCESS)

	addr := make([]byte, 16)
	assert.Equal(t, w.Bind(ctx, s, addr), 0)
	assert.Equal(t, w.Listen(ctx, s, 5), 0)

	peer := make([]byte, 16)
	peerLen := int32(len(peer))
	c := w.Accept(ctx, s, peer, &peerLen)
	assert.True(t, c.Valid())
	assert.NotEqual(t, c, s)

	assert.Equal(t, w.CloseSocket(ctx, c), 0)
	assert.Equal(t, w.CloseSocket(ctx, s), 0)
	assert.EqualAll(t, backend.Calls(), []irp.Op{
		irp.Socket, irp.Bind, irp.Listen, irp.Accept, irp.CloseSocket, irp.CloseSocket,
	})
}

func TestSocketFailure(t *testing.T) {
	ctx := context.Background()
	w, backend, platform, _, _ := setupWinsock(t)
	backend.Funcs[irp.Socket] = func(r *irp.Request) error {
		assert.Equal(t, win32.Socket(r.Handle), win32.InvalidSocket)
		return win32.HResultFromWin32(win32.WSAENOTSOCK)
	}
	backend.Funcs[irp.Connect] = func(r *irp.Request) error {
		return win32.HResultFromWin32(win32.ERROR_ACCESS_DENIED)
	}

	assert.Equal(t, w.Socket(ctx, 2, 1, 6), win32.InvalidSocket)
	assert.Equal(t, platform.LastError(), win32.WSAENOTSOCK)

	assert.Equal(t, w.Connect(ctx, 0x10, make([]byte, 16)), win32.SocketError)
	assert.Equal(t, platform.LastError(), win32.ERROR_ACCESS_DENIED)
}

func TestSocketValidation(t *testing.T) {
	ctx := context.Background()
	w, backend, platform, _, _ := setupWinsock(t)
	addr := make([]byte, 16)
	addrLen := int32(16)
	negative := int32(-1)

	tests := []struct {
		scenario string
		call     func() int32
	}{
		{"closesocket of INVALID_SOCKET", func() int32 { return w.CloseSocket(ctx, win32.InvalidSocket) }},
		{"bind without name", func() int32 { return w.Bind(ctx, 0x10, nil) }},
		{"connect on socket zero", func() int32 { return w.Connect(ctx, 0, addr) }},
		{"listen with negative backlog", func() int32 { return w.Listen(ctx, 0x10, -1) }},
		{"ioctlsocket on INVALID_SOCKET", func() int32 { return w.IoctlSocket(ctx, win32.InvalidSocket, 0, nil) }},
		{"getsockname without length", func() int32 { return w.GetSockName(ctx, 0x10, addr, nil) }},
		{"getpeername with negative length", func() int32 { return w.GetPeerName(ctx, 0x10, addr, &negative) }},
		{"getsockopt without value", func() int32 { return w.GetSockOpt(ctx, 0x10, 1, 2, nil, &addrLen) }},
		{"setsockopt without value", func() int32 { return w.SetSockOpt(ctx, 0x10, 1, 2, nil) }},
		{"recvfrom without buffer", func() int32 { return w.RecvFrom(ctx, 0x10, nil, 0, nil, nil) }},
		{"recvfrom with address but no length", func() int32 { return w.RecvFrom(ctx, 0x10, addr, 0, addr, nil) }},
		{"recvfrom with negative address length", func() int32 { return w.RecvFrom(ctx, 0x10, addr, 0, nil, &negative) }},
		{"sendto with negative address length", func() int32 { return w.SendTo(ctx, 0x10, addr, 0, addr, -1) }},
		{"WSARecvFrom without buffers", func() int32 { return w.WSARecvFrom(ctx, 0x10, nil, new(uint32), new(uint32), nil, nil, nil, 0) }},
		{"WSARecvFrom without flags", func() int32 { return w.WSARecvFrom(ctx, 0x10, [][]byte{addr}, new(uint32), nil, nil, nil, nil, 0) }},
		{"WSARecvFrom without count or overlapped", func() int32 { return w.WSARecvFrom(ctx, 0x10, [][]byte{addr}, nil, new(uint32), nil, nil, nil, 0) }},
		{"WSASendTo on socket zero", func() int32 { return w.WSASendTo(ctx, 0, [][]byte{addr}, new(uint32), 0, nil, nil, 0) }},
		{"WSASendTo without count or overlapped", func() int32 { return w.WSASendTo(ctx, 0x10, [][]byte{addr}, nil, 0, nil, nil, 0) }},
	}

	for _, test := range tests {
		t.Run(test.scenario, func(t *testing.T) {
			platform.Reset()
			assert.Equal(t, test.call(), win32.SocketError)
			assert.Equal(t, platform.LastError(), win32.WSAEINVAL)
		})
	}

	assert.Equal(t, w.Accept(ctx, 0x10, nil, &addrLen), win32.InvalidSocket)
	assert.Equal(t, platform.LastError(), win32.WSAEINVAL)
	assert.Equal(t, len(backend.Calls()), 0)
}

func TestGetSockOptLength(t *testing.T) {
	ctx := context.Background()
	w, backend, platform, _, _ := setupWinsock(t)
	backend.Funcs[irp.GetSockOpt] = func(r *irp.Request) error {
		assert.Equal(t, r.SockOptLevel, 0xffff)
		assert.Equal(t, r.SockOptName, 0x1008)
		return r.Read.Write([]byte{1, 0, 0, 0})
	}

	val := make([]byte, 16)
	valLen := int32(len(val))
	assert.Equal(t, w.GetSockOpt(ctx, 0x10, 0xffff, 0x1008, val, &valLen), 0)
	assert.Equal(t, valLen, 4)
	assert.Equal(t, platform.LastError(), win32.ERROR_SUCCESS)
}

func TestSetSockOpt(t *testing.T) {
	ctx := context.Background()
	w, backend, _, _, _ := setupWinsock(t)
	var got []byte
	backend.Funcs[irp.SetSockOpt] = func(r *irp.Request) error {
		got = r.Write.Unread()
		return nil
	}

	assert.Equal(t, w.SetSockOpt(ctx, 0x10, 6, 1, []byte{1, 0, 0, 0}), 0)
	assert.EqualAll(t, got, []byte{1, 0, 0, 0})
}

func TestIoctlSocket(t *testing.T) {
	ctx := context.Background()
	w, backend, _, _, _ := setupWinsock(t)
	backend.Funcs[irp.IoctlSocket] = func(r *irp.Request) error {
		*r.SockIoctlParam = 12
		return nil
	}

	var arg uint32
	assert.Equal(t, w.IoctlSocket(ctx, 0x10, 0x4004667f, &arg), 0)
	assert.Equal(t, arg, 12)
}

func TestGetSockName(t *testing.T) {
	ctx := context.Background()
	w, backend, _, _, _ := setupWinsock(t)
	backend.Funcs[irp.GetPeerName] = func(r *irp.Request) error {
		n := copy(r.AddrIn, []byte{2, 0, 0x1f, 0x90})
		*r.AddrInLen = int32(n)
		return nil
	}

	name := make([]byte, 16)
	nameLen := int32(len(name))
	assert.Equal(t, w.GetPeerName(ctx, 0x10, name, &nameLen), 0)
	assert.Equal(t, nameLen, 4)
	assert.Equal(t, name[2], 0x1f)
}

func TestRecvFromSendTo(t *testing.T) {
	ctx := context.Background()
	w, backend, platform, _, _ := setupWinsock(t)
	backend.Funcs[irp.RecvFrom] = func(r *irp.Request) error {
		assert.Equal(t, r.SockFlags, 2)
		return r.Read.Write([]byte("pong"))
	}
	var dest []byte
	backend.Funcs[irp.SendTo] = func(r *irp.Request) error {
		dest = r.AddrOut
		r.Write.Pos = r.Write.Remaining()
		return nil
	}

	buf := make([]byte, 8)
	assert.Equal(t, w.RecvFrom(ctx, 0x10, buf, 2, nil, nil), 4)
	assert.Equal(t, string(buf[:4]), "pong")
	assert.Equal(t, platform.LastError(), win32.ERROR_SUCCESS)

	to := []byte{2, 0, 0, 53, 127, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 0}
	assert.Equal(t, w.SendTo(ctx, 0x10, []byte("ping"), 0, to, 8), 4)
	assert.Equal(t, len(dest), 8)
}

func TestWSARecvFromFlags(t *testing.T) {
	ctx := context.Background()
	w, backend, platform, _, _ := setupWinsock(t)
	backend.Funcs[irp.RecvFrom] = func(r *irp.Request) error {
		assert.Equal(t, r.SockFlags, 0x2)
		assert.Equal(t, r.Completion, 0xc0de)
		r.SockFlags = 0x8000
		return r.Read.Write([]byte("data"))
	}

	n := uint32(0)
	flags := uint32(0x2)
	buf := make([]byte, 16)
	assert.Equal(t, w.WSARecvFrom(ctx, 0x10, [][]byte{buf}, &n, &flags, nil, nil, nil, 0xc0de), 0)
	assert.Equal(t, n, 4)
	assert.Equal(t, flags, 0x8000)
	assert.Equal(t, platform.LastError(), win32.ERROR_SUCCESS)

	flags = 0x2
	ov := &win32.Overlapped{HEvent: 0x77}
	assert.Equal(t, w.WSARecvFrom(ctx, 0x10, [][]byte{buf}, nil, &flags, nil, nil, ov, 0xc0de), win32.SocketError)
	assert.Equal(t, platform.LastError(), win32.ERROR_IO_PENDING)
	assert.Equal(t, ov.InternalHigh, 4)
	assert.EqualAll(t, platform.Events(), []win32.Handle{0x77})
}

func TestWSASendTo(t *testing.T) {
	ctx := context.Background()
	w, _, platform, pass, _ := setupWinsock(t)

	var n uint32
	assert.Equal(t, w.WSASendTo(ctx, 0x10, [][]byte{[]byte("abc")}, &n, 0, nil, nil, 0), 0)
	assert.Equal(t, n, 3)
	assert.Equal(t, platform.LastError(), win32.ERROR_SUCCESS)
	assert.Equal(t, pass.sends, 0)

	assert.Equal(t, w.WSASendTo(ctx, 0x10, nil, &n, 0, nil, nil, 0), 0)
	assert.Equal(t, w.WSASendTo(ctx, 0x10, [][]byte{{1}, {2}}, &n, 0, nil, nil, 0), 0)
	assert.Equal(t, pass.sends, 2)
}

func TestScatterGatherBypassesChain(t *testing.T) {
	ctx := context.Background()
	w, backend, _, pass, hook := setupWinsock(t)

	// A device on the chain would claim every request; multi-buffer
	// transfers must never reach it.
	_, err := uart.Register(hook, 1)
	assert.OK(t, err)

	a, b := make([]byte, 2), make([]byte, 2)
	var n, flags uint32
	// Validation is skipped as well, even for socket zero.
	assert.Equal(t, w.WSARecvFrom(ctx, 0, [][]byte{a, b}, &n, &flags, nil, nil, nil, 0), 0)
	assert.Equal(t, n, 4)
	assert.Equal(t, string(a)+string(b), "xyxy")
	assert.Equal(t, pass.recvs, 1)
	assert.Equal(t, len(backend.Calls()), 0)
}
