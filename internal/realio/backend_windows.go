//go:build windows && (amd64 || arm64)

package realio

import (
	"context"
	"runtime"
	"syscall"
	"unsafe"

	"github.com/ebitengine/purego"
	"golang.org/x/sys/windows"

	"github.com/stealthrocket/iohook/internal/iohook"
	"github.com/stealthrocket/iohook/internal/irp"
	"github.com/stealthrocket/iohook/internal/win32"
)

// Backend completes requests by calling the genuine entry points captured in
// its bindings. It is the terminal backend of the hook in a hosted process.
type Backend struct {
	bindings *Bindings
	platform win32.Platform
}

func NewBackend(bindings *Bindings, platform win32.Platform) *Backend {
	return &Backend{bindings: bindings, platform: platform}
}

var _ iohook.Backend = (*Backend)(nil)

type wsabuf struct {
	len uint32
	buf uintptr
}

func call(fn uintptr, args ...uintptr) (uintptr, syscall.Errno) {
	if fn == 0 {
		panic("BUG: calling an entry point which was never bound")
	}
	r1, _, errno := purego.SyscallN(fn, args...)
	return r1, syscall.Errno(errno)
}

func failure(errno syscall.Errno) error {
	return win32.HResultFromWin32(win32.Errno(errno))
}

func addr(b []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))
}

func ref[T any](p *T) uintptr {
	return uintptr(unsafe.Pointer(p))
}

func (b *Backend) Open(ctx context.Context, r *irp.Request) error {
	name, err := windows.UTF16PtrFromString(r.OpenName)
	if err != nil {
		return win32.HResultFromWin32(win32.ERROR_INVALID_PARAMETER)
	}
	h, errno := call(b.bindings.CreateFileW,
		ref(name),
		uintptr(r.OpenAccess),
		uintptr(r.OpenShare),
		r.OpenSecurity,
		uintptr(r.OpenCreation),
		uintptr(r.OpenFlags),
		uintptr(r.OpenTemplate),
	)
	runtime.KeepAlive(name)
	if win32.Handle(h) == win32.InvalidHandle {
		return failure(errno)
	}
	r.Handle = win32.Handle(h)
	return nil
}

func (b *Backend) Close(ctx context.Context, r *irp.Request) error {
	if ok, errno := call(b.bindings.CloseHandle, uintptr(r.Handle)); ok == 0 {
		return failure(errno)
	}
	return nil
}

func (b *Backend) Read(ctx context.Context, r *irp.Request) error {
	dst := r.Read.Bytes[r.Read.Pos:]
	var n uint32
	ok, errno := call(b.bindings.ReadFile, uintptr(r.Handle), addr(dst), uintptr(len(dst)), ref(&n), ref(r.Overlapped))
	runtime.KeepAlive(dst)
	if ok == 0 {
		return failure(errno)
	}
	r.Read.Pos += int(n)
	return nil
}

func (b *Backend) Write(ctx context.Context, r *irp.Request) error {
	src := r.Write.Unread()
	var n uint32
	ok, errno := call(b.bindings.WriteFile, uintptr(r.Handle), addr(src), uintptr(len(src)), ref(&n), ref(r.Overlapped))
	runtime.KeepAlive(src)
	if ok == 0 {
		return failure(errno)
	}
	r.Write.Pos += int(n)
	return nil
}

func (b *Backend) Ioctl(ctx context.Context, r *irp.Request) error {
	if r.Read.Pos != 0 || r.Write.Pos != 0 {
		panic("BUG: device control requests cannot carry partial transfers")
	}
	in, out := r.Write.Bytes, r.Read.Bytes
	var n uint32
	ok, errno := call(b.bindings.DeviceIoControl,
		uintptr(r.Handle),
		uintptr(r.Ioctl),
		addr(in), uintptr(len(in)),
		addr(out), uintptr(len(out)),
		ref(&n),
		ref(r.Overlapped),
	)
	runtime.KeepAlive(in)
	runtime.KeepAlive(out)
	// The count is meaningful even on failure, for ERROR_MORE_DATA.
	r.Read.Pos = int(n)
	if ok == 0 {
		return failure(errno)
	}
	return nil
}

func (b *Backend) Flush(ctx context.Context, r *irp.Request) error {
	if ok, errno := call(b.bindings.FlushFileBuffers, uintptr(r.Handle)); ok == 0 {
		return failure(errno)
	}
	return nil
}

func (b *Backend) Seek(ctx context.Context, r *irp.Request) error {
	ok, errno := call(b.bindings.SetFilePointerEx, uintptr(r.Handle), uintptr(r.SeekOffset), ref(&r.SeekPos), uintptr(r.SeekOrigin))
	if ok == 0 {
		return failure(errno)
	}
	return nil
}

func (b *Backend) Socket(ctx context.Context, r *irp.Request) error {
	s, errno := call(b.bindings.Socket, uintptr(r.SockFamily), uintptr(r.SockType), uintptr(r.SockProtocol))
	if win32.Socket(s) == win32.InvalidSocket {
		return failure(errno)
	}
	r.Handle = win32.Handle(s)
	return nil
}

// status calls a winsock function returning zero or SOCKET_ERROR.
func status(fn uintptr, args ...uintptr) error {
	ret, errno := call(fn, args...)
	if int32(ret) < 0 {
		return failure(errno)
	}
	return nil
}

func (b *Backend) CloseSocket(ctx context.Context, r *irp.Request) error {
	return status(b.bindings.CloseSocket, uintptr(r.Handle))
}

func (b *Backend) Bind(ctx context.Context, r *irp.Request) error {
	defer runtime.KeepAlive(r.AddrOut)
	return status(b.bindings.Bind, uintptr(r.Handle), addr(r.AddrOut), uintptr(len(r.AddrOut)))
}

func (b *Backend) Connect(ctx context.Context, r *irp.Request) error {
	defer runtime.KeepAlive(r.AddrOut)
	return status(b.bindings.Connect, uintptr(r.Handle), addr(r.AddrOut), uintptr(len(r.AddrOut)))
}

func (b *Backend) Listen(ctx context.Context, r *irp.Request) error {
	return status(b.bindings.Listen, uintptr(r.Handle), uintptr(r.ListenBacklog))
}

func (b *Backend) Accept(ctx context.Context, r *irp.Request) error {
	s, errno := call(b.bindings.Accept, uintptr(r.Handle), addr(r.AddrIn), ref(r.AddrInLen))
	runtime.KeepAlive(r.AddrIn)
	if win32.Socket(s) == win32.InvalidSocket {
		return failure(errno)
	}
	r.Accepted = win32.Handle(s)
	return nil
}

func (b *Backend) IoctlSocket(ctx context.Context, r *irp.Request) error {
	return status(b.bindings.IoctlSocket, uintptr(r.Handle), uintptr(r.SockIoctl), ref(r.SockIoctlParam))
}

func (b *Backend) GetSockName(ctx context.Context, r *irp.Request) error {
	defer runtime.KeepAlive(r.AddrIn)
	return status(b.bindings.GetSockName, uintptr(r.Handle), addr(r.AddrIn), ref(r.AddrInLen))
}

func (b *Backend) GetPeerName(ctx context.Context, r *irp.Request) error {
	defer runtime.KeepAlive(r.AddrIn)
	return status(b.bindings.GetPeerName, uintptr(r.Handle), addr(r.AddrIn), ref(r.AddrInLen))
}

func (b *Backend) GetSockOpt(ctx context.Context, r *irp.Request) error {
	if r.Read.Pos != 0 {
		panic("BUG: socket option requests cannot carry partial transfers")
	}
	val := r.Read.Bytes
	n := int32(len(val))
	defer runtime.KeepAlive(val)
	if err := status(b.bindings.GetSockOpt, uintptr(r.Handle), uintptr(r.SockOptLevel), uintptr(r.SockOptName), addr(val), ref(&n)); err != nil {
		return err
	}
	r.Read.Pos = int(n)
	return nil
}

func (b *Backend) SetSockOpt(ctx context.Context, r *irp.Request) error {
	val := r.Write.Bytes
	defer runtime.KeepAlive(val)
	return status(b.bindings.SetSockOpt, uintptr(r.Handle), uintptr(r.SockOptLevel), uintptr(r.SockOptName), addr(val), uintptr(len(val)))
}

// Single segment transfers leave through WSARecvFrom and WSASendTo, which
// accept both an OVERLAPPED and a completion routine.

func (b *Backend) RecvFrom(ctx context.Context, r *irp.Request) error {
	dst := r.Read.Bytes[r.Read.Pos:]
	buf := wsabuf{len: uint32(len(dst)), buf: addr(dst)}
	var n uint32
	defer runtime.KeepAlive(dst)
	defer runtime.KeepAlive(r.AddrIn)
	err := status(b.bindings.WSARecvFrom,
		uintptr(r.Handle),
		ref(&buf), 1,
		ref(&n),
		ref(&r.SockFlags),
		addr(r.AddrIn), ref(r.AddrInLen),
		ref(r.Overlapped),
		r.Completion,
	)
	if err != nil {
		return err
	}
	r.Read.Pos += int(n)
	return nil
}

func (b *Backend) SendTo(ctx context.Context, r *irp.Request) error {
	src := r.Write.Unread()
	buf := wsabuf{len: uint32(len(src)), buf: addr(src)}
	var n uint32
	defer runtime.KeepAlive(src)
	defer runtime.KeepAlive(r.AddrOut)
	err := status(b.bindings.WSASendTo,
		uintptr(r.Handle),
		ref(&buf), 1,
		ref(&n),
		uintptr(r.SockFlags),
		addr(r.AddrOut), uintptr(len(r.AddrOut)),
		ref(r.Overlapped),
		r.Completion,
	)
	if err != nil {
		return err
	}
	r.Write.Pos += int(n)
	return nil
}

func wsabufs(bufs [][]byte) []wsabuf {
	out := make([]wsabuf, len(bufs))
	for i, b := range bufs {
		out[i] = wsabuf{len: uint32(len(b)), buf: addr(b)}
	}
	return out
}

func (b *Backend) WSARecvFrom(s win32.Socket, bufs [][]byte, n, flags *uint32, from []byte, fromLen *int32, ov *win32.Overlapped, completion uintptr) int32 {
	vec := wsabufs(bufs)
	ret, errno := call(b.bindings.WSARecvFrom,
		uintptr(s),
		uintptr(unsafe.Pointer(unsafe.SliceData(vec))), uintptr(len(vec)),
		ref(n), ref(flags),
		addr(from), ref(fromLen),
		ref(ov),
		completion,
	)
	runtime.KeepAlive(vec)
	runtime.KeepAlive(bufs)
	if int32(ret) != 0 {
		b.platform.SetLastError(win32.Errno(errno))
	}
	return int32(ret)
}

func (b *Backend) WSASendTo(s win32.Socket, bufs [][]byte, n *uint32, flags uint32, to []byte, ov *win32.Overlapped, completion uintptr) int32 {
	vec := wsabufs(bufs)
	ret, errno := call(b.bindings.WSASendTo,
		uintptr(s),
		uintptr(unsafe.Pointer(unsafe.SliceData(vec))), uintptr(len(vec)),
		ref(n), uintptr(flags),
		addr(to), uintptr(len(to)),
		ref(ov),
		completion,
	)
	runtime.KeepAlive(vec)
	runtime.KeepAlive(bufs)
	if int32(ret) != 0 {
		b.platform.SetLastError(win32.Errno(errno))
	}
	return int32(ret)
}
