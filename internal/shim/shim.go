// Package shim implements the intercepted entry points. Each entry point
// validates its arguments, describes the call as a request, forwards it
// through the hook and translates the outcome back into the calling
// convention of the function it replaces.
//
// The methods take Go values: a nil slice stands for a NULL pointer, and a
// slice length for the size argument that accompanies the pointer. The
// native glue performing that conversion lives in install_windows.go.
package shim

import "github.com/stealthrocket/iohook/internal/win32"

// Passthrough carries the socket transfers which cannot be expressed as a
// single request, such as scatter-gather buffers, to the genuine
// implementation. It reports errors through the last error itself.
type Passthrough interface {
	WSARecvFrom(s win32.Socket, bufs [][]byte, n, flags *uint32, from []byte, fromLen *int32, ov *win32.Overlapped, completion uintptr) int32
	WSASendTo(s win32.Socket, bufs [][]byte, n *uint32, flags uint32, to []byte, ov *win32.Overlapped, completion uintptr) int32
}

// overlappedResult completes a transfer of value bytes. When ov is set the
// completion is recorded in it and its event is signalled. The call reports
// success only if the caller asked for the count synchronously.
func overlappedResult(p win32.Platform, syncout *uint32, ov *win32.Overlapped, value uint32) bool {
	if ov != nil {
		ov.Internal = win32.STATUS_SUCCESS
		ov.InternalHigh = uintptr(value)
		if ov.HEvent != 0 {
			_ = p.SetEvent(ov.HEvent)
		}
	}
	if syncout != nil {
		*syncout = value
		p.SetLastError(win32.ERROR_SUCCESS)
		return true
	}
	p.SetLastError(win32.ERROR_IO_PENDING)
	return false
}
