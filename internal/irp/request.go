// Package irp defines the request record carried through the handler chain
// and the bounded buffer views that describe partial transfers.
package irp

import "github.com/stealthrocket/iohook/internal/win32"

// Exhausted is stored in Request.NextHandler once a handler has failed. A
// request in this state cannot be forwarded again.
const Exhausted = -1

// Request is the description of one intercepted I/O call and of its result.
//
// Only the fields of the group selected by Op are meaningful; all others are
// left zero. Requests are built by the entry points for the duration of a
// single call and never reused.
type Request struct {
	Op          Op
	NextHandler int

	Handle     win32.Handle
	Overlapped *win32.Overlapped
	// Completion routine reference. It is carried to the genuine call and
	// never invoked by the chain.
	Completion uintptr

	// For Ioctl, Write is the input block and Read the output block.
	Write ConstBuffer
	Read  Buffer

	// Open
	OpenName     string
	OpenAccess   uint32
	OpenShare    uint32
	OpenSecurity uintptr
	OpenCreation uint32
	OpenFlags    uint32
	OpenTemplate win32.Handle

	// Seek
	SeekOrigin uint32
	SeekOffset int64
	SeekPos    uint64

	// Sockets
	SockFamily     int32
	SockType       int32
	SockProtocol   int32
	ListenBacklog  int32
	SockFlags      uint32
	AddrOut        []byte
	AddrIn         []byte
	AddrInLen      *int32
	Accepted       win32.Handle
	SockIoctl      int32
	SockIoctlParam *uint32
	SockOptLevel   int32
	SockOptName    int32

	// Device control
	Ioctl uint32
}

// Exhausted reports whether a handler already failed this request.
func (r *Request) Exhausted() bool { return r.NextHandler == Exhausted }
