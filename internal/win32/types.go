package win32

// Handle is an opaque kernel object handle.
type Handle uintptr

// InvalidHandle is INVALID_HANDLE_VALUE.
const InvalidHandle = ^Handle(0)

// Valid reports whether h can name an open object. Both NULL and
// INVALID_HANDLE_VALUE are rejected by the file entry points.
func (h Handle) Valid() bool { return h != 0 && h != InvalidHandle }

// Socket is a Winsock socket descriptor.
type Socket uintptr

const (
	// InvalidSocket is INVALID_SOCKET.
	InvalidSocket = ^Socket(0)
	// SocketError is the SOCKET_ERROR return value.
	SocketError int32 = -1
)

// Valid reports whether s can name an open socket.
func (s Socket) Valid() bool { return s != 0 && s != InvalidSocket }

// STATUS_SUCCESS is stored in Overlapped.Internal on completion.
const STATUS_SUCCESS = 0

// Overlapped mirrors the OVERLAPPED structure layout.
type Overlapped struct {
	Internal     uintptr
	InternalHigh uintptr
	Offset       uint32
	OffsetHigh   uint32
	HEvent       Handle
}

const (
	GENERIC_READ  = 0x80000000
	GENERIC_WRITE = 0x40000000

	FILE_SHARE_READ  = 0x00000001
	FILE_SHARE_WRITE = 0x00000002

	CREATE_NEW        = 1
	CREATE_ALWAYS     = 2
	OPEN_EXISTING     = 3
	OPEN_ALWAYS       = 4
	TRUNCATE_EXISTING = 5

	FILE_FLAG_OVERLAPPED = 0x40000000

	FILE_BEGIN   = 0
	FILE_CURRENT = 1
	FILE_END     = 2

	INVALID_SET_FILE_POINTER = 0xffffffff
)

// NulDevice is the name of the always-available null device.
const NulDevice = "NUL"
