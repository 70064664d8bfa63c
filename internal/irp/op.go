package irp

import "fmt"

// Op identifies the operation carried by a Request.
type Op int

const (
	// File I/O
	Open Op = iota
	Close
	Read
	Write
	Ioctl
	Flush
	Seek

	// Socket I/O
	Socket
	CloseSocket
	Bind
	Connect
	Listen
	Accept
	RecvFrom
	SendTo
	IoctlSocket
	GetSockName
	GetPeerName
	GetSockOpt
	SetSockOpt
)

func (op Op) String() string {
	if op < 0 || int(op) >= len(opStrings) {
		return fmt.Sprintf("Op(%d)", int(op))
	}
	return opStrings[op]
}

var opStrings = [...]string{
	"Open",
	"Close",
	"Read",
	"Write",
	"Ioctl",
	"Flush",
	"Seek",
	"Socket",
	"CloseSocket",
	"Bind",
	"Connect",
	"Listen",
	"Accept",
	"RecvFrom",
	"SendTo",
	"IoctlSocket",
	"GetSockName",
	"GetPeerName",
	"GetSockOpt",
	"SetSockOpt",
}

// IsSocket reports whether op belongs to the socket family.
func (op Op) IsSocket() bool { return op >= Socket && op <= SetSockOpt }
