// Package realio forwards requests to the genuine implementations of the
// intercepted entry points.
package realio

import (
	"fmt"

	"github.com/stealthrocket/iohook/internal/hooktable"
)

// Bindings holds the address of the genuine implementation of every
// intercepted entry point. The slots are filled by the installer with the
// bindings it replaced, and by Backfill for the exit paths the process never
// imported.
type Bindings struct {
	CloseHandle      uintptr
	CreateFileA      uintptr
	CreateFileW      uintptr
	DeviceIoControl  uintptr
	ReadFile         uintptr
	WriteFile        uintptr
	SetFilePointer   uintptr
	SetFilePointerEx uintptr
	FlushFileBuffers uintptr

	Socket      uintptr
	CloseSocket uintptr
	Bind        uintptr
	Connect     uintptr
	Listen      uintptr
	Accept      uintptr
	IoctlSocket uintptr
	GetSockName uintptr
	GetPeerName uintptr
	GetSockOpt  uintptr
	SetSockOpt  uintptr
	RecvFrom    uintptr
	SendTo      uintptr
	WSARecvFrom uintptr
	WSASendTo   uintptr
}

// Slot returns the binding of the exported symbol name, or nil if name is
// not an intercepted entry point.
func (b *Bindings) Slot(name string) *uintptr {
	switch name {
	case "CloseHandle":
		return &b.CloseHandle
	case "CreateFileA":
		return &b.CreateFileA
	case "CreateFileW":
		return &b.CreateFileW
	case "DeviceIoControl":
		return &b.DeviceIoControl
	case "ReadFile":
		return &b.ReadFile
	case "WriteFile":
		return &b.WriteFile
	case "SetFilePointer":
		return &b.SetFilePointer
	case "SetFilePointerEx":
		return &b.SetFilePointerEx
	case "FlushFileBuffers":
		return &b.FlushFileBuffers
	case "socket":
		return &b.Socket
	case "closesocket":
		return &b.CloseSocket
	case "bind":
		return &b.Bind
	case "connect":
		return &b.Connect
	case "listen":
		return &b.Listen
	case "accept":
		return &b.Accept
	case "ioctlsocket":
		return &b.IoctlSocket
	case "getsockname":
		return &b.GetSockName
	case "getpeername":
		return &b.GetPeerName
	case "getsockopt":
		return &b.GetSockOpt
	case "setsockopt":
		return &b.SetSockOpt
	case "recvfrom":
		return &b.RecvFrom
	case "sendto":
		return &b.SendTo
	case "WSARecvFrom":
		return &b.WSARecvFrom
	case "WSASendTo":
		return &b.WSASendTo
	default:
		return nil
	}
}

// Backfill resolves the symbols of module whose binding is still empty.
//
// Some requests leave through an entry point other than the one they entered
// by; an open made with CreateFileA is completed by CreateFileW. When the
// process never imported that exit path the installer had nothing to
// capture, and the binding is looked up in the module's exports instead.
func (b *Bindings) Backfill(resolver hooktable.Resolver, module string, names ...string) error {
	for _, name := range names {
		slot := b.Slot(name)
		if slot == nil {
			panic("BUG: no binding for " + name)
		}
		if *slot != 0 {
			continue
		}
		addr, err := resolver.Resolve(module, name)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", name, err)
		}
		*slot = addr
	}
	return nil
}
