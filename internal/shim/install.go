package shim

import (
	"errors"
	"fmt"

	"github.com/stealthrocket/iohook/internal/hooktable"
	"github.com/stealthrocket/iohook/internal/realio"
)

const (
	Kernel32Module = "kernel32.dll"
	WinsockModule  = "ws2_32.dll"
)

type export struct {
	name    string
	ordinal uint16
}

var kernel32Exports = [...]export{
	{name: "CloseHandle"},
	{name: "CreateFileA"},
	{name: "CreateFileW"},
	{name: "DeviceIoControl"},
	{name: "ReadFile"},
	{name: "WriteFile"},
	{name: "SetFilePointer"},
	{name: "SetFilePointerEx"},
	{name: "FlushFileBuffers"},
}

// The communications API is served without reaching the real functions, so
// no binding is recorded for it.
var commExports = [...]export{
	{name: "GetCommState"},
	{name: "SetCommState"},
	{name: "GetCommTimeouts"},
	{name: "SetCommTimeouts"},
	{name: "EscapeCommFunction"},
	{name: "GetCommMask"},
	{name: "SetCommMask"},
	{name: "SetupComm"},
	{name: "PurgeComm"},
	{name: "SetCommBreak"},
	{name: "ClearCommBreak"},
	{name: "ClearCommError"},
}

// Programs commonly import ws2_32 by ordinal.
var winsockExports = [...]export{
	{name: "socket", ordinal: 23},
	{name: "closesocket", ordinal: 3},
	{name: "bind", ordinal: 2},
	{name: "connect", ordinal: 4},
	{name: "listen", ordinal: 13},
	{name: "accept", ordinal: 1},
	{name: "ioctlsocket", ordinal: 10},
	{name: "getsockname", ordinal: 6},
	{name: "getpeername", ordinal: 5},
	{name: "getsockopt", ordinal: 7},
	{name: "setsockopt", ordinal: 21},
	{name: "recvfrom", ordinal: 17},
	{name: "sendto", ordinal: 20},
	{name: "WSARecvFrom", ordinal: 73},
	{name: "WSASendTo", ordinal: 78},
}

// Patches maps the name of each intercepted entry point to the native
// address of its replacement.
type Patches map[string]uintptr

func symbols(exports []export, patches Patches, bindings *realio.Bindings) []hooktable.Symbol {
	syms := make([]hooktable.Symbol, len(exports))
	for i, exp := range exports {
		patch := patches[exp.name]
		if patch == 0 {
			panic("BUG: no replacement for " + exp.name)
		}
		syms[i] = hooktable.Symbol{
			Name:    exp.name,
			Ordinal: exp.ordinal,
			Patch:   patch,
			Link:    bindings.Slot(exp.name),
		}
	}
	return syms
}

// Install redirects the file entry points of every loaded module to
// patches, and the socket entry points as well when sockets is true. The
// bindings that were replaced are recorded in bindings.
func Install(installer hooktable.Installer, resolver hooktable.Resolver, bindings *realio.Bindings, patches Patches, sockets bool) error {
	if err := installer.Apply(0, Kernel32Module, symbols(kernel32Exports[:], patches, bindings)); err != nil {
		return fmt.Errorf("installing %s hooks: %w", Kernel32Module, err)
	}
	// Opens and seeks leave through CreateFileW and SetFilePointerEx.
	if err := bindings.Backfill(resolver, Kernel32Module, "CreateFileW", "SetFilePointerEx"); err != nil {
		return err
	}
	if !sockets {
		return nil
	}
	if err := installer.Apply(0, WinsockModule, symbols(winsockExports[:], patches, bindings)); err != nil {
		return fmt.Errorf("installing %s hooks: %w", WinsockModule, err)
	}
	// Single-buffer transfers leave through WSARecvFrom and WSASendTo. A
	// process which has not loaded winsock has no socket to transfer on.
	err := bindings.Backfill(resolver, WinsockModule, "WSARecvFrom", "WSASendTo")
	if errors.Is(err, hooktable.ErrNotLoaded) {
		return nil
	}
	return err
}

// InstallSerial redirects the serial communications entry points of every
// loaded module to patches.
func InstallSerial(installer hooktable.Installer, patches Patches) error {
	syms := symbols(commExports[:], patches, new(realio.Bindings))
	if err := installer.Apply(0, Kernel32Module, syms); err != nil {
		return fmt.Errorf("installing %s serial hooks: %w", Kernel32Module, err)
	}
	return nil
}
