//go:build windows && (amd64 || arm64)

package shim

import (
	"context"
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/stealthrocket/iohook/internal/serial"
	"github.com/stealthrocket/iohook/internal/win32"
)

// wsabuf mirrors the WSABUF layout.
type wsabuf struct {
	len uint32
	buf uintptr
}

func ptr[T any](p uintptr) *T {
	return (*T)(unsafe.Pointer(p))
}

func bytesAt(p uintptr, n int) []byte {
	if p == 0 {
		return nil
	}
	if n < 0 {
		n = 0
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(p)), n)
}

// lengthAt returns the length stored at p, or zero when there is none.
func lengthAt(p uintptr) int {
	if p == 0 {
		return 0
	}
	return int(*ptr[int32](p))
}

func wideStringAt(p uintptr) []uint16 {
	if p == 0 {
		return nil
	}
	n := 0
	for *ptr[uint16](p + uintptr(2*n)) != 0 {
		n++
	}
	return unsafe.Slice((*uint16)(unsafe.Pointer(p)), n)
}

func stringAt(p uintptr) []byte {
	if p == 0 {
		return nil
	}
	n := 0
	for *ptr[byte](p + uintptr(n)) != 0 {
		n++
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(p)), n)
}

func buffersAt(p uintptr, n uint32) [][]byte {
	if p == 0 || n == 0 {
		return nil
	}
	bufs := make([][]byte, n)
	for i, b := range unsafe.Slice((*wsabuf)(unsafe.Pointer(p)), n) {
		bufs[i] = bytesAt(b.buf, int(b.len))
	}
	return bufs
}

func boolean(ok bool) uintptr {
	if ok {
		return 1
	}
	return 0
}

func status(ret int32) uintptr { return uintptr(ret) }

// NewPatches creates the native replacements of the entry points served by
// k, w and c. The Comm API is left out when c is nil. Callbacks are never
// released; they live as long as the process.
func NewPatches(k *Kernel32, w *Winsock, c *serial.Comm) Patches {
	ctx := context.Background()
	patches := Patches{
		"CloseHandle": purego.NewCallback(func(h uintptr) uintptr {
			return boolean(k.CloseHandle(ctx, win32.Handle(h)))
		}),
		"CreateFileA": purego.NewCallback(func(name, access, share, security, creation, flags, template uintptr) uintptr {
			return uintptr(k.CreateFileA(ctx, stringAt(name), uint32(access), uint32(share), security, uint32(creation), uint32(flags), win32.Handle(template)))
		}),
		"CreateFileW": purego.NewCallback(func(name, access, share, security, creation, flags, template uintptr) uintptr {
			return uintptr(k.CreateFileW(ctx, wideStringAt(name), uint32(access), uint32(share), security, uint32(creation), uint32(flags), win32.Handle(template)))
		}),
		"DeviceIoControl": purego.NewCallback(func(h, code, in, inLen, out, outLen, returned, ov uintptr) uintptr {
			return boolean(k.DeviceIoControl(ctx, win32.Handle(h), uint32(code),
				bytesAt(in, int(uint32(inLen))), bytesAt(out, int(uint32(outLen))),
				ptr[uint32](returned), ptr[win32.Overlapped](ov)))
		}),
		"ReadFile": purego.NewCallback(func(h, buf, n, read, ov uintptr) uintptr {
			return boolean(k.ReadFile(ctx, win32.Handle(h), bytesAt(buf, int(uint32(n))), ptr[uint32](read), ptr[win32.Overlapped](ov)))
		}),
		"WriteFile": purego.NewCallback(func(h, buf, n, written, ov uintptr) uintptr {
			return boolean(k.WriteFile(ctx, win32.Handle(h), bytesAt(buf, int(uint32(n))), ptr[uint32](written), ptr[win32.Overlapped](ov)))
		}),
		"SetFilePointer": purego.NewCallback(func(h, low, high, method uintptr) uintptr {
			return uintptr(k.SetFilePointer(ctx, win32.Handle(h), int32(uint32(low)), ptr[int32](high), uint32(method)))
		}),
		"SetFilePointerEx": purego.NewCallback(func(h, distance, newPos, method uintptr) uintptr {
			return boolean(k.SetFilePointerEx(ctx, win32.Handle(h), int64(distance), ptr[uint64](newPos), uint32(method)))
		}),
		"FlushFileBuffers": purego.NewCallback(func(h uintptr) uintptr {
			return boolean(k.FlushFileBuffers(ctx, win32.Handle(h)))
		}),

		"socket": purego.NewCallback(func(af, typ, proto uintptr) uintptr {
			return uintptr(w.Socket(ctx, int32(af), int32(typ), int32(proto)))
		}),
		"closesocket": purego.NewCallback(func(s uintptr) uintptr {
			return status(w.CloseSocket(ctx, win32.Socket(s)))
		}),
		"bind": purego.NewCallback(func(s, name, nameLen uintptr) uintptr {
			return status(w.Bind(ctx, win32.Socket(s), bytesAt(name, int(int32(nameLen)))))
		}),
		"connect": purego.NewCallback(func(s, name, nameLen uintptr) uintptr {
			return status(w.Connect(ctx, win32.Socket(s), bytesAt(name, int(int32(nameLen)))))
		}),
		"listen": purego.NewCallback(func(s, backlog uintptr) uintptr {
			return status(w.Listen(ctx, win32.Socket(s), int32(backlog)))
		}),
		"accept": purego.NewCallback(func(s, addr, addrLen uintptr) uintptr {
			return uintptr(w.Accept(ctx, win32.Socket(s), bytesAt(addr, lengthAt(addrLen)), ptr[int32](addrLen)))
		}),
		"ioctlsocket": purego.NewCallback(func(s, cmd, arg uintptr) uintptr {
			return status(w.IoctlSocket(ctx, win32.Socket(s), int32(cmd), ptr[uint32](arg)))
		}),
		"getsockname": purego.NewCallback(func(s, name, nameLen uintptr) uintptr {
			return status(w.GetSockName(ctx, win32.Socket(s), bytesAt(name, lengthAt(nameLen)), ptr[int32](nameLen)))
		}),
		"getpeername": purego.NewCallback(func(s, name, nameLen uintptr) uintptr {
			return status(w.GetPeerName(ctx, win32.Socket(s), bytesAt(name, lengthAt(nameLen)), ptr[int32](nameLen)))
		}),
		"getsockopt": purego.NewCallback(func(s, level, name, val, valLen uintptr) uintptr {
			return status(w.GetSockOpt(ctx, win32.Socket(s), int32(level), int32(name), bytesAt(val, lengthAt(valLen)), ptr[int32](valLen)))
		}),
		"setsockopt": purego.NewCallback(func(s, level, name, val, valLen uintptr) uintptr {
			return status(w.SetSockOpt(ctx, win32.Socket(s), int32(level), int32(name), bytesAt(val, int(int32(valLen)))))
		}),
		"recvfrom": purego.NewCallback(func(s, buf, n, flags, from, fromLen uintptr) uintptr {
			if int32(n) < 0 {
				buf = 0
			}
			return status(w.RecvFrom(ctx, win32.Socket(s), bytesAt(buf, int(int32(n))), int32(flags), bytesAt(from, lengthAt(fromLen)), ptr[int32](fromLen)))
		}),
		"sendto": purego.NewCallback(func(s, buf, n, flags, to, toLen uintptr) uintptr {
			if int32(n) < 0 {
				buf = 0
			}
			return status(w.SendTo(ctx, win32.Socket(s), bytesAt(buf, int(int32(n))), int32(flags), bytesAt(to, int(int32(toLen))), int32(toLen)))
		}),
		"WSARecvFrom": purego.NewCallback(func(s, bufs, nbufs, n, flags, from, fromLen, ov, completion uintptr) uintptr {
			return status(w.WSARecvFrom(ctx, win32.Socket(s), buffersAt(bufs, uint32(nbufs)), ptr[uint32](n), ptr[uint32](flags),
				bytesAt(from, lengthAt(fromLen)), ptr[int32](fromLen), ptr[win32.Overlapped](ov), completion))
		}),
		"WSASendTo": purego.NewCallback(func(s, bufs, nbufs, n, flags, to, toLen, ov, completion uintptr) uintptr {
			return status(w.WSASendTo(ctx, win32.Socket(s), buffersAt(bufs, uint32(nbufs)), ptr[uint32](n), uint32(flags),
				bytesAt(to, int(int32(toLen))), ptr[win32.Overlapped](ov), completion))
		}),
	}
	if c == nil {
		return patches
	}

	patches["GetCommState"] = purego.NewCallback(func(h, dcb uintptr) uintptr {
		return boolean(c.GetCommState(ctx, win32.Handle(h), ptr[serial.DCB](dcb)))
	})
	patches["SetCommState"] = purego.NewCallback(func(h, dcb uintptr) uintptr {
		return boolean(c.SetCommState(ctx, win32.Handle(h), ptr[serial.DCB](dcb)))
	})
	patches["GetCommTimeouts"] = purego.NewCallback(func(h, timeouts uintptr) uintptr {
		return boolean(c.GetCommTimeouts(ctx, win32.Handle(h), ptr[serial.CommTimeouts](timeouts)))
	})
	patches["SetCommTimeouts"] = purego.NewCallback(func(h, timeouts uintptr) uintptr {
		return boolean(c.SetCommTimeouts(ctx, win32.Handle(h), ptr[serial.CommTimeouts](timeouts)))
	})
	patches["EscapeCommFunction"] = purego.NewCallback(func(h, cmd uintptr) uintptr {
		return boolean(c.EscapeCommFunction(ctx, win32.Handle(h), uint32(cmd)))
	})
	patches["GetCommMask"] = purego.NewCallback(func(h, mask uintptr) uintptr {
		return boolean(c.GetCommMask(ctx, win32.Handle(h), ptr[uint32](mask)))
	})
	patches["SetCommMask"] = purego.NewCallback(func(h, mask uintptr) uintptr {
		return boolean(c.SetCommMask(ctx, win32.Handle(h), uint32(mask)))
	})
	patches["SetupComm"] = purego.NewCallback(func(h, in, out uintptr) uintptr {
		return boolean(c.SetupComm(ctx, win32.Handle(h), uint32(in), uint32(out)))
	})
	patches["PurgeComm"] = purego.NewCallback(func(h, flags uintptr) uintptr {
		return boolean(c.PurgeComm(ctx, win32.Handle(h), uint32(flags)))
	})
	patches["SetCommBreak"] = purego.NewCallback(func(h uintptr) uintptr {
		return boolean(c.SetCommBreak(ctx, win32.Handle(h)))
	})
	patches["ClearCommBreak"] = purego.NewCallback(func(h uintptr) uintptr {
		return boolean(c.ClearCommBreak(ctx, win32.Handle(h)))
	})
	patches["ClearCommError"] = purego.NewCallback(func(h, errors, stat uintptr) uintptr {
		return boolean(c.ClearCommError(ctx, win32.Handle(h), ptr[uint32](errors), ptr[serial.ComStat](stat)))
	})
	return patches
}
