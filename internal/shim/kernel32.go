package shim

import (
	"context"
	"unicode/utf16"

	"github.com/stealthrocket/iohook/internal/iohook"
	"github.com/stealthrocket/iohook/internal/irp"
	"github.com/stealthrocket/iohook/internal/win32"
)

// Kernel32 implements the file and device entry points.
type Kernel32 struct {
	hook     *iohook.Hook
	platform win32.Platform
}

func NewKernel32(hook *iohook.Hook, platform win32.Platform) *Kernel32 {
	return &Kernel32{hook: hook, platform: platform}
}

func (k *Kernel32) fail(err error) bool {
	win32.Propagate(k.platform, err)
	return false
}

// CreateFileA converts the narrow name and continues as CreateFileW.
func (k *Kernel32) CreateFileA(ctx context.Context, name []byte, access, share uint32, security uintptr, creation, flags uint32, template win32.Handle) win32.Handle {
	if name == nil {
		k.platform.SetLastError(win32.ERROR_INVALID_PARAMETER)
		return win32.InvalidHandle
	}
	wide := utf16.Encode([]rune(string(name)))
	if wide == nil {
		wide = []uint16{}
	}
	return k.CreateFileW(ctx, wide, access, share, security, creation, flags, template)
}

func (k *Kernel32) CreateFileW(ctx context.Context, name []uint16, access, share uint32, security uintptr, creation, flags uint32, template win32.Handle) win32.Handle {
	if name == nil {
		k.platform.SetLastError(win32.ERROR_INVALID_PARAMETER)
		return win32.InvalidHandle
	}
	r := &irp.Request{
		Op:           irp.Open,
		Handle:       win32.InvalidHandle,
		OpenName:     decodeName(name),
		OpenAccess:   access,
		OpenShare:    share,
		OpenSecurity: security,
		OpenCreation: creation,
		OpenFlags:    flags,
		OpenTemplate: template,
	}
	if err := k.hook.InvokeNext(ctx, r); err != nil {
		win32.Propagate(k.platform, err)
		return win32.InvalidHandle
	}
	k.platform.SetLastError(win32.ERROR_SUCCESS)
	return r.Handle
}

// decodeName stops at the first NUL, if any.
func decodeName(name []uint16) string {
	for i, c := range name {
		if c == 0 {
			name = name[:i]
			break
		}
	}
	return string(utf16.Decode(name))
}

func (k *Kernel32) CloseHandle(ctx context.Context, h win32.Handle) bool {
	if !h.Valid() {
		return k.fail(win32.ERROR_INVALID_PARAMETER)
	}
	r := &irp.Request{Op: irp.Close, Handle: h}
	if err := k.hook.InvokeNext(ctx, r); err != nil {
		return k.fail(err)
	}
	// The last error is left untouched on success.
	return true
}

func (k *Kernel32) ReadFile(ctx context.Context, h win32.Handle, buf []byte, n *uint32, ov *win32.Overlapped) bool {
	if !h.Valid() || buf == nil {
		return k.fail(win32.ERROR_INVALID_PARAMETER)
	}
	if ov == nil {
		if n == nil {
			return k.fail(win32.ERROR_INVALID_PARAMETER)
		}
		*n = 0
	}
	r := &irp.Request{Op: irp.Read, Handle: h, Overlapped: ov, Read: irp.MakeBuffer(buf)}
	if err := k.hook.InvokeNext(ctx, r); err != nil {
		return k.fail(err)
	}
	return overlappedResult(k.platform, n, ov, uint32(r.Read.Pos))
}

func (k *Kernel32) WriteFile(ctx context.Context, h win32.Handle, buf []byte, n *uint32, ov *win32.Overlapped) bool {
	if !h.Valid() || buf == nil {
		return k.fail(win32.ERROR_INVALID_PARAMETER)
	}
	if ov == nil {
		if n == nil {
			return k.fail(win32.ERROR_INVALID_PARAMETER)
		}
		*n = 0
	}
	r := &irp.Request{Op: irp.Write, Handle: h, Overlapped: ov, Write: irp.MakeConstBuffer(buf)}
	if err := k.hook.InvokeNext(ctx, r); err != nil {
		return k.fail(err)
	}
	return overlappedResult(k.platform, n, ov, uint32(r.Write.Pos))
}

// SetFilePointer returns the low half of the new position and stores the
// high half in high when it is given.
func (k *Kernel32) SetFilePointer(ctx context.Context, h win32.Handle, low int32, high *int32, method uint32) uint32 {
	if !h.Valid() {
		k.platform.SetLastError(win32.ERROR_INVALID_PARAMETER)
		return win32.INVALID_SET_FILE_POINTER
	}
	r := &irp.Request{Op: irp.Seek, Handle: h, SeekOrigin: method}
	if high != nil {
		// The low half is zero-extended when a high half is supplied.
		r.SeekOffset = int64(*high)<<32 | int64(uint32(low))
	} else {
		r.SeekOffset = int64(low)
	}
	if err := k.hook.InvokeNext(ctx, r); err != nil {
		win32.Propagate(k.platform, err)
		return win32.INVALID_SET_FILE_POINTER
	}
	k.platform.SetLastError(win32.ERROR_SUCCESS)
	if high != nil {
		*high = int32(r.SeekPos >> 32)
	}
	return uint32(r.SeekPos)
}

func (k *Kernel32) SetFilePointerEx(ctx context.Context, h win32.Handle, distance int64, newPos *uint64, method uint32) bool {
	if !h.Valid() {
		return k.fail(win32.ERROR_INVALID_PARAMETER)
	}
	r := &irp.Request{Op: irp.Seek, Handle: h, SeekOffset: distance, SeekOrigin: method}
	if err := k.hook.InvokeNext(ctx, r); err != nil {
		return k.fail(err)
	}
	if newPos != nil {
		*newPos = r.SeekPos
	}
	k.platform.SetLastError(win32.ERROR_SUCCESS)
	return true
}

func (k *Kernel32) FlushFileBuffers(ctx context.Context, h win32.Handle) bool {
	if !h.Valid() {
		return k.fail(win32.ERROR_INVALID_PARAMETER)
	}
	r := &irp.Request{Op: irp.Flush, Handle: h}
	if err := k.hook.InvokeNext(ctx, r); err != nil {
		return k.fail(err)
	}
	k.platform.SetLastError(win32.ERROR_SUCCESS)
	return true
}

func (k *Kernel32) DeviceIoControl(ctx context.Context, h win32.Handle, code uint32, in, out []byte, returned *uint32, ov *win32.Overlapped) bool {
	if !h.Valid() {
		return k.fail(win32.ERROR_INVALID_PARAMETER)
	}
	if ov == nil {
		if returned == nil {
			return k.fail(win32.ERROR_INVALID_PARAMETER)
		}
		*returned = 0
	}
	r := &irp.Request{
		Op:         irp.Ioctl,
		Handle:     h,
		Overlapped: ov,
		Ioctl:      code,
		Write:      irp.MakeConstBuffer(in),
		Read:       irp.MakeBuffer(out),
	}
	if err := k.hook.InvokeNext(ctx, r); err != nil {
		// Callers receiving ERROR_MORE_DATA rely on the partial count.
		if returned != nil {
			*returned = uint32(r.Read.Pos)
		}
		return k.fail(err)
	}
	return overlappedResult(k.platform, returned, ov, uint32(r.Read.Pos))
}
