package shim_test

import (
	"context"
	"testing"
	"unicode/utf16"

	"github.com/stealthrocket/iohook/internal/assert"
	"github.com/stealthrocket/iohook/internal/iohook"
	"github.com/stealthrocket/iohook/internal/iohook/iohooktest"
	"github.com/stealthrocket/iohook/internal/irp"
	"github.com/stealthrocket/iohook/internal/ntddser"
	"github.com/stealthrocket/iohook/internal/shim"
	"github.com/stealthrocket/iohook/internal/uart"
	"github.com/stealthrocket/iohook/internal/win32"
	"github.com/stealthrocket/iohook/internal/win32/win32test"
)

func setupKernel32(t *testing.T) (*shim.Kernel32, *iohooktest.Backend, *win32test.Platform, *iohook.Hook) {
	t.Helper()
	backend := &iohooktest.Backend{Funcs: map[irp.Op]func(*irp.Request) error{}}
	hook := iohook.New()
	hook.Init(backend)
	platform := new(win32test.Platform)
	return shim.NewKernel32(hook, platform), backend, platform, hook
}

func wide(s string) []uint16 { return utf16.Encode([]rune(s)) }

func TestCreateFile(t *testing.T) {
	ctx := context.Background()
	k, backend, platform, _ := setupKernel32(t)

	h := k.CreateFileW(ctx, wide("C:\\data.bin\x00"), win32.GENERIC_READ, 0, 0, win32.OPEN_EXISTING, 0, 0)
	assert.True(t, h.Valid())
	assert.Equal(t, platform.LastError(), win32.ERROR_SUCCESS)

	h = k.CreateFileA(ctx, []byte("log.txt"), win32.GENERIC_WRITE, 0, 0, win32.CREATE_ALWAYS, 0, 0)
	assert.True(t, h.Valid())
	assert.EqualAll(t, backend.Opened(), []string{`C:\data.bin`, "log.txt"})
}

func TestCreateFileNullName(t *testing.T) {
	ctx := context.Background()
	k, backend, platform, _ := setupKernel32(t)

	assert.Equal(t, k.CreateFileW(ctx, nil, 0, 0, 0, win32.OPEN_EXISTING, 0, 0), win32.InvalidHandle)
	assert.Equal(t, platform.LastError(), win32.ERROR_INVALID_PARAMETER)
	assert.Equal(t, k.CreateFileA(ctx, nil, 0, 0, 0, win32.OPEN_EXISTING, 0, 0), win32.InvalidHandle)
	assert.Equal(t, len(backend.Calls()), 0)
}

func TestCreateFileFailure(t *testing.T) {
	ctx := context.Background()
	k, backend, platform, _ := setupKernel32(t)
	backend.Funcs[irp.Open] = func(r *irp.Request) error {
		assert.Equal(t, r.Handle, win32.InvalidHandle)
		return win32.HResultFromWin32(win32.ERROR_FILE_NOT_FOUND)
	}

	h := k.CreateFileW(ctx, wide("missing"), win32.GENERIC_READ, 0, 0, win32.OPEN_EXISTING, 0, 0)
	assert.Equal(t, h, win32.InvalidHandle)
	assert.Equal(t, platform.LastError(), win32.ERROR_FILE_NOT_FOUND)
}

func TestCloseHandleKeepsLastError(t *testing.T) {
	ctx := context.Background()
	k, backend, platform, _ := setupKernel32(t)

	assert.True(t, k.CloseHandle(ctx, 0x104))
	assert.Equal(t, platform.LastError(), win32test.Unset)

	assert.False(t, k.CloseHandle(ctx, 0))
	assert.Equal(t, platform.LastError(), win32.ERROR_INVALID_PARAMETER)
	assert.False(t, k.CloseHandle(ctx, win32.InvalidHandle))
	assert.EqualAll(t, backend.Calls(), []irp.Op{irp.Close})
}

func TestReadFileValidation(t *testing.T) {
	ctx := context.Background()
	k, backend, platform, _ := setupKernel32(t)

	var n uint32
	assert.False(t, k.ReadFile(ctx, 0, make([]byte, 4), &n, nil))
	assert.Equal(t, platform.LastError(), win32.ERROR_INVALID_PARAMETER)
	assert.False(t, k.ReadFile(ctx, 0x104, nil, &n, nil))
	assert.False(t, k.ReadFile(ctx, 0x104, make([]byte, 4), nil, nil))
	assert.False(t, k.WriteFile(ctx, win32.InvalidHandle, []byte("x"), &n, nil))
	assert.False(t, k.WriteFile(ctx, 0x104, []byte("x"), nil, nil))
	assert.Equal(t, len(backend.Calls()), 0)
}

func TestReadFileSync(t *testing.T) {
	ctx := context.Background()
	k, backend, platform, _ := setupKernel32(t)
	backend.Funcs[irp.Read] = func(r *irp.Request) error {
		return r.Read.Write([]byte("abc"))
	}

	buf := make([]byte, 8)
	n := uint32(42)
	assert.True(t, k.ReadFile(ctx, 0x104, buf, &n, nil))
	assert.Equal(t, n, 3)
	assert.Equal(t, string(buf[:n]), "abc")
	assert.Equal(t, platform.LastError(), win32.ERROR_SUCCESS)
}

func TestReadFileFailureZeroesCount(t *testing.T) {
	ctx := context.Background()
	k, backend, platform, _ := setupKernel32(t)
	backend.Funcs[irp.Read] = func(r *irp.Request) error {
		return win32.ERROR_ACCESS_DENIED
	}

	n := uint32(42)
	assert.False(t, k.ReadFile(ctx, 0x104, make([]byte, 8), &n, nil))
	assert.Equal(t, n, 0)
	assert.Equal(t, platform.LastError(), win32.ERROR_ACCESS_DENIED)
}

func TestWriteFileOverlapped(t *testing.T) {
	ctx := context.Background()
	k, _, platform, _ := setupKernel32(t)

	ov := &win32.Overlapped{Internal: 0x103, HEvent: 0x2a}
	assert.False(t, k.WriteFile(ctx, 0x104, []byte("hello"), nil, ov))
	assert.Equal(t, platform.LastError(), win32.ERROR_IO_PENDING)
	assert.Equal(t, ov.Internal, win32.STATUS_SUCCESS)
	assert.Equal(t, ov.InternalHigh, 5)
	assert.EqualAll(t, platform.Events(), []win32.Handle{0x2a})

	// With both an OVERLAPPED and a count the call completes synchronously.
	var n uint32
	ov = new(win32.Overlapped)
	assert.True(t, k.WriteFile(ctx, 0x104, []byte("hi"), &n, ov))
	assert.Equal(t, n, 2)
	assert.Equal(t, ov.InternalHigh, 2)
	assert.Equal(t, platform.LastError(), win32.ERROR_SUCCESS)
	assert.Equal(t, len(platform.Events()), 1)
}

func TestSetFilePointer(t *testing.T) {
	ctx := context.Background()
	k, backend, platform, _ := setupKernel32(t)

	var offsets []int64
	backend.Funcs[irp.Seek] = func(r *irp.Request) error {
		offsets = append(offsets, r.SeekOffset)
		r.SeekPos = 0x1_0000_0010
		return nil
	}

	high := int32(0)
	assert.Equal(t, k.SetFilePointer(ctx, 0x104, -1, &high, win32.FILE_BEGIN), 0x10)
	assert.Equal(t, high, 1)
	assert.Equal(t, platform.LastError(), win32.ERROR_SUCCESS)

	assert.Equal(t, k.SetFilePointer(ctx, 0x104, -1, nil, win32.FILE_CURRENT), 0x10)

	high = -1
	k.SetFilePointer(ctx, 0x104, 16, &high, win32.FILE_END)

	assert.EqualAll(t, offsets, []int64{0xffffffff, -1, -0x1_0000_0000 + 16})
}

func TestSetFilePointerFailure(t *testing.T) {
	ctx := context.Background()
	k, backend, platform, _ := setupKernel32(t)
	backend.Funcs[irp.Seek] = func(r *irp.Request) error {
		return win32.ERROR_INVALID_FUNCTION
	}

	high := int32(7)
	assert.Equal(t, k.SetFilePointer(ctx, 0x104, 0, &high, win32.FILE_BEGIN), win32.INVALID_SET_FILE_POINTER)
	assert.Equal(t, high, 7)
	assert.Equal(t, platform.LastError(), win32.ERROR_INVALID_FUNCTION)

	assert.Equal(t, k.SetFilePointer(ctx, 0, 0, nil, win32.FILE_BEGIN), win32.INVALID_SET_FILE_POINTER)
	assert.Equal(t, platform.LastError(), win32.ERROR_INVALID_PARAMETER)
}

func TestSetFilePointerEx(t *testing.T) {
	ctx := context.Background()
	k, backend, platform, _ := setupKernel32(t)
	backend.Funcs[irp.Seek] = func(r *irp.Request) error {
		r.SeekPos = uint64(100 + r.SeekOffset)
		return nil
	}

	var pos uint64
	assert.True(t, k.SetFilePointerEx(ctx, 0x104, 28, &pos, win32.FILE_CURRENT))
	assert.Equal(t, pos, 128)
	assert.True(t, k.SetFilePointerEx(ctx, 0x104, 28, nil, win32.FILE_CURRENT))
	assert.Equal(t, platform.LastError(), win32.ERROR_SUCCESS)
}

func TestFlushFileBuffers(t *testing.T) {
	ctx := context.Background()
	k, backend, platform, _ := setupKernel32(t)

	assert.True(t, k.FlushFileBuffers(ctx, 0x104))
	assert.Equal(t, platform.LastError(), win32.ERROR_SUCCESS)
	assert.False(t, k.FlushFileBuffers(ctx, 0))
	assert.EqualAll(t, backend.Calls(), []irp.Op{irp.Flush})
}

func TestDeviceIoControlPartialCount(t *testing.T) {
	ctx := context.Background()
	k, backend, platform, _ := setupKernel32(t)
	backend.Funcs[irp.Ioctl] = func(r *irp.Request) error {
		assert.Equal(t, string(r.Write.Bytes), "in")
		n := copy(r.Read.Bytes, "partial")
		r.Read.Pos = n
		return win32.ERROR_MORE_DATA
	}

	out := make([]byte, 4)
	returned := uint32(99)
	assert.False(t, k.DeviceIoControl(ctx, 0x104, 0x1234, []byte("in"), out, &returned, nil))
	assert.Equal(t, returned, 4)
	assert.Equal(t, platform.LastError(), win32.ERROR_MORE_DATA)
}

func TestDeviceIoControlValidation(t *testing.T) {
	ctx := context.Background()
	k, backend, platform, _ := setupKernel32(t)

	assert.False(t, k.DeviceIoControl(ctx, 0x104, 0x1234, nil, nil, nil, nil))
	assert.Equal(t, platform.LastError(), win32.ERROR_INVALID_PARAMETER)
	assert.False(t, k.DeviceIoControl(ctx, 0, 0x1234, nil, nil, new(uint32), nil))

	ov := new(win32.Overlapped)
	assert.False(t, k.DeviceIoControl(ctx, 0x104, 0x1234, nil, nil, nil, ov))
	assert.Equal(t, platform.LastError(), win32.ERROR_IO_PENDING)
	assert.EqualAll(t, backend.Calls(), []irp.Op{irp.Ioctl})
}

func TestVirtualPortThroughEntryPoints(t *testing.T) {
	ctx := context.Background()
	k, backend, platform, hook := setupKernel32(t)

	u, err := uart.Register(hook, 5)
	assert.OK(t, err)
	u.Produce([]byte("ready"))

	h := k.CreateFileA(ctx, []byte(`\\.\COM5`), win32.GENERIC_READ|win32.GENERIC_WRITE, 0, 0, win32.OPEN_EXISTING, 0, 0)
	assert.True(t, h.Valid())
	assert.EqualAll(t, backend.Opened(), []string{win32.NulDevice})

	var n uint32
	assert.True(t, k.WriteFile(ctx, h, []byte("AT\r"), &n, nil))
	assert.Equal(t, n, 3)
	assert.Equal(t, string(u.Written()), "AT\r")

	buf := make([]byte, 3)
	assert.True(t, k.ReadFile(ctx, h, buf, &n, nil))
	assert.Equal(t, string(buf[:n]), "rea")
	assert.True(t, k.ReadFile(ctx, h, buf, &n, nil))
	assert.Equal(t, string(buf[:n]), "dy")

	out := make([]byte, 4)
	var returned uint32
	assert.True(t, k.DeviceIoControl(ctx, h, ntddser.IOCTL_SERIAL_GET_BAUD_RATE, nil, out, &returned, nil))
	assert.Equal(t, returned, 4)
	var baud ntddser.BaudRate
	assert.OK(t, baud.UnmarshalBinary(out))
	assert.Equal(t, baud.BaudRate, 115200)

	assert.False(t, k.DeviceIoControl(ctx, h, ntddser.IOCTL_SERIAL_GET_BAUD_RATE, nil, out[:2], &returned, nil))
	assert.Equal(t, platform.LastError(), win32.ERROR_INSUFFICIENT_BUFFER)

	assert.True(t, k.CloseHandle(ctx, h))
	assert.False(t, u.IsOpen())
	assert.EqualAll(t, backend.Calls(), []irp.Op{irp.Open, irp.Close})
}
