// Package uart emulates serial ports in memory.
//
// A UART answers the serial device-control protocol from its own state. Bytes
// written by the program accumulate until collected with Written, and bytes
// given to Produce are delivered to the program's reads.
package uart

import (
	"context"
	"log/slog"

	"github.com/stealthrocket/iohook/internal/iohook"
	"github.com/stealthrocket/iohook/internal/irp"
	"github.com/stealthrocket/iohook/internal/ntddser"
	"github.com/stealthrocket/iohook/internal/win32"
)

// UART is one emulated serial line. It is not safe for concurrent use.
type UART struct {
	port   int
	hook   *iohook.Hook
	logger *slog.Logger
	handle win32.Handle

	baud     ntddser.BaudRate
	status   ntddser.Status
	chars    ntddser.Chars
	handflow ntddser.Handflow
	line     ntddser.LineControl
	timeouts ntddser.Timeouts
	mask     ntddser.WaitMask

	written  []byte
	readable []byte
}

// New constructs a closed UART for the 1-based port number, configured at
// 115200 baud, 8 data bits, no parity and one stop bit.
func New(hook *iohook.Hook, port int) *UART {
	if port <= 0 {
		panic("BUG: serial port numbers start at 1")
	}
	return &UART{
		port:   port,
		hook:   hook,
		logger: slog.Default().With("port", port),
		baud:   ntddser.BaudRate{BaudRate: 115200},
		chars:  ntddser.Chars{XonChar: 0x11, XoffChar: 0x13},
		line: ntddser.LineControl{
			StopBits:   ntddser.STOP_BIT_1,
			Parity:     ntddser.NO_PARITY,
			WordLength: 8,
		},
	}
}

// Port returns the port number of u.
func (u *UART) Port() int { return u.port }

// Handle returns the handle bound to u, or zero when u is closed.
func (u *UART) Handle() win32.Handle { return u.handle }

// IsOpen reports whether a handle is bound to u.
func (u *UART) IsOpen() bool { return u.handle != 0 }

// Written returns a copy of the bytes written to the port so far.
func (u *UART) Written() []byte { return append([]byte(nil), u.written...) }

// Produce queues b to be returned by future reads of the port.
func (u *UART) Produce(b []byte) { u.readable = append(u.readable, b...) }

// Close releases the handle bound to u, if any, by sending a close request
// through the hook.
func (u *UART) Close(ctx context.Context) error {
	if u.handle == 0 {
		return nil
	}
	r := &irp.Request{Op: irp.Close, Handle: u.handle}
	return u.hook.InvokeNext(ctx, r)
}

// Match reports whether r is addressed to u: open requests by device name,
// all others by handle.
func (u *UART) Match(r *irp.Request) bool {
	if r.Op == irp.Open {
		port, ok := ParsePortName(r.OpenName)
		return ok && port == u.port
	}
	return u.handle != 0 && r.Handle == u.handle
}

// HandleIRP services a request matched by u.
func (u *UART) HandleIRP(ctx context.Context, chain *iohook.Chain, r *irp.Request) error {
	switch r.Op {
	case irp.Open:
		return u.open(ctx, chain, r)
	case irp.Close:
		return u.close(ctx, chain, r)
	case irp.Read:
		irp.Shift(&r.Read, &u.readable)
		return nil
	case irp.Write:
		u.written = append(u.written, r.Write.Unread()...)
		r.Write.Pos = len(r.Write.Bytes)
		return nil
	case irp.Ioctl:
		return u.ioctl(r)
	case irp.Flush:
		return nil
	default:
		return win32.ERROR_INVALID_FUNCTION
	}
}

func (u *UART) open(ctx context.Context, chain *iohook.Chain, r *irp.Request) error {
	if u.handle != 0 {
		return win32.ERROR_ACCESS_DENIED
	}
	// Open the null device instead to obtain a handle distinct from every
	// other handle of the process.
	r.OpenName = win32.NulDevice
	r.OpenAccess = win32.GENERIC_READ | win32.GENERIC_WRITE
	r.OpenShare = win32.FILE_SHARE_READ | win32.FILE_SHARE_WRITE
	r.OpenSecurity = 0
	r.OpenCreation = win32.OPEN_EXISTING
	r.OpenFlags = win32.FILE_FLAG_OVERLAPPED
	r.OpenTemplate = 0

	if err := chain.InvokeNext(ctx, r); err != nil {
		return err
	}
	u.handle = r.Handle
	u.logger.Debug("uart: opened", "handle", uintptr(r.Handle))
	return nil
}

func (u *UART) close(ctx context.Context, chain *iohook.Chain, r *irp.Request) error {
	u.handle = 0
	u.logger.Debug("uart: closed", "handle", uintptr(r.Handle))
	return chain.InvokeNext(ctx, r)
}

func (u *UART) ioctl(r *irp.Request) error {
	switch r.Ioctl {
	case ntddser.IOCTL_SERIAL_GET_BAUD_RATE:
		return get(r, &u.baud)
	case ntddser.IOCTL_SERIAL_GET_CHARS:
		return get(r, &u.chars)
	case ntddser.IOCTL_SERIAL_GET_COMMSTATUS:
		u.status.AmountInInQueue = uint32(len(u.readable))
		u.status.AmountInOutQueue = uint32(len(u.written))
		return get(r, &u.status)
	case ntddser.IOCTL_SERIAL_GET_HANDFLOW:
		return get(r, &u.handflow)
	case ntddser.IOCTL_SERIAL_GET_LINE_CONTROL:
		return get(r, &u.line)
	case ntddser.IOCTL_SERIAL_GET_TIMEOUTS:
		return get(r, &u.timeouts)
	case ntddser.IOCTL_SERIAL_GET_WAIT_MASK:
		return get(r, &u.mask)

	case ntddser.IOCTL_SERIAL_SET_BAUD_RATE:
		return set(r, &u.baud)
	case ntddser.IOCTL_SERIAL_SET_CHARS:
		return set(r, &u.chars)
	case ntddser.IOCTL_SERIAL_SET_HANDFLOW:
		return set(r, &u.handflow)
	case ntddser.IOCTL_SERIAL_SET_LINE_CONTROL:
		return set(r, &u.line)
	case ntddser.IOCTL_SERIAL_SET_TIMEOUTS:
		return set(r, &u.timeouts)
	case ntddser.IOCTL_SERIAL_SET_WAIT_MASK:
		return set(r, &u.mask)

	// No lines or queues to act on.
	case ntddser.IOCTL_SERIAL_SET_BREAK_ON,
		ntddser.IOCTL_SERIAL_SET_BREAK_OFF,
		ntddser.IOCTL_SERIAL_CLR_DTR,
		ntddser.IOCTL_SERIAL_CLR_RTS,
		ntddser.IOCTL_SERIAL_SET_DTR,
		ntddser.IOCTL_SERIAL_SET_RTS,
		ntddser.IOCTL_SERIAL_SET_XOFF,
		ntddser.IOCTL_SERIAL_SET_XON,
		ntddser.IOCTL_SERIAL_PURGE,
		ntddser.IOCTL_SERIAL_SET_QUEUE_SIZE:
		return nil

	default:
		return win32.ERROR_INVALID_FUNCTION
	}
}

func get(r *irp.Request, rec ntddser.Record) error {
	return r.Read.Write(ntddser.Encode(rec))
}

func set(r *irp.Request, rec ntddser.Record) error {
	b := make([]byte, rec.Size())
	if err := r.Write.Read(b); err != nil {
		return err
	}
	return rec.UnmarshalBinary(b)
}
