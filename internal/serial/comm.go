// Package serial implements the Comm API on top of the serial device-control
// protocol.
//
// Every call is expressed as one or more device-control requests sent
// through the hook, so the same code drives emulated ports and real drivers.
package serial

import (
	"context"

	"github.com/stealthrocket/iohook/internal/iohook"
	"github.com/stealthrocket/iohook/internal/irp"
	"github.com/stealthrocket/iohook/internal/ntddser"
	"github.com/stealthrocket/iohook/internal/win32"
)

// Comm implements the Comm API entry points. Methods return the BOOL result
// of the entry point and report errors through the platform's last error.
type Comm struct {
	hook     *iohook.Hook
	platform win32.Platform
}

func New(hook *iohook.Hook, platform win32.Platform) *Comm {
	return &Comm{hook: hook, platform: platform}
}

func (c *Comm) ioctl(ctx context.Context, h win32.Handle, code uint32, in, out ntddser.Record) error {
	r := &irp.Request{Op: irp.Ioctl, Handle: h, Ioctl: code}
	if in != nil {
		r.Write = irp.MakeConstBuffer(ntddser.Encode(in))
	}
	var buf []byte
	if out != nil {
		buf = make([]byte, out.Size())
		r.Read = irp.MakeBuffer(buf)
	}
	if err := c.hook.InvokeNext(ctx, r); err != nil {
		return err
	}
	if out != nil {
		return out.UnmarshalBinary(buf)
	}
	return nil
}

func (c *Comm) ok() bool {
	c.platform.SetLastError(win32.ERROR_SUCCESS)
	return true
}

func (c *Comm) fail(err error) bool {
	win32.Propagate(c.platform, err)
	return false
}

func (c *Comm) result(err error) bool {
	if err != nil {
		return c.fail(err)
	}
	return c.ok()
}

func (c *Comm) GetCommState(ctx context.Context, h win32.Handle, dcb *DCB) bool {
	// DCBlength is not validated on input; it is overwritten.
	if dcb == nil {
		return c.fail(win32.ERROR_INVALID_PARAMETER)
	}
	var (
		baud     ntddser.BaudRate
		handflow ntddser.Handflow
		line     ntddser.LineControl
		chars    ntddser.Chars
	)
	if err := c.ioctl(ctx, h, ntddser.IOCTL_SERIAL_GET_BAUD_RATE, nil, &baud); err != nil {
		return c.fail(err)
	}
	if err := c.ioctl(ctx, h, ntddser.IOCTL_SERIAL_GET_HANDFLOW, nil, &handflow); err != nil {
		return c.fail(err)
	}
	if err := c.ioctl(ctx, h, ntddser.IOCTL_SERIAL_GET_LINE_CONTROL, nil, &line); err != nil {
		return c.fail(err)
	}
	if err := c.ioctl(ctx, h, ntddser.IOCTL_SERIAL_GET_CHARS, nil, &chars); err != nil {
		return c.fail(err)
	}
	*dcb = dcbFromSerial(baud, handflow, line, chars)
	return c.ok()
}

func (c *Comm) SetCommState(ctx context.Context, h win32.Handle, dcb *DCB) bool {
	// Earlier, smaller revisions of the structure are not supported.
	if dcb == nil || dcb.DCBlength != DCBLength {
		return c.fail(win32.ERROR_INVALID_PARAMETER)
	}
	handflow, err := handflowFromDCB(dcb)
	if err != nil {
		return c.fail(err)
	}
	baud := ntddser.BaudRate{BaudRate: dcb.BaudRate}
	line := lineFromDCB(dcb)
	chars := charsFromDCB(dcb)

	if err := c.ioctl(ctx, h, ntddser.IOCTL_SERIAL_SET_BAUD_RATE, &baud, nil); err != nil {
		return c.fail(err)
	}
	if err := c.ioctl(ctx, h, ntddser.IOCTL_SERIAL_SET_HANDFLOW, &handflow, nil); err != nil {
		return c.fail(err)
	}
	if err := c.ioctl(ctx, h, ntddser.IOCTL_SERIAL_SET_LINE_CONTROL, &line, nil); err != nil {
		return c.fail(err)
	}
	if err := c.ioctl(ctx, h, ntddser.IOCTL_SERIAL_SET_CHARS, &chars, nil); err != nil {
		return c.fail(err)
	}
	return c.ok()
}

func (c *Comm) GetCommTimeouts(ctx context.Context, h win32.Handle, timeouts *CommTimeouts) bool {
	if timeouts == nil {
		return c.fail(win32.ERROR_INVALID_PARAMETER)
	}
	var t ntddser.Timeouts
	if err := c.ioctl(ctx, h, ntddser.IOCTL_SERIAL_GET_TIMEOUTS, nil, &t); err != nil {
		return c.fail(err)
	}
	*timeouts = commFromTimeouts(&t)
	return c.ok()
}

func (c *Comm) SetCommTimeouts(ctx context.Context, h win32.Handle, timeouts *CommTimeouts) bool {
	if timeouts == nil {
		return c.fail(win32.ERROR_INVALID_PARAMETER)
	}
	t := timeoutsFromComm(timeouts)
	return c.result(c.ioctl(ctx, h, ntddser.IOCTL_SERIAL_SET_TIMEOUTS, &t, nil))
}

var escapeCodes = map[uint32]uint32{
	CLRBREAK: ntddser.IOCTL_SERIAL_SET_BREAK_OFF,
	CLRDTR:   ntddser.IOCTL_SERIAL_CLR_DTR,
	CLRRTS:   ntddser.IOCTL_SERIAL_CLR_RTS,
	SETBREAK: ntddser.IOCTL_SERIAL_SET_BREAK_ON,
	SETDTR:   ntddser.IOCTL_SERIAL_SET_DTR,
	SETRTS:   ntddser.IOCTL_SERIAL_SET_RTS,
	SETXOFF:  ntddser.IOCTL_SERIAL_SET_XOFF,
	SETXON:   ntddser.IOCTL_SERIAL_SET_XON,
}

func (c *Comm) EscapeCommFunction(ctx context.Context, h win32.Handle, cmd uint32) bool {
	code, ok := escapeCodes[cmd]
	if !ok {
		return c.fail(win32.ERROR_INVALID_PARAMETER)
	}
	return c.result(c.ioctl(ctx, h, code, nil, nil))
}

func (c *Comm) GetCommMask(ctx context.Context, h win32.Handle, mask *uint32) bool {
	if mask == nil {
		return c.fail(win32.ERROR_INVALID_PARAMETER)
	}
	var m ntddser.WaitMask
	if err := c.ioctl(ctx, h, ntddser.IOCTL_SERIAL_GET_WAIT_MASK, nil, &m); err != nil {
		return c.fail(err)
	}
	*mask = uint32(m)
	return c.ok()
}

func (c *Comm) SetCommMask(ctx context.Context, h win32.Handle, mask uint32) bool {
	m := ntddser.WaitMask(mask)
	return c.result(c.ioctl(ctx, h, ntddser.IOCTL_SERIAL_SET_WAIT_MASK, &m, nil))
}

func (c *Comm) SetupComm(ctx context.Context, h win32.Handle, inQueue, outQueue uint32) bool {
	q := ntddser.QueueSize{InSize: inQueue, OutSize: outQueue}
	return c.result(c.ioctl(ctx, h, ntddser.IOCTL_SERIAL_SET_QUEUE_SIZE, &q, nil))
}

func (c *Comm) PurgeComm(ctx context.Context, h win32.Handle, flags uint32) bool {
	// The purge mask has the layout of a wait mask.
	m := ntddser.WaitMask(flags)
	return c.result(c.ioctl(ctx, h, ntddser.IOCTL_SERIAL_PURGE, &m, nil))
}

func (c *Comm) SetCommBreak(ctx context.Context, h win32.Handle) bool {
	return c.result(c.ioctl(ctx, h, ntddser.IOCTL_SERIAL_SET_BREAK_ON, nil, nil))
}

func (c *Comm) ClearCommBreak(ctx context.Context, h win32.Handle) bool {
	return c.result(c.ioctl(ctx, h, ntddser.IOCTL_SERIAL_SET_BREAK_OFF, nil, nil))
}

// ClearCommError reports the error and queue state of the port. Both outputs
// are optional.
func (c *Comm) ClearCommError(ctx context.Context, h win32.Handle, errors *uint32, stat *ComStat) bool {
	var status ntddser.Status
	if err := c.ioctl(ctx, h, ntddser.IOCTL_SERIAL_GET_COMMSTATUS, nil, &status); err != nil {
		return c.fail(err)
	}
	if errors != nil {
		*errors = commErrorsFromStatus(&status)
	}
	if stat != nil {
		*stat = comStatFromStatus(&status)
	}
	return c.ok()
}
