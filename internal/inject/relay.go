package inject

import (
	"context"
	"fmt"
	"io"
	"time"
	"unicode/utf16"
)

// Debug event codes relayed by Relay.
const (
	CreateProcessDebugEvent   = 3
	ExitProcessDebugEvent     = 5
	LoadDLLDebugEvent         = 6
	OutputDebugStringEvent    = 8
	ContinueStatus            = 0x00010002
	ExceptionNotHandledStatus = 0x80010001
)

// DebugEvent carries the fields of a debug event that the relay looks at.
type DebugEvent struct {
	Code      uint32
	ProcessID uint32
	ThreadID  uint32
	// File is the image handle of process creation and library load events.
	File uintptr
	// String locates the message of an output debug string event.
	String DebugString
}

type DebugString struct {
	Addr    uintptr
	Unicode bool
	// Length counts characters, including the terminating NUL.
	Length uint16
}

// Debugger is the debug API surface driven by Relay.
type Debugger interface {
	WaitForDebugEvent() (DebugEvent, error)
	ContinueDebugEvent(pid, tid, status uint32) error
	ReadMemory(addr uintptr, b []byte) error
	CloseHandle(h uintptr)
}

// Relay services debug events until the process identified by pid exits.
// Debug strings are written to w, one message per event.
func Relay(d Debugger, pid uint32, w io.Writer) error {
	for {
		e, err := d.WaitForDebugEvent()
		if err != nil {
			return fmt.Errorf("wait for debug event failed: %w", err)
		}
		status := uint32(ExceptionNotHandledStatus)

		switch e.Code {
		case CreateProcessDebugEvent, LoadDLLDebugEvent:
			if e.File != 0 {
				d.CloseHandle(e.File)
			}
		case ExitProcessDebugEvent:
			if e.ProcessID == pid {
				return nil
			}
		case OutputDebugStringEvent:
			status = ContinueStatus
			if err := relayString(d, e.String, w); err != nil {
				return err
			}
		}

		if err := d.ContinueDebugEvent(e.ProcessID, e.ThreadID, status); err != nil {
			return fmt.Errorf("continue debug event failed: %w", err)
		}
	}
}

func relayString(d Debugger, s DebugString, w io.Writer) error {
	size := int(s.Length)
	if s.Unicode {
		size *= 2
	}
	b := make([]byte, size)
	if err := d.ReadMemory(s.Addr, b); err != nil {
		return fmt.Errorf("read debug string failed: %w", err)
	}
	_, err := io.WriteString(w, DecodeDebugString(b, s.Unicode))
	return err
}

// DecodeDebugString converts a debug string read from the target into a Go
// string, stopping at the first NUL character.
func DecodeDebugString(b []byte, unicode bool) string {
	if !unicode {
		for i, c := range b {
			if c == 0 {
				return string(b[:i])
			}
		}
		return string(b)
	}
	u := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		c := uint16(b[i]) | uint16(b[i+1])<<8
		if c == 0 {
			break
		}
		u = append(u, c)
	}
	return string(utf16.Decode(u))
}

// WaitForDebugger blocks until attached reports true, polling once every
// interval.
func WaitForDebugger(ctx context.Context, attached func() (bool, error), interval time.Duration, w io.Writer) error {
	fmt.Fprintln(w, "Waiting for debugger to attach.")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		ok, err := attached()
		if err != nil {
			return fmt.Errorf("check for debugger failed: %w", err)
		}
		if ok {
			fmt.Fprintln(w, "Debugger attached, resuming")
			return nil
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
