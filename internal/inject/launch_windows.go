//go:build windows && (amd64 || arm64)

package inject

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"time"
	"unsafe"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/windows"
)

var (
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procSearchPathW                = kernel32.NewProc("SearchPathW")
	procVirtualAllocEx             = kernel32.NewProc("VirtualAllocEx")
	procVirtualFreeEx              = kernel32.NewProc("VirtualFreeEx")
	procCreateRemoteThread         = kernel32.NewProc("CreateRemoteThread")
	procLoadLibraryW               = kernel32.NewProc("LoadLibraryW")
	procCheckRemoteDebuggerPresent = kernel32.NewProc("CheckRemoteDebuggerPresent")
	procDebugActiveProcess         = kernel32.NewProc("DebugActiveProcess")
	procWaitForDebugEvent          = kernel32.NewProc("WaitForDebugEvent")
	procContinueDebugEvent         = kernel32.NewProc("ContinueDebugEvent")
)

// Run starts the target suspended, loads the libraries into it, and resumes
// it. The target is terminated if any step fails.
func Run(ctx context.Context, opts *Options, stdout io.Writer) (err error) {
	// Debug events are delivered to the thread that attached the debugger.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	cmdline, err := windows.UTF16PtrFromString(opts.CommandLine())
	if err != nil {
		return fmt.Errorf("CreateProcess failed: %w", err)
	}
	si := &windows.StartupInfo{Cb: uint32(unsafe.Sizeof(windows.StartupInfo{}))}
	pi := new(windows.ProcessInformation)
	if err := windows.CreateProcess(nil, cmdline, nil, nil, false, windows.CREATE_SUSPENDED, nil, nil, si, pi); err != nil {
		return fmt.Errorf("CreateProcess failed: %w", err)
	}
	defer windows.CloseHandle(pi.Process)
	defer windows.CloseHandle(pi.Thread)
	defer func() {
		if err != nil {
			_ = windows.TerminateProcess(pi.Process, 1)
		}
	}()

	for _, lib := range opts.Libraries {
		if err := injectLibrary(pi.Process, lib); err != nil {
			return err
		}
		slog.Debug("library injected", "path", lib, "pid", pi.ProcessId)
	}

	if opts.Pause {
		attached := func() (bool, error) { return remoteDebuggerPresent(pi.Process) }
		if err := WaitForDebugger(ctx, attached, time.Second, stdout); err != nil {
			return err
		}
	}

	if opts.Debug {
		if r, _, e := procDebugActiveProcess.Call(uintptr(pi.ProcessId)); r == 0 {
			return fmt.Errorf("DebugActiveProcess failed: %w", e)
		}
	}

	if _, err := windows.ResumeThread(pi.Thread); err != nil {
		return fmt.Errorf("ResumeThread failed: %w", err)
	}

	switch {
	case opts.Debug:
		return Relay(debugger{process: pi.Process}, pi.ProcessId, stdout)
	case opts.Wait:
		return wait(ctx, pi.Process)
	}
	return nil
}

func wait(ctx context.Context, process windows.Handle) error {
	group, ctx := errgroup.WithContext(ctx)
	exited := make(chan struct{})

	group.Go(func() error {
		defer close(exited)
		if _, err := windows.WaitForSingleObject(process, windows.INFINITE); err != nil {
			return fmt.Errorf("WaitForSingleObject failed: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		select {
		case <-exited:
			return nil
		case <-ctx.Done():
			_ = windows.TerminateProcess(process, 1)
			return ctx.Err()
		}
	})

	return group.Wait()
}

func searchPath(name string) (string, error) {
	file, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return "", err
	}
	buf := make([]uint16, windows.MAX_PATH)
	for {
		n, _, e := procSearchPathW.Call(0, uintptr(unsafe.Pointer(file)), 0,
			uintptr(len(buf)), uintptr(unsafe.Pointer(&buf[0])), 0)
		switch {
		case n == 0:
			return "", e
		case int(n) < len(buf):
			return windows.UTF16ToString(buf[:n]), nil
		}
		buf = make([]uint16, n)
	}
}

func injectLibrary(process windows.Handle, name string) error {
	path, err := searchPath(name)
	if err != nil {
		return fmt.Errorf("SearchPath failed for %s: %w", name, err)
	}
	wide, err := windows.UTF16FromString(path)
	if err != nil {
		return fmt.Errorf("SearchPath failed for %s: %w", name, err)
	}
	size := uintptr(len(wide)) * 2

	mem, _, e := procVirtualAllocEx.Call(uintptr(process), 0, size,
		windows.MEM_RESERVE|windows.MEM_COMMIT, windows.PAGE_READWRITE)
	if mem == 0 {
		return fmt.Errorf("VirtualAllocEx failed: %w", e)
	}
	defer procVirtualFreeEx.Call(uintptr(process), mem, 0, windows.MEM_RELEASE)

	if err := windows.WriteProcessMemory(process, mem, (*byte)(unsafe.Pointer(&wide[0])), size, nil); err != nil {
		return fmt.Errorf("WriteProcessMemory failed: %w", err)
	}
	if err := procLoadLibraryW.Find(); err != nil {
		return fmt.Errorf("GetProcAddress failed: %w", err)
	}

	thread, _, e := procCreateRemoteThread.Call(uintptr(process), 0, 0, procLoadLibraryW.Addr(), mem, 0, 0)
	if thread == 0 {
		return fmt.Errorf("CreateRemoteThread failed: %w", e)
	}
	defer windows.CloseHandle(windows.Handle(thread))

	if _, err := windows.WaitForSingleObject(windows.Handle(thread), windows.INFINITE); err != nil {
		return fmt.Errorf("WaitForSingleObject failed: %w", err)
	}
	return nil
}

func remoteDebuggerPresent(process windows.Handle) (bool, error) {
	var present int32
	if r, _, e := procCheckRemoteDebuggerPresent.Call(uintptr(process), uintptr(unsafe.Pointer(&present))); r == 0 {
		return false, e
	}
	return present != 0, nil
}

// debugEvent is the DEBUG_EVENT layout on 64 bit targets, the union starts
// at offset 16.
type debugEvent struct {
	code  uint32
	pid   uint32
	tid   uint32
	_     uint32
	union [20]uint64
}

type debugger struct {
	process windows.Handle
}

func (debugger) WaitForDebugEvent() (DebugEvent, error) {
	var e debugEvent
	if r, _, err := procWaitForDebugEvent.Call(uintptr(unsafe.Pointer(&e)), windows.INFINITE); r == 0 {
		return DebugEvent{}, err
	}
	event := DebugEvent{
		Code:      e.code,
		ProcessID: e.pid,
		ThreadID:  e.tid,
	}
	switch e.code {
	case CreateProcessDebugEvent, LoadDLLDebugEvent:
		event.File = uintptr(e.union[0])
	case OutputDebugStringEvent:
		event.String = DebugString{
			Addr:    uintptr(e.union[0]),
			Unicode: uint16(e.union[1]) != 0,
			Length:  uint16(e.union[1] >> 16),
		}
	}
	return event, nil
}

func (debugger) ContinueDebugEvent(pid, tid, status uint32) error {
	if r, _, err := procContinueDebugEvent.Call(uintptr(pid), uintptr(tid), uintptr(status)); r == 0 {
		return err
	}
	return nil
}

func (d debugger) ReadMemory(addr uintptr, b []byte) error {
	if len(b) == 0 {
		return nil
	}
	return windows.ReadProcessMemory(d.process, addr, &b[0], uintptr(len(b)), nil)
}

func (debugger) CloseHandle(h uintptr) {
	_ = windows.CloseHandle(windows.Handle(h))
}
