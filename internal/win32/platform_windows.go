package win32

import "golang.org/x/sys/windows"

var procSetLastError = windows.NewLazySystemDLL("kernel32.dll").NewProc("SetLastError")

// System is the Platform of the running process.
type System struct{}

func (System) SetLastError(errno Errno) {
	procSetLastError.Call(uintptr(errno))
}

func (System) SetEvent(h Handle) error {
	return windows.SetEvent(windows.Handle(h))
}
