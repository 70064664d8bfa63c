// Package win32 holds the platform vocabulary shared by the interception
// layer: handle types, Win32 error codes, HRESULT values and the
// OVERLAPPED completion record.
//
// The package has no platform build constraints so that the interception
// core can be exercised on any host.
package win32

import (
	"errors"
	"fmt"
	"syscall"
)

// Errno is a Win32 error code, the value stored by SetLastError.
type Errno uint32

const (
	ERROR_SUCCESS             Errno = 0
	ERROR_INVALID_FUNCTION    Errno = 1
	ERROR_FILE_NOT_FOUND      Errno = 2
	ERROR_ACCESS_DENIED       Errno = 5
	ERROR_INVALID_HANDLE      Errno = 6
	ERROR_NOT_ENOUGH_MEMORY   Errno = 8
	ERROR_OUTOFMEMORY         Errno = 14
	ERROR_GEN_FAILURE         Errno = 31
	ERROR_NOT_SUPPORTED       Errno = 50
	ERROR_INVALID_PARAMETER   Errno = 87
	ERROR_INSUFFICIENT_BUFFER Errno = 122
	ERROR_MORE_DATA           Errno = 234
	ERROR_IO_PENDING          Errno = 997
	WSAEINVAL                 Errno = 10022
	WSAENOTSOCK               Errno = 10038
)

var errnoNames = map[Errno]string{
	ERROR_SUCCESS:             "ERROR_SUCCESS",
	ERROR_INVALID_FUNCTION:    "ERROR_INVALID_FUNCTION",
	ERROR_FILE_NOT_FOUND:      "ERROR_FILE_NOT_FOUND",
	ERROR_ACCESS_DENIED:       "ERROR_ACCESS_DENIED",
	ERROR_INVALID_HANDLE:      "ERROR_INVALID_HANDLE",
	ERROR_NOT_ENOUGH_MEMORY:   "ERROR_NOT_ENOUGH_MEMORY",
	ERROR_OUTOFMEMORY:         "ERROR_OUTOFMEMORY",
	ERROR_GEN_FAILURE:         "ERROR_GEN_FAILURE",
	ERROR_NOT_SUPPORTED:       "ERROR_NOT_SUPPORTED",
	ERROR_INVALID_PARAMETER:   "ERROR_INVALID_PARAMETER",
	ERROR_INSUFFICIENT_BUFFER: "ERROR_INSUFFICIENT_BUFFER",
	ERROR_MORE_DATA:           "ERROR_MORE_DATA",
	ERROR_IO_PENDING:          "ERROR_IO_PENDING",
	WSAEINVAL:                 "WSAEINVAL",
	WSAENOTSOCK:               "WSAENOTSOCK",
}

func (e Errno) Error() string {
	if name, ok := errnoNames[e]; ok {
		return name
	}
	return fmt.Sprintf("Errno(%d)", uint32(e))
}

// HRESULT is a COM status code. Negative values denote failures.
type HRESULT int32

const (
	S_OK    HRESULT = 0
	S_FALSE HRESULT = 1

	E_OUTOFMEMORY HRESULT = -0x7ff8fff2 // 0x8007000E
	E_FAIL        HRESULT = -0x7fffbffb // 0x80004005

	facilityWin32 = 7
)

// Failed reports whether hr denotes a failure.
func (hr HRESULT) Failed() bool { return hr < 0 }

// Facility returns the facility field of hr.
func (hr HRESULT) Facility() uint32 { return (uint32(hr) >> 16) & 0x1fff }

// Code returns the code field of hr.
func (hr HRESULT) Code() uint32 { return uint32(hr) & 0xffff }

func (hr HRESULT) Error() string {
	if hr.Facility() == facilityWin32 {
		return fmt.Sprintf("HRESULT(%#08x): %s", uint32(hr), Errno(hr.Code()))
	}
	return fmt.Sprintf("HRESULT(%#08x)", uint32(hr))
}

// HResultFromWin32 wraps a Win32 error code into an HRESULT, the same way
// the HRESULT_FROM_WIN32 macro does.
func HResultFromWin32(e Errno) HRESULT {
	if int32(e) <= 0 {
		return HRESULT(e)
	}
	return HRESULT((uint32(e) & 0xffff) | (facilityWin32 << 16) | 0x80000000)
}

// ErrnoOf returns the Win32 error code that best describes err.
//
// nil maps to ERROR_SUCCESS. HRESULT values outside the Win32 facility and
// errors unknown to the platform map to ERROR_GEN_FAILURE.
func ErrnoOf(err error) Errno {
	if err == nil {
		return ERROR_SUCCESS
	}
	var errno Errno
	if errors.As(err, &errno) {
		return errno
	}
	var hr HRESULT
	if errors.As(err, &hr) {
		if hr.Facility() == facilityWin32 {
			return Errno(hr.Code())
		}
		if hr == E_OUTOFMEMORY {
			return ERROR_OUTOFMEMORY
		}
		return ERROR_GEN_FAILURE
	}
	var sysErrno syscall.Errno
	if errors.As(err, &sysErrno) {
		return Errno(sysErrno)
	}
	return ERROR_GEN_FAILURE
}
