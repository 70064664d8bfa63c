package win32_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stealthrocket/iohook/internal/assert"
	"github.com/stealthrocket/iohook/internal/win32"
)

func TestHResultFromWin32(t *testing.T) {
	assert.Equal(t, uint32(win32.HResultFromWin32(win32.ERROR_ACCESS_DENIED)), 0x80070005)
	assert.Equal(t, uint32(win32.HResultFromWin32(win32.ERROR_OUTOFMEMORY)), 0x8007000e)
	assert.Equal(t, win32.HResultFromWin32(win32.ERROR_SUCCESS), win32.S_OK)
	assert.Equal(t, win32.HResultFromWin32(win32.ERROR_OUTOFMEMORY), win32.E_OUTOFMEMORY)
	assert.True(t, win32.HResultFromWin32(win32.ERROR_MORE_DATA).Failed())
}

func TestErrnoOf(t *testing.T) {
	tests := []struct {
		err  error
		want win32.Errno
	}{
		{nil, win32.ERROR_SUCCESS},
		{win32.ERROR_ACCESS_DENIED, win32.ERROR_ACCESS_DENIED},
		{win32.HResultFromWin32(win32.ERROR_MORE_DATA), win32.ERROR_MORE_DATA},
		{fmt.Errorf("open: %w", win32.ERROR_INVALID_FUNCTION), win32.ERROR_INVALID_FUNCTION},
		{win32.E_OUTOFMEMORY, win32.ERROR_OUTOFMEMORY},
		{win32.E_FAIL, win32.ERROR_GEN_FAILURE},
		{errors.New("whatever"), win32.ERROR_GEN_FAILURE},
	}

	for _, test := range tests {
		t.Run(fmt.Sprint(test.err), func(t *testing.T) {
			assert.Equal(t, win32.ErrnoOf(test.err), test.want)
		})
	}
}

func TestHandleValid(t *testing.T) {
	assert.False(t, win32.Handle(0).Valid())
	assert.False(t, win32.InvalidHandle.Valid())
	assert.True(t, win32.Handle(42).Valid())
	assert.False(t, win32.InvalidSocket.Valid())
	assert.True(t, win32.Socket(3).Valid())
}
