package realio_test

import (
	"testing"

	"github.com/stealthrocket/iohook/internal/assert"
	"github.com/stealthrocket/iohook/internal/hooktable"
	"github.com/stealthrocket/iohook/internal/realio"
)

func TestBackfill(t *testing.T) {
	table := new(hooktable.Table)
	table.Export("kernel32.dll", "CreateFileW", 0, 0x1000)
	table.Export("kernel32.dll", "SetFilePointerEx", 0, 0x2000)

	b := &realio.Bindings{SetFilePointerEx: 0x9000}
	assert.OK(t, b.Backfill(table, "kernel32.dll", "CreateFileW", "SetFilePointerEx"))
	assert.Equal(t, b.CreateFileW, 0x1000)
	assert.Equal(t, b.SetFilePointerEx, 0x9000)
}

func TestBackfillMissingModule(t *testing.T) {
	b := new(realio.Bindings)
	err := b.Backfill(new(hooktable.Table), "ws2_32.dll", "WSARecvFrom")
	assert.Error(t, err, hooktable.ErrNotLoaded)
	assert.Equal(t, b.WSARecvFrom, 0)
}

func TestBindingsSlot(t *testing.T) {
	b := new(realio.Bindings)
	*b.Slot("recvfrom") = 1
	*b.Slot("WSARecvFrom") = 2
	assert.Equal(t, b.RecvFrom, 1)
	assert.Equal(t, b.WSARecvFrom, 2)
	assert.True(t, b.Slot("GetTickCount") == nil)

	assert.Panic(t, func() { b.Backfill(new(hooktable.Table), "kernel32.dll", "GetTickCount") })
}
