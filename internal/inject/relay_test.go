package inject_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stealthrocket/iohook/internal/assert"
	"github.com/stealthrocket/iohook/internal/inject"
)

type continued struct {
	pid, tid, status uint32
}

type fakeDebugger struct {
	events    []inject.DebugEvent
	memory    map[uintptr][]byte
	closed    []uintptr
	continued []continued
}

func (d *fakeDebugger) WaitForDebugEvent() (inject.DebugEvent, error) {
	if len(d.events) == 0 {
		return inject.DebugEvent{}, errors.New("no more events")
	}
	e := d.events[0]
	d.events = d.events[1:]
	return e, nil
}

func (d *fakeDebugger) ContinueDebugEvent(pid, tid, status uint32) error {
	d.continued = append(d.continued, continued{pid, tid, status})
	return nil
}

func (d *fakeDebugger) ReadMemory(addr uintptr, b []byte) error {
	copy(b, d.memory[addr])
	return nil
}

func (d *fakeDebugger) CloseHandle(h uintptr) {
	d.closed = append(d.closed, h)
}

func TestRelay(t *testing.T) {
	d := &fakeDebugger{
		events: []inject.DebugEvent{
			{Code: inject.CreateProcessDebugEvent, ProcessID: 7, ThreadID: 1, File: 0x10},
			{Code: inject.LoadDLLDebugEvent, ProcessID: 7, ThreadID: 1, File: 0x20},
			{Code: inject.LoadDLLDebugEvent, ProcessID: 7, ThreadID: 1},
			{Code: inject.OutputDebugStringEvent, ProcessID: 7, ThreadID: 2,
				String: inject.DebugString{Addr: 0x1000, Length: 6}},
			{Code: inject.OutputDebugStringEvent, ProcessID: 7, ThreadID: 2,
				String: inject.DebugString{Addr: 0x2000, Unicode: true, Length: 5}},
			{Code: inject.ExitProcessDebugEvent, ProcessID: 9, ThreadID: 3},
			{Code: inject.ExitProcessDebugEvent, ProcessID: 7, ThreadID: 1},
		},
		memory: map[uintptr][]byte{
			0x1000: []byte("hello\x00"),
			0x2000: {'C', 0, 'O', 0, 'M', 0, '3', 0, 0, 0},
		},
	}

	out := new(bytes.Buffer)
	assert.OK(t, inject.Relay(d, 7, out))
	assert.Equal(t, out.String(), "helloCOM3")
	assert.EqualAll(t, d.closed, []uintptr{0x10, 0x20})
	assert.DeepEqual(t, d.continued, []continued{
		{7, 1, inject.ExceptionNotHandledStatus},
		{7, 1, inject.ExceptionNotHandledStatus},
		{7, 1, inject.ExceptionNotHandledStatus},
		{7, 2, inject.ContinueStatus},
		{7, 2, inject.ContinueStatus},
		{9, 3, inject.ExceptionNotHandledStatus},
	})
}

func TestRelayWaitFailure(t *testing.T) {
	d := new(fakeDebugger)
	err := inject.Relay(d, 7, new(bytes.Buffer))
	assert.HasPrefix(t, err.Error(), "wait for debug event failed")
}

func TestDecodeDebugString(t *testing.T) {
	assert.Equal(t, inject.DecodeDebugString([]byte("abc\x00def"), false), "abc")
	assert.Equal(t, inject.DecodeDebugString([]byte("abc"), false), "abc")
	assert.Equal(t, inject.DecodeDebugString([]byte{'h', 0, 'i', 0}, true), "hi")
	assert.Equal(t, inject.DecodeDebugString([]byte{0xAC, 0x20, 0, 0, 'x', 0}, true), "€")
	assert.Equal(t, inject.DecodeDebugString(nil, true), "")
}

func TestWaitForDebugger(t *testing.T) {
	calls := 0
	attached := func() (bool, error) {
		calls++
		return calls == 3, nil
	}
	out := new(bytes.Buffer)
	assert.OK(t, inject.WaitForDebugger(context.Background(), attached, time.Millisecond, out))
	assert.Equal(t, calls, 3)
	assert.Equal(t, out.String(), "Waiting for debugger to attach.\nDebugger attached, resuming\n")
}

func TestWaitForDebuggerCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	attached := func() (bool, error) { return false, nil }
	err := inject.WaitForDebugger(ctx, attached, time.Hour, new(bytes.Buffer))
	assert.Error(t, err, context.Canceled)
}
