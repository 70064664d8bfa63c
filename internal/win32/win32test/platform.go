// Package win32test provides a recording Platform for tests.
package win32test

import (
	"sync"

	"github.com/stealthrocket/iohook/internal/win32"
)

// Unset is the last error observed before any entry point stored one.
const Unset = win32.Errno(0xdeadbeef)

// Platform records the last error and the signalled events.
type Platform struct {
	mutex     sync.Mutex
	lastError win32.Errno
	stored    bool
	events    []win32.Handle
}

func (p *Platform) SetLastError(errno win32.Errno) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.lastError, p.stored = errno, true
}

func (p *Platform) SetEvent(h win32.Handle) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.events = append(p.events, h)
	return nil
}

// LastError returns the last error stored, or Unset.
func (p *Platform) LastError() win32.Errno {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if !p.stored {
		return Unset
	}
	return p.lastError
}

// Reset forgets the last error.
func (p *Platform) Reset() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.stored = false
}

// Events returns the handles signalled so far.
func (p *Platform) Events() []win32.Handle {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return append([]win32.Handle(nil), p.events...)
}
