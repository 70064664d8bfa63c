package irp

import "github.com/stealthrocket/iohook/internal/win32"

// Buffer is a bounded destination view. Pos counts the bytes written so far
// and never exceeds len(Bytes).
type Buffer struct {
	Bytes []byte
	Pos   int
}

// MakeBuffer returns a view over b with nothing written yet.
func MakeBuffer(b []byte) Buffer { return Buffer{Bytes: b} }

// Available returns how many bytes can still be written.
func (b *Buffer) Available() int { return len(b.Bytes) - b.Pos }

// Filled returns the bytes written so far.
func (b *Buffer) Filled() []byte { return b.Bytes[:b.Pos] }

// Write copies all of src into the view. When src does not fit nothing is
// copied and ERROR_INSUFFICIENT_BUFFER is returned.
func (b *Buffer) Write(src []byte) error {
	if len(src) > b.Available() {
		return win32.ERROR_INSUFFICIENT_BUFFER
	}
	b.Pos += copy(b.Bytes[b.Pos:], src)
	return nil
}

// ConstBuffer is a bounded source view. Pos counts the bytes consumed so far
// and never exceeds len(Bytes).
type ConstBuffer struct {
	Bytes []byte
	Pos   int
}

// MakeConstBuffer returns a view over b with nothing consumed yet.
func MakeConstBuffer(b []byte) ConstBuffer { return ConstBuffer{Bytes: b} }

// Remaining returns how many bytes are left to consume.
func (b *ConstBuffer) Remaining() int { return len(b.Bytes) - b.Pos }

// Unread returns the bytes that were not consumed yet.
func (b *ConstBuffer) Unread() []byte { return b.Bytes[b.Pos:] }

// Read fills dst from the view. When fewer than len(dst) bytes remain nothing
// is copied and ERROR_MORE_DATA is returned.
func (b *ConstBuffer) Read(dst []byte) error {
	if len(dst) > b.Remaining() {
		return win32.ERROR_MORE_DATA
	}
	b.Pos += copy(dst, b.Bytes[b.Pos:])
	return nil
}

// Move transfers as many bytes as both views allow from src to dst and
// returns the count.
func Move(dst *Buffer, src *ConstBuffer) int {
	n := copy(dst.Bytes[dst.Pos:], src.Bytes[src.Pos:])
	dst.Pos += n
	src.Pos += n
	return n
}

// Shift moves bytes from the front of src into dst, removing them from src.
// The remaining bytes are moved down in place.
func Shift(dst *Buffer, src *[]byte) int {
	n := copy(dst.Bytes[dst.Pos:], *src)
	dst.Pos += n
	rest := copy(*src, (*src)[n:])
	*src = (*src)[:rest]
	return n
}
