package ntddser

import (
	"encoding"
	"encoding/binary"
	"errors"
)

// ErrShortBuffer is returned when decoding a parameter block from fewer bytes
// than its layout requires.
var ErrShortBuffer = errors.New("ntddser: parameter block is too short")

// Record is implemented by pointers to every parameter block type.
type Record interface {
	Size() int
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
}

var (
	_ Record = (*BaudRate)(nil)
	_ Record = (*Status)(nil)
	_ Record = (*Chars)(nil)
	_ Record = (*Handflow)(nil)
	_ Record = (*LineControl)(nil)
	_ Record = (*Timeouts)(nil)
	_ Record = (*WaitMask)(nil)
	_ Record = (*QueueSize)(nil)
)

var le = binary.LittleEndian

// BaudRate is SERIAL_BAUD_RATE.
type BaudRate struct {
	BaudRate uint32
}

func (*BaudRate) Size() int { return 4 }

func (b *BaudRate) MarshalBinary() ([]byte, error) {
	return le.AppendUint32(nil, b.BaudRate), nil
}

func (b *BaudRate) UnmarshalBinary(data []byte) error {
	if len(data) < b.Size() {
		return ErrShortBuffer
	}
	b.BaudRate = le.Uint32(data)
	return nil
}

// Status is SERIAL_STATUS. The two flags are followed by two bytes of
// padding.
type Status struct {
	Errors           uint32
	HoldReasons      uint32
	AmountInInQueue  uint32
	AmountInOutQueue uint32
	EofReceived      bool
	WaitForImmediate bool
}

func (*Status) Size() int { return 20 }

func (s *Status) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, s.Size())
	b = le.AppendUint32(b, s.Errors)
	b = le.AppendUint32(b, s.HoldReasons)
	b = le.AppendUint32(b, s.AmountInInQueue)
	b = le.AppendUint32(b, s.AmountInOutQueue)
	b = append(b, boolByte(s.EofReceived), boolByte(s.WaitForImmediate), 0, 0)
	return b, nil
}

func (s *Status) UnmarshalBinary(data []byte) error {
	if len(data) < s.Size() {
		return ErrShortBuffer
	}
	s.Errors = le.Uint32(data[0:])
	s.HoldReasons = le.Uint32(data[4:])
	s.AmountInInQueue = le.Uint32(data[8:])
	s.AmountInOutQueue = le.Uint32(data[12:])
	s.EofReceived = data[16] != 0
	s.WaitForImmediate = data[17] != 0
	return nil
}

// Chars is SERIAL_CHARS.
type Chars struct {
	EofChar   byte
	ErrorChar byte
	BreakChar byte
	EventChar byte
	XonChar   byte
	XoffChar  byte
}

func (*Chars) Size() int { return 6 }

func (c *Chars) MarshalBinary() ([]byte, error) {
	return []byte{c.EofChar, c.ErrorChar, c.BreakChar, c.EventChar, c.XonChar, c.XoffChar}, nil
}

func (c *Chars) UnmarshalBinary(data []byte) error {
	if len(data) < c.Size() {
		return ErrShortBuffer
	}
	c.EofChar = data[0]
	c.ErrorChar = data[1]
	c.BreakChar = data[2]
	c.EventChar = data[3]
	c.XonChar = data[4]
	c.XoffChar = data[5]
	return nil
}

// Handflow is SERIAL_HANDFLOW.
type Handflow struct {
	ControlHandShake uint32
	FlowReplace      uint32
	XonLimit         int32
	XoffLimit        int32
}

func (*Handflow) Size() int { return 16 }

func (h *Handflow) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, h.Size())
	b = le.AppendUint32(b, h.ControlHandShake)
	b = le.AppendUint32(b, h.FlowReplace)
	b = le.AppendUint32(b, uint32(h.XonLimit))
	b = le.AppendUint32(b, uint32(h.XoffLimit))
	return b, nil
}

func (h *Handflow) UnmarshalBinary(data []byte) error {
	if len(data) < h.Size() {
		return ErrShortBuffer
	}
	h.ControlHandShake = le.Uint32(data[0:])
	h.FlowReplace = le.Uint32(data[4:])
	h.XonLimit = int32(le.Uint32(data[8:]))
	h.XoffLimit = int32(le.Uint32(data[12:]))
	return nil
}

// LineControl is SERIAL_LINE_CONTROL.
type LineControl struct {
	StopBits   byte
	Parity     byte
	WordLength byte
}

func (*LineControl) Size() int { return 3 }

func (l *LineControl) MarshalBinary() ([]byte, error) {
	return []byte{l.StopBits, l.Parity, l.WordLength}, nil
}

func (l *LineControl) UnmarshalBinary(data []byte) error {
	if len(data) < l.Size() {
		return ErrShortBuffer
	}
	l.StopBits = data[0]
	l.Parity = data[1]
	l.WordLength = data[2]
	return nil
}

// Timeouts is SERIAL_TIMEOUTS. All values are in milliseconds.
type Timeouts struct {
	ReadIntervalTimeout         uint32
	ReadTotalTimeoutMultiplier  uint32
	ReadTotalTimeoutConstant    uint32
	WriteTotalTimeoutMultiplier uint32
	WriteTotalTimeoutConstant   uint32
}

func (*Timeouts) Size() int { return 20 }

func (t *Timeouts) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, t.Size())
	b = le.AppendUint32(b, t.ReadIntervalTimeout)
	b = le.AppendUint32(b, t.ReadTotalTimeoutMultiplier)
	b = le.AppendUint32(b, t.ReadTotalTimeoutConstant)
	b = le.AppendUint32(b, t.WriteTotalTimeoutMultiplier)
	b = le.AppendUint32(b, t.WriteTotalTimeoutConstant)
	return b, nil
}

func (t *Timeouts) UnmarshalBinary(data []byte) error {
	if len(data) < t.Size() {
		return ErrShortBuffer
	}
	t.ReadIntervalTimeout = le.Uint32(data[0:])
	t.ReadTotalTimeoutMultiplier = le.Uint32(data[4:])
	t.ReadTotalTimeoutConstant = le.Uint32(data[8:])
	t.WriteTotalTimeoutMultiplier = le.Uint32(data[12:])
	t.WriteTotalTimeoutConstant = le.Uint32(data[16:])
	return nil
}

// WaitMask is the event mask of IOCTL_SERIAL_GET_WAIT_MASK and
// IOCTL_SERIAL_SET_WAIT_MASK.
type WaitMask uint32

func (*WaitMask) Size() int { return 4 }

func (m *WaitMask) MarshalBinary() ([]byte, error) {
	return le.AppendUint32(nil, uint32(*m)), nil
}

func (m *WaitMask) UnmarshalBinary(data []byte) error {
	if len(data) < m.Size() {
		return ErrShortBuffer
	}
	*m = WaitMask(le.Uint32(data))
	return nil
}

// QueueSize is SERIAL_QUEUE_SIZE.
type QueueSize struct {
	InSize  uint32
	OutSize uint32
}

func (*QueueSize) Size() int { return 8 }

func (q *QueueSize) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, q.Size())
	b = le.AppendUint32(b, q.InSize)
	b = le.AppendUint32(b, q.OutSize)
	return b, nil
}

func (q *QueueSize) UnmarshalBinary(data []byte) error {
	if len(data) < q.Size() {
		return ErrShortBuffer
	}
	q.InSize = le.Uint32(data[0:])
	q.OutSize = le.Uint32(data[4:])
	return nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// Encode returns the binary layout of rec.
func Encode(rec Record) []byte {
	b, err := rec.MarshalBinary()
	if err != nil {
		panic(err)
	}
	return b
}
