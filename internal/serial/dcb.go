package serial

// DCBLength is the only DCB size accepted by SetCommState.
const DCBLength = 28

// DCB is the device control block of the Comm API, laid out exactly as the
// platform defines it. The bit fields are packed in Flags and accessed through
// methods.
type DCB struct {
	DCBlength uint32
	BaudRate  uint32
	Flags     uint32
	Reserved  uint16
	XonLim    uint16
	XoffLim   uint16
	ByteSize  byte
	Parity    byte
	StopBits  byte
	XonChar   byte
	XoffChar  byte
	ErrorChar byte
	EofChar   byte
	EvtChar   byte
	Reserved1 uint16
}

// Bit positions within DCB.Flags.
const (
	dcbBinary           = 0
	dcbParity           = 1
	dcbOutxCtsFlow      = 2
	dcbOutxDsrFlow      = 3
	dcbDtrControl       = 4 // 2 bits
	dcbDsrSensitivity   = 6
	dcbTXContinueOnXoff = 7
	dcbOutX             = 8
	dcbInX              = 9
	dcbErrorChar        = 10
	dcbNull             = 11
	dcbRtsControl       = 12 // 2 bits
	dcbAbortOnError     = 14
)

const (
	DTR_CONTROL_DISABLE   = 0
	DTR_CONTROL_ENABLE    = 1
	DTR_CONTROL_HANDSHAKE = 2

	RTS_CONTROL_DISABLE   = 0
	RTS_CONTROL_ENABLE    = 1
	RTS_CONTROL_HANDSHAKE = 2
	RTS_CONTROL_TOGGLE    = 3
)

func (d *DCB) bit(pos uint) bool { return d.Flags&(1<<pos) != 0 }

func (d *DCB) setBit(pos uint, on bool) {
	if on {
		d.Flags |= 1 << pos
	} else {
		d.Flags &^= 1 << pos
	}
}

func (d *DCB) field(pos uint) uint32 { return (d.Flags >> pos) & 3 }

func (d *DCB) setField(pos uint, v uint32) {
	d.Flags = d.Flags&^(3<<pos) | (v&3)<<pos
}

func (d *DCB) Binary() bool           { return d.bit(dcbBinary) }
func (d *DCB) ParityCheck() bool      { return d.bit(dcbParity) }
func (d *DCB) OutxCtsFlow() bool      { return d.bit(dcbOutxCtsFlow) }
func (d *DCB) OutxDsrFlow() bool      { return d.bit(dcbOutxDsrFlow) }
func (d *DCB) DtrControl() uint32     { return d.field(dcbDtrControl) }
func (d *DCB) DsrSensitivity() bool   { return d.bit(dcbDsrSensitivity) }
func (d *DCB) TXContinueOnXoff() bool { return d.bit(dcbTXContinueOnXoff) }
func (d *DCB) OutX() bool             { return d.bit(dcbOutX) }
func (d *DCB) InX() bool              { return d.bit(dcbInX) }
func (d *DCB) ErrorCharEnabled() bool { return d.bit(dcbErrorChar) }
func (d *DCB) Null() bool             { return d.bit(dcbNull) }
func (d *DCB) RtsControl() uint32     { return d.field(dcbRtsControl) }
func (d *DCB) AbortOnError() bool     { return d.bit(dcbAbortOnError) }

func (d *DCB) SetBinary(on bool)           { d.setBit(dcbBinary, on) }
func (d *DCB) SetParityCheck(on bool)      { d.setBit(dcbParity, on) }
func (d *DCB) SetOutxCtsFlow(on bool)      { d.setBit(dcbOutxCtsFlow, on) }
func (d *DCB) SetOutxDsrFlow(on bool)      { d.setBit(dcbOutxDsrFlow, on) }
func (d *DCB) SetDtrControl(v uint32)      { d.setField(dcbDtrControl, v) }
func (d *DCB) SetDsrSensitivity(on bool)   { d.setBit(dcbDsrSensitivity, on) }
func (d *DCB) SetTXContinueOnXoff(on bool) { d.setBit(dcbTXContinueOnXoff, on) }
func (d *DCB) SetOutX(on bool)             { d.setBit(dcbOutX, on) }
func (d *DCB) SetInX(on bool)              { d.setBit(dcbInX, on) }
func (d *DCB) SetErrorCharEnabled(on bool) { d.setBit(dcbErrorChar, on) }
func (d *DCB) SetNull(on bool)             { d.setBit(dcbNull, on) }
func (d *DCB) SetRtsControl(v uint32)      { d.setField(dcbRtsControl, v) }
func (d *DCB) SetAbortOnError(on bool)     { d.setBit(dcbAbortOnError, on) }

// CommTimeouts is COMMTIMEOUTS.
type CommTimeouts struct {
	ReadIntervalTimeout         uint32
	ReadTotalTimeoutMultiplier  uint32
	ReadTotalTimeoutConstant    uint32
	WriteTotalTimeoutMultiplier uint32
	WriteTotalTimeoutConstant   uint32
}

// ComStat is COMSTAT. The hold flags are packed in Flags.
type ComStat struct {
	Flags    uint32
	CbInQue  uint32
	CbOutQue uint32
}

const (
	COMSTAT_CTS_HOLD  = 1 << 0
	COMSTAT_DSR_HOLD  = 1 << 1
	COMSTAT_RLSD_HOLD = 1 << 2
	COMSTAT_XOFF_HOLD = 1 << 3
	COMSTAT_XOFF_SENT = 1 << 4
	COMSTAT_EOF       = 1 << 5
	COMSTAT_TXIM      = 1 << 6
)

// Error bits reported by ClearCommError.
const (
	CE_RXOVER   = 0x0001
	CE_OVERRUN  = 0x0002
	CE_RXPARITY = 0x0004
	CE_FRAME    = 0x0008
	CE_BREAK    = 0x0010
)

// Commands of EscapeCommFunction.
const (
	SETXOFF  = 1
	SETXON   = 2
	SETRTS   = 3
	CLRRTS   = 4
	SETDTR   = 5
	CLRDTR   = 6
	SETBREAK = 8
	CLRBREAK = 9
)
