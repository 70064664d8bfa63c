package serial

import (
	"github.com/stealthrocket/iohook/internal/ntddser"
	"github.com/stealthrocket/iohook/internal/win32"
)

// handflowFromDCB translates the flow control flags of d. Unknown DTR or RTS
// control modes are rejected.
func handflowFromDCB(d *DCB) (ntddser.Handflow, error) {
	var h ntddser.Handflow

	if d.OutxCtsFlow() {
		h.ControlHandShake |= ntddser.SERIAL_CTS_HANDSHAKE
	}
	if d.OutxDsrFlow() {
		h.ControlHandShake |= ntddser.SERIAL_DSR_HANDSHAKE
	}
	switch d.DtrControl() {
	case DTR_CONTROL_DISABLE:
	case DTR_CONTROL_ENABLE:
		h.ControlHandShake |= ntddser.SERIAL_DTR_CONTROL
	case DTR_CONTROL_HANDSHAKE:
		h.ControlHandShake |= ntddser.SERIAL_DTR_HANDSHAKE
	default:
		return h, win32.ERROR_INVALID_PARAMETER
	}
	if d.DsrSensitivity() {
		h.ControlHandShake |= ntddser.SERIAL_DSR_SENSITIVITY
	}
	if d.AbortOnError() {
		h.ControlHandShake |= ntddser.SERIAL_ERROR_ABORT
	}

	switch d.RtsControl() {
	case RTS_CONTROL_DISABLE:
	case RTS_CONTROL_ENABLE:
		h.FlowReplace |= ntddser.SERIAL_RTS_CONTROL
	case RTS_CONTROL_HANDSHAKE:
		h.FlowReplace |= ntddser.SERIAL_RTS_HANDSHAKE
	default:
		return h, win32.ERROR_INVALID_PARAMETER
	}
	if d.TXContinueOnXoff() {
		h.FlowReplace |= ntddser.SERIAL_XOFF_CONTINUE
	}
	if d.OutX() {
		h.FlowReplace |= ntddser.SERIAL_AUTO_TRANSMIT
	}
	if d.InX() {
		h.FlowReplace |= ntddser.SERIAL_AUTO_RECEIVE
	}
	if d.ErrorCharEnabled() {
		h.FlowReplace |= ntddser.SERIAL_ERROR_CHAR
	}
	if d.Null() {
		h.FlowReplace |= ntddser.SERIAL_NULL_STRIPPING
	}

	h.XonLimit = int32(d.XonLim)
	h.XoffLimit = int32(d.XoffLim)
	return h, nil
}

func lineFromDCB(d *DCB) ntddser.LineControl {
	return ntddser.LineControl{
		StopBits:   d.StopBits,
		Parity:     d.Parity,
		WordLength: d.ByteSize,
	}
}

func charsFromDCB(d *DCB) ntddser.Chars {
	return ntddser.Chars{
		EofChar:   d.EofChar,
		ErrorChar: d.ErrorChar,
		EventChar: d.EvtChar,
		XonChar:   d.XonChar,
		XoffChar:  d.XoffChar,
	}
}

// dcbFromSerial synthesizes a device control block from the device state.
// The parity check flag has no counterpart in the device state and is left
// unset.
func dcbFromSerial(baud ntddser.BaudRate, h ntddser.Handflow, line ntddser.LineControl, chars ntddser.Chars) DCB {
	d := DCB{DCBlength: DCBLength, BaudRate: baud.BaudRate}
	d.SetBinary(true)

	d.SetOutxCtsFlow(h.ControlHandShake&ntddser.SERIAL_CTS_HANDSHAKE != 0)
	d.SetOutxDsrFlow(h.ControlHandShake&ntddser.SERIAL_DSR_HANDSHAKE != 0)
	switch {
	case h.ControlHandShake&ntddser.SERIAL_DTR_HANDSHAKE != 0:
		d.SetDtrControl(DTR_CONTROL_HANDSHAKE)
	case h.ControlHandShake&ntddser.SERIAL_DTR_CONTROL != 0:
		d.SetDtrControl(DTR_CONTROL_ENABLE)
	}
	d.SetDsrSensitivity(h.ControlHandShake&ntddser.SERIAL_DSR_SENSITIVITY != 0)
	d.SetAbortOnError(h.ControlHandShake&ntddser.SERIAL_ERROR_ABORT != 0)

	switch {
	case h.FlowReplace&ntddser.SERIAL_RTS_HANDSHAKE != 0:
		d.SetRtsControl(RTS_CONTROL_HANDSHAKE)
	case h.FlowReplace&ntddser.SERIAL_RTS_CONTROL != 0:
		d.SetRtsControl(RTS_CONTROL_ENABLE)
	}
	d.SetTXContinueOnXoff(h.FlowReplace&ntddser.SERIAL_XOFF_CONTINUE != 0)
	d.SetOutX(h.FlowReplace&ntddser.SERIAL_AUTO_TRANSMIT != 0)
	d.SetInX(h.FlowReplace&ntddser.SERIAL_AUTO_RECEIVE != 0)
	d.SetErrorCharEnabled(h.FlowReplace&ntddser.SERIAL_ERROR_CHAR != 0)
	d.SetNull(h.FlowReplace&ntddser.SERIAL_NULL_STRIPPING != 0)

	d.XonLim = uint16(h.XonLimit)
	d.XoffLim = uint16(h.XoffLimit)

	d.ByteSize = line.WordLength
	d.Parity = line.Parity
	d.StopBits = line.StopBits

	d.XonChar = chars.XonChar
	d.XoffChar = chars.XoffChar
	d.ErrorChar = chars.ErrorChar
	d.EofChar = chars.EofChar
	d.EvtChar = chars.EventChar
	return d
}

func timeoutsFromComm(t *CommTimeouts) ntddser.Timeouts {
	return ntddser.Timeouts{
		ReadIntervalTimeout:         t.ReadIntervalTimeout,
		ReadTotalTimeoutMultiplier:  t.ReadTotalTimeoutMultiplier,
		ReadTotalTimeoutConstant:    t.ReadTotalTimeoutConstant,
		WriteTotalTimeoutMultiplier: t.WriteTotalTimeoutMultiplier,
		WriteTotalTimeoutConstant:   t.WriteTotalTimeoutConstant,
	}
}

func commFromTimeouts(t *ntddser.Timeouts) CommTimeouts {
	return CommTimeouts{
		ReadIntervalTimeout:         t.ReadIntervalTimeout,
		ReadTotalTimeoutMultiplier:  t.ReadTotalTimeoutMultiplier,
		ReadTotalTimeoutConstant:    t.ReadTotalTimeoutConstant,
		WriteTotalTimeoutMultiplier: t.WriteTotalTimeoutMultiplier,
		WriteTotalTimeoutConstant:   t.WriteTotalTimeoutConstant,
	}
}

func commErrorsFromStatus(s *ntddser.Status) uint32 {
	var errors uint32
	if s.Errors&ntddser.SERIAL_ERROR_QUEUEOVERRUN != 0 {
		errors |= CE_OVERRUN
	}
	if s.Errors&ntddser.SERIAL_ERROR_OVERRUN != 0 {
		errors |= CE_RXOVER
	}
	if s.Errors&ntddser.SERIAL_ERROR_BREAK != 0 {
		errors |= CE_BREAK
	}
	if s.Errors&ntddser.SERIAL_ERROR_PARITY != 0 {
		errors |= CE_RXPARITY
	}
	if s.Errors&ntddser.SERIAL_ERROR_FRAMING != 0 {
		errors |= CE_FRAME
	}
	return errors
}

// comStatFromStatus translates the hold reasons and queue depths. Waiting on
// a break has no COMSTAT counterpart.
func comStatFromStatus(s *ntddser.Status) ComStat {
	stat := ComStat{
		CbInQue:  s.AmountInInQueue,
		CbOutQue: s.AmountInOutQueue,
	}
	holds := [...]struct {
		reason uint32
		flag   uint32
	}{
		{ntddser.SERIAL_TX_WAITING_FOR_CTS, COMSTAT_CTS_HOLD},
		{ntddser.SERIAL_TX_WAITING_FOR_DSR, COMSTAT_DSR_HOLD},
		{ntddser.SERIAL_TX_WAITING_FOR_DCD, COMSTAT_RLSD_HOLD},
		{ntddser.SERIAL_TX_WAITING_FOR_XON, COMSTAT_XOFF_HOLD},
		{ntddser.SERIAL_TX_WAITING_XOFF_SENT, COMSTAT_XOFF_SENT},
	}
	for _, hold := range holds {
		if s.HoldReasons&hold.reason != 0 {
			stat.Flags |= hold.flag
		}
	}
	if s.EofReceived {
		stat.Flags |= COMSTAT_EOF
	}
	if s.WaitForImmediate {
		stat.Flags |= COMSTAT_TXIM
	}
	return stat
}
