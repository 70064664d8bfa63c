// Package ntddser describes the serial port device-control protocol: the
// control codes and the fixed binary layout of each parameter block.
package ntddser

import "fmt"

const fileDeviceSerialPort = 0x1b

// Control codes are CTL_CODE(FILE_DEVICE_SERIAL_PORT, function,
// METHOD_BUFFERED, FILE_ANY_ACCESS).
const (
	IOCTL_SERIAL_SET_BAUD_RATE    = fileDeviceSerialPort<<16 | 1<<2
	IOCTL_SERIAL_SET_QUEUE_SIZE   = fileDeviceSerialPort<<16 | 2<<2
	IOCTL_SERIAL_SET_LINE_CONTROL = fileDeviceSerialPort<<16 | 3<<2
	IOCTL_SERIAL_SET_BREAK_ON     = fileDeviceSerialPort<<16 | 4<<2
	IOCTL_SERIAL_SET_BREAK_OFF    = fileDeviceSerialPort<<16 | 5<<2
	IOCTL_SERIAL_IMMEDIATE_CHAR   = fileDeviceSerialPort<<16 | 6<<2
	IOCTL_SERIAL_SET_TIMEOUTS     = fileDeviceSerialPort<<16 | 7<<2
	IOCTL_SERIAL_GET_TIMEOUTS     = fileDeviceSerialPort<<16 | 8<<2
	IOCTL_SERIAL_SET_DTR          = fileDeviceSerialPort<<16 | 9<<2
	IOCTL_SERIAL_CLR_DTR          = fileDeviceSerialPort<<16 | 10<<2
	IOCTL_SERIAL_RESET_DEVICE     = fileDeviceSerialPort<<16 | 11<<2
	IOCTL_SERIAL_SET_RTS          = fileDeviceSerialPort<<16 | 12<<2
	IOCTL_SERIAL_CLR_RTS          = fileDeviceSerialPort<<16 | 13<<2
	IOCTL_SERIAL_SET_XOFF         = fileDeviceSerialPort<<16 | 14<<2
	IOCTL_SERIAL_SET_XON          = fileDeviceSerialPort<<16 | 15<<2
	IOCTL_SERIAL_GET_WAIT_MASK    = fileDeviceSerialPort<<16 | 16<<2
	IOCTL_SERIAL_SET_WAIT_MASK    = fileDeviceSerialPort<<16 | 17<<2
	IOCTL_SERIAL_WAIT_ON_MASK     = fileDeviceSerialPort<<16 | 18<<2
	IOCTL_SERIAL_PURGE            = fileDeviceSerialPort<<16 | 19<<2
	IOCTL_SERIAL_GET_BAUD_RATE    = fileDeviceSerialPort<<16 | 20<<2
	IOCTL_SERIAL_GET_LINE_CONTROL = fileDeviceSerialPort<<16 | 21<<2
	IOCTL_SERIAL_GET_CHARS        = fileDeviceSerialPort<<16 | 22<<2
	IOCTL_SERIAL_SET_CHARS        = fileDeviceSerialPort<<16 | 23<<2
	IOCTL_SERIAL_GET_HANDFLOW     = fileDeviceSerialPort<<16 | 24<<2
	IOCTL_SERIAL_SET_HANDFLOW     = fileDeviceSerialPort<<16 | 25<<2
	IOCTL_SERIAL_GET_MODEMSTATUS  = fileDeviceSerialPort<<16 | 26<<2
	IOCTL_SERIAL_GET_COMMSTATUS   = fileDeviceSerialPort<<16 | 27<<2
	IOCTL_SERIAL_XOFF_COUNTER     = fileDeviceSerialPort<<16 | 28<<2
	IOCTL_SERIAL_GET_PROPERTIES   = fileDeviceSerialPort<<16 | 29<<2
	IOCTL_SERIAL_GET_DTRRTS       = fileDeviceSerialPort<<16 | 30<<2
)

var ioctlNames = [...]string{
	1:  "IOCTL_SERIAL_SET_BAUD_RATE",
	2:  "IOCTL_SERIAL_SET_QUEUE_SIZE",
	3:  "IOCTL_SERIAL_SET_LINE_CONTROL",
	4:  "IOCTL_SERIAL_SET_BREAK_ON",
	5:  "IOCTL_SERIAL_SET_BREAK_OFF",
	6:  "IOCTL_SERIAL_IMMEDIATE_CHAR",
	7:  "IOCTL_SERIAL_SET_TIMEOUTS",
	8:  "IOCTL_SERIAL_GET_TIMEOUTS",
	9:  "IOCTL_SERIAL_SET_DTR",
	10: "IOCTL_SERIAL_CLR_DTR",
	11: "IOCTL_SERIAL_RESET_DEVICE",
	12: "IOCTL_SERIAL_SET_RTS",
	13: "IOCTL_SERIAL_CLR_RTS",
	14: "IOCTL_SERIAL_SET_XOFF",
	15: "IOCTL_SERIAL_SET_XON",
	16: "IOCTL_SERIAL_GET_WAIT_MASK",
	17: "IOCTL_SERIAL_SET_WAIT_MASK",
	18: "IOCTL_SERIAL_WAIT_ON_MASK",
	19: "IOCTL_SERIAL_PURGE",
	20: "IOCTL_SERIAL_GET_BAUD_RATE",
	21: "IOCTL_SERIAL_GET_LINE_CONTROL",
	22: "IOCTL_SERIAL_GET_CHARS",
	23: "IOCTL_SERIAL_SET_CHARS",
	24: "IOCTL_SERIAL_GET_HANDFLOW",
	25: "IOCTL_SERIAL_SET_HANDFLOW",
	26: "IOCTL_SERIAL_GET_MODEMSTATUS",
	27: "IOCTL_SERIAL_GET_COMMSTATUS",
	28: "IOCTL_SERIAL_XOFF_COUNTER",
	29: "IOCTL_SERIAL_GET_PROPERTIES",
	30: "IOCTL_SERIAL_GET_DTRRTS",
}

// IoctlName returns a readable name for a control code.
func IoctlName(code uint32) string {
	if code>>16 == fileDeviceSerialPort && code&3 == 0 {
		if fn := (code >> 2) & 0xfff; fn > 0 && int(fn) < len(ioctlNames) {
			return ioctlNames[fn]
		}
	}
	return fmt.Sprintf("IOCTL(%#x)", code)
}

// Error bits of Status.Errors.
const (
	SERIAL_ERROR_BREAK        = 0x00000001
	SERIAL_ERROR_FRAMING      = 0x00000002
	SERIAL_ERROR_OVERRUN      = 0x00000004
	SERIAL_ERROR_QUEUEOVERRUN = 0x00000008
	SERIAL_ERROR_PARITY       = 0x00000010
)

// Bits of Status.HoldReasons.
const (
	SERIAL_TX_WAITING_FOR_CTS   = 0x00000001
	SERIAL_TX_WAITING_FOR_DSR   = 0x00000002
	SERIAL_TX_WAITING_FOR_DCD   = 0x00000004
	SERIAL_TX_WAITING_FOR_XON   = 0x00000008
	SERIAL_TX_WAITING_XOFF_SENT = 0x00000010
	SERIAL_TX_WAITING_ON_BREAK  = 0x00000020
	SERIAL_RX_WAITING_FOR_DSR   = 0x00000040
)

// Bits of Handflow.ControlHandShake.
const (
	SERIAL_DTR_MASK        = 0x00000003
	SERIAL_DTR_CONTROL     = 0x00000001
	SERIAL_DTR_HANDSHAKE   = 0x00000002
	SERIAL_CTS_HANDSHAKE   = 0x00000008
	SERIAL_DSR_HANDSHAKE   = 0x00000010
	SERIAL_DCD_HANDSHAKE   = 0x00000020
	SERIAL_DSR_SENSITIVITY = 0x00000040
	SERIAL_ERROR_ABORT     = 0x80000000
)

// Bits of Handflow.FlowReplace.
const (
	SERIAL_AUTO_TRANSMIT   = 0x00000001
	SERIAL_AUTO_RECEIVE    = 0x00000002
	SERIAL_ERROR_CHAR      = 0x00000004
	SERIAL_NULL_STRIPPING  = 0x00000008
	SERIAL_BREAK_CHAR      = 0x00000010
	SERIAL_RTS_MASK        = 0x000000c0
	SERIAL_RTS_CONTROL     = 0x00000040
	SERIAL_RTS_HANDSHAKE   = 0x00000080
	SERIAL_TRANSMIT_TOGGLE = 0x000000c0
	SERIAL_XOFF_CONTINUE   = 0x80000000
)

// Line control values.
const (
	STOP_BIT_1    = 0
	STOP_BITS_1_5 = 1
	STOP_BITS_2   = 2

	NO_PARITY    = 0
	ODD_PARITY   = 1
	EVEN_PARITY  = 2
	MARK_PARITY  = 3
	SPACE_PARITY = 4
)

// Purge masks carried by IOCTL_SERIAL_PURGE.
const (
	SERIAL_PURGE_TXABORT = 0x00000001
	SERIAL_PURGE_RXABORT = 0x00000002
	SERIAL_PURGE_TXCLEAR = 0x00000004
	SERIAL_PURGE_RXCLEAR = 0x00000008
)
