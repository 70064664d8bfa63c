package uart

import "strings"

// ParsePortName extracts the port number from a serial device name.
//
// Names are accepted in the NT form, one of the `\\.\`, `\\?\` or `\??\`
// prefixes followed by COM and any decimal number, and in the DOS form COM1
// to COM9 with an optional trailing colon. The COM token is case-insensitive.
func ParsePortName(name string) (port int, ok bool) {
	for _, prefix := range [...]string{`\\.\`, `\\?\`, `\??\`} {
		if strings.HasPrefix(name, prefix) {
			return parseNTName(name[len(prefix):])
		}
	}
	return parseDOSName(name)
}

const maxPort = 1 << 20

func parseNTName(name string) (int, bool) {
	if !hasCOM(name) {
		return 0, false
	}
	digits := name[3:]
	if digits == "" {
		return 0, false
	}
	port := 0
	for i := 0; i < len(digits); i++ {
		c := digits[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		port = 10*port + int(c-'0')
		if port > maxPort {
			return 0, false
		}
	}
	return port, true
}

func parseDOSName(name string) (int, bool) {
	if !hasCOM(name) || len(name) < 4 {
		return 0, false
	}
	if c := name[3]; c < '1' || c > '9' {
		return 0, false
	}
	switch name[4:] {
	case "", ":":
		return int(name[3] - '0'), true
	default:
		return 0, false
	}
}

func hasCOM(name string) bool {
	return len(name) >= 3 && strings.EqualFold(name[:3], "COM")
}
