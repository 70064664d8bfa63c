package uart_test

import (
	"testing"

	"github.com/stealthrocket/iohook/internal/assert"
	"github.com/stealthrocket/iohook/internal/uart"
)

func TestParsePortName(t *testing.T) {
	tests := []struct {
		name string
		port int
		ok   bool
	}{
		{`\\.\COM3`, 3, true},
		{`\\?\com12`, 12, true},
		{`\??\CoM7`, 7, true},
		{`\\.\COM`, 0, false},
		{`\\.\COM3:`, 0, false},
		{`\\.\LPT1`, 0, false},
		{`\\.\COM99999999999999999999`, 0, false},
		{"COM1", 1, true},
		{"com9:", 9, true},
		{"COM3:", 3, true},
		{"COM0", 0, false},
		{"COM10", 0, false},
		{"COM3::", 0, false},
		{"COM", 0, false},
		{"CON", 0, false},
		{`C:\COM3`, 0, false},
		{"", 0, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			port, ok := uart.ParsePortName(test.name)
			assert.Equal(t, ok, test.ok)
			assert.Equal(t, port, test.port)
		})
	}
}
