package main

import (
	"runtime"
	"testing"

	"github.com/stealthrocket/iohook/internal/assert"
)

var injectTests = tests{
	"invoking inject without a program prints the usage": func(t *testing.T) {
		stdout, stderr, exitCode := iohook(t, "inject")
		assert.Equal(t, exitCode, 1)
		assert.HasPrefix(t, stdout, "Usage:\tiohook inject ")
		assert.Equal(t, stderr, "")
	},

	"the help option prints the usage and fails": func(t *testing.T) {
		stdout, stderr, exitCode := iohook(t, "inject", "-h", "app.exe")
		assert.Equal(t, exitCode, 1)
		assert.HasPrefix(t, stdout, "Usage:\tiohook inject ")
		assert.Equal(t, stderr, "")
	},

	"debugging and waiting are exclusive": func(t *testing.T) {
		stdout, _, exitCode := iohook(t, "inject", "-w", "-d", "app.exe")
		assert.Equal(t, exitCode, 1)
		assert.HasPrefix(t, stdout, "Usage:\tiohook inject ")
	},

	"launching a program is not supported outside of windows": func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("launching a program is supported on windows")
		}
		_, stderr, exitCode := iohook(t, "inject", "-k", "iohook.dll", "app.exe")
		assert.Equal(t, exitCode, 1)
		assert.HasPrefix(t, stderr, "ERR: iohook inject: ")
	},
}
