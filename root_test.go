package main

import (
	"testing"

	"github.com/stealthrocket/iohook/internal/assert"
)

var rootTests = tests{
	"invoking iohook without a command prints the introduction message": func(t *testing.T) {
		stdout, stderr, exitCode := iohook(t)
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "iohook - I/O interception for Windows programs\n")
		assert.Equal(t, stderr, "")
	},

	"show the iohook help with the short option": func(t *testing.T) {
		stdout, stderr, exitCode := iohook(t, "-h")
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "Usage:\tiohook <command> ")
		assert.Equal(t, stderr, "")
	},

	"show the iohook help with the long option": func(t *testing.T) {
		stdout, stderr, exitCode := iohook(t, "--help")
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "Usage:\tiohook <command> ")
		assert.Equal(t, stderr, "")
	},

	"passing an unsupported global flag causes an error": func(t *testing.T) {
		_, stderr, exitCode := iohook(t, "--whatever", "version")
		assert.Equal(t, exitCode, 2)
		assert.HasPrefix(t, stderr, "iohook: flag provided but not defined")
	},
}
