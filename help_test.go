package main

import (
	"testing"

	"github.com/stealthrocket/iohook/internal/assert"
)

var helpTests = tests{
	"calling help with an unknown command causes an error": func(t *testing.T) {
		stdout, stderr, exitCode := iohook(t, "help", "whatever")
		assert.Equal(t, exitCode, 2)
		assert.Equal(t, stdout, "")
		assert.Equal(t, stderr, "iohook help whatever: unknown command\n")
	},

	"passing an unsupported flag to the command causes an error": func(t *testing.T) {
		_, _, exitCode := iohook(t, "help", "-_")
		assert.Equal(t, exitCode, 2)
	},

	"show the help command help with the short option": func(t *testing.T) {
		stdout, stderr, exitCode := iohook(t, "help", "-h")
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "Usage:\tiohook <command> ")
		assert.Equal(t, stderr, "")
	},

	"show the help command help after a command name": func(t *testing.T) {
		stdout, stderr, exitCode := iohook(t, "help", "trace", "--help")
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "Usage:\tiohook <command> ")
		assert.Equal(t, stderr, "")
	},

	"iohook help": func(t *testing.T) {
		stdout, stderr, exitCode := iohook(t, "help")
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "Usage:\tiohook <command> ")
		assert.Equal(t, stderr, "")
	},

	"iohook help config": func(t *testing.T) {
		stdout, stderr, exitCode := iohook(t, "help", "config")
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "Usage:\tiohook config ")
		assert.Equal(t, stderr, "")
	},

	"iohook help help": func(t *testing.T) {
		stdout, stderr, exitCode := iohook(t, "help", "help")
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "Usage:\tiohook <command> ")
		assert.Equal(t, stderr, "")
	},

	"iohook help inject": func(t *testing.T) {
		stdout, stderr, exitCode := iohook(t, "help", "inject")
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "Usage:\tiohook inject ")
		assert.Equal(t, stderr, "")
	},

	"iohook help trace": func(t *testing.T) {
		stdout, stderr, exitCode := iohook(t, "help", "trace")
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "Usage:\tiohook trace ")
		assert.Equal(t, stderr, "")
	},

	"iohook help version": func(t *testing.T) {
		stdout, stderr, exitCode := iohook(t, "help", "version")
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "Usage:\tiohook version\n")
		assert.Equal(t, stderr, "")
	},
}
