package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stealthrocket/iohook/internal/assert"
	"github.com/stealthrocket/iohook/internal/config"
)

var configTests = tests{
	"show the config command help with the short option": func(t *testing.T) {
		stdout, stderr, exitCode := iohook(t, "config", "-h")
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "Usage:\tiohook config ")
		assert.Equal(t, stderr, "")
	},

	"the text output is the configuration file": func(t *testing.T) {
		b, err := os.ReadFile(os.Getenv(config.PathEnv))
		assert.OK(t, err)

		stdout, stderr, exitCode := iohook(t, "config")
		assert.Equal(t, exitCode, 0)
		assert.Equal(t, stdout, string(b))
		assert.Equal(t, stderr, "")
	},

	"the json output lists the serial ports": func(t *testing.T) {
		stdout, stderr, exitCode := iohook(t, "config", "-o", "json")
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "{\n  \"uarts\": [\n    {\n      \"port\": 3,\n      \"input\": \"hello\"\n    }\n  ],\n")
		assert.Equal(t, stderr, "")
	},

	"the yaml output lists the serial ports": func(t *testing.T) {
		stdout, stderr, exitCode := iohook(t, "config", "--output", "yaml")
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "uarts:\n  - port: 3\n    input: hello\n")
		assert.True(t, strings.Contains(stdout, "sockets: false\n"))
		assert.Equal(t, stderr, "")
	},

	"an unsupported output format causes an error": func(t *testing.T) {
		_, stderr, exitCode := iohook(t, "config", "-o", "xml")
		assert.Equal(t, exitCode, 2)
		assert.HasPrefix(t, stderr, "iohook config: ")
	},

	"the default configuration is shown when the file does not exist": func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "path", "to", "nowhere.yaml")
		stdout, stderr, exitCode := iohook(t, "config", "-c", path, "-o", "yaml")
		assert.Equal(t, exitCode, 0)
		assert.True(t, strings.Contains(stdout, "sockets: true\n"))
		assert.True(t, strings.Contains(stdout, "trace.zst\n"))
		assert.Equal(t, stderr, "")
	},

	"an invalid configuration causes an error": func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		assert.OK(t, os.WriteFile(path, []byte("uarts:\n  - port: 0\n"), 0666))

		_, stderr, exitCode := iohook(t, "config", "--config", path)
		assert.Equal(t, exitCode, 1)
		assert.HasPrefix(t, stderr, "ERR: iohook config: ")
		assert.True(t, strings.Contains(stderr, "invalid serial port number"))
	},
}
