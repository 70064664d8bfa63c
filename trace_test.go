package main

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stealthrocket/iohook/internal/assert"
	"github.com/stealthrocket/iohook/internal/trace"
)

func writeTraceLog(t *testing.T, path string) {
	w, err := trace.CreateLog(path)
	assert.OK(t, err)
	_, err = w.Write([]trace.Record{
		{Seq: 1, Op: "Open", Handle: 0x10, Name: `\\.\COM3`},
		{Seq: 2, Op: "Write", Handle: 0x10, Size: 5, Transfer: 5},
		{Seq: 3, Op: "Read", Handle: 0x10, Size: 16, Transfer: 5},
		{Seq: 4, Op: "Close", Handle: 0x10, Errno: 6, Error: "ERROR_INVALID_HANDLE"},
	})
	assert.OK(t, err)
	assert.OK(t, w.Close())
}

var traceTests = tests{
	"show the trace command help with the short option": func(t *testing.T) {
		stdout, stderr, exitCode := iohook(t, "trace", "-h")
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "Usage:\tiohook trace ")
		assert.Equal(t, stderr, "")
	},

	"the configured trace output is read by default": func(t *testing.T) {
		writeTraceLog(t, configuredTraceOutput(t))

		stdout, stderr, exitCode := iohook(t, "trace")
		assert.Equal(t, exitCode, 0)
		assert.Equal(t, stderr, "")

		lines := strings.Split(strings.TrimSuffix(stdout, "\n"), "\n")
		assert.Equal(t, len(lines), 5)
		assert.HasPrefix(t, lines[0], "SEQ")
		assert.True(t, strings.Contains(lines[4], "ERROR_INVALID_HANDLE"))
	},

	"records are filtered by operation": func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "trace.zst")
		writeTraceLog(t, path)

		stdout, stderr, exitCode := iohook(t, "trace", path, "-o", "json", "--op", "Read", "--op", "Write")
		assert.Equal(t, exitCode, 0)
		assert.Equal(t, stderr, "")

		d := json.NewDecoder(strings.NewReader(stdout))
		var ops []string
		for d.More() {
			var rec trace.Record
			assert.OK(t, d.Decode(&rec))
			ops = append(ops, rec.Op)
		}
		assert.EqualAll(t, ops, []string{"Write", "Read"})
	},

	"the yaml output contains one document per record": func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "trace.zst")
		writeTraceLog(t, path)

		stdout, _, exitCode := iohook(t, "trace", "-o", "yaml", path)
		assert.Equal(t, exitCode, 0)
		assert.Equal(t, strings.Count(stdout, "\n---\n"), 3)
	},

	"a missing record log causes an error": func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nowhere.zst")
		_, stderr, exitCode := iohook(t, "trace", path)
		assert.Equal(t, exitCode, 1)
		assert.HasPrefix(t, stderr, "ERR: iohook trace: ")
	},

	"passing more than one file causes an error": func(t *testing.T) {
		_, stderr, exitCode := iohook(t, "trace", "a.zst", "b.zst")
		assert.Equal(t, exitCode, 2)
		assert.Equal(t, stderr, "iohook trace: too many arguments\n")
	},
}
