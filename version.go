package main

import (
	"context"
	"fmt"
	"runtime/debug"
)

const versionUsage = `
Usage:	iohook version

   Print the version of iohook, followed by the source revision it was built
   from when it is known.

Options:
   -h, --help  Show this usage information
`

func versionCommand(ctx context.Context, args []string) error {
	flagSet := newFlagSet("iohook version", versionUsage)
	if _, err := parseFlags(flagSet, args); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "iohook %s\n", readBuildInfo())
	return nil
}

// buildInfo identifies the build of iohook. The hook library is built from
// the same module, so both report the same value.
type buildInfo struct {
	version  string
	revision string
	modified bool
}

func readBuildInfo() buildInfo {
	b := buildInfo{version: "devel"}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return b
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		b.version = v
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			b.revision = setting.Value
		case "vcs.modified":
			b.modified = setting.Value == "true"
		}
	}
	return b
}

func (b buildInfo) String() string {
	if b.revision == "" {
		return b.version
	}
	revision := b.revision
	if len(revision) > 12 {
		revision = revision[:12]
	}
	if b.modified {
		revision += "-dirty"
	}
	return b.version + " (" + revision + ")"
}
