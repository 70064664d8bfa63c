package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/stealthrocket/iohook/internal/inject"
)

const helpUsage = `
Usage:	iohook <command> [options]

Hooking Commands:
   inject   Start a program with hook libraries loaded into it

Inspection Commands:
   config   View or edit the iohook configuration
   trace    Print the requests recorded by the hook library

Other Commands:
   help     Show usage information about iohook commands
   version  Show the iohook version information

Global Options:
   -c, --config path  Path to the iohook configuration file (overrides IOHOOKCONFIG)
   -h, --help         Show usage information
   -v, --verbose      Log debug messages to stderr

For a description of each command, run 'iohook help <command>'.`

func helpCommand(ctx context.Context, args []string) error {
	flagSet := newFlagSet("iohook help", helpUsage)
	args, err := parseFlags(flagSet, args)
	if err != nil {
		return err
	}

	var cmd string
	var msg string

	if len(args) > 0 {
		cmd = args[0]
	}

	switch cmd {
	case "config":
		msg = configUsage
	case "help", "":
		msg = helpUsage
	case "inject":
		msg = inject.Usage
	case "trace":
		msg = traceUsage
	case "version":
		msg = versionUsage
	default:
		return usageError("iohook help %s: unknown command", cmd)
	}

	fmt.Fprintln(stdout, strings.TrimSpace(msg))
	return nil
}
