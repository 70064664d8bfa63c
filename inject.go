package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/stealthrocket/iohook/internal/inject"
)

// injectCommand does not share the option parser of the other commands: every
// argument following the program name belongs to the program.
func injectCommand(ctx context.Context, args []string) error {
	opts, err := inject.Parse(args)
	if err != nil || opts.Help {
		fmt.Fprintln(stdout, strings.TrimSpace(inject.Usage))
		return exitCode(1)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	return inject.Run(ctx, opts, stdout)
}
