package main

import (
	"context"
)

const unknownCommandUsage = `iohook %s: unknown command
For a list of commands available, run 'iohook help'.`

func unknownCommand(ctx context.Context, cmd string) error {
	return usageError(unknownCommandUsage, cmd)
}
