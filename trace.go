package main

import (
	"context"
	"errors"
	"io"

	"golang.org/x/exp/slices"

	"github.com/stealthrocket/iohook/internal/config"
	"github.com/stealthrocket/iohook/internal/print/human"
	"github.com/stealthrocket/iohook/internal/print/textprint"
	"github.com/stealthrocket/iohook/internal/stream"
	"github.com/stealthrocket/iohook/internal/trace"
)

const traceUsage = `
Usage:	iohook trace [options] [file]

   Print the requests recorded by the trace handler of the hook library.
   Without a file argument, the record log configured as the trace output is
   read.

Options:
   -c, --config path    Path to the iohook configuration file (overrides IOHOOKCONFIG)
   -h, --help           Show usage information
       --op name        Only show requests of this operation (e.g. Read), may be repeated
   -o, --output format  Output format, one of: text, json, yaml
`

func traceCommand(ctx context.Context, args []string) error {
	var (
		ops    stringList
		output = outputFormat("text")
	)

	flagSet := newFlagSet("iohook trace", traceUsage)
	customVar(flagSet, &ops, "op")
	customVar(flagSet, &output, "o", "output")

	args, err := parseFlags(flagSet, args)
	if err != nil {
		return err
	}

	var location human.Path
	switch len(args) {
	case 0:
		c, err := config.Load()
		if err != nil {
			return err
		}
		path, ok := c.Trace.Output.Value()
		if !ok {
			return usageError("iohook trace: no file given and the trace output is disabled")
		}
		location = path
	case 1:
		location = human.Path(args[0])
	default:
		return usageError("iohook trace: too many arguments")
	}

	path, err := location.Resolve()
	if err != nil {
		return err
	}
	r, err := trace.OpenLog(path)
	if err != nil {
		return err
	}
	defer r.Close()

	records := stream.Reader[trace.Record](r)
	if len(ops) > 0 {
		records = &opFilter{base: records, ops: ops}
	}

	if output == "text" {
		table := textprint.NewTableWriter[trace.Row](stdout)
		return printRecords[trace.Row](table, trace.NewRowReader(records))
	}
	return printRecords[trace.Record](newDocumentWriter[trace.Record](stdout, output), records)
}

func printRecords[T any](w stream.WriteCloser[T], r stream.Reader[T]) error {
	_, err := stream.Copy[T](w, r)
	return errors.Join(err, w.Close())
}

type opFilter struct {
	base stream.Reader[trace.Record]
	ops  []string
}

func (f *opFilter) Read(records []trace.Record) (int, error) {
	for {
		n, err := f.base.Read(records)
		i := 0
		for _, rec := range records[:n] {
			if slices.Contains(f.ops, rec.Op) {
				records[i] = rec
				i++
			}
		}
		if i > 0 || err != nil {
			if err == io.EOF && i > 0 {
				err = nil
			}
			return i, err
		}
	}
}
