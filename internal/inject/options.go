// Package inject launches a program with hook libraries loaded into it
// before its first instruction runs.
package inject

import (
	"errors"
	"strings"
)

// ErrUsage is returned when the command line cannot be parsed.
var ErrUsage = errors.New("invalid command line")

const Usage = `Usage:	iohook inject [options] program args...

All options must precede the program name.

Options:
   -h       Print this message
   -d       Attach to the target as a debugger and print its debug messages
   -p       Pause the target until a debugger attaches to it (not with -d)
   -w       Wait for the target to terminate (not with -d)
   -k dll   Load the named library into the target, may be repeated
`

// Options is the parsed injector command line.
type Options struct {
	Help  bool
	Debug bool
	Pause bool
	Wait  bool
	// Libraries are loaded in command line order.
	Libraries []string
	// Target holds the program name followed by its arguments.
	Target []string
}

// Parse parses the injector arguments, excluding the name of the injector
// itself. Options are recognized by their second character only, as long as
// they precede the program name.
func Parse(args []string) (*Options, error) {
	opts := new(Options)
	i := 0
	for ; i < len(args) && strings.HasPrefix(args[i], "-"); i++ {
		arg := args[i]
		if len(arg) < 2 {
			return nil, ErrUsage
		}
		switch arg[1] {
		case 'h':
			opts.Help = true
		case 'd':
			if opts.Pause || opts.Wait {
				return nil, ErrUsage
			}
			opts.Debug = true
		case 'p':
			if opts.Debug {
				return nil, ErrUsage
			}
			opts.Pause = true
		case 'w':
			if opts.Debug {
				return nil, ErrUsage
			}
			opts.Wait = true
		case 'k':
			if i+1 >= len(args) {
				return nil, ErrUsage
			}
			i++
			opts.Libraries = append(opts.Libraries, args[i])
		default:
			return nil, ErrUsage
		}
	}
	if i == len(args) {
		return nil, ErrUsage
	}
	opts.Target = args[i:]
	return opts, nil
}

// CommandLine renders the target as a single command line, each argument
// surrounded by double quotes. Quotes inside arguments are not escaped.
func (o *Options) CommandLine() string {
	b := new(strings.Builder)
	for i, arg := range o.Target {
		if i != 0 {
			b.WriteByte(' ')
		}
		b.WriteByte('"')
		b.WriteString(arg)
		b.WriteByte('"')
	}
	return b.String()
}
