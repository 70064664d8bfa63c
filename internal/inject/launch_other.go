//go:build !(windows && (amd64 || arm64))

package inject

import (
	"context"
	"errors"
	"io"
)

// Run is only available on 64 bit Windows.
func Run(ctx context.Context, opts *Options, stdout io.Writer) error {
	return errors.New("launching a target is not supported on this platform")
}
