package main

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/stealthrocket/iohook/internal/stream"
)

// documentWriter prints each value as one JSON or YAML document, the
// structured forms selected with -o.
type documentWriter[T any] struct {
	encode func(any) error
	end    func() error
	count  int
}

func newDocumentWriter[T any](w io.Writer, format outputFormat) *documentWriter[T] {
	switch format {
	case "json":
		e := json.NewEncoder(w)
		e.SetEscapeHTML(false)
		e.SetIndent("", "  ")
		return &documentWriter[T]{encode: e.Encode}
	case "yaml":
		e := yaml.NewEncoder(w)
		e.SetIndent(2)
		return &documentWriter[T]{encode: e.Encode, end: e.Close}
	default:
		panic("BUG: no document encoding for output format " + format.String())
	}
}

func (w *documentWriter[T]) Write(values []T) (int, error) {
	for i := range values {
		if err := w.encode(values[i]); err != nil {
			return i, err
		}
		w.count++
	}
	return len(values), nil
}

// Close terminates the YAML stream. A stream with no documents is left empty.
func (w *documentWriter[T]) Close() error {
	if w.end == nil || w.count == 0 {
		return nil
	}
	return w.end()
}

var _ stream.WriteCloser[struct{}] = (*documentWriter[struct{}])(nil)
