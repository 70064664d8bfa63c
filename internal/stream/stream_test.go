package stream_test

import (
	"testing"

	"github.com/stealthrocket/iohook/internal/assert"
	"github.com/stealthrocket/iohook/internal/stream"
)

func TestReadAll(t *testing.T) {
	values := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	reader := stream.NewReader(values...)

	read, err := stream.ReadAll(reader)
	assert.OK(t, err)
	assert.EqualAll(t, read, values)
}

type sliceWriter[T any] struct{ values []T }

func (w *sliceWriter[T]) Write(values []T) (int, error) {
	w.values = append(w.values, values...)
	return len(values), nil
}

func TestCopy(t *testing.T) {
	values := make([]int, 200)
	for i := range values {
		values[i] = i
	}
	w := new(sliceWriter[int])

	n, err := stream.Copy[int](w, stream.NewReader(values...))
	assert.OK(t, err)
	assert.Equal(t, n, int64(len(values)))
	assert.EqualAll(t, w.values, values)
}
