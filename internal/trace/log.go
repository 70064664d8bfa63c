package trace

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"os"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/stealthrocket/iohook/internal/stream"
)

// LogWriter appends records to a zstd compressed stream of JSON lines.
type LogWriter struct {
	mutex   sync.Mutex
	zstd    *zstd.Encoder
	encoder *json.Encoder
	file    io.Closer
}

// NewLogWriter returns a writer compressing records to w.
func NewLogWriter(w io.Writer) (*LogWriter, error) {
	z, err := zstd.NewWriter(w,
		zstd.WithEncoderConcurrency(1),
		zstd.WithEncoderLevel(zstd.SpeedFastest),
	)
	if err != nil {
		return nil, err
	}
	e := json.NewEncoder(z)
	e.SetEscapeHTML(false)
	return &LogWriter{zstd: z, encoder: e}, nil
}

// CreateLog creates the file at path, truncating it if it exists, and returns
// a writer appending records to it.
func CreateLog(path string) (*LogWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w, err := NewLogWriter(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	w.file = f
	return w, nil
}

func (w *LogWriter) Write(records []Record) (int, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	for n := range records {
		if err := w.encoder.Encode(&records[n]); err != nil {
			return n, err
		}
	}
	return len(records), nil
}

// Flush writes the records buffered so far as a complete zstd block.
func (w *LogWriter) Flush() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.zstd.Flush()
}

func (w *LogWriter) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	err := w.zstd.Close()
	if w.file != nil {
		err = errors.Join(err, w.file.Close())
	}
	return err
}

var _ stream.WriteCloser[Record] = (*LogWriter)(nil)

// LogReader decodes the records written by a LogWriter.
type LogReader struct {
	zstd    *zstd.Decoder
	decoder *json.Decoder
	file    io.Closer
}

// NewLogReader returns a reader decompressing records from r.
func NewLogReader(r io.Reader) (*LogReader, error) {
	z, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, err
	}
	return &LogReader{zstd: z, decoder: json.NewDecoder(bufio.NewReader(z))}, nil
}

// OpenLog opens the record log at path.
func OpenLog(path string) (*LogReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := NewLogReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.file = f
	return r, nil
}

func (r *LogReader) Read(records []Record) (int, error) {
	for n := range records {
		records[n] = Record{}
		if err := r.decoder.Decode(&records[n]); err != nil {
			// Logs of processes which exited without closing them end
			// with a truncated record.
			if errors.Is(err, io.ErrUnexpectedEOF) {
				err = io.EOF
			}
			return n, err
		}
	}
	return len(records), nil
}

func (r *LogReader) Close() error {
	r.zstd.Close()
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

var _ stream.ReadCloser[Record] = (*LogReader)(nil)
