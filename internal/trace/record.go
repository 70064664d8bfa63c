// Package trace implements a chain handler logging every request that passes
// through it, and the compressed record log it can write to.
package trace

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/stealthrocket/iohook/internal/irp"
	"github.com/stealthrocket/iohook/internal/stream"
	"github.com/stealthrocket/iohook/internal/win32"
)

// Record describes one request after the rest of the chain serviced it.
type Record struct {
	Session  uuid.UUID     `json:"session" yaml:"session"`
	Seq      uint64        `json:"seq" yaml:"seq"`
	Time     time.Time     `json:"time" yaml:"time"`
	Duration time.Duration `json:"duration" yaml:"duration"`
	Op       string        `json:"op" yaml:"op"`
	Handle   uint64        `json:"handle" yaml:"handle"`
	Name     string        `json:"name,omitempty" yaml:"name,omitempty"`
	Ioctl    uint32        `json:"ioctl,omitempty" yaml:"ioctl,omitempty"`
	Size     int           `json:"size" yaml:"size"`
	Transfer int           `json:"transfer" yaml:"transfer"`
	Errno    uint32        `json:"errno,omitempty" yaml:"errno,omitempty"`
	Error    string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// MakeRecord captures the state of r once it returned from the chain with
// err.
func MakeRecord(r *irp.Request, err error) Record {
	rec := Record{
		Op:     r.Op.String(),
		Handle: uint64(r.Handle),
		Name:   r.OpenName,
	}
	switch r.Op {
	case irp.Read, irp.RecvFrom, irp.GetSockOpt, irp.GetSockName, irp.GetPeerName:
		rec.Size, rec.Transfer = len(r.Read.Bytes), r.Read.Pos
	case irp.Write, irp.SendTo, irp.SetSockOpt:
		rec.Size, rec.Transfer = len(r.Write.Bytes), r.Write.Pos
	case irp.Ioctl:
		rec.Ioctl = r.Ioctl
		rec.Size, rec.Transfer = len(r.Write.Bytes), r.Read.Pos
	case irp.Accept:
		rec.Transfer = int(r.Accepted)
	}
	if err != nil {
		rec.Errno = uint32(win32.ErrnoOf(err))
		rec.Error = err.Error()
	}
	return rec
}

// Row is the tabular rendition of a record.
type Row struct {
	Seq      uint64        `text:"SEQ"`
	Time     string        `text:"TIME"`
	Duration time.Duration `text:"DURATION"`
	Op       string        `text:"OPERATION"`
	Handle   string        `text:"HANDLE"`
	Transfer string        `text:"TRANSFER"`
	Result   string        `text:"RESULT"`
}

// MakeRow formats rec for display in a table.
func MakeRow(rec Record) Row {
	row := Row{
		Seq:      rec.Seq,
		Time:     rec.Time.Format(time.StampMicro),
		Duration: rec.Duration,
		Op:       rec.Op,
		Handle:   "0x" + strconv.FormatUint(rec.Handle, 16),
		Transfer: strconv.Itoa(rec.Transfer) + "/" + strconv.Itoa(rec.Size),
		Result:   "OK",
	}
	if rec.Error != "" {
		row.Result = rec.Error
	}
	return row
}

// RowReader formats the records of a stream as table rows.
type RowReader struct {
	records stream.Reader[Record]
	buffer  []Record
}

// NewRowReader returns a reader of the rows of the records read from r.
func NewRowReader(r stream.Reader[Record]) *RowReader {
	return &RowReader{records: r}
}

func (r *RowReader) Read(rows []Row) (int, error) {
	if cap(r.buffer) < len(rows) {
		r.buffer = make([]Record, len(rows))
	}
	n, err := r.records.Read(r.buffer[:len(rows)])
	for i, rec := range r.buffer[:n] {
		rows[i] = MakeRow(rec)
	}
	return n, err
}
