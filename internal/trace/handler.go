package trace

import (
	"context"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/stealthrocket/iohook/internal/iohook"
	"github.com/stealthrocket/iohook/internal/irp"
	"github.com/stealthrocket/iohook/internal/stream"
)

// Handler logs each request on its way back from the rest of the chain. It
// never alters a request or its result.
type Handler struct {
	session uuid.UUID
	seq     atomic.Uint64
	logger  *slog.Logger
	limiter *rate.Limiter
	output  stream.Writer[Record]
	dump    bool
	now     func() time.Time
}

type Option func(*Handler)

// WithLogger sets the logger that requests are reported to.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) { h.logger = logger }
}

// WithRate limits the number of log lines per second. Records are still
// written to the output when lines are dropped. Zero means no limit.
func WithRate(limit float64) Option {
	return func(h *Handler) {
		if limit > 0 {
			h.limiter = rate.NewLimiter(rate.Limit(limit), int(limit)+1)
		} else {
			h.limiter = nil
		}
	}
}

// WithOutput sets the record log each request is appended to.
func WithOutput(w stream.Writer[Record]) Option {
	return func(h *Handler) { h.output = w }
}

// WithDump enables debug level dumps of the complete request.
func WithDump(enable bool) Option {
	return func(h *Handler) { h.dump = enable }
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

// NewHandler returns a handler opening a new trace session.
func NewHandler(opts ...Option) *Handler {
	h := &Handler{
		session: uuid.New(),
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Session identifies the records written by h.
func (h *Handler) Session() uuid.UUID { return h.session }

func (h *Handler) HandleIRP(ctx context.Context, chain *iohook.Chain, r *irp.Request) error {
	// Handlers further down may rewrite the name of the file being opened.
	name := r.OpenName
	start := h.now()
	err := chain.InvokeNext(ctx, r)

	rec := MakeRecord(r, err)
	rec.Name = name
	rec.Session = h.session
	rec.Seq = h.seq.Add(1)
	rec.Time = start
	rec.Duration = h.now().Sub(start)

	if h.limiter == nil || h.limiter.Allow() {
		level := slog.LevelInfo
		if err != nil {
			level = slog.LevelWarn
		}
		h.logger.LogAttrs(ctx, level, "iohook: "+rec.Op,
			slog.Uint64("seq", rec.Seq),
			slog.String("handle", "0x"+strconv.FormatUint(rec.Handle, 16)),
			slog.Int("size", rec.Size),
			slog.Int("transfer", rec.Transfer),
			slog.Duration("duration", rec.Duration),
			slog.Any("error", err),
		)
	}

	if h.dump {
		h.logger.Debug("iohook: request dump", "seq", rec.Seq, "irp", spew.Sdump(r))
	}

	if h.output != nil {
		if _, werr := h.output.Write([]Record{rec}); werr != nil {
			h.logger.Warn("iohook: writing trace record", "seq", rec.Seq, "error", werr)
		}
	}
	return err
}

var _ iohook.Handler = (*Handler)(nil)
