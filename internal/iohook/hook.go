package iohook

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/stealthrocket/iohook/internal/irp"
)

// Hook is the process-wide interception context. It owns the handler chain
// and is initialized once; it is never torn down.
type Hook struct {
	chain  Chain
	once   sync.Once
	ready  atomic.Bool
	logger *slog.Logger
}

// Option configures a Hook.
type Option func(*Hook)

// WithLogger sets the logger used to report chain changes.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Hook) { h.logger = logger }
}

// New constructs a hook with an empty chain. Most programs use Default.
func New(opts ...Option) *Hook {
	h := &Hook{logger: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

var (
	defaultHook *Hook
	defaultOnce sync.Once
)

// Default returns the hook shared by the whole process, constructing it on
// first use.
func Default() *Hook {
	defaultOnce.Do(func() { defaultHook = New() })
	return defaultHook
}

// Init installs the terminal handler forwarding requests to backend at the
// end of the chain. Handlers pushed before Init stay in front of it. Only the
// first call has an effect.
func (h *Hook) Init(backend Backend) {
	h.once.Do(func() {
		h.chain.terminate(Terminal{Backend: backend})
		h.ready.Store(true)
		h.logger.Debug("iohook: chain initialized")
	})
}

// Ready reports whether Init was called.
func (h *Hook) Ready() bool { return h.ready.Load() }

// Push prepends handler so it sees requests before every handler already on
// the chain.
func (h *Hook) Push(handler Handler) error {
	if err := h.chain.Push(handler); err != nil {
		return err
	}
	h.logger.Debug("iohook: handler pushed", "handlers", h.chain.Len())
	return nil
}

// Chain returns the chain owned by h.
func (h *Hook) Chain() *Chain { return &h.chain }

// InvokeNext forwards r to the next handler of the chain.
func (h *Hook) InvokeNext(ctx context.Context, r *irp.Request) error {
	if !h.ready.Load() {
		panic("BUG: request " + r.Op.String() + " dispatched before the hook was initialized")
	}
	return h.chain.InvokeNext(ctx, r)
}
