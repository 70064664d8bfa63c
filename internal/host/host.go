// Package host applies the iohook configuration to the hook of a process.
package host

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/stealthrocket/iohook/internal/config"
	"github.com/stealthrocket/iohook/internal/iohook"
	"github.com/stealthrocket/iohook/internal/trace"
	"github.com/stealthrocket/iohook/internal/uart"
)

// Host holds the devices and the trace output configured on a hook.
type Host struct {
	UARTs []*uart.UART
	Trace *trace.Handler

	log    *trace.LogWriter
	logger *slog.Logger
}

// Configure registers the UARTs declared in cfg on hook, then the trace
// handler when tracing is enabled. The trace handler is pushed last so it
// records requests before any device serves them.
func Configure(hook *iohook.Hook, cfg *config.Config, logger *slog.Logger) (*Host, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	h := &Host{logger: logger}

	for _, u := range cfg.UARTs {
		port, err := uart.Register(hook, u.Port)
		if err != nil {
			return nil, fmt.Errorf("registering COM%d: %w", u.Port, err)
		}
		if u.Input != "" {
			port.Produce([]byte(u.Input))
		}
		h.UARTs = append(h.UARTs, port)
	}

	if !cfg.Trace.Enable {
		return h, nil
	}

	opts := []trace.Option{
		trace.WithLogger(logger),
		trace.WithRate(cfg.Trace.Rate),
		trace.WithDump(cfg.Trace.Dump),
	}
	if output, ok := cfg.Trace.Output.Value(); ok {
		path, err := output.Resolve()
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0777); err != nil {
			return nil, err
		}
		h.log, err = trace.CreateLog(path)
		if err != nil {
			return nil, err
		}
		opts = append(opts, trace.WithOutput(h.log))
	}

	h.Trace = trace.NewHandler(opts...)
	if err := hook.Push(h.Trace); err != nil {
		h.Close()
		return nil, err
	}
	logger.Info("iohook: tracing", "session", h.Trace.Session().String())
	return h, nil
}

// Flush writes the buffered trace records to the trace output.
func (h *Host) Flush() error {
	if h.log == nil {
		return nil
	}
	return h.log.Flush()
}

// FlushEvery flushes the trace output at each interval until ctx is done.
func (h *Host) FlushEvery(ctx context.Context, interval time.Duration) {
	if h.log == nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := h.Flush(); err != nil {
				h.logger.Warn("iohook: flushing trace", "error", err)
			}
		}
	}
}

// Close flushes and closes the trace output.
func (h *Host) Close() error {
	if h.log == nil {
		return nil
	}
	err := h.log.Close()
	h.log = nil
	return err
}
