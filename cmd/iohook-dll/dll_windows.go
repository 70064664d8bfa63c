//go:build windows && (amd64 || arm64)

package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sys/windows"

	"github.com/stealthrocket/iohook/internal/config"
	"github.com/stealthrocket/iohook/internal/hooktable"
	"github.com/stealthrocket/iohook/internal/host"
	"github.com/stealthrocket/iohook/internal/iohook"
	"github.com/stealthrocket/iohook/internal/realio"
	"github.com/stealthrocket/iohook/internal/serial"
	"github.com/stealthrocket/iohook/internal/shim"
	"github.com/stealthrocket/iohook/internal/win32"
)

// debugOutput sends each log line to the debugger of the process, which is
// where iohook inject -d collects them.
type debugOutput struct{}

func (debugOutput) Write(b []byte) (int, error) {
	s, err := windows.UTF16PtrFromString(strings.ReplaceAll(string(b), "\x00", ""))
	if err != nil {
		return 0, err
	}
	windows.OutputDebugString(s)
	return len(b), nil
}

func init() {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewTextHandler(debugOutput{}, nil)).Error("iohook: loading configuration", "error", err)
		return
	}

	level := slog.LevelInfo
	if cfg.Trace.Dump {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(debugOutput{}, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := setup(cfg, logger); err != nil {
		logger.Error("iohook: installing hooks", "error", err)
	}
}

func setup(cfg *config.Config, logger *slog.Logger) error {
	platform := win32.System{}
	bindings := new(realio.Bindings)
	backend := realio.NewBackend(bindings, platform)

	hook := iohook.Default()
	kernel32 := shim.NewKernel32(hook, platform)
	winsock := shim.NewWinsock(hook, platform, backend)
	comm := serial.New(hook, platform)
	patches := shim.NewPatches(kernel32, winsock, comm)

	// The chain is complete before any entry point is redirected to it.
	hook.Init(backend)
	h, err := host.Configure(hook, cfg, logger)
	if err != nil {
		return err
	}

	installer := hooktable.IAT{Logger: logger}
	if err := shim.Install(installer, hooktable.Procs{}, bindings, patches, cfg.Sockets); err != nil {
		return err
	}
	if err := shim.InstallSerial(installer, patches); err != nil {
		return err
	}
	// The trace is never closed, buffered records are flushed periodically.
	go h.FlushEvery(context.Background(), time.Second)
	return nil
}
