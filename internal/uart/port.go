package uart

import (
	"context"

	"github.com/stealthrocket/iohook/internal/iohook"
	"github.com/stealthrocket/iohook/internal/irp"
)

// Port is the chain handler of a UART. Requests not addressed to the UART
// are forwarded.
type Port struct {
	*UART
}

func (p Port) HandleIRP(ctx context.Context, chain *iohook.Chain, r *irp.Request) error {
	if !p.Match(r) {
		return chain.InvokeNext(ctx, r)
	}
	return p.UART.HandleIRP(ctx, chain, r)
}

// Register creates a UART for port and pushes its handler on the hook.
func Register(hook *iohook.Hook, port int) (*UART, error) {
	u := New(hook, port)
	if err := hook.Push(Port{u}); err != nil {
		return nil, err
	}
	u.logger.Info("uart: registered")
	return u, nil
}
