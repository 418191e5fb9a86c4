package control

import (
	"context"
	"fmt"

	"github.com/neilo40/usbtmc/session"
	"github.com/neilo40/usbtmc/transport"
)

// Clear implements USBTMC §4.2.1.6: clear the device's input and
// output buffers (spec.md §4.6).
//
// States: initiating -> polling -> draining (if pending with data) ->
// polling -> clearingHalt -> done, or failed.
func Clear(ctx context.Context, t transport.EndpointIO, s *session.Session) error {
	// initiating
	resp := make([]byte, 1)
	_, err := t.Control(ctx,
		transport.DirIn|transport.TypeClass|transport.RecipInterface,
		reqInitiateClear,
		0, 0,
		resp, s.Timeout)
	if err != nil {
		return fmt.Errorf("control: Clear: initiate: %w", err)
	}
	if resp[0] != StatusSuccess {
		return statusError("Clear.initiate", resp[0])
	}

	// polling, draining whenever bmClear bit 0 indicates queued data
	check := make([]byte, 2)
	for {
		_, err := t.Control(ctx,
			transport.DirIn|transport.TypeClass|transport.RecipInterface,
			reqCheckClearStatus,
			0, 0,
			check, s.Timeout)
		if err != nil {
			return fmt.Errorf("control: Clear: check status: %w", err)
		}
		switch check[0] {
		case StatusSuccess:
			goto clearingHalt
		case StatusPending:
			if check[1]&1 == 1 {
				if err := drainBulkIn(ctx, t, s); err != nil {
					return fmt.Errorf("control: Clear: %w", err)
				}
			}
			continue
		default:
			return statusError("Clear.check", check[0])
		}
	}

clearingHalt:
	if err := t.ClearHalt(ctx, s.BulkOutAddr, s.Timeout); err != nil {
		return fmt.Errorf("control: Clear: clear halt: %w", err)
	}
	return nil
}
