package control

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/neilo40/usbtmc/session"
	"github.com/neilo40/usbtmc/transport"
)

// AbortBulkOut implements USBTMC §4.2.1.2: abort the last bulk OUT
// transfer and restore synchronization (spec.md §4.6).
//
// States: initiating -> polling -> clearingHalt -> done, or failed at
// any transition on an unexpected status byte or a control-transfer
// error.
func AbortBulkOut(ctx context.Context, t transport.EndpointIO, s *session.Session) error {
	// initiating
	resp := make([]byte, 2)
	_, err := t.Control(ctx,
		transport.DirIn|transport.TypeClass|transport.RecipEndpoint,
		reqInitiateAbortBulkOut,
		uint16(s.LastOutBTag), uint16(s.BulkOutAddr),
		resp, s.Timeout)
	if err != nil {
		return fmt.Errorf("control: AbortBulkOut: initiate: %w", err)
	}
	if resp[0] != StatusSuccess {
		return statusError("AbortBulkOut.initiate", resp[0])
	}

	// polling
	check := make([]byte, 8)
	for n := 0; n < MaxReadsToClearBulkIn; n++ {
		_, err := t.Control(ctx,
			transport.DirIn|transport.TypeClass|transport.RecipEndpoint,
			reqCheckAbortBulkOutStatus,
			0, uint16(s.BulkOutAddr),
			check, s.Timeout)
		if err != nil {
			return fmt.Errorf("control: AbortBulkOut: check status: %w", err)
		}
		switch check[0] {
		case StatusSuccess:
			goto clearingHalt
		case StatusPending:
			slog.Default().Debug("abort bulk out pending", "iteration", n)
			continue
		default:
			return statusError("AbortBulkOut.check", check[0])
		}
	}
	return overrunError("AbortBulkOut.check")

clearingHalt:
	if err := t.ClearHalt(ctx, s.BulkOutAddr, s.Timeout); err != nil {
		return fmt.Errorf("control: AbortBulkOut: clear halt: %w", err)
	}
	return nil
}

// AbortBulkIn implements USBTMC §4.2.1.4: abort the last bulk IN
// transfer and restore synchronization (spec.md §4.6).
//
// States: initiating -> (done if FAILED means FIFO already empty) ->
// draining -> polling -> draining (if PENDING with data) -> done, or
// failed.
func AbortBulkIn(ctx context.Context, t transport.EndpointIO, s *session.Session) error {
	// initiating
	resp := make([]byte, 2)
	_, err := t.Control(ctx,
		transport.DirIn|transport.TypeClass|transport.RecipEndpoint,
		reqInitiateAbortBulkIn,
		uint16(s.LastInBTag), uint16(s.BulkInAddr),
		resp, s.Timeout)
	if err != nil {
		return fmt.Errorf("control: AbortBulkIn: initiate: %w", err)
	}
	if resp[0] == StatusFailed {
		// No transfer in progress and the bulk IN FIFO is already
		// empty: nothing more to do.
		return nil
	}
	if resp[0] != StatusSuccess {
		return statusError("AbortBulkIn.initiate", resp[0])
	}

	// draining (initial, unconditional per spec.md §4.6 step 2)
	if err := drainBulkIn(ctx, t, s); err != nil {
		return fmt.Errorf("control: AbortBulkIn: %w", err)
	}

	// polling, with further draining whenever the device reports data
	// pending (bmAbortBulkIn bit 0).
	check := make([]byte, 8)
	for {
		_, err := t.Control(ctx,
			transport.DirIn|transport.TypeClass|transport.RecipEndpoint,
			reqCheckAbortBulkInStatus,
			0, uint16(s.BulkInAddr),
			check, s.Timeout)
		if err != nil {
			return fmt.Errorf("control: AbortBulkIn: check status: %w", err)
		}
		switch check[0] {
		case StatusSuccess:
			return nil
		case StatusPending:
			if check[1]&1 == 1 {
				if err := drainBulkIn(ctx, t, s); err != nil {
					return fmt.Errorf("control: AbortBulkIn: %w", err)
				}
			}
			continue
		default:
			return statusError("AbortBulkIn.check", check[0])
		}
	}
}
