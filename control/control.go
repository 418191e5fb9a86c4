// Package control implements the USBTMC synchronous control-request
// state machines: ABORT_BULK_OUT, ABORT_BULK_IN and CLEAR (USBTMC 1.0
// §4.2.1), plus the single-shot helpers GET_CAPABILITIES,
// INDICATOR_PULSE, CLEAR_FEATURE-halt and RESET_CONFIGURATION
// (spec.md §4.6).
//
// Each state machine is modeled explicitly per spec.md §9's redesign
// note: states {initiating, polling, draining, clearingHalt, done,
// failed}, one function per procedure, so the iteration cap and the
// PENDING-with-data branch are testable against a fake transport
// without a live instrument.
package control

import (
	"context"
	"fmt"

	"github.com/neilo40/usbtmc/session"
	"github.com/neilo40/usbtmc/transport"
)

// Status byte values (spec.md §6).
const (
	StatusSuccess = 0x01
	StatusPending = 0x02
	StatusFailed  = 0x81
)

// Control request codes (spec.md §6).
const (
	reqInitiateAbortBulkOut    = 0x01
	reqCheckAbortBulkOutStatus = 0x02
	reqInitiateAbortBulkIn     = 0x03
	reqCheckAbortBulkInStatus  = 0x04
	reqInitiateClear           = 0x05
	reqCheckClearStatus        = 0x06
	reqGetCapabilities         = 0x07
	reqIndicatorPulse          = 0x40
)

// MaxReadsToClearBulkIn bounds the drain loop below and the
// AbortBulkOut status-polling loop (spec.md §4.6).
const MaxReadsToClearBulkIn = 10

// ProtocolError reports a device status byte that fell outside the
// expected success/pending polling states, or a drain or AbortBulkOut
// polling loop that overran MaxReadsToClearBulkIn (spec.md §7: both
// are KindProtocol).
type ProtocolError struct {
	Op     string
	Status byte
	// HasStatus is false for a loop overrun, which has no associated
	// status byte.
	HasStatus bool
}

func (e *ProtocolError) Error() string {
	if !e.HasStatus {
		return fmt.Sprintf("control: %s: exceeded %d read attempts clearing bulk in", e.Op, MaxReadsToClearBulkIn)
	}
	return fmt.Sprintf("control: %s: unexpected status 0x%02x", e.Op, e.Status)
}

func statusError(op string, status byte) *ProtocolError {
	return &ProtocolError{Op: op, Status: status, HasStatus: true}
}

func overrunError(op string) *ProtocolError {
	return &ProtocolError{Op: op}
}

// drainBulkIn repeatedly reads up to IOBuffer bytes from the IN
// endpoint until a short packet (actual < wMaxPacketSize) appears or
// the iteration cap is hit, as used by both the abort-in and clear
// state machines to flush queued device data (spec.md §4.6 steps 2/3).
func drainBulkIn(ctx context.Context, t transport.EndpointIO, s *session.Session) error {
	maxSize := t.BulkInMaxPacket()
	if maxSize <= 0 {
		return fmt.Errorf("control: drainBulkIn: unknown wMaxPacketSize")
	}
	for n := 0; n < MaxReadsToClearBulkIn; n++ {
		actual, err := t.BulkIn(ctx, s.IOBuffer, s.Timeout)
		if err != nil {
			return fmt.Errorf("control: drainBulkIn: %w", err)
		}
		if actual < maxSize {
			return nil
		}
	}
	return overrunError("drainBulkIn")
}
