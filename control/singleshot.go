package control

import (
	"context"
	"fmt"

	"github.com/neilo40/usbtmc/session"
	"github.com/neilo40/usbtmc/transport"
)

// Capabilities is the four-byte GET_CAPABILITIES record, returned
// verbatim from the device's response at offsets 4, 5, 14, 15
// (spec.md §3).
type Capabilities struct {
	InterfaceCaps      byte
	DeviceCaps         byte
	USB488InterfaceCaps byte
	USB488DeviceCaps    byte
}

// GetCapabilities implements the GET_CAPABILITIES single-shot request
// (spec.md §4.6).
func GetCapabilities(ctx context.Context, t transport.EndpointIO, s *session.Session) (Capabilities, error) {
	resp := make([]byte, 0x18)
	_, err := t.Control(ctx,
		transport.DirIn|transport.TypeClass|transport.RecipInterface,
		reqGetCapabilities,
		0, 0,
		resp, s.Timeout)
	if err != nil {
		return Capabilities{}, fmt.Errorf("control: GetCapabilities: %w", err)
	}
	if resp[0] != StatusSuccess {
		return Capabilities{}, statusError("GetCapabilities", resp[0])
	}
	return Capabilities{
		InterfaceCaps:       resp[4],
		DeviceCaps:          resp[5],
		USB488InterfaceCaps: resp[14],
		USB488DeviceCaps:    resp[15],
	}, nil
}

// IndicatorPulse implements the INDICATOR_PULSE single-shot request:
// it pulses the device's activity indicator for identification
// (spec.md §4.6). Support is optional; check Capabilities first.
func IndicatorPulse(ctx context.Context, t transport.EndpointIO, s *session.Session) error {
	resp := make([]byte, 1)
	_, err := t.Control(ctx,
		transport.DirIn|transport.TypeClass|transport.RecipInterface,
		reqIndicatorPulse,
		0, 0,
		resp, s.Timeout)
	if err != nil {
		return fmt.Errorf("control: IndicatorPulse: %w", err)
	}
	if resp[0] != StatusSuccess {
		return statusError("IndicatorPulse", resp[0])
	}
	return nil
}

// ClearOutHalt and ClearInHalt issue a standard CLEAR_FEATURE against
// the bulk OUT/IN endpoint respectively. Unlike AbortBulkIn, this
// skips the USBTMC abort dialog entirely; spec.md §4.6 notes
// ABORT_BULK_IN is usually the better choice for a stuck read.
func ClearOutHalt(ctx context.Context, t transport.EndpointIO, s *session.Session) error {
	if err := t.ClearHalt(ctx, s.BulkOutAddr, s.Timeout); err != nil {
		return fmt.Errorf("control: ClearOutHalt: %w", err)
	}
	return nil
}

func ClearInHalt(ctx context.Context, t transport.EndpointIO, s *session.Session) error {
	if err := t.ClearHalt(ctx, s.BulkInAddr, s.Timeout); err != nil {
		return fmt.Errorf("control: ClearInHalt: %w", err)
	}
	return nil
}

// ResetConfiguration re-applies the device's active USB configuration.
func ResetConfiguration(ctx context.Context, t transport.EndpointIO) error {
	if err := t.ResetConfiguration(ctx); err != nil {
		return fmt.Errorf("control: ResetConfiguration: %w", err)
	}
	return nil
}
