// Package transport implements the USBTMC endpoint I/O facade
// (spec.md §4.3): a narrow synchronous interface over the host USB
// stack that every other layer of the driver uses exclusively. The
// real implementation wraps github.com/google/gousb; Fake backs the
// engine and control package tests without a live device.
package transport

import (
	"context"
	"time"
)

// EndpointIO is the facade every component above it is restricted to.
// Errors propagate the underlying stack's error unchanged.
type EndpointIO interface {
	// BulkOut submits buf to the OUT bulk endpoint and returns the
	// number of bytes actually transferred.
	BulkOut(ctx context.Context, buf []byte, timeout time.Duration) (int, error)
	// BulkIn reads up to len(buf) bytes from the IN bulk endpoint.
	BulkIn(ctx context.Context, buf []byte, timeout time.Duration) (int, error)
	// Control issues a control transfer. reqType is the raw
	// bmRequestType byte (direction | type | recipient).
	Control(ctx context.Context, reqType, request uint8, value, index uint16, data []byte, timeout time.Duration) (int, error)
	// ClearHalt issues a standard CLEAR_FEATURE/ENDPOINT_HALT against
	// endpoint ep.
	ClearHalt(ctx context.Context, ep uint8, timeout time.Duration) error
	// ResetConfiguration re-applies the device's active configuration.
	ResetConfiguration(ctx context.Context) error

	// BulkInAddr and BulkOutAddr report the endpoint addresses
	// resolved at open time, and BulkInMaxPacket their wMaxPacketSize.
	BulkInAddr() uint8
	BulkOutAddr() uint8
	BulkInMaxPacket() int

	// Manufacturer, Product and SerialNumber read the device's string
	// descriptors (used by the enumeration table and INSTRUMENT_DATA).
	Manufacturer() string
	Product() string
	SerialNumber() string

	// Close releases the underlying device handle.
	Close() error
}

// Control request-type bit layout (USB 2.0 spec table 9-2), used by
// callers that build bmRequestType by hand.
const (
	DirOut = 0x00
	DirIn  = 0x80

	TypeStandard = 0x00
	TypeClass    = 0x20
	TypeVendor   = 0x40

	RecipDevice    = 0x00
	RecipInterface = 0x01
	RecipEndpoint  = 0x02
)
