// Package usbtmc implements a host-side driver for USB Test and
// Measurement Class (USBTMC) instruments: oscilloscopes, signal
// generators, multimeters and other SCPI-speaking gear that expose a
// USBTMC interface (bInterfaceClass 0xFE, bInterfaceSubClass 0x03).
//
// An Instrument exchanges opaque command/response byte messages with
// the device over two bulk endpoints, framed per USBTMC 1.0 section 3,
// and exposes the section 4.2.1 control dialogs (abort, clear,
// capabilities, indicator pulse) as synchronous Go calls. See
// session, wire, transport, engine and control for the pieces that
// make that up.
package usbtmc

import (
	"time"

	"github.com/neilo40/usbtmc/session"
)

// USBTMC class/subclass used to match candidate interfaces.
const (
	InterfaceClass    = 0xFE
	InterfaceSubClass = 0x03
)

// USBTMC bulk message IDs (spec.md §4.1). The IN request (sent as an
// OUT packet) and the IN message it provokes share MsgID 2.
const (
	msgDevDepMsgOut       = 1
	msgRequestDevDepMsgIn = 2
)

// Configuration constants (spec.md §6).
const (
	// IOBuffer is the size of each session's scratch I/O buffer: one
	// framed bulk chunk including its 12-byte header.
	IOBuffer = 2048

	// MinorNumbers bounds the registry's attach capacity, mirroring
	// the kernel driver's static usbtmc_minors[USBTMC_MINOR_NUMBERS].
	MinorNumbers = 256

	// DefaultTimeout is the per-call timeout used for a freshly opened
	// session until changed via SET_ATTRIBUTE(TIMEOUT, ...).
	DefaultTimeout = 5 * time.Second

	// MaxReadsToClearBulkIn bounds the drain loops in the abort and
	// clear state machines (spec.md §4.6).
	MaxReadsToClearBulkIn = 10

	// driverVersion is VERSION in integer form: 110 means "1.1".
	driverVersion = 110
)

// ReadMode selects the EOF emulation behavior of Read (spec.md §4.4b,
// §4.7). It is an alias for session.ReadMode so callers never need to
// import the session package themselves.
type ReadMode = session.ReadMode

const (
	ReadModeFREAD = session.ReadModeFREAD
	ReadModeREAD  = session.ReadModeREAD
)
