package usbtmc

import (
	"errors"
	"fmt"
)

// Kind classifies a driver error the way spec.md §7 defines it, so
// callers can branch on failure class without parsing strings.
type Kind int

const (
	// KindTransport means the underlying bulk or control call failed:
	// timeout, stall, disconnect. The error is surfaced unchanged from
	// the transport; auto-abort may have run as a side effect.
	KindTransport Kind = iota
	// KindProtocol means the device returned a non-SUCCESS status byte
	// outside the expected polling states, or a drain loop exceeded
	// MaxReadsToClearBulkIn.
	KindProtocol
	// KindInvalidArgument means an unknown attribute id, an
	// out-of-range value, a write to a read-only attribute, a minor
	// number referring to no attached instrument, or an unknown
	// control request.
	KindInvalidArgument
	// KindNotSupported means a Seek call.
	KindNotSupported
	// KindNotPermitted means a write to the enumeration session's
	// minor number (distinct from KindNotSupported per spec.md §6,
	// which reserves NOT_SUPPORTED for Seek).
	KindNotPermitted
	// KindAddressing means the caller's buffer could not be staged —
	// there is no direct analogue of kernel copy_to_user/copy_from_user
	// faults in this host-process driver; the kind is kept for API
	// parity with spec.md §7 and no operation in this module returns
	// it.
	KindAddressing
	// KindResource means allocation failed or there was no free
	// session slot on attach.
	KindResource
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "TRANSPORT"
	case KindProtocol:
		return "PROTOCOL"
	case KindInvalidArgument:
		return "INVALID_ARGUMENT"
	case KindNotSupported:
		return "NOT_SUPPORTED"
	case KindNotPermitted:
		return "NOT_PERMITTED"
	case KindAddressing:
		return "ADDRESSING"
	case KindResource:
		return "RESOURCE"
	default:
		return "UNKNOWN"
	}
}

// Error is the typed error value returned by driver operations. It
// wraps an underlying cause (often a *gousb transport error) with the
// Kind spec.md §7 assigns it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("usbtmc: %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("usbtmc: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(op string, kind Kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// ErrNotSupported is returned by Seek (spec.md §6). Writes to the
// enumeration session fail with KindNotPermitted instead.
var ErrNotSupported = &Error{Op: "seek", Kind: KindNotSupported}

// KindOf reports the Kind of err if it (or something it wraps) is a
// *Error, and false otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
