package transport

import (
	"context"
	"errors"
	"time"
)

// Fake is an in-memory EndpointIO for testing the engine and control
// packages without a live device. Behaviour is scripted through the
// optional *Fn fields below; BulkOut, BulkIn and Control return
// ErrExhausted when their function is unset.
type Fake struct {
	InAddr      uint8
	OutAddr     uint8
	MaxPacket   int
	Mfr, Prod   string
	Serial      string

	// BulkOutFn, BulkInFn, ControlFn and ClearHaltFn, when set,
	// override the corresponding call entirely — tests use these to
	// script failures, partial transfers and multi-round control
	// dialogs without hand-rolling a queue.
	BulkOutFn      func(buf []byte) (int, error)
	BulkInFn       func(buf []byte) (int, error)
	ControlFn      func(reqType, request uint8, value, index uint16, data []byte) (int, error)
	ClearHaltFn    func(ep uint8) error
	ResetConfigFn  func() error

	// Calls records every invocation made through this fake, for
	// assertions about call order (e.g. abort-before-return).
	Calls []string

	Closed bool
}

// ErrExhausted is returned when BulkOut, BulkIn or Control is invoked
// without a scripted handler. ClearHalt and ResetConfiguration
// succeed when unscripted.
var ErrExhausted = errors.New("transport: fake: no scripted response")

func (f *Fake) record(name string) { f.Calls = append(f.Calls, name) }

func (f *Fake) BulkOut(_ context.Context, buf []byte, _ time.Duration) (int, error) {
	f.record("BulkOut")
	if f.BulkOutFn == nil {
		return 0, ErrExhausted
	}
	return f.BulkOutFn(buf)
}

func (f *Fake) BulkIn(_ context.Context, buf []byte, _ time.Duration) (int, error) {
	f.record("BulkIn")
	if f.BulkInFn == nil {
		return 0, ErrExhausted
	}
	return f.BulkInFn(buf)
}

func (f *Fake) Control(_ context.Context, reqType, request uint8, value, index uint16, data []byte, _ time.Duration) (int, error) {
	f.record("Control")
	if f.ControlFn == nil {
		return 0, ErrExhausted
	}
	return f.ControlFn(reqType, request, value, index, data)
}

func (f *Fake) ClearHalt(_ context.Context, ep uint8, _ time.Duration) error {
	f.record("ClearHalt")
	if f.ClearHaltFn == nil {
		return nil
	}
	return f.ClearHaltFn(ep)
}

func (f *Fake) ResetConfiguration(_ context.Context) error {
	f.record("ResetConfiguration")
	if f.ResetConfigFn == nil {
		return nil
	}
	return f.ResetConfigFn()
}

func (f *Fake) BulkInAddr() uint8    { return f.InAddr }
func (f *Fake) BulkOutAddr() uint8   { return f.OutAddr }
func (f *Fake) BulkInMaxPacket() int { return f.MaxPacket }
func (f *Fake) Manufacturer() string { return f.Mfr }
func (f *Fake) Product() string      { return f.Prod }
func (f *Fake) SerialNumber() string { return f.Serial }

func (f *Fake) Close() error {
	f.Closed = true
	return nil
}
