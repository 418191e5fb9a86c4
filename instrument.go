package usbtmc

import (
	"context"
	"fmt"

	"github.com/neilo40/usbtmc/control"
	"github.com/neilo40/usbtmc/engine"
	"github.com/neilo40/usbtmc/session"
	"github.com/neilo40/usbtmc/transport"
)

// Instrument is a single attached USBTMC device: a session plus the
// endpoint I/O facade it was opened on (spec.md §3, §4.5). Callers get
// one through Registry.AttachAll, or by wrapping an already-open
// transport.EndpointIO with Open for tests and non-gousb transports.
type Instrument struct {
	session *session.Session
	io      transport.EndpointIO
	reg     *Registry
	minor   int
}

func newInstrument(io transport.EndpointIO) *Instrument {
	s := session.New(DefaultTimeout)
	s.BulkInAddr = io.BulkInAddr()
	s.BulkOutAddr = io.BulkOutAddr()
	s.BulkInMaxPacket = io.BulkInMaxPacket()
	return &Instrument{session: s, io: io}
}

// Open wraps an already-open endpoint facade as a standalone
// Instrument, without going through a Registry. Used by callers
// (including tests) that manage attach/detach themselves.
func Open(io transport.EndpointIO) *Instrument {
	return newInstrument(io)
}

// Minor reports the minor number this instrument was attached under,
// or 0 if it was opened standalone via Open.
func (i *Instrument) Minor() int { return i.minor }

// Write delivers a command to the instrument (spec.md §4.4, §6). It
// returns the number of bytes consumed from data, which is always
// len(data) on success.
func (i *Instrument) Write(ctx context.Context, data []byte) (int, error) {
	i.session.Mu.Lock()
	defer i.session.Mu.Unlock()
	n, err := engine.WriteMessage(ctx, i.io, i.session, data)
	if err != nil {
		return n, newError("Write", KindTransport, err)
	}
	return n, nil
}

// Read retrieves the instrument's response into buf (spec.md §4.4b,
// §6). A return of 0 with a nil error signals EOF under FREAD mode.
func (i *Instrument) Read(ctx context.Context, buf []byte) (int, error) {
	i.session.Mu.Lock()
	defer i.session.Mu.Unlock()
	n, err := engine.ReadMessage(ctx, i.io, i.session, buf)
	if err != nil {
		return n, newError("Read", KindTransport, err)
	}
	return n, nil
}

// Seek always fails: random access is not meaningful on an instrument
// byte stream (spec.md §1 non-goals, §6).
func (i *Instrument) Seek(int64, int) (int64, error) {
	return 0, ErrNotSupported
}

// Close releases the underlying endpoint handle and, if attached,
// removes this instrument from its registry.
func (i *Instrument) Close() error {
	if i.reg != nil {
		i.reg.Detach(i.minor)
	}
	return i.io.Close()
}

// AbortBulkOut and AbortBulkIn expose the USBTMC §4.2.1.2/§4.2.1.4
// abort procedures directly (spec.md §6 control surface).
func (i *Instrument) AbortBulkOut(ctx context.Context) error {
	i.session.Mu.Lock()
	defer i.session.Mu.Unlock()
	if err := control.AbortBulkOut(ctx, i.io, i.session); err != nil {
		return newError("AbortBulkOut", KindProtocol, err)
	}
	return nil
}

func (i *Instrument) AbortBulkIn(ctx context.Context) error {
	i.session.Mu.Lock()
	defer i.session.Mu.Unlock()
	if err := control.AbortBulkIn(ctx, i.io, i.session); err != nil {
		return newError("AbortBulkIn", KindProtocol, err)
	}
	return nil
}

// Clear issues USBTMC §4.2.1.6 device clear (spec.md §6).
func (i *Instrument) Clear(ctx context.Context) error {
	i.session.Mu.Lock()
	defer i.session.Mu.Unlock()
	if err := control.Clear(ctx, i.io, i.session); err != nil {
		return newError("Clear", KindProtocol, err)
	}
	return nil
}

// ClearOutHalt and ClearInHalt clear a stalled bulk endpoint directly,
// bypassing the abort dialog (spec.md §4.6, §6).
func (i *Instrument) ClearOutHalt(ctx context.Context) error {
	i.session.Mu.Lock()
	defer i.session.Mu.Unlock()
	if err := control.ClearOutHalt(ctx, i.io, i.session); err != nil {
		return newError("ClearOutHalt", KindTransport, err)
	}
	return nil
}

func (i *Instrument) ClearInHalt(ctx context.Context) error {
	i.session.Mu.Lock()
	defer i.session.Mu.Unlock()
	if err := control.ClearInHalt(ctx, i.io, i.session); err != nil {
		return newError("ClearInHalt", KindTransport, err)
	}
	return nil
}

// GetCapabilities returns the device's four-byte capability record
// (spec.md §3, §4.6, §6).
func (i *Instrument) GetCapabilities(ctx context.Context) (control.Capabilities, error) {
	i.session.Mu.Lock()
	defer i.session.Mu.Unlock()
	caps, err := control.GetCapabilities(ctx, i.io, i.session)
	if err != nil {
		return control.Capabilities{}, newError("GetCapabilities", KindProtocol, err)
	}
	return caps, nil
}

// IndicatorPulse pulses the device's activity indicator (spec.md
// §4.6, §6). Support is optional; callers should check Capabilities
// first.
func (i *Instrument) IndicatorPulse(ctx context.Context) error {
	i.session.Mu.Lock()
	defer i.session.Mu.Unlock()
	if err := control.IndicatorPulse(ctx, i.io, i.session); err != nil {
		return newError("IndicatorPulse", KindProtocol, err)
	}
	return nil
}

// ResetConf re-applies the device's active USB configuration (spec.md
// §4.6, §6).
func (i *Instrument) ResetConf(ctx context.Context) error {
	if err := control.ResetConfiguration(ctx, i.io); err != nil {
		return newError("ResetConf", KindTransport, err)
	}
	return nil
}

// String satisfies fmt.Stringer for log lines and CLI listings.
func (i *Instrument) String() string {
	return fmt.Sprintf("usbtmc#%03d %s %s", i.minor, i.io.Manufacturer(), i.io.Product())
}
