package transport

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/gousb"
)

// USBEndpoints is the gousb-backed EndpointIO. It is the only place in
// this module that imports gousb directly; every other package talks
// to it through the EndpointIO interface.
type USBEndpoints struct {
	dev     *gousb.Device
	intf    *gousb.Interface
	intfRel func()
	in      *gousb.InEndpoint
	out     *gousb.OutEndpoint
	log     *slog.Logger

	manufacturer string
	product      string
	serialNumber string
}

// Open claims dev's default interface, resolves one BULK IN and one
// BULK OUT endpoint on its current alternate setting, and returns a
// ready-to-use EndpointIO (spec.md §4.5). The endpoints are taken from
// gousb's unordered endpoint map, so when the setting has more than
// one bulk endpoint in a direction, which one is used is not defined
// and need not follow descriptor order. If either endpoint
// is missing the open fails with a descriptive error and dev is left
// untouched (the caller still owns closing it).
func Open(dev *gousb.Device) (*USBEndpoints, error) {
	intf, done, err := dev.DefaultInterface()
	if err != nil {
		return nil, fmt.Errorf("transport: claim default interface: %w", err)
	}

	var inEP, outEP *gousb.EndpointDesc
	for addr, ep := range intf.Setting.Endpoints {
		if ep.TransferType != gousb.TransferTypeBulk {
			continue
		}
		if addr.Direction() == gousb.EndpointDirectionIn && inEP == nil {
			e := ep
			inEP = &e
		}
		if addr.Direction() == gousb.EndpointDirectionOut && outEP == nil {
			e := ep
			outEP = &e
		}
	}
	if inEP == nil {
		done()
		return nil, fmt.Errorf("transport: no bulk IN endpoint on interface %d", intf.Setting.Number)
	}
	if outEP == nil {
		done()
		return nil, fmt.Errorf("transport: no bulk OUT endpoint on interface %d", intf.Setting.Number)
	}

	in, err := intf.InEndpoint(inEP.Number)
	if err != nil {
		done()
		return nil, fmt.Errorf("transport: open bulk IN endpoint: %w", err)
	}
	out, err := intf.OutEndpoint(outEP.Number)
	if err != nil {
		done()
		return nil, fmt.Errorf("transport: open bulk OUT endpoint: %w", err)
	}

	manufacturer, _ := dev.Manufacturer()
	product, _ := dev.Product()
	serial, _ := dev.SerialNumber()

	log := slog.Default().With("component", "transport", "vid_pid", dev.Desc.Vendor.String()+":"+dev.Desc.Product.String())
	log.Debug("opened endpoints", "in", inEP.Number, "out", outEP.Number)

	return &USBEndpoints{
		dev:          dev,
		intf:         intf,
		intfRel:      done,
		in:           in,
		out:          out,
		log:          log,
		manufacturer: manufacturer,
		product:      product,
		serialNumber: serial,
	}, nil
}

func (e *USBEndpoints) BulkOut(ctx context.Context, buf []byte, timeout time.Duration) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	n, err := e.out.WriteContext(ctx, buf)
	if err != nil {
		e.log.Error("bulk out failed", "bytes", len(buf), "err", err)
	}
	return n, err
}

func (e *USBEndpoints) BulkIn(ctx context.Context, buf []byte, timeout time.Duration) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	n, err := e.in.ReadContext(ctx, buf)
	if err != nil {
		e.log.Error("bulk in failed", "err", err)
	}
	return n, err
}

// Control issues a raw control transfer. gousb has no per-call
// timeout parameter on Device.Control, so the device's shared
// ControlTimeout field is set immediately before the call; sessions
// are single-threaded per spec.md §5, so this is not a race across
// concurrent calls on the same session.
func (e *USBEndpoints) Control(ctx context.Context, reqType, request uint8, value, index uint16, data []byte, timeout time.Duration) (int, error) {
	e.dev.ControlTimeout = timeout
	return e.dev.Control(reqType, request, value, index, data)
}

// ClearHalt issues the standard CLEAR_FEATURE/ENDPOINT_HALT request.
// gousb does not expose a higher-level clear-halt call, so this is
// built directly from Control, mirroring the reference driver's own
// usb_control_msg(..., USB_REQ_CLEAR_FEATURE, USB_ENDPOINT_HALT, ...).
func (e *USBEndpoints) ClearHalt(ctx context.Context, ep uint8, timeout time.Duration) error {
	_, err := e.Control(ctx, DirOut|TypeStandard|RecipEndpoint, reqClearFeature, featureEndpointHalt, uint16(ep), nil, timeout)
	return err
}

// ResetConfiguration re-applies the device's active configuration by
// re-issuing the standard SET_CONFIGURATION request with its current
// value, the same wire operation the reference driver's
// usb_reset_configuration performs. gousb has no higher-level
// equivalent, so this goes through Control directly.
func (e *USBEndpoints) ResetConfiguration(ctx context.Context) error {
	num, err := e.dev.ActiveConfigNum()
	if err != nil {
		return fmt.Errorf("transport: reset configuration: determine active config: %w", err)
	}
	_, err = e.Control(ctx, DirOut|TypeStandard|RecipDevice, reqSetConfiguration, uint16(num), 0, nil, 2*time.Second)
	if err != nil {
		return fmt.Errorf("transport: reset configuration: %w", err)
	}
	return nil
}

func (e *USBEndpoints) BulkInAddr() uint8    { return uint8(e.in.Desc.Address) }
func (e *USBEndpoints) BulkOutAddr() uint8   { return uint8(e.out.Desc.Address) }
func (e *USBEndpoints) BulkInMaxPacket() int { return e.in.Desc.MaxPacketSize }
func (e *USBEndpoints) Manufacturer() string { return e.manufacturer }
func (e *USBEndpoints) Product() string      { return e.product }
func (e *USBEndpoints) SerialNumber() string { return e.serialNumber }

func (e *USBEndpoints) Close() error {
	e.intfRel()
	return e.dev.Close()
}

const (
	reqClearFeature     = 0x01
	featureEndpointHalt = 0x00
	reqSetConfiguration = 0x09
)
