package usbtmc

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/gousb"

	"github.com/neilo40/usbtmc/transport"
)

// Registry is the process-wide minor-number table spec.md §5
// describes: attach and disconnect mutate it, readers see a snapshot.
// Minor 0 is reserved for the enumeration surface and is never handed
// out by Attach (spec.md §6).
type Registry struct {
	mu   sync.Mutex
	slot [MinorNumbers]*Instrument
}

// NewRegistry returns an empty registry with MinorNumbers-1 usable
// slots (minor 0 is reserved).
func NewRegistry() *Registry {
	return &Registry{}
}

// Attach assigns inst the lowest free minor number in [1, MinorNumbers)
// and records it in the registry. It fails with RESOURCE if no slot is
// free.
func (r *Registry) Attach(inst *Instrument) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for minor := 1; minor < MinorNumbers; minor++ {
		if r.slot[minor] == nil {
			r.slot[minor] = inst
			inst.minor = minor
			inst.reg = r
			return minor, nil
		}
	}
	return 0, newError("Attach", KindResource, fmt.Errorf("no free minor number"))
}

// Detach removes the instrument at minor, if any. It is a no-op if
// minor is out of range or already empty.
func (r *Registry) Detach(minor int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if minor <= 0 || minor >= MinorNumbers {
		return
	}
	r.slot[minor] = nil
}

// Count reports the number of currently attached instruments, backing
// the NUM_INSTRUMENTS read-only attribute (spec.md §4.7).
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, inst := range r.slot {
		if inst != nil {
			n++
		}
	}
	return n
}

// snapshot returns the attached instruments sorted by minor number.
func (r *Registry) snapshot() []*Instrument {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Instrument
	for _, inst := range r.slot {
		if inst != nil {
			out = append(out, inst)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].minor < out[j].minor })
	return out
}

// InstrumentData returns the manufacturer/product/serial strings for
// the instrument attached at minor, truncated to 199 bytes as the
// INSTRUMENT_DATA control operation promises (spec.md §6). It fails
// with INVALID_ARGUMENT if minor has no attached instrument.
func (r *Registry) InstrumentData(minor int) (mfr, product, serial string, err error) {
	r.mu.Lock()
	inst := (*Instrument)(nil)
	if minor > 0 && minor < MinorNumbers {
		inst = r.slot[minor]
	}
	r.mu.Unlock()
	if inst == nil {
		return "", "", "", newError("InstrumentData", KindInvalidArgument, fmt.Errorf("minor %d not attached", minor))
	}
	return truncate199(inst.io.Manufacturer()), truncate199(inst.io.Product()), truncate199(inst.io.SerialNumber()), nil
}

func truncate199(s string) string {
	if len(s) <= 199 {
		return s
	}
	return s[:199]
}

// Enumerate renders the tab-separated instrument table spec.md §6
// specifies: a header row followed by one `%03d\tmfr\tprod\tserial`
// row per attached instrument, in ascending minor order.
func (r *Registry) Enumerate() string {
	var b strings.Builder
	b.WriteString("Minor Number\tManufacturer\tProduct\tSerial Number\n")
	for _, inst := range r.snapshot() {
		fmt.Fprintf(&b, "%03d\t%s\t%s\t%s\n", inst.minor, inst.io.Manufacturer(), inst.io.Product(), inst.io.SerialNumber())
	}
	return b.String()
}

// OpenEnumeration snapshots the current table into a fresh read
// cursor (spec.md §8 scenario 5: a later read from the same open
// returns 0; a new call here is what a "reopen" means).
func (r *Registry) OpenEnumeration() *Enumeration {
	return &Enumeration{data: []byte(r.Enumerate())}
}

// Enumeration is the minor-0 pseudo-session: a one-shot read-only view
// of the registry's current contents (spec.md §6).
type Enumeration struct {
	mu     sync.Mutex
	data   []byte
	offset int
}

// Read copies from the snapshot taken at OpenEnumeration time. Once
// the snapshot is exhausted it returns 0 until a new Enumeration is
// opened; there is no persistent cursor across separate opens.
func (e *Enumeration) Read(buf []byte) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.offset >= len(e.data) {
		return 0, nil
	}
	n := copy(buf, e.data[e.offset:])
	e.offset += n
	return n, nil
}

// Write always fails: the enumeration surface is read-only (spec.md
// §6, §7 KindNotPermitted).
func (e *Enumeration) Write([]byte) (int, error) {
	return 0, newError("Write", KindNotPermitted, fmt.Errorf("enumeration session is read-only"))
}

// AttachAll scans ctx for devices that have an interface alternate
// setting, in any configuration, matching the USBTMC class/subclass,
// opens each one (through its default interface) and attaches it to r. Devices
// that fail to open are skipped; their error is returned alongside the
// instruments that did attach successfully.
func (r *Registry) AttachAll(ctx *gousb.Context) ([]*Instrument, error) {
	devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		for _, cfg := range desc.Configs {
			for _, intf := range cfg.Interfaces {
				for _, alt := range intf.AltSettings {
					if alt.Class == gousb.ClassCode(InterfaceClass) && alt.SubClass == gousb.ClassCode(InterfaceSubClass) {
						return true
					}
				}
			}
		}
		return false
	})
	if err != nil {
		return nil, fmt.Errorf("usbtmc: AttachAll: %w", err)
	}

	var attached []*Instrument
	var firstErr error
	for _, dev := range devs {
		io, err := transport.Open(dev)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			dev.Close()
			continue
		}
		inst := newInstrument(io)
		if _, err := r.Attach(inst); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			io.Close()
			continue
		}
		attached = append(attached, inst)
	}
	return attached, firstErr
}
