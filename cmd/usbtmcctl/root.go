// Command usbtmcctl exercises the usbtmc library against a single
// attached instrument: write a command, read the response, drive the
// control-request state machines, and list what's attached.
package main

import (
	"fmt"

	"github.com/google/gousb"
	"github.com/spf13/cobra"

	"github.com/neilo40/usbtmc"
	"github.com/neilo40/usbtmc/config"
	"github.com/neilo40/usbtmc/session"
	"github.com/neilo40/usbtmc/transport"
)

var (
	usbCtx   *gousb.Context
	registry = usbtmc.NewRegistry()
	inst     *usbtmc.Instrument

	vid uint16
	pid uint16
)

var rootCmd = &cobra.Command{
	Use:   "usbtmcctl",
	Short: "Exercise a USBTMC instrument from the command line",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "list" {
			return nil
		}
		usbCtx = gousb.NewContext()
		return attachOne()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if inst != nil {
			inst.Close()
		}
		if usbCtx != nil {
			usbCtx.Close()
		}
	},
}

// attachOne opens the device matching --vid/--pid if given, otherwise
// the first device whose interface matches the USBTMC class/subclass
// (spec.md §4.5), attaches it to registry, applies config.Load's
// defaults, and stores the result in inst.
func attachOne() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("usbtmcctl: %w", err)
	}

	if vid != 0 || pid != 0 {
		dev, err := usbCtx.OpenDeviceWithVIDPID(gousb.ID(vid), gousb.ID(pid))
		if err != nil {
			return fmt.Errorf("usbtmcctl: open device %04x:%04x: %w", vid, pid, err)
		}
		if dev == nil {
			return fmt.Errorf("usbtmcctl: no device matches %04x:%04x", vid, pid)
		}
		io, err := transport.Open(dev)
		if err != nil {
			dev.Close()
			return fmt.Errorf("usbtmcctl: %w", err)
		}
		inst = usbtmc.Open(io)
		if _, err := registry.Attach(inst); err != nil {
			inst.Close()
			inst = nil
			return fmt.Errorf("usbtmcctl: %w", err)
		}
	} else {
		attached, err := registry.AttachAll(usbCtx)
		if err != nil && len(attached) == 0 {
			return fmt.Errorf("usbtmcctl: %w", err)
		}
		if len(attached) == 0 {
			return fmt.Errorf("usbtmcctl: no USBTMC instrument found (pass --vid/--pid, or check permissions)")
		}
		inst = attached[0]
	}

	return applyDefaults(cfg)
}

func applyDefaults(cfg *config.Config) error {
	if err := inst.SetAttribute(usbtmc.AttrTimeout, int32(cfg.TimeoutMS)); err != nil {
		return err
	}
	if err := inst.SetAttribute(usbtmc.AttrTermChar, int32(cfg.TermChar)); err != nil {
		return err
	}
	if err := inst.SetAttribute(usbtmc.AttrTermCharEnabled, boolAttr(cfg.TermCharOn)); err != nil {
		return err
	}
	if err := inst.SetAttribute(usbtmc.AttrAutoAbortOnError, boolAttr(cfg.AutoAbort)); err != nil {
		return err
	}
	if err := inst.SetAttribute(usbtmc.AttrAddNLOnRead, boolAttr(cfg.AddNLOnRead)); err != nil {
		return err
	}
	if err := inst.SetAttribute(usbtmc.AttrRemNLOnWrite, boolAttr(cfg.RemNLOnWrite)); err != nil {
		return err
	}
	mode := session.ReadModeFREAD
	if cfg.ReadMode == "READ" {
		mode = session.ReadModeREAD
	}
	return inst.SetAttribute(usbtmc.AttrReadMode, int32(mode))
}

func boolAttr(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

func init() {
	rootCmd.PersistentFlags().Uint16Var(&vid, "vid", 0, "USB vendor id (hex, e.g. 0x1ab1); omit to scan by USBTMC class")
	rootCmd.PersistentFlags().Uint16Var(&pid, "pid", 0, "USB product id (hex); omit to scan by USBTMC class")
}

func main() {
	cobra.CheckErr(rootCmd.Execute())
}
