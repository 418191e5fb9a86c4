package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Issue USBTMC CLEAR (device clear)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return inst.Clear(context.Background())
	},
}

var abortOutCmd = &cobra.Command{
	Use:   "abort-out",
	Short: "Issue ABORT_BULK_OUT",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return inst.AbortBulkOut(context.Background())
	},
}

var abortInCmd = &cobra.Command{
	Use:   "abort-in",
	Short: "Issue ABORT_BULK_IN",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return inst.AbortBulkIn(context.Background())
	},
}

var capabilitiesCmd = &cobra.Command{
	Use:   "capabilities",
	Short: "Query GET_CAPABILITIES",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		caps, err := inst.GetCapabilities(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("interface=0x%02x device=0x%02x usb488_interface=0x%02x usb488_device=0x%02x\n",
			caps.InterfaceCaps, caps.DeviceCaps, caps.USB488InterfaceCaps, caps.USB488DeviceCaps)
		return nil
	},
}

var indicatorCmd = &cobra.Command{
	Use:   "indicator-pulse",
	Short: "Pulse the instrument's activity indicator",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return inst.IndicatorPulse(context.Background())
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset-conf",
	Short: "Re-apply the device's active USB configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return inst.ResetConf(context.Background())
	},
}

func init() {
	rootCmd.AddCommand(clearCmd, abortOutCmd, abortInCmd, capabilitiesCmd, indicatorCmd, resetCmd)
}
