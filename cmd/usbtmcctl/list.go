package main

import (
	"fmt"

	"github.com/google/gousb"
	"github.com/spf13/cobra"

	"github.com/neilo40/usbtmc"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List attached USBTMC instruments",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := gousb.NewContext()
		defer ctx.Close()

		reg := usbtmc.NewRegistry()
		attached, err := reg.AttachAll(ctx)
		if err != nil && len(attached) == 0 {
			return err
		}
		defer func() {
			for _, inst := range attached {
				inst.Close()
			}
		}()

		fmt.Print(reg.Enumerate())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
