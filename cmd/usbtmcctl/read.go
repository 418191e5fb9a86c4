package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var readMax int

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Read the instrument's response",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		buf := make([]byte, readMax)
		n, err := inst.Read(context.Background(), buf)
		if err != nil {
			return err
		}
		fmt.Print(string(buf[:n]))
		return nil
	},
}

func init() {
	readCmd.Flags().IntVar(&readMax, "max", 1024, "maximum bytes to read")
	rootCmd.AddCommand(readCmd)
}
