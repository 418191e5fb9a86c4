package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var writeCmd = &cobra.Command{
	Use:   "write MESSAGE",
	Short: "Send a command to the instrument",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := inst.Write(context.Background(), []byte(args[0]))
		if err != nil {
			return err
		}
		fmt.Printf("wrote %d bytes\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(writeCmd)
}
