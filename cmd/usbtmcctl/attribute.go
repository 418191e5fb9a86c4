package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/neilo40/usbtmc"
)

var attrNames = map[string]usbtmc.AttributeID{
	"auto_abort_on_error": usbtmc.AttrAutoAbortOnError,
	"read_mode":           usbtmc.AttrReadMode,
	"timeout":             usbtmc.AttrTimeout,
	"term_char_enabled":   usbtmc.AttrTermCharEnabled,
	"term_char":           usbtmc.AttrTermChar,
	"add_nl_on_read":      usbtmc.AttrAddNLOnRead,
	"rem_nl_on_write":     usbtmc.AttrRemNLOnWrite,
	"num_instruments":     usbtmc.AttrNumInstruments,
	"minor_numbers":       usbtmc.AttrMinorNumbers,
	"size_io_buffer":      usbtmc.AttrSizeIOBuffer,
	"default_timeout":     usbtmc.AttrDefaultTimeout,
	"debug_mode":          usbtmc.AttrDebugMode,
	"version":             usbtmc.AttrVersion,
}

var attrGetCmd = &cobra.Command{
	Use:   "attr-get NAME",
	Short: "Read an attribute value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, ok := attrNames[args[0]]
		if !ok {
			return fmt.Errorf("unknown attribute %q", args[0])
		}
		v, err := inst.GetAttribute(id)
		if err != nil {
			return err
		}
		fmt.Println(v)
		return nil
	},
}

var attrSetCmd = &cobra.Command{
	Use:   "attr-set NAME VALUE",
	Short: "Write an attribute value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, ok := attrNames[args[0]]
		if !ok {
			return fmt.Errorf("unknown attribute %q", args[0])
		}
		v, err := strconv.ParseInt(args[1], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid value %q: %w", args[1], err)
		}
		return inst.SetAttribute(id, int32(v))
	},
}

func init() {
	rootCmd.AddCommand(attrGetCmd, attrSetCmd)
}
