// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

// A utility to drive an AD5932 sweep generator connected by GPIO lines.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringP("chip", "c", "", "the GPIO chip the device is connected to")
	pf.String("mclk", "", "the master clock frequency in Hz")
	pf.String("tclk", "", "the half period of the serial clock")
	pf.String("pin-sclk", "", "the SCLK line")
	pf.String("pin-sdata", "", "the SDATA line")
	pf.String("pin-fsync", "", "the FSYNC line")
	pf.String("pin-ctrl", "", "the CTRL line")
	pf.String("adc-type", "", "the ADC reading the capacitive input")
	pf.String("adc-clk", "", "the ADC CLK line")
	pf.String("adc-csz", "", "the ADC CSZ line")
	pf.String("adc-di", "", "the ADC DI line")
	pf.String("adc-do", "", "the ADC DO line")
	pf.String("adc-tclk", "", "the half period of the ADC clock")
	rootCmd.SetHelpTemplate(rootCmd.HelpTemplate() + extendedRootHelp)
}

var extendedRootHelp = `
Configuration:
  Flags override environment variables, which override the defaults.
  Each flag has a corresponding environment variable, prefixed with AD5932_,
  e.g. --pin-sclk may be set with AD5932_PIN_SCLK.

Lines:
  Lines are identified by their offset on the chip, or, for a Raspberry Pi,
  by name, e.g. J8p11 or GPIO17.

ADCs:
  none, mcp3004, mcp3008, mcp3204, mcp3208, adc0832
`

var rootCmd = &cobra.Command{
	Use:   "ad5932ctl",
	Short: "ad5932ctl is a utility to drive an AD5932 sweep generator",
	Long:  "ad5932ctl is a utility to program and sample an AD5932 sweep generator connected by GPIO lines",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func logErr(cmd *cobra.Command, err error) {
	fmt.Fprintf(os.Stderr, "ad5932ctl %s: %s\n", cmd.Name(), err)
}
