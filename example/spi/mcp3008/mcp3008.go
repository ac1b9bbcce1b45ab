// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// An example of sampling the capacitive input through a MCP3008.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/warthog618/ad5932"
	"github.com/warthog618/ad5932/spi"
	"github.com/warthog618/ad5932/spi/mcp3w0c"
	"github.com/warthog618/gpiod"
	"github.com/warthog618/gpiod/device/rpi"
)

// This example reads all channels from an MCP3008 connected to the RPI by four
// data lines - CSZ, CLK, DI, and DO - at the native 10 bit resolution, and
// then at the resolution used for capacitive sensing.
// The pin assignments are defined in cfg.
// All pins other than DO are outputs so do not run this example on a board
// where those pins serve other purposes.
func main() {
	cfg := struct {
		chip string
		clk  int
		csz  int
		do   int
		di   int
		tclk time.Duration
	}{
		chip: "gpiochip0",
		csz:  rpi.J8p37,
		clk:  rpi.J8p36,
		do:   rpi.J8p40,
		di:   rpi.J8p38,
		tclk: time.Nanosecond * 500,
	}
	c, err := gpiod.NewChip(cfg.chip, gpiod.WithConsumer("mcp3008"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "mcp3008: %s\n", err)
		os.Exit(1)
	}
	adc, err := mcp3w0c.NewMCP3008(
		c,
		cfg.clk,
		cfg.csz,
		cfg.di,
		cfg.do,
		spi.WithTclk(cfg.tclk),
	)
	c.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "mcp3008: %s\n", err)
		os.Exit(1)
	}
	defer adc.Close()
	for _, bits := range []uint{adc.Width(), ad5932.CapResolution} {
		err = adc.SetResolution(bits)
		if err != nil {
			fmt.Fprintf(os.Stderr, "mcp3008: %s\n", err)
			os.Exit(1)
		}
		for ch := 0; ch < 8; ch++ {
			d, err := adc.Read(ch)
			if err != nil {
				fmt.Printf("error reading ch%d: %s\n", ch, err)
				continue
			}
			fmt.Printf("ch%d=0x%04x (%d bits)\n", ch, d, bits)
		}
	}
}
