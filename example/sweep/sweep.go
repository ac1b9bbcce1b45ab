// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// An example of a swept frequency capacitive scan using an AD5932 and an
// MCP3208.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/warthog618/ad5932"
	"github.com/warthog618/ad5932/lines"
	"github.com/warthog618/ad5932/spi"
	"github.com/warthog618/ad5932/spi/mcp3w0c"
	"github.com/warthog618/gpiod/device/rpi"
)

// This example programs an externally incremented sweep into an AD5932
// connected to the RPI by four data lines - SCLK, SDATA, FSYNC and CTRL - and
// then samples the response on channel 0 of an MCP3208 at each step.
// The pin assignments are defined in cfg.
// All pins other than DO are outputs so do not run this example on a board
// where those pins serve other purposes.
func main() {
	cfg := struct {
		chip   string
		mclk   uint32
		sclk   int
		sdata  int
		fsync  int
		ctrl   int
		clk    int
		csz    int
		do     int
		di     int
		input  int
		smooth uint8
	}{
		chip:   "gpiochip0",
		mclk:   50000000,
		sclk:   rpi.J8p11,
		sdata:  rpi.J8p13,
		fsync:  rpi.J8p15,
		ctrl:   rpi.J8p16,
		csz:    rpi.J8p29,
		clk:    rpi.J8p31,
		do:     rpi.J8p33,
		di:     rpi.J8p35,
		input:  0,
		smooth: 4,
	}
	b, err := lines.New(cfg.chip, lines.WithConsumer("sweep"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "sweep: %s\n", err)
		os.Exit(1)
	}
	defer b.Close()
	adc, err := mcp3w0c.NewMCP3208(
		b.Chip(),
		cfg.clk,
		cfg.csz,
		cfg.di,
		cfg.do,
		spi.WithTclk(500*time.Nanosecond),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sweep: %s\n", err)
		os.Exit(1)
	}
	defer adc.Close()
	d, err := ad5932.New(cfg.mclk, cfg.sclk, cfg.sdata, cfg.fsync, cfg.ctrl, b,
		ad5932.WithControl(ad5932.DefaultControl|ad5932.ExternalIncrement),
		ad5932.WithADC(adc))
	if err != nil {
		fmt.Fprintf(os.Stderr, "sweep: %s\n", err)
		os.Exit(1)
	}
	err = d.Init()
	if err != nil {
		fmt.Fprintf(os.Stderr, "sweep: %s\n", err)
		os.Exit(1)
	}
	n := ad5932.BufferSize(cfg.smooth)
	s, err := d.Program(ad5932.Sweep{
		Start:      10000,
		Delta:      100,
		Increments: uint16(n - 1),
		Mode:       ad5932.DwellWC,
		Dwell:      2,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "sweep: %s\n", err)
		os.Exit(1)
	}
	// first pulse starts the sweep at the start frequency
	err = d.TriggerControl()
	if err != nil {
		fmt.Fprintf(os.Stderr, "sweep: %s\n", err)
		os.Exit(1)
	}
	vv, err := d.Scan(context.Background(), cfg.input, cfg.smooth)
	if err != nil {
		fmt.Printf("scan error after %d samples: %s\n", len(vv), err)
	}
	for i, v := range vv {
		f := int64(s.Start) + int64(i)*int64(s.Delta)
		fmt.Printf("%dHz=%d\n", f, v)
	}
}
