// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// An example of reading the capacitive input through an ADC0832.
package main

import (
	"fmt"
	"os"

	"github.com/warthog618/ad5932/spi/adc0832"
	"github.com/warthog618/config"
	"github.com/warthog618/config/blob"
	"github.com/warthog618/config/blob/decoder/json"
	"github.com/warthog618/config/dict"
	"github.com/warthog618/config/env"
	"github.com/warthog618/config/pflag"
	"github.com/warthog618/gpiod"
	"github.com/warthog618/gpiod/device/rpi"
)

// This example reads both channels from an ADC0832 connected to the RPI by four
// data lines - CSZ, CLK, DI, and DO - scaled to the resolution used for
// capacitive sensing. The default pin assignments are defined in loadConfig,
// but can be altered via configuration (env, flag or config file).
// All pins other than DO are outputs so do not run this example on a board
// where those pins serve other purposes.
func main() {
	cfg := loadConfig()
	tclk := cfg.MustGet("tclk").Duration()
	tset := cfg.MustGet("tset").Duration()
	if tset < tclk {
		tset = tclk
	}
	chip := cfg.MustGet("gpiochip").String()
	c, err := gpiod.NewChip(chip, gpiod.WithConsumer("adc0832"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "adc0832: %s\n", err)
		os.Exit(1)
	}
	a, err := adc0832.New(
		c,
		cfg.MustGet("clk").Int(),
		cfg.MustGet("csz").Int(),
		cfg.MustGet("di").Int(),
		cfg.MustGet("do").Int(),
		adc0832.WithTclk(tclk),
		adc0832.WithTset(tset))
	c.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "adc0832: %s\n", err)
		os.Exit(1)
	}
	defer a.Close()
	bits := uint(cfg.MustGet("resolution").Int())
	err = a.SetResolution(bits)
	if err != nil {
		fmt.Fprintf(os.Stderr, "adc0832: %s\n", err)
		os.Exit(1)
	}
	for ch := 0; ch < 2; ch++ {
		v, err := a.Read(ch)
		if err != nil {
			fmt.Printf("read error ch%d: %s\n", ch, err)
			continue
		}
		d, err := a.ReadDifferential(ch)
		if err != nil {
			fmt.Printf("read error diff%d: %s\n", ch, err)
			continue
		}
		fmt.Printf("ch%d=0x%04x, diff%d=0x%04x (%d bits)\n", ch, v, ch, d, bits)
	}
}

func loadConfig() *config.Config {
	defaultConfig := map[string]interface{}{
		"gpiochip":   "gpiochip0",
		"tclk":       "2500ns",
		"tset":       "2500ns", // should be at least tclk - enforced in main
		"resolution": 12,
		"csz":        rpi.J8p29,
		"clk":        rpi.J8p31,
		"do":         rpi.J8p33,
		"di":         rpi.J8p35,
	}
	def := dict.New(dict.WithMap(defaultConfig))
	flags := []pflag.Flag{
		{Short: 'c', Name: "config-file"},
	}
	cfg := config.New(
		pflag.New(pflag.WithFlags(flags)),
		env.New(env.WithEnvPrefix("ADC0832_")),
		config.WithDefault(def))
	cfg.Append(
		blob.NewConfigFile(cfg, "config.file", "adc0832.json", json.NewDecoder()))
	cfg = cfg.GetConfig("", config.WithMust)
	return cfg
}
