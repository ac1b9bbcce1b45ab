// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package main

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/warthog618/ad5932"
	"github.com/warthog618/ad5932/lines"
	"github.com/warthog618/ad5932/spi"
	"github.com/warthog618/ad5932/spi/adc0832"
	"github.com/warthog618/ad5932/spi/mcp3w0c"
	"github.com/warthog618/config"
	"github.com/warthog618/config/dict"
	"github.com/warthog618/config/env"
	"github.com/warthog618/gpiod"
	"github.com/warthog618/gpiod/device/rpi"
)

func defaultConfig() map[string]interface{} {
	return map[string]interface{}{
		"chip": "gpiochip0",
		"mclk": "50000000",
		"tclk": "0s",
		"pin": map[string]interface{}{
			"sclk":  "J8p11",
			"sdata": "J8p13",
			"fsync": "J8p15",
			"ctrl":  "J8p16",
		},
		"adc": map[string]interface{}{
			"type": "mcp3208",
			"clk":  "J8p31",
			"csz":  "J8p29",
			"di":   "J8p35",
			"do":   "J8p33",
			"tclk": "500ns",
		},
	}
}

// loadConfig builds the configuration from the flags that have been set,
// the environment and the defaults, in that order of precedence.
func loadConfig(flags *pflag.FlagSet) *config.Config {
	set := map[string]interface{}{}
	flags.Visit(func(f *pflag.Flag) {
		insert(set, strings.Replace(f.Name, "-", ".", 1), f.Value.String())
	})
	def := dict.New(dict.WithMap(defaultConfig()))
	return config.New(
		dict.New(dict.WithMap(set)),
		env.New(env.WithEnvPrefix("AD5932_")),
		config.WithDefault(def))
}

// insert adds the value to the tree, splitting the key at the first '.'.
func insert(tree map[string]interface{}, key string, v interface{}) {
	kk := strings.SplitN(key, ".", 2)
	if len(kk) == 1 {
		tree[key] = v
		return
	}
	sub, ok := tree[kk[0]].(map[string]interface{})
	if !ok {
		sub = map[string]interface{}{}
		tree[kk[0]] = sub
	}
	sub[kk[1]] = v
}

// parsePin converts a line offset or Raspberry Pi pin name to an offset.
func parsePin(s string) (int, error) {
	if o, err := strconv.ParseUint(s, 10, 16); err == nil {
		return int(o), nil
	}
	o, err := rpi.Pin(s)
	if err != nil {
		return 0, fmt.Errorf("can't parse pin '%s'", s)
	}
	return o, nil
}

type pins struct {
	sclk  int
	sdata int
	fsync int
	ctrl  int
}

func parsePins(cfg *config.Config, prefix string, names ...string) ([]int, error) {
	oo := make([]int, len(names))
	for i, n := range names {
		o, err := parsePin(cfg.MustGet(prefix + n).String())
		if err != nil {
			return nil, fmt.Errorf("%s%s: %w", prefix, n, err)
		}
		oo[i] = o
	}
	return oo, nil
}

func loadPins(cfg *config.Config) (pins, error) {
	oo, err := parsePins(cfg, "pin.", "sclk", "sdata", "fsync", "ctrl")
	if err != nil {
		return pins{}, err
	}
	return pins{sclk: oo[0], sdata: oo[1], fsync: oo[2], ctrl: oo[3]}, nil
}

var (
	errInvalidClock   = errors.New("mclk must be in the range 1..4294967295")
	errUnknownADC     = errors.New("unknown ADC type")
	errDuplicateLines = errors.New("lines must be distinct")
)

func loadMclk(cfg *config.Config) (uint32, error) {
	s := cfg.MustGet("mclk").String()
	mclk, err := strconv.ParseUint(s, 0, 64)
	if err != nil || mclk == 0 || mclk > math.MaxUint32 {
		return 0, errInvalidClock
	}
	return uint32(mclk), nil
}

func loadDuration(cfg *config.Config, key string) (time.Duration, error) {
	s := cfg.MustGet(key).String()
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: can't parse duration '%s'", key, s)
	}
	return d, nil
}

type adcCloser interface {
	ad5932.ADC
	Close() error
}

func newADC(cfg *config.Config, c *gpiod.Chip) (adcCloser, error) {
	typ := strings.ToLower(cfg.MustGet("adc.type").String())
	if typ == "none" {
		return nil, nil
	}
	oo, err := parsePins(cfg, "adc.", "clk", "csz", "di", "do")
	if err != nil {
		return nil, err
	}
	tclk, err := loadDuration(cfg, "adc.tclk")
	if err != nil {
		return nil, err
	}
	switch typ {
	case "mcp3004":
		return mcp3w0c.NewMCP3004(c, oo[0], oo[1], oo[2], oo[3], spi.WithTclk(tclk))
	case "mcp3008":
		return mcp3w0c.NewMCP3008(c, oo[0], oo[1], oo[2], oo[3], spi.WithTclk(tclk))
	case "mcp3204":
		return mcp3w0c.NewMCP3204(c, oo[0], oo[1], oo[2], oo[3], spi.WithTclk(tclk))
	case "mcp3208":
		return mcp3w0c.NewMCP3208(c, oo[0], oo[1], oo[2], oo[3], spi.WithTclk(tclk))
	case "adc0832":
		return adc0832.New(c, oo[0], oo[1], oo[2], oo[3], adc0832.WithTclk(tclk), adc0832.WithTset(tclk))
	}
	return nil, fmt.Errorf("%w: %s", errUnknownADC, typ)
}

// station is a Device and the resources it holds.
type station struct {
	*ad5932.Device
	bank *lines.Bank
	adc  adcCloser
	pins pins
}

// newStation creates a Device from the configuration.
//
// The ADC is only created if withADC is set, so commands that don't sample
// the input don't claim the ADC lines.
func newStation(flags *pflag.FlagSet, withADC bool) (*station, error) {
	cfg := loadConfig(flags)
	mclk, err := loadMclk(cfg)
	if err != nil {
		return nil, err
	}
	tclk, err := loadDuration(cfg, "tclk")
	if err != nil {
		return nil, err
	}
	p, err := loadPins(cfg)
	if err != nil {
		return nil, err
	}
	if !distinct(p.sclk, p.sdata, p.fsync, p.ctrl) {
		return nil, errDuplicateLines
	}
	b, err := lines.New(cfg.MustGet("chip").String(), lines.WithConsumer("ad5932ctl"))
	if err != nil {
		return nil, err
	}
	s := station{bank: b, pins: p}
	options := []ad5932.Option{ad5932.WithTclk(tclk)}
	if withADC {
		s.adc, err = newADC(cfg, b.Chip())
		if err != nil {
			b.Close()
			return nil, err
		}
		if s.adc != nil {
			options = append(options, ad5932.WithADC(s.adc))
		}
	}
	s.Device, err = ad5932.New(mclk, p.sclk, p.sdata, p.fsync, p.ctrl, b, options...)
	if err != nil {
		s.Close()
		return nil, err
	}
	return &s, nil
}

// Idle configures the lines as outputs at their idle levels, without
// writing to the device, so a previously programmed sweep is retained.
func (s *station) Idle() error {
	for _, l := range []struct{ offset, value int }{
		{s.pins.sclk, 1},
		{s.pins.fsync, 1},
		{s.pins.sdata, 0},
		{s.pins.ctrl, 0},
	} {
		err := s.bank.Output(l.offset, l.value)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *station) Close() {
	if s.adc != nil {
		s.adc.Close()
	}
	s.bank.Close()
}

func distinct(oo ...int) bool {
	seen := map[int]bool{}
	for _, o := range oo {
		if seen[o] {
			return false
		}
		seen[o] = true
	}
	return true
}
