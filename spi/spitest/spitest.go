// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package spitest provides a simulated SPI ADC for testing bit bashed
// drivers.
package spitest

import (
	"errors"
	"sync"
	"time"

	"github.com/warthog618/ad5932/spi"
)

// Device simulates an ADC that reads a command on Mosi and then returns a
// sample on Miso, MSB first.
//
// The device samples Mosi and advances Miso on rising edges of Sclk, so it
// suits CPOL 0, CPHA 0 drivers.
type Device struct {
	mu       sync.Mutex
	cmdBits  int
	lead     int
	width    uint
	samples  map[uint16]uint16
	commands []uint16
	selected bool
	edges    int
	cmd      uint16
	levels   [3]int
	// when Sclk last rose, and how long it was held high for each clock
	rose  time.Time
	highs []time.Duration
	closed   int
	err      error
}

const (
	sclk = iota
	ssz
	mosi
	miso
)

// New creates a Device that reads cmdBits bits of command, then lets lead
// clocks pass before clocking out width bits of sample.
func New(cmdBits, lead int, width uint) *Device {
	d := Device{
		cmdBits: cmdBits,
		lead:    lead,
		width:   width,
		samples: make(map[uint16]uint16),
	}
	d.levels[ssz] = 1
	return &d
}

// Lines returns the lines of the device.
func (d *Device) Lines() (spi.Line, spi.Line, spi.Line, spi.Line) {
	return &line{d, sclk}, &line{d, ssz}, &line{d, mosi}, &line{d, miso}
}

// SPI returns a SPI connected to the device.
func (d *Device) SPI(options ...spi.Option) *spi.SPI {
	sclk, ssz, mosi, miso := d.Lines()
	options = append([]spi.Option{spi.WithTclk(1)}, options...)
	return spi.NewFromLines(sclk, ssz, mosi, miso, options...)
}

// SetSample sets the sample returned in response to the command.
func (d *Device) SetSample(cmd uint16, v uint16) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.samples[cmd] = v
}

// SetError causes subsequent line operations to return err.
func (d *Device) SetError(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = err
}

// Commands returns the commands received, in order.
func (d *Device) Commands() []uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()
	cc := make([]uint16, len(d.commands))
	copy(cc, d.commands)
	return cc
}

// Selected returns true while Ssz is held low.
func (d *Device) Selected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.selected
}

// Highs returns how long Sclk was held high for each clock of the most
// recent transaction, in order.
func (d *Device) Highs() []time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	hh := make([]time.Duration, len(d.highs))
	copy(hh, d.highs)
	return hh
}

// Closed returns the number of lines that have been closed.
func (d *Device) Closed() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

func (d *Device) set(id, v int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	if id == miso {
		return ErrInput
	}
	prev := d.levels[id]
	d.levels[id] = v
	switch id {
	case ssz:
		if v == 0 && prev == 1 {
			d.selected = true
			d.edges = 0
			d.cmd = 0
			d.highs = nil
		}
		if v == 1 && prev == 0 {
			d.selected = false
			if d.edges >= d.cmdBits {
				d.commands = append(d.commands, d.cmd)
			}
		}
	case sclk:
		if v == 1 && prev == 0 && d.selected {
			d.rose = time.Now()
			d.edges++
			if d.edges <= d.cmdBits {
				d.cmd = d.cmd<<1 | uint16(d.levels[mosi])
			}
		}
		if v == 0 && prev == 1 && d.selected {
			d.highs = append(d.highs, time.Since(d.rose))
		}
	}
	return nil
}

func (d *Device) value(id int) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return 0, d.err
	}
	if id != miso {
		return d.levels[id], nil
	}
	bit := d.edges - d.cmdBits - d.lead - 1
	if !d.selected || bit < 0 || bit >= int(d.width) {
		return 0, nil
	}
	return int(d.samples[d.cmd]>>(d.width-1-uint(bit))) & 0x01, nil
}

// ErrInput indicates an attempt to drive the Miso line.
var ErrInput = errors.New("line is an input")

type line struct {
	d  *Device
	id int
}

func (l *line) SetValue(v int) error {
	return l.d.set(l.id, v)
}

func (l *line) Value() (int, error) {
	return l.d.value(l.id)
}

func (l *line) Close() error {
	l.d.mu.Lock()
	defer l.d.mu.Unlock()
	l.d.closed++
	return nil
}
