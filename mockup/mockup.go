// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package mockup provides a simulated AD5932 and ADC.
//
// This is intended for testing the ad5932 driver, but could also be used for
// testing by users of their own code that uses ad5932.
package mockup

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/warthog618/ad5932/analog"
)

// Write is a register write decoded from the serial interface.
type Write struct {
	Addr uint8
	Data uint16
}

// Frame returns the write as it appeared on the wire.
func (w Write) Frame() uint16 {
	return uint16(w.Addr)<<12 | w.Data
}

// Lines identifies the lines of the chip's serial interface.
type Lines struct {
	Sclk  int
	Sdata int
	Fsync int
	Ctrl  int
}

// Chip simulates an AD5932 attached to a number of GPIO lines.
//
// It decodes register writes by sampling SDATA on each falling edge of SCLK
// while FSYNC is low, and latches the frame on the rising edge of FSYNC.
type Chip struct {
	mu      sync.Mutex
	lines   Lines
	nlines  int
	outputs map[int]bool
	levels  map[int]int
	// bits of the frame being received
	frame  uint32
	nbits  int
	writes []Write
	regs   map[uint8]uint16
	pulses int
	// when CTRL last rose, and the width of each complete pulse
	ctrlRose time.Time
	widths   []time.Duration
	errs     int
	// SetValue returns fail, if set, once failAfter calls have succeeded.
	fail      error
	failAfter int
}

// ErrNotOutput indicates the line has not been configured as an output.
var ErrNotOutput = errors.New("line is not an output")

// NewChip creates a Chip with nlines GPIO lines, of which ll are connected to
// the serial interface.
func NewChip(nlines int, ll Lines) *Chip {
	return &Chip{
		lines:   ll,
		nlines:  nlines,
		outputs: make(map[int]bool),
		levels:  make(map[int]int),
		regs:    make(map[uint8]uint16),
	}
}

// Output configures the line as an output, driven to value.
func (c *Chip) Output(line int, value int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if line < 0 || line >= c.nlines {
		return ErrorIndexRange{line, c.nlines}
	}
	c.outputs[line] = true
	c.setLevel(line, value)
	return nil
}

// SetValue sets the level of an output line.
func (c *Chip) SetValue(line int, value int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if line < 0 || line >= c.nlines {
		return ErrorIndexRange{line, c.nlines}
	}
	if !c.outputs[line] {
		return ErrNotOutput
	}
	if c.fail != nil {
		if c.failAfter == 0 {
			return c.fail
		}
		c.failAfter--
	}
	c.setLevel(line, value)
	return nil
}

// FailAfter causes SetValue to return err once n further calls have
// succeeded.
//
// A nil err clears the failure.
func (c *Chip) FailAfter(n int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fail = err
	c.failAfter = n
}

func (c *Chip) setLevel(line int, value int) {
	if value != 0 {
		value = 1
	}
	prev, ok := c.levels[line]
	c.levels[line] = value
	if !ok || prev == value {
		return
	}
	switch line {
	case c.lines.Fsync:
		if value == 0 {
			c.frame = 0
			c.nbits = 0
			return
		}
		c.latch()
	case c.lines.Sclk:
		if value == 0 && c.levels[c.lines.Fsync] == 0 {
			c.frame = c.frame<<1 | uint32(c.levels[c.lines.Sdata])
			c.nbits++
		}
	case c.lines.Ctrl:
		if value == 1 {
			c.ctrlRose = time.Now()
			return
		}
		c.pulses++
		c.widths = append(c.widths, time.Since(c.ctrlRose))
	}
}

func (c *Chip) latch() {
	if c.nbits != 16 {
		c.errs++
		return
	}
	w := Write{Addr: uint8(c.frame >> 12), Data: uint16(c.frame & 0x0fff)}
	c.writes = append(c.writes, w)
	c.regs[w.Addr] = w.Data
}

// Level returns the current level of the line.
func (c *Chip) Level(line int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if line < 0 || line >= c.nlines {
		return 0, ErrorIndexRange{line, c.nlines}
	}
	return c.levels[line], nil
}

// IsOutput returns true if the line has been configured as an output.
func (c *Chip) IsOutput(line int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outputs[line]
}

// Writes returns the register writes received, in order.
func (c *Chip) Writes() []Write {
	c.mu.Lock()
	defer c.mu.Unlock()
	ww := make([]Write, len(c.writes))
	copy(ww, c.writes)
	return ww
}

// Register returns the data last written to the register at addr, and false
// if it has never been written.
func (c *Chip) Register(addr uint8) (uint16, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.regs[addr]
	return v, ok
}

// Pulses returns the number of complete pulses seen on CTRL.
func (c *Chip) Pulses() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pulses
}

// PulseWidths returns how long CTRL was held high for each complete pulse,
// in order.
func (c *Chip) PulseWidths() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	ww := make([]time.Duration, len(c.widths))
	copy(ww, c.widths)
	return ww
}

// Errors returns the number of frames that did not contain 16 bits.
func (c *Chip) Errors() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errs
}

// Clear discards the recorded writes, registers, pulses and pulse widths.
//
// Line configuration and levels are retained.
func (c *Chip) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = nil
	c.regs = make(map[uint8]uint16)
	c.pulses = 0
	c.widths = nil
	c.errs = 0
}

// ADCWidth is the native resolution of the simulated ADC.
const ADCWidth = 12

// ADC simulates an analog to digital converter with a number of inputs.
//
// Each input returns its samples in order, repeating once exhausted.
// Samples are provided at ADCWidth bits and rescaled to the resolution, as
// the SPI ADC drivers do.
type ADC struct {
	mu          sync.Mutex
	inputs      int
	samples     map[int][]uint16
	next        map[int]int
	resolution  uint
	resolutions []uint
	reads       int
	err         error
}

// NewADC creates an ADC with the given number of inputs, initially at its
// native resolution.
func NewADC(inputs int) *ADC {
	return &ADC{
		inputs:     inputs,
		samples:    make(map[int][]uint16),
		next:       make(map[int]int),
		resolution: ADCWidth,
	}
}

// SetSamples sets the samples returned by the input, at ADCWidth bits.
func (a *ADC) SetSamples(input int, samples ...uint16) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.samples[input] = samples
	a.next[input] = 0
}

// SetError causes subsequent reads to return err.
func (a *ADC) SetError(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.err = err
}

// SetResolution sets the resolution of the ADC.
func (a *ADC) SetResolution(bits uint) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	err := analog.Validate(bits)
	if err != nil {
		return err
	}
	a.resolution = bits
	a.resolutions = append(a.resolutions, bits)
	return nil
}

// Resolution returns the current resolution.
func (a *ADC) Resolution() uint {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.resolution
}

// Resolutions returns the resolutions set, in order.
func (a *ADC) Resolutions() []uint {
	a.mu.Lock()
	defer a.mu.Unlock()
	rr := make([]uint, len(a.resolutions))
	copy(rr, a.resolutions)
	return rr
}

// Reads returns the number of samples read.
func (a *ADC) Reads() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.reads
}

// Read returns the next sample for the input, rescaled to the resolution.
func (a *ADC) Read(input int) (uint16, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if input < 0 || input >= a.inputs {
		return 0, ErrorIndexRange{input, a.inputs}
	}
	if a.err != nil {
		return 0, a.err
	}
	a.reads++
	ss := a.samples[input]
	if len(ss) == 0 {
		return 0, nil
	}
	n := a.next[input]
	a.next[input] = (n + 1) % len(ss)
	return analog.Rescale(ss[n], ADCWidth, a.resolution), nil
}

// ErrorIndexRange indicates the requested index is beyond the limit of the array.
type ErrorIndexRange struct {
	Req   int
	Limit int
}

func (e ErrorIndexRange) Error() string {
	return fmt.Sprintf("index out of range - got %d, limit is %d.", e.Req, e.Limit)
}
