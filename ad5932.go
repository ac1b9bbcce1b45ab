// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package ad5932 provides a bit bashed device driver for the AD5932
// programmable frequency sweep generator.
//
// The AD5932 is written over a three wire serial interface - SCLK, SDATA and
// FSYNC - with a fourth line, CTRL, used to start and step sweeps.
// All four are driven as GPIO outputs.
//
// The driver also reads an analog capacitive sensing input, through a
// separate ADC, to support swept frequency capacitive sensing.
package ad5932

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// GPIO provides the digital lines connected to the AD5932.
type GPIO interface {
	// Output configures the line as an output, driven to value.
	Output(line int, value int) error

	// SetValue drives an output line to value.
	SetValue(line int, value int) error
}

// ADC provides samples of analog inputs.
type ADC interface {
	// SetResolution sets the width, in bits, of subsequent samples.
	//
	// The resolution is shared by all inputs of the converter, so setting
	// it affects every user of the ADC.
	SetResolution(bits uint) error

	// Read returns a single sample of the input.
	Read(input int) (uint16, error)
}

// MinPulseWidth is the shortest CTRL pulse the chip recognises.
const MinPulseWidth = time.Microsecond

// CapResolution is the ADC resolution used by ReadCapacitive.
const CapResolution = 12

// Device is an AD5932 connected by four GPIO lines.
type Device struct {
	mu      sync.Mutex
	mclk    uint32
	sclk    int
	sdata   int
	fsync   int
	ctrl    int
	control Control
	gpio    GPIO
	adc     ADC
	// time between clock edges (i.e. half the cycle time)
	tclk  time.Duration
	pulse time.Duration
}

// Sweep describes a complete frequency sweep.
type Sweep struct {
	// Start is the starting frequency in Hz.
	Start uint32
	// Delta is the frequency step in Hz - negative to sweep down.
	Delta int32
	// Increments is the number of steps in the sweep.
	Increments uint16
	// Mode is the time base of the dwell.
	Mode DwellMode
	// Dwell is the time spent at each frequency, in units of Mode.
	Dwell uint32
}

var (
	// ErrInvalidClock indicates the master clock frequency is zero.
	ErrInvalidClock = errors.New("master clock frequency must be non-zero")

	// ErrInvalidDwellMode indicates the dwell mode is not DwellWC or DwellCP.
	ErrInvalidDwellMode = errors.New("invalid dwell mode")

	// ErrInvalidSmoothing indicates a smoothing degree of zero.
	ErrInvalidSmoothing = errors.New("smoothing degree must be non-zero")

	// ErrNoADC indicates the Device was created without an ADC.
	ErrNoADC = errors.New("no ADC configured")
)

// New creates a Device.
//
// mclk is the frequency of the master clock in Hz, and sclk, sdata, fsync
// and ctrl identify the lines of the serial interface to gpio.
// No lines are driven until Init is called.
func New(mclk uint32, sclk, sdata, fsync, ctrl int, gpio GPIO, options ...Option) (*Device, error) {
	if mclk == 0 {
		return nil, ErrInvalidClock
	}
	d := Device{
		mclk:    mclk,
		sclk:    sclk,
		sdata:   sdata,
		fsync:   fsync,
		ctrl:    ctrl,
		control: DefaultControl,
		gpio:    gpio,
		pulse:   MinPulseWidth,
	}
	for _, option := range options {
		option(&d)
	}
	return &d, nil
}

// MasterClock returns the master clock frequency, in Hz.
func (d *Device) MasterClock() uint32 {
	return d.mclk
}

// Control returns the value written to the control register by Reset.
func (d *Device) Control() Control {
	return d.control
}

// Init configures the lines and resets the chip.
//
// SCLK and FSYNC idle high, and CTRL is held low.
func (d *Device) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	lines := []struct {
		name  string
		line  int
		value int
	}{
		{"sclk", d.sclk, 1},
		{"fsync", d.fsync, 1},
		{"sdata", d.sdata, 0},
		{"ctrl", d.ctrl, 0},
	}
	for _, l := range lines {
		err := d.gpio.Output(l.line, l.value)
		if err != nil {
			return fmt.Errorf("failed to configure %s line: %w", l.name, err)
		}
	}
	return d.reset()
}

// Reset writes the control register, which returns the output to midscale
// and awaits the next sweep.
func (d *Device) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reset()
}

func (d *Device) reset() error {
	return d.writeRegister(RegControl, uint16(d.control))
}

// SetStartFrequency sets the frequency, in Hz, at the start of the sweep.
func (d *Device) SetStartFrequency(hz uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.setStartFrequency(hz)
}

func (d *Device) setStartFrequency(hz uint32) error {
	word := FrequencyWord(hz, d.mclk)
	err := d.writeRegister(RegFStartL, uint16(word&dataMask))
	if err != nil {
		return err
	}
	return d.writeRegister(RegFStartH, uint16((word>>12)&dataMask))
}

// SetDeltaFrequency sets the frequency step, in Hz, between increments.
//
// A negative step sweeps down from the start frequency.
func (d *Device) SetDeltaFrequency(hz int32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.setDeltaFrequency(hz)
}

func (d *Device) setDeltaFrequency(hz int32) error {
	lo, hi := deltaWords(hz, d.mclk)
	err := d.writeRegister(RegDeltaFL, lo)
	if err != nil {
		return err
	}
	return d.writeRegister(RegDeltaFH, hi)
}

// SetIncrementCount sets the number of increments in the sweep.
//
// The count is limited to the range supported by the chip, [2,4095], and the
// count actually written is returned, along with true if it was limited.
func (d *Device) SetIncrementCount(n uint16) (uint16, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.setIncrementCount(n)
}

func (d *Device) setIncrementCount(n uint16) (uint16, bool, error) {
	n, clamped := ClampIncrements(n)
	return n, clamped, d.writeRegister(RegNIncr, n)
}

// SetDwellTime sets the time spent at each frequency in the sweep.
//
// n is in output waveform cycles for DwellWC, and in MCLK periods for
// DwellCP.
// The chip can only represent n approximately, so the dwell actually written
// is returned.
func (d *Device) SetDwellTime(mode DwellMode, n uint32) (uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.setDwellTime(mode, n)
}

func (d *Device) setDwellTime(mode DwellMode, n uint32) (uint32, error) {
	if mode != DwellWC && mode != DwellCP {
		return 0, ErrInvalidDwellMode
	}
	dw := QuantizeDwell(n)
	addr, data := encodeDwell(mode, dw)
	return dw.Actual(), d.writeRegister(addr, data)
}

// Program writes all the sweep parameters.
//
// Returns the sweep as actually programmed, which may differ from s in
// Increments and Dwell.
func (d *Device) Program(s Sweep) (Sweep, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s.Mode != DwellWC && s.Mode != DwellCP {
		return s, ErrInvalidDwellMode
	}
	err := d.setStartFrequency(s.Start)
	if err != nil {
		return s, err
	}
	err = d.setDeltaFrequency(s.Delta)
	if err != nil {
		return s, err
	}
	s.Increments, _, err = d.setIncrementCount(s.Increments)
	if err != nil {
		return s, err
	}
	s.Dwell, err = d.setDwellTime(s.Mode, s.Dwell)
	return s, err
}

// TriggerControl pulses the CTRL line.
//
// This starts a sweep, or steps an externally incremented sweep.
func (d *Device) TriggerControl() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.triggerControl()
}

func (d *Device) triggerControl() error {
	err := d.gpio.SetValue(d.ctrl, 1)
	if err != nil {
		return err
	}
	time.Sleep(d.pulse)
	return d.gpio.SetValue(d.ctrl, 0)
}

// ReadCapacitive returns the mean of smooth consecutive samples of the input.
//
// The ADC resolution is set to 12 bits and left there.
func (d *Device) ReadCapacitive(input int, smooth uint8) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readCapacitive(input, smooth)
}

func (d *Device) readCapacitive(input int, smooth uint8) (int, error) {
	if d.adc == nil {
		return 0, ErrNoADC
	}
	if smooth == 0 {
		return 0, ErrInvalidSmoothing
	}
	err := d.adc.SetResolution(CapResolution)
	if err != nil {
		return 0, fmt.Errorf("failed to set ADC resolution: %w", err)
	}
	sum := 0
	for i := uint8(0); i < smooth; i++ {
		v, err := d.adc.Read(input)
		if err != nil {
			return 0, fmt.Errorf("failed to read input %d: %w", input, err)
		}
		sum += int(v)
	}
	return sum / int(smooth), nil
}

// Scan samples the capacitive input across an externally incremented sweep.
//
// Each sample is the mean of smooth reads, and CTRL is pulsed after each
// sample to step the sweep. BufferSize(smooth) samples are returned.
func (d *Device) Scan(ctx context.Context, input int, smooth uint8) ([]int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	buf := make([]int, BufferSize(smooth))
	for i := range buf {
		select {
		case <-ctx.Done():
			return buf[:i], ctx.Err()
		default:
		}
		v, err := d.readCapacitive(input, smooth)
		if err != nil {
			return buf[:i], err
		}
		buf[i] = v
		err = d.triggerControl()
		if err != nil {
			return buf[:i+1], err
		}
	}
	return buf, nil
}

// writeRegister shifts a frame out to the chip, MSB first.
//
// The chip samples SDATA on the falling edge of SCLK, and the frame is
// delimited by FSYNC.
func (d *Device) writeRegister(addr uint8, data uint16) error {
	frame := EncodeFrame(addr, data)
	err := d.gpio.SetValue(d.fsync, 1)
	if err != nil {
		return err
	}
	err = d.gpio.SetValue(d.sclk, 1)
	if err != nil {
		return err
	}
	err = d.gpio.SetValue(d.fsync, 0)
	if err != nil {
		return err
	}
	for _, b := range []uint8{uint8(frame >> 8), uint8(frame)} {
		err = d.shiftOut(b)
		if err != nil {
			return fmt.Errorf("failed to write register 0x%x: %w", addr, err)
		}
	}
	return d.gpio.SetValue(d.fsync, 1)
}

func (d *Device) shiftOut(b uint8) error {
	for i := 7; i >= 0; i-- {
		err := d.gpio.SetValue(d.sdata, int(b>>uint(i))&0x01)
		if err != nil {
			return err
		}
		d.sleep()
		err = d.gpio.SetValue(d.sclk, 1)
		if err != nil {
			return err
		}
		d.sleep()
		err = d.gpio.SetValue(d.sclk, 0)
		if err != nil {
			return err
		}
	}
	return nil
}

func (d *Device) sleep() {
	if d.tclk > 0 {
		time.Sleep(d.tclk)
	}
}
