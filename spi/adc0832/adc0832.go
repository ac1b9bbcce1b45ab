// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package adc0832 provides a bit bashed device driver ADC0832s.
package adc0832

import (
	"errors"
	"sync"
	"time"

	"github.com/warthog618/ad5932/analog"
	"github.com/warthog618/ad5932/spi"
	"github.com/warthog618/gpiod"
)

// Width is the native resolution of the ADC0832.
const Width = 8

// ADC0832 reads ADC values from a connected ADC0832.
type ADC0832 struct {
	mu sync.Mutex
	s  *spi.SPI
	// time to allow mux to settle after clocking out ODD/SIGN
	tset       time.Duration
	resolution uint
}

var (
	// ErrClosed indicates the ADC is closed.
	ErrClosed = errors.New("closed")

	// ErrInvalidChannel indicates a channel other than 0 or 1.
	ErrInvalidChannel = errors.New("invalid channel")
)

// New creates a ADC0832 with lines requested from the chip.
func New(c *gpiod.Chip, clk, csz, di, do int, options ...Option) (*ADC0832, error) {
	s, err := spi.New(c, clk, csz, di, do, spi.WithTclk(2500*time.Nanosecond))
	if err != nil {
		return nil, err
	}
	return NewFromSPI(s, options...), nil
}

// NewFromSPI creates a ADC0832 on an existing SPI.
func NewFromSPI(s *spi.SPI, options ...Option) *ADC0832 {
	a := ADC0832{s: s, resolution: Width}
	for _, option := range options {
		option(&a)
	}
	return &a
}

// Close releases all resources allocated by the ADC.
func (adc *ADC0832) Close() error {
	adc.mu.Lock()
	defer adc.mu.Unlock()
	if adc.s == nil {
		return ErrClosed
	}
	adc.s.Close()
	adc.s = nil
	return nil
}

// SetResolution sets the resolution of returned samples.
//
// Samples wider than 8 bits are zero padded.
func (adc *ADC0832) SetResolution(bits uint) error {
	err := analog.Validate(bits)
	if err != nil {
		return err
	}
	adc.mu.Lock()
	defer adc.mu.Unlock()
	adc.resolution = bits
	return nil
}

// Read returns the value of a single channel read from the ADC.
func (adc *ADC0832) Read(ch int) (uint16, error) {
	return adc.read(ch, 1)
}

// ReadDifferential returns the value of a differential pair read from the ADC.
//
// Channel 0 is CH0 positive, and channel 1 is CH1 positive.
func (adc *ADC0832) ReadDifferential(ch int) (uint16, error) {
	return adc.read(ch, 0)
}

func (adc *ADC0832) read(ch int, sgl int) (uint16, error) {
	adc.mu.Lock()
	defer adc.mu.Unlock()
	if adc.s == nil {
		return 0, ErrClosed
	}
	if ch != 0 && ch != 1 {
		return 0, ErrInvalidChannel
	}
	s := adc.s
	err := s.Select()
	if err != nil {
		return 0, err
	}
	// Start, SGL/DIFZ, ODD/Sign
	for _, v := range []int{1, sgl, ch} {
		err = s.ClockOut(v)
		if err != nil {
			return 0, err
		}
	}
	// mux settling
	time.Sleep(adc.tset)
	_, err = s.ClockIn() // sample time - junk
	if err != nil {
		return 0, err
	}
	// ignore LSB first bits - same as MSB just reversed order
	d, err := s.ClockInWord(Width)
	if err != nil {
		return 0, err
	}
	err = s.Deselect()
	if err != nil {
		return 0, err
	}
	return analog.Rescale(d, Width, adc.resolution), nil
}

// Option specifies a construction option for the ADC.
type Option func(*ADC0832)

// WithTclk sets the clock period for the ADC.
//
// Note that this is the half-cycle period.
func WithTclk(tclk time.Duration) Option {
	return func(a *ADC0832) {
		a.s.Tclk = tclk
	}
}

// WithTset sets the settling period for the ADC.
func WithTset(tset time.Duration) Option {
	return func(a *ADC0832) {
		a.tset = tset
	}
}
