// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package spi provides a bit bashed SPI master using GPIO lines.
package spi

import (
	"errors"
	"fmt"
	"time"

	"github.com/warthog618/gpiod"
)

// Line is a GPIO line used by the SPI.
//
// *gpiod.Line satisfies this interface.
type Line interface {
	Value() (int, error)
	SetValue(value int) error
	Close() error
}

// SPI represents a device connected an SPI bus using 4 GPIO lines.
//
// This is the basis for bit bashed SPI interfaces using GPIO pins. It is not
// related to the SPI device drivers provided by Linux.
type SPI struct {
	// time between clock edges (i.e. half the cycle time)
	Tclk time.Duration
	Sclk Line
	Ssz  Line
	Mosi Line
	Miso Line
	cpol int
	cpha int
}

// ErrSharedLine indicates the same offset was given for Mosi and Miso.
var ErrSharedLine = errors.New("mosi and miso must be separate lines")

// New creates a SPI using lines requested from the chip.
//
// Sclk, Ssz and Mosi are requested as outputs, and Miso as an input.
func New(c *gpiod.Chip, sclk, ssz, mosi, miso int, options ...Option) (*SPI, error) {
	if mosi == miso {
		return nil, ErrSharedLine
	}
	var err error
	var ll [4]*gpiod.Line
	defer func() {
		if err != nil {
			for _, l := range ll {
				if l != nil {
					l.Close()
				}
			}
		}
	}()
	// hold SPI reset until needed...
	ll[0], err = c.RequestLine(ssz, gpiod.AsOutput(1))
	if err != nil {
		return nil, fmt.Errorf("failed to request ssz line: %w", err)
	}
	ll[1], err = c.RequestLine(sclk, gpiod.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("failed to request sclk line: %w", err)
	}
	ll[2], err = c.RequestLine(miso, gpiod.AsInput)
	if err != nil {
		return nil, fmt.Errorf("failed to request miso line: %w", err)
	}
	ll[3], err = c.RequestLine(mosi, gpiod.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("failed to request mosi line: %w", err)
	}
	s := NewFromLines(ll[1], ll[0], ll[3], ll[2], options...)
	// the lines were requested idle low
	if s.cpol != 0 {
		err = s.Sclk.SetValue(1)
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

// NewFromLines creates a SPI from lines that are already configured.
//
// Sclk, Ssz and Mosi must be outputs, and Miso an input.
func NewFromLines(sclk, ssz, mosi, miso Line, options ...Option) *SPI {
	s := SPI{Sclk: sclk, Ssz: ssz, Mosi: mosi, Miso: miso}
	for _, option := range options {
		option(&s)
	}
	if s.Tclk == 0 {
		// default to 1MHz full cycle.
		s.Tclk = 500 * time.Nanosecond
	}
	return &s
}

// Close releases allocated resources.
func (s *SPI) Close() {
	for _, l := range []Line{s.Sclk, s.Miso, s.Mosi, s.Ssz} {
		if l != nil {
			l.Close()
		}
	}
}

// Select starts a transaction.
//
// The clock is returned to idle and Mosi preset to 1 before Ssz is driven
// low.
func (s *SPI) Select() error {
	err := s.Ssz.SetValue(1)
	if err != nil {
		return err
	}
	err = s.Sclk.SetValue(s.cpol)
	if err != nil {
		return err
	}
	err = s.Mosi.SetValue(1)
	if err != nil {
		return err
	}
	time.Sleep(s.Tclk)
	return s.Ssz.SetValue(0)
}

// Deselect ends a transaction.
func (s *SPI) Deselect() error {
	return s.Ssz.SetValue(1)
}

// ClockIn clocks in a data bit from the SPI device on Miso.
//
// Starts and ends just after the trailing edge of the clock.
func (s *SPI) ClockIn() (int, error) {
	time.Sleep(s.Tclk)
	err := s.Sclk.SetValue(s.cpol ^ 1)
	if err != nil {
		return 0, err
	}
	if s.cpha == 1 {
		time.Sleep(s.Tclk)
	}
	v, err := s.Miso.Value()
	if err != nil {
		return 0, err
	}
	if s.cpha == 0 {
		time.Sleep(s.Tclk)
	}
	err = s.Sclk.SetValue(s.cpol)
	if err != nil {
		return 0, err
	}
	return v, err
}

// ClockOut clocks out a data bit to the SPI device on Mosi.
//
// Starts and ends just after the trailing edge of the clock.
func (s *SPI) ClockOut(v int) error {
	if s.cpha == 1 {
		time.Sleep(s.Tclk)
	}
	err := s.Mosi.SetValue(v)
	if err != nil {
		return err
	}
	if s.cpha == 0 {
		time.Sleep(s.Tclk)
	}
	err = s.Sclk.SetValue(s.cpol ^ 1)
	if err != nil {
		return err
	}
	time.Sleep(s.Tclk)
	return s.Sclk.SetValue(s.cpol)
}

// ClockInWord clocks in width bits, MSB first.
func (s *SPI) ClockInWord(width uint) (uint16, error) {
	var d uint16
	for i := uint(0); i < width; i++ {
		v, err := s.ClockIn()
		if err != nil {
			return 0, err
		}
		d = d << 1
		if v != 0 {
			d = d | 0x01
		}
	}
	return d, nil
}

// Option specifies a construction option for the SPI.
type Option func(*SPI)

// WithCPOL sets the cpol for the SPI.
func WithCPOL(cpol int) Option {
	return func(s *SPI) {
		s.cpol = cpol & 0x01
	}
}

// WithCPHA sets the cpha for the SPI.
func WithCPHA(cpha int) Option {
	return func(s *SPI) {
		s.cpha = cpha & 0x01
	}
}

// WithTclk sets the clock period for the SPI.
//
// Note that this is the half-cycle period.
func WithTclk(tclk time.Duration) Option {
	return func(s *SPI) {
		s.Tclk = tclk
	}
}
