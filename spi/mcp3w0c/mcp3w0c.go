// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package mcp3w0c provides bit bashed device drivers for MCP3004/3008/3204/3208
// SPI ADCs.
package mcp3w0c

import (
	"errors"
	"sync"
	"time"

	"github.com/warthog618/ad5932/analog"
	"github.com/warthog618/ad5932/spi"
	"github.com/warthog618/gpiod"
)

// MCP3w0c reads ADC values from a connected Microchip MCP3xxx family device.
//
// Supported variants are MCP3004/3008/3204/3208.
// The w indicates the width of the device (0 => 10, 2 => 12)
// and the c the number of channels.
//
// Samples are returned at the resolution set by SetResolution, which defaults
// to the width of the device.
type MCP3w0c struct {
	mu         sync.Mutex
	s          *spi.SPI
	width      uint
	channels   int
	resolution uint
}

var (
	// ErrClosed indicates the ADC is closed.
	ErrClosed = errors.New("closed")

	// ErrInvalidChannel indicates the channel is not supported by the device.
	ErrInvalidChannel = errors.New("invalid channel")
)

// New creates a MCP3w0c with lines requested from the chip.
func New(c *gpiod.Chip, clk, csz, di, do int, width uint, channels int, options ...spi.Option) (*MCP3w0c, error) {
	s, err := spi.New(c, clk, csz, di, do, options...)
	if err != nil {
		return nil, err
	}
	return NewFromSPI(s, width, channels), nil
}

// NewFromSPI creates a MCP3w0c on an existing SPI.
func NewFromSPI(s *spi.SPI, width uint, channels int) *MCP3w0c {
	return &MCP3w0c{s: s, width: width, channels: channels, resolution: width}
}

// NewMCP3004 creates a MCP3004.
func NewMCP3004(c *gpiod.Chip, clk, csz, di, do int, options ...spi.Option) (*MCP3w0c, error) {
	return New(c, clk, csz, di, do, 10, 4, options...)
}

// NewMCP3008 creates a MCP3008.
func NewMCP3008(c *gpiod.Chip, clk, csz, di, do int, options ...spi.Option) (*MCP3w0c, error) {
	return New(c, clk, csz, di, do, 10, 8, options...)
}

// NewMCP3204 creates a MCP3204.
func NewMCP3204(c *gpiod.Chip, clk, csz, di, do int, options ...spi.Option) (*MCP3w0c, error) {
	return New(c, clk, csz, di, do, 12, 4, options...)
}

// NewMCP3208 creates a MCP3208.
func NewMCP3208(c *gpiod.Chip, clk, csz, di, do int, options ...spi.Option) (*MCP3w0c, error) {
	return New(c, clk, csz, di, do, 12, 8, options...)
}

// Close releases all resources allocated to the ADC.
func (adc *MCP3w0c) Close() error {
	adc.mu.Lock()
	defer adc.mu.Unlock()
	if adc.s == nil {
		return ErrClosed
	}
	adc.s.Close()
	adc.s = nil
	return nil
}

// Width returns the native resolution of the device.
func (adc *MCP3w0c) Width() uint {
	return adc.width
}

// Resolution returns the resolution of returned samples.
func (adc *MCP3w0c) Resolution() uint {
	adc.mu.Lock()
	defer adc.mu.Unlock()
	return adc.resolution
}

// SetResolution sets the resolution of samples returned by Read and
// ReadDifferential, for all channels.
func (adc *MCP3w0c) SetResolution(bits uint) error {
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
func (adc *MCP3w0c) Read(ch int) (uint16, error) {
	return adc.read(ch, 1)
}

// ReadDifferential returns the value of a differential pair read from the ADC.
func (adc *MCP3w0c) ReadDifferential(ch int) (uint16, error) {
	return adc.read(ch, 0)
}

func (adc *MCP3w0c) read(ch int, sgl int) (uint16, error) {
	adc.mu.Lock()
	defer adc.mu.Unlock()
	if adc.s == nil {
		return 0, ErrClosed
	}
	if ch < 0 || ch >= adc.channels {
		return 0, ErrInvalidChannel
	}
	s := adc.s
	err := s.Select()
	if err != nil {
		return 0, err
	}
	err = s.ClockOut(1) // Start
	if err != nil {
		return 0, err
	}
	err = s.ClockOut(sgl) // SGL/DIFFZ
	if err != nil {
		return 0, err
	}
	for i := 2; i >= 0; i-- {
		err = s.ClockOut((ch >> uint(i)) & 0x01)
		if err != nil {
			return 0, err
		}
	}
	// mux settling
	time.Sleep(s.Tclk)
	err = s.Sclk.SetValue(1)
	if err != nil {
		return 0, err
	}
	_, err = s.ClockIn() // null bit
	if err != nil {
		return 0, err
	}
	d, err := s.ClockInWord(adc.width)
	if err != nil {
		return 0, err
	}
	err = s.Deselect()
	if err != nil {
		return 0, err
	}
	return analog.Rescale(d, adc.width, adc.resolution), nil
}
