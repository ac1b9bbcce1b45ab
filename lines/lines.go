// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package lines provides the GPIO lines driving an AD5932, using the GPIO
// character device.
package lines

import (
	"errors"
	"fmt"
	"sync"

	"github.com/warthog618/gpiod"
)

// Bank is a set of output lines on a single GPIO chip.
//
// Lines are requested from the chip the first time they are configured as
// outputs, and held until the Bank is closed.
type Bank struct {
	mu       sync.Mutex
	chip     *gpiod.Chip
	consumer string
	lines    map[int]*gpiod.Line
}

var (
	// ErrClosed indicates the Bank is closed.
	ErrClosed = errors.New("bank closed")

	// ErrNotOutput indicates the line has not been configured as an output.
	ErrNotOutput = errors.New("line not configured as output")
)

// New opens the named GPIO chip.
//
// The chip may be named by its name, e.g. gpiochip0, or by its path,
// e.g. /dev/gpiochip0.
func New(chip string, options ...Option) (*Bank, error) {
	b := Bank{consumer: "ad5932", lines: make(map[int]*gpiod.Line)}
	for _, option := range options {
		option(&b)
	}
	c, err := gpiod.NewChip(chip, gpiod.WithConsumer(b.consumer))
	if err != nil {
		return nil, fmt.Errorf("failed to open chip %s: %w", chip, err)
	}
	b.chip = c
	return &b, nil
}

// Chip returns the chip containing the lines.
//
// This allows other devices, such as an ADC, to request lines from the
// same chip.
func (b *Bank) Chip() *gpiod.Chip {
	return b.chip
}

// Close releases all lines and the chip.
func (b *Bank) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.chip == nil {
		return ErrClosed
	}
	for o, l := range b.lines {
		l.Close()
		delete(b.lines, o)
	}
	err := b.chip.Close()
	b.chip = nil
	return err
}

// Output configures the line as an output driven to value.
func (b *Bank) Output(offset, value int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.chip == nil {
		return ErrClosed
	}
	if l, ok := b.lines[offset]; ok {
		err := l.Reconfigure(gpiod.AsOutput(value))
		if err != nil {
			return fmt.Errorf("failed to reconfigure line %d: %w", offset, err)
		}
		return nil
	}
	l, err := b.chip.RequestLine(offset, gpiod.AsOutput(value))
	if err != nil {
		return fmt.Errorf("failed to request line %d: %w", offset, err)
	}
	b.lines[offset] = l
	return nil
}

// SetValue sets the level of an output line.
func (b *Bank) SetValue(offset, value int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.chip == nil {
		return ErrClosed
	}
	l, ok := b.lines[offset]
	if !ok {
		return ErrNotOutput
	}
	return l.SetValue(value)
}

// Option specifies a construction option for the Bank.
type Option func(*Bank)

// WithConsumer sets the consumer label reported for lines held by the Bank.
func WithConsumer(consumer string) Option {
	return func(b *Bank) {
		b.consumer = consumer
	}
}
