// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package analog provides helpers for ADCs with a configurable resolution.
package analog

import "errors"

// MaxResolution is the widest sample supported.
const MaxResolution = 16

// ErrInvalidResolution indicates a resolution outside the range 1..16 bits.
var ErrInvalidResolution = errors.New("resolution must be between 1 and 16 bits")

// Validate returns ErrInvalidResolution if bits is not a supported resolution.
func Validate(bits uint) error {
	if bits == 0 || bits > MaxResolution {
		return ErrInvalidResolution
	}
	return nil
}

// Rescale converts a sample from one resolution to another.
//
// Widening pads the low bits with zeros, and narrowing discards them.
func Rescale(v uint16, from, to uint) uint16 {
	switch {
	case to > from:
		return v << (to - from)
	case to < from:
		return v >> (from - to)
	}
	return v
}
