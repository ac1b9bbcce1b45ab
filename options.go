// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package ad5932

import "time"

// Option specifies a construction option for the Device.
type Option func(*Device)

// WithControl sets the value written to the control register by Reset.
//
// The reserved bits are always set.
func WithControl(c Control) Option {
	return func(d *Device) {
		d.control = c | controlReserved
	}
}

// WithADC provides the converter used to read the capacitive input.
func WithADC(adc ADC) Option {
	return func(d *Device) {
		d.adc = adc
	}
}

// WithTclk sets the time between edges of SCLK.
//
// Note that this is the half-cycle period.
// The default is zero, so the bit rate is limited only by the GPIO backend.
func WithTclk(tclk time.Duration) Option {
	return func(d *Device) {
		d.tclk = tclk
	}
}

// WithPulseWidth sets the width of the pulse generated by TriggerControl.
//
// Widths below 1µs are raised to 1µs.
func WithPulseWidth(width time.Duration) Option {
	return func(d *Device) {
		if width < MinPulseWidth {
			width = MinPulseWidth
		}
		d.pulse = width
	}
}
