// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package ad5932_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/ad5932"
	"github.com/warthog618/ad5932/mockup"
)

func TestWithControl(t *testing.T) {
	patterns := []struct {
		name    string
		control ad5932.Control
		written uint16
	}{
		{"reserved only", 0, 0x00d3},
		{"default", ad5932.DefaultControl, 0x0ed3},
		{"external increment", ad5932.DefaultControl | ad5932.ExternalIncrement, 0x0ef3},
		{"msb out", ad5932.B24 | ad5932.MSBOutEnable, 0x09d3},
		{"sync", ad5932.DefaultControl | ad5932.SyncSelect | ad5932.SyncOutEnable, 0x0edf},
	}
	for _, p := range patterns {
		tf := func(t *testing.T) {
			d, c := newDevice(t, ad5932.WithControl(p.control))
			assert.Equal(t, ad5932.Control(p.written), d.Control())
			require.Nil(t, d.Reset())
			v, ok := c.Register(ad5932.RegControl)
			assert.True(t, ok)
			assert.Equal(t, p.written, v)
		}
		t.Run(p.name, tf)
	}
}

func TestWithADC(t *testing.T) {
	d, _ := newDevice(t)
	_, err := d.ReadCapacitive(0, 1)
	assert.Equal(t, ad5932.ErrNoADC, err)

	adc := mockup.NewADC(1)
	adc.SetSamples(0, 42)
	d, _ = newDevice(t, ad5932.WithADC(adc))
	v, err := d.ReadCapacitive(0, 1)
	require.Nil(t, err)
	assert.Equal(t, 42, v)
}

func TestWithTclk(t *testing.T) {
	tclk := 10 * time.Microsecond
	d, c := newDevice(t, ad5932.WithTclk(tclk))
	start := time.Now()
	require.Nil(t, d.Reset())
	// two edges per bit
	assert.GreaterOrEqual(t, time.Since(start), 32*tclk)
	assert.Len(t, c.Writes(), 1)
}

func TestWithPulseWidth(t *testing.T) {
	patterns := []struct {
		name  string
		width time.Duration
		min   time.Duration
	}{
		{"zero", 0, ad5932.MinPulseWidth},
		{"negative", -time.Second, ad5932.MinPulseWidth},
		{"wide", 2 * time.Millisecond, 2 * time.Millisecond},
	}
	for _, p := range patterns {
		tf := func(t *testing.T) {
			d, c := newDevice(t, ad5932.WithPulseWidth(p.width))
			start := time.Now()
			require.Nil(t, d.TriggerControl())
			assert.GreaterOrEqual(t, time.Since(start), p.min)
			assert.Equal(t, 1, c.Pulses())
		}
		t.Run(p.name, tf)
	}
}
