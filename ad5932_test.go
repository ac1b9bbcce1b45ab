// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package ad5932_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/ad5932"
	"github.com/warthog618/ad5932/mockup"
)

const mclk = 50000000

var lines = mockup.Lines{Sclk: 4, Sdata: 5, Fsync: 6, Ctrl: 7}

func newDevice(t *testing.T, options ...ad5932.Option) (*ad5932.Device, *mockup.Chip) {
	t.Helper()
	c := mockup.NewChip(8, lines)
	d, err := ad5932.New(mclk, lines.Sclk, lines.Sdata, lines.Fsync, lines.Ctrl, c, options...)
	require.Nil(t, err)
	require.NotNil(t, d)
	require.Nil(t, d.Init())
	c.Clear()
	return d, c
}

func TestNew(t *testing.T) {
	c := mockup.NewChip(8, lines)
	d, err := ad5932.New(0, 0, 1, 2, 3, c)
	assert.Equal(t, ad5932.ErrInvalidClock, err)
	assert.Nil(t, d)

	d, err = ad5932.New(mclk, lines.Sclk, lines.Sdata, lines.Fsync, lines.Ctrl, c)
	require.Nil(t, err)
	require.NotNil(t, d)
	assert.Equal(t, uint32(mclk), d.MasterClock())
	assert.Equal(t, ad5932.DefaultControl, d.Control())
	// no I/O until Init
	for l := 0; l < 8; l++ {
		assert.False(t, c.IsOutput(l))
	}
	assert.Empty(t, c.Writes())

	d, err = ad5932.New(mclk, 0, 1, 2, 3, c, ad5932.WithControl(ad5932.B24|ad5932.ExternalIncrement))
	require.Nil(t, err)
	assert.Equal(t, ad5932.Control(0x08f3), d.Control())
}

func TestInit(t *testing.T) {
	c := mockup.NewChip(8, lines)
	d, err := ad5932.New(mclk, lines.Sclk, lines.Sdata, lines.Fsync, lines.Ctrl, c)
	require.Nil(t, err)
	err = d.Init()
	require.Nil(t, err)
	for _, l := range []int{lines.Sclk, lines.Sdata, lines.Fsync, lines.Ctrl} {
		assert.True(t, c.IsOutput(l))
	}
	v, _ := c.Level(lines.Fsync)
	assert.Equal(t, 1, v)
	v, _ = c.Level(lines.Ctrl)
	assert.Equal(t, 0, v)
	assert.Equal(t, []mockup.Write{{Addr: ad5932.RegControl, Data: 0x0ed3}}, c.Writes())
	assert.Zero(t, c.Errors())

	// bad line
	d, err = ad5932.New(mclk, lines.Sclk, lines.Sdata, lines.Fsync, 9, c)
	require.Nil(t, err)
	err = d.Init()
	assert.True(t, errors.Is(err, mockup.ErrorIndexRange{Req: 9, Limit: 8}))
}

func TestReset(t *testing.T) {
	d, c := newDevice(t, ad5932.WithControl(ad5932.DACEnable|ad5932.SyncOutEnable))
	require.Nil(t, d.Reset())
	assert.Equal(t, []mockup.Write{{Addr: ad5932.RegControl, Data: 0x04d7}}, c.Writes())
}

func TestWriteRegister(t *testing.T) {
	d, c := newDevice(t)
	patterns := []struct {
		name  string
		addr  uint8
		data  uint16
		frame uint16
	}{
		{"deltaf high", 0x3, 0xabc, 0x3abc},
		{"zero", 0x0, 0x000, 0x0000},
		{"ones", 0xf, 0xfff, 0xffff},
		{"masked", 0x1, 0xf555, 0x1555},
		{"alternate", 0xa, 0x5a5, 0xa5a5},
	}
	for _, p := range patterns {
		tf := func(t *testing.T) {
			c.Clear()
			err := d.WriteRegister(p.addr, p.data)
			require.Nil(t, err)
			ww := c.Writes()
			require.Len(t, ww, 1)
			assert.Equal(t, p.frame, ww[0].Frame())
			assert.Zero(t, c.Errors())
			v, _ := c.Level(lines.Fsync)
			assert.Equal(t, 1, v)
		}
		t.Run(p.name, tf)
	}
}

func TestSetStartFrequency(t *testing.T) {
	patterns := []struct {
		name string
		hz   uint32
	}{
		{"zero", 0},
		{"1MHz", 1000000},
		{"10kHz", 10000},
		{"max", mclk/2 - 1},
	}
	for _, p := range patterns {
		tf := func(t *testing.T) {
			d, c := newDevice(t)
			err := d.SetStartFrequency(p.hz)
			require.Nil(t, err)
			ww := c.Writes()
			require.Len(t, ww, 2)
			assert.Equal(t, ad5932.RegFStartL, ww[0].Addr)
			assert.Equal(t, ad5932.RegFStartH, ww[1].Addr)
			word := uint32(ww[1].Data)<<12 | uint32(ww[0].Data)
			assert.Equal(t, ad5932.FrequencyWord(p.hz, mclk), word)
		}
		t.Run(p.name, tf)
	}
	d, c := newDevice(t)
	require.Nil(t, d.SetStartFrequency(1000000))
	assert.Equal(t, []mockup.Write{
		{Addr: ad5932.RegFStartL, Data: 335544 & 0xfff},
		{Addr: ad5932.RegFStartH, Data: 335544 >> 12},
	}, c.Writes())
}

func TestSetDeltaFrequency(t *testing.T) {
	d, c := newDevice(t)
	require.Nil(t, d.SetDeltaFrequency(5000))
	up := c.Writes()
	c.Clear()
	require.Nil(t, d.SetDeltaFrequency(-5000))
	down := c.Writes()
	require.Len(t, up, 2)
	require.Len(t, down, 2)
	word := ad5932.FrequencyWord(5000, mclk)
	assert.Equal(t, mockup.Write{Addr: ad5932.RegDeltaFL, Data: uint16(word & 0xfff)}, up[0])
	assert.Equal(t, mockup.Write{Addr: ad5932.RegDeltaFH, Data: uint16(word >> 12)}, up[1])
	assert.Equal(t, up[0], down[0])
	assert.Equal(t, ad5932.RegDeltaFH, down[1].Addr)
	assert.Equal(t, up[1].Data|0x800, down[1].Data)
	assert.Zero(t, up[1].Data&0x800)

	// large magnitudes are masked to 11 bits
	c.Clear()
	require.Nil(t, d.SetDeltaFrequency(-2147483648))
	ww := c.Writes()
	require.Len(t, ww, 2)
	word = uint32((uint64(1) << 55) / mclk)
	assert.Equal(t, uint16(word&0xfff), ww[0].Data)
	assert.Equal(t, uint16(0x800|(word>>12)&0x7ff), ww[1].Data)

	// only a positive step clears the sign
	c.Clear()
	require.Nil(t, d.SetDeltaFrequency(0))
	assert.Equal(t, []mockup.Write{
		{Addr: ad5932.RegDeltaFL},
		{Addr: ad5932.RegDeltaFH, Data: 0x800},
	}, c.Writes())
	v, ok := c.Register(ad5932.RegDeltaFH)
	assert.True(t, ok)
	assert.Equal(t, uint16(0x800), v)
	c.Clear()
	require.Nil(t, d.SetDeltaFrequency(1))
	v, _ = c.Register(ad5932.RegDeltaFH)
	assert.Zero(t, v&0x800)
}

func TestSetIncrementCount(t *testing.T) {
	patterns := []struct {
		name    string
		n       uint16
		val     uint16
		clamped bool
	}{
		{"low", 0, 2, true},
		{"min", 2, 2, false},
		{"mid", 100, 100, false},
		{"max", 4095, 4095, false},
		{"high", 5000, 4095, true},
	}
	for _, p := range patterns {
		tf := func(t *testing.T) {
			d, c := newDevice(t)
			v, clamped, err := d.SetIncrementCount(p.n)
			require.Nil(t, err)
			assert.Equal(t, p.val, v)
			assert.Equal(t, p.clamped, clamped)
			assert.Equal(t, []mockup.Write{{Addr: ad5932.RegNIncr, Data: p.val}}, c.Writes())
		}
		t.Run(p.name, tf)
	}
}

func TestSetDwellTime(t *testing.T) {
	patterns := []struct {
		name   string
		mode   ad5932.DwellMode
		n      uint32
		actual uint32
		w      mockup.Write
	}{
		{"wc x1", ad5932.DwellWC, 100, 100, mockup.Write{Addr: 0x4, Data: 100}},
		{"cp x1", ad5932.DwellCP, 100, 100, mockup.Write{Addr: 0x6, Data: 100}},
		{"wc min", ad5932.DwellWC, 1, 2, mockup.Write{Addr: 0x4, Data: 2}},
		{"wc x5", ad5932.DwellWC, 10230, 10230, mockup.Write{Addr: 0x4, Data: 0x800 | 2046}},
		{"cp x5", ad5932.DwellCP, 2049, 2045, mockup.Write{Addr: 0x6, Data: 0x800 | 409}},
		{"wc x100", ad5932.DwellWC, 50050, 50000, mockup.Write{Addr: 0x5, Data: 500}},
		{"cp x500", ad5932.DwellCP, 300000, 300000, mockup.Write{Addr: 0x7, Data: 0x800 | 600}},
		{"cp clamp", ad5932.DwellCP, 1500000, 1023500, mockup.Write{Addr: 0x7, Data: 0xfff}},
	}
	for _, p := range patterns {
		tf := func(t *testing.T) {
			d, c := newDevice(t)
			actual, err := d.SetDwellTime(p.mode, p.n)
			require.Nil(t, err)
			assert.Equal(t, p.actual, actual)
			assert.Equal(t, []mockup.Write{p.w}, c.Writes())
		}
		t.Run(p.name, tf)
	}
	d, c := newDevice(t)
	_, err := d.SetDwellTime(ad5932.DwellMode(2), 100)
	assert.Equal(t, ad5932.ErrInvalidDwellMode, err)
	assert.Empty(t, c.Writes())
}

func TestProgram(t *testing.T) {
	d, c := newDevice(t)
	s := ad5932.Sweep{
		Start:      1000000,
		Delta:      -100,
		Increments: 1,
		Mode:       ad5932.DwellCP,
		Dwell:      2049,
	}
	ps, err := d.Program(s)
	require.Nil(t, err)
	assert.Equal(t, uint16(2), ps.Increments)
	assert.Equal(t, uint32(2045), ps.Dwell)
	assert.Equal(t, s.Start, ps.Start)
	assert.Equal(t, s.Delta, ps.Delta)
	ww := c.Writes()
	require.Len(t, ww, 6)
	addrs := []uint8{}
	for _, w := range ww {
		addrs = append(addrs, w.Addr)
	}
	assert.Equal(t, []uint8{0xc, 0xd, 0x2, 0x3, 0x1, 0x6}, addrs)
	v, ok := c.Register(ad5932.RegDeltaFH)
	assert.True(t, ok)
	assert.NotZero(t, v&0x800)

	c.Clear()
	s.Mode = ad5932.DwellMode(-1)
	_, err = d.Program(s)
	assert.Equal(t, ad5932.ErrInvalidDwellMode, err)
	assert.Empty(t, c.Writes())
}

func TestTriggerControl(t *testing.T) {
	d, c := newDevice(t, ad5932.WithPulseWidth(0))
	start := time.Now()
	require.Nil(t, d.TriggerControl())
	assert.GreaterOrEqual(t, time.Since(start), ad5932.MinPulseWidth)
	require.Nil(t, d.TriggerControl())
	assert.Equal(t, 2, c.Pulses())
	ww := c.PulseWidths()
	require.Len(t, ww, 2)
	for _, w := range ww {
		assert.GreaterOrEqual(t, w, ad5932.MinPulseWidth)
	}
	v, _ := c.Level(lines.Ctrl)
	assert.Equal(t, 0, v)
	assert.Empty(t, c.Writes())

	// the requested width is held
	d, c = newDevice(t, ad5932.WithPulseWidth(500*time.Microsecond))
	require.Nil(t, d.TriggerControl())
	ww = c.PulseWidths()
	require.Len(t, ww, 1)
	assert.GreaterOrEqual(t, ww[0], 500*time.Microsecond)
}

func TestReadCapacitive(t *testing.T) {
	adc := mockup.NewADC(4)
	adc.SetSamples(2, 1000, 1001, 1003, 4095)
	d, _ := newDevice(t, ad5932.WithADC(adc))
	v, err := d.ReadCapacitive(2, 3)
	require.Nil(t, err)
	assert.Equal(t, 1001, v)
	assert.Equal(t, uint(12), adc.Resolution())
	assert.Equal(t, 3, adc.Reads())

	// truncating mean
	adc.SetSamples(1, 1, 2)
	v, err = d.ReadCapacitive(1, 2)
	require.Nil(t, err)
	assert.Equal(t, 1, v)

	// resolution forced on each read
	require.Nil(t, adc.SetResolution(8))
	adc.SetSamples(1, 0xfff)
	v, err = d.ReadCapacitive(1, 1)
	require.Nil(t, err)
	assert.Equal(t, 0xfff, v)

	_, err = d.ReadCapacitive(1, 0)
	assert.Equal(t, ad5932.ErrInvalidSmoothing, err)

	_, err = d.ReadCapacitive(4, 1)
	assert.True(t, errors.Is(err, mockup.ErrorIndexRange{Req: 4, Limit: 4}))

	failed := errors.New("failed")
	adc.SetError(failed)
	_, err = d.ReadCapacitive(1, 1)
	assert.True(t, errors.Is(err, failed))

	d, _ = newDevice(t)
	_, err = d.ReadCapacitive(1, 1)
	assert.Equal(t, ad5932.ErrNoADC, err)
}

func TestScan(t *testing.T) {
	adc := mockup.NewADC(1)
	adc.SetSamples(0, 10, 20, 30)
	d, c := newDevice(t, ad5932.WithADC(adc))
	buf, err := d.Scan(context.Background(), 0, 12)
	require.Nil(t, err)
	require.Len(t, buf, 93)
	for _, v := range buf {
		assert.Equal(t, 20, v)
	}
	assert.Equal(t, 93, c.Pulses())
	assert.Equal(t, 93*12, adc.Reads())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	buf, err = d.Scan(ctx, 0, 12)
	assert.Equal(t, context.Canceled, err)
	assert.Empty(t, buf)

	// partial on failure
	c.Clear()
	c.FailAfter(5, errors.New("failed"))
	buf, err = d.Scan(context.Background(), 0, 1)
	assert.NotNil(t, err)
	assert.Len(t, buf, 3)
	c.FailAfter(0, nil)
}

func TestWriteError(t *testing.T) {
	d, c := newDevice(t)
	failed := errors.New("failed")
	patterns := []struct {
		name  string
		after int
	}{
		{"fsync", 0},
		{"sclk", 1},
		{"frame start", 2},
		{"data", 3},
		{"clock", 20},
		{"last clock", 50},
		{"latch", 51},
	}
	for _, p := range patterns {
		tf := func(t *testing.T) {
			c.FailAfter(p.after, failed)
			err := d.Reset()
			assert.True(t, errors.Is(err, failed))
			c.FailAfter(0, nil)
		}
		t.Run(p.name, tf)
	}
	c.Clear()
	require.Nil(t, d.Reset())
	ww := c.Writes()
	require.NotEmpty(t, ww)
	assert.Equal(t, mockup.Write{Addr: ad5932.RegControl, Data: 0x0ed3}, ww[len(ww)-1])
}
