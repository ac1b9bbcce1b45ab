// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package ad5932_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/warthog618/ad5932"
)

func TestQuantizeDwell(t *testing.T) {
	patterns := []struct {
		name string
		n    uint32
		dw   ad5932.Dwell
	}{
		{"zero", 0, ad5932.Dwell{Count: 2, Multiplier: 1}},
		{"one", 1, ad5932.Dwell{Count: 2, Multiplier: 1}},
		{"min", 2, ad5932.Dwell{Count: 2, Multiplier: 1}},
		{"x1", 1000, ad5932.Dwell{Count: 1000, Multiplier: 1}},
		{"x1 max", 2047, ad5932.Dwell{Count: 2047, Multiplier: 1}},
		{"x5 min", 2048, ad5932.Dwell{Count: 409, Multiplier: 5, Select: 1}},
		{"x5 trunc", 10233, ad5932.Dwell{Count: 2046, Multiplier: 5, Select: 1}},
		{"x5 max", 10235, ad5932.Dwell{Count: 2047, Multiplier: 5, Select: 1}},
		{"x100 min", 10236, ad5932.Dwell{Count: 102, Multiplier: 100, Select: 2}},
		{"x100 max", 204700, ad5932.Dwell{Count: 2047, Multiplier: 100, Select: 2}},
		{"x500 min", 204701, ad5932.Dwell{Count: 409, Multiplier: 500, Select: 3}},
		{"x500 max", 1023500, ad5932.Dwell{Count: 2047, Multiplier: 500, Select: 3}},
		{"clamped", 1023501, ad5932.Dwell{Count: 2047, Multiplier: 500, Select: 3}},
		{"huge", 1500000, ad5932.Dwell{Count: 2047, Multiplier: 500, Select: 3}},
	}
	for _, p := range patterns {
		tf := func(t *testing.T) {
			dw := ad5932.QuantizeDwell(p.n)
			assert.Equal(t, p.dw, dw)
			assert.Equal(t, uint32(p.dw.Count)*p.dw.Multiplier, dw.Actual())
			if p.n >= ad5932.MinDwellCount {
				assert.LessOrEqual(t, dw.Actual(), p.n)
			}
		}
		t.Run(p.name, tf)
	}
}

func TestQuantizeDwellX5(t *testing.T) {
	for n := uint32(2048); n <= 10235; n++ {
		dw := ad5932.QuantizeDwell(n)
		if dw.Multiplier != 5 || dw.Actual() != n/5*5 {
			t.Fatalf("n=%d: got %+v", n, dw)
		}
	}
}

func TestClampIncrements(t *testing.T) {
	patterns := []struct {
		name    string
		n       uint16
		val     uint16
		clamped bool
	}{
		{"zero", 0, 2, true},
		{"one", 1, 2, true},
		{"min", 2, 2, false},
		{"mid", 1000, 1000, false},
		{"max", 4095, 4095, false},
		{"over", 4096, 4095, true},
		{"huge", 0xffff, 4095, true},
	}
	for _, p := range patterns {
		tf := func(t *testing.T) {
			v, clamped := ad5932.ClampIncrements(p.n)
			assert.Equal(t, p.val, v)
			assert.Equal(t, p.clamped, clamped)
		}
		t.Run(p.name, tf)
	}
	for n := uint16(2); n <= 4095; n++ {
		v, clamped := ad5932.ClampIncrements(n)
		if v != n || clamped {
			t.Fatalf("n=%d: got %d", n, v)
		}
	}
}

func TestFrequencyWord(t *testing.T) {
	patterns := []struct {
		name string
		hz   uint32
		mclk uint32
		word uint32
	}{
		{"zero", 0, 50000000, 0},
		{"1MHz", 1000000, 50000000, 335544},
		{"half", 25000000, 50000000, 0x800000},
		{"1Hz", 1, 50000000, 0},
		{"max", 0xffffffff, 50000000, 1441151880},
		{"unity", 16777216, 16777216, 0x1000000},
	}
	for _, p := range patterns {
		tf := func(t *testing.T) {
			assert.Equal(t, p.word, ad5932.FrequencyWord(p.hz, p.mclk))
		}
		t.Run(p.name, tf)
	}
	assert.InDelta(t, 999999.05, ad5932.Frequency(335544, 50000000), 0.01)
	assert.Equal(t, 25000000.0, ad5932.Frequency(0x800000, 50000000))
}

func TestEncodeFrame(t *testing.T) {
	assert.Equal(t, uint16(0x3abc), ad5932.EncodeFrame(0x3, 0xabc))
	assert.Equal(t, uint16(0xd123), ad5932.EncodeFrame(0xd, 0xf123))
	assert.Equal(t, uint16(0x0fff), ad5932.EncodeFrame(0, 0xffff))
}

func TestDwellModeString(t *testing.T) {
	assert.Equal(t, "wc", ad5932.DwellWC.String())
	assert.Equal(t, "cp", ad5932.DwellCP.String())
	assert.Equal(t, "unknown", ad5932.DwellMode(5).String())
}

func TestBufferSize(t *testing.T) {
	sizes := map[uint8]int{
		1: 490, 2: 355, 3: 275, 4: 230, 5: 192, 6: 168,
		7: 148, 8: 133, 9: 120, 10: 109, 11: 101, 12: 93,
	}
	for i := 0; i < 256; i++ {
		s := uint8(i)
		expected, ok := sizes[s]
		if !ok {
			expected = 500
		}
		assert.Equal(t, expected, ad5932.BufferSize(s), "smooth %d", s)
	}
}
