// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package ad5932

// Register addresses, as carried in D15-D12 of each frame.
const (
	RegControl  uint8 = 0x0
	RegNIncr    uint8 = 0x1
	RegDeltaFL  uint8 = 0x2
	RegDeltaFH  uint8 = 0x3
	RegTInt     uint8 = 0x4
	RegFStartL  uint8 = 0xc
	RegFStartH  uint8 = 0xd
	dataMask          = 0x0fff
	deltaHMask        = 0x07ff
	deltaSign         = 0x0800
	tintBaseBit       = 0x2 // D13 within the address nibble
	tintSelHiBit      = 0x1 // D12 within the address nibble
	tintSelLoBit      = 0x0800
)

// Control is the value of the control register.
type Control uint16

// Control register bits.
const (
	// B24 loads the 24-bit frequency words as two consecutive writes.
	B24 Control = 1 << 11
	// DACEnable powers up the output DAC.
	DACEnable Control = 1 << 10
	// Sine selects a sinusoidal output, else triangular.
	Sine Control = 1 << 9
	// MSBOutEnable drives the MSB of the DAC data onto the MSBOUT pin.
	MSBOutEnable Control = 1 << 8
	// ExternalIncrement steps the sweep on CTRL pulses rather than after
	// each dwell interval.
	ExternalIncrement Control = 1 << 5
	// SyncSelect pulses SYNCOUT at the end of the sweep, else at each
	// increment.
	SyncSelect Control = 1 << 3
	// SyncOutEnable enables the SYNCOUT pin.
	SyncOutEnable Control = 1 << 2

	// bits that must always be written as 1.
	controlReserved Control = 1<<7 | 1<<6 | 1<<4 | 1<<1 | 1<<0

	// DefaultControl is a 24-bit loaded sine sweep with the DAC enabled and
	// the increments internally timed.
	DefaultControl = B24 | DACEnable | Sine | controlReserved
)

// Increment count limits for the NINCR register.
const (
	MinIncrements = 2
	MaxIncrements = 4095
)

// Dwell count limits for the TINT register.
const (
	MinDwellCount = 2
	MaxDwellCount = 2047
)

// DwellMode selects the time base of the dwell interval.
type DwellMode int

const (
	// DwellWC times each increment as a number of output waveform cycles.
	DwellWC DwellMode = iota
	// DwellCP times each increment as a number of MCLK periods.
	DwellCP
)

// String returns the short name of the mode.
func (m DwellMode) String() string {
	switch m {
	case DwellWC:
		return "wc"
	case DwellCP:
		return "cp"
	}
	return "unknown"
}

// Dwell is a dwell interval as the TINT register can represent it.
type Dwell struct {
	// Count is the 11 bit count field.
	Count uint16
	// Multiplier is the scale applied to Count - 1, 5, 100 or 500.
	Multiplier uint32
	// Select is the 2 bit multiplier select - D12 in bit 1, D11 in bit 0.
	Select uint8
}

// Actual returns the dwell interval the register represents.
func (d Dwell) Actual() uint32 {
	return uint32(d.Count) * d.Multiplier
}

// QuantizeDwell finds the register encoding for a dwell of n periods.
//
// The largest multiplier is only used when the smaller cannot hold n.
// Division truncates, so the actual dwell may be less than n.
func QuantizeDwell(n uint32) Dwell {
	switch {
	case n > 500*MaxDwellCount:
		return Dwell{Count: MaxDwellCount, Multiplier: 500, Select: 3}
	case n > 100*MaxDwellCount:
		return Dwell{Count: uint16(n / 500), Multiplier: 500, Select: 3}
	case n > 5*MaxDwellCount:
		return Dwell{Count: uint16(n / 100), Multiplier: 100, Select: 2}
	case n > MaxDwellCount:
		return Dwell{Count: uint16(n / 5), Multiplier: 5, Select: 1}
	case n < MinDwellCount:
		return Dwell{Count: MinDwellCount, Multiplier: 1}
	}
	return Dwell{Count: uint16(n), Multiplier: 1}
}

// encodeDwell returns the address and data of the TINT frame for the dwell.
func encodeDwell(mode DwellMode, d Dwell) (uint8, uint16) {
	addr := RegTInt
	if mode == DwellCP {
		addr |= tintBaseBit
	}
	if d.Select&0x2 != 0 {
		addr |= tintSelHiBit
	}
	data := d.Count & deltaHMask
	if d.Select&0x1 != 0 {
		data |= tintSelLoBit
	}
	return addr, data
}

// ClampIncrements limits n to the range of the NINCR register.
//
// Returns the limited value and true if it differs from n.
func ClampIncrements(n uint16) (uint16, bool) {
	switch {
	case n < MinIncrements:
		return MinIncrements, true
	case n > MaxIncrements:
		return MaxIncrements, true
	}
	return n, false
}

// FrequencyWord converts a frequency in Hz to the 24-bit fixed point
// fraction of mclk used by the frequency registers.
//
// Frequencies at or above mclk do not fit and are truncated by the register
// writes.
func FrequencyWord(hz, mclk uint32) uint32 {
	return uint32((uint64(hz) << 24) / uint64(mclk))
}

// Frequency converts a frequency word back to Hz.
func Frequency(word, mclk uint32) float64 {
	return float64(word) * float64(mclk) / (1 << 24)
}

// deltaWords returns the DELTAF low and high register data for a signed
// frequency step.
//
// Only a positive step clears the sign bit, so a zero step is sent as
// downward.
func deltaWords(hz int32, mclk uint32) (uint16, uint16) {
	mag := int64(hz)
	var sign uint16
	if mag <= 0 {
		sign = deltaSign
	}
	if mag < 0 {
		mag = -mag
	}
	word := (uint64(mag) << 24) / uint64(mclk)
	return uint16(word & dataMask), sign | uint16((word>>12)&deltaHMask)
}

// EncodeFrame returns the 16 bit frame for a register write.
func EncodeFrame(addr uint8, data uint16) uint16 {
	return uint16(addr)<<12 | data&dataMask
}
