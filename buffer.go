// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package ad5932

// DefaultBufferSize is the buffer size for smoothing degrees outside the
// measured range.
const DefaultBufferSize = 500

// measured sample buffer lengths, indexed by smoothing degree.
var bufferSizes = [...]int{
	1:  490,
	2:  355,
	3:  275,
	4:  230,
	5:  192,
	6:  168,
	7:  148,
	8:  133,
	9:  120,
	10: 109,
	11: 101,
	12: 93,
}

// BufferSize returns the number of samples collected over a sweep when each
// sample averages smooth ADC reads.
func BufferSize(smooth uint8) int {
	if smooth == 0 || int(smooth) >= len(bufferSizes) {
		return DefaultBufferSize
	}
	return bufferSizes[smooth]
}
