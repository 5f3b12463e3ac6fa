// Package signal provides non-interleaved buffers used by processors and
// conversions to the formats used by codecs:
//	- interleaved ints of fixed bit depth
//	- float32 output buffers
package signal

import (
	"math"
	"time"
)

// Float64 is a non-interleaved float64 signal, [channel][sample].
type Float64 [][]float64

const (
	// BitDepth8 is 8 bit depth.
	BitDepth8 = BitDepth(8)
	// BitDepth16 is 16 bit depth.
	BitDepth16 = BitDepth(16)
	// BitDepth24 is 24 bit depth.
	BitDepth24 = BitDepth(24)
	// BitDepth32 is 32 bit depth.
	BitDepth32 = BitDepth(32)
)

// BitDepth contains values required for int-to-float and backward conversion.
type BitDepth int

// InterInt is an interleaved int signal.
type InterInt struct {
	Data        []int
	NumChannels int
	BitDepth
}

// maxValue is the full-scale int value for the bit depth.
func (bitDepth BitDepth) maxValue() float64 {
	switch bitDepth {
	case BitDepth8:
		return math.MaxInt8
	case BitDepth16:
		return math.MaxInt16
	case BitDepth24:
		return 1<<23 - 1
	case BitDepth32:
		return math.MaxInt32
	default:
		return 1
	}
}

// DurationOf returns time duration of passed samples for this sample rate.
func DurationOf(sampleRate float64, samples int64) time.Duration {
	return time.Duration(float64(samples) / sampleRate * float64(time.Second))
}

// EmptyFloat64 returns a zeroed buffer of specified dimensions.
func EmptyFloat64(numChannels int, bufferSize int) Float64 {
	result := make([][]float64, numChannels)
	for i := range result {
		result[i] = make([]float64, bufferSize)
	}
	return result
}

// AsFloat64 converts interleaved int signal to float64.
func (ints InterInt) AsFloat64() Float64 {
	if ints.Data == nil || ints.NumChannels == 0 {
		return nil
	}
	size := int(math.Ceil(float64(len(ints.Data)) / float64(ints.NumChannels)))
	floats := EmptyFloat64(ints.NumChannels, size)
	max := ints.BitDepth.maxValue()
	for i, v := range ints.Data {
		floats[i%ints.NumChannels][i/ints.NumChannels] = float64(v) / max
	}
	return floats
}

// AsInterInt converts float64 signal to interleaved int. Samples are
// clipped to [-1, 1] range.
func (floats Float64) AsInterInt(bitDepth BitDepth) []int {
	numChannels := floats.NumChannels()
	if numChannels == 0 {
		return nil
	}
	max := bitDepth.maxValue()
	ints := make([]int, floats.Size()*numChannels)
	for c := range floats {
		for i, v := range floats[c] {
			ints[i*numChannels+c] = int(math.Max(-1, math.Min(1, v)) * max)
		}
	}
	return ints
}

// AsFloat32 returns a float32 copy of the signal.
func (floats Float64) AsFloat32() [][]float32 {
	if floats == nil {
		return nil
	}
	result := make([][]float32, len(floats))
	for c := range floats {
		result[c] = make([]float32, len(floats[c]))
		for i, v := range floats[c] {
			result[c][i] = float32(v)
		}
	}
	return result
}

// Float32 is a non-interleaved float32 signal.
type Float32 [][]float32

// AsFloat64 returns a float64 copy of the signal.
func (floats Float32) AsFloat64() Float64 {
	if floats == nil {
		return nil
	}
	result := make(Float64, len(floats))
	for c := range floats {
		result[c] = make([]float64, len(floats[c]))
		for i, v := range floats[c] {
			result[c][i] = float64(v)
		}
	}
	return result
}

// NumChannels returns number of channels in this sample slice.
func (floats Float64) NumChannels() int {
	return len(floats)
}

// Size returns number of samples in single channel.
func (floats Float64) Size() int {
	if floats.NumChannels() == 0 {
		return 0
	}
	return len(floats[0])
}

// Clear sets all samples to zero.
func (floats Float64) Clear() {
	for c := range floats {
		for i := range floats[c] {
			floats[c][i] = 0
		}
	}
}

// Append buffers set to existing one.
// New buffer is returned if floats is nil.
func (floats Float64) Append(source Float64) Float64 {
	if floats == nil {
		floats = make([][]float64, source.NumChannels())
		for i := range floats {
			floats[i] = make([]float64, 0, source.Size())
		}
	}
	for i := range source {
		floats[i] = append(floats[i], source[i]...)
	}
	return floats
}

// Slice creates a new copy of buffer from start position with defined
// length. If buffer doesn't have enough samples, shorten block is returned.
//
// if start >= buffer size, nil is returned
// if start < 0, nil is returned
func (floats Float64) Slice(start int, length int) Float64 {
	if floats == nil || start >= floats.Size() || start < 0 {
		return nil
	}
	end := start + length
	if end > floats.Size() {
		end = floats.Size()
	}
	result := make([][]float64, floats.NumChannels())
	for i := range floats {
		result[i] = append(make([]float64, 0, end-start), floats[i][start:end]...)
	}
	return result
}
