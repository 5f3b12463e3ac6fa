package signal_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"pipelined.dev/render/signal"
)

func TestInterIntAsFloat64(t *testing.T) {
	tests := []struct {
		ints        []int
		numChannels int
		bitDepth    signal.BitDepth
		expected    signal.Float64
	}{
		{
			ints:        []int{1, 2, 1, 2, 1, 2, 1, 2},
			numChannels: 2,
			expected: signal.Float64{
				{1, 1, 1, 1},
				{2, 2, 2, 2},
			},
		},
		{
			ints:        []int{1, 2, 1, 2, 1},
			numChannels: 2,
			expected: signal.Float64{
				{1, 1, 1},
				{2, 2, 0},
			},
		},
		{
			ints:        []int{math.MaxInt16, -math.MaxInt16},
			numChannels: 2,
			bitDepth:    signal.BitDepth16,
			expected: signal.Float64{
				{1},
				{-1},
			},
		},
		{
			ints:     nil,
			expected: nil,
		},
		{
			ints:     []int{1, 2, 3},
			expected: nil,
		},
	}

	for _, test := range tests {
		ints := signal.InterInt{
			Data:        test.ints,
			NumChannels: test.numChannels,
			BitDepth:    test.bitDepth,
		}
		assert.Equal(t, test.expected, ints.AsFloat64())
	}
}

func TestFloat64AsInterInt(t *testing.T) {
	tests := []struct {
		floats   signal.Float64
		bitDepth signal.BitDepth
		expected []int
	}{
		{
			floats:   signal.Float64{{1, -1}, {0.5, 2}},
			bitDepth: signal.BitDepth16,
			expected: []int{math.MaxInt16, math.MaxInt16 / 2, -math.MaxInt16, math.MaxInt16},
		},
		{
			floats:   nil,
			expected: nil,
		},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, test.floats.AsInterInt(test.bitDepth))
	}
}

func TestSlice(t *testing.T) {
	tests := []struct {
		in       signal.Float64
		start    int
		length   int
		expected signal.Float64
	}{
		{
			in:       signal.Float64{{0, 1, 2, 3}, {4, 5, 6, 7}},
			start:    1,
			length:   2,
			expected: signal.Float64{{1, 2}, {5, 6}},
		},
		{
			in:       signal.Float64{{0, 1, 2, 3}},
			start:    2,
			length:   10,
			expected: signal.Float64{{2, 3}},
		},
		{
			in:       signal.Float64{{0, 1}},
			start:    2,
			length:   1,
			expected: nil,
		},
		{
			in:       signal.Float64{{0, 1}},
			start:    -1,
			length:   1,
			expected: nil,
		},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, test.in.Slice(test.start, test.length))
	}
}

func TestAppendAndClear(t *testing.T) {
	var buf signal.Float64
	buf = buf.Append(signal.Float64{{1}, {2}})
	buf = buf.Append(signal.Float64{{3}, {4}})
	assert.Equal(t, signal.Float64{{1, 3}, {2, 4}}, buf)
	assert.Equal(t, [][]float32{{1, 3}, {2, 4}}, buf.AsFloat32())
	assert.Equal(t, buf, signal.Float32(buf.AsFloat32()).AsFloat64())

	buf.Clear()
	assert.Equal(t, signal.EmptyFloat64(2, 2), buf)
}

func TestDurationOf(t *testing.T) {
	assert.Equal(t, time.Second, signal.DurationOf(44100, 44100))
	assert.Equal(t, 500*time.Millisecond, signal.DurationOf(48000, 24000))
}
