// Package test contains helper functions useful for testing render packages.
package test

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"pipelined.dev/render/midi"
	"pipelined.dev/render/processor"
	"pipelined.dev/render/signal"
	"pipelined.dev/render/transport"
)

// Defaults used across tests.
const (
	SampleRate = 44100.0
	BlockSize  = 441
)

// Sine returns buffer with sine wave of the given frequency in all
// channels.
func Sine(numChannels, size int, freq, sampleRate float64) signal.Float64 {
	buf := signal.EmptyFloat64(numChannels, size)
	for c := range buf {
		for i := range buf[c] {
			buf[c][i] = math.Sin(2 * math.Pi * freq * float64(i) / sampleRate)
		}
	}
	return buf
}

// Constant returns buffer filled with value.
func Constant(numChannels, size int, value float64) signal.Float64 {
	buf := signal.EmptyFloat64(numChannels, size)
	for c := range buf {
		for i := range buf[c] {
			buf[c][i] = value
		}
	}
	return buf
}

// RMS returns root mean square of samples.
func RMS(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, v := range samples {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// Peak returns max absolute value of samples.
func Peak(samples []float64) float64 {
	var peak float64
	for _, v := range samples {
		peak = math.Max(peak, math.Abs(v))
	}
	return peak
}

// Run prepares and resets processor, then processes input block by block
// at constant tempo. Nil input means processor is a source. MIDI for each
// block is taken from events, if provided. Result has output layout of
// the processor.
func Run(t testing.TB, p processor.Processor, in signal.Float64, numSamples int, events ...midi.Block) signal.Float64 {
	t.Helper()
	require.NoError(t, p.Prepare(SampleRate, BlockSize))
	p.Reset()
	channels := p.Layout().Channels()
	result := signal.EmptyFloat64(p.Layout().Outputs, 0)
	ph := transport.Start(transport.DefaultBPM)
	require.NoError(t, p.Automate(ph, BlockSize))
	for block := 0; result.Size() < numSamples; block++ {
		buf := signal.EmptyFloat64(channels, BlockSize)
		for c := 0; c < len(in) && c < channels; c++ {
			start := block * BlockSize
			if start < len(in[c]) {
				copy(buf[c], in[c][start:])
			}
		}
		var mb midi.Block
		if block < len(events) {
			mb = events[block]
		}
		require.NoError(t, p.Automate(ph, BlockSize))
		require.NoError(t, p.Process(buf, mb))
		result = result.Append(buf[:p.Layout().Outputs])
		ph = ph.Advance(BlockSize, SampleRate)
	}
	return result.Slice(0, numSamples)
}

// Path returns path of the file in test temp dir.
func Path(t testing.TB, name string) string {
	return filepath.Join(t.TempDir(), name)
}
