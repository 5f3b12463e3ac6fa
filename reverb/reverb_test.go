package reverb_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/render/reverb"
	"pipelined.dev/render/signal"
	"pipelined.dev/render/test"
)

func TestReverbTail(t *testing.T) {
	const size = 44100
	in := signal.EmptyFloat64(2, size)
	in[0][0], in[1][0] = 1, 1
	p := reverb.New("reverb")
	out := test.Run(t, p, in, size)
	// dry impulse is scaled by dry level.
	assert.InDelta(t, 0.8, out[0][0], 1e-6)
	assert.Greater(t, test.RMS(out[0][2000:10000]), 0.0)
	assert.Greater(t, test.RMS(out[0][2000:10000]), test.RMS(out[0][30000:]))

	// reset clears the tail.
	assert.Equal(t, out, test.Run(t, p, in, size))
}

func TestReverbDry(t *testing.T) {
	const size = 4410
	p := reverb.New("reverb")
	require.NoError(t, p.SetValue("wet_level", 0))
	require.NoError(t, p.SetValue("dry_level", 0.5))
	in := test.Sine(2, size, 440, test.SampleRate)
	out := test.Run(t, p, in, size)
	for i := range in[0] {
		assert.InDelta(t, in[0][i], out[0][i], 1e-12)
	}
}

func TestReverbWidth(t *testing.T) {
	const size = 8820
	tests := []struct {
		name  string
		width float32
		cross bool
	}{
		{name: "wide", width: 1, cross: false},
		{name: "mono", width: 0, cross: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := reverb.New("reverb")
			require.NoError(t, p.SetValue("width", tt.width))
			in := signal.EmptyFloat64(2, size)
			in[0][0] = 1
			out := test.Run(t, p, in, size)
			assert.Greater(t, test.RMS(out[0][2000:]), 0.0)
			if tt.cross {
				assert.Equal(t, out[0][2000:], out[1][2000:])
			} else {
				assert.Zero(t, test.RMS(out[1]))
			}
		})
	}
}
