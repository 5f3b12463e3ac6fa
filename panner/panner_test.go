package panner_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/render/fault"
	"pipelined.dev/render/panner"
	"pipelined.dev/render/test"
)

func TestGains(t *testing.T) {
	rules := []panner.Rule{panner.Linear, panner.Balanced, panner.Sin3dB, panner.Sin4p5dB, panner.Sin6dB, panner.SquareRoot3dB, panner.SquareRoot4p5dB}
	for _, rule := range rules {
		t.Run(rule.String(), func(t *testing.T) {
			left, right := rule.Gains(0)
			assert.InDelta(t, 1, left, 1e-9)
			assert.InDelta(t, 1, right, 1e-9)

			left, right = rule.Gains(-1)
			assert.InDelta(t, 0, right, 1e-9)
			assert.GreaterOrEqual(t, left, 1.0)

			left, right = rule.Gains(1)
			assert.InDelta(t, 0, left, 1e-9)
			assert.GreaterOrEqual(t, right, 1.0)

			parsed, err := panner.ParseRule(rule.String())
			require.NoError(t, err)
			assert.Equal(t, rule, parsed)
		})
	}
	_, err := panner.ParseRule("center")
	assert.ErrorIs(t, err, fault.ErrInvalidArgument)
}

func TestBalancedKeepsNearChannel(t *testing.T) {
	left, right := panner.Balanced.Gains(0.5)
	assert.InDelta(t, 0.5, left, 1e-9)
	assert.InDelta(t, 1, right, 1e-9)
}

func TestPanner(t *testing.T) {
	p := panner.New("pan", panner.Sin3dB, 1)
	out := test.Run(t, p, test.Constant(2, 1000, 0.5), 1000)
	assert.InDelta(t, 0, test.Peak(out[0]), 1e-9)
	assert.InDelta(t, 0.5*math.Sqrt2, out[1][999], 1e-9)
}
