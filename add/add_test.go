package add_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/render/add"
	"pipelined.dev/render/fault"
	"pipelined.dev/render/processor"
	"pipelined.dev/render/test"
)

func TestApplyLayout(t *testing.T) {
	tests := []struct {
		gains  []float64
		layout processor.Layout
		valid  bool
	}{
		{layout: processor.Layout{Inputs: 6, Outputs: 2}, valid: true},
		{layout: processor.Layout{Inputs: 0, Outputs: 2}, valid: true},
		{layout: processor.Layout{Inputs: 3, Outputs: 2}},
		{layout: processor.Layout{Inputs: 4, Outputs: 1}},
		{gains: []float64{1, 1}, layout: processor.Layout{Inputs: 4, Outputs: 2}, valid: true},
		{gains: []float64{1, 1}, layout: processor.Layout{Inputs: 6, Outputs: 2}},
	}
	for _, tt := range tests {
		p := add.New("add", tt.gains...)
		err := p.ApplyLayout(tt.layout)
		if tt.valid {
			assert.NoError(t, err)
			assert.Equal(t, tt.layout, p.Layout())
		} else {
			assert.ErrorIs(t, err, fault.ErrUnsupportedLayout)
		}
	}
}

func TestAdd(t *testing.T) {
	p := add.New("add", 0.5, 2, -1)
	in := append(test.Constant(2, 1000, 1)[:2], test.Constant(2, 1000, 0.25)...)
	in = append(in, test.Constant(2, 1000, 0.1)...)
	out := test.Run(t, p, in, 1000)
	require.Equal(t, 2, out.NumChannels())
	for c := range out {
		for _, v := range out[c] {
			assert.InDelta(t, 0.5+0.5-0.1, v, 1e-12)
		}
	}
}

func TestParseGains(t *testing.T) {
	gains, err := add.ParseGains("1, 0.5,2")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0.5, 2}, gains)

	_, err = add.ParseGains("1,x")
	assert.ErrorIs(t, err, fault.ErrInvalidArgument)

	p := add.New("add", gains...)
	rec, err := p.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "1,0.5,2", rec.Settings["gains"])
}
