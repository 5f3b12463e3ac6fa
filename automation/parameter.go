// Package automation provides parameters which values can change over
// time. Values are indexed either per audio sample or per fraction of a
// quarter note, processors don't need to know which.
package automation

import (
	"fmt"
	"math"

	"pipelined.dev/render/fault"
	"pipelined.dev/render/transport"
)

// Rate defines how automation values are indexed. Zero rate means audio
// rate, any other value is the number of values per quarter note.
type Rate uint32

// AudioRate indexes automation values by absolute sample position.
const AudioRate Rate = 0

// PPQNRate indexes automation values by n pulses per quarter note.
func PPQNRate(n uint32) Rate {
	return Rate(n)
}

// PPQN returns number of pulses per quarter note. Zero for audio rate.
func (r Rate) PPQN() uint32 {
	return uint32(r)
}

func (r Rate) String() string {
	if r == AudioRate {
		return "audio rate"
	}
	return fmt.Sprintf("%d ppqn", uint32(r))
}

// Parameter is a value source. It's either constant or a time-indexed
// array of values. It always holds at least one value.
type Parameter struct {
	values []float32
	rate   Rate
}

// NewParameter returns constant parameter.
func NewParameter(value float32) *Parameter {
	return &Parameter{values: []float32{value}}
}

// SetAutomation replaces parameter values. Negative ppqn or empty values
// are rejected and parameter stays untouched.
func (p *Parameter) SetAutomation(values []float32, ppqn int) error {
	if ppqn < 0 {
		return fmt.Errorf("negative ppqn %d: %w", ppqn, fault.ErrInvalidArgument)
	}
	if len(values) == 0 {
		return fmt.Errorf("empty automation: %w", fault.ErrInvalidArgument)
	}
	p.values = append(make([]float32, 0, len(values)), values...)
	p.rate = Rate(ppqn)
	return nil
}

// SetValue makes parameter constant.
func (p *Parameter) SetValue(value float32) {
	p.values = []float32{value}
	p.rate = AudioRate
}

// Values returns a copy of parameter values.
func (p *Parameter) Values() []float32 {
	return append(make([]float32, 0, len(p.values)), p.values...)
}

// Rate returns automation rate.
func (p *Parameter) Rate() Rate {
	return p.rate
}

// HasAutomation returns true if parameter has more than one value.
func (p *Parameter) HasAutomation() bool {
	return len(p.values) > 1
}

// Sample resolves the value for provided playhead position. Index is
// clamped into values range.
func (p *Parameter) Sample(ph transport.Playhead) float32 {
	if len(p.values) == 1 {
		return p.values[0]
	}
	ph.Check()
	var pos float64
	if p.rate == AudioRate {
		pos = float64(ph.TimeInSamples)
	} else {
		pos = math.Floor(ph.PPQPosition * float64(p.rate))
	}
	return p.values[clamp(pos, len(p.values)-1)]
}

// clamp limits position to [0, last]. NaN is treated as zero.
func clamp(pos float64, last int) int {
	switch {
	case math.IsNaN(pos) || pos <= 0:
		return 0
	case pos >= float64(last):
		return last
	default:
		return int(pos)
	}
}
