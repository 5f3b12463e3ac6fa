// Package reverb provides a Freeverb stereo reverb processor. Each channel
// has its own tank, width mixes the tanks.
package reverb

import (
	"math"

	freeverb "github.com/cwbudde/algo-dsp/dsp/effects/reverb"

	"pipelined.dev/render/midi"
	"pipelined.dev/render/processor"
	"pipelined.dev/render/signal"
	"pipelined.dev/render/state"
	"pipelined.dev/render/transport"
)

// Type of processor.
const Type = "reverb"

const (
	scaleDamping = 0.4
	scaleRoom    = 0.28
	offsetRoom   = 0.7
	scaleWet     = 3
	scaleDry     = 2
)

// Processor is a stereo reverb.
type Processor struct {
	processor.Base
	channels [2]*freeverb.Reverb

	wet1, wet2, dry float64
}

// New returns reverb processor with default room.
func New(name string) *Processor {
	p := &Processor{
		Base: processor.NewBase(name, processor.Layout{Inputs: 2, Outputs: 2}),
	}
	for i := range p.channels {
		// mixing is done by processor.
		r := freeverb.NewReverb()
		r.SetWet(1)
		r.SetDry(0)
		p.channels[i] = r
	}
	p.Parameters().Add("room_size", 0.5)
	p.Parameters().Add("damping", 0.5)
	p.Parameters().Add("wet_level", 0.33)
	p.Parameters().Add("dry_level", 0.4)
	p.Parameters().Add("width", 1)
	return p
}

func unit(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}

// Automate updates reverb coefficients for the block.
func (p *Processor) Automate(ph transport.Playhead, numSamples int) error {
	if err := p.Base.Automate(ph, numSamples); err != nil {
		return err
	}
	wet := scaleWet * unit(p.Value("wet_level"))
	width := unit(p.Value("width"))
	for _, r := range p.channels {
		r.SetRoomSize(unit(p.Value("room_size"))*scaleRoom + offsetRoom)
		r.SetDamp(unit(p.Value("damping")) * scaleDamping)
	}
	p.wet1 = wet * (width/2 + 0.5)
	p.wet2 = wet * (1 - width) / 2
	p.dry = scaleDry * unit(p.Value("dry_level"))
	return nil
}

// Process applies reverb in place.
func (p *Processor) Process(buf signal.Float64, _ midi.Block) error {
	if err := p.CheckPrepared(); err != nil {
		return err
	}
	left, right := buf[0], buf[1]
	for i := range left {
		outL := p.channels[0].ProcessSample(left[i])
		outR := p.channels[1].ProcessSample(right[i])
		left[i], right[i] = outL*p.wet1+outR*p.wet2+left[i]*p.dry, outR*p.wet1+outL*p.wet2+right[i]*p.dry
	}
	return nil
}

// Reset clears reverb tail.
func (p *Processor) Reset() {
	p.Base.Reset()
	for _, r := range p.channels {
		r.Reset()
	}
}

// Snapshot returns persisted state.
func (p *Processor) Snapshot() (state.Record, error) {
	return p.SnapshotAs(Type), nil
}
