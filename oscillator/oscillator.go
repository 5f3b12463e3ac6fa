// Package oscillator provides a sine source processor.
package oscillator

import (
	"math"

	"pipelined.dev/render/midi"
	"pipelined.dev/render/processor"
	"pipelined.dev/render/signal"
	"pipelined.dev/render/state"
)

// Type of processor.
const Type = "oscillator"

// Processor generates stereo sine wave.
type Processor struct {
	processor.Base
	// phase is in cycles, [0, 1).
	phase float64
}

// New returns oscillator with the given frequency in Hz.
func New(name string, frequency float32) *Processor {
	p := &Processor{
		Base: processor.NewBase(name, processor.Layout{Outputs: 2}),
	}
	p.Parameters().Add("frequency", frequency)
	p.Parameters().Add("amplitude", 1)
	return p
}

// Process fills the buffer with sine wave.
func (p *Processor) Process(buf signal.Float64, _ midi.Block) error {
	if err := p.CheckPrepared(); err != nil {
		return err
	}
	inc := p.Value("frequency") / p.SampleRate()
	amp := p.Value("amplitude")
	phase := p.phase
	for i := 0; i < buf.Size(); i++ {
		v := amp * math.Sin(2*math.Pi*phase)
		for c := 0; c < 2 && c < len(buf); c++ {
			buf[c][i] = v
		}
		phase += inc
		phase -= math.Floor(phase)
	}
	p.phase = phase
	return nil
}

// Reset rewinds oscillator phase.
func (p *Processor) Reset() {
	p.Base.Reset()
	p.phase = 0
}

// Snapshot returns persisted state.
func (p *Processor) Snapshot() (state.Record, error) {
	return p.SnapshotAs(Type), nil
}
