// Package compressor provides a feed-forward dynamic range compressor.
package compressor

import (
	"fmt"

	"github.com/cwbudde/algo-dsp/dsp/effects/dynamics"

	"pipelined.dev/render/fault"
	"pipelined.dev/render/midi"
	"pipelined.dev/render/processor"
	"pipelined.dev/render/signal"
	"pipelined.dev/render/state"
	"pipelined.dev/render/transport"
)

// Type of processor.
const Type = "compressor"

// Processor is a stereo peak compressor with hard knee. Each channel has
// its own detector.
type Processor struct {
	processor.Base
	channels [2]*dynamics.Compressor
}

// New returns compressor. Threshold is in dB, attack and release are in
// milliseconds.
func New(name string, threshold, ratio, attack, release float32) *Processor {
	p := &Processor{
		Base: processor.NewBase(name, processor.Layout{Inputs: 2, Outputs: 2}),
	}
	p.Parameters().Add("threshold", threshold)
	p.Parameters().Add("ratio", ratio)
	p.Parameters().Add("attack", attack)
	p.Parameters().Add("release", release)
	return p
}

// Prepare creates detectors for the sample rate.
func (p *Processor) Prepare(sampleRate float64, blockSize int) error {
	if err := p.Base.Prepare(sampleRate, blockSize); err != nil {
		return err
	}
	for i := range p.channels {
		c, err := dynamics.NewCompressor(sampleRate)
		if err != nil {
			return fmt.Errorf("%s: %v: %w", p.Name(), err, fault.ErrInvalidArgument)
		}
		if err := c.SetKnee(0); err != nil {
			return err
		}
		// disables auto makeup.
		if err := c.SetMakeupGain(0); err != nil {
			return err
		}
		p.channels[i] = c
	}
	return nil
}

// Automate applies parameter values of the block to detectors.
func (p *Processor) Automate(ph transport.Playhead, numSamples int) error {
	if err := p.Base.Automate(ph, numSamples); err != nil {
		return err
	}
	for _, c := range p.channels {
		if c == nil {
			continue
		}
		for _, set := range []error{
			c.SetThreshold(p.Value("threshold")),
			c.SetRatio(p.Value("ratio")),
			c.SetAttack(p.Value("attack")),
			c.SetRelease(p.Value("release")),
		} {
			if set != nil {
				return fmt.Errorf("%s: %v: %w", p.Name(), set, fault.ErrInvalidArgument)
			}
		}
	}
	return nil
}

// Process compresses the buffer in place.
func (p *Processor) Process(buf signal.Float64, _ midi.Block) error {
	if err := p.CheckPrepared(); err != nil {
		return err
	}
	for i, c := range p.channels {
		if i < len(buf) {
			c.ProcessInPlace(buf[i])
		}
	}
	return nil
}

// Reset clears detector state.
func (p *Processor) Reset() {
	p.Base.Reset()
	for _, c := range p.channels {
		if c != nil {
			c.Reset()
		}
	}
}

// Snapshot returns persisted state.
func (p *Processor) Snapshot() (state.Record, error) {
	return p.SnapshotAs(Type), nil
}
