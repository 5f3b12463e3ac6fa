// Package delay provides a feed-forward delay processor.
package delay

import (
	"fmt"
	"math"

	dspdelay "github.com/cwbudde/algo-dsp/dsp/delay"
	vecmath "github.com/cwbudde/algo-vecmath"

	"pipelined.dev/render/midi"
	"pipelined.dev/render/processor"
	"pipelined.dev/render/signal"
	"pipelined.dev/render/state"
)

// Type of processor.
const Type = "delay"

// Processor mixes stereo input with its delayed copy.
type Processor struct {
	processor.Base
	lines   [2]*dspdelay.Line
	scratch []float64
}

// New returns delay processor. Delay is in milliseconds, wet is in [0, 1].
func New(name string, delay, wet float32) *Processor {
	p := &Processor{
		Base: processor.NewBase(name, processor.Layout{Inputs: 2, Outputs: 2}),
	}
	p.Parameters().Add("delay", delay)
	p.Parameters().Add("wet", wet)
	return p
}

// maxDelay returns the longest delay in ms over whole automation.
func (p *Processor) maxDelay() float64 {
	param, err := p.Parameters().Get("delay")
	if err != nil {
		return 0
	}
	var max float64
	for _, v := range param.Values() {
		max = math.Max(max, float64(v))
	}
	return max
}

// Prepare allocates delay lines long enough for the parameter values.
func (p *Processor) Prepare(sampleRate float64, blockSize int) error {
	if err := p.Base.Prepare(sampleRate, blockSize); err != nil {
		return err
	}
	// interpolated reads need three extra samples.
	size := int(math.Ceil(p.maxDelay()*sampleRate/1000)) + 4
	for c := range p.lines {
		l, err := dspdelay.New(size)
		if err != nil {
			return fmt.Errorf("%s: %w", p.Name(), err)
		}
		p.lines[c] = l
	}
	p.scratch = make([]float64, blockSize)
	return nil
}

// Process applies delay in place.
func (p *Processor) Process(buf signal.Float64, _ midi.Block) error {
	if err := p.CheckPrepared(); err != nil {
		return err
	}
	wet := math.Min(math.Max(p.Value("wet"), 0), 1)
	d := math.Max(p.Value("delay"), 0) * p.SampleRate() / 1000
	if max := float64(p.lines[0].Len() - 4); d > max {
		d = max
	}
	size := buf.Size()
	if cap(p.scratch) < size {
		p.scratch = make([]float64, size)
	}
	delayed := p.scratch[:size]
	for c := range p.lines {
		for i, v := range buf[c] {
			p.lines[c].Write(v)
			// the latest write is one sample behind.
			delayed[i] = p.lines[c].ReadFractional(d + 1)
		}
		vecmath.ScaleBlock(buf[c], buf[c], 1-wet)
		vecmath.ScaleBlock(delayed, delayed, wet)
		vecmath.AddBlockInPlace(buf[c], delayed)
	}
	return nil
}

// Reset clears delay lines.
func (p *Processor) Reset() {
	p.Base.Reset()
	for _, l := range p.lines {
		if l != nil {
			l.Reset()
		}
	}
}

// Snapshot returns persisted state.
func (p *Processor) Snapshot() (state.Record, error) {
	return p.SnapshotAs(Type), nil
}
