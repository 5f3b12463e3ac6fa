// Package add provides a processor which sums stereo inputs.
package add

import (
	"fmt"
	"strconv"
	"strings"

	vecmath "github.com/cwbudde/algo-vecmath"

	"pipelined.dev/render/fault"
	"pipelined.dev/render/midi"
	"pipelined.dev/render/processor"
	"pipelined.dev/render/signal"
	"pipelined.dev/render/state"
)

// Type of processor.
const Type = "add"

// Processor sums stereo pairs of input channels with per-input gains.
// Input i occupies channels 2*i and 2*i+1.
type Processor struct {
	processor.Base
	gains   []float64
	scratch []float64
}

// New returns add processor. If gains are empty, every input has unit
// gain and any number of inputs is accepted.
func New(name string, gains ...float64) *Processor {
	return &Processor{
		Base:  processor.NewBase(name, processor.Layout{Inputs: 2 * len(gains), Outputs: 2}),
		gains: append([]float64(nil), gains...),
	}
}

// Gains returns per-input gains.
func (p *Processor) Gains() []float64 {
	return append([]float64(nil), p.gains...)
}

// SetGains replaces per-input gains.
func (p *Processor) SetGains(gains []float64) {
	p.gains = append([]float64(nil), gains...)
	if len(gains) > 0 {
		p.SetLayout(processor.Layout{Inputs: 2 * len(gains), Outputs: 2})
	}
}

// ApplyLayout accepts stereo output and even number of inputs matching
// the gains.
func (p *Processor) ApplyLayout(l processor.Layout) error {
	if l.Outputs != 2 || l.Inputs%2 != 0 || (len(p.gains) > 0 && l.Inputs != 2*len(p.gains)) {
		return fmt.Errorf("%s: layout %v: %w", p.Name(), l, fault.ErrUnsupportedLayout)
	}
	p.SetLayout(l)
	return nil
}

func (p *Processor) gain(i int) float64 {
	if i < len(p.gains) {
		return p.gains[i]
	}
	return 1
}

// Process sums inputs into the first stereo pair.
func (p *Processor) Process(buf signal.Float64, _ midi.Block) error {
	if err := p.CheckPrepared(); err != nil {
		return err
	}
	numInputs := p.Layout().Inputs / 2
	size := buf.Size()
	if cap(p.scratch) < size {
		p.scratch = make([]float64, size)
	}
	scratch := p.scratch[:size]
	for c := 0; c < 2; c++ {
		if numInputs == 0 {
			for i := range buf[c] {
				buf[c][i] = 0
			}
			continue
		}
		vecmath.ScaleBlock(buf[c], buf[c], p.gain(0))
		for i := 1; i < numInputs; i++ {
			vecmath.ScaleBlock(scratch, buf[2*i+c], p.gain(i))
			vecmath.AddBlockInPlace(buf[c], scratch)
		}
	}
	return nil
}

// Snapshot returns persisted state.
func (p *Processor) Snapshot() (state.Record, error) {
	rec := p.SnapshotAs(Type)
	gains := make([]string, 0, len(p.gains))
	for _, g := range p.gains {
		gains = append(gains, strconv.FormatFloat(g, 'g', -1, 64))
	}
	rec.Settings["gains"] = strings.Join(gains, ",")
	return rec, nil
}

// ParseGains parses comma-separated gains.
func ParseGains(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	var gains []float64
	for _, field := range strings.Split(s, ",") {
		g, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return nil, fmt.Errorf("gain %q: %w", field, fault.ErrInvalidArgument)
		}
		gains = append(gains, g)
	}
	return gains, nil
}
