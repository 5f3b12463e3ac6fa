// Package playback provides a processor which plays pre-recorded audio.
package playback

import (
	"pipelined.dev/render/midi"
	"pipelined.dev/render/processor"
	"pipelined.dev/render/signal"
	"pipelined.dev/render/state"
)

// Type of processor.
const Type = "playback"

// Processor plays source data from the timeline start. Source sample
// rate is expected to match render sample rate.
type Processor struct {
	processor.Base
	data signal.Float64
}

// New returns playback processor for the data.
func New(name string, data signal.Float64) *Processor {
	return &Processor{
		Base: processor.NewBase(name, processor.Layout{Outputs: data.NumChannels()}),
		data: data,
	}
}

// SetData replaces source data. Number of channels must not change once
// the processor is connected.
func (p *Processor) SetData(data signal.Float64) {
	p.data = data
	p.SetLayout(processor.Layout{Outputs: data.NumChannels()})
}

// Data returns source data.
func (p *Processor) Data() signal.Float64 {
	return p.data
}

// Process copies source data at the playhead position.
func (p *Processor) Process(buf signal.Float64, _ midi.Block) error {
	if err := p.CheckPrepared(); err != nil {
		return err
	}
	start := p.Playhead().TimeInSamples
	for c := 0; c < len(p.data) && c < len(buf); c++ {
		out := buf[c]
		var n int
		if start < int64(len(p.data[c])) {
			n = copy(out, p.data[c][start:])
		}
		for i := n; i < len(out); i++ {
			out[i] = 0
		}
	}
	return nil
}

// Snapshot returns persisted state. Source data isn't persisted.
func (p *Processor) Snapshot() (state.Record, error) {
	return p.SnapshotAs(Type), nil
}
