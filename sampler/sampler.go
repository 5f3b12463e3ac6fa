// Package sampler provides a polyphonic sample player driven by MIDI.
package sampler

import (
	"math"

	"pipelined.dev/render/internal/voice"
	"pipelined.dev/render/midi"
	"pipelined.dev/render/processor"
	"pipelined.dev/render/signal"
	"pipelined.dev/render/state"
	"pipelined.dev/render/transport"
)

// Type of processor.
const Type = "sampler"

// Polyphony is the number of voices.
const Polyphony = 16

// Processor plays the sample transposed by the distance between played
// note and center note.
type Processor struct {
	processor.MidiBase
	data           signal.Float64
	dataSampleRate float64
	voices         *voice.Pool
}

// New returns sampler for the data. Zero data sample rate means it's
// equal to the render sample rate.
func New(name string, data signal.Float64, dataSampleRate, sampleRate float64) *Processor {
	p := &Processor{
		MidiBase:       processor.NewMidiBase(name, processor.Layout{Outputs: data.NumChannels()}, sampleRate),
		data:           data,
		dataSampleRate: dataSampleRate,
		voices:         voice.NewPool(Polyphony),
	}
	p.Parameters().Add("center_note", 60)
	p.Parameters().Add("gain", 1)
	// release in seconds.
	p.Parameters().Add("release", 0.01)
	return p
}

// SetData replaces the sample.
func (p *Processor) SetData(data signal.Float64, dataSampleRate float64) {
	p.data = data
	p.dataSampleRate = dataSampleRate
	p.SetLayout(processor.Layout{Outputs: data.NumChannels()})
}

// Automate updates release time.
func (p *Processor) Automate(ph transport.Playhead, numSamples int) error {
	if err := p.MidiBase.Automate(ph, numSamples); err != nil {
		return err
	}
	p.voices.SetRelease(p.Value("release"), p.SampleRate())
	return nil
}

// Process renders voices for incoming and scheduled notes.
func (p *Processor) Process(buf signal.Float64, in midi.Block) error {
	if err := p.CheckPrepared(); err != nil {
		return err
	}
	out := buf[:p.Layout().Outputs]
	out.Clear()
	sourceRate := p.dataSampleRate
	if sourceRate <= 0 {
		sourceRate = p.SampleRate()
	}
	center := p.Value("center_note")
	gain := p.Value("gain")
	last := float64(p.data.Size() - 1)
	p.voices.Render(out.Size(), p.Schedule(out.Size(), in), func(i int, v *voice.Voice) {
		if v.Position > last {
			v.Stop()
			return
		}
		idx := int(v.Position)
		frac := v.Position - float64(idx)
		g := gain * v.Gain()
		for c := range out {
			s := p.data[c][idx]
			if idx+1 < len(p.data[c]) {
				s += (p.data[c][idx+1] - s) * frac
			}
			out[c][i] += g * s
		}
		v.Position += math.Pow(2, (float64(v.Note)-center)/12) * sourceRate / p.SampleRate()
	})
	return nil
}

// Reset stops all voices.
func (p *Processor) Reset() {
	p.MidiBase.Reset()
	p.voices.Reset()
}

// Snapshot returns persisted state with scheduled MIDI. Sample data isn't
// persisted.
func (p *Processor) Snapshot() (state.Record, error) {
	return p.SnapshotAs(Type)
}
