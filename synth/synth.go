// Package synth provides a polyphonic sine synthesizer driven by MIDI.
package synth

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
const Type = "synth"

// Polyphony is the number of voices.
const Polyphony = 16

// Processor renders a sine voice per note. MIDI it played is passed
// downstream.
type Processor struct {
	processor.MidiBase
	voices *voice.Pool
}

// New returns synth. MIDI is scheduled at the provided sample rate.
func New(name string, sampleRate float64) *Processor {
	p := &Processor{
		MidiBase: processor.NewMidiBase(name, processor.Layout{Outputs: 2}, sampleRate),
		voices:   voice.NewPool(Polyphony),
	}
	p.Parameters().Add("gain", 0.25)
	// release in seconds.
	p.Parameters().Add("release", 0.05)
	return p
}

func frequency(note uint8) float64 {
	return 440 * math.Pow(2, (float64(note)-69)/12)
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
	out := buf[:2]
	out.Clear()
	gain := p.Value("gain")
	sampleRate := p.SampleRate()
	p.voices.Render(out.Size(), p.Schedule(out.Size(), in), func(i int, v *voice.Voice) {
		s := gain * v.Gain() * math.Sin(2*math.Pi*v.Position)
		out[0][i] += s
		out[1][i] += s
		v.Position += frequency(v.Note) / sampleRate
		v.Position -= math.Floor(v.Position)
	})
	return nil
}

// Reset stops all voices.
func (p *Processor) Reset() {
	p.MidiBase.Reset()
	p.voices.Reset()
}

// Snapshot returns persisted state with scheduled MIDI.
func (p *Processor) Snapshot() (state.Record, error) {
	return p.SnapshotAs(Type)
}
