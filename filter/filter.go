// Package filter provides a biquad filter processor.
package filter

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	filterdesign "github.com/cwbudde/algo-dsp/dsp/filter/design"

	"pipelined.dev/render/fault"
	"pipelined.dev/render/midi"
	"pipelined.dev/render/processor"
	"pipelined.dev/render/signal"
	"pipelined.dev/render/state"
	"pipelined.dev/render/transport"
)

// Type of processor.
const Type = "filter"

// Mode selects filter response.
type Mode int

// Filter modes.
const (
	Low Mode = iota
	High
	Band
	LowShelf
	HighShelf
	Notch
)

var modeNames = [...]string{"low", "high", "band", "low_shelf", "high_shelf", "notch"}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// ParseMode returns mode by its name.
func ParseMode(s string) (Mode, error) {
	for i, name := range modeNames {
		if name == s {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("filter mode %q: %w", s, fault.ErrInvalidArgument)
}

// design returns biquad coefficients for the mode. Gain is linear and
// applies to shelving modes.
func design(mode Mode, sampleRate, freq, q, gain float64) biquad.Coefficients {
	freq = math.Min(math.Max(freq, 1), sampleRate/2*0.999)
	q = math.Max(q, 1e-3)
	switch mode {
	case High:
		return filterdesign.Highpass(freq, q, sampleRate)
	case Band:
		return filterdesign.Bandpass(freq, q, sampleRate)
	case Notch:
		return filterdesign.Notch(freq, q, sampleRate)
	case LowShelf:
		return filterdesign.LowShelf(freq, decibels(gain), q, sampleRate)
	case HighShelf:
		return filterdesign.HighShelf(freq, decibels(gain), q, sampleRate)
	default:
		return filterdesign.Lowpass(freq, q, sampleRate)
	}
}

func decibels(gain float64) float64 {
	return 20 * math.Log10(math.Max(gain, 1e-6))
}

// Processor is a stereo biquad filter.
type Processor struct {
	processor.Base
	mode     Mode
	sections [2]biquad.Section
}

// New returns filter processor.
func New(name string, mode Mode, freq, q, gain float32) *Processor {
	p := &Processor{
		Base: processor.NewBase(name, processor.Layout{Inputs: 2, Outputs: 2}),
		mode: mode,
	}
	p.Parameters().Add("freq", freq)
	p.Parameters().Add("q", q)
	p.Parameters().Add("gain", gain)
	return p
}

// Mode returns filter mode.
func (p *Processor) Mode() Mode {
	return p.mode
}

// SetMode changes filter mode.
func (p *Processor) SetMode(m Mode) error {
	if m < Low || m > Notch {
		return fmt.Errorf("%s: %v: %w", p.Name(), m, fault.ErrInvalidArgument)
	}
	p.mode = m
	return nil
}

// Automate recalculates coefficients for the block.
func (p *Processor) Automate(ph transport.Playhead, numSamples int) error {
	if err := p.Base.Automate(ph, numSamples); err != nil {
		return err
	}
	if p.SampleRate() > 0 {
		c := design(p.mode, p.SampleRate(), p.Value("freq"), p.Value("q"), p.Value("gain"))
		// state is kept across coefficient updates.
		for i := range p.sections {
			p.sections[i].Coefficients = c
		}
	}
	return nil
}

// Process filters the buffer in place.
func (p *Processor) Process(buf signal.Float64, _ midi.Block) error {
	if err := p.CheckPrepared(); err != nil {
		return err
	}
	for ch := 0; ch < len(p.sections) && ch < len(buf); ch++ {
		p.sections[ch].ProcessBlock(buf[ch])
	}
	return nil
}

// Reset clears filter state.
func (p *Processor) Reset() {
	p.Base.Reset()
	for i := range p.sections {
		p.sections[i].Reset()
	}
}

// Snapshot returns persisted state.
func (p *Processor) Snapshot() (state.Record, error) {
	rec := p.SnapshotAs(Type)
	rec.Settings["mode"] = p.mode.String()
	return rec, nil
}
