// Package plugin adapts externally hosted plugins to the processor
// contract. Hosting itself is outside of this module: a host provides an
// Instance and the adapter drives it with automation and MIDI.
package plugin

import (
	"fmt"
	"maps"
	"slices"

	"pipelined.dev/render/fault"
	"pipelined.dev/render/midi"
	"pipelined.dev/render/processor"
	"pipelined.dev/render/signal"
	"pipelined.dev/render/state"
	"pipelined.dev/render/transport"
)

// Type of processor.
const Type = "plugin"

// Instance is a loaded plugin.
type Instance interface {
	Layout() processor.Layout
	// ParameterNames returns names of parameters in index order.
	ParameterNames() []string
	Parameter(index int) float64
	SetParameter(index int, value float64)
	Prepare(sampleRate float64, blockSize int) error
	// Process handles a block in place. Events carry sample offsets
	// inside the block.
	Process(buf signal.Float64, events midi.Block) error
	Reset()
}

// LayoutSetter is implemented by instances which support multiple
// channel layouts.
type LayoutSetter interface {
	SetLayout(processor.Layout) error
}

// Processor drives plugin instance. MIDI is scheduled on both timelines
// and merged with incoming MIDI of the block.
type Processor struct {
	processor.MidiBase
	instance Instance
	names    []string
	// pending holds restored parameters until instance is attached.
	pending state.Record
}

// New returns processor for the instance. Instance can be provided later
// with SetInstance.
func New(name string, instance Instance, sampleRate float64) *Processor {
	p := &Processor{
		MidiBase: processor.NewMidiBase(name, processor.Layout{}, sampleRate),
	}
	if instance != nil {
		p.attach(instance)
	}
	return p
}

// SetInstance replaces plugin instance. Parameters are registered with
// current instance values, then restored automation is applied. Restored
// parameters unknown to the instance are skipped.
func (p *Processor) SetInstance(instance Instance) error {
	p.attach(instance)
	pending := p.pending
	p.pending = state.Record{}
	var errs fault.Errors
	for _, name := range slices.Sorted(maps.Keys(pending.Parameters)) {
		if _, err := p.Parameters().Get(name); err != nil {
			continue
		}
		if err := p.SetAutomation(name, pending.Parameters[name], int(pending.PPQN[name])); err != nil {
			errs = append(errs, fmt.Errorf("%s: restore %q: %w", p.Name(), name, err))
		}
	}
	return errs.Ret()
}

func (p *Processor) attach(instance Instance) {
	p.instance = instance
	p.ClearParameters()
	p.names = instance.ParameterNames()
	for i, name := range p.names {
		p.Parameters().Add(name, float32(instance.Parameter(i)))
	}
	p.SetLayout(instance.Layout())
}

// Instance returns plugin instance.
func (p *Processor) Instance() Instance {
	return p.instance
}

// ApplyLayout accepts the instance layout or any layout the instance can
// switch to.
func (p *Processor) ApplyLayout(l processor.Layout) error {
	if p.instance == nil {
		return fmt.Errorf("%s: %w", p.Name(), fault.ErrNotPrepared)
	}
	if l == p.Layout() {
		return nil
	}
	if s, ok := p.instance.(LayoutSetter); ok {
		if err := s.SetLayout(l); err != nil {
			return fmt.Errorf("%s: layout %v: %v: %w", p.Name(), l, err, fault.ErrUnsupportedLayout)
		}
		p.SetLayout(l)
		return nil
	}
	return p.MidiBase.ApplyLayout(l)
}

// Prepare prepares plugin instance.
func (p *Processor) Prepare(sampleRate float64, blockSize int) error {
	if p.instance == nil {
		return fmt.Errorf("%s: no plugin instance: %w", p.Name(), fault.ErrNotPrepared)
	}
	if err := p.MidiBase.Prepare(sampleRate, blockSize); err != nil {
		return err
	}
	if err := p.instance.Prepare(sampleRate, blockSize); err != nil {
		return fmt.Errorf("%s: %w", p.Name(), err)
	}
	return nil
}

// Automate pushes parameter values of the block into the instance.
func (p *Processor) Automate(ph transport.Playhead, numSamples int) error {
	if err := p.MidiBase.Automate(ph, numSamples); err != nil {
		return err
	}
	if p.instance == nil {
		return nil
	}
	for i, name := range p.names {
		p.instance.SetParameter(i, p.Value(name))
	}
	return nil
}

// Process runs the instance with MIDI of the block.
func (p *Processor) Process(buf signal.Float64, in midi.Block) error {
	if p.instance == nil {
		return fmt.Errorf("%s: no plugin instance: %w", p.Name(), fault.ErrNotPrepared)
	}
	if err := p.CheckPrepared(); err != nil {
		return err
	}
	if err := p.instance.Process(buf, p.Schedule(buf.Size(), in)); err != nil {
		return fmt.Errorf("%s: %w", p.Name(), err)
	}
	return nil
}

// Reset resets instance state and MIDI timelines.
func (p *Processor) Reset() {
	p.MidiBase.Reset()
	if p.instance != nil {
		p.instance.Reset()
	}
}

// Snapshot returns persisted state with scheduled MIDI. Plugin state
// itself is owned by the host.
func (p *Processor) Snapshot() (state.Record, error) {
	return p.SnapshotAs(Type)
}

// Restore sets scheduled MIDI and parameter values from record. Without
// instance, parameters are applied once it's attached. Parameters unknown
// to the instance are skipped then.
func (p *Processor) Restore(rec state.Record) error {
	if p.instance != nil {
		return p.MidiBase.Restore(rec)
	}
	pending := state.Record{Parameters: rec.Parameters, PPQN: rec.PPQN}
	rec.Parameters, rec.PPQN = nil, nil
	if err := p.MidiBase.Restore(rec); err != nil {
		return err
	}
	p.pending = pending
	return nil
}
