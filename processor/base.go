package processor

import (
	"fmt"

	"pipelined.dev/render/automation"
	"pipelined.dev/render/fault"
	"pipelined.dev/render/state"
	"pipelined.dev/render/transport"
)

// Base implements common parts of processor contract. It's meant to be
// embedded into concrete processors.
type Base struct {
	name       string
	layout     Layout
	params     *automation.Set
	playhead   transport.Playhead
	sampleRate float64
	blockSize  int
	prepared   bool

	recordAutomation bool
	recordOutput     bool
}

// NewBase returns base with provided name and layout.
func NewBase(name string, layout Layout) Base {
	return Base{
		name:     name,
		layout:   layout,
		params:   automation.NewSet(),
		playhead: transport.Start(transport.DefaultBPM),
	}
}

// Name returns unique name of processor.
func (b *Base) Name() string {
	return b.name
}

// Layout returns current layout.
func (b *Base) Layout() Layout {
	return b.layout
}

// ApplyLayout accepts only the declared layout.
func (b *Base) ApplyLayout(l Layout) error {
	if l != b.layout {
		return fmt.Errorf("%s: requested %v, supported %v: %w", b.name, l, b.layout, fault.ErrUnsupportedLayout)
	}
	return nil
}

// SetLayout replaces the layout. Used by processors which accept a range
// of layouts.
func (b *Base) SetLayout(l Layout) {
	b.layout = l
}

// AcceptsMidi returns false.
func (b *Base) AcceptsMidi() bool {
	return false
}

// Prepare validates and stores processing settings.
func (b *Base) Prepare(sampleRate float64, blockSize int) error {
	if sampleRate <= 0 || blockSize <= 0 {
		return fmt.Errorf("%s: sample rate %v block size %d: %w", b.name, sampleRate, blockSize, fault.ErrInvalidArgument)
	}
	b.sampleRate = sampleRate
	b.blockSize = blockSize
	b.prepared = true
	return nil
}

// CheckPrepared returns fault.ErrNotPrepared if prepare wasn't called.
func (b *Base) CheckPrepared() error {
	if !b.prepared {
		return fmt.Errorf("%s: %w", b.name, fault.ErrNotPrepared)
	}
	return nil
}

// SampleRate returns prepared sample rate.
func (b *Base) SampleRate() float64 {
	return b.sampleRate
}

// BlockSize returns prepared block size.
func (b *Base) BlockSize() int {
	return b.blockSize
}

// Automate stores the playhead of the current block.
func (b *Base) Automate(ph transport.Playhead, numSamples int) error {
	b.playhead = ph
	return nil
}

// Playhead returns playhead of the current block.
func (b *Base) Playhead() transport.Playhead {
	return b.playhead
}

// Parameters returns parameters of processor.
func (b *Base) Parameters() *automation.Set {
	return b.params
}

// ClearParameters removes all parameters.
func (b *Base) ClearParameters() {
	b.params = automation.NewSet()
}

// Value samples named parameter at the current playhead.
func (b *Base) Value(name string) float64 {
	return float64(b.params.Value(name, b.playhead))
}

// SetAutomation sets automation values of named parameter.
func (b *Base) SetAutomation(name string, values []float32, ppqn int) error {
	return b.params.SetAutomation(name, values, ppqn)
}

// Automation returns automation values of named parameter.
func (b *Base) Automation(name string) ([]float32, error) {
	return b.params.Automation(name)
}

// SetValue makes named parameter constant.
func (b *Base) SetValue(name string, value float32) error {
	return b.params.SetValue(name, value)
}

// SetRecordAutomation enables automation recording.
func (b *Base) SetRecordAutomation(enabled bool) {
	b.recordAutomation = enabled
}

// RecordingAutomation returns true if automation recording is enabled.
func (b *Base) RecordingAutomation() bool {
	return b.recordAutomation
}

// RecordAutomation appends automation values of the block if recording is
// enabled.
func (b *Base) RecordAutomation(ph transport.Playhead, numSamples int) {
	if b.recordAutomation {
		b.params.Record(ph, numSamples, b.sampleRate)
	}
}

// RecordedAutomation returns recorded automation of all parameters.
func (b *Base) RecordedAutomation() map[string][]float32 {
	return b.params.Recorded()
}

// SetRecordOutput enables capture of processor output by engine.
func (b *Base) SetRecordOutput(enabled bool) {
	b.recordOutput = enabled
}

// RecordingOutput returns true if output capture is enabled.
func (b *Base) RecordingOutput() bool {
	return b.recordOutput
}

// Reset clears recorded automation and rewinds the playhead.
func (b *Base) Reset() {
	b.params.ClearRecorded()
	b.playhead = transport.Start(transport.DefaultBPM)
}

// SnapshotAs returns record of provided type with parameter values.
func (b *Base) SnapshotAs(processorType string) state.Record {
	rec := state.New(processorType, b.name)
	for _, name := range b.params.Names() {
		p, _ := b.params.Get(name)
		rec.Parameters[name] = p.Values()
		if ppqn := p.Rate().PPQN(); ppqn > 0 {
			rec.PPQN[name] = ppqn
		}
	}
	return rec
}

// Restore sets parameter values from record. Parameters unknown to the
// processor are rejected.
func (b *Base) Restore(rec state.Record) error {
	for name, values := range rec.Parameters {
		if err := b.params.SetAutomation(name, values, int(rec.PPQN[name])); err != nil {
			return fmt.Errorf("%s: %w", b.name, err)
		}
	}
	return nil
}
