// Package processor defines the contract every processing unit of the
// render graph must honor.
//
// Processor goes through following states:
//
//	Unprepared -> Prepared -> Processing -> Reset
//
// Prepare must be called before any processing. Every block engine calls
// Automate and then Process with monotonically increasing playhead. Reset
// returns processor into defined zero state, so it can be used again.
package processor

import (
	"fmt"

	"pipelined.dev/render/midi"
	"pipelined.dev/render/signal"
	"pipelined.dev/render/state"
	"pipelined.dev/render/transport"
)

// Layout is a number of discrete input and output channels.
type Layout struct {
	Inputs  int
	Outputs int
}

func (l Layout) String() string {
	return fmt.Sprintf("%d in/%d out", l.Inputs, l.Outputs)
}

// Channels returns number of channels in processing buffer for this layout.
func (l Layout) Channels() int {
	if l.Inputs > l.Outputs {
		return l.Inputs
	}
	return l.Outputs
}

// Processor is a unit of work in render graph.
type Processor interface {
	Name() string
	// Layout reports channel layout of the processor.
	Layout() Layout
	// ApplyLayout requests a layout. Processor only accepts a layout it
	// explicitly supports, otherwise fault.ErrUnsupportedLayout is returned.
	ApplyLayout(Layout) error
	AcceptsMidi() bool
	Prepare(sampleRate float64, blockSize int) error
	// Automate pushes current automation values into DSP state. It must be
	// idempotent for the same playhead.
	Automate(ph transport.Playhead, numSamples int) error
	// Process handles a single block. Buffer holds max(inputs, outputs)
	// channels, input channels on the way in and output channels on the
	// way out. Processor must not resize the buffer.
	Process(buf signal.Float64, in midi.Block) error
	Reset()
}

// AutomationRecorder is implemented by processors that can record their
// automation during render.
type AutomationRecorder interface {
	RecordingAutomation() bool
	RecordAutomation(ph transport.Playhead, numSamples int)
}

// OutputRecorder is implemented by processors which output should be
// captured by engine.
type OutputRecorder interface {
	RecordingOutput() bool
}

// MidiProducer is implemented by processors that pass MIDI downstream.
type MidiProducer interface {
	MidiOut() midi.Block
}

// Snapshotter is implemented by processors which state can be persisted.
type Snapshotter interface {
	Snapshot() (state.Record, error)
}
