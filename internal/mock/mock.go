// Package mock provides mock processors and allows to execute engine
// integration tests.
package mock

import (
	"fmt"

	"pipelined.dev/render/fault"
	"pipelined.dev/render/midi"
	"pipelined.dev/render/processor"
	"pipelined.dev/render/signal"
	"pipelined.dev/render/transport"
)

// Processor mocks processor.Processor interface. It sums its inputs
// channel-wise and adds Value to every output sample. Any number of
// inputs with the declared number of outputs is accepted.
type Processor struct {
	counter
	Hooks
	processor.Base
	Value       float64
	Midi        bool
	ErrorOnCall error
	// Playheads holds playheads of all processed blocks.
	Playheads []transport.Playhead
	// Received holds MIDI of all processed blocks.
	Received []midi.Block
}

// New returns mock with provided name and number of outputs.
func New(name string, outputs int, value float64) *Processor {
	return &Processor{
		Base:  processor.NewBase(name, processor.Layout{Outputs: outputs}),
		Value: value,
	}
}

// ApplyLayout accepts any multiple of outputs as inputs.
func (m *Processor) ApplyLayout(l processor.Layout) error {
	outputs := m.Layout().Outputs
	if l.Outputs != outputs || outputs == 0 || l.Inputs%outputs != 0 {
		return fmt.Errorf("%s: layout %v: %w", m.Name(), l, fault.ErrUnsupportedLayout)
	}
	m.SetLayout(l)
	return nil
}

// AcceptsMidi returns Midi field value.
func (m *Processor) AcceptsMidi() bool {
	return m.Midi
}

// Prepare implements processor.Processor.
func (m *Processor) Prepare(sampleRate float64, blockSize int) error {
	m.Prepared++
	if m.ErrorOnPrepare != nil {
		return m.ErrorOnPrepare
	}
	return m.Base.Prepare(sampleRate, blockSize)
}

// Process implements processor.Processor.
func (m *Processor) Process(buf signal.Float64, in midi.Block) error {
	if m.ErrorOnCall != nil {
		return m.ErrorOnCall
	}
	if err := m.CheckPrepared(); err != nil {
		return err
	}
	m.Playheads = append(m.Playheads, m.Playhead())
	m.Received = append(m.Received, in)
	l := m.Layout()
	for c := 0; c < l.Outputs; c++ {
		for i := range buf[c] {
			v := m.Value
			for j := c; j < l.Inputs; j += l.Outputs {
				v += buf[j][i]
			}
			buf[c][i] = v
		}
	}
	m.advance(buf.Size())
	return nil
}

// Reset implements processor.Processor.
func (m *Processor) Reset() {
	m.Resetted++
	m.Base.Reset()
	m.Playheads = nil
	m.Received = nil
	m.reset()
}

// Producer is a mock processor which passes MIDI downstream.
type Producer struct {
	*Processor
	// Out is returned as MIDI output of every block.
	Out midi.Block
}

// MidiOut implements processor.MidiProducer.
func (p *Producer) MidiOut() midi.Block {
	return p.Out
}

// Hooks allows to mock processor hooks.
type Hooks struct {
	Prepared int
	Resetted int

	ErrorOnPrepare error
}

// reset resets counter's metrics.
func (c *counter) reset() {
	c.messages, c.samples = 0, 0
}

// counter counts processed blocks and samples.
type counter struct {
	messages int
	samples  int
}

// advance counter's metrics.
func (c *counter) advance(size int) {
	c.messages++
	c.samples = c.samples + size
}

// Count returns blocks and samples metrics.
func (c *counter) Count() (int, int) {
	return c.messages, c.samples
}
