package processor

import (
	"fmt"
	"sort"

	"pipelined.dev/render/fault"
	"pipelined.dev/render/midi"
	"pipelined.dev/render/state"
)

// MidiBase extends Base with dual-timeline MIDI scheduling. It's embedded
// into processors that accept MIDI.
type MidiBase struct {
	Base
	scheduler *midi.Scheduler
	out       midi.Block
}

// NewMidiBase returns base with MIDI scheduler for provided sample rate.
func NewMidiBase(name string, layout Layout, sampleRate float64) MidiBase {
	return MidiBase{
		Base:      NewBase(name, layout),
		scheduler: midi.NewScheduler(sampleRate),
	}
}

// AcceptsMidi returns true.
func (b *MidiBase) AcceptsMidi() bool {
	return true
}

// Prepare checks that engine sample rate matches the scheduler one.
func (b *MidiBase) Prepare(sampleRate float64, blockSize int) error {
	if sampleRate != b.scheduler.SampleRate() {
		return fmt.Errorf("%s: sample rate %v, midi scheduled at %v: %w", b.name, sampleRate, b.scheduler.SampleRate(), fault.ErrInvalidArgument)
	}
	return b.Base.Prepare(sampleRate, blockSize)
}

// Scheduler returns MIDI scheduler.
func (b *MidiBase) Scheduler() *midi.Scheduler {
	return b.scheduler
}

// AddMidiNote adds note in beats or seconds.
func (b *MidiBase) AddMidiNote(note, velocity uint8, start, duration float64, beats bool) error {
	if err := b.scheduler.AddNote(note, velocity, start, duration, beats); err != nil {
		return fmt.Errorf("%s: %w", b.name, err)
	}
	return nil
}

// LoadMidi adds events from standard MIDI file.
func (b *MidiBase) LoadMidi(path string, clear, beats, allEvents bool) error {
	if err := b.scheduler.LoadFile(path, clear, beats, allEvents); err != nil {
		return fmt.Errorf("%s: %w", b.name, err)
	}
	return nil
}

// ClearMidi removes all scheduled events.
func (b *MidiBase) ClearMidi() {
	b.scheduler.Clear()
}

// NumMidiEvents returns number of events on the timeline.
func (b *MidiBase) NumMidiEvents(beats bool) int {
	return b.scheduler.NumEvents(beats)
}

// SaveMidi writes events delivered during last render.
func (b *MidiBase) SaveMidi(path string) error {
	return b.scheduler.Recorded().SaveFile(path)
}

// Schedule returns MIDI of the current block: incoming events merged with
// events scheduled for the current playhead. Result is also kept as
// processor's MIDI output.
func (b *MidiBase) Schedule(numSamples int, in midi.Block) midi.Block {
	block := append(midi.Block(nil), in...)
	block = append(block, b.scheduler.Schedule(b.playhead, numSamples)...)
	sort.SliceStable(block, func(i, j int) bool {
		return block[i].Offset < block[j].Offset
	})
	b.out = block
	return block
}

// MidiOut returns MIDI of the last processed block.
func (b *MidiBase) MidiOut() midi.Block {
	return b.out
}

// Reset rewinds MIDI timelines and clears recorded MIDI.
func (b *MidiBase) Reset() {
	b.Base.Reset()
	b.scheduler.Reset()
	b.out = nil
}

// SnapshotAs returns record with parameter values and MIDI.
func (b *MidiBase) SnapshotAs(processorType string) (state.Record, error) {
	rec := b.Base.SnapshotAs(processorType)
	err := rec.SetMidi(b.scheduler.Events(false), b.scheduler.Events(true), b.scheduler.Recorded().Events())
	return rec, err
}

// Restore sets parameter values, scheduled and recorded MIDI from record.
// Recorded MIDI is kept until the next reset.
func (b *MidiBase) Restore(rec state.Record) error {
	if err := b.Base.Restore(rec); err != nil {
		return err
	}
	sec, qn, recorded, err := rec.Midi()
	if err != nil {
		return fmt.Errorf("%s: %w", b.name, err)
	}
	b.scheduler.Clear()
	for _, e := range sec {
		b.scheduler.AddEvent(e.Message, e.Timestamp, false)
	}
	for _, e := range qn {
		b.scheduler.AddEvent(e.Message, e.Timestamp, true)
	}
	b.scheduler.Recorded().Set(recorded)
	return nil
}
