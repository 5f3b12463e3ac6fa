// Package voice allocates polyphonic voices for MIDI instruments.
package voice

import (
	"math"

	gomidi "gitlab.com/gomidi/midi/v2"

	"pipelined.dev/render/midi"
)

// silence is the release level at which voice is stopped.
const silence = 1e-4

// Voice is a single sounding note.
type Voice struct {
	Note     uint8
	Velocity uint8
	// Position is instrument-specific: oscillator phase or sample index.
	Position float64
	level    float64
	released bool
	active   bool
	age      int64
}

// Gain returns velocity scaled by release envelope.
func (v *Voice) Gain() float64 {
	return float64(v.Velocity) / 127 * v.level
}

// Stop silences voice immediately.
func (v *Voice) Stop() {
	v.active = false
}

// Pool is a fixed set of voices. When all voices are busy, the oldest one
// is stolen.
type Pool struct {
	voices []Voice
	// release is per-sample decay of released voices.
	release float64
	clock   int64
}

// NewPool returns pool of n voices.
func NewPool(n int) *Pool {
	return &Pool{voices: make([]Voice, n)}
}

// SetRelease sets release time in seconds.
func (p *Pool) SetRelease(seconds, sampleRate float64) {
	if seconds <= 0 || sampleRate <= 0 {
		p.release = 0
		return
	}
	// level falls to silence after release time.
	p.release = math.Pow(silence, 1/(seconds*sampleRate))
}

// NoteOn starts a voice.
func (p *Pool) NoteOn(note, velocity uint8) *Voice {
	idx := -1
	for i := range p.voices {
		if !p.voices[i].active {
			idx = i
			break
		}
		if idx < 0 || p.voices[i].age < p.voices[idx].age {
			idx = i
		}
	}
	p.clock++
	p.voices[idx] = Voice{Note: note, Velocity: velocity, level: 1, active: true, age: p.clock}
	return &p.voices[idx]
}

// NoteOff releases all voices playing the note.
func (p *Pool) NoteOff(note uint8) {
	for i := range p.voices {
		if v := &p.voices[i]; v.active && !v.released && v.Note == note {
			v.released = true
		}
	}
}

// Handle applies note message. Other messages are ignored.
func (p *Pool) Handle(msg gomidi.Message) {
	var ch, key, vel uint8
	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		p.NoteOn(key, vel)
	case msg.GetNoteEnd(&ch, &key):
		p.NoteOff(key)
	}
}

// Render calls fn for every sample of the block. Events are applied at
// their offsets, release envelopes are advanced after each sample.
func (p *Pool) Render(numSamples int, events midi.Block, fn func(i int, v *Voice)) {
	next := 0
	for i := 0; i < numSamples; i++ {
		for ; next < len(events) && events[next].Offset <= i; next++ {
			p.Handle(events[next].Message)
		}
		for j := range p.voices {
			v := &p.voices[j]
			if !v.active {
				continue
			}
			fn(i, v)
			if v.released {
				v.level *= p.release
				if v.level < silence {
					v.active = false
				}
			}
		}
	}
	for ; next < len(events); next++ {
		p.Handle(events[next].Message)
	}
}

// Active returns number of sounding voices.
func (p *Pool) Active() int {
	var n int
	for i := range p.voices {
		if p.voices[i].active {
			n++
		}
	}
	return n
}

// Reset stops all voices.
func (p *Pool) Reset() {
	for i := range p.voices {
		p.voices[i] = Voice{}
	}
	p.clock = 0
}
