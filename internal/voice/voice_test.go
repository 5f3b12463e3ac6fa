package voice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	gomidi "gitlab.com/gomidi/midi/v2"

	"pipelined.dev/render/internal/voice"
	"pipelined.dev/render/midi"
)

func TestSteal(t *testing.T) {
	p := voice.NewPool(2)
	p.NoteOn(60, 100)
	p.NoteOn(62, 100)
	v := p.NoteOn(64, 100)
	assert.Equal(t, uint8(64), v.Note)
	assert.Equal(t, 2, p.Active())

	var notes []uint8
	p.Render(1, nil, func(_ int, v *voice.Voice) {
		notes = append(notes, v.Note)
	})
	// oldest note was stolen.
	assert.ElementsMatch(t, []uint8{64, 62}, notes)
}

func TestRelease(t *testing.T) {
	p := voice.NewPool(4)
	p.SetRelease(0.01, 1000)
	events := midi.Block{
		{Offset: 0, Message: gomidi.NoteOn(0, 60, 127)},
		{Offset: 5, Message: gomidi.NoteOff(0, 60)},
	}
	var gains []float64
	p.Render(30, events, func(_ int, v *voice.Voice) {
		gains = append(gains, v.Gain())
	})
	assert.Equal(t, 1.0, gains[4])
	assert.Less(t, gains[6], gains[5])
	// voice stops once release is over.
	assert.InDelta(t, 15, len(gains), 1)
	assert.Equal(t, 0, p.Active())
}

func TestZeroVelocityNoteOn(t *testing.T) {
	p := voice.NewPool(1)
	p.Handle(gomidi.NoteOn(0, 60, 100))
	p.Handle(gomidi.NoteOn(0, 60, 0))
	p.Render(1, nil, func(int, *voice.Voice) {})
	// zero release stops voice on the first sample.
	assert.Equal(t, 0, p.Active())
}
