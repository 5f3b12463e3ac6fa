package midi_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"pipelined.dev/render/fault"
	"pipelined.dev/render/midi"
)

// testFile returns a file with two notes at beats 0 and 1 with 960 ticks
// per quarter note and 120 bpm.
func testFile(t *testing.T) []byte {
	t.Helper()
	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(960)
	var track smf.Track
	track.Add(0, smf.MetaTempo(120))
	track.Add(0, gomidi.NoteOn(0, 60, 100))
	track.Add(480, gomidi.NoteOff(0, 60))
	track.Add(480, gomidi.NoteOn(0, 64, 100))
	track.Add(480, gomidi.NoteOff(0, 64))
	track.Close(0)
	require.NoError(t, sm.Add(track))
	var buf bytes.Buffer
	_, err := sm.WriteTo(&buf)
	require.NoError(t, err)
	return buf.Bytes()
}

func TestLoad(t *testing.T) {
	tests := []struct {
		beats      bool
		allEvents  bool
		timestamps []int64
	}{
		{
			beats:      true,
			timestamps: []int64{0, 1920, 3840, 5760},
		},
		{
			beats:      false,
			timestamps: []int64{0, 11025, 22050, 33075},
		},
	}
	for _, test := range tests {
		s := midi.NewScheduler(sampleRate)
		require.NoError(t, s.Load(bytes.NewReader(testFile(t)), true, test.beats, test.allEvents))
		events := s.Events(test.beats)
		require.Len(t, events, len(test.timestamps))
		for i, e := range events {
			assert.Equal(t, test.timestamps[i], e.Timestamp)
		}
	}
}

func TestLoadAllEvents(t *testing.T) {
	s := midi.NewScheduler(sampleRate)
	require.NoError(t, s.Load(bytes.NewReader(testFile(t)), true, true, true))
	events := s.Events(true)
	// tempo meta event is included.
	assert.Greater(t, len(events), 4)
	assert.True(t, bytes.HasPrefix(events[0].Message, []byte{0xFF, 0x51}))
}

func TestLoadAppends(t *testing.T) {
	s := midi.NewScheduler(sampleRate)
	require.NoError(t, s.AddNote(50, 100, 10, 1, true))
	require.NoError(t, s.Load(bytes.NewReader(testFile(t)), false, true, false))
	assert.Equal(t, 6, s.NumEvents(true))
	require.NoError(t, s.Load(bytes.NewReader(testFile(t)), true, true, false))
	assert.Equal(t, 4, s.NumEvents(true))
}

func TestLoadTimeCodeInBeats(t *testing.T) {
	s := midi.NewScheduler(sampleRate)
	require.NoError(t, s.AddNote(60, 100, 0, 1, false))
	s.Reset()
	render(s, 120, 512, 100)
	var buf bytes.Buffer
	_, err := s.Recorded().WriteTo(&buf)
	require.NoError(t, err)

	err = midi.NewScheduler(sampleRate).Load(&buf, true, true, false)
	assert.ErrorIs(t, err, fault.ErrInvalidArgument)
}

func TestSaveRecorded(t *testing.T) {
	s := midi.NewScheduler(sampleRate)
	require.NoError(t, s.AddNote(60, 100, 0.5, 0.25, false))
	require.NoError(t, s.AddNote(64, 100, 1, 0.5, true))
	s.Reset()
	render(s, 120, 441, 100)
	require.Equal(t, 4, s.Recorded().Len())

	path := filepath.Join(t.TempDir(), "recorded.mid")
	require.NoError(t, s.Recorded().SaveFile(path))

	sm, err := smf.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, smf.SMPTE30(midi.RecordSubframes), sm.TimeFormat)
	require.Len(t, sm.Tracks, 1)

	var (
		ticks int64
		notes []int64
	)
	for _, e := range sm.Tracks[0] {
		ticks += int64(e.Delta)
		if e.Message.IsMeta() {
			continue
		}
		notes = append(notes, ticks)
	}
	// 0.5s, 0.75s, 0.5s, 0.75s at 2400 ticks per second.
	assert.Equal(t, []int64{1200, 1200, 1800, 1800}, notes)
}

func TestMarshalEvents(t *testing.T) {
	events := []midi.Event{
		{Message: gomidi.NoteOn(0, 60, 100), Timestamp: 0},
		{Message: gomidi.NoteOff(0, 60), Timestamp: 1 << 20},
		{Message: gomidi.NoteOn(1, 61, 10), Timestamp: -5},
	}
	data, err := midi.MarshalEvents(events)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 3, 0x90, 60, 100}, data[:9])

	decoded, err := midi.UnmarshalEvents(data)
	require.NoError(t, err)
	assert.Equal(t, events, decoded)

	_, err = midi.UnmarshalEvents(data[:len(data)-1])
	assert.ErrorIs(t, err, fault.ErrInvalidArgument)
	_, err = midi.MarshalEvents([]midi.Event{{Timestamp: 1 << 40}})
	assert.ErrorIs(t, err, fault.ErrInvalidArgument)
}
