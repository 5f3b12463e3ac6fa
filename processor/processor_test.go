package processor_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomidi "gitlab.com/gomidi/midi/v2"

	"pipelined.dev/render/fault"
	"pipelined.dev/render/midi"
	"pipelined.dev/render/processor"
	"pipelined.dev/render/transport"
)

func TestBase(t *testing.T) {
	b := processor.NewBase("test", processor.Layout{Inputs: 2, Outputs: 2})
	assert.Equal(t, "test", b.Name())
	assert.False(t, b.AcceptsMidi())
	assert.ErrorIs(t, b.CheckPrepared(), fault.ErrNotPrepared)

	assert.ErrorIs(t, b.Prepare(0, 512), fault.ErrInvalidArgument)
	assert.ErrorIs(t, b.Prepare(44100, 0), fault.ErrInvalidArgument)
	require.NoError(t, b.Prepare(44100, 512))
	assert.NoError(t, b.CheckPrepared())
	assert.Equal(t, 44100.0, b.SampleRate())
	assert.Equal(t, 512, b.BlockSize())

	assert.NoError(t, b.ApplyLayout(processor.Layout{Inputs: 2, Outputs: 2}))
	assert.ErrorIs(t, b.ApplyLayout(processor.Layout{Inputs: 4, Outputs: 2}), fault.ErrUnsupportedLayout)
	assert.Equal(t, 4, processor.Layout{Inputs: 4, Outputs: 2}.Channels())
}

func TestBaseAutomation(t *testing.T) {
	b := processor.NewBase("test", processor.Layout{Outputs: 2})
	b.Parameters().Add("gain", 1)
	require.NoError(t, b.Prepare(44100, 4))
	require.NoError(t, b.SetAutomation("gain", []float32{0, 1, 2, 3, 4, 5, 6, 7}, 0))
	assert.ErrorIs(t, b.SetAutomation("missing", []float32{1}, 0), fault.ErrInvalidArgument)

	ph := transport.Start(120)
	b.RecordAutomation(ph, 4)
	assert.Empty(t, b.RecordedAutomation())

	b.SetRecordAutomation(true)
	for i := 0; i < 2; i++ {
		require.NoError(t, b.Automate(ph, 4))
		assert.Equal(t, float64(i*4), b.Value("gain"))
		b.RecordAutomation(ph, 4)
		ph = ph.Advance(4, 44100)
	}
	assert.Equal(t, []float32{0, 1, 2, 3, 4, 5, 6, 7}, b.RecordedAutomation()["gain"])

	b.Reset()
	assert.Empty(t, b.RecordedAutomation())
	assert.Equal(t, transport.Start(transport.DefaultBPM), b.Playhead())
}

func TestBaseSnapshot(t *testing.T) {
	b := processor.NewBase("test", processor.Layout{Outputs: 2})
	b.Parameters().Add("gain", 1)
	b.Parameters().Add("pan", 0)
	require.NoError(t, b.SetAutomation("gain", []float32{0.5, 1}, 8))
	rec := b.SnapshotAs("mock")
	assert.Equal(t, "mock", rec.ProcessorType)
	assert.Equal(t, "test", rec.UniqueName)
	assert.Equal(t, []float32{0.5, 1}, rec.Parameters["gain"])
	assert.Equal(t, uint32(8), rec.PPQN["gain"])

	restored := processor.NewBase("test", processor.Layout{Outputs: 2})
	restored.Parameters().Add("gain", 1)
	restored.Parameters().Add("pan", 0)
	require.NoError(t, restored.Restore(rec))
	values, err := restored.Automation("gain")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 1}, values)

	rec.Parameters["unknown"] = []float32{1}
	assert.ErrorIs(t, restored.Restore(rec), fault.ErrInvalidArgument)
}

func TestMidiBase(t *testing.T) {
	b := processor.NewMidiBase("synth", processor.Layout{Outputs: 2}, 44100)
	assert.True(t, b.AcceptsMidi())
	assert.ErrorIs(t, b.Prepare(48000, 512), fault.ErrInvalidArgument)
	require.NoError(t, b.Prepare(44100, 512))

	require.NoError(t, b.AddMidiNote(60, 100, 0, 0.001, false))
	assert.ErrorIs(t, b.AddMidiNote(60, 100, 0, 0, false), fault.ErrInvalidArgument)
	assert.Equal(t, 2, b.NumMidiEvents(false))

	b.Reset()
	require.NoError(t, b.Automate(transport.Start(120), 512))
	in := midi.Block{{Offset: 10, Message: gomidi.NoteOn(0, 72, 1)}}
	block := b.Schedule(512, in)
	require.Len(t, block, 3)
	assert.Equal(t, 0, block[0].Offset)
	assert.Equal(t, 10, block[1].Offset)
	assert.Equal(t, 44, block[2].Offset)
	assert.Equal(t, block, b.MidiOut())

	rec, err := b.SnapshotAs("synth")
	require.NoError(t, err)
	restored := processor.NewMidiBase("synth", processor.Layout{Outputs: 2}, 44100)
	require.NoError(t, restored.Restore(rec))
	assert.Equal(t, 2, restored.NumMidiEvents(false))
	recorded := b.Scheduler().Recorded().Events()
	assert.Len(t, recorded, 2)
	assert.Equal(t, recorded, restored.Scheduler().Recorded().Events())
	// restored recording is written as delivered.
	require.NoError(t, restored.SaveMidi(filepath.Join(t.TempDir(), "recorded.mid")))

	b.ClearMidi()
	assert.Equal(t, 0, b.NumMidiEvents(false))
}
