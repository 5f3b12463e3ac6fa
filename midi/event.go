// Package midi schedules MIDI events of a processor on two independent
// timelines. Events authored in absolute time are kept in samples, events
// authored in musical time are kept in ticks of PPQN resolution. Both are
// merged into render-local blocks with sample offsets.
package midi

import (
	gomidi "gitlab.com/gomidi/midi/v2"
)

const (
	// PPQN is the internal resolution of beat-relative events. It's finer
	// than common source files so re-quantization on import is lossless.
	PPQN = 3840

	// RecordFPS and RecordSubframes define time code of recorded sequence.
	RecordFPS       = 30
	RecordSubframes = 80
	// RecordTicksPerSecond is the resolution of recorded sequence.
	RecordTicksPerSecond = RecordFPS * RecordSubframes
)

// Event is a raw MIDI message with absolute timestamp. Timestamp unit
// depends on the buffer event belongs to.
type Event struct {
	Message   gomidi.Message
	Timestamp int64
}

// Timed is a message positioned inside the current block.
type Timed struct {
	Offset  int
	Message gomidi.Message
}

// Block is a render-local MIDI buffer.
type Block []Timed

// isNote returns true for note on and note off messages.
func isNote(msg gomidi.Message) bool {
	var ch, key, vel uint8
	return msg.GetNoteOn(&ch, &key, &vel) || msg.GetNoteOff(&ch, &key, &vel)
}

// skipOnExport returns true for meta events which are not written into
// recorded files: end of track and tempo.
func skipOnExport(msg gomidi.Message) bool {
	return len(msg) > 1 && msg[0] == 0xFF && (msg[1] == 0x2F || msg[1] == 0x51)
}
