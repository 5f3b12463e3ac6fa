package midi

import (
	"fmt"
	"math"
	"sort"

	gomidi "gitlab.com/gomidi/midi/v2"

	"pipelined.dev/render/fault"
	"pipelined.dev/render/transport"
)

// Scheduler owns MIDI events of a single processor. Events are
// accumulated first and then played forward only: callers must reset
// scheduler before rendering from the start.
type Scheduler struct {
	sampleRate float64

	sec       Buffer
	secCursor Cursor
	qn        Buffer
	qnCursor  Cursor

	recorded Sequence
}

// NewScheduler returns a scheduler for provided sample rate. Sample rate
// is used to convert seconds into sample positions.
func NewScheduler(sampleRate float64) *Scheduler {
	return &Scheduler{sampleRate: sampleRate}
}

// SampleRate returns sample rate of the scheduler.
func (s *Scheduler) SampleRate() float64 {
	return s.sampleRate
}

// AddEvent adds a message. If beats is true, timestamp is in PPQN ticks,
// otherwise it's an absolute sample position.
func (s *Scheduler) AddEvent(msg gomidi.Message, timestamp int64, beats bool) {
	e := Event{Message: msg, Timestamp: timestamp}
	if beats {
		s.qnCursor.inserted(&s.qn, s.qn.add(e))
		return
	}
	s.secCursor.inserted(&s.sec, s.sec.add(e))
}

// AddNote adds note on and note off messages on the first channel.
// Start and duration are in beats or seconds.
func (s *Scheduler) AddNote(note, velocity uint8, start, duration float64, beats bool) error {
	switch {
	case note > 127:
		return fmt.Errorf("note %d: %w", note, fault.ErrInvalidArgument)
	case velocity > 127:
		return fmt.Errorf("velocity %d: %w", velocity, fault.ErrInvalidArgument)
	case duration <= 0 || math.IsNaN(duration):
		return fmt.Errorf("note duration %v: %w", duration, fault.ErrInvalidArgument)
	case start < 0 || math.IsNaN(start):
		return fmt.Errorf("note start %v: %w", start, fault.ErrInvalidArgument)
	}
	scale := s.sampleRate
	if beats {
		scale = PPQN
	}
	s.AddEvent(gomidi.NoteOn(0, note, velocity), int64(start*scale), beats)
	s.AddEvent(gomidi.NoteOff(0, note), int64((start+duration)*scale), beats)
	return nil
}

// NumEvents returns number of events on the timeline.
func (s *Scheduler) NumEvents(beats bool) int {
	if beats {
		return s.qn.Len()
	}
	return s.sec.Len()
}

// Events returns a copy of events on the timeline.
func (s *Scheduler) Events(beats bool) []Event {
	if beats {
		return s.qn.Events()
	}
	return s.sec.Events()
}

// Clear removes all events from both timelines.
func (s *Scheduler) Clear() {
	s.sec.clear()
	s.qn.clear()
	s.secCursor.Reset(&s.sec)
	s.qnCursor.Reset(&s.qn)
}

// Reset rewinds both timelines and clears recorded sequence.
func (s *Scheduler) Reset() {
	s.secCursor.Reset(&s.sec)
	s.qnCursor.Reset(&s.qn)
	s.recorded.Reset()
}

// Recorded returns sequence of delivered events.
func (s *Scheduler) Recorded() *Sequence {
	return &s.recorded
}

// Schedule returns events which fall into the block that starts at
// playhead position. Delivered events are recorded and cursors advanced.
// Events which are behind the block are skipped.
func (s *Scheduler) Schedule(ph transport.Playhead, numSamples int) Block {
	var block Block

	start := ph.TimeInSamples
	end := start + int64(numSamples)
	for e, ok := s.secCursor.Pending(); ok && e.Timestamp < end; e, ok = s.secCursor.Pending() {
		if e.Timestamp >= start {
			block = append(block, Timed{Offset: int(e.Timestamp - start), Message: e.Message})
			s.recorded.add(e.Message, int64(float64(e.Timestamp)*RecordTicksPerSecond/s.sampleRate))
		}
		s.secCursor.Advance(&s.sec)
	}

	if ph.BPM > 0 {
		pulseStart := math.Floor(ph.PPQPosition * PPQN)
		pulseEnd := pulseStart + float64(numSamples)*ph.BPM*PPQN/(s.sampleRate*60)
		for e, ok := s.qnCursor.Pending(); ok && float64(e.Timestamp) < pulseEnd; e, ok = s.qnCursor.Pending() {
			if pulses := float64(e.Timestamp) - pulseStart; pulses >= 0 {
				offset := int(pulses * 60 * s.sampleRate / (PPQN * ph.BPM))
				if offset >= numSamples {
					offset = numSamples - 1
				}
				block = append(block, Timed{Offset: offset, Message: e.Message})
				seconds := ph.TimeInSeconds + pulses*(60/ph.BPM)/PPQN
				s.recorded.add(e.Message, int64(seconds*RecordTicksPerSecond))
			}
			s.qnCursor.Advance(&s.qn)
		}
	}

	sort.SliceStable(block, func(i, j int) bool {
		return block[i].Offset < block[j].Offset
	})
	return block
}
