package midi

import (
	"fmt"
	"io"
	"os"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"pipelined.dev/render/fault"
)

// Load reads standard MIDI file and adds its events. If beats is true,
// events are placed on the beat timeline and file ticks are rescaled to
// PPQN. Otherwise events are placed on the absolute timeline using the
// file's tempo map. Only note events are added unless allEvents is set.
func (s *Scheduler) Load(r io.Reader, clear, beats, allEvents bool) error {
	sm, err := smf.ReadFrom(r)
	if err != nil {
		return fmt.Errorf("read midi: %w", err)
	}
	var resolution int64
	if beats {
		ticks, ok := sm.TimeFormat.(smf.MetricTicks)
		if !ok {
			return fmt.Errorf("time code midi file can't be loaded in beats: %w", fault.ErrInvalidArgument)
		}
		resolution = int64(ticks.Resolution())
	}
	if clear {
		s.Clear()
	}
	for _, track := range sm.Tracks {
		var absTicks int64
		for _, e := range track {
			absTicks += int64(e.Delta)
			msg := gomidi.Message(e.Message)
			if !allEvents && !isNote(msg) {
				continue
			}
			if beats {
				s.AddEvent(msg, absTicks*PPQN/resolution, true)
				continue
			}
			seconds := float64(sm.TimeAt(absTicks)) / 1e6
			s.AddEvent(msg, int64(seconds*s.sampleRate), false)
		}
	}
	return nil
}

// LoadFile reads standard MIDI file from path.
func (s *Scheduler) LoadFile(path string, clear, beats, allEvents bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return s.Load(f, clear, beats, allEvents)
}
