package midi

import (
	"io"
	"os"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"pipelined.dev/render/transport"
)

// Sequence is a recorded sequence of delivered events. Timestamps are in
// ticks of RecordTicksPerSecond resolution.
type Sequence struct {
	Buffer
}

func (s *Sequence) add(msg gomidi.Message, ticks int64) {
	s.Buffer.add(Event{Message: msg, Timestamp: ticks})
}

// Set replaces recorded events. Events are ordered by timestamp.
func (s *Sequence) Set(events []Event) {
	s.clear()
	for _, e := range events {
		s.Buffer.add(e)
	}
}

// Reset drops recorded events.
func (s *Sequence) Reset() {
	s.clear()
}

// WriteTo writes sequence as standard MIDI file with SMPTE time format.
// Time signature and tempo are written at the start, recorded tempo and
// end of track events are omitted.
func (s *Sequence) WriteTo(w io.Writer) (int64, error) {
	sm := smf.New()
	sm.TimeFormat = smf.SMPTE30(RecordSubframes)

	var track smf.Track
	track.Add(0, smf.MetaMeter(4, 4))
	track.Add(0, smf.MetaTempo(transport.DefaultBPM))
	var last int64
	for _, e := range s.events {
		if skipOnExport(e.Message) {
			continue
		}
		track.Add(uint32(e.Timestamp-last), e.Message)
		last = e.Timestamp
	}
	track.Close(0)
	if err := sm.Add(track); err != nil {
		return 0, err
	}
	return sm.WriteTo(w)
}

// SaveFile writes sequence into file.
func (s *Sequence) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := s.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
