// Package state persists processor state as a versioned record.
package state

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v2"

	"pipelined.dev/render/fault"
	"pipelined.dev/render/midi"
)

// Version of persisted records. Records of any other version are rejected.
const Version = 1

// Record is a persisted state of single processor.
type Record struct {
	Version       int                  `yaml:"version"`
	ProcessorType string               `yaml:"processor_type"`
	UniqueName    string               `yaml:"unique_name"`
	Parameters    map[string][]float32 `yaml:"parameter_values,omitempty"`
	PPQN          map[string]uint32    `yaml:"ppqn,omitempty"`
	Settings      map[string]string    `yaml:"settings,omitempty"`
	MidiSec       string               `yaml:"midi_sec,omitempty"`
	MidiQN        string               `yaml:"midi_qn,omitempty"`
	RecordedMidi  string               `yaml:"recorded_midi,omitempty"`
}

// New returns a record of current version.
func New(processorType, name string) Record {
	return Record{
		Version:       Version,
		ProcessorType: processorType,
		UniqueName:    name,
		Parameters:    make(map[string][]float32),
		PPQN:          make(map[string]uint32),
		Settings:      make(map[string]string),
	}
}

// SetMidi stores events of both timelines and recorded sequence.
func (r *Record) SetMidi(sec, qn, recorded []midi.Event) (err error) {
	if r.MidiSec, err = encodeEvents(sec); err != nil {
		return err
	}
	if r.MidiQN, err = encodeEvents(qn); err != nil {
		return err
	}
	r.RecordedMidi, err = encodeEvents(recorded)
	return err
}

// Midi returns stored events of both timelines and recorded sequence.
func (r Record) Midi() (sec, qn, recorded []midi.Event, err error) {
	if sec, err = decodeEvents(r.MidiSec); err != nil {
		return
	}
	if qn, err = decodeEvents(r.MidiQN); err != nil {
		return
	}
	recorded, err = decodeEvents(r.RecordedMidi)
	return
}

func encodeEvents(events []midi.Event) (string, error) {
	if len(events) == 0 {
		return "", nil
	}
	data, err := midi.MarshalEvents(events)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func decodeEvents(s string) ([]midi.Event, error) {
	if s == "" {
		return nil, nil
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode midi: %v: %w", err, fault.ErrInvalidArgument)
	}
	return midi.UnmarshalEvents(data)
}

// Encode writes records as YAML document.
func Encode(w io.Writer, records ...Record) error {
	enc := yaml.NewEncoder(w)
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	return enc.Close()
}

// Decode reads records. Any record with version other than current fails
// the whole decoding.
func Decode(r io.Reader) ([]Record, error) {
	var records []Record
	if err := yaml.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	for _, rec := range records {
		if rec.Version != Version {
			return nil, fmt.Errorf("record %q has version %d, expected %d: %w", rec.UniqueName, rec.Version, Version, fault.ErrIncompatibleVersion)
		}
	}
	return records, nil
}

// Save writes records into file.
func Save(path string, records ...Record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, records...); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Load reads records from file.
func Load(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}
