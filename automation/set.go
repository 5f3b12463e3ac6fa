package automation

import (
	"fmt"

	"pipelined.dev/render/fault"
	"pipelined.dev/render/transport"
)

// Set is an ordered collection of named parameters. It also keeps
// recorded automation, one value per audio sample for every parameter.
type Set struct {
	names    []string
	params   map[string]*Parameter
	recorded map[string][]float32
}

// NewSet returns an empty parameter set.
func NewSet() *Set {
	return &Set{
		params:   make(map[string]*Parameter),
		recorded: make(map[string][]float32),
	}
}

// Add registers a constant parameter. If parameter with the same name
// already exists, its value is replaced.
func (s *Set) Add(name string, value float32) *Parameter {
	if p, ok := s.params[name]; ok {
		p.SetValue(value)
		return p
	}
	p := NewParameter(value)
	s.names = append(s.names, name)
	s.params[name] = p
	return p
}

// Names returns parameter names in the order they were added.
func (s *Set) Names() []string {
	return append(make([]string, 0, len(s.names)), s.names...)
}

// Get returns parameter by name.
func (s *Set) Get(name string) (*Parameter, error) {
	p, ok := s.params[name]
	if !ok {
		return nil, fmt.Errorf("parameter %q not found: %w", name, fault.ErrInvalidArgument)
	}
	return p, nil
}

// Value samples named parameter. Unknown parameters return zero.
func (s *Set) Value(name string, ph transport.Playhead) float32 {
	if p, ok := s.params[name]; ok {
		return p.Sample(ph)
	}
	return 0
}

// SetAutomation sets automation values for named parameter.
func (s *Set) SetAutomation(name string, values []float32, ppqn int) error {
	p, err := s.Get(name)
	if err != nil {
		return err
	}
	if err := p.SetAutomation(values, ppqn); err != nil {
		return fmt.Errorf("parameter %q: %w", name, err)
	}
	return nil
}

// SetValue makes named parameter constant.
func (s *Set) SetValue(name string, value float32) error {
	p, err := s.Get(name)
	if err != nil {
		return err
	}
	p.SetValue(value)
	return nil
}

// Automation returns values of named parameter.
func (s *Set) Automation(name string) ([]float32, error) {
	p, err := s.Get(name)
	if err != nil {
		return nil, err
	}
	return p.Values(), nil
}

// Record appends one sampled value per audio sample for every parameter.
func (s *Set) Record(ph transport.Playhead, numSamples int, sampleRate float64) {
	for _, name := range s.names {
		p := s.params[name]
		values := s.recorded[name]
		for i := 0; i < numSamples; i++ {
			values = append(values, p.Sample(ph.Advance(i, sampleRate)))
		}
		s.recorded[name] = values
	}
}

// Recorded returns a copy of recorded automation.
func (s *Set) Recorded() map[string][]float32 {
	m := make(map[string][]float32, len(s.recorded))
	for name, values := range s.recorded {
		m[name] = append(make([]float32, 0, len(values)), values...)
	}
	return m
}

// ClearRecorded drops recorded automation.
func (s *Set) ClearRecorded() {
	s.recorded = make(map[string][]float32)
}
