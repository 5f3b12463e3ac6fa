// Package catalog constructs processors by type name. It's used to build
// render graph from declarative description and to restore processors
// from persisted state.
package catalog

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"pipelined.dev/render"
	"pipelined.dev/render/add"
	"pipelined.dev/render/compressor"
	"pipelined.dev/render/delay"
	"pipelined.dev/render/fault"
	"pipelined.dev/render/faust"
	"pipelined.dev/render/filter"
	"pipelined.dev/render/mp3"
	"pipelined.dev/render/oscillator"
	"pipelined.dev/render/panner"
	"pipelined.dev/render/playback"
	"pipelined.dev/render/plugin"
	"pipelined.dev/render/processor"
	"pipelined.dev/render/reverb"
	"pipelined.dev/render/sampler"
	"pipelined.dev/render/signal"
	"pipelined.dev/render/synth"
	"pipelined.dev/render/warp"
	"pipelined.dev/render/wav"
)

// Builder creates processors from node descriptions. Relative file paths
// are resolved against Dir.
type Builder struct {
	Dir string
	// Compiler is used by faust nodes.
	Compiler faust.Compiler
	// Plugin loads plugin instance of plugin nodes from file.
	Plugin func(path string, sampleRate float64) (plugin.Instance, error)
}

type constructor func(b *Builder, spec NodeSpec, sampleRate float64) (processor.Processor, error)

var constructors = map[string]constructor{
	oscillator.Type: func(_ *Builder, spec NodeSpec, _ float64) (processor.Processor, error) {
		return oscillator.New(spec.Name, 440), nil
	},
	add.Type: func(_ *Builder, spec NodeSpec, _ float64) (processor.Processor, error) {
		return add.New(spec.Name, spec.Gains...), nil
	},
	filter.Type: func(_ *Builder, spec NodeSpec, _ float64) (processor.Processor, error) {
		mode := filter.Low
		if spec.Mode != "" {
			var err error
			if mode, err = filter.ParseMode(spec.Mode); err != nil {
				return nil, err
			}
		}
		return filter.New(spec.Name, mode, 1000, 0.707107, 1), nil
	},
	compressor.Type: func(_ *Builder, spec NodeSpec, _ float64) (processor.Processor, error) {
		return compressor.New(spec.Name, 0, 2, 2, 100), nil
	},
	delay.Type: func(_ *Builder, spec NodeSpec, _ float64) (processor.Processor, error) {
		return delay.New(spec.Name, 0, 0.1), nil
	},
	reverb.Type: func(_ *Builder, spec NodeSpec, _ float64) (processor.Processor, error) {
		return reverb.New(spec.Name), nil
	},
	panner.Type: func(_ *Builder, spec NodeSpec, _ float64) (processor.Processor, error) {
		rule := panner.Linear
		if spec.Rule != "" {
			var err error
			if rule, err = panner.ParseRule(spec.Rule); err != nil {
				return nil, err
			}
		}
		return panner.New(spec.Name, rule, 0), nil
	},
	playback.Type: func(b *Builder, spec NodeSpec, _ float64) (processor.Processor, error) {
		data, _, err := b.audio(spec)
		if err != nil {
			return nil, err
		}
		return playback.New(spec.Name, data), nil
	},
	warp.Type: func(b *Builder, spec NodeSpec, _ float64) (processor.Processor, error) {
		data, sampleRate, err := b.audio(spec)
		if err != nil {
			return nil, err
		}
		p := warp.New(spec.Name, data, sampleRate, nil)
		if err := b.warp(p, spec); err != nil {
			return nil, err
		}
		return p, nil
	},
	synth.Type: func(_ *Builder, spec NodeSpec, sampleRate float64) (processor.Processor, error) {
		return synth.New(spec.Name, sampleRate), nil
	},
	sampler.Type: func(b *Builder, spec NodeSpec, sampleRate float64) (processor.Processor, error) {
		data, dataSampleRate, err := b.audio(spec)
		if err != nil {
			return nil, err
		}
		return sampler.New(spec.Name, data, dataSampleRate, sampleRate), nil
	},
	plugin.Type: func(b *Builder, spec NodeSpec, sampleRate float64) (processor.Processor, error) {
		if b.Plugin == nil {
			return nil, fmt.Errorf("%s: plugin host isn't available: %w", spec.Name, fault.ErrInvalidArgument)
		}
		instance, err := b.Plugin(b.path(spec.File), sampleRate)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", spec.Name, err)
		}
		return plugin.New(spec.Name, instance, sampleRate), nil
	},
	faust.Type: func(b *Builder, spec NodeSpec, sampleRate float64) (processor.Processor, error) {
		p := faust.New(spec.Name, b.Compiler, sampleRate)
		p.SetCode(spec.Code)
		if err := p.SetNumVoices(spec.Voices); err != nil {
			return nil, err
		}
		if err := p.Compile(); err != nil {
			return nil, err
		}
		return p, nil
	},
}

// Types returns sorted names of supported processor types.
func Types() []string {
	types := make([]string, 0, len(constructors))
	for t := range constructors {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Build creates nodes from descriptions. All errors are returned.
func (b *Builder) Build(sampleRate float64, specs ...NodeSpec) ([]render.Node, error) {
	var (
		errs  fault.Errors
		nodes = make([]render.Node, 0, len(specs))
	)
	for i, spec := range specs {
		p, err := b.New(sampleRate, spec)
		if err != nil {
			errs = append(errs, fmt.Errorf("node %d: %w", i, err))
			continue
		}
		nodes = append(nodes, render.Node{Processor: p, Inputs: spec.Inputs})
	}
	if err := errs.Ret(); err != nil {
		return nil, err
	}
	return nodes, nil
}

// New creates and configures processor from description.
func (b *Builder) New(sampleRate float64, spec NodeSpec) (processor.Processor, error) {
	if spec.Name == "" {
		return nil, fmt.Errorf("%s: empty name: %w", spec.Type, fault.ErrInvalidArgument)
	}
	fn, ok := constructors[spec.Type]
	if !ok {
		return nil, fmt.Errorf("%s: unknown type %q: %w", spec.Name, spec.Type, fault.ErrInvalidArgument)
	}
	p, err := fn(b, spec, sampleRate)
	if err != nil {
		return nil, err
	}
	if err := b.configure(p, spec); err != nil {
		return nil, err
	}
	return p, nil
}

// parameterized is implemented by processors with automatable
// parameters.
type parameterized interface {
	SetValue(name string, value float32) error
	SetAutomation(name string, values []float32, ppqn int) error
	SetRecordOutput(bool)
	SetRecordAutomation(bool)
}

// sequencer is implemented by processors with scheduled MIDI.
type sequencer interface {
	AddMidiNote(note, velocity uint8, start, duration float64, beats bool) error
	LoadMidi(path string, clear, beats, allEvents bool) error
}

// configure applies generic settings of description.
func (b *Builder) configure(p processor.Processor, spec NodeSpec) error {
	if pp, ok := p.(parameterized); ok {
		for _, name := range sortedKeys(spec.Params) {
			if err := pp.SetValue(name, spec.Params[name]); err != nil {
				return fmt.Errorf("%s: %w", spec.Name, err)
			}
		}
		for name, a := range spec.Automation {
			if err := pp.SetAutomation(name, a.Values, a.PPQN); err != nil {
				return fmt.Errorf("%s: %w", spec.Name, err)
			}
		}
		pp.SetRecordOutput(spec.Record.Output)
		pp.SetRecordAutomation(spec.Record.Automation)
	}

	if len(spec.Notes) == 0 && spec.Midi == nil {
		return nil
	}
	s, ok := p.(sequencer)
	if !ok {
		return fmt.Errorf("%s: %s doesn't accept MIDI: %w", spec.Name, spec.Type, fault.ErrInvalidArgument)
	}
	if spec.Midi != nil {
		if err := s.LoadMidi(b.path(spec.Midi.Path), true, spec.Midi.Beats, spec.Midi.AllEvents); err != nil {
			return err
		}
	}
	for _, n := range spec.Notes {
		if err := s.AddMidiNote(n.Note, n.Velocity, n.Start, n.Duration, n.Beats); err != nil {
			return err
		}
	}
	return nil
}

// warp applies clip settings of description.
func (b *Builder) warp(p *warp.Processor, spec NodeSpec) error {
	if len(spec.Clips) > 0 {
		clips := make([]warp.ClipWindow, 0, len(spec.Clips))
		for _, c := range spec.Clips {
			end := math.Inf(1)
			if c.End != nil {
				end = *c.End
			}
			clips = append(clips, warp.ClipWindow{Start: c.Start, End: end, StartMarkerOffset: c.Offset})
		}
		if err := p.SetClips(clips); err != nil {
			return err
		}
	}
	w := spec.Warp
	if w == nil {
		return nil
	}
	if w.ASD != "" {
		if err := p.LoadClipInfo(b.path(w.ASD)); err != nil {
			return err
		}
	}
	if w.BPM != 0 {
		if err := p.ResetWarpMarkers(w.BPM); err != nil {
			return err
		}
	}
	if len(w.Markers) > 0 {
		if err := p.SetWarpMarkers(w.Markers); err != nil {
			return err
		}
	}
	if w.TimeRatio != 0 {
		if err := p.SetTimeRatio(w.TimeRatio); err != nil {
			return err
		}
	}
	if w.On != nil {
		p.SetWarpOn(*w.On)
	}
	if w.Loop != nil {
		p.SetLoopOn(*w.Loop)
	}
	return nil
}

// audio loads source file of description. Format is chosen by
// extension.
func (b *Builder) audio(spec NodeSpec) (signal.Float64, float64, error) {
	if spec.File == "" {
		return nil, 0, fmt.Errorf("%s: no source file: %w", spec.Name, fault.ErrInvalidArgument)
	}
	var (
		data       signal.Float64
		sampleRate float64
		err        error
	)
	switch path := b.path(spec.File); strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		data, sampleRate, err = wav.Load(path)
	case ".mp3":
		data, sampleRate, err = mp3.Load(path)
	default:
		return nil, 0, fmt.Errorf("%s: unsupported file %s: %w", spec.Name, spec.File, fault.ErrInvalidArgument)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", spec.Name, err)
	}
	return data, sampleRate, nil
}

func (b *Builder) path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(b.Dir, p)
}

func sortedKeys(m map[string]float32) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
