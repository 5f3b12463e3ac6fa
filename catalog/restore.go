package catalog

import (
	"fmt"
	"strconv"

	"pipelined.dev/render/add"
	"pipelined.dev/render/fault"
	"pipelined.dev/render/faust"
	"pipelined.dev/render/playback"
	"pipelined.dev/render/plugin"
	"pipelined.dev/render/processor"
	"pipelined.dev/render/sampler"
	"pipelined.dev/render/state"
	"pipelined.dev/render/warp"
)

// restorer is implemented by processors that can be restored from
// persisted state.
type restorer interface {
	Restore(state.Record) error
}

// Restore returns fresh processor of record type with restored state.
// Source data of playback, sampler and playback_warp processors isn't
// persisted and must be set before render. Plugin parameters are applied
// once instance is attached.
func Restore(rec state.Record, sampleRate float64) (processor.Processor, error) {
	var b Builder
	return b.Restore(rec, sampleRate)
}

// Restore returns fresh processor of record type with restored state.
// Faust programs are compiled if builder has compiler.
func (b *Builder) Restore(rec state.Record, sampleRate float64) (processor.Processor, error) {
	if rec.Version != state.Version {
		return nil, fmt.Errorf("%s: version %d: %w", rec.UniqueName, rec.Version, fault.ErrIncompatibleVersion)
	}
	spec := NodeSpec{
		Type: rec.ProcessorType,
		Name: rec.UniqueName,
		Mode: rec.Settings["mode"],
		Rule: rec.Settings["rule"],
		Code: rec.Settings["code"],
	}
	var (
		p   processor.Processor
		err error
	)
	switch rec.ProcessorType {
	case "":
		return nil, fmt.Errorf("%s: no processor type: %w", rec.UniqueName, fault.ErrInvalidArgument)
	case add.Type:
		if spec.Gains, err = add.ParseGains(rec.Settings["gains"]); err != nil {
			return nil, err
		}
		p, err = b.New(sampleRate, spec)
	case faust.Type:
		if spec.Voices, err = atoi(rec, "voices"); err != nil {
			return nil, err
		}
		f := faust.New(spec.Name, b.Compiler, sampleRate)
		f.SetCode(spec.Code)
		if err = f.SetNumVoices(spec.Voices); err == nil && b.Compiler != nil {
			err = f.Compile()
		}
		p = f
	default:
		p, err = b.empty(sampleRate, spec)
	}
	if err != nil {
		return nil, err
	}
	r, ok := p.(restorer)
	if !ok {
		return nil, fmt.Errorf("%s: %s can't be restored: %w", spec.Name, spec.Type, fault.ErrInvalidArgument)
	}
	if err := r.Restore(rec); err != nil {
		return nil, err
	}
	return p, nil
}

// empty creates processor without source data or plugin instance.
func (b *Builder) empty(sampleRate float64, spec NodeSpec) (processor.Processor, error) {
	switch spec.Type {
	case playback.Type:
		return playback.New(spec.Name, nil), nil
	case sampler.Type:
		return sampler.New(spec.Name, nil, 0, sampleRate), nil
	case warp.Type:
		return warp.New(spec.Name, nil, 0, nil), nil
	case plugin.Type:
		return plugin.New(spec.Name, nil, sampleRate), nil
	}
	return b.New(sampleRate, spec)
}

func atoi(rec state.Record, key string) (int, error) {
	s, ok := rec.Settings[key]
	if !ok {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %s %q: %w", rec.UniqueName, key, s, fault.ErrInvalidArgument)
	}
	return v, nil
}
