// Package warp plays pre-recorded audio in sync with the transport tempo.
//
// Source audio is placed on the timeline with clip windows. Warp markers
// define a piecewise-linear mapping between source position and beats,
// which gives the local tempo of the source. Processor feeds source
// samples one at a time into a streaming time-stretcher, adjusting the
// time ratio so source tempo follows the transport.
package warp

import (
	"fmt"
	"math"
	"strconv"

	"gopkg.in/yaml.v2"

	"pipelined.dev/render/fault"
	"pipelined.dev/render/midi"
	"pipelined.dev/render/processor"
	"pipelined.dev/render/signal"
	"pipelined.dev/render/state"
	"pipelined.dev/render/transport"
)

// Type of processor.
const Type = "playback_warp"

// Processor is a clip/warp sequencer.
type Processor struct {
	processor.Base
	data           signal.Float64
	dataSampleRate float64
	stretcher      Stretcher
	clips          []ClipWindow
	info           ClipInfo
	// timeRatio is used when warping is disabled.
	timeRatio float64
	// infoSet is true once clip info is provided explicitly. Such info
	// survives source data changes.
	infoSet bool

	clipIndex       int
	sampleReadIndex int
	frame           [][]float64
}

// New returns warp processor for the source data. Zero data sample rate
// means it's equal to the render sample rate. If stretcher is nil,
// Resampler is used.
func New(name string, data signal.Float64, dataSampleRate float64, s Stretcher) *Processor {
	if s == nil {
		s = NewResampler()
	}
	p := &Processor{
		Base:           processor.NewBase(name, processor.Layout{Outputs: data.NumChannels()}),
		data:           data,
		dataSampleRate: dataSampleRate,
		stretcher:      s,
		clips:          []ClipWindow{DefaultClip},
		info:           NewClipInfo(),
		timeRatio:      1,
		frame:          signal.EmptyFloat64(data.NumChannels(), 1),
	}
	p.Parameters().Add("transpose", 0)
	if dataSampleRate > 0 {
		p.info.ResetMarkers(transport.DefaultBPM, p.sourceSeconds())
	}
	return p
}

// SetData replaces source audio. Unless clip info was set explicitly,
// warp markers are reset for default tempo. Number of channels must not
// change once the processor is connected.
func (p *Processor) SetData(data signal.Float64, dataSampleRate float64) {
	p.data = data
	p.dataSampleRate = dataSampleRate
	p.frame = signal.EmptyFloat64(data.NumChannels(), 1)
	p.SetLayout(processor.Layout{Outputs: data.NumChannels()})
	if p.infoSet {
		return
	}
	p.info.Markers = nil
	if dataSampleRate > 0 {
		p.info.ResetMarkers(transport.DefaultBPM, p.sourceSeconds())
	}
}

// SetClips replaces clip windows. Clips must be sorted by start position.
func (p *Processor) SetClips(clips []ClipWindow) error {
	if err := validateClips(clips); err != nil {
		return fmt.Errorf("%s: %w", p.Name(), err)
	}
	p.clips = append(make([]ClipWindow, 0, len(clips)), clips...)
	return nil
}

// Clips returns clip windows.
func (p *Processor) Clips() []ClipWindow {
	return append(make([]ClipWindow, 0, len(p.clips)), p.clips...)
}

// ClipInfo returns current clip info.
func (p *Processor) ClipInfo() ClipInfo {
	return p.info
}

// SetClipInfo replaces clip info. Warp markers are validated if present.
func (p *Processor) SetClipInfo(info ClipInfo) error {
	if len(info.Markers) > 0 {
		if err := info.SetMarkers(info.Markers); err != nil {
			return fmt.Errorf("%s: %w", p.Name(), err)
		}
	}
	p.info = info
	p.infoSet = true
	return nil
}

// SetWarpMarkers replaces warp markers.
func (p *Processor) SetWarpMarkers(markers []Marker) error {
	if err := p.info.SetMarkers(markers); err != nil {
		return fmt.Errorf("%s: %w", p.Name(), err)
	}
	p.infoSet = true
	return nil
}

// ResetWarpMarkers sets markers for source recorded at constant tempo.
func (p *Processor) ResetWarpMarkers(bpm float64) error {
	if err := p.info.ResetMarkers(bpm, p.sourceSeconds()); err != nil {
		return fmt.Errorf("%s: %w", p.Name(), err)
	}
	return nil
}

// LoadClipInfo reads clip info from Ableton Live analysis file.
func (p *Processor) LoadClipInfo(path string) error {
	info, err := LoadASD(path)
	if err != nil {
		return fmt.Errorf("%s: %w", p.Name(), err)
	}
	return p.SetClipInfo(info)
}

// SetWarpOn enables warping.
func (p *Processor) SetWarpOn(on bool) {
	p.info.WarpOn = on
}

// SetLoopOn enables looping.
func (p *Processor) SetLoopOn(on bool) {
	p.info.LoopOn = on
}

// SetTimeRatio sets time ratio used when warping is disabled.
func (p *Processor) SetTimeRatio(ratio float64) error {
	if ratio <= 0 || math.IsNaN(ratio) {
		return fmt.Errorf("%s: time ratio %v: %w", p.Name(), ratio, fault.ErrInvalidArgument)
	}
	p.timeRatio = ratio
	return nil
}

func (p *Processor) sourceRate() float64 {
	if p.dataSampleRate > 0 {
		return p.dataSampleRate
	}
	return p.SampleRate()
}

func (p *Processor) sourceSeconds() float64 {
	if p.dataSampleRate <= 0 {
		return 0
	}
	return float64(p.data.Size()) / p.dataSampleRate
}

// Prepare sets source sample rate if it wasn't provided and resets warp
// markers for default tempo. Stretcher gets both sample rates.
func (p *Processor) Prepare(sampleRate float64, blockSize int) error {
	if err := p.Base.Prepare(sampleRate, blockSize); err != nil {
		return err
	}
	if p.dataSampleRate <= 0 {
		p.dataSampleRate = sampleRate
		if len(p.info.Markers) == 0 {
			if err := p.ResetWarpMarkers(transport.DefaultBPM); err != nil {
				return err
			}
		}
	}
	if rs, ok := p.stretcher.(rateSetter); ok {
		if err := rs.SetRates(p.sourceRate(), sampleRate); err != nil {
			return fmt.Errorf("%s: %v: %w", p.Name(), err, fault.ErrInvalidArgument)
		}
	}
	return nil
}

// Automate updates pitch scale of the stretcher.
func (p *Processor) Automate(ph transport.Playhead, numSamples int) error {
	if err := p.Base.Automate(ph, numSamples); err != nil {
		return err
	}
	if p.SampleRate() > 0 {
		p.stretcher.SetPitchScale(math.Pow(2, p.Value("transpose")/12) * p.sourceRate() / p.SampleRate())
	}
	return nil
}

// startClip positions read index at the start of current clip.
func (p *Processor) startClip() {
	p.sampleReadIndex = 0
	if p.info.WarpOn && p.clipIndex < len(p.clips) {
		p.sampleReadIndex = p.info.BeatToSample(p.info.StartMarker+p.clips[p.clipIndex].StartMarkerOffset, p.sourceRate())
	}
}

// nextClip switches to the next clip. Returns false if there are no clips
// left.
func (p *Processor) nextClip() bool {
	p.clipIndex++
	if p.clipIndex >= len(p.clips) {
		return false
	}
	p.stretcher.Reset()
	p.startClip()
	return true
}

// Process fills the block with stretched source audio.
func (p *Processor) Process(buf signal.Float64, _ midi.Block) error {
	if err := p.CheckPrepared(); err != nil {
		return err
	}
	numChannels := p.Layout().Outputs
	out := buf[:numChannels]
	out.Clear()
	if p.clipIndex >= len(p.clips) {
		return nil
	}

	ph := p.Playhead()
	sampleRate := p.SampleRate()
	sourceRate := p.sourceRate()
	beatsPerSample := transport.BeatsPerSample(ph.BPM, sampleRate)
	numSamples := out.Size()
	movingPPQ := ph.PPQPosition
	written := 0
	for written < numSamples {
		clip := p.clips[p.clipIndex]

		// drain stretched samples, but not past the clip end.
		retrieve := p.stretcher.Available()
		if left := numSamples - written; retrieve > left {
			retrieve = left
		}
		if !math.IsInf(clip.End, 1) {
			if left := int(math.Ceil((clip.End - movingPPQ) / beatsPerSample)); retrieve > left {
				retrieve = left
			}
		}
		if retrieve > 0 {
			window := make([][]float64, numChannels)
			for c := range window {
				window[c] = out[c][written : written+retrieve]
			}
			n := p.stretcher.Retrieve(window)
			written += n
			movingPPQ += float64(n) * beatsPerSample
			if n > 0 {
				continue
			}
		}

		if movingPPQ >= clip.End {
			if !p.nextClip() {
				return nil
			}
			continue
		}

		// silence before the clip starts.
		if movingPPQ < clip.Start {
			written++
			movingPPQ += beatsPerSample
			continue
		}

		ppqPosition := movingPPQ - clip.Start + clip.StartMarkerOffset
		if ppqPosition > p.info.EndMarker && !p.info.LoopOn {
			if !p.nextClip() {
				// no clips left, rest of the block stays silent.
				return nil
			}
			continue
		}

		if p.info.WarpOn {
			if loopSize := p.info.LoopEnd - p.info.LoopStart; p.info.LoopOn && loopSize > 0 {
				if ppqPosition > p.info.LoopEnd {
					ppqPosition = p.info.LoopStart + math.Mod(ppqPosition-p.info.LoopStart, loopSize)
				}
				if p.sampleReadIndex > p.info.BeatToSample(p.info.LoopEnd, sourceRate) {
					p.sampleReadIndex = p.info.BeatToSample(p.info.LoopStart, sourceRate)
				}
			}
			_, bpm := p.info.BeatToSeconds(ppqPosition)
			p.stretcher.SetTimeRatio(bpm / ph.BPM * sampleRate / sourceRate)
		} else {
			p.stretcher.SetTimeRatio(p.timeRatio * sampleRate / sourceRate)
		}

		for c := range p.frame {
			p.frame[c][0] = 0
			if p.sampleReadIndex >= 0 && p.sampleReadIndex < p.data.Size() {
				p.frame[c][0] = p.data[c][p.sampleReadIndex]
			}
		}
		p.stretcher.Process(p.frame, false)
		p.sampleReadIndex++
	}
	return nil
}

// Reset rewinds sequencer to the first clip.
func (p *Processor) Reset() {
	p.Base.Reset()
	p.stretcher.Reset()
	p.clipIndex = 0
	p.startClip()
}

// Snapshot returns persisted state with clip windows and clip info.
// Source audio isn't persisted.
func (p *Processor) Snapshot() (state.Record, error) {
	rec := p.SnapshotAs(Type)
	rec.Settings["warp_on"] = strconv.FormatBool(p.info.WarpOn)
	rec.Settings["loop_on"] = strconv.FormatBool(p.info.LoopOn)
	rec.Settings["time_ratio"] = formatFloat(p.timeRatio)
	for key, v := range p.info.positions() {
		rec.Settings[key] = formatFloat(*v)
	}
	markers := make([][]float64, 0, len(p.info.Markers))
	for _, m := range p.info.Markers {
		markers = append(markers, []float64{m.Seconds, m.Beat})
	}
	clips := make([][]float64, 0, len(p.clips))
	for _, c := range p.clips {
		clips = append(clips, []float64{c.Start, c.End, c.StartMarkerOffset})
	}
	for key, v := range map[string][][]float64{"markers": markers, "clips": clips} {
		b, err := yaml.Marshal(v)
		if err != nil {
			return state.Record{}, fmt.Errorf("%s: %s: %w", p.Name(), key, err)
		}
		rec.Settings[key] = string(b)
	}
	return rec, nil
}

// Restore sets parameter values, clip windows and clip info from record.
// Settings missing in the record keep current values.
func (p *Processor) Restore(rec state.Record) error {
	info := p.info
	clips := p.clips
	timeRatio := p.timeRatio
	invalid := func(key string) error {
		return fmt.Errorf("%s: %s %q: %w", p.Name(), key, rec.Settings[key], fault.ErrInvalidArgument)
	}
	for key, v := range map[string]*bool{"warp_on": &info.WarpOn, "loop_on": &info.LoopOn} {
		if s, ok := rec.Settings[key]; ok {
			on, err := strconv.ParseBool(s)
			if err != nil {
				return invalid(key)
			}
			*v = on
		}
	}
	positions := info.positions()
	positions["time_ratio"] = &timeRatio
	for key, v := range positions {
		if s, ok := rec.Settings[key]; ok {
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return invalid(key)
			}
			*v = f
		}
	}
	if timeRatio <= 0 || math.IsNaN(timeRatio) {
		return invalid("time_ratio")
	}
	if s, ok := rec.Settings["markers"]; ok {
		var values [][]float64
		if err := yaml.UnmarshalStrict([]byte(s), &values); err != nil {
			return invalid("markers")
		}
		markers := make([]Marker, 0, len(values))
		for _, v := range values {
			if len(v) != 2 {
				return invalid("markers")
			}
			markers = append(markers, Marker{Seconds: v[0], Beat: v[1]})
		}
		info.Markers = nil
		if len(markers) > 0 {
			if err := info.SetMarkers(markers); err != nil {
				return fmt.Errorf("%s: %w", p.Name(), err)
			}
		}
	}
	if s, ok := rec.Settings["clips"]; ok {
		var values [][]float64
		if err := yaml.UnmarshalStrict([]byte(s), &values); err != nil {
			return invalid("clips")
		}
		clips = make([]ClipWindow, 0, len(values))
		for _, v := range values {
			if len(v) != 3 {
				return invalid("clips")
			}
			clips = append(clips, ClipWindow{Start: v[0], End: v[1], StartMarkerOffset: v[2]})
		}
		if err := validateClips(clips); err != nil {
			return fmt.Errorf("%s: %w", p.Name(), err)
		}
	}
	if err := p.Base.Restore(rec); err != nil {
		return err
	}
	p.info = info
	p.clips = clips
	p.timeRatio = timeRatio
	p.infoSet = true
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
