package warp

import (
	"fmt"
	"math"

	"pipelined.dev/render/fault"
	"pipelined.dev/render/transport"
)

// ClipWindow is a musical-time interval of the timeline where source audio
// is played. All positions are in beats.
type ClipWindow struct {
	Start float64
	End   float64
	// StartMarkerOffset is added to clip info start marker when clip starts.
	StartMarkerOffset float64
}

// DefaultClip plays source from the start without end.
var DefaultClip = ClipWindow{Start: 0, End: math.Inf(1)}

// Marker maps position in the source audio to a beat.
type Marker struct {
	Seconds float64
	Beat    float64
}

// ClipInfo describes how source audio is mapped onto beats. Loop and
// marker positions are in beats of the source audio.
type ClipInfo struct {
	WarpOn          bool
	LoopOn          bool
	LoopStart       float64
	LoopEnd         float64
	StartMarker     float64
	EndMarker       float64
	HiddenLoopStart float64
	HiddenLoopEnd   float64
	Markers         []Marker
}

const defaultLoopEnd = 262144

// NewClipInfo returns clip info with looping enabled and warping disabled.
func NewClipInfo() ClipInfo {
	return ClipInfo{
		LoopOn:        true,
		LoopEnd:       defaultLoopEnd,
		HiddenLoopEnd: defaultLoopEnd,
		EndMarker:     defaultLoopEnd,
	}
}

// positions returns loop and marker positions by their persisted names.
func (c *ClipInfo) positions() map[string]*float64 {
	return map[string]*float64{
		"loop_start":        &c.LoopStart,
		"loop_end":          &c.LoopEnd,
		"start_marker":      &c.StartMarker,
		"end_marker":        &c.EndMarker,
		"hidden_loop_start": &c.HiddenLoopStart,
		"hidden_loop_end":   &c.HiddenLoopEnd,
	}
}

// validateClips checks that clips are well-formed and sorted by start.
func validateClips(clips []ClipWindow) error {
	for i, c := range clips {
		if math.IsNaN(c.Start) || math.IsNaN(c.End) || c.Start > c.End {
			return fmt.Errorf("clip %d [%v, %v]: %w", i, c.Start, c.End, fault.ErrInvalidArgument)
		}
		if i > 0 && c.Start < clips[i-1].Start {
			return fmt.Errorf("clip %d starts at %v before previous clip at %v: %w", i, c.Start, clips[i-1].Start, fault.ErrInvalidArgument)
		}
	}
	return nil
}

// SetMarkers replaces warp markers. At least two markers strictly
// increasing in both position and beat are required.
func (c *ClipInfo) SetMarkers(markers []Marker) error {
	if len(markers) < 2 {
		return fmt.Errorf("%d warp markers, at least 2 required: %w", len(markers), fault.ErrInvalidArgument)
	}
	for i := 1; i < len(markers); i++ {
		if markers[i].Seconds <= markers[i-1].Seconds || markers[i].Beat <= markers[i-1].Beat {
			return fmt.Errorf("warp marker %d %v doesn't follow %v: %w", i, markers[i], markers[i-1], fault.ErrInvalidArgument)
		}
	}
	c.Markers = append(make([]Marker, 0, len(markers)), markers...)
	return nil
}

// ResetMarkers sets markers for source recorded at constant bpm and moves
// end markers to the end of the source of provided duration.
func (c *ClipInfo) ResetMarkers(bpm, seconds float64) error {
	if bpm <= 0 {
		return fmt.Errorf("reset warp markers with bpm %v: %w", bpm, fault.ErrInvalidArgument)
	}
	const beats = 1.0 / 32
	c.Markers = []Marker{
		{Seconds: 0, Beat: 0},
		{Seconds: beats * 60 / bpm, Beat: beats},
	}
	c.EndMarker = bpm / 60 * seconds
	c.LoopEnd = c.EndMarker
	c.HiddenLoopEnd = c.EndMarker
	return nil
}

// BeatToSeconds maps beat into position in the source audio and returns
// local tempo of the source at that beat. Beats after the last marker are
// extrapolated with the tempo of the last pair. Beats before the first
// marker and clips with less than two markers use default tempo.
func (c ClipInfo) BeatToSeconds(beat float64) (seconds, bpm float64) {
	if len(c.Markers) < 2 {
		return beat * 60 / transport.DefaultBPM, transport.DefaultBPM
	}
	if first := c.Markers[0]; beat < first.Beat {
		return first.Seconds + (beat-first.Beat)*60/transport.DefaultBPM, transport.DefaultBPM
	}
	i := 1
	for i < len(c.Markers)-1 && c.Markers[i].Beat < beat {
		i++
	}
	m1, m2 := c.Markers[i-1], c.Markers[i]
	bpm = (m2.Beat - m1.Beat) / (m2.Seconds - m1.Seconds) * 60
	x := (beat - m1.Beat) / (m2.Beat - m1.Beat)
	return m1.Seconds + x*(m2.Seconds-m1.Seconds), bpm
}

// BeatToSample maps beat into sample index of the source audio.
func (c ClipInfo) BeatToSample(beat, sampleRate float64) int {
	seconds, _ := c.BeatToSeconds(beat)
	return int(seconds * sampleRate)
}
