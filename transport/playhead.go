// Package transport provides the playhead snapshot which drives every
// block of processing.
package transport

// DefaultBPM is used when no tempo is set.
const DefaultBPM = 120.0

// Playhead is an immutable snapshot of transport position for a single
// block. Within one render pass it never moves backwards.
type Playhead struct {
	TimeInSamples int64
	TimeInSeconds float64
	// PPQPosition is the position in quarter notes.
	PPQPosition float64
	BPM         float64
	IsRecording bool
}

// Start returns a playhead positioned at the beginning of the timeline.
func Start(bpm float64) Playhead {
	return Playhead{BPM: bpm}
}

// Advance returns a playhead moved forward by numSamples. Seconds are
// recomputed from the absolute sample position and beats are advanced with
// the current tempo.
func (p Playhead) Advance(numSamples int, sampleRate float64) Playhead {
	p.TimeInSamples += int64(numSamples)
	p.TimeInSeconds = float64(p.TimeInSamples) / sampleRate
	p.PPQPosition += BeatsPerSample(p.BPM, sampleRate) * float64(numSamples)
	return p
}

// BeatsPerSample returns how many quarter notes pass during one sample.
func BeatsPerSample(bpm, sampleRate float64) float64 {
	return bpm / (sampleRate * 60)
}

// Check panics if playhead fields are negative or NaN. It's only active in
// builds with renderdebug tag, otherwise it's a no-op.
func (p Playhead) Check() {
	check(p)
}
