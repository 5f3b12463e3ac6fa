package warp

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-dsp/dsp/effects/pitch"
)

// Stretcher is a streaming time-stretcher. Samples are pushed with Process
// and pulled with Retrieve once Available reports them.
type Stretcher interface {
	// SetTimeRatio sets ratio of output duration to input duration.
	SetTimeRatio(ratio float64)
	// SetPitchScale sets ratio of output pitch to source pitch. It
	// includes the source to render sample rate ratio.
	SetPitchScale(scale float64)
	Process(in [][]float64, final bool)
	Available() int
	// Retrieve fills out with up to len(out[0]) samples and returns how
	// many were written.
	Retrieve(out [][]float64) int
	Reset()
}

// rateSetter is implemented by stretchers that need source and render
// sample rates.
type rateSetter interface {
	SetRates(sourceRate, sampleRate float64) error
}

const (
	// pitchChunk is the number of varispeed samples shifted at once.
	pitchChunk = 8192
	minPitch   = 0.25
	maxPitch   = 4
)

// Resampler is a varispeed stretcher: it changes duration by resampling
// with linear interpolation, so pitch follows the time ratio. Pitch scale
// is applied on top of varispeed output with a WSOLA pitch shifter in
// chunks of pitchChunk samples, limited to two octaves. Resampling already
// converts sample rates, so the rate part of the pitch scale is removed.
type Resampler struct {
	ratio float64
	pitch float64
	pos   float64
	fifo  [][]float64

	rateScale float64
	shifter   *pitch.PitchShifter
	pending   [][]float64
	shifted   [][]float64
}

// NewResampler returns resampler with unit ratio.
func NewResampler() *Resampler {
	return &Resampler{ratio: 1, pitch: 1, rateScale: 1}
}

// SetTimeRatio sets time ratio. Non-positive values are ignored.
func (r *Resampler) SetTimeRatio(ratio float64) {
	if ratio > 0 && !math.IsInf(ratio, 0) {
		r.ratio = ratio
	}
}

// SetPitchScale sets pitch scale. Non-positive values are ignored.
func (r *Resampler) SetPitchScale(scale float64) {
	if scale > 0 && !math.IsInf(scale, 0) {
		r.pitch = scale
	}
}

// SetRates creates pitch shifter for the render sample rate.
func (r *Resampler) SetRates(sourceRate, sampleRate float64) error {
	if sourceRate <= 0 || sampleRate <= 0 {
		return fmt.Errorf("sample rates %v and %v must be positive", sourceRate, sampleRate)
	}
	shifter, err := pitch.NewPitchShifter(sampleRate)
	if err != nil {
		return err
	}
	r.shifter = shifter
	r.rateScale = sampleRate / sourceRate
	return nil
}

// shift returns pitch ratio applied after varispeed.
func (r *Resampler) shift() float64 {
	return math.Min(math.Max(r.pitch*r.rateScale, minPitch), maxPitch)
}

// direct reports whether varispeed output is retrieved without shifting.
func (r *Resampler) direct() bool {
	if r.shifter != nil && math.Abs(r.shift()-1) > 1e-9 {
		return false
	}
	return len(r.shifted) == 0 && (len(r.pending) == 0 || len(r.pending[0]) == 0)
}

// Process appends input samples.
func (r *Resampler) Process(in [][]float64, final bool) {
	if r.fifo == nil {
		r.fifo = make([][]float64, len(in))
	}
	for c := range r.fifo {
		r.fifo[c] = append(r.fifo[c], in[c]...)
	}
}

// Available returns number of samples that can be retrieved.
func (r *Resampler) Available() int {
	if r.direct() {
		return r.available()
	}
	r.fill()
	if len(r.shifted) == 0 {
		return 0
	}
	return len(r.shifted[0])
}

// Retrieve writes interpolated samples into out.
func (r *Resampler) Retrieve(out [][]float64) int {
	if len(out) == 0 {
		return 0
	}
	if r.direct() {
		return r.read(out)
	}
	r.fill()
	if len(r.shifted) == 0 {
		return 0
	}
	n := len(out[0])
	if n > len(r.shifted[0]) {
		n = len(r.shifted[0])
	}
	for c := range out {
		if c >= len(r.shifted) {
			clear(out[c][:n])
			continue
		}
		copy(out[c], r.shifted[c][:n])
	}
	for c := range r.shifted {
		r.shifted[c] = append(r.shifted[c][:0], r.shifted[c][n:]...)
	}
	if len(r.shifted[0]) == 0 {
		r.shifted = nil
	}
	return n
}

// fill moves varispeed output into pending and shifts complete chunks.
func (r *Resampler) fill() {
	if r.shifter == nil || len(r.fifo) == 0 {
		return
	}
	if err := r.shifter.SetPitchRatio(r.shift()); err != nil {
		return
	}
	if r.pending == nil {
		r.pending = make([][]float64, len(r.fifo))
	}
	for {
		n := r.available()
		if need := pitchChunk - len(r.pending[0]); n > need {
			n = need
		}
		if n == 0 {
			return
		}
		size := len(r.pending[0])
		window := make([][]float64, len(r.pending))
		for c := range r.pending {
			r.pending[c] = append(r.pending[c], make([]float64, n)...)
			window[c] = r.pending[c][size:]
		}
		read := r.read(window)
		for c := range r.pending {
			r.pending[c] = r.pending[c][:size+read]
		}
		if read == 0 {
			return
		}
		if len(r.pending[0]) < pitchChunk {
			continue
		}
		if r.shifted == nil {
			r.shifted = make([][]float64, len(r.pending))
		}
		for c := range r.pending {
			r.shifted[c] = append(r.shifted[c], r.shifter.Process(r.pending[c])...)
			r.pending[c] = r.pending[c][:0]
		}
	}
}

// available returns number of varispeed samples.
func (r *Resampler) available() int {
	if len(r.fifo) == 0 {
		return 0
	}
	last := float64(len(r.fifo[0]) - 1)
	if last <= r.pos {
		return 0
	}
	return int(math.Ceil((last - r.pos) * r.ratio))
}

// read writes varispeed samples into out.
func (r *Resampler) read(out [][]float64) int {
	n := len(out[0])
	if available := r.available(); available < n {
		n = available
	}
	step := 1 / r.ratio
	for i := 0; i < n; i++ {
		idx := int(r.pos)
		if idx+1 >= len(r.fifo[0]) {
			n = i
			break
		}
		frac := r.pos - float64(idx)
		for c := range out {
			if c >= len(r.fifo) {
				out[c][i] = 0
				continue
			}
			out[c][i] = r.fifo[c][idx]*(1-frac) + r.fifo[c][idx+1]*frac
		}
		r.pos += step
	}
	// drop consumed input
	if consumed := int(r.pos); consumed > 0 {
		if consumed > len(r.fifo[0]) {
			consumed = len(r.fifo[0])
		}
		for c := range r.fifo {
			r.fifo[c] = append(r.fifo[c][:0], r.fifo[c][consumed:]...)
		}
		r.pos -= float64(consumed)
	}
	return n
}

// Reset drops buffered samples.
func (r *Resampler) Reset() {
	r.fifo = nil
	r.pos = 0
	r.pending = nil
	r.shifted = nil
}
