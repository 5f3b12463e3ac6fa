package example

import (
	"path/filepath"

	"pipelined.dev/render"
	"pipelined.dev/render/filter"
	"pipelined.dev/render/signal"
	"pipelined.dev/render/warp"
	"pipelined.dev/render/wav"
)

// Example 2:
//
//	Read .wav file recorded at 120 bpm
//	Play it in sync with 100 bpm transport
//	Sweep low-pass filter every beat
func two(dir string) {
	data, sampleRate, err := wav.Load(filepath.Join(dir, "example1.wav"))
	check(err)

	e, err := render.New(render.WithBPM(100))
	check(err)

	p := warp.New("loop", data, sampleRate, nil)
	p.SetWarpOn(true)
	check(p.SetClips([]warp.ClipWindow{{Start: 0, End: 8}}))

	f := filter.New("lpf", filter.Low, 1000, 0.7, 1)
	check(f.SetAutomation("freq", []float32{400, 800, 1600, 3200}, 1))

	check(e.LoadGraph([]render.Node{
		{Processor: p},
		{Processor: f, Inputs: []string{"loop"}},
	}))
	check(e.Render(8, true))

	out := signal.Float32(e.Audio()).AsFloat64()
	check(wav.Save(filepath.Join(dir, "example2.wav"), out, e.SampleRate(), signal.BitDepth24))
}
