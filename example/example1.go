package example

import (
	"path/filepath"

	"pipelined.dev/render"
	"pipelined.dev/render/reverb"
	"pipelined.dev/render/signal"
	"pipelined.dev/render/synth"
	"pipelined.dev/render/wav"
)

// Example 1:
//
//	Play a chord with synth
//	Process it with reverb
//	Save result into .wav file
func one(dir string) {
	e, err := render.New(
		render.WithSampleRate(44100),
		render.WithBlockSize(512),
		render.WithBPM(90),
	)
	check(err)

	s := synth.New("synth", e.SampleRate())
	for _, note := range []uint8{60, 64, 67} {
		check(s.AddMidiNote(note, 100, 0, 2, true))
	}
	r := reverb.New("reverb")
	check(r.SetValue("room_size", 0.8))

	check(e.LoadGraph([]render.Node{
		{Processor: s},
		{Processor: r, Inputs: []string{"synth"}},
	}))
	check(e.Render(4, true))

	out := signal.Float32(e.Audio()).AsFloat64()
	check(wav.Save(filepath.Join(dir, "example1.wav"), out, e.SampleRate(), signal.BitDepth16))
}

func check(err error) {
	if err != nil {
		panic(err)
	}
}
