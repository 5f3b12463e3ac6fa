package example

import (
	"path/filepath"
	"strings"

	"pipelined.dev/render/catalog"
	"pipelined.dev/render/signal"
	"pipelined.dev/render/state"
	"pipelined.dev/render/wav"
)

const session = `
bpm: 128
duration: 4
beats: true
nodes:
  - type: oscillator
    name: lfo
    params:
      frequency: 110
    automation:
      amplitude:
        values: [1, 0.5, 0.25, 0.125]
        ppqn: 1
  - type: panner
    name: pan
    rule: sin3dB
    inputs: [lfo]
    params:
      pan: -0.5
  - type: delay
    name: echo
    inputs: [pan]
    params:
      delay: 234
      wet: 0.3
`

// Example 3:
//
//	Build graph from yaml description
//	Render it into .wav file
//	Save state of processors
func three(dir string) {
	g, err := catalog.Decode(strings.NewReader(session))
	check(err)
	e, err := g.Engine(&catalog.Builder{Dir: dir})
	check(err)
	check(e.Render(g.Duration, g.Beats))

	out := signal.Float32(e.Audio()).AsFloat64()
	check(wav.Save(filepath.Join(dir, "example3.wav"), out, e.SampleRate(), signal.BitDepth32))

	records, err := e.Snapshot()
	check(err)
	check(state.Save(filepath.Join(dir, "example3.yaml"), records...))
}
