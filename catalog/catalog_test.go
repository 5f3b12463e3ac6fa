package catalog_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/render/catalog"
	"pipelined.dev/render/fault"
	"pipelined.dev/render/faust"
	"pipelined.dev/render/midi"
	"pipelined.dev/render/playback"
	"pipelined.dev/render/plugin"
	"pipelined.dev/render/processor"
	"pipelined.dev/render/signal"
	"pipelined.dev/render/state"
	"pipelined.dev/render/synth"
	"pipelined.dev/render/test"
	"pipelined.dev/render/warp"
	"pipelined.dev/render/wav"
)

const session = `
sample_rate: 44100
block_size: 441
bpm: 120
duration: 1
nodes:
  - type: playback
    name: source
    file: sine.wav
  - type: oscillator
    name: osc
    params:
      frequency: 220
      amplitude: 0.5
  - type: add
    name: mix
    inputs: [source, osc]
    gains: [0.5, 0.5]
  - type: filter
    name: hpf
    mode: high
    inputs: [mix]
    params:
      freq: 100
    automation:
      q:
        values: [0.5, 1]
        ppqn: 1
    record:
      output: true
      automation: true
`

// passthrough is a compiled program which doesn't change the signal.
type passthrough struct{}

func (passthrough) Layout() processor.Layout {
	return processor.Layout{Inputs: 2, Outputs: 2}
}
func (passthrough) ParameterNames() []string {
	return []string{"volume"}
}
func (passthrough) Parameter(int) float64 {
	return 1
}
func (passthrough) SetParameter(int, float64) {}
func (passthrough) Prepare(float64, int) error {
	return nil
}
func (passthrough) Process(signal.Float64, midi.Block) error {
	return nil
}
func (passthrough) Reset() {}

type compiler struct{}

func (compiler) Compile(string, float64, int) (plugin.Instance, error) {
	return passthrough{}, nil
}

func sine(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, wav.Save(filepath.Join(dir, "sine.wav"), test.Sine(2, 44100, 440, test.SampleRate), test.SampleRate, signal.BitDepth16))
	return dir
}

func TestTypes(t *testing.T) {
	assert.Equal(t, []string{
		"add",
		"compressor",
		"delay",
		"faust",
		"filter",
		"oscillator",
		"panner",
		"playback",
		"playback_warp",
		"plugin",
		"reverb",
		"sampler",
		"synth",
	}, catalog.Types())
}

func TestDecode(t *testing.T) {
	g, err := catalog.Decode(strings.NewReader(session))
	require.NoError(t, err)
	assert.Equal(t, 44100.0, g.SampleRate)
	assert.Equal(t, 441, g.BlockSize)
	require.Len(t, g.Nodes, 4)
	assert.Equal(t, []string{"source", "osc"}, g.Nodes[2].Inputs)
	assert.Equal(t, catalog.Automation{Values: []float32{0.5, 1}, PPQN: 1}, g.Nodes[3].Automation["q"])
	assert.True(t, g.Nodes[3].Record.Output)

	_, err = catalog.Decode(strings.NewReader("nodes:\n  - kind: synth\n"))
	assert.ErrorIs(t, err, fault.ErrInvalidArgument)
}

func TestEngine(t *testing.T) {
	dir := sine(t)
	g, err := catalog.Decode(strings.NewReader(session))
	require.NoError(t, err)
	e, err := g.Engine(&catalog.Builder{Dir: dir})
	require.NoError(t, err)
	require.NoError(t, e.Render(g.Duration, g.Beats))

	audio := e.Audio()
	require.Len(t, audio, 2)
	assert.Len(t, audio[0], 44100)
	hpf, err := e.AudioFor("hpf")
	require.NoError(t, err)
	assert.Equal(t, audio, hpf)
	var peak float32
	for _, v := range audio[0] {
		if v > peak {
			peak = v
		}
	}
	assert.Greater(t, peak, float32(0.1))
}

func TestNew(t *testing.T) {
	dir := sine(t)
	yes := true
	tests := []struct {
		name  string
		spec  catalog.NodeSpec
		check func(*testing.T, processor.Processor)
	}{
		{
			name: "synth notes",
			spec: catalog.NodeSpec{
				Type: "synth",
				Name: "synth",
				Notes: []catalog.Note{
					{Note: 60, Velocity: 100, Start: 0, Duration: 1, Beats: true},
					{Note: 64, Velocity: 100, Start: 0.5, Duration: 0.5},
				},
			},
			check: func(t *testing.T, p processor.Processor) {
				s := p.(*synth.Processor)
				assert.Equal(t, 2, s.NumMidiEvents(true))
				assert.Equal(t, 2, s.NumMidiEvents(false))
			},
		},
		{
			name: "warp",
			spec: catalog.NodeSpec{
				Type:  "playback_warp",
				Name:  "warp",
				File:  "sine.wav",
				Clips: []catalog.Clip{{Start: 1}},
				Warp: &catalog.Warp{
					On:      &yes,
					Markers: []warp.Marker{{Seconds: 0, Beat: 0}, {Seconds: 1, Beat: 4}},
				},
			},
			check: func(t *testing.T, p processor.Processor) {
				w := p.(*warp.Processor)
				assert.True(t, w.ClipInfo().WarpOn)
				_, bpm := w.ClipInfo().BeatToSeconds(2)
				assert.Equal(t, 240.0, bpm)
				require.Len(t, w.Clips(), 1)
				assert.Equal(t, 1.0, w.Clips()[0].Start)
			},
		},
		{
			name: "playback",
			spec: catalog.NodeSpec{Type: "playback", Name: "source", File: filepath.Join(dir, "sine.wav")},
			check: func(t *testing.T, p processor.Processor) {
				assert.Equal(t, 44100, p.(*playback.Processor).Data().Size())
				assert.Equal(t, processor.Layout{Outputs: 2}, p.Layout())
			},
		},
		{
			name: "faust",
			spec: catalog.NodeSpec{Type: "faust", Name: "dsp", Code: "process = _;", Voices: 4},
			check: func(t *testing.T, p processor.Processor) {
				f := p.(*faust.Processor)
				assert.True(t, f.Compiled())
				assert.True(t, f.AcceptsMidi())
			},
		},
	}
	b := &catalog.Builder{Dir: dir, Compiler: compiler{}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := b.New(test.SampleRate, tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.spec.Name, p.Name())
			tt.check(t, p)
		})
	}
}

func TestBuildErrors(t *testing.T) {
	dir := sine(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "text.txt"), []byte("text"), 0o644))
	tests := []struct {
		name string
		spec catalog.NodeSpec
	}{
		{name: "unknown type", spec: catalog.NodeSpec{Type: "theremin", Name: "t"}},
		{name: "empty name", spec: catalog.NodeSpec{Type: "oscillator"}},
		{name: "unknown parameter", spec: catalog.NodeSpec{Type: "oscillator", Name: "o", Params: map[string]float32{"pitch": 1}}},
		{name: "bad automation", spec: catalog.NodeSpec{Type: "oscillator", Name: "o", Automation: map[string]catalog.Automation{"frequency": {PPQN: -1, Values: []float32{1}}}}},
		{name: "notes without midi", spec: catalog.NodeSpec{Type: "reverb", Name: "r", Notes: []catalog.Note{{Note: 60}}}},
		{name: "no file", spec: catalog.NodeSpec{Type: "sampler", Name: "s"}},
		{name: "unsupported file", spec: catalog.NodeSpec{Type: "playback", Name: "p", File: "text.txt"}},
		{name: "bad mode", spec: catalog.NodeSpec{Type: "filter", Name: "f", Mode: "comb"}},
		{name: "bad rule", spec: catalog.NodeSpec{Type: "panner", Name: "p", Rule: "loud"}},
		{name: "no plugin host", spec: catalog.NodeSpec{Type: "plugin", Name: "p", File: "synth.vst3"}},
		{name: "bad clips", spec: catalog.NodeSpec{Type: "playback_warp", Name: "w", File: "sine.wav", Clips: []catalog.Clip{{Start: 2}, {Start: 1}}}},
	}
	b := &catalog.Builder{Dir: dir}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.Build(test.SampleRate, tt.spec)
			assert.ErrorIs(t, err, fault.ErrInvalidArgument)
		})
	}
}

func TestRestore(t *testing.T) {
	dir := sine(t)
	specs := []catalog.NodeSpec{
		{Type: "oscillator", Name: "osc", Params: map[string]float32{"frequency": 110}},
		{Type: "add", Name: "add", Gains: []float64{0.5, 0.25, 2}},
		{Type: "filter", Name: "filter", Mode: "band", Automation: map[string]catalog.Automation{"freq": {Values: []float32{100, 200}, PPQN: 4}}},
		{Type: "compressor", Name: "compressor", Params: map[string]float32{"threshold": -12}},
		{Type: "delay", Name: "delay", Params: map[string]float32{"delay": 250}},
		{Type: "reverb", Name: "reverb", Params: map[string]float32{"room_size": 0.9}},
		{Type: "panner", Name: "panner", Rule: "sin3dB", Params: map[string]float32{"pan": -0.5}},
		{Type: "synth", Name: "synth", Notes: []catalog.Note{{Note: 60, Velocity: 90, Start: 1, Duration: 2, Beats: true}}},
		{Type: "sampler", Name: "sampler", File: "sine.wav", Notes: []catalog.Note{{Note: 72, Velocity: 90, Start: 0.5, Duration: 0.1}}},
		{Type: "playback", Name: "playback", File: "sine.wav"},
		{Type: "playback_warp", Name: "warp", File: "sine.wav", Warp: &catalog.Warp{TimeRatio: 2}},
		{Type: "faust", Name: "faust", Code: "process = _;", Params: map[string]float32{"volume": 0.5}},
	}
	b := &catalog.Builder{Dir: dir, Compiler: compiler{}}
	for _, spec := range specs {
		t.Run(spec.Type, func(t *testing.T) {
			p, err := b.New(test.SampleRate, spec)
			require.NoError(t, err)
			expected, err := p.(processor.Snapshotter).Snapshot()
			require.NoError(t, err)

			var buf bytes.Buffer
			require.NoError(t, state.Encode(&buf, expected))
			records, err := state.Decode(&buf)
			require.NoError(t, err)
			require.Len(t, records, 1)

			restored, err := b.Restore(records[0], test.SampleRate)
			require.NoError(t, err)
			assert.Equal(t, spec.Name, restored.Name())
			result, err := restored.(processor.Snapshotter).Snapshot()
			require.NoError(t, err)
			assert.Equal(t, expected, result)
		})
	}
}

func TestRestoreWarpLayout(t *testing.T) {
	source := warp.New("warp", test.Constant(2, 44100, 1), test.SampleRate, nil)
	source.SetWarpOn(true)
	require.NoError(t, source.SetWarpMarkers([]warp.Marker{{Seconds: 0, Beat: 0}, {Seconds: 0.3, Beat: 1}, {Seconds: 0.9, Beat: 2}}))
	info := source.ClipInfo()
	info.LoopStart, info.LoopEnd = 0.5, 1.5
	info.StartMarker, info.EndMarker = 0.25, 1.75
	info.HiddenLoopStart, info.HiddenLoopEnd = 0.125, 1.875
	require.NoError(t, source.SetClipInfo(info))
	require.NoError(t, source.SetClips([]warp.ClipWindow{{Start: 1, End: 3, StartMarkerOffset: 0.25}}))
	rec, err := source.Snapshot()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, state.Encode(&buf, rec))
	records, err := state.Decode(&buf)
	require.NoError(t, err)
	p, err := catalog.Restore(records[0], test.SampleRate)
	require.NoError(t, err)
	restored := p.(*warp.Processor)
	// source data doesn't reset restored clip info.
	restored.SetData(test.Constant(2, 44100, 1), test.SampleRate)
	assert.Equal(t, source.ClipInfo(), restored.ClipInfo())
	assert.Equal(t, source.Clips(), restored.Clips())

	rec.Settings["markers"] = "- [0, 0]\n- [1, 0]\n"
	_, err = catalog.Restore(rec, test.SampleRate)
	assert.ErrorIs(t, err, fault.ErrInvalidArgument)
	rec.Settings["markers"] = "[]"
	rec.Settings["clips"] = "- [1, 2]\n"
	_, err = catalog.Restore(rec, test.SampleRate)
	assert.ErrorIs(t, err, fault.ErrInvalidArgument)
}

func TestRestoreErrors(t *testing.T) {
	tests := []struct {
		name     string
		record   state.Record
		expected error
	}{
		{name: "version", record: state.Record{Version: 2, ProcessorType: "synth", UniqueName: "s"}, expected: fault.ErrIncompatibleVersion},
		{name: "no type", record: state.New("", "s"), expected: fault.ErrInvalidArgument},
		{name: "unknown type", record: state.New("theremin", "s"), expected: fault.ErrInvalidArgument},
		{
			name: "unknown parameter",
			record: func() state.Record {
				rec := state.New("oscillator", "osc")
				rec.Parameters["pitch"] = []float32{1}
				return rec
			}(),
			expected: fault.ErrInvalidArgument,
		},
		{
			name: "bad gains",
			record: func() state.Record {
				rec := state.New("add", "add")
				rec.Settings["gains"] = "1,x"
				return rec
			}(),
			expected: fault.ErrInvalidArgument,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := catalog.Restore(tt.record, test.SampleRate)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestRestoreWithoutSource(t *testing.T) {
	rec := state.New("playback", "playback")
	p, err := catalog.Restore(rec, test.SampleRate)
	require.NoError(t, err)
	pb := p.(*playback.Processor)
	assert.Equal(t, processor.Layout{}, pb.Layout())
	pb.SetData(test.Constant(2, 10, 1))
	assert.Equal(t, processor.Layout{Outputs: 2}, pb.Layout())

	rec = state.New("faust", "faust")
	rec.Settings["code"] = "process = _;"
	p, err = catalog.Restore(rec, test.SampleRate)
	require.NoError(t, err)
	assert.False(t, p.(*faust.Processor).Compiled())
}
