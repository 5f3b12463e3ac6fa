package catalog

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v2"

	"pipelined.dev/render"
	"pipelined.dev/render/fault"
	"pipelined.dev/render/warp"
)

// Graph is a declarative description of render session.
type Graph struct {
	SampleRate float64     `yaml:"sample_rate"`
	BlockSize  int         `yaml:"block_size"`
	Channels   int         `yaml:"channels"`
	BPM        float64     `yaml:"bpm"`
	Tempo      *Automation `yaml:"tempo"`
	// Duration of render in seconds or beats.
	Duration float64    `yaml:"duration"`
	Beats    bool       `yaml:"beats"`
	Nodes    []NodeSpec `yaml:"nodes"`
}

// Automation is a list of values. Zero PPQN means audio rate.
type Automation struct {
	Values []float32 `yaml:"values"`
	PPQN   int       `yaml:"ppqn"`
}

// Note is a scheduled MIDI note.
type Note struct {
	Note     uint8   `yaml:"note"`
	Velocity uint8   `yaml:"velocity"`
	Start    float64 `yaml:"start"`
	Duration float64 `yaml:"duration"`
	Beats    bool    `yaml:"beats"`
}

// MidiFile is a standard MIDI file loaded into processor.
type MidiFile struct {
	Path      string `yaml:"path"`
	Beats     bool   `yaml:"beats"`
	AllEvents bool   `yaml:"all_events"`
}

// Clip is a clip window in beats.
type Clip struct {
	Start  float64  `yaml:"start"`
	End    *float64 `yaml:"end"`
	Offset float64  `yaml:"offset"`
}

// Warp holds clip info settings of playback_warp processor.
type Warp struct {
	// ASD is a path to Ableton Live analysis file.
	ASD       string        `yaml:"asd"`
	On        *bool         `yaml:"on"`
	Loop      *bool         `yaml:"loop"`
	BPM       float64       `yaml:"bpm"`
	TimeRatio float64       `yaml:"time_ratio"`
	Markers   []warp.Marker `yaml:"markers"`
}

// NodeSpec describes a single processor.
type NodeSpec struct {
	Type       string                `yaml:"type"`
	Name       string                `yaml:"name"`
	Inputs     []string              `yaml:"inputs"`
	Params     map[string]float32    `yaml:"params"`
	Automation map[string]Automation `yaml:"automation"`
	Mode       string                `yaml:"mode"`
	Rule       string                `yaml:"rule"`
	Gains      []float64             `yaml:"gains"`
	// File is an audio source of playback and sampler processors.
	File   string    `yaml:"file"`
	Code   string    `yaml:"code"`
	Voices int       `yaml:"voices"`
	Notes  []Note    `yaml:"notes"`
	Midi   *MidiFile `yaml:"midi"`
	Clips  []Clip    `yaml:"clips"`
	Warp   *Warp     `yaml:"warp"`
	Record struct {
		Output     bool `yaml:"output"`
		Automation bool `yaml:"automation"`
	} `yaml:"record"`
}

// Decode reads graph description.
func Decode(r io.Reader) (Graph, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Graph{}, err
	}
	var g Graph
	if err := yaml.UnmarshalStrict(data, &g); err != nil {
		return Graph{}, fmt.Errorf("graph: %v: %w", err, fault.ErrInvalidArgument)
	}
	return g, nil
}

// Load reads graph description from file.
func Load(path string) (Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return Graph{}, err
	}
	defer f.Close()
	return Decode(f)
}

// Options returns engine options of the graph. Zero settings are omitted.
func (g Graph) Options() []render.Option {
	var options []render.Option
	if g.SampleRate != 0 {
		options = append(options, render.WithSampleRate(g.SampleRate))
	}
	if g.BlockSize != 0 {
		options = append(options, render.WithBlockSize(g.BlockSize))
	}
	if g.Channels != 0 {
		options = append(options, render.WithChannels(g.Channels))
	}
	if g.BPM != 0 {
		options = append(options, render.WithBPM(g.BPM))
	}
	return options
}

// Engine returns engine with graph settings and loaded nodes.
func (g Graph) Engine(b *Builder, options ...render.Option) (*render.Engine, error) {
	e, err := render.New(append(g.Options(), options...)...)
	if err != nil {
		return nil, err
	}
	if g.Tempo != nil {
		if err := e.SetBPMAutomation(g.Tempo.Values, g.Tempo.PPQN); err != nil {
			return nil, err
		}
	}
	nodes, err := b.Build(e.SampleRate(), g.Nodes...)
	if err != nil {
		return nil, err
	}
	if err := e.LoadGraph(nodes); err != nil {
		return nil, err
	}
	return e, nil
}
