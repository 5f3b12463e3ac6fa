package render

import (
	"fmt"
	"math"
	"sync"
	"time"

	"pipelined.dev/render/automation"
	"pipelined.dev/render/fault"
	"pipelined.dev/render/internal/pool"
	"pipelined.dev/render/log"
	"pipelined.dev/render/metric"
	"pipelined.dev/render/processor"
	"pipelined.dev/render/signal"
	"pipelined.dev/render/state"
	"pipelined.dev/render/transport"
)

// Default engine settings.
const (
	DefaultSampleRate = 44100.0
	DefaultBlockSize  = 512
	DefaultChannels   = 2
)

// Engine renders processing graph offline. Render calls are serialized.
type Engine struct {
	mu         sync.Mutex
	sampleRate float64
	blockSize  int
	channels   int
	tempo      *automation.Parameter
	log        log.Logger

	graph []*node
	// recorder is the number of channels captured from the last node.
	recorder int
	audio    signal.Float64
}

// New creates engine and applies provided options.
func New(options ...Option) (*Engine, error) {
	e := &Engine{
		sampleRate: DefaultSampleRate,
		blockSize:  DefaultBlockSize,
		channels:   DefaultChannels,
		tempo:      automation.NewParameter(transport.DefaultBPM),
		log:        log.Discard(),
	}
	for _, option := range options {
		if err := option(e); err != nil {
			return nil, err
		}
	}
	e.recorder = e.channels
	return e, nil
}

// SampleRate returns engine sample rate.
func (e *Engine) SampleRate() float64 {
	return e.sampleRate
}

// BlockSize returns engine block size.
func (e *Engine) BlockSize() int {
	return e.blockSize
}

// SetBPM sets constant tempo.
func (e *Engine) SetBPM(bpm float64) error {
	if bpm <= 0 || math.IsNaN(bpm) || math.IsInf(bpm, 0) {
		return fmt.Errorf("bpm %v: %w", bpm, fault.ErrInvalidArgument)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tempo.SetValue(float32(bpm))
	return nil
}

// SetBPMAutomation sets tempo map indexed by ppqn values per beat. All
// values must be positive.
func (e *Engine) SetBPMAutomation(values []float32, ppqn int) error {
	for i, v := range values {
		if !(v > 0) || math.IsInf(float64(v), 0) {
			return fmt.Errorf("bpm %v at %d: %w", v, i, fault.ErrInvalidArgument)
		}
	}
	if ppqn == 0 && len(values) > 1 {
		return fmt.Errorf("tempo map must be indexed by beats: %w", fault.ErrInvalidArgument)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tempo.SetAutomation(values, ppqn)
}

// bpm returns tempo at the playhead beat position.
func (e *Engine) bpm(ph transport.Playhead) float64 {
	return float64(e.tempo.Sample(ph))
}

// start returns playhead at the timeline start.
func (e *Engine) start() transport.Playhead {
	ph := transport.Start(transport.DefaultBPM)
	ph.BPM = e.bpm(ph)
	return ph
}

// advance moves playhead by one block. Tempo of the next block is taken
// from tempo map at its start.
func (e *Engine) advance(ph transport.Playhead) transport.Playhead {
	next := ph.Advance(e.blockSize, e.sampleRate)
	next.BPM = e.bpm(next)
	return next
}

// LoadGraph wires processors in the provided order. Each node only reads
// from nodes declared before it. If any connection fails, all errors are
// returned and previously loaded graph is kept. Otherwise processors of the
// previous graph are reset.
func (e *Engine) LoadGraph(nodes []Node) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	graph, err := e.build(nodes)
	if err != nil {
		return err
	}
	for _, n := range graph {
		n.meter = metric.Meter(n.proc, e.sampleRate)
	}
	for _, n := range e.graph {
		n.proc.Reset()
	}
	e.graph = graph
	e.recorder = e.channels
	if len(graph) > 0 {
		e.recorder = graph[len(graph)-1].outputs()
	}
	e.audio = nil
	e.log.Debug(fmt.Sprintf("graph loaded:\n%s", dump(graph)))
	return nil
}

// numSamples returns number of samples to render. In beats mode blocks
// are stepped through tempo map until the beat position is reached.
func (e *Engine) numSamples(duration float64, beats bool) int {
	if !beats {
		return int(math.Ceil(duration * e.sampleRate))
	}
	var samples int
	for ph := e.start(); ph.PPQPosition < duration; ph = e.advance(ph) {
		samples += e.blockSize
	}
	return samples
}

// Render renders duration of seconds or beats. Output is accumulated from
// the last node and available with Audio.
func (e *Engine) Render(duration float64, beats bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if duration < 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		return fmt.Errorf("duration %v: %w", duration, fault.ErrInvalidArgument)
	}
	numBlocks := int(math.Ceil(float64(e.numSamples(duration, beats)) / float64(e.blockSize)))
	size := numBlocks * e.blockSize

	defer e.free()
	for _, n := range e.graph {
		if err := n.proc.Prepare(e.sampleRate, e.blockSize); err != nil {
			return fmt.Errorf("prepare %s: %w", n.name(), err)
		}
		n.proc.Reset()
		if err := n.proc.Automate(e.start(), e.blockSize); err != nil {
			return fmt.Errorf("automate %s: %w", n.name(), err)
		}
		n.buf = pool.Get(e.blockSize, n.proc.Layout().Channels()).Alloc()
		n.capture = nil
		if r, ok := n.proc.(processor.OutputRecorder); ok && r.RecordingOutput() {
			n.capture = signal.EmptyFloat64(n.outputs(), size)
		}
		n.measure = n.meter()
	}
	e.audio = signal.EmptyFloat64(e.recorder, size)

	started := time.Now()
	ph := e.start()
	for block := 0; block < numBlocks; block++ {
		offset := block * e.blockSize
		for _, n := range e.graph {
			if err := e.process(n, ph, offset); err != nil {
				return err
			}
		}
		if len(e.graph) > 0 {
			last := e.graph[len(e.graph)-1]
			for c := range e.audio {
				copy(e.audio[c][offset:], last.buf[c])
			}
		}
		ph = e.advance(ph)
	}
	e.log.Info(fmt.Sprintf("rendered %d samples of %d nodes in %v", size, len(e.graph), time.Since(started)))
	return nil
}

// free returns processing buffers of the graph.
func (e *Engine) free() {
	for _, n := range e.graph {
		if n.buf != nil {
			pool.Get(e.blockSize, n.buf.NumChannels()).Free(n.buf)
			n.buf = nil
		}
	}
}

// process runs single node for the block at offset.
func (e *Engine) process(n *node, ph transport.Playhead, offset int) error {
	if err := n.proc.Automate(ph, e.blockSize); err != nil {
		return fmt.Errorf("automate %s: %w", n.name(), err)
	}
	if r, ok := n.proc.(processor.AutomationRecorder); ok && r.RecordingAutomation() {
		r.RecordAutomation(ph, e.blockSize)
	}
	n.gather()
	started := time.Now()
	if err := n.proc.Process(n.buf, n.midiIn()); err != nil {
		return fmt.Errorf("process %s: %w", n.name(), err)
	}
	n.measure(started, int64(e.blockSize))
	for c := range n.capture {
		copy(n.capture[c][offset:], n.buf[c])
	}
	return nil
}

// Audio returns output of the last render.
func (e *Engine) Audio() [][]float32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.audio == nil {
		return make([][]float32, e.recorder)
	}
	return e.audio.AsFloat32()
}

// AudioFor returns output of named processor captured during the last
// render. Processor must have output recording enabled.
func (e *Engine) AudioFor(name string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, n := range e.graph {
		if n.name() != name {
			continue
		}
		if n.capture == nil {
			return nil, fmt.Errorf("%s: output isn't recorded: %w", name, fault.ErrInvalidArgument)
		}
		return n.capture.AsFloat32(), nil
	}
	return nil, fmt.Errorf("%s: no such processor: %w", name, fault.ErrInvalidArgument)
}

// Snapshot returns records of all processors that can be persisted.
func (e *Engine) Snapshot() ([]state.Record, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var records []state.Record
	for _, n := range e.graph {
		s, ok := n.proc.(processor.Snapshotter)
		if !ok {
			continue
		}
		rec, err := s.Snapshot()
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", n.name(), err)
		}
		records = append(records, rec)
	}
	return records, nil
}
