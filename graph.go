package render

import (
	"fmt"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/rs/xid"

	"pipelined.dev/render/fault"
	"pipelined.dev/render/metric"
	"pipelined.dev/render/midi"
	"pipelined.dev/render/processor"
	"pipelined.dev/render/signal"
)

// Node describes a processor in the graph and the names of processors it
// takes input from. Inputs must be declared before the node.
type Node struct {
	Processor processor.Processor
	Inputs    []string
}

// node is a wired graph node.
type node struct {
	id     string
	proc   processor.Processor
	inputs []*node
	// width is the number of channels taken from every input.
	width int
	// midi is the input which MIDI is routed to this node.
	midi *node

	buf     signal.Float64
	capture signal.Float64
	meter   metric.ResetFunc
	measure metric.MeasureFunc
}

func (n *node) name() string {
	return n.proc.Name()
}

func (n *node) outputs() int {
	return n.proc.Layout().Outputs
}

// gather copies outputs of inputs into processing buffer. Channel c of
// input i goes to channel i*width+c.
func (n *node) gather() {
	n.buf.Clear()
	for i, in := range n.inputs {
		for c := 0; c < n.width && c < in.outputs(); c++ {
			copy(n.buf[i*n.width+c], in.buf[c])
		}
	}
}

// midiIn returns MIDI produced by the chosen input in current block.
func (n *node) midiIn() midi.Block {
	if n.midi == nil {
		return nil
	}
	return n.midi.proc.(processor.MidiProducer).MidiOut()
}

// wiring is a debug view of the node.
type wiring struct {
	ID     string
	Name   string
	Layout string
	Inputs []string
	Midi   string
}

func (n *node) wiring() wiring {
	w := wiring{ID: n.id, Name: n.name(), Layout: n.proc.Layout().String()}
	for _, in := range n.inputs {
		w.Inputs = append(w.Inputs, in.name())
	}
	if n.midi != nil {
		w.Midi = n.midi.name()
	}
	return w
}

// build wires nodes. All connection errors are collected. Nodes of the
// graph are returned only if there are no errors.
func (e *Engine) build(nodes []Node) ([]*node, error) {
	var (
		errs  fault.Errors
		names = make(map[string]*node, len(nodes))
		graph = make([]*node, 0, len(nodes))
	)
	for i, spec := range nodes {
		if spec.Processor == nil {
			errs = append(errs, fmt.Errorf("node %d: nil processor: %w", i, fault.ErrInvalidArgument))
			continue
		}
		name := spec.Processor.Name()
		if _, ok := names[name]; ok {
			errs = append(errs, fmt.Errorf("node %d: duplicate name %q: %w", i, name, fault.ErrInvalidArgument))
			continue
		}
		n := &node{
			id:   xid.New().String(),
			proc: spec.Processor,
		}
		for _, input := range spec.Inputs {
			in, ok := names[input]
			if !ok {
				errs = append(errs, fmt.Errorf("%s: input %q: %w", name, input, fault.ErrUnresolvedInput))
				continue
			}
			n.inputs = append(n.inputs, in)
		}

		n.width = n.outputs()
		if n.width == 0 {
			n.width = e.channels
		}
		layout := processor.Layout{Inputs: n.width * len(spec.Inputs), Outputs: n.width}
		if err := n.proc.ApplyLayout(layout); err != nil {
			errs = append(errs, err)
		}
		for _, in := range n.inputs {
			for c := in.outputs(); c < n.width; c++ {
				errs = append(errs, fmt.Errorf("%s: channel %d of %s: %w", name, c, in.name(), fault.ErrUnsupportedLayout))
			}
		}

		if n.proc.AcceptsMidi() {
			for _, in := range n.inputs {
				if _, ok := in.proc.(processor.MidiProducer); !ok {
					continue
				}
				if n.midi != nil {
					e.log.Warn(fmt.Sprintf("%s: ignoring MIDI of %s", name, in.name()))
					continue
				}
				n.midi = in
			}
		}
		names[name] = n
		graph = append(graph, n)
	}
	if err := errs.Ret(); err != nil {
		return nil, err
	}
	return graph, nil
}

func dump(graph []*node) string {
	w := make([]wiring, 0, len(graph))
	for _, n := range graph {
		w = append(w, n.wiring())
	}
	return strings.TrimSpace(spew.Sdump(w))
}
