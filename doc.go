/*
Package render renders graphs of audio processors offline.

Concept

A graph is an ordered list of nodes. Every node holds a processor and the
names of processors it reads from. Inputs must be declared before the
node, so the order of the list is also the execution order:

    err := engine.LoadGraph([]render.Node{
        {Processor: synth},
        {Processor: filter, Inputs: []string{"synth"}},
        {Processor: reverb, Inputs: []string{"filter"}},
    })

The engine negotiates channel layouts when graph is loaded. A node with N
outputs gets N channels from each of its inputs, input i occupies
channels [i*N, i*N+N) of the processing buffer. All wiring errors are
reported together and previous graph is kept if any of them occurs.

Rendering

Render processes the graph block by block, faster than real time:

    err := engine.Render(4, false) // four seconds
    err = engine.Render(8, true)   // eight beats

Before every block the processor receives the playhead: position in
samples, seconds and beats, and the tempo. Tempo is either constant or
follows a tempo map indexed by beats. Output of the last node is
accumulated and returned by Audio. Output of any node with recording
enabled is returned by AudioFor.

Rendering is deterministic: processors are reset before each render, so
identical graphs and parameters produce identical output.

Processors

Processor contract is defined in processor package. Processors that
accept MIDI receive events scheduled on two timelines, see midi package.
Concrete processors live in their own packages: oscillator, filter, add,
compressor, delay, reverb, panner, playback, warp, synth, sampler, plugin
and faust. Package catalog builds them from declarative descriptions.
*/
package render
