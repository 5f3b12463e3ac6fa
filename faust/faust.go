// Package faust adapts Faust programs to the processor contract. The
// compiler is external: it turns DSP source into a plugin instance.
package faust

import (
	"fmt"
	"strconv"

	"pipelined.dev/render/fault"
	"pipelined.dev/render/midi"
	"pipelined.dev/render/plugin"
	"pipelined.dev/render/processor"
	"pipelined.dev/render/signal"
	"pipelined.dev/render/state"
)

// Type of processor.
const Type = "faust"

// Compiler compiles Faust source code.
type Compiler interface {
	Compile(code string, sampleRate float64, numVoices int) (plugin.Instance, error)
}

// Processor runs compiled Faust program. Source changes take effect after
// Compile.
type Processor struct {
	*plugin.Processor
	compiler   Compiler
	code       string
	numVoices  int
	sampleRate float64
	compiled   bool
}

// New returns uncompiled processor.
func New(name string, compiler Compiler, sampleRate float64) *Processor {
	return &Processor{
		Processor:  plugin.New(name, nil, sampleRate),
		compiler:   compiler,
		sampleRate: sampleRate,
	}
}

// SetCode replaces DSP source code. Processor must be compiled again.
func (p *Processor) SetCode(code string) {
	p.code = code
	p.compiled = false
}

// Code returns DSP source code.
func (p *Processor) Code() string {
	return p.code
}

// SetNumVoices sets polyphony of the program. Zero means monophonic
// effect.
func (p *Processor) SetNumVoices(n int) error {
	if n < 0 {
		return fmt.Errorf("%s: voices %d: %w", p.Name(), n, fault.ErrInvalidArgument)
	}
	p.numVoices = n
	p.compiled = false
	return nil
}

// Compile compiles current source code.
func (p *Processor) Compile() error {
	if p.compiler == nil {
		return fmt.Errorf("%s: no compiler: %w", p.Name(), fault.ErrNotCompiled)
	}
	instance, err := p.compiler.Compile(p.code, p.sampleRate, p.numVoices)
	if err != nil {
		p.compiled = false
		return fmt.Errorf("%s: %v: %w", p.Name(), err, fault.ErrNotCompiled)
	}
	if err := p.SetInstance(instance); err != nil {
		p.compiled = false
		return err
	}
	p.compiled = true
	return nil
}

// Compiled returns true if current source code is compiled.
func (p *Processor) Compiled() bool {
	return p.compiled
}

// AcceptsMidi returns true for polyphonic programs.
func (p *Processor) AcceptsMidi() bool {
	return p.numVoices > 0
}

// ApplyLayout requires compiled program.
func (p *Processor) ApplyLayout(l processor.Layout) error {
	if !p.compiled {
		return fmt.Errorf("%s: %w", p.Name(), fault.ErrNotCompiled)
	}
	return p.Processor.ApplyLayout(l)
}

// Prepare requires compiled program.
func (p *Processor) Prepare(sampleRate float64, blockSize int) error {
	if !p.compiled {
		return fmt.Errorf("%s: %w", p.Name(), fault.ErrNotCompiled)
	}
	return p.Processor.Prepare(sampleRate, blockSize)
}

// Process requires compiled program.
func (p *Processor) Process(buf signal.Float64, in midi.Block) error {
	if !p.compiled {
		return fmt.Errorf("%s: %w", p.Name(), fault.ErrNotCompiled)
	}
	return p.Processor.Process(buf, in)
}

// Snapshot returns persisted state including source code.
func (p *Processor) Snapshot() (state.Record, error) {
	rec, err := p.SnapshotAs(Type)
	if err != nil {
		return rec, err
	}
	rec.Settings["code"] = p.code
	rec.Settings["voices"] = strconv.Itoa(p.numVoices)
	return rec, nil
}
