// Package panner provides a stereo panner processor.
package panner

import (
	"fmt"
	"math"

	vecmath "github.com/cwbudde/algo-vecmath"

	"pipelined.dev/render/fault"
	"pipelined.dev/render/midi"
	"pipelined.dev/render/processor"
	"pipelined.dev/render/signal"
	"pipelined.dev/render/state"
)

// Type of processor.
const Type = "panner"

// Rule defines how pan position maps to channel gains.
type Rule int

// Panning rules. Gains are boosted so that center position keeps unit
// gain on both channels.
const (
	Linear Rule = iota
	Balanced
	Sin3dB
	Sin4p5dB
	Sin6dB
	SquareRoot3dB
	SquareRoot4p5dB
)

var ruleNames = [...]string{"linear", "balanced", "sin3dB", "sin4p5dB", "sin6dB", "squareRoot3dB", "squareRoot4p5dB"}

func (r Rule) String() string {
	if r < 0 || int(r) >= len(ruleNames) {
		return fmt.Sprintf("Rule(%d)", int(r))
	}
	return ruleNames[r]
}

// ParseRule returns rule by its name.
func ParseRule(s string) (Rule, error) {
	for i, name := range ruleNames {
		if name == s {
			return Rule(i), nil
		}
	}
	return 0, fmt.Errorf("panner rule %q: %w", s, fault.ErrInvalidArgument)
}

// Gains returns left and right gains for pan in [-1, 1].
func (r Rule) Gains(pan float64) (left, right float64) {
	pos := (math.Min(math.Max(pan, -1), 1) + 1) / 2
	var boost float64
	switch r {
	case Balanced:
		left, right, boost = math.Min(0.5, 1-pos), math.Min(0.5, pos), 2
	case Sin3dB:
		left, right, boost = math.Sin(math.Pi/2*(1-pos)), math.Sin(math.Pi/2*pos), math.Sqrt2
	case Sin4p5dB:
		left, right, boost = math.Pow(math.Sin(math.Pi/2*(1-pos)), 1.5), math.Pow(math.Sin(math.Pi/2*pos), 1.5), math.Pow(2, 0.75)
	case Sin6dB:
		left, right, boost = math.Pow(math.Sin(math.Pi/2*(1-pos)), 2), math.Pow(math.Sin(math.Pi/2*pos), 2), 2
	case SquareRoot3dB:
		left, right, boost = math.Sqrt(1-pos), math.Sqrt(pos), math.Sqrt2
	case SquareRoot4p5dB:
		left, right, boost = math.Pow(1-pos, 0.75), math.Pow(pos, 0.75), math.Pow(2, 0.75)
	default:
		left, right, boost = 1-pos, pos, 2
	}
	return left * boost, right * boost
}

// Processor pans stereo signal.
type Processor struct {
	processor.Base
	rule Rule
}

// New returns panner processor.
func New(name string, rule Rule, pan float32) *Processor {
	p := &Processor{
		Base: processor.NewBase(name, processor.Layout{Inputs: 2, Outputs: 2}),
		rule: rule,
	}
	p.Parameters().Add("pan", pan)
	return p
}

// Rule returns panning rule.
func (p *Processor) Rule() Rule {
	return p.rule
}

// SetRule changes panning rule.
func (p *Processor) SetRule(r Rule) {
	p.rule = r
}

// Process applies channel gains in place.
func (p *Processor) Process(buf signal.Float64, _ midi.Block) error {
	if err := p.CheckPrepared(); err != nil {
		return err
	}
	left, right := p.rule.Gains(p.Value("pan"))
	vecmath.ScaleBlock(buf[0], buf[0], left)
	vecmath.ScaleBlock(buf[1], buf[1], right)
	return nil
}

// Snapshot returns persisted state.
func (p *Processor) Snapshot() (state.Record, error) {
	rec := p.SnapshotAs(Type)
	rec.Settings["rule"] = p.rule.String()
	return rec, nil
}
