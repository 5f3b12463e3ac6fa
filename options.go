package render

import (
	"fmt"

	"pipelined.dev/render/fault"
	"pipelined.dev/render/log"
)

// Option provides a way to set functional parameters to engine.
type Option func(*Engine) error

// WithSampleRate sets render sample rate.
func WithSampleRate(sampleRate float64) Option {
	return func(e *Engine) error {
		if !(sampleRate > 0) {
			return fmt.Errorf("sample rate %v: %w", sampleRate, fault.ErrInvalidArgument)
		}
		e.sampleRate = sampleRate
		return nil
	}
}

// WithBlockSize sets number of samples processed per block.
func WithBlockSize(blockSize int) Option {
	return func(e *Engine) error {
		if blockSize <= 0 {
			return fmt.Errorf("block size %d: %w", blockSize, fault.ErrInvalidArgument)
		}
		e.blockSize = blockSize
		return nil
	}
}

// WithChannels sets number of channels used by processors that don't
// declare outputs and by empty graph.
func WithChannels(channels int) Option {
	return func(e *Engine) error {
		if channels <= 0 {
			return fmt.Errorf("channels %d: %w", channels, fault.ErrInvalidArgument)
		}
		e.channels = channels
		return nil
	}
}

// WithBPM sets constant tempo.
func WithBPM(bpm float64) Option {
	return func(e *Engine) error {
		return e.SetBPM(bpm)
	}
}

// WithLogger sets logger to engine. If this option is not provided,
// silent logger is used.
func WithLogger(logger log.Logger) Option {
	return func(e *Engine) error {
		e.log = logger
		return nil
	}
}
