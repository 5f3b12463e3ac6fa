// Package wav loads source audio from and saves renders to wav files.
package wav

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"pipelined.dev/render/fault"
	"pipelined.dev/render/signal"
)

// ErrUnsupportedBitDepth is returned when unsupported bit depth is used.
var ErrUnsupportedBitDepth = errors.New("only 16, 24 and 32 bit depth is supported")

// ErrInvalidFile is returned when file isn't a valid wav.
var ErrInvalidFile = errors.New("wav is not valid")

const readSize = 4096

func supported(bitDepth signal.BitDepth) bool {
	return bitDepth == signal.BitDepth16 || bitDepth == signal.BitDepth24 || bitDepth == signal.BitDepth32
}

// Read decodes whole wav stream. Sample rate of the stream is returned.
func Read(r io.ReadSeeker) (signal.Float64, float64, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, 0, ErrInvalidFile
	}
	bitDepth := signal.BitDepth(decoder.BitDepth)
	if !supported(bitDepth) {
		return nil, 0, fmt.Errorf("%d: %w", bitDepth, ErrUnsupportedBitDepth)
	}
	numChannels := decoder.Format().NumChannels
	ib := &audio.IntBuffer{
		Format:         decoder.Format(),
		Data:           make([]int, readSize*numChannels),
		SourceBitDepth: int(decoder.BitDepth),
	}
	var result signal.Float64
	for {
		n, err := decoder.PCMBuffer(ib)
		if err != nil {
			return nil, 0, err
		}
		if n == 0 {
			break
		}
		result = result.Append(signal.InterInt{Data: ib.Data[:n], NumChannels: numChannels, BitDepth: bitDepth}.AsFloat64())
	}
	if result == nil {
		result = signal.EmptyFloat64(numChannels, 0)
	}
	return result, float64(decoder.SampleRate), nil
}

// Load reads wav file.
func Load(path string) (signal.Float64, float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	buf, sampleRate, err := Read(f)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", path, err)
	}
	return buf, sampleRate, nil
}

// Write encodes buffer as PCM wav.
func Write(w io.WriteSeeker, buf signal.Float64, sampleRate float64, bitDepth signal.BitDepth) error {
	if !supported(bitDepth) {
		return fmt.Errorf("%d: %w", bitDepth, ErrUnsupportedBitDepth)
	}
	if buf.NumChannels() == 0 || sampleRate <= 0 {
		return fmt.Errorf("%d channels at %v: %w", buf.NumChannels(), sampleRate, fault.ErrInvalidArgument)
	}
	e := wav.NewEncoder(w, int(sampleRate), int(bitDepth), buf.NumChannels(), 1)
	ib := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: buf.NumChannels(),
			SampleRate:  int(sampleRate),
		},
		SourceBitDepth: int(bitDepth),
		Data:           buf.AsInterInt(bitDepth),
	}
	if err := e.Write(ib); err != nil {
		return err
	}
	return e.Close()
}

// Save writes buffer into wav file.
func Save(path string, buf signal.Float64, sampleRate float64, bitDepth signal.BitDepth) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, buf, sampleRate, bitDepth); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}
