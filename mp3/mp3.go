// Package mp3 loads source audio from mp3 files.
package mp3

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/hajimehoshi/go-mp3"

	"pipelined.dev/render/signal"
)

// decoder always produces 16 bit stereo.
const (
	numChannels = 2
	frameSize   = numChannels * 2
	readSize    = 4096 * frameSize
)

// Read decodes whole mp3 stream. Sample rate of the stream is returned.
func Read(r io.Reader) (signal.Float64, float64, error) {
	d, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, 0, err
	}
	var (
		result = signal.EmptyFloat64(numChannels, 0)
		buf    = make([]byte, readSize)
		ints   = make([]int, readSize/2)
	)
	for {
		n, err := io.ReadFull(d, buf)
		// drop incomplete frame.
		n -= n % frameSize
		if n > 0 {
			for i := 0; i < n/2; i++ {
				ints[i] = int(int16(binary.LittleEndian.Uint16(buf[2*i:])))
			}
			result = result.Append(signal.InterInt{Data: ints[:n/2], NumChannels: numChannels, BitDepth: signal.BitDepth16}.AsFloat64())
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return nil, 0, err
		}
	}
	return result, float64(d.SampleRate()), nil
}

// Load reads mp3 file.
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
