package warp_test

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/render/warp"
)

type asdWriter struct {
	bytes.Buffer
}

func (w *asdWriter) float64s(values ...float64) {
	for _, v := range values {
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
		w.Write(b[:])
	}
}

func (w *asdWriter) pad(n int) {
	w.Write(make([]byte, n))
}

func analysisFile() []byte {
	var w asdWriter
	w.WriteString("SampleOverViewLevel")
	w.pad(16)
	w.WriteString("SampleOverViewLevel")
	w.pad(71)
	// loop start, loop end, start offset, hidden loop, end marker.
	w.float64s(1, 9, 0.5, 0, 16, 12)
	w.pad(3)
	w.WriteByte(1)
	w.WriteString("WarpMarker")
	w.pad(4)
	w.WriteString("WarpMarker")
	w.pad(4)
	w.float64s(0, 0)
	w.WriteString("WarpMarker")
	w.pad(4)
	w.float64s(2, 4)
	w.pad(7)
	w.WriteByte(0)
	return w.Bytes()
}

func TestReadASD(t *testing.T) {
	info, err := warp.ReadASD(bytes.NewReader(analysisFile()))
	require.NoError(t, err)
	assert.Equal(t, warp.ClipInfo{
		WarpOn:          true,
		LoopOn:          false,
		LoopStart:       1,
		LoopEnd:         9,
		StartMarker:     1.5,
		EndMarker:       12,
		HiddenLoopStart: 0,
		HiddenLoopEnd:   16,
		Markers:         []warp.Marker{{Seconds: 0, Beat: 0}, {Seconds: 2, Beat: 4}},
	}, info)
}

func TestReadASDNotFound(t *testing.T) {
	_, err := warp.ReadASD(bytes.NewReader([]byte("not an analysis file")))
	assert.ErrorIs(t, err, warp.ErrClipInfoNotFound)
}
