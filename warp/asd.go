package warp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// ErrClipInfoNotFound is returned when analysis file doesn't contain clip
// information.
var ErrClipInfoNotFound = errors.New("clip info not found")

// asd is a cursor over analysis file contents.
type asd struct {
	data []byte
	pos  int
}

// find moves cursor right after the next occurrence of s.
func (a *asd) find(s string) bool {
	i := bytes.Index(a.data[a.pos:], []byte(s))
	if i < 0 {
		a.pos = len(a.data)
		return false
	}
	a.pos += i + len(s)
	return true
}

func (a *asd) skip(n int) bool {
	if a.pos+n > len(a.data) {
		return false
	}
	a.pos += n
	return true
}

func (a *asd) float64(v *float64) bool {
	if a.pos+8 > len(a.data) {
		return false
	}
	*v = math.Float64frombits(binary.LittleEndian.Uint64(a.data[a.pos:]))
	a.pos += 8
	return true
}

func (a *asd) bool(v *bool) bool {
	if a.pos+1 > len(a.data) {
		return false
	}
	*v = a.data[a.pos] != 0
	a.pos++
	return true
}

// loop reads loop block which follows the header found at offset.
func (a *asd) loop(info *ClipInfo, header string, offset int) bool {
	var sampleOffset float64
	a.pos = 0
	if a.find(header) && a.find(header) && a.skip(offset) &&
		a.float64(&info.LoopStart) &&
		a.float64(&info.LoopEnd) &&
		a.float64(&sampleOffset) &&
		a.float64(&info.HiddenLoopStart) &&
		a.float64(&info.HiddenLoopEnd) &&
		a.float64(&info.EndMarker) &&
		a.skip(3) &&
		a.bool(&info.WarpOn) {
		info.StartMarker = info.LoopStart + sampleOffset
		return true
	}
	return false
}

// ReadASD reads clip info from Ableton Live analysis file. Both Live 10
// and Live 9 layouts are supported.
func ReadASD(r io.Reader) (ClipInfo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return ClipInfo{}, err
	}
	a := asd{data: data}
	info := NewClipInfo()
	if !a.loop(&info, "SampleOverViewLevel", 71) && !a.loop(&info, "SampleData", 2702) {
		return ClipInfo{}, fmt.Errorf("loop info: %w", ErrClipInfoNotFound)
	}

	// first warp marker entry doesn't hold a marker.
	a.pos = 0
	a.find("WarpMarker")
	var lastGood int
	for a.find("WarpMarker") {
		var m Marker
		if a.skip(4) && a.float64(&m.Seconds) && a.float64(&m.Beat) {
			info.Markers = append(info.Markers, m)
			lastGood = a.pos
			continue
		}
		if len(info.Markers) > 0 {
			break
		}
	}
	a.pos = lastGood
	if !(a.skip(7) && a.bool(&info.LoopOn)) {
		return ClipInfo{}, fmt.Errorf("loop flag: %w", ErrClipInfoNotFound)
	}
	return info, nil
}

// LoadASD reads clip info from analysis file.
func LoadASD(path string) (ClipInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return ClipInfo{}, err
	}
	defer f.Close()
	return ReadASD(f)
}
