//go:build renderdebug

package transport

import (
	"fmt"
	"math"
)

func check(p Playhead) {
	switch {
	case p.TimeInSamples < 0:
		panic(fmt.Sprintf("negative playhead time in samples: %d", p.TimeInSamples))
	case math.IsNaN(p.TimeInSeconds) || p.TimeInSeconds < 0:
		panic(fmt.Sprintf("invalid playhead time in seconds: %v", p.TimeInSeconds))
	case math.IsNaN(p.PPQPosition) || p.PPQPosition < 0:
		panic(fmt.Sprintf("invalid playhead ppq position: %v", p.PPQPosition))
	case math.IsNaN(p.BPM) || p.BPM <= 0:
		panic(fmt.Sprintf("invalid playhead bpm: %v", p.BPM))
	}
}
