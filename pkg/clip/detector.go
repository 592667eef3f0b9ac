// Package clip implements the per-channel clip detector (§4.4): a
// threshold counter that rate-limits clip notifications to roughly one
// per ~500ms per (channel, direction) without missing sustained clipping.
package clip

import (
	"github.com/dspforge/rtengine/pkg/rtevent"
)

// Detector tracks one rate-limit counter per channel for a single
// direction (input or output). The engine owns two instances.
type Detector struct {
	direction rtevent.Direction
	counters  []uint32
	interval  uint32
	blockSize uint32
}

// New creates a detector for numChannels channels. interval is the
// ~500ms rearm window expressed in samples (derived from sample rate by
// the caller); blockSize is the fixed per-block frame count.
func New(direction rtevent.Direction, numChannels int, interval, blockSize uint32) *Detector {
	return &Detector{
		direction: direction,
		counters:  make([]uint32, numChannels),
		interval:  interval,
		blockSize: blockSize,
	}
}

// IntervalForSampleRate computes the ~500ms rearm interval in samples.
func IntervalForSampleRate(sampleRate float64) uint32 {
	return uint32(sampleRate * 0.5)
}

// Detect scans each channel of buf for |sample| > 1.0. For any channel
// whose counter has decayed to zero, a clip event is appended to out and
// the counter is reset to the rearm interval. Every counter decrements by
// blockSize (clamped at zero) regardless of whether it fired, so this
// must be called exactly once per block per channel set.
func (d *Detector) Detect(channels [][]float32, out []rtevent.Event) []rtevent.Event {
	for ch := 0; ch < len(d.counters) && ch < len(channels); ch++ {
		if d.counters[ch] > d.blockSize {
			d.counters[ch] -= d.blockSize
		} else {
			d.counters[ch] = 0
		}

		if d.counters[ch] == 0 && exceedsUnity(channels[ch]) {
			out = append(out, rtevent.Clip(int32(ch), d.direction))
			d.counters[ch] = d.interval
		}
	}
	return out
}

func exceedsUnity(channel []float32) bool {
	for _, s := range channel {
		if s > 1.0 || s < -1.0 {
			return true
		}
	}
	return false
}
