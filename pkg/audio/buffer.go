// Package audio provides the fixed-block multichannel sample container
// the engine passes between the driver, tracks, and processors.
//
// Buffer owns a contiguous float array sized channels × block; View is a
// non-owning channel-range window over another Buffer's storage, used to
// hand per-channel strips to tracks without copying (§4.1). Gain, mixing
// and interleave helpers are adapted from the teacher's
// pkg/dsp/gain and pkg/dsp/mix packages, which already implement these
// operations per-sample/per-buffer without allocation.
package audio

import (
	"github.com/dspforge/rtengine/pkg/dsp/gain"
	"github.com/dspforge/rtengine/pkg/dsp/mix"
)

// Buffer is a contiguous multichannel block of audio, channels × frames.
type Buffer struct {
	channels [][]float32
	storage  []float32
	frames   int
}

// NewBuffer allocates a buffer of the given channel count and block size.
// Allocation happens once, off the audio thread, at graph-construction
// time.
func NewBuffer(numChannels, blockSize int) *Buffer {
	b := &Buffer{
		storage: make([]float32, numChannels*blockSize),
		frames:  blockSize,
	}
	b.channels = make([][]float32, numChannels)
	for ch := 0; ch < numChannels; ch++ {
		b.channels[ch] = b.storage[ch*blockSize : (ch+1)*blockSize]
	}
	return b
}

// NumChannels returns the channel count.
func (b *Buffer) NumChannels() int { return len(b.channels) }

// NumFrames returns the block size in frames.
func (b *Buffer) NumFrames() int { return b.frames }

// Channel returns the slice backing one channel. The slice aliases the
// buffer's storage — callers must not retain it past the buffer's
// lifetime.
func (b *Buffer) Channel(ch int) []float32 {
	return b.channels[ch]
}

// Channels returns the raw channel slice set, for constructing a View
// over this buffer's storage without copying.
func (b *Buffer) Channels() [][]float32 {
	return b.channels
}

// Zero clears every sample to 0.
func (b *Buffer) Zero() {
	for ch := range b.channels {
		c := b.channels[ch]
		for i := range c {
			c[i] = 0
		}
	}
}

// SetChannel copies src into channel ch, sample for sample (audio-in
// routing writes through this rather than replacing the underlying
// slice, so a track's input buffer is never aliased onto caller-owned
// driver memory across block boundaries).
func (b *Buffer) SetChannel(ch int, src []float32) {
	copy(b.channels[ch], src)
}

// AddChannel mixes src into channel ch, used by audio-out routing to
// sum one track channel into one engine output channel.
func (b *Buffer) AddChannel(ch int, src []float32) {
	addInto(b.channels[ch], src)
}

// Gain scales every channel by a linear factor.
func (b *Buffer) Gain(linear float32) {
	for ch := range b.channels {
		gain.ApplyBuffer(b.channels[ch], linear)
	}
}

// GainChannel scales a single channel by a linear factor.
func (b *Buffer) GainChannel(ch int, linear float32) {
	gain.ApplyBuffer(b.channels[ch], linear)
}

// Add mixes src into the buffer. If src has one channel it is mixed into
// every channel (mono-to-all); otherwise channel counts must match.
func (b *Buffer) Add(src *Buffer) {
	if src.NumChannels() == 1 {
		for ch := range b.channels {
			addInto(b.channels[ch], src.channels[0])
		}
		return
	}
	n := min(len(b.channels), len(src.channels))
	for ch := 0; ch < n; ch++ {
		addInto(b.channels[ch], src.channels[ch])
	}
}

// AddGain mixes src into the buffer scaled by linear gain.
func (b *Buffer) AddGain(src *Buffer, linear float32) {
	if src.NumChannels() == 1 {
		for ch := range b.channels {
			addGainInto(b.channels[ch], src.channels[0], linear)
		}
		return
	}
	n := min(len(b.channels), len(src.channels))
	for ch := 0; ch < n; ch++ {
		addGainInto(b.channels[ch], src.channels[ch], linear)
	}
}

func addInto(dst, src []float32) {
	n := min(len(dst), len(src))
	for i := 0; i < n; i++ {
		dst[i] += src[i]
	}
}

func addGainInto(dst, src []float32, g float32) {
	n := min(len(dst), len(src))
	for i := 0; i < n; i++ {
		dst[i] += gain.Apply(src[i], g)
	}
}

// Interleave writes the buffer's channels into a single interleaved
// slice sized numChannels*frames.
func (b *Buffer) Interleave(dst []float32) {
	nc := len(b.channels)
	for ch := 0; ch < nc; ch++ {
		c := b.channels[ch]
		for i, s := range c {
			dst[i*nc+ch] = s
		}
	}
}

// Deinterleave fills the buffer's channels from a single interleaved
// slice sized numChannels*frames. Deinterleave undoes Interleave exactly.
func (b *Buffer) Deinterleave(src []float32) {
	nc := len(b.channels)
	for ch := 0; ch < nc; ch++ {
		c := b.channels[ch]
		for i := range c {
			c[i] = src[i*nc+ch]
		}
	}
}

// Peak returns the largest absolute sample value across all channels —
// used by the clip detector.
func (b *Buffer) Peak() float32 {
	var peak float32
	for ch := range b.channels {
		for _, s := range b.channels[ch] {
			if s < 0 {
				s = -s
			}
			if s > peak {
				peak = s
			}
		}
	}
	return peak
}

// ChannelPeak returns the largest absolute sample value on one channel.
func (b *Buffer) ChannelPeak(ch int) float32 {
	var peak float32
	for _, s := range b.channels[ch] {
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}
	return peak
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// View is a non-owning window over a contiguous channel range of another
// Buffer. It must not outlive the Buffer it was constructed from.
type View struct {
	channels [][]float32
}

// NewView creates a view over channels [start, start+count) of b.
func NewView(b *Buffer, start, count int) View {
	return View{channels: b.channels[start : start+count]}
}

// NewViewOf wraps a raw set of channel slices (used when aliasing
// engine-provided driver buffers directly, e.g. track input binding —
// see pkg/track).
func NewViewOf(channels [][]float32) View {
	return View{channels: channels}
}

// NumChannels returns the view's channel count.
func (v View) NumChannels() int { return len(v.channels) }

// Channel returns the aliased slice for channel ch.
func (v View) Channel(ch int) []float32 {
	if ch < 0 || ch >= len(v.channels) {
		return nil
	}
	return v.channels[ch]
}

// Channels returns the raw channel slice set (for handing to processors
// that take [][]float32 directly).
func (v View) Channels() [][]float32 {
	return v.channels
}

// Mix crossfades dry and wet by amount into dst using equal-power
// weighting — exposed
// for processors that need dry/wet blending via pkg/dsp/mix.
func Mix(dry, wet []float32, amount float32, dst []float32) {
	mix.CrossfadeBuffer(dry, wet, amount, true, dst)
}
