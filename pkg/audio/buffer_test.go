package audio

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestZero(t *testing.T) {
	b := NewBuffer(2, 4)
	for ch := 0; ch < 2; ch++ {
		for i := range b.Channel(ch) {
			b.Channel(ch)[i] = 1
		}
	}
	b.Zero()
	for ch := 0; ch < 2; ch++ {
		for _, s := range b.Channel(ch) {
			require.Equal(t, float32(0), s)
		}
	}
}

func TestGain(t *testing.T) {
	b := NewBuffer(1, 4)
	copy(b.Channel(0), []float32{1, 1, 1, 1})
	b.Gain(0.5)
	for _, s := range b.Channel(0) {
		require.InDelta(t, 0.5, s, 1e-6)
	}
}

func TestAddMonoToAll(t *testing.T) {
	dst := NewBuffer(2, 2)
	src := NewBuffer(1, 2)
	copy(src.Channel(0), []float32{1, 2})
	dst.Add(src)
	require.Equal(t, []float32{1, 2}, dst.Channel(0))
	require.Equal(t, []float32{1, 2}, dst.Channel(1))
}

func TestAddMatchingChannels(t *testing.T) {
	dst := NewBuffer(2, 2)
	src := NewBuffer(2, 2)
	copy(src.Channel(0), []float32{1, 1})
	copy(src.Channel(1), []float32{2, 2})
	dst.Add(src)
	require.Equal(t, []float32{1, 1}, dst.Channel(0))
	require.Equal(t, []float32{2, 2}, dst.Channel(1))
}

func TestInterleaveDeinterleaveRoundTrip(t *testing.T) {
	for _, nc := range []int{1, 2, 5} {
		b := NewBuffer(nc, 8)
		for ch := 0; ch < nc; ch++ {
			for i := range b.Channel(ch) {
				b.Channel(ch)[i] = float32(ch*100 + i)
			}
		}
		interleaved := make([]float32, nc*8)
		b.Interleave(interleaved)

		out := NewBuffer(nc, 8)
		out.Deinterleave(interleaved)

		for ch := 0; ch < nc; ch++ {
			require.Equal(t, b.Channel(ch), out.Channel(ch), "channel %d mismatch for %d channels", ch, nc)
		}
	}
}

func TestViewAliasesOwningBuffer(t *testing.T) {
	b := NewBuffer(4, 4)
	v := NewView(b, 1, 2)
	require.Equal(t, 2, v.NumChannels())

	v.Channel(0)[0] = 42
	require.Equal(t, float32(42), b.Channel(1)[0])
}

func TestPeakDetectsLargestAbsoluteSample(t *testing.T) {
	b := NewBuffer(2, 4)
	copy(b.Channel(0), []float32{0.1, -0.2, 0.05, 0})
	copy(b.Channel(1), []float32{0, 0, -1.5, 0})
	require.InDelta(t, 1.5, b.Peak(), 1e-6)
	require.InDelta(t, 0.2, b.ChannelPeak(0), 1e-6)
}
