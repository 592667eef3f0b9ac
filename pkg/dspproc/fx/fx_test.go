package fx

import (
	"testing"

	"github.com/dspforge/rtengine/pkg/audio"
	"github.com/dspforge/rtengine/pkg/rtevent"
	"github.com/stretchr/testify/require"
)

func TestProcessAudioProducesFiniteOutput(t *testing.T) {
	p := New(1, "fx", 2)
	require.NoError(t, p.Configure(48000))

	inBuf := audio.NewBuffer(2, 64)
	for i := 0; i < 64; i++ {
		inBuf.Channel(0)[i] = 0.5
		inBuf.Channel(1)[i] = -0.5
	}
	outBuf := audio.NewBuffer(2, 64)

	in := audio.NewViewOf(inBuf.Channels())
	out := audio.NewViewOf(outBuf.Channels())
	p.ProcessAudio(in, out)

	for _, s := range outBuf.Channel(0) {
		require.False(t, s != s, "NaN in output")
	}
}

func TestProcessEventUpdatesCompressorThreshold(t *testing.T) {
	p := New(1, "fx", 1)
	require.NoError(t, p.Configure(48000))

	p.ProcessEvent(rtevent.ParamFloat(1, 0, ParamCompThreshold, 0.1))
	require.InDelta(t, 0.1, p.Parameters().Get(ParamCompThreshold).GetValue(), 1e-9)
}
