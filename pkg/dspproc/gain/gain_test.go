package gain

import (
	"testing"

	"github.com/dspforge/rtengine/pkg/audio"
	"github.com/dspforge/rtengine/pkg/rtevent"
	"github.com/stretchr/testify/require"
)

func TestUnityGainPassthrough(t *testing.T) {
	p := New(1, "gain")
	require.NoError(t, p.Configure(48000))

	in := audio.NewBuffer(1, 4)
	in.Channel(0)[0] = 0.42
	out := audio.NewBuffer(1, 4)

	p.ProcessAudio(audio.NewViewOf(in.Channels()), audio.NewViewOf(out.Channels()))
	require.InDelta(t, 0.42, out.Channel(0)[0], 1e-6)
}

func TestGainParamChangeScalesOutput(t *testing.T) {
	p := New(1, "gain")
	require.NoError(t, p.Configure(48000))

	// +6dB ~ doubling in normalized-range terms; exercise via plain value.
	normalized := p.Parameters().Get(GainParamID).Normalize(6)
	p.ProcessEvent(rtevent.ParamFloat(1, 0, GainParamID, normalized))

	in := audio.NewBuffer(1, 4)
	in.Channel(0)[0] = 1.0
	out := audio.NewBuffer(1, 4)
	p.ProcessAudio(audio.NewViewOf(in.Channels()), audio.NewViewOf(out.Channels()))

	require.InDelta(t, 1.995, out.Channel(0)[0], 1e-3)
}
