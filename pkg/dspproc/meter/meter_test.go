package meter

import (
	"testing"

	"github.com/dspforge/rtengine/pkg/audio"
	"github.com/stretchr/testify/require"
)

func TestProcessAudioPassesThroughUnmodified(t *testing.T) {
	p := New(1, "meter", 2)
	require.NoError(t, p.Configure(48000))

	in := audio.NewBuffer(2, 32)
	for i := 0; i < 32; i++ {
		in.Channel(0)[i] = 0.5
		in.Channel(1)[i] = -0.25
	}
	out := audio.NewBuffer(2, 32)

	p.ProcessAudio(audio.NewViewOf(in.Channels()), audio.NewViewOf(out.Channels()))

	require.Equal(t, in.Channel(0), out.Channel(0))
	require.Equal(t, in.Channel(1), out.Channel(1))
}

func TestProcessAudioUpdatesPeakAndRMS(t *testing.T) {
	p := New(1, "meter", 1)
	require.NoError(t, p.Configure(48000))

	in := audio.NewBuffer(1, 64)
	for i := range in.Channel(0) {
		in.Channel(0)[i] = 1.0
	}
	out := audio.NewBuffer(1, 64)

	for i := 0; i < 10; i++ {
		p.ProcessAudio(audio.NewViewOf(in.Channels()), audio.NewViewOf(out.Channels()))
	}

	require.Greater(t, p.Parameters().Get(ParamPeakDB).GetPlainValue(), -120.0)
	require.Greater(t, p.Parameters().Get(ParamRMSDB).GetPlainValue(), -120.0)
}

func TestCorrelationOnlyTrackedWithTwoChannels(t *testing.T) {
	mono := New(1, "meter", 1)
	require.NoError(t, mono.Configure(48000))
	require.Nil(t, mono.corr)

	stereo := New(2, "meter", 2)
	require.NoError(t, stereo.Configure(48000))
	require.NotNil(t, stereo.corr)
}
