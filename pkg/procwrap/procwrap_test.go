package procwrap

import (
	"testing"

	"github.com/dspforge/rtengine/pkg/audio"
	"github.com/dspforge/rtengine/pkg/param"
	"github.com/dspforge/rtengine/pkg/rtevent"
	"github.com/stretchr/testify/require"
)

type fakeNative struct {
	configured  bool
	sampleRate  float64
	closed      bool
	lastEvent   rtevent.Event
	processed   bool
	latency     int32
}

func (f *fakeNative) Configure(sampleRate float64, maxBlockSize int) error {
	f.configured = true
	f.sampleRate = sampleRate
	return nil
}

func (f *fakeNative) Describe() []*param.Parameter {
	return []*param.Parameter{param.New(1, "drive").Range(0, 10).Default(5).Build()}
}

func (f *fakeNative) ProcessAudio(in, out audio.View) {
	f.processed = true
	for ch := 0; ch < out.NumChannels(); ch++ {
		dst := out.Channel(ch)
		for i := range dst {
			dst[i] = 1
		}
	}
}

func (f *fakeNative) ProcessEvent(ev rtevent.Event) { f.lastEvent = ev }
func (f *fakeNative) Latency() int32                { return f.latency }
func (f *fakeNative) Close() error                  { f.closed = true; return nil }

func TestUnattachedWrapperZeroesOutput(t *testing.T) {
	w := New(1, "vst", ProtocolVST3)
	require.NoError(t, w.Configure(48000))

	out := audio.NewBuffer(2, 4)
	out.Channel(0)[0] = 5
	w.ProcessAudio(audio.View{}, audio.NewViewOf(out.Channels()))

	require.Equal(t, float32(0), out.Channel(0)[0])
}

func TestAttachImportsParametersAndConfigures(t *testing.T) {
	w := New(1, "vst", ProtocolVST2)
	require.NoError(t, w.Configure(48000))

	native := &fakeNative{}
	require.NoError(t, w.Attach(native))

	require.True(t, native.configured)
	require.Equal(t, float64(48000), native.sampleRate)
	require.NotNil(t, w.Parameters().Get(1))
}

func TestProcessAudioDelegatesToNative(t *testing.T) {
	w := New(1, "vst", ProtocolLV2)
	require.NoError(t, w.Configure(48000))
	native := &fakeNative{}
	require.NoError(t, w.Attach(native))

	out := audio.NewBuffer(1, 4)
	w.ProcessAudio(audio.View{}, audio.NewViewOf(out.Channels()))

	require.True(t, native.processed)
	require.Equal(t, float32(1), out.Channel(0)[0])
}

func TestDetachClosesNative(t *testing.T) {
	w := New(1, "vst", ProtocolVST3)
	native := &fakeNative{}
	require.NoError(t, w.Attach(native))

	require.NoError(t, w.Detach())
	require.True(t, native.closed)
	require.Equal(t, int32(0), w.LatencySamples())
}
