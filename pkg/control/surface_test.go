package control

import (
	"testing"
	"time"

	"github.com/dspforge/rtengine/pkg/engine"
	"github.com/dspforge/rtengine/pkg/rtevent"
	"github.com/stretchr/testify/require"
)

func testConfig() engine.Config {
	cfg := engine.DefaultConfig()
	cfg.NumInputChannels = 1
	cfg.NumOutputChannels = 1
	cfg.BlockSize = 4
	cfg.TopologyTimeout = 100 * time.Millisecond
	return cfg
}

// startDriver simulates the audio callback thread, exactly as
// pkg/engine's own tests do: every topology-mutating call here blocks on
// an ack only a running ProcessChunk loop can produce.
func startDriver(e *engine.Engine) (stop func()) {
	done := make(chan struct{})
	finished := make(chan struct{})

	cfg := testConfig()
	in := make([][]float32, cfg.NumInputChannels)
	out := make([][]float32, cfg.NumOutputChannels)
	for i := range in {
		in[i] = make([]float32, cfg.BlockSize)
	}
	for i := range out {
		out[i] = make([]float32, cfg.BlockSize)
	}

	go func() {
		defer close(finished)
		ticker := time.NewTicker(time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				e.ProcessChunk(in, out, nil, 0, time.Now())
			}
		}
	}()

	return func() {
		close(done)
		<-finished
	}
}

func TestCreateTrackRejectsWrongChannelCount(t *testing.T) {
	e := engine.New(testConfig())
	e.Start()
	s := New(e)

	_, err := s.CreateTrack("main", 2)
	require.Error(t, err)
	require.Equal(t, InvalidNChannels, Status(err))
}

func TestAddPluginToTrackAndRemoveRoundTrip(t *testing.T) {
	e := engine.New(testConfig())
	e.Start()
	stop := startDriver(e)
	s := New(e)

	trackID, err := s.CreateTrack("main", 1)
	require.NoError(t, err)

	procID, err := s.AddPluginToTrack(trackID, "dspforge.gain", "gain", "", PluginInternal)
	require.NoError(t, err)
	require.NotZero(t, procID)

	name, err := s.ProcessorNameFromID(procID)
	require.NoError(t, err)
	require.Equal(t, "gain", name)

	require.NoError(t, s.RemovePluginFromTrack(trackID, "gain"))
	stop()

	_, err = s.ProcessorIDFromName("gain")
	require.Error(t, err)
	require.Equal(t, InvalidProcessor, Status(err))
}

func TestAddPluginToTrackUnknownUIDFails(t *testing.T) {
	e := engine.New(testConfig())
	e.Start()
	stop := startDriver(e)
	defer stop()
	s := New(e)

	trackID, err := s.CreateTrack("main", 1)
	require.NoError(t, err)

	_, err = s.AddPluginToTrack(trackID, "no.such.plugin", "x", "", PluginInternal)
	require.Error(t, err)
	require.Equal(t, InvalidPluginUID, Status(err))
}

func TestDeleteTrackDeregistersItsProcessors(t *testing.T) {
	e := engine.New(testConfig())
	e.Start()
	stop := startDriver(e)
	s := New(e)

	trackID, err := s.CreateTrack("main", 1)
	require.NoError(t, err)
	_, err = s.AddPluginToTrack(trackID, "dspforge.gain", "gain", "", PluginInternal)
	require.NoError(t, err)

	require.NoError(t, s.DeleteTrack(trackID))
	stop()

	_, err = s.ProcessorIDFromName("gain")
	require.Error(t, err)
	require.Equal(t, InvalidProcessor, Status(err))
}

func TestConnectCVToParameterByName(t *testing.T) {
	e := engine.New(testConfig())
	e.Start()
	stop := startDriver(e)
	s := New(e)

	trackID, err := s.CreateTrack("main", 1)
	require.NoError(t, err)
	_, err = s.AddPluginToTrack(trackID, "dspforge.gain", "gain", "", PluginInternal)
	require.NoError(t, err)
	stop()

	require.NoError(t, s.ConnectCVToParameter(0, "gain", "gain"))
	require.NoError(t, s.ConnectAudioInputChannel(0, 0, "main"))
	require.NoError(t, s.ConnectAudioOutputChannel(0, 0, "main"))

	in := [][]float32{{1, 1, 1, 1}}
	out := [][]float32{make([]float32, 4)}
	e.ProcessChunk(in, out, []float64{1.0}, 0, time.Now())
	require.Greater(t, out[0][0], float32(1.0))
}

func TestConnectAudioChannelByNameRoutesAudio(t *testing.T) {
	e := engine.New(testConfig())
	e.Start()
	stop := startDriver(e)
	s := New(e)

	trackID, err := s.CreateTrack("main", 1)
	require.NoError(t, err)
	_, err = s.AddPluginToTrack(trackID, "dspforge.gain", "gain", "", PluginInternal)
	require.NoError(t, err)
	stop()

	require.NoError(t, s.ConnectAudioInputChannel(0, 0, "main"))
	require.NoError(t, s.ConnectAudioOutputChannel(0, 0, "main"))

	in := [][]float32{{1, 0, 0, 0}}
	out := [][]float32{make([]float32, 4)}
	e.ProcessChunk(in, out, nil, 0, time.Now())
	require.InDelta(t, 1.0, out[0][0], 1e-3)
}

func TestConnectAudioChannelByNameUnknownTrackFails(t *testing.T) {
	e := engine.New(testConfig())
	e.Start()
	s := New(e)

	err := s.ConnectAudioInputChannel(0, 0, "no-such-track")
	require.Error(t, err)
	require.Equal(t, InvalidTrack, Status(err))
}

func TestEnableRealtimeStartsAndStopsEngine(t *testing.T) {
	e := engine.New(testConfig())
	s := New(e)

	s.EnableRealtime(true)
	require.True(t, s.Realtime())

	s.EnableRealtime(false)
	require.False(t, s.Realtime())
}

func TestParameterNameIDRoundTrip(t *testing.T) {
	e := engine.New(testConfig())
	e.Start()
	stop := startDriver(e)
	defer stop()
	s := New(e)

	trackID, err := s.CreateTrack("main", 1)
	require.NoError(t, err)
	_, err = s.AddPluginToTrack(trackID, "dspforge.gain", "gain", "", PluginInternal)
	require.NoError(t, err)

	id, err := s.ParameterIDFromName("gain", "gain")
	require.NoError(t, err)

	name, err := s.ParameterNameFromID("gain", id)
	require.NoError(t, err)
	require.Equal(t, "gain", name)
}

func TestCreateMultibusTrackRecordsBusLayout(t *testing.T) {
	e := engine.New(testConfig())
	e.Start()
	stop := startDriver(e)
	defer stop()
	s := New(e)

	trackID, err := s.CreateMultibusTrack("bus", 2, 1)
	require.NoError(t, err)

	cfg := s.BusConfiguration(trackID)
	require.NotNil(t, cfg)
}

func TestSetTempoPushesControlEvent(t *testing.T) {
	e := engine.New(testConfig())
	e.Start()
	s := New(e)

	require.NoError(t, s.SetTempo(140))

	ev, ok := e.MainIn().Pop()
	require.True(t, ok)
	require.Equal(t, rtevent.KindTempo, ev.Kind)
	require.Equal(t, 140.0, ev.Tempo)
}

func TestAddPluginToTrackNativeProtocolUnattached(t *testing.T) {
	e := engine.New(testConfig())
	e.Start()
	stop := startDriver(e)
	defer stop()
	s := New(e)

	trackID, err := s.CreateTrack("main", 1)
	require.NoError(t, err)

	_, err = s.AddPluginToTrack(trackID, "", "reverb", "/plugins/reverb.vst3", PluginVST3)
	require.NoError(t, err)
}
