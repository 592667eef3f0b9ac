package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAdvanceBlockWhileStoppedDoesNotMove(t *testing.T) {
	tr := New()
	tr.AdvanceBlock(time.Now(), 64, 48000)
	require.Equal(t, 0.0, tr.BeatPosition())
	require.Equal(t, int64(64), tr.SamplePosition())
}

func TestAdvanceBlockAtTempoMatchesScenario3(t *testing.T) {
	// Scenario 3: set_tempo(120) on a running engine, then a sync marker
	// advances musical time by BLOCK_SIZE/sample_rate × 2 beats/second.
	tr := New()
	tr.SetPlayingMode(Playing, false)
	tr.SetTempo(120, true)
	tr.AdvanceBlock(time.Now(), 64, 48000) // pending tempo applied here

	expectedBeats := (64.0 / 48000.0) * (120.0 / 60.0)
	require.InDelta(t, expectedBeats, tr.BeatPosition(), 1e-9)
}

func TestPendingChangeNotVisibleUntilBlockBoundary(t *testing.T) {
	tr := New()
	tr.SetPlayingMode(Playing, false)
	tr.SetTempo(240, true) // running==true: staged
	require.Equal(t, 120.0, tr.Tempo())

	tr.AdvanceBlock(time.Now(), 64, 48000)
	require.Equal(t, 240.0, tr.Tempo())
}

func TestImmediateApplyWhenNotRunning(t *testing.T) {
	tr := New()
	tr.SetTempo(90, false)
	require.Equal(t, 90.0, tr.Tempo())
}

func TestSyncMarkerCarriesMusicalTime(t *testing.T) {
	tr := New()
	tr.SetPlayingMode(Playing, false)
	tr.AdvanceBlock(time.Now(), 64, 48000)
	marker := tr.SyncMarker()
	require.InDelta(t, tr.BeatPosition(), marker.MusicalBeats, 1e-12)
	require.Equal(t, tr.SamplePosition(), marker.SamplePosition)
}
