// Package transport implements the musical-time state machine: tempo,
// time signature, playing mode, sync mode, and the sample/beat position
// derived from them (§4.3).
//
// The transport is the sole writer of musical time read by processors
// during a block. While the engine is running, tempo/time-signature/
// playing-mode/sync-mode changes arrive as rtevent.Event values and are
// buffered until AdvanceBlock's caller applies them at the block
// boundary, preserving phase; when the engine is not running, setters
// apply immediately.
package transport

import (
	"sync"
	"time"

	"github.com/dspforge/rtengine/pkg/rtevent"
)

// PlayingMode re-exports rtevent.PlayingMode for callers that only need
// the transport package.
type PlayingMode = rtevent.PlayingMode

// SyncMode re-exports rtevent.SyncMode.
type SyncMode = rtevent.SyncMode

const (
	Stopped   = rtevent.PlayingStopped
	Playing   = rtevent.PlayingPlaying
	Recording = rtevent.PlayingRecording

	SyncInternal = rtevent.SyncInternal
	SyncMIDI     = rtevent.SyncMIDI
	SyncLink     = rtevent.SyncLink
	SyncGate     = rtevent.SyncGate
)

// Transport tracks tempo, time signature, playing mode, sync mode, and
// derived sample/musical position. All mutating methods other than the
// pending-change setters are intended to be called only from the audio
// thread.
type Transport struct {
	mu sync.Mutex // guards only the pending-change staging area

	tempo        float64
	timeSigNum   int32
	timeSigDenom int32
	playing      rtevent.PlayingMode
	sync         rtevent.SyncMode

	samplePosition int64
	beatPosition   float64
	wallClock      time.Time

	pendingTempo   *float64
	pendingTimeSig *[2]int32
	pendingPlaying *rtevent.PlayingMode
	pendingSync    *rtevent.SyncMode
}

// New creates a transport at the default 120 BPM, 4/4, stopped, internal sync.
func New() *Transport {
	return &Transport{
		tempo:        120,
		timeSigNum:   4,
		timeSigDenom: 4,
		playing:      rtevent.PlayingStopped,
		sync:         rtevent.SyncInternal,
	}
}

// Tempo returns the current tempo in BPM.
func (t *Transport) Tempo() float64 { return t.tempo }

// TimeSignature returns the current time signature numerator/denominator.
func (t *Transport) TimeSignature() (int32, int32) { return t.timeSigNum, t.timeSigDenom }

// PlayingMode returns the current playing mode.
func (t *Transport) PlayingMode() rtevent.PlayingMode { return t.playing }

// SyncMode returns the current sync mode.
func (t *Transport) SyncMode() rtevent.SyncMode { return t.sync }

// SamplePosition returns the running sample count.
func (t *Transport) SamplePosition() int64 { return t.samplePosition }

// BeatPosition returns the current musical position in beats.
func (t *Transport) BeatPosition() float64 { return t.beatPosition }

// WallClock returns the timestamp of the most recently processed block.
func (t *Transport) WallClock() time.Time { return t.wallClock }

// SetTempo changes the tempo. If running is true the change is staged
// for the next block boundary; otherwise it applies immediately.
func (t *Transport) SetTempo(bpm float64, running bool) {
	if !running {
		t.tempo = bpm
		return
	}
	t.mu.Lock()
	v := bpm
	t.pendingTempo = &v
	t.mu.Unlock()
}

// SetTimeSignature changes the time signature, staged like SetTempo.
func (t *Transport) SetTimeSignature(num, denom int32, running bool) {
	if !running {
		t.timeSigNum, t.timeSigDenom = num, denom
		return
	}
	t.mu.Lock()
	v := [2]int32{num, denom}
	t.pendingTimeSig = &v
	t.mu.Unlock()
}

// SetPlayingMode changes the playing mode, staged like SetTempo.
func (t *Transport) SetPlayingMode(mode rtevent.PlayingMode, running bool) {
	if !running {
		t.playing = mode
		return
	}
	t.mu.Lock()
	v := mode
	t.pendingPlaying = &v
	t.mu.Unlock()
}

// SetSyncMode changes the sync mode, staged like SetTempo.
func (t *Transport) SetSyncMode(mode rtevent.SyncMode, running bool) {
	if !running {
		t.sync = mode
		return
	}
	t.mu.Lock()
	v := mode
	t.pendingSync = &v
	t.mu.Unlock()
}

// applyPending flushes any staged changes at the block boundary. Called
// by the audio thread only, at the top of AdvanceBlock.
func (t *Transport) applyPending() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pendingTempo != nil {
		t.tempo = *t.pendingTempo
		t.pendingTempo = nil
	}
	if t.pendingTimeSig != nil {
		t.timeSigNum, t.timeSigDenom = t.pendingTimeSig[0], t.pendingTimeSig[1]
		t.pendingTimeSig = nil
	}
	if t.pendingPlaying != nil {
		t.playing = *t.pendingPlaying
		t.pendingPlaying = nil
	}
	if t.pendingSync != nil {
		t.sync = *t.pendingSync
		t.pendingSync = nil
	}
}

// AdvanceBlock applies any pending transport changes, then advances the
// musical position by blockSize/sampleRate × tempo/60 beats if playing
// (§4.3). Called once per block by the audio engine, after draining
// topology/transport RT events for the block.
func (t *Transport) AdvanceBlock(timestamp time.Time, blockSize int, sampleRate float64) {
	t.applyPending()

	t.wallClock = timestamp
	t.samplePosition += int64(blockSize)

	if t.playing == rtevent.PlayingStopped {
		return
	}

	blockSeconds := float64(blockSize) / sampleRate
	beatsPerSecond := t.tempo / 60.0
	t.beatPosition += blockSeconds * beatsPerSecond
}

// CurrentBar returns the 1-indexed bar number implied by beatPosition and
// the current time signature.
func (t *Transport) CurrentBar() int32 {
	if t.timeSigNum <= 0 {
		return 1
	}
	return int32(t.beatPosition/float64(t.timeSigNum)) + 1
}

// SyncMarker builds the block-boundary notification event carrying the
// transport's current musical time (§4.8 step 8).
func (t *Transport) SyncMarker() rtevent.Event {
	return rtevent.SyncMarker(t.beatPosition, t.CurrentBar(), t.samplePosition)
}
