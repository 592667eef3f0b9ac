// Package track implements the processor chain (§4.6): an ordered list
// of processors rendered in sequence over a pair of scratch buffers, in
// the style of the teacher's pkg/framework/dsp.Chain but carrying its
// own ping-pong buffers and an internal event buffer for processors that
// emit under worker-pool parallelism.
package track

import (
	"fmt"

	"github.com/dspforge/rtengine/pkg/audio"
	"github.com/dspforge/rtengine/pkg/processor"
	"github.com/dspforge/rtengine/pkg/rtevent"
)

// Track is an ordered processor chain with its own scratch buffers.
// Mutation of the chain (Insert/Remove/Reorder) is only safe while the
// engine is handling a topology RT event that targets this track (§9
// Open Question 2) — Track itself does not lock, matching the
// audio-thread-owns-topology-mutation invariant the rest of the engine
// follows.
type Track struct {
	id   uint32
	name string

	processors []processor.Processor

	scratchA *audio.Buffer
	scratchB *audio.Buffer

	// input is the track's own persistent input buffer. The engine's
	// copy-to-tracks step (§9 Open Question 1) writes each block's routed
	// input samples into it, per-channel via SetInputChannel (§6 audio
	// routing); the view the chain renders from is bound once, here,
	// rather than threaded through Render as a local constructed fresh
	// from the driver's (possibly relocating) buffers.
	input      *audio.Buffer
	inputBound audio.View

	// internalEvents accumulates events emitted by this track's
	// processors during Render, for the engine to drain after all tracks
	// finish — required once tracks render on separate worker threads.
	internalEvents []rtevent.Event
}

// New creates a track with the given id, name, and per-channel scratch
// buffer size (numChannels × blockSize).
func New(id uint32, name string, numChannels, blockSize int) *Track {
	input := audio.NewBuffer(numChannels, blockSize)
	return &Track{
		id:         id,
		name:       name,
		scratchA:   audio.NewBuffer(numChannels, blockSize),
		scratchB:   audio.NewBuffer(numChannels, blockSize),
		input:      input,
		inputBound: audio.NewViewOf(input.Channels()),
	}
}

// ID returns the track's identity.
func (t *Track) ID() uint32 { return t.id }

// Name returns the track's name.
func (t *Track) Name() string { return t.name }

// NumInputChannels returns the width of the track's persistent input
// buffer, for validating audio-in routing (§6 connect_audio_input_channel).
func (t *Track) NumInputChannels() int { return t.input.NumChannels() }

// CopyInput copies src into the track's own persistent input buffer,
// bound once at construction (§9 Open Question 1).
func (t *Track) CopyInput(src audio.View) {
	copyView(audio.NewViewOf(t.input.Channels()), src)
}

// ZeroInput silences the track's persistent input buffer. The engine
// calls this once per block before applying the audio-in routing table,
// so any track channel with no active route renders silence rather than
// stale data from a prior block.
func (t *Track) ZeroInput() {
	t.input.Zero()
}

// SetInputChannel writes src into the track's own input channel
// trackChannel, the per-channel counterpart to CopyInput used by the
// engine's audio-in routing table (§6, §9 Open Question 1). It copies
// rather than aliases src directly, so the track's buffer is never bound
// to caller-owned driver memory past the block that filled it.
func (t *Track) SetInputChannel(trackChannel int, src []float32) {
	t.input.SetChannel(trackChannel, src)
}

// Insert appends p to the end of the chain. Off-thread, or audio-thread
// while handling an ADD_PROCESSOR_TO_TRACK event (§4.8).
func (t *Track) Insert(p processor.Processor) {
	p.SetEventSink(processor.NewInternalSink(&t.internalEvents))
	t.processors = append(t.processors, p)
}

// InsertAt inserts p at position idx, shifting later processors back.
func (t *Track) InsertAt(idx int, p processor.Processor) error {
	if idx < 0 || idx > len(t.processors) {
		return fmt.Errorf("track: insert index %d out of range [0,%d]", idx, len(t.processors))
	}
	p.SetEventSink(processor.NewInternalSink(&t.internalEvents))
	t.processors = append(t.processors, nil)
	copy(t.processors[idx+1:], t.processors[idx:])
	t.processors[idx] = p
	return nil
}

// Remove drops the processor with the given id from the chain.
func (t *Track) Remove(id uint32) bool {
	for i, p := range t.processors {
		if p.Info().ID == id {
			t.processors = append(t.processors[:i], t.processors[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of processors in the chain.
func (t *Track) Len() int { return len(t.processors) }

// Processors returns the chain in order. Callers must not retain or
// mutate the returned slice.
func (t *Track) Processors() []processor.Processor { return t.processors }

// Render runs every enabled processor in order over the track's
// ping-pong scratch buffers, starting from the bound input, and writes
// the final result into out. It returns the events this block's
// processors emitted via their internal sinks; the engine drains and
// re-dispatches them once every track has rendered.
func (t *Track) Render(out audio.View) []rtevent.Event {
	t.internalEvents = t.internalEvents[:0]

	src := t.inputBound
	cur, next := t.scratchA, t.scratchB

	if src.NumChannels() > 0 {
		copyView(audio.NewViewOf(cur.Channels()[:src.NumChannels()]), src)
	}

	for _, p := range t.processors {
		if !p.Enabled() {
			continue
		}
		inView := audio.NewViewOf(cur.Channels())
		outView := audio.NewViewOf(next.Channels())
		p.ProcessAudio(inView, outView)
		cur, next = next, cur
	}

	copyView(out, audio.NewViewOf(cur.Channels()))
	return t.internalEvents
}

// DispatchEvent routes ev to the processor it targets, identified by
// ev.ProcessorID.
func (t *Track) DispatchEvent(ev rtevent.Event) bool {
	for _, p := range t.processors {
		if p.Info().ID == ev.ProcessorID {
			p.ProcessEvent(ev)
			return true
		}
	}
	return false
}

func copyView(dst, src audio.View) {
	n := src.NumChannels()
	if dn := dst.NumChannels(); dn < n {
		n = dn
	}
	for ch := 0; ch < n; ch++ {
		s := src.Channel(ch)
		d := dst.Channel(ch)
		m := len(s)
		if len(d) < m {
			m = len(d)
		}
		copy(d[:m], s[:m])
	}
}
