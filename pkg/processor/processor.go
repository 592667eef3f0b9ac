// Package processor defines the processor contract (§4.5): the uniform
// shape every node in the graph satisfies, whether it is a built-in DSP
// plugin, a track, or a host-side wrapper around an external VST2/VST3/
// LV2 plugin.
package processor

import (
	"github.com/dspforge/rtengine/pkg/audio"
	"github.com/dspforge/rtengine/pkg/param"
	"github.com/dspforge/rtengine/pkg/rtevent"
)

// InitResult reports the outcome of Init.
type InitResult int

const (
	InitOK InitResult = iota
	InitFailed
)

// Info carries a processor's identity and shape, assigned at
// registration (§3 Object identity).
type Info struct {
	ID               uint32
	Name             string
	InputChannels    int32
	OutputChannels   int32
}

// Sink is where a processor pushes the events it emits while processing
// a block (note/CV/gate output, async notifications). Two
// implementations exist: Direct, which pushes straight onto the
// engine's processor-out queue (safe only when the processor runs on
// the audio thread), and Internal, which appends to a per-track buffer
// the engine drains after the track finishes rendering — required under
// worker-pool parallelism, where a direct push would race (§4.5, §4.6).
type Sink interface {
	Emit(ev rtevent.Event)
}

// DirectSink pushes events straight onto a shared engine-owned FIFO.
type DirectSink struct {
	Push func(rtevent.Event) bool
}

// Emit implements Sink.
func (d DirectSink) Emit(ev rtevent.Event) {
	if d.Push != nil {
		d.Push(ev)
	}
}

// InternalSink appends events to a per-track buffer instead of pushing
// them directly, so rendering on a worker thread never races the
// engine's shared queues.
type InternalSink struct {
	buf *[]rtevent.Event
}

// NewInternalSink wraps a buffer slice pointer owned by a track.
func NewInternalSink(buf *[]rtevent.Event) InternalSink {
	return InternalSink{buf: buf}
}

// Emit implements Sink.
func (i InternalSink) Emit(ev rtevent.Event) {
	*i.buf = append(*i.buf, ev)
}

// Processor is the uniform interface every node in the audio graph
// satisfies.
type Processor interface {
	// Info returns the processor's identity and channel shape.
	Info() Info

	// Configure prepares the processor for a sample rate, off the audio
	// thread. May allocate.
	Configure(sampleRate float64) error

	// Init finishes off-thread setup and reports success/failure.
	Init(sampleRate float64) InitResult

	// SetEnabled toggles whether ProcessAudio/ProcessEvent run for this
	// processor; a disabled processor is skipped by its owning track.
	SetEnabled(enabled bool)
	Enabled() bool

	// ProcessAudio renders one block. Must not allocate, block, or take
	// locks (§4.5).
	ProcessAudio(in, out audio.View)

	// ProcessEvent applies a single RT event (parameter change, note,
	// etc.) targeted at this processor. Same real-time constraints as
	// ProcessAudio.
	ProcessEvent(ev rtevent.Event)

	// Parameters returns the processor's parameter registry.
	Parameters() *param.Registry

	// SetEventSink installs where this processor's emitted events go.
	SetEventSink(sink Sink)
}

// CVGateBinder is implemented by processors that support outbound CV
// (from a parameter) and gate (from note activity) routing (§4.5).
type CVGateBinder interface {
	ConnectCVFromParameter(paramID uint32, cvIndex int32)
	ConnectGateFromProcessor(gateIndex int32, channel uint8, note uint8)
}
