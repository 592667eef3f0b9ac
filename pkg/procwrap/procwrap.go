// Package procwrap adapts a native VST2/VST3/LV2 plugin handle to the
// engine's processor.Processor contract. The actual dlopen/cgo loading
// and wire-format marshaling for each protocol is an out-of-tree
// concern (§1 Non-goals): every wrapper here is a thin shim over a
// NativePlugin capability interface, the way the teacher's own
// plugin.Processor interface (pkg/plugin/plugin.go) separates the
// framework's process loop from a concrete plugin's DSP.
package procwrap

import (
	"errors"

	"github.com/dspforge/rtengine/pkg/audio"
	"github.com/dspforge/rtengine/pkg/param"
	"github.com/dspforge/rtengine/pkg/processor"
	"github.com/dspforge/rtengine/pkg/rtevent"
)

// ErrNotLoaded is returned by a wrapper method called before a
// NativePlugin has been attached.
var ErrNotLoaded = errors.New("procwrap: native plugin not loaded")

// NativePlugin is the capability surface an out-of-tree loader supplies
// for one concrete wire protocol (VST2, VST3, or LV2). Everything this
// package does is expressed purely in terms of this interface; it never
// assumes anything about the protocol's on-wire encoding.
type NativePlugin interface {
	// Configure prepares the native plugin for the given sample rate
	// and maximum block size.
	Configure(sampleRate float64, maxBlockSize int) error

	// Describe returns the plugin's declared parameters, translated
	// into this engine's Parameter model.
	Describe() []*param.Parameter

	// ProcessAudio runs one block through the native plugin's DSP.
	ProcessAudio(in, out audio.View)

	// ProcessEvent forwards a single RT event (note, parameter change)
	// to the native plugin.
	ProcessEvent(ev rtevent.Event)

	// Latency reports the native plugin's reported processing latency,
	// in samples.
	Latency() int32

	// Close releases any native resources. Called once, off the audio
	// thread, when the wrapping processor is torn down.
	Close() error
}

// Protocol identifies which wire format a wrapper was built for. It is
// metadata only; every wrapper delegates identically to NativePlugin.
type Protocol uint8

const (
	ProtocolVST2 Protocol = iota
	ProtocolVST3
	ProtocolLV2
)

func (p Protocol) String() string {
	switch p {
	case ProtocolVST2:
		return "vst2"
	case ProtocolVST3:
		return "vst3"
	case ProtocolLV2:
		return "lv2"
	default:
		return "unknown"
	}
}

// Wrapper satisfies processor.Processor by delegating every call to an
// attached NativePlugin. A Wrapper with no NativePlugin attached behaves
// as a silent passthrough-less no-op (ProcessAudio zeroes its output)
// rather than panicking, so a track holding an unloaded wrapper is still
// safe to render.
type Wrapper struct {
	*processor.Base

	protocol Protocol
	native   NativePlugin

	// NativePath is the on-disk path an out-of-tree loader should dlopen
	// to produce the NativePlugin this wrapper attaches to. Metadata
	// only; this package never reads the file itself.
	NativePath string
}

// New creates a wrapper for the given protocol. Attach installs the
// actual NativePlugin once the out-of-tree loader has produced one.
func New(id uint32, name string, protocol Protocol) *Wrapper {
	w := &Wrapper{protocol: protocol}
	w.Base = processor.NewBase(processor.Info{ID: id, Name: name, InputChannels: -1, OutputChannels: -1})
	w.Base.OnConfigure(func(sampleRate float64) error {
		if w.native == nil {
			return nil
		}
		return w.native.Configure(sampleRate, 0)
	})
	return w
}

// Protocol reports which wire format this wrapper was built for.
func (w *Wrapper) Protocol() Protocol { return w.protocol }

// Attach installs the native plugin handle and imports its declared
// parameters into this processor's registry. Must be called before the
// processor is installed on the engine (§4.8 topology protocol runs
// this on the control thread, never the audio thread).
func (w *Wrapper) Attach(native NativePlugin) error {
	if native == nil {
		return ErrNotLoaded
	}
	w.native = native
	for _, p := range native.Describe() {
		if err := w.Parameters().Add(p); err != nil {
			return err
		}
	}
	if w.SampleRate() > 0 {
		return native.Configure(w.SampleRate(), 0)
	}
	return nil
}

// Detach releases the native plugin, closing it first.
func (w *Wrapper) Detach() error {
	if w.native == nil {
		return nil
	}
	err := w.native.Close()
	w.native = nil
	return err
}

// ProcessAudio delegates to the native plugin, or zeroes out when none
// is attached.
func (w *Wrapper) ProcessAudio(in, out audio.View) {
	if w.native == nil {
		for ch := 0; ch < out.NumChannels(); ch++ {
			dst := out.Channel(ch)
			for i := range dst {
				dst[i] = 0
			}
		}
		return
	}
	w.native.ProcessAudio(in, out)
}

// ProcessEvent delegates to the native plugin; a no-op when unattached.
func (w *Wrapper) ProcessEvent(ev rtevent.Event) {
	if w.native == nil {
		return
	}
	w.native.ProcessEvent(ev)
}

// LatencySamples reports the native plugin's reported latency, or 0
// when unattached.
func (w *Wrapper) LatencySamples() int32 {
	if w.native == nil {
		return 0
	}
	return w.native.Latency()
}
