package processor

import (
	"github.com/dspforge/rtengine/pkg/param"
	"github.com/dspforge/rtengine/pkg/rtevent"
)

// cvBinding maps an outbound CV index to the parameter it mirrors.
type cvBinding struct {
	cvIndex int32
	paramID uint32
}

// gateBinding maps an outbound gate index to a (channel, note) that
// triggers it.
type gateBinding struct {
	gateIndex int32
	channel   uint8
	note      uint8
}

// Base provides the bookkeeping shared by every concrete processor:
// identity, sample rate, enabled flag, parameter registry, event sink,
// and outbound CV/gate binding tables. Concrete processors embed Base
// and implement ProcessAudio/ProcessEvent themselves, the way the
// teacher's BaseProcessor let plugin authors embed common plumbing and
// only supply a process function (pkg/framework/plugin.BaseProcessor).
type Base struct {
	info       Info
	sampleRate float64
	enabled    bool
	params     *param.Registry
	sink       Sink

	cvBindings   []cvBinding
	gateBindings []gateBinding

	onConfigure func(sampleRate float64) error
	onInit      func(sampleRate float64) InitResult
}

// NewBase creates a Base with the given identity. Processors are
// enabled by default.
func NewBase(info Info) *Base {
	return &Base{
		info:    info,
		enabled: true,
		params:  param.NewRegistry(),
	}
}

// Info implements Processor.
func (b *Base) Info() Info { return b.info }

// SetInfo updates the identity (used once, when the registry assigns an id).
func (b *Base) SetInfo(info Info) { b.info = info }

// SampleRate returns the configured sample rate.
func (b *Base) SampleRate() float64 { return b.sampleRate }

// OnConfigure installs a hook run by Configure.
func (b *Base) OnConfigure(fn func(sampleRate float64) error) { b.onConfigure = fn }

// OnInit installs a hook run by Init.
func (b *Base) OnInit(fn func(sampleRate float64) InitResult) { b.onInit = fn }

// Configure implements Processor.
func (b *Base) Configure(sampleRate float64) error {
	b.sampleRate = sampleRate
	if b.onConfigure != nil {
		return b.onConfigure(sampleRate)
	}
	return nil
}

// Init implements Processor.
func (b *Base) Init(sampleRate float64) InitResult {
	b.sampleRate = sampleRate
	if b.onInit != nil {
		return b.onInit(sampleRate)
	}
	return InitOK
}

// SetEnabled implements Processor.
func (b *Base) SetEnabled(enabled bool) { b.enabled = enabled }

// Enabled implements Processor.
func (b *Base) Enabled() bool { return b.enabled }

// Parameters implements Processor.
func (b *Base) Parameters() *param.Registry { return b.params }

// SetEventSink implements Processor.
func (b *Base) SetEventSink(sink Sink) { b.sink = sink }

// Emit pushes an event to the installed sink, if any. Concrete
// processors call this from ProcessEvent/ProcessAudio to report notes,
// CV, and async-work completions.
func (b *Base) Emit(ev rtevent.Event) {
	if b.sink != nil {
		b.sink.Emit(ev)
	}
}

// ConnectCVFromParameter implements CVGateBinder: subsequent calls to
// NotifyParamChanged for paramID also emit a CV event on cvIndex.
func (b *Base) ConnectCVFromParameter(paramID uint32, cvIndex int32) {
	b.cvBindings = append(b.cvBindings, cvBinding{cvIndex: cvIndex, paramID: paramID})
}

// ConnectGateFromProcessor implements CVGateBinder: subsequent calls to
// NotifyNote for (channel, note) also emit a gate transition on
// gateIndex.
func (b *Base) ConnectGateFromProcessor(gateIndex int32, channel uint8, note uint8) {
	b.gateBindings = append(b.gateBindings, gateBinding{gateIndex: gateIndex, channel: channel, note: note})
}

// NotifyParamChanged emits a CV event for every binding registered
// against paramID. Concrete processors call this after applying a
// parameter-change RT event.
func (b *Base) NotifyParamChanged(paramID uint32, normalizedValue float64) {
	if b.sink == nil {
		return
	}
	for _, bind := range b.cvBindings {
		if bind.paramID == paramID {
			b.sink.Emit(rtevent.Event{
				Kind:      rtevent.KindCV,
				CVIndex:   bind.cvIndex,
				CVValue:   normalizedValue,
				ProcessorID: b.info.ID,
			})
		}
	}
}

// NotifyNote emits a gate transition for every binding registered
// against (channel, note). on reports whether this is a note-on (true)
// or note-off (false) transition.
func (b *Base) NotifyNote(channel, note uint8, on bool) {
	if b.sink == nil {
		return
	}
	for _, bind := range b.gateBindings {
		if bind.channel == channel && bind.note == note {
			b.sink.Emit(rtevent.Event{
				Kind:        rtevent.KindGate,
				GateIndex:   bind.gateIndex,
				GateState:   on,
				ProcessorID: b.info.ID,
			})
		}
	}
}
