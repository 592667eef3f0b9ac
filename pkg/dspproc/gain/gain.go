// Package gain implements a single-parameter gain processor, the
// simplest concrete instance of the processor contract (§4.5) — it
// exists mainly to exercise pkg/dsp/gain and give the engine's unity-gain
// passthrough scenario (§8) something real to drive.
package gain

import (
	"github.com/dspforge/rtengine/pkg/audio"
	dspgain "github.com/dspforge/rtengine/pkg/dsp/gain"
	"github.com/dspforge/rtengine/pkg/param"
	"github.com/dspforge/rtengine/pkg/processor"
	"github.com/dspforge/rtengine/pkg/rtevent"
)

// GainParamID is the id of this processor's sole parameter.
const GainParamID = 1

// Processor applies a single gain-in-dB parameter to every channel.
type Processor struct {
	*processor.Base
	linear float32
}

// New creates a gain processor with a 0dB default (unity, -60..+12 dB range).
func New(id uint32, name string) *Processor {
	p := &Processor{
		Base:   processor.NewBase(processor.Info{ID: id, Name: name, InputChannels: -1, OutputChannels: -1}),
		linear: 1.0,
	}
	gainParam := param.New(GainParamID, "gain").
		Range(-60, 12).
		Default(0).
		Build()
	p.Parameters().Add(gainParam)
	return p
}

// ProcessAudio scales every input channel by the current linear gain.
func (p *Processor) ProcessAudio(in, out audio.View) {
	n := in.NumChannels()
	if on := out.NumChannels(); on < n {
		n = on
	}
	for ch := 0; ch < n; ch++ {
		dspgain.ApplyBufferTo(in.Channel(ch), p.linear, out.Channel(ch))
	}
}

// ProcessEvent applies a parameter-change event targeting the gain
// parameter; any other event is ignored.
func (p *Processor) ProcessEvent(ev rtevent.Event) {
	if ev.Kind != rtevent.KindParamFloat || ev.ParamID != GainParamID {
		return
	}
	gainParam := p.Parameters().Get(GainParamID)
	if gainParam == nil {
		return
	}
	gainParam.SetValue(ev.FloatValue)
	p.linear = float32(dspgain.DbToLinear(gainParam.GetPlainValue()))
	p.NotifyParamChanged(GainParamID, ev.FloatValue)
}
