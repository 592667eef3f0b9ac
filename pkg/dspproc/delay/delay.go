// Package delay implements a simple per-channel delay-line processor,
// built on pkg/dsp/delay.Line. Its delay parameter is expressed in
// seconds but can never resolve to less than one sample of latency —
// the underlying delay line has no zero-latency path (§8 scenario 1).
package delay

import (
	"github.com/dspforge/rtengine/pkg/audio"
	dspdelay "github.com/dspforge/rtengine/pkg/dsp/delay"
	"github.com/dspforge/rtengine/pkg/param"
	"github.com/dspforge/rtengine/pkg/processor"
	"github.com/dspforge/rtengine/pkg/rtevent"
)

// DelayParamID is the id of this processor's sole parameter, in seconds.
const DelayParamID = 1

// MaxDelaySeconds bounds the delay line's allocated buffer.
const MaxDelaySeconds = 2.0

// Processor applies an independent delay line per channel.
//
// Line.Read(n) reads n samples behind the sample most recently written,
// in the same call that advanced the write position — so asking for n
// samples of read-behind yields only n-1 samples of actual latency. To
// guarantee at least one sample of latency we always store delaySamples
// as (requested latency + 1).
type Processor struct {
	*processor.Base
	lines        []*dspdelay.Line
	delaySamples float64
}

// New creates a delay processor for up to numChannels channels.
func New(id uint32, name string, numChannels int) *Processor {
	p := &Processor{}
	p.Base = processor.NewBase(processor.Info{ID: id, Name: name, InputChannels: int32(numChannels), OutputChannels: int32(numChannels)})
	p.Base.OnConfigure(func(sampleRate float64) error {
		p.lines = make([]*dspdelay.Line, numChannels)
		for ch := range p.lines {
			p.lines[ch] = dspdelay.New(MaxDelaySeconds, sampleRate)
		}
		p.delaySamples = 2 // one sample of latency even at the default 0s requested delay
		return nil
	})

	delayParam := param.New(DelayParamID, "delay").
		Range(0, MaxDelaySeconds).
		Default(0).
		Unit("s").
		Build()
	p.Parameters().Add(delayParam)
	return p
}

// ProcessAudio writes each input channel, delayed, into the
// corresponding output channel.
func (p *Processor) ProcessAudio(in, out audio.View) {
	n := len(p.lines)
	if in.NumChannels() < n {
		n = in.NumChannels()
	}
	if out.NumChannels() < n {
		n = out.NumChannels()
	}
	for ch := 0; ch < n; ch++ {
		src := in.Channel(ch)
		dst := out.Channel(ch)
		line := p.lines[ch]
		for i, s := range src {
			line.Write(s)
			dst[i] = line.Read(p.delaySamples)
		}
	}
}

// ProcessEvent applies a parameter change to the delay time, clamped to
// never resolve below one sample (§8 scenario 1).
func (p *Processor) ProcessEvent(ev rtevent.Event) {
	if ev.Kind != rtevent.KindParamFloat || ev.ParamID != DelayParamID {
		return
	}
	delayParam := p.Parameters().Get(DelayParamID)
	if delayParam == nil {
		return
	}
	delayParam.SetValue(ev.FloatValue)
	seconds := delayParam.GetPlainValue()
	requestedLatency := seconds * p.SampleRate()
	p.delaySamples = maxFloat(1, requestedLatency) + 1
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
