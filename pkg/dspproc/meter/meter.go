// Package meter implements a pass-through metering processor: it
// forwards audio unchanged while feeding pkg/dsp/analysis's peak, RMS,
// correlation, and spectrum meters, exposing their readings as
// read-only parameters the control surface can poll.
package meter

import (
	"github.com/dspforge/rtengine/pkg/audio"
	"github.com/dspforge/rtengine/pkg/dsp/analysis"
	"github.com/dspforge/rtengine/pkg/param"
	"github.com/dspforge/rtengine/pkg/processor"
	"github.com/dspforge/rtengine/pkg/rtevent"
)

const (
	ParamPeakDB        = 1
	ParamRMSDB         = 2
	ParamCorrelation   = 3
	ParamPeakFrequency = 4
)

const fftSize = 1024

// Processor forwards audio unmodified and maintains running peak/RMS,
// stereo correlation, and spectral-peak readings.
type Processor struct {
	*processor.Base

	peak   *analysis.PeakMeter
	rms    *analysis.RMSMeter
	corr   *analysis.CorrelationMeter
	spec   *analysis.SpectrumAnalyzer

	scratchL []float64
	scratchR []float64
}

// New creates a metering processor for the given channel count.
func New(id uint32, name string, numChannels int) *Processor {
	p := &Processor{}
	p.Base = processor.NewBase(processor.Info{ID: id, Name: name, InputChannels: int32(numChannels), OutputChannels: int32(numChannels)})

	p.Base.OnConfigure(func(sampleRate float64) error {
		p.peak = analysis.NewPeakMeter(sampleRate)
		p.rms = analysis.NewRMSMeter(int(sampleRate / 10)) // 100ms window
		if numChannels >= 2 {
			p.corr = analysis.NewCorrelationMeter(int(sampleRate/10), sampleRate)
		}
		p.spec = analysis.NewSpectrumAnalyzer(fftSize, sampleRate, analysis.HannWindow)
		return nil
	})

	p.Parameters().Add(param.New(ParamPeakDB, "peak_db").ReadOnly().Range(-120, 12).Build())
	p.Parameters().Add(param.New(ParamRMSDB, "rms_db").ReadOnly().Range(-120, 12).Build())
	p.Parameters().Add(param.New(ParamCorrelation, "correlation").ReadOnly().Range(-1, 1).Build())
	p.Parameters().Add(param.New(ParamPeakFrequency, "peak_frequency").ReadOnly().Range(0, 20000).Build())

	return p
}

// ProcessAudio copies in to out and updates the running meters from
// the mono-summed signal (and the stereo pair, when present).
func (p *Processor) ProcessAudio(in, out audio.View) {
	n := in.NumChannels()
	if on := out.NumChannels(); on < n {
		n = on
	}
	for ch := 0; ch < n; ch++ {
		copy(out.Channel(ch), in.Channel(ch))
	}
	if n == 0 {
		return
	}

	mono := in.Channel(0)
	if len(p.scratchL) != len(mono) {
		p.scratchL = make([]float64, len(mono))
	}
	for i, s := range mono {
		p.scratchL[i] = float64(s)
	}
	p.peak.Process(p.scratchL)
	p.rms.Process(p.scratchL)
	if p.spec.Process(p.scratchL) {
		freq, _ := p.spec.GetPeakFrequency()
		p.Parameters().Get(ParamPeakFrequency).SetPlainValue(freq)
	}

	if p.corr != nil && n >= 2 {
		right := in.Channel(1)
		if len(p.scratchR) != len(right) {
			p.scratchR = make([]float64, len(right))
		}
		for i, s := range right {
			p.scratchR[i] = float64(s)
		}
		p.corr.Process(p.scratchL, p.scratchR)
		p.Parameters().Get(ParamCorrelation).SetPlainValue(p.corr.GetCorrelation())
	}

	p.Parameters().Get(ParamPeakDB).SetPlainValue(p.peak.GetPeakDB())
	p.Parameters().Get(ParamRMSDB).SetPlainValue(p.rms.GetRMSDB())
}

// ProcessEvent is a no-op; this processor's parameters are read-only
// reports, never control inputs.
func (p *Processor) ProcessEvent(ev rtevent.Event) {}
