// Package fx implements a fixed-order multi-stage effects processor —
// compressor, waveshaper, chorus, reverb — built directly on
// pkg/dsp/dynamics, pkg/dsp/distortion, pkg/dsp/modulation, and
// pkg/dsp/reverb, the way pkg/dspproc/gain and pkg/dspproc/delay each
// wrap one pkg/dsp leaf. Stereo in, stereo out; mono input is processed
// on channel 0 only.
package fx

import (
	"github.com/dspforge/rtengine/pkg/audio"
	"github.com/dspforge/rtengine/pkg/dsp/distortion"
	"github.com/dspforge/rtengine/pkg/dsp/dynamics"
	"github.com/dspforge/rtengine/pkg/dsp/modulation"
	"github.com/dspforge/rtengine/pkg/dsp/reverb"
	"github.com/dspforge/rtengine/pkg/param"
	"github.com/dspforge/rtengine/pkg/processor"
	"github.com/dspforge/rtengine/pkg/rtevent"
)

const (
	ParamCompThreshold = 1
	ParamCompRatio     = 2
	ParamDriveMix      = 3
	ParamChorusMix     = 4
	ParamReverbMix     = 5
)

// Processor chains a compressor, a waveshaper, a chorus, and a Freeverb
// reverb in series on each channel.
type Processor struct {
	*processor.Base

	comp    []*dynamics.Compressor
	shaper  []*distortion.Waveshaper
	chorus  []*modulation.Chorus
	reverb  *reverb.Freeverb
	driveMix float64
}

// New creates an fx processor for numChannels channels (reverb always
// runs in stereo regardless, folding a mono channel onto itself).
func New(id uint32, name string, numChannels int) *Processor {
	p := &Processor{driveMix: 1.0}
	p.Base = processor.NewBase(processor.Info{ID: id, Name: name, InputChannels: int32(numChannels), OutputChannels: int32(numChannels)})
	p.Base.OnConfigure(func(sampleRate float64) error {
		p.comp = make([]*dynamics.Compressor, numChannels)
		p.shaper = make([]*distortion.Waveshaper, numChannels)
		p.chorus = make([]*modulation.Chorus, numChannels)
		for ch := 0; ch < numChannels; ch++ {
			p.comp[ch] = dynamics.NewCompressor(sampleRate)
			p.shaper[ch] = distortion.NewWaveshaper(distortion.CurveSoftClip)
			p.chorus[ch] = modulation.NewChorus(sampleRate)
		}
		p.reverb = reverb.NewFreeverb(sampleRate)
		return nil
	})

	p.Parameters().Add(
		param.New(ParamCompThreshold, "comp_threshold").Range(-60, 0).Default(-20).Unit("dB").Build(),
		param.New(ParamCompRatio, "comp_ratio").Range(1, 20).Default(4).Build(),
		param.New(ParamDriveMix, "drive_mix").Range(0, 1).Default(1).Toggle().Build(),
		param.New(ParamChorusMix, "chorus_mix").Range(0, 1).Default(0.5).Build(),
		param.New(ParamReverbMix, "reverb_mix").Range(0, 1).Default(0.333).Build(),
	)
	return p
}

// ProcessAudio runs every channel through compressor, waveshaper, and
// chorus independently, then sums the post-chorus signal into a single
// stereo pair fed through the shared reverb tail.
func (p *Processor) ProcessAudio(in, out audio.View) {
	n := in.NumChannels()
	if out.NumChannels() < n {
		n = out.NumChannels()
	}
	if n > len(p.comp) {
		n = len(p.comp)
	}

	var revL, revR float32
	for ch := 0; ch < n; ch++ {
		src := in.Channel(ch)
		dst := out.Channel(ch)
		comp := p.comp[ch]
		shaper := p.shaper[ch]
		chorus := p.chorus[ch]
		for i, s := range src {
			compressed := comp.Process(s)
			shaped := float32(shaper.Process(float64(compressed)))
			wetL, wetR := chorus.Process(shaped)
			dst[i] = wetL
			if ch == 0 {
				revL, revR = wetL, wetR
			}
		}
		if ch == 0 {
			p.applyReverbTail(dst, revR)
		}
	}
}

// applyReverbTail runs the reverb's shared stereo field over channel 0,
// folding the chorus's right-channel estimate in as the wet input.
func (p *Processor) applyReverbTail(dst []float32, wetR float32) {
	for i := range dst {
		l, _ := p.reverb.ProcessStereo(dst[i], wetR)
		dst[i] = l
	}
}

// ProcessEvent applies a parameter change to the relevant DSP stage.
func (p *Processor) ProcessEvent(ev rtevent.Event) {
	if ev.Kind != rtevent.KindParamFloat {
		return
	}
	prm := p.Parameters().Get(ev.ParamID)
	if prm == nil {
		return
	}
	prm.SetValue(ev.FloatValue)
	plain := prm.GetPlainValue()

	switch ev.ParamID {
	case ParamCompThreshold:
		for _, c := range p.comp {
			c.SetThreshold(plain)
		}
	case ParamCompRatio:
		for _, c := range p.comp {
			c.SetRatio(plain)
		}
	case ParamDriveMix:
		p.driveMix = plain
		for _, s := range p.shaper {
			s.SetMix(plain)
		}
	case ParamChorusMix:
		for _, c := range p.chorus {
			c.SetMix(plain)
		}
	case ParamReverbMix:
		p.reverb.SetWetLevel(plain)
	}
}
