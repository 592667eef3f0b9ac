package synth

import (
	"github.com/dspforge/rtengine/pkg/audio"
	"github.com/dspforge/rtengine/pkg/dsp/filter"
	"github.com/dspforge/rtengine/pkg/dspproc/voice"
	"github.com/dspforge/rtengine/pkg/midi"
	"github.com/dspforge/rtengine/pkg/param"
	"github.com/dspforge/rtengine/pkg/processor"
	"github.com/dspforge/rtengine/pkg/rtevent"
)

const (
	ParamCutoff     = 1
	ParamResonance  = 2
	ParamWaveform   = 3
	ParamVoiceCount = 8
)

// Processor is a polyphonic synthesizer: incoming note-on/note-off
// events are handed to a voice.Allocator, each active voice renders
// through its own oscillator and envelope, and the mixed result passes
// through a shared state-variable lowpass filter.
type Processor struct {
	*processor.Base

	voices    []*synthVoice
	allocator *voice.Allocator
	filter    *filter.MultiModeSVF
	mixBuf    []float32
}

// New creates a polyphonic synth processor with the given voice count.
func New(id uint32, name string, numVoices int) *Processor {
	p := &Processor{}
	p.Base = processor.NewBase(processor.Info{ID: id, Name: name, InputChannels: 0, OutputChannels: 1})

	p.Base.OnConfigure(func(sampleRate float64) error {
		p.voices = make([]*synthVoice, numVoices)
		voiceIfaces := make([]voice.Voice, numVoices)
		for i := range p.voices {
			p.voices[i] = newSynthVoice(sampleRate)
			voiceIfaces[i] = p.voices[i]
		}
		p.allocator = voice.NewAllocator(voiceIfaces)
		p.filter = filter.NewMultiModeSVF(1)
		p.filter.SetMode(0) // lowpass
		return nil
	})

	p.Parameters().Add(param.New(ParamCutoff, "cutoff").
		Range(20, 20000).Default(8000).Unit("Hz").Build())
	p.Parameters().Add(param.New(ParamResonance, "resonance").
		Range(0.5, 10).Default(0.707).Build())
	p.Parameters().Add(param.New(ParamWaveform, "waveform").
		Range(0, 2).Default(0).Steps(2).Build())

	return p
}

// ProcessAudio renders every active voice into out's first channel,
// summing and filtering as it goes. Synths are sources: any input is
// ignored.
func (p *Processor) ProcessAudio(in, out audio.View) {
	if out.NumChannels() == 0 {
		return
	}
	dst := out.Channel(0)
	if len(p.mixBuf) != len(dst) {
		p.mixBuf = make([]float32, len(dst))
	}
	for i := range dst {
		dst[i] = 0
	}
	for _, v := range p.voices {
		if !v.IsActive() {
			continue
		}
		v.Process(p.mixBuf)
		for i, s := range p.mixBuf {
			dst[i] += s
		}
	}

	cutoff := p.Parameters().Get(ParamCutoff).GetPlainValue()
	q := p.Parameters().Get(ParamResonance).GetPlainValue()
	p.filter.SetFrequencyAndQ(p.SampleRate(), cutoff, q)
	p.filter.Process(dst, 0)
}

// ProcessEvent handles note-on/off and parameter changes, translating
// rtevent's tagged union into the midi.Event shape the allocator
// expects.
func (p *Processor) ProcessEvent(ev rtevent.Event) {
	switch ev.Kind {
	case rtevent.KindNoteOn:
		p.allocator.ProcessEvent(midi.NoteOnEvent{
			BaseEvent:  midi.BaseEvent{EventChannel: ev.Channel, Offset: ev.SampleOffset},
			NoteNumber: ev.Note,
			Velocity:   ev.Velocity,
		})
		p.NotifyNote(ev.Channel, ev.Note, true)
	case rtevent.KindNoteOff:
		p.allocator.ProcessEvent(midi.NoteOffEvent{
			BaseEvent:  midi.BaseEvent{EventChannel: ev.Channel, Offset: ev.SampleOffset},
			NoteNumber: ev.Note,
			Velocity:   ev.Velocity,
		})
		p.NotifyNote(ev.Channel, ev.Note, false)
	case rtevent.KindParamFloat:
		prm := p.Parameters().Get(ev.ParamID)
		if prm == nil {
			return
		}
		prm.SetValue(ev.FloatValue)
		if ev.ParamID == ParamWaveform {
			wave := Waveform(prm.GetPlainValue() + 0.5)
			for _, v := range p.voices {
				v.wave = wave
			}
		}
		p.NotifyParamChanged(ev.ParamID, ev.FloatValue)
	}
}

// ActiveVoiceCount reports how many voices are currently sounding, for
// diagnostics.
func (p *Processor) ActiveVoiceCount() int {
	return p.allocator.GetActiveVoiceCount()
}
