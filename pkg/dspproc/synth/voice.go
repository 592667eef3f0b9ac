// Package synth implements a small polyphonic synthesizer processor: an
// oscillator-per-voice, an ADSR amplitude envelope, and a shared
// state-variable filter, driven through pkg/dspproc/voice's allocator
// the way the teacher wired its example plugin's voices.
package synth

import (
	"github.com/dspforge/rtengine/pkg/dsp/envelope"
	"github.com/dspforge/rtengine/pkg/dsp/oscillator"
	"github.com/dspforge/rtengine/pkg/midi"
)

// Waveform selects the oscillator's output shape.
type Waveform int

const (
	WaveSine Waveform = iota
	WaveSaw
	WaveSquare
)

// synthVoice is the concrete voice.Voice implementation backing each
// note of the allocator.
type synthVoice struct {
	osc   *oscillator.Oscillator
	env   *envelope.ADSR
	wave  Waveform
	note  uint8
	vel   uint8
	age   int64
	tuningA4 float64
}

func newSynthVoice(sampleRate float64) *synthVoice {
	return &synthVoice{
		osc:      oscillator.New(sampleRate),
		env:      envelope.New(sampleRate),
		tuningA4: 440.0,
	}
}

func (v *synthVoice) IsActive() bool        { return v.env.IsActive() }
func (v *synthVoice) GetNote() uint8        { return v.note }
func (v *synthVoice) GetVelocity() uint8    { return v.vel }
func (v *synthVoice) GetAmplitude() float64 { return v.envValue() }
func (v *synthVoice) GetAge() int64         { return v.age }

func (v *synthVoice) envValue() float64 {
	// ADSR exposes its value only through Next/Process; sample the
	// stage instead, which is all the stealing heuristics need.
	if v.env.GetStage() == envelope.StageIdle {
		return 0
	}
	return 1
}

func (v *synthVoice) TriggerNote(note uint8, velocity uint8) {
	v.note = note
	v.vel = velocity
	v.age = 0
	v.osc.SetFrequency(midi.NoteToFrequency(note, v.tuningA4))
	v.osc.SetPhase(0)
	v.env.Trigger()
}

func (v *synthVoice) ReleaseNote() {
	v.env.Release()
}

func (v *synthVoice) Stop() {
	v.env.Reset()
}

func (v *synthVoice) Process(output []float32) {
	if !v.env.IsActive() {
		for i := range output {
			output[i] = 0
		}
		return
	}
	gain := float32(v.vel) / 127.0
	for i := range output {
		var s float32
		switch v.wave {
		case WaveSaw:
			s = v.osc.Saw()
		case WaveSquare:
			s = v.osc.Square()
		default:
			s = v.osc.Sine()
		}
		output[i] = s * v.env.Next() * gain
	}
	v.age += int64(len(output))
}
