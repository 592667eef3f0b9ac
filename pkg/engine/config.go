// Package engine implements the per-block audio driver (§4.8), the
// topology mutation protocol, CV/gate routing (§4.9), and the engine
// state machine (§4.10), tying together rtfifo, transport, clip,
// registry, and track into one running audio graph.
package engine

import "time"

// Config carries the fixed, construction-time parameters of an Engine.
// Per the spec's non-goals, block size and channel counts never change
// once the engine is built.
type Config struct {
	SampleRate        float64
	BlockSize         int
	NumInputChannels  int
	NumOutputChannels int

	// ProcessorCeiling pre-sizes the RT processor dense array (§9 "Arena
	// + index") so the audio thread never observes a growing slice.
	ProcessorCeiling int

	// FIFOCapacity sizes every RT FIFO (main_in, main_out, control_out).
	// Rounded up to a power of two by rtfifo.New.
	FIFOCapacity int

	// TopologyTimeout bounds how long a topology call blocks waiting for
	// the audio thread's acknowledgement (§4.8 step-by-step protocol).
	TopologyTimeout time.Duration

	// DiagQueueCapacity sizes the audio thread's non-blocking diagnostic
	// queue (§4.11).
	DiagQueueCapacity int
}

// DefaultConfig returns reasonable defaults for a 48kHz/64-sample host.
func DefaultConfig() Config {
	return Config{
		SampleRate:        48000,
		BlockSize:         64,
		NumInputChannels:  2,
		NumOutputChannels: 2,
		ProcessorCeiling:  256,
		FIFOCapacity:      256,
		TopologyTimeout:   200 * time.Millisecond,
		DiagQueueCapacity: 256,
	}
}
