package control

import (
	"fmt"
	"testing"

	"github.com/dspforge/rtengine/pkg/engine"
	"pgregory.net/rapid"
)

// TestProcessorAndParameterNameIDRoundTripProperty checks the §8
// name<->id round-trip law across an arbitrary number of distinctly
// named processors on one track, grounded on the pack's use of
// pgregory.net/rapid for round-trip properties (mirrored from
// pkg/audio's interleave/deinterleave property test).
func TestProcessorAndParameterNameIDRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		e := engine.New(testConfig())
		e.Start()
		stop := startDriver(e)
		defer stop()
		s := New(e)

		trackID, err := s.CreateTrack("main", 1)
		if err != nil {
			rt.Fatalf("CreateTrack: %v", err)
		}

		n := rapid.IntRange(1, 6).Draw(rt, "processorCount")
		names := make([]string, n)
		for i := 0; i < n; i++ {
			names[i] = fmt.Sprintf("gain-%d", i)
		}

		for _, name := range names {
			if _, err := s.AddPluginToTrack(trackID, "dspforge.gain", name, "", PluginInternal); err != nil {
				rt.Fatalf("AddPluginToTrack(%q): %v", name, err)
			}
		}

		for _, name := range names {
			id, err := s.ProcessorIDFromName(name)
			if err != nil {
				rt.Fatalf("ProcessorIDFromName(%q): %v", name, err)
			}
			gotName, err := s.ProcessorNameFromID(id)
			if err != nil {
				rt.Fatalf("ProcessorNameFromID(%d): %v", id, err)
			}
			if gotName != name {
				rt.Fatalf("processor round-trip: want %q got %q", name, gotName)
			}

			paramID, err := s.ParameterIDFromName(name, "gain")
			if err != nil {
				rt.Fatalf("ParameterIDFromName(%q): %v", name, err)
			}
			gotParam, err := s.ParameterNameFromID(name, paramID)
			if err != nil {
				rt.Fatalf("ParameterNameFromID(%q, %d): %v", name, paramID, err)
			}
			if gotParam != "gain" {
				rt.Fatalf("parameter round-trip: want \"gain\" got %q", gotParam)
			}
		}
	})
}
