package clip

import (
	"testing"

	"github.com/dspforge/rtengine/pkg/rtevent"
	"github.com/stretchr/testify/require"
)

func TestDetectEmitsOncePerIntervalScenario6(t *testing.T) {
	// Scenario 6: drive channel 0 to 1.5 for two consecutive blocks at
	// 48kHz → exactly one clip notification for channel 0 direction=INPUT
	// within the first 500ms window.
	const sampleRate = 48000.0
	const blockSize = 64
	d := New(rtevent.DirectionInput, 2, IntervalForSampleRate(sampleRate), blockSize)

	loud := make([]float32, blockSize)
	for i := range loud {
		loud[i] = 1.5
	}
	quiet := make([]float32, blockSize)

	var events []rtevent.Event
	events = d.Detect([][]float32{loud, quiet}, events)
	events = d.Detect([][]float32{loud, quiet}, events)

	require.Len(t, events, 1)
	require.Equal(t, int32(0), events[0].ClipChannel)
	require.Equal(t, rtevent.DirectionInput, events[0].ClipDirection)
}

func TestDetectRearmsAfterInterval(t *testing.T) {
	d := New(rtevent.DirectionOutput, 1, 128, 64)
	loud := []float32{2.0}

	var events []rtevent.Event
	events = d.Detect([][]float32{loud}, events)
	require.Len(t, events, 1)

	// counter = 128, decrements by 64 each block; still armed after 1 block
	events = d.Detect([][]float32{loud}, events)
	require.Len(t, events, 1)

	// after 2 blocks total (128 samples) counter reaches 0, rearmed
	events = d.Detect([][]float32{loud}, events)
	require.Len(t, events, 2)
}

func TestDetectNoFalsePositiveAtUnity(t *testing.T) {
	d := New(rtevent.DirectionInput, 1, 100, 64)
	atUnity := []float32{1.0, -1.0}
	events := d.Detect([][]float32{atUnity}, nil)
	require.Empty(t, events)
}
