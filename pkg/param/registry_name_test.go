package param

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNameIDRoundTrip(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add(New(1, "gain").Build(), New(2, "mix").Build()))

	for _, name := range []string{"gain", "mix"} {
		id, ok := r.IDFromName(name)
		require.True(t, ok)
		gotName, ok := r.NameFromID(id)
		require.True(t, ok)
		require.Equal(t, name, gotName)
	}
}

func TestIDFromNameUnknown(t *testing.T) {
	r := NewRegistry()
	_, ok := r.IDFromName("nope")
	require.False(t, ok)
}

func TestSetFromCVAppliesPreprocessor(t *testing.T) {
	p := New(1, "gain").Range(0, 1).Build()
	p.Preprocessor = ClipPreprocessor

	p.SetFromCV(0.5)
	require.InDelta(t, 0.5, p.GetPlainValue(), 1e-9)

	p.SetFromCV(1.5) // clipped to 1.0
	require.InDelta(t, 1.0, p.GetPlainValue(), 1e-9)
}

func TestSetFromCVIdentityWhenNoPreprocessor(t *testing.T) {
	p := New(1, "gain").Range(0, 2).Build()
	p.SetFromCV(0.25)
	require.InDelta(t, 0.5, p.GetPlainValue(), 1e-9)
}
