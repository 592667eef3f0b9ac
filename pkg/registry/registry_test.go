package registry

import (
	"testing"

	"github.com/dspforge/rtengine/pkg/audio"
	"github.com/dspforge/rtengine/pkg/processor"
	"github.com/dspforge/rtengine/pkg/rtevent"
	"github.com/stretchr/testify/require"
)

type stubProcessor struct {
	*processor.Base
}

func newStub(id uint32, name string) *stubProcessor {
	return &stubProcessor{Base: processor.NewBase(processor.Info{ID: id, Name: name})}
}

func (s *stubProcessor) ProcessAudio(in, out audio.View)   {}
func (s *stubProcessor) ProcessEvent(ev rtevent.Event)     {}

func TestRegisterAssignsMonotonicIDs(t *testing.T) {
	r := New(16)
	p1 := newStub(0, "a")
	p2 := newStub(0, "b")

	id1, err := r.Register(p1, "a")
	require.NoError(t, err)
	id2, err := r.Register(p2, "b")
	require.NoError(t, err)
	require.NotEqual(t, id1, id2)
}

func TestRegisterRejectsEmptyName(t *testing.T) {
	r := New(16)
	_, err := r.Register(newStub(0, ""), "")
	require.Error(t, err)
}

func TestRegisterRejectsDuplicateName(t *testing.T) {
	r := New(16)
	_, err := r.Register(newStub(0, "a"), "a")
	require.NoError(t, err)
	_, err = r.Register(newStub(0, "a"), "a")
	require.Error(t, err)
}

func TestDeregisterRemovesFromNameMap(t *testing.T) {
	r := New(16)
	r.Register(newStub(0, "a"), "a")
	r.Deregister("a")
	_, ok := r.ByName("a")
	require.False(t, ok)
}

func TestIDFromNameRoundTrip(t *testing.T) {
	r := New(16)
	p := newStub(0, "a")
	id, err := r.Register(p, "a")
	require.NoError(t, err)
	p.SetInfo(processor.Info{ID: id, Name: "a"})

	gotID, ok := r.IDFromName("a")
	require.True(t, ok)
	require.Equal(t, id, gotID)

	gotName, ok := r.NameOf(id)
	require.True(t, ok)
	require.Equal(t, "a", gotName)
}

func TestInstallRTGrowsDenseArray(t *testing.T) {
	r := New(2)
	p := newStub(5, "a")
	r.InstallRT(p)
	require.Equal(t, p, r.RTLookup(5))
	require.Nil(t, r.RTLookup(4))
	require.Nil(t, r.RTLookup(100))
}

func TestUninstallRTClearsSlot(t *testing.T) {
	r := New(2)
	p := newStub(1, "a")
	r.InstallRT(p)
	r.UninstallRT(1)
	require.Nil(t, r.RTLookup(1))
}
