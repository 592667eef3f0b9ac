package rtfifo

import (
	"testing"

	"github.com/dspforge/rtengine/pkg/rtevent"
	"github.com/stretchr/testify/require"
)

func TestPushPopOrder(t *testing.T) {
	f := New(4)
	for i := uint32(0); i < 4; i++ {
		require.True(t, f.Push(rtevent.Event{ProcessorID: i}))
	}

	for i := uint32(0); i < 4; i++ {
		ev, ok := f.Pop()
		require.True(t, ok)
		require.Equal(t, i, ev.ProcessorID)
	}

	_, ok := f.Pop()
	require.False(t, ok)
}

func TestPushFailsWhenFull(t *testing.T) {
	f := New(2)
	require.True(t, f.Push(rtevent.Event{}))
	require.True(t, f.Push(rtevent.Event{}))
	require.False(t, f.Push(rtevent.Event{}))
	require.Equal(t, uint64(1), f.Dropped())
}

func TestPopFailsWhenEmpty(t *testing.T) {
	f := New(4)
	_, ok := f.Pop()
	require.False(t, ok)
}

func TestCapacityRoundsToPowerOfTwo(t *testing.T) {
	f := New(5)
	require.Equal(t, 8, len(f.buf))
}

func TestGuardedProducerConcurrentPush(t *testing.T) {
	f := New(1024)
	g := NewGuardedProducer(f)

	const perGoroutine = 100
	const goroutines = 4

	done := make(chan struct{})
	for i := 0; i < goroutines; i++ {
		go func(base uint32) {
			for j := uint32(0); j < perGoroutine; j++ {
				for !g.Push(rtevent.Event{ProcessorID: base + j}) {
				}
			}
			done <- struct{}{}
		}(uint32(i * perGoroutine))
	}
	for i := 0; i < goroutines; i++ {
		<-done
	}

	count := 0
	for {
		if _, ok := g.Pop(); !ok {
			break
		}
		count++
	}
	require.Equal(t, perGoroutine*goroutines, count)
}
