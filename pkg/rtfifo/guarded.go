package rtfifo

import (
	"sync"

	"github.com/dspforge/rtengine/pkg/rtevent"
)

// GuardedProducer wraps a FIFO whose producer side is shared by multiple
// non-RT client threads (the engine's internal_control queue, per the
// engine's concurrency model: client threads may block briefly on this
// mutex, the audio thread consuming the other side never does).
type GuardedProducer struct {
	fifo *FIFO
	mu   sync.Mutex
}

// NewGuardedProducer wraps fifo for multi-producer, single-consumer use.
func NewGuardedProducer(fifo *FIFO) *GuardedProducer {
	return &GuardedProducer{fifo: fifo}
}

// Push serializes concurrent producers; a single client thread's pushes
// are observed by the consumer in submission order.
func (g *GuardedProducer) Push(ev rtevent.Event) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fifo.Push(ev)
}

// Pop is forwarded directly — only the audio thread calls this.
func (g *GuardedProducer) Pop() (rtevent.Event, bool) {
	return g.fifo.Pop()
}

// Dropped forwards the underlying FIFO's drop counter.
func (g *GuardedProducer) Dropped() uint64 {
	return g.fifo.Dropped()
}
