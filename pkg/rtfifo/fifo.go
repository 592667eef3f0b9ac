// Package rtfifo implements the bounded single-producer/single-consumer
// queue that carries rtevent.Event values across the real-time boundary.
//
// Push never blocks and fails when full; Pop is wait-free and fails when
// empty. Indexing follows the same atomic load/compare-and-swap/store
// discipline as the teacher's write-ahead ring buffer
// (pkg/dsp/buffer.WriteAheadBuffer), adapted from a sample ring to a
// fixed-size event ring with no enforced write-ahead latency: the FIFO's
// contract is "never block", not "absorb jitter", so there is no
// maintainDelay step here.
package rtfifo

import (
	"sync/atomic"

	"github.com/dspforge/rtengine/pkg/rtevent"
)

// FIFO is a bounded SPSC ring buffer of rtevent.Event.
type FIFO struct {
	buf  []rtevent.Event
	mask uint64

	writePos uint64
	readPos  uint64

	dropped atomic.Uint64
}

// New creates a FIFO with capacity rounded up to the next power of two.
func New(capacity int) *FIFO {
	if capacity < 1 {
		capacity = 1
	}
	size := nextPowerOf2(uint64(capacity))
	return &FIFO{
		buf:  make([]rtevent.Event, size),
		mask: size - 1,
	}
}

// Push enqueues an event. It never blocks and returns false if the FIFO
// is full (the caller's event is dropped; Dropped() reports the count).
func (f *FIFO) Push(ev rtevent.Event) bool {
	writePos := atomic.LoadUint64(&f.writePos)
	readPos := atomic.LoadUint64(&f.readPos)

	if writePos-readPos >= uint64(len(f.buf)) {
		f.dropped.Add(1)
		return false
	}

	f.buf[writePos&f.mask] = ev
	atomic.StoreUint64(&f.writePos, writePos+1)
	return true
}

// Pop dequeues the oldest event. It is wait-free and returns false if the
// FIFO is empty.
func (f *FIFO) Pop() (rtevent.Event, bool) {
	readPos := atomic.LoadUint64(&f.readPos)
	writePos := atomic.LoadUint64(&f.writePos)

	if readPos >= writePos {
		return rtevent.Event{}, false
	}

	ev := f.buf[readPos&f.mask]
	atomic.StoreUint64(&f.readPos, readPos+1)
	return ev, true
}

// Len reports the number of events currently queued. It is advisory —
// useful for metrics, not for correctness decisions on the RT path.
func (f *FIFO) Len() int {
	writePos := atomic.LoadUint64(&f.writePos)
	readPos := atomic.LoadUint64(&f.readPos)
	return int(writePos - readPos)
}

// Dropped reports how many Push calls failed because the FIFO was full.
func (f *FIFO) Dropped() uint64 {
	return f.dropped.Load()
}

func nextPowerOf2(n uint64) uint64 {
	if n == 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	n++
	return n
}
