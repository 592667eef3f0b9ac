package diag

import (
	"os"
	"sync"

	charmlog "github.com/charmbracelet/log"
)

// defaultLogger is the process-wide structured logger, used by every
// off-thread caller (control API handlers, the driver harness, the
// topology protocol). It is never invoked from ProcessAudio/ProcessEvent
// paths — see Queue below for how the audio thread reports diagnostics.
var defaultLogger = charmlog.NewWithOptions(os.Stderr, charmlog.Options{
	ReportTimestamp: true,
	ReportCaller:    false,
})

// SetLevel adjusts the default logger's verbosity.
func SetLevel(level charmlog.Level) {
	defaultLogger.SetLevel(level)
}

// Info logs at info level, off the audio thread.
func Info(msg string, keyvals ...interface{}) { defaultLogger.Info(msg, keyvals...) }

// Warn logs at warn level, off the audio thread.
func Warn(msg string, keyvals ...interface{}) { defaultLogger.Warn(msg, keyvals...) }

// Error logs at error level, off the audio thread.
func Error(msg string, keyvals ...interface{}) { defaultLogger.Error(msg, keyvals...) }

// Debug logs at debug level, off the audio thread.
func Debug(msg string, keyvals ...interface{}) { defaultLogger.Debug(msg, keyvals...) }

// Level re-exports charmbracelet/log's level type for callers that only
// import diag.
type Level = charmlog.Level

const (
	LevelDebug = charmlog.DebugLevel
	LevelInfo  = charmlog.InfoLevel
	LevelWarn  = charmlog.WarnLevel
	LevelError = charmlog.ErrorLevel
)

// Diagnostic is a single deferred log line raised from the audio thread.
// It carries pre-formatted args rather than a format string plus
// variadic interface{} slice, keeping the allocation (if any) at
// enqueue time predictable and the consumer side a single call.
type Diagnostic struct {
	Level Level
	Msg   string
}

// Queue is a small drop-on-full ring the audio thread pushes diagnostics
// into instead of calling the logger directly; Info/Warn/Error above are
// the control thread's job, draining this queue each poll (§4.11). A
// plain mutex-guarded slice is sufficient here — Queue is drained at most
// every few milliseconds by one control thread, so contention is not a
// concern the way it is for the RT event FIFOs.
type Queue struct {
	mu       sync.Mutex
	items    []Diagnostic
	capacity int
	dropped  uint64
}

// NewQueue creates a diagnostic queue bounded to capacity entries.
func NewQueue(capacity int) *Queue {
	return &Queue{capacity: capacity}
}

// Push enqueues a diagnostic from the audio thread. It never blocks and
// silently drops the entry (incrementing Dropped) once the queue is
// full, matching the RT FIFOs' drop-rather-than-block contract.
func (q *Queue) Push(level Level, msg string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) >= q.capacity {
		q.dropped++
		return
	}
	q.items = append(q.items, Diagnostic{Level: level, Msg: msg})
}

// Drain removes and returns every queued diagnostic. Called by the
// control thread's poll loop.
func (q *Queue) Drain() []Diagnostic {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

// Dropped reports how many Push calls were dropped for a full queue.
func (q *Queue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// LogAll drains q and writes every diagnostic to the default logger, in
// order. Intended to run on the control thread's poll tick.
func LogAll(q *Queue) {
	for _, d := range q.Drain() {
		switch d.Level {
		case LevelError:
			Error(d.Msg)
		case LevelWarn:
			Warn(d.Msg)
		case LevelDebug:
			Debug(d.Msg)
		default:
			Info(d.Msg)
		}
	}
}
