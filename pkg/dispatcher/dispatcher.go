// Package dispatcher runs the control surface's poll loop: it drains the
// engine's main_out notification queue and fans events out to subscribed
// clients (keyboard input, parameter-change observers, async-work
// completions), and it rate-limits each client's inbound submissions
// before they reach main_in, so a runaway UI control can't flood the
// engine's control queue (§4.13).
package dispatcher

import (
	"context"
	"sync"
	"time"

	"github.com/dspforge/rtengine/pkg/rtevent"
	"golang.org/x/time/rate"
)

// PollInterval is how often the dispatcher drains main_out.
const PollInterval = 5 * time.Millisecond

// MainIn is the narrow interface the dispatcher needs from the engine to
// submit control events; MainOut is the matching narrow interface for
// draining notifications. Both are satisfied by *rtfifo.FIFO.
type MainIn interface {
	Push(ev rtevent.Event) bool
}

type MainOut interface {
	Pop() (rtevent.Event, bool)
}

// Subscription is a client's filtered view onto the event stream. Events
// are delivered on Events; if the client doesn't drain fast enough,
// Matches-left is none: the dispatcher never blocks on a subscriber, it
// drops and counts instead.
type Subscription struct {
	Events <-chan rtevent.Event

	id      uint64
	events  chan rtevent.Event
	match   func(rtevent.Event) bool
	dropped uint64
	mu      sync.Mutex
}

// Dropped reports how many events this subscription has missed because
// its channel was full.
func (s *Subscription) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

func (s *Subscription) deliver(ev rtevent.Event) {
	select {
	case s.events <- ev:
	default:
		s.mu.Lock()
		s.dropped++
		s.mu.Unlock()
	}
}

// clientLimiter rate-limits one client's inbound submissions.
type clientLimiter struct {
	limiter *rate.Limiter
}

// ControlEvent is the ownership-taking envelope PostEvent submits (§6
// post_event): the wrapped event, the id of the processor it targets,
// an optional callback invoked once the engine reports the matching
// asynchronous work as done, and the time the client posted it.
type ControlEvent struct {
	Event      rtevent.Event
	ReceiverID uint32
	Callback   func(rtevent.Event)
	Timestamp  time.Time
}

// Dispatcher bridges the engine's RT-safe queues and non-RT client code.
type Dispatcher struct {
	in  MainIn
	out MainOut

	mu            sync.Mutex
	subscriptions map[uint64]*Subscription
	nextSubID     uint64

	pendingMu  sync.Mutex
	pending    map[uint64]func(rtevent.Event)
	nextToken  uint64

	clientsMu sync.Mutex
	clients   map[string]*clientLimiter

	defaultRateHz float64
	defaultBurst  int
}

// New creates a dispatcher over the engine's main_in/main_out queues.
// defaultRateHz/defaultBurst configure the per-client token bucket
// applied to every client unless overridden with SetClientLimit.
func New(in MainIn, out MainOut, defaultRateHz float64, defaultBurst int) *Dispatcher {
	return &Dispatcher{
		in:            in,
		out:           out,
		subscriptions: make(map[uint64]*Subscription),
		pending:       make(map[uint64]func(rtevent.Event)),
		clients:       make(map[string]*clientLimiter),
		defaultRateHz: defaultRateHz,
		defaultBurst:  defaultBurst,
	}
}

// Subscribe registers a filtered subscription. match may be nil to
// receive every event. bufferSize bounds how many events can queue
// before the dispatcher starts dropping for this subscriber.
func (d *Dispatcher) Subscribe(bufferSize int, match func(rtevent.Event) bool) *Subscription {
	if bufferSize < 1 {
		bufferSize = 1
	}
	ch := make(chan rtevent.Event, bufferSize)
	sub := &Subscription{Events: ch, events: ch, match: match}

	d.mu.Lock()
	d.nextSubID++
	sub.id = d.nextSubID
	d.subscriptions[sub.id] = sub
	d.mu.Unlock()

	return sub
}

// Unsubscribe removes a subscription; its channel is not closed, since
// a concurrent deliver could still be racing a close.
func (d *Dispatcher) Unsubscribe(sub *Subscription) {
	d.mu.Lock()
	delete(d.subscriptions, sub.id)
	d.mu.Unlock()
}

// SubscribeToKeyboardEvents is subscribe_to_keyboard_events (§6): a
// filtered subscription that only ever delivers note-on/off/aftertouch.
func (d *Dispatcher) SubscribeToKeyboardEvents(bufferSize int) *Subscription {
	return d.Subscribe(bufferSize, func(ev rtevent.Event) bool {
		switch ev.Kind {
		case rtevent.KindNoteOn, rtevent.KindNoteOff, rtevent.KindAftertouch:
			return true
		default:
			return false
		}
	})
}

// SubscribeToParameterChangeNotifications is
// subscribe_to_parameter_change_notifications (§6): a filtered
// subscription that only ever delivers parameter-change events.
func (d *Dispatcher) SubscribeToParameterChangeNotifications(bufferSize int) *Subscription {
	return d.Subscribe(bufferSize, func(ev rtevent.Event) bool {
		switch ev.Kind {
		case rtevent.KindParamBool, rtevent.KindParamInt, rtevent.KindParamFloat, rtevent.KindParamString, rtevent.KindParamBlob:
			return true
		default:
			return false
		}
	})
}

// SetClientLimit overrides the token-bucket rate for a specific client
// id, e.g. to give a recorded-automation client a tighter cap than an
// interactive UI.
func (d *Dispatcher) SetClientLimit(clientID string, hz float64, burst int) {
	d.clientsMu.Lock()
	defer d.clientsMu.Unlock()
	d.clients[clientID] = &clientLimiter{limiter: rate.NewLimiter(rate.Limit(hz), burst)}
}

func (d *Dispatcher) limiterFor(clientID string) *rate.Limiter {
	d.clientsMu.Lock()
	defer d.clientsMu.Unlock()
	cl, ok := d.clients[clientID]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rate.Limit(d.defaultRateHz), d.defaultBurst)}
		d.clients[clientID] = cl
	}
	return cl.limiter
}

// Submit pushes ev onto main_in on behalf of clientID, subject to that
// client's rate limit. It reports whether the event was accepted: false
// means either the client is over its rate budget or main_in is full.
func (d *Dispatcher) Submit(clientID string, ev rtevent.Event) bool {
	if !d.limiterFor(clientID).Allow() {
		return false
	}
	return d.in.Push(ev)
}

// PostEvent is post_event (§6): it takes ownership of ce, stamping the
// receiver id onto the wrapped event's ProcessorID and, if ce.Callback
// is set, registering it against a fresh work token so drainOnce can
// invoke it once the engine reports that asynchronous work done. It
// reports whether the event was accepted, subject to the same
// per-client rate limit as Submit.
func (d *Dispatcher) PostEvent(clientID string, ce ControlEvent) bool {
	if !d.limiterFor(clientID).Allow() {
		return false
	}
	ev := ce.Event
	ev.ProcessorID = ce.ReceiverID
	if ce.Callback != nil {
		d.pendingMu.Lock()
		d.nextToken++
		token := d.nextToken
		d.pending[token] = ce.Callback
		d.pendingMu.Unlock()
		ev.WorkToken = token
	}
	return d.in.Push(ev)
}

// Run drains main_out on a fixed tick until ctx is canceled, fanning
// each event out to every matching subscription.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.drainOnce()
		}
	}
}

func (d *Dispatcher) drainOnce() {
	for {
		ev, ok := d.out.Pop()
		if !ok {
			return
		}
		if ev.Kind == rtevent.KindAsyncWorkDone {
			d.completeWork(ev)
		}
		d.mu.Lock()
		subs := make([]*Subscription, 0, len(d.subscriptions))
		for _, sub := range d.subscriptions {
			subs = append(subs, sub)
		}
		d.mu.Unlock()

		for _, sub := range subs {
			if sub.match == nil || sub.match(ev) {
				sub.deliver(ev)
			}
		}
	}
}

// completeWork looks up the callback registered for ev.WorkToken by
// PostEvent and, if found, runs it and forgets the registration — each
// token fires its callback at most once.
func (d *Dispatcher) completeWork(ev rtevent.Event) {
	d.pendingMu.Lock()
	cb, ok := d.pending[ev.WorkToken]
	if ok {
		delete(d.pending, ev.WorkToken)
	}
	d.pendingMu.Unlock()
	if ok {
		cb(ev)
	}
}
