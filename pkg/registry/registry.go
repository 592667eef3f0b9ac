// Package registry implements the dual-indexed processor store (§4.7,
// §3): a non-RT authoritative name map, mutated only off the audio
// thread, and an RT-visible dense array indexed by ObjectId, mutated
// only by the audio thread while handling an RT topology event.
//
// register/deregister touch the name map; install_rt/uninstall_rt touch
// the dense array. They are kept as separate operations because the
// name map can be mutated directly from a client thread, but the dense
// array may only ever be mutated on the audio thread — the engine's
// topology protocol (§4.8) combines them atomically from the caller's
// point of view.
package registry

import (
	"fmt"
	"sync"

	"github.com/dspforge/rtengine/pkg/processor"
)

// Registry is the processor registry: name→handle (non-RT) plus
// id→handle (RT-visible dense array).
type Registry struct {
	mu      sync.RWMutex
	byName  map[string]processor.Processor
	nextID  uint32

	// rtSlots is append-mostly: once grown to index i, slot i is never
	// relocated — pointers handed to the audio thread stay valid for the
	// registry's lifetime (§9 "Arena + index").
	rtSlots []processor.Processor
}

// New creates an empty registry. ceiling pre-sizes the RT dense array to
// the agreed startup ceiling so the audio thread never observes a
// reallocating slice (§9).
func New(ceiling int) *Registry {
	return &Registry{
		byName:  make(map[string]processor.Processor),
		rtSlots: make([]processor.Processor, 0, ceiling),
	}
}

// Register assigns a fresh id to p and inserts it into the name map.
// Fails if name is empty or already taken. Off-thread only.
func (r *Registry) Register(p processor.Processor, name string) (uint32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name == "" {
		return 0, fmt.Errorf("registry: empty processor name")
	}
	if _, exists := r.byName[name]; exists {
		return 0, fmt.Errorf("registry: name %q already registered", name)
	}

	r.nextID++
	id := r.nextID
	r.byName[name] = p
	return id, nil
}

// Deregister removes name from the name map. It does not touch the RT
// array — callers must uninstall the RT slot first via a topology event.
func (r *Registry) Deregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byName, name)
}

// ByName returns the registered processor for name, off-thread only.
func (r *Registry) ByName(name string) (processor.Processor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byName[name]
	return p, ok
}

// NameOf returns the name a processor was registered under, scanning the
// non-RT map (names are few enough per session that a linear scan here,
// off the audio thread, is not a concern).
func (r *Registry) NameOf(id uint32) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for name, p := range r.byName {
		if p.Info().ID == id {
			return name, true
		}
	}
	return "", false
}

// IDFromName returns the id of the processor registered under name.
func (r *Registry) IDFromName(name string) (uint32, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byName[name]
	if !ok {
		return 0, false
	}
	return p.Info().ID, true
}

// InstallRT grows the RT dense array if needed and installs p at its
// id. Audio-thread only.
func (r *Registry) InstallRT(p processor.Processor) {
	id := int(p.Info().ID)
	for len(r.rtSlots) <= id {
		r.rtSlots = append(r.rtSlots, nil)
	}
	r.rtSlots[id] = p
}

// UninstallRT nulls the RT slot for id. Audio-thread only. The slot
// itself is never reused for a different id within the session (§3
// invariant).
func (r *Registry) UninstallRT(id uint32) {
	if int(id) < len(r.rtSlots) {
		r.rtSlots[id] = nil
	}
}

// RTLookup returns the processor installed at id, or nil. Audio-thread
// only — this is the hot path read on every block.
func (r *Registry) RTLookup(id uint32) processor.Processor {
	if int(id) >= len(r.rtSlots) {
		return nil
	}
	return r.rtSlots[id]
}

// RTLen reports the current dense-array length (advisory, for metrics).
func (r *Registry) RTLen() int {
	return len(r.rtSlots)
}
