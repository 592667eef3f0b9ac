// Package control implements the non-RT control API (§6): the surface
// a dispatcher, CLI, or remote frontend calls to mutate topology, wire
// routing, and drive the transport, translating the engine's plain Go
// errors into the closed StatusCode enum the control surface promises
// (§7), the way the teacher favors small sentinel errors over bespoke
// error hierarchies.
package control

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dspforge/rtengine/pkg/bus"
	"github.com/dspforge/rtengine/pkg/dspproc/delay"
	"github.com/dspforge/rtengine/pkg/dspproc/fx"
	"github.com/dspforge/rtengine/pkg/dspproc/gain"
	"github.com/dspforge/rtengine/pkg/dspproc/meter"
	"github.com/dspforge/rtengine/pkg/dspproc/synth"
	"github.com/dspforge/rtengine/pkg/engine"
	"github.com/dspforge/rtengine/pkg/processor"
	"github.com/dspforge/rtengine/pkg/rtevent"
)

// PluginType distinguishes a built-in DSP processor from one hosted
// through a native plugin protocol (§1, §6 add_plugin_to_track).
type PluginType int

const (
	PluginInternal PluginType = iota
	PluginVST2
	PluginVST3
	PluginLV2
)

// internalFactory builds a built-in processor instance for a uid passed
// to add_plugin_to_track with type=internal.
type internalFactory func(id uint32, name string) processor.Processor

// Surface is the control API's entry point: one per running engine. It
// owns the bookkeeping the engine itself does not keep — which
// processors live on which track, and the declared bus layout of
// multibus tracks — so that delete_track and the bus query operations
// can answer without reaching into the audio thread's own state (§9).
type Surface struct {
	eng *engine.Engine

	mu              sync.Mutex
	trackProcessors map[uint32][]uint32
	trackBuses      map[uint32]*bus.Configuration
	trackNames      map[string]uint32
	factories       map[string]internalFactory
}

// New creates a control surface over eng, pre-registering the engine's
// built-in processor uids (the ones a client can ask for by name
// without shipping its own factory).
func New(eng *engine.Engine) *Surface {
	s := &Surface{
		eng:             eng,
		trackProcessors: make(map[uint32][]uint32),
		trackBuses:      make(map[uint32]*bus.Configuration),
		trackNames:      make(map[string]uint32),
		factories:       make(map[string]internalFactory),
	}
	s.RegisterInternalPlugin("dspforge.gain", func(id uint32, name string) processor.Processor {
		return gain.New(id, name)
	})
	s.RegisterInternalPlugin("dspforge.delay", func(id uint32, name string) processor.Processor {
		return delay.New(id, name, eng.MainOutChannels())
	})
	s.RegisterInternalPlugin("dspforge.synth", func(id uint32, name string) processor.Processor {
		return synth.New(id, name, 8)
	})
	s.RegisterInternalPlugin("dspforge.meter", func(id uint32, name string) processor.Processor {
		return meter.New(id, name, eng.MainOutChannels())
	})
	s.RegisterInternalPlugin("dspforge.fx", func(id uint32, name string) processor.Processor {
		return fx.New(id, name, eng.MainOutChannels())
	})
	return s
}

// RegisterInternalPlugin makes an additional built-in processor
// available to add_plugin_to_track under uid.
func (s *Surface) RegisterInternalPlugin(uid string, factory internalFactory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.factories[uid] = factory
}

// CreateTrack creates a track with the given channel count. Every track
// in this engine shares the engine's configured output channel count
// (§2), so channels must match it exactly.
func (s *Surface) CreateTrack(name string, channels int32) (uint32, error) {
	if channels != int32(s.eng.MainOutChannels()) {
		return 0, newStatusError(InvalidNChannels, "create_track %q: channel count %d does not match engine output channel count %d", name, channels, s.eng.MainOutChannels())
	}
	tr, err := s.eng.AddTrack(name)
	if err != nil {
		return 0, newStatusError(InvalidTrack, "create_track %q", name).withCause(err)
	}
	s.mu.Lock()
	s.trackProcessors[tr.ID()] = nil
	s.trackNames[name] = tr.ID()
	s.mu.Unlock()
	return tr.ID(), nil
}

// CreateMultibusTrack creates a track and records a declared bus layout
// of inBusses auxiliary input busses and outBusses auxiliary output
// busses alongside its main stereo bus. The data path itself still
// renders the track's single flat channel buffer (§1 Non-goals exclude
// per-bus DSP routing); the recorded Configuration is queryable metadata
// for a frontend that wants to present bus structure to a user.
func (s *Surface) CreateMultibusTrack(name string, inBusses, outBusses int32) (uint32, error) {
	if inBusses < 0 || outBusses < 0 {
		return 0, newStatusError(InvalidNChannels, "create_multibus_track %q: negative bus count", name)
	}
	b := bus.NewBuilder().WithStereoInput("main-in").WithStereoOutput("main-out")
	for i := int32(0); i < inBusses; i++ {
		b = b.WithAuxInput(fmt.Sprintf("aux-in-%d", i), 2)
	}
	for i := int32(0); i < outBusses; i++ {
		b = b.WithAuxOutput(fmt.Sprintf("aux-out-%d", i), 2)
	}
	cfg, err := b.Build()
	if err != nil {
		return 0, newStatusError(InvalidNChannels, "create_multibus_track %q", name).withCause(err)
	}

	id, err := s.CreateTrack(name, int32(s.eng.MainOutChannels()))
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	s.trackBuses[id] = cfg
	s.mu.Unlock()
	return id, nil
}

// BusConfiguration returns the declared bus layout for a multibus track,
// or nil if trackID was never created via CreateMultibusTrack.
func (s *Surface) BusConfiguration(trackID uint32) *bus.Configuration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trackBuses[trackID]
}

// DeleteTrack removes trackID. The engine itself deregisters every
// processor the track was carrying (§9 Open Question 2); this only
// drops the surface's own bookkeeping for that track.
func (s *Surface) DeleteTrack(trackID uint32) error {
	if err := s.eng.RemoveTrack(trackID); err != nil {
		return newStatusError(InvalidTrack, "delete_track %d", trackID).withCause(err)
	}
	s.mu.Lock()
	delete(s.trackProcessors, trackID)
	delete(s.trackBuses, trackID)
	for name, id := range s.trackNames {
		if id == trackID {
			delete(s.trackNames, name)
			break
		}
	}
	s.mu.Unlock()
	return nil
}

// resolveTrackID looks up a track created via CreateTrack/
// CreateMultibusTrack by the name it was given (§6 operations take
// track_name, not the id CreateTrack returns).
func (s *Surface) resolveTrackID(name string) (uint32, error) {
	s.mu.Lock()
	id, ok := s.trackNames[name]
	s.mu.Unlock()
	if !ok {
		return 0, newStatusError(InvalidTrack, "unknown track %q", name)
	}
	return id, nil
}

// AddPluginToTrack installs a processor and appends it to trackID's
// chain. For kind=PluginInternal, uid selects a factory registered with
// RegisterInternalPlugin. For the native protocols, path is the
// out-of-tree loader's concern (§1 Non-goals) — this installs an
// unattached procwrap.Wrapper that renders silence until a loader calls
// Attach on the returned processor.
func (s *Surface) AddPluginToTrack(trackID uint32, uid, name, path string, kind PluginType) (uint32, error) {
	p, err := s.buildPlugin(uid, name, path, kind)
	if err != nil {
		return 0, err
	}

	id, err := s.eng.InsertProcessor(p, name)
	if err != nil {
		return 0, newStatusError(InvalidProcessor, "add_plugin_to_track: insert %q", name).withCause(err)
	}
	if err := s.eng.AddProcessorToTrack(trackID, id); err != nil {
		return 0, newStatusError(InvalidTrack, "add_plugin_to_track: track %d", trackID).withCause(err)
	}

	s.mu.Lock()
	s.trackProcessors[trackID] = append(s.trackProcessors[trackID], id)
	s.mu.Unlock()
	return id, nil
}

func (s *Surface) buildPlugin(uid, name, path string, kind PluginType) (processor.Processor, error) {
	switch kind {
	case PluginInternal:
		s.mu.Lock()
		factory, ok := s.factories[uid]
		s.mu.Unlock()
		if !ok {
			return nil, newStatusError(InvalidPluginUID, "add_plugin_to_track: unknown internal plugin uid %q", uid)
		}
		return factory(0, name), nil
	case PluginVST2, PluginVST3, PluginLV2:
		return newWrapperPlugin(name, kind, path)
	default:
		return nil, newStatusError(InvalidPluginUID, "add_plugin_to_track: unknown plugin type %d", int(kind))
	}
}

// RemovePluginFromTrack splices the processor named name out of
// trackID's chain and deregisters it entirely.
func (s *Surface) RemovePluginFromTrack(trackID uint32, name string) error {
	id, ok := s.eng.Registry().IDFromName(name)
	if !ok {
		return newStatusError(InvalidProcessor, "remove_plugin_from_track: unknown processor %q", name)
	}
	if err := s.eng.RemoveProcessorFromTrack(trackID, id); err != nil {
		return newStatusError(InvalidTrack, "remove_plugin_from_track: track %d", trackID).withCause(err)
	}
	if err := s.eng.RemoveProcessor(id); err != nil {
		return newStatusError(InvalidProcessor, "remove_plugin_from_track: processor %q", name).withCause(err)
	}

	s.mu.Lock()
	ids := s.trackProcessors[trackID]
	for i, pid := range ids {
		if pid == id {
			s.trackProcessors[trackID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	return nil
}

// audioRouteStatus classifies an error returned from one of the
// engine's ConnectAudio* methods: ErrUnknownTrack means the Surface's
// own name->id bookkeeping is stale (the engine no longer carries a
// track this surface still has a name for), anything else is a
// channel out of range.
func audioRouteStatus(op, trackName string, err error) error {
	if errors.Is(err, engine.ErrUnknownTrack) {
		return newStatusError(InvalidTrack, "%s: track %q", op, trackName).withCause(err)
	}
	return newStatusError(InvalidChannel, "%s: track %q", op, trackName).withCause(err)
}

// ConnectAudioInputChannel routes engine input channel inputChannel into
// trackChannel of trackName's input buffer (§6).
func (s *Surface) ConnectAudioInputChannel(inputChannel, trackChannel int32, trackName string) error {
	id, err := s.resolveTrackID(trackName)
	if err != nil {
		return err
	}
	if err := s.eng.ConnectAudioInputChannel(inputChannel, trackChannel, id); err != nil {
		return audioRouteStatus("connect_audio_input_channel", trackName, err)
	}
	return nil
}

// ConnectAudioOutputChannel routes trackChannel of trackName's rendered
// output into engine output channel outputChannel (§6).
func (s *Surface) ConnectAudioOutputChannel(outputChannel, trackChannel int32, trackName string) error {
	id, err := s.resolveTrackID(trackName)
	if err != nil {
		return err
	}
	if err := s.eng.ConnectAudioOutputChannel(outputChannel, trackChannel, id); err != nil {
		return audioRouteStatus("connect_audio_output_channel", trackName, err)
	}
	return nil
}

// ConnectAudioInputBus connects a stereo input bus pair in one call (§6).
func (s *Surface) ConnectAudioInputBus(inputBus, trackBus int32, trackName string) error {
	id, err := s.resolveTrackID(trackName)
	if err != nil {
		return err
	}
	if err := s.eng.ConnectAudioInputBus(inputBus, trackBus, id); err != nil {
		return audioRouteStatus("connect_audio_input_bus", trackName, err)
	}
	return nil
}

// ConnectAudioOutputBus connects a stereo output bus pair in one call (§6).
func (s *Surface) ConnectAudioOutputBus(outputBus, trackBus int32, trackName string) error {
	id, err := s.resolveTrackID(trackName)
	if err != nil {
		return err
	}
	if err := s.eng.ConnectAudioOutputBus(outputBus, trackBus, id); err != nil {
		return audioRouteStatus("connect_audio_output_bus", trackName, err)
	}
	return nil
}

// ConnectCVToParameter routes CV input channel cvIndex into
// processorName's paramName, sampled once per block (§4.9).
func (s *Surface) ConnectCVToParameter(cvIndex int32, processorName, paramName string) error {
	procID, paramID, err := s.resolveProcessorParam(processorName, paramName)
	if err != nil {
		return err
	}
	s.eng.ConnectCVToParameter(cvIndex, procID, paramID)
	return nil
}

// ConnectCVFromParameter routes processorName's paramName out as CV
// channel cvIndex, the inverse binding installed directly on the
// processor (§4.5 CVGateBinder).
func (s *Surface) ConnectCVFromParameter(processorName, paramName string, cvIndex int32) error {
	p, paramID, err := s.resolveProcessorParamHandle(processorName, paramName)
	if err != nil {
		return err
	}
	binder, ok := p.(processor.CVGateBinder)
	if !ok {
		return newStatusError(InvalidProcessor, "connect_cv_from_parameter: %q does not support outbound CV", processorName)
	}
	binder.ConnectCVFromParameter(paramID, cvIndex)
	return nil
}

// ConnectGateToProcessor routes gate-word bit gateBit to a note-on/off
// pair on processorName (§4.9).
func (s *Surface) ConnectGateToProcessor(gateBit int, processorName string, channel, note uint8) error {
	id, ok := s.eng.Registry().IDFromName(processorName)
	if !ok {
		return newStatusError(InvalidProcessor, "connect_gate_to_processor: unknown processor %q", processorName)
	}
	s.eng.ConnectGateToProcessor(gateBit, id, channel, note)
	return nil
}

// ConnectGateFromProcessor routes processorName's note activity out as
// gate channel gateIndex, installed directly on the processor.
func (s *Surface) ConnectGateFromProcessor(processorName string, gateIndex int32, channel, note uint8) error {
	p, ok := s.eng.Registry().ByName(processorName)
	if !ok {
		return newStatusError(InvalidProcessor, "connect_gate_from_processor: unknown processor %q", processorName)
	}
	binder, ok := p.(processor.CVGateBinder)
	if !ok {
		return newStatusError(InvalidProcessor, "connect_gate_from_processor: %q does not support outbound gate", processorName)
	}
	binder.ConnectGateFromProcessor(gateIndex, channel, note)
	return nil
}

func (s *Surface) resolveProcessorParam(processorName, paramName string) (uint32, uint32, error) {
	p, paramID, err := s.resolveProcessorParamHandle(processorName, paramName)
	if err != nil {
		return 0, 0, err
	}
	return p.Info().ID, paramID, nil
}

func (s *Surface) resolveProcessorParamHandle(processorName, paramName string) (processor.Processor, uint32, error) {
	p, ok := s.eng.Registry().ByName(processorName)
	if !ok {
		return nil, 0, newStatusError(InvalidProcessor, "unknown processor %q", processorName)
	}
	paramID, ok := p.Parameters().IDFromName(paramName)
	if !ok {
		return nil, 0, newStatusError(InvalidParameter, "processor %q has no parameter %q", processorName, paramName)
	}
	return p, paramID, nil
}

// SetTempo requests a tempo change, staged until the next bar if the
// transport is currently running (§4.3).
func (s *Surface) SetTempo(bpm float64) error {
	return s.pushControlEvent(rtevent.TempoEvent(bpm))
}

// SetTimeSignature requests a time-signature change, staged the same
// way as SetTempo.
func (s *Surface) SetTimeSignature(num, denom int32) error {
	return s.pushControlEvent(rtevent.TimeSignatureEvent(num, denom))
}

// SetTransportMode requests a playing-mode change (stopped/playing/recording).
func (s *Surface) SetTransportMode(mode rtevent.PlayingMode) error {
	return s.pushControlEvent(rtevent.PlayingModeEvent(mode))
}

// SetTempoSyncMode requests a tempo-sync-source change (internal/MIDI/link/gate).
func (s *Surface) SetTempoSyncMode(mode rtevent.SyncMode) error {
	return s.pushControlEvent(rtevent.SyncModeEvent(mode))
}

// EnableRealtime is enable_realtime (§4.10, §6): true starts the engine
// (STOPPED -> STARTING, then STARTING -> RUNNING on the first block the
// audio thread handles); false stops it (RUNNING -> STOPPING, staged
// through STOP_ENGINE on the audio thread, then STOPPING -> STOPPED at
// the end of the next block; immediate from any other state).
func (s *Surface) EnableRealtime(enable bool) {
	if enable {
		s.eng.Start()
		return
	}
	s.eng.Stop()
}

// Realtime reports whether the engine is in any state but STOPPED.
func (s *Surface) Realtime() bool {
	return s.eng.Realtime()
}

func (s *Surface) pushControlEvent(ev rtevent.Event) error {
	if !s.eng.MainIn().Push(ev) {
		return newStatusError(QueueFull, "control event queue full")
	}
	return nil
}

// ProcessorIDFromName resolves a processor's registered name to its id.
func (s *Surface) ProcessorIDFromName(name string) (uint32, error) {
	id, ok := s.eng.Registry().IDFromName(name)
	if !ok {
		return 0, newStatusError(InvalidProcessor, "processor_id_from_name: unknown processor %q", name)
	}
	return id, nil
}

// ProcessorNameFromID resolves a processor's id to its registered name.
func (s *Surface) ProcessorNameFromID(id uint32) (string, error) {
	name, ok := s.eng.Registry().NameOf(id)
	if !ok {
		return "", newStatusError(InvalidProcessor, "processor_name_from_id: unknown processor id %d", id)
	}
	return name, nil
}

// ParameterIDFromName resolves processorName's paramName to its id.
func (s *Surface) ParameterIDFromName(processorName, paramName string) (uint32, error) {
	_, paramID, err := s.resolveProcessorParam(processorName, paramName)
	return paramID, err
}

// ParameterNameFromID resolves processorName's paramID to its name.
func (s *Surface) ParameterNameFromID(processorName string, paramID uint32) (string, error) {
	p, ok := s.eng.Registry().ByName(processorName)
	if !ok {
		return "", newStatusError(InvalidProcessor, "parameter_name_from_id: unknown processor %q", processorName)
	}
	name, ok := p.Parameters().NameFromID(paramID)
	if !ok {
		return "", newStatusError(InvalidParameter, "parameter_name_from_id: processor %q has no parameter id %d", processorName, paramID)
	}
	return name, nil
}
