package engine

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dspforge/rtengine/pkg/audio"
	"github.com/dspforge/rtengine/pkg/clip"
	"github.com/dspforge/rtengine/internal/diag"
	"github.com/dspforge/rtengine/pkg/processor"
	"github.com/dspforge/rtengine/pkg/registry"
	"github.com/dspforge/rtengine/pkg/rtevent"
	"github.com/dspforge/rtengine/pkg/rtfifo"
	"github.com/dspforge/rtengine/pkg/track"
	"github.com/dspforge/rtengine/pkg/transport"
	"github.com/google/uuid"
)

// Errors returned by the non-RT control surface (§6/§7). Concrete
// StatusCode classification lives in pkg/control, which wraps these with
// errors.Is.
var (
	ErrQueueFull          = errors.New("engine: queue full")
	ErrTopologyTimeout    = errors.New("engine: topology request timed out")
	ErrTopologyRejected   = errors.New("engine: topology request rejected")
	ErrUnknownTrack       = errors.New("engine: unknown track")
	ErrUnknownProcessor   = errors.New("engine: unknown processor")
	ErrProcessorNoIdentity = errors.New("engine: processor cannot be assigned an id")
	ErrInvalidChannel     = errors.New("engine: invalid channel")
)

// identitySetter is implemented by processors built on processor.Base;
// the registry needs it once, at registration, to stamp the assigned id
// back onto the processor's own Info().
type identitySetter interface {
	SetInfo(processor.Info)
}

// trackSlot pairs a track with its own persistent output scratch buffer,
// so rendering never allocates mid-block.
type trackSlot struct {
	tr  *track.Track
	out *audio.Buffer
}

// Engine drives the audio graph one fixed-size block at a time (§4.8).
type Engine struct {
	cfg Config

	state atomic.Int32

	reg *registry.Registry

	trackMu    sync.Mutex // guards trackOrder; audio thread only mutates it while handling a topology event
	trackOrder []*trackSlot
	nextTrackID uint32

	transport *transport.Transport

	mainIn          *rtfifo.FIFO
	mainOut         *rtfifo.FIFO
	internalControl *rtfifo.GuardedProducer
	controlOut      *rtfifo.FIFO

	topologyMu sync.Mutex

	inputClip  *clip.Detector
	outputClip *clip.Detector

	master *audio.Buffer

	diagQueue *diag.Queue
	profiler  *diag.AudioProcessProfiler

	cvRoutes   []cvRoute
	gateRoutes []gateRoute
	prevGateWord uint64

	audioInRoutes  []audioInRoute
	audioOutRoutes []audioOutRoute

	inputClipScratch  []rtevent.Event
	outputClipScratch []rtevent.Event
}

type cvRoute struct {
	cvIndex     int32
	processorID uint32
	paramID     uint32
}

type gateRoute struct {
	gateBit     int
	processorID uint32
	channel     uint8
	note        uint8
}

// audioInRoute copies engine input channel engineChannel into trackChannel
// of trackID's input buffer each block (§6 connect_audio_input_channel).
type audioInRoute struct {
	engineChannel int32
	trackChannel  int32
	trackID       uint32
}

// audioOutRoute sums trackChannel of trackID's rendered output into
// engine output channel engineChannel each block (§6
// connect_audio_output_channel).
type audioOutRoute struct {
	trackChannel  int32
	engineChannel int32
	trackID       uint32
}

// New builds an idle engine in StateStopped. No audio-thread work begins
// until Start is called.
func New(cfg Config) *Engine {
	interval := clip.IntervalForSampleRate(cfg.SampleRate)
	e := &Engine{
		cfg:             cfg,
		reg:             registry.New(cfg.ProcessorCeiling),
		transport:       transport.New(),
		mainIn:          rtfifo.New(cfg.FIFOCapacity),
		mainOut:         rtfifo.New(cfg.FIFOCapacity),
		internalControl: rtfifo.NewGuardedProducer(rtfifo.New(cfg.FIFOCapacity)),
		controlOut:      rtfifo.New(cfg.FIFOCapacity),
		inputClip:       clip.New(rtevent.DirectionInput, cfg.NumInputChannels, interval, uint32(cfg.BlockSize)),
		outputClip:      clip.New(rtevent.DirectionOutput, cfg.NumOutputChannels, interval, uint32(cfg.BlockSize)),
		master:          audio.NewBuffer(cfg.NumOutputChannels, cfg.BlockSize),
		diagQueue:       diag.NewQueue(cfg.DiagQueueCapacity),
		profiler:        diag.NewAudioProcessProfiler(cfg.SampleRate, cfg.BlockSize),
	}
	e.inputClipScratch = make([]rtevent.Event, 0, cfg.NumInputChannels)
	e.outputClipScratch = make([]rtevent.Event, 0, cfg.NumOutputChannels)
	e.state.Store(int32(StateStopped))
	return e
}

// State returns the engine's current lifecycle state.
func (e *Engine) State() State { return State(e.state.Load()) }

// Start is enable_realtime(true) (§4.10): STOPPED -> STARTING
// immediately, then STARTING -> RUNNING on the first block ProcessChunk
// handles, so a driver that calls Start and only later begins clocking
// blocks observes STARTING for the whole gap.
func (e *Engine) Start() {
	e.state.Store(int32(StateStarting))
	diag.Info("engine starting", "sampleRate", e.cfg.SampleRate, "blockSize", e.cfg.BlockSize)
}

// Stop is enable_realtime(false) (§4.10). While RUNNING, it enqueues
// STOP_ENGINE on internal_control so the transition to STOPPING happens
// on the audio thread, inside the block handler that drains it, exactly
// like every other topology mutation; STOPPING -> STOPPED follows at the
// end of the next block ProcessChunk completes. Called from any other
// state, it stops immediately — there is no block handler running to
// perform a staged transition.
func (e *Engine) Stop() {
	if e.State() == StateRunning {
		e.internalControl.Push(rtevent.Event{Kind: rtevent.KindStopEngine, Topology: &rtevent.TopologyPayload{CorrelationID: uuid.New()}})
		return
	}
	e.state.Store(int32(StateStopped))
	diag.Info("engine stopped")
}

// Realtime reports whether the engine is in any state but STOPPED
// (§4.10 realtime()).
func (e *Engine) Realtime() bool { return e.State() != StateStopped }

// Registry exposes the processor registry for the control surface.
func (e *Engine) Registry() *registry.Registry { return e.reg }

// Transport exposes the transport for the control surface.
func (e *Engine) Transport() *transport.Transport { return e.transport }

// MainOut returns the queue the control thread drains for notifications
// (clip events, sync markers, processor-emitted notes/CV/gate).
func (e *Engine) MainOut() *rtfifo.FIFO { return e.mainOut }

// MainIn returns the queue the control thread pushes note/parameter/
// transport events onto for the audio thread to consume.
func (e *Engine) MainIn() *rtfifo.FIFO { return e.mainIn }

// Diagnostics returns the audio thread's non-blocking diagnostic queue.
func (e *Engine) Diagnostics() *diag.Queue { return e.diagQueue }

// MainOutChannels reports the engine's configured output channel count,
// the shape every track's buffers are sized to (§2).
func (e *Engine) MainOutChannels() int { return e.cfg.NumOutputChannels }

// ProcessChunk renders exactly one block: topology mutations, then
// queued control events, then the transport, then every track in order,
// summed into out. in and out are channel-major slices sized
// [NumChannels][BlockSize]; cv carries one sample per configured CV
// input, sampled once per block; gateWord is a bitmask of gate inputs
// (§4.8, §4.9).
func (e *Engine) ProcessChunk(in, out [][]float32, cv []float64, gateWord uint64, timestamp time.Time) {
	stop := e.profiler.Start("ProcessAudio")
	defer stop()

	// §4.10: STARTING -> RUNNING on the first block the audio thread
	// actually handles. STOPPING -> STOPPED here too, but only on entry —
	// STOP_ENGINE (drained below) moves RUNNING -> STOPPING mid-block, so
	// a block that sees STOPPING on entry is always the one *after* that,
	// giving the driver one full extra block to observe STOPPING before
	// STOPPED.
	e.state.CompareAndSwap(int32(StateStarting), int32(StateRunning))
	e.state.CompareAndSwap(int32(StateStopping), int32(StateStopped))

	e.drainTopology()
	e.drainMainIn()

	e.transport.AdvanceBlock(timestamp, e.cfg.BlockSize, e.cfg.SampleRate)

	e.inputClipScratch = e.inputClip.Detect(in, e.inputClipScratch[:0])
	for _, ce := range e.inputClipScratch {
		e.mainOut.Push(ce)
	}

	e.routeCV(cv)
	e.routeGate(gateWord)

	e.trackMu.Lock()
	slots := e.trackOrder
	e.trackMu.Unlock()

	for _, slot := range slots {
		slot.tr.ZeroInput()
	}
	for _, r := range e.audioInRoutes {
		if int(r.engineChannel) >= len(in) {
			continue
		}
		if slot := findSlotByID(slots, r.trackID); slot != nil {
			slot.tr.SetInputChannel(int(r.trackChannel), in[r.engineChannel])
		}
	}

	e.master.Zero()
	for _, slot := range slots {
		events := slot.tr.Render(audio.NewViewOf(slot.out.Channels()))
		for _, ev := range events {
			e.mainOut.Push(ev)
		}
	}
	for _, r := range e.audioOutRoutes {
		if int(r.engineChannel) >= e.master.NumChannels() {
			continue
		}
		if slot := findSlotByID(slots, r.trackID); slot != nil {
			e.master.AddChannel(int(r.engineChannel), slot.out.Channel(int(r.trackChannel)))
		}
	}

	// §4.8 step 8 / §5: the marker delimits this block's musical time, so
	// it is pushed only after every track has rendered and emitted its
	// events — anything pushed to main_out above belongs to this block,
	// anything pushed after belongs to the next.
	e.mainOut.Push(e.transport.SyncMarker())

	n := len(out)
	if mc := e.master.NumChannels(); mc < n {
		n = mc
	}
	for ch := 0; ch < n; ch++ {
		copy(out[ch], e.master.Channel(ch))
	}

	e.outputClipScratch = e.outputClip.Detect(out, e.outputClipScratch[:0])
	for _, ce := range e.outputClipScratch {
		e.mainOut.Push(ce)
	}

	e.profiler.UpdateCPULoad()
}

func findSlotByID(slots []*trackSlot, id uint32) *trackSlot {
	for _, slot := range slots {
		if slot.tr.ID() == id {
			return slot
		}
	}
	return nil
}

func (e *Engine) routeCV(cv []float64) {
	for _, r := range e.cvRoutes {
		if int(r.cvIndex) >= len(cv) {
			continue
		}
		proc := e.reg.RTLookup(r.processorID)
		if proc == nil {
			continue
		}
		p := proc.Parameters().Get(r.paramID)
		if p == nil {
			continue
		}
		p.SetFromCV(cv[r.cvIndex])
		proc.ProcessEvent(rtevent.ParamFloat(r.processorID, 0, r.paramID, p.GetValue()))
	}
}

func (e *Engine) routeGate(word uint64) {
	if len(e.gateRoutes) == 0 {
		e.prevGateWord = word
		return
	}
	changed := word ^ e.prevGateWord
	for _, r := range e.gateRoutes {
		bit := uint64(1) << uint(r.gateBit)
		if changed&bit == 0 {
			continue
		}
		proc := e.reg.RTLookup(r.processorID)
		if proc == nil {
			continue
		}
		on := word&bit != 0
		if on {
			proc.ProcessEvent(rtevent.NoteOn(r.processorID, 0, r.channel, r.note, 127))
		} else {
			proc.ProcessEvent(rtevent.NoteOff(r.processorID, 0, r.channel, r.note, 0))
		}
	}
	e.prevGateWord = word
}

func (e *Engine) drainMainIn() {
	for {
		ev, ok := e.mainIn.Pop()
		if !ok {
			return
		}
		e.applyControlEvent(ev)
	}
}

func (e *Engine) applyControlEvent(ev rtevent.Event) {
	running := e.State() == StateRunning
	switch ev.Kind {
	case rtevent.KindTempo:
		e.transport.SetTempo(ev.Tempo, running)
	case rtevent.KindTimeSignature:
		e.transport.SetTimeSignature(ev.TimeSigNum, ev.TimeSigDenom, running)
	case rtevent.KindPlayingMode:
		e.transport.SetPlayingMode(ev.Playing, running)
	case rtevent.KindSyncMode:
		e.transport.SetSyncMode(ev.Sync, running)
	default:
		if proc := e.reg.RTLookup(ev.ProcessorID); proc != nil {
			proc.ProcessEvent(ev)
		}
	}
}

func (e *Engine) drainTopology() {
	for {
		ev, ok := e.internalControl.Pop()
		if !ok {
			return
		}
		e.applyTopologyEvent(ev)
	}
}

func (e *Engine) applyTopologyEvent(ev rtevent.Event) {
	payload := ev.Topology
	if payload == nil {
		return
	}
	payload.Accepted = true

	switch ev.Kind {
	case rtevent.KindInsertProcessor:
		if p, ok := payload.Processor.(processor.Processor); ok {
			e.reg.InstallRT(p)
		} else {
			payload.Accepted = false
		}
	case rtevent.KindRemoveProcessor:
		e.reg.UninstallRT(payload.ProcessorID)
	case rtevent.KindAddProcessorToTrack:
		slot := e.findTrackSlot(payload.TrackID)
		proc := e.reg.RTLookup(payload.ProcessorID)
		if slot == nil || proc == nil {
			payload.Accepted = false
		} else {
			slot.tr.Insert(proc)
		}
	case rtevent.KindRemoveProcessorFromTrack:
		slot := e.findTrackSlot(payload.TrackID)
		if slot == nil || !slot.tr.Remove(payload.ProcessorID) {
			payload.Accepted = false
		}
	case rtevent.KindAddTrack:
		if tr, ok := payload.Processor.(*track.Track); ok {
			e.trackMu.Lock()
			e.trackOrder = append(e.trackOrder, &trackSlot{
				tr:  tr,
				out: audio.NewBuffer(e.cfg.NumOutputChannels, e.cfg.BlockSize),
			})
			e.trackMu.Unlock()
		} else {
			payload.Accepted = false
		}
	case rtevent.KindRemoveTrack:
		e.trackMu.Lock()
		for i, slot := range e.trackOrder {
			if slot.tr.ID() == payload.TrackID {
				// §9 Open Question 2: deleting a track deregisters every
				// processor it was carrying, not just the track itself.
				for _, p := range slot.tr.Processors() {
					pid := p.Info().ID
					if name, ok := e.reg.NameOf(pid); ok {
						e.reg.Deregister(name)
					}
					e.reg.UninstallRT(pid)
				}
				e.trackOrder = append(e.trackOrder[:i], e.trackOrder[i+1:]...)
				break
			}
		}
		e.trackMu.Unlock()
	case rtevent.KindStopEngine:
		e.state.Store(int32(StateStopping))
	default:
		payload.Accepted = false
	}

	payload.Handled = true
	e.controlOut.Push(rtevent.Event{Kind: ev.Kind, Topology: payload})
}

func (e *Engine) findTrackSlot(id uint32) *trackSlot {
	e.trackMu.Lock()
	defer e.trackMu.Unlock()
	for _, slot := range e.trackOrder {
		if slot.tr.ID() == id {
			return slot
		}
	}
	return nil
}

// submitTopology pushes ev onto internal_control and blocks (polling)
// until the audio thread acknowledges the matching correlation id on
// control_out, or TopologyTimeout elapses (§4.8). Calls are serialized:
// only one topology request is ever in flight, so the first ack control_out
// produces is guaranteed to be this call's.
func (e *Engine) submitTopology(ev rtevent.Event) error {
	e.topologyMu.Lock()
	defer e.topologyMu.Unlock()

	payload := ev.Topology
	if !e.internalControl.Push(ev) {
		return ErrQueueFull
	}

	deadline := time.Now().Add(e.cfg.TopologyTimeout)
	for time.Now().Before(deadline) {
		ack, ok := e.controlOut.Pop()
		if ok && ack.Topology != nil && ack.Topology.CorrelationID == payload.CorrelationID {
			if !ack.Topology.Accepted {
				return ErrTopologyRejected
			}
			return nil
		}
		if ok {
			// Not our ack (shouldn't happen under single-flight topology
			// calls) — forward it untouched so other consumers still see it.
			e.mainOut.Push(ack)
		}
		time.Sleep(500 * time.Microsecond)
	}
	return ErrTopologyTimeout
}

// InsertProcessor registers p under name and installs it on the audio
// thread, blocking until acknowledged (§4.8).
func (e *Engine) InsertProcessor(p processor.Processor, name string) (uint32, error) {
	id, err := e.reg.Register(p, name)
	if err != nil {
		return 0, err
	}
	setter, ok := p.(identitySetter)
	if !ok {
		return 0, ErrProcessorNoIdentity
	}
	info := p.Info()
	info.ID = id
	info.Name = name
	setter.SetInfo(info)

	payload := &rtevent.TopologyPayload{
		CorrelationID: uuid.New(),
		ProcessorID:   id,
		ProcessorName: name,
		Processor:     p,
	}
	err = e.submitTopology(rtevent.Event{Kind: rtevent.KindInsertProcessor, Topology: payload})
	if err != nil {
		e.reg.Deregister(name)
		return 0, err
	}
	return id, nil
}

// AddTrack creates a track and installs it on the audio thread.
func (e *Engine) AddTrack(name string) (*track.Track, error) {
	id := atomic.AddUint32(&e.nextTrackID, 1)
	tr := track.New(id, name, e.cfg.NumOutputChannels, e.cfg.BlockSize)

	payload := &rtevent.TopologyPayload{
		CorrelationID: uuid.New(),
		TrackID:       id,
		TrackName:     name,
		Processor:     tr,
	}
	if err := e.submitTopology(rtevent.Event{Kind: rtevent.KindAddTrack, Topology: payload}); err != nil {
		return nil, err
	}
	return tr, nil
}

// AddProcessorToTrack appends an already-registered processor to a
// track's chain, acknowledged by the audio thread.
func (e *Engine) AddProcessorToTrack(trackID, processorID uint32) error {
	payload := &rtevent.TopologyPayload{
		CorrelationID: uuid.New(),
		TrackID:       trackID,
		ProcessorID:   processorID,
	}
	return e.submitTopology(rtevent.Event{Kind: rtevent.KindAddProcessorToTrack, Topology: payload})
}

// RemoveTrack uninstalls a track from the audio thread's render order,
// deregistering every processor it carried (§9 Open Question 2).
func (e *Engine) RemoveTrack(trackID uint32) error {
	payload := &rtevent.TopologyPayload{CorrelationID: uuid.New(), TrackID: trackID}
	return e.submitTopology(rtevent.Event{Kind: rtevent.KindRemoveTrack, Topology: payload})
}

// RemoveProcessorFromTrack splices processorID out of trackID's chain,
// acknowledged by the audio thread. The processor stays registered; it
// is simply no longer rendered by this track.
func (e *Engine) RemoveProcessorFromTrack(trackID, processorID uint32) error {
	payload := &rtevent.TopologyPayload{
		CorrelationID: uuid.New(),
		TrackID:       trackID,
		ProcessorID:   processorID,
	}
	return e.submitTopology(rtevent.Event{Kind: rtevent.KindRemoveProcessorFromTrack, Topology: payload})
}

// RemoveProcessor uninstalls processorID from the audio thread and
// deregisters it. Callers must first remove it from any track still
// holding it, or the track will render against a nil RT slot.
func (e *Engine) RemoveProcessor(processorID uint32) error {
	name, ok := e.reg.NameOf(processorID)
	payload := &rtevent.TopologyPayload{CorrelationID: uuid.New(), ProcessorID: processorID}
	if err := e.submitTopology(rtevent.Event{Kind: rtevent.KindRemoveProcessor, Topology: payload}); err != nil {
		return err
	}
	if ok {
		e.reg.Deregister(name)
	}
	return nil
}

// ConnectAudioInputChannel routes engine input channel inputChannel into
// trackChannel of trackID's input buffer every block (§6
// connect_audio_input_channel).
func (e *Engine) ConnectAudioInputChannel(inputChannel, trackChannel int32, trackID uint32) error {
	if inputChannel < 0 || int(inputChannel) >= e.cfg.NumInputChannels {
		return ErrInvalidChannel
	}
	slot := e.findTrackSlot(trackID)
	if slot == nil {
		return ErrUnknownTrack
	}
	if trackChannel < 0 || int(trackChannel) >= slot.tr.NumInputChannels() {
		return ErrInvalidChannel
	}
	e.audioInRoutes = append(e.audioInRoutes, audioInRoute{engineChannel: inputChannel, trackChannel: trackChannel, trackID: trackID})
	return nil
}

// ConnectAudioOutputChannel routes trackChannel of trackID's rendered
// output into engine output channel outputChannel every block (§6
// connect_audio_output_channel).
func (e *Engine) ConnectAudioOutputChannel(outputChannel, trackChannel int32, trackID uint32) error {
	if outputChannel < 0 || int(outputChannel) >= e.cfg.NumOutputChannels {
		return ErrInvalidChannel
	}
	slot := e.findTrackSlot(trackID)
	if slot == nil {
		return ErrUnknownTrack
	}
	if trackChannel < 0 || int(trackChannel) >= slot.out.NumChannels() {
		return ErrInvalidChannel
	}
	e.audioOutRoutes = append(e.audioOutRoutes, audioOutRoute{trackChannel: trackChannel, engineChannel: outputChannel, trackID: trackID})
	return nil
}

// ConnectAudioInputBus connects both channels of a stereo input bus pair
// in one call: engine channels [inputBus*2, inputBus*2+1] to track
// channels [trackBus*2, trackBus*2+1] (§6 connect_audio_input_bus).
func (e *Engine) ConnectAudioInputBus(inputBus, trackBus int32, trackID uint32) error {
	if err := e.ConnectAudioInputChannel(inputBus*2, trackBus*2, trackID); err != nil {
		return err
	}
	return e.ConnectAudioInputChannel(inputBus*2+1, trackBus*2+1, trackID)
}

// ConnectAudioOutputBus connects both channels of a stereo output bus
// pair in one call (§6 connect_audio_output_bus).
func (e *Engine) ConnectAudioOutputBus(outputBus, trackBus int32, trackID uint32) error {
	if err := e.ConnectAudioOutputChannel(outputBus*2, trackBus*2, trackID); err != nil {
		return err
	}
	return e.ConnectAudioOutputChannel(outputBus*2+1, trackBus*2+1, trackID)
}

// ConnectCVToParameter routes CV input cvIndex to processorID's paramID,
// sampled once per block (§4.9).
func (e *Engine) ConnectCVToParameter(cvIndex int32, processorID, paramID uint32) {
	e.cvRoutes = append(e.cvRoutes, cvRoute{cvIndex: cvIndex, processorID: processorID, paramID: paramID})
}

// ConnectGateToProcessor routes gate-word bit gateBit to a note-on/off
// pair on processorID (§4.9).
func (e *Engine) ConnectGateToProcessor(gateBit int, processorID uint32, channel, note uint8) {
	e.gateRoutes = append(e.gateRoutes, gateRoute{gateBit: gateBit, processorID: processorID, channel: channel, note: note})
}

// Stats summarizes the engine's current runtime health for the control
// surface (§6).
type Stats struct {
	State              string
	CPULoadPercent     float64
	MainInDropped      uint64
	MainOutDropped     uint64
	ControlDropped     uint64
	DiagnosticsDropped uint64
	TrackCount         int
	RTProcessorSlots   int
}

// Stats reports current engine health.
func (e *Engine) Stats() Stats {
	e.trackMu.Lock()
	trackCount := len(e.trackOrder)
	e.trackMu.Unlock()

	return Stats{
		State:              e.State().String(),
		CPULoadPercent:     e.profiler.GetCPULoad(),
		MainInDropped:      e.mainIn.Dropped(),
		MainOutDropped:     e.mainOut.Dropped(),
		ControlDropped:     e.internalControl.Dropped(),
		DiagnosticsDropped: e.diagQueue.Dropped(),
		TrackCount:         trackCount,
		RTProcessorSlots:   e.reg.RTLen(),
	}
}

// WriteTimings renders the block-timing report for the profiler's
// ProcessAudio measurement (§6).
func (e *Engine) WriteTimings() string {
	return e.profiler.AudioReport()
}

// PollDiagnostics drains the audio thread's diagnostic queue into the
// structured logger. Intended to run on the control thread's poll tick
// alongside main_out draining (§4.11).
func (e *Engine) PollDiagnostics() {
	diag.LogAll(e.diagQueue)
}
