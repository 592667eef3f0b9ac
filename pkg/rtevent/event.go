// Package rtevent defines the fixed-size tagged-union event record that
// crosses the boundary between non-real-time and real-time code.
//
// Every variant is a plain value (no pointers into growable slices, no
// maps) so that copying an Event is cheap and safe to do on the audio
// thread. Pointer-valued payloads (string/blob parameter changes,
// topology mutations) carry a pointer the RT side treats as opaque and
// never dereferences except to install it into a pre-sized slot.
package rtevent

import "github.com/google/uuid"

// Kind tags which field of the Event union is meaningful.
type Kind uint8

const (
	KindNoteOn Kind = iota
	KindNoteOff
	KindAftertouch

	KindParamBool
	KindParamInt
	KindParamFloat
	KindParamString
	KindParamBlob

	KindTempo
	KindTimeSignature
	KindPlayingMode
	KindSyncMode

	KindInsertProcessor
	KindRemoveProcessor
	KindAddProcessorToTrack
	KindRemoveProcessorFromTrack
	KindAddTrack
	KindRemoveTrack
	KindStopEngine

	KindClipNotification
	KindAsyncWorkDone
	KindSyncMarker
	KindCV
	KindGate
)

// PlayingMode mirrors the transport's playing-mode enumeration.
type PlayingMode uint8

const (
	PlayingStopped PlayingMode = iota
	PlayingPlaying
	PlayingRecording
)

// SyncMode mirrors the transport's tempo-sync-mode enumeration.
type SyncMode uint8

const (
	SyncInternal SyncMode = iota
	SyncMIDI
	SyncLink
	SyncGate
)

// Direction distinguishes input/output for clip notifications.
type Direction uint8

const (
	DirectionInput Direction = iota
	DirectionOutput
)

// TopologyPayload carries the data needed to perform a topology mutation.
// It is only read by the audio thread while handling the event that
// carries it.
type TopologyPayload struct {
	CorrelationID  uuid.UUID
	ProcessorID    uint32
	ProcessorName  string
	TrackID        uint32
	TrackName      string
	Processor      interface{} // concrete *processor handle; opaque to the RT plane
	ChannelCount   int32
	InputBusses    int32
	OutputBusses   int32
	Handled        bool
	Accepted       bool
}

// Event is the fixed-size tagged union carried by the RT FIFO.
type Event struct {
	Kind         Kind
	SampleOffset int32
	ProcessorID  uint32

	// Note / aftertouch payload
	Channel  uint8
	Note     uint8
	Velocity uint8

	// Parameter-change payload
	ParamID     uint32
	BoolValue   bool
	IntValue    int64
	FloatValue  float64
	StringValue *string
	BlobValue   *[]byte

	// Transport payload
	Tempo         float64
	TimeSigNum    int32
	TimeSigDenom  int32
	Playing       PlayingMode
	Sync          SyncMode

	// Notification payload
	ClipChannel    int32
	ClipDirection  Direction
	MusicalBeats   float64
	MusicalBar     int32
	SamplePosition int64
	WorkToken      uint64

	// CV / gate payload
	CVIndex   int32
	CVValue   float64
	GateIndex int32
	GateState bool

	// Topology payload (pointer so the fixed-size struct above stays cheap
	// to copy; the pointee is allocated off the audio thread before the
	// event is enqueued and never reallocated while in flight)
	Topology *TopologyPayload
}

// NoteOn builds a note-on event.
func NoteOn(processorID uint32, offset int32, channel, note, velocity uint8) Event {
	return Event{Kind: KindNoteOn, ProcessorID: processorID, SampleOffset: offset, Channel: channel, Note: note, Velocity: velocity}
}

// NoteOff builds a note-off event.
func NoteOff(processorID uint32, offset int32, channel, note, velocity uint8) Event {
	return Event{Kind: KindNoteOff, ProcessorID: processorID, SampleOffset: offset, Channel: channel, Note: note, Velocity: velocity}
}

// ParamFloat builds a normalized float parameter-change event.
func ParamFloat(processorID uint32, offset int32, paramID uint32, value float64) Event {
	return Event{Kind: KindParamFloat, ProcessorID: processorID, SampleOffset: offset, ParamID: paramID, FloatValue: value}
}

// SyncMarker builds the block-boundary synchronisation marker pushed onto main_out.
func SyncMarker(beats float64, bar int32, samplePos int64) Event {
	return Event{Kind: KindSyncMarker, MusicalBeats: beats, MusicalBar: bar, SamplePosition: samplePos}
}

// Clip builds a clip-notification event.
func Clip(channel int32, direction Direction) Event {
	return Event{Kind: KindClipNotification, ClipChannel: channel, ClipDirection: direction}
}

// TempoEvent builds a tempo-change event for the control thread to push
// onto main_in.
func TempoEvent(bpm float64) Event {
	return Event{Kind: KindTempo, Tempo: bpm}
}

// TimeSignatureEvent builds a time-signature-change event.
func TimeSignatureEvent(num, denom int32) Event {
	return Event{Kind: KindTimeSignature, TimeSigNum: num, TimeSigDenom: denom}
}

// PlayingModeEvent builds a transport playing-mode change event.
func PlayingModeEvent(mode PlayingMode) Event {
	return Event{Kind: KindPlayingMode, Playing: mode}
}

// SyncModeEvent builds a tempo-sync-mode change event.
func SyncModeEvent(mode SyncMode) Event {
	return Event{Kind: KindSyncMode, Sync: mode}
}

// NewCorrelationID returns a fresh correlation id for a topology event.
func NewCorrelationID() uuid.UUID {
	return uuid.New()
}
