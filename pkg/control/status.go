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
)

// StatusCode is the closed result enumeration returned by every
// control-API operation.
type StatusCode int

const (
	OK StatusCode = iota
	ERROR
	InvalidPluginName
	InvalidPluginUID
	InvalidProcessor
	InvalidParameter
	InvalidTrack
	InvalidChannel
	InvalidNChannels
	QueueFull
)

func (s StatusCode) String() string {
	switch s {
	case OK:
		return "OK"
	case ERROR:
		return "ERROR"
	case InvalidPluginName:
		return "INVALID_PLUGIN_NAME"
	case InvalidPluginUID:
		return "INVALID_PLUGIN_UID"
	case InvalidProcessor:
		return "INVALID_PROCESSOR"
	case InvalidParameter:
		return "INVALID_PARAMETER"
	case InvalidTrack:
		return "INVALID_TRACK"
	case InvalidChannel:
		return "INVALID_CHANNEL"
	case InvalidNChannels:
		return "INVALID_N_CHANNELS"
	case QueueFull:
		return "QUEUE_FULL"
	default:
		return "UNKNOWN"
	}
}

// ctxError wraps a StatusCode as an error, carrying a message describing
// which operation/argument failed and, optionally, the underlying
// engine/registry error it was translated from. Callers recover the
// code with the Status helper, or compare against one of the sentinels
// below with errors.Is.
type ctxError struct {
	code  StatusCode
	msg   string
	cause error
}

func (e *ctxError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.cause)
	}
	return e.msg
}

func (e *ctxError) Unwrap() error { return e.cause }

// Is lets errors.Is(err, control.ErrInvalidTrack) work directly against
// one of the sentinels below, matching on code rather than identity.
func (e *ctxError) Is(target error) bool {
	if other, ok := target.(*ctxError); ok {
		return e.code == other.code
	}
	return false
}

func (e *ctxError) Code() StatusCode { return e.code }

// withCause attaches err as the underlying cause, for operations that
// wrap a registry/engine failure rather than detecting one directly.
func (e *ctxError) withCause(err error) *ctxError {
	e.cause = err
	return e
}

// Sentinels, one per non-OK code, for use with errors.Is. Each carries
// no cause of its own — only the code matters for comparison.
var (
	ErrGeneric           = &ctxError{code: ERROR, msg: "control: error"}
	ErrInvalidPluginName = &ctxError{code: InvalidPluginName, msg: "control: invalid plugin name"}
	ErrInvalidPluginUID  = &ctxError{code: InvalidPluginUID, msg: "control: invalid plugin uid"}
	ErrInvalidProcessor  = &ctxError{code: InvalidProcessor, msg: "control: invalid processor"}
	ErrInvalidParameter  = &ctxError{code: InvalidParameter, msg: "control: invalid parameter"}
	ErrInvalidTrack      = &ctxError{code: InvalidTrack, msg: "control: invalid track"}
	ErrInvalidChannel    = &ctxError{code: InvalidChannel, msg: "control: invalid channel"}
	ErrInvalidNChannels  = &ctxError{code: InvalidNChannels, msg: "control: invalid channel count"}
	ErrQueueFull         = &ctxError{code: QueueFull, msg: "control: queue full"}
)

// newStatusError builds a ctxError carrying code and a formatted
// message describing which operation/argument failed. Call .withCause
// on the result to additionally wrap an underlying error.
func newStatusError(code StatusCode, format string, args ...interface{}) *ctxError {
	return &ctxError{code: code, msg: fmt.Sprintf(format, args...)}
}

// Status recovers the StatusCode carried by an error returned from this
// package. A nil error maps to OK; any error not produced by this
// package maps to ERROR.
func Status(err error) StatusCode {
	if err == nil {
		return OK
	}
	var ce *ctxError
	if errors.As(err, &ce) {
		return ce.code
	}
	return ERROR
}
