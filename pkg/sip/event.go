package sip

// EventType tags a session-level event.
type EventType uint8

const (
	// EventCallStart indicates the remote phone answered the ring.
	EventCallStart EventType = iota

	// EventCallCancelled indicates the outgoing ring was cancelled
	// before it was answered.
	EventCallCancelled

	// EventCallEnd indicates an established call terminated.
	EventCallEnd

	// EventButtonPress indicates a phone keypad press relayed through
	// the session (DTMF via SIP INFO).
	EventButtonPress

	// EventIncomingCall indicates an incoming invite (ring-through).
	EventIncomingCall
)

// String returns the event type name.
func (t EventType) String() string {
	switch t {
	case EventCallStart:
		return "CALL_START"
	case EventCallCancelled:
		return "CALL_CANCELLED"
	case EventCallEnd:
		return "CALL_END"
	case EventButtonPress:
		return "BUTTON_PRESS"
	case EventIncomingCall:
		return "INCOMING_CALL"
	default:
		return "UNKNOWN"
	}
}

// CancelReason explains why an outgoing ring was cancelled.
type CancelReason uint8

const (
	// ReasonNormal indicates the caller or ring timeout cancelled the call.
	ReasonNormal CancelReason = iota

	// ReasonDeclined indicates the remote phone declined the call.
	ReasonDeclined

	// ReasonServerError indicates the server rejected the call.
	ReasonServerError
)

// String returns the cancel reason name.
func (r CancelReason) String() string {
	switch r {
	case ReasonNormal:
		return "NORMAL"
	case ReasonDeclined:
		return "DECLINED"
	case ReasonServerError:
		return "SERVER_ERROR"
	default:
		return "UNKNOWN"
	}
}

// Event is a tagged session-level event delivered to the registered
// handler on the session worker.
type Event struct {
	// Type tags the event.
	Type EventType

	// CancelReason is set for EventCallCancelled.
	CancelReason CancelReason

	// ButtonSignal is the keypad signal for EventButtonPress.
	ButtonSignal byte

	// ButtonDuration is the press duration in milliseconds for
	// EventButtonPress.
	ButtonDuration uint16
}

// Handler receives session-level events. It is invoked synchronously on
// the session worker and must not block.
type Handler func(Event)
