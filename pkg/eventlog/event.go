package eventlog

import (
	"time"
)

// Event is one captured doorbell event.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// Source is the subsystem that emitted the event.
	Source Source `cbor:"2,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"3,keyasint"`

	// Type-specific payload (exactly one is set).
	State   *StateChangeEvent `cbor:"4,keyasint,omitempty"`
	Call    *CallEvent        `cbor:"5,keyasint,omitempty"`
	Button  *ButtonEvent      `cbor:"6,keyasint,omitempty"`
	Error   *ErrorEvent       `cbor:"7,keyasint,omitempty"`
	Address *AddressEvent     `cbor:"8,keyasint,omitempty"`
}

// Source identifies the emitting subsystem.
type Source uint8

const (
	// SourceLink is the wireless link / connectivity monitor.
	SourceLink Source = 0
	// SourceSession is the telephony session.
	SourceSession Source = 1
	// SourceButton is the bell button loop.
	SourceButton Source = 2
	// SourceActuator is the door-strike actuator.
	SourceActuator Source = 3
)

// String returns the source name.
func (s Source) String() string {
	switch s {
	case SourceLink:
		return "LINK"
	case SourceSession:
		return "SESSION"
	case SourceButton:
		return "BUTTON"
	case SourceActuator:
		return "ACTUATOR"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryState indicates a state change.
	CategoryState Category = 0
	// CategoryCall indicates call lifecycle activity.
	CategoryCall Category = 1
	// CategoryButton indicates physical or phone button activity.
	CategoryButton Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryState:
		return "STATE"
	case CategoryCall:
		return "CALL"
	case CategoryButton:
		return "BUTTON"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// StateChangeEvent captures a subsystem state transition.
type StateChangeEvent struct {
	OldState string `cbor:"1,keyasint"`
	NewState string `cbor:"2,keyasint"`
	Reason   string `cbor:"3,keyasint,omitempty"`
}

// CallKind identifies a call lifecycle event.
type CallKind uint8

const (
	// CallStarted indicates the remote phone answered.
	CallStarted CallKind = 0
	// CallCancelled indicates the ring attempt was cancelled.
	CallCancelled CallKind = 1
	// CallEnded indicates the call terminated.
	CallEnded CallKind = 2
	// CallIncoming indicates an incoming ring-through invite.
	CallIncoming CallKind = 3
)

// String returns the call kind name.
func (k CallKind) String() string {
	switch k {
	case CallStarted:
		return "STARTED"
	case CallCancelled:
		return "CANCELLED"
	case CallEnded:
		return "ENDED"
	case CallIncoming:
		return "INCOMING"
	default:
		return "UNKNOWN"
	}
}

// CallEvent captures call lifecycle activity.
type CallEvent struct {
	Kind   CallKind `cbor:"1,keyasint"`
	CallID string   `cbor:"2,keyasint,omitempty"`
	Reason string   `cbor:"3,keyasint,omitempty"`
}

// ButtonEvent captures button activity: a phone keypad press relayed
// through the session, or the physical bell button.
type ButtonEvent struct {
	// Signal is the button signal as a string ("#", "5", "bell").
	Signal string `cbor:"1,keyasint"`

	// DurationMS is the press duration in milliseconds, if known.
	DurationMS uint32 `cbor:"2,keyasint,omitempty"`
}

// AddressEvent captures acquired link address configuration. The link
// coming up is recorded through this payload; ServerAddr is set only
// when the SIP server address rides on the lease (gateway routing).
type AddressEvent struct {
	LocalAddr  string `cbor:"1,keyasint,omitempty"`
	ServerAddr string `cbor:"2,keyasint,omitempty"`
}

// ErrorEvent captures an error with its context.
type ErrorEvent struct {
	Message string `cbor:"1,keyasint"`
	Context string `cbor:"2,keyasint,omitempty"`
}

// NewStateEvent builds a state change event stamped with the current time.
func NewStateEvent(source Source, oldState, newState, reason string) Event {
	return Event{
		Timestamp: time.Now(),
		Source:    source,
		Category:  CategoryState,
		State: &StateChangeEvent{
			OldState: oldState,
			NewState: newState,
			Reason:   reason,
		},
	}
}

// NewCallEvent builds a call lifecycle event stamped with the current time.
func NewCallEvent(source Source, kind CallKind, callID, reason string) Event {
	return Event{
		Timestamp: time.Now(),
		Source:    source,
		Category:  CategoryCall,
		Call: &CallEvent{
			Kind:   kind,
			CallID: callID,
			Reason: reason,
		},
	}
}

// NewButtonEvent builds a button event stamped with the current time.
func NewButtonEvent(source Source, signal string, durationMS uint32) Event {
	return Event{
		Timestamp: time.Now(),
		Source:    source,
		Category:  CategoryButton,
		Button: &ButtonEvent{
			Signal:     signal,
			DurationMS: durationMS,
		},
	}
}

// NewAddressEvent builds a link address acquisition event stamped with
// the current time.
func NewAddressEvent(localAddr, serverAddr string) Event {
	return Event{
		Timestamp: time.Now(),
		Source:    SourceLink,
		Category:  CategoryState,
		Address: &AddressEvent{
			LocalAddr:  localAddr,
			ServerAddr: serverAddr,
		},
	}
}

// NewErrorEvent builds an error event stamped with the current time.
func NewErrorEvent(source Source, message, context string) Event {
	return Event{
		Timestamp: time.Now(),
		Source:    source,
		Category:  CategoryError,
		Error: &ErrorEvent{
			Message: message,
			Context: context,
		},
	}
}
