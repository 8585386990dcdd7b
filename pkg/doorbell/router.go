package doorbell

import (
	"log/slog"

	"github.com/sipdoor/sipdoor-go/pkg/eventlog"
	"github.com/sipdoor/sipdoor-go/pkg/sip"
)

// Bell is the button loop surface the router forwards to.
// Both methods are non-blocking.
type Bell interface {
	CallEnd()
	ReceiveCall()
}

// DoorOpener is the actuator surface the router forwards to.
// Trigger is non-blocking.
type DoorOpener interface {
	Trigger()
}

// RouterConfig configures the session event router.
type RouterConfig struct {
	// TriggerSignal is the phone keypad signal that opens the door.
	// Only the first character is significant.
	TriggerSignal string

	// Logger for operational output. Defaults to slog.Default().
	Logger *slog.Logger

	// EventLog captures routed events. Optional.
	EventLog eventlog.Logger
}

// Router dispatches session events to the bell loop and the actuator.
// Handle runs synchronously on the session worker and never blocks:
// both collaborators expose non-blocking hand-offs.
type Router struct {
	bell    Bell
	opener  DoorOpener
	trigger byte
	logger  *slog.Logger
	capture eventlog.Logger
}

// NewRouter creates a session event router.
func NewRouter(bell Bell, opener DoorOpener, cfg RouterConfig) *Router {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	capture := cfg.EventLog
	if capture == nil {
		capture = eventlog.NoopLogger{}
	}
	var trigger byte
	if cfg.TriggerSignal != "" {
		trigger = cfg.TriggerSignal[0]
	}
	return &Router{
		bell:    bell,
		opener:  opener,
		trigger: trigger,
		logger:  logger,
		capture: capture,
	}
}

// Handle routes one session event. It is the sip.Handler bound to the
// session after each successful init.
func (r *Router) Handle(ev sip.Event) {
	switch ev.Type {
	case sip.EventCallStart:
		// Informational; the ring indication ends on call end.
		r.logger.Info("call started")

	case sip.EventCallCancelled:
		r.logger.Info("call cancelled", "reason", ev.CancelReason)
		r.bell.CallEnd()

	case sip.EventCallEnd:
		r.logger.Info("call ended")
		r.bell.CallEnd()

	case sip.EventButtonPress:
		if r.trigger != 0 && ev.ButtonSignal == r.trigger {
			r.logger.Info("door open signal received",
				"signal", string(ev.ButtonSignal), "duration_ms", ev.ButtonDuration)
			r.opener.Trigger()
			return
		}
		// Unrecognized signals are accepted and ignored.
		r.logger.Debug("ignoring keypad signal", "signal", string(ev.ButtonSignal))

	case sip.EventIncomingCall:
		r.logger.Info("incoming call")
		r.bell.ReceiveCall()
	}
}
