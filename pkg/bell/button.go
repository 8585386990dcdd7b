package bell

import (
	"context"
	"log/slog"
	"time"

	"github.com/sipdoor/sipdoor-go/pkg/eventlog"
)

// DefaultRingTimeout bounds how long an unanswered ring keeps going.
const DefaultRingTimeout = 30 * time.Second

// Ringer is the telephony session surface the button loop drives.
// Both methods are non-blocking.
type Ringer interface {
	StartRing()
	CancelRing()
}

// ringState tracks the button loop's view of the call.
type ringState uint8

const (
	stateIdle ringState = iota
	stateRinging
)

func (s ringState) String() string {
	switch s {
	case stateIdle:
		return "IDLE"
	case stateRinging:
		return "RINGING"
	default:
		return "UNKNOWN"
	}
}

// Config configures the button loop.
type Config struct {
	// RingTimeout bounds an unanswered ring. Defaults to DefaultRingTimeout.
	RingTimeout time.Duration

	// Logger for operational output. Defaults to slog.Default().
	Logger *slog.Logger

	// EventLog captures button and state events. Optional.
	EventLog eventlog.Logger
}

// ButtonHandler is the doorbell button loop.
type ButtonHandler struct {
	ringer  Ringer
	presses <-chan struct{}
	cfg     Config
	logger  *slog.Logger
	capture eventlog.Logger

	// Session-side notifications. Capacity one, latest wins.
	callEnd  chan struct{}
	incoming chan struct{}

	state ringState // owned by Run
}

// NewButtonHandler creates the button loop. Presses arrive on the given
// channel, typically fed by a gpio input poller.
func NewButtonHandler(ringer Ringer, presses <-chan struct{}, cfg Config) *ButtonHandler {
	if cfg.RingTimeout <= 0 {
		cfg.RingTimeout = DefaultRingTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	capture := cfg.EventLog
	if capture == nil {
		capture = eventlog.NoopLogger{}
	}
	return &ButtonHandler{
		ringer:   ringer,
		presses:  presses,
		cfg:      cfg,
		logger:   logger,
		capture:  capture,
		callEnd:  make(chan struct{}, 1),
		incoming: make(chan struct{}, 1),
	}
}

// CallEnd notifies the loop that the call ended or the ring was
// cancelled. Non-blocking; safe from the session worker.
func (b *ButtonHandler) CallEnd() {
	notify(b.callEnd)
}

// ReceiveCall notifies the loop of an incoming ring-through invite.
// Non-blocking; safe from the session worker.
func (b *ButtonHandler) ReceiveCall() {
	notify(b.incoming)
}

func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// Run processes button presses and session notifications until the
// context is cancelled. It must be the only goroutine entering Run.
func (b *ButtonHandler) Run(ctx context.Context) {
	ringTimer := time.NewTimer(b.cfg.RingTimeout)
	if !ringTimer.Stop() {
		<-ringTimer.C
	}
	defer ringTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			if b.state == stateRinging {
				b.ringer.CancelRing()
			}
			return

		case <-b.presses:
			b.handlePress(ringTimer)

		case <-ringTimer.C:
			if b.state == stateRinging {
				b.logger.Info("ring timed out")
				b.ringer.CancelRing()
				b.transition(stateIdle, "ring timeout")
			}

		case <-b.callEnd:
			stopTimer(ringTimer)
			b.transition(stateIdle, "call end")

		case <-b.incoming:
			b.logger.Info("incoming ring-through")
			b.capture.Log(eventlog.NewCallEvent(eventlog.SourceButton, eventlog.CallIncoming, "", ""))
		}
	}
}

func (b *ButtonHandler) handlePress(ringTimer *time.Timer) {
	b.capture.Log(eventlog.NewButtonEvent(eventlog.SourceButton, "bell", 0))

	switch b.state {
	case stateIdle:
		b.logger.Info("bell button pressed, ringing")
		b.ringer.StartRing()
		stopTimer(ringTimer)
		ringTimer.Reset(b.cfg.RingTimeout)
		b.transition(stateRinging, "button press")

	case stateRinging:
		// A second press while ringing takes the ring back.
		b.logger.Info("bell button pressed, cancelling ring")
		b.ringer.CancelRing()
		stopTimer(ringTimer)
		b.transition(stateIdle, "button press")
	}
}

func (b *ButtonHandler) transition(next ringState, reason string) {
	if b.state == next {
		return
	}
	b.capture.Log(eventlog.NewStateEvent(eventlog.SourceButton,
		b.state.String(), next.String(), reason))
	b.state = next
}

func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}
