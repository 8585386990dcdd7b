package actuator

import (
	"log/slog"
	"sync"
	"time"

	"github.com/sipdoor/sipdoor-go/pkg/eventlog"
)

// DefaultPulseDuration is how long the strike stays energized per trigger.
const DefaultPulseDuration = 3 * time.Second

// Line is an output line the actuator drives.
type Line interface {
	// Set drives the line high or low.
	Set(high bool) error
}

// Config configures the door strike handler.
type Config struct {
	// Enabled gates the actuator. A disabled handler ignores triggers.
	Enabled bool

	// PulseDuration is how long the strike stays energized.
	// Defaults to DefaultPulseDuration.
	PulseDuration time.Duration

	// ActiveHigh selects the energized line level.
	ActiveHigh bool

	// Logger for operational output. Defaults to slog.Default().
	Logger *slog.Logger

	// EventLog captures trigger events. Optional.
	EventLog eventlog.Logger
}

// Handler pulses the door strike line. Trigger is non-blocking and safe
// from any goroutine; a trigger during an active pulse restarts the
// pulse timer so the strike stays energized for a full duration from
// the latest request.
type Handler struct {
	line    Line
	cfg     Config
	logger  *slog.Logger
	capture eventlog.Logger

	mu     sync.Mutex
	timer  *time.Timer
	active bool
}

// NewHandler creates a door strike handler and drives the line to its
// idle level.
func NewHandler(line Line, cfg Config) (*Handler, error) {
	if cfg.PulseDuration <= 0 {
		cfg.PulseDuration = DefaultPulseDuration
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	capture := cfg.EventLog
	if capture == nil {
		capture = eventlog.NoopLogger{}
	}
	h := &Handler{
		line:    line,
		cfg:     cfg,
		logger:  logger,
		capture: capture,
	}
	if err := line.Set(!cfg.ActiveHigh); err != nil {
		return nil, err
	}
	return h, nil
}

// Trigger energizes the strike for the configured duration.
// Non-blocking; the release happens on a timer goroutine.
func (h *Handler) Trigger() {
	if !h.cfg.Enabled {
		h.logger.Debug("actuator disabled, ignoring trigger")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.timer != nil {
		h.timer.Stop()
	}
	if !h.active {
		if err := h.line.Set(h.cfg.ActiveHigh); err != nil {
			h.logger.Error("actuator line set failed", "err", err)
			h.capture.Log(eventlog.NewErrorEvent(eventlog.SourceActuator, err.Error(), "trigger"))
			return
		}
		h.active = true
	}
	h.timer = time.AfterFunc(h.cfg.PulseDuration, h.release)

	h.logger.Info("door strike energized", "duration", h.cfg.PulseDuration)
	h.capture.Log(eventlog.NewStateEvent(eventlog.SourceActuator, "IDLE", "ACTIVE", "trigger"))
}

func (h *Handler) release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.active {
		return
	}
	if err := h.line.Set(!h.cfg.ActiveHigh); err != nil {
		h.logger.Error("actuator line release failed", "err", err)
		h.capture.Log(eventlog.NewErrorEvent(eventlog.SourceActuator, err.Error(), "release"))
	}
	h.active = false
	h.timer = nil
	h.logger.Info("door strike released")
	h.capture.Log(eventlog.NewStateEvent(eventlog.SourceActuator, "ACTIVE", "IDLE", ""))
}

// Active reports whether the strike is currently energized.
func (h *Handler) Active() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active
}

// Close releases the strike and stops the pulse timer.
func (h *Handler) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
	if !h.active {
		return nil
	}
	h.active = false
	return h.line.Set(!h.cfg.ActiveHigh)
}
