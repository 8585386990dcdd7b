package gpio

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// ValuePath returns the sysfs value file for a GPIO pin.
func ValuePath(pin int) string {
	return filepath.Join("/sys/class/gpio", fmt.Sprintf("gpio%d", pin), "value")
}

// OutputLine drives a sysfs GPIO output.
type OutputLine struct {
	path string
}

// NewOutputLine opens an output line backed by the given value file.
func NewOutputLine(path string) (*OutputLine, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("gpio: output line %s: %w", path, err)
	}
	return &OutputLine{path: path}, nil
}

// Set drives the line high or low.
func (l *OutputLine) Set(high bool) error {
	value := []byte("0")
	if high {
		value = []byte("1")
	}
	if err := os.WriteFile(l.path, value, 0o644); err != nil {
		return fmt.Errorf("gpio: write %s: %w", l.path, err)
	}
	return nil
}

// DefaultPollInterval is the button sampling period.
const DefaultPollInterval = 20 * time.Millisecond

// DefaultDebounce is how long a level must hold to register.
const DefaultDebounce = 40 * time.Millisecond

// ButtonConfig configures an input button poller.
type ButtonConfig struct {
	// ActiveLow marks a button that reads 0 when pressed.
	ActiveLow bool

	// PollInterval is the sampling period. Defaults to DefaultPollInterval.
	PollInterval time.Duration

	// Debounce is how long a level must hold to register.
	// Defaults to DefaultDebounce.
	Debounce time.Duration

	// Logger for operational output. Defaults to slog.Default().
	Logger *slog.Logger
}

// InputButton polls a sysfs GPIO input and emits one event per press
// edge after debouncing.
type InputButton struct {
	path    string
	cfg     ButtonConfig
	logger  *slog.Logger
	presses chan struct{}
}

// NewInputButton opens a button backed by the given value file.
func NewInputButton(path string, cfg ButtonConfig) (*InputButton, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("gpio: input button %s: %w", path, err)
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &InputButton{
		path:    path,
		cfg:     cfg,
		logger:  cfg.Logger,
		presses: make(chan struct{}, 1),
	}, nil
}

// Presses returns the press event channel. A press that arrives while
// a previous one is still pending is dropped.
func (b *InputButton) Presses() <-chan struct{} {
	return b.presses
}

// Run polls the line until the context is cancelled.
func (b *InputButton) Run(ctx context.Context) {
	ticker := time.NewTicker(b.cfg.PollInterval)
	defer ticker.Stop()

	var (
		pressed      bool
		candidate    bool
		candidateAt  time.Time
		hasCandidate bool
	)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		level, err := b.read()
		if err != nil {
			b.logger.Warn("button read failed", "err", err)
			continue
		}
		active := level != b.cfg.ActiveLow

		if active == pressed {
			hasCandidate = false
			continue
		}
		if !hasCandidate || candidate != active {
			candidate = active
			candidateAt = time.Now()
			hasCandidate = true
			continue
		}
		if time.Since(candidateAt) < b.cfg.Debounce {
			continue
		}

		pressed = active
		hasCandidate = false
		if pressed {
			select {
			case b.presses <- struct{}{}:
			default:
			}
		}
	}
}

func (b *InputButton) read() (bool, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		return false, err
	}
	return len(bytes.TrimSpace(data)) > 0 && bytes.TrimSpace(data)[0] == '1', nil
}
