package actuator

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLine struct {
	mu     sync.Mutex
	high   bool
	states []bool
}

func (l *fakeLine) Set(high bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.high = high
	l.states = append(l.states, high)
	return nil
}

func (l *fakeLine) level() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.high
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTriggerPulse(t *testing.T) {
	line := &fakeLine{}
	h, err := NewHandler(line, Config{
		Enabled:       true,
		PulseDuration: 30 * time.Millisecond,
		ActiveHigh:    true,
		Logger:        discard(),
	})
	require.NoError(t, err)

	// Idle level is driven at construction.
	assert.False(t, line.level())

	h.Trigger()
	assert.True(t, h.Active())
	assert.True(t, line.level())

	assert.Eventually(t, func() bool { return !h.Active() },
		time.Second, 5*time.Millisecond)
	assert.False(t, line.level())
}

func TestRetriggerRestartsPulse(t *testing.T) {
	line := &fakeLine{}
	h, err := NewHandler(line, Config{
		Enabled:       true,
		PulseDuration: 60 * time.Millisecond,
		ActiveHigh:    true,
		Logger:        discard(),
	})
	require.NoError(t, err)

	h.Trigger()
	time.Sleep(40 * time.Millisecond)
	h.Trigger()

	// The first pulse would have ended by now; the restart keeps it live.
	time.Sleep(40 * time.Millisecond)
	assert.True(t, h.Active())

	assert.Eventually(t, func() bool { return !h.Active() },
		time.Second, 5*time.Millisecond)

	// Exactly one energize and one release despite two triggers.
	line.mu.Lock()
	defer line.mu.Unlock()
	assert.Equal(t, []bool{false, true, false}, line.states)
}

func TestDisabledIgnoresTrigger(t *testing.T) {
	line := &fakeLine{}
	h, err := NewHandler(line, Config{
		Enabled:    false,
		ActiveHigh: true,
		Logger:     discard(),
	})
	require.NoError(t, err)

	h.Trigger()
	assert.False(t, h.Active())
	assert.False(t, line.level())
}

func TestActiveLowPolarity(t *testing.T) {
	line := &fakeLine{}
	h, err := NewHandler(line, Config{
		Enabled:       true,
		PulseDuration: 20 * time.Millisecond,
		ActiveHigh:    false,
		Logger:        discard(),
	})
	require.NoError(t, err)

	// Idle is high for an active-low strike.
	assert.True(t, line.level())

	h.Trigger()
	assert.False(t, line.level())

	assert.Eventually(t, func() bool { return line.level() },
		time.Second, 5*time.Millisecond)
}

func TestCloseReleases(t *testing.T) {
	line := &fakeLine{}
	h, err := NewHandler(line, Config{
		Enabled:       true,
		PulseDuration: time.Minute,
		ActiveHigh:    true,
		Logger:        discard(),
	})
	require.NoError(t, err)

	h.Trigger()
	require.True(t, h.Active())

	require.NoError(t, h.Close())
	assert.False(t, h.Active())
	assert.False(t, line.level())
}
