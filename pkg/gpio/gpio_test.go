package gpio

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func valueFile(t *testing.T, initial string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "value")
	require.NoError(t, os.WriteFile(path, []byte(initial), 0o644))
	return path
}

func TestOutputLine(t *testing.T) {
	path := valueFile(t, "0")
	line, err := NewOutputLine(path)
	require.NoError(t, err)

	require.NoError(t, line.Set(true))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1", string(data))

	require.NoError(t, line.Set(false))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "0", string(data))
}

func TestOutputLineMissing(t *testing.T) {
	_, err := NewOutputLine(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

func TestInputButtonPressEdge(t *testing.T) {
	path := valueFile(t, "0\n")
	button, err := NewInputButton(path, ButtonConfig{
		PollInterval: 2 * time.Millisecond,
		Debounce:     6 * time.Millisecond,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go button.Run(ctx)

	// Hold the press long enough to clear the debounce window.
	require.NoError(t, os.WriteFile(path, []byte("1\n"), 0o644))

	select {
	case <-button.Presses():
	case <-time.After(time.Second):
		t.Fatal("press edge not detected")
	}

	// Release, then press again: a second event.
	require.NoError(t, os.WriteFile(path, []byte("0\n"), 0o644))
	time.Sleep(30 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("1\n"), 0o644))

	select {
	case <-button.Presses():
	case <-time.After(time.Second):
		t.Fatal("second press edge not detected")
	}
}

func TestInputButtonActiveLow(t *testing.T) {
	path := valueFile(t, "1\n")
	button, err := NewInputButton(path, ButtonConfig{
		ActiveLow:    true,
		PollInterval: 2 * time.Millisecond,
		Debounce:     6 * time.Millisecond,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go button.Run(ctx)

	require.NoError(t, os.WriteFile(path, []byte("0\n"), 0o644))

	select {
	case <-button.Presses():
	case <-time.After(time.Second):
		t.Fatal("active-low press not detected")
	}
}
