package main

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sipdoor/sipdoor-go/pkg/eventlog"
	"github.com/sipdoor/sipdoor-go/pkg/persistence"
)

func TestUsageCountersPersistAddressesAndCounts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	store := persistence.NewStateStore(path)
	counters := newUsageCounters(store, &persistence.DeviceState{})

	counters.Log(eventlog.NewAddressEvent("192.168.1.40", "192.168.1.1"))
	counters.Log(eventlog.NewButtonEvent(eventlog.SourceButton, "bell", 0))
	counters.Log(eventlog.NewButtonEvent(eventlog.SourceButton, "bell", 0))
	counters.Log(eventlog.NewStateEvent(eventlog.SourceActuator, "IDLE", "ACTIVE", ""))
	counters.Log(eventlog.NewStateEvent(eventlog.SourceSession, "REGISTERING", "REGISTERED", ""))

	counters.flush(slog.New(slog.NewTextHandler(io.Discard, nil)))

	state, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, "192.168.1.40", state.LastLocalAddr)
	assert.Equal(t, "192.168.1.1", state.LastServerAddr)
	assert.Equal(t, uint64(2), state.RingCount)
	assert.Equal(t, uint64(1), state.DoorOpenCount)
	assert.False(t, state.LastRegisteredAt.IsZero())
}

func TestUsageCountersRecordStaticServer(t *testing.T) {
	store := persistence.NewStateStore(filepath.Join(t.TempDir(), "state.json"))
	counters := newUsageCounters(store, &persistence.DeviceState{})

	counters.recordServer("192.168.1.10")
	assert.Equal(t, "192.168.1.10", counters.state.LastServerAddr)

	// A lease-acquired address without gateway routing keeps the
	// configured server.
	counters.Log(eventlog.NewAddressEvent("192.168.1.40", ""))
	assert.Equal(t, "192.168.1.40", counters.state.LastLocalAddr)
	assert.Equal(t, "192.168.1.10", counters.state.LastServerAddr)
}
