package main

import (
	"log/slog"
	"sync"

	"github.com/sipdoor/sipdoor-go/pkg/eventlog"
	"github.com/sipdoor/sipdoor-go/pkg/persistence"
)

// usageCounters tracks lifetime ring and door-open counts plus the
// last known addresses by observing the event capture stream, and
// persists them on shutdown.
type usageCounters struct {
	store *persistence.StateStore

	mu    sync.Mutex
	state *persistence.DeviceState
	dirty bool
}

func newUsageCounters(store *persistence.StateStore, state *persistence.DeviceState) *usageCounters {
	return &usageCounters{store: store, state: state}
}

// Log implements eventlog.Logger.
func (c *usageCounters) Log(event eventlog.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case event.Source == eventlog.SourceButton && event.Button != nil:
		c.state.RingCount++
		c.dirty = true
	case event.Source == eventlog.SourceActuator && event.State != nil &&
		event.State.NewState == "ACTIVE":
		c.state.DoorOpenCount++
		c.dirty = true
	case event.Source == eventlog.SourceSession && event.State != nil &&
		event.State.NewState == "REGISTERED":
		c.state.LastRegisteredAt = event.Timestamp
		c.dirty = true
	case event.Source == eventlog.SourceLink && event.Address != nil:
		c.state.LastLocalAddr = event.Address.LocalAddr
		if event.Address.ServerAddr != "" {
			c.state.LastServerAddr = event.Address.ServerAddr
		}
		c.dirty = true
	}
}

// recordServer notes the SIP server address in use for this boot.
// Static and discovered servers never appear in link address events.
func (c *usageCounters) recordServer(addr string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if addr != "" && addr != c.state.LastServerAddr {
		c.state.LastServerAddr = addr
		c.dirty = true
	}
}

// flush persists the counters if anything changed since the last save.
func (c *usageCounters) flush(logger *slog.Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty {
		return
	}
	if err := c.store.Save(c.state); err != nil {
		logger.Warn("saving device state failed", "err", err)
		return
	}
	c.dirty = false
}
