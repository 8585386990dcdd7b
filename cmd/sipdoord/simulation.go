package main

import (
	"log/slog"
	"sync"

	"github.com/sipdoor/sipdoor-go/pkg/netlink"
)

// simDriver is a link driver controlled from the interactive console.
type simDriver struct {
	mu      sync.Mutex
	handler netlink.Handler
}

func newSimDriver() *simDriver {
	return &simDriver{}
}

func (d *simDriver) Start(h netlink.Handler) error {
	d.mu.Lock()
	d.handler = h
	d.mu.Unlock()
	h(netlink.Event{Type: netlink.EventStarted})
	return nil
}

func (d *simDriver) Associate() {}

func (d *simDriver) Stop() {
	d.mu.Lock()
	d.handler = nil
	d.mu.Unlock()
}

// LinkUp simulates an address acquisition.
func (d *simDriver) LinkUp(local, gateway string) {
	d.emit(netlink.Event{
		Type:        netlink.EventAddressAcquired,
		LocalAddr:   local,
		GatewayAddr: gateway,
	})
}

// LinkDown simulates a link loss.
func (d *simDriver) LinkDown() {
	d.emit(netlink.Event{Type: netlink.EventDisconnected})
}

func (d *simDriver) emit(ev netlink.Event) {
	d.mu.Lock()
	h := d.handler
	d.mu.Unlock()
	if h != nil {
		h(ev)
	}
}

// simLine is a strike output line that only logs level changes.
type simLine struct {
	logger *slog.Logger
}

func newSimLine(logger *slog.Logger) *simLine {
	return &simLine{logger: logger}
}

func (l *simLine) Set(high bool) error {
	l.logger.Info("strike line", "high", high)
	return nil
}
