package netlink

import (
	"sync"
	"testing"

	"github.com/sipdoor/sipdoor-go/pkg/eventlog"
)

// fakeDriver records Associate calls and lets tests inject notifications.
type fakeDriver struct {
	mu         sync.Mutex
	handler    Handler
	associates int
}

func (d *fakeDriver) Start(h Handler) error {
	d.mu.Lock()
	d.handler = h
	d.mu.Unlock()
	return nil
}

func (d *fakeDriver) Associate() {
	d.mu.Lock()
	d.associates++
	d.mu.Unlock()
}

func (d *fakeDriver) Stop() {}

func (d *fakeDriver) emit(ev Event) {
	d.mu.Lock()
	h := d.handler
	d.mu.Unlock()
	h(ev)
}

func (d *fakeDriver) associateCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.associates
}

// captureRecorder collects capture events for inspection.
type captureRecorder struct {
	mu     sync.Mutex
	events []eventlog.Event
}

func (r *captureRecorder) Log(ev eventlog.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *captureRecorder) all() []eventlog.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]eventlog.Event(nil), r.events...)
}

func TestMonitorStartedRequestsAssociation(t *testing.T) {
	drv := &fakeDriver{}
	m := NewMonitor(drv, NewReadiness(), func() {}, MonitorConfig{})
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	drv.emit(Event{Type: EventStarted})
	if got := drv.associateCalls(); got != 1 {
		t.Errorf("associate calls = %d, want 1", got)
	}
}

func TestMonitorDisconnectTearsDownThenClears(t *testing.T) {
	drv := &fakeDriver{}
	readiness := NewReadiness()
	readiness.Set()

	var order []string
	var mu sync.Mutex
	teardown := func() {
		mu.Lock()
		order = append(order, "teardown")
		mu.Unlock()
	}

	m := NewMonitor(drv, readiness, teardown, MonitorConfig{})
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	drv.emit(Event{Type: EventDisconnected})

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 1 || order[0] != "teardown" {
		t.Errorf("teardown calls = %v, want exactly one", order)
	}
	if readiness.IsSet() {
		t.Error("readiness still set after disconnect")
	}
	if got := drv.associateCalls(); got != 1 {
		t.Errorf("associate calls = %d, want 1 (no auto-reassociation)", got)
	}
}

func TestMonitorAddressAcquiredSetsReadinessAndPublishes(t *testing.T) {
	drv := &fakeDriver{}
	readiness := NewReadiness()
	capture := &captureRecorder{}
	m := NewMonitor(drv, readiness, func() {}, MonitorConfig{
		ServerIsGateway: true,
		EventLog:        capture,
	})
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	drv.emit(Event{
		Type:        EventAddressAcquired,
		LocalAddr:   "192.168.1.50",
		GatewayAddr: "192.168.1.1",
	})

	if !readiness.IsSet() {
		t.Fatal("readiness not set after address acquired")
	}

	select {
	case u := <-m.Updates():
		if u.LocalAddr != "192.168.1.50" {
			t.Errorf("LocalAddr = %q, want 192.168.1.50", u.LocalAddr)
		}
		if u.ServerAddr != "192.168.1.1" {
			t.Errorf("ServerAddr = %q, want gateway when ServerIsGateway", u.ServerAddr)
		}
	default:
		t.Fatal("no address update published")
	}

	// The acquisition is recorded with its addresses.
	events := capture.all()
	if len(events) != 1 || events[0].Address == nil {
		t.Fatalf("capture events = %+v, want one address event", events)
	}
	if events[0].Address.LocalAddr != "192.168.1.50" {
		t.Errorf("captured LocalAddr = %q, want 192.168.1.50", events[0].Address.LocalAddr)
	}
	if events[0].Address.ServerAddr != "192.168.1.1" {
		t.Errorf("captured ServerAddr = %q, want 192.168.1.1", events[0].Address.ServerAddr)
	}
}

func TestMonitorAddressUpdateLatestWins(t *testing.T) {
	drv := &fakeDriver{}
	m := NewMonitor(drv, NewReadiness(), func() {}, MonitorConfig{})
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Two acquisitions without a consumer: the stale one is replaced.
	drv.emit(Event{Type: EventAddressAcquired, LocalAddr: "10.0.0.5"})
	drv.emit(Event{Type: EventAddressAcquired, LocalAddr: "10.0.0.9"})

	select {
	case u := <-m.Updates():
		if u.LocalAddr != "10.0.0.9" {
			t.Errorf("LocalAddr = %q, want latest 10.0.0.9", u.LocalAddr)
		}
	default:
		t.Fatal("no address update published")
	}

	select {
	case u := <-m.Updates():
		t.Errorf("unexpected second update %+v", u)
	default:
	}
}

func TestMonitorServerAddrOmittedWithoutGatewayRouting(t *testing.T) {
	drv := &fakeDriver{}
	m := NewMonitor(drv, NewReadiness(), func() {}, MonitorConfig{})
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	drv.emit(Event{
		Type:        EventAddressAcquired,
		LocalAddr:   "192.168.1.50",
		GatewayAddr: "192.168.1.1",
	})

	u := <-m.Updates()
	if u.ServerAddr != "" {
		t.Errorf("ServerAddr = %q, want empty without ServerIsGateway", u.ServerAddr)
	}
}
