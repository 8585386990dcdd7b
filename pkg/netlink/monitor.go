package netlink

import (
	"log/slog"

	"github.com/sipdoor/sipdoor-go/pkg/eventlog"
)

// AddressUpdate carries acquired address configuration from the driver
// context to the session lifecycle worker. ServerAddr is empty unless
// the SIP server is the DHCP gateway.
type AddressUpdate struct {
	LocalAddr  string
	ServerAddr string
}

// Teardown tears down the live telephony session on link loss.
// It must be idempotent and safe to invoke from the driver context
// concurrently with the session worker.
type Teardown func()

// MonitorConfig configures the connectivity monitor.
type MonitorConfig struct {
	// ServerIsGateway routes the acquired gateway address to the
	// session's server address, for installations where the SIP server
	// runs on the router handing out leases.
	ServerIsGateway bool

	// Logger for operational output. Defaults to slog.Default().
	Logger *slog.Logger

	// EventLog captures link state events. Optional.
	EventLog eventlog.Logger
}

// Monitor turns link driver notifications into a readiness signal and
// address configuration for the telephony session.
//
// All handling runs on the driver's delivery context and never blocks:
// teardown is delegated to the session's Deinit (required to be
// non-blocking and idempotent) and address configuration is published
// through a latest-wins queue.
type Monitor struct {
	driver    Driver
	readiness *Readiness
	teardown  Teardown
	cfg       MonitorConfig

	updates chan AddressUpdate
	logger  *slog.Logger
	capture eventlog.Logger
}

// NewMonitor creates a connectivity monitor. The teardown hook is invoked
// on every disconnect notification, regardless of prior session state.
func NewMonitor(driver Driver, readiness *Readiness, teardown Teardown, cfg MonitorConfig) *Monitor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	capture := cfg.EventLog
	if capture == nil {
		capture = eventlog.NoopLogger{}
	}
	return &Monitor{
		driver:    driver,
		readiness: readiness,
		teardown:  teardown,
		cfg:       cfg,
		updates:   make(chan AddressUpdate, 1),
		logger:    logger,
		capture:   capture,
	}
}

// Start begins link supervision. A failure here aborts process start-up.
func (m *Monitor) Start() error {
	return m.driver.Start(m.handleEvent)
}

// Stop stops link supervision.
func (m *Monitor) Stop() {
	m.driver.Stop()
}

// Updates returns the single-consumer address configuration queue.
// The session lifecycle worker drains it before each init attempt.
func (m *Monitor) Updates() <-chan AddressUpdate {
	return m.updates
}

// handleEvent runs on the driver's context and must never block.
func (m *Monitor) handleEvent(ev Event) {
	switch ev.Type {
	case EventStarted:
		m.logger.Info("link started, associating")
		m.driver.Associate()

	case EventDisconnected:
		m.logger.Warn("link disconnected")
		m.teardown()
		// This class of hardware does not auto-reassociate.
		m.driver.Associate()
		m.readiness.Clear()
		m.capture.Log(eventlog.NewStateEvent(eventlog.SourceLink, "UP", "DOWN", "disconnected"))

	case EventAddressAcquired:
		m.logger.Info("address acquired",
			"local", ev.LocalAddr, "gateway", ev.GatewayAddr)
		update := AddressUpdate{LocalAddr: ev.LocalAddr}
		if m.cfg.ServerIsGateway {
			update.ServerAddr = ev.GatewayAddr
		}
		m.publish(update)
		m.readiness.Set()
		m.capture.Log(eventlog.NewAddressEvent(ev.LocalAddr, update.ServerAddr))
	}
}

// publish replaces any stale pending update so the consumer always sees
// the latest known address. Never blocks.
func (m *Monitor) publish(u AddressUpdate) {
	for {
		select {
		case m.updates <- u:
			return
		default:
			select {
			case <-m.updates:
			default:
			}
		}
	}
}
