package doorbell

import (
	"context"
	"log/slog"
	"time"

	"github.com/sipdoor/sipdoor-go/pkg/eventlog"
	"github.com/sipdoor/sipdoor-go/pkg/netlink"
	"github.com/sipdoor/sipdoor-go/pkg/sip"
)

// DefaultRetryDelay separates consecutive session init attempts.
const DefaultRetryDelay = 2 * time.Second

// ManagerConfig configures the session lifecycle manager.
type ManagerConfig struct {
	// RetryDelay separates consecutive init attempts while the link
	// stays ready. Defaults to DefaultRetryDelay.
	RetryDelay time.Duration

	// Logger for operational output. Defaults to slog.Default().
	Logger *slog.Logger

	// EventLog captures lifecycle errors. Optional.
	EventLog eventlog.Logger
}

// Manager owns the session handle for the process lifetime. Its worker
// blocks on link readiness, applies pending address configuration,
// initializes the session, binds the event handler and enters the
// session's processing loop. Link loss tears the session down from the
// driver context, which makes the processing loop return; the worker
// then loops back to blocking on readiness.
type Manager struct {
	session   Session
	readiness *netlink.Readiness
	updates   <-chan netlink.AddressUpdate
	handler   sip.Handler

	retryDelay time.Duration
	logger     *slog.Logger
	capture    eventlog.Logger
}

// NewManager creates a session lifecycle manager. The handler is bound
// to the session after each successful init, before the processing loop
// is entered.
func NewManager(session Session, readiness *netlink.Readiness,
	updates <-chan netlink.AddressUpdate, handler sip.Handler, cfg ManagerConfig) *Manager {
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	capture := cfg.EventLog
	if capture == nil {
		capture = eventlog.NoopLogger{}
	}
	return &Manager{
		session:    session,
		readiness:  readiness,
		updates:    updates,
		handler:    handler,
		retryDelay: cfg.RetryDelay,
		logger:     logger,
		capture:    capture,
	}
}

// Teardown deinitializes the session. It is the hook the connectivity
// monitor invokes from the driver context on link loss; the session's
// Deinit contract makes this safe concurrently with the worker.
func (m *Manager) Teardown() {
	m.session.Deinit()
}

// Run is the lifecycle worker loop. It returns only when the context is
// cancelled.
func (m *Manager) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			m.session.Deinit()
			return err
		}
		if err := m.readiness.Wait(ctx); err != nil {
			m.session.Deinit()
			return err
		}

		m.applyAddressUpdates()

		if err := m.session.Init(); err != nil {
			m.logger.Warn("session init failed, retrying",
				"err", err, "delay", m.retryDelay)
			m.capture.Log(eventlog.NewErrorEvent(eventlog.SourceSession, err.Error(), "init"))
			if err := sleep(ctx, m.retryDelay); err != nil {
				return err
			}
			// Readiness is re-checked at the top of the loop: a
			// disconnect during the delay blocks the next attempt.
			continue
		}

		m.session.SetEventHandler(m.handler)
		m.session.Run()

		// The processing loop returned: the link dropped or the socket
		// failed. Guarantee teardown before any reinit attempt.
		m.session.Deinit()
	}
}

// applyAddressUpdates drains pending address configuration so the next
// init uses the latest known addresses.
func (m *Manager) applyAddressUpdates() {
	for {
		select {
		case u := <-m.updates:
			m.logger.Info("applying address configuration",
				"local", u.LocalAddr, "server", u.ServerAddr)
			if u.LocalAddr != "" {
				m.session.SetLocalAddress(u.LocalAddr)
			}
			if u.ServerAddr != "" {
				m.session.SetServerAddress(u.ServerAddr)
			}
		default:
			return
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
