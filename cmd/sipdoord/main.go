// Command sipdoord is the SIP doorbell daemon.
//
// It supervises the network link, keeps a SIP session registered while
// the link is up, rings a configured phone when the bell button is
// pressed and pulses the door strike when the phone sends the
// configured keypad signal.
//
// Usage:
//
//	sipdoord [flags]
//
// Flags:
//
//	-config string     Configuration file path (YAML)
//	-log-level string  Override configured log level
//	-simulate          Run with simulated link and GPIO plus an interactive console
//
// Examples:
//
//	# Run against /etc/sipdoor/sipdoor.yaml
//	sipdoord -config /etc/sipdoor/sipdoor.yaml
//
//	# Develop without hardware
//	SIPDOOR_SIP_USER=door SIPDOOR_SIP_TARGET_USER=phone \
//	SIPDOOR_SIP_SERVER=192.168.1.10 sipdoord -simulate -log-level debug
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sipdoor/sipdoor-go/pkg/actuator"
	"github.com/sipdoor/sipdoor-go/pkg/bell"
	"github.com/sipdoor/sipdoor-go/pkg/config"
	"github.com/sipdoor/sipdoor-go/pkg/discovery"
	"github.com/sipdoor/sipdoor-go/pkg/doorbell"
	"github.com/sipdoor/sipdoor-go/pkg/eventlog"
	"github.com/sipdoor/sipdoor-go/pkg/gpio"
	"github.com/sipdoor/sipdoor-go/pkg/netlink"
	"github.com/sipdoor/sipdoor-go/pkg/persistence"
	"github.com/sipdoor/sipdoor-go/pkg/sip"
)

// Version is the daemon version advertised over mDNS.
const Version = "1.0.0"

func main() {
	configPath := flag.String("config", "", "Configuration file path (YAML)")
	logLevel := flag.String("log-level", "", "Override configured log level")
	simulate := flag.Bool("simulate", false, "Run with simulated link and GPIO plus an interactive console")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sipdoord: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	logger := newLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	if err := run(cfg, *simulate, logger); err != nil {
		logger.Error("daemon failed", "err", err)
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

func run(cfg config.Config, simulate bool, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Event capture.
	var capture eventlog.Logger = eventlog.NoopLogger{}
	if cfg.Log.EventLogPath != "" {
		fileLog, err := eventlog.NewFileLogger(cfg.Log.EventLogPath)
		if err != nil {
			return fmt.Errorf("open event log: %w", err)
		}
		defer fileLog.Close()
		capture = fileLog
		if cfg.Log.Level == "debug" {
			capture = eventlog.NewMultiLogger(fileLog, eventlog.NewSlogAdapter(logger))
		}
	}

	// Durable device state.
	var counters *usageCounters
	if cfg.StatePath != "" {
		store := persistence.NewStateStore(cfg.StatePath)
		state, err := store.Load()
		if err != nil {
			logger.Warn("discarding unreadable device state", "err", err)
		}
		if state == nil {
			state = &persistence.DeviceState{}
		}
		state.BootCount++
		if err := store.Save(state); err != nil {
			logger.Warn("saving device state failed", "err", err)
		}
		logger.Info("device state loaded", "boot_count", state.BootCount)

		counters = newUsageCounters(store, state)
		capture = eventlog.NewMultiLogger(capture, counters)
		defer counters.flush(logger)
	}

	// Resolve the SIP server via mDNS when nothing is configured.
	if cfg.SIP.Server == "" && !cfg.SIP.ServerIsGateway && cfg.DiscoveryEnabled {
		findCtx, findCancel := context.WithTimeout(ctx, 15*time.Second)
		server, err := discovery.FindServer(findCtx, discovery.Config{Interface: cfg.Link.Interface})
		findCancel()
		if err != nil {
			return fmt.Errorf("locate SIP server: %w", err)
		}
		logger.Info("SIP server discovered",
			"instance", server.Instance, "addr", server.Addr, "port", server.Port)
		cfg.SIP.Server = server.Addr
		cfg.SIP.ServerPort = server.Port
	}
	if counters != nil {
		counters.recordServer(cfg.SIP.Server)
	}

	client := sip.NewClient(sip.ClientConfig{
		User:             cfg.SIP.User,
		Password:         cfg.SIP.Password,
		ServerAddr:       cfg.SIP.Server,
		ServerPort:       cfg.SIP.ServerPort,
		LocalPort:        cfg.SIP.LocalPort,
		TargetUser:       cfg.SIP.TargetUser,
		RegisterInterval: cfg.SIP.RegisterInterval(),
		Logger:           logger,
		EventLog:         capture,
	})

	// Link supervision. A driver that cannot come up is fatal: the
	// doorbell has no recovery path without its own networking.
	readiness := netlink.NewReadiness()
	var (
		driver netlink.Driver
		sim    *simDriver
	)
	if simulate {
		sim = newSimDriver()
		driver = sim
	} else {
		d, err := netlink.NewIfaceDriver(cfg.Link.Interface, netlink.IfaceDriverConfig{
			PollInterval: cfg.Link.PollInterval(),
		})
		if err != nil {
			return err
		}
		driver = d
	}
	// Link loss tears the session down through the lifecycle manager.
	// The manager is assigned below, before supervision starts, so the
	// hook never fires on a nil manager.
	var manager *doorbell.Manager
	monitor := netlink.NewMonitor(driver, readiness, func() { manager.Teardown() },
		netlink.MonitorConfig{
			ServerIsGateway: cfg.SIP.ServerIsGateway,
			Logger:          logger,
			EventLog:        capture,
		})

	// Door strike.
	var line actuator.Line
	if simulate || !cfg.Actuator.Enabled {
		line = newSimLine(logger)
	} else {
		l, err := gpio.NewOutputLine(gpio.ValuePath(cfg.Actuator.Pin))
		if err != nil {
			return err
		}
		line = l
	}
	opener, err := actuator.NewHandler(line, actuator.Config{
		Enabled:       cfg.Actuator.Enabled,
		PulseDuration: cfg.Actuator.PulseDuration(),
		ActiveHigh:    cfg.Actuator.ActiveHigh,
		Logger:        logger,
		EventLog:      capture,
	})
	if err != nil {
		return fmt.Errorf("actuator: %w", err)
	}
	defer opener.Close()

	// Bell button input.
	var presses <-chan struct{}
	var simPresses chan struct{}
	if simulate {
		simPresses = make(chan struct{}, 1)
		presses = simPresses
	} else {
		button, err := gpio.NewInputButton(gpio.ValuePath(cfg.Bell.ButtonPin), gpio.ButtonConfig{
			ActiveLow: cfg.Bell.ActiveLow,
			Logger:    logger,
		})
		if err != nil {
			return err
		}
		go button.Run(ctx)
		presses = button.Presses()
	}

	buttons := bell.NewButtonHandler(client, presses, bell.Config{
		RingTimeout: cfg.Bell.RingTimeout(),
		Logger:      logger,
		EventLog:    capture,
	})
	router := doorbell.NewRouter(buttons, opener, doorbell.RouterConfig{
		TriggerSignal: cfg.Actuator.TriggerSignal,
		Logger:        logger,
		EventLog:      capture,
	})
	manager = doorbell.NewManager(client, readiness, monitor.Updates(), router.Handle,
		doorbell.ManagerConfig{
			Logger:   logger,
			EventLog: capture,
		})

	// Announce the doorbell for installer tooling.
	if cfg.DiscoveryEnabled && !simulate {
		adv := discovery.NewAdvertiser(discovery.Config{Interface: cfg.Link.Interface})
		if err := adv.Advertise("sipdoor-"+cfg.SIP.User, cfg.SIP.LocalPort,
			discovery.TXTRecords(cfg.SIP.User, Version)); err != nil {
			logger.Warn("mDNS advertisement failed", "err", err)
		} else {
			defer adv.Stop()
		}
	}

	if err := monitor.Start(); err != nil {
		return fmt.Errorf("link supervision: %w", err)
	}
	defer monitor.Stop()

	go func() {
		if err := manager.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("session lifecycle worker failed", "err", err)
		}
	}()

	if simulate {
		console := newConsole(consoleDeps{
			driver:    sim,
			client:    client,
			readiness: readiness,
			presses:   simPresses,
			opener:    opener,
			cancel:    cancel,
		})
		go console.Run(ctx)
	}

	logger.Info("doorbell running", "user", cfg.SIP.User, "simulate", simulate)

	// The button loop is the final, forever-blocking call.
	buttons.Run(ctx)

	client.Deinit()
	logger.Info("doorbell stopped")
	return nil
}
