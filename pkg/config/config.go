package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// SIPConfig is the telephony account and server configuration.
type SIPConfig struct {
	// User is the SIP account the doorbell registers as.
	User string `yaml:"user" env:"USER"`

	// Password authenticates digest challenges.
	Password string `yaml:"password" env:"PASSWORD"`

	// Server is the SIP server host or IP. Leave empty with
	// ServerIsGateway for installations where the PBX runs on the
	// router handing out leases.
	Server string `yaml:"server" env:"SERVER"`

	// ServerPort is the SIP server port.
	ServerPort uint16 `yaml:"server_port" env:"SERVER_PORT"`

	// ServerIsGateway derives the server address from the acquired
	// DHCP gateway.
	ServerIsGateway bool `yaml:"server_is_gateway" env:"SERVER_IS_GATEWAY"`

	// LocalPort is the local SIP port. 0 picks an ephemeral port.
	LocalPort uint16 `yaml:"local_port" env:"LOCAL_PORT"`

	// TargetUser is the account rung on a bell press.
	TargetUser string `yaml:"target_user" env:"TARGET_USER"`

	// RegisterIntervalMS is the re-registration period in milliseconds.
	RegisterIntervalMS int `yaml:"register_interval_ms" env:"REGISTER_INTERVAL_MS"`
}

// RegisterInterval returns the re-registration period.
func (c SIPConfig) RegisterInterval() time.Duration {
	return time.Duration(c.RegisterIntervalMS) * time.Millisecond
}

// LinkConfig is the network link configuration.
type LinkConfig struct {
	// Interface is the network interface to supervise.
	Interface string `yaml:"interface" env:"INTERFACE"`

	// PollIntervalMS is the link polling period in milliseconds.
	PollIntervalMS int `yaml:"poll_interval_ms" env:"POLL_INTERVAL_MS"`
}

// PollInterval returns the link polling period.
func (c LinkConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// BellConfig is the bell button configuration.
type BellConfig struct {
	// ButtonPin is the GPIO pin of the bell button.
	ButtonPin int `yaml:"button_pin" env:"BUTTON_PIN"`

	// ActiveLow marks a button wired to read 0 when pressed.
	ActiveLow bool `yaml:"active_low" env:"ACTIVE_LOW"`

	// RingTimeoutMS bounds an unanswered ring, in milliseconds.
	RingTimeoutMS int `yaml:"ring_timeout_ms" env:"RING_TIMEOUT_MS"`
}

// RingTimeout returns the unanswered-ring bound.
func (c BellConfig) RingTimeout() time.Duration {
	return time.Duration(c.RingTimeoutMS) * time.Millisecond
}

// ActuatorConfig is the door strike configuration.
type ActuatorConfig struct {
	// Enabled gates the actuator entirely.
	Enabled bool `yaml:"enabled" env:"ENABLED"`

	// Pin is the GPIO pin of the strike output line.
	Pin int `yaml:"pin" env:"PIN"`

	// PulseDurationMS is the strike pulse length in milliseconds.
	PulseDurationMS int `yaml:"pulse_duration_ms" env:"PULSE_DURATION_MS"`

	// ActiveHigh selects the energized line level.
	ActiveHigh bool `yaml:"active_high" env:"ACTIVE_HIGH"`

	// TriggerSignal is the phone keypad signal that opens the door.
	// Only the first character is significant.
	TriggerSignal string `yaml:"trigger_signal" env:"TRIGGER_SIGNAL"`
}

// PulseDuration returns the strike pulse length.
func (c ActuatorConfig) PulseDuration() time.Duration {
	return time.Duration(c.PulseDurationMS) * time.Millisecond
}

// LogConfig is the logging configuration.
type LogConfig struct {
	// Level is the slog level name: debug, info, warn or error.
	Level string `yaml:"level" env:"LEVEL"`

	// EventLogPath is the binary event capture file. Empty disables
	// event capture.
	EventLogPath string `yaml:"event_log_path" env:"EVENT_LOG_PATH"`
}

// Config is the complete doorbell configuration.
type Config struct {
	SIP      SIPConfig      `yaml:"sip" envPrefix:"SIPDOOR_SIP_"`
	Link     LinkConfig     `yaml:"link" envPrefix:"SIPDOOR_LINK_"`
	Bell     BellConfig     `yaml:"bell" envPrefix:"SIPDOOR_BELL_"`
	Actuator ActuatorConfig `yaml:"actuator" envPrefix:"SIPDOOR_ACTUATOR_"`
	Log      LogConfig      `yaml:"log" envPrefix:"SIPDOOR_LOG_"`

	// StatePath is the persisted device state file.
	StatePath string `yaml:"state_path" env:"SIPDOOR_STATE_PATH"`

	// DiscoveryEnabled browses mDNS for the SIP server when no server
	// address is configured.
	DiscoveryEnabled bool `yaml:"discovery_enabled" env:"SIPDOOR_DISCOVERY_ENABLED"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		SIP: SIPConfig{
			ServerPort:         5060,
			RegisterIntervalMS: 300_000,
		},
		Link: LinkConfig{
			Interface:      "wlan0",
			PollIntervalMS: 1000,
		},
		Bell: BellConfig{
			ButtonPin:     17,
			RingTimeoutMS: 30_000,
		},
		Actuator: ActuatorConfig{
			Pin:             27,
			PulseDurationMS: 3000,
			ActiveHigh:      true,
			TriggerSignal:   "#",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path
// (skipped when path is empty), then SIPDOOR_* environment overrides.
// A .env file in the working directory is loaded first if present.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for unusable combinations.
func (c Config) Validate() error {
	var errs []error
	if c.SIP.User == "" {
		errs = append(errs, errors.New("config: sip.user is required"))
	}
	if c.SIP.TargetUser == "" {
		errs = append(errs, errors.New("config: sip.target_user is required"))
	}
	if c.SIP.Server == "" && !c.SIP.ServerIsGateway && !c.DiscoveryEnabled {
		errs = append(errs, errors.New(
			"config: one of sip.server, sip.server_is_gateway or discovery_enabled is required"))
	}
	if c.Link.Interface == "" {
		errs = append(errs, errors.New("config: link.interface is required"))
	}
	if c.Bell.RingTimeoutMS <= 0 {
		errs = append(errs, errors.New("config: bell.ring_timeout_ms must be positive"))
	}
	if c.Actuator.Enabled && c.Actuator.PulseDurationMS <= 0 {
		errs = append(errs, errors.New("config: actuator.pulse_duration_ms must be positive"))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("config: unknown log level %q", c.Log.Level))
	}
	return errors.Join(errs...)
}
