package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sipdoor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
sip:
  user: door
  password: secret
  server: 192.168.1.10
  target_user: phone
  register_interval_ms: 60000
bell:
  button_pin: 22
  ring_timeout_ms: 20000
actuator:
  enabled: true
  pulse_duration_ms: 1500
  trigger_signal: "#"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "door", cfg.SIP.User)
	assert.Equal(t, "192.168.1.10", cfg.SIP.Server)
	assert.Equal(t, time.Minute, cfg.SIP.RegisterInterval())
	assert.Equal(t, 22, cfg.Bell.ButtonPin)
	assert.Equal(t, 20*time.Second, cfg.Bell.RingTimeout())
	assert.True(t, cfg.Actuator.Enabled)
	assert.Equal(t, 1500*time.Millisecond, cfg.Actuator.PulseDuration())

	// Untouched fields keep their defaults.
	assert.Equal(t, uint16(5060), cfg.SIP.ServerPort)
	assert.Equal(t, "wlan0", cfg.Link.Interface)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
sip:
  user: door
  server: 192.168.1.10
  target_user: phone
`)
	t.Setenv("SIPDOOR_SIP_SERVER", "10.0.0.2")
	t.Setenv("SIPDOOR_SIP_SERVER_PORT", "5080")
	t.Setenv("SIPDOOR_ACTUATOR_TRIGGER_SIGNAL", "5")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.2", cfg.SIP.Server)
	assert.Equal(t, uint16(5080), cfg.SIP.ServerPort)
	assert.Equal(t, "5", cfg.Actuator.TriggerSignal)
}

func TestLoadWithoutFile(t *testing.T) {
	t.Setenv("SIPDOOR_SIP_USER", "door")
	t.Setenv("SIPDOOR_SIP_TARGET_USER", "phone")
	t.Setenv("SIPDOOR_SIP_SERVER_IS_GATEWAY", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.SIP.ServerIsGateway)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sip.user")
	assert.Contains(t, err.Error(), "sip.target_user")
	assert.Contains(t, err.Error(), "sip.server")

	cfg.SIP.User = "door"
	cfg.SIP.TargetUser = "phone"
	cfg.SIP.ServerIsGateway = true
	assert.NoError(t, cfg.Validate())

	cfg.Log.Level = "chatty"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log level")
}

func TestValidateActuatorPulse(t *testing.T) {
	cfg := Default()
	cfg.SIP.User = "door"
	cfg.SIP.TargetUser = "phone"
	cfg.SIP.Server = "10.0.0.1"
	cfg.Actuator.Enabled = true
	cfg.Actuator.PulseDurationMS = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pulse_duration_ms")
}
