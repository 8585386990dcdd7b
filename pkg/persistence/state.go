package persistence

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// StateVersion is the current version of the state file format.
const StateVersion = 1

// DeviceState contains the doorbell's durable runtime state.
type DeviceState struct {
	// Version is the state file format version.
	Version int `json:"version"`

	// SavedAt is when the state was last saved.
	SavedAt time.Time `json:"saved_at"`

	// BootCount is incremented once per process start.
	BootCount uint64 `json:"boot_count"`

	// LastLocalAddr is the last acquired local address.
	LastLocalAddr string `json:"last_local_addr,omitempty"`

	// LastServerAddr is the last SIP server address in use.
	LastServerAddr string `json:"last_server_addr,omitempty"`

	// LastRegisteredAt is when the last registration succeeded.
	LastRegisteredAt time.Time `json:"last_registered_at,omitempty"`

	// RingCount counts bell button rings over the device lifetime.
	RingCount uint64 `json:"ring_count"`

	// DoorOpenCount counts actuator triggers over the device lifetime.
	DoorOpenCount uint64 `json:"door_open_count"`
}

// StateStore manages persistence of device state to a JSON file.
type StateStore struct {
	mu   sync.Mutex
	path string
}

// NewStateStore creates a state store backed by the given file.
func NewStateStore(path string) *StateStore {
	return &StateStore{path: path}
}

// Save persists the device state to disk.
func (s *StateStore) Save(state *DeviceState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	state.Version = StateVersion
	state.SavedAt = time.Now()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0644)
}

// Load reads the device state from disk.
// Returns nil, nil if the file doesn't exist (empty state).
func (s *StateStore) Load() (*DeviceState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	state := &DeviceState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, err
	}

	return state, nil
}

// Clear removes the state file.
func (s *StateStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
