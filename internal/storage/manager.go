// Package storage keeps the last saved settings snapshot on disk.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/someyob/MiniHamClock/internal/credentials"
)

// snapshotVersion is bumped whenever the file layout changes
const snapshotVersion = 1

// ErrNoSnapshot is returned by Load when nothing has been saved yet.
var ErrNoSnapshot = errors.New("no settings snapshot")

// Snapshot is the on-disk record. The Wi-Fi password is always redacted.
type Snapshot struct {
	Version  int                  `json:"version"`
	SavedAt  time.Time            `json:"saved_at"`
	Broker   string               `json:"broker"`
	Settings credentials.Settings `json:"settings"`
}

// Manager reads and writes one snapshot file
type Manager struct {
	mu       sync.Mutex
	dataFile string
}

// New creates a manager for the given file, creating its directory
func New(dataFilePath string) (*Manager, error) {
	if err := os.MkdirAll(filepath.Dir(dataFilePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &Manager{dataFile: dataFilePath}, nil
}

// Path returns the backing file
func (m *Manager) Path() string {
	return m.dataFile
}

// Save records s, redacted, as saved at savedAt
func (m *Manager) Save(s credentials.Settings, savedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		Version:  snapshotVersion,
		SavedAt:  savedAt.UTC().Truncate(time.Second),
		Broker:   s.MQTT.BrokerURL(),
		Settings: s.Redacted(),
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	// Write to temp file first, then rename (atomic operation)
	tmpFile := m.dataFile + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmpFile, m.dataFile); err != nil {
		os.Remove(tmpFile) // cleanup
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}

// Load returns the saved snapshot, or ErrNoSnapshot if the file is absent
func (m *Manager) Load() (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.dataFile)
	if err != nil {
		if os.IsNotExist(err) {
			return Snapshot{}, ErrNoSnapshot
		}
		return Snapshot{}, fmt.Errorf("failed to read %s: %w", m.dataFile, err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("failed to unmarshal %s: %w", m.dataFile, err)
	}
	if snap.Version != snapshotVersion {
		return Snapshot{}, fmt.Errorf("%s: unsupported snapshot version %d", m.dataFile, snap.Version)
	}
	return snap, nil
}
