// Package state holds the daemon's current device snapshot.
package state

import (
	"sync"

	"github.com/roomtin/hyprconnect/internal/model"
)

// Store guards the current DaemonState. Readers get independent copies and
// writers replace the whole snapshot at once.
type Store struct {
	mu       sync.RWMutex
	snapshot model.DaemonState
}

// NewStore returns a Store holding an empty snapshot.
func NewStore() *Store {
	return &Store{snapshot: model.DaemonState{Devices: []model.DeviceState{}}}
}

// Read returns a copy of the current snapshot.
func (s *Store) Read() model.DaemonState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Clone()
}

// Replace installs next as the current snapshot. The caller must not retain
// or mutate next afterwards.
func (s *Store) Replace(next model.DaemonState) {
	if next.Devices == nil {
		next.Devices = []model.DeviceState{}
	}
	s.mu.Lock()
	s.snapshot = next
	s.mu.Unlock()
}
