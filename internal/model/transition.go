package model

import "time"

// TransitionKind is the direction of a reachability change.
type TransitionKind string

const (
	TransitionConnected    TransitionKind = "connected"
	TransitionDisconnected TransitionKind = "disconnected"
)

// Transition is a reachability change observed between two snapshots.
type Transition struct {
	DeviceID   string
	DeviceName string
	Kind       TransitionKind
	ObservedAt time.Time
}

// Body is the human-readable notification text for the transition.
func (t Transition) Body() string {
	if t.Kind == TransitionConnected {
		return "Phone connected"
	}
	return "Phone disconnected"
}

// DiffReachability compares two snapshots by device id. A device with no
// prior record counts as previously unreachable. Devices missing from next
// produce nothing.
func DiffReachability(prev, next DaemonState, now time.Time) []Transition {
	before := make(map[string]bool, len(prev.Devices))
	for _, d := range prev.Devices {
		before[d.ID] = d.Reachable
	}

	var out []Transition
	for _, d := range next.Devices {
		if before[d.ID] == d.Reachable {
			continue
		}
		kind := TransitionDisconnected
		if d.Reachable {
			kind = TransitionConnected
		}
		out = append(out, Transition{
			DeviceID:   d.ID,
			DeviceName: d.Name,
			Kind:       kind,
			ObservedAt: now,
		})
	}
	return out
}
