// Package resolver picks the device a control request targets.
package resolver

import (
	"strings"

	"github.com/roomtin/hyprconnect/internal/apperr"
	"github.com/roomtin/hyprconnect/internal/model"
)

// NoDeviceMessage is returned when nothing in the snapshot is actionable.
const NoDeviceMessage = "no paired and reachable KDE Connect device found"

// Resolve chooses a target device id. An explicit id wins only when it is
// actionable and is never redirected; otherwise the configured default is
// tried, then the first actionable device in snapshot order. An empty
// explicit id counts as absent.
func Resolve(explicit, defaultID string, snap model.DaemonState) (string, error) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		if d, ok := snap.Device(explicit); ok && d.Actionable() {
			return explicit, nil
		}
		return "", apperr.Invalid("device '%s' is not both paired and reachable", explicit)
	}

	if defaultID != "" {
		if d, ok := snap.Device(defaultID); ok && d.Actionable() {
			return defaultID, nil
		}
	}

	for _, d := range snap.Devices {
		if d.Actionable() {
			return d.ID, nil
		}
	}
	return "", apperr.Invalid(NoDeviceMessage)
}
