// Package summary renders a device snapshot as a status-bar payload.
package summary

import (
	"fmt"
	"strings"

	"github.com/roomtin/hyprconnect/internal/model"
)

const (
	offlineIcon   = "󰄰"
	phoneIcon     = "󰄜"
	mountedIcon   = "󰛳"
	chargingIcon  = "\uf0e7"
	ClassOffline  = "disconnected"
	ClassOK       = "ok"
	ClassWarn     = "warn"
	ClassCritical = "crit"
)

// Payload is the custom-module JSON a status bar consumes.
type Payload struct {
	Text    string `json:"text"`
	Tooltip string `json:"tooltip"`
	Class   string `json:"class"`
}

// Thresholds are the battery levels below which the class degrades.
type Thresholds struct {
	WarnPercent int
	CritPercent int
}

// Build summarizes the first reachable device in snap.
func Build(snap model.DaemonState, th Thresholds) Payload {
	connected := 0
	var device *model.DeviceState
	for i := range snap.Devices {
		if !snap.Devices[i].Reachable {
			continue
		}
		connected++
		if device == nil {
			device = &snap.Devices[i]
		}
	}
	if device == nil {
		return Payload{Text: offlineIcon, Tooltip: "Phone: offline", Class: ClassOffline}
	}

	battery := percentOr(device.BatteryPercent, "--")
	var text strings.Builder
	text.WriteString(SignalIcon(device.SignalPercent))
	text.WriteString(" " + phoneIcon)
	if device.Mounted {
		text.WriteString(" " + mountedIcon)
	}
	text.WriteString(" " + battery)
	if device.Charging != nil && *device.Charging {
		text.WriteString(" " + chargingIcon)
	}

	mountPoint := "--"
	if device.Mounted && device.MountPoint != nil {
		mountPoint = *device.MountPoint
	}
	network := "Unknown"
	if device.NetworkType != nil {
		network = *device.NetworkType
	}

	tooltip := strings.Join([]string{
		device.Name,
		"Battery: " + battery,
		"Status: Connected",
		"Paired: " + yesNo(device.Paired),
		"Mounted: " + yesNo(device.Mounted),
		"Mount point: " + mountPoint,
		"Signal: " + percentOr(device.SignalPercent, "--"),
		"Network: " + network,
		fmt.Sprintf("Devices connected: %d", connected),
	}, "\n")

	return Payload{Text: text.String(), Tooltip: tooltip, Class: batteryClass(device.BatteryPercent, th)}
}

// SignalIcon picks a cellular-strength glyph for a signal percentage.
func SignalIcon(pct *int) string {
	if pct == nil {
		return "󰣾"
	}
	switch v := *pct; {
	case v >= 75:
		return "󰣺"
	case v >= 50:
		return "󰣸"
	case v >= 30:
		return "󰣶"
	case v >= 10:
		return "󰣴"
	default:
		return "󰣾"
	}
}

func batteryClass(pct *int, th Thresholds) string {
	switch {
	case pct == nil:
		return ClassOK
	case *pct < th.CritPercent:
		return ClassCritical
	case *pct < th.WarnPercent:
		return ClassWarn
	default:
		return ClassOK
	}
}

func percentOr(v *int, fallback string) string {
	if v == nil {
		return fallback
	}
	return fmt.Sprintf("%d%%", *v)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
