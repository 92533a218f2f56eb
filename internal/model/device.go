package model

import "time"

// DeviceState is one companion device as last observed.
type DeviceState struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Reachable      bool    `json:"reachable"`
	Paired         bool    `json:"paired"`
	Mounted        bool    `json:"mounted"`
	MountPoint     *string `json:"mount_point"`
	BatteryPercent *int    `json:"battery_percent"`
	Charging       *bool   `json:"charging"`
	SignalPercent  *int    `json:"signal_percent"`
	NetworkType    *string `json:"network_type"`
}

// Actionable reports whether the device may be targeted by control operations.
func (d DeviceState) Actionable() bool {
	return d.Paired && d.Reachable
}

// Clone returns a deep copy of d.
func (d DeviceState) Clone() DeviceState {
	c := d
	c.MountPoint = clonePtr(d.MountPoint)
	c.BatteryPercent = clonePtr(d.BatteryPercent)
	c.Charging = clonePtr(d.Charging)
	c.SignalPercent = clonePtr(d.SignalPercent)
	c.NetworkType = clonePtr(d.NetworkType)
	return c
}

// DaemonState is a point-in-time snapshot of every known device.
type DaemonState struct {
	Devices   []DeviceState `json:"devices"`
	UpdatedAt *time.Time    `json:"updated_at"`
}

// Clone returns a deep copy of s.
func (s DaemonState) Clone() DaemonState {
	c := DaemonState{Devices: make([]DeviceState, len(s.Devices))}
	for i, d := range s.Devices {
		c.Devices[i] = d.Clone()
	}
	c.UpdatedAt = clonePtr(s.UpdatedAt)
	return c
}

// Device looks up a device by id.
func (s DaemonState) Device(id string) (DeviceState, bool) {
	for _, d := range s.Devices {
		if d.ID == id {
			return d, true
		}
	}
	return DeviceState{}, false
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
