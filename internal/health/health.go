// Package health reports whether the daemon's external collaborators work.
package health

import (
	"context"
	"strings"

	"github.com/roomtin/hyprconnect/internal/bus"
	"github.com/roomtin/hyprconnect/internal/runner"
)

// Tools are the executables the daemon shells out to. The first two are
// required.
var Tools = []string{"kdeconnect-cli", "kdeconnectd", "wl-paste", "busctl", "xdg-open"}

var required = map[string]bool{"kdeconnect-cli": true, "kdeconnectd": true}

// Plugins are the kdeconnect plugins media control relies on.
var Plugins = []string{"kdeconnect_mprisremote", "kdeconnect_mpriscontrol", "kdeconnect_systemvolume"}

// Check is one named probe result.
type Check struct {
	Name     string `json:"name"`
	OK       bool   `json:"ok"`
	Required bool   `json:"required"`
}

// Report is the outcome of every probe.
type Report struct {
	OK     bool    `json:"ok"`
	Checks []Check `json:"checks"`
}

// PropertyReader reads a bus property in busctl's textual form.
type PropertyReader interface {
	GetProperty(ctx context.Context, path, iface, prop string) (string, error)
}

// Checker runs the probes.
type Checker struct {
	runner runner.Runner
	props  PropertyReader
}

func NewChecker(r runner.Runner, props PropertyReader) *Checker {
	return &Checker{runner: r, props: props}
}

// Run probes every tool and, when deviceID is non-empty, the plugins that
// device supports. Report.OK is false if any required check fails.
func (c *Checker) Run(ctx context.Context, deviceID string) Report {
	rep := Report{OK: true}
	add := func(name string, ok, req bool) {
		rep.Checks = append(rep.Checks, Check{Name: name, OK: ok, Required: req})
		if req && !ok {
			rep.OK = false
		}
	}

	for _, tool := range Tools {
		add(tool, c.runner.Available(tool), required[tool])
	}

	if c.runner.Available("kdeconnect-cli") {
		res, err := c.runner.Run(ctx, "kdeconnect-cli", "--list-devices")
		add("kdeconnect-cli list-devices", err == nil && res.OK(), true)
	}

	if deviceID != "" {
		raw, err := c.props.GetProperty(ctx, bus.DevicePath(deviceID, ""), "org.kde.kdeconnect.device", "supportedPlugins")
		for _, plugin := range Plugins {
			add("plugin "+strings.TrimPrefix(plugin, "kdeconnect_"), err == nil && strings.Contains(raw, plugin), false)
		}
	}
	return rep
}
