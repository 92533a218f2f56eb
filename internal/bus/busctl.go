// Package bus talks to the KDE Connect daemon over the user D-Bus session.
package bus

import (
	"context"
	"fmt"
	"strings"

	"github.com/roomtin/hyprconnect/internal/apperr"
	"github.com/roomtin/hyprconnect/internal/runner"
)

const (
	// Service is the well-known bus name of kdeconnectd.
	Service = "org.kde.kdeconnect"
	// DevicesPath is the object path namespace holding one node per device.
	DevicesPath = "/modules/kdeconnect/devices"

	busctlBinary = "busctl"
)

// DevicePath returns the object path of a device, or of one of its plugins
// when plugin is non-empty.
func DevicePath(id, plugin string) string {
	if plugin == "" {
		return fmt.Sprintf("%s/%s", DevicesPath, id)
	}
	return fmt.Sprintf("%s/%s/%s", DevicesPath, id, plugin)
}

// Busctl is a property/method client backed by the busctl tool. Replies are
// returned in busctl's textual form; see package parse for the grammar.
type Busctl struct {
	runner runner.Runner
}

// NewBusctl creates a Busctl executing through r.
func NewBusctl(r runner.Runner) *Busctl {
	return &Busctl{runner: r}
}

// GetProperty reads one property.
func (b *Busctl) GetProperty(ctx context.Context, path, iface, prop string) (string, error) {
	return b.run(ctx, "dbus property not available", "get-property", Service, path, iface, prop)
}

// SetProperty writes one property; sig is the D-Bus signature of value.
// "--" ends option parsing so values starting with '-' reach busctl intact.
func (b *Busctl) SetProperty(ctx context.Context, path, iface, prop, sig, value string) error {
	_, err := b.run(ctx, "dbus set-property failed", "set-property", Service, path, iface, prop, "--", sig, value)
	return err
}

// Call invokes a method; sig and args follow "--" as in SetProperty.
func (b *Busctl) Call(ctx context.Context, path, iface, method, sig string, args ...string) error {
	argv := append([]string{"call", Service, path, iface, method, "--", sig}, args...)
	_, err := b.run(ctx, "dbus call failed", argv...)
	return err
}

func (b *Busctl) run(ctx context.Context, fallback string, args ...string) (string, error) {
	res, err := b.runner.Run(ctx, busctlBinary, append([]string{"--user"}, args...)...)
	if err != nil {
		return "", err
	}
	if !res.OK() {
		msg := strings.TrimSpace(res.Stderr)
		if msg == "" {
			msg = fallback
		}
		return "", apperr.Upstream(msg)
	}
	return res.Stdout, nil
}
