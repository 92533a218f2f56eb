package notification

import (
	"context"

	"github.com/godbus/dbus/v5"
	"github.com/pkg/errors"

	"github.com/roomtin/hyprconnect/internal/model"
)

const (
	AppName = "Hyprconnect"

	notifyDest   = "org.freedesktop.Notifications"
	notifyPath   = dbus.ObjectPath("/org/freedesktop/Notifications")
	notifyMethod = "org.freedesktop.Notifications.Notify"
)

// notifyCaller is the slice of dbus.BusObject used to post notifications.
type notifyCaller interface {
	CallWithContext(ctx context.Context, method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

// DesktopSender posts freedesktop notifications on the session bus.
type DesktopSender struct {
	object func() (notifyCaller, error)
}

// NewDesktopSender connects lazily to the shared session bus.
func NewDesktopSender() *DesktopSender {
	return &DesktopSender{object: func() (notifyCaller, error) {
		conn, err := dbus.SessionBus()
		if err != nil {
			return nil, err
		}
		return conn.Object(notifyDest, notifyPath), nil
	}}
}

func (d *DesktopSender) Name() string { return "desktop" }

// Notify shows the device name as summary and the transition as body.
func (d *DesktopSender) Notify(ctx context.Context, t model.Transition) error {
	obj, err := d.object()
	if err != nil {
		return errors.Wrap(err, "connect to session bus")
	}
	call := obj.CallWithContext(ctx, notifyMethod, 0,
		AppName,
		uint32(0),
		"",
		t.DeviceName,
		t.Body(),
		[]string{},
		map[string]dbus.Variant{},
		int32(-1), // server default timeout
	)
	return errors.Wrap(call.Err, "send desktop notification")
}
