package bus

import (
	"context"
	"strings"

	"github.com/godbus/dbus/v5"
	"github.com/pkg/errors"
)

// Signal is a D-Bus signal reduced to its routing fields.
type Signal struct {
	Path      string
	Interface string
	Member    string
}

// SessionSignals subscribes to kdeconnectd signals on the session bus.
type SessionSignals struct {
	buffer int
}

// NewSessionSignals creates a signal source with the given channel buffer.
func NewSessionSignals(buffer int) *SessionSignals {
	if buffer <= 0 {
		buffer = 64
	}
	return &SessionSignals{buffer: buffer}
}

// Subscribe opens a private session-bus connection and streams every signal
// emitted under DevicesPath. The returned channel is closed when ctx ends or
// the connection drops.
func (s *SessionSignals) Subscribe(ctx context.Context) (<-chan Signal, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, errors.Wrap(err, "connect session bus")
	}

	if err := conn.AddMatchSignal(dbus.WithMatchPathNamespace(dbus.ObjectPath(DevicesPath))); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "add signal match")
	}

	raw := make(chan *dbus.Signal, s.buffer)
	conn.Signal(raw)

	out := make(chan Signal, s.buffer)
	go func() {
		defer close(out)
		defer conn.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case sig, ok := <-raw:
				if !ok {
					return
				}
				iface, member := splitMember(sig.Name)
				select {
				case out <- Signal{Path: string(sig.Path), Interface: iface, Member: member}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// splitMember splits "org.kde.kdeconnect.device.reachableChanged".
func splitMember(name string) (string, string) {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return "", name
	}
	return name[:i], name[i+1:]
}
