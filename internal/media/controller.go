// Package media controls phone media players through the mprisremote plugin.
package media

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/roomtin/hyprconnect/internal/apperr"
	"github.com/roomtin/hyprconnect/internal/bus"
	"github.com/roomtin/hyprconnect/internal/parse"
)

const (
	Plugin    = "mprisremote"
	Interface = "org.kde.kdeconnect.device.mprisremote"

	NoPlayersMessage = "No phone media players reported"
)

// ActionKind names a media action on the wire.
type ActionKind string

const (
	ActionStatus     ActionKind = "status"
	ActionPlayPause  ActionKind = "play_pause"
	ActionNext       ActionKind = "next"
	ActionPrevious   ActionKind = "previous"
	ActionStop       ActionKind = "stop"
	ActionSeek       ActionKind = "seek"
	ActionVolumeSet  ActionKind = "volume_set"
	ActionPlayerList ActionKind = "player_list"
	ActionPlayerSet  ActionKind = "player_set"
)

// transportActions maps zero-argument actions to their sendAction names.
var transportActions = map[ActionKind]string{
	ActionPlayPause: "PlayPause",
	ActionNext:      "Next",
	ActionPrevious:  "Previous",
	ActionStop:      "Stop",
}

// Action is a tagged media request. Only the field matching Kind is read.
type Action struct {
	Kind  ActionKind `json:"action"`
	Ms    *int64     `json:"ms,omitempty"`
	Value *int       `json:"value,omitempty"`
	Name  *string    `json:"name,omitempty"`
}

// Validate checks that the payload required by Kind is present and in range.
func (a Action) Validate() error {
	switch a.Kind {
	case ActionStatus, ActionPlayPause, ActionNext, ActionPrevious, ActionStop, ActionPlayerList:
		return nil
	case ActionSeek:
		if a.Ms == nil {
			return apperr.Invalid("seek requires ms")
		}
		if *a.Ms < math.MinInt32 || *a.Ms > math.MaxInt32 {
			return apperr.Invalid("seek offset %d out of range", *a.Ms)
		}
	case ActionVolumeSet:
		if a.Value == nil {
			return apperr.Invalid("volume_set requires value")
		}
		if *a.Value < 0 || *a.Value > 100 {
			return apperr.Invalid("volume must be between 0 and 100, got %d", *a.Value)
		}
	case ActionPlayerSet:
		if a.Name == nil {
			return apperr.Invalid("player_set requires name")
		}
	default:
		return apperr.Invalid("unknown media action %q", a.Kind)
	}
	return nil
}

// Bus is the generic property client media operations go through.
type Bus interface {
	GetProperty(ctx context.Context, path, iface, prop string) (string, error)
	SetProperty(ctx context.Context, path, iface, prop, sig, value string) error
	Call(ctx context.Context, path, iface, method, sig string, args ...string) error
}

// Status is the current state of the phone's active player.
type Status struct {
	Player  string
	Title   string
	Artist  string
	Playing bool
	Volume  int
}

func (s Status) String() string {
	state := "Paused"
	if s.Playing {
		state = "Playing"
	}
	return fmt.Sprintf("Player: %s\nState: %s\nTitle: %s\nArtist: %s\nVolume: %d%%",
		s.Player, state, s.Title, s.Artist, s.Volume)
}

// Controller runs media actions against one device at a time.
type Controller struct {
	bus Bus
}

func NewController(b Bus) *Controller {
	return &Controller{bus: b}
}

// Handle runs action on device id and returns the outcome message.
func (c *Controller) Handle(ctx context.Context, id string, action Action) (string, error) {
	if err := action.Validate(); err != nil {
		return "", err
	}
	path := bus.DevicePath(id, Plugin)

	switch action.Kind {
	case ActionStatus:
		return c.Status(ctx, id).String(), nil
	case ActionPlayerList:
		players, err := c.Players(ctx, id)
		if err != nil {
			return "", err
		}
		if len(players) == 0 {
			return NoPlayersMessage, nil
		}
		return "Players:\n" + strings.Join(players, "\n"), nil
	case ActionSeek:
		ms := strconv.FormatInt(*action.Ms, 10)
		if err := c.bus.Call(ctx, path, Interface, "seek", "i", ms); err != nil {
			return "", err
		}
		return fmt.Sprintf("Seeked %s by %sms", id, ms), nil
	case ActionVolumeSet:
		if err := c.bus.SetProperty(ctx, path, Interface, "volume", "i", strconv.Itoa(*action.Value)); err != nil {
			return "", err
		}
		return fmt.Sprintf("Set phone media volume to %d%% on %s", *action.Value, id), nil
	case ActionPlayerSet:
		if err := c.bus.SetProperty(ctx, path, Interface, "player", "s", *action.Name); err != nil {
			return "", err
		}
		return fmt.Sprintf("Set active phone player to '%s'", *action.Name), nil
	}

	name := transportActions[action.Kind]
	if err := c.bus.Call(ctx, path, Interface, "sendAction", "s", name); err != nil {
		return "", err
	}
	return fmt.Sprintf("Sent %s to %s", name, id), nil
}

// Status reads each player property on its own; a failed read leaves that
// field at its placeholder.
func (c *Controller) Status(ctx context.Context, id string) Status {
	path := bus.DevicePath(id, Plugin)
	st := Status{Player: "Unknown", Title: "--", Artist: "--"}

	if v, ok := c.readString(ctx, path, "player"); ok {
		st.Player = v
	}
	if v, ok := c.readString(ctx, path, "title"); ok {
		st.Title = v
	}
	if v, ok := c.readString(ctx, path, "artist"); ok {
		st.Artist = v
	}
	if raw, err := c.bus.GetProperty(ctx, path, Interface, "isPlaying"); err == nil {
		st.Playing, _ = parse.BusBool(raw)
	}
	if raw, err := c.bus.GetProperty(ctx, path, Interface, "volume"); err == nil {
		if v, ok := parse.BusInt(raw); ok {
			st.Volume = v
		}
	}
	return st
}

// Players lists the media players the phone reports.
func (c *Controller) Players(ctx context.Context, id string) ([]string, error) {
	raw, err := c.bus.GetProperty(ctx, bus.DevicePath(id, Plugin), Interface, "playerList")
	if err != nil {
		return nil, err
	}
	return parse.BusStringArray(raw), nil
}

func (c *Controller) readString(ctx context.Context, path, prop string) (string, bool) {
	raw, err := c.bus.GetProperty(ctx, path, Interface, prop)
	if err != nil {
		return "", false
	}
	return parse.BusString(raw)
}
