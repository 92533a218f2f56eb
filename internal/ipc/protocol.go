// Package ipc serves one-shot JSON requests over a local Unix socket.
//
// A client connects, writes one request document, half-closes its write
// side and reads one response document until EOF.
package ipc

import (
	"github.com/roomtin/hyprconnect/internal/apperr"
	"github.com/roomtin/hyprconnect/internal/media"
	"github.com/roomtin/hyprconnect/internal/model"
)

// RequestType is the wire tag of a Request.
type RequestType string

const (
	TypeGetState       RequestType = "get_state"
	TypeShareFile      RequestType = "share_file"
	TypeShareURL       RequestType = "share_url"
	TypeShareClipboard RequestType = "share_clipboard"
	TypePing           RequestType = "ping"
	TypePair           RequestType = "pair"
	TypeUnpair         RequestType = "unpair"
	TypeFind           RequestType = "find"
	TypeRefreshNetwork RequestType = "refresh_network"
	TypeMount          RequestType = "mount"
	TypeOpenMount      RequestType = "open_mount"
	TypeToggleMount    RequestType = "toggle_mount"
	TypeMedia          RequestType = "media"
)

// Request is the tagged union of every daemon operation. Fields that a
// given Type does not use are ignored.
type Request struct {
	Type    RequestType   `json:"type"`
	Path    string        `json:"path,omitempty"`
	URL     string        `json:"url,omitempty"`
	Message *string       `json:"message,omitempty"`
	Device  *string       `json:"device,omitempty"`
	Action  *media.Action `json:"action,omitempty"`
}

// DeviceID returns the explicit device, or "" when none was given.
func (r Request) DeviceID() string {
	if r.Device == nil {
		return ""
	}
	return *r.Device
}

// Validate checks the fields the request type requires.
func (r Request) Validate() error {
	switch r.Type {
	case TypeGetState, TypeShareClipboard, TypePing, TypeFind, TypeRefreshNetwork,
		TypeMount, TypeOpenMount, TypeToggleMount:
		return nil
	case TypeShareFile:
		if r.Path == "" {
			return apperr.Invalid("share_file requires path")
		}
	case TypeShareURL:
		if r.URL == "" {
			return apperr.Invalid("share_url requires url")
		}
	case TypePair, TypeUnpair:
		if r.DeviceID() == "" {
			return apperr.Invalid("%s requires device", r.Type)
		}
	case TypeMedia:
		if r.Action == nil {
			return apperr.Invalid("media requires action")
		}
		return r.Action.Validate()
	case "":
		return apperr.Invalid("request type is missing")
	default:
		return apperr.Invalid("unknown request type %q", r.Type)
	}
	return nil
}

// Response is the single reply to a Request. State is set only for
// get_state; Message carries the outcome otherwise.
type Response struct {
	OK      bool               `json:"ok"`
	Message *string            `json:"message"`
	State   *model.DaemonState `json:"state"`
}

// Success builds an ok response carrying msg.
func Success(msg string) Response {
	return Response{OK: true, Message: &msg}
}

// Failure builds a failed response carrying the error text.
func Failure(err error) Response {
	msg := err.Error()
	return Response{OK: false, Message: &msg}
}

// StateResponse builds the get_state reply.
func StateResponse(snap model.DaemonState) Response {
	return Response{OK: true, State: &snap}
}
