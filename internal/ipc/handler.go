package ipc

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/roomtin/hyprconnect/internal/media"
	"github.com/roomtin/hyprconnect/internal/resolver"
	"github.com/roomtin/hyprconnect/internal/state"
)

// DefaultPingMessage is sent when a ping request carries no message.
const DefaultPingMessage = "Ping from Hyprconnect"

// DeviceLink is the part of the kdeconnect client used for device actions.
type DeviceLink interface {
	Share(ctx context.Context, id, value string) error
	Ping(ctx context.Context, id, message string) error
	Pair(ctx context.Context, id string) error
	Unpair(ctx context.Context, id string) error
	Ring(ctx context.Context, id string) error
	Refresh(ctx context.Context) error
}

// Mounter runs mount operations.
type Mounter interface {
	Mount(ctx context.Context, id string) (string, error)
	OpenMount(ctx context.Context, id string) (string, error)
	ToggleMount(ctx context.Context, explicit string) (string, error)
}

// MediaController runs media actions.
type MediaController interface {
	Handle(ctx context.Context, id string, action media.Action) (string, error)
}

// Clipboard reads the desktop clipboard.
type Clipboard interface {
	Read(ctx context.Context) (string, error)
}

// Refresher schedules a poll cycle.
type Refresher interface {
	Trigger()
}

// HandlerDeps bundles the dispatcher's collaborators. Refresher is optional.
type HandlerDeps struct {
	Store         *state.Store
	DefaultDevice string
	Link          DeviceLink
	Mounter       Mounter
	Media         MediaController
	Clipboard     Clipboard
	Refresher     Refresher
}

// Handler routes requests to the component that serves them.
type Handler struct {
	deps HandlerDeps
}

func NewHandler(deps HandlerDeps) *Handler {
	return &Handler{deps: deps}
}

// Resolve picks the target device for an optional explicit id against the
// current snapshot.
func (h *Handler) Resolve(explicit string) (string, error) {
	return resolver.Resolve(explicit, h.deps.DefaultDevice, h.deps.Store.Read())
}

// Handle serves req. Failures of any kind become an ok=false response.
func (h *Handler) Handle(ctx context.Context, req Request) Response {
	if err := req.Validate(); err != nil {
		return Failure(err)
	}
	if req.Type == TypeGetState {
		return StateResponse(h.deps.Store.Read())
	}

	msg, err := h.dispatch(ctx, req)
	if err != nil {
		log.Debug().Err(err).Str("type", string(req.Type)).Msg("ipc request failed")
		return Failure(err)
	}
	return Success(msg)
}

func (h *Handler) dispatch(ctx context.Context, req Request) (string, error) {
	switch req.Type {
	case TypeShareFile:
		return h.share(ctx, req.DeviceID(), req.Path)
	case TypeShareURL:
		return h.share(ctx, req.DeviceID(), req.URL)
	case TypeShareClipboard:
		text, err := h.deps.Clipboard.Read(ctx)
		if err != nil {
			return "", err
		}
		return h.share(ctx, req.DeviceID(), text)
	case TypePing:
		id, err := h.Resolve(req.DeviceID())
		if err != nil {
			return "", err
		}
		message := DefaultPingMessage
		if req.Message != nil && *req.Message != "" {
			message = *req.Message
		}
		if err := h.deps.Link.Ping(ctx, id, message); err != nil {
			return "", err
		}
		return "Ping sent to " + id, nil
	case TypePair:
		id := req.DeviceID()
		if err := h.deps.Link.Pair(ctx, id); err != nil {
			return "", err
		}
		h.refresh()
		return "Pair request sent to " + id, nil
	case TypeUnpair:
		id := req.DeviceID()
		if err := h.deps.Link.Unpair(ctx, id); err != nil {
			return "", err
		}
		h.refresh()
		return "Unpaired " + id, nil
	case TypeFind:
		id, err := h.Resolve(req.DeviceID())
		if err != nil {
			return "", err
		}
		if err := h.deps.Link.Ring(ctx, id); err != nil {
			return "", err
		}
		return "Ringing " + id, nil
	case TypeRefreshNetwork:
		if err := h.deps.Link.Refresh(ctx); err != nil {
			return "", err
		}
		h.refresh()
		return "Refreshed KDE Connect device discovery", nil
	case TypeMount:
		id, err := h.Resolve(req.DeviceID())
		if err != nil {
			return "", err
		}
		mp, err := h.deps.Mounter.Mount(ctx, id)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Mounted %s at %s", id, mp), nil
	case TypeOpenMount:
		id, err := h.Resolve(req.DeviceID())
		if err != nil {
			return "", err
		}
		target, err := h.deps.Mounter.OpenMount(ctx, id)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Opened mount for %s: %s", id, target), nil
	case TypeToggleMount:
		return h.deps.Mounter.ToggleMount(ctx, req.DeviceID())
	case TypeMedia:
		id, err := h.Resolve(req.DeviceID())
		if err != nil {
			return "", err
		}
		return h.deps.Media.Handle(ctx, id, *req.Action)
	}
	return "", errors.Errorf("unhandled request type %q", req.Type)
}

func (h *Handler) share(ctx context.Context, explicit, value string) (string, error) {
	id, err := h.Resolve(explicit)
	if err != nil {
		return "", err
	}
	if err := h.deps.Link.Share(ctx, id, value); err != nil {
		return "", err
	}
	return "Shared to " + id, nil
}

func (h *Handler) refresh() {
	if h.deps.Refresher != nil {
		h.deps.Refresher.Trigger()
	}
}
