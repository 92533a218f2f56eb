package api

import (
	"context"

	"github.com/SherClockHolmes/webpush-go"

	"github.com/roomtin/hyprconnect/internal/health"
	"github.com/roomtin/hyprconnect/internal/state"
	"github.com/roomtin/hyprconnect/internal/store"
	"github.com/roomtin/hyprconnect/internal/summary"
)

// HealthChecker probes the external tools.
type HealthChecker interface {
	Run(ctx context.Context, deviceID string) health.Report
}

// Deps bundles the handler's collaborators. History, Health and WebPush may
// be nil when the matching feature is disabled.
type Deps struct {
	States     *state.Store
	History    store.Store
	Health     HealthChecker
	Thresholds summary.Thresholds
	WebPush    *webpush.Options
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	states     *state.Store
	history    store.Store
	health     HealthChecker
	thresholds summary.Thresholds
	webpush    *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(deps Deps) *Handler {
	return &Handler{
		states:     deps.States,
		history:    deps.History,
		health:     deps.Health,
		thresholds: deps.Thresholds,
		webpush:    deps.WebPush,
	}
}
