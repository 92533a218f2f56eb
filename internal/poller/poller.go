// Package poller reconciles kdeconnect's view of the world into the state store.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/roomtin/hyprconnect/config"
	"github.com/roomtin/hyprconnect/internal/bus"
	"github.com/roomtin/hyprconnect/internal/metrics"
	"github.com/roomtin/hyprconnect/internal/model"
	"github.com/roomtin/hyprconnect/internal/parse"
	"github.com/roomtin/hyprconnect/internal/state"
)

const (
	batteryIface      = "org.kde.kdeconnect.device.battery"
	connectivityIface = "org.kde.kdeconnect.device.connectivity_report"
)

// DeviceLink is the subset of the kdeconnect client the poller reads from.
type DeviceLink interface {
	Available() bool
	ListPaired(ctx context.Context) ([]parse.DeviceEntry, error)
	ListReachable(ctx context.Context) ([]string, error)
	MountPoint(ctx context.Context, id string) (string, error)
}

// PropertyReader reads a single bus property in busctl's textual form.
type PropertyReader interface {
	GetProperty(ctx context.Context, path, iface, prop string) (string, error)
}

// MountTable answers whether a path is a live mount target.
type MountTable interface {
	IsMounted(target string) bool
}

// Notifier receives reachability transitions. Dispatch must not block.
type Notifier interface {
	Dispatch(t model.Transition)
}

// HistoryRecorder persists snapshots and transitions.
type HistoryRecorder interface {
	RecordSnapshot(ctx context.Context, snap model.DaemonState, transitions []model.Transition) error
}

// Deps bundles the poller's collaborators. Notifier, History and Metrics are optional.
type Deps struct {
	Link     DeviceLink
	Props    PropertyReader
	Mounts   MountTable
	Notifier Notifier
	History  HistoryRecorder
	Metrics  metrics.Recorder
}

// Service runs poll cycles on a timer and on demand.
type Service struct {
	cfg      *config.Config
	store    *state.Store
	link     DeviceLink
	props    PropertyReader
	mounts   MountTable
	notifier Notifier
	history  HistoryRecorder
	metrics  metrics.Recorder

	trigger chan struct{}
	// cycleMu serializes cycles so each diff sees the snapshot its predecessor installed.
	cycleMu sync.Mutex
	now     func() time.Time
}

// NewService creates a poller writing into st.
func NewService(cfg *config.Config, st *state.Store, deps Deps) *Service {
	rec := deps.Metrics
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Service{
		cfg:      cfg,
		store:    st,
		link:     deps.Link,
		props:    deps.Props,
		mounts:   deps.Mounts,
		notifier: deps.Notifier,
		history:  deps.History,
		metrics:  rec,
		trigger:  make(chan struct{}, 1),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run polls once immediately, then on every interval tick and every Trigger
// until ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	log.Info().Dur("interval", s.cfg.PollInterval).Msg("starting poller")

	s.RefreshNow(ctx)

	timer := time.NewTimer(s.cfg.PollInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("poller shutting down")
			return
		case <-timer.C:
			s.RefreshNow(ctx)
			timer.Reset(s.cfg.PollInterval)
		case <-s.trigger:
			log.Debug().Msg("forced poll cycle")
			s.RefreshNow(ctx)
		}
	}
}

// Trigger requests an out-of-band cycle from the Run loop. Requests made
// while one is already pending are coalesced.
func (s *Service) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// RefreshNow runs one cycle synchronously and returns the installed snapshot.
func (s *Service) RefreshNow(ctx context.Context) model.DaemonState {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	start := time.Now()
	prev := s.store.Read()
	next, outcome := s.collect(ctx)

	transitions := model.DiffReachability(prev, next, *next.UpdatedAt)
	for _, t := range transitions {
		s.metrics.IncTransition(string(t.Kind))
		log.Info().Str("device", t.DeviceID).Str("name", t.DeviceName).Msg("device " + string(t.Kind))
		if s.cfg.NotificationsEnabled && s.notifier != nil {
			s.notifier.Dispatch(t)
		}
	}

	installed := next.Clone()
	s.store.Replace(next)

	paired, reachable := 0, 0
	for _, d := range installed.Devices {
		if d.Paired {
			paired++
		}
		if d.Reachable {
			reachable++
		}
	}
	s.metrics.SetDevices(paired, reachable)
	s.metrics.ObservePollCycle(time.Since(start), outcome)

	if s.history != nil {
		if err := s.history.RecordSnapshot(ctx, installed, transitions); err != nil {
			log.Warn().Err(err).Msg("failed to record device history")
		}
	}

	log.Debug().Int("devices", len(installed.Devices)).Str("outcome", outcome).Msg("poll cycle finished")
	return installed
}

// collect gathers a fresh snapshot. Per-field failures leave the field
// absent; an unusable tool yields an empty snapshot.
func (s *Service) collect(ctx context.Context) (model.DaemonState, string) {
	now := s.now()
	empty := model.DaemonState{Devices: []model.DeviceState{}, UpdatedAt: &now}

	if !s.link.Available() {
		log.Debug().Msg("kdeconnect-cli not available; installing empty snapshot")
		return empty, "unavailable"
	}

	paired, err := s.link.ListPaired(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to list paired devices; installing empty snapshot")
		return empty, "unavailable"
	}

	reachableIDs, err := s.link.ListReachable(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to list reachable devices")
	}
	reachable := make(map[string]bool, len(reachableIDs))
	for _, id := range reachableIDs {
		reachable[id] = true
	}

	devices := make([]model.DeviceState, 0, len(paired)+len(reachableIDs))
	seen := make(map[string]bool, len(paired))
	for _, entry := range paired {
		if seen[entry.ID] {
			continue
		}
		seen[entry.ID] = true
		devices = append(devices, s.collectDevice(ctx, entry, reachable[entry.ID]))
	}

	for _, id := range reachableIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		devices = append(devices, model.DeviceState{ID: id, Name: id, Reachable: true})
	}

	return model.DaemonState{Devices: devices, UpdatedAt: &now}, "ok"
}

func (s *Service) collectDevice(ctx context.Context, entry parse.DeviceEntry, reachable bool) model.DeviceState {
	d := model.DeviceState{
		ID:        entry.ID,
		Name:      entry.Name,
		Reachable: reachable,
		Paired:    true,
	}

	if mp, err := s.link.MountPoint(ctx, entry.ID); err == nil && mp != "" {
		d.MountPoint = model.Ptr(mp)
		d.Mounted = s.mounts.IsMounted(mp)
	}

	batteryPath := bus.DevicePath(entry.ID, "battery")
	if v, ok := s.readInt(ctx, batteryPath, batteryIface, "charge"); ok && v >= 0 && v <= 100 {
		d.BatteryPercent = model.Ptr(v)
	}
	if raw, err := s.props.GetProperty(ctx, batteryPath, batteryIface, "isCharging"); err == nil {
		if v, ok := parse.BusBool(raw); ok {
			d.Charging = model.Ptr(v)
		}
	}

	connPath := bus.DevicePath(entry.ID, "connectivity_report")
	if bars, ok := s.readInt(ctx, connPath, connectivityIface, "cellularNetworkStrength"); ok {
		if pct, ok := SignalPercent(bars); ok {
			d.SignalPercent = model.Ptr(pct)
		}
	}
	if raw, err := s.props.GetProperty(ctx, connPath, connectivityIface, "cellularNetworkType"); err == nil {
		if v, ok := parse.BusString(raw); ok {
			d.NetworkType = model.Ptr(v)
		}
	}

	return d
}

func (s *Service) readInt(ctx context.Context, path, iface, prop string) (int, bool) {
	raw, err := s.props.GetProperty(ctx, path, iface, prop)
	if err != nil {
		return 0, false
	}
	return parse.BusInt(raw)
}

// SignalPercent maps a 0–4 bar reading to a percentage. Readings above 4
// saturate at 100; negative readings have no value.
func SignalPercent(bars int) (int, bool) {
	switch {
	case bars < 0:
		return 0, false
	case bars > 4:
		return 100, true
	default:
		return bars * 25, true
	}
}
