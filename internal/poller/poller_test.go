package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomtin/hyprconnect/config"
	"github.com/roomtin/hyprconnect/internal/model"
	"github.com/roomtin/hyprconnect/internal/parse"
	"github.com/roomtin/hyprconnect/internal/state"
)

// mockLink is a mock implementation of DeviceLink.
type mockLink struct {
	AvailableFunc     func() bool
	ListPairedFunc    func(ctx context.Context) ([]parse.DeviceEntry, error)
	ListReachableFunc func(ctx context.Context) ([]string, error)
	MountPointFunc    func(ctx context.Context, id string) (string, error)
}

func (m *mockLink) Available() bool {
	if m.AvailableFunc == nil {
		return true
	}
	return m.AvailableFunc()
}

func (m *mockLink) ListPaired(ctx context.Context) ([]parse.DeviceEntry, error) {
	return m.ListPairedFunc(ctx)
}

func (m *mockLink) ListReachable(ctx context.Context) ([]string, error) {
	return m.ListReachableFunc(ctx)
}

func (m *mockLink) MountPoint(ctx context.Context, id string) (string, error) {
	if m.MountPointFunc == nil {
		return "", errors.New("no mount")
	}
	return m.MountPointFunc(ctx, id)
}

// mockProps answers property reads from a map keyed by path|prop.
type mockProps struct {
	values map[string]string
}

func (m *mockProps) GetProperty(ctx context.Context, path, iface, prop string) (string, error) {
	if v, ok := m.values[path+"|"+prop]; ok {
		return v, nil
	}
	return "", errors.New("dbus property not available")
}

type mockMounts struct {
	targets map[string]bool
}

func (m *mockMounts) IsMounted(target string) bool { return m.targets[target] }

type mockNotifier struct {
	mu   sync.Mutex
	sent []model.Transition
}

func (m *mockNotifier) Dispatch(t model.Transition) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, t)
}

type mockHistory struct {
	RecordSnapshotFunc func(ctx context.Context, snap model.DaemonState, transitions []model.Transition) error
}

func (m *mockHistory) RecordSnapshot(ctx context.Context, snap model.DaemonState, transitions []model.Transition) error {
	return m.RecordSnapshotFunc(ctx, snap, transitions)
}

func newTestService(link *mockLink, props *mockProps, mounts *mockMounts, notifier *mockNotifier, notify bool) (*Service, *state.Store) {
	cfg := config.Default()
	cfg.NotificationsEnabled = notify
	st := state.NewStore()
	deps := Deps{Link: link, Props: props, Mounts: mounts}
	if notifier != nil {
		deps.Notifier = notifier
	}
	return NewService(cfg, st, deps), st
}

func TestService_CollectsFullDevice(t *testing.T) {
	link := &mockLink{
		ListPairedFunc: func(ctx context.Context) ([]parse.DeviceEntry, error) {
			return []parse.DeviceEntry{{ID: "abc", Name: "Pixel"}}, nil
		},
		ListReachableFunc: func(ctx context.Context) ([]string, error) { return []string{"abc"}, nil },
		MountPointFunc: func(ctx context.Context, id string) (string, error) {
			return "/run/user/1000/abc", nil
		},
	}
	props := &mockProps{values: map[string]string{
		"/modules/kdeconnect/devices/abc/battery|charge":                              "i 85",
		"/modules/kdeconnect/devices/abc/battery|isCharging":                          "b true",
		"/modules/kdeconnect/devices/abc/connectivity_report|cellularNetworkStrength": "i 3",
		"/modules/kdeconnect/devices/abc/connectivity_report|cellularNetworkType":     `s "5G"`,
	}}
	mounts := &mockMounts{targets: map[string]bool{"/run/user/1000/abc": true}}
	svc, st := newTestService(link, props, mounts, nil, false)

	svc.RefreshNow(context.Background())

	snap := st.Read()
	require.Len(t, snap.Devices, 1)
	require.NotNil(t, snap.UpdatedAt)
	d := snap.Devices[0]
	assert.Equal(t, "abc", d.ID)
	assert.Equal(t, "Pixel", d.Name)
	assert.True(t, d.Reachable)
	assert.True(t, d.Paired)
	assert.True(t, d.Mounted)
	assert.Equal(t, "/run/user/1000/abc", *d.MountPoint)
	assert.Equal(t, 85, *d.BatteryPercent)
	assert.True(t, *d.Charging)
	assert.Equal(t, 75, *d.SignalPercent)
	assert.Equal(t, "5G", *d.NetworkType)
}

func TestService_FieldFailuresAreAbsent(t *testing.T) {
	link := &mockLink{
		ListPairedFunc: func(ctx context.Context) ([]parse.DeviceEntry, error) {
			return []parse.DeviceEntry{{ID: "abc", Name: "Pixel"}}, nil
		},
		ListReachableFunc: func(ctx context.Context) ([]string, error) { return nil, errors.New("boom") },
		MountPointFunc: func(ctx context.Context, id string) (string, error) {
			return "/run/user/1000/abc", nil
		},
	}
	props := &mockProps{values: map[string]string{
		"/modules/kdeconnect/devices/abc/battery|charge": "i -1",
	}}
	svc, st := newTestService(link, props, &mockMounts{}, nil, false)

	svc.RefreshNow(context.Background())

	snap := st.Read()
	require.Len(t, snap.Devices, 1)
	d := snap.Devices[0]
	assert.False(t, d.Reachable)
	assert.False(t, d.Mounted, "tool self-report is overridden by the mount table")
	assert.Equal(t, "/run/user/1000/abc", *d.MountPoint)
	assert.Nil(t, d.BatteryPercent)
	assert.Nil(t, d.Charging)
	assert.Nil(t, d.SignalPercent)
	assert.Nil(t, d.NetworkType)
}

func TestService_UnpairedReachablePlaceholder(t *testing.T) {
	link := &mockLink{
		ListPairedFunc: func(ctx context.Context) ([]parse.DeviceEntry, error) {
			return []parse.DeviceEntry{{ID: "abc", Name: "Pixel"}}, nil
		},
		ListReachableFunc: func(ctx context.Context) ([]string, error) { return []string{"abc", "new1"}, nil },
	}
	svc, st := newTestService(link, &mockProps{}, &mockMounts{}, nil, false)

	svc.RefreshNow(context.Background())

	snap := st.Read()
	require.Len(t, snap.Devices, 2)
	assert.Equal(t, model.DeviceState{ID: "new1", Name: "new1", Reachable: true}, snap.Devices[1])
}

func TestService_UnavailableToolInstallsEmptySnapshot(t *testing.T) {
	testCases := []struct {
		name string
		link *mockLink
	}{
		{
			name: "binary missing",
			link: &mockLink{AvailableFunc: func() bool { return false }},
		},
		{
			name: "listing fails",
			link: &mockLink{
				ListPairedFunc: func(ctx context.Context) ([]parse.DeviceEntry, error) {
					return nil, errors.New("kdeconnectd not running")
				},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc, st := newTestService(tc.link, &mockProps{}, &mockMounts{}, nil, false)
			st.Replace(model.DaemonState{Devices: []model.DeviceState{{ID: "stale", Paired: true, Reachable: true}}})

			svc.RefreshNow(context.Background())

			snap := st.Read()
			assert.Empty(t, snap.Devices)
			assert.NotNil(t, snap.UpdatedAt)
		})
	}
}

func TestService_TransitionsAreNotified(t *testing.T) {
	reachable := []string{"abc"}
	link := &mockLink{
		ListPairedFunc: func(ctx context.Context) ([]parse.DeviceEntry, error) {
			return []parse.DeviceEntry{{ID: "abc", Name: "Pixel"}}, nil
		},
		ListReachableFunc: func(ctx context.Context) ([]string, error) { return reachable, nil },
	}

	testCases := []struct {
		name     string
		enabled  bool
		expected []model.TransitionKind
	}{
		{name: "enabled", enabled: true, expected: []model.TransitionKind{model.TransitionConnected, model.TransitionDisconnected}},
		{name: "disabled", enabled: false, expected: nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			notifier := &mockNotifier{}
			svc, _ := newTestService(link, &mockProps{}, &mockMounts{}, notifier, tc.enabled)

			reachable = []string{"abc"}
			svc.RefreshNow(context.Background())
			svc.RefreshNow(context.Background())
			reachable = nil
			svc.RefreshNow(context.Background())

			var kinds []model.TransitionKind
			for _, tr := range notifier.sent {
				assert.Equal(t, "Pixel", tr.DeviceName)
				kinds = append(kinds, tr.Kind)
			}
			assert.Equal(t, tc.expected, kinds)
		})
	}
}

func TestService_HistoryFailureDoesNotAffectSnapshot(t *testing.T) {
	link := &mockLink{
		ListPairedFunc: func(ctx context.Context) ([]parse.DeviceEntry, error) {
			return []parse.DeviceEntry{{ID: "abc", Name: "Pixel"}}, nil
		},
		ListReachableFunc: func(ctx context.Context) ([]string, error) { return []string{"abc"}, nil },
	}
	var recorded []model.Transition
	history := &mockHistory{RecordSnapshotFunc: func(ctx context.Context, snap model.DaemonState, transitions []model.Transition) error {
		recorded = transitions
		return errors.New("database is locked")
	}}
	st := state.NewStore()
	svc := NewService(config.Default(), st, Deps{Link: link, Props: &mockProps{}, Mounts: &mockMounts{}, History: history})

	svc.RefreshNow(context.Background())

	require.Len(t, st.Read().Devices, 1)
	require.Len(t, recorded, 1)
	assert.Equal(t, model.TransitionConnected, recorded[0].Kind)
}

func TestService_TriggerRunsCycle(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	link := &mockLink{
		ListPairedFunc: func(ctx context.Context) ([]parse.DeviceEntry, error) {
			mu.Lock()
			calls++
			mu.Unlock()
			return nil, nil
		},
		ListReachableFunc: func(ctx context.Context) ([]string, error) { return nil, nil },
	}
	svc, _ := newTestService(link, &mockProps{}, &mockMounts{}, nil, false)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Run(ctx)

	count := func() int {
		mu.Lock()
		defer mu.Unlock()
		return calls
	}
	require.Eventually(t, func() bool { return count() == 1 }, time.Second, 10*time.Millisecond)

	svc.Trigger()
	require.Eventually(t, func() bool { return count() == 2 }, time.Second, 10*time.Millisecond)
}

func TestSignalPercent(t *testing.T) {
	testCases := []struct {
		bars     int
		expected int
		ok       bool
	}{
		{bars: 0, expected: 0, ok: true},
		{bars: 1, expected: 25, ok: true},
		{bars: 2, expected: 50, ok: true},
		{bars: 3, expected: 75, ok: true},
		{bars: 4, expected: 100, ok: true},
		{bars: 5, expected: 100, ok: true},
		{bars: 99, expected: 100, ok: true},
		{bars: -1, ok: false},
	}

	prev := -1
	for _, tc := range testCases {
		pct, ok := SignalPercent(tc.bars)
		assert.Equal(t, tc.ok, ok, "bars=%d", tc.bars)
		assert.Equal(t, tc.expected, pct, "bars=%d", tc.bars)
		if ok {
			assert.GreaterOrEqual(t, pct, prev, "monotonic at bars=%d", tc.bars)
			prev = pct
			again, _ := SignalPercent(tc.bars)
			assert.Equal(t, pct, again)
		}
	}
}
