package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomtin/hyprconnect/config"
	"github.com/roomtin/hyprconnect/internal/db"
	"github.com/roomtin/hyprconnect/internal/health"
	"github.com/roomtin/hyprconnect/internal/model"
	"github.com/roomtin/hyprconnect/internal/state"
	"github.com/roomtin/hyprconnect/internal/store"
	"github.com/roomtin/hyprconnect/internal/summary"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// mockHealth is a mock implementation of HealthChecker.
type mockHealth struct {
	RunFunc func(ctx context.Context, deviceID string) health.Report
}

func (m *mockHealth) Run(ctx context.Context, deviceID string) health.Report {
	return m.RunFunc(ctx, deviceID)
}

func testStates() *state.Store {
	st := state.NewStore()
	st.Replace(model.DaemonState{Devices: []model.DeviceState{
		{ID: "tab", Name: "Tablet", Paired: true},
		{ID: "abc", Name: "Pixel", Paired: true, Reachable: true, BatteryPercent: model.Ptr(12)},
	}})
	return st
}

func newHistory(t *testing.T) store.Store {
	gormDB, err := db.Init(config.HistoryConfig{DSN: filepath.Join(t.TempDir(), "history.db"), MaxOpenConns: 1})
	require.NoError(t, err)
	return store.NewGormStore(gormDB)
}

func setupRouter(deps Deps) *gin.Engine {
	cfg := config.Default().HTTP
	cfg.RateLimitPerSec = 1000
	cfg.RateLimitBurst = 1000
	return NewRouter(NewHandler(deps), cfg, nil)
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}

func TestGetState(t *testing.T) {
	r := setupRouter(Deps{States: testStates()})

	w := do(r, http.MethodGet, "/api/state", "")

	require.Equal(t, http.StatusOK, w.Code)
	var snap model.DaemonState
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Len(t, snap.Devices, 2)
}

func TestGetDevice(t *testing.T) {
	testCases := []struct {
		name string
		path string
		code int
	}{
		{name: "known", path: "/api/devices/abc", code: http.StatusOK},
		{name: "unknown", path: "/api/devices/ghost", code: http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := setupRouter(Deps{States: testStates()})
			w := do(r, http.MethodGet, tc.path, "")
			assert.Equal(t, tc.code, w.Code)
		})
	}
}

func TestGetSummary(t *testing.T) {
	r := setupRouter(Deps{States: testStates(), Thresholds: summary.Thresholds{WarnPercent: 30, CritPercent: 15}})

	w := do(r, http.MethodGet, "/api/summary", "")

	require.Equal(t, http.StatusOK, w.Code)
	var p summary.Payload
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, summary.ClassCritical, p.Class)
	assert.True(t, strings.HasPrefix(p.Tooltip, "Pixel\n"))
}

func TestGetHealth(t *testing.T) {
	testCases := []struct {
		name string
		ok   bool
		code int
	}{
		{name: "healthy", ok: true, code: http.StatusOK},
		{name: "unhealthy", ok: false, code: http.StatusServiceUnavailable},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var probed string
			checker := &mockHealth{RunFunc: func(ctx context.Context, deviceID string) health.Report {
				probed = deviceID
				return health.Report{OK: tc.ok}
			}}
			r := setupRouter(Deps{States: testStates(), Health: checker})

			w := do(r, http.MethodGet, "/api/health", "")

			assert.Equal(t, tc.code, w.Code)
			assert.Equal(t, "abc", probed)
		})
	}
}

func TestGetDeviceEvents(t *testing.T) {
	history := newHistory(t)
	now := time.Now().UTC()
	require.NoError(t, history.RecordSnapshot(context.Background(),
		model.DaemonState{Devices: []model.DeviceState{{ID: "abc", Name: "Pixel", Paired: true, Reachable: true}}, UpdatedAt: &now},
		[]model.Transition{{DeviceID: "abc", DeviceName: "Pixel", Kind: model.TransitionConnected, ObservedAt: now}},
	))
	r := setupRouter(Deps{States: testStates(), History: history})

	testCases := []struct {
		name  string
		path  string
		code  int
		count int
	}{
		{name: "default limit", path: "/api/devices/abc/events", code: http.StatusOK, count: 1},
		{name: "unknown device", path: "/api/devices/ghost/events", code: http.StatusOK, count: 0},
		{name: "bad limit", path: "/api/devices/abc/events?limit=zero", code: http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(r, http.MethodGet, tc.path, "")
			require.Equal(t, tc.code, w.Code)
			if tc.code != http.StatusOK {
				return
			}
			var events []model.DeviceEvent
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &events))
			assert.Len(t, events, tc.count)
		})
	}
}

func TestHistoryDisabled(t *testing.T) {
	r := setupRouter(Deps{States: testStates()})

	assert.Equal(t, http.StatusServiceUnavailable, do(r, http.MethodGet, "/api/devices/abc/events", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(r, http.MethodGet, "/api/subscriptions?endpoint=x", "").Code)
}

func TestSubscriptions(t *testing.T) {
	history := newHistory(t)
	now := time.Now().UTC()
	require.NoError(t, history.RecordSnapshot(context.Background(),
		model.DaemonState{Devices: []model.DeviceState{{ID: "abc", Name: "Pixel", Paired: true, Reachable: true}}, UpdatedAt: &now}, nil))
	r := setupRouter(Deps{States: testStates(), History: history})

	w := do(r, http.MethodPut, "/api/subscriptions", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid request"}`, w.Body.String())

	w = do(r, http.MethodPut, "/api/subscriptions",
		`{"endpoint":"https://push.example/1","p256dh":"k","auth":"a","subscribed_devices":["abc"]}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = do(r, http.MethodGet, "/api/subscriptions?endpoint=https%3A%2F%2Fpush.example%2F1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"subscribed_devices":["abc"]}`, w.Body.String())

	w = do(r, http.MethodDelete, "/api/subscriptions", `{"endpoint":"https://push.example/1"}`)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(r, http.MethodGet, "/api/subscriptions?endpoint=https%3A%2F%2Fpush.example%2F1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetVAPIDPublicKey(t *testing.T) {
	history := newHistory(t)

	testCases := []struct {
		name    string
		options *webpush.Options
		history store.Store
		code    int
	}{
		{name: "configured", options: &webpush.Options{VAPIDPublicKey: "BPub", TTL: 60}, history: history, code: http.StatusOK},
		{name: "missing keys", options: nil, history: history, code: http.StatusServiceUnavailable},
		{name: "history disabled", options: &webpush.Options{VAPIDPublicKey: "BPub"}, history: nil, code: http.StatusServiceUnavailable},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := setupRouter(Deps{States: testStates(), History: tc.history, WebPush: tc.options})
			w := do(r, http.MethodGet, "/api/vapid_public_key", "")
			require.Equal(t, tc.code, w.Code)
			if tc.code == http.StatusOK {
				assert.JSONEq(t, `{"public_key":"BPub","ttl_seconds":60}`, w.Body.String())
			}
		})
	}
}
