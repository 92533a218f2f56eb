package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.PollIntervalSeconds)
	assert.Equal(t, 10*time.Second, cfg.PollInterval)
	assert.Equal(t, 30, cfg.BatteryWarnPercent)
	assert.Equal(t, 15, cfg.BatteryCritPercent)
	assert.True(t, cfg.NotificationsEnabled)
	assert.Equal(t, "/run/user/1000/hyprconnect.sock", cfg.SocketPath)
	assert.Equal(t, 1, cfg.WorkerPool.Size)
}

func TestLoad_Values(t *testing.T) {
	testCases := []struct {
		name         string
		body         string
		expectedPoll time.Duration
		check        func(t *testing.T, cfg *Config)
	}{
		{
			name:         "interval below minimum is clamped",
			body:         "poll_interval_seconds: 3\n",
			expectedPoll: 10 * time.Second,
		},
		{
			name:         "interval above minimum is kept",
			body:         "poll_interval_seconds: 45\n",
			expectedPoll: 45 * time.Second,
		},
		{
			name:         "notifications can be disabled",
			body:         "notifications_enabled: false\ndefault_device: abc\n",
			expectedPoll: 10 * time.Second,
			check: func(t *testing.T, cfg *Config) {
				assert.False(t, cfg.NotificationsEnabled)
				assert.Equal(t, "abc", cfg.DefaultDevice)
			},
		},
		{
			name:         "empty file keeps defaults",
			body:         "",
			expectedPoll: 10 * time.Second,
			check: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.NotificationsEnabled)
			},
		},
		{
			name:         "nested sections",
			body:         "http:\n  enabled: true\n  listen: 127.0.0.1:9000\npush:\n  vapid_public_key: pub\n  vapid_private_key: priv\n",
			expectedPoll: 10 * time.Second,
			check: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.HTTP.Enabled)
				assert.Equal(t, "127.0.0.1:9000", cfg.HTTP.Listen)
				assert.True(t, cfg.Push.Configured())
				assert.Equal(t, 3600, cfg.Push.TTL)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, tc.body))
			require.NoError(t, err)
			assert.Equal(t, tc.expectedPoll, cfg.PollInterval)
			if tc.check != nil {
				tc.check(t, cfg)
			}
		})
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	_, err := Load(writeConfig(t, "poll_interval_seconds: [oops\n"))
	assert.Error(t, err)
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("HYPRCONNECT_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	assert.Equal(t, "/xdg/hyprconnect/config.yaml", DefaultPath())

	t.Setenv("HYPRCONNECT_CONFIG", "/etc/hc.yaml")
	assert.Equal(t, "/etc/hc.yaml", DefaultPath())
}
