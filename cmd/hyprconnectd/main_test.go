package main

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomtin/hyprconnect/config"
)

func TestVersionCommand(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, version+"\n", out.String())
}

func TestRootFlags(t *testing.T) {
	cmd := newRootCmd()
	for _, name := range []string{"config", "socket", "log-level"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
}

func TestSetupLogger(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	testCases := []struct {
		level    string
		expected zerolog.Level
	}{
		{level: "debug", expected: zerolog.DebugLevel},
		{level: "WARN", expected: zerolog.WarnLevel},
		{level: "nonsense", expected: zerolog.InfoLevel},
		{level: "", expected: zerolog.InfoLevel},
	}

	for _, tc := range testCases {
		t.Run(tc.level, func(t *testing.T) {
			setupLogger(config.LogConfig{Level: tc.level, Format: "json"})
			assert.Equal(t, tc.expected, zerolog.GlobalLevel())
		})
	}
}
