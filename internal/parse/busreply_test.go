package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBusString(t *testing.T) {
	testCases := []struct {
		name     string
		raw      string
		expected string
		ok       bool
	}{
		{name: "Quoted string", raw: "s \"Spotify\"\n", expected: "Spotify", ok: true},
		{name: "String with spaces", raw: `s "Never Gonna Give You Up"`, expected: "Never Gonna Give You Up", ok: true},
		{name: "Empty string", raw: `s ""`, ok: false},
		{name: "Signature only", raw: "s", ok: false},
		{name: "Empty reply", raw: "", ok: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v, ok := BusString(tc.raw)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.expected, v)
		})
	}
}

func TestBusBool(t *testing.T) {
	testCases := []struct {
		name     string
		raw      string
		expected bool
		ok       bool
	}{
		{name: "True", raw: "b true\n", expected: true, ok: true},
		{name: "False", raw: "b false", expected: false, ok: true},
		{name: "Garbage", raw: "b maybe", ok: false},
		{name: "Missing value", raw: "b", ok: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v, ok := BusBool(tc.raw)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.expected, v)
		})
	}
}

func TestBusInt(t *testing.T) {
	testCases := []struct {
		name     string
		raw      string
		expected int
		ok       bool
	}{
		{name: "Positive", raw: "i 85\n", expected: 85, ok: true},
		{name: "Negative", raw: "i -1", expected: -1, ok: true},
		{name: "Not a number", raw: "i abc", ok: false},
		{name: "Missing value", raw: "i", ok: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v, ok := BusInt(tc.raw)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.expected, v)
		})
	}
}

func TestBusStringArray(t *testing.T) {
	assert.Equal(t, []string{"spotify", "VLC media player"}, BusStringArray(`as 2 "spotify" "VLC media player"`))
	assert.Nil(t, BusStringArray("as 0"))
}
