package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeviceLines(t *testing.T) {
	testCases := []struct {
		name     string
		raw      string
		expected []DeviceEntry
	}{
		{
			name:     "Current format",
			raw:      "0123abcd_ef Pixel 7 Pro\n",
			expected: []DeviceEntry{{ID: "0123abcd_ef", Name: "Pixel 7 Pro"}},
		},
		{
			name:     "Legacy format",
			raw:      "- Pixel 7: 0123abcd\n",
			expected: []DeviceEntry{{ID: "0123abcd", Name: "Pixel 7"}},
		},
		{
			name: "Mixed with blank and junk lines",
			raw:  "\n- Tablet: tab-1\n\n???\nphone_2 My Phone\n",
			expected: []DeviceEntry{
				{ID: "tab-1", Name: "Tablet"},
				{ID: "phone_2", Name: "My Phone"},
			},
		},
		{
			name:     "Summary line is skipped",
			raw:      "2",
			expected: nil,
		},
		{
			name:     "Empty output",
			raw:      "",
			expected: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, DeviceLines(tc.raw))
		})
	}
}

func TestIDLines(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, IDLines("  a\n\nb  \n"))
	assert.Nil(t, IDLines("\n"))
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "/run/user/1000/abc", FirstLine("\n /run/user/1000/abc \nother"))
	assert.Equal(t, "", FirstLine(""))
}
