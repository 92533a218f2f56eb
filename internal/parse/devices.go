package parse

import (
	"regexp"
	"strings"
)

var (
	// "- Pixel 7: 0123abcd" (older kdeconnect-cli)
	legacyDeviceRe = regexp.MustCompile(`^-\s*(.+):\s*([A-Za-z0-9_-]+)$`)
	// "0123abcd Pixel 7"
	currentDeviceRe = regexp.MustCompile(`^([A-Za-z0-9_-]+)\s+(.+)$`)
)

// DeviceEntry is one id/name pair listed by kdeconnect-cli.
type DeviceEntry struct {
	ID   string
	Name string
}

// DeviceLines parses `kdeconnect-cli --list-devices --id-name-only` output.
// Both the legacy and the current line formats are accepted; anything else is skipped.
func DeviceLines(out string) []DeviceEntry {
	var entries []DeviceEntry
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := legacyDeviceRe.FindStringSubmatch(line); m != nil {
			entries = append(entries, DeviceEntry{ID: m[2], Name: strings.TrimSpace(m[1])})
			continue
		}
		if m := currentDeviceRe.FindStringSubmatch(line); m != nil {
			entries = append(entries, DeviceEntry{ID: m[1], Name: strings.TrimSpace(m[2])})
		}
	}
	return entries
}

// IDLines parses `kdeconnect-cli --list-available --id-only` output.
func IDLines(out string) []string {
	var ids []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			ids = append(ids, line)
		}
	}
	return ids
}

// FirstLine returns the first non-empty trimmed line of out.
func FirstLine(out string) string {
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
