package parse

import (
	"regexp"
	"strconv"
	"strings"
)

// busctl prints a property as its D-Bus type signature followed by the value:
//
//	s "Pixel 7"
//	b true
//	i 85
//	as 2 "spotify" "vlc"
//
// Each helper below parses one value shape and reports false when the reply
// does not carry a usable value.

var quotedRe = regexp.MustCompile(`"([^"]+)"`)

// BusString extracts a string value, stripping the surrounding quotes.
// An empty string counts as no value.
func BusString(raw string) (string, bool) {
	_, rest, ok := strings.Cut(strings.TrimSpace(raw), " ")
	if !ok {
		return "", false
	}
	v := strings.TrimSpace(strings.Trim(strings.TrimSpace(rest), `"`))
	if v == "" {
		return "", false
	}
	return v, true
}

// BusBool extracts a boolean value.
func BusBool(raw string) (bool, bool) {
	tok, ok := valueToken(raw)
	if !ok {
		return false, false
	}
	switch tok {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

// BusInt extracts a signed integer value.
func BusInt(raw string) (int, bool) {
	tok, ok := valueToken(raw)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(tok, 10, 32)
	if err != nil {
		return 0, false
	}
	return int(n), true
}

// BusStringArray extracts every quoted element of an array reply.
func BusStringArray(raw string) []string {
	var out []string
	for _, m := range quotedRe.FindAllStringSubmatch(raw, -1) {
		out = append(out, m[1])
	}
	return out
}

func valueToken(raw string) (string, bool) {
	fields := strings.Fields(raw)
	if len(fields) < 2 {
		return "", false
	}
	return fields[1], true
}
