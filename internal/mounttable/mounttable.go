// Package mounttable reads the kernel's live mount table.
package mounttable

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// DefaultPath is the Linux mount table.
const DefaultPath = "/proc/mounts"

// Entry is one mounted filesystem.
type Entry struct {
	Source string
	Target string
}

// Table reads mount entries from a mounts-format file.
type Table struct {
	path string
}

// New returns a Table reading path.
func New(path string) *Table {
	if path == "" {
		path = DefaultPath
	}
	return &Table{path: path}
}

// Entries returns every entry currently listed.
func (t *Table) Entries() ([]Entry, error) {
	f, err := os.Open(t.path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", t.path)
	}
	defer f.Close()
	return Parse(f)
}

// IsMounted reports whether target is a mount target. An unreadable table
// counts as not mounted.
func (t *Table) IsMounted(target string) bool {
	if target == "" {
		return false
	}
	entries, err := t.Entries()
	if err != nil {
		return false
	}
	target = strings.TrimRight(target, "/")
	for _, e := range entries {
		if strings.TrimRight(e.Target, "/") == target {
			return true
		}
	}
	return false
}

// Parse reads source and target columns from mounts-format text.
func Parse(r io.Reader) ([]Entry, error) {
	var entries []Entry
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		entries = append(entries, Entry{Source: unescape(fields[0]), Target: unescape(fields[1])})
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "read mount table")
	}
	return entries, nil
}

// unescape decodes the kernel's octal escapes (\040 for space and so on).
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+4 <= len(s) {
			if n, err := strconv.ParseUint(s[i+1:i+4], 8, 8); err == nil {
				b.WriteByte(byte(n))
				i += 3
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
