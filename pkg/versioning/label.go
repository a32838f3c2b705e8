package versioning

import (
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"
)

// Label is a firmware version label such as "v6.4.2".
// Labels keep their original spelling for messages and compare numerically.
type Label struct {
	raw     string
	version *semver.Version
}

// ParseLabel parses a dotted version label
func ParseLabel(s string) (Label, error) {
	v, err := semver.NewVersion(s)
	if err != nil {
		return Label{}, fmt.Errorf("invalid version label %q: %w", s, err)
	}
	return Label{raw: s, version: v}, nil
}

// String returns the label as written in the schema
func (l Label) String() string { return l.raw }

// Compare returns -1, 0 or 1 comparing l with other by (major, minor, patch)
func (l Label) Compare(other Label) int {
	return l.version.Compare(other.version)
}

// Less reports whether l sorts before other
func (l Label) Less(other Label) bool { return l.Compare(other) < 0 }

type entry struct {
	label     Label
	supported bool
}

// sortedEntries parses every label of revisions and returns them ascending
func sortedEntries(revisions map[string]bool) ([]entry, error) {
	entries := make([]entry, 0, len(revisions))
	for raw, flag := range revisions {
		l, err := ParseLabel(raw)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry{label: l, supported: flag})
	}
	sort.Slice(entries, func(i, j int) bool {
		if c := entries[i].label.Compare(entries[j].label); c != 0 {
			return c < 0
		}
		// "v6.0" and "v6.0.0" are equal numerically; keep the order stable
		return entries[i].label.raw < entries[j].label.raw
	})
	return entries, nil
}
