package versioning

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Path is a trace through a schema tree, rendered as "a.b(1).[x]".
// Path values are immutable; With returns a new path so sibling branches
// never see each other's segments.
type Path struct {
	segments []string
}

// With returns p extended by segment
func (p Path) With(segment string) Path {
	segments := make([]string, len(p.segments), len(p.segments)+1)
	copy(segments, p.segments)
	return Path{segments: append(segments, segment)}
}

// Segments returns a copy of the path segments
func (p Path) Segments() []string {
	return append([]string(nil), p.segments...)
}

// String joins the segments with dots
func (p Path) String() string {
	return strings.Join(p.segments, ".")
}

// KeySegment names a visited key: "key(value)" when value is a primitive,
// bare "key" for nested structures.
func KeySegment(key string, value any) string {
	if isPrimitive(value) {
		return fmt.Sprintf("%s(%s)", key, formatValue(value))
	}
	return key
}

// OptionSegment names a selected enum option: "[value]"
func OptionSegment(value any) string {
	return "[" + formatValue(value) + "]"
}

func isPrimitive(v any) bool {
	switch v.(type) {
	case string, bool, int, int64, float64, json.Number:
		return true
	}
	return false
}

func formatValue(v any) string {
	return fmt.Sprint(v)
}
