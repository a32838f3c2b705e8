package batch

import (
	"bytes"
	"path"
	"strings"

	"github.com/simonhull/firebird-suite/falcon/pkg/config"
)

// fixupFunc returns the in-place edit described by f
func fixupFunc(f config.Fixup) func([]byte) []byte {
	return func(content []byte) []byte {
		out := content
		if f.NormalizeNewline {
			out = bytes.ReplaceAll(out, []byte("\r\n"), []byte("\n"))
		}
		for _, r := range f.Replace {
			out = bytes.ReplaceAll(out, []byte(r.Old), []byte(r.New))
		}
		return out
	}
}

// fixupLabel describes f for operation listings
func fixupLabel(f config.Fixup) string {
	var parts []string
	if f.NormalizeNewline {
		parts = append(parts, "line endings")
	}
	if n := len(f.Replace); n == 1 {
		parts = append(parts, "1 replacement")
	} else if n > 1 {
		parts = append(parts, "replacements")
	}
	return strings.Join(parts, ", ")
}

// untestable reports whether the base name of p matches one of patterns
func untestable(p string, patterns []string) bool {
	base := path.Base(p)
	for _, pattern := range patterns {
		if ok, _ := path.Match(pattern, base); ok {
			return true
		}
	}
	return false
}
