package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/simonhull/firebird-suite/falcon/pkg/naming"
	"github.com/simonhull/firebird-suite/falcon/pkg/schema"
	"github.com/simonhull/firebird-suite/falcon/pkg/versioning"
)

// defaultFuncMap returns the default template function map
func defaultFuncMap() template.FuncMap {
	return template.FuncMap{
		// Case conversion
		"pascalCase": naming.Pascal, // firewall_policy → FirewallPolicy
		"camelCase":  naming.Camel,  // firewall_policy → firewallPolicy
		"sanitize":   naming.Sanitize,

		// String manipulation
		"quote":      strconv.Quote, // test → "test"
		"yamlQuote":  YAMLQuote,
		"rawString":  RawString,
		"upper":      strings.ToUpper,
		"lower":      strings.ToLower,
		"trim":       strings.TrimSpace,
		"trimSuffix": TrimSuffix,
		"join":       strings.Join,
		"split":      strings.Split,
		"contains":   strings.Contains,
		"hasPrefix":  strings.HasPrefix,
		"hasSuffix":  strings.HasSuffix,
		"replace":    strings.ReplaceAll,
		"indent":     Indent,

		// Schema helpers
		"fullPath": FullPath, // ("srcintf", "name") → "srcintf,name"
		"inList":   InList,
		"vRange":   VRange, // revisions → "[v6.0.0-]"

		// Utilities
		"dict":    Dict,    // Create map for passing multiple values
		"default": Default, // Provide default value if nil/empty
		"add":     func(a, b int) int { return a + b },
	}
}

// FullPath joins an attribute name onto its comma-separated parent path
func FullPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "," + name
}

// InList reports whether s is an element of list
func InList(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// VRange renders the support windows of revisions, or "" when they cannot be computed
func VRange(revisions schema.Revisions) string {
	windows, err := versioning.Windows(revisions)
	if err != nil {
		return ""
	}
	return versioning.FormatWindows(windows)
}

// TrimSuffix removes suffix from s (argument order suits pipelines)
func TrimSuffix(suffix, s string) string {
	return strings.TrimSuffix(s, suffix)
}

// Indent prefixes every non-empty line of s with n spaces
func Indent(n int, s string) string {
	pad := strings.Repeat(" ", n)
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = pad + l
		}
	}
	return strings.Join(lines, "\n")
}

// RawString makes s safe inside a Go raw string literal
func RawString(s string) string {
	return strings.ReplaceAll(s, "`", "'")
}

// YAMLQuote renders s as a double-quoted YAML scalar
func YAMLQuote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return strconv.Quote(s)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// Dict creates a map from alternating key-value pairs
// Usage in template: {{ template "partial" (dict "key1" val1 "key2" val2) }}
func Dict(values ...any) (map[string]any, error) {
	if len(values)%2 != 0 {
		return nil, fmt.Errorf("dict requires an even number of arguments")
	}

	result := make(map[string]any, len(values)/2)
	for i := 0; i < len(values); i += 2 {
		key, ok := values[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict keys must be strings, got %T at position %d", values[i], i)
		}
		result[key] = values[i+1]
	}
	return result, nil
}

// Default returns the default value if the given value is nil or empty
func Default(defaultVal, val any) any {
	if val == nil {
		return defaultVal
	}

	if s, ok := val.(string); ok && s == "" {
		return defaultVal
	}

	switch v := val.(type) {
	case []any:
		if len(v) == 0 {
			return defaultVal
		}
	case []string:
		if len(v) == 0 {
			return defaultVal
		}
	case map[string]any:
		if len(v) == 0 {
			return defaultVal
		}
	}

	return val
}
