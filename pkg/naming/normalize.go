// Package naming turns raw CMDB spellings into identifiers usable in
// generated code, without touching free-text help.
package naming

import (
	"strings"
	"unicode"

	"github.com/simonhull/firebird-suite/falcon/pkg/schema"
)

const helpKey = "help"

// Normalize returns a copy of raw with hyphens in keys and string values
// rewritten to underscores. Values under "help" and enum markers of the exact
// form {name, help} are copied unchanged.
func Normalize(raw any) any {
	return rewrite(raw, func(s string) string {
		return strings.ReplaceAll(s, "-", "_")
	})
}

// Table maps raw identifier spellings to valid replacements
type Table map[string]string

// Remap returns a copy of raw with keys and string values found in table
// substituted, using the same exemptions as Normalize. Each substitution is
// recorded in used, which may be nil.
func Remap(raw any, table Table, used Table) any {
	return rewrite(raw, func(s string) string {
		valid, ok := table[s]
		if !ok || valid == s {
			return s
		}
		if used != nil {
			used[s] = valid
		}
		return valid
	})
}

// NormalizeKeys returns a copy of params with every mapping key rewritten the
// way schema keys are: hyphens to underscores, then substitution through
// table. Values are left as given. Ordered maps keep their order.
func NormalizeKeys(params any, table Table) any {
	key := func(k string) string {
		k = strings.ReplaceAll(k, "-", "_")
		if valid, ok := table[k]; ok {
			return valid
		}
		return k
	}
	return rewriteKeys(params, key)
}

func rewriteKeys(v any, key func(string) string) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = rewriteKeys(item, key)
		}
		return out
	case *schema.Map:
		out := schema.NewMap()
		for _, k := range t.Keys() {
			val, _ := t.Get(k)
			out.Set(key(k), rewriteKeys(val, key))
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[key(k)] = rewriteKeys(val, key)
		}
		return out
	default:
		return v
	}
}

func rewrite(raw any, fn func(string) string) any {
	switch t := raw.(type) {
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = rewrite(item, fn)
		}
		return out
	case *schema.Map:
		if isEnumMarker(t) {
			return clone(t)
		}
		out := schema.NewMap()
		for _, k := range t.Keys() {
			v, _ := t.Get(k)
			if k == helpKey {
				out.Set(k, clone(v))
				continue
			}
			out.Set(fn(k), rewrite(v, fn))
		}
		return out
	case string:
		return fn(t)
	default:
		return raw
	}
}

func isEnumMarker(m *schema.Map) bool {
	return m.Len() == 2 && m.Has("name") && m.Has(helpKey)
}

func clone(v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = clone(item)
		}
		return out
	case *schema.Map:
		out := schema.NewMap()
		for _, k := range t.Keys() {
			val, _ := t.Get(k)
			out.Set(k, clone(val))
		}
		return out
	default:
		return v
	}
}

// Sanitize makes a CMDB path or name segment safe for module naming
func Sanitize(s string) string {
	return sanitizer.Replace(s)
}

var sanitizer = strings.NewReplacer("-", "_", ".", "_", "+", "plus")

// ModuleKey is the key used for special attribute lookups ("firewall_policy")
func ModuleKey(path, name string) string {
	return Sanitize(path) + "_" + Sanitize(name)
}

// ModuleName is the generated module name ("fortios_firewall_policy")
func ModuleName(path, name string) string {
	return "fortios_" + ModuleKey(path, name)
}

// Pascal converts an underscore identifier to PascalCase ("firewall_policy" -> "FirewallPolicy").
// A result starting with a digit gets an "X" prefix.
func Pascal(s string) string {
	var b strings.Builder
	for _, part := range strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == '-' || r == '.'
	}) {
		runes := []rune(part)
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}
	out := b.String()
	if out != "" && unicode.IsDigit([]rune(out)[0]) {
		out = "X" + out
	}
	return out
}

// Camel converts an underscore identifier to camelCase
func Camel(s string) string {
	p := Pascal(s)
	if p == "" {
		return p
	}
	runes := []rune(p)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}
