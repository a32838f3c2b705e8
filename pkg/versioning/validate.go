package versioning

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/simonhull/firebird-suite/falcon/pkg/schema"
)

// Result is the outcome of validating a parameter tree against a target version
type Result struct {
	Matched       bool     `json:"matched" yaml:"matched"`
	SystemVersion string   `json:"system_version" yaml:"system_version"`
	Mismatches    []string `json:"mismatches" yaml:"mismatches"`
}

func (r *Result) mismatch(format string, args ...any) {
	r.Mismatches = append(r.Mismatches, fmt.Sprintf(format, args...))
}

// Validate checks params against the versioned schema of module at target.
//
// Unsupported attributes are reported as mismatches, never as errors. Params
// the user left empty are not checked. A params shape the schema cannot
// describe returns a *SchemaError.
func Validate(module string, root schema.Node, params any, target string) (*Result, error) {
	result := &Result{Matched: true, SystemVersion: target, Mismatches: []string{}}
	if root == nil || isEmpty(params) {
		return result, nil
	}

	support, err := Resolve(root.Revisions(), target)
	if err != nil {
		return nil, err
	}
	if !support.Supported {
		result.Matched = false
		result.mismatch("module %s %s", module, support.Reason)
		return result, nil
	}

	pairs, ok := pairsOf(params)
	if !ok {
		return nil, malformed(Path{}, "module params must be a mapping, got %T", params)
	}
	children, _ := schema.ChildrenOf(root)

	for _, kv := range pairs {
		child, ok := children.Lookup(kv.key)
		if !ok || isEmpty(kv.value) {
			continue
		}
		if err := walk(result, Path{}.With(KeySegment(kv.key, kv.value)), child, kv.value, target); err != nil {
			return nil, err
		}
	}

	result.Matched = len(result.Mismatches) == 0
	return result, nil
}

// walk checks one schema node against the params found at p
func walk(result *Result, p Path, node schema.Node, params any, target string) error {
	if node == nil || isEmpty(params) {
		return nil
	}

	support, err := Resolve(node.Revisions(), target)
	if err != nil {
		return atPath(err, p)
	}
	if !support.Supported {
		result.mismatch("option %s %s", p, support.Reason)
	}

	switch n := node.(type) {
	case *schema.Dict:
		if n.Children.Len() == 0 {
			return nil
		}
		return walkRecord(result, p, n.Children, params, target)

	case *schema.ListOfRecords:
		items, ok := params.([]any)
		if !ok {
			return malformed(p, "expected a list, got %T", params)
		}
		for _, item := range items {
			if err := walkRecord(result, p, n.Children, item, target); err != nil {
				return err
			}
		}
		return nil

	case *schema.ListOfScalars:
		items, ok := params.([]any)
		if !ok {
			return malformed(p, "expected a list, got %T", params)
		}
		for _, item := range items {
			if !isPrimitive(item) {
				return malformed(p, "list element must be a scalar, got %T", item)
			}
			option, ok := findOption(n.Options, item)
			if !ok {
				return malformed(p, "value %v is not one of the declared options", item)
			}
			if err := checkOption(result, p.With(OptionSegment(item)), option, item, target); err != nil {
				return err
			}
		}
		return nil

	case *schema.Integer, *schema.String:
		if !isPrimitive(params) {
			return malformed(p, "expected a scalar, got %T", params)
		}
		if option, ok := findOption(schema.OptionsOf(node), params); ok {
			return checkOption(result, p.With(OptionSegment(params)), option, params, target)
		}
		return nil

	default:
		return malformed(p, "unsupported schema node %T", node)
	}
}

func walkRecord(result *Result, p Path, children schema.Children, params any, target string) error {
	pairs, ok := pairsOf(params)
	if !ok {
		return malformed(p, "expected a mapping, got %T", params)
	}
	for _, kv := range pairs {
		child, ok := children.Lookup(kv.key)
		if !ok {
			return malformed(p, "unknown attribute %q", kv.key)
		}
		if err := walk(result, p.With(KeySegment(kv.key, kv.value)), child, kv.value, target); err != nil {
			return err
		}
	}
	return nil
}

func checkOption(result *Result, p Path, option schema.Option, value any, target string) error {
	if isEmpty(value) {
		return nil
	}
	support, err := Resolve(option.Revisions, target)
	if err != nil {
		return atPath(err, p)
	}
	if !support.Supported {
		result.mismatch("option %s %s", p, support.Reason)
	}
	return nil
}

func findOption(options []schema.Option, value any) (schema.Option, bool) {
	for _, o := range options {
		if valuesEqual(o.Value, value) {
			return o, true
		}
	}
	return schema.Option{}, false
}

// valuesEqual compares option values, treating numbers of any Go type alike
func valuesEqual(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	return a == b
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case float64:
		return t, true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	}
	return 0, false
}

type pair struct {
	key   string
	value any
}

// pairsOf lists a mapping's entries: document order for *schema.Map, sorted
// keys for plain maps.
func pairsOf(v any) ([]pair, bool) {
	switch m := v.(type) {
	case *schema.Map:
		pairs := make([]pair, 0, m.Len())
		for _, k := range m.Keys() {
			val, _ := m.Get(k)
			pairs = append(pairs, pair{k, val})
		}
		return pairs, true
	case map[string]any:
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]pair, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, pair{k, m[k]})
		}
		return pairs, true
	}
	return nil, false
}

// isEmpty reports whether a params value counts as "not configured"
func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	case int:
		return t == 0
	case int64:
		return t == 0
	case float64:
		return t == 0
	case json.Number:
		f, err := t.Float64()
		return err == nil && f == 0
	case []any:
		return len(t) == 0
	case *schema.Map:
		return t.Len() == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}
