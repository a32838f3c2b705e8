package fortios

import (
	"context"
	"fmt"
	"strings"

	"github.com/simonhull/firebird-suite/falcon/pkg/schema"
	"github.com/simonhull/firebird-suite/falcon/pkg/versioning"
)

// Request states
const (
	StatePresent = "present"
	StateAbsent  = "absent"
)

// ApplyOptions controls a module run
type ApplyOptions struct {
	State  string // StatePresent or StateAbsent
	VDOM   string // Virtual domain; "global" for global scope
	Target string // Firmware version to check against; empty skips the check
}

// Outcome is the result of Apply
type Outcome struct {
	Failed   bool
	Changed  bool
	Response Response
	Versions *versioning.Result // nil when no target was given
}

// Handler returns a CMDB handler keyed on the module's primary key
func (m *Module) Handler(sender Sender) *Handler {
	return NewHandler(sender, m.MKey)
}

// Apply checks params against the target version, then creates, updates or
// deletes the object. Nothing is sent when the version check fails.
func (m *Module) Apply(ctx context.Context, h *Handler, params any, opts ApplyOptions) (*Outcome, error) {
	outcome := &Outcome{}

	if opts.Target != "" {
		result, err := m.Check(params, opts.Target)
		if err != nil {
			return nil, err
		}
		outcome.Versions = result
		if !result.Matched {
			outcome.Failed = true
			return outcome, nil
		}
	}

	payload, err := m.Payload(params)
	if err != nil {
		return nil, err
	}

	var resp Response
	switch opts.State {
	case StatePresent:
		resp, err = h.Set(ctx, m.Path, m.Endpoint, payload, opts.VDOM, nil)
	case StateAbsent:
		if m.MKey == "" {
			return nil, fmt.Errorf("module %s has no primary key and cannot be deleted", m.Name)
		}
		resp, err = h.Delete(ctx, m.Path, m.Endpoint, opts.VDOM, h.MKey(payload), nil)
	default:
		return nil, fmt.Errorf("state must be %q or %q, got %q", StatePresent, StateAbsent, opts.State)
	}
	if err != nil {
		return nil, err
	}

	outcome.Response = resp
	outcome.Failed = !resp.Successful()
	outcome.Changed = !outcome.Failed
	if changed, ok := resp["revision_changed"].(bool); ok && !outcome.Failed {
		outcome.Changed = changed
	}
	return outcome, nil
}

// Payload converts module params into the CMDB wire form: unknown and null
// attributes dropped, multi-value attributes joined, raw identifiers restored
// and underscores in keys turned back into hyphens.
func (m *Module) Payload(params any) (map[string]any, error) {
	root, err := m.Root()
	if err != nil {
		return nil, err
	}
	children, _ := schema.ChildrenOf(root)

	data, ok := toPlain(m.NormalizeParams(params)).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("module %s: params must be a mapping, got %T", m.Name, params)
	}

	filtered := make(map[string]any, len(data))
	for k, v := range data {
		if _, known := children.Lookup(k); known && v != nil {
			filtered[k] = v
		}
	}

	for _, path := range m.Multilists {
		flattenPath(filtered, strings.Split(path, ","), 0)
	}

	out, _ := hyphenate(restoreIdentifiers(filtered, m.Identifiers)).(map[string]any)
	return out, nil
}

func flattenPath(data any, path []string, index int) {
	m, ok := data.(map[string]any)
	if !ok || index == len(path) {
		return
	}
	v, ok := m[path[index]]
	if !ok || v == nil {
		return
	}

	if index == len(path)-1 {
		if list, ok := v.([]any); ok {
			parts := make([]string, len(list))
			for i, item := range list {
				parts[i] = fmt.Sprint(item)
			}
			m[path[index]] = strings.Join(parts, " ")
		}
		return
	}

	if list, ok := v.([]any); ok {
		for _, item := range list {
			flattenPath(item, path, index+1)
		}
		return
	}
	flattenPath(v, path, index+1)
}

func restoreIdentifiers(v any, table map[string]string) any {
	if len(table) == 0 {
		return v
	}
	return mapKeys(v, func(k string) string {
		if raw, ok := table[k]; ok {
			return raw
		}
		return k
	})
}

func hyphenate(v any) any {
	return mapKeys(v, func(k string) string {
		return strings.ReplaceAll(k, "_", "-")
	})
}

func mapKeys(v any, fn func(string) string) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fn(k)] = mapKeys(val, fn)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = mapKeys(item, fn)
		}
		return out
	default:
		return v
	}
}

// toPlain converts ordered maps from decoded request files into plain maps
func toPlain(v any) any {
	switch t := v.(type) {
	case *schema.Map:
		out := make(map[string]any, t.Len())
		for _, k := range t.Keys() {
			val, _ := t.Get(k)
			out[k] = toPlain(val)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = toPlain(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = toPlain(item)
		}
		return out
	default:
		return v
	}
}
