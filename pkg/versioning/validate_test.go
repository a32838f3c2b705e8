package versioning

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/firebird-suite/falcon/pkg/schema"
)

const firewallPolicy = `{
	"revisions": {"v6.0.0": true, "v7.0.0": true},
	"children": {
		"mode_x": {"type": "integer", "revisions": {"v6.0.0": false, "v6.4.0": true}},
		"name": {"type": "string", "revisions": {"v6.0.0": true}},
		"action": {
			"type": "string",
			"revisions": {"v6.0.0": true},
			"options": [
				{"value": "accept", "revisions": {"v6.0.0": true}},
				{"value": "ipsec", "revisions": {"v6.0.0": true, "v7.0.0": false}}
			]
		},
		"srcintf": {
			"type": "list",
			"revisions": {"v6.0.0": true},
			"children": {
				"name": {"type": "string", "revisions": {"v6.0.0": true}},
				"zone": {"type": "string", "revisions": {"v6.2.0": true}}
			}
		},
		"schedule": {
			"type": "dict",
			"revisions": {"v6.2.0": true},
			"children": {
				"start": {"type": "string", "revisions": {"v6.2.0": false, "v6.4.0": true}}
			}
		},
		"tags": {
			"type": "list",
			"revisions": {"v6.0.0": true},
			"options": [
				{"value": "a", "revisions": {"v6.0.0": true}},
				{"value": "b", "revisions": {"v7.0.0": true}},
				{"value": 3, "revisions": {"v6.0.0": true}}
			]
		}
	}
}`

func parseRoot(t *testing.T, doc string) schema.Node {
	t.Helper()
	raw, err := schema.DecodeJSON([]byte(doc))
	require.NoError(t, err)
	node, err := schema.ParseRoot(raw)
	require.NoError(t, err)
	return node
}

func params(t *testing.T, doc string) any {
	t.Helper()
	raw, err := schema.DecodeYAML([]byte(doc))
	require.NoError(t, err)
	return raw
}

func TestValidate(t *testing.T) {
	root := parseRoot(t, firewallPolicy)

	tests := []struct {
		name       string
		params     string
		target     string
		mismatches []string
	}{
		{
			name:       "supported scalar",
			params:     "name: web\n",
			target:     "v6.4.0",
			mismatches: []string{},
		},
		{
			name:       "unsupported scalar traced with value",
			params:     "mode_x: 3\n",
			target:     "v6.2.0",
			mismatches: []string{"option mode_x(3) not supported since v6.0.0, before v6.4.0"},
		},
		{
			name:   "nested dict reports parent and child",
			params: "schedule:\n  start: now\n",
			target: "v6.0.0",
			mismatches: []string{
				"option schedule not supported until in v6.2.0",
				"option schedule.start(now) not supported until in v6.2.0",
			},
		},
		{
			name:       "list of records",
			params:     "srcintf:\n  - name: port1\n  - name: port2\n    zone: lan\n",
			target:     "v6.0.0",
			mismatches: []string{"option srcintf.zone(lan) not supported until in v6.2.0"},
		},
		{
			name:       "list of scalars option",
			params:     "tags: [a, b]\n",
			target:     "v6.4.0",
			mismatches: []string{"option tags.[b] not supported until in v7.0.0"},
		},
		{
			name:       "numeric option",
			params:     "tags: [3]\n",
			target:     "v6.4.0",
			mismatches: []string{},
		},
		{
			name:       "scalar enum option withdrawn",
			params:     "action: ipsec\n",
			target:     "v7.0.2",
			mismatches: []string{"option action(ipsec).[ipsec] not supported since v7.0.0"},
		},
		{
			name:       "empty values are not checked",
			params:     "mode_x: 0\nschedule: {}\ntags: []\nname: \"\"\n",
			target:     "v6.0.0",
			mismatches: []string{},
		},
		{
			name:       "unknown top level key is skipped",
			params:     "vdom: root\n",
			target:     "v6.0.0",
			mismatches: []string{},
		},
		{
			name:       "module not supported",
			params:     "name: web\n",
			target:     "v5.6.0",
			mismatches: []string{"module fortios_firewall_policy not supported until in v6.0.0"},
		},
		{
			name:   "document order",
			params: "schedule:\n  start: now\nmode_x: 1\n",
			target: "v6.2.0",
			mismatches: []string{
				"option schedule.start(now) not supported since v6.2.0, before v6.4.0",
				"option mode_x(1) not supported since v6.0.0, before v6.4.0",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Validate("fortios_firewall_policy", root, params(t, tt.params), tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.mismatches, result.Mismatches)
			assert.Equal(t, len(tt.mismatches) == 0, result.Matched)
			assert.Equal(t, tt.target, result.SystemVersion)
		})
	}
}

func TestValidate_NoParams(t *testing.T) {
	root := parseRoot(t, firewallPolicy)

	for _, p := range []any{nil, schema.NewMap(), map[string]any{}} {
		result, err := Validate("fortios_firewall_policy", root, p, "v5.0.0")
		require.NoError(t, err)
		assert.True(t, result.Matched)
		assert.Empty(t, result.Mismatches)
	}
}

func TestValidate_PlainMapsSorted(t *testing.T) {
	root := parseRoot(t, firewallPolicy)

	result, err := Validate("fortios_firewall_policy", root, map[string]any{
		"schedule": map[string]any{"start": "now"},
		"mode_x":   1,
	}, "v6.2.0")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"option mode_x(1) not supported since v6.0.0, before v6.4.0",
		"option schedule.start(now) not supported since v6.2.0, before v6.4.0",
	}, result.Mismatches)
}

func TestValidate_WithdrawnAtEarliestLabel(t *testing.T) {
	root := parseRoot(t, `{
		"revisions": {"v1.0.0": true},
		"children": {
			"mode_x": {"type": "integer", "revisions": {"v1.0.0": false, "v2.0.0": true}}
		}
	}`)

	result, err := Validate("fortios_test", root, map[string]any{"mode_x": 3}, "v1.5.0")
	require.NoError(t, err)
	assert.Equal(t, []string{"option mode_x(3) not supported since v1.0.0, before v2.0.0"}, result.Mismatches)
}

func TestValidate_Malformed(t *testing.T) {
	root := parseRoot(t, firewallPolicy)

	tests := []struct {
		name        string
		params      string
		errContains string
	}{
		{
			name:        "no matching option",
			params:      "tags: [z]\n",
			errContains: "malformed schema at tags: value z is not one of the declared options",
		},
		{
			name:        "unknown nested attribute",
			params:      "schedule:\n  finish: now\n",
			errContains: `at schedule: unknown attribute "finish"`,
		},
		{
			name:        "record list given a scalar",
			params:      "srcintf: port1\n",
			errContains: "expected a list",
		},
		{
			name:        "leaf given a mapping",
			params:      "name:\n  first: x\n",
			errContains: "expected a scalar",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate("fortios_firewall_policy", root, params(t, tt.params), "v7.0.0")
			require.Error(t, err)
			assert.True(t, errors.Is(err, schema.ErrMalformed))
			assert.Contains(t, err.Error(), tt.errContains)

			var se *SchemaError
			assert.True(t, errors.As(err, &se))
		})
	}
}

func TestValidate_ListOfScalarsWithoutMatch(t *testing.T) {
	root := parseRoot(t, `{
		"revisions": {"v1.0.0": true},
		"children": {
			"letters": {"type": "list", "revisions": {"v1.0.0": true}, "options": [{"value": "a", "revisions": {"v1.0.0": true}}]}
		}
	}`)

	_, err := Validate("fortios_letters", root, map[string]any{"letters": []any{"b"}}, "v1.0.0")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedSchema))
}

func TestPath_Immutable(t *testing.T) {
	base := Path{}.With("a")
	left := base.With("b")
	right := base.With("c")

	assert.Equal(t, "a", base.String())
	assert.Equal(t, "a.b", left.String())
	assert.Equal(t, "a.c", right.String())
}

func TestKeySegment(t *testing.T) {
	assert.Equal(t, "mode_x(3)", KeySegment("mode_x", 3))
	assert.Equal(t, "enabled(true)", KeySegment("enabled", true))
	assert.Equal(t, "name(web)", KeySegment("name", "web"))
	assert.Equal(t, "srcintf", KeySegment("srcintf", []any{"x"}))
	assert.Equal(t, "[a]", OptionSegment("a"))
}
