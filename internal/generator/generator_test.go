package generator

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/firebird-suite/falcon/pkg/fortios"
	"github.com/simonhull/firebird-suite/falcon/pkg/naming"
	"github.com/simonhull/firebird-suite/falcon/pkg/schema"
)

const testDocument = `{
	"version": "v7.0.0",
	"results": [
		{
			"path": "firewall",
			"name": "policy",
			"schema": {
				"help": "Configure IPv4 policies.",
				"mkey": "policyid",
				"mkey_type": "integer",
				"revisions": {"v6.0.0": true, "v7.0.0": true},
				"children": {
					"policyid": {"type": "integer", "help": "Policy ID.", "revisions": {"v6.0.0": true}},
					"name": {"type": "string", "help": "Policy name.", "revisions": {"v6.0.0": true}},
					"srcintf": {
						"type": "list",
						"help": "Incoming interface.",
						"revisions": {"v6.0.0": true},
						"children": {
							"name": {"type": "string", "help": "Interface name.", "revisions": {"v6.0.0": true}}
						}
					},
					"logtraffic-start": {
						"type": "string",
						"help": "Record logs when a session starts (default = disable).",
						"revisions": {"v6.0.0": true},
						"options": [
							{"value": "enable", "revisions": {"v6.0.0": true}},
							{"value": "disable", "revisions": {"v6.0.0": true}}
						]
					},
					"3g-modem": {"type": "string", "help": "Modem mode, not a-b-c.", "revisions": {"v6.0.0": true}},
					"days": {
						"type": "list",
						"help": "Weekdays.",
						"revisions": {"v6.0.0": true},
						"options": [
							{"value": "monday", "revisions": {"v6.0.0": true}},
							{"value": "tuesday", "revisions": {"v6.0.0": true}}
						]
					},
					"ztna-ems-tag": {"type": "string", "help": "ZTNA EMS tag.", "revisions": {"v7.0.0": true}}
				}
			}
		},
		{
			"path": "system",
			"name": "placeholder",
			"schema": {"help": "Nothing to configure.", "mkey": "id", "mkey_type": "string", "revisions": {"v7.0.0": true}}
		}
	]
}`

func testTables() *schema.Tables {
	return &schema.Tables{
		SpecialAttributes: map[string][][]string{"firewall_policy": {{"days"}}},
		Identifiers:       map[string]string{"3g_modem": "d3g_modem"},
		VersionAdded:      map[string]string{},
	}
}

func loadDocument(t *testing.T) *schema.Document {
	t.Helper()
	doc, err := schema.ParseDocument([]byte(testDocument))
	require.NoError(t, err)
	return doc
}

func fileContent(t *testing.T, a *Artifacts, suffix string) string {
	t.Helper()
	for _, f := range a.Files {
		if strings.HasSuffix(f.Path, suffix) {
			return string(f.Content)
		}
	}
	t.Fatalf("no artifact ending in %s", suffix)
	return ""
}

func TestGenerate(t *testing.T) {
	doc := loadDocument(t)
	g := New(Options{Tests: true})

	a, err := g.Generate(doc.Entries[0], doc.Version, testTables())
	require.NoError(t, err)
	require.NotNil(t, a)

	assert.Equal(t, "fortios_firewall_policy", a.Module)
	assert.Equal(t, "firewall_policy", a.Key)
	assert.Equal(t, "policyid", a.MKey)
	assert.Equal(t, []string{
		"firewall/fortios_firewall_policy.go",
		"firewall/fortios_firewall_policy_example.yml",
		"firewall/fortios_firewall_policy_test.go",
	}, a.Paths())
	assert.Equal(t, naming.Table{"3g_modem": "d3g_modem"}, a.Identifiers)
}

func TestGenerate_ModuleFile(t *testing.T) {
	doc := loadDocument(t)
	a, err := New(Options{}).Generate(doc.Entries[0], doc.Version, testTables())
	require.NoError(t, err)

	module := fileContent(t, a, ".go")

	assert.True(t, strings.HasPrefix(module, "// Code generated by falcon"))
	assert.Contains(t, module, "package firewall\n")
	assert.Contains(t, module, "module: fortios_firewall_policy\n")
	assert.Contains(t, module, "short_description: Configure IPv4 policies in Fortinet's FortiOS and FortiGate.\n")
	assert.Contains(t, module, `version_added: "2.10"`)
	assert.Contains(t, module, "Tested with FOS v7.0.0")

	// normalized and remapped names
	assert.Contains(t, module, "logtraffic_start:")
	assert.Contains(t, module, "d3g_modem:")
	assert.NotContains(t, module, "logtraffic-start")

	// help text keeps its hyphens
	assert.Contains(t, module, "Modem mode, not a-b-c.")

	// default clauses are stripped from documentation
	assert.Contains(t, module, "Record logs when a session starts .")
	assert.NotContains(t, module, "default = disable")

	assert.Contains(t, module, "elements: str")
	assert.Contains(t, module, "elements: dict")
	assert.Contains(t, module, "v_range: [v7.0.0-]")

	assert.Contains(t, module, "fortios.Register(&fortios.Module{")
	assert.Contains(t, module, `Name:          "fortios_firewall_policy",`)
	assert.Contains(t, module, `MKey:          "policyid",`)
	assert.Contains(t, module, `"d3g_modem": "3g_modem",`)
	assert.Contains(t, module, "Multilists: []string{\n\t\t\t\"days\",")

	for i, line := range strings.Split(module, "\n") {
		assert.LessOrEqual(t, utf8.RuneCountInString(line), 159, "line %d too long", i+1)
	}
}

func TestGenerate_SchemaRoundTrip(t *testing.T) {
	doc := loadDocument(t)
	g := New(Options{})

	ctx, _, err := g.buildContext(doc.Entries[0], doc.Version, testTables())
	require.NoError(t, err)
	assert.NotContains(t, ctx.SchemaYAML, "help:")

	a, err := g.Generate(doc.Entries[0], doc.Version, testTables())
	require.NoError(t, err)

	raw, err := schema.DecodeYAML([]byte(fileContent(t, a, "_example.yml")))
	require.NoError(t, err)
	tasks, ok := raw.([]any)
	require.True(t, ok)
	require.Len(t, tasks, 1)

	task := tasks[0].(*schema.Map)
	args, _ := task.Get("fortinet.fortios.fortios_firewall_policy")
	params, _ := args.(*schema.Map).Get("firewall_policy")
	pm, ok := params.(*schema.Map)
	require.True(t, ok)

	assert.Equal(t, []string{"policyid", "name", "srcintf", "logtraffic_start", "d3g_modem", "days", "ztna_ems_tag"}, pm.Keys())
	policyid, _ := pm.Get("policyid")
	assert.Equal(t, 1, policyid)
	logtraffic, _ := pm.Get("logtraffic_start")
	assert.Equal(t, "enable", logtraffic)
	days, _ := pm.Get("days")
	assert.Equal(t, []any{"monday"}, days)

	// the example is valid input for the generated module
	m := &fortios.Module{
		Name:        ctx.Module,
		Path:        ctx.OriginalPath,
		Endpoint:    ctx.OriginalName,
		MKey:        ctx.MKey,
		Schema:      ctx.SchemaYAML,
		Multilists:  ctx.Multilists,
		Identifiers: ctx.Identifiers,
	}
	result, err := m.Check(params, "v7.0.0")
	require.NoError(t, err)
	assert.True(t, result.Matched, result.Mismatches)

	result, err = m.Check(params, "v6.0.0")
	require.NoError(t, err)
	assert.Equal(t, []string{"option ztna_ems_tag(<your_own_value>) not supported until in v7.0.0"}, result.Mismatches)

	payload, err := m.Payload(params)
	require.NoError(t, err)
	assert.Equal(t, "monday", payload["days"])
	assert.Equal(t, "<your_own_value>", payload["3g-modem"])
	assert.Contains(t, payload, "logtraffic-start")
}

func TestGenerate_TestFile(t *testing.T) {
	doc := loadDocument(t)
	a, err := New(Options{Tests: true}).Generate(doc.Entries[0], doc.Version, testTables())
	require.NoError(t, err)

	test := fileContent(t, a, "_test.go")
	assert.Contains(t, test, "package firewall\n")
	assert.Contains(t, test, "type firewallPolicySender struct")
	assert.Contains(t, test, "func TestFirewallPolicyRegistered(t *testing.T)")
	assert.Contains(t, test, `fortios.Lookup("fortios_firewall_policy")`)
	assert.Contains(t, test, `"/api/v2/cmdb/firewall/policy"`)
}

func TestGenerate_SkipsEntriesWithoutChildren(t *testing.T) {
	doc := loadDocument(t)

	a, err := New(Options{}).Generate(doc.Entries[1], doc.Version, testTables())
	assert.NoError(t, err)
	assert.Nil(t, a)
}

func TestGenerate_Malformed(t *testing.T) {
	entry := schema.Entry{Path: "system", Name: "global", Schema: schema.NewMap()}
	children := schema.NewMap()
	bad := schema.NewMap()
	bad.Set("type", "tuple")
	bad.Set("revisions", schema.NewMap())
	children.Set("x", bad)
	entry.Schema.Set("revisions", schema.NewMap())
	entry.Schema.Set("children", children)

	_, err := New(Options{}).Generate(entry, "v7.0.0", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, schema.ErrMalformed))
	assert.Contains(t, err.Error(), "fortios_system_global")
}

func TestGenerate_VersionAdded(t *testing.T) {
	doc := loadDocument(t)

	tables := testTables()
	tables.VersionAdded["fortios_firewall_policy"] = "2.9"
	a, err := New(Options{}).Generate(doc.Entries[0], doc.Version, tables)
	require.NoError(t, err)
	assert.Contains(t, fileContent(t, a, ".go"), `version_added: "2.9"`)

	a, err = New(Options{BaselineVersion: "1.0.0"}).Generate(doc.Entries[0], doc.Version, testTables())
	require.NoError(t, err)
	assert.Contains(t, fileContent(t, a, ".go"), `version_added: "1.0.0"`)
}

func TestGenerate_TemplateOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "return.tmpl"),
		[]byte("\nconst {{ .Var }}Return = `custom`\n"), 0o644))

	doc := loadDocument(t)
	a, err := New(Options{TemplatesDir: dir}).Generate(doc.Entries[0], doc.Version, testTables())
	require.NoError(t, err)

	module := fileContent(t, a, ".go")
	assert.Contains(t, module, "const firewallPolicyReturn = `custom`")
	assert.Contains(t, module, "const firewallPolicyDocumentation = `")
}

func TestGenerate_LongHelpIsWrapped(t *testing.T) {
	doc := loadDocument(t)
	entry := doc.Entries[0]
	children, _ := entry.Schema.Get("children")
	name, _ := children.(*schema.Map).Get("name")
	name.(*schema.Map).Set("help", strings.Repeat("very long policy name help, ", 12))

	a, err := New(Options{}).Generate(entry, doc.Version, testTables())
	require.NoError(t, err)

	for _, line := range strings.Split(fileContent(t, a, ".go"), "\n") {
		assert.LessOrEqual(t, utf8.RuneCountInString(line), 159)
	}
}

// schemaConst returns the body of the generated schema constant
func schemaConst(t *testing.T, src, name string) string {
	t.Helper()
	prefix := "const " + name + " = "
	start := strings.Index(src, prefix)
	require.GreaterOrEqual(t, start, 0, "no %s constant", name)
	rest := src[start+len(prefix):]

	if strings.HasPrefix(rest, "`") {
		end := strings.Index(rest[1:], "`")
		require.GreaterOrEqual(t, end, 0)
		return rest[1 : end+1]
	}
	line, _, _ := strings.Cut(rest, "\n")
	value, err := strconv.Unquote(line)
	require.NoError(t, err)
	return value
}

func TestGenerate_LongOptionKeepsSchemaIntact(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"raw string", strings.Repeat("abc,", 50)},
		{"quoted string", strings.Repeat("a`b,", 50)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := loadDocument(t)
			entry := doc.Entries[0]
			children, _ := entry.Schema.Get("children")
			attr, _ := children.(*schema.Map).Get("logtraffic-start")
			options, _ := attr.(*schema.Map).Get("options")

			long := schema.NewMap()
			long.Set("value", tt.value)
			revisions := schema.NewMap()
			revisions.Set("v6.0.0", true)
			long.Set("revisions", revisions)
			attr.(*schema.Map).Set("options", append(options.([]any), long))

			g := New(Options{})
			ctx, _, err := g.buildContext(entry, doc.Version, testTables())
			require.NoError(t, err)

			a, err := g.Generate(entry, doc.Version, testTables())
			require.NoError(t, err)
			src := fileContent(t, a, ".go")
			assert.Contains(t, src, goString(ctx.SchemaYAML))

			embedded := schemaConst(t, src, "firewallPolicySchema")
			assert.Equal(t, ctx.SchemaYAML, embedded)

			m := &fortios.Module{Name: ctx.Module, Schema: embedded}
			root, err := m.Root()
			require.NoError(t, err)
			rootChildren, ok := schema.ChildrenOf(root)
			require.True(t, ok)
			node, ok := rootChildren.Lookup("logtraffic_start")
			require.True(t, ok)
			opts := schema.OptionsOf(node)
			require.Len(t, opts, 3)
			assert.Equal(t, tt.value, opts[2].Value)
		})
	}
}

func TestSelectors(t *testing.T) {
	doc := loadDocument(t)

	selectors := Selectors(doc)
	assert.Equal(t, []Selector{
		{Name: "firewall_policy", MKey: "policyid", MKeyType: "int"},
		{Name: "system_placeholder", MKey: "id", MKeyType: "str"},
	}, selectors)

	out, err := New(Options{}).RenderSelectors(doc.Version, append(selectors, Selector{Name: "system_global"}))
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "# FortiOS v7.0.0 configuration selectors")
	assert.Contains(t, text, "| `firewall_policy` | policyid | int |")
	assert.Contains(t, text, "| `system_global` | - | - |")
}

func TestGoString(t *testing.T) {
	assert.Equal(t, "`a: b\n`", goString("a: b\n"))
	assert.Equal(t, "\"a `b`\"", goString("a `b`"))
}

func TestModule(t *testing.T) {
	doc := loadDocument(t)
	g := New(Options{})

	m, err := g.Module(doc.Entries[0], doc.Version, testTables())
	require.NoError(t, err)
	assert.Equal(t, "fortios_firewall_policy", m.Name)
	assert.Equal(t, "firewall_policy", m.Parameter)
	assert.Equal(t, "policyid", m.MKey)
	assert.Equal(t, []string{"days"}, m.Multilists)
	assert.Equal(t, map[string]string{"d3g_modem": "3g_modem"}, m.Identifiers)

	spec, err := m.Spec()
	require.NoError(t, err)
	_, ok := spec.Option("ztna_ems_tag")
	assert.True(t, ok)

	_, err = g.Module(doc.Entries[1], doc.Version, testTables())
	assert.ErrorContains(t, err, "fortios_system_placeholder: not a valid schema")
}

func TestModule_RawParamKeys(t *testing.T) {
	doc, err := schema.ParseDocument([]byte(`{
		"version": "v2.0.0",
		"results": [{"path": "system", "name": "mode", "schema": {
			"help": "Mode.",
			"revisions": {"v1.0.0": true, "v2.0.0": true},
			"children": {
				"mode-x": {"type": "integer", "help": "Mode.", "revisions": {"v1.0.0": false, "v2.0.0": true}},
				"sub": {"type": "dict", "help": "Sub.", "revisions": {"v1.0.0": true}, "children": {
					"inner-y": {"type": "integer", "help": "Inner.", "revisions": {"v1.0.0": false, "v2.0.0": true}}
				}}
			}
		}}]
	}`))
	require.NoError(t, err)

	m, err := New(Options{}).Module(doc.Entries[0], doc.Version, nil)
	require.NoError(t, err)

	result, err := m.Check(map[string]any{"mode-x": 3}, "v1.5.0")
	require.NoError(t, err)
	assert.Equal(t, []string{"option mode_x(3) not supported since v1.0.0, before v2.0.0"}, result.Mismatches)

	result, err = m.Check(map[string]any{"sub": map[string]any{"inner-y": 3}}, "v1.5.0")
	require.NoError(t, err)
	assert.Equal(t, []string{"option sub.inner_y(3) not supported since v1.0.0, before v2.0.0"}, result.Mismatches)
}
