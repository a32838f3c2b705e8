package generator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/simonhull/firebird-suite/falcon/pkg/naming"
	"github.com/simonhull/firebird-suite/falcon/pkg/render"
	"github.com/simonhull/firebird-suite/falcon/pkg/schema"
)

// Context is the data every module template renders against
type Context struct {
	Module  string // fortios_firewall_policy
	Key     string // firewall_policy
	Ident   string // FirewallPolicy
	Var     string // firewallPolicy
	Package string // firewall

	Path         string // Sanitized CMDB path
	Name         string // Sanitized CMDB name
	OriginalPath string
	OriginalName string

	APIVersion       string
	VersionAdded     string
	ShortDescription string
	Help             string

	MKey     string
	MKeyType string

	Root       *Attribute
	SchemaYAML string // Normalized schema, help stripped

	// Multilists are comma-joined attribute paths, as in FullPath
	Multilists []string

	// Identifiers maps the valid names used by this module back to raw spellings
	Identifiers map[string]string
}

// Choice is one enumerated option value
type Choice struct {
	Value  any
	Help   string
	VRange string
}

// Attribute is a schema node prepared for templates
type Attribute struct {
	Name      string
	Type      string // dict, list, integer, string
	Help      string
	FullPath  string // Comma-joined path from the module root
	VRange    string
	Options   []Choice
	Children  []*Attribute
	Multilist bool
	Records   bool // List of records
	Index     int  // Depth-first position, used for example values
}

// DocType is the argument type shown in documentation
func (a *Attribute) DocType() string {
	switch a.Type {
	case "integer":
		return "int"
	case "string":
		return "str"
	default:
		return a.Type
	}
}

// Example renders a sample value for the examples document
func (a *Attribute) Example() string {
	switch a.Type {
	case "integer":
		if len(a.Options) > 0 {
			return fmt.Sprint(a.Options[0].Value)
		}
		return strconv.Itoa(a.Index)
	case "string":
		if len(a.Options) > 0 {
			return exampleString(fmt.Sprint(a.Options[0].Value))
		}
		return exampleString("<your_own_value>")
	case "list":
		if len(a.Options) > 0 {
			return "[" + exampleString(fmt.Sprint(a.Options[0].Value)) + "]"
		}
		return "[]"
	}
	return ""
}

func exampleString(s string) string {
	return render.RawString(render.YAMLQuote(s))
}

// buildAttributes converts a typed node's children to template attributes in
// schema order. counter numbers attributes depth-first across the module.
func buildAttributes(node schema.Node, parent string, multilists []string, counter *int) []*Attribute {
	children, ok := schema.ChildrenOf(node)
	if !ok {
		return nil
	}

	attrs := make([]*Attribute, 0, children.Len())
	for _, name := range children.Names() {
		child, _ := children.Lookup(name)
		*counter++

		attr := &Attribute{
			Name:     name,
			Type:     child.Kind().String(),
			Help:     docText(child.Help()),
			FullPath: render.FullPath(parent, name),
			VRange:   render.VRange(child.Revisions()),
			Index:    *counter,
			Records:  child.Kind() == schema.KindListOfRecords,
		}
		attr.Multilist = render.InList(multilists, attr.FullPath)

		for _, opt := range schema.OptionsOf(child) {
			attr.Options = append(attr.Options, Choice{
				Value:  opt.Value,
				Help:   docText(opt.Help),
				VRange: render.VRange(opt.Revisions),
			})
		}

		attr.Children = buildAttributes(child, attr.FullPath, multilists, counter)
		attrs = append(attrs, attr)
	}
	return attrs
}

// multilistPaths flattens special attribute paths to the names used in the
// normalized schema
func multilistPaths(special [][]string, table naming.Table) []string {
	paths := make([]string, 0, len(special))
	for _, elems := range special {
		parts := make([]string, len(elems))
		for i, e := range elems {
			e = strings.ReplaceAll(e, "-", "_")
			if valid, ok := table[e]; ok {
				e = valid
			}
			parts[i] = e
		}
		paths = append(paths, strings.Join(parts, ","))
	}
	return paths
}

// docText makes help text safe for single-line documentation entries
func docText(s string) string {
	return render.RawString(strings.Join(strings.Fields(s), " "))
}

// shortDescription turns endpoint help into a one-line module summary
func shortDescription(help string) string {
	return strings.TrimSuffix(help, ".") + " in Fortinet's FortiOS and FortiGate."
}
