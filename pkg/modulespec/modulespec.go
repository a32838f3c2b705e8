// Package modulespec projects a versioned schema tree onto the argument
// specification used to check module input.
package modulespec

import (
	"encoding/json"
	"fmt"

	"github.com/simonhull/firebird-suite/falcon/pkg/schema"
)

// Spec describes one module argument
type Spec struct {
	Type     string
	Required bool
	Options  []Field // Nested arguments of dict and list-of-records types, in schema order
	Choices  []any   // Allowed values, only when they are stable across revisions
}

// Field is a named nested argument
type Field struct {
	Name string
	Spec *Spec
}

// Option returns the nested argument called name
func (s *Spec) Option(name string) (*Spec, bool) {
	for _, f := range s.Options {
		if f.Name == name {
			return f.Spec, true
		}
	}
	return nil, false
}

// Build converts a schema node into its argument specification
func Build(node schema.Node) (*Spec, error) {
	switch n := node.(type) {
	case *schema.Dict:
		return container("dict", n.Children)
	case *schema.ListOfRecords:
		return container("list", n.Children)
	case *schema.ListOfScalars:
		return leaf("list", n.Revisions(), n.Options), nil
	case *schema.Integer:
		return leaf("int", n.Revisions(), n.Options), nil
	case *schema.String:
		return leaf("str", n.Revisions(), n.Options), nil
	default:
		return nil, fmt.Errorf("%w: cannot build argument spec for %T", schema.ErrMalformed, node)
	}
}

func container(typ string, children schema.Children) (*Spec, error) {
	spec := &Spec{Type: typ, Options: make([]Field, 0, children.Len())}
	for _, name := range children.Names() {
		child, _ := children.Lookup(name)
		childSpec, err := Build(child)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		spec.Options = append(spec.Options, Field{Name: name, Spec: childSpec})
	}
	return spec, nil
}

func leaf(typ string, revisions schema.Revisions, options []schema.Option) *Spec {
	spec := &Spec{Type: typ}
	if len(options) > 0 && stableChoices(revisions, options) {
		spec.Choices = make([]any, len(options))
		for i, o := range options {
			spec.Choices[i] = o.Value
		}
	}
	return spec
}

// stableChoices reports whether every option declares every revision label of
// its attribute. Options that appear or disappear across revisions make a flat
// choice list wrong for some targets.
func stableChoices(revisions schema.Revisions, options []schema.Option) bool {
	for label := range revisions {
		for _, o := range options {
			if _, ok := o.Revisions[label]; !ok {
				return false
			}
		}
	}
	return true
}

func (s *Spec) ordered() *schema.Map {
	m := schema.NewMap()
	m.Set("type", s.Type)
	m.Set("required", s.Required)
	if s.Type == "dict" || s.Options != nil {
		opts := schema.NewMap()
		for _, f := range s.Options {
			opts.Set(f.Name, f.Spec.ordered())
		}
		m.Set("options", opts)
	}
	if s.Choices != nil {
		m.Set("choices", s.Choices)
	}
	return m
}

// MarshalJSON writes the spec with nested options in schema order
func (s *Spec) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.ordered())
}

// MarshalYAML writes the spec with nested options in schema order
func (s *Spec) MarshalYAML() (any, error) {
	return s.ordered(), nil
}
