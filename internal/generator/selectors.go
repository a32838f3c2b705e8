package generator

import (
	"fmt"

	"github.com/simonhull/firebird-suite/falcon/pkg/schema"
)

// SelectorsFile is the selectors index, relative to the version directory
const SelectorsFile = "fortios_configuration_fact.md"

// Selector names a configuration endpoint and how its objects are keyed
type Selector struct {
	Name     string // path_name, raw spelling
	MKey     string
	MKeyType string // "int", "str" or empty for singletons
}

// Selectors lists every entry of doc in document order
func Selectors(doc *schema.Document) []Selector {
	selectors := make([]Selector, 0, len(doc.Entries))
	for _, e := range doc.Entries {
		selectors = append(selectors, Selector{
			Name:     e.Path + "_" + e.Name,
			MKey:     e.MKey(),
			MKeyType: selectorKeyType(e.MKeyType()),
		})
	}
	return selectors
}

func selectorKeyType(t string) string {
	switch t {
	case "":
		return ""
	case "integer":
		return "int"
	default:
		return "str"
	}
}

// RenderSelectors renders the selectors index
func (g *Generator) RenderSelectors(version string, selectors []Selector) ([]byte, error) {
	data := struct {
		Version   string
		Selectors []Selector
	}{version, selectors}

	out, err := g.renderer.Render(templatesFS, "templates/selectors.tmpl", data)
	if err != nil {
		return nil, fmt.Errorf("rendering selectors: %w", err)
	}
	return out, nil
}
