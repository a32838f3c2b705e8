package generator

import (
	"fmt"

	"github.com/simonhull/firebird-suite/falcon/pkg/fortios"
	"github.com/simonhull/firebird-suite/falcon/pkg/naming"
	"github.com/simonhull/firebird-suite/falcon/pkg/schema"
)

// Module builds the descriptor the generated file for entry registers,
// without rendering any artifacts. Documentation blocks are left empty.
func (g *Generator) Module(entry schema.Entry, apiVersion string, tables *schema.Tables) (*fortios.Module, error) {
	if tables == nil {
		tables = &schema.Tables{}
	}
	name := naming.ModuleName(entry.Path, entry.Name)
	if !entry.HasChildren() {
		return nil, fmt.Errorf("%s: not a valid schema", name)
	}

	ctx, _, err := g.buildContext(entry, apiVersion, tables)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	return &fortios.Module{
		Name:        ctx.Module,
		Path:        ctx.OriginalPath,
		Endpoint:    ctx.OriginalName,
		Parameter:   ctx.Key,
		MKey:        ctx.MKey,
		Schema:      ctx.SchemaYAML,
		Multilists:  ctx.Multilists,
		Identifiers: ctx.Identifiers,
	}, nil
}
