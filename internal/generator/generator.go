package generator

import (
	"embed"
	"fmt"
	"path"
	"strconv"
	"strings"
	"text/template"

	"github.com/simonhull/firebird-suite/falcon/pkg/logger"
	"github.com/simonhull/firebird-suite/falcon/pkg/naming"
	"github.com/simonhull/firebird-suite/falcon/pkg/render"
	"github.com/simonhull/firebird-suite/falcon/pkg/schema"
	"github.com/simonhull/firebird-suite/falcon/pkg/textfmt"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// DefaultBaselineVersion is the version_added of modules missing from the
// version-added table
const DefaultBaselineVersion = "2.10"

// Options configures a Generator
type Options struct {
	TemplatesDir    string // Overrides for the embedded templates
	BaselineVersion string
	Tests           bool
	Logger          logger.Logger
}

// Generator renders module artifacts from schema entries
type Generator struct {
	renderer *render.Renderer
	baseline string
	tests    bool
	log      logger.Logger
}

// New creates a generator
func New(opts Options) *Generator {
	g := &Generator{
		baseline: opts.BaselineVersion,
		tests:    opts.Tests,
		log:      opts.Logger,
	}
	if g.baseline == "" {
		g.baseline = DefaultBaselineVersion
	}
	if g.log == nil {
		g.log = logger.NewSilentLogger()
	}

	renderOpts := []render.Option{render.WithFuncs(template.FuncMap{"goString": goString})}
	if opts.TemplatesDir != "" {
		renderOpts = append(renderOpts, render.WithOverrideDir(opts.TemplatesDir))
	}
	g.renderer = render.NewRenderer(renderOpts...)
	return g
}

// File is one generated artifact, relative to the version directory
type File struct {
	Path    string
	Content []byte
}

// Artifacts is everything generated for one schema entry
type Artifacts struct {
	Module   string
	Key      string
	MKey     string
	MKeyType string
	Files    []File

	// Identifiers are the raw -> valid rewrites this module used
	Identifiers naming.Table
}

// Paths returns the artifact paths in generation order
func (a *Artifacts) Paths() []string {
	paths := make([]string, len(a.Files))
	for i, f := range a.Files {
		paths[i] = f.Path
	}
	return paths
}

// Generate renders the module, example and test artifacts of entry.
// Entries without children are skipped with a warning: (nil, nil).
func (g *Generator) Generate(entry schema.Entry, apiVersion string, tables *schema.Tables) (*Artifacts, error) {
	if tables == nil {
		tables = &schema.Tables{}
	}

	if !entry.HasChildren() {
		g.log.Warn("not a valid schema, skipping",
			logger.F("path", entry.Path),
			logger.F("name", entry.Name))
		return nil, nil
	}

	ctx, used, err := g.buildContext(entry, apiVersion, tables)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", naming.ModuleName(entry.Path, entry.Name), err)
	}

	g.log.Debug("rendering module", logger.F("module", ctx.Module), logger.F("index", entry.Index))

	module, err := g.renderModule(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ctx.Module, err)
	}

	example, err := g.renderer.Render(templatesFS, "templates/examples.tmpl", ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: rendering example: %w", ctx.Module, err)
	}

	base := path.Join(ctx.Path, ctx.Module)
	artifacts := &Artifacts{
		Module:      ctx.Module,
		Key:         ctx.Key,
		MKey:        ctx.MKey,
		MKeyType:    ctx.MKeyType,
		Identifiers: used,
		Files: []File{
			{Path: base + ".go", Content: module},
			{Path: base + "_example.yml", Content: []byte(textfmt.TrimLines(string(example), 2, 1))},
		},
	}

	if g.tests {
		test, err := g.renderer.Render(templatesFS, "templates/tests.tmpl", ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: rendering tests: %w", ctx.Module, err)
		}
		artifacts.Files = append(artifacts.Files, File{Path: base + "_test.go", Content: test})
	}

	return artifacts, nil
}

// renderModule concatenates the module templates. Default clauses are
// stripped and long lines rewrapped in the documentation blocks only; the
// code block embeds the machine-readable schema and is appended as rendered.
func (g *Generator) renderModule(ctx *Context) ([]byte, error) {
	var b strings.Builder
	for _, name := range []string{"doc", "examples", "return"} {
		out, err := g.renderer.Render(templatesFS, "templates/"+name+".tmpl", ctx)
		if err != nil {
			return nil, fmt.Errorf("rendering %s: %w", name, err)
		}
		b.Write(out)
	}

	text := textfmt.StripDefaults(b.String())
	text = textfmt.Rewrap(text, textfmt.MaxColumns)

	code, err := g.renderer.Render(templatesFS, "templates/code.tmpl", ctx)
	if err != nil {
		return nil, fmt.Errorf("rendering code: %w", err)
	}
	return append([]byte(text), code...), nil
}

func (g *Generator) buildContext(entry schema.Entry, apiVersion string, tables *schema.Tables) (*Context, naming.Table, error) {
	normalized, ok := naming.Normalize(entry.Schema).(*schema.Map)
	if !ok {
		return nil, nil, fmt.Errorf("entry schema must be an object")
	}

	used := naming.Table{}
	if children, ok := normalized.Get("children"); ok {
		normalized.Set("children", naming.Remap(children, tables.Identifiers, used))
	}

	root, err := schema.ParseRoot(normalized)
	if err != nil {
		return nil, nil, err
	}

	schemaYAML, err := schema.EncodeYAML(schema.Prune(normalized, "help"))
	if err != nil {
		return nil, nil, fmt.Errorf("encoding schema: %w", err)
	}

	key := naming.ModuleKey(entry.Path, entry.Name)
	module := naming.ModuleName(entry.Path, entry.Name)

	versionAdded, ok := tables.VersionAdded[module]
	if !ok {
		versionAdded = g.baseline
	}

	multilists := multilistPaths(tables.SpecialAttributes[key], tables.Identifiers)

	reverse := make(map[string]string, len(used))
	for raw, valid := range used {
		reverse[valid] = raw
	}

	counter := 0
	ctx := &Context{
		Module:           module,
		Key:              key,
		Ident:            naming.Pascal(key),
		Var:              naming.Camel(key),
		Package:          naming.Sanitize(entry.Path),
		Path:             naming.Sanitize(entry.Path),
		Name:             naming.Sanitize(entry.Name),
		OriginalPath:     entry.Path,
		OriginalName:     entry.Name,
		APIVersion:       apiVersion,
		VersionAdded:     versionAdded,
		ShortDescription: docText(shortDescription(entry.Help())),
		Help:             docText(entry.Help()),
		MKey:             entry.MKey(),
		MKeyType:         entry.MKeyType(),
		SchemaYAML:       string(schemaYAML),
		Multilists:       multilists,
		Identifiers:      reverse,
		Root: &Attribute{
			Name:     key,
			Type:     root.Kind().String(),
			Help:     docText(root.Help()),
			VRange:   render.VRange(root.Revisions()),
			Children: buildAttributes(root, "", multilists, &counter),
		},
	}
	return ctx, used, nil
}

// goString renders s as a Go string literal, raw when possible
func goString(s string) string {
	if strings.Contains(s, "`") || strings.Contains(s, "\r") {
		return strconv.Quote(s)
	}
	return "`" + s + "`"
}
