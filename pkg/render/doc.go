// Package render renders text templates with caching and the helper functions
// used by the module templates.
//
// Templates come from an fs.FS (usually an embedded directory). A renderer
// created with WithOverrideDir looks for a file of the same name in that
// directory first, so a project can replace individual templates:
//
//	r := render.NewRenderer(render.WithOverrideDir("templates"))
//	out, err := r.Render(templatesFS, "templates/doc.tmpl", ctx)
package render
