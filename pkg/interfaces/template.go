package interfaces

// TemplateRenderer abstracts the template engine used to produce HTML pages.
// The default implementation is pongo2-backed; hosts can supply their own.
type TemplateRenderer interface {
	RenderTemplate(name string, data map[string]any) (string, error)
	RenderString(templateContent string, data map[string]any) (string, error)
	RegisterFilter(name string, fn func(input any, param any) (any, error)) error
}
