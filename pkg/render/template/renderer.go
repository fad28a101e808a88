package template

import (
	"io"
)

// TemplateRenderer is the seam field render functions rely on. Templates are
// addressed by name without extension; RenderString accepts inline template
// source.
type TemplateRenderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	RenderString(templateContent string, data any, out ...io.Writer) (string, error)
	RegisterFilter(name string, fn func(input any, param any) (any, error)) error
	GlobalContext(data any) error
}
