package template

import (
	"io"
)

// TemplateRenderer renders named markup templates for text backends such as
// the HTML preview. Rendered output is returned and copied to every writer in
// out.
type TemplateRenderer interface {
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	RegisterFilter(name string, fn func(input any, param any) (any, error)) error
}
