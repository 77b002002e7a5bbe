package docfill

import (
	"io/fs"

	"github.com/goliatone/go-docfill/pkg/backends/preview"
)

// EmbeddedTemplates exposes the built-in preview templates so callers can
// reuse or extend them without importing the backend package directly.
func EmbeddedTemplates() fs.FS {
	return preview.TemplatesFS()
}
