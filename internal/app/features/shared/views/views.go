// internal/app/features/shared/views/views.go
package views

import (
	"embed"

	"github.com/dalemusser/waffle/pantry/templates"
)

// Embed the shared template files (layout header/footer partials).
//
//go:embed templates/*.gohtml
var files embed.FS

func init() {
	templates.Register(templates.Set{
		Name:     "shared",
		FS:       files,
		Patterns: []string{"templates/*.gohtml"},
	})
}
