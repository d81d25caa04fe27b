package view

import (
	"embed"
	"html/template"
	"strings"

	"github.com/pkg/errors"

	"github.com/kydev/portfolio/internal/content"
)

//go:embed templates/*.html
var templateFS embed.FS

// FuncMap is shared by the embedded templates and on-disk overrides.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"classes": Classes,
		"join":    Join,
		"md":      content.Markdown,
		"upper":   strings.ToUpper,
		"add":     func(a, b int) int { return a + b },
		"heading": func(t Theme, title, subtitle string) Heading {
			return Heading{Theme: t, Title: title, Subtitle: subtitle}
		},
	}
}

// Heading is the title block at the top of a section.
type Heading struct {
	Theme    Theme
	Title    string
	Subtitle string
}

// Templates parses the embedded template set.
func Templates() (*template.Template, error) {
	t, err := template.New("").Funcs(FuncMap()).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "parsing embedded templates")
	}
	return t, nil
}
