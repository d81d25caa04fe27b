package content

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
)

var md = goldmark.New()

// Markdown renders inline-formatted copy to HTML. Raw HTML in the source is
// dropped by goldmark's default renderer. A single paragraph is unwrapped so
// the result can sit inside an existing <p>.
func Markdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	out := strings.TrimSpace(buf.String())
	if strings.Count(out, "<p>") == 1 && strings.HasPrefix(out, "<p>") && strings.HasSuffix(out, "</p>") {
		out = strings.TrimSuffix(strings.TrimPrefix(out, "<p>"), "</p>")
	}
	return template.HTML(out)
}
