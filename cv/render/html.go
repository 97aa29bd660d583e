package render

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"strings"

	"portal-web/cv/model"
)

//go:embed preview.html.tmpl
var previewTemplateText string

var previewTemplate = template.Must(template.New("preview").Funcs(template.FuncMap{
	"css":      func(s string) template.CSS { return template.CSS(s) },
	"trusted":  func(s string) template.HTML { return template.HTML(s) },
	"photoSrc": photoSrc,
}).Parse(previewTemplateText))

// RenderHTML renders the live preview of doc as an HTML fragment.
func (r *Renderer) RenderHTML(doc model.Document) (string, error) {
	return r.RenderPreview(r.Build(doc))
}

// RenderPreview renders an already built preview. Styles come from ThemeColor and
// bodies from the sanitizer, so both are emitted without further escaping.
func (r *Renderer) RenderPreview(p Preview) (string, error) {
	var buf bytes.Buffer
	if err := previewTemplate.Execute(&buf, p); err != nil {
		return "", fmt.Errorf("render preview: %w", err)
	}
	return buf.String(), nil
}

// photoSrc allows image data URLs and web URLs; anything else is dropped.
func photoSrc(u string) template.URL {
	lower := strings.ToLower(u)
	switch {
	case strings.HasPrefix(lower, "data:image/"),
		strings.HasPrefix(lower, "blob:"),
		strings.HasPrefix(lower, "http://"),
		strings.HasPrefix(lower, "https://"):
		return template.URL(u)
	}
	return ""
}
