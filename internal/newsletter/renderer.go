package newsletter

import (
	"bytes"
	"embed"
	"fmt"
	"html"
	"strings"
	"text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// Renderer renders email bodies from templates. Each message kind has an
// HTML and a plain-text variant.
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer creates a new renderer and loads all templates.
func NewRenderer() (*Renderer, error) {
	funcMap := template.FuncMap{
		"title":      titleCase,
		"upper":      strings.ToUpper,
		"lower":      strings.ToLower,
		"escapeHTML": html.EscapeString,
	}

	r := &Renderer{
		templates: make(map[string]*template.Template),
	}

	kinds := []string{"confirmation", "broadcast"}
	formats := []string{"html", "text"}

	for _, kind := range kinds {
		for _, format := range formats {
			name := fmt.Sprintf("%s_%s", kind, format)
			filename := fmt.Sprintf("templates/%s.tmpl", name)

			content, err := templatesFS.ReadFile(filename)
			if err != nil {
				return nil, fmt.Errorf("read template %s: %w", filename, err)
			}

			tmpl, err := template.New(name).Funcs(funcMap).Parse(string(content))
			if err != nil {
				return nil, fmt.Errorf("parse template %s: %w", name, err)
			}

			r.templates[name] = tmpl
		}
	}

	return r, nil
}

// ConfirmationData is the template payload for subscription confirmations.
type ConfirmationData struct {
	SiteTitle      string
	Email          string
	UnsubscribeURL string
}

// BroadcastData is the per-recipient template payload for a newsletter
// broadcast.
type BroadcastData struct {
	SiteTitle      string
	PostTitle      string
	FirstParagraph string
	PostURL        string
	UnsubscribeURL string
}

// RenderConfirmation renders the confirmation email. Returns HTML and
// plain-text bodies.
func (r *Renderer) RenderConfirmation(data ConfirmationData) (htmlBody, textBody string, err error) {
	return r.render("confirmation", data)
}

// RenderBroadcast renders one recipient's newsletter email. Returns HTML and
// plain-text bodies.
func (r *Renderer) RenderBroadcast(data BroadcastData) (htmlBody, textBody string, err error) {
	return r.render("broadcast", data)
}

func (r *Renderer) render(kind string, data interface{}) (htmlBody, textBody string, err error) {
	htmlBody, err = r.execute(kind+"_html", data)
	if err != nil {
		return "", "", err
	}
	textBody, err = r.execute(kind+"_text", data)
	if err != nil {
		return "", "", err
	}
	return htmlBody, textBody, nil
}

func (r *Renderer) execute(name string, data interface{}) (string, error) {
	tmpl, ok := r.templates[name]
	if !ok {
		return "", fmt.Errorf("template not found: %s", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template %s: %w", name, err)
	}

	return strings.TrimSpace(buf.String()), nil
}

var titleCaser = cases.Title(language.English)

func titleCase(s string) string {
	return titleCaser.String(s)
}
