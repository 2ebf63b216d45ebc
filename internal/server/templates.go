package server

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
)

const (
	templateRoles = "roles.html"
	templateToken = "token.html"
	templateError = "error.html"

	baseTemplate = "base"
)

// ErrUnknownTemplate indicates a page that has no template.
var ErrUnknownTemplate = errors.New("unknown template")

//go:embed templates/*.html
var templateFS embed.FS

// pages holds one template set per page, each combining the base layout with the page content.
type pages map[string]*template.Template

func loadPages() (pages, error) {
	funcs := template.FuncMap{
		"join": strings.Join,
	}

	result := make(pages)

	for _, name := range []string{templateRoles, templateToken, templateError} {
		page, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/base.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}

		result[name] = page
	}

	return result, nil
}

// render executes a page into a buffer first so that a template failure does not produce half a page.
func (p pages) render(w http.ResponseWriter, status int, name string, data any) error {
	page, ok := p[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
	}

	var buf bytes.Buffer
	if err := page.ExecuteTemplate(&buf, baseTemplate, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)

	return err
}
