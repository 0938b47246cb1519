package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/labstack/echo/v4"
)

const (
	PageHome          = "home.html"
	PageLogin         = "login.html"
	PageRegister      = "register.html"
	PageProfile       = "profile.html"
	PageDeviceDetails = "device_details.html"

	layoutTemplate = "templates/layout.html"
)

var (
	//go:embed templates/*.html
	templatesFS embed.FS

	pages = []string{PageHome, PageLogin, PageRegister, PageProfile, PageDeviceDetails}
)

// Renderer renders the pages embedded in the binary, each within the shared layout
type Renderer struct {
	templates map[string]*template.Template
}

var _ echo.Renderer = &Renderer{}

func NewRenderer() (*Renderer, error) {
	templates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		t, err := template.New(page).ParseFS(templatesFS, layoutTemplate, "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("unable to parse page %s: %w", page, err)
		}
		templates[page] = t
	}
	return &Renderer{templates: templates}, nil
}

func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	t, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("unknown page %s", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}
