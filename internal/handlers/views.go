package handlers

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"io"
	"net/http"
	"strings"
	texttemplate "text/template"

	"github.com/referenda/refclient/internal/session"
	"github.com/referenda/refclient/types"
)

//go:embed templates/*.html templates/*.txt
var templates embed.FS

const (
	layoutHTML = "layout.html"
	layoutText = "layout.txt"
)

var pageNames = []string{
	"home",
	"login",
	"register",
	"browse",
	"create",
	"edit_referendum",
	"moderate",
	"users",
	"edit_user",
	"tags",
}

type executor interface {
	ExecuteTemplate(w io.Writer, name string, data any) error
}

// Views holds every page parsed twice: as HTML for browsers and as plain
// text for the terminal.
type Views struct {
	html map[string]executor
	text map[string]executor
}

// page is the data every layout receives.
type page struct {
	Title  string
	User   *types.User
	Admin  bool
	Screen any
}

// LoadViews parses the embedded templates.
func LoadViews() (*Views, error) {
	v := &Views{
		html: make(map[string]executor, len(pageNames)),
		text: make(map[string]executor, len(pageNames)),
	}

	for _, name := range pageNames {
		h, err := htmltemplate.New(layoutHTML).
			Funcs(htmltemplate.FuncMap{"join": strings.Join}).
			ParseFS(templates, "templates/"+layoutHTML, "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s.html: %w", name, err)
		}
		v.html[name] = h

		t, err := texttemplate.New(layoutText).
			Funcs(texttemplate.FuncMap{"join": strings.Join}).
			ParseFS(templates, "templates/"+layoutText, "templates/"+name+".txt")
		if err != nil {
			return nil, fmt.Errorf("parse %s.txt: %w", name, err)
		}
		v.text[name] = t
	}
	return v, nil
}

// render writes the named page around screen. The page is executed into a
// buffer first so a template failure still yields a clean 500.
func (v *Views) render(w http.ResponseWriter, r *http.Request, status int, name, title string, screen any) error {
	set, layout, contentType := v.html, layoutHTML, "text/html; charset=utf-8"
	if wantsText(r) {
		set, layout, contentType = v.text, layoutText, "text/plain; charset=utf-8"
	}

	tmpl, ok := set[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}

	data := page{Title: title, Screen: screen}
	if s := session.FromContext(r.Context()); s != nil {
		if u, ok := s.User(); ok {
			data.User = &u
			data.Admin = u.IsAdmin()
		}
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, layout, data); err != nil {
		return fmt.Errorf("execute %s: %w", name, err)
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
