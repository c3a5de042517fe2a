// Package view renders the server-side HTML pages and serves the embedded
// browser assets.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/sweedalp/smart-bookmark-app/internal/domain"
	"github.com/sweedalp/smart-bookmark-app/internal/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Page names.
const (
	PageLogin     = "login"
	PageBookmarks = "bookmarks"
	PageError     = "error"
)

// PageData contains common fields used across all page templates.
type PageData struct {
	Title   string
	Version string
	Email   string // signed-in user, empty on public pages
}

// LoginPageData is the template data for the sign-in page.
type LoginPageData struct {
	PageData
	AuthFailed bool
	Next       string
}

// BookmarksPageData is the template data for the bookmarks page.
type BookmarksPageData struct {
	PageData
	Bookmarks []domain.Bookmark
	// Form holds the submitted values when a create is re-rendered.
	FormTitle string
	FormURL   string
	FormError string
	// Notice is a one-line status shown above the list (import results).
	Notice string
}

// ErrorPageData is the template data for the error page.
type ErrorPageData struct {
	PageData
	StatusCode int
	Message    string
}

// Renderer manages template parsing and rendering.
type Renderer struct {
	templates map[string]*template.Template
	version   string
	log       logger.Logger
}

// NewRenderer parses the embedded templates. It panics on a malformed
// template since that is a build defect.
func NewRenderer(version string, log logger.Logger) *Renderer {
	return newRenderer(templateFS, version, log)
}

func newRenderer(fsys fs.FS, version string, log logger.Logger) *Renderer {
	funcMap := template.FuncMap{
		"savedLabel": savedLabel,
		"shortDate":  shortDate,
	}

	layout := template.Must(template.New("layout").Funcs(funcMap).ParseFS(fsys, "templates/layout.html"))

	pages := map[string]string{
		PageLogin:     "templates/login.html",
		PageBookmarks: "templates/bookmarks.html",
		PageError:     "templates/error.html",
	}

	templates := make(map[string]*template.Template, len(pages))
	for name, file := range pages {
		t := template.Must(layout.Clone())
		template.Must(t.ParseFS(fsys, file))
		templates[name] = t
	}

	return &Renderer{templates: templates, version: version, log: log}
}

// Version is stamped into every page footer.
func (r *Renderer) Version() string { return r.version }

// Page renders a named page with the given HTTP status.
func (r *Renderer) Page(w http.ResponseWriter, status int, name string, data any) {
	t, ok := r.templates[name]
	if !ok {
		r.log.Error("template not found", logger.String("template", name))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		r.log.Error("template execution failed",
			logger.String("template", name),
			logger.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// Error renders the error page.
func (r *Renderer) Error(w http.ResponseWriter, status int, message string) {
	r.Page(w, status, PageError, ErrorPageData{
		PageData: PageData{
			Title:   fmt.Sprintf("Error %d", status),
			Version: r.version,
		},
		StatusCode: status,
		Message:    message,
	})
}

// Static serves the embedded browser assets under their file names.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}

// savedLabel is the list header, e.g. "Saved · 3".
func savedLabel(n int) string {
	return fmt.Sprintf("Saved · %d", n)
}

// shortDate formats a creation time for the list, e.g. "Jan 2, 2006".
func shortDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("Jan 2, 2006")
}
