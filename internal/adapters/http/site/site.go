// Package site serves the dashboard pages through the route table.
package site

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/okian/capio/internal/adapters/http/api"
	"github.com/okian/capio/internal/router"
	"github.com/okian/capio/pkg/logger"
)

// Error constants
var (
	ErrTemplate = errors.New("site template failed")
	ErrRender   = errors.New("site render failed")
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutName = "layout"

// Link is one entry of the navigation bar.
type Link struct {
	Path   string
	Title  string
	Active bool
}

// PageData is what the layout template receives.
type PageData struct {
	Title   string
	AppName string
	Heading string
	Links   []Link
	Page    any
}

// Option applies a configuration option to the Handler.
type Option func(*Handler)

// WithLogger sets a custom logger for the handler.
func WithLogger(l logger.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// Handler renders every browser path through the route table.
type Handler struct {
	table   *router.Table
	page    *template.Template
	errPage *template.Template
	links   []Link
	logger  logger.Logger
}

// NewHandler parses the embedded templates once and binds them to table.
func NewHandler(table *router.Table, opts ...Option) (*Handler, error) {
	if table == nil {
		return nil, fmt.Errorf("%w: nil route table", ErrTemplate)
	}
	h := &Handler{table: table}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = logger.Get().Named("site")
	}

	layout, err := template.New(layoutName).Funcs(template.FuncMap{"toJSON": toJSON}).
		ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("%w: layout: %w", ErrTemplate, err)
	}
	if h.page, err = parseWith(layout, "templates/content.html"); err != nil {
		return nil, err
	}
	if h.errPage, err = parseWith(layout, "templates/error.html"); err != nil {
		return nil, err
	}

	for _, r := range table.Routes() {
		// parameterized paths and the catch-all are not linkable
		if strings.Contains(r.Path, ":") {
			continue
		}
		h.links = append(h.links, Link{Path: r.Path, Title: r.Title})
	}
	return h, nil
}

func parseWith(layout *template.Template, file string) (*template.Template, error) {
	t, err := layout.Clone()
	if err != nil {
		return nil, fmt.Errorf("%w: clone layout for %s: %w", ErrTemplate, file, err)
	}
	if _, err := t.ParseFS(templateFS, file); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", ErrTemplate, file, err)
	}
	return t, nil
}

// Register attaches the page handler as the mux fallback.
func Register(_ context.Context, mux *http.ServeMux, h *Handler) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("/", api.MetricsMiddleware(h.ServeHTTP, "page"))
}

// ServeHTTP navigates to the request path, loads the route's view and renders
// it. Unmatched paths render the not-found page with status 404.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	nav := h.table.Navigate(ctx, r.URL.Path)
	data := PageData{
		Title:   nav.Title,
		AppName: h.table.AppName(),
		Heading: nav.Route.Title,
		Links:   h.linksFor(nav),
	}

	view, err := h.table.View(ctx, nav)
	if err != nil {
		h.fail(w, r, data, err)
		return
	}
	model, err := view.Render(ctx, nav)
	if err != nil {
		h.fail(w, r, data, err)
		return
	}
	data.Page = model

	status := http.StatusOK
	if nav.IsCatchAll() {
		status = http.StatusNotFound
	}
	if err := h.write(w, h.page, status, data); err != nil {
		h.logger.Error(ctx, "render page",
			logger.String("route", nav.Route.Name),
			logger.Error(err),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, data PageData, err error) {
	if r.Context().Err() != nil {
		return
	}
	h.logger.Error(r.Context(), "page failed",
		logger.String("path", r.URL.Path),
		logger.Error(err),
	)
	if werr := h.write(w, h.errPage, http.StatusInternalServerError, data); werr != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// write renders into a buffer first so a template failure never leaves a
// half-written page behind a 200.
func (h *Handler) write(w http.ResponseWriter, t *template.Template, status int, data PageData) error {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, layoutName, data); err != nil {
		return fmt.Errorf("%w: %w", ErrRender, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

func (h *Handler) linksFor(nav *router.Navigation) []Link {
	links := make([]Link, len(h.links))
	copy(links, h.links)
	for i := range links {
		links[i].Active = links[i].Path == nav.Route.Path
	}
	return links
}

func toJSON(v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
