package handlers

import (
	"database/sql"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"ContactDesk/internal/sessions"
	"ContactDesk/internal/store"
)

// Handler carries the application context into every route: the connection
// pool for request transactions, a read store bound to the pool, the session
// manager, the logger and the parsed template set. No package-level state.
type Handler struct {
	db        *sql.DB
	store     *store.Store
	sess      *sessions.Manager
	logger    *zap.Logger
	templates map[string]*template.Template
}

// New builds the handler context. The template set is parsed once here; a
// broken or missing template fails boot instead of the first request.
func New(db *sql.DB, sm *sessions.Manager, logger *zap.Logger, templatesDir string) (*Handler, error) {
	templates, err := parseTemplates(templatesDir)
	if err != nil {
		return nil, err
	}
	return &Handler{
		db:        db,
		store:     store.New(db),
		sess:      sm,
		logger:    logger,
		templates: templates,
	}, nil
}

// parseTemplates pairs every page template with the base layout.
func parseTemplates(dir string) (map[string]*template.Template, error) {
	base := filepath.Join(dir, "base.html")
	pages, err := filepath.Glob(filepath.Join(dir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("handlers: listing templates: %w", err)
	}

	templates := make(map[string]*template.Template)
	for _, page := range pages {
		name := filepath.Base(page)
		if name == "base.html" {
			continue
		}
		tmpl, err := template.ParseFiles(base, page)
		if err != nil {
			return nil, fmt.Errorf("handlers: parsing %s: %w", name, err)
		}
		templates[name] = tmpl
	}
	if len(templates) == 0 {
		return nil, fmt.Errorf("handlers: no page templates in %s", dir)
	}
	return templates, nil
}

// render executes the base layout with the given page template. Session
// reads that set cookies (flash drain, lazy CSRF token) happen before the
// status is written.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}

	_, loggedIn := h.sess.UserID(r)
	data["LoggedIn"] = loggedIn
	data["Year"] = time.Now().Year()
	data["Flashes"] = h.sess.Flashes(w, r)

	data["CSRFToken"] = ""
	if token, err := h.sess.CSRFToken(w, r); err == nil {
		data["CSRFToken"] = token
	}

	tmpl, ok := h.templates[page]
	if !ok {
		h.logger.Error("unknown page template", zap.String("page", page))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "base", data); err != nil {
		h.logger.Error("template execute failed", zap.String("page", page), zap.Error(err))
	}
}

// serverError logs the fault and shows the generic 500 page. Nothing about
// the error reaches the client.
func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	h.ServerErrorPage(w, r)
}

// ServerErrorPage renders the generic 500 page. Also wired into the panic
// recoverer.
func (h *Handler) ServerErrorPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusInternalServerError, "500.html", map[string]any{
		"Title": "Server Error",
	})
}

// NotFoundPage renders the generic 404 page for unmatched routes.
func (h *Handler) NotFoundPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, "404.html", map[string]any{
		"Title": "Page Not Found",
	})
}

// trimFields normalizes the named posted values in place before validation,
// so the rule lists and the store see the same string. Password fields are
// never trimmed.
func trimFields(form url.Values, fields ...string) {
	for _, f := range fields {
		form.Set(f, strings.TrimSpace(form.Get(f)))
	}
}

// formValues echoes submitted fields back into a re-rendered form.
func formValues(r *http.Request) map[string]string {
	values := make(map[string]string, len(r.PostForm))
	for k := range r.PostForm {
		values[k] = r.PostForm.Get(k)
	}
	return values
}
