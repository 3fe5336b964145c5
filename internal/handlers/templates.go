package handlers

import (
	"bytes"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"sync"
	"time"
)

// partialsFile holds the shared layout blocks every page is parsed with.
const partialsFile = "partials.html"

// TemplateCache holds parsed templates keyed by their path, e.g.
// "login.html" or "admin/login.html".
type TemplateCache struct {
	cache map[string]*template.Template
	mu    sync.RWMutex
	funcs template.FuncMap
}

func NewTemplateCache() *TemplateCache {
	return &TemplateCache{
		cache: make(map[string]*template.Template),
		funcs: template.FuncMap{
			"prevPage": func(currentPage int) int { return currentPage - 1 },
			"nextPage": func(currentPage int) int { return currentPage + 1 },
			"date":     func(t time.Time) string { return t.Format("02 Jan 2006") },
			"amount":   formatAmount,
		},
	}
}

func (tc *TemplateCache) AddFunc(name string, fn interface{}) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.funcs[name] = fn
}

// LoadFS parses every page under fsys together with the shared partials.
func (tc *TemplateCache) LoadFS(fsys fs.FS) error {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	var pages []string
	for _, pattern := range []string{"*.html", "admin/*.html"} {
		files, err := fs.Glob(fsys, pattern)
		if err != nil {
			return err
		}
		pages = append(pages, files...)
	}

	for _, file := range pages {
		if file == partialsFile {
			continue
		}
		tmpl, err := template.New(path.Base(file)).Funcs(tc.funcs).ParseFS(fsys, file, partialsFile)
		if err != nil {
			slog.Error("Failed to parse template", "file", file, "error", err)
			return err
		}
		tc.cache[file] = tmpl
		slog.Debug("Cached template", "name", file)
	}
	return nil
}

func (tc *TemplateCache) Get(name string) *template.Template {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.cache[name]
}

// Render executes the named page into a buffer first so a template error
// never leaves a half-written response.
func (tc *TemplateCache) Render(w http.ResponseWriter, r *http.Request, status int, name string, data interface{}) {
	tmpl := tc.Get(name)
	if tmpl == nil {
		slog.ErrorContext(r.Context(), "Template not found", "name", name)
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		slog.ErrorContext(r.Context(), "Failed to render template", "name", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.DebugContext(r.Context(), "Client went away", "error", err)
	}
}

// formatAmount groups thousands: 24999 becomes "24,999".
func formatAmount(amount int64) string {
	s := strconv.FormatInt(amount, 10)
	var out []byte
	for i := range s {
		if i > 0 && (len(s)-i)%3 == 0 && s[i-1] != '-' {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	return string(out)
}
