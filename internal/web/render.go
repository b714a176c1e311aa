package web

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/bookbuddyapp/bookbuddy-server/internal/color"
	"github.com/bookbuddyapp/bookbuddy-server/internal/domain"
	"github.com/bookbuddyapp/bookbuddy-server/internal/normalize"
	"github.com/bookbuddyapp/bookbuddy-server/internal/watcher"
)

//go:embed templates/*.html
var embedded embed.FS

// Renderer executes page templates. Every page is parsed together with the
// shared files, whose names start with an underscore.
type Renderer struct {
	dir    string
	source fs.FS
	logger *slog.Logger

	mu    sync.RWMutex
	pages map[string]*template.Template
}

// NewRenderer loads the embedded templates, or the templates in dir when
// dir is set.
func NewRenderer(dir string, logger *slog.Logger) (*Renderer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	r := &Renderer{dir: dir, logger: logger}
	if dir == "" {
		sub, err := fs.Sub(embedded, "templates")
		if err != nil {
			return nil, fmt.Errorf("embedded templates: %w", err)
		}
		r.source = sub
	} else {
		r.source = os.DirFS(dir)
	}

	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Renderer) load() error {
	shared, err := fs.Glob(r.source, "_*.html")
	if err != nil {
		return fmt.Errorf("list shared templates: %w", err)
	}
	files, err := fs.Glob(r.source, "*.html")
	if err != nil {
		return fmt.Errorf("list templates: %w", err)
	}

	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		if strings.HasPrefix(file, "_") {
			continue
		}
		name := strings.TrimSuffix(file, ".html")
		t, err := template.New(file).Funcs(templateFuncs()).ParseFS(r.source, append(shared, file)...)
		if err != nil {
			return fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = t
	}

	r.mu.Lock()
	r.pages = pages
	r.mu.Unlock()
	return nil
}

// Render writes page with status. The page is executed into a buffer first
// so a template error never leaves a half-written response.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data any) error {
	r.mu.RLock()
	t, ok := r.pages[page]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("template %q not found", page)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("execute template %s: %w", page, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// Watch reloads the templates whenever a file under the template directory
// changes, until ctx is done. A broken template keeps the previous set.
func (r *Renderer) Watch(ctx context.Context) error {
	if r.dir == "" {
		return fmt.Errorf("templates are embedded, nothing to watch")
	}

	w, err := watcher.New(r.logger, watcher.Options{Extensions: []string{".html"}})
	if err != nil {
		return err
	}
	if err := w.Watch(r.dir); err != nil {
		_ = w.Stop()
		return err
	}

	go func() { _ = w.Start(ctx) }()
	go func() {
		defer func() { _ = w.Stop() }()
		for {
			select {
			case <-ctx.Done():
				return
			case event := <-w.Events():
				if err := r.load(); err != nil {
					r.logger.Warn("template reload failed", "path", event.Path, "error", err)
					continue
				}
				r.logger.Info("templates reloaded", "path", event.Path)
			case err := <-w.Errors():
				r.logger.Warn("template watcher error", "error", err)
			}
		}
	}()

	r.logger.Info("watching templates", "dir", r.dir)
	return nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"ago":   func(t time.Time) string { return timeAgo(t, time.Now()) },
		"stars": stars,
		"cover": func(url string) string {
			if url == "" {
				return domain.PlaceholderCover
			}
			return url
		},
		"slug":     normalize.Slugify,
		"language": func(code string) string { return domain.Languages[code] },
		"profile":  profilePath,
		"ratings":  func() []int { return []int{1, 2, 3, 4, 5} },
		"initials": color.Initials,
		"avatarBg": avatarBackground,
	}
}

// avatarBackground is the inline style of a user's placeholder avatar.
func avatarBackground(userID string) template.CSS {
	return template.CSS("background-color: " + color.ForUser(userID))
}

// timeAgo renders the distance from t to now the way feeds do: "just now",
// "5m ago", "3h ago", "2d ago", "3w ago", "4mo ago", "2y ago".
func timeAgo(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}

	seconds := int(now.Sub(t).Seconds())
	if seconds < 60 {
		return "just now"
	}
	minutes := seconds / 60
	if minutes < 60 {
		return fmt.Sprintf("%dm ago", minutes)
	}
	hours := minutes / 60
	if hours < 24 {
		return fmt.Sprintf("%dh ago", hours)
	}
	days := hours / 24
	if days < 7 {
		return fmt.Sprintf("%dd ago", days)
	}
	if weeks := days / 7; weeks < 5 {
		return fmt.Sprintf("%dw ago", weeks)
	}
	if months := days / 30; months < 12 {
		return fmt.Sprintf("%dmo ago", months)
	}
	return fmt.Sprintf("%dy ago", days/365)
}

// profilePath returns the public profile path of a handle.
func profilePath(handle string) string {
	return "/u/" + url.PathEscape(strings.TrimPrefix(handle, "@"))
}

// stars renders a 1-5 rating as filled and empty stars.
func stars(n int) string {
	n = min(max(n, 0), domain.MaxRating)
	return strings.Repeat("★", n) + strings.Repeat("☆", domain.MaxRating-n)
}
