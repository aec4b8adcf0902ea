// Package web serves the KeyVault browser front-end from embedded assets.
package web

import (
	"encoding/json"
	"io/fs"
	"log/slog"
	"net/http"
)

// Handler is the web GUI driving adapter.
type Handler struct {
	pages  fs.FS
	logger *slog.Logger
}

// NewHandler creates a Handler serving pages from the embedded StaticFS.
func NewHandler(logger *slog.Logger) *Handler {
	return NewHandlerWithFS(StaticFS, logger)
}

// NewHandlerWithFS creates a Handler serving pages from fsys, which must hold
// a static/ directory.
func NewHandlerWithFS(fsys fs.FS, logger *slog.Logger) *Handler {
	return &Handler{
		pages:  fsys,
		logger: logger,
	}
}

// Login serves the login page.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	h.servePage(w, r, "static/login.html", "Login page not found")
}

// App serves the main key generation page.
func (h *Handler) App(w http.ResponseWriter, r *http.Request) {
	h.servePage(w, r, "static/app.html", "Web interface not found")
}

func (h *Handler) servePage(w http.ResponseWriter, _ *http.Request, name, missing string) {
	data, err := fs.ReadFile(h.pages, name)
	if err != nil {
		h.logger.Warn("page not available", "page", name, "error", err)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": missing})
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(data)
}
