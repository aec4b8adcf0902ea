package web

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the front-end routes on r.
// Pages are served at / (login) and /app; assets from the embedded filesystem at /static/*.
func RegisterRoutes(r chi.Router, h *Handler) {
	staticFS, _ := fs.Sub(StaticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	r.Get("/", h.Login)
	r.Get("/app", h.App)
}
