package web

import (
	"io/fs"
	"net/http"
)

// RegisterRoutes registers the HTML routes under /app and the embedded
// assets under /static.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	staticFS, _ := fs.Sub(StaticFS, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	mux.HandleFunc("GET /app/documents/{type}/{name...}", h.DocumentPage)
	mux.HandleFunc("POST /app/sessions/{id}/reviews", h.SubmitReview)
	mux.HandleFunc("GET /app/sessions/{id}/pills", h.Pills)
	mux.HandleFunc("GET /app/sessions/{id}/events", h.Events)
	mux.HandleFunc("DELETE /app/sessions/{id}", h.CloseSession)
}
