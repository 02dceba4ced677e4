// Package api exposes a small status server so operators can watch a long
// scrape without tailing logs.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MikeSquared-Agency/quarry/internal/scrape"
)

// StatusSource provides the current per-project progress snapshot.
type StatusSource interface {
	Progress() []scrape.Progress
}

type Server struct {
	router *chi.Mux
	port   int
	source StatusSource
}

func NewServer(port int, source StatusSource) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router: router,
		port:   port,
		source: source,
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/quarry/status", s.status)

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	slog.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"service":  "quarry",
		"projects": s.source.Progress(),
	})
}
