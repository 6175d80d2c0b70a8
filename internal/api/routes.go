package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

const defaultRequestTimeout = 30 * time.Second

func (s *Server) Routes() http.Handler {
	origins := s.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	timeout := s.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	r.Use(securityHeadersMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Use(timeoutMiddleware(timeout))

		r.Post("/puzzles", s.handleGeneratePuzzles)
		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Post("/puzzle", s.handleNextPuzzle)
			r.Post("/moves", s.handleMove)
			r.Post("/hint", s.handleHint)
			r.Post("/reset", s.handleResetPuzzle)
			r.Post("/give-up", s.handleGiveUp)
			r.Get("/progress", s.handleExportProgress)
			r.Put("/progress", s.handleImportProgress)
			r.Delete("/progress", s.handleResetProgress)
			r.Get("/recommendations", s.handleRecommendations)
			r.Get("/history", s.handleHistory)
		})
	})
	return r
}
