// Package server exposes the feed over HTTP. Handlers stay thin: parse,
// call a service, write the JSON shape the clients already speak.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/cors"

	"github.com/UTSAV1434/AfterHours/auth"
	"github.com/UTSAV1434/AfterHours/repositories"
	"github.com/UTSAV1434/AfterHours/services"
	"github.com/UTSAV1434/AfterHours/storage"
)

type Server struct {
	posts     *services.PostService
	reactions *services.ReactionService
	stats     *services.StatsService
	timings   repositories.TimingsRepository
	tokens    auth.TokenManager
	adminHash string
	kv        storage.KV
	log       *slog.Logger
	validate  *validator.Validate
}

func New(
	posts *services.PostService,
	reactions *services.ReactionService,
	stats *services.StatsService,
	timings repositories.TimingsRepository,
	tokens auth.TokenManager,
	adminHash string,
	kv storage.KV,
	log *slog.Logger,
) *Server {
	return &Server{
		posts:     posts,
		reactions: reactions,
		stats:     stats,
		timings:   timings,
		tokens:    tokens,
		adminHash: adminHash,
		kv:        kv,
		log:       log,
		validate:  validator.New(),
	}
}

// Handler builds the full middleware chain: routes, request logging,
// then the permissive CORS policy the web client relies on.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /posts", s.handleCreatePost)
	mux.HandleFunc("GET /posts", s.handleListPosts)
	mux.HandleFunc("GET /posts/search", s.handleSearchPosts)
	mux.HandleFunc("POST /posts/{id}/react", s.handleReact)
	mux.HandleFunc("DELETE /posts/{id}", s.handleDeletePost)

	mux.HandleFunc("GET /stats", s.handleStats)
	mux.HandleFunc("DELETE /cleanup", s.handleCleanup)
	mux.HandleFunc("GET /mode", s.handleMode)

	mux.HandleFunc("GET /config/timings", s.handleGetTimings)
	mux.HandleFunc("POST /config/timings", s.handleUpdateTimings)
	mux.HandleFunc("POST /auth/admin", s.handleAdminAuth)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		ExposedHeaders: []string{"Content-Length"},
		MaxAge:         600,
	})
	return c.Handler(s.logRequests(mux))
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("Request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start))
	})
}
