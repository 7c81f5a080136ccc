package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"docuchat/internal/api/handlers"
	appMiddleware "docuchat/internal/api/middlewares"
	"docuchat/internal/config"
	"docuchat/internal/core"
	"docuchat/internal/services"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, docs *services.DocumentService, pages *services.WebPageService, chat *services.ChatService, extraction *services.ExtractionService, keys core.KeyStore, notifier core.Notifier) *Server {
	docHandler := handlers.NewDocumentHandler(docs, chat, extraction, notifier, cfg)
	pageHandler := handlers.NewWebPageHandler(pages, chat, notifier, cfg)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(appMiddleware.RequestLogger)
	r.Use(appMiddleware.TrackRequests)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
	}))

	// public endpoints
	r.Get("/test", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"success version 1"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	// protected endpoints
	r.Group(func(protected chi.Router) {
		protected.Use(appMiddleware.Auth(keys))

		protected.Route("/document", func(d chi.Router) {
			d.Post("/", docHandler.Upload)
			d.Get("/{id}", docHandler.Get)
			d.Delete("/{id}", docHandler.Delete)
			d.Get("/{id}/chat", docHandler.ChatHistory)
			d.Post("/{id}/chat", docHandler.Chat)
			d.Post("/{id}/extract", docHandler.Extract)
		})

		protected.Route("/webpage", func(p chi.Router) {
			p.Post("/", pageHandler.Create)
			p.Get("/{id}", pageHandler.Get)
			p.Delete("/{id}", pageHandler.Delete)
			p.Get("/{id}/chat", pageHandler.ChatHistory)
			p.Post("/{id}/chat", pageHandler.Chat)
		})
	})

	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	return &Server{httpServer: httpSrv}
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	log.Info().Str("addr", s.httpServer.Addr).Msg("HTTP server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
