// Package server provides the HTTP API for notebase.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/notebase/notebase/internal/assistant"
	"github.com/notebase/notebase/internal/config"
	"github.com/notebase/notebase/internal/embedding"
	"github.com/notebase/notebase/internal/ingest"
	"github.com/notebase/notebase/internal/retriever"
	"github.com/notebase/notebase/internal/store"
)

// Server is the HTTP server for the notebase API.
type Server struct {
	pipeline  *ingest.Pipeline
	retriever *retriever.Retriever
	assistant *assistant.Assistant
	store     store.Store
	embedder  embedding.Embedder
	config    *config.Config
	logger    *zap.Logger
	server    *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	pipeline *ingest.Pipeline,
	retr *retriever.Retriever,
	asst *assistant.Assistant,
	st store.Store,
	embedder embedding.Embedder,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		pipeline:  pipeline,
		retriever: retr,
		assistant: asst,
		store:     st,
		embedder:  embedder,
		config:    cfg,
		logger:    logger,
	}
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/health", s.handleHealth)
	r.Get("/api/v1/status", s.handleStatus)

	r.Group(func(r chi.Router) {
		r.Use(s.requireUser)
		r.Post("/api/v1/ingest", s.handleIngest)
		r.Post("/api/v1/ask", s.handleAsk)
		r.Get("/api/v1/retrieve", s.handleRetrieve)
		r.Get("/api/v1/documents", s.handleListDocuments)
	})

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
