package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pageza/recipe-site/backend/config"
	"github.com/pageza/recipe-site/backend/internal/api"
	"github.com/pageza/recipe-site/backend/internal/middleware"
)

// maxMultipartMemory keeps a full-size image plus the form payload in memory.
const maxMultipartMemory = 12 << 20

// Server represents the HTTP server
type Server struct {
	router *gin.Engine
	http   *http.Server
	logger *zap.Logger
}

// New builds the router with the global middleware, the media file server for
// the local storage backend, and every API route.
func New(cfg *config.Config, svc api.Services, opts api.Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	router := gin.New()
	router.MaxMultipartMemory = maxMultipartMemory
	router.Use(middleware.RequestLogger(opts.Logger))
	router.Use(middleware.Recovery(opts.Logger))
	router.Use(middleware.CORS(cfg.CORSOrigins))

	if (cfg.StorageBackend == "local" || cfg.StorageBackend == "") && cfg.MediaRoot != "" {
		router.Static(cfg.MediaURL, cfg.MediaRoot)
	}

	api.RegisterRoutes(router, svc, opts)

	return &Server{
		router: router,
		http: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: opts.Logger,
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called. A clean shutdown returns nil.
func (s *Server) Start() error {
	s.logger.Info("starting server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")
	return s.http.Shutdown(ctx)
}
