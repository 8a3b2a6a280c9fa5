package server

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/hongminglow/backoffice/internal/auth"
	"github.com/hongminglow/backoffice/internal/config"
	"github.com/hongminglow/backoffice/internal/http/handlers"
	"github.com/hongminglow/backoffice/internal/metrics"
	"github.com/hongminglow/backoffice/internal/middleware"
	"github.com/hongminglow/backoffice/internal/storage"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Server, store storage.Store, logger *zap.Logger) *Server {
	return &Server{inner: &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           Handler(cfg, store, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}}
}

// Handler builds the routed and wrapped handler tree.
func Handler(cfg config.Server, store storage.Store, logger *zap.Logger) http.Handler {
	m := metrics.New()
	mux := http.NewServeMux()
	health := handlers.NewHealthHandler(time.Now(), cfg.Storage)
	health.Register(mux)
	m.Register(mux)

	tokenManager := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	api := handlers.NewGraphQLHandler(store, tokenManager, m, logger)
	api.Register(mux)

	authenticated := middleware.Authenticate(tokenManager, store, logger, mux)
	return middleware.CORS(cfg.CORSOrigins, middleware.Logging(logger, m, authenticated))
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
