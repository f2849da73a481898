package http

import (
	"context"
	stdhttp "net/http"
	"time"

	"github.com/dropDatabas3/littlejohn/internal/observability/logger"
)

// Server envuelve http.Server con timeouts razonables y shutdown graceful.
type Server struct {
	srv *stdhttp.Server
}

// NewServer crea el servidor HTTP.
func NewServer(addr string, handler stdhttp.Handler) *Server {
	return &Server{
		srv: &stdhttp.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// Start bloquea sirviendo requests hasta que el listener cierre.
func (s *Server) Start() error {
	logger.L().Info("http server listening", logger.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown apaga el servidor drenando requests en curso.
func (s *Server) Shutdown(ctx context.Context) error {
	logger.L().Info("http server shutting down")
	return s.srv.Shutdown(ctx)
}
