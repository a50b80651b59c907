package http

import (
	"context"
	"net/http"
	"time"

	"github.com/dropDatabas3/janus/internal/observability/logger"
)

// Server envuelve http.Server con arranque y apagado controlado.
type Server struct {
	srv *http.Server
}

func NewServer(addr string, handler http.Handler, readTimeout, writeTimeout time.Duration) *Server {
	return &Server{
		srv: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
		},
	}
}

// ListenAndServe bloquea hasta que el server cierre.
func (s *Server) ListenAndServe() error {
	logger.Named("http").Info("escuchando", logger.String("addr", s.srv.Addr))
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drena las conexiones en curso antes de cerrar.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
