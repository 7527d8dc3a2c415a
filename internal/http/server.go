// Package http arma el servidor del servicio: middleware base + ciclo de vida.
package http

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	mw "github.com/dropDatabas3/heimdall/internal/http/middlewares"
	"github.com/dropDatabas3/heimdall/internal/observability/logger"
	"github.com/dropDatabas3/heimdall/internal/observability/metrics"
)

const shutdownTimeout = 10 * time.Second

// BuildHandler aplica la cadena de middleware base sobre el router.
// Orden: recover por fuera de todo, después métricas, headers y logging.
func BuildHandler(routes http.Handler) http.Handler {
	h := routes
	h = mw.WithLogging()(h)
	h = mw.WithSecurityHeaders()(h)
	h = metrics.WithMetrics(h)
	h = mw.WithRecover()(h)
	return h
}

// Server envuelve http.Server con shutdown graceful.
type Server struct {
	srv *http.Server
}

func NewServer(addr string, handler http.Handler) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// Run bloquea hasta que ctx se cancele o el listener falle.
// Ante cancelación drena conexiones con un shutdown acotado.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.L().Info("http server listening", logger.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.L().Info("http server shutting down")
		return s.srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
