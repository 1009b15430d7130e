package v1

import (
	"context"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/veriperu/dniverify/internal/config"
)

type Server struct {
	httpServer *http.Server
}

func NewServer(cfg config.HTTP, h *PipelineHandler) *Server {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/upload", h.Upload)

		r.Get("/status", h.GetStatus)
		r.Get("/records", h.GetRecords)
		r.Get("/batches", h.GetBatches)
		r.Get("/queues", h.GetQueues)

		r.Route("/workers", func(r chi.Router) {
			r.Post("/pause", h.Pause)
			r.Post("/resume", h.Resume)
			r.Post("/stop", h.Stop)
		})

		r.Post("/retry", h.Retry)
		r.Post("/recover", h.Recover)
		r.Post("/purge", h.Purge)
	})

	return &Server{
		httpServer: &http.Server{
			Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
			Handler:      r,
		},
	}
}

func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
