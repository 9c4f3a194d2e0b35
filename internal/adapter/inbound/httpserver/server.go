package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/0xsj/overwatch-pkg/log"

	"github.com/0xsj/overwatch-nickserv/internal/metrics"
)

// Server exposes /metrics and /healthz.
type Server struct {
	httpServer *http.Server
	logger     log.Logger
	ready      atomic.Bool

	mu       sync.Mutex
	listener net.Listener
}

// New builds the operational HTTP server.
func New(addr string, m *metrics.Metrics, logger log.Logger) *Server {
	s := &Server{logger: logger}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.routes(m),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) routes(m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if m != nil {
		r.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
	}
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if !s.ready.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("irc disconnected\n"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

// SetReady reports whether the bot is connected to IRC.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start listens and serves until Stop. It returns nil after a clean shutdown.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	s.logger.Info("HTTP server starting", log.String("address", listener.Addr().String()))

	if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("HTTP server stopping")
	return s.httpServer.Shutdown(ctx)
}
