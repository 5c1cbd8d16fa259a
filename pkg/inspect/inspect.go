// Package inspect serves a debug endpoint for a running reactive
// graph: activity counters as JSON, Prometheus metrics, and a
// WebSocket stream of live graph events.
package inspect

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/weft-dev/weft/pkg/weft"
)

// Server is the debug/introspection HTTP server. It is not meant to be
// exposed publicly; bind it to localhost or a management port.
type Server struct {
	addr      string
	logger    *slog.Logger
	events    *EventBroadcaster
	httpServe *http.Server
}

// Option configures the inspect server.
type Option func(*Server)

// WithLogger sets the server's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates an inspect server listening on addr.
func NewServer(addr string, opts ...Option) *Server {
	s := &Server{
		addr:   addr,
		logger: slog.Default(),
		events: NewEventBroadcaster(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Events returns the server's event broadcaster. Install it as a graph
// observer to stream events to connected WebSocket clients:
//
//	weft.SetObserver(srv.Events())
func (s *Server) Events() *EventBroadcaster {
	return s.events
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/stats", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(weft.Snapshot()); err != nil {
			s.logger.Error("inspect: encode stats", "error", err)
		}
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Get("/events", s.events.HandleWebSocket)

	return r
}

// Start begins serving in a background goroutine.
func (s *Server) Start() error {
	s.httpServe = &http.Server{
		Addr:    s.addr,
		Handler: s.routes(),
	}

	go func() {
		s.logger.Info("inspect server listening", "addr", s.addr)
		if err := s.httpServe.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("inspect server", "error", err)
		}
	}()
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServe == nil {
		return nil
	}
	s.events.CloseAll()
	return s.httpServe.Shutdown(ctx)
}

// Handler returns the server's routes for mounting into an existing
// mux instead of running standalone.
func (s *Server) Handler() http.Handler {
	return s.routes()
}
