// Package health serves liveness and status endpoints for the running bot.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/diarybot/internal/logging"
	"github.com/gorilla/mux"
)

// Status is the body of GET /status.
type Status struct {
	Cursor               int64  `json:"cursor"`
	Processed            int64  `json:"processed"`
	PendingConversations int    `json:"pending_conversations"`
	Users                int    `json:"users"`
	Transport            string `json:"transport"`
	Uptime               string `json:"uptime"`
}

// StatusFunc collects the current Status.
type StatusFunc func(ctx context.Context) Status

// Server is the HTTP server for /health and /status.
type Server struct {
	srv *http.Server
	log logging.Logger
}

// NewRouter returns the mux with both handlers mounted.
func NewRouter(status StatusFunc) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", HealthCheckHandler).Methods(http.MethodGet)
	r.HandleFunc("/status", statusHandler(status)).Methods(http.MethodGet)
	return r
}

// HealthCheckHandler answers 200 OK while the process is up.
func HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func statusHandler(status StatusFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(status(r.Context()))
	}
}

// NewServer binds the router to addr.
func NewServer(addr string, status StatusFunc, log logging.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(status),
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log.With("component", "health"),
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.log.Info(ctx, "health endpoint listening", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}
