package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server serves Prometheus metrics over HTTP.
type Server struct {
	httpServer *http.Server
}

// HealthFunc reports whether the process is up, and the body to serve.
type HealthFunc func() (ok bool, body []byte)

// NewServer creates a metrics HTTP server exposing /metrics and /health on
// addr (e.g. ":9090"). A nil health always reports "ok".
func NewServer(addr string, gatherer prometheus.Gatherer, health HealthFunc) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           Handler(gatherer, health),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler returns the mux served by Server.
func Handler(gatherer prometheus.Gatherer, health HealthFunc) http.Handler {
	if health == nil {
		health = func() (bool, []byte) { return true, []byte("ok") }
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ok, body := health()
		status := http.StatusOK
		if !ok {
			status = http.StatusServiceUnavailable
		}
		w.WriteHeader(status)
		w.Write(body) //nolint:errcheck // best-effort health response
	})
	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("metrics server: %w", err)
		}
		close(errCh)
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
