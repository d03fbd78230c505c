package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes the registry on /metrics.
type Server struct {
	*http.Server
}

type errorLogger struct{}

func (errorLogger) Println(v ...any) {
	slog.Warn("metric server error", "err", fmt.Sprint(v...))
}

// NewMetricsHandler creates an HTTP handler to expose metrics.
func NewMetricsHandler(metricsService Metrics) http.Handler {
	return promhttp.HandlerFor(metricsService.GetRegistry(), promhttp.HandlerOpts{
		ErrorLog: errorLogger{},
	})
}

// NewServer returns a server for addr. Call Run to start it.
func NewServer(addr string, metricsService Metrics) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", NewMetricsHandler(metricsService))
	return &Server{Server: &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}}
}

// Run binds the listener and serves in the background. Bind errors are
// returned; later serve errors are logged.
func (s *Server) Run() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("metrics listen %s: %w", s.Addr, err)
	}
	s.Addr = ln.Addr().String()
	slog.Info("metrics server listening", "addr", s.Addr)
	go func() {
		if err := s.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server stopped", "err", err)
		}
	}()
	return nil
}

// Shutdown stops the server.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Server.Shutdown(ctx); err != nil {
		return fmt.Errorf("metrics shutdown: %w", err)
	}
	return nil
}
