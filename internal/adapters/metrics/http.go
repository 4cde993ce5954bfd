package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/andrescamacho/fleetd/internal/infrastructure/config"
)

// HTTPServer exposes the registry over a local HTTP listener. It only
// exists when metrics.enabled is set; the daemon works fine without it.
type HTTPServer struct {
	server *http.Server
}

// NewHTTPServer builds the exposition server from config
func NewHTTPServer(cfg *config.MetricsConfig) *HTTPServer {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))

	return &HTTPServer{
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// Addr reports the listen address
func (s *HTTPServer) Addr() string { return s.server.Addr }

// Start serves in a goroutine; errors other than a clean close are
// reported on the returned channel.
func (s *HTTPServer) Start() <-chan error {
	errChan := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()
	return errChan
}

// Shutdown drains in-flight scrapes
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
