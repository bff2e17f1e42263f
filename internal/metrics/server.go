package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/phuslu/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"MarketDash/internal/logger"
)

// Server exposes /metrics and /healthz over HTTP.
type Server struct {
	addr string
	srv  *http.Server
	log  *log.Logger
}

// NewServer creates a metrics server serving the metrics gathered from g.
func NewServer(addr string, g prometheus.Gatherer, lg *log.Logger) *Server {
	if lg == nil {
		lg = logger.Nop()
	}
	return &Server{
		addr: addr,
		srv: &http.Server{
			Addr:              addr,
			Handler:           Handler(g),
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: lg,
	}
}

// Handler returns the mux behind Server.
func Handler(g prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return mux
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		s.log.Info().Str("addr", s.addr).Msg("metrics server listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("metrics server")
		}
	}()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
