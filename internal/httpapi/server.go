// Package httpapi serves the daemon's local status endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"visawatch/internal/notifier"
	"visawatch/internal/poller"
	"visawatch/internal/runtime/supervisor"
	logx "visawatch/pkg/logx"
)

type StatusSource interface {
	Status() poller.Status
}

type TaskSource interface {
	Snapshot() supervisor.Snapshot
}

// DeliverySource lists recently delivered alerts, oldest first.
type DeliverySource interface {
	Snapshot() []notifier.HistoryItem
}

type Deps struct {
	Poller     StatusSource
	Tasks      TaskSource     // optional
	Deliveries DeliverySource // optional
	Registry   *prometheus.Registry
	Pprof      bool
}

type statusBody struct {
	Poller     poller.Status          `json:"poller"`
	Tasks      *supervisor.Snapshot   `json:"tasks,omitempty"`
	Deliveries []notifier.HistoryItem `json:"deliveries,omitempty"`
}

// NewRouter mounts /healthz, /status and /metrics (plus /debug/pprof when enabled).
// /status carries the poller state, task stats and recent deliveries.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		code := http.StatusOK
		body := map[string]string{"status": "ok"}
		if d.Tasks != nil {
			if fe := d.Tasks.Snapshot().FirstError; fe != "" {
				code = http.StatusServiceUnavailable
				body = map[string]string{"status": "degraded", "error": fe}
			}
		}
		writeJSON(w, code, body)
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		body := statusBody{Poller: d.Poller.Status()}
		if d.Tasks != nil {
			snap := d.Tasks.Snapshot()
			body.Tasks = &snap
		}
		if d.Deliveries != nil {
			body.Deliveries = d.Deliveries.Snapshot()
		}
		writeJSON(w, http.StatusOK, body)
	})

	if d.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}
	if d.Pprof {
		r.Mount("/debug", middleware.Profiler())
	}
	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type Server struct {
	log logx.Logger
	srv *http.Server
}

func NewServer(addr string, h http.Handler, log logx.Logger) *Server {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Server{
		log: log,
		srv: &http.Server{
			Addr:              addr,
			Handler:           h,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.log.Info("status server listening", logx.String("addr", ln.Addr().String()))
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		s.log.Warn("status server shutdown", logx.Err(err))
		return err
	}
	s.log.Info("status server stopped")
	return nil
}
