// internal/monitoring/server.go
package monitoring

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/osdlabs/chromepuppet/internal/utils"
)

// Status is the payload served at /status.
type Status struct {
	Name       string            `json:"name"`
	Version    string            `json:"version,omitempty"`
	StartedAt  time.Time         `json:"started_at"`
	Uptime     string            `json:"uptime"`
	Goroutines int               `json:"goroutines"`
	Details    map[string]string `json:"details,omitempty"`
}

// Server exposes /metrics, /healthz and /status over HTTP.
type Server struct {
	name    string
	version string
	started time.Time
	srv     *http.Server
	logger  utils.Logger

	mu      sync.RWMutex
	details map[string]string
}

// NewServer creates the monitoring HTTP server on addr.
func NewServer(addr, name, version string, logger utils.Logger) *Server {
	if logger == nil {
		logger = utils.NewLogger()
	}
	s := &Server{
		name:    name,
		version: version,
		started: time.Now(),
		logger:  logger,
		details: make(map[string]string),
	}

	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)

	s.srv = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// SetDetail publishes a key/value pair on /status, e.g. the active
// server id or the last cycle outcome.
func (s *Server) SetDetail(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.details[key] = value
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	details := make(map[string]string, len(s.details))
	for k, v := range s.details {
		details[k] = v
	}
	s.mu.RUnlock()

	status := Status{
		Name:       s.name,
		Version:    s.version,
		StartedAt:  s.started,
		Uptime:     time.Since(s.started).Round(time.Second).String(),
		Goroutines: runtime.NumGoroutine(),
		Details:    details,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(status); err != nil {
		s.logger.Errorf("failed to write status response: %v", err)
	}
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Infof("monitoring server listening on %s", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("monitoring server failed: %w", err)
	}
	return nil
}

// Shutdown drains the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
