// Package api registers the shell's machine-facing HTTP routes: the backend
// proxy under /api/ and the metrics endpoint.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/capio/pkg/logger"
)

// BackendPrefix is the path the browser uses to reach the backend.
const BackendPrefix = "/api/"

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithLogger sets a custom logger for the server's handlers.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTransport sets the round tripper used by the backend proxy.
func WithTransport(rt http.RoundTripper) Option {
	return func(s *Server) {
		s.transport = rt
	}
}

// Server wires HTTP routes for the backend proxy and health.
type Server struct {
	healthHandler *HealthHandler
	proxyHandler  *ProxyHandler

	transport http.RoundTripper
	logger    logger.Logger
}

// NewServer creates the API server. backendURL is the absolute backend base
// URL that /api/ is forwarded to.
func NewServer(backendURL string, opts ...Option) (*Server, error) {
	s := &Server{}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("api")
	}

	proxy, err := NewProxyHandler(backendURL, s.transport, s.logger)
	if err != nil {
		return nil, err
	}
	s.healthHandler = NewHealthHandler()
	s.proxyHandler = proxy
	return s, nil
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc(BackendPrefix, MetricsMiddleware(s.proxyHandler.ServeHTTP, "api"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
