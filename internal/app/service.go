// Package service owns the dashboard shell's long-lived components: the
// single backend gateway client, the route table and the HTTP handlers
// built on them.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/okian/capio/internal/adapters/http/api"
	"github.com/okian/capio/internal/adapters/http/site"
	"github.com/okian/capio/internal/config"
	"github.com/okian/capio/internal/gateway"
	"github.com/okian/capio/internal/router"
	"github.com/okian/capio/internal/views"
	"github.com/okian/capio/pkg/logger"
)

// ErrNotStarted is returned when components are requested before Start.
var ErrNotStarted = errors.New("service not started")

// Service wires the gateway, route table and HTTP surface together.
type Service struct {
	mu sync.RWMutex

	// Core components
	client  *gateway.Client
	table   *router.Table
	handler http.Handler

	// Configuration
	appName     string
	baseURL     string
	headers     map[string]string
	timeout     time.Duration
	gatewayOpts []gateway.Option
	navHooks    []router.Hook
	proxyRT     http.RoundTripper

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig applies the loaded application configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg == nil {
			return
		}
		s.appName = cfg.AppName
		s.baseURL = cfg.APIBaseURL
		s.headers = cfg.Headers
		s.timeout = cfg.RequestTimeout()
	}
}

// WithAppName sets the name appended to page titles.
func WithAppName(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.appName = name
		}
	}
}

// WithBaseURL sets the backend base URL.
func WithBaseURL(u string) Option {
	return func(s *Service) {
		if u != "" {
			s.baseURL = u
		}
	}
}

// WithHeaders sets extra default headers for backend requests.
func WithHeaders(h map[string]string) Option {
	return func(s *Service) {
		s.headers = h
	}
}

// WithRequestTimeout bounds each backend round trip.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.timeout = d
		}
	}
}

// WithGatewayOptions passes options through to the gateway client.
func WithGatewayOptions(opts ...gateway.Option) Option {
	return func(s *Service) {
		s.gatewayOpts = append(s.gatewayOpts, opts...)
	}
}

// WithNavigationHook registers a hook on the route table.
func WithNavigationHook(h router.Hook) Option {
	return func(s *Service) {
		if h != nil {
			s.navHooks = append(s.navHooks, h)
		}
	}
}

// WithProxyTransport sets the round tripper of the /api/ proxy.
func WithProxyTransport(rt http.RoundTripper) Option {
	return func(s *Service) {
		s.proxyRT = rt
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	cfg := config.New()
	s := &Service{
		appName: cfg.AppName,
		baseURL: cfg.APIBaseURL,
		headers: cfg.Headers,
		timeout: cfg.RequestTimeout(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the gateway client, the route table and the HTTP handlers.
// Calling Start on a started service is a no-op.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting dashboard shell...")

	gwOpts := append([]gateway.Option{gateway.WithLogger(s.logger.Named("gateway"))}, s.gatewayOpts...)
	client, err := gateway.New(gateway.Config{
		BaseURL: s.baseURL,
		Headers: s.headers,
		Timeout: s.timeout,
	}, gwOpts...)
	if err != nil {
		return fmt.Errorf("gateway: %w", err)
	}

	tableOpts := []router.Option{router.WithLogger(s.logger.Named("router"))}
	for _, h := range s.navHooks {
		tableOpts = append(tableOpts, router.WithHook(h))
	}
	table, err := router.New(s.appName, views.Routes(client, s.logger.Named("views")), tableOpts...)
	if err != nil {
		return fmt.Errorf("route table: %w", err)
	}

	apiServer, err := api.NewServer(s.baseURL,
		api.WithLogger(s.logger.Named("api")),
		api.WithTransport(s.proxyRT),
	)
	if err != nil {
		return fmt.Errorf("api: %w", err)
	}
	pages, err := site.NewHandler(table, site.WithLogger(s.logger.Named("site")))
	if err != nil {
		return fmt.Errorf("site: %w", err)
	}

	mux := http.NewServeMux()
	apiServer.Register(ctx, mux)
	site.Register(ctx, mux, pages)

	s.client = client
	s.table = table
	s.handler = mux
	s.started = true

	s.logger.Info(ctx, "dashboard shell started",
		logger.String("app", s.appName),
		logger.String("backend", client.BaseURL()),
		logger.Int("routes", len(table.Routes())),
		logger.Int("endpoints", len(gateway.Endpoints())),
	)
	return nil
}

// Stop releases the components. It is safe to call more than once.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.client = nil
	s.table = nil
	s.handler = nil
	s.started = false
	s.logger.Info(context.Background(), "dashboard shell stopped")
}

// Client returns the shared gateway client.
func (s *Service) Client() (*gateway.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.client, nil
}

// Table returns the route table.
func (s *Service) Table() (*router.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.table, nil
}

// Handler returns the HTTP handler serving pages, /api/ and /healthz.
func (s *Service) Handler() (http.Handler, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.handler, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started": s.started,
		"appName": s.appName,
		"baseURL": s.baseURL,
	}
	if s.started {
		stats["title"] = s.table.Title()
		stats["routes"] = len(s.table.Routes())
	}
	return stats
}
