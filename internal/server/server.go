// Package server exposes the model listing endpoint over HTTP together with
// health probes and optional Prometheus metrics.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/florianilch/modelcatalog/internal/catalog"
	"github.com/florianilch/modelcatalog/internal/observability/middleware"
)

const (
	DefaultModelsPath        = "/api/models"
	DefaultMaxRequestBytes   = 1 << 20
	defaultReadHeaderTimeout = 10 * time.Second

	livenessPath  = "/health/liveness"
	readinessPath = "/health/readiness"
)

// ReadinessChecker reports whether the application is ready to serve traffic.
type ReadinessChecker interface {
	IsReady() bool
}

// Server serves the model listing endpoint.
type Server struct {
	handler           http.Handler
	readHeaderTimeout time.Duration
	server            *http.Server
	addr              net.Addr
}

type options struct {
	modelsPath        string
	observer          Observer
	metricsPath       string
	metricsHandler    http.Handler
	maxRequestBytes   int64
	readHeaderTimeout time.Duration
	logger            *slog.Logger
}

// Option configures a Server.
type Option func(*options)

// WithModelsPath sets the route of the listing endpoint.
func WithModelsPath(path string) Option {
	return func(o *options) {
		o.modelsPath = path
	}
}

// WithObserver sets the observer notified about listing requests.
func WithObserver(observer Observer) Option {
	return func(o *options) {
		o.observer = observer
	}
}

// WithMetrics serves handler on GET path.
func WithMetrics(path string, handler http.Handler) Option {
	return func(o *options) {
		o.metricsPath = path
		o.metricsHandler = handler
	}
}

// WithMaxRequestBytes limits the size of request bodies.
func WithMaxRequestBytes(n int64) Option {
	return func(o *options) {
		o.maxRequestBytes = n
	}
}

// WithReadHeaderTimeout sets how long the server waits for request headers.
func WithReadHeaderTimeout(d time.Duration) Option {
	return func(o *options) {
		o.readHeaderTimeout = d
	}
}

// WithLogger sets the logger used for access logs.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New creates a Server that lists the catalogs of registry.
func New(registry catalog.Registry, health ReadinessChecker, opts ...Option) (*Server, error) {
	if registry == nil {
		return nil, errors.New("registry is required")
	}
	if health == nil {
		return nil, errors.New("readiness checker is required")
	}

	o := options{
		modelsPath:        DefaultModelsPath,
		maxRequestBytes:   DefaultMaxRequestBytes,
		readHeaderTimeout: defaultReadHeaderTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	if !strings.HasPrefix(o.modelsPath, "/") {
		return nil, fmt.Errorf("models path %q must start with /", o.modelsPath)
	}
	if o.metricsHandler != nil && !strings.HasPrefix(o.metricsPath, "/") {
		return nil, fmt.Errorf("metrics path %q must start with /", o.metricsPath)
	}
	if o.maxRequestBytes <= 0 {
		return nil, fmt.Errorf("max request bytes must be positive, got %d", o.maxRequestBytes)
	}

	mux := http.NewServeMux()
	mux.Handle(o.modelsPath, &ModelsHandler{Registry: registry, Observer: o.observer})
	mux.HandleFunc("GET "+livenessPath, livenessHandler())
	mux.HandleFunc("GET "+readinessPath, readinessHandler(health))
	if o.metricsHandler != nil {
		mux.Handle("GET "+o.metricsPath, o.metricsHandler)
	}

	handler := applyMiddlewares(mux,
		middleware.RequestIDGeneration,
		middleware.TraceContextExtraction,
		middleware.Logging(o.logger, livenessPath, readinessPath),
		middleware.RequestIDPropagation,
		Recovery,
		RequestSizeLimit(o.maxRequestBytes),
	)

	return &Server{
		handler:           handler,
		readHeaderTimeout: o.readHeaderTimeout,
	}, nil
}

// ServeHTTP dispatches the request through the middleware chain.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Start listens on addr and serves in the background.
// The returned channel receives a runtime error, or is closed once the server stops.
func (s *Server) Start(ctx context.Context, addr string) (<-chan error, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	s.addr = ln.Addr()
	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: s.readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	slog.InfoContext(ctx, "server listening", "address", s.addr.String())
	return errCh, nil
}

// Addr returns the address the server listens on, or nil before Start.
func (s *Server) Addr() net.Addr {
	return s.addr
}

// Shutdown gracefully stops the server, waiting for in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
