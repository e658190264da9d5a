package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/teemow/calhighlight/internal/calendar"
	"github.com/teemow/calhighlight/internal/categories"
	"github.com/teemow/calhighlight/internal/chat"
	"github.com/teemow/calhighlight/internal/instrumentation"
	"github.com/teemow/calhighlight/internal/session"
)

// HTTP server timeouts.
const (
	DefaultReadHeaderTimeout = 10 * time.Second
	DefaultReadTimeout       = 30 * time.Second
	DefaultWriteTimeout      = 120 * time.Second
	DefaultIdleTimeout       = 120 * time.Second
)

// ProviderHeader selects the calendar provider when ?provider is absent.
const ProviderHeader = "X-Calendar-Provider"

// Config holds the API server's settings and collaborators.
type Config struct {
	Version string

	// Registry resolves calendar providers. Required.
	Registry *calendar.Registry

	// Sessions enables cookie sessions and the /auth routes. Optional;
	// without it callers must send a bearer token.
	Sessions *session.Store

	// Categories and Assistant back the AI routes. When nil those routes
	// answer 503.
	Categories *categories.Engine
	Assistant  *chat.Assistant

	AllowedOrigins []string
	APIKey         string

	// RateLimiter is applied to /api/ routes when set.
	RateLimiter *RateLimiter

	Metrics *instrumentation.Metrics
	Audit   *instrumentation.AuditLogger
	Logger  *slog.Logger
}

// Server is the calendar assistant HTTP API.
type Server struct {
	cfg        Config
	health     *HealthChecker
	logger     *slog.Logger
	handler    http.Handler
	httpServer *http.Server
}

// New builds the API server.
func New(cfg Config) (*Server, error) {
	if cfg.Registry == nil {
		return nil, errors.New("calendar registry is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	aiEnabled := cfg.Categories != nil && cfg.Assistant != nil
	s := &Server{
		cfg:    cfg,
		logger: cfg.Logger,
		health: NewHealthChecker(cfg.Version, cfg.Registry.Names, aiEnabled),
	}

	mux := http.NewServeMux()
	s.health.RegisterHealthEndpoints(mux)
	s.routes(mux)

	var api http.Handler = mux
	if cfg.RateLimiter != nil {
		api = rateLimitAPI(cfg.RateLimiter, mux)
	}

	s.handler = chain(api,
		requestContext(s.logger),
		recoverPanics(s.logger),
		accessLog(cfg.Metrics, s.logger),
		securityHeaders,
		cors(cfg.AllowedOrigins),
		requireAPIKey(cfg.APIKey),
	)
	return s, nil
}

// rateLimitAPI limits only /api/ requests so health probes stay cheap.
func rateLimitAPI(rl *RateLimiter, next http.Handler) http.Handler {
	limited := rl.Middleware(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			limited.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Handler returns the full handler chain without tracing.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Health returns the server's health checker.
func (s *Server) Health() *HealthChecker {
	return s.health
}

// Start serves on addr until Shutdown. Requests are traced with otelhttp.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           otelhttp.NewHandler(s.handler, "calhighlight"),
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
		ReadTimeout:       DefaultReadTimeout,
		WriteTimeout:      DefaultWriteTimeout,
		IdleTimeout:       DefaultIdleTimeout,
	}

	s.logger.Info("starting API server", slog.String("addr", addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown marks the server as not ready and drains connections.
func (s *Server) Shutdown(ctx context.Context) error {
	s.health.MarkShuttingDown()
	if s.cfg.RateLimiter != nil {
		s.cfg.RateLimiter.Close()
	}
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
