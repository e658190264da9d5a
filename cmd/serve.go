package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/teemow/calhighlight/internal/calendar"
	"github.com/teemow/calhighlight/internal/categories"
	"github.com/teemow/calhighlight/internal/chat"
	"github.com/teemow/calhighlight/internal/google"
	"github.com/teemow/calhighlight/internal/instrumentation"
	"github.com/teemow/calhighlight/internal/llm"
	"github.com/teemow/calhighlight/internal/server"
	"github.com/teemow/calhighlight/internal/session"
)

// shutdownTimeout bounds the graceful shutdown of the HTTP servers.
const shutdownTimeout = 30 * time.Second

// serveConfig holds the resolved settings of the serve command.
type serveConfig struct {
	Addr string

	Google google.Credentials

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	Temperature   float64

	SessionSecret string
	SecureCookies bool

	APIKey         string
	AllowedOrigins string

	RateLimit  float64
	RateBurst  int
	TrustProxy bool

	ColorCacheTTL time.Duration

	Metrics MetricsConfig
}

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

func newServeCmd() *cobra.Command {
	cfg := serveConfig{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the calendar API server",
		Long: `Start the HTTP API server for the calendar assistant.

Google OAuth (required):
  --google-client-id, --google-client-secret and --google-redirect-uri
  OR GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET and GOOGLE_REDIRECT_URI env vars.
  For browser logins the redirect URI must point at /auth/callback.

AI features (optional):
  --openai-api-key OR OPENAI_API_KEY. Without it the chat and category
  routes answer 503.

Browser sessions (optional):
  --session-secret OR SESSION_SECRET, at least 32 characters. Without it
  only bearer tokens are accepted and the /auth routes answer 503.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			applyServeEnv(cmd, &cfg)
			if err := cfg.validate(); err != nil {
				return err
			}
			return runServe(cfg)
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.Addr, "addr", ":3000", "HTTP listen address (env: PORT)")
	f.StringVar(&cfg.Google.ClientID, "google-client-id", "", "Google OAuth client ID (env: GOOGLE_CLIENT_ID)")
	f.StringVar(&cfg.Google.ClientSecret, "google-client-secret", "", "Google OAuth client secret (env: GOOGLE_CLIENT_SECRET)")
	f.StringVar(&cfg.Google.RedirectURL, "google-redirect-uri", "", "Google OAuth redirect URI (env: GOOGLE_REDIRECT_URI)")
	f.StringVar(&cfg.OpenAIAPIKey, "openai-api-key", "", "API key of the chat completion service (env: OPENAI_API_KEY)")
	f.StringVar(&cfg.OpenAIBaseURL, "openai-base-url", "", "Base URL of an OpenAI compatible API (env: OPENAI_BASE_URL)")
	f.StringVar(&cfg.OpenAIModel, "openai-model", llm.DefaultModel, "Model name (env: OPENAI_MODEL)")
	f.Float64Var(&cfg.Temperature, "temperature", float64(llm.DefaultTemperature), "Sampling temperature")
	f.StringVar(&cfg.SessionSecret, "session-secret", "", "Secret for sealing session cookies (env: SESSION_SECRET)")
	f.BoolVar(&cfg.SecureCookies, "secure-cookies", false, "Mark session cookies Secure (enable behind HTTPS)")
	f.StringVar(&cfg.APIKey, "api-key", "", "Require this X-API-Key on /api routes (env: API_KEY)")
	f.StringVar(&cfg.AllowedOrigins, "allowed-origins", "*", "Comma-separated CORS origins (env: ALLOWED_ORIGINS)")
	f.Float64Var(&cfg.RateLimit, "rate-limit", server.DefaultRateLimit, "Requests per second per client on /api routes (0 disables)")
	f.IntVar(&cfg.RateBurst, "rate-burst", server.DefaultRateBurst, "Rate limit burst per client")
	f.BoolVar(&cfg.TrustProxy, "trust-proxy", false, "Use X-Forwarded-For and X-Real-IP for rate limiting")
	f.DurationVar(&cfg.ColorCacheTTL, "color-cache-ttl", calendar.DefaultColorTTL, "How long a fetched color palette is reused")
	f.BoolVar(&cfg.Metrics.Enabled, "metrics-enabled", false, "Serve Prometheus metrics on a separate port (env: METRICS_ENABLED)")
	f.StringVar(&cfg.Metrics.Addr, "metrics-addr", ":9090", "Metrics listen address (env: METRICS_ADDR)")

	return cmd
}

// applyServeEnv fills settings whose flag was not set from the environment.
func applyServeEnv(cmd *cobra.Command, cfg *serveConfig) {
	str := func(flag, env string, dst *string) {
		if cmd.Flags().Changed(flag) {
			return
		}
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}

	if !cmd.Flags().Changed("addr") {
		if port := os.Getenv("PORT"); port != "" {
			cfg.Addr = listenAddr(port)
		}
	}
	str("google-client-id", google.EnvClientID, &cfg.Google.ClientID)
	str("google-client-secret", google.EnvClientSecret, &cfg.Google.ClientSecret)
	str("google-redirect-uri", google.EnvRedirectURI, &cfg.Google.RedirectURL)
	str("openai-api-key", "OPENAI_API_KEY", &cfg.OpenAIAPIKey)
	str("openai-base-url", "OPENAI_BASE_URL", &cfg.OpenAIBaseURL)
	str("openai-model", "OPENAI_MODEL", &cfg.OpenAIModel)
	str("session-secret", "SESSION_SECRET", &cfg.SessionSecret)
	str("api-key", "API_KEY", &cfg.APIKey)
	str("allowed-origins", "ALLOWED_ORIGINS", &cfg.AllowedOrigins)
	str("metrics-addr", "METRICS_ADDR", &cfg.Metrics.Addr)

	if !cmd.Flags().Changed("metrics-enabled") {
		if enabled, err := strconv.ParseBool(os.Getenv("METRICS_ENABLED")); err == nil {
			cfg.Metrics.Enabled = enabled
		}
	}
}

// listenAddr turns a bare port such as "3000" into ":3000".
func listenAddr(port string) string {
	if strings.Contains(port, ":") {
		return port
	}
	return ":" + port
}

func (c serveConfig) validate() error {
	if err := c.Google.Validate(); err != nil {
		return err
	}
	if c.SessionSecret != "" && len(c.SessionSecret) < session.MinSecretLength {
		return session.ErrSecretTooShort
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %g", c.Temperature)
	}
	if c.RateLimit < 0 || c.RateBurst < 0 {
		return errors.New("rate limit and burst must not be negative")
	}
	return nil
}

func runServe(cfg serveConfig) error {
	logger := newLogger(os.Stdout, false)
	slog.SetDefault(logger)

	shutdownCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		// The signal context is already done here.
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		if err := provider.Shutdown(flushCtx); err != nil {
			logger.Warn("error during instrumentation shutdown", slog.String("error", err.Error()))
		}
	}()
	metrics := provider.Metrics()
	audit := instrumentation.NewAuditLogger(logger, instrConfig.AuditLogging)

	registry, err := buildRegistry(cfg, metrics, logger)
	if err != nil {
		return err
	}

	srvCfg := server.Config{
		Version:        version,
		Registry:       registry,
		AllowedOrigins: parseCommaSeparatedList(cfg.AllowedOrigins),
		APIKey:         cfg.APIKey,
		Metrics:        metrics,
		Audit:          audit,
		Logger:         logger,
	}

	if cfg.SessionSecret != "" {
		srvCfg.Sessions, err = session.NewStore(cfg.SessionSecret, cfg.SecureCookies, logger)
		if err != nil {
			return fmt.Errorf("failed to create session store: %w", err)
		}
	} else {
		logger.Warn("SESSION_SECRET not set, browser sessions are disabled")
	}

	if cfg.OpenAIAPIKey != "" {
		client := llm.New(
			llm.NewOpenAIClient(llm.Config{APIKey: cfg.OpenAIAPIKey, BaseURL: cfg.OpenAIBaseURL}),
			llm.WithModel(cfg.OpenAIModel),
			llm.WithTemperature(float32(cfg.Temperature)),
			llm.WithMetrics(metrics),
			llm.WithLogger(logger),
		)
		srvCfg.Categories = categories.NewEngine(client, logger)
		srvCfg.Assistant = chat.NewAssistant(client, metrics, logger)
		logger.Info("AI features enabled", slog.String("model", client.Model()))
	} else {
		logger.Warn("OPENAI_API_KEY not set, AI routes will answer 503")
	}

	if cfg.RateLimit > 0 {
		srvCfg.RateLimiter = server.NewRateLimiter(cfg.RateLimit, cfg.RateBurst, cfg.TrustProxy)
	}

	srv, err := server.New(srvCfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	var metricsServer *server.MetricsServer
	if cfg.Metrics.Enabled && provider.Enabled() {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    cfg.Metrics.Addr,
			InstrumentationProvider: provider,
			Logger:                  logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
	}

	errCh := make(chan error, 2)
	go func() {
		errCh <- srv.Start(cfg.Addr)
	}()
	if metricsServer != nil {
		go func() {
			if err := metricsServer.Start(); err != nil {
				errCh <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	select {
	case <-shutdownCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}

	ctx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			logger.Warn("error shutting down metrics server", slog.String("error", err.Error()))
		}
	}
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down HTTP server: %w", err)
	}
	logger.Info("HTTP server gracefully stopped")
	return nil
}

// buildRegistry registers the implemented calendar providers.
func buildRegistry(cfg serveConfig, metrics *instrumentation.Metrics, logger *slog.Logger) (*calendar.Registry, error) {
	registry := calendar.NewRegistry(calendar.DefaultCatalog(), metrics, logger)

	conf := google.NewOAuthConfig(cfg.Google, oauth2.Endpoint{})
	registry.Register(calendar.NewGoogleProvider(conf,
		calendar.WithColorCache(calendar.NewColorCache(cfg.ColorCacheTTL)),
		calendar.WithLogger(logger),
	))

	if len(registry.Names()) == 0 {
		return nil, errors.New("no calendar provider registered")
	}
	return registry, nil
}

// parseCommaSeparatedList parses a comma-separated string into a slice,
// trimming whitespace from each element and filtering out empty strings.
// Returns nil if the input is empty.
func parseCommaSeparatedList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
