package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/teemow/calhighlight/internal/calendar"
	"github.com/teemow/calhighlight/internal/google"
	"github.com/teemow/calhighlight/internal/instrumentation"
	"github.com/teemow/calhighlight/internal/mcptools"
)

// Environment variables holding the tokens for the stdio server.
const (
	envAccessToken  = "CALENDAR_ACCESS_TOKEN"
	envRefreshToken = "CALENDAR_REFRESH_TOKEN"
)

type mcpConfig struct {
	AccessToken  string
	RefreshToken string
	Google       google.Credentials
	ReadOnly     bool
}

func newMCPCmd() *cobra.Command {
	cfg := mcpConfig{}

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the calendar tools over MCP stdio",
		Long: `Start a Model Context Protocol server on stdin/stdout exposing the
calendar tools to AI assistants.

Tokens:
  --access-token OR CALENDAR_ACCESS_TOKEN
  --refresh-token OR CALENDAR_REFRESH_TOKEN (optional)
  A refresh token also needs GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET so an
  expired access token can be renewed.

Logs are written to stderr since stdout carries the protocol.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			applyMCPEnv(cmd, &cfg)
			return runMCP(cfg)
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.AccessToken, "access-token", "", "Calendar access token (env: "+envAccessToken+")")
	f.StringVar(&cfg.RefreshToken, "refresh-token", "", "Calendar refresh token (env: "+envRefreshToken+")")
	f.StringVar(&cfg.Google.ClientID, "google-client-id", "", "Google OAuth client ID (env: GOOGLE_CLIENT_ID)")
	f.StringVar(&cfg.Google.ClientSecret, "google-client-secret", "", "Google OAuth client secret (env: GOOGLE_CLIENT_SECRET)")
	f.BoolVar(&cfg.ReadOnly, "read-only", false, "Do not register tools that modify the calendar")

	return cmd
}

func applyMCPEnv(cmd *cobra.Command, cfg *mcpConfig) {
	for flag, env := range map[string]struct {
		name string
		dst  *string
	}{
		"access-token":         {envAccessToken, &cfg.AccessToken},
		"refresh-token":        {envRefreshToken, &cfg.RefreshToken},
		"google-client-id":     {google.EnvClientID, &cfg.Google.ClientID},
		"google-client-secret": {google.EnvClientSecret, &cfg.Google.ClientSecret},
	} {
		if cmd.Flags().Changed(flag) {
			continue
		}
		if v := os.Getenv(env.name); v != "" {
			*env.dst = v
		}
	}
}

func runMCP(cfg mcpConfig) error {
	logger := newLogger(os.Stderr, true)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.RefreshToken != "" && (cfg.Google.ClientID == "" || cfg.Google.ClientSecret == "") {
		return fmt.Errorf("a refresh token requires %s and %s", google.EnvClientID, google.EnvClientSecret)
	}
	conf := google.NewOAuthConfig(cfg.Google, oauth2.Endpoint{})
	tokens, err := google.NewTokenProvider(ctx, conf, cfg.AccessToken, cfg.RefreshToken)
	if err != nil {
		return fmt.Errorf("%w: set --access-token or %s", err, envAccessToken)
	}

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	// stdout carries the protocol, so the stdout exporters are not usable.
	if instrConfig.MetricsExporter == instrumentation.ExporterStdout {
		instrConfig.MetricsExporter = instrumentation.ExporterPrometheus
	}
	if instrConfig.TracingExporter == instrumentation.ExporterStdout {
		instrConfig.TracingExporter = instrumentation.ExporterNone
	}
	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		_ = provider.Shutdown(context.Background())
	}()

	registry := calendar.NewRegistry(calendar.DefaultCatalog(), provider.Metrics(), logger)
	gateway := registry.Register(calendar.NewGoogleProvider(conf, calendar.WithLogger(logger)))

	mcpSrv := mcpserver.NewMCPServer("calhighlight", version,
		mcpserver.WithToolCapabilities(true),
	)
	mcptools.Register(mcpSrv, &mcptools.Deps{
		Calendar: gateway,
		Tokens:   tokens,
		ReadOnly: cfg.ReadOnly,
		Metrics:  provider.Metrics(),
		Audit:    instrumentation.NewAuditLogger(logger, instrConfig.AuditLogging),
		Logger:   logger,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- mcpserver.ServeStdio(mcpSrv)
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("MCP server stopped with error: %w", err)
		}
		return nil
	}
}
