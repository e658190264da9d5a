package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/calhighlight/internal/google"
	"github.com/teemow/calhighlight/internal/mcptools"
	"github.com/teemow/calhighlight/internal/session"
)

func TestParseCommaSeparatedList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"empty string", "", nil},
		{"single value", "https://app.example", []string{"https://app.example"}},
		{"multiple values", "https://a.example,https://b.example", []string{"https://a.example", "https://b.example"}},
		{"spaces around comma", "https://a.example , https://b.example", []string{"https://a.example", "https://b.example"}},
		{"trailing comma", "*,", []string{"*"}},
		{"consecutive commas", "a,,b", []string{"a", "b"}},
		{"only commas and spaces", ",  , , ", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseCommaSeparatedList(tt.input))
		})
	}
}

func TestListenAddr(t *testing.T) {
	assert.Equal(t, ":3000", listenAddr("3000"))
	assert.Equal(t, "127.0.0.1:8080", listenAddr("127.0.0.1:8080"))
	assert.Equal(t, ":8080", listenAddr(":8080"))
}

func TestApplyServeEnv(t *testing.T) {
	t.Setenv("PORT", "4000")
	t.Setenv(google.EnvClientID, "env-id")
	t.Setenv(google.EnvClientSecret, "env-secret")
	t.Setenv("ALLOWED_ORIGINS", "https://app.example")
	t.Setenv("METRICS_ENABLED", "true")
	t.Setenv("OPENAI_MODEL", "gpt-4o")

	cmd := newServeCmd()
	require.NoError(t, cmd.Flags().Set("google-client-id", "flag-id"))

	cfg := serveConfig{Addr: ":3000", Google: google.Credentials{ClientID: "flag-id"}, OpenAIModel: "gpt-4o-mini"}
	applyServeEnv(cmd, &cfg)

	assert.Equal(t, ":4000", cfg.Addr)
	assert.Equal(t, "flag-id", cfg.Google.ClientID, "an explicit flag wins over the environment")
	assert.Equal(t, "env-secret", cfg.Google.ClientSecret)
	assert.Equal(t, "https://app.example", cfg.AllowedOrigins)
	assert.Equal(t, "gpt-4o", cfg.OpenAIModel)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestServeConfig_Validate(t *testing.T) {
	valid := func() serveConfig {
		return serveConfig{
			Google:      google.Credentials{ClientID: "id", ClientSecret: "secret", RedirectURL: "http://localhost:3000/auth/callback"},
			Temperature: 0.7,
			RateLimit:   10,
			RateBurst:   20,
		}
	}

	assert.NoError(t, valid().validate())

	missing := valid()
	missing.Google = google.Credentials{}
	err := missing.validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), google.EnvClientID)
	assert.Contains(t, err.Error(), google.EnvRedirectURI)

	short := valid()
	short.SessionSecret = "too-short"
	assert.ErrorIs(t, short.validate(), session.ErrSecretTooShort)

	hot := valid()
	hot.Temperature = 3
	assert.Error(t, hot.validate())

	negative := valid()
	negative.RateBurst = -1
	assert.Error(t, negative.validate())
}

func TestLoadDotEnv(t *testing.T) {
	assert.NoError(t, loadDotEnv(""))
	assert.NoError(t, loadDotEnv(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("CALHIGHLIGHT_TEST_VALUE=from-file\n"), 0o600))
	t.Setenv("CALHIGHLIGHT_TEST_VALUE", "")
	require.NoError(t, os.Unsetenv("CALHIGHLIGHT_TEST_VALUE"))

	require.NoError(t, loadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv("CALHIGHLIGHT_TEST_VALUE"))
}

func TestGenerateToolsMarkdown(t *testing.T) {
	md := generateToolsMarkdown(toolDefinitions())

	assert.True(t, strings.HasPrefix(md, "# MCP Tools Reference"))
	for _, name := range []string{mcptools.ToolGetAppointments, mcptools.ToolListColors, mcptools.ToolUpdateColor} {
		assert.Contains(t, md, "## "+name)
	}
	assert.Contains(t, md, "- `eventId` (string, required)")
	assert.Contains(t, md, "- `date` (string, optional)")
	assert.Less(t, strings.Index(md, mcptools.ToolGetAppointments), strings.Index(md, mcptools.ToolUpdateColor))
}
