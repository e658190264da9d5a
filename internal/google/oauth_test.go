package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestCredentials_Validate(t *testing.T) {
	tests := []struct {
		name    string
		creds   Credentials
		wantErr string
	}{
		{"complete", Credentials{"id", "secret", "http://localhost/cb"}, ""},
		{"missing all", Credentials{}, "missing required environment variables: GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET, GOOGLE_REDIRECT_URI"},
		{"missing secret", Credentials{ClientID: "id", RedirectURL: "x"}, "missing required environment variables: GOOGLE_CLIENT_SECRET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.creds.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestNewOAuthConfig_AuthURL(t *testing.T) {
	conf := NewOAuthConfig(Credentials{"client-id", "secret", "http://localhost:3000/api/calendar/callback"}, oauth2.Endpoint{})
	assert.Equal(t, "https://accounts.google.com/o/oauth2/auth", conf.Endpoint.AuthURL)

	raw := conf.AuthCodeURL("state-1", AuthCodeOptions()...)
	u, err := url.Parse(raw)
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "consent", q.Get("prompt"))
	assert.Equal(t, "state-1", q.Get("state"))
	assert.Equal(t, "https://www.googleapis.com/auth/calendar.readonly https://www.googleapis.com/auth/calendar.events", q.Get("scope"))
}

func TestStaticTokenProvider(t *testing.T) {
	tok, err := NewStaticTokenProvider("abc").AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	_, err = NewStaticTokenProvider("").AccessToken(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestNewTokenProvider(t *testing.T) {
	refreshes := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		assert.Equal(t, "refresh-1", r.Form.Get("refresh_token"))
		refreshes++
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "fresh-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
	defer srv.Close()

	conf := NewOAuthConfig(Credentials{"id", "secret", "http://localhost/cb"}, oauth2.Endpoint{
		AuthURL:  srv.URL + "/auth",
		TokenURL: srv.URL + "/token",
	})
	ctx := WithHTTPClient(context.Background(), srv.Client())

	t.Run("refresh token yields refreshing provider", func(t *testing.T) {
		p, err := NewTokenProvider(ctx, conf, "stale", "refresh-1")
		require.NoError(t, err)

		tok, err := p.AccessToken(ctx)
		require.NoError(t, err)
		assert.Equal(t, "fresh-token", tok)

		tok, err = p.AccessToken(ctx)
		require.NoError(t, err)
		assert.Equal(t, "fresh-token", tok)
		assert.Equal(t, 1, refreshes, "a valid token must be reused")
	})

	t.Run("access token only yields static provider", func(t *testing.T) {
		p, err := NewTokenProvider(ctx, conf, "static", "")
		require.NoError(t, err)
		assert.IsType(t, &StaticTokenProvider{}, p)
	})

	t.Run("nothing configured", func(t *testing.T) {
		_, err := NewTokenProvider(ctx, conf, "", "")
		assert.ErrorIs(t, err, ErrNoToken)
	})
}
