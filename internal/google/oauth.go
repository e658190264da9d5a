package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Environment variable names for the OAuth client credentials.
const (
	EnvClientID     = "GOOGLE_CLIENT_ID"
	EnvClientSecret = "GOOGLE_CLIENT_SECRET"
	EnvRedirectURI  = "GOOGLE_REDIRECT_URI"
)

// Credentials identify the OAuth client registered with Google.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Validate reports every missing credential at once, named by its
// environment variable.
func (c Credentials) Validate() error {
	var missing []string
	if c.ClientID == "" {
		missing = append(missing, EnvClientID)
	}
	if c.ClientSecret == "" {
		missing = append(missing, EnvClientSecret)
	}
	if c.RedirectURL == "" {
		missing = append(missing, EnvRedirectURI)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// NewOAuthConfig returns the OAuth2 configuration for Google Calendar.
// A zero endpoint selects google.Endpoint.
func NewOAuthConfig(creds Credentials, endpoint oauth2.Endpoint) *oauth2.Config {
	if endpoint.AuthURL == "" && endpoint.TokenURL == "" {
		endpoint = google.Endpoint
	}
	return &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint:     endpoint,
		RedirectURL:  creds.RedirectURL,
		Scopes:       CalendarScopes,
	}
}

// AuthCodeOptions request offline access and force the consent screen so
// Google issues a refresh token on every authorization, not only the first.
func AuthCodeOptions() []oauth2.AuthCodeOption {
	return []oauth2.AuthCodeOption{
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	}
}

// ErrNoToken is returned by a TokenSource that has neither an access token
// nor a refresh token.
var ErrNoToken = errors.New("no access token configured")

// WithHTTPClient returns ctx carrying client for the oauth2 package to use
// on token endpoint requests. A nil client leaves ctx unchanged.
func WithHTTPClient(ctx context.Context, client *http.Client) context.Context {
	if client == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, client)
}
