package google

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

// TokenProvider supplies a valid access token for calendar calls.
type TokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
}

// StaticTokenProvider returns the same access token on every call.
type StaticTokenProvider struct {
	token string
}

// NewStaticTokenProvider creates a provider for a token obtained elsewhere.
func NewStaticTokenProvider(token string) *StaticTokenProvider {
	return &StaticTokenProvider{token: token}
}

// AccessToken returns the configured token.
func (p *StaticTokenProvider) AccessToken(_ context.Context) (string, error) {
	if p.token == "" {
		return "", ErrNoToken
	}
	return p.token, nil
}

// RefreshingTokenProvider refreshes the access token through the OAuth
// token endpoint when it expires.
type RefreshingTokenProvider struct {
	source oauth2.TokenSource
}

// NewRefreshingTokenProvider wraps an access/refresh token pair. When expiry
// is zero the access token is treated as expired, so the first call mints a
// fresh one.
func NewRefreshingTokenProvider(ctx context.Context, conf *oauth2.Config, accessToken, refreshToken string, expiry time.Time) *RefreshingTokenProvider {
	if expiry.IsZero() {
		expiry = time.Unix(1, 0)
	}
	tok := &oauth2.Token{
		AccessToken:  accessToken,
		TokenType:    "Bearer",
		RefreshToken: refreshToken,
		Expiry:       expiry,
	}
	return &RefreshingTokenProvider{source: oauth2.ReuseTokenSource(tok, conf.TokenSource(ctx, tok))}
}

// AccessToken returns a valid access token, refreshing it if needed.
func (p *RefreshingTokenProvider) AccessToken(_ context.Context) (string, error) {
	tok, err := p.source.Token()
	if err != nil {
		return "", fmt.Errorf("failed to refresh access token: %w", err)
	}
	return tok.AccessToken, nil
}

// NewTokenProvider picks a refreshing provider when a refresh token is
// available and a static one otherwise.
func NewTokenProvider(ctx context.Context, conf *oauth2.Config, accessToken, refreshToken string) (TokenProvider, error) {
	switch {
	case refreshToken != "":
		return NewRefreshingTokenProvider(ctx, conf, accessToken, refreshToken, time.Time{}), nil
	case accessToken != "":
		return NewStaticTokenProvider(accessToken), nil
	default:
		return nil, ErrNoToken
	}
}
