package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/teemow/calhighlight/internal/calendar"
	"github.com/teemow/calhighlight/internal/logging"
)

// Cookie settings.
const (
	CookieName = "calhighlight_session"
	MaxAge     = 30 * 24 * time.Hour
)

// RefreshBuffer is how long before expiry an access token is refreshed.
const RefreshBuffer = 5 * time.Minute

var (
	// ErrNotLoggedIn is returned when the request carries no session.
	ErrNotLoggedIn = errors.New("Not logged in")

	// ErrSessionExpired is returned when the token could not be refreshed.
	// The session has been destroyed by then.
	ErrSessionExpired = errors.New("Session expired, please login again")
)

// Data is the content of the session cookie.
type Data struct {
	AccessToken  string `json:"accessToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
	ExpiryDate   int64  `json:"expiryDate,omitempty"`
	IsLoggedIn   bool   `json:"isLoggedIn"`
}

// FromTokens builds a logged-in session from an OAuth exchange.
func FromTokens(ts calendar.TokenSet) Data {
	return Data{
		AccessToken:  ts.AccessToken,
		RefreshToken: ts.RefreshToken,
		ExpiryDate:   ts.ExpiryMillis(),
		IsLoggedIn:   true,
	}
}

// Expiry returns the access token expiry.
func (d Data) Expiry() time.Time {
	return time.UnixMilli(d.ExpiryDate)
}

// Refresher mints a new access token. *calendar.Gateway implements it.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (calendar.TokenSet, error)
}

// tokenForgetter drops per-token state such as cached color palettes.
// *calendar.Gateway implements it.
type tokenForgetter interface {
	Forget(accessToken string)
}

func forget(refresher Refresher, accessToken string) {
	if f, ok := refresher.(tokenForgetter); ok {
		f.Forget(accessToken)
	}
}

// Store reads and writes the session cookie.
type Store struct {
	sealer *sealer
	secure bool
	logger *slog.Logger
	now    func() time.Time
}

// NewStore creates a Store keyed by secret. secure sets the cookie's
// Secure attribute.
func NewStore(secret string, secure bool, logger *slog.Logger) (*Store, error) {
	s, err := newSealer(secret)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		sealer: s,
		secure: secure,
		logger: logger.With(slog.String("component", "session")),
		now:    time.Now,
	}, nil
}

// Load returns the request's session. Missing or unreadable cookies yield
// a zero Data.
func (s *Store) Load(r *http.Request) Data {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return Data{}
	}
	plaintext, err := s.sealer.open(CookieName, c.Value)
	if err != nil {
		s.logger.Debug("discarding unreadable session cookie", logging.Err(err))
		return Data{}
	}
	var d Data
	if err := json.Unmarshal(plaintext, &d); err != nil {
		s.logger.Debug("discarding undecodable session cookie", logging.Err(err))
		return Data{}
	}
	return d
}

// Save writes d as the session cookie.
func (s *Store) Save(w http.ResponseWriter, d Data) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return err
	}
	value, err := s.sealer.seal(CookieName, payload)
	if err != nil {
		return err
	}
	http.SetCookie(w, s.cookie(value, int(MaxAge/time.Second)))
	return nil
}

// Destroy clears the session cookie.
func (s *Store) Destroy(w http.ResponseWriter) {
	http.SetCookie(w, s.cookie("", -1))
}

func (s *Store) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ValidAccessToken returns a usable access token from the session,
// refreshing it when it expires within RefreshBuffer. A failed refresh
// destroys the session and returns ErrSessionExpired. Either way the
// refresher forgets the old access token if it can.
func (s *Store) ValidAccessToken(ctx context.Context, w http.ResponseWriter, r *http.Request, refresher Refresher) (string, error) {
	d := s.Load(r)
	if !d.IsLoggedIn || d.AccessToken == "" {
		return "", ErrNotLoggedIn
	}
	if s.now().Add(RefreshBuffer).Before(d.Expiry()) {
		return d.AccessToken, nil
	}

	if d.RefreshToken == "" {
		forget(refresher, d.AccessToken)
		s.Destroy(w)
		return "", ErrSessionExpired
	}
	ts, err := refresher.Refresh(ctx, d.RefreshToken)
	if err != nil {
		s.logger.Info("session refresh failed", logging.Err(err))
		forget(refresher, d.AccessToken)
		s.Destroy(w)
		return "", ErrSessionExpired
	}
	forget(refresher, d.AccessToken)

	refreshed := FromTokens(ts)
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = d.RefreshToken
	}
	if err := s.Save(w, refreshed); err != nil {
		return "", err
	}
	return refreshed.AccessToken, nil
}

// StateCookieName holds the OAuth state between login and callback.
const StateCookieName = "calhighlight_oauth_state"

const stateMaxAge = 10 * time.Minute

// SaveState remembers the OAuth state for the callback.
func (s *Store) SaveState(w http.ResponseWriter, state string) {
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookieName,
		Value:    state,
		Path:     "/auth",
		MaxAge:   int(stateMaxAge / time.Second),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ConsumeState returns the remembered OAuth state and clears it.
func (s *Store) ConsumeState(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(StateCookieName)
	if err != nil {
		return ""
	}
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookieName,
		Path:     "/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return c.Value
}
