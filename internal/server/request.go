package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/teemow/calhighlight/internal/calendar"
	"github.com/teemow/calhighlight/internal/logging"
	"github.com/teemow/calhighlight/internal/session"
)

const maxBodyBytes = 1 << 20

// requestBody is a JSON object body decoded field by field, so each
// field can be validated with its own error message.
type requestBody map[string]json.RawMessage

// readBody decodes a JSON object body. Empty or malformed bodies yield an
// empty requestBody.
func readBody(w http.ResponseWriter, r *http.Request) requestBody {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil || len(bytes.TrimSpace(data)) == 0 {
		return requestBody{}
	}
	var body requestBody
	if err := json.Unmarshal(data, &body); err != nil {
		loggerFrom(r.Context(), slog.Default()).Debug("ignoring malformed request body", logging.Err(err))
		return requestBody{}
	}
	return body
}

// has reports whether key is present and not null.
func (b requestBody) has(key string) bool {
	raw, ok := b[key]
	return ok && !bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// decode unmarshals key into v.
func (b requestBody) decode(key string, v any) error {
	return json.Unmarshal(b[key], v)
}

// str returns key when it holds a JSON string.
func (b requestBody) str(key string) (string, bool) {
	if !b.has(key) {
		return "", false
	}
	var s string
	if err := b.decode(key, &s); err != nil {
		return "", false
	}
	return s, true
}

// gateway resolves the provider named by ?provider or X-Calendar-Provider.
func (s *Server) gateway(r *http.Request) (*calendar.Gateway, *APIError) {
	name := r.URL.Query().Get("provider")
	if name == "" {
		name = r.Header.Get(ProviderHeader)
	}
	gw, err := s.cfg.Registry.Lookup(name)
	switch {
	case err == nil:
		return gw, nil
	case errors.Is(err, calendar.ErrProviderNotImplemented):
		return nil, NotImplementedError("Calendar provider not implemented").WithDetails(name)
	default:
		return nil, ValidationError("Unsupported calendar provider").
			WithDetails(name).
			With("supportedProviders", s.cfg.Registry.Names())
	}
}

// accessToken returns the bearer token, or else a valid token from the
// session cookie, refreshing it through gw when needed.
func (s *Server) accessToken(w http.ResponseWriter, r *http.Request, gw *calendar.Gateway) (string, *APIError) {
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		if token = strings.TrimSpace(token); token != "" {
			return token, nil
		}
	}
	if s.cfg.Sessions == nil {
		return "", AuthError(msgTokenRequired)
	}

	token, err := s.cfg.Sessions.ValidAccessToken(r.Context(), w, r, gw)
	switch {
	case err == nil:
		return token, nil
	case errors.Is(err, session.ErrNotLoggedIn):
		return "", AuthError(msgTokenRequired)
	case errors.Is(err, session.ErrSessionExpired):
		return "", AuthError(session.ErrSessionExpired.Error())
	default:
		return "", UpstreamError("Failed to load session", err)
	}
}

// calendarRequest resolves both the provider and the caller's token.
func (s *Server) calendarRequest(w http.ResponseWriter, r *http.Request) (*calendar.Gateway, string, bool) {
	gw, apiErr := s.gateway(r)
	if apiErr != nil {
		writeError(w, apiErr)
		return nil, "", false
	}
	token, apiErr := s.accessToken(w, r, gw)
	if apiErr != nil {
		writeError(w, apiErr)
		return nil, "", false
	}
	return gw, token, true
}
